// Package match persists request/item matches.
package match

import (
	"context"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"
	"github.com/huandu/go-sqlbuilder"

	"github.com/lendfield/clover/pkg/database"
	"github.com/lendfield/clover/pkg/models"
	"github.com/lendfield/clover/pkg/tracing"
)

const matchColumns = "id, request_id, item_id, borrower_id, lender_id, distance_miles, match_score, lender_response, responded_at, created_at"

// Repository handles match persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new match repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// CreateBatch inserts matches in one statement. Existing (request_id, item_id)
// pairs are skipped, which makes pipeline re-runs idempotent.
func (r *Repository) CreateBatch(ctx context.Context, matches []*models.Match) error {
	ctx, span := tracing.StartSpan(ctx, "match.Repository.CreateBatch")
	defer span.End()

	if len(matches) == 0 {
		return nil
	}

	now := time.Now().UTC()
	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("matches")
	sb.Cols("id", "request_id", "item_id", "borrower_id", "lender_id", "distance_miles", "match_score", "lender_response", "created_at")

	for _, m := range matches {
		if m.ID == "" {
			m.ID = uuid.New().String()
		}
		if m.LenderResponse == "" {
			m.LenderResponse = models.LenderResponsePending
		}
		m.CreatedAt = now
		sb.Values(m.ID, m.RequestID, m.ItemID, m.BorrowerID, m.LenderID, m.DistanceMiles, m.MatchScore, m.LenderResponse, m.CreatedAt)
	}

	query, args := sb.Build()
	// Skip pairs that already exist so re-runs never duplicate a match
	query += " ON CONFLICT (request_id, item_id) DO NOTHING"

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to create matches batch")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to create matches")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{"count": len(matches)}).Debug("Created matches batch")
	return nil
}

// ListByRequest retrieves a request's matches ordered by score descending
func (r *Repository) ListByRequest(ctx context.Context, requestID string) ([]models.Match, error) {
	ctx, span := tracing.StartSpan(ctx, "match.Repository.ListByRequest")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(matchColumns)
	sb.From("matches")
	sb.Where(sb.Equal("request_id", requestID))
	sb.OrderBy("match_score").Desc()

	query, args := sb.Build()
	var matches []models.Match
	if err := r.db.SelectContext(ctx, &matches, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list matches by request")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list matches")
	}

	return matches, nil
}

// ListByItem retrieves an item's matches
func (r *Repository) ListByItem(ctx context.Context, itemID string) ([]models.Match, error) {
	ctx, span := tracing.StartSpan(ctx, "match.Repository.ListByItem")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(matchColumns)
	sb.From("matches")
	sb.Where(sb.Equal("item_id", itemID))
	sb.OrderBy("match_score").Desc()

	query, args := sb.Build()
	var matches []models.Match
	if err := r.db.SelectContext(ctx, &matches, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list matches by item")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list matches")
	}

	return matches, nil
}

// ListLiveByBorrower retrieves the borrower's non-declined matches on requests
// that are still in an active status. This is the input set for group refresh.
func (r *Repository) ListLiveByBorrower(ctx context.Context, borrowerID string) ([]models.Match, error) {
	ctx, span := tracing.StartSpan(ctx, "match.Repository.ListLiveByBorrower")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("m.id, m.request_id, m.item_id, m.borrower_id, m.lender_id, m.distance_miles, m.match_score, m.lender_response, m.responded_at, m.created_at")
	sb.From("matches m")
	sb.JoinWithOption(sqlbuilder.InnerJoin, "requests r", "r.id = m.request_id")
	sb.Where(
		sb.Equal("m.borrower_id", borrowerID),
		sb.NotEqual("m.lender_response", models.LenderResponseDeclined),
		sb.In("r.status",
			string(models.RequestStatusOpen),
			string(models.RequestStatusMatched),
			string(models.RequestStatusAccepted),
		),
	)

	query, args := sb.Build()
	var matches []models.Match
	if err := r.db.SelectContext(ctx, &matches, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list live matches by borrower")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list live matches")
	}

	return matches, nil
}
