// Package matchgroup persists borrower/lender opportunity groups.
package matchgroup

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

const groupColumns = "id, borrower_id, lender_id, score, match_count, status, created_at, updated_at"

// Repository handles match group persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new match group repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// ListByBorrower retrieves all of a borrower's groups, any status
func (r *Repository) ListByBorrower(ctx context.Context, borrowerID string) ([]models.MatchGroup, error) {
	ctx, span := tracing.StartSpan(ctx, "matchgroup.Repository.ListByBorrower")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(groupColumns)
	sb.From("match_groups")
	sb.Where(sb.Equal("borrower_id", borrowerID))
	sb.OrderBy("score").Desc()

	query, args := sb.Build()
	var groups []models.MatchGroup
	if err := r.db.SelectContext(ctx, &groups, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list match groups")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list match groups")
	}

	return groups, nil
}

// Upsert writes a group keyed by (borrower_id, lender_id), refreshing score,
// count, status and updated_at on conflict.
func (r *Repository) Upsert(ctx context.Context, group *models.MatchGroup) error {
	ctx, span := tracing.StartSpan(ctx, "matchgroup.Repository.Upsert")
	defer span.End()

	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if group.CreatedAt.IsZero() {
		group.CreatedAt = now
	}
	group.UpdatedAt = now

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("match_groups")
	sb.Cols("id", "borrower_id", "lender_id", "score", "match_count", "status", "created_at", "updated_at")
	sb.Values(group.ID, group.BorrowerID, group.LenderID, group.Score, group.MatchCount, group.Status, group.CreatedAt, group.UpdatedAt)

	query, args := sb.Build()
	query += " ON CONFLICT (borrower_id, lender_id) DO UPDATE SET score = EXCLUDED.score, match_count = EXCLUDED.match_count, status = EXCLUDED.status, updated_at = EXCLUDED.updated_at"

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"borrower_id": group.BorrowerID,
			"lender_id":   group.LenderID,
		}).Error("Failed to upsert match group")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to upsert match group")
	}

	return nil
}

// UpdateStatus sets the status on a set of groups
func (r *Repository) UpdateStatus(ctx context.Context, ids []string, status models.MatchGroupStatus) error {
	ctx, span := tracing.StartSpan(ctx, "matchgroup.Repository.UpdateStatus")
	defer span.End()

	if len(ids) == 0 {
		return nil
	}

	ub := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	ub.Update("match_groups")
	ub.Set(
		ub.Assign("status", status),
		ub.Assign("updated_at", time.Now().UTC()),
	)
	ub.Where(ub.In("id", sqlbuilder.List(ids)))

	query, args := ub.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to update match group status")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to update match group status")
	}

	return nil
}
