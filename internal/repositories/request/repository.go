// Package request persists borrower requests.
package request

import (
	"context"
	"fmt"
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

const requestColumns = "id, requester_id, title, description, category_tier1, category_tier2, category_tier3, latitude, longitude, needed_from, needed_until, max_budget, budget_tiers, max_distance_miles, specs, status, created_at, updated_at"

// Repository handles request persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new request repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new request
func (r *Repository) Create(ctx context.Context, req *models.Request) (*models.Request, error) {
	ctx, span := tracing.StartSpan(ctx, "request.Repository.Create")
	defer span.End()

	if req.ID == "" {
		req.ID = uuid.New().String()
	}
	if req.Status == "" {
		req.Status = models.RequestStatusOpen
	}
	req.CreatedAt = time.Now().UTC()
	req.UpdatedAt = req.CreatedAt

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("requests")
	sb.Cols("id", "requester_id", "title", "description", "category_tier1", "category_tier2", "category_tier3", "latitude", "longitude", "needed_from", "needed_until", "max_budget", "budget_tiers", "max_distance_miles", "specs", "status", "created_at", "updated_at")
	sb.Values(req.ID, req.RequesterID, req.Title, req.Description, req.CategoryTier1, req.CategoryTier2, req.CategoryTier3, req.Latitude, req.Longitude, req.NeededFrom, req.NeededUntil, req.MaxBudget, req.BudgetTiers, req.MaxDistance, req.Specs, req.Status, req.CreatedAt, req.UpdatedAt)

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"request_id": req.ID}).Error("Failed to create request")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create request")
	}

	return req, nil
}

// Get retrieves a request by ID
func (r *Repository) Get(ctx context.Context, id string) (*models.Request, error) {
	ctx, span := tracing.StartSpan(ctx, "request.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(requestColumns)
	sb.From("requests")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var req models.Request
	if err := r.db.GetContext(ctx, &req, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("request %s not found", id))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get request")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get request")
	}

	return &req, nil
}

// ListCandidates retrieves open/matched requests from other users that share
// the item's category or mention any of its keywords. One query for the whole
// candidate pool.
func (r *Repository) ListCandidates(ctx context.Context, q models.CandidateQuery) ([]models.Request, error) {
	ctx, span := tracing.StartSpan(ctx, "request.Repository.ListCandidates")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(requestColumns)
	sb.From("requests")

	conds := []string{
		sb.NotEqual("requester_id", q.ExcludeOwnerID),
		sb.In("status", string(models.RequestStatusOpen), string(models.RequestStatusMatched)),
	}

	category := sb.And(
		sb.Equal("category_tier1", q.CategoryTier1),
		sb.Equal("category_tier2", q.CategoryTier2),
	)

	reach := []string{category}
	for _, kw := range q.Keywords {
		pattern := "%" + kw + "%"
		reach = append(reach, sb.ILike("title", pattern), sb.ILike("description", pattern))
	}
	conds = append(conds, sb.Or(reach...))

	sb.Where(conds...)
	sb.OrderBy("created_at").Desc()

	query, args := sb.Build()
	var requests []models.Request
	if err := r.db.SelectContext(ctx, &requests, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list candidate requests")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list candidate requests")
	}

	return requests, nil
}

// MarkMatched flips open requests to matched. Requests already past open are
// left untouched.
func (r *Repository) MarkMatched(ctx context.Context, ids []string) error {
	ctx, span := tracing.StartSpan(ctx, "request.Repository.MarkMatched")
	defer span.End()

	if len(ids) == 0 {
		return nil
	}

	ub := sqlbuilder.PostgreSQL.NewUpdateBuilder()
	ub.Update("requests")
	ub.Set(
		ub.Assign("status", models.RequestStatusMatched),
		ub.Assign("updated_at", time.Now().UTC()),
	)
	ub.Where(
		ub.In("id", sqlbuilder.List(ids)),
		ub.Equal("status", models.RequestStatusOpen),
	)

	query, args := ub.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to mark requests matched")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to mark requests matched")
	}

	return nil
}
