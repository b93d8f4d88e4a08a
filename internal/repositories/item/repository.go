// Package item persists lender listings.
package item

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

const itemColumns = "id, owner_id, title, description, category_tier1, category_tier2, category_tier3, condition, pricing_type, price_amount, pricing_tiers, specs, is_available, availability, latitude, longitude, created_at, updated_at"

// Repository handles item persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new item repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new item
func (r *Repository) Create(ctx context.Context, item *models.Item) (*models.Item, error) {
	ctx, span := tracing.StartSpan(ctx, "item.Repository.Create")
	defer span.End()

	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	item.CreatedAt = time.Now().UTC()
	item.UpdatedAt = item.CreatedAt

	sb := sqlbuilder.PostgreSQL.NewInsertBuilder()
	sb.InsertInto("items")
	sb.Cols("id", "owner_id", "title", "description", "category_tier1", "category_tier2", "category_tier3", "condition", "pricing_type", "price_amount", "pricing_tiers", "specs", "is_available", "availability", "latitude", "longitude", "created_at", "updated_at")
	sb.Values(item.ID, item.OwnerID, item.Title, item.Description, item.CategoryTier1, item.CategoryTier2, item.CategoryTier3, item.Condition, item.PricingType, item.PriceAmount, item.PricingTiers, item.Specs, item.IsAvailable, item.Availability, item.Latitude, item.Longitude, item.CreatedAt, item.UpdatedAt)

	query, args := sb.Build()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"item_id": item.ID}).Error("Failed to create item")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to create item")
	}

	return item, nil
}

// Get retrieves an item by ID
func (r *Repository) Get(ctx context.Context, id string) (*models.Item, error) {
	ctx, span := tracing.StartSpan(ctx, "item.Repository.Get")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(itemColumns)
	sb.From("items")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var item models.Item
	if err := r.db.GetContext(ctx, &item, query, args...); err != nil {
		if err.Error() == "sql: no rows in result set" {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("item %s not found", id))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get item")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get item")
	}

	return &item, nil
}

// ListCandidates retrieves available items from other owners in the request's
// category or hitting any of its keywords, in one query.
func (r *Repository) ListCandidates(ctx context.Context, q models.CandidateQuery) ([]models.Item, error) {
	ctx, span := tracing.StartSpan(ctx, "item.Repository.ListCandidates")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(itemColumns)
	sb.From("items")

	conds := []string{
		sb.NotEqual("owner_id", q.ExcludeOwnerID),
		sb.Equal("is_available", true),
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
	var items []models.Item
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list candidate items")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list candidate items")
	}

	return items, nil
}
