// Package specfield reads category spec field definitions.
package specfield

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"

	"github.com/lendfield/clover/pkg/database"
	"github.com/lendfield/clover/pkg/models"
	"github.com/lendfield/clover/pkg/tracing"
)

// Repository reads spec field definitions
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new spec field repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// ListForCategory retrieves every spec field row scoped to the tier1/tier2
// path, tier-2 defaults and all tier-3 overrides together, in one query.
func (r *Repository) ListForCategory(ctx context.Context, listingType, tier1, tier2 string) ([]models.SpecFieldRow, error) {
	ctx, span := tracing.StartSpan(ctx, "specfield.Repository.ListForCategory")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id, listing_type, category_tier1, category_tier2, category_tier3, field_key, label, field_type, match_weight, default_flexibility, position")
	sb.From("spec_fields")
	sb.Where(
		sb.Equal("listing_type", listingType),
		sb.Equal("category_tier1", tier1),
		sb.Equal("category_tier2", tier2),
	)
	sb.OrderBy("position")

	query, args := sb.Build()
	var rows []models.SpecFieldRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list spec fields")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list spec fields")
	}

	return rows, nil
}
