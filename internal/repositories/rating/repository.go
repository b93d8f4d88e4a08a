// Package rating reads lender rating aggregates.
package rating

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

// Repository reads rating aggregates
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new rating repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// AggregateByOwners returns avg rating and count per owner in one group-by
// query. Owners with no ratings are absent from the map.
func (r *Repository) AggregateByOwners(ctx context.Context, ownerIDs []string) (map[string]models.RatingAggregate, error) {
	ctx, span := tracing.StartSpan(ctx, "rating.Repository.AggregateByOwners")
	defer span.End()

	if len(ownerIDs) == 0 {
		return map[string]models.RatingAggregate{}, nil
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(
		"rated_user_id AS owner_id",
		"AVG(score)::float8 AS avg_rating",
		"COUNT(*) AS rating_count",
	)
	sb.From("ratings")
	sb.Where(sb.In("rated_user_id", sqlbuilder.List(ownerIDs)))
	sb.GroupBy("rated_user_id")

	query, args := sb.Build()
	var rows []models.RatingAggregate
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to aggregate owner ratings")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to aggregate ratings")
	}

	aggregates := make(map[string]models.RatingAggregate, len(rows))
	for _, row := range rows {
		aggregates[row.OwnerID] = row
	}

	return aggregates, nil
}
