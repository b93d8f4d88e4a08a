// Package booking reads rental transactions for conflict checks.
package booking

import (
	"context"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"

	"github.com/lendfield/clover/pkg/database"
	"github.com/lendfield/clover/pkg/models"
	"github.com/lendfield/clover/pkg/tracing"
)

// Repository reads bookings
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new booking repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func blockingStatuses() []interface{} {
	statuses := make([]interface{}, 0, len(models.BlockingBookingStatuses))
	for _, s := range models.BlockingBookingStatuses {
		statuses = append(statuses, string(s))
	}
	return statuses
}

// ConflictingItemIDs returns the distinct item IDs from the pool that have a
// blocking booking overlapping [pickup, ret). One set-based query for the
// whole pool.
func (r *Repository) ConflictingItemIDs(ctx context.Context, itemIDs []string, pickup, ret time.Time) ([]string, error) {
	ctx, span := tracing.StartSpan(ctx, "booking.Repository.ConflictingItemIDs")
	defer span.End()

	if len(itemIDs) == 0 {
		return nil, nil
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("DISTINCT item_id")
	sb.From("bookings")
	sb.Where(
		sb.In("item_id", sqlbuilder.List(itemIDs)),
		sb.In("status", blockingStatuses()...),
		sb.LessThan("pickup_at", ret),
		sb.GreaterThan("return_at", pickup),
	)

	query, args := sb.Build()
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to query booking conflicts")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to query booking conflicts")
	}

	return ids, nil
}

// ListBlockingByItem retrieves an item's bookings in blocking statuses
func (r *Repository) ListBlockingByItem(ctx context.Context, itemID string) ([]models.Booking, error) {
	ctx, span := tracing.StartSpan(ctx, "booking.Repository.ListBlockingByItem")
	defer span.End()

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id, item_id, status, pickup_at, return_at, created_at")
	sb.From("bookings")
	sb.Where(
		sb.Equal("item_id", itemID),
		sb.In("status", blockingStatuses()...),
	)
	sb.OrderBy("pickup_at")

	query, args := sb.Build()
	var bookings []models.Booking
	if err := r.db.SelectContext(ctx, &bookings, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list blocking bookings")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list blocking bookings")
	}

	return bookings, nil
}
