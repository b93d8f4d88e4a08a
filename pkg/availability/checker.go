package availability

import (
	"context"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/lendfield/clover/pkg/models"
	"github.com/lendfield/clover/pkg/tracing"
)

// BookingStore is the booking persistence surface the checker needs.
type BookingStore interface {
	ConflictingItemIDs(ctx context.Context, itemIDs []string, pickup, ret time.Time) ([]string, error)
	ListBlockingByItem(ctx context.Context, itemID string) ([]models.Booking, error)
}

// Checker answers booking-conflict questions for the matching pipeline.
type Checker struct {
	bookings BookingStore
	logger   ectologger.Logger
}

// NewChecker creates a new availability checker.
func NewChecker(bookings BookingStore, logger ectologger.Logger) *Checker {
	return &Checker{
		bookings: bookings,
		logger:   logger,
	}
}

// ConflictingItems returns the subset of itemIDs with any blocking booking
// overlapping [pickup, ret), resolved in a single set-based query.
func (c *Checker) ConflictingItems(ctx context.Context, itemIDs []string, pickup, ret time.Time) (map[string]struct{}, error) {
	ctx, span := tracing.StartSpan(ctx, "availability.Checker.ConflictingItems")
	defer span.End()

	if len(itemIDs) == 0 {
		return map[string]struct{}{}, nil
	}

	ids, err := c.bookings.ConflictingItemIDs(ctx, itemIDs, pickup, ret)
	if err != nil {
		return nil, err
	}

	conflicts := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		conflicts[id] = struct{}{}
	}

	c.logger.WithContext(ctx).WithFields(map[string]any{
		"checked":   len(itemIDs),
		"conflicts": len(conflicts),
	}).Debug("Resolved booking conflicts for candidate pool")

	return conflicts, nil
}

// HasConflict reports whether a single item has any blocking booking
// overlapping [pickup, ret).
func (c *Checker) HasConflict(ctx context.Context, itemID string, pickup, ret time.Time) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "availability.Checker.HasConflict")
	defer span.End()

	conflicts, err := c.ConflictingItems(ctx, []string{itemID}, pickup, ret)
	if err != nil {
		return false, err
	}
	_, conflict := conflicts[itemID]
	return conflict, nil
}

// ItemBlockingBookings loads an item's blocking bookings once so the reverse
// pass can test many request windows in memory.
func (c *Checker) ItemBlockingBookings(ctx context.Context, itemID string) ([]models.Booking, error) {
	ctx, span := tracing.StartSpan(ctx, "availability.Checker.ItemBlockingBookings")
	defer span.End()

	return c.bookings.ListBlockingByItem(ctx, itemID)
}
