package availability

import (
	"context"
	"testing"
	"time"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lendfield/clover/pkg/models"
)

func day(d int) time.Time {
	return time.Date(2025, 6, d, 0, 0, 0, 0, time.UTC)
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name     string
		aStart   time.Time
		aEnd     time.Time
		bStart   time.Time
		bEnd     time.Time
		expected bool
	}{
		{"full overlap", day(1), day(10), day(3), day(5), true},
		{"partial overlap", day(1), day(5), day(4), day(8), true},
		{"touching endpoints do not overlap", day(1), day(5), day(5), day(8), false},
		{"disjoint", day(1), day(3), day(5), day(8), false},
		{"identical", day(2), day(4), day(2), day(4), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Overlaps(tt.aStart, tt.aEnd, tt.bStart, tt.bEnd)
			assert.Equal(t, tt.expected, got)
			// A<D && B>C, both directions
			assert.Equal(t, got, Overlaps(tt.bStart, tt.bEnd, tt.aStart, tt.aEnd))
		})
	}
}

func TestHasBlockingConflict(t *testing.T) {
	bookings := []models.Booking{
		{Status: models.BookingStatusCancelled, PickupAt: day(1), ReturnAt: day(10)},
		{Status: models.BookingStatusCompleted, PickupAt: day(1), ReturnAt: day(10)},
		{Status: models.BookingStatusActive, PickupAt: day(12), ReturnAt: day(14)},
	}

	t.Run("cancelled and completed never block", func(t *testing.T) {
		assert.False(t, HasBlockingConflict(bookings, day(2), day(4)))
	})

	t.Run("active booking blocks", func(t *testing.T) {
		assert.True(t, HasBlockingConflict(bookings, day(13), day(15)))
	})

	t.Run("disputed does not block", func(t *testing.T) {
		disputed := []models.Booking{{Status: models.BookingStatusDisputed, PickupAt: day(1), ReturnAt: day(10)}}
		assert.False(t, HasBlockingConflict(disputed, day(2), day(4)))
	})
}

func TestRuleAllows(t *testing.T) {
	t.Run("non custom mode always allows", func(t *testing.T) {
		assert.True(t, RuleAllows(models.AvailabilityRule{}, day(1), day(5)))
		assert.True(t, RuleAllows(models.AvailabilityRule{Mode: "seasonal"}, day(1), day(5)))
	})

	t.Run("window must fall inside one declared range", func(t *testing.T) {
		rule := models.AvailabilityRule{
			Mode:   models.AvailabilityModeCustom,
			Ranges: []models.DateRange{{Start: day(1), End: day(10)}, {Start: day(20), End: day(25)}},
		}
		assert.True(t, RuleAllows(rule, day(2), day(8)))
		assert.True(t, RuleAllows(rule, day(20), day(25)))
		assert.False(t, RuleAllows(rule, day(8), day(12)), "spans past the range end")
		assert.False(t, RuleAllows(rule, day(15), day(18)), "falls in the gap")
	})

	t.Run("every day must land on an allowed weekday", func(t *testing.T) {
		// 2025-06-07 is a Saturday, 2025-06-08 a Sunday.
		weekend := models.AvailabilityRule{
			Mode:     models.AvailabilityModeCustom,
			Weekdays: []int{int(time.Saturday), int(time.Sunday)},
		}
		assert.True(t, RuleAllows(weekend, day(7), day(8)))
		assert.False(t, RuleAllows(weekend, day(6), day(8)), "friday pickup not allowed")
	})

	t.Run("ranges and weekdays are both enforced", func(t *testing.T) {
		rule := models.AvailabilityRule{
			Mode:     models.AvailabilityModeCustom,
			Ranges:   []models.DateRange{{Start: day(1), End: day(30)}},
			Weekdays: []int{int(time.Saturday), int(time.Sunday)},
		}
		assert.True(t, RuleAllows(rule, day(7), day(8)))
		assert.False(t, RuleAllows(rule, day(9), day(10)))
	})

	t.Run("full weekday set is unconstrained", func(t *testing.T) {
		rule := models.AvailabilityRule{
			Mode:     models.AvailabilityModeCustom,
			Weekdays: []int{0, 1, 2, 3, 4, 5, 6},
		}
		assert.True(t, RuleAllows(rule, day(1), day(28)))
	})
}

type fakeBookingStore struct {
	conflicts []string
	blocking  map[string][]models.Booking
	calls     int
}

func (f *fakeBookingStore) ConflictingItemIDs(_ context.Context, _ []string, _, _ time.Time) ([]string, error) {
	f.calls++
	return f.conflicts, nil
}

func (f *fakeBookingStore) ListBlockingByItem(_ context.Context, itemID string) ([]models.Booking, error) {
	return f.blocking[itemID], nil
}

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func TestCheckerConflictingItems(t *testing.T) {
	store := &fakeBookingStore{conflicts: []string{"item-2"}}
	checker := NewChecker(store, testLogger())

	conflicts, err := checker.ConflictingItems(context.Background(), []string{"item-1", "item-2", "item-3"}, day(1), day(3))
	require.NoError(t, err)
	assert.Len(t, conflicts, 1)
	_, hit := conflicts["item-2"]
	assert.True(t, hit)
	assert.Equal(t, 1, store.calls, "one set-based query for the whole pool")
}

func TestCheckerEmptyPool(t *testing.T) {
	store := &fakeBookingStore{}
	checker := NewChecker(store, testLogger())

	conflicts, err := checker.ConflictingItems(context.Background(), nil, day(1), day(3))
	require.NoError(t, err)
	assert.Empty(t, conflicts)
	assert.Zero(t, store.calls)
}
