// Package availability decides whether an item's calendar can take a
// requested rental window, combining booking conflicts with owner-declared
// availability rules.
package availability

import (
	"time"

	"github.com/lendfield/clover/pkg/models"
)

// Overlaps reports whether two half-open intervals [aStart, aEnd) and
// [bStart, bEnd) intersect.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// HasBlockingConflict reports whether any blocking booking in the list
// overlaps the requested window.
func HasBlockingConflict(bookings []models.Booking, pickup, ret time.Time) bool {
	for _, b := range bookings {
		if !b.Status.Blocks() {
			continue
		}
		if Overlaps(b.PickupAt, b.ReturnAt, pickup, ret) {
			return true
		}
	}
	return false
}

// RuleAllows evaluates an owner's custom availability rule against a requested
// window using UTC calendar semantics. Declared ranges must fully contain the
// window; declared weekdays must cover every calendar day in it. A rule that
// is not in custom mode always allows.
func RuleAllows(rule models.AvailabilityRule, pickup, ret time.Time) bool {
	if !rule.IsCustom() {
		return true
	}

	pickup = pickup.UTC()
	ret = ret.UTC()

	if len(rule.Ranges) > 0 && !withinAnyRange(rule.Ranges, pickup, ret) {
		return false
	}

	if len(rule.Weekdays) > 0 && len(rule.Weekdays) < 7 && !weekdaysCover(rule.Weekdays, pickup, ret) {
		return false
	}

	return true
}

func withinAnyRange(ranges []models.DateRange, pickup, ret time.Time) bool {
	for _, r := range ranges {
		if !pickup.Before(r.Start.UTC()) && !ret.After(r.End.UTC()) {
			return true
		}
	}
	return false
}

func weekdaysCover(weekdays []int, pickup, ret time.Time) bool {
	allowed := map[time.Weekday]struct{}{}
	for _, d := range weekdays {
		allowed[time.Weekday(d%7)] = struct{}{}
	}

	day := time.Date(pickup.Year(), pickup.Month(), pickup.Day(), 0, 0, 0, 0, time.UTC)
	last := time.Date(ret.Year(), ret.Month(), ret.Day(), 0, 0, 0, 0, time.UTC)

	for !day.After(last) {
		if _, ok := allowed[day.Weekday()]; !ok {
			return false
		}
		day = day.AddDate(0, 0, 1)
	}
	return true
}
