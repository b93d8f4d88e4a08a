package models

import (
	"database/sql/driver"
	"time"

	"github.com/lendfield/clover/pkg/database"
)

// AvailabilityModeCustom restricts bookings to declared date ranges and weekdays.
const AvailabilityModeCustom = "custom"

// DateRange is a half-open [Start, End) window in UTC.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// AvailabilityRule is an owner's custom availability declaration, stored as
// JSONB on the item. A zero Mode means the item is always offerable.
type AvailabilityRule struct {
	Mode     string      `json:"mode,omitempty"`
	Ranges   []DateRange `json:"ranges,omitempty"`
	Weekdays []int       `json:"weekdays,omitempty"`
}

// IsCustom reports whether the rule actively constrains bookings.
func (r AvailabilityRule) IsCustom() bool {
	return r.Mode == AvailabilityModeCustom
}

func (r *AvailabilityRule) Scan(src any) error {
	return database.ScanJSON(src, r)
}

func (r AvailabilityRule) Value() (driver.Value, error) {
	return database.ValueJSON(r, r.Mode == "" && len(r.Ranges) == 0 && len(r.Weekdays) == 0)
}
