package models

import (
	"database/sql/driver"
	"time"

	"github.com/lendfield/clover/pkg/database"
)

// Condition is the owner-declared physical condition of an item.
type Condition string

const (
	ConditionNew       Condition = "new"
	ConditionExcellent Condition = "excellent"
	ConditionGood      Condition = "good"
	ConditionFair      Condition = "fair"
	ConditionPoor      Condition = "poor"
)

// PricingType names the rental pricing tiers an item can offer.
type PricingType string

const (
	PricingHourly  PricingType = "hourly"
	PricingDaily   PricingType = "daily"
	PricingWeekly  PricingType = "weekly"
	PricingMonthly PricingType = "monthly"
	PricingFree    PricingType = "free"
)

// ItemSpec is one owner-declared spec value keyed by field name.
type ItemSpec struct {
	Value SpecValue `json:"value"`
}

// ItemSpecMap stores the item's spec values as JSONB.
type ItemSpecMap map[string]ItemSpec

func (m *ItemSpecMap) Scan(src any) error {
	return database.ScanJSON(src, m)
}

func (m ItemSpecMap) Value() (driver.Value, error) {
	return database.ValueJSON(m, len(m) == 0)
}

// Item is a lender's listed item.
type Item struct {
	ID            string           `json:"id" db:"id"`
	OwnerID       string           `json:"ownerId" db:"owner_id"`
	Title         string           `json:"title" db:"title"`
	Description   string           `json:"description" db:"description"`
	CategoryTier1 string           `json:"categoryTier1" db:"category_tier1"`
	CategoryTier2 string           `json:"categoryTier2" db:"category_tier2"`
	CategoryTier3 string           `json:"categoryTier3,omitempty" db:"category_tier3"`
	Condition     Condition        `json:"condition" db:"condition"`
	PricingType   PricingType      `json:"pricingType,omitempty" db:"pricing_type"`
	PriceAmount   float64          `json:"priceAmount" db:"price_amount"`
	PricingTiers  TierAmounts      `json:"pricingTiers,omitempty" db:"pricing_tiers"`
	Specs         ItemSpecMap      `json:"specs,omitempty" db:"specs"`
	IsAvailable   bool             `json:"isAvailable" db:"is_available"`
	Availability  AvailabilityRule `json:"availability,omitempty" db:"availability"`
	Latitude      float64          `json:"latitude" db:"latitude"`
	Longitude     float64          `json:"longitude" db:"longitude"`
	CreatedAt     time.Time        `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time        `json:"updatedAt" db:"updated_at"`
}
