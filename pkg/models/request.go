package models

import (
	"database/sql/driver"
	"time"

	"github.com/lendfield/clover/pkg/database"
)

// RequestStatus is the lifecycle state of a borrower request.
type RequestStatus string

const (
	RequestStatusOpen      RequestStatus = "open"
	RequestStatusMatched   RequestStatus = "matched"
	RequestStatusAccepted  RequestStatus = "accepted"
	RequestStatusCancelled RequestStatus = "cancelled"
	RequestStatusExpired   RequestStatus = "expired"
)

// ActiveRequestStatuses are the states in which a request still participates
// in matching and grouping.
var ActiveRequestStatuses = []RequestStatus{
	RequestStatusOpen,
	RequestStatusMatched,
	RequestStatusAccepted,
}

// RequestSpec is one requested spec constraint keyed by field name.
type RequestSpec struct {
	Value         SpecValue `json:"value"`
	Flexibility   *float64  `json:"flexibility,omitempty"`
	RequiredMatch bool      `json:"requiredMatch,omitempty"`
}

// RequestSpecMap stores the requester's spec constraints as JSONB.
type RequestSpecMap map[string]RequestSpec

func (m *RequestSpecMap) Scan(src any) error {
	return database.ScanJSON(src, m)
}

func (m RequestSpecMap) Value() (driver.Value, error) {
	return database.ValueJSON(m, len(m) == 0)
}

// TierAmounts maps a pricing tier name to a dollar amount.
type TierAmounts map[string]float64

func (m *TierAmounts) Scan(src any) error {
	return database.ScanJSON(src, m)
}

func (m TierAmounts) Value() (driver.Value, error) {
	return database.ValueJSON(m, len(m) == 0)
}

// Request is a borrower's ask for an item.
type Request struct {
	ID            string        `json:"id" db:"id"`
	RequesterID   string        `json:"requesterId" db:"requester_id"`
	Title         string        `json:"title" db:"title"`
	Description   string        `json:"description" db:"description"`
	CategoryTier1 string        `json:"categoryTier1" db:"category_tier1"`
	CategoryTier2 string        `json:"categoryTier2" db:"category_tier2"`
	CategoryTier3 string        `json:"categoryTier3,omitempty" db:"category_tier3"`
	Latitude      float64       `json:"latitude" db:"latitude"`
	Longitude     float64       `json:"longitude" db:"longitude"`
	NeededFrom    *time.Time    `json:"neededFrom,omitempty" db:"needed_from"`
	NeededUntil   *time.Time    `json:"neededUntil,omitempty" db:"needed_until"`
	MaxBudget     *float64      `json:"maxBudget,omitempty" db:"max_budget"`
	BudgetTiers   TierAmounts   `json:"budgetTiers,omitempty" db:"budget_tiers"`
	MaxDistance   float64       `json:"maxDistanceMiles" db:"max_distance_miles"`
	Specs         RequestSpecMap `json:"specs,omitempty" db:"specs"`
	Status        RequestStatus `json:"status" db:"status"`
	CreatedAt     time.Time     `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time     `json:"updatedAt" db:"updated_at"`
}

// HasNeedWindow reports whether the request carries a usable rental window.
func (r *Request) HasNeedWindow() bool {
	return r.NeededFrom != nil && r.NeededUntil != nil && r.NeededUntil.After(*r.NeededFrom)
}
