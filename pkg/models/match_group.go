package models

import "time"

// MatchGroupStatus is the lifecycle state of a borrower/lender opportunity group.
type MatchGroupStatus string

const (
	MatchGroupStatusSuggested  MatchGroupStatus = "suggested"
	MatchGroupStatusPartial    MatchGroupStatus = "partial"
	MatchGroupStatusAccepted   MatchGroupStatus = "accepted"
	MatchGroupStatusTransacted MatchGroupStatus = "transacted"
	MatchGroupStatusExpired    MatchGroupStatus = "expired"
)

// Terminal reports whether the status is never downgraded by a refresh.
func (s MatchGroupStatus) Terminal() bool {
	return s == MatchGroupStatusAccepted || s == MatchGroupStatusTransacted
}

// MatchGroup aggregates the live matches between one borrower and one lender.
// A group exists while the pair has at least two live matches.
type MatchGroup struct {
	ID         string           `json:"id" db:"id"`
	BorrowerID string           `json:"borrowerId" db:"borrower_id"`
	LenderID   string           `json:"lenderId" db:"lender_id"`
	Score      float64          `json:"score" db:"score"`
	MatchCount int              `json:"matchCount" db:"match_count"`
	Status     MatchGroupStatus `json:"status" db:"status"`
	CreatedAt  time.Time        `json:"createdAt" db:"created_at"`
	UpdatedAt  time.Time        `json:"updatedAt" db:"updated_at"`
}
