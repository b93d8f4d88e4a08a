package models

import "time"

// LenderResponse is the lender's answer to a suggested match.
type LenderResponse string

const (
	LenderResponsePending  LenderResponse = "pending"
	LenderResponseAccepted LenderResponse = "accepted"
	LenderResponseDeclined LenderResponse = "declined"
)

// Match links a borrower request to a lender item with a ranking score.
// The (request, item) pair is unique; re-running a pipeline never duplicates it.
type Match struct {
	ID             string         `json:"id" db:"id"`
	RequestID      string         `json:"requestId" db:"request_id"`
	ItemID         string         `json:"itemId" db:"item_id"`
	BorrowerID     string         `json:"borrowerId" db:"borrower_id"`
	LenderID       string         `json:"lenderId" db:"lender_id"`
	DistanceMiles  float64        `json:"distanceMiles" db:"distance_miles"`
	MatchScore     float64        `json:"matchScore" db:"match_score"`
	LenderResponse LenderResponse `json:"lenderResponse" db:"lender_response"`
	RespondedAt    *time.Time     `json:"respondedAt,omitempty" db:"responded_at"`
	CreatedAt      time.Time      `json:"createdAt" db:"created_at"`
}
