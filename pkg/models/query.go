package models

// CandidateQuery scopes candidate retrieval for one matching pass: same
// category, or any keyword hit in title/description, never the triggering
// user's own rows.
type CandidateQuery struct {
	ExcludeOwnerID string
	CategoryTier1  string
	CategoryTier2  string
	CategoryTier3  string
	Keywords       []string
}
