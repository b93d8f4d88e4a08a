package models

// RatingAggregate is a lender's average rating on the 0-5 scale.
type RatingAggregate struct {
	OwnerID     string  `json:"ownerId" db:"owner_id"`
	AvgRating   float64 `json:"avgRating" db:"avg_rating"`
	RatingCount int     `json:"ratingCount" db:"rating_count"`
}
