package scoring

import (
	"math"

	"github.com/lendfield/clover/pkg/models"
)

// Exact-title band bounds. 100 is reserved; nothing ever reaches it.
const (
	exactBandFloor   = 85.0
	exactBandCeiling = 97.0
	weightedCeiling  = 98.0
)

// conditionBonus rewards better-kept items in the weighted band.
var conditionBonus = map[models.Condition]float64{
	models.ConditionNew:       4,
	models.ConditionExcellent: 3,
	models.ConditionGood:      2,
	models.ConditionFair:      1,
	models.ConditionPoor:      0,
}

// Input carries the pre-computed signals for one request/item pairing.
type Input struct {
	Request  *models.Request
	Item     *models.Item
	Distance float64
	Text     TextRelevance
	Specs    SpecResult
	Price    PriceFit
	Rating   *models.RatingAggregate
}

// CategoryMatches reports whether the request and item share a category:
// equal tier1 and tier2, and equal tier3 when both declare one.
func CategoryMatches(req *models.Request, item *models.Item) bool {
	if req.CategoryTier1 == "" || req.CategoryTier2 == "" {
		return false
	}
	if req.CategoryTier1 != item.CategoryTier1 || req.CategoryTier2 != item.CategoryTier2 {
		return false
	}
	if req.CategoryTier3 != "" && item.CategoryTier3 != "" && req.CategoryTier3 != item.CategoryTier3 {
		return false
	}
	return true
}

// Score composes the final 0-100 match score. Exact-title candidates land in
// [85,97]; everything else lands in [0,98] so an exact title always ranks
// above any weighted-band result.
func Score(in Input) float64 {
	if in.Text.TitleMatch {
		return exactBandScore(in)
	}
	return weightedScore(in)
}

func exactBandScore(in Input) float64 {
	score := exactBandFloor

	if CategoryMatches(in.Request, in.Item) {
		score += 2
	}

	score += in.Price.ExactBandComponent()
	score += ratingComponent(in.Rating, 2)
	score -= exactBandDistancePenalty(in.Distance, in.Request.MaxDistance)

	return round1(clamp(score, exactBandFloor, exactBandCeiling))
}

func weightedScore(in Input) float64 {
	score := 0.45 * float64(in.Text.Score)
	score += in.Specs.Score

	if CategoryMatches(in.Request, in.Item) {
		score += 8
	}

	score += proximityComponent(in.Distance, in.Request.MaxDistance)
	score += in.Price.WeightedComponent()
	score += conditionBonus[in.Item.Condition]
	score += ratingComponent(in.Rating, 6)

	return clamp(math.Round(score), 0, weightedCeiling)
}

func ratingComponent(rating *models.RatingAggregate, max float64) float64 {
	if rating == nil || rating.RatingCount == 0 {
		return 0
	}
	return clamp(rating.AvgRating/5*max, 0, max)
}
