package scoring

import (
	"fmt"
	"math"
	"time"

	"github.com/lendfield/clover/pkg/models"
)

// referenceBudget is the fallback used by the exact-title price bonus when the
// request carries no budget at all.
const referenceBudget = 500.0

// maxPriceComponent is the price-fit ceiling in both score bands.
const maxPriceComponent = 8.0

// neutralPriceComponent is awarded when pricing or budget is unknown.
const neutralPriceComponent = 4.0

// PriceQuote is the cheapest applicable pricing tier for a rental window.
type PriceQuote struct {
	Tier          models.PricingType `json:"tier,omitempty"`
	UnitAmount    float64            `json:"unitAmount"`
	Units         int                `json:"units"`
	EstimatedCost float64            `json:"estimatedCost"`
	Free          bool               `json:"free"`
	Known         bool               `json:"known"`
}

// PriceFit is the budget comparison for one request/item pair.
type PriceFit struct {
	Quote        PriceQuote `json:"quote"`
	Budget       *float64   `json:"budget,omitempty"`
	WithinBudget bool       `json:"withinBudget"`
}

// tierUnits returns the billable unit count for a tier over a rental window.
func tierUnits(tier models.PricingType, from, until time.Time) int {
	hours := until.Sub(from).Hours()
	if hours < 0 {
		hours = 0
	}

	switch tier {
	case models.PricingHourly:
		return int(math.Ceil(hours))
	case models.PricingDaily:
		return maxInt(1, int(math.Ceil(hours/24)))
	case models.PricingWeekly:
		return maxInt(1, int(math.Ceil(hours/24/7)))
	case models.PricingMonthly:
		return maxInt(1, int(math.Ceil(hours/24/30)))
	default:
		return 1
	}
}

// CheapestQuote picks the cheapest declared pricing tier for the window. With
// no window the per-unit rates compare directly. Items with no pricing at all
// return an unknown quote; free items return a zero-cost quote.
func CheapestQuote(item *models.Item, from, until *time.Time) PriceQuote {
	if item.PricingType == models.PricingFree {
		return PriceQuote{Tier: models.PricingFree, Free: true, Known: true}
	}

	tiers := map[models.PricingType]float64{}
	if item.PricingType != "" && item.PricingType != models.PricingFree {
		tiers[item.PricingType] = item.PriceAmount
	}
	for name, amount := range item.PricingTiers {
		tier := models.PricingType(name)
		if tier == models.PricingFree {
			return PriceQuote{Tier: models.PricingFree, Free: true, Known: true}
		}
		tiers[tier] = amount
	}

	if len(tiers) == 0 {
		return PriceQuote{}
	}

	best := PriceQuote{Known: true}
	first := true
	for tier, amount := range tiers {
		units := 1
		if from != nil && until != nil {
			units = tierUnits(tier, *from, *until)
		}
		cost := amount * float64(units)
		if first || cost < best.EstimatedCost {
			best.Tier = tier
			best.UnitAmount = amount
			best.Units = units
			best.EstimatedCost = cost
			first = false
		}
	}

	return best
}

// EvaluatePrice compares the item's cheapest quote against the request's
// budget. Budget tiers keyed by the chosen tier name win over maxBudget.
// WithinBudget false means the candidate must be excluded outright.
func EvaluatePrice(req *models.Request, item *models.Item) PriceFit {
	quote := CheapestQuote(item, req.NeededFrom, req.NeededUntil)
	fit := PriceFit{Quote: quote, WithinBudget: true}

	if len(req.BudgetTiers) > 0 && quote.Known && !quote.Free {
		if tierBudget, ok := req.BudgetTiers[string(quote.Tier)]; ok {
			// Tier budgets are per unit; scale to the quoted unit count so the
			// ratio and fit components compare like for like.
			total := tierBudget * float64(maxInt(1, quote.Units))
			fit.Budget = &total
			fit.WithinBudget = quote.EstimatedCost <= total
			return fit
		}
	}

	if req.MaxBudget != nil {
		fit.Budget = req.MaxBudget
		if quote.Known && !quote.Free {
			fit.WithinBudget = quote.EstimatedCost <= *req.MaxBudget
		}
	}

	return fit
}

// BudgetRatio is the fits-the-budget ratio from the tier-aware comparison,
// capped at 1.0 ("fits").
func (f PriceFit) BudgetRatio() float64 {
	if f.Quote.Free {
		return 1
	}
	if !f.Quote.Known || f.Budget == nil || f.Quote.EstimatedCost <= 0 {
		return 1
	}
	return math.Min(*f.Budget/f.Quote.EstimatedCost, 1)
}

// WeightedComponent is the 0-8 price-fit contribution in the weighted band:
// free items take the full 8, unknown pricing or budget stays neutral, and
// priced items earn their remaining budget headroom.
func (f PriceFit) WeightedComponent() float64 {
	if f.Quote.Free {
		return maxPriceComponent
	}
	if !f.Quote.Known || f.Budget == nil || *f.Budget <= 0 {
		return neutralPriceComponent
	}
	return clamp(maxPriceComponent*(1-f.Quote.EstimatedCost / *f.Budget), 0, maxPriceComponent)
}

// ExactBandComponent is the 0-8 price bonus in the exact-title band. With no
// budget at all, a priced item decays against a fixed $500 reference.
func (f PriceFit) ExactBandComponent() float64 {
	if f.Quote.Free {
		return maxPriceComponent
	}
	if !f.Quote.Known {
		return neutralPriceComponent
	}
	budget := referenceBudget
	if f.Budget != nil && *f.Budget > 0 {
		budget = *f.Budget
	}
	return clamp(maxPriceComponent*(1-f.Quote.EstimatedCost/budget), 0, maxPriceComponent)
}

// FormatQuote renders a quote for notification payloads, e.g. "$25/day".
func FormatQuote(quote PriceQuote) string {
	if quote.Free {
		return "free"
	}
	if !quote.Known {
		return ""
	}

	unit := map[models.PricingType]string{
		models.PricingHourly:  "hour",
		models.PricingDaily:   "day",
		models.PricingWeekly:  "week",
		models.PricingMonthly: "month",
	}[quote.Tier]

	if unit == "" {
		return fmt.Sprintf("$%.2f", quote.UnitAmount)
	}
	return fmt.Sprintf("$%.2f/%s", quote.UnitAmount, unit)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
