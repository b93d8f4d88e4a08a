package scoring

import (
	"math"

	"github.com/lendfield/clover/pkg/models"
)

// requiredMatchFloor is the per-field score below which a requiredMatch field
// excludes the candidate.
const requiredMatchFloor = 0.5

// SpecFieldScore is the per-field breakdown of a spec comparison.
type SpecFieldScore struct {
	Key     string  `json:"key"`
	Score   float64 `json:"score"`
	Weight  float64 `json:"weight"`
	Missing bool    `json:"missing"`
}

// SpecResult is the structured-attribute comparison outcome. Excluded means a
// requiredMatch field failed; the candidate must be dropped, not down-scored.
type SpecResult struct {
	Score    float64          `json:"score"`
	Excluded bool             `json:"excluded"`
	Fields   []SpecFieldScore `json:"fields,omitempty"`
}

// ScoreSpecs compares the requester's spec constraints with the candidate's
// declared values under the category's field definitions. Only fields the
// requester supplied are evaluated. Returns a 0-15 score with one decimal.
func ScoreSpecs(reqSpecs models.RequestSpecMap, itemSpecs models.ItemSpecMap, defs []models.SpecFieldDef) SpecResult {
	result := SpecResult{}
	if len(reqSpecs) == 0 || len(defs) == 0 {
		return result
	}

	var weightedSum, weightTotal float64

	for _, def := range defs {
		req, ok := reqSpecs[def.Key]
		if !ok {
			continue
		}

		weight := def.MatchWeight
		field := SpecFieldScore{Key: def.Key, Weight: weight}

		// The requiredMatch exclusion applies regardless of weight; the weight
		// gate below only governs scoring.
		itemSpec, declared := itemSpecs[def.Key]
		if !declared || itemSpec.Value.IsZero() {
			field.Missing = true
			if req.RequiredMatch {
				result.Excluded = true
			}
		} else {
			field.Score = scoreSpecField(def, req, itemSpec.Value)
			if req.RequiredMatch && field.Score < requiredMatchFloor {
				result.Excluded = true
			}
		}

		if weight <= 0 {
			continue
		}
		weightTotal += weight
		if !field.Missing {
			weightedSum += field.Score * weight
		}
		result.Fields = append(result.Fields, field)
	}

	if weightTotal > 0 {
		result.Score = round1(clamp(weightedSum/weightTotal*15, 0, 15))
	}

	return result
}

func scoreSpecField(def models.SpecFieldDef, req models.RequestSpec, candidate models.SpecValue) float64 {
	switch def.Type {
	case models.SpecFieldNumber:
		return scoreNumberField(def, req, candidate)
	case models.SpecFieldBoolean:
		want, wok := req.Value.AsBool()
		got, gok := candidate.AsBool()
		if wok && gok && want == got {
			return 1
		}
		return 0
	case models.SpecFieldSelect:
		want, wok := req.Value.AsText()
		got, gok := candidate.AsText()
		if wok && gok && want == got {
			return 1
		}
		return 0
	case models.SpecFieldMultiSelect:
		return scoreMultiSelectField(req.Value, candidate)
	case models.SpecFieldText:
		// Informational only: contributes weight but never score.
		return 0
	default:
		return 0
	}
}

func scoreNumberField(def models.SpecFieldDef, req models.RequestSpec, candidate models.SpecValue) float64 {
	requested, rok := req.Value.AsNumber()
	got, gok := candidate.AsNumber()
	if !rok || !gok {
		return 0
	}

	flexibility := 0.0
	if req.Flexibility != nil {
		flexibility = *req.Flexibility
	} else if def.DefaultFlexibility != nil {
		flexibility = *def.DefaultFlexibility
	}

	distance := math.Abs(got - requested)

	if flexibility <= 0 {
		if distance == 0 {
			return 1
		}
		return math.Max(0, 1-distance/math.Max(math.Abs(requested), 1))
	}

	if distance <= flexibility {
		// Linear 1.0 at exact down to 0.7 at the flexibility edge.
		return 1 - 0.3*(distance/flexibility)
	}

	overBy := distance - flexibility
	return 0.7 * math.Exp(-overBy/flexibility)
}

func scoreMultiSelectField(requested, candidate models.SpecValue) float64 {
	want, _ := requested.AsList()
	if len(want) == 0 {
		return 1
	}

	got, _ := candidate.AsList()
	if len(got) == 0 {
		return 0
	}

	have := make(map[string]struct{}, len(got))
	for _, v := range got {
		have[v] = struct{}{}
	}

	matched := 0
	for _, v := range want {
		if _, ok := have[v]; ok {
			matched++
		}
	}

	return float64(matched) / float64(len(want))
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
