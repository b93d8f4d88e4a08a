// Package specschema resolves the spec field schema for a category path.
package specschema

import (
	"context"
	"sort"

	"github.com/Gobusters/ectologger"

	"github.com/lendfield/clover/pkg/models"
	"github.com/lendfield/clover/pkg/tracing"
)

// FieldStore is the persistence surface the provider needs.
type FieldStore interface {
	ListForCategory(ctx context.Context, listingType, tier1, tier2 string) ([]models.SpecFieldRow, error)
}

// Provider resolves tier-2 default fields merged with tier-3 overrides.
type Provider struct {
	fields FieldStore
	logger ectologger.Logger
}

// NewProvider creates a new spec schema provider
func NewProvider(fields FieldStore, logger ectologger.Logger) *Provider {
	return &Provider{
		fields: fields,
		logger: logger,
	}
}

// GetSpecsForItem returns the resolved field definitions for a category path,
// or nil when the category declares no spec schema. Tier-3 rows override
// tier-2 defaults with the same key.
func (p *Provider) GetSpecsForItem(ctx context.Context, listingType, tier1, tier2, tier3 string) ([]models.SpecFieldDef, error) {
	ctx, span := tracing.StartSpan(ctx, "specschema.Provider.GetSpecsForItem")
	defer span.End()

	rows, err := p.fields.ListForCategory(ctx, listingType, tier1, tier2)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}

	merged := map[string]models.SpecFieldDef{}
	for _, row := range rows {
		if row.CategoryTier3 == nil {
			merged[row.Key] = row.SpecFieldDef
		}
	}
	if tier3 != "" {
		for _, row := range rows {
			if row.CategoryTier3 != nil && *row.CategoryTier3 == tier3 {
				merged[row.Key] = row.SpecFieldDef
			}
		}
	}

	if len(merged) == 0 {
		return nil, nil
	}

	defs := make([]models.SpecFieldDef, 0, len(merged))
	for _, def := range merged {
		defs = append(defs, def)
	}
	sort.Slice(defs, func(i, j int) bool {
		if defs[i].Position != defs[j].Position {
			return defs[i].Position < defs[j].Position
		}
		return defs[i].Key < defs[j].Key
	})

	return defs, nil
}
