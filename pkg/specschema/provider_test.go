package specschema

import (
	"context"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lendfield/clover/pkg/models"
)

type fakeFieldStore struct {
	rows []models.SpecFieldRow
}

func (f *fakeFieldStore) ListForCategory(_ context.Context, _, _, _ string) ([]models.SpecFieldRow, error) {
	return f.rows, nil
}

func strPtr(s string) *string { return &s }

func row(key string, tier3 *string, weight float64, position int) models.SpecFieldRow {
	return models.SpecFieldRow{
		ListingType:   "item",
		CategoryTier1: "sports",
		CategoryTier2: "winter",
		CategoryTier3: tier3,
		SpecFieldDef: models.SpecFieldDef{
			Key:         key,
			Type:        models.SpecFieldNumber,
			MatchWeight: weight,
			Position:    position,
		},
	}
}

func testLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func TestGetSpecsForItem(t *testing.T) {
	store := &fakeFieldStore{rows: []models.SpecFieldRow{
		row("length", nil, 1, 1),
		row("bootSize", nil, 1, 2),
		row("bootSize", strPtr("ski-boots"), 3, 2),
		row("flexRating", strPtr("ski-boots"), 1, 3),
		row("bindingType", strPtr("snowboards"), 1, 3),
	}}
	provider := NewProvider(store, testLogger())

	t.Run("tier3 overrides tier2 defaults by key", func(t *testing.T) {
		defs, err := provider.GetSpecsForItem(context.Background(), "item", "sports", "winter", "ski-boots")
		require.NoError(t, err)
		require.Len(t, defs, 3)

		byKey := map[string]models.SpecFieldDef{}
		for _, d := range defs {
			byKey[d.Key] = d
		}
		assert.InDelta(t, 3, byKey["bootSize"].MatchWeight, 0.001, "tier3 weight wins")
		assert.Contains(t, byKey, "length")
		assert.Contains(t, byKey, "flexRating")
		assert.NotContains(t, byKey, "bindingType", "other tier3 branches excluded")
	})

	t.Run("no tier3 returns only defaults", func(t *testing.T) {
		defs, err := provider.GetSpecsForItem(context.Background(), "item", "sports", "winter", "")
		require.NoError(t, err)
		require.Len(t, defs, 2)
		assert.Equal(t, "length", defs[0].Key)
		assert.Equal(t, "bootSize", defs[1].Key)
	})

	t.Run("unknown category returns nil", func(t *testing.T) {
		provider := NewProvider(&fakeFieldStore{}, testLogger())
		defs, err := provider.GetSpecsForItem(context.Background(), "item", "x", "y", "")
		require.NoError(t, err)
		assert.Nil(t, defs)
	})
}
