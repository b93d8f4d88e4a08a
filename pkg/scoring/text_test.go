package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTitlesMatch(t *testing.T) {
	tests := []struct {
		name     string
		a        string
		b        string
		expected bool
	}{
		{"punctuation and case insensitive", "pressure-washer", "Pressure Washer!", true},
		{"identical", "Kayak", "Kayak", true},
		{"different titles", "Chainsaw", "Yoga Mat", false},
		{"both empty", "", "", false},
		{"one empty", "Drill", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, TitlesMatch(tt.a, tt.b))
		})
	}
}

func TestScoreTextRelevance(t *testing.T) {
	t.Run("exact title match", func(t *testing.T) {
		rel := ScoreTextRelevance("pressure-washer", "", "Pressure Washer!", "gas powered")
		assert.True(t, rel.TitleMatch)
		assert.Equal(t, 100, rel.Score)
	})

	t.Run("neutral 50 when request has no keywords", func(t *testing.T) {
		rel := ScoreTextRelevance("a", "the and", "Chainsaw", "16 inch bar")
		assert.False(t, rel.TitleMatch)
		assert.Equal(t, 50, rel.Score)
	})

	t.Run("partial keyword overlap", func(t *testing.T) {
		// request keywords: ladder, extension, painting; candidate has ladder + extension
		rel := ScoreTextRelevance("Ladder", "extension ladder painting", "Extension Ladder", "aluminum 24ft")
		assert.False(t, rel.TitleMatch)
		assert.Equal(t, 67, rel.Score)
	})

	t.Run("substring counts as a match", func(t *testing.T) {
		rel := ScoreTextRelevance("saw", "", "Chainsaw", "")
		assert.False(t, rel.TitleMatch)
		assert.Equal(t, 100, rel.Score)
	})

	t.Run("no overlap scores zero", func(t *testing.T) {
		rel := ScoreTextRelevance("Kayak", "", "Pottery Wheel", "clay included")
		assert.False(t, rel.TitleMatch)
		assert.Equal(t, 0, rel.Score)
	})
}
