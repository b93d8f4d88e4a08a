package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractKeywords(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected []string
	}{
		{
			name:     "strips punctuation and lowercases",
			text:     "Pressure-Washer! (3000 PSI)",
			expected: []string{"pressure", "washer", "3000", "psi"},
		},
		{
			name:     "drops stop words and short tokens",
			text:     "looking for a chainsaw to cut up the old oak",
			expected: []string{"chainsaw", "cut", "oak"},
		},
		{
			name:     "dedupes repeated tokens",
			text:     "drill drill DRILL bits",
			expected: []string{"drill", "bits"},
		},
		{
			name:     "empty input",
			text:     "",
			expected: nil,
		},
		{
			name:     "only stop words",
			text:     "the and for",
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ExtractKeywords(tt.text))
		})
	}
}

func TestExtractKeywordsInvariants(t *testing.T) {
	samples := []string{
		"Need a pressure washer for my driveway this weekend!!",
		"KAYAK + paddles; 2-person, lake use only",
		"the quick brown fox, who was very old, ran",
	}

	for _, text := range samples {
		for _, kw := range ExtractKeywords(text) {
			assert.Greater(t, len(kw), 2, "keyword %q too short", kw)
			_, isStop := stopWords[kw]
			assert.False(t, isStop, "keyword %q is a stop word", kw)
			for _, r := range kw {
				assert.True(t, (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'), "keyword %q not lowercase alphanumeric", kw)
			}
		}
	}
}

func TestTopKeywords(t *testing.T) {
	keywords := TopKeywords("snow blower heavy duty driveway clearing machine electric start", 5)
	assert.Len(t, keywords, 5)
	assert.Equal(t, []string{"snow", "blower", "heavy", "duty", "driveway"}, keywords)
}
