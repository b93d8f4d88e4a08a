package scoring

import (
	"math"
	"strings"
	"unicode"
)

// TextRelevance is the free-text comparison result between a request and a
// candidate item.
type TextRelevance struct {
	Score      int  `json:"score"`
	TitleMatch bool `json:"titleMatch"`
}

// TitlesMatch reports whether two titles are equal after lowercasing and
// stripping every non-alphanumeric character.
func TitlesMatch(a, b string) bool {
	na := normalizeTitle(a)
	nb := normalizeTitle(b)
	return na != "" && na == nb
}

// ScoreTextRelevance computes the 0-100 keyword relevance between a request's
// text and a candidate's text, plus the exact-title flag. A request with no
// extractable keywords scores a neutral 50.
func ScoreTextRelevance(reqTitle, reqDescription, candTitle, candDescription string) TextRelevance {
	if TitlesMatch(reqTitle, candTitle) {
		return TextRelevance{Score: 100, TitleMatch: true}
	}

	reqKeywords := ExtractKeywords(reqTitle + " " + reqDescription)
	if len(reqKeywords) == 0 {
		return TextRelevance{Score: 50}
	}

	candKeywords := ExtractKeywords(candTitle + " " + candDescription)

	matched := 0
	for _, rk := range reqKeywords {
		if keywordMatches(rk, candKeywords) {
			matched++
		}
	}

	score := int(math.Round(float64(matched) / float64(len(reqKeywords)) * 100))
	return TextRelevance{Score: score}
}

func keywordMatches(keyword string, candidates []string) bool {
	for _, ck := range candidates {
		if ck == keyword || strings.Contains(ck, keyword) || strings.Contains(keyword, ck) {
			return true
		}
	}
	return false
}

func normalizeTitle(title string) string {
	var sb strings.Builder
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
