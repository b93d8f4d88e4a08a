// Package scoring implements the relevance, spec, price, distance and
// composite match scoring used by the matching engine.
package scoring

import (
	"strings"
	"unicode"
)

// stopWords are common words that carry no matching signal.
var stopWords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "are": {}, "but": {}, "not": {},
	"you": {}, "all": {}, "any": {}, "can": {}, "had": {}, "her": {},
	"was": {}, "one": {}, "our": {}, "out": {}, "day": {}, "get": {},
	"has": {}, "him": {}, "his": {}, "how": {}, "man": {}, "new": {},
	"now": {}, "old": {}, "see": {}, "two": {}, "way": {}, "who": {},
	"its": {}, "did": {}, "yes": {}, "your": {}, "with": {}, "from": {},
	"this": {}, "that": {}, "have": {}, "been": {}, "were": {}, "they": {},
	"them": {}, "then": {}, "than": {}, "what": {}, "when": {}, "will": {},
	"would": {}, "there": {}, "their": {}, "about": {}, "which": {},
	"some": {}, "like": {}, "into": {}, "just": {}, "also": {}, "very": {},
	"need": {}, "needs": {}, "needed": {}, "looking": {}, "want": {},
	"wanted": {}, "good": {}, "great": {}, "nice": {}, "used": {},
	"rent": {}, "rental": {}, "borrow": {}, "lend": {}, "available": {},
}

// ExtractKeywords tokenizes free text into lowercase alphanumeric keywords,
// dropping tokens of length <= 2 and stop words. Order of first occurrence is
// preserved; duplicates are removed.
func ExtractKeywords(text string) []string {
	if text == "" {
		return nil
	}

	var keywords []string
	seen := map[string]struct{}{}

	for _, token := range splitAlnum(strings.ToLower(text)) {
		if len(token) <= 2 {
			continue
		}
		if _, stop := stopWords[token]; stop {
			continue
		}
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		keywords = append(keywords, token)
	}

	return keywords
}

// TopKeywords returns at most n keywords from text.
func TopKeywords(text string, n int) []string {
	keywords := ExtractKeywords(text)
	if len(keywords) > n {
		keywords = keywords[:n]
	}
	return keywords
}

func splitAlnum(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
