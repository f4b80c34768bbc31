package search

import (
	"math"
	"strings"

	"github.com/hbollon/go-edlib"
	"github.com/sahilm/fuzzy"
)

// DefaultThreshold is the partial-similarity score a label must exceed to
// count as a fuzzy match.
const DefaultThreshold = 80

// PartialRatio scores (0-100) how well the shorter string matches the best
// aligned window of the longer one, ignoring case. Each window is compared by
// normalized Levenshtein similarity.
func PartialRatio(a, b string) int {
	ra := []rune(strings.ToLower(a))
	rb := []rune(strings.ToLower(b))
	if len(ra) > len(rb) {
		ra, rb = rb, ra
	}
	if len(ra) == 0 {
		return 0
	}
	short := string(ra)
	var best float32
	for i := 0; i+len(ra) <= len(rb); i++ {
		sim, err := edlib.StringsSimilarity(short, string(rb[i:i+len(ra)]), edlib.Levenshtein)
		if err != nil {
			continue
		}
		if sim > best {
			best = sim
			if best == 1 {
				break
			}
		}
	}
	return int(math.Round(float64(best) * 100))
}

// Matches reports whether label matches query either as a case-insensitive
// substring or with a partial ratio above threshold.
func Matches(label, query string, threshold int) bool {
	if query == "" {
		return false
	}
	if strings.Contains(strings.ToLower(label), strings.ToLower(query)) {
		return true
	}
	return PartialRatio(label, query) > threshold
}

// Rank orders labels by subsequence match quality against query and returns
// their indices, best first. Labels that do not match at all are omitted.
func Rank(query string, labels []string) []int {
	found := fuzzy.Find(query, labels)
	out := make([]int, len(found))
	for i, m := range found {
		out[i] = m.Index
	}
	return out
}
