package quality

import (
	"math"
	"strings"
)

// Similarity compares a hypothesis with a ground-truth root cause. Results
// are expected in [0,1]; Score clamps anything outside.
type Similarity func(a, b string) float64

// LexicalSimilarity is the cosine similarity of token-count vectors after
// lowercasing and stripping punctuation. Empty input scores 0.
func LexicalSimilarity(a, b string) float64 {
	ta, tb := termCounts(a), termCounts(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	var dot, na, nb float64
	for term, ca := range ta {
		na += ca * ca
		if cb, ok := tb[term]; ok {
			dot += ca * cb
		}
	}
	for _, cb := range tb {
		nb += cb * cb
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Normalize lowercases text and replaces everything outside [a-z0-9] with
// single spaces.
func Normalize(text string) string {
	mapped := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		default:
			return ' '
		}
	}, text)
	return strings.Join(strings.Fields(mapped), " ")
}

func termCounts(text string) map[string]float64 {
	counts := make(map[string]float64)
	for _, tok := range strings.Fields(Normalize(text)) {
		counts[tok]++
	}
	return counts
}
