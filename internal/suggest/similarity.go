package suggest

import (
	"strings"

	"github.com/texttheater/golang-levenshtein/levenshtein"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Unit insert, delete and substitute costs. levenshtein.DefaultOptions charges 2
// for a substitution.
var unitCost = levenshtein.Options{
	InsCost: 1,
	DelCost: 1,
	SubCost: 1,
	Matches: levenshtein.IdenticalRunes,
}

// Similarity returns 1 - distance/max(len(a), len(b)) over runes. Identical
// strings score 1.0 and a pair with an empty side scores 0.0.
func Similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}

	ra, rb := []rune(a), []rune(b)
	longest := max(len(ra), len(rb))
	d := levenshtein.DistanceForStrings(ra, rb, unitCost)
	return 1 - float64(d)/float64(longest)
}

// canReach reports whether strings of these rune lengths could possibly reach
// the similarity threshold. The distance is at least the length difference.
func canReach(la, lb int, threshold float64) bool {
	if la == 0 || lb == 0 {
		return false
	}
	longest := max(la, lb)
	diff := la - lb
	if diff < 0 {
		diff = -diff
	}
	return 1-float64(diff)/float64(longest) >= threshold
}

// normalize lowercases with Unicode rules and collapses whitespace.
// A Caser is stateful, so one is made per call.
func normalize(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return ""
	}
	return cases.Lower(language.Und).String(s)
}
