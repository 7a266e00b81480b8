// Package similarity scores how alike two tool names are.
//
// Scores are in [0,1] and symmetric. Names are compared after
// NormalizedName strips punctuation, diacritics and generic stop words
// such as "ai" or "app", so "Jasper AI" and "jasper" compare equal.
package similarity

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/siteoptz/toolcatalog/pkg/constants"
	"github.com/siteoptz/toolcatalog/pkg/normalize"
)

var stopWords = map[string]bool{
	"ai":       true,
	"tool":     true,
	"app":      true,
	"software": true,
	"platform": true,
	"solution": true,
}

// NormalizedName reduces a display name to its comparable core.
func NormalizedName(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = foldDiacritics(s)
	s = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), r == '_':
			return r
		case unicode.IsSpace(r):
			return ' '
		default:
			return -1
		}
	}, s)

	words := strings.Fields(s)
	kept := words[:0]
	for _, w := range words {
		if !stopWords[w] {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}

func foldDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Ratio returns (maxLen - distance) / maxLen over runes. Two empty strings
// are identical; one empty string matches nothing.
func Ratio(a, b string) float64 {
	if a == b {
		return 1
	}
	ra, rb := []rune(a), []rune(b)
	longest := max(len(ra), len(rb))
	if len(ra) == 0 || len(rb) == 0 {
		return 0
	}
	d := levenshtein(ra, rb)
	return float64(longest-d) / float64(longest)
}

// Names compares two display names after normalization.
func Names(a, b string) float64 {
	return Ratio(NormalizedName(a), NormalizedName(b))
}

// Levenshtein returns the unit-cost edit distance between a and b.
func Levenshtein(a, b string) int {
	return levenshtein([]rune(a), []rune(b))
}

func levenshtein(a, b []rune) int {
	if len(a) < len(b) {
		a, b = b, a
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

// SameDomain reports whether two websites resolve to the same non-empty domain.
func SameDomain(a, b string) bool {
	da := normalize.ExtractDomain(a)
	return da != "" && da == normalize.ExtractDomain(b)
}

// SignificantWords returns the words of a normalized name that are long
// enough to identify a tool.
func SignificantWords(normalized string) []string {
	var words []string
	for _, w := range strings.Fields(normalized) {
		if len([]rune(w)) > constants.MinWordLength {
			words = append(words, w)
		}
	}
	return words
}

// Overlap returns the candidate words that have a near match (ratio above
// threshold) among the existing words, and their share of all candidate words.
func Overlap(candidate, existing []string, threshold float64) ([]string, float64) {
	if len(candidate) == 0 {
		return nil, 0
	}
	var common []string
	for _, w := range candidate {
		for _, e := range existing {
			if Ratio(w, e) > threshold {
				common = append(common, w)
				break
			}
		}
	}
	return common, float64(len(common)) / float64(len(candidate))
}
