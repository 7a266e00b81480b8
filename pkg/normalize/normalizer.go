// Package normalize maps raw, source-specific values onto the catalog's
// canonical forms: taxonomy categories, tool ids and website domains.
//
// All functions are pure. A Normalizer carries its Taxonomy explicitly so
// tests can substitute fixture tables.
package normalize

import (
	"strings"

	"github.com/siteoptz/toolcatalog/pkg/constants"
)

// Normalizer resolves raw category labels against a Taxonomy.
type Normalizer struct {
	taxonomy   Taxonomy
	exact      map[string]string
	categories map[string]bool
}

// New creates a Normalizer for the given taxonomy.
func New(t Taxonomy) *Normalizer {
	n := &Normalizer{
		taxonomy:   t,
		exact:      make(map[string]string, len(t.Synonyms)),
		categories: make(map[string]bool),
	}
	for _, s := range t.Synonyms {
		// first entry wins, matching the partial scan order
		if _, ok := n.exact[s.Key]; !ok {
			n.exact[s.Key] = s.Category
		}
	}
	for _, c := range t.Categories() {
		n.categories[c] = true
	}
	return n
}

// Default returns a Normalizer over DefaultTaxonomy.
func Default() *Normalizer {
	return New(DefaultTaxonomy())
}

// Taxonomy returns the table the normalizer was built with.
func (n *Normalizer) Taxonomy() Taxonomy {
	return n.taxonomy
}

// Category maps a raw label onto a taxonomy category.
//
// The label is trimmed and lower-cased, then looked up exactly. Failing
// that, the first synonym in table order where either string contains the
// other wins. Anything else is "other".
func (n *Normalizer) Category(raw string) string {
	label := strings.ToLower(strings.TrimSpace(raw))
	if label == "" {
		return constants.OtherCategory
	}
	if c, ok := n.exact[label]; ok {
		return c
	}
	for _, s := range n.taxonomy.Synonyms {
		if strings.Contains(label, s.Key) || strings.Contains(s.Key, label) {
			return s.Category
		}
	}
	return constants.OtherCategory
}

// Classify picks a category from free text such as a description and
// feature list. Each keyword found adds its word count to its category;
// the highest total wins, earlier keyword sets win ties. Text without any
// hit is "other".
func (n *Normalizer) Classify(text ...string) string {
	haystack := strings.ToLower(strings.Join(text, " "))
	best, bestScore := constants.OtherCategory, 0
	for _, set := range n.taxonomy.Keywords {
		score := 0
		for _, kw := range set.Keywords {
			if strings.Contains(haystack, kw) {
				score += len(strings.Fields(kw))
			}
		}
		if score > bestScore {
			best, bestScore = set.Category, score
		}
	}
	return best
}

// IsCategory reports whether c is a taxonomy category or the fallback.
func (n *Normalizer) IsCategory(c string) bool {
	return c == constants.OtherCategory || n.categories[c]
}
