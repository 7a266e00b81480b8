package tools

import (
	"strings"

	"github.com/siteoptz/toolcatalog/pkg/normalize"
)

// Normalize brings a record that did not come through FromRaw, such as a
// stored or hand-written catalog entry, up to the at-rest shape: features
// and tags are non-nil, pricing falls back to the contact plan, and the
// category is mapped onto the taxonomy. Records already in that shape are
// returned unchanged. A nil normalizer leaves the category alone.
func Normalize(t Tool, n *normalize.Normalizer) Tool {
	if t.ID == "" {
		t.ID = normalize.DeriveID(t.Name)
	}
	if t.Slug == "" {
		t.Slug = t.ID
	}
	if t.Features == nil {
		t.Features = []string{}
	}
	if t.Tags == nil {
		t.Tags = []string{}
	}
	if len(t.Pricing) == 0 {
		t.Pricing = []Plan{ContactPlan()}
	}
	if n != nil && !n.IsCategory(t.Category) {
		if strings.TrimSpace(t.Category) != "" {
			t.Category = n.Category(t.Category)
		} else {
			t.Category = n.Classify(append([]string{t.Description}, t.Features...)...)
		}
	}
	return t
}

// NormalizeAll applies Normalize to every record and returns a new slice.
func NormalizeAll(ts []Tool, n *normalize.Normalizer) []Tool {
	out := make([]Tool, len(ts))
	for i, t := range ts {
		out[i] = Normalize(t, n)
	}
	return out
}
