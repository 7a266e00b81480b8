// Package merger combines two records of the same tool field by field.
package merger

import (
	"slices"
	"time"

	"github.com/siteoptz/toolcatalog/pkg/constants"
	"github.com/siteoptz/toolcatalog/pkg/tools"
)

// Merge folds incoming into canonical using the current time.
func Merge(canonical, incoming tools.Tool) tools.Tool {
	return MergeAt(canonical, incoming, time.Now())
}

// MergeAt folds incoming into canonical and stamps the result with now.
// Neither input is modified.
//
// Identity (id, slug, name) always comes from canonical. Features and tags
// are unioned in canonical order followed by new incoming entries, so the
// resulting sets do not depend on merge order.
func MergeAt(canonical, incoming tools.Tool, now time.Time) tools.Tool {
	out := canonical.Clone()
	in := incoming.Clone()

	if len([]rune(in.Description)) > len([]rune(out.Description)) {
		out.Description = in.Description
	}

	out.Features = Union(out.Features, in.Features)
	out.Tags = Union(out.Tags, in.Tags)

	if len(out.Pros) == 0 {
		out.Pros = in.Pros
	}
	if len(out.Cons) == 0 {
		out.Cons = in.Cons
	}

	if in.Rating != nil {
		out.Rating = in.Rating
	}
	out.ReviewCount = maxCount(out.ReviewCount, in.ReviewCount)

	if out.Website == "" {
		out.Website = in.Website
	}
	if out.Category == "" || out.Category == constants.OtherCategory {
		if in.Category != "" {
			out.Category = in.Category
		}
	}
	if placeholderPricing(out.Pricing) && !placeholderPricing(in.Pricing) {
		out.Pricing = in.Pricing
	}
	if !out.HasTitle() && in.HasTitle() {
		out.Meta = in.Meta
	}
	if len(out.Schema) == 0 {
		out.Schema = in.Schema
	}
	if out.Source == nil {
		out.Source = in.Source
	}

	if in.LastScraped != nil {
		out.LastScraped = in.LastScraped
	}
	out.LastUpdated = tools.Time(now.UTC())

	return out
}

// Union returns a followed by the entries of b not already present.
// Duplicates inside a are collapsed too. The result is never nil.
func Union(a, b []string) []string {
	out := make([]string, 0, len(a)+len(b))
	seen := make(map[string]bool, len(a)+len(b))
	for _, s := range slices.Concat(a, b) {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// Changes lists the fields that differ between two versions of a record.
func Changes(before, after tools.Tool) []string {
	var fields []string
	add := func(name string, changed bool) {
		if changed {
			fields = append(fields, name)
		}
	}
	add("description", before.Description != after.Description)
	add("features", !slices.Equal(before.Features, after.Features))
	add("tags", !slices.Equal(before.Tags, after.Tags))
	add("pros", !slices.Equal(before.Pros, after.Pros))
	add("cons", !slices.Equal(before.Cons, after.Cons))
	add("rating", !equalPtr(before.Rating, after.Rating))
	add("reviewCount", !equalPtr(before.ReviewCount, after.ReviewCount))
	add("website", before.Website != after.Website)
	add("category", before.Category != after.Category)
	add("pricing", !slices.EqualFunc(before.Pricing, after.Pricing, func(x, y tools.Plan) bool {
		return x.Plan == y.Plan && x.PricePerMonth == y.PricePerMonth && slices.Equal(x.Features, y.Features)
	}))
	return fields
}

func placeholderPricing(plans []tools.Plan) bool {
	return len(plans) == 0 || (len(plans) == 1 && plans[0].PricePerMonth.Contact)
}

func maxCount(a, b *int) *int {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case *b > *a:
		return b
	default:
		return a
	}
}

func equalPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
