package tools

import (
	"maps"
	"slices"
)

// Clone returns a deep copy of the tool. Merges and selections work on
// clones so callers' records are never modified.
func (t Tool) Clone() Tool {
	out := t
	out.Tags = slices.Clone(t.Tags)
	out.Features = slices.Clone(t.Features)
	out.Pros = slices.Clone(t.Pros)
	out.Cons = slices.Clone(t.Cons)
	if t.Pricing != nil {
		out.Pricing = make([]Plan, len(t.Pricing))
		for i, p := range t.Pricing {
			p.Features = slices.Clone(p.Features)
			out.Pricing[i] = p
		}
	}
	if t.Rating != nil {
		out.Rating = Float(*t.Rating)
	}
	if t.ReviewCount != nil {
		out.ReviewCount = Int(*t.ReviewCount)
	}
	if t.Meta != nil {
		m := *t.Meta
		out.Meta = &m
	}
	out.Schema = copySchema(t.Schema)
	if t.LastScraped != nil {
		out.LastScraped = Time(*t.LastScraped)
	}
	if t.LastUpdated != nil {
		out.LastUpdated = Time(*t.LastUpdated)
	}
	if t.Source != nil {
		s := *t.Source
		out.Source = &s
	}
	return out
}

func copySchema(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := maps.Clone(in)
	for k, v := range out {
		switch x := v.(type) {
		case map[string]any:
			out[k] = copySchema(x)
		case []any:
			out[k] = slices.Clone(x)
		}
	}
	return out
}
