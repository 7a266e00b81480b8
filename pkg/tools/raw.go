package tools

import (
	"encoding/json"
	"math"
	"strings"
	"time"

	"github.com/siteoptz/toolcatalog/pkg/constants"
	"github.com/siteoptz/toolcatalog/pkg/normalize"
)

// Raw is a candidate record as produced by a scraper. Every field is
// optional and untrusted.
type Raw struct {
	ID          string         `json:"id,omitempty" yaml:"id,omitempty"`
	Slug        string         `json:"slug,omitempty" yaml:"slug,omitempty"`
	Name        string         `json:"name" yaml:"name"`
	Description string         `json:"description" yaml:"description"`
	Category    string         `json:"category" yaml:"category"`
	Website     string         `json:"website,omitempty" yaml:"website,omitempty"`
	Pricing     *RawPricing    `json:"pricing,omitempty" yaml:"pricing,omitempty"`
	Features    []string       `json:"features,omitempty" yaml:"features,omitempty"`
	Tags        []string       `json:"tags,omitempty" yaml:"tags,omitempty"`
	Pros        []string       `json:"pros,omitempty" yaml:"pros,omitempty"`
	Cons        []string       `json:"cons,omitempty" yaml:"cons,omitempty"`
	Rating      *float64       `json:"rating,omitempty" yaml:"rating,omitempty"`
	ReviewCount *int           `json:"reviewCount,omitempty" yaml:"reviewCount,omitempty"`
	LastScraped *time.Time     `json:"lastScraped,omitempty" yaml:"lastScraped,omitempty"`
	Meta        *Meta          `json:"meta,omitempty" yaml:"meta,omitempty"`
	Schema      map[string]any `json:"schema,omitempty" yaml:"schema,omitempty"`
	Source      string         `json:"source,omitempty" yaml:"source,omitempty"`
	SourceURL   string         `json:"sourceUrl,omitempty" yaml:"sourceUrl,omitempty"`
}

// RawPricing is the pricing summary scrapers extract.
type RawPricing struct {
	HasFree       bool     `json:"hasFree" yaml:"hasFree"`
	StartingPrice *float64 `json:"startingPrice,omitempty" yaml:"startingPrice,omitempty"`
	Model         string   `json:"model,omitempty" yaml:"model,omitempty"` // free, freemium, paid
}

// rawDocument is the envelope form some scrapers write.
type rawDocument struct {
	Tools []Raw `json:"tools"`
}

// DecodeRaw decodes a JSON array of raw records or an object with a
// "tools" array.
func DecodeRaw(data []byte) ([]Raw, error) {
	trimmed := strings.TrimSpace(string(data))
	if strings.HasPrefix(trimmed, "{") {
		var doc rawDocument
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
		return doc.Tools, nil
	}
	var raws []Raw
	if err := json.Unmarshal(data, &raws); err != nil {
		return nil, err
	}
	return raws, nil
}

// FromRaw converts a raw record into a Tool. It runs once, at the pipeline
// boundary; downstream code never sees the raw shape.
//
// scrapedAt stands in for a missing lastScraped and source timestamp.
func FromRaw(raw Raw, n *normalize.Normalizer, scrapedAt time.Time) Tool {
	name := strings.TrimSpace(raw.Name)
	id := normalize.DeriveID(name)
	if id == "" {
		id = normalize.DeriveID(raw.ID)
	}
	slug := normalize.DeriveID(raw.Slug)
	if slug == "" {
		slug = id
	}

	features := dedupeStrings(raw.Features)

	var category string
	if strings.TrimSpace(raw.Category) != "" {
		category = n.Category(raw.Category)
	} else {
		category = n.Classify(append([]string{raw.Description}, features...)...)
	}

	t := Tool{
		ID:          id,
		Name:        name,
		Slug:        slug,
		Category:    category,
		Tags:        dedupeStrings(raw.Tags),
		Website:     normalize.CanonicalURL(raw.Website),
		Description: strings.TrimSpace(raw.Description),
		Features:    features,
		Pros:        dedupeStrings(raw.Pros),
		Cons:        dedupeStrings(raw.Cons),
		Pricing:     BuildPricing(raw.Pricing, features),
		Rating:      clampRating(raw.Rating),
		ReviewCount: clampReviews(raw.ReviewCount),
		Schema:      copySchema(raw.Schema),
	}
	if len(t.Pros) == 0 {
		t.Pros = nil
	}
	if len(t.Cons) == 0 {
		t.Cons = nil
	}
	if raw.Meta != nil {
		m := *raw.Meta
		t.Meta = &m
	}

	switch {
	case raw.LastScraped != nil:
		t.LastScraped = Time(raw.LastScraped.UTC())
	case !scrapedAt.IsZero():
		t.LastScraped = Time(scrapedAt.UTC())
	}

	if raw.Source != "" || raw.SourceURL != "" {
		t.Source = &SourceInfo{ScrapedFrom: raw.Source, SourceURL: raw.SourceURL}
		if t.LastScraped != nil {
			t.Source.ScrapedAt = *t.LastScraped
		}
	}
	return t
}

// BuildPricing turns a pricing summary into plan tiers. A free tier gets the
// first few features, a paid starting price becomes a "Pro" tier, and
// anything else falls back to a single contact-for-pricing plan.
func BuildPricing(p *RawPricing, features []string) []Plan {
	var plans []Plan
	if p != nil {
		model := strings.ToLower(strings.TrimSpace(p.Model))
		if p.HasFree || model == "free" || (p.StartingPrice != nil && *p.StartingPrice == 0) {
			plans = append(plans, Plan{
				Plan:          "Free",
				PricePerMonth: Amount(0),
				Features:      head(features, constants.FreePlanFeatures),
			})
		}
		if p.StartingPrice != nil && *p.StartingPrice > 0 {
			plans = append(plans, Plan{
				Plan:          "Pro",
				PricePerMonth: Amount(*p.StartingPrice),
				Features:      head(features, constants.ProPlanFeatures),
			})
		}
	}
	if len(plans) == 0 {
		plans = append(plans, ContactPlan())
	}
	return plans
}

// ContactPlan returns the pricing placeholder used when nothing is known.
func ContactPlan() Plan {
	return Plan{Plan: constants.ContactPlan, PricePerMonth: ContactPrice}
}

func head(s []string, n int) []string {
	if len(s) > n {
		s = s[:n]
	}
	if len(s) == 0 {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}

// dedupeStrings trims entries, drops empties and repeats, and keeps the
// order of first appearance. The result is never nil.
func dedupeStrings(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

func clampRating(r *float64) *float64 {
	if r == nil || math.IsNaN(*r) {
		return nil
	}
	return Float(math.Max(0, math.Min(constants.MaxRating, *r)))
}

func clampReviews(n *int) *int {
	if n == nil || *n < 0 {
		return nil
	}
	return Int(*n)
}
