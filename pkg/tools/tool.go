// Package tools defines the canonical tool record and its conversion from
// the raw shapes that scrapers produce.
package tools

import (
	"time"
)

// Tool is a canonical catalog entry.
type Tool struct {
	// Identity
	ID   string `json:"id" yaml:"id"`     // Derived from Name, unique in a catalog at rest
	Name string `json:"name" yaml:"name"` // Display name (must not be empty)
	Slug string `json:"slug" yaml:"slug"` // URL slug, equal to ID unless the source supplied one

	// Classification
	Category string   `json:"category" yaml:"category"` // Taxonomy category or "other"
	Tags     []string `json:"tags" yaml:"tags"`         // Set semantics, first-appearance order

	// Content
	Website     string   `json:"website,omitempty" yaml:"website,omitempty"` // Absolute URL
	Description string   `json:"description" yaml:"description"`
	Features    []string `json:"features" yaml:"features"` // Set semantics, first-appearance order
	Pros        []string `json:"pros,omitempty" yaml:"pros,omitempty"`
	Cons        []string `json:"cons,omitempty" yaml:"cons,omitempty"`
	Pricing     []Plan   `json:"pricing" yaml:"pricing"` // Never nil

	// Reputation
	Rating      *float64 `json:"rating,omitempty" yaml:"rating,omitempty"`           // 0-5
	ReviewCount *int     `json:"reviewCount,omitempty" yaml:"reviewCount,omitempty"` // >= 0

	// SEO and structured data, carried through untouched
	Meta   *Meta          `json:"meta,omitempty" yaml:"meta,omitempty"`
	Schema map[string]any `json:"schema,omitempty" yaml:"schema,omitempty"`

	// Timestamps
	LastScraped *time.Time `json:"lastScraped,omitempty" yaml:"lastScraped,omitempty"`
	LastUpdated *time.Time `json:"lastUpdated,omitempty" yaml:"lastUpdated,omitempty"`

	Source *SourceInfo `json:"source,omitempty" yaml:"source,omitempty"`
}

// Meta holds SEO metadata.
type Meta struct {
	Title       string `json:"title,omitempty" yaml:"title,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// SourceInfo records where a tool was scraped from.
type SourceInfo struct {
	ScrapedFrom string    `json:"scrapedFrom,omitempty" yaml:"scrapedFrom,omitempty"`
	SourceURL   string    `json:"sourceUrl,omitempty" yaml:"sourceUrl,omitempty"`
	ScrapedAt   time.Time `json:"scrapedAt,omitzero" yaml:"scrapedAt,omitempty"`
}

// HasTitle reports whether the tool carries an SEO title.
func (t *Tool) HasTitle() bool {
	return t.Meta != nil && t.Meta.Title != ""
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }

// Time returns a pointer to v.
func Time(v time.Time) *time.Time { return &v }
