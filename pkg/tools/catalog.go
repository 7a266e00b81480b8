package tools

import (
	"maps"
	"slices"
	"strings"
	"time"
)

// Catalog is the persisted form of a canonical catalog: the records plus
// a metadata envelope.
type Catalog struct {
	Metadata Metadata `json:"metadata" yaml:"metadata"`
	Tools    []Tool   `json:"tools" yaml:"tools"`
}

// Metadata summarizes the run that produced a catalog.
type Metadata struct {
	TotalScraped      int            `json:"totalScraped" yaml:"totalScraped"`
	UniqueTools       int            `json:"uniqueTools" yaml:"uniqueTools"`
	DuplicatesRemoved int            `json:"duplicatesRemoved" yaml:"duplicatesRemoved"`
	Categories        map[string]int `json:"categories" yaml:"categories"`
	GeneratedAt       time.Time      `json:"generatedAt" yaml:"generatedAt"`
	RunID             string         `json:"runId,omitempty" yaml:"runId,omitempty"`
}

// CountCategories returns the number of records per category.
func CountCategories(ts []Tool) map[string]int {
	counts := make(map[string]int)
	for _, t := range ts {
		counts[t.Category]++
	}
	return counts
}

// SortedCategories returns category names ordered by count, then name.
func (m Metadata) SortedCategories() []string {
	names := slices.Collect(maps.Keys(m.Categories))
	slices.SortFunc(names, func(a, b string) int {
		if d := m.Categories[b] - m.Categories[a]; d != 0 {
			return d
		}
		return strings.Compare(a, b)
	})
	return names
}

// Find returns the record with the given id.
func (c *Catalog) Find(id string) (Tool, bool) {
	for _, t := range c.Tools {
		if t.ID == id {
			return t, true
		}
	}
	return Tool{}, false
}
