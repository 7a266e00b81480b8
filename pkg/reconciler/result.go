package reconciler

import (
	"fmt"
	"time"

	"github.com/siteoptz/toolcatalog/pkg/detector"
	"github.com/siteoptz/toolcatalog/pkg/errors"
	"github.com/siteoptz/toolcatalog/pkg/tools"
)

// DedupeResult is the outcome of collapsing a batch onto unique records.
type DedupeResult struct {
	// Unique holds one record per cluster, in order of first appearance.
	Unique []tools.Tool `json:"unique"`

	// Groups lists every cluster of two or more records.
	Groups []Group `json:"groups"`

	// Review lists possible duplicates that were left alone.
	Review []Review `json:"review,omitempty"`

	// RemovedCount is len(input) - len(Unique).
	RemovedCount int `json:"removedCount"`
}

// Group is one resolved cluster of duplicates.
type Group struct {
	Kept    string   `json:"kept"`
	KeptID  string   `json:"keptId"`
	Removed []string `json:"removed"`
	Reason  string   `json:"reason"`
}

// String returns a one-line summary of the group.
func (g Group) String() string {
	return fmt.Sprintf("kept %q, removed: %s", g.Kept, joinQuoted(g.Removed))
}

// Review is a possible duplicate surfaced for a human decision.
type Review struct {
	Candidate string         `json:"candidate"`
	Match     detector.Match `json:"match"`
}

// MergeResult is the outcome of folding new records into a catalog.
type MergeResult struct {
	// Merged is the updated catalog: existing records in their original
	// order, updated in place, followed by added records.
	Merged []tools.Tool `json:"merged"`

	Added   []string     `json:"added"`
	Updated []Update     `json:"updated"`
	Skipped []SkipReport `json:"skipped"`
	Review  []Review     `json:"review,omitempty"`
}

// Update describes an existing record that absorbed a new one.
type Update struct {
	ID       string   `json:"id"`
	Incoming string   `json:"incoming"`
	Fields   []string `json:"fields"`
}

// SkipReport explains why a duplicate did not update the catalog.
type SkipReport struct {
	New      string `json:"new"`
	Existing string `json:"existing"`
	Reason   string `json:"reason"`
}

// IngestResult is the outcome of the full pipeline.
type IngestResult struct {
	Catalog tools.Catalog         `json:"catalog"`
	Dedupe  *DedupeResult         `json:"dedupe"`
	Merge   *MergeResult          `json:"merge"`
	Errors  []*errors.RecordError `json:"errors"`

	Metadata ResultMetadata `json:"-"`
}

// ResultMetadata contains timing about an ingest run.
type ResultMetadata struct {
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}

// IsSuccess returns true if every raw record was accepted.
func (r *IngestResult) IsSuccess() bool {
	return len(r.Errors) == 0
}

// Summary returns a human-readable summary of the result.
func (r *IngestResult) Summary() string {
	m := r.Catalog.Metadata
	s := fmt.Sprintf("%d scraped, %d unique, %d duplicates removed", m.TotalScraped, m.UniqueTools, m.DuplicatesRemoved)
	if r.Merge != nil {
		s += fmt.Sprintf("; %d added, %d updated, %d skipped", len(r.Merge.Added), len(r.Merge.Updated), len(r.Merge.Skipped))
	}
	if len(r.Errors) > 0 {
		s += fmt.Sprintf("; %d rejected", len(r.Errors))
	}
	return s
}

func (m *ResultMetadata) finalize(end time.Time) {
	m.EndTime = end
	m.Duration = m.EndTime.Sub(m.StartTime)
}

func joinQuoted(names []string) string {
	out := ""
	for i, n := range names {
		if i > 0 {
			out += ", "
		}
		out += fmt.Sprintf("%q", n)
	}
	return out
}
