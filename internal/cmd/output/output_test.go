package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siteoptz/toolcatalog/pkg/detector"
	"github.com/siteoptz/toolcatalog/pkg/errors"
	"github.com/siteoptz/toolcatalog/pkg/reconciler"
	"github.com/siteoptz/toolcatalog/pkg/tools"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"json", FormatJSON, false},
		{" YAML ", FormatYAML, false},
		{"table", FormatTable, false},
		{"", "", false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.True(t, errors.IsValidationError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDetectFormatExplicit(t *testing.T) {
	assert.Equal(t, FormatYAML, DetectFormat("YAML"))
}

func TestTableFormatter(t *testing.T) {
	ts := Tools{
		{ID: "jasper", Name: "Jasper", Category: "Content Creation", Rating: tools.Float(4.5),
			Pricing: []tools.Plan{{Plan: "Free"}, {Plan: "Pro"}}},
		{ID: "notion", Name: "Notion", Category: "Productivity", Pricing: []tools.Plan{tools.ContactPlan()}},
	}
	var buf bytes.Buffer
	require.NoError(t, NewFormatter(FormatTable).Format(&buf, ts))

	out := buf.String()
	assert.Contains(t, out, "Jasper")
	assert.Contains(t, out, "Content Creation")
	assert.Contains(t, out, "4.5")
	assert.Contains(t, out, "Free, Pro")
	assert.Contains(t, out, "Contact Sales")
}

func TestJSONFormatterUsesValue(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewFormatter(FormatJSON).Format(&buf, Tools{{ID: "jasper", Name: "Jasper"}}))

	var got []tools.Tool
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "jasper", got[0].ID)
}

func TestYAMLFormatter(t *testing.T) {
	var buf bytes.Buffer
	meta := tools.Metadata{Categories: map[string]int{"Productivity": 2}}
	require.NoError(t, NewFormatter(FormatYAML).Format(&buf, Categories(meta)))
	assert.Equal(t, "Productivity: 2\n", buf.String())
}

func TestTableFallsBackToJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewFormatter(FormatTable).Format(&buf, map[string]int{"a": 1}))
	assert.JSONEq(t, `{"a":1}`, buf.String())
}

func TestGroupsTruncates(t *testing.T) {
	var groups Groups
	for i := range 12 {
		groups = append(groups, reconciler.Group{Kept: fmt.Sprintf("tool-%d", i), Removed: []string{"x"}, Reason: "r"})
	}
	data := groups.Table()
	require.Len(t, data.Rows, 11)
	assert.Equal(t, "... and 2 more groups", data.Rows[10][0])
}

func TestCategoriesOrder(t *testing.T) {
	data := Categories(tools.Metadata{Categories: map[string]int{"b": 1, "a": 1, "c": 3}}).Table()
	assert.Equal(t, [][]string{{"c", "3"}, {"a", "1"}, {"b", "1"}}, data.Rows)
}

func TestReviewsAndMerge(t *testing.T) {
	reviews := Reviews{{Candidate: "Jaspr", Match: detector.Match{
		Name: "Jasper", Rule: detector.RuleName, Confidence: 0.8, Reason: "Moderate name similarity (80.0%)",
	}}}
	assert.Equal(t, []string{"Jaspr", "Jasper", "name", "80%", "Moderate name similarity (80.0%)"}, reviews.Table().Rows[0])

	m := Merge(reconciler.MergeResult{
		Added:   []string{"midjourney"},
		Updated: []reconciler.Update{{ID: "jasper", Fields: []string{"description", "features"}}},
		Skipped: []reconciler.SkipReport{{New: "Notion", Existing: "Notion", Reason: "Website domain match"}},
	})
	assert.Equal(t, [][]string{
		{"added", "midjourney", ""},
		{"updated", "jasper", "description, features"},
		{"skipped", "Notion", "Website domain match (matches Notion)"},
	}, m.Table().Rows)
}

func TestIngestSummary(t *testing.T) {
	res := &reconciler.IngestResult{
		Catalog: tools.Catalog{
			Metadata: tools.Metadata{TotalScraped: 5, UniqueTools: 3, DuplicatesRemoved: 2, RunID: "run-1"},
			Tools:    make([]tools.Tool, 4),
		},
		Merge:  &reconciler.MergeResult{Added: []string{"a"}},
		Errors: []*errors.RecordError{errors.NewRecordError("x", 0, errors.ErrInvalidInput)},
	}
	s := IngestSummary(res)
	data := s.Table()
	assert.Equal(t, []string{"Total Scraped", "5"}, data.Rows[0])
	assert.Contains(t, data.Rows, []string{"Catalog Size", "4"})
	assert.Contains(t, data.Rows, []string{"Run Id", "run-1"})
	assert.Equal(t, 1, s.Value().(map[string]any)["rejected"])
}
