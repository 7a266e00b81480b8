package output

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/siteoptz/toolcatalog/pkg/constants"
	"github.com/siteoptz/toolcatalog/pkg/errors"
	"github.com/siteoptz/toolcatalog/pkg/reconciler"
	"github.com/siteoptz/toolcatalog/pkg/tools"
)

// Tools renders catalog records.
type Tools []tools.Tool

// Value implements Tabular.
func (t Tools) Value() any { return []tools.Tool(t) }

// Table implements Tabular.
func (t Tools) Table() Data {
	data := Data{
		Headers:         []string{"ID", "Name", "Category", "Website", "Rating", "Pricing"},
		ColumnAlignment: []Align{AlignLeft, AlignLeft, AlignLeft, AlignLeft, AlignRight, AlignLeft},
	}
	for _, tool := range t {
		rating := "-"
		if tool.Rating != nil {
			rating = strconv.FormatFloat(*tool.Rating, 'f', 1, 64)
		}
		plans := make([]string, 0, len(tool.Pricing))
		for _, p := range tool.Pricing {
			plans = append(plans, p.Plan)
		}
		data.Rows = append(data.Rows, []string{
			tool.ID, tool.Name, tool.Category, tool.Website, rating, strings.Join(plans, ", "),
		})
	}
	return data
}

// Groups renders duplicate groups, at most constants.SummaryGroups of them.
type Groups []reconciler.Group

// Value implements Tabular.
func (g Groups) Value() any { return []reconciler.Group(g) }

// Table implements Tabular.
func (g Groups) Table() Data {
	data := Data{Headers: []string{"Kept", "Removed", "Reason"}}
	for i, group := range g {
		if i == constants.SummaryGroups {
			data.Rows = append(data.Rows, []string{fmt.Sprintf("... and %d more groups", len(g)-i), "", ""})
			break
		}
		data.Rows = append(data.Rows, []string{group.Kept, strings.Join(group.Removed, ", "), group.Reason})
	}
	return data
}

// Reviews renders possible duplicates awaiting a decision.
type Reviews []reconciler.Review

// Value implements Tabular.
func (r Reviews) Value() any { return []reconciler.Review(r) }

// Table implements Tabular.
func (r Reviews) Table() Data {
	data := Data{
		Headers:         []string{"Candidate", "Possible Duplicate", "Rule", "Confidence", "Reason"},
		ColumnAlignment: []Align{AlignLeft, AlignLeft, AlignLeft, AlignRight, AlignLeft},
	}
	for _, review := range r {
		data.Rows = append(data.Rows, []string{
			review.Candidate,
			review.Match.Name,
			review.Match.Rule.String(),
			fmt.Sprintf("%.0f%%", review.Match.Confidence*100),
			review.Match.Reason,
		})
	}
	return data
}

// Categories renders category counts, largest first.
type Categories tools.Metadata

// Value implements Tabular.
func (c Categories) Value() any { return c.Categories }

// Table implements Tabular.
func (c Categories) Table() Data {
	data := Data{
		Headers:         []string{"Category", "Tools"},
		ColumnAlignment: []Align{AlignLeft, AlignRight},
	}
	for _, name := range tools.Metadata(c).SortedCategories() {
		data.Rows = append(data.Rows, []string{name, strconv.Itoa(c.Categories[name])})
	}
	return data
}

// Merge renders what happened to each incoming record.
type Merge reconciler.MergeResult

// Value implements Tabular.
func (m Merge) Value() any { return reconciler.MergeResult(m) }

// Table implements Tabular.
func (m Merge) Table() Data {
	data := Data{Headers: []string{"Outcome", "Tool", "Detail"}}
	for _, id := range m.Added {
		data.Rows = append(data.Rows, []string{"added", id, ""})
	}
	for _, u := range m.Updated {
		data.Rows = append(data.Rows, []string{"updated", u.ID, strings.Join(u.Fields, ", ")})
	}
	for _, s := range m.Skipped {
		data.Rows = append(data.Rows, []string{"skipped", s.New, fmt.Sprintf("%s (matches %s)", s.Reason, s.Existing)})
	}
	return data
}

// Rejections renders records that failed validation.
type Rejections []*errors.RecordError

// Value implements Tabular.
func (r Rejections) Value() any { return []*errors.RecordError(r) }

// Table implements Tabular.
func (r Rejections) Table() Data {
	data := Data{
		Headers:         []string{"Index", "Name", "Reason"},
		ColumnAlignment: []Align{AlignRight, AlignLeft, AlignLeft},
	}
	for _, e := range r {
		data.Rows = append(data.Rows, []string{strconv.Itoa(e.Index), e.Name, e.Reason})
	}
	return data
}

// Field is one labelled value of a Summary.
type Field struct {
	Label string
	Value any
}

// Summary renders labelled values as a two column table.
type Summary []Field

// Value implements Tabular.
func (s Summary) Value() any {
	out := make(map[string]any, len(s))
	for _, f := range s {
		out[f.Label] = f.Value
	}
	return out
}

// Table implements Tabular.
func (s Summary) Table() Data {
	caser := cases.Title(language.English)
	data := Data{ColumnAlignment: []Align{AlignLeft, AlignRight}}
	for _, f := range s {
		data.Rows = append(data.Rows, []string{caser.String(f.Label), fmt.Sprint(f.Value)})
	}
	return data
}

// IngestSummary summarizes an ingest run.
func IngestSummary(res *reconciler.IngestResult) Summary {
	m := res.Catalog.Metadata
	s := Summary{
		{"total scraped", m.TotalScraped},
		{"unique tools", m.UniqueTools},
		{"duplicates removed", m.DuplicatesRemoved},
	}
	if res.Merge != nil {
		s = append(s,
			Field{"added", len(res.Merge.Added)},
			Field{"updated", len(res.Merge.Updated)},
			Field{"skipped", len(res.Merge.Skipped)},
		)
	}
	s = append(s,
		Field{"rejected", len(res.Errors)},
		Field{"catalog size", len(res.Catalog.Tools)},
	)
	if m.RunID != "" {
		s = append(s, Field{"run id", m.RunID})
	}
	return s
}
