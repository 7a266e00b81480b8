// Package detector decides whether a candidate tool duplicates records
// already in a catalog.
//
// Each existing record is checked independently against four rules:
//
//  1. identity: the derived ids or slugs agree (definite, 1.0)
//  2. domain: both websites share a non-empty domain (definite, 0.95)
//  3. name: normalized-name similarity reaches the name threshold
//     (definite) or the moderate threshold (possible)
//  4. word overlap: most of the candidate's significant words have a near
//     match (possible, 0.7)
//
// The first of rules 1-3 to fire decides the pair. Rule 4 is always
// evaluated and only ever yields possible duplicates; automatic merging
// acts on definite matches alone.
package detector

import (
	"context"
	"fmt"
	"strings"

	"github.com/sourcegraph/conc/iter"

	"github.com/siteoptz/toolcatalog/pkg/constants"
	"github.com/siteoptz/toolcatalog/pkg/normalize"
	"github.com/siteoptz/toolcatalog/pkg/similarity"
	"github.com/siteoptz/toolcatalog/pkg/tools"
)

// Rule names the signal behind a match.
type Rule string

// String returns the string representation of a Rule.
func (r Rule) String() string {
	return string(r)
}

// Detection rules.
const (
	RuleIdentity    Rule = "identity"
	RuleDomain      Rule = "domain"
	RuleName        Rule = "name"
	RuleWordOverlap Rule = "word-overlap"
)

// Match is one existing record flagged against a candidate.
type Match struct {
	Index      int     `json:"index"` // Position in the existing slice
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Rule       Rule    `json:"rule"`
	Reason     string  `json:"reason"`
	Confidence float64 `json:"confidence"`
}

// Result splits matches by tier. Both slices follow the order of the
// existing records.
type Result struct {
	Definite []Match `json:"definite"`
	Possible []Match `json:"possible"`
}

// HasDefinite reports whether any definite duplicate was found.
func (r Result) HasDefinite() bool {
	return len(r.Definite) > 0
}

// Detector applies the detection rules with fixed options.
// It holds no mutable state and is safe for concurrent use.
type Detector struct {
	opts Options
}

// New creates a Detector.
func New(opts Options) (*Detector, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Detector{opts: opts}, nil
}

// Options returns the detector's options.
func (d *Detector) Options() Options {
	return d.opts
}

// Find checks candidate against every existing record.
func (d *Detector) Find(candidate tools.Tool, existing []tools.Tool) Result {
	return d.Search(candidate, NewCorpus(existing), nil)
}

// Search checks candidate against the records of a corpus. When include is
// non-nil only indexes it accepts are considered.
func (d *Detector) Search(candidate tools.Tool, c *Corpus, include func(int) bool) Result {
	cp := newProfile(candidate)
	var res Result
	for i := range c.profiles {
		if include != nil && !include(i) {
			continue
		}
		d.compare(&cp, &c.profiles[i], i, &res)
	}
	return res
}

// FindAll runs Find for each candidate concurrently. Results are in
// candidate order and identical to sequential calls.
func (d *Detector) FindAll(ctx context.Context, candidates, existing []tools.Tool) ([]Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	corpus := NewCorpus(existing)
	mapper := iter.Mapper[tools.Tool, Result]{MaxGoroutines: d.opts.workers()}
	results := mapper.Map(candidates, func(c *tools.Tool) Result {
		if ctx.Err() != nil {
			return Result{}
		}
		return d.Search(*c, corpus, nil)
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

// Pairwise compares every corpus record with the records after it. Entry i
// holds the matches of record i against records i+1 and later. The
// comparisons run concurrently; the result is deterministic.
func (d *Detector) Pairwise(ctx context.Context, c *Corpus) ([]Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	indexes := make([]int, c.Len())
	for i := range indexes {
		indexes[i] = i
	}
	mapper := iter.Mapper[int, Result]{MaxGoroutines: d.opts.workers()}
	results := mapper.Map(indexes, func(i *int) Result {
		if ctx.Err() != nil {
			return Result{}
		}
		from := *i
		return d.Search(c.Tool(from), c, func(j int) bool { return j > from })
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func (d *Detector) compare(cand, ex *profile, index int, res *Result) {
	match := func(rule Rule, reason string, confidence float64) Match {
		return Match{
			Index:      index,
			ID:         ex.tool.ID,
			Name:       ex.tool.Name,
			Rule:       rule,
			Reason:     reason,
			Confidence: confidence,
		}
	}

	switch {
	case sameIdentity(cand, ex):
		res.Definite = append(res.Definite, match(RuleIdentity, "Exact ID/slug match", constants.IdentityConfidence))
		return
	case cand.domain != "" && cand.domain == ex.domain:
		res.Definite = append(res.Definite, match(RuleDomain, "Website domain match", constants.DomainConfidence))
		return
	}

	// An empty normalized name (a tool called just "AI App") says nothing
	// about identity, so the name rule needs both sides.
	if cand.name != "" && ex.name != "" {
		ratio := similarity.Ratio(cand.name, ex.name)
		switch {
		case ratio >= d.opts.NameThreshold:
			reason := fmt.Sprintf("High name similarity (%.1f%%)", ratio*100)
			if d.opts.StrictMode && d.opts.WebsiteMatchRequired && cand.domain == "" {
				res.Possible = append(res.Possible, match(RuleName, reason, ratio*constants.StrictNamePenalty))
			} else {
				res.Definite = append(res.Definite, match(RuleName, reason, ratio))
			}
		case ratio >= d.opts.ModerateThreshold:
			reason := fmt.Sprintf("Moderate name similarity (%.1f%%)", ratio*100)
			res.Possible = append(res.Possible, match(RuleName, reason, ratio))
		}
	}

	if cand.nameLen < constants.MinNameLength || ex.nameLen < constants.MinNameLength {
		return
	}
	common, share := similarity.Overlap(cand.words, ex.words, d.opts.WordMatchThreshold)
	if len(common) > 0 && share > d.opts.WordOverlapThreshold {
		reason := "Common significant words: " + strings.Join(common, ", ")
		res.Possible = append(res.Possible, match(RuleWordOverlap, reason, constants.WordOverlapConfidence))
	}
}

func sameIdentity(a, b *profile) bool {
	for _, x := range a.keys {
		for _, y := range b.keys {
			if x == y {
				return true
			}
		}
	}
	return false
}

// profile caches the comparable features of one record.
type profile struct {
	tool    tools.Tool
	keys    []string // id, slug and derived id, non-empty
	domain  string
	name    string
	nameLen int
	words   []string
}

func newProfile(t tools.Tool) profile {
	p := profile{
		tool:    t,
		domain:  normalize.ExtractDomain(t.Website),
		name:    similarity.NormalizedName(t.Name),
		nameLen: len([]rune(strings.TrimSpace(t.Name))),
	}
	p.words = similarity.SignificantWords(p.name)
	for _, k := range []string{t.ID, t.Slug, normalize.DeriveID(t.Name)} {
		if k != "" {
			p.keys = append(p.keys, k)
		}
	}
	return p
}

// Corpus is a set of existing records prepared for repeated searches.
// Reads may run concurrently; Add and Replace must not overlap with them.
type Corpus struct {
	profiles []profile
}

// NewCorpus prepares existing records for searching.
func NewCorpus(existing []tools.Tool) *Corpus {
	c := &Corpus{profiles: make([]profile, len(existing))}
	for i, t := range existing {
		c.profiles[i] = newProfile(t)
	}
	return c
}

// Len returns the number of records in the corpus.
func (c *Corpus) Len() int {
	return len(c.profiles)
}

// Tool returns the record at index i.
func (c *Corpus) Tool(i int) tools.Tool {
	return c.profiles[i].tool
}

// Add appends a record and returns its index.
func (c *Corpus) Add(t tools.Tool) int {
	c.profiles = append(c.profiles, newProfile(t))
	return len(c.profiles) - 1
}

// Replace swaps the record at index i.
func (c *Corpus) Replace(i int, t tools.Tool) {
	c.profiles[i] = newProfile(t)
}
