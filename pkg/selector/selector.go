// Package selector picks the canonical version among duplicate records.
package selector

import (
	"math"

	"github.com/siteoptz/toolcatalog/pkg/constants"
	"github.com/siteoptz/toolcatalog/pkg/tools"
)

// Selector scores records for quality. It is pure given its clock.
type Selector struct {
	opts *options
}

// New creates a Selector.
func New(opts ...Option) (*Selector, error) {
	o, err := newOptions(opts...)
	if err != nil {
		return nil, err
	}
	return &Selector{opts: o}, nil
}

// Score returns the quality score of a record:
//
//   - completeness: description 2, features 1, pricing 1, pros 1, cons 1,
//     website 2, SEO title 1, structured data 1
//   - the rating itself (0-5)
//   - review volume, one point per thousand capped at two
//   - recency, 2 within a week of now and 1 within a month
func (s *Selector) Score(t tools.Tool) float64 {
	var score float64

	if s.opts.moreComplete {
		score += presence(t.Description != "", 2)
		score += presence(len(t.Features) > 0, 1)
		score += presence(len(t.Pricing) > 0, 1)
		score += presence(len(t.Pros) > 0, 1)
		score += presence(len(t.Cons) > 0, 1)
		score += presence(t.Website != "", 2)
		score += presence(t.HasTitle(), 1)
		score += presence(len(t.Schema) > 0, 1)
	}

	if s.opts.bestRated && t.Rating != nil {
		score += *t.Rating
	}

	if t.ReviewCount != nil && *t.ReviewCount > 0 {
		score += math.Min(float64(*t.ReviewCount)/constants.ReviewsPerPoint, constants.MaxReviewPoints)
	}

	if s.opts.newer && t.LastScraped != nil {
		age := s.opts.now().Sub(*t.LastScraped)
		switch {
		case age < constants.FreshWindow:
			score += 2
		case age < constants.RecentWindow:
			score++
		}
	}

	return score
}

// Best returns the highest scoring record and its index. Ties keep the
// earliest record. It returns -1 for an empty slice.
func (s *Selector) Best(records []tools.Tool) (tools.Tool, int) {
	best := -1
	var bestScore float64
	for i, t := range records {
		score := s.Score(t)
		if best < 0 || score > bestScore {
			best, bestScore = i, score
		}
	}
	if best < 0 {
		return tools.Tool{}, -1
	}
	return records[best], best
}

// Completeness measures how much useful data a record carries. Merges use
// it to decide whether incoming data is worth an update.
func Completeness(t tools.Tool) float64 {
	var score float64
	score += presence(len([]rune(t.Description)) > constants.CompleteDescriptionLength, 3)
	score += presence(len(t.Features) > 0, 2)
	score += presence(len(t.Pricing) > 0, 2)
	score += presence(len(t.Pros) > 0, 1)
	score += presence(len(t.Cons) > 0, 1)
	score += presence(t.Website != "", 2)
	score += presence(t.Rating != nil, 1)
	score += presence(t.HasTitle(), 1)
	return score
}

// Worthwhile reports whether incoming beats existing by more than margin
// (0.2 means 20%).
func Worthwhile(incoming, existing tools.Tool, margin float64) bool {
	return Completeness(incoming) > Completeness(existing)*(1+margin)
}

func presence(ok bool, points float64) float64 {
	if ok {
		return points
	}
	return 0
}
