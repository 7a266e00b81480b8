package selector

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siteoptz/toolcatalog/pkg/errors"
	"github.com/siteoptz/toolcatalog/pkg/tools"
)

var now = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

func newSelector(t *testing.T, opts ...Option) *Selector {
	t.Helper()
	s, err := New(append([]Option{WithNow(now)}, opts...)...)
	require.NoError(t, err)
	return s
}

func fullTool() tools.Tool {
	return tools.Tool{
		Name:        "Jasper",
		Description: "AI writer",
		Features:    []string{"templates"},
		Pricing:     []tools.Plan{{Plan: "Pro", PricePerMonth: tools.Amount(39)}},
		Pros:        []string{"fast"},
		Cons:        []string{"pricey"},
		Website:     "https://jasper.ai",
		Meta:        &tools.Meta{Title: "Jasper review"},
		Schema:      map[string]any{"@type": "Product"},
		Rating:      tools.Float(4.5),
		ReviewCount: tools.Int(3500),
		LastScraped: tools.Time(now.Add(-48 * time.Hour)),
	}
}

func TestScore(t *testing.T) {
	s := newSelector(t)

	// 10 completeness + 4.5 rating + 2 capped reviews + 2 fresh
	assert.InDelta(t, 18.5, s.Score(fullTool()), 1e-9)
	assert.Zero(t, s.Score(tools.Tool{}))

	recent := fullTool()
	recent.LastScraped = tools.Time(now.Add(-10 * 24 * time.Hour))
	assert.InDelta(t, 17.5, s.Score(recent), 1e-9)

	stale := fullTool()
	stale.LastScraped = tools.Time(now.Add(-60 * 24 * time.Hour))
	stale.ReviewCount = tools.Int(500)
	assert.InDelta(t, 15.0, s.Score(stale), 1e-9)
}

func TestScoreToggles(t *testing.T) {
	tool := fullTool()

	tests := []struct {
		name string
		opts []Option
		want float64
	}{
		{"all on", nil, 18.5},
		{"no recency", []Option{WithPrioritizeNewer(false)}, 16.5},
		{"no rating", []Option{WithKeepBestRated(false)}, 14},
		{"no completeness", []Option{WithPrioritizeMoreComplete(false)}, 8.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, newSelector(t, tt.opts...).Score(tool), 1e-9)
		})
	}
}

func TestBest(t *testing.T) {
	s := newSelector(t)

	sparse := tools.Tool{Name: "Jasper AI", Description: "writer"}
	full := fullTool()

	best, idx := s.Best([]tools.Tool{sparse, full})
	assert.Equal(t, 1, idx)
	assert.Equal(t, "Jasper", best.Name)

	// ties keep the first record
	a := tools.Tool{Name: "A", Description: "x"}
	b := tools.Tool{Name: "B", Description: "y"}
	best, idx = s.Best([]tools.Tool{a, b})
	assert.Equal(t, 0, idx)
	assert.Equal(t, "A", best.Name)

	_, idx = s.Best(nil)
	assert.Equal(t, -1, idx)
}

func TestBestIsPure(t *testing.T) {
	s := newSelector(t)
	records := []tools.Tool{fullTool(), {Name: "x"}}
	_, first := s.Best(records)
	for i := 0; i < 20; i++ {
		_, idx := s.Best(records)
		require.Equal(t, first, idx)
	}
}

func TestCompleteness(t *testing.T) {
	assert.Equal(t, 0.0, Completeness(tools.Tool{}))

	tool := fullTool()
	// short description earns nothing
	assert.Equal(t, 10.0, Completeness(tool))

	tool.Description = "An AI writing assistant that drafts marketing copy, blogs and ads."
	assert.Equal(t, 13.0, Completeness(tool))
}

func TestWorthwhile(t *testing.T) {
	existing := tools.Tool{Description: "short", Website: "https://x.com", Features: []string{"a"}} // 4
	better := existing
	better.Pricing = []tools.Plan{tools.ContactPlan()} // 6 > 4.8
	slightly := existing
	slightly.Pros = []string{"p"} // 5

	assert.True(t, Worthwhile(better, existing, 0.2))
	assert.True(t, Worthwhile(slightly, existing, 0.2))
	assert.False(t, Worthwhile(slightly, existing, 0.5))
	assert.False(t, Worthwhile(existing, existing, 0.2))
}

func TestWithClockNil(t *testing.T) {
	_, err := New(WithClock(nil))
	assert.True(t, errors.IsValidationError(err))
}
