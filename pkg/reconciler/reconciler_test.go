package reconciler

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siteoptz/toolcatalog/pkg/detector"
	"github.com/siteoptz/toolcatalog/pkg/errors"
	"github.com/siteoptz/toolcatalog/pkg/logging"
	"github.com/siteoptz/toolcatalog/pkg/normalize"
	"github.com/siteoptz/toolcatalog/pkg/selector"
	"github.com/siteoptz/toolcatalog/pkg/tools"
)

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func newReconciler(t *testing.T, opts ...Option) Reconciler {
	t.Helper()
	r, err := New(append([]Option{WithClock(clock), WithRunID("run-test")}, opts...)...)
	require.NoError(t, err)
	return r
}

func rec(name, website, description string) tools.Tool {
	id := normalize.DeriveID(name)
	return tools.Tool{
		ID:          id,
		Slug:        id,
		Name:        name,
		Website:     website,
		Description: description,
		Category:    "other",
		Features:    []string{},
		Tags:        []string{},
		Pricing:     []tools.Plan{tools.ContactPlan()},
	}
}

type recorderStub struct {
	mu       sync.Mutex
	deduped  [][3]int
	merged   [][4]int
	rejected []int
	ops      []string
}

func (s *recorderStub) Deduped(records, unique, groups int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deduped = append(s.deduped, [3]int{records, unique, groups})
}

func (s *recorderStub) Merged(added, updated, skipped, review int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.merged = append(s.merged, [4]int{added, updated, skipped, review})
}

func (s *recorderStub) Rejected(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejected = append(s.rejected, n)
}

func (s *recorderStub) Observe(op string, _ time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ops = append(s.ops, op)
}

func TestDedupeCollapsesIdenticalIDs(t *testing.T) {
	r := newReconciler(t)
	a := rec("Jasper AI", "", "Writer")
	a.Category = "Content Creation"
	b := a.Clone()

	res, err := r.Dedupe(context.Background(), []tools.Tool{a, b})
	require.NoError(t, err)

	require.Len(t, res.Unique, 1)
	assert.Equal(t, "jasper-ai", res.Unique[0].ID)
	assert.Equal(t, 1, res.RemovedCount)
	require.Len(t, res.Groups, 1)
	assert.Equal(t, Group{Kept: "Jasper AI", KeptID: "jasper-ai", Removed: []string{"Jasper AI"}, Reason: "Exact ID/slug match"}, res.Groups[0])
}

func TestDedupeKeepsBestVersion(t *testing.T) {
	r := newReconciler(t)
	sparse := rec("ChatGPT", "https://chat.openai.com", "Chatbot")
	rich := rec("Chat GPT", "https://openai.com/chatgpt", "Conversational assistant by OpenAI")
	rich.Features = []string{"chat", "plugins"}
	rich.Rating = tools.Float(4.7)
	rich.ReviewCount = tools.Int(2000)
	other := rec("Grammarly", "https://grammarly.com", "Writing assistant")

	res, err := r.Dedupe(context.Background(), []tools.Tool{sparse, other, rich})
	require.NoError(t, err)

	require.Len(t, res.Unique, 2)
	assert.Equal(t, "Chat GPT", res.Unique[0].Name, "cluster emitted at its first member's position")
	assert.Equal(t, "Grammarly", res.Unique[1].Name)
	require.Len(t, res.Groups, 1)
	assert.Equal(t, []string{"ChatGPT"}, res.Groups[0].Removed)
	assert.Contains(t, res.Groups[0].Reason, "High name similarity")
}

func TestDedupeAccountsForEveryRecord(t *testing.T) {
	r := newReconciler(t)
	var records []tools.Tool
	names := []string{"Jasper", "Jasper", "Jasper AI", "Notion", "Notion", "Grammarly", "Copy AI", "Copy.ai", "Midjourney"}
	for i, n := range names {
		records = append(records, rec(n, "", fmt.Sprintf("tool %d", i)))
	}

	res, err := r.Dedupe(context.Background(), records)
	require.NoError(t, err)

	assert.LessOrEqual(t, len(res.Unique), len(records))
	accounted := len(res.Unique)
	for _, g := range res.Groups {
		accounted += len(g.Removed)
	}
	assert.Equal(t, len(records), accounted)
	assert.Equal(t, len(records)-len(res.Unique), res.RemovedCount)
}

func TestDedupeNoDuplicatesKeepsEverything(t *testing.T) {
	r := newReconciler(t)
	records := []tools.Tool{
		rec("Jasper", "jasper.ai", "a"),
		rec("Grammarly", "grammarly.com", "b"),
		rec("Midjourney", "midjourney.com", "c"),
	}
	res, err := r.Dedupe(context.Background(), records)
	require.NoError(t, err)
	if diff := cmp.Diff(records, res.Unique); diff != "" {
		t.Errorf("Unique mismatch (-want +got):\n%s", diff)
	}
	assert.Empty(t, res.Groups)
	assert.Zero(t, res.RemovedCount)
}

func TestDedupeReportsPossibleDuplicates(t *testing.T) {
	r := newReconciler(t)
	records := []tools.Tool{
		rec("Notion", "", "a"),
		rec("Motions", "", "b"),
	}
	res, err := r.Dedupe(context.Background(), records)
	require.NoError(t, err)
	assert.Len(t, res.Unique, 2)
	require.Len(t, res.Review, 1)
	assert.Equal(t, "Notion", res.Review[0].Candidate)
	assert.Equal(t, detector.RuleName, res.Review[0].Match.Rule)
}

func TestDedupeDeterministic(t *testing.T) {
	r := newReconciler(t)
	var records []tools.Tool
	for i := 0; i < 30; i++ {
		records = append(records, rec(fmt.Sprintf("Tool %d", i%7), "", fmt.Sprintf("d%d", i)))
	}
	first, err := r.Dedupe(context.Background(), records)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := r.Dedupe(context.Background(), records)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestMergeInto(t *testing.T) {
	stub := &recorderStub{}
	r := newReconciler(t, WithMetrics(stub))

	existing := []tools.Tool{
		rec("Jasper", "https://jasper.ai", "Writer"),
		rec("Grammarly", "https://grammarly.com", "Grammar checker with tone detection and rewrites for teams"),
	}

	richer := rec("Jasper AI", "https://www.jasper.ai/pricing", "AI copywriting assistant that drafts blogs, ads and emails")
	richer.Features = []string{"templates"}
	richer.Pros = []string{"fast"}
	richer.Pricing = []tools.Plan{{Plan: "Pro", PricePerMonth: tools.Amount(39)}}
	richer.Rating = tools.Float(4.6)

	weaker := rec("Grammarly", "grammarly.com", "Grammar")
	fresh := rec("Midjourney", "https://midjourney.com", "Image generator")
	review := rec("Notion", "", "Notes")
	existing = append(existing, rec("Motions", "https://motions.app", "Calendar"))

	res, err := r.MergeInto(context.Background(), []tools.Tool{richer, weaker, fresh, review}, existing)
	require.NoError(t, err)

	assert.Equal(t, []string{"midjourney", "notion"}, res.Added)
	require.Len(t, res.Updated, 1)
	assert.Equal(t, "jasper", res.Updated[0].ID)
	assert.Contains(t, res.Updated[0].Fields, "description")
	require.Len(t, res.Skipped, 1)
	assert.Equal(t, SkipReport{New: "Grammarly", Existing: "Grammarly", Reason: "Exact ID/slug match"}, res.Skipped[0])

	require.Len(t, res.Merged, 5)
	updated := res.Merged[0]
	assert.Equal(t, "jasper", updated.ID, "identity kept")
	assert.Equal(t, richer.Description, updated.Description)
	assert.Equal(t, fixedNow, *updated.LastUpdated)
	assert.Equal(t, "Writer", existing[0].Description, "input untouched")

	require.Len(t, res.Review, 1)
	assert.Equal(t, "Notion", res.Review[0].Candidate)
	assert.Equal(t, [][4]int{{2, 1, 1, 1}}, stub.merged)
}

func TestMergeIntoStrictNameMatchIsNotMerged(t *testing.T) {
	r := newReconciler(t)
	existing := []tools.Tool{rec("Chat GPT", "https://openai.com", "Chatbot")}
	incoming := rec("ChatGPT", "", "A much longer description of the chat assistant from OpenAI")

	res, err := r.MergeInto(context.Background(), []tools.Tool{incoming}, existing)
	require.NoError(t, err)

	assert.Equal(t, []string{"chatgpt"}, res.Added)
	require.Len(t, res.Review, 1)
	assert.Equal(t, detector.RuleName, res.Review[0].Match.Rule)
}

func TestMergeIntoSeesEarlierAdditions(t *testing.T) {
	r := newReconciler(t)
	a := rec("Jasper", "https://jasper.ai", "Writer")
	res, err := r.MergeInto(context.Background(), []tools.Tool{a, a.Clone()}, nil)
	require.NoError(t, err)
	assert.Len(t, res.Merged, 1)
	assert.Len(t, res.Skipped, 1)
}

func TestMergeIntoNormalizesStoredRecords(t *testing.T) {
	r := newReconciler(t)
	legacy := tools.Tool{ID: "legacy", Name: "Legacy", Slug: "legacy", Category: "Widgets", Description: "d"}

	res, err := r.MergeInto(context.Background(), nil, []tools.Tool{legacy})
	require.NoError(t, err)
	require.Len(t, res.Merged, 1)

	got := res.Merged[0]
	assert.Equal(t, "other", got.Category)
	assert.NotNil(t, got.Features)
	assert.Empty(t, got.Features)
	assert.NotNil(t, got.Tags)
	assert.Empty(t, got.Tags)
	assert.Equal(t, []tools.Plan{tools.ContactPlan()}, got.Pricing)
	assert.NoError(t, tools.Validate(got, normalize.Default()))
	assert.Equal(t, "Widgets", legacy.Category, "input untouched")
}

func TestMergeIntoNormalizesIncomingRecords(t *testing.T) {
	logs := logging.CaptureLoggingForTest(t)
	r := newReconciler(t)
	incoming := tools.Tool{Name: "Surfer SEO", Category: "seo", Description: "Content optimization"}

	res, err := r.MergeInto(context.Background(), []tools.Tool{incoming}, nil)
	require.NoError(t, err)
	require.Len(t, res.Merged, 1)
	assert.Equal(t, []string{"surfer-seo"}, res.Added)
	assert.Equal(t, "SEO & Optimization", res.Merged[0].Category)
	assert.Equal(t, []tools.Plan{tools.ContactPlan()}, res.Merged[0].Pricing)

	logs.AssertContains(t, `"tool_id":"surfer-seo"`)
	logs.AssertContains(t, `"operation":"merge"`)
}

func TestDedupeNormalizesRecords(t *testing.T) {
	r := newReconciler(t)
	legacy := tools.Tool{ID: "legacy", Name: "Legacy", Slug: "legacy", Category: "Widgets", Description: "d"}

	res, err := r.Dedupe(context.Background(), []tools.Tool{legacy, legacy})
	require.NoError(t, err)
	require.Len(t, res.Unique, 1)
	assert.Equal(t, "other", res.Unique[0].Category)
	assert.Equal(t, []tools.Plan{tools.ContactPlan()}, res.Unique[0].Pricing)
	assert.NoError(t, tools.Validate(res.Unique[0], normalize.Default()))
}

func TestUpdateMargin(t *testing.T) {
	existing := []tools.Tool{rec("Jasper", "https://jasper.ai", "Writer")}
	incoming := rec("Jasper", "https://jasper.ai", "Writer")
	incoming.Pros = []string{"fast"}

	for _, tt := range []struct {
		margin  float64
		updated int
	}{
		{0.2, 1},
		{1.0, 0},
	} {
		r := newReconciler(t, WithUpdateMargin(tt.margin))
		res, err := r.MergeInto(context.Background(), []tools.Tool{incoming}, existing)
		require.NoError(t, err)
		assert.Len(t, res.Updated, tt.updated, "margin %v", tt.margin)
	}
}

func TestIngest(t *testing.T) {
	logs := logging.CaptureLoggingForTest(t)
	stub := &recorderStub{}
	r := newReconciler(t, WithMetrics(stub))

	raws := []tools.Raw{
		{Name: "Jasper AI", Category: "content", Description: "AI writer"},
		{Name: "Jasper AI", Category: "content", Description: "AI writer for marketing teams", Features: []string{"templates"}},
		{Name: "Midjourney", Category: "AI art", Description: "Image generator", Website: "midjourney.com"},
		{Name: "", Description: "nameless"},
		{Name: "Quantum Widget", Category: "quantum widget"},
	}

	res, err := r.Ingest(context.Background(), raws, nil)
	require.NoError(t, err)

	require.Len(t, res.Errors, 2)
	assert.Equal(t, 3, res.Errors[0].Index)
	assert.Equal(t, "Quantum Widget", res.Errors[1].Name)
	assert.True(t, errors.IsValidationError(res.Errors[1]))
	assert.False(t, res.IsSuccess())

	meta := res.Catalog.Metadata
	assert.Equal(t, 5, meta.TotalScraped)
	assert.Equal(t, 2, meta.UniqueTools)
	assert.Equal(t, 1, meta.DuplicatesRemoved)
	assert.Equal(t, map[string]int{"Content Creation": 1, "Image Generation": 1}, meta.Categories)
	assert.Equal(t, "run-test", meta.RunID)
	assert.Equal(t, fixedNow, meta.GeneratedAt)

	require.Len(t, res.Catalog.Tools, 2)
	jasper := res.Catalog.Tools[0]
	assert.Equal(t, "jasper-ai", jasper.ID)
	assert.Equal(t, []string{"templates"}, jasper.Features, "more complete version kept")
	assert.Equal(t, "https://midjourney.com", res.Catalog.Tools[1].Website)

	assert.Equal(t, "5 scraped, 2 unique, 1 duplicates removed; 2 added, 0 updated, 0 skipped; 2 rejected", res.Summary())

	logs.AssertContains(t, "Rejected record")
	logs.AssertContains(t, "run-test")
	assert.Equal(t, []int{2}, stub.rejected)
	assert.Equal(t, []string{"dedupe", "merge", "ingest"}, stub.ops)
}

func TestIngestIntoExistingCatalog(t *testing.T) {
	r := newReconciler(t)
	existing := []tools.Tool{rec("Midjourney", "https://midjourney.com", "Image generator")}
	existing[0].Category = "Image Generation"

	res, err := r.Ingest(context.Background(), []tools.Raw{
		{Name: "Midjourney v6", Category: "image", Description: "Image generator", Website: "https://www.midjourney.com"},
	}, existing)
	require.NoError(t, err)

	assert.Len(t, res.Catalog.Tools, 1)
	assert.Len(t, res.Merge.Skipped, 1)
	assert.Equal(t, "Website domain match", res.Merge.Skipped[0].Reason)
}

func TestIngestCanceled(t *testing.T) {
	r := newReconciler(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := r.Ingest(ctx, []tools.Raw{{Name: "A", Description: "a"}}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestOptions(t *testing.T) {
	_, err := New(WithUpdateMargin(-1))
	assert.True(t, errors.IsValidationError(err))

	_, err = New(WithClock(nil))
	assert.True(t, errors.IsValidationError(err))

	_, err = New(WithMetrics(nil))
	assert.True(t, errors.IsValidationError(err))

	bad := detector.DefaultOptions()
	bad.ModerateThreshold = 2
	_, err = New(WithDetectorOptions(bad))
	assert.True(t, errors.IsValidationError(err))

	_, err = New(WithTaxonomy(normalize.Taxonomy{}))
	assert.True(t, errors.IsValidationError(err))

	fixture := normalize.Taxonomy{Synonyms: []normalize.Synonym{{Key: "widget", Category: "Widgets"}}}
	r, err := New(WithTaxonomy(fixture), WithSelectorOptions(selector.WithKeepBestRated(false)))
	require.NoError(t, err)
	assert.Equal(t, "Widgets", r.Normalizer().Category("quantum widget"))
}

func TestFindDuplicates(t *testing.T) {
	r := newReconciler(t)
	existing := []tools.Tool{
		rec("Chat GPT", "https://chat.openai.com", "Conversational assistant"),
		rec("Notion", "https://notion.so", "Docs and wikis"),
	}

	res := r.FindDuplicates(rec("ChatGPT", "", "Assistant"), existing)
	require.Len(t, res.Definite, 1)
	assert.Equal(t, 0, res.Definite[0].Index)
	assert.Equal(t, detector.RuleName, res.Definite[0].Rule)
	assert.Empty(t, res.Possible)
}
