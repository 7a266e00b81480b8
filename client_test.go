package toolcatalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siteoptz/toolcatalog/pkg/errors"
	"github.com/siteoptz/toolcatalog/pkg/logging"
	"github.com/siteoptz/toolcatalog/pkg/reconciler"
	"github.com/siteoptz/toolcatalog/pkg/sources"
	"github.com/siteoptz/toolcatalog/pkg/store"
	"github.com/siteoptz/toolcatalog/pkg/tools"
)

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newClient(t *testing.T, opts ...Option) Client {
	t.Helper()
	logging.DisableLoggingForTest(t)
	base := []Option{WithReconcilerOptions(
		reconciler.WithClock(func() time.Time { return fixedNow }),
		reconciler.WithRunID("run-test"),
	)}
	c, err := New(append(base, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func firstBatch() []tools.Raw {
	return []tools.Raw{
		{Name: "Jasper", Description: "AI copywriting assistant", Website: "jasper.ai"},
		{Name: "Jasper", Description: "AI copywriting", Website: "https://jasper.ai"},
		{Name: "Notion", Description: "Docs and wikis for teams", Website: "notion.so"},
	}
}

func TestIngestHooksAndLoad(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()

	var added []string
	var updated [][2]string
	c.OnToolAdded(func(tool tools.Tool) { added = append(added, tool.ID) })
	c.OnToolUpdated(func(old, tool tools.Tool) { updated = append(updated, [2]string{old.Description, tool.Description}) })

	res, err := c.Ingest(ctx, firstBatch())
	require.NoError(t, err)
	assert.Equal(t, 1, res.Dedupe.RemovedCount)
	assert.Equal(t, []string{"jasper", "notion"}, added)

	better := tools.Raw{
		Name:        "Jasper",
		Description: "Jasper is an AI copywriting assistant for marketing teams, agencies and solo creators",
		Website:     "https://jasper.ai",
		Features:    []string{"Templates", "Brand voice"},
		Rating:      tools.Float(4.7),
	}
	res, err = c.Ingest(ctx, []tools.Raw{better})
	require.NoError(t, err)
	require.Len(t, res.Merge.Updated, 1)
	require.Len(t, updated, 1)
	assert.Equal(t, "AI copywriting assistant", updated[0][0])
	assert.Equal(t, better.Description, updated[0][1])

	catalog, err := c.Load(ctx)
	require.NoError(t, err)
	require.Len(t, catalog.Tools, 2)
	jasper, ok := catalog.Find("jasper")
	require.True(t, ok)
	assert.Equal(t, []string{"Templates", "Brand voice"}, jasper.Features)
}

func TestLoadEmpty(t *testing.T) {
	c := newClient(t)
	catalog, err := c.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, catalog.Tools)
}

func TestDryRunDoesNotSave(t *testing.T) {
	c := newClient(t, WithDryRun(true))
	ctx := context.Background()

	res, err := c.Ingest(ctx, firstBatch())
	require.NoError(t, err)
	assert.Len(t, res.Catalog.Tools, 2)

	catalog, err := c.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, catalog.Tools)

	err = c.Save(ctx, res.Catalog)
	assert.ErrorIs(t, err, errors.ErrReadOnly)
}

func TestIngestSourcesWithFileStore(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "scraped", "g2.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(input), 0o755))
	require.NoError(t, os.WriteFile(input, []byte(`[
		{"name": "Midjourney", "description": "Image generation from text prompts", "category": "image", "website": "midjourney.com"},
		{"name": "Synthesia", "description": "AI video avatars", "category": "video"}
	]`), 0o644))

	st, err := store.NewFile(filepath.Join(dir, "catalog.json"))
	require.NoError(t, err)
	c := newClient(t, WithStore(st))

	srcs, err := sources.Glob(filepath.Join(dir, "scraped"), "**/*.json")
	require.NoError(t, err)
	res, err := c.IngestSources(context.Background(), srcs...)
	require.NoError(t, err)
	assert.True(t, res.IsSuccess())

	saved, err := st.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, saved.Tools, 2)
	assert.Equal(t, "Image Generation", saved.Tools[0].Category)
	assert.Equal(t, input, saved.Tools[0].Source.ScrapedFrom)
	assert.Equal(t, map[string]int{"Image Generation": 1, "Video Generation": 1}, saved.Metadata.Categories)
}

func TestIngestSourcesFailure(t *testing.T) {
	c := newClient(t)
	_, err := c.IngestSources(context.Background(), sources.NewFileSource(filepath.Join(t.TempDir(), "missing.json")))
	assert.True(t, errors.IsNotFound(err))
}

func TestOptionsValidation(t *testing.T) {
	_, err := New(WithStore(nil))
	assert.True(t, errors.IsValidationError(err))

	_, err = New(WithReconcilerOptions(reconciler.WithUpdateMargin(-1)))
	assert.True(t, errors.IsValidationError(err))
}
