// Package toolcatalog provides the main entry point for building a
// deduplicated catalog of software tools from scraped listings.
//
// A Client wraps a reconciler with a catalog store and change hooks:
//
//	st, err := store.OpenBolt("data/catalog.db")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	c, err := toolcatalog.New(toolcatalog.WithStore(st))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer c.Close()
//
//	c.OnToolAdded(func(t tools.Tool) {
//	    log.Printf("new tool: %s", t.Name)
//	})
//
//	srcs, _ := sources.Glob("scraped", "**/*.json")
//	result, err := c.IngestSources(ctx, srcs...)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Summary())
package toolcatalog

import (
	"context"
	"sync"

	"github.com/siteoptz/toolcatalog/pkg/errors"
	"github.com/siteoptz/toolcatalog/pkg/logging"
	"github.com/siteoptz/toolcatalog/pkg/reconciler"
	"github.com/siteoptz/toolcatalog/pkg/sources"
	"github.com/siteoptz/toolcatalog/pkg/store"
	"github.com/siteoptz/toolcatalog/pkg/tools"
)

// Client manages a canonical catalog.
type Client interface {
	// Load returns the stored catalog, or an empty one.
	Load(ctx context.Context) (tools.Catalog, error)

	// Save replaces the stored catalog.
	Save(ctx context.Context, c tools.Catalog) error

	// Dedupe collapses duplicates within one batch without touching the store.
	Dedupe(ctx context.Context, records []tools.Tool) (*reconciler.DedupeResult, error)

	// Ingest runs the full pipeline on raw records against the stored
	// catalog and saves the result unless the client is a dry run.
	Ingest(ctx context.Context, raws []tools.Raw) (*reconciler.IngestResult, error)

	// IngestSources loads every source, then ingests the records.
	IngestSources(ctx context.Context, srcs ...sources.Source) (*reconciler.IngestResult, error)

	// Reconciler returns the underlying reconciler.
	Reconciler() reconciler.Reconciler

	// OnToolAdded registers a callback for records added by Ingest.
	OnToolAdded(ToolAddedHook)

	// OnToolUpdated registers a callback for records updated by Ingest.
	OnToolUpdated(ToolUpdatedHook)

	// Close closes the store.
	Close() error
}

// client is the default implementation of Client.
type client struct {
	// mu serializes load-ingest-save cycles.
	mu     sync.Mutex
	rec    reconciler.Reconciler
	config *config
	hooks  *hooks
}

var _ Client = (*client)(nil)

// New creates a Client. Without WithStore the catalog lives in memory.
func New(opts ...Option) (Client, error) {
	cfg, err := newConfig(opts...)
	if err != nil {
		return nil, err
	}
	rec, err := reconciler.New(cfg.reconcilerOpts...)
	if err != nil {
		return nil, err
	}
	if cfg.store == nil {
		cfg.store = newMemoryStore()
	}
	return &client{rec: rec, config: cfg, hooks: newHooks()}, nil
}

// Reconciler returns the underlying reconciler.
func (c *client) Reconciler() reconciler.Reconciler {
	return c.rec
}

// Load returns the stored catalog, or an empty one when nothing is stored.
func (c *client) Load(ctx context.Context) (tools.Catalog, error) {
	catalog, err := store.LoadOrEmpty(ctx, c.config.store)
	if err != nil {
		return tools.Catalog{}, errors.WrapResource("load", "catalog", "", err)
	}
	return catalog, nil
}

// Save replaces the stored catalog.
func (c *client) Save(ctx context.Context, catalog tools.Catalog) error {
	if c.config.dryRun {
		return errors.WrapResource("save", "catalog", "", errors.ErrReadOnly)
	}
	if err := c.config.store.Save(ctx, catalog); err != nil {
		return errors.WrapResource("save", "catalog", "", err)
	}
	return nil
}

// Dedupe collapses duplicates within one batch.
func (c *client) Dedupe(ctx context.Context, records []tools.Tool) (*reconciler.DedupeResult, error) {
	return c.rec.Dedupe(ctx, records)
}

// Ingest runs the pipeline against the stored catalog.
func (c *client) Ingest(ctx context.Context, raws []tools.Raw) (*reconciler.IngestResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	existing, err := c.Load(ctx)
	if err != nil {
		return nil, err
	}
	result, err := c.rec.Ingest(ctx, raws, existing.Tools)
	if err != nil {
		return nil, err
	}

	if c.config.dryRun {
		logging.FromContext(ctx).Info().Msg("Dry run, catalog not saved")
	} else if err := c.config.store.Save(ctx, result.Catalog); err != nil {
		return nil, errors.WrapResource("save", "catalog", "", err)
	}

	c.hooks.trigger(existing.Tools, result)
	return result, nil
}

// IngestSources loads every source, then ingests their records. Any
// source failure aborts the run before the catalog is touched.
func (c *client) IngestSources(ctx context.Context, srcs ...sources.Source) (*reconciler.IngestResult, error) {
	raws, err := sources.LoadAll(ctx, srcs)
	if err != nil {
		return nil, err
	}
	return c.Ingest(ctx, raws)
}

// Close closes the store.
func (c *client) Close() error {
	return c.config.store.Close()
}
