package toolcatalog

import (
	"sync"

	"github.com/siteoptz/toolcatalog/pkg/reconciler"
	"github.com/siteoptz/toolcatalog/pkg/tools"
)

// Hook function types for catalog changes
type (
	// ToolAddedHook is called when a record is added to the catalog
	ToolAddedHook func(tool tools.Tool)

	// ToolUpdatedHook is called when a record absorbs a duplicate
	ToolUpdatedHook func(old, updated tools.Tool)
)

// hooks manages event callbacks for catalog changes
type hooks struct {
	mu            sync.RWMutex
	onToolAdded   []ToolAddedHook
	onToolUpdated []ToolUpdatedHook
}

func newHooks() *hooks {
	return &hooks{}
}

// OnToolAdded registers a callback for when records are added
func (c *client) OnToolAdded(fn ToolAddedHook) {
	c.hooks.mu.Lock()
	defer c.hooks.mu.Unlock()
	c.hooks.onToolAdded = append(c.hooks.onToolAdded, fn)
}

// OnToolUpdated registers a callback for when records are updated
func (c *client) OnToolUpdated(fn ToolUpdatedHook) {
	c.hooks.mu.Lock()
	defer c.hooks.mu.Unlock()
	c.hooks.onToolUpdated = append(c.hooks.onToolUpdated, fn)
}

// trigger fires hooks for the additions and updates of one ingest.
func (h *hooks) trigger(before []tools.Tool, result *reconciler.IngestResult) {
	if result.Merge == nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.onToolAdded) == 0 && len(h.onToolUpdated) == 0 {
		return
	}

	old := make(map[string]tools.Tool, len(before))
	for _, t := range before {
		old[t.ID] = t
	}
	for _, id := range result.Merge.Added {
		t, ok := result.Catalog.Find(id)
		if !ok {
			continue
		}
		for _, hook := range h.onToolAdded {
			hook(t)
		}
	}
	for _, u := range result.Merge.Updated {
		t, ok := result.Catalog.Find(u.ID)
		if !ok {
			continue
		}
		for _, hook := range h.onToolUpdated {
			hook(old[u.ID], t)
		}
	}
}
