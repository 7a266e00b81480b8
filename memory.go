package toolcatalog

import (
	"context"
	"maps"
	"sync"

	"github.com/siteoptz/toolcatalog/pkg/errors"
	"github.com/siteoptz/toolcatalog/pkg/tools"
)

// memoryStore keeps the catalog in memory for clients without a store.
type memoryStore struct {
	mu      sync.RWMutex
	catalog *tools.Catalog
}

func newMemoryStore() *memoryStore {
	return &memoryStore{}
}

func (m *memoryStore) Load(_ context.Context) (tools.Catalog, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.catalog == nil {
		return tools.Catalog{}, errors.NewNotFoundError("catalog", "memory")
	}
	return copyCatalog(*m.catalog), nil
}

func (m *memoryStore) Save(_ context.Context, c tools.Catalog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := copyCatalog(c)
	m.catalog = &cp
	return nil
}

func (m *memoryStore) Close() error {
	return nil
}

func copyCatalog(c tools.Catalog) tools.Catalog {
	out := tools.Catalog{Metadata: c.Metadata, Tools: make([]tools.Tool, len(c.Tools))}
	out.Metadata.Categories = maps.Clone(c.Metadata.Categories)
	for i, t := range c.Tools {
		out.Tools[i] = t.Clone()
	}
	return out
}
