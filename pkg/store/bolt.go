package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"

	bolt "go.etcd.io/bbolt"

	"github.com/siteoptz/toolcatalog/pkg/constants"
	"github.com/siteoptz/toolcatalog/pkg/errors"
	"github.com/siteoptz/toolcatalog/pkg/tools"
)

var (
	toolsBucket = []byte("tools")
	metaBucket  = []byte("meta")

	metadataKey = []byte("metadata")
	orderKey    = []byte("order")
)

// Bolt keeps each record under its id in a bbolt database. Catalog order
// and metadata live in a separate bucket.
type Bolt struct {
	mu     sync.RWMutex
	db     *bolt.DB
	path   string
	closed bool
}

// OpenBolt opens or creates the database at path.
func OpenBolt(path string) (*Bolt, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, errors.NewValidationError("path", path, "bolt store path is required")
	}
	if err := os.MkdirAll(filepath.Dir(trimmed), constants.DirPermissions); err != nil {
		return nil, errors.WrapIO("mkdir", filepath.Dir(trimmed), err)
	}
	db, err := bolt.Open(trimmed, constants.SecureFilePermissions, &bolt.Options{Timeout: constants.StoreOpenTimeout})
	if err != nil {
		return nil, errors.WrapResource("open", "store", trimmed, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{toolsBucket, metaBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, errors.WrapResource("create", "store", trimmed, err)
	}
	return &Bolt{db: db, path: trimmed}, nil
}

// Load reads the catalog back in saved order.
func (b *Bolt) Load(ctx context.Context) (tools.Catalog, error) {
	var c tools.Catalog
	err := b.view(func(tx *bolt.Tx) error {
		meta := tx.Bucket(metaBucket)
		rawOrder := meta.Get(orderKey)
		if rawOrder == nil {
			return notFound(b.path)
		}
		var order []string
		if err := json.Unmarshal(rawOrder, &order); err != nil {
			return errors.WrapParse("json", b.path, err)
		}
		if rawMeta := meta.Get(metadataKey); rawMeta != nil {
			if err := json.Unmarshal(rawMeta, &c.Metadata); err != nil {
				return errors.WrapParse("json", b.path, err)
			}
		}

		bucket := tx.Bucket(toolsBucket)
		c.Tools = make([]tools.Tool, 0, len(order))
		for _, id := range order {
			if err := ctx.Err(); err != nil {
				return err
			}
			data := bucket.Get([]byte(id))
			if data == nil {
				return errors.WrapResource("load", "tool", id, errors.ErrNotFound)
			}
			var t tools.Tool
			if err := json.Unmarshal(data, &t); err != nil {
				return errors.WrapParse("json", id, err)
			}
			c.Tools = append(c.Tools, t)
		}
		return nil
	})
	if err != nil {
		return tools.Catalog{}, err
	}
	return c, nil
}

// Save replaces every stored record in one transaction.
func (b *Bolt) Save(ctx context.Context, c tools.Catalog) error {
	return b.update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(toolsBucket); err != nil && err != bolt.ErrBucketNotFound {
			return err
		}
		bucket, err := tx.CreateBucket(toolsBucket)
		if err != nil {
			return err
		}

		order := make([]string, 0, len(c.Tools))
		for _, t := range c.Tools {
			if err := ctx.Err(); err != nil {
				return err
			}
			if bucket.Get([]byte(t.ID)) != nil {
				return errors.WrapResource("save", "tool", t.ID, errors.ErrAlreadyExists)
			}
			data, err := json.Marshal(t)
			if err != nil {
				return errors.WrapParse("json", t.ID, err)
			}
			if err := bucket.Put([]byte(t.ID), data); err != nil {
				return err
			}
			order = append(order, t.ID)
		}

		meta := tx.Bucket(metaBucket)
		rawOrder, err := json.Marshal(order)
		if err != nil {
			return err
		}
		rawMeta, err := json.Marshal(c.Metadata)
		if err != nil {
			return err
		}
		if err := meta.Put(orderKey, rawOrder); err != nil {
			return err
		}
		return meta.Put(metadataKey, rawMeta)
	})
}

// Close closes the database. It is safe to call more than once.
func (b *Bolt) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	return b.db.Close()
}

func (b *Bolt) view(fn func(*bolt.Tx) error) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return closedErr(KindBolt)
	}
	return b.db.View(fn)
}

func (b *Bolt) update(fn func(*bolt.Tx) error) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return closedErr(KindBolt)
	}
	return b.db.Update(fn)
}
