// Package store persists canonical catalogs.
//
// Three backends share the Store interface: plain files (JSON or YAML,
// picked by extension), an embedded bbolt database, and SQLite. Every Save
// replaces the whole catalog atomically.
package store

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/siteoptz/toolcatalog/pkg/errors"
	"github.com/siteoptz/toolcatalog/pkg/tools"
)

// Store loads and saves a catalog.
type Store interface {
	// Load returns the stored catalog. It returns a *errors.NotFoundError
	// when nothing has been saved yet.
	Load(ctx context.Context) (tools.Catalog, error)

	// Save replaces the stored catalog.
	Save(ctx context.Context, c tools.Catalog) error

	// Close releases the backend.
	Close() error
}

// Kind names a backend.
type Kind string

// Supported backends.
const (
	KindFile   Kind = "file"
	KindBolt   Kind = "bolt"
	KindSQLite Kind = "sqlite"
)

// String returns the string representation of a Kind.
func (k Kind) String() string {
	return string(k)
}

// ParseKind parses a backend name. An empty name means KindFile.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case "", KindFile:
		return KindFile, nil
	case KindBolt, "bbolt", "boltdb":
		return KindBolt, nil
	case KindSQLite, "sqlite3":
		return KindSQLite, nil
	default:
		return "", errors.NewValidationError("store", s, "must be file, bolt or sqlite")
	}
}

// Open opens the backend of the given kind at path.
func Open(kind Kind, path string) (Store, error) {
	switch kind {
	case KindFile, "":
		return NewFile(path)
	case KindBolt:
		return OpenBolt(path)
	case KindSQLite:
		return OpenSQLite(path)
	default:
		return nil, errors.NewValidationError("store", string(kind), "unknown store kind")
	}
}

// LoadOrEmpty loads the catalog, treating a missing one as empty.
func LoadOrEmpty(ctx context.Context, s Store) (tools.Catalog, error) {
	c, err := s.Load(ctx)
	if errors.IsNotFound(err) {
		return tools.Catalog{Tools: []tools.Tool{}}, nil
	}
	return c, err
}

func notFound(path string) error {
	return &errors.NotFoundError{Resource: "catalog", ID: filepath.Base(path)}
}

func closedErr(kind Kind) error {
	return fmt.Errorf("%s store: %w", kind, errors.ErrClosed)
}
