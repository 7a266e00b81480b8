package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/siteoptz/toolcatalog/pkg/constants"
	"github.com/siteoptz/toolcatalog/pkg/errors"
	"github.com/siteoptz/toolcatalog/pkg/tools"
)

const schema = `
CREATE TABLE IF NOT EXISTS tools (
	position INTEGER PRIMARY KEY,
	id       TEXT NOT NULL UNIQUE,
	name     TEXT NOT NULL,
	category TEXT NOT NULL,
	website  TEXT NOT NULL DEFAULT '',
	data     TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_tools_category ON tools(category);
CREATE TABLE IF NOT EXISTS metadata (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);`

// SQLite stores one row per record, with the full record as JSON next to
// the columns worth querying.
type SQLite struct {
	mu     sync.RWMutex
	db     *sql.DB
	path   string
	closed bool
}

// OpenSQLite opens or creates the database at path.
func OpenSQLite(path string) (*SQLite, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return nil, errors.NewValidationError("path", path, "sqlite store path is required")
	}
	if err := os.MkdirAll(filepath.Dir(trimmed), constants.DirPermissions); err != nil {
		return nil, errors.WrapIO("mkdir", filepath.Dir(trimmed), err)
	}
	db, err := sql.Open("sqlite", trimmed)
	if err != nil {
		return nil, errors.WrapResource("open", "store", trimmed, err)
	}
	// A single connection serializes writers and keeps the file lock simple.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, errors.WrapResource("create", "store", trimmed, err)
	}
	return &SQLite{db: db, path: trimmed}, nil
}

// Load reads the catalog back in saved order.
func (s *SQLite) Load(ctx context.Context) (tools.Catalog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return tools.Catalog{}, closedErr(KindSQLite)
	}

	var c tools.Catalog
	var rawMeta string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = 'metadata'`).Scan(&rawMeta)
	if err == sql.ErrNoRows {
		return tools.Catalog{}, notFound(s.path)
	}
	if err != nil {
		return tools.Catalog{}, errors.WrapResource("load", "catalog", s.path, err)
	}
	if err := json.Unmarshal([]byte(rawMeta), &c.Metadata); err != nil {
		return tools.Catalog{}, errors.WrapParse("json", s.path, err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id, data FROM tools ORDER BY position`)
	if err != nil {
		return tools.Catalog{}, errors.WrapResource("load", "catalog", s.path, err)
	}
	defer rows.Close() //nolint:errcheck

	c.Tools = []tools.Tool{}
	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			return tools.Catalog{}, errors.WrapResource("load", "tool", "", err)
		}
		var t tools.Tool
		if err := json.Unmarshal([]byte(data), &t); err != nil {
			return tools.Catalog{}, errors.WrapParse("json", id, err)
		}
		c.Tools = append(c.Tools, t)
	}
	if err := rows.Err(); err != nil {
		return tools.Catalog{}, errors.WrapResource("load", "catalog", s.path, err)
	}
	return c, nil
}

// Save replaces every row in one transaction.
func (s *SQLite) Save(ctx context.Context, c tools.Catalog) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return closedErr(KindSQLite)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.WrapResource("save", "catalog", s.path, err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM tools`); err != nil {
		return errors.WrapResource("save", "catalog", s.path, err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO tools (position, id, name, category, website, data) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return errors.WrapResource("save", "catalog", s.path, err)
	}
	defer stmt.Close() //nolint:errcheck

	for i, t := range c.Tools {
		data, mErr := json.Marshal(t)
		if mErr != nil {
			err = errors.WrapParse("json", t.ID, mErr)
			return err
		}
		if _, err = stmt.ExecContext(ctx, i, t.ID, t.Name, t.Category, t.Website, string(data)); err != nil {
			return errors.WrapResource("save", "tool", t.ID, err)
		}
	}

	rawMeta, err := json.Marshal(c.Metadata)
	if err != nil {
		return errors.WrapParse("json", s.path, err)
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO metadata (key, value) VALUES ('metadata', ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, string(rawMeta))
	if err != nil {
		return errors.WrapResource("save", "catalog", s.path, err)
	}
	if err = tx.Commit(); err != nil {
		return errors.WrapResource("save", "catalog", s.path, err)
	}
	return nil
}

// CountByCategory returns the number of stored records per category.
func (s *SQLite) CountByCategory(ctx context.Context) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, closedErr(KindSQLite)
	}
	rows, err := s.db.QueryContext(ctx, `SELECT category, COUNT(*) FROM tools GROUP BY category`)
	if err != nil {
		return nil, errors.WrapResource("query", "catalog", s.path, err)
	}
	defer rows.Close() //nolint:errcheck

	counts := make(map[string]int)
	for rows.Next() {
		var category string
		var n int
		if err := rows.Scan(&category, &n); err != nil {
			return nil, errors.WrapResource("query", "catalog", s.path, err)
		}
		counts[category] = n
	}
	return counts, rows.Err()
}

// Close closes the database. It is safe to call more than once.
func (s *SQLite) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}
