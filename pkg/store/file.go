package store

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/goccy/go-yaml"

	"github.com/siteoptz/toolcatalog/pkg/constants"
	"github.com/siteoptz/toolcatalog/pkg/errors"
	"github.com/siteoptz/toolcatalog/pkg/tools"
)

// Format is a file encoding.
type Format string

// Supported file formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFor picks the format from a file extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", &errors.ParseError{
			Format:  strings.TrimPrefix(filepath.Ext(path), "."),
			File:    path,
			Message: "catalog files must be .json, .yaml or .yml",
			Err:     errors.ErrUnsupportedFormat,
		}
	}
}

// File stores a catalog as a single JSON or YAML document.
type File struct {
	mu     sync.Mutex
	path   string
	format Format
}

// NewFile creates a file store. The format follows the extension.
func NewFile(path string) (*File, error) {
	format, err := FormatFor(path)
	if err != nil {
		return nil, err
	}
	return &File{path: path, format: format}, nil
}

// Path returns the file location.
func (f *File) Path() string {
	return f.path
}

// Load reads the catalog. A bare array of tools is accepted as a catalog
// without metadata.
func (f *File) Load(_ context.Context) (tools.Catalog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return tools.Catalog{}, notFound(f.path)
		}
		return tools.Catalog{}, errors.WrapIO("read", f.path, err)
	}
	return Decode(data, f.format, f.path)
}

// Save writes the catalog to a temporary file and renames it into place.
func (f *File) Save(_ context.Context, c tools.Catalog) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := Encode(c, f.format)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.path), constants.DirPermissions); err != nil {
		return errors.WrapIO("mkdir", filepath.Dir(f.path), err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), "."+filepath.Base(f.path)+".*")
	if err != nil {
		return errors.WrapIO("create", f.path, err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // gone after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close() //nolint:errcheck,gosec // write error takes precedence
		return errors.WrapIO("write", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return errors.WrapIO("close", tmp.Name(), err)
	}
	if err := os.Chmod(tmp.Name(), constants.FilePermissions); err != nil {
		return errors.WrapIO("chmod", tmp.Name(), err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return errors.WrapIO("rename", f.path, err)
	}
	return nil
}

// Close is a no-op for file stores.
func (f *File) Close() error {
	return nil
}

// Encode renders a catalog in the given format.
func Encode(c tools.Catalog, format Format) ([]byte, error) {
	if c.Tools == nil {
		c.Tools = []tools.Tool{}
	}
	switch format {
	case FormatYAML:
		data, err := yaml.Marshal(c)
		if err != nil {
			return nil, errors.WrapParse("yaml", "", err)
		}
		return data, nil
	default:
		data, err := json.MarshalIndent(c, "", "  ")
		if err != nil {
			return nil, errors.WrapParse("json", "", err)
		}
		return append(data, '\n'), nil
	}
}

// Decode parses a catalog document.
func Decode(data []byte, format Format, name string) (tools.Catalog, error) {
	var c tools.Catalog
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &c); err != nil {
			return tools.Catalog{}, errors.WrapParse("yaml", name, err)
		}
	default:
		trimmed := bytes.TrimSpace(data)
		if bytes.HasPrefix(trimmed, []byte("[")) {
			if err := json.Unmarshal(trimmed, &c.Tools); err != nil {
				return tools.Catalog{}, errors.WrapParse("json", name, err)
			}
			break
		}
		if err := json.Unmarshal(trimmed, &c); err != nil {
			return tools.Catalog{}, errors.WrapParse("json", name, err)
		}
	}
	if c.Tools == nil {
		c.Tools = []tools.Tool{}
	}
	return c, nil
}
