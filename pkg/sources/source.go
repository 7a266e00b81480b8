// Package sources reads raw candidate records produced by scrapers.
//
// A Source yields []tools.Raw. FileSource reads one JSON or YAML file;
// Glob discovers files under a directory with doublestar patterns; LoadAll
// reads many sources concurrently while keeping their order.
package sources

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/goccy/go-yaml"
	"github.com/sourcegraph/conc/iter"

	"github.com/siteoptz/toolcatalog/pkg/constants"
	"github.com/siteoptz/toolcatalog/pkg/errors"
	"github.com/siteoptz/toolcatalog/pkg/logging"
	"github.com/siteoptz/toolcatalog/pkg/tools"
)

// ID identifies a source. File sources use their path.
type ID string

// String returns the string representation of a source id.
func (id ID) String() string {
	return string(id)
}

// Source yields raw candidate records.
type Source interface {
	// ID returns the identifier used to tag records from this source.
	ID() ID

	// Fetch returns the records of this source.
	Fetch(ctx context.Context) ([]tools.Raw, error)
}

// FileSource reads a JSON or YAML file of raw records.
type FileSource struct {
	path string
}

// NewFileSource returns a source for path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// ID returns the file path.
func (f *FileSource) ID() ID {
	return ID(f.path)
}

// Fetch reads and decodes the file.
func (f *FileSource) Fetch(ctx context.Context) ([]tools.Raw, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFoundError("source", f.path)
		}
		return nil, errors.WrapIO("read", f.path, err)
	}
	return Decode(data, f.path)
}

// Decode decodes raw records. YAML is used for .yaml and .yml names,
// JSON for everything else. Both accept a bare list or a "tools" envelope.
func Decode(data []byte, name string) ([]tools.Raw, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return decodeYAML(data, name)
	default:
		raws, err := tools.DecodeRaw(data)
		if err != nil {
			return nil, errors.WrapParse("json", name, err)
		}
		return raws, nil
	}
}

func decodeYAML(data []byte, name string) ([]tools.Raw, error) {
	trimmed := bytes.TrimSpace(data)
	if bytes.HasPrefix(trimmed, []byte("-")) || bytes.HasPrefix(trimmed, []byte("[")) {
		var raws []tools.Raw
		if err := yaml.Unmarshal(trimmed, &raws); err != nil {
			return nil, errors.WrapParse("yaml", name, err)
		}
		return raws, nil
	}
	var doc struct {
		Tools []tools.Raw `yaml:"tools"`
	}
	if err := yaml.Unmarshal(trimmed, &doc); err != nil {
		return nil, errors.WrapParse("yaml", name, err)
	}
	return doc.Tools, nil
}

// Static is an in-memory source.
type Static struct {
	id   ID
	raws []tools.Raw
}

// NewStatic returns a source that yields raws.
func NewStatic(id ID, raws []tools.Raw) *Static {
	return &Static{id: id, raws: raws}
}

// ID returns the source id.
func (s *Static) ID() ID {
	return s.id
}

// Fetch returns a copy of the records.
func (s *Static) Fetch(ctx context.Context) ([]tools.Raw, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return slices.Clone(s.raws), nil
}

// Glob returns a FileSource for every file under root matching pattern,
// sorted by path. Patterns use doublestar syntax, e.g. "**/*.json".
func Glob(root, pattern string) ([]Source, error) {
	matches, err := doublestar.Glob(os.DirFS(root), pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, errors.NewValidationError("pattern", pattern, err.Error())
	}
	slices.Sort(matches)

	srcs := make([]Source, 0, len(matches))
	for _, m := range matches {
		srcs = append(srcs, NewFileSource(filepath.Join(root, filepath.FromSlash(m))))
	}
	return srcs, nil
}

// Resolve turns command line arguments into sources. Arguments that are
// directories expand to every JSON and YAML file beneath them.
func Resolve(args []string) ([]Source, error) {
	var srcs []Source
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, errors.NewNotFoundError("source", arg)
			}
			return nil, errors.WrapIO("stat", arg, err)
		}
		if !info.IsDir() {
			srcs = append(srcs, NewFileSource(arg))
			continue
		}
		found, err := Glob(arg, "**/*.{json,yaml,yml}")
		if err != nil {
			return nil, err
		}
		srcs = append(srcs, found...)
	}
	return srcs, nil
}

// LoadAll fetches every source concurrently and concatenates the records
// in source order. Records without a source tag get the source id.
// Failing sources are skipped; their errors are joined into the returned
// error alongside whatever did load.
func LoadAll(ctx context.Context, srcs []Source) ([]tools.Raw, error) {
	mapper := iter.Mapper[Source, []tools.Raw]{MaxGoroutines: constants.MaxConcurrentLoads}
	batches, err := mapper.MapErr(srcs, func(src *Source) ([]tools.Raw, error) {
		id := (*src).ID().String()
		logger := logging.FromContext(logging.WithSource(ctx, id))
		raws, err := (*src).Fetch(ctx)
		if err != nil {
			logger.Warn().Err(err).Msg("Failed to load source")
			return nil, err
		}
		for i := range raws {
			if raws[i].Source == "" {
				raws[i].Source = id
			}
		}
		logger.Debug().Int("records", len(raws)).Msg("Loaded source")
		return raws, nil
	})

	var all []tools.Raw
	for _, b := range batches {
		all = append(all, b...)
	}
	return all, err
}
