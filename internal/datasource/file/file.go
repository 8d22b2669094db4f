// Package file implements local filesystem-backed data sources.
//
// A path may point at a single file or at a directory; a directory is
// treated as a partitioned dataset and expands to one source per contained
// data file, which lets the pipeline process part-files independently.
package file

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"ventes/internal/datasource"
)

// Local is a filesystem data source bound to one file path.
type Local struct{ path string }

// NewLocal returns a Local data source for the provided path. The returned
// value is safe for concurrent use as long as the underlying file is valid
// for concurrent reads.
func NewLocal(path string) *Local { return &Local{path: path} }

// Name returns the file path.
func (l *Local) Name() string { return l.path }

// Open opens the configured path for reading.
//
// Behavior:
//   - If the context is already canceled or its deadline exceeded at the
//     time of the call, Open returns the context error immediately without
//     touching the filesystem.
//   - Any filesystem error is wrapped with the path for context while still
//     permitting errors.Is/As checks (e.g. errors.Is(err, os.ErrNotExist)).
func (l *Local) Open(ctx context.Context) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", l.path, err)
	}
	return f, nil
}

// Discover expands path into the list of sources it denotes.
//
// A regular file yields exactly one source. A directory yields one source
// per contained *.csv file (non-recursive), sorted by name so that discovery
// order is deterministic; hidden files are skipped. An empty directory is an
// error: a partitioned dataset with zero part-files is almost always a
// misconfigured path.
func Discover(path string) ([]datasource.Source, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if !info.IsDir() {
		return []datasource.Source{NewLocal(path)}, nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", path, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, ".") || !strings.HasSuffix(name, ".csv") {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	if len(names) == 0 {
		return nil, fmt.Errorf("no .csv part-files in directory %s", path)
	}

	sources := make([]datasource.Source, 0, len(names))
	for _, name := range names {
		sources = append(sources, NewLocal(filepath.Join(path, name)))
	}
	return sources, nil
}
