// Package datasource defines the abstract byte source consumed by the
// partition reader, plus a bounded-retry wrapper applied uniformly to every
// concrete source. The pipeline is indifferent to where the bytes live;
// local files and HTTP endpoints are provided as subpackages.
package datasource

import (
	"context"
	"io"
)

// Source is one independently openable input (a file, one part-file of a
// partitioned dataset, an HTTP object). Open may be called more than once:
// the pipeline re-opens sources when a run is restarted.
type Source interface {
	// Open returns a fresh reader over the source's bytes.
	Open(ctx context.Context) (io.ReadCloser, error)

	// Name identifies the source in errors, logs, and the run summary
	// (e.g. a file path or URL).
	Name() string
}
