// Package config defines the canonical, JSON-serializable configuration model
// for a sales aggregation run. It is intentionally small, explicit, and
// dependency-free so that pipeline files can be loaded from disk and passed
// through the program without additional glue code.
//
// Design goals:
//
//  1. Stability: changes to this package should be additive and backwards-
//     compatible whenever possible.
//  2. Clarity: field names in Go mirror the JSON structure of pipeline files.
//  3. Minimalism: no third-party config libraries; decoding is performed by
//     the standard library.
//
// Example (trimmed):
//
//	{
//	  "job": "ventes_2019",
//	  "transactions": { "kind": "file", "file": { "path": "data/transactions.csv" } },
//	  "nomenclature": { "kind": "file", "file": { "path": "data/product_nomenclature.csv" } },
//	  "year": 2019,
//	  "output": { "kind": "csv", "csv": { "daily_path": "out/daily.csv", "client_path": "out/clients.csv" } }
//	}
package config

import (
	"encoding/json"
	"io"
	"os"
	"strconv"
)

// Pipeline describes one full aggregation run. It is the top-level object
// decoded from a pipeline file.
type Pipeline struct {
	// Job names the run for logs and metrics labels.
	Job string `json:"job"`

	// Transactions locates the transactions dataset.
	Transactions Source `json:"transactions"`

	// Nomenclature locates the product nomenclature dataset.
	Nomenclature Source `json:"nomenclature"`

	// Year is the target calendar year both aggregations filter on.
	Year int `json:"year"`

	// Runtime controls concurrency, partition sizing, and buffering.
	// Zero values mean defaults.
	Runtime Runtime `json:"runtime"`

	// Output selects where the two result tables are written.
	Output Output `json:"output"`

	// Retry bounds the re-read attempts for unavailable sources.
	Retry Retry `json:"retry"`
}

// Source identifies one input dataset. Additional kinds can be added over
// time.
type Source struct {
	// Kind selects the source implementation: "file" or "http".
	Kind string `json:"kind"`

	// File carries options for the "file" source kind. The path may be a
	// single CSV file or a directory of part-files, each part-file being
	// one input partition.
	File SourceFile `json:"file"`

	// HTTP carries options for the "http" source kind.
	HTTP SourceHTTP `json:"http"`
}

// SourceFile holds configuration for the "file" source kind.
type SourceFile struct {
	Path string `json:"path"`
}

// SourceHTTP holds configuration for the "http" source kind.
type SourceHTTP struct {
	URL string `json:"url"`
}

// Runtime controls concurrency and batching for a run. Zero values are
// resolved to defaults by ResolveRuntime.
type Runtime struct {
	// Workers is the number of parallel partition workers.
	// 0 means GOMAXPROCS.
	Workers int `json:"workers"`

	// PartitionSize is the maximum record count per partition. 0 means the
	// built-in default.
	PartitionSize int `json:"partition_size"`

	// ChannelBuffer is the partition channel capacity between the reader
	// and the workers. 0 means 2*Workers.
	ChannelBuffer int `json:"channel_buffer"`

	// KeyShards, when > 0, routes transactions into that many concurrently
	// filled partitions by a hash of client_id instead of sequential fill.
	// Each client then appears in only one shard's partials, which keeps
	// the per-partition accumulator maps disjoint and the final merge
	// cheap. Output is identical either way.
	KeyShards int `json:"key_shards"`
}

// Output selects the result sink. Exactly one backend is used per run.
type Output struct {
	// Kind selects the sink: "csv", "sqlite", or "postgres".
	Kind string `json:"kind"`

	// CSV carries options for the "csv" sink.
	CSV OutputCSV `json:"csv"`

	// DB carries options for the database sinks.
	DB OutputDB `json:"db"`
}

// OutputCSV holds the destination paths for the two result tables.
type OutputCSV struct {
	DailyPath  string `json:"daily_path"`
	ClientPath string `json:"client_path"`
}

// OutputDB holds the connection and table names for database sinks.
type OutputDB struct {
	DSN         string `json:"dsn"`
	DailyTable  string `json:"daily_table"`
	ClientTable string `json:"client_table"`
}

// Retry bounds the re-read policy for sources that fail transiently.
type Retry struct {
	// MaxRetries is the number of attempts after the initial one.
	// 0 means the built-in default (3); use -1 to disable retries.
	MaxRetries int `json:"max_retries"`

	// InitialBackoffMS is the first backoff in milliseconds; each retry
	// doubles it up to MaxBackoffMS.
	InitialBackoffMS int `json:"initial_backoff_ms"`

	// MaxBackoffMS caps the exponential backoff.
	MaxBackoffMS int `json:"max_backoff_ms"`
}

// Load reads and decodes a pipeline file.
func Load(path string) (Pipeline, error) {
	f, err := os.Open(path)
	if err != nil {
		return Pipeline{}, err
	}
	defer f.Close()
	return Decode(f)
}

// Decode decodes a pipeline from r. Unknown fields are rejected so that
// typos in pipeline files surface immediately instead of silently using
// defaults.
func Decode(r io.Reader) (Pipeline, error) {
	var p Pipeline
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return Pipeline{}, err
	}
	return p, nil
}

// ResolvedRuntime is the effective runtime configuration for a run, after
// defaults and environment overrides are applied.
type ResolvedRuntime struct {
	Workers       int
	PartitionSize int
	ChannelBuffer int
	KeyShards     int
}

// Defaults applied by ResolveRuntime when the pipeline and environment leave
// a knob unset.
const (
	DefaultPartitionSize = 10000
)

// ResolveRuntime resolves the runtime configuration using the pipeline spec
// and environment-variable fallbacks (12-factor style): a non-zero value in
// the spec wins, then the environment, then the default.
//
//	VENTES_WORKERS          overrides Runtime.Workers
//	VENTES_PARTITION_SIZE   overrides Runtime.PartitionSize
func ResolveRuntime(p Pipeline, defaultWorkers int) ResolvedRuntime {
	workers := pickInt(p.Runtime.Workers, getenvInt("VENTES_WORKERS", defaultWorkers))
	if workers < 1 {
		workers = 1
	}
	size := pickInt(p.Runtime.PartitionSize, getenvInt("VENTES_PARTITION_SIZE", DefaultPartitionSize))
	if size < 1 {
		size = DefaultPartitionSize
	}
	buffer := p.Runtime.ChannelBuffer
	if buffer <= 0 {
		buffer = 2 * workers
	}
	return ResolvedRuntime{
		Workers:       workers,
		PartitionSize: size,
		ChannelBuffer: buffer,
		KeyShards:     p.Runtime.KeyShards,
	}
}

// pickInt returns v when positive, otherwise fallback.
func pickInt(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}

// getenvInt reads an integer environment variable, returning fallback when
// unset or unparsable.
func getenvInt(key string, fallback int) int {
	s := os.Getenv(key)
	if s == "" {
		return fallback
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}
