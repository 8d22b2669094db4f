// Package storage contains storage-agnostic contracts for persisting
// aggregation results.
//
// Concrete backends (csv, sqlite, postgres) live in subpackages and register
// themselves with the factory at init time; callers open a Repository through
// New without importing any backend directly.
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"ventes/internal/model"
)

// Repository persists the two result tables of an aggregation run.
//
// WriteDaily and WriteClients each replace the prior content of their
// destination: a rerun of the same job yields the same stored rows, not an
// accumulation.
type Repository interface {
	WriteDaily(ctx context.Context, rows []model.DailySales) error
	WriteClients(ctx context.Context, rows []model.ClientSales) error
	Close() error
}

// Config selects and parameterizes a storage backend.
type Config struct {
	Kind string // "csv", "sqlite", "postgres"

	// CSV backend.
	DailyPath  string
	ClientPath string

	// Database backends.
	DSN         string
	DailyTable  string
	ClientTable string
}

// Factory constructs a Repository from a Config. Backends register one per
// storage kind.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register registers (or replaces) a Factory for the given storage kind.
// It is typically called from backend packages' init() functions.
func Register(kind string, fn Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[kind] = fn
}

// New opens a Repository for cfg.Kind. The backend must have been registered,
// usually via a blank import of the storage/all package.
func New(ctx context.Context, cfg Config) (Repository, error) {
	mu.RLock()
	fn, ok := factories[cfg.Kind]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no storage backend registered for kind=%q (known: %v)", cfg.Kind, Kinds())
	}
	return fn(ctx, cfg)
}

// Kinds returns the registered backend kinds in sorted order.
func Kinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
