// Package all wires all built-in storage backends into the storage factory.
//
// This package exists purely for side effects: importing it (even as a blank
// import) causes the init functions of each concrete storage backend to run,
// which in turn register their factories with the storage package.
//
// In other words, importing this package makes the following storage kinds
// available at runtime:
//
//   - "csv"      (ventes/internal/storage/csvsink)
//   - "sqlite"   (ventes/internal/storage/sqlite)
//   - "postgres" (ventes/internal/storage/postgres)
//
// Typical usage (in cmd/ventes/main.go or a similar wiring layer):
//
//	import (
//	    _ "ventes/internal/storage/all" // enable all built-in backends
//
//	    "ventes/internal/storage"
//	)
//
//	repo, err := storage.New(ctx, storage.Config{Kind: spec.Output.Kind, ...})
//
// This pattern keeps backend-specific wiring in a single, small package and
// allows the rest of the application to depend only on the storage
// abstraction rather than individual backends.
//
// Note: if you want a binary that supports only a subset of backends, define
// an alternative wiring package that imports only the required ones.
package all

import (
	_ "ventes/internal/storage/csvsink"
	_ "ventes/internal/storage/postgres"
	_ "ventes/internal/storage/sqlite"
)
