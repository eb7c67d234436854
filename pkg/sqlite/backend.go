// Package sqlite exposes the planner's SQLite backend while keeping its
// implementation internal.
package sqlite

import (
	"github.com/mesh-intelligence/planner/internal/sqlite"
)

// NewBackend creates a SQLite backend. It stores plans and the catalog and
// is not attached; call Attach with a Config to initialize it.
//
// Example:
//
//	backend := sqlite.NewBackend()
//	err := backend.Attach(types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: dataDir,
//	})
//	defer backend.Detach()
func NewBackend() *sqlite.Backend {
	return sqlite.NewBackend()
}
