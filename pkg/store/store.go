// Package store provides the public constructors for rolodex storage
// backends while keeping the implementation internal.
package store

import (
	"context"

	"github.com/mesh-intelligence/rolodex/internal/sqlstore"
	"github.com/mesh-intelligence/rolodex/pkg/types"
)

// Backend is a Store that can also snapshot itself to JSONL files.
type Backend interface {
	types.Store
	Export(ctx context.Context, dir string) error
	Import(ctx context.Context, dir string) (sqlstore.ImportResult, error)
}

// NewBackend creates a new, unattached backend. Call Attach with a Config
// naming the sqlite or postgres dialect to initialize it.
//
// Example:
//
//	backend := store.NewBackend()
//	err := backend.Attach(types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: ".rolodex-db",
//	})
//	defer backend.Detach()
func NewBackend() Backend {
	return sqlstore.NewBackend()
}

// Open creates a backend and attaches it to config.
func Open(config types.Config) (Backend, error) {
	b := sqlstore.NewBackend()
	if err := b.Attach(config); err != nil {
		return nil, err
	}
	return b, nil
}

// Seed fills an empty store with demo records.
func Seed(ctx context.Context, s types.Store) (sqlstore.SeedResult, error) {
	return sqlstore.Seed(ctx, s)
}
