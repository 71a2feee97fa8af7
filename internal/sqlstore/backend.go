// Package sqlstore implements the relational storage backend for rolodex.
// One sqlx-based implementation serves two dialects: sqlite through
// modernc.org/sqlite and postgres through pgx's database/sql adapter.
package sqlstore

import (
	"context"
	"sync"

	"github.com/jmoiron/sqlx"

	"github.com/mesh-intelligence/rolodex/pkg/types"
)

// Compile-time interface check.
var _ types.Store = (*Backend)(nil)

// Backend implements types.Store over a SQL database.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	db       *sqlx.DB
	dialect  *dialect
	tables   map[string]*table
}

// NewBackend creates a new backend instance.
// The backend is not attached; call Attach with a Config to initialize.
func NewBackend() *Backend {
	return &Backend{
		tables: make(map[string]*table),
	}
}

// Attach opens the database named by config, applies the schema and creates
// the table accessors. Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}

	d, err := dialectFor(config.Backend)
	if err != nil {
		return err
	}
	db, err := d.open(config)
	if err != nil {
		return err
	}
	if err := d.migrate(db); err != nil {
		db.Close()
		return err
	}

	b.attachLocked(db, d, config)
	return nil
}

// attachLocked installs an open database. The caller must hold b.mu.
func (b *Backend) attachLocked(db *sqlx.DB, d *dialect, config types.Config) {
	b.db = db
	b.dialect = d
	b.config = config
	b.attached = true
	for _, name := range types.StandardTableNames {
		b.tables[name] = newTable(b, name)
	}
}

// Detach closes the database. After Detach, table operations return
// ErrStoreDetached. Detach is idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}
	if b.db != nil {
		if err := b.db.Close(); err != nil {
			return err
		}
		b.db = nil
	}
	b.attached = false
	b.tables = make(map[string]*table)
	return nil
}

// GetTable returns the Table for the given name.
func (b *Backend) GetTable(name string) (types.Table, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrStoreDetached
	}
	t, ok := b.tables[name]
	if !ok {
		return nil, types.ErrTableNotFound
	}
	return t, nil
}

// Ping checks the database connection.
func (b *Backend) Ping(ctx context.Context) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return types.ErrStoreDetached
	}
	return b.db.PingContext(ctx)
}

// Dialect returns the attached backend name, or "" when detached.
func (b *Backend) Dialect() string {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.dialect == nil || !b.attached {
		return ""
	}
	return b.dialect.name
}
