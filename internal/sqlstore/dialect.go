package sqlstore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/mesh-intelligence/rolodex/pkg/types"
)

// DatabaseFile is the sqlite database file created inside DataDir.
const DatabaseFile = "rolodex.db"

// dialect captures what differs between the supported SQL backends.
// Queries are written with ? placeholders and rebound by sqlx.
type dialect struct {
	name   string
	driver string
	schema []string

	// amountExpr is the ORDER BY expression for opportunities.amount.
	amountExpr string

	// resetSequence returns the statement that realigns a table's id
	// sequence after rows were inserted with explicit ids, or "".
	resetSequence func(table string) string
}

var sqliteDialect = &dialect{
	name:          types.BackendSQLite,
	driver:        "sqlite",
	schema:        sqliteSchema,
	amountExpr:    "CAST(o.amount AS REAL)",
	resetSequence: func(string) string { return "" },
}

var postgresDialect = &dialect{
	name:       types.BackendPostgres,
	driver:     "pgx",
	schema:     postgresSchema,
	amountExpr: "o.amount",
	resetSequence: func(table string) string {
		return fmt.Sprintf(
			"SELECT setval(pg_get_serial_sequence('%s', 'id'), COALESCE((SELECT MAX(id) FROM %s), 1))",
			table, table)
	},
}

func dialectFor(backend string) (*dialect, error) {
	switch backend {
	case types.BackendSQLite:
		return sqliteDialect, nil
	case types.BackendPostgres:
		return postgresDialect, nil
	default:
		return nil, types.ErrBackendUnknown
	}
}

// open connects to the database described by config.
func (d *dialect) open(config types.Config) (*sqlx.DB, error) {
	switch d.name {
	case types.BackendSQLite:
		dataDir := config.DataDir
		if dataDir == "" {
			dataDir = "."
		}
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data dir: %w", err)
		}
		dsn := "file:" + filepath.Join(dataDir, DatabaseFile) +
			"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
		db, err := sqlx.Open(d.driver, dsn)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite: %w", err)
		}
		// sqlite serializes writers; one connection avoids SQLITE_BUSY.
		db.SetMaxOpenConns(1)
		return db, nil
	default:
		db, err := sqlx.Connect(d.driver, config.DSN)
		if err != nil {
			return nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		return db, nil
	}
}

func (d *dialect) migrate(db *sqlx.DB) error {
	for _, stmt := range d.schema {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("applying %s schema: %w", d.name, err)
		}
	}
	return nil
}

// Driver error classification. Both drivers report constraint failures with
// their own error types.

func isForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}
	return isSQLiteConstraint(err, sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY, "FOREIGN KEY")
}

func isCheckViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23514"
	}
	return isSQLiteConstraint(err, sqlite3.SQLITE_CONSTRAINT_CHECK, "CHECK")
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return isSQLiteConstraint(err, sqlite3.SQLITE_CONSTRAINT_UNIQUE, "UNIQUE") ||
		isSQLiteConstraint(err, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, "UNIQUE")
}

func isSQLiteConstraint(err error, extended int, marker string) bool {
	var sqErr *sqlite.Error
	if !errors.As(err, &sqErr) {
		return false
	}
	if sqErr.Code() == extended {
		return true
	}
	return sqErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(sqErr.Error(), marker)
}

// classifyWriteError maps constraint failures on insert and update to the
// shared sentinels.
func classifyWriteError(op string, err error) error {
	switch {
	case isForeignKeyViolation(err):
		return types.ErrCompanyNotFound
	case isCheckViolation(err):
		return fmt.Errorf("%w: %v", types.ErrInvalidData, err)
	case isUniqueViolation(err):
		return fmt.Errorf("%w: %v", types.ErrInvalidData, err)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
