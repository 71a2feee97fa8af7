package sqlstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/mesh-intelligence/rolodex/pkg/types"
)

// snapshotFile returns the JSONL file name for a table.
func snapshotFile(tableName string) string {
	return tableName + ".jsonl"
}

// ImportResult counts what Import loaded.
type ImportResult struct {
	Companies     int `json:"companies"`
	People        int `json:"people"`
	Opportunities int `json:"opportunities"`
	Skipped       int `json:"skipped"`
}

// Export writes every table to dir as <table>.jsonl, one record per line in
// id order. Existing files are replaced atomically.
func (b *Backend) Export(ctx context.Context, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating export dir: %w", err)
	}
	for _, name := range types.StandardTableNames {
		tbl, err := b.GetTable(name)
		if err != nil {
			return err
		}
		entities, err := tbl.Fetch(ctx, types.Filter{types.FilterOrderBy: types.OrderByID})
		if err != nil {
			return fmt.Errorf("exporting %s: %w", name, err)
		}
		records := make([]json.RawMessage, 0, len(entities))
		for _, e := range entities {
			raw, err := json.Marshal(e)
			if err != nil {
				return fmt.Errorf("encoding %s record: %w", name, err)
			}
			records = append(records, raw)
		}
		if err := writeJSONL(filepath.Join(dir, snapshotFile(name)), records); err != nil {
			return fmt.Errorf("writing %s: %w", snapshotFile(name), err)
		}
	}
	return nil
}

// Import loads the JSONL files written by Export, keeping record ids and
// creation times. Loading is one transaction. Malformed lines, invalid
// records, ids already present and records whose company is missing are
// skipped and counted.
func (b *Backend) Import(ctx context.Context, dir string) (ImportResult, error) {
	var result ImportResult

	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached || b.db == nil {
		return result, types.ErrStoreDetached
	}

	files := make(map[string][]json.RawMessage, len(types.StandardTableNames))
	for _, name := range types.StandardTableNames {
		records, err := readJSONL(filepath.Join(dir, snapshotFile(name)))
		if err != nil {
			return result, err
		}
		files[name] = records
	}

	tx, err := b.db.BeginTxx(ctx, nil)
	if err != nil {
		return result, fmt.Errorf("beginning import transaction: %w", err)
	}
	defer tx.Rollback()

	for _, raw := range files[types.TableCompanies] {
		ok, err := importCompany(ctx, tx, raw)
		if err != nil {
			return result, err
		}
		result.count(&result.Companies, ok)
	}
	for _, raw := range files[types.TablePeople] {
		ok, err := importPerson(ctx, tx, raw)
		if err != nil {
			return result, err
		}
		result.count(&result.People, ok)
	}
	for _, raw := range files[types.TableOpportunities] {
		ok, err := importOpportunity(ctx, tx, raw)
		if err != nil {
			return result, err
		}
		result.count(&result.Opportunities, ok)
	}

	for _, name := range types.StandardTableNames {
		if stmt := b.dialect.resetSequence(name); stmt != "" {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return result, fmt.Errorf("resetting %s id sequence: %w", name, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return result, fmt.Errorf("committing import: %w", err)
	}
	return result, nil
}

func (r *ImportResult) count(n *int, loaded bool) {
	if loaded {
		*n++
		return
	}
	r.Skipped++
}

func createdAt(t time.Time) timestamp {
	if t.IsZero() {
		t = time.Now()
	}
	return timestamp{Time: t.UTC()}
}

// insertIgnoringConflict runs an INSERT ... ON CONFLICT (id) DO NOTHING and
// reports whether a row was written.
func insertIgnoringConflict(ctx context.Context, tx *sqlx.Tx, query string, args ...any) (bool, error) {
	res, err := tx.ExecContext(ctx, tx.Rebind(query+" ON CONFLICT (id) DO NOTHING"), args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func importCompany(ctx context.Context, tx *sqlx.Tx, raw json.RawMessage) (bool, error) {
	var c types.Company
	if err := json.Unmarshal(raw, &c); err != nil || c.ID <= 0 {
		return false, nil
	}
	c.Normalize()
	if c.Validate() != nil {
		return false, nil
	}
	ok, err := insertIgnoringConflict(ctx, tx,
		`INSERT INTO companies (id, name, website, headquarters, status, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Website, c.Headquarters, c.Status, createdAt(c.CreatedAt))
	if err != nil {
		return false, fmt.Errorf("importing company %d: %w", c.ID, err)
	}
	return ok, nil
}

func importPerson(ctx context.Context, tx *sqlx.Tx, raw json.RawMessage) (bool, error) {
	var p types.Person
	if err := json.Unmarshal(raw, &p); err != nil || p.ID <= 0 {
		return false, nil
	}
	p.Normalize()
	if p.Validate() != nil {
		return false, nil
	}
	if p.CompanyID != nil {
		exists, err := companyExists(ctx, tx, *p.CompanyID)
		if err != nil || !exists {
			return false, err
		}
	}
	ok, err := insertIgnoringConflict(ctx, tx,
		`INSERT INTO people (id, name, email, phone, company_id, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Email, p.Phone, p.CompanyID, createdAt(p.CreatedAt))
	if err != nil {
		return false, fmt.Errorf("importing person %d: %w", p.ID, err)
	}
	return ok, nil
}

func importOpportunity(ctx context.Context, tx *sqlx.Tx, raw json.RawMessage) (bool, error) {
	var o types.Opportunity
	if err := json.Unmarshal(raw, &o); err != nil || o.ID <= 0 {
		return false, nil
	}
	o.Normalize()
	if o.Validate() != nil {
		return false, nil
	}
	exists, err := companyExists(ctx, tx, o.CompanyID)
	if err != nil || !exists {
		return false, err
	}
	ok, err := insertIgnoringConflict(ctx, tx,
		`INSERT INTO opportunities (id, name, amount, company_id, close_date, status, progress, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.Name, o.Amount, o.CompanyID, o.CloseDate, string(o.Status), o.Progress, createdAt(o.CreatedAt))
	if err != nil {
		return false, fmt.Errorf("importing opportunity %d: %w", o.ID, err)
	}
	return ok, nil
}
