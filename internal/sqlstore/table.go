package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/mesh-intelligence/rolodex/pkg/types"
)

// Compile-time interface check.
var _ types.Table = (*table)(nil)

// table implements types.Table for one entity type and routes each
// operation to the entity-specific implementation.
type table struct {
	name    string
	backend *Backend
}

func newTable(b *Backend, name string) *table {
	return &table{name: name, backend: b}
}

// conn returns the open database. The caller must hold backend.mu.
func (t *table) conn() (*sqlx.DB, error) {
	if !t.backend.attached || t.backend.db == nil {
		return nil, types.ErrStoreDetached
	}
	return t.backend.db, nil
}

// Fetch returns entities matching the filter. Empty filter matches all.
func (t *table) Fetch(ctx context.Context, filter types.Filter) ([]any, error) {
	t.backend.mu.RLock()
	defer t.backend.mu.RUnlock()

	db, err := t.conn()
	if err != nil {
		return nil, err
	}
	opts, err := parseFilter(t.name, filter)
	if err != nil {
		return nil, err
	}

	switch t.name {
	case types.TableCompanies:
		return t.fetchCompanies(ctx, db, opts)
	case types.TablePeople:
		return t.fetchPeople(ctx, db, opts)
	case types.TableOpportunities:
		return t.fetchOpportunities(ctx, db, opts)
	default:
		return nil, types.ErrTableNotFound
	}
}

// Get retrieves an entity by ID.
// Returns ErrInvalidID if id is not positive, ErrNotFound if not found.
func (t *table) Get(ctx context.Context, id int64) (any, error) {
	if id <= 0 {
		return nil, types.ErrInvalidID
	}
	t.backend.mu.RLock()
	defer t.backend.mu.RUnlock()

	db, err := t.conn()
	if err != nil {
		return nil, err
	}

	switch t.name {
	case types.TableCompanies:
		return getCompany(ctx, db, id)
	case types.TablePeople:
		return getPerson(ctx, db, id)
	case types.TableOpportunities:
		return getOpportunity(ctx, db, id)
	default:
		return nil, types.ErrTableNotFound
	}
}

// Insert creates an entity and returns the stored record.
func (t *table) Insert(ctx context.Context, data any) (any, error) {
	t.backend.mu.RLock()
	defer t.backend.mu.RUnlock()

	db, err := t.conn()
	if err != nil {
		return nil, err
	}

	switch t.name {
	case types.TableCompanies:
		return insertCompany(ctx, db, data)
	case types.TablePeople:
		return insertPerson(ctx, db, data)
	case types.TableOpportunities:
		return insertOpportunity(ctx, db, data)
	default:
		return nil, types.ErrTableNotFound
	}
}

// Update replaces every mutable field of an entity.
func (t *table) Update(ctx context.Context, id int64, data any) (any, error) {
	if id <= 0 {
		return nil, types.ErrInvalidID
	}
	t.backend.mu.RLock()
	defer t.backend.mu.RUnlock()

	db, err := t.conn()
	if err != nil {
		return nil, err
	}

	switch t.name {
	case types.TableCompanies:
		return updateCompany(ctx, db, id, data)
	case types.TablePeople:
		return updatePerson(ctx, db, id, data)
	case types.TableOpportunities:
		return updateOpportunity(ctx, db, id, data)
	default:
		return nil, types.ErrTableNotFound
	}
}

// Patch applies a partial update and returns the stored record.
func (t *table) Patch(ctx context.Context, id int64, patch any) (any, error) {
	if id <= 0 {
		return nil, types.ErrInvalidID
	}
	t.backend.mu.RLock()
	defer t.backend.mu.RUnlock()

	db, err := t.conn()
	if err != nil {
		return nil, err
	}

	switch t.name {
	case types.TableCompanies:
		return patchCompany(ctx, db, id, patch)
	case types.TablePeople:
		return patchPerson(ctx, db, id, patch)
	case types.TableOpportunities:
		return patchOpportunity(ctx, db, id, patch)
	default:
		return nil, types.ErrTableNotFound
	}
}

// Delete removes an entity by ID.
func (t *table) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return types.ErrInvalidID
	}
	t.backend.mu.RLock()
	defer t.backend.mu.RUnlock()

	db, err := t.conn()
	if err != nil {
		return err
	}

	switch t.name {
	case types.TableCompanies:
		return deleteCompany(ctx, db, id)
	case types.TablePeople:
		return deleteRow(ctx, db, "people", id)
	case types.TableOpportunities:
		return deleteRow(ctx, db, "opportunities", id)
	default:
		return types.ErrTableNotFound
	}
}

// deleteRow removes a row that nothing references.
func deleteRow(ctx context.Context, db sqlx.ExtContext, tableName string, id int64) error {
	res, err := db.ExecContext(ctx, db.Rebind("DELETE FROM "+tableName+" WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("deleting from %s: %w", tableName, err)
	}
	return expectAffected(res)
}

// expectAffected turns an UPDATE or DELETE that matched nothing into
// ErrNotFound.
func expectAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading rows affected: %w", err)
	}
	if n == 0 {
		return types.ErrNotFound
	}
	return nil
}

// column is one assignment in a partial UPDATE.
type column struct {
	name  string
	value any
}

// updateColumns writes only the given columns of one row, so concurrent
// writes to other columns survive a patch.
func updateColumns(ctx context.Context, db sqlx.ExtContext, tableName string, id int64, cols []column) error {
	sets := make([]string, len(cols))
	args := make([]any, 0, len(cols)+1)
	for i, c := range cols {
		sets[i] = c.name + " = ?"
		args = append(args, c.value)
	}
	args = append(args, id)
	query := "UPDATE " + tableName + " SET " + strings.Join(sets, ", ") + " WHERE id = ?"
	res, err := db.ExecContext(ctx, db.Rebind(query), args...)
	if err != nil {
		return classifyWriteError("updating "+tableName, err)
	}
	return expectAffected(res)
}

// companyExists reports whether a company row with the given id exists.
func companyExists(ctx context.Context, db sqlx.ExtContext, id int64) (bool, error) {
	var one int
	err := sqlx.GetContext(ctx, db, &one, db.Rebind("SELECT 1 FROM companies WHERE id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking company %d: %w", id, err)
	}
	return true, nil
}

// requireCompany returns ErrCompanyNotFound unless the company exists.
func requireCompany(ctx context.Context, db sqlx.ExtContext, id int64) error {
	ok, err := companyExists(ctx, db, id)
	if err != nil {
		return err
	}
	if !ok {
		return types.ErrCompanyNotFound
	}
	return nil
}

// Filter parsing.

type fetchOptions struct {
	companyID  *int64
	status     string
	orderBy    string
	descending bool
	limit      int
	offset     int
}

// allowedFilters lists the filter keys each table accepts.
var allowedFilters = map[string]map[string]bool{
	types.TableCompanies: {
		types.FilterStatus: true, types.FilterOrderBy: true,
		types.FilterDescending: true, types.FilterLimit: true, types.FilterOffset: true,
	},
	types.TablePeople: {
		types.FilterCompanyID: true, types.FilterOrderBy: true,
		types.FilterDescending: true, types.FilterLimit: true, types.FilterOffset: true,
	},
	types.TableOpportunities: {
		types.FilterCompanyID: true, types.FilterStatus: true, types.FilterOrderBy: true,
		types.FilterDescending: true, types.FilterLimit: true, types.FilterOffset: true,
	},
}

// orderColumns maps FilterOrderBy values to SQL expressions per table.
// The opportunities amount column depends on the dialect and is resolved
// in fetchOpportunities.
var orderColumns = map[string]map[string]string{
	types.TableCompanies: {
		types.OrderByName:      "c.name",
		types.OrderByCreatedAt: "c.created_at",
		types.OrderByID:        "c.id",
	},
	types.TablePeople: {
		types.OrderByName:      "p.name",
		types.OrderByCreatedAt: "p.created_at",
		types.OrderByID:        "p.id",
	},
	types.TableOpportunities: {
		types.OrderByName:      "o.name",
		types.OrderByAmount:    "",
		types.OrderByCloseDate: "o.close_date",
		types.OrderByCreatedAt: "o.created_at",
		types.OrderByID:        "o.id",
	},
}

func parseFilter(tableName string, filter types.Filter) (fetchOptions, error) {
	opts := fetchOptions{orderBy: types.OrderByName}
	allowed := allowedFilters[tableName]

	for key, val := range filter {
		if !allowed[key] {
			return opts, fmt.Errorf("%w: unknown key %q for %s", types.ErrInvalidFilter, key, tableName)
		}
		switch key {
		case types.FilterCompanyID:
			id, ok := toInt64(val)
			if !ok || id <= 0 {
				return opts, fmt.Errorf("%w: %s must be a positive integer", types.ErrInvalidFilter, key)
			}
			opts.companyID = &id
		case types.FilterStatus:
			s, ok := toString(val)
			if !ok {
				return opts, fmt.Errorf("%w: %s must be a string", types.ErrInvalidFilter, key)
			}
			if tableName == types.TableOpportunities {
				st, err := types.ParseStatus(s)
				if err != nil {
					return opts, err
				}
				s = string(st)
			}
			opts.status = s
		case types.FilterOrderBy:
			s, ok := toString(val)
			if !ok {
				return opts, fmt.Errorf("%w: %s must be a string", types.ErrInvalidFilter, key)
			}
			if _, known := orderColumns[tableName][s]; !known {
				return opts, fmt.Errorf("%w: cannot order %s by %q", types.ErrInvalidFilter, tableName, s)
			}
			opts.orderBy = s
		case types.FilterDescending:
			b, ok := toBool(val)
			if !ok {
				return opts, fmt.Errorf("%w: %s must be a boolean", types.ErrInvalidFilter, key)
			}
			opts.descending = b
		case types.FilterLimit, types.FilterOffset:
			n, ok := toInt64(val)
			if !ok || n < 0 {
				return opts, fmt.Errorf("%w: %s must be a non-negative integer", types.ErrInvalidFilter, key)
			}
			if key == types.FilterLimit {
				opts.limit = int(n)
			} else {
				opts.offset = int(n)
			}
		}
	}
	return opts, nil
}

// orderClause renders ORDER BY, LIMIT and OFFSET. Ties always break on id so
// the order is stable.
func (o fetchOptions) orderClause(column, idColumn string, args []any) (string, []any) {
	dir := "ASC"
	if o.descending {
		dir = "DESC"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, " ORDER BY %s %s", column, dir)
	if column != idColumn {
		fmt.Fprintf(&sb, ", %s %s", idColumn, dir)
	}
	if o.limit > 0 || o.offset > 0 {
		limit := int64(o.limit)
		if limit == 0 {
			limit = math.MaxInt32
		}
		sb.WriteString(" LIMIT ? OFFSET ?")
		args = append(args, limit, o.offset)
	}
	return sb.String(), args
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(n), 10, 64)
		return i, err == nil
	default:
		return 0, false
	}
}

func toString(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case types.Status:
		return string(s), true
	default:
		return "", false
	}
}

func toBool(v any) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case string:
		parsed, err := strconv.ParseBool(b)
		return parsed, err == nil
	default:
		return false, false
	}
}
