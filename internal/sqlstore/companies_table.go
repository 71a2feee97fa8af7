package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/mesh-intelligence/rolodex/pkg/types"
)

const companySelect = `SELECT c.id, c.name, c.website, c.headquarters, c.status, c.created_at,
    (SELECT COUNT(*) FROM people p WHERE p.company_id = c.id) AS people_count
FROM companies c`

type companyRow struct {
	ID           int64     `db:"id"`
	Name         string    `db:"name"`
	Website      string    `db:"website"`
	Headquarters string    `db:"headquarters"`
	Status       string    `db:"status"`
	CreatedAt    timestamp `db:"created_at"`
	PeopleCount  int       `db:"people_count"`
}

func (r companyRow) entity() *types.Company {
	return &types.Company{
		ID:           r.ID,
		Name:         r.Name,
		Website:      r.Website,
		Headquarters: r.Headquarters,
		Status:       r.Status,
		PeopleCount:  r.PeopleCount,
		CreatedAt:    r.CreatedAt.Time,
	}
}

func getCompany(ctx context.Context, db sqlx.ExtContext, id int64) (*types.Company, error) {
	var row companyRow
	err := sqlx.GetContext(ctx, db, &row, db.Rebind(companySelect+" WHERE c.id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting company %d: %w", id, err)
	}
	return row.entity(), nil
}

func (t *table) fetchCompanies(ctx context.Context, db *sqlx.DB, opts fetchOptions) ([]any, error) {
	query := companySelect
	var args []any
	if opts.status != "" {
		query += " WHERE c.status = ?"
		args = append(args, opts.status)
	}
	order, args := opts.orderClause(orderColumns[types.TableCompanies][opts.orderBy], "c.id", args)
	query += order

	var rows []companyRow
	if err := db.SelectContext(ctx, &rows, db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("fetching companies: %w", err)
	}
	out := make([]any, len(rows))
	for i, r := range rows {
		out[i] = r.entity()
	}
	return out, nil
}

func insertCompany(ctx context.Context, db sqlx.ExtContext, data any) (any, error) {
	c, ok := data.(*types.Company)
	if !ok {
		return nil, types.ErrInvalidData
	}
	c.Normalize()
	if err := c.Validate(); err != nil {
		return nil, err
	}

	var id int64
	err := db.QueryRowxContext(ctx, db.Rebind(
		`INSERT INTO companies (name, website, headquarters, status)
VALUES (?, ?, ?, ?) RETURNING id`),
		c.Name, c.Website, c.Headquarters, c.Status,
	).Scan(&id)
	if err != nil {
		return nil, classifyWriteError("inserting company", err)
	}
	return getCompany(ctx, db, id)
}

func updateCompany(ctx context.Context, db sqlx.ExtContext, id int64, data any) (any, error) {
	c, ok := data.(*types.Company)
	if !ok {
		return nil, types.ErrInvalidData
	}
	c.Normalize()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return writeCompany(ctx, db, id, c)
}

func patchCompany(ctx context.Context, db sqlx.ExtContext, id int64, patch any) (any, error) {
	p, ok := patch.(*types.CompanyPatch)
	if !ok || p == nil {
		return nil, types.ErrInvalidData
	}
	if p.IsEmpty() {
		return nil, types.ErrEmptyPatch
	}
	merged, err := getCompany(ctx, db, id)
	if err != nil {
		return nil, err
	}
	if err := merged.Apply(*p); err != nil {
		return nil, err
	}

	var cols []column
	if p.Name != nil {
		cols = append(cols, column{"name", merged.Name})
	}
	if p.Website != nil {
		cols = append(cols, column{"website", merged.Website})
	}
	if p.Headquarters != nil {
		cols = append(cols, column{"headquarters", merged.Headquarters})
	}
	if p.Status != nil {
		cols = append(cols, column{"status", merged.Status})
	}
	if err := updateColumns(ctx, db, types.TableCompanies, id, cols); err != nil {
		return nil, err
	}
	return getCompany(ctx, db, id)
}

func writeCompany(ctx context.Context, db sqlx.ExtContext, id int64, c *types.Company) (any, error) {
	res, err := db.ExecContext(ctx, db.Rebind(
		`UPDATE companies SET name = ?, website = ?, headquarters = ?, status = ? WHERE id = ?`),
		c.Name, c.Website, c.Headquarters, c.Status, id,
	)
	if err != nil {
		return nil, classifyWriteError("updating company", err)
	}
	if err := expectAffected(res); err != nil {
		return nil, err
	}
	return getCompany(ctx, db, id)
}

// deleteCompany removes a company unless people or opportunities still
// reference it. The check and the delete share one transaction.
func deleteCompany(ctx context.Context, db *sqlx.DB, id int64) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var refs int
	err = tx.GetContext(ctx, &refs, tx.Rebind(
		`SELECT (SELECT COUNT(*) FROM people WHERE company_id = ?)
     + (SELECT COUNT(*) FROM opportunities WHERE company_id = ?)`), id, id)
	if err != nil {
		return fmt.Errorf("counting company references: %w", err)
	}
	if refs > 0 {
		return types.ErrCompanyInUse
	}

	res, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM companies WHERE id = ?"), id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return types.ErrCompanyInUse
		}
		return fmt.Errorf("deleting company: %w", err)
	}
	if err := expectAffected(res); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing company deletion: %w", err)
	}
	return nil
}
