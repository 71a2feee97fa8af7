package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/mesh-intelligence/rolodex/pkg/types"
)

const personSelect = `SELECT p.id, p.name, p.email, p.phone, p.company_id, p.created_at,
    c.name AS company_name
FROM people p
LEFT JOIN companies c ON c.id = p.company_id`

type personRow struct {
	ID          int64          `db:"id"`
	Name        string         `db:"name"`
	Email       string         `db:"email"`
	Phone       string         `db:"phone"`
	CompanyID   *int64         `db:"company_id"`
	CreatedAt   timestamp      `db:"created_at"`
	CompanyName sql.NullString `db:"company_name"`
}

func (r personRow) entity() *types.Person {
	p := &types.Person{
		ID:        r.ID,
		Name:      r.Name,
		Email:     r.Email,
		Phone:     r.Phone,
		CompanyID: r.CompanyID,
		CreatedAt: r.CreatedAt.Time,
	}
	if r.CompanyID != nil && r.CompanyName.Valid {
		p.Company = &types.CompanyRef{ID: *r.CompanyID, Name: r.CompanyName.String}
	}
	return p
}

func getPerson(ctx context.Context, db sqlx.ExtContext, id int64) (*types.Person, error) {
	var row personRow
	err := sqlx.GetContext(ctx, db, &row, db.Rebind(personSelect+" WHERE p.id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting person %d: %w", id, err)
	}
	return row.entity(), nil
}

func (t *table) fetchPeople(ctx context.Context, db *sqlx.DB, opts fetchOptions) ([]any, error) {
	query := personSelect
	var args []any
	if opts.companyID != nil {
		query += " WHERE p.company_id = ?"
		args = append(args, *opts.companyID)
	}
	order, args := opts.orderClause(orderColumns[types.TablePeople][opts.orderBy], "p.id", args)
	query += order

	var rows []personRow
	if err := db.SelectContext(ctx, &rows, db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("fetching people: %w", err)
	}
	out := make([]any, len(rows))
	for i, r := range rows {
		out[i] = r.entity()
	}
	return out, nil
}

func preparePerson(ctx context.Context, db sqlx.ExtContext, data any) (*types.Person, error) {
	p, ok := data.(*types.Person)
	if !ok {
		return nil, types.ErrInvalidData
	}
	p.Normalize()
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.CompanyID != nil {
		if err := requireCompany(ctx, db, *p.CompanyID); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func insertPerson(ctx context.Context, db sqlx.ExtContext, data any) (any, error) {
	p, err := preparePerson(ctx, db, data)
	if err != nil {
		return nil, err
	}

	var id int64
	err = db.QueryRowxContext(ctx, db.Rebind(
		`INSERT INTO people (name, email, phone, company_id)
VALUES (?, ?, ?, ?) RETURNING id`),
		p.Name, p.Email, p.Phone, p.CompanyID,
	).Scan(&id)
	if err != nil {
		return nil, classifyWriteError("inserting person", err)
	}
	return getPerson(ctx, db, id)
}

func updatePerson(ctx context.Context, db sqlx.ExtContext, id int64, data any) (any, error) {
	p, err := preparePerson(ctx, db, data)
	if err != nil {
		return nil, err
	}
	return writePerson(ctx, db, id, p)
}

func patchPerson(ctx context.Context, db sqlx.ExtContext, id int64, patch any) (any, error) {
	pp, ok := patch.(*types.PersonPatch)
	if !ok || pp == nil {
		return nil, types.ErrInvalidData
	}
	if pp.IsEmpty() {
		return nil, types.ErrEmptyPatch
	}
	merged, err := getPerson(ctx, db, id)
	if err != nil {
		return nil, err
	}
	if err := merged.Apply(*pp); err != nil {
		return nil, err
	}
	if pp.CompanyID != nil && merged.CompanyID != nil {
		if err := requireCompany(ctx, db, *merged.CompanyID); err != nil {
			return nil, err
		}
	}

	var cols []column
	if pp.Name != nil {
		cols = append(cols, column{"name", merged.Name})
	}
	if pp.Email != nil {
		cols = append(cols, column{"email", merged.Email})
	}
	if pp.Phone != nil {
		cols = append(cols, column{"phone", merged.Phone})
	}
	if pp.CompanyID != nil {
		cols = append(cols, column{"company_id", merged.CompanyID})
	}
	if err := updateColumns(ctx, db, types.TablePeople, id, cols); err != nil {
		return nil, err
	}
	return getPerson(ctx, db, id)
}

func writePerson(ctx context.Context, db sqlx.ExtContext, id int64, p *types.Person) (any, error) {
	res, err := db.ExecContext(ctx, db.Rebind(
		`UPDATE people SET name = ?, email = ?, phone = ?, company_id = ? WHERE id = ?`),
		p.Name, p.Email, p.Phone, p.CompanyID, id,
	)
	if err != nil {
		return nil, classifyWriteError("updating person", err)
	}
	if err := expectAffected(res); err != nil {
		return nil, err
	}
	return getPerson(ctx, db, id)
}
