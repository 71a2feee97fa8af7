package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/mesh-intelligence/rolodex/pkg/types"
)

const opportunitySelect = `SELECT o.id, o.name, o.amount, o.company_id, o.close_date, o.status, o.progress, o.created_at,
    c.name AS company_name, c.website AS company_website,
    c.headquarters AS company_headquarters, c.status AS company_status
FROM opportunities o
LEFT JOIN companies c ON c.id = o.company_id`

type opportunityRow struct {
	ID                  int64           `db:"id"`
	Name                string          `db:"name"`
	Amount              decimal.Decimal `db:"amount"`
	CompanyID           int64           `db:"company_id"`
	CloseDate           types.Date      `db:"close_date"`
	Status              string          `db:"status"`
	Progress            *float64        `db:"progress"`
	CreatedAt           timestamp       `db:"created_at"`
	CompanyName         sql.NullString  `db:"company_name"`
	CompanyWebsite      sql.NullString  `db:"company_website"`
	CompanyHeadquarters sql.NullString  `db:"company_headquarters"`
	CompanyStatus       sql.NullString  `db:"company_status"`
}

func (r opportunityRow) entity() *types.Opportunity {
	o := &types.Opportunity{
		ID:        r.ID,
		Name:      r.Name,
		Amount:    r.Amount,
		CompanyID: r.CompanyID,
		CloseDate: r.CloseDate,
		Status:    types.Status(r.Status),
		Progress:  r.Progress,
		CreatedAt: r.CreatedAt.Time,
	}
	if r.CompanyName.Valid {
		o.Company = &types.CompanyRef{
			ID:           r.CompanyID,
			Name:         r.CompanyName.String,
			Website:      r.CompanyWebsite.String,
			Headquarters: r.CompanyHeadquarters.String,
			Status:       r.CompanyStatus.String,
		}
	}
	return o
}

func getOpportunity(ctx context.Context, db sqlx.ExtContext, id int64) (*types.Opportunity, error) {
	var row opportunityRow
	err := sqlx.GetContext(ctx, db, &row, db.Rebind(opportunitySelect+" WHERE o.id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting opportunity %d: %w", id, err)
	}
	return row.entity(), nil
}

func (t *table) fetchOpportunities(ctx context.Context, db *sqlx.DB, opts fetchOptions) ([]any, error) {
	var (
		where []string
		args  []any
	)
	if opts.companyID != nil {
		where = append(where, "o.company_id = ?")
		args = append(args, *opts.companyID)
	}
	if opts.status != "" {
		where = append(where, "o.status = ?")
		args = append(args, opts.status)
	}

	query := opportunitySelect
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	column := orderColumns[types.TableOpportunities][opts.orderBy]
	if opts.orderBy == types.OrderByAmount {
		column = t.backend.dialect.amountExpr
	}
	order, args := opts.orderClause(column, "o.id", args)
	query += order

	var rows []opportunityRow
	if err := db.SelectContext(ctx, &rows, db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("fetching opportunities: %w", err)
	}
	out := make([]any, len(rows))
	for i, r := range rows {
		out[i] = r.entity()
	}
	return out, nil
}

func prepareOpportunity(ctx context.Context, db sqlx.ExtContext, data any) (*types.Opportunity, error) {
	o, ok := data.(*types.Opportunity)
	if !ok {
		return nil, types.ErrInvalidData
	}
	o.Normalize()
	if err := o.Validate(); err != nil {
		return nil, err
	}
	if err := requireCompany(ctx, db, o.CompanyID); err != nil {
		return nil, err
	}
	return o, nil
}

func insertOpportunity(ctx context.Context, db sqlx.ExtContext, data any) (any, error) {
	o, err := prepareOpportunity(ctx, db, data)
	if err != nil {
		return nil, err
	}

	var id int64
	err = db.QueryRowxContext(ctx, db.Rebind(
		`INSERT INTO opportunities (name, amount, company_id, close_date, status, progress)
VALUES (?, ?, ?, ?, ?, ?) RETURNING id`),
		o.Name, o.Amount, o.CompanyID, o.CloseDate, string(o.Status), o.Progress,
	).Scan(&id)
	if err != nil {
		return nil, classifyWriteError("inserting opportunity", err)
	}
	return getOpportunity(ctx, db, id)
}

func updateOpportunity(ctx context.Context, db sqlx.ExtContext, id int64, data any) (any, error) {
	o, err := prepareOpportunity(ctx, db, data)
	if err != nil {
		return nil, err
	}
	return writeOpportunity(ctx, db, id, o)
}

// patchOpportunity validates the patch against the current record, then
// writes only the patched columns. A status-only patch is the pipeline's
// persist call.
func patchOpportunity(ctx context.Context, db sqlx.ExtContext, id int64, patch any) (any, error) {
	p, ok := patch.(*types.OpportunityPatch)
	if !ok || p == nil {
		return nil, types.ErrInvalidData
	}
	if p.IsEmpty() {
		return nil, types.ErrEmptyPatch
	}
	merged, err := getOpportunity(ctx, db, id)
	if err != nil {
		return nil, err
	}
	if err := merged.Apply(*p); err != nil {
		return nil, err
	}
	if p.CompanyID != nil {
		if err := requireCompany(ctx, db, merged.CompanyID); err != nil {
			return nil, err
		}
	}

	var cols []column
	if p.Name != nil {
		cols = append(cols, column{"name", merged.Name})
	}
	if p.Amount != nil {
		cols = append(cols, column{"amount", merged.Amount})
	}
	if p.CompanyID != nil {
		cols = append(cols, column{"company_id", merged.CompanyID})
	}
	if p.CloseDate != nil {
		cols = append(cols, column{"close_date", merged.CloseDate})
	}
	if p.Status != nil {
		cols = append(cols, column{"status", string(merged.Status)})
	}
	if p.Progress != nil {
		cols = append(cols, column{"progress", merged.Progress})
	}
	if err := updateColumns(ctx, db, types.TableOpportunities, id, cols); err != nil {
		return nil, err
	}
	return getOpportunity(ctx, db, id)
}

func writeOpportunity(ctx context.Context, db sqlx.ExtContext, id int64, o *types.Opportunity) (any, error) {
	res, err := db.ExecContext(ctx, db.Rebind(
		`UPDATE opportunities
SET name = ?, amount = ?, company_id = ?, close_date = ?, status = ?, progress = ?
WHERE id = ?`),
		o.Name, o.Amount, o.CompanyID, o.CloseDate, string(o.Status), o.Progress, id,
	)
	if err != nil {
		return nil, classifyWriteError("updating opportunity", err)
	}
	if err := expectAffected(res); err != nil {
		return nil, err
	}
	return getOpportunity(ctx, db, id)
}
