package sqlstore

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/rolodex/pkg/types"
)

var opportunityColumns = []string{
	"id", "name", "amount", "company_id", "close_date", "status", "progress", "created_at",
	"company_name", "company_website", "company_headquarters", "company_status",
}

// newMockBackend attaches a postgres-dialect backend to a sqlmock database.
func newMockBackend(t *testing.T) (*Backend, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	b := NewBackend()
	b.attachLocked(sqlx.NewDb(db, "pgx"), postgresDialect,
		types.Config{Backend: types.BackendPostgres, DSN: "postgres://mock/rolodex"})
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
	})
	return b, mock
}

func TestPostgresGetOpportunity(t *testing.T) {
	b, mock := newMockBackend(t)
	created := time.Date(2026, 2, 1, 9, 30, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("LEFT JOIN companies c ON c.id = o.company_id WHERE o.id = $1")).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows(opportunityColumns).AddRow(
			int64(5), "Renewal", "1200.00", int64(3), time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC),
			"Proposal", 60.0, created, "Acme", "acme.test", "Austin", "Customer",
		))

	got, err := mustTable(t, b, types.TableOpportunities).Get(context.Background(), 5)
	require.NoError(t, err)
	o := got.(*types.Opportunity)
	assert.Equal(t, "Renewal", o.Name)
	assert.Equal(t, "1200", o.Amount.String())
	assert.Equal(t, types.StatusProposal, o.Status)
	assert.Equal(t, types.NewDate(2026, time.June, 30), o.CloseDate)
	assert.Equal(t, created, o.CreatedAt)
	require.NotNil(t, o.Progress)
	assert.Equal(t, 60.0, *o.Progress)
	assert.Equal(t, &types.CompanyRef{ID: 3, Name: "Acme", Website: "acme.test", Headquarters: "Austin", Status: "Customer"}, o.Company)
}

func TestPostgresPatchMissingOpportunity(t *testing.T) {
	b, mock := newMockBackend(t)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE o.id = $1")).
		WithArgs(int64(8)).
		WillReturnRows(sqlmock.NewRows(opportunityColumns))

	status := types.StatusClosedWon
	_, err := mustTable(t, b, types.TableOpportunities).
		Patch(context.Background(), 8, &types.OpportunityPatch{Status: &status})
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestPostgresPatchStatusWritesOnlyStatus(t *testing.T) {
	b, mock := newMockBackend(t)
	created := time.Date(2026, 2, 1, 9, 30, 0, 0, time.UTC)
	row := func(status string) *sqlmock.Rows {
		return sqlmock.NewRows(opportunityColumns).AddRow(
			int64(5), "Renewal", "1200.00", int64(3), nil,
			status, nil, created, "Acme", "", "", "",
		)
	}

	mock.ExpectQuery(regexp.QuoteMeta("WHERE o.id = $1")).WithArgs(int64(5)).WillReturnRows(row("Proposal"))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE opportunities SET status = $1 WHERE id = $2")).
		WithArgs("Closed Won", int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE o.id = $1")).WithArgs(int64(5)).WillReturnRows(row("Closed Won"))

	status := types.StatusClosedWon
	got, err := mustTable(t, b, types.TableOpportunities).
		Patch(context.Background(), 5, &types.OpportunityPatch{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, types.StatusClosedWon, got.(*types.Opportunity).Status)
}

func TestPostgresInsertOpportunityConstraintErrors(t *testing.T) {
	tests := []struct {
		name    string
		code    string
		wantErr error
	}{
		{name: "company removed concurrently", code: "23503", wantErr: types.ErrCompanyNotFound},
		{name: "check constraint", code: "23514", wantErr: types.ErrInvalidData},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, mock := newMockBackend(t)
			mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM companies WHERE id = $1")).
				WithArgs(int64(3)).
				WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))
			mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO opportunities")).
				WithArgs("Deal", "0", int64(3), nil, "Qualified", nil).
				WillReturnError(&pgconn.PgError{Code: tt.code, Message: "constraint violated"})

			_, err := mustTable(t, b, types.TableOpportunities).
				Insert(context.Background(), &types.Opportunity{Name: "Deal", CompanyID: 3})
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestPostgresDeleteCompanyInUse(t *testing.T) {
	t.Run("references counted", func(t *testing.T) {
		b, mock := newMockBackend(t)
		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta("SELECT (SELECT COUNT(*) FROM people WHERE company_id = $1)")).
			WithArgs(int64(7), int64(7)).
			WillReturnRows(sqlmock.NewRows([]string{"refs"}).AddRow(2))
		mock.ExpectRollback()

		err := mustTable(t, b, types.TableCompanies).Delete(context.Background(), 7)
		assert.ErrorIs(t, err, types.ErrCompanyInUse)
	})

	t.Run("foreign key raised by delete", func(t *testing.T) {
		b, mock := newMockBackend(t)
		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta("SELECT (SELECT COUNT(*)")).
			WithArgs(int64(7), int64(7)).
			WillReturnRows(sqlmock.NewRows([]string{"refs"}).AddRow(0))
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM companies WHERE id = $1")).
			WithArgs(int64(7)).
			WillReturnError(&pgconn.PgError{Code: "23503"})
		mock.ExpectRollback()

		err := mustTable(t, b, types.TableCompanies).Delete(context.Background(), 7)
		assert.ErrorIs(t, err, types.ErrCompanyInUse)
	})

	t.Run("deleted", func(t *testing.T) {
		b, mock := newMockBackend(t)
		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta("SELECT (SELECT COUNT(*)")).
			WithArgs(int64(7), int64(7)).
			WillReturnRows(sqlmock.NewRows([]string{"refs"}).AddRow(0))
		mock.ExpectExec(regexp.QuoteMeta("DELETE FROM companies WHERE id = $1")).
			WithArgs(int64(7)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		assert.NoError(t, mustTable(t, b, types.TableCompanies).Delete(context.Background(), 7))
	})
}

func TestPostgresFetchOrderByAmount(t *testing.T) {
	b, mock := newMockBackend(t)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE o.status = $1 ORDER BY o.amount DESC, o.id DESC LIMIT $2 OFFSET $3")).
		WithArgs("Negotiation", int64(5), 0).
		WillReturnRows(sqlmock.NewRows(opportunityColumns))

	got, err := mustTable(t, b, types.TableOpportunities).Fetch(context.Background(), types.Filter{
		types.FilterStatus:     "Negotiation",
		types.FilterOrderBy:    types.OrderByAmount,
		types.FilterDescending: true,
		types.FilterLimit:      5,
	})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestPostgresResetSequence(t *testing.T) {
	assert.Equal(t,
		"SELECT setval(pg_get_serial_sequence('companies', 'id'), COALESCE((SELECT MAX(id) FROM companies), 1))",
		postgresDialect.resetSequence("companies"))
	assert.Empty(t, sqliteDialect.resetSequence("companies"))
}
