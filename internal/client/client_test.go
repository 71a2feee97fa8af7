package client_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/rolodex/internal/client"
	"github.com/mesh-intelligence/rolodex/internal/httpapi"
	"github.com/mesh-intelligence/rolodex/internal/pipeline"
	"github.com/mesh-intelligence/rolodex/pkg/store"
	"github.com/mesh-intelligence/rolodex/pkg/types"
)

func discard() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

// serve starts the REST surface over a seeded sqlite store.
func serve(t *testing.T) (*client.Client, store.Backend) {
	t.Helper()
	s, err := store.Open(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { s.Detach() })
	_, err = store.Seed(context.Background(), s)
	require.NoError(t, err)

	h, err := httpapi.NewHandler(discard(), s, 5*time.Second)
	require.NoError(t, err)
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := client.New(srv.URL+"/", time.Second, client.WithDoer(srv.Client()))
	require.NoError(t, err)
	return c, s
}

func TestNewRejectsBadURL(t *testing.T) {
	for _, u := range []string{"localhost:8080", "ftp://example.com", "://"} {
		_, err := client.New(u, 0)
		assert.Error(t, err, u)
	}
}

func TestClientRoundTrip(t *testing.T) {
	ctx := context.Background()
	c, _ := serve(t)

	require.NoError(t, c.Ping(ctx))

	all, err := c.ListOpportunities(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, all)
	for i := 1; i < len(all); i++ {
		assert.LessOrEqual(t, all[i-1].Name, all[i].Name, "server order is name ascending")
	}

	o := all[0]
	status := types.StatusNegotiation
	amount := decimal.RequireFromString("1234.50")
	patched, err := c.PatchOpportunity(ctx, o.ID, types.OpportunityPatch{Status: &status, Amount: &amount})
	require.NoError(t, err)
	assert.Equal(t, status, patched.Status)
	assert.True(t, amount.Equal(patched.Amount))

	got, err := c.GetOpportunity(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, patched.Status, got.Status)
	assert.Equal(t, o.Name, got.Name)

	neg, err := c.ListOpportunitiesByStatus(ctx, types.StatusNegotiation)
	require.NoError(t, err)
	for _, n := range neg {
		assert.Equal(t, types.StatusNegotiation, n.Status)
	}

	require.NoError(t, c.DeleteOpportunity(ctx, o.ID))
	_, err = c.GetOpportunity(ctx, o.ID)
	assert.ErrorIs(t, err, types.ErrNotFound)
	assert.True(t, client.IsStatus(err, http.StatusNotFound))
}

func TestClientErrors(t *testing.T) {
	ctx := context.Background()
	c, _ := serve(t)
	all, err := c.ListOpportunities(ctx)
	require.NoError(t, err)
	id := all[0].ID

	tests := []struct {
		name    string
		patch   types.OpportunityPatch
		id      int64
		wantErr error
		code    int
	}{
		{name: "empty patch", id: id, wantErr: types.ErrInvalidData, code: http.StatusBadRequest},
		{name: "missing record", id: 99999, patch: types.OpportunityPatch{Name: ptr("x")}, wantErr: types.ErrNotFound, code: http.StatusNotFound},
		{name: "missing company", id: id, patch: types.OpportunityPatch{CompanyID: ptr(int64(99999))}, wantErr: types.ErrCompanyNotFound, code: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.PatchOpportunity(ctx, tt.id, tt.patch)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.True(t, client.IsStatus(err, tt.code))
		})
	}
}

// A server that does not route /opportunities/{id} answers with the mux's
// plain-text 404. That is a bad server_url, not a deleted record.
func TestRoutingNotFoundIsNotRecordNotFound(t *testing.T) {
	ctx := context.Background()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /opportunities", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":1,"name":"Deal","companyId":1,"status":"Qualified","amount":0}]`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c, err := client.New(srv.URL, time.Second, client.WithDoer(srv.Client()))
	require.NoError(t, err)

	status := types.StatusProposal
	_, err = c.PatchOpportunity(ctx, 1, types.OpportunityPatch{Status: &status})
	require.Error(t, err)
	assert.True(t, client.IsStatus(err, http.StatusNotFound))
	assert.NotErrorIs(t, err, types.ErrNotFound)

	ctl := pipeline.NewController(discard(), c, pipeline.NewCollection(nil))
	require.NoError(t, ctl.Refresh(ctx))
	_, err = ctl.Move(ctx, pipeline.Move{ID: 1, Status: types.StatusProposal})
	assert.ErrorIs(t, err, pipeline.ErrSyncFailed)
	assert.NotErrorIs(t, err, pipeline.ErrRecordDeleted)
	assert.Equal(t, types.StatusQualified, ctl.Collection().Items()[0].Status)
}

func TestStatusErrorMessage(t *testing.T) {
	tests := []struct {
		err  client.StatusError
		want string
	}{
		{err: client.StatusError{Code: 500}, want: "500 Internal Server Error"},
		{err: client.StatusError{Code: 404, Message: "Opportunity not found", Details: "record not found"}, want: "404 Opportunity not found: record not found"},
		{err: client.StatusError{Code: 400, Message: "bad", Details: "bad"}, want: "400 bad"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.err.Error())
	}

	assert.NoError(t, (&client.StatusError{Code: 404}).Unwrap())
	assert.ErrorIs(t, &client.StatusError{Code: 404, Message: "Opportunity not found"}, types.ErrNotFound)
}

// The board session runs against the server exactly as it does against a
// local table: moves persist, and a move of a deleted card rolls back.
func TestControllerOverHTTP(t *testing.T) {
	if testing.Short() {
		t.Skip("end-to-end server session")
	}
	ctx := context.Background()
	c, s := serve(t)

	var alerts []error
	ctl := pipeline.NewController(discard(), c, pipeline.NewCollection(nil),
		pipeline.WithErrorHandler(func(err error) { alerts = append(alerts, err) }))
	require.NoError(t, ctl.Refresh(ctx))

	items := ctl.Collection().Items()
	var src types.Opportunity
	for _, o := range items {
		if o.Status == types.StatusQualified {
			src = o
			break
		}
	}
	require.NotZero(t, src.ID, "seed data has a Qualified deal")

	changed, err := ctl.Move(ctx, pipeline.Move{ID: src.ID, Status: types.StatusProposal})
	require.NoError(t, err)
	assert.True(t, changed)
	remote, err := c.GetOpportunity(ctx, src.ID)
	require.NoError(t, err)
	assert.Equal(t, types.StatusProposal, remote.Status)

	tbl, err := s.GetTable(types.TableOpportunities)
	require.NoError(t, err)
	require.NoError(t, tbl.Delete(ctx, src.ID))

	before := ctl.Collection().Items()
	_, err = ctl.Move(ctx, pipeline.Move{ID: src.ID, Status: types.StatusClosedWon})
	assert.ErrorIs(t, err, pipeline.ErrRecordDeleted)
	assert.Equal(t, before, ctl.Collection().Items())
	assert.Len(t, alerts, 1)
}

func ptr[T any](v T) *T { return &v }
