package httpapi_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/rolodex/internal/httpapi"
	"github.com/mesh-intelligence/rolodex/internal/res"
	"github.com/mesh-intelligence/rolodex/pkg/store"
	"github.com/mesh-intelligence/rolodex/pkg/types"
)

type testServer struct {
	*httptest.Server
	store store.Backend
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	s, err := store.Open(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { s.Detach() })

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	h, err := httpapi.NewHandler(log, s, 5*time.Second)
	require.NoError(t, err)

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, store: s}
}

// do sends body (marshaled unless it is already a string) and returns the
// status code and raw response body.
func (s *testServer) do(t *testing.T, method, path string, body any) (int, []byte) {
	t.Helper()
	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, s.URL+path, rd)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	out, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, out
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(data, &v), string(data))
	return v
}

func (s *testServer) createCompany(t *testing.T, name string) types.Company {
	t.Helper()
	code, body := s.do(t, http.MethodPost, "/companies", map[string]any{"name": name})
	require.Equal(t, http.StatusCreated, code, string(body))
	return decode[types.Company](t, body)
}

func (s *testServer) createOpportunity(t *testing.T, payload map[string]any) types.Opportunity {
	t.Helper()
	code, body := s.do(t, http.MethodPost, "/opportunities", payload)
	require.Equal(t, http.StatusCreated, code, string(body))
	return decode[types.Opportunity](t, body)
}

func TestPing(t *testing.T) {
	s := newTestServer(t)

	code, body := s.do(t, http.MethodGet, "/ping", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, map[string]string{"store": "ok"}, decode[map[string]string](t, body))

	require.NoError(t, s.store.Detach())
	code, _ = s.do(t, http.MethodGet, "/ping", nil)
	assert.Equal(t, http.StatusServiceUnavailable, code)
}

func TestRequestID(t *testing.T) {
	s := newTestServer(t)

	resp, err := s.Client().Get(s.URL + "/ping")
	require.NoError(t, err)
	resp.Body.Close()
	assert.NotEmpty(t, resp.Header.Get(httpapi.RequestIDHeader))

	req, err := http.NewRequest(http.MethodGet, s.URL+"/ping", nil)
	require.NoError(t, err)
	req.Header.Set(httpapi.RequestIDHeader, "abc-123")
	resp, err = s.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "abc-123", resp.Header.Get(httpapi.RequestIDHeader))
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, s.URL+"/opportunities/1", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
	resp, err := s.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), http.MethodPatch)
}

func TestErrorBodyShape(t *testing.T) {
	s := newTestServer(t)

	code, body := s.do(t, http.MethodGet, "/opportunities/999", nil)
	assert.Equal(t, http.StatusNotFound, code)
	e := decode[res.ErrorBody](t, body)
	assert.Equal(t, "Opportunity not found", e.Error)
	assert.NotEmpty(t, e.Details)

	code, body = s.do(t, http.MethodGet, "/opportunities/abc", nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Invalid opportunity ID", decode[res.ErrorBody](t, body).Error)
}
