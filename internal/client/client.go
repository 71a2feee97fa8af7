// Package client talks to the rolodex REST surface. It is the gateway the
// board session uses to load and persist opportunities.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mesh-intelligence/rolodex/internal/res"
	"github.com/mesh-intelligence/rolodex/pkg/types"
)

// DefaultTimeout bounds every request unless New is given another value.
const DefaultTimeout = 30 * time.Second

// Doer sends HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// StatusError is a non-2xx response.
type StatusError struct {
	Code    int
	Message string
	Details string
}

func (e *StatusError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Code)
	}
	if e.Details != "" && e.Details != msg {
		return fmt.Sprintf("%d %s: %s", e.Code, msg, e.Details)
	}
	return fmt.Sprintf("%d %s", e.Code, msg)
}

// Unwrap maps the status code back to the store sentinels so callers can
// use errors.Is across the wire. A 404 without an error body came from
// routing, not from the store, and maps to nothing.
func (e *StatusError) Unwrap() error {
	switch e.Code {
	case http.StatusNotFound:
		if e.Message == "" {
			return nil
		}
		if strings.EqualFold(e.Message, types.ErrCompanyNotFound.Error()) {
			return types.ErrCompanyNotFound
		}
		return types.ErrNotFound
	case http.StatusBadRequest:
		return types.ErrInvalidData
	default:
		return nil
	}
}

type Client struct {
	base *url.URL
	http Doer
}

// Option configures a Client.
type Option func(*Client)

// WithDoer replaces the underlying HTTP client.
func WithDoer(d Doer) Option {
	return func(c *Client) { c.http = d }
}

// New returns a client for the server at baseURL.
func New(baseURL string, timeout time.Duration, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("server url %q: scheme must be http or https", baseURL)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Client{base: u, http: &http.Client{Timeout: timeout}}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Ping checks that the server and its store are up.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/ping", nil, nil, nil)
}

// ListOpportunities returns opportunities in server order, name ascending.
func (c *Client) ListOpportunities(ctx context.Context) ([]types.Opportunity, error) {
	var out []types.Opportunity
	if err := c.do(ctx, http.MethodGet, "/opportunities", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListOpportunitiesByStatus returns the opportunities in one stage.
func (c *Client) ListOpportunitiesByStatus(ctx context.Context, s types.Status) ([]types.Opportunity, error) {
	var out []types.Opportunity
	q := url.Values{"status": {string(s)}}
	if err := c.do(ctx, http.MethodGet, "/opportunities", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetOpportunity(ctx context.Context, id int64) (*types.Opportunity, error) {
	var out types.Opportunity
	if err := c.do(ctx, http.MethodGet, opportunityPath(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// PatchOpportunity sends a partial update. A missing record yields an
// error wrapping types.ErrNotFound.
func (c *Client) PatchOpportunity(ctx context.Context, id int64, patch types.OpportunityPatch) (*types.Opportunity, error) {
	var out types.Opportunity
	if err := c.do(ctx, http.MethodPatch, opportunityPath(id), nil, patch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteOpportunity(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, opportunityPath(id), nil, nil, nil)
}

func opportunityPath(id int64) string {
	return "/opportunities/" + strconv.FormatInt(id, 10)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	u := *c.base
	u.Path = c.base.Path + path
	u.RawQuery = query.Encode()

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s %s: read response: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		se := &StatusError{Code: resp.StatusCode}
		var eb res.ErrorBody
		if json.Unmarshal(data, &eb) == nil {
			se.Message, se.Details = eb.Error, eb.Details
		}
		return fmt.Errorf("%s %s: %w", method, path, se)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	return nil
}

// IsStatus reports whether err carries an HTTP response with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}
