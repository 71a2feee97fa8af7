package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode"

	"github.com/mesh-intelligence/rolodex/internal/res"
	"github.com/mesh-intelligence/rolodex/pkg/types"
)

func title(entity string) string {
	if entity == "" {
		return entity
	}
	r := []rune(entity)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// writeEntityErr names the entity in not-found responses and defers
// everything else to WriteErr.
func writeEntityErr(w http.ResponseWriter, log *slog.Logger, entity string, err error) {
	if errors.Is(err, types.ErrNotFound) {
		res.ErrorDetails(w, title(entity)+" not found", err.Error(), http.StatusNotFound)
		return
	}
	WriteErr(w, log, err)
}

func invalidID(w http.ResponseWriter, r *http.Request, entity string) {
	res.ErrorDetails(w, "Invalid "+entity+" ID",
		"path id "+strings.TrimSpace(r.PathValue("id"))+" is not a positive integer",
		http.StatusBadRequest)
}

// NewGetHandler serves GET /<table>/{id}.
func NewGetHandler(log *slog.Logger, tbl types.Table, timeout time.Duration, entity string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(r)
		if !ok {
			invalidID(w, r, entity)
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		rec, err := tbl.Get(ctx, id)
		if err != nil {
			writeEntityErr(w, log, entity, err)
			return
		}
		res.Json(w, rec, http.StatusOK)
	}
}

// NewDeleteHandler serves DELETE /<table>/{id}. Missing records are 404.
func NewDeleteHandler(log *slog.Logger, tbl types.Table, timeout time.Duration, entity string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(r)
		if !ok {
			invalidID(w, r, entity)
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		if err := tbl.Delete(ctx, id); err != nil {
			writeEntityErr(w, log, entity, err)
			return
		}
		res.Message(w, title(entity)+" deleted successfully", http.StatusOK)
	}
}

func fetch(w http.ResponseWriter, r *http.Request, log *slog.Logger, tbl types.Table, timeout time.Duration, filter types.Filter) {
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()

	recs, err := tbl.Fetch(ctx, filter)
	if err != nil {
		WriteErr(w, log, err)
		return
	}
	res.Json(w, recs, http.StatusOK)
}

// listFilter reads the paging and ordering query parameters shared by
// every list route.
func listFilter(r *http.Request) (types.Filter, error) {
	q := r.URL.Query()
	filter := types.Filter{}
	if v := q.Get("orderBy"); v != "" {
		filter[types.FilterOrderBy] = v
	}
	if v := q.Get("desc"); v != "" {
		filter[types.FilterDescending] = v == "true" || v == "1"
	}
	for param, key := range map[string]string{"limit": types.FilterLimit, "offset": types.FilterOffset} {
		if v := q.Get(param); v != "" {
			n, err := parsePositive(v, true)
			if err != nil {
				return nil, err
			}
			filter[key] = int(n)
		}
	}
	if v := q.Get("companyId"); v != "" {
		id, err := parsePositive(v, false)
		if err != nil {
			return nil, err
		}
		filter[types.FilterCompanyID] = id
	}
	return filter, nil
}
