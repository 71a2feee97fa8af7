package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/mesh-intelligence/rolodex/internal/res"
	"github.com/mesh-intelligence/rolodex/pkg/types"
)

func NewListCompaniesHandler(log *slog.Logger, tbl types.Table, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := listFilter(r)
		if err != nil {
			WriteErr(w, log, err)
			return
		}
		if v := r.URL.Query().Get("status"); v != "" {
			filter[types.FilterStatus] = v
		}
		fetch(w, r, log, tbl, timeout, filter)
	}
}

func NewCreateCompanyHandler(log *slog.Logger, tbl types.Table, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in CompanyIn
		if err := decodeJSON(w, r, &in); err != nil {
			WriteErr(w, log, err)
			return
		}
		c := &types.Company{
			Name:         str(in.Name),
			Website:      str(in.Website),
			Headquarters: str(in.Headquarters),
			Status:       str(in.Status),
		}
		c.Normalize()
		if c.Name == "" {
			res.Error(w, "Company name is required", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		created, err := tbl.Insert(ctx, c)
		if err != nil {
			WriteErr(w, log, err)
			return
		}
		res.Json(w, created, http.StatusCreated)
	}
}

// NewUpdateCompanyHandler serves PUT /companies/{id}. Name is required;
// omitted optional fields keep their stored values.
func NewUpdateCompanyHandler(log *slog.Logger, tbl types.Table, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(r)
		if !ok {
			invalidID(w, r, "company")
			return
		}
		var in CompanyIn
		if err := decodeJSON(w, r, &in); err != nil {
			WriteErr(w, log, err)
			return
		}
		if in.Name == nil || trimmed(*in.Name) == "" {
			res.Error(w, "Company name is required", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		rec, err := tbl.Get(ctx, id)
		if err != nil {
			writeEntityErr(w, log, "company", err)
			return
		}
		c := rec.(*types.Company)
		c.Name = *in.Name
		if in.Website != nil {
			c.Website = *in.Website
		}
		if in.Headquarters != nil {
			c.Headquarters = *in.Headquarters
		}
		if in.Status != nil {
			c.Status = *in.Status
		}

		updated, err := tbl.Update(ctx, id, c)
		if err != nil {
			writeEntityErr(w, log, "company", err)
			return
		}
		res.Json(w, updated, http.StatusOK)
	}
}

// NewCompanyPeopleHandler serves GET /companies/{id}/people.
func NewCompanyPeopleHandler(log *slog.Logger, companies, people types.Table, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(r)
		if !ok {
			invalidID(w, r, "company")
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		if _, err := companies.Get(ctx, id); err != nil {
			writeEntityErr(w, log, "company", err)
			return
		}
		recs, err := people.Fetch(ctx, types.Filter{types.FilterCompanyID: id})
		if err != nil {
			WriteErr(w, log, err)
			return
		}
		res.Json(w, recs, http.StatusOK)
	}
}
