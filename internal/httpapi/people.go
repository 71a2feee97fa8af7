package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/mesh-intelligence/rolodex/internal/res"
	"github.com/mesh-intelligence/rolodex/pkg/types"
)

func NewListPeopleHandler(log *slog.Logger, tbl types.Table, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := listFilter(r)
		if err != nil {
			WriteErr(w, log, err)
			return
		}
		fetch(w, r, log, tbl, timeout, filter)
	}
}

func NewCreatePersonHandler(log *slog.Logger, tbl types.Table, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in PersonIn
		if err := decodeJSON(w, r, &in); err != nil {
			WriteErr(w, log, err)
			return
		}
		p := &types.Person{
			Name:      str(in.Name),
			Email:     str(in.Email),
			Phone:     str(in.Phone),
			CompanyID: in.CompanyID,
		}
		p.Normalize()
		if p.Name == "" || p.Email == "" {
			res.Error(w, "Name and email are required", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		created, err := tbl.Insert(ctx, p)
		if err != nil {
			WriteErr(w, log, err)
			return
		}
		res.Json(w, created, http.StatusCreated)
	}
}

// NewUpdatePersonHandler serves PUT /people/{id}. Omitted fields keep
// their stored values; a companyId of 0 detaches the person.
func NewUpdatePersonHandler(log *slog.Logger, tbl types.Table, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(r)
		if !ok {
			invalidID(w, r, "person")
			return
		}
		var in PersonIn
		if err := decodeJSON(w, r, &in); err != nil {
			WriteErr(w, log, err)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		rec, err := tbl.Get(ctx, id)
		if err != nil {
			writeEntityErr(w, log, "person", err)
			return
		}
		p := rec.(*types.Person)
		if in.Name != nil {
			p.Name = *in.Name
		}
		if in.Email != nil {
			p.Email = *in.Email
		}
		if in.Phone != nil {
			p.Phone = *in.Phone
		}
		if in.CompanyID != nil {
			p.CompanyID = in.CompanyID
			p.Company = nil
		}

		updated, err := tbl.Update(ctx, id, p)
		if err != nil {
			writeEntityErr(w, log, "person", err)
			return
		}
		res.Json(w, updated, http.StatusOK)
	}
}
