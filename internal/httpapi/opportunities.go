package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/mesh-intelligence/rolodex/internal/res"
	"github.com/mesh-intelligence/rolodex/pkg/types"
)

const opportunity = "opportunity"

// NewListOpportunitiesHandler serves GET /opportunities, name ascending
// unless orderBy says otherwise. Accepts status and companyId filters.
func NewListOpportunitiesHandler(log *slog.Logger, tbl types.Table, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := listFilter(r)
		if err != nil {
			WriteErr(w, log, err)
			return
		}
		if v := r.URL.Query().Get("status"); v != "" {
			s, err := types.ParseStatus(v)
			if err != nil {
				WriteErr(w, log, err)
				return
			}
			filter[types.FilterStatus] = s
		}
		fetch(w, r, log, tbl, timeout, filter)
	}
}

func NewCreateOpportunityHandler(log *slog.Logger, tbl types.Table, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in OpportunityIn
		if err := decodeJSON(w, r, &in); err != nil {
			WriteErr(w, log, err)
			return
		}
		if in.Name == nil || trimmed(*in.Name) == "" {
			res.Error(w, "Opportunity name is required", http.StatusBadRequest)
			return
		}
		if in.CompanyID == nil || *in.CompanyID <= 0 {
			res.Error(w, "Company ID is required", http.StatusBadRequest)
			return
		}
		p, err := in.patch()
		if err != nil {
			WriteErr(w, log, err)
			return
		}
		o := &types.Opportunity{}
		applyOpportunity(o, p)

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		created, err := tbl.Insert(ctx, o)
		if err != nil {
			WriteErr(w, log, err)
			return
		}
		res.Json(w, created, http.StatusCreated)
	}
}

// NewUpdateOpportunityHandler serves PUT /opportunities/{id}. Name is
// required and a missing status resets the record to Qualified; the other
// fields keep their stored values when omitted.
func NewUpdateOpportunityHandler(log *slog.Logger, tbl types.Table, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(r)
		if !ok {
			invalidID(w, r, opportunity)
			return
		}
		var in OpportunityIn
		if err := decodeJSON(w, r, &in); err != nil {
			WriteErr(w, log, err)
			return
		}
		if in.Name == nil || trimmed(*in.Name) == "" {
			res.Error(w, "Opportunity name is required", http.StatusBadRequest)
			return
		}
		p, err := in.patch()
		if err != nil {
			WriteErr(w, log, err)
			return
		}
		if p.Status == nil {
			s := types.StatusQualified
			p.Status = &s
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		rec, err := tbl.Get(ctx, id)
		if err != nil {
			writeEntityErr(w, log, opportunity, err)
			return
		}
		o := rec.(*types.Opportunity)
		applyOpportunity(o, p)

		updated, err := tbl.Update(ctx, id, o)
		if err != nil {
			writeEntityErr(w, log, opportunity, err)
			return
		}
		res.Json(w, updated, http.StatusOK)
	}
}

// NewPatchOpportunityHandler serves PATCH /opportunities/{id}. Only the
// fields present in the body change. This is the pipeline's persist call.
func NewPatchOpportunityHandler(log *slog.Logger, tbl types.Table, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(r)
		if !ok {
			invalidID(w, r, opportunity)
			return
		}
		var in OpportunityIn
		if err := decodeJSON(w, r, &in); err != nil {
			WriteErr(w, log, err)
			return
		}
		p, err := in.patch()
		if err != nil {
			WriteErr(w, log, err)
			return
		}
		if p.IsEmpty() {
			res.Error(w, "No fields provided for update", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		updated, err := tbl.Patch(ctx, id, &p)
		if err != nil {
			writeEntityErr(w, log, opportunity, err)
			return
		}
		res.Json(w, updated, http.StatusOK)
	}
}

// NewDeleteOpportunityHandler serves DELETE /opportunities/{id}. Deleting
// a record that does not exist still succeeds.
func NewDeleteOpportunityHandler(log *slog.Logger, tbl types.Table, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := parseID(r)
		if !ok {
			invalidID(w, r, opportunity)
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		if err := tbl.Delete(ctx, id); err != nil && !errors.Is(err, types.ErrNotFound) {
			WriteErr(w, log, err)
			return
		}
		res.Message(w, "Opportunity deleted successfully", http.StatusOK)
	}
}

// applyOpportunity overlays the set fields of p without validating; the
// store validates on write.
func applyOpportunity(o *types.Opportunity, p types.OpportunityPatch) {
	if p.Name != nil {
		o.Name = *p.Name
	}
	if p.Amount != nil {
		o.Amount = *p.Amount
	}
	if p.CompanyID != nil && *p.CompanyID != o.CompanyID {
		o.CompanyID = *p.CompanyID
		o.Company = nil
	}
	if p.CloseDate != nil {
		o.CloseDate = *p.CloseDate
	}
	if p.Status != nil {
		o.Status = *p.Status
	}
	if p.Progress != nil {
		o.Progress = p.Progress
	}
}
