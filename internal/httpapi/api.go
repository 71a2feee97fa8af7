// Package httpapi exposes the record store over JSON REST.
package httpapi

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mesh-intelligence/rolodex/pkg/types"
)

// Register mounts every route on mux. The store must be attached.
func Register(mux *http.ServeMux, log *slog.Logger, store types.Store, timeout time.Duration) error {
	companies, err := store.GetTable(types.TableCompanies)
	if err != nil {
		return fmt.Errorf("companies table: %w", err)
	}
	people, err := store.GetTable(types.TablePeople)
	if err != nil {
		return fmt.Errorf("people table: %w", err)
	}
	opportunities, err := store.GetTable(types.TableOpportunities)
	if err != nil {
		return fmt.Errorf("opportunities table: %w", err)
	}

	mux.HandleFunc("GET /ping", NewPingHandler(log, store, timeout))

	mux.HandleFunc("GET /companies", NewListCompaniesHandler(log, companies, timeout))
	mux.HandleFunc("POST /companies", NewCreateCompanyHandler(log, companies, timeout))
	mux.HandleFunc("GET /companies/{id}", NewGetHandler(log, companies, timeout, "company"))
	mux.HandleFunc("PUT /companies/{id}", NewUpdateCompanyHandler(log, companies, timeout))
	mux.HandleFunc("DELETE /companies/{id}", NewDeleteHandler(log, companies, timeout, "company"))
	mux.HandleFunc("GET /companies/{id}/people", NewCompanyPeopleHandler(log, companies, people, timeout))

	mux.HandleFunc("GET /people", NewListPeopleHandler(log, people, timeout))
	mux.HandleFunc("POST /people", NewCreatePersonHandler(log, people, timeout))
	mux.HandleFunc("GET /people/{id}", NewGetHandler(log, people, timeout, "person"))
	mux.HandleFunc("PUT /people/{id}", NewUpdatePersonHandler(log, people, timeout))
	mux.HandleFunc("DELETE /people/{id}", NewDeleteHandler(log, people, timeout, "person"))

	mux.HandleFunc("GET /opportunities", NewListOpportunitiesHandler(log, opportunities, timeout))
	mux.HandleFunc("POST /opportunities", NewCreateOpportunityHandler(log, opportunities, timeout))
	mux.HandleFunc("GET /opportunities/{id}", NewGetHandler(log, opportunities, timeout, "opportunity"))
	mux.HandleFunc("PUT /opportunities/{id}", NewUpdateOpportunityHandler(log, opportunities, timeout))
	mux.HandleFunc("PATCH /opportunities/{id}", NewPatchOpportunityHandler(log, opportunities, timeout))
	mux.HandleFunc("DELETE /opportunities/{id}", NewDeleteOpportunityHandler(log, opportunities, timeout))

	return nil
}

// NewHandler returns the full server handler: routes wrapped in CORS,
// request ids and the access log.
func NewHandler(log *slog.Logger, store types.Store, timeout time.Duration) (http.Handler, error) {
	mux := http.NewServeMux()
	if err := Register(mux, log, store, timeout); err != nil {
		return nil, err
	}
	return newCORS().Handler(withRequestID(withAccessLog(log, mux))), nil
}
