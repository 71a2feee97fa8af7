package types

import (
	"context"
	"errors"
)

// Table provides uniform CRUD operations for a single entity type.
// Get, Fetch, Insert, Update and Patch return any; callers type-assert to the
// concrete entity pointer (*Company, *Person, *Opportunity).
type Table interface {
	// Fetch returns all entities matching the filter in store-native order
	// (name ascending unless the filter names another order).
	Fetch(ctx context.Context, filter Filter) ([]any, error)

	// Get retrieves the entity with the given ID.
	// Returns ErrNotFound if no entity exists with that ID.
	Get(ctx context.Context, id int64) (any, error)

	// Insert creates a new entity and returns it with its store-assigned ID.
	Insert(ctx context.Context, data any) (any, error)

	// Update replaces every mutable field of the entity with the given ID.
	Update(ctx context.Context, id int64, data any) (any, error)

	// Patch changes only the fields set in patch (a *CompanyPatch,
	// *PersonPatch or *OpportunityPatch).
	Patch(ctx context.Context, id int64, patch any) (any, error)

	// Delete removes the entity with the given ID.
	// Returns ErrNotFound if no entity exists with that ID.
	Delete(ctx context.Context, id int64) error
}

// Filter narrows a Fetch. Recognized keys are listed in the Filter* constants;
// an empty or nil filter returns every entity in the table.
type Filter map[string]any

// Filter keys understood by Table.Fetch.
const (
	FilterCompanyID  = "company_id" // int64
	FilterStatus     = "status"     // string or Status
	FilterOrderBy    = "order_by"   // one of the Order* constants
	FilterDescending = "descending" // bool
	FilterLimit      = "limit"      // int
	FilterOffset     = "offset"     // int
)

// Sort columns accepted by FilterOrderBy.
const (
	OrderByName      = "name"
	OrderByAmount    = "amount"
	OrderByCloseDate = "close_date"
	OrderByCreatedAt = "created_at"
	OrderByID        = "id"
)

// Table operation errors.
var (
	ErrNotFound      = errors.New("record not found")
	ErrInvalidID     = errors.New("invalid record ID")
	ErrInvalidData   = errors.New("invalid record data")
	ErrInvalidFilter = errors.New("invalid filter value")
	ErrEmptyPatch    = errors.New("no fields provided for update")
)

// Entity validation errors.
var (
	ErrInvalidName     = errors.New("name is required")
	ErrInvalidEmail    = errors.New("email is required")
	ErrInvalidStatus   = errors.New("invalid status")
	ErrInvalidAmount   = errors.New("amount must not be negative")
	ErrInvalidProgress = errors.New("progress must be between 0 and 100")
	ErrCompanyRequired = errors.New("company ID is required")
)

// Referential errors raised by the store.
var (
	ErrCompanyNotFound = errors.New("company not found")
	ErrCompanyInUse    = errors.New("company has associated records")
)
