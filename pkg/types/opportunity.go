package types

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Amounts travel as JSON numbers, not quoted strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// Status is the pipeline stage of an opportunity.
type Status string

// Pipeline stages.
const (
	StatusQualified   Status = "Qualified"
	StatusProposal    Status = "Proposal"
	StatusNegotiation Status = "Negotiation"
	StatusClosedWon   Status = "Closed Won"
)

// Statuses lists every stage in pipeline order (board column order).
var Statuses = []Status{
	StatusQualified,
	StatusProposal,
	StatusNegotiation,
	StatusClosedWon,
}

// Valid reports whether s is one of the pipeline stages.
func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

func (s Status) String() string { return string(s) }

// ParseStatus returns the stage named exactly s.
func ParseStatus(s string) (Status, error) {
	if st := Status(s); st.Valid() {
		return st, nil
	}
	return "", fmt.Errorf("%w %q: must be one of %s", ErrInvalidStatus, s, StatusList())
}

// StatusList returns the stages joined for error messages.
func StatusList() string {
	names := make([]string, len(Statuses))
	for i, v := range Statuses {
		names[i] = string(v)
	}
	return strings.Join(names, ", ")
}

// Opportunity is a potential sale to a company, tracked through the
// pipeline stages.
type Opportunity struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Amount    decimal.Decimal `json:"amount"`
	CompanyID int64           `json:"companyId"`
	CloseDate Date            `json:"closeDate"`
	Status    Status          `json:"status"`
	Progress  *float64        `json:"progress,omitempty"`
	Company   *CompanyRef     `json:"company,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

// OpportunityPatch lists the opportunity fields a partial update may change.
// Nil fields are left untouched.
type OpportunityPatch struct {
	Name      *string          `json:"name,omitempty"`
	Amount    *decimal.Decimal `json:"amount,omitempty"`
	CompanyID *int64           `json:"companyId,omitempty"`
	CloseDate *Date            `json:"closeDate,omitempty"`
	Status    *Status          `json:"status,omitempty"`
	Progress  *float64         `json:"progress,omitempty"`
}

// Normalize trims the name and defaults an empty status to Qualified.
func (o *Opportunity) Normalize() {
	o.Name = strings.TrimSpace(o.Name)
	if o.Status == "" {
		o.Status = StatusQualified
	}
}

// Validate checks the opportunity's fields.
func (o *Opportunity) Validate() error {
	if strings.TrimSpace(o.Name) == "" {
		return ErrInvalidName
	}
	if o.CompanyID <= 0 {
		return ErrCompanyRequired
	}
	if o.Amount.IsNegative() {
		return ErrInvalidAmount
	}
	if !o.Status.Valid() {
		return fmt.Errorf("%w %q: must be one of %s", ErrInvalidStatus, o.Status, StatusList())
	}
	if o.Progress != nil && (*o.Progress < 0 || *o.Progress > 100) {
		return ErrInvalidProgress
	}
	return nil
}

// SetStatus moves the opportunity to stage s.
func (o *Opportunity) SetStatus(s Status) error {
	if !s.Valid() {
		return fmt.Errorf("%w %q: must be one of %s", ErrInvalidStatus, s, StatusList())
	}
	o.Status = s
	return nil
}

// IsEmpty reports whether the patch sets no field.
func (p OpportunityPatch) IsEmpty() bool {
	return p.Name == nil && p.Amount == nil && p.CompanyID == nil &&
		p.CloseDate == nil && p.Status == nil && p.Progress == nil
}

// Apply copies the set fields of p onto o and validates the result.
func (o *Opportunity) Apply(p OpportunityPatch) error {
	if p.IsEmpty() {
		return ErrEmptyPatch
	}
	if p.Name != nil {
		o.Name = *p.Name
	}
	if p.Amount != nil {
		o.Amount = *p.Amount
	}
	if p.CompanyID != nil {
		if *p.CompanyID != o.CompanyID {
			o.Company = nil
		}
		o.CompanyID = *p.CompanyID
	}
	if p.CloseDate != nil {
		o.CloseDate = *p.CloseDate
	}
	if p.Status != nil {
		o.Status = *p.Status
	}
	if p.Progress != nil {
		v := *p.Progress
		o.Progress = &v
	}
	o.Name = strings.TrimSpace(o.Name)
	return o.Validate()
}
