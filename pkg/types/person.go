package types

import (
	"strings"
	"time"
)

// Person is a contact, optionally employed by a Company.
type Person struct {
	ID        int64       `json:"id"`
	Name      string      `json:"name"`
	Email     string      `json:"email"`
	Phone     string      `json:"phone,omitempty"`
	CompanyID *int64      `json:"companyId,omitempty"`
	Company   *CompanyRef `json:"company,omitempty"`
	CreatedAt time.Time   `json:"createdAt"`
}

// PersonPatch lists the person fields a partial update may change.
// A CompanyID of 0 detaches the person from their company.
type PersonPatch struct {
	Name      *string `json:"name,omitempty"`
	Email     *string `json:"email,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	CompanyID *int64  `json:"companyId,omitempty"`
}

// Normalize trims text fields and clears a non-positive company reference.
func (p *Person) Normalize() {
	p.Name = strings.TrimSpace(p.Name)
	p.Email = strings.TrimSpace(p.Email)
	p.Phone = strings.TrimSpace(p.Phone)
	if p.CompanyID != nil && *p.CompanyID <= 0 {
		p.CompanyID = nil
	}
}

// Validate requires a name and an email.
func (p *Person) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrInvalidName
	}
	if strings.TrimSpace(p.Email) == "" {
		return ErrInvalidEmail
	}
	return nil
}

// IsEmpty reports whether the patch sets no field.
func (pp PersonPatch) IsEmpty() bool {
	return pp.Name == nil && pp.Email == nil && pp.Phone == nil && pp.CompanyID == nil
}

// Apply copies the set fields of pp onto p and validates the result.
func (p *Person) Apply(pp PersonPatch) error {
	if pp.IsEmpty() {
		return ErrEmptyPatch
	}
	if pp.Name != nil {
		p.Name = *pp.Name
	}
	if pp.Email != nil {
		p.Email = *pp.Email
	}
	if pp.Phone != nil {
		p.Phone = *pp.Phone
	}
	if pp.CompanyID != nil {
		cid := *pp.CompanyID
		p.CompanyID = &cid
	}
	p.Normalize()
	return p.Validate()
}
