package types

import (
	"strings"
	"time"
)

// Company is an organization that people work for and opportunities are
// sold to.
type Company struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Website      string    `json:"website,omitempty"`
	Headquarters string    `json:"headquarters,omitempty"`
	Status       string    `json:"status,omitempty"`
	PeopleCount  int       `json:"peopleCount"`
	CreatedAt    time.Time `json:"createdAt"`
}

// CompanyRef is the denormalized company attached to people and
// opportunities by store queries. It is read-only.
type CompanyRef struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Website      string `json:"website,omitempty"`
	Headquarters string `json:"headquarters,omitempty"`
	Status       string `json:"status,omitempty"`
}

// CompanyPatch lists the company fields a partial update may change.
// Nil fields are left untouched.
type CompanyPatch struct {
	Name         *string `json:"name,omitempty"`
	Website      *string `json:"website,omitempty"`
	Headquarters *string `json:"headquarters,omitempty"`
	Status       *string `json:"status,omitempty"`
}

// Normalize trims surrounding whitespace from the text fields.
func (c *Company) Normalize() {
	c.Name = strings.TrimSpace(c.Name)
	c.Website = strings.TrimSpace(c.Website)
	c.Headquarters = strings.TrimSpace(c.Headquarters)
	c.Status = strings.TrimSpace(c.Status)
}

// Validate returns ErrInvalidName when the company has no name.
func (c *Company) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrInvalidName
	}
	return nil
}

// Ref returns the denormalized reference for c.
func (c *Company) Ref() *CompanyRef {
	return &CompanyRef{
		ID:           c.ID,
		Name:         c.Name,
		Website:      c.Website,
		Headquarters: c.Headquarters,
		Status:       c.Status,
	}
}

// IsEmpty reports whether the patch sets no field.
func (p CompanyPatch) IsEmpty() bool {
	return p.Name == nil && p.Website == nil && p.Headquarters == nil && p.Status == nil
}

// Apply copies the set fields of p onto c and validates the result.
func (c *Company) Apply(p CompanyPatch) error {
	if p.IsEmpty() {
		return ErrEmptyPatch
	}
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Website != nil {
		c.Website = *p.Website
	}
	if p.Headquarters != nil {
		c.Headquarters = *p.Headquarters
	}
	if p.Status != nil {
		c.Status = *p.Status
	}
	c.Normalize()
	return c.Validate()
}
