// Package supplier provides the Supplier catalog: the counterparties
// purchases are costed against.
package supplier

import (
	"context"
	"regexp"

	"stockcore/internal/core/apperror"
	"stockcore/internal/core/entity"
)

var emailRe = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Supplier represents a vendor goods are purchased from.
type Supplier struct {
	entity.Catalog

	Email *string `db:"email" json:"email,omitempty"`
	Phone *string `db:"phone" json:"phone,omitempty"`

	// Address is the billing address.
	Address *string `db:"address" json:"address,omitempty"`

	// IsActive indicates the supplier can appear in new purchases.
	IsActive bool `db:"is_active" json:"isActive"`

	Description *string `db:"description" json:"description,omitempty"`
}

// NewSupplier creates a supplier with required fields.
func NewSupplier(code, name string) *Supplier {
	return &Supplier{
		Catalog:  entity.NewCatalog(code, name),
		IsActive: true,
	}
}

// Validate implements entity.Validatable.
func (s *Supplier) Validate(ctx context.Context) error {
	if err := s.Catalog.Validate(ctx); err != nil {
		return err
	}

	if s.Email != nil && *s.Email != "" && !emailRe.MatchString(*s.Email) {
		return apperror.NewValidation("invalid email").
			WithDetail("field", "email").
			WithDetail("value", *s.Email)
	}

	return nil
}
