// Package warehouse provides the Warehouse catalog: the physical
// locations stock is held at.
package warehouse

import (
	"context"

	"stockcore/internal/core/apperror"
	"stockcore/internal/core/entity"
)

// WarehouseType defines the warehouse category.
type WarehouseType string

const (
	TypeMain         WarehouseType = "main"
	TypeDistribution WarehouseType = "distribution"
	TypeRetail       WarehouseType = "retail"
	TypeTransit      WarehouseType = "transit"
)

// Warehouse represents a storage location for goods.
type Warehouse struct {
	entity.Catalog

	Type WarehouseType `db:"type" json:"type"`

	// Address is the physical address.
	Address *string `db:"address" json:"address,omitempty"`

	// IsActive indicates the warehouse is operational.
	IsActive bool `db:"is_active" json:"isActive"`

	// IsDefault marks the warehouse operations fall back to when none
	// is named. At most one warehouse carries the flag.
	IsDefault bool `db:"is_default" json:"isDefault"`

	Description *string `db:"description" json:"description,omitempty"`
}

// NewWarehouse creates a warehouse with required fields.
func NewWarehouse(code, name string, whType WarehouseType) *Warehouse {
	return &Warehouse{
		Catalog:  entity.NewCatalog(code, name),
		Type:     whType,
		IsActive: true,
	}
}

// Validate implements entity.Validatable.
func (w *Warehouse) Validate(ctx context.Context) error {
	if err := w.Catalog.Validate(ctx); err != nil {
		return err
	}

	if !isValidWarehouseType(w.Type) {
		return apperror.NewValidation("invalid warehouse type").
			WithDetail("field", "type").
			WithDetail("value", string(w.Type))
	}

	return nil
}

// CanHoldStock reports whether the warehouse accepts stock operations.
func (w *Warehouse) CanHoldStock() bool {
	return w.IsActive && !w.DeletionMark
}

func isValidWarehouseType(t WarehouseType) bool {
	switch t {
	case TypeMain, TypeDistribution, TypeRetail, TypeTransit:
		return true
	}
	return false
}
