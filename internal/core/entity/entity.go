// Package entity provides base types for catalog entities.
package entity

import (
	"context"

	"stockcore/internal/core/apperror"
	"stockcore/internal/core/id"
)

// Validatable is implemented by entities that support self-validation.
// Validation checks internal invariants without database access.
type Validatable interface {
	Validate(ctx context.Context) error
}

// BaseEntity contains the fields shared by all catalog entities.
type BaseEntity struct {
	// ID is the primary key (UUIDv7).
	ID id.ID `db:"id" json:"id"`

	// DeletionMark indicates a soft-deleted entity. Catalog rows are
	// never hard-deleted: the ledger may still reference them.
	DeletionMark bool `db:"deletion_mark" json:"deletionMark"`

	// Version for optimistic locking, incremented on each update.
	Version int `db:"version" json:"version"`
}

// NewBaseEntity creates a BaseEntity with a generated id.
func NewBaseEntity() BaseEntity {
	return BaseEntity{
		ID:      id.New(),
		Version: 1,
	}
}

// Touch increments the version.
func (b *BaseEntity) Touch() {
	b.Version++
}

// MarkDeleted sets the deletion mark.
func (b *BaseEntity) MarkDeleted() {
	b.DeletionMark = true
}

// Undelete clears the deletion mark.
func (b *BaseEntity) Undelete() {
	b.DeletionMark = false
}

// Catalog is the base type for reference data: products, warehouses,
// suppliers.
type Catalog struct {
	BaseEntity

	// Code is a human-readable unique identifier.
	Code string `db:"code" json:"code"`

	// Name is the display name.
	Name string `db:"name" json:"name"`
}

// NewCatalog creates a Catalog with a generated id.
func NewCatalog(code, name string) Catalog {
	return Catalog{
		BaseEntity: NewBaseEntity(),
		Code:       code,
		Name:       name,
	}
}

// Validate implements Validatable.
func (c *Catalog) Validate(ctx context.Context) error {
	if c.Name == "" {
		return apperror.NewValidation("name is required").
			WithDetail("field", "name")
	}
	// Code may be auto-generated on create, so it is optional here.
	return nil
}
