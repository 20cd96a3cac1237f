package warehouse

import (
	"context"

	"stockcore/internal/domain/catalog"
)

// Repository defines Warehouse persistence.
type Repository interface {
	catalog.Repository[*Warehouse]

	// GetDefault returns the warehouse marked as default.
	GetDefault(ctx context.Context) (*Warehouse, error)

	// ClearDefault clears the default flag on all warehouses, run
	// before setting a new default.
	ClearDefault(ctx context.Context) error
}
