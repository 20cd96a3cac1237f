package costing

import (
	"context"

	"stockcore/internal/core/id"
	"stockcore/internal/core/types"
)

// Store is the cost record storage boundary. Create-only: cost records
// are never updated or removed.
type Store interface {
	// Create persists a new cost record.
	Create(ctx context.Context, rec *CostRecord) error

	// GetByID retrieves one cost record.
	GetByID(ctx context.Context, recID id.ID) (CostRecord, error)

	// GetByIDs retrieves several cost records keyed by id.
	// Missing ids are simply absent from the result.
	GetByIDs(ctx context.Context, ids []id.ID) (map[id.ID]CostRecord, error)

	// ListByProduct returns all cost records for a product, oldest first.
	ListByProduct(ctx context.Context, productID id.ID) ([]CostRecord, error)

	// ListBySupplier returns all cost records created from a supplier.
	ListBySupplier(ctx context.Context, supplierID id.ID) ([]CostRecord, error)

	// AverageCost returns the mean unit cost across a product's cost
	// records. Zero when the product has none.
	AverageCost(ctx context.Context, productID id.ID) (types.Money, error)
}
