package product

import (
	"context"

	"stockcore/internal/core/id"
	"stockcore/internal/core/types"
	"stockcore/internal/domain/catalog"
)

// Repository defines Product persistence.
type Repository interface {
	catalog.Repository[*Product]

	// SetAverageCost stores the derived average purchase cost. Satisfies
	// costing.AverageWriter.
	SetAverageCost(ctx context.Context, productID id.ID, avg types.Money) error

	// LowStockThreshold returns the product's configured threshold.
	// Zero when unset.
	LowStockThreshold(ctx context.Context, productID id.ID) (types.Quantity, error)
}
