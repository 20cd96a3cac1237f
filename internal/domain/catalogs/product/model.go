// Package product provides the Product catalog: the stockable items the
// ledger tracks.
package product

import (
	"context"

	"stockcore/internal/core/apperror"
	"stockcore/internal/core/entity"
	"stockcore/internal/core/types"
)

// Product is a stockable item.
type Product struct {
	entity.Catalog

	// SKU is the external stock-keeping identifier, if any.
	SKU *string `db:"sku" json:"sku,omitempty"`

	// SalePrice is the list price, informational only.
	SalePrice types.Money `db:"sale_price" json:"salePrice"`

	// AveragePurchaseCost is the derived mean over the product's cost
	// records, refreshed after every purchase. Reporting only; lot
	// allocation always prices from the originating cost record.
	AveragePurchaseCost types.Money `db:"average_purchase_cost" json:"averagePurchaseCost"`

	// LowStockThreshold triggers a notification when total stock drops
	// below it. Zero disables the check.
	LowStockThreshold types.Quantity `db:"low_stock_threshold" json:"lowStockThreshold"`

	// IsActive indicates the product can appear in new operations.
	IsActive bool `db:"is_active" json:"isActive"`

	Description *string `db:"description" json:"description,omitempty"`
}

// NewProduct creates a product with required fields.
func NewProduct(code, name string) *Product {
	return &Product{
		Catalog:             entity.NewCatalog(code, name),
		SalePrice:           types.ZeroMoney(),
		AveragePurchaseCost: types.ZeroMoney(),
		IsActive:            true,
	}
}

// Validate implements entity.Validatable.
func (p *Product) Validate(ctx context.Context) error {
	if err := p.Catalog.Validate(ctx); err != nil {
		return err
	}

	if p.SalePrice.IsNegative() {
		return apperror.NewValidation("sale price cannot be negative").
			WithDetail("field", "salePrice")
	}
	if p.LowStockThreshold.IsNegative() {
		return apperror.NewValidation("low stock threshold cannot be negative").
			WithDetail("field", "lowStockThreshold")
	}

	return nil
}
