// Package costing tracks the purchase price lots that stock is drawn from.
//
// A cost record is created exactly once per purchase and never changes;
// ledger entries reference it to keep every consumed unit traceable to
// the price that was paid for it.
package costing

import (
	"time"

	"stockcore/internal/core/id"
	"stockcore/internal/core/types"
)

// CostRecord is the price paid for one purchased quantity. Immutable.
type CostRecord struct {
	ID         id.ID       `db:"id" json:"id"`
	ProductID  id.ID       `db:"product_id" json:"productId"`
	SupplierID id.ID       `db:"supplier_id" json:"supplierId"`
	UnitCost   types.Money `db:"unit_cost" json:"unitCost"`
	CreatedAt  time.Time   `db:"created_at" json:"createdAt"`
}

// NewCostRecord creates a cost record with a generated id.
func NewCostRecord(productID, supplierID id.ID, unitCost types.Money) *CostRecord {
	return &CostRecord{
		ID:         id.New(),
		ProductID:  productID,
		SupplierID: supplierID,
		UnitCost:   unitCost,
		CreatedAt:  time.Now().UTC(),
	}
}
