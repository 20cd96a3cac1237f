package engine

import (
	"context"

	"stockcore/internal/core/apperror"
	"stockcore/internal/core/id"
	"stockcore/internal/core/ref"
	"stockcore/internal/core/types"
)

// OperationKind is one of the four terminal stock operations.
type OperationKind string

const (
	OpPurchase OperationKind = "purchase"
	OpIncrease OperationKind = "increase"
	OpDecrease OperationKind = "decrease"
	OpTransfer OperationKind = "transfer"
)

// Valid reports whether the kind is a known operation.
func (k OperationKind) Valid() bool {
	switch k {
	case OpPurchase, OpIncrease, OpDecrease, OpTransfer:
		return true
	}
	return false
}

// OperationRequest is a single inbound stock-change request. It is
// validated once, consumed by exactly one engine call and then discarded;
// it is never persisted.
type OperationRequest struct {
	Kind      OperationKind `json:"kind"`
	ProductID id.ID         `json:"productId"`

	// Quantity is always positive; the operation kind determines the sign
	// of the emitted ledger entries.
	Quantity types.Quantity `json:"quantity"`

	// WarehouseTo is the affected warehouse (destination for transfers).
	WarehouseTo id.ID `json:"warehouseTo"`

	// WarehouseFrom is the source warehouse, required for transfers.
	WarehouseFrom *id.ID `json:"warehouseFrom,omitempty"`

	// SupplierID and UnitCost are required for purchases.
	SupplierID *id.ID       `json:"supplierId,omitempty"`
	UnitCost   *types.Money `json:"unitCost,omitempty"`

	// Reference optionally points at the originating business document.
	Reference *ref.Ref `json:"reference,omitempty"`

	Description string `json:"description,omitempty"`
}

// Validate checks the per-kind required fields. Runs before any ledger
// write; a failure here means nothing has been recorded.
func (r *OperationRequest) Validate(ctx context.Context) error {
	if !r.Kind.Valid() {
		return apperror.NewValidation("unknown operation kind").
			WithDetail("field", "kind").
			WithDetail("value", string(r.Kind))
	}

	if id.IsNil(r.ProductID) {
		return apperror.NewValidation("product is required").
			WithDetail("field", "productId")
	}

	if !r.Quantity.IsPositive() {
		return apperror.NewValidation("quantity must be greater than 0").
			WithDetail("field", "quantity").
			WithDetail("value", r.Quantity.String())
	}

	if id.IsNil(r.WarehouseTo) {
		return apperror.NewValidation("destination warehouse is required").
			WithDetail("field", "warehouseTo")
	}

	switch r.Kind {
	case OpPurchase:
		if r.SupplierID == nil || id.IsNil(*r.SupplierID) {
			return apperror.NewValidation("supplier is required for purchase").
				WithDetail("field", "supplierId")
		}
		if r.UnitCost == nil || !r.UnitCost.IsPositive() {
			return apperror.NewValidation("unit cost must be greater than 0").
				WithDetail("field", "unitCost")
		}
	case OpTransfer:
		if r.WarehouseFrom == nil || id.IsNil(*r.WarehouseFrom) {
			return apperror.NewValidation("source warehouse is required for transfer").
				WithDetail("field", "warehouseFrom")
		}
		if *r.WarehouseFrom == r.WarehouseTo {
			return apperror.NewValidation("source and destination warehouses must differ").
				WithDetail("field", "warehouseFrom")
		}
	}

	return nil
}
