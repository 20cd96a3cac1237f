package dto

import (
	"time"

	"stockcore/internal/core/apperror"
	"stockcore/internal/core/id"
	"stockcore/internal/core/ref"
	"stockcore/internal/core/types"
	"stockcore/internal/domain/engine"
	"stockcore/internal/domain/ledger"
)

// --- Request DTOs ---

// StockOperationRequest is the request body for POST /stock/operations.
type StockOperationRequest struct {
	Kind          string   `json:"kind" binding:"required"`
	ProductID     string   `json:"productId" binding:"required,uuid"`
	Quantity      float64  `json:"quantity" binding:"required,gt=0"`
	WarehouseTo   string   `json:"warehouseTo" binding:"required,uuid"`
	WarehouseFrom *string  `json:"warehouseFrom,omitempty" binding:"omitempty,uuid"`
	SupplierID    *string  `json:"supplierId,omitempty" binding:"omitempty,uuid"`
	UnitCost      *float64 `json:"unitCost,omitempty"`
	Reference     *string  `json:"reference,omitempty"`
	Description   string   `json:"description,omitempty"`
}

// ToOperation converts the request body to a domain operation request.
// Per-kind field requirements are checked by the engine, not here.
func (r *StockOperationRequest) ToOperation() (*engine.OperationRequest, error) {
	productID, err := id.Parse(r.ProductID)
	if err != nil {
		return nil, apperror.NewValidation("invalid productId format")
	}

	warehouseTo, err := id.Parse(r.WarehouseTo)
	if err != nil {
		return nil, apperror.NewValidation("invalid warehouseTo format")
	}

	op := &engine.OperationRequest{
		Kind:        engine.OperationKind(r.Kind),
		ProductID:   productID,
		Quantity:    types.NewQuantityFromFloat64(r.Quantity),
		WarehouseTo: warehouseTo,
		Description: r.Description,
	}

	if r.WarehouseFrom != nil {
		from, err := id.Parse(*r.WarehouseFrom)
		if err != nil {
			return nil, apperror.NewValidation("invalid warehouseFrom format")
		}
		op.WarehouseFrom = &from
	}

	if r.SupplierID != nil {
		supplierID, err := id.Parse(*r.SupplierID)
		if err != nil {
			return nil, apperror.NewValidation("invalid supplierId format")
		}
		op.SupplierID = &supplierID
	}

	if r.UnitCost != nil {
		cost := types.NewMoney(*r.UnitCost)
		op.UnitCost = &cost
	}

	if r.Reference != nil && *r.Reference != "" {
		parsed, err := ref.Parse(*r.Reference)
		if err != nil {
			return nil, err
		}
		op.Reference = &parsed
	}

	return op, nil
}

// SetLevelRequest is the request body for POST /stock/level.
type SetLevelRequest struct {
	ProductID   string  `json:"productId" binding:"required,uuid"`
	WarehouseID string  `json:"warehouseId" binding:"required,uuid"`
	NewLevel    float64 `json:"newLevel"`
	Reference   *string `json:"reference,omitempty"`
}

// --- Response DTOs ---

// MutationResponse represents one ledger entry in API responses.
type MutationResponse struct {
	ID            string    `json:"id"`
	ProductID     string    `json:"productId"`
	WarehouseFrom *string   `json:"warehouseFrom,omitempty"`
	WarehouseTo   string    `json:"warehouseTo"`
	LotID         *string   `json:"lotId,omitempty"`
	Quantity      float64   `json:"quantity"`
	Kind          string    `json:"kind"`
	Reference     *string   `json:"reference,omitempty"`
	Description   string    `json:"description,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// FromMutation converts a ledger entry to a response DTO.
func FromMutation(m ledger.Mutation) MutationResponse {
	resp := MutationResponse{
		ID:          m.ID.String(),
		ProductID:   m.ProductID.String(),
		WarehouseTo: m.WarehouseTo.String(),
		Quantity:    m.Quantity.Float64(),
		Kind:        string(m.Kind),
		Description: m.Description,
		CreatedAt:   m.CreatedAt,
	}
	if m.WarehouseFrom != nil {
		s := m.WarehouseFrom.String()
		resp.WarehouseFrom = &s
	}
	if m.LotID != nil {
		s := m.LotID.String()
		resp.LotID = &s
	}
	if m.Reference != nil {
		s := m.Reference.String()
		resp.Reference = &s
	}
	return resp
}

// MutationListResponse represents a page of ledger entries.
type MutationListResponse struct {
	Items []MutationResponse `json:"items"`
}

// StockLevelResponse represents a stock quantity in API responses.
type StockLevelResponse struct {
	ProductID string  `json:"productId"`
	Quantity  float64 `json:"quantity"`
}

// LotResponse represents one reconstructed lot.
type LotResponse struct {
	LotID     *string `json:"lotId,omitempty"`
	Remaining float64 `json:"remaining"`
	UnitCost  string  `json:"unitCost"`
}

// FromLot converts a reconstructed lot to a response DTO.
func FromLot(l engine.Lot) LotResponse {
	resp := LotResponse{
		Remaining: l.Remaining.Float64(),
		UnitCost:  l.UnitCost.String(),
	}
	if l.LotID != nil {
		s := l.LotID.String()
		resp.LotID = &s
	}
	return resp
}

// LotListResponse represents the open lots of one product/warehouse pair.
type LotListResponse struct {
	Items []LotResponse `json:"items"`
}

// ValuationResponse represents a monetary stock valuation.
type ValuationResponse struct {
	Value string `json:"value"`
}

// BalanceResponse represents one product balance row.
type BalanceResponse struct {
	ProductID string  `json:"productId"`
	Total     float64 `json:"total"`
}

// FromBalance converts a ledger balance to a response DTO.
func FromBalance(b ledger.ProductBalance) BalanceResponse {
	return BalanceResponse{
		ProductID: b.ProductID.String(),
		Total:     b.Total.Float64(),
	}
}

// BalanceListResponse represents a list of product balances.
type BalanceListResponse struct {
	Items []BalanceResponse `json:"items"`
}
