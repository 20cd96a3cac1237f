package engine

import (
	"context"
	"fmt"
	"time"

	"stockcore/internal/core/id"
	"stockcore/internal/core/ref"
	"stockcore/internal/core/types"
	"stockcore/internal/domain/ledger"
)

// StockFilter scopes a stock query. Zero value means "total across all
// warehouses, as of now".
type StockFilter struct {
	// AsOf is the point-in-time cutoff; nil means now.
	AsOf *time.Time

	// Warehouse restricts the sum to one warehouse.
	Warehouse *id.ID

	// Reference restricts the sum to entries originating from one
	// business document.
	Reference *ref.Ref
}

// CurrentStock sums signed quantities over the product's mutations up to
// the cutoff. Read-only; never mutates the ledger.
func (e *Engine) CurrentStock(ctx context.Context, productID id.ID, f StockFilter) (types.Quantity, error) {
	return e.store.Sum(ctx, ledger.Filter{
		ProductID: productID,
		Warehouse: f.Warehouse,
		Reference: f.Reference,
		Until:     f.AsOf,
	})
}

// InStock reports whether at least required units are available in scope.
func (e *Engine) InStock(ctx context.Context, productID id.ID, required types.Quantity, f StockFilter) (bool, error) {
	current, err := e.CurrentStock(ctx, productID, f)
	if err != nil {
		return false, err
	}
	return current.IsPositive() && current >= required, nil
}

// ProductValue computes the cost basis of one product at one warehouse:
// the sum over open lots of remaining quantity times unit cost.
func (e *Engine) ProductValue(ctx context.Context, productID, warehouseID id.ID) (types.Money, error) {
	lots, err := e.ReconstructLots(ctx, productID, warehouseID)
	if err != nil {
		return types.ZeroMoney(), err
	}

	total := types.ZeroMoney()
	for _, lot := range lots {
		total = total.Add(lot.UnitCost.Mul(lot.Remaining.Decimal()))
	}
	return total, nil
}

// WarehouseValue computes the total cost basis of everything currently
// held at one warehouse.
func (e *Engine) WarehouseValue(ctx context.Context, warehouseID id.ID) (types.Money, error) {
	balances, err := e.store.BalancesByWarehouse(ctx, warehouseID)
	if err != nil {
		return types.ZeroMoney(), fmt.Errorf("warehouse balances: %w", err)
	}

	total := types.ZeroMoney()
	for _, b := range balances {
		if !b.Total.IsPositive() {
			continue
		}
		v, err := e.ProductValue(ctx, b.ProductID, warehouseID)
		if err != nil {
			return types.ZeroMoney(), err
		}
		total = total.Add(v)
	}
	return total, nil
}

// ProductsInStock lists products with a positive balance at the warehouse.
func (e *Engine) ProductsInStock(ctx context.Context, warehouseID id.ID) ([]ledger.ProductBalance, error) {
	return e.balances(ctx, warehouseID, true)
}

// ProductsOutOfStock lists products whose balance at the warehouse is
// zero or negative.
func (e *Engine) ProductsOutOfStock(ctx context.Context, warehouseID id.ID) ([]ledger.ProductBalance, error) {
	return e.balances(ctx, warehouseID, false)
}

func (e *Engine) balances(ctx context.Context, warehouseID id.ID, positive bool) ([]ledger.ProductBalance, error) {
	all, err := e.store.BalancesByWarehouse(ctx, warehouseID)
	if err != nil {
		return nil, fmt.Errorf("warehouse balances: %w", err)
	}

	out := make([]ledger.ProductBalance, 0, len(all))
	for _, b := range all {
		if b.Total.IsPositive() == positive {
			out = append(out, b)
		}
	}
	return out, nil
}

// HistoryFilter narrows a movement history listing.
type HistoryFilter struct {
	Warehouse *id.ID
	Kinds     []ledger.Kind
	FromDate  *time.Time
	ToDate    *time.Time
	Limit     int
	Offset    int
}

// History returns the product's mutation history, newest first.
func (e *Engine) History(ctx context.Context, productID id.ID, f HistoryFilter) ([]ledger.Mutation, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}

	return e.store.Query(ctx, ledger.Filter{
		ProductID: productID,
		Warehouse: f.Warehouse,
		Kinds:     f.Kinds,
		Since:     f.FromDate,
		Until:     f.ToDate,
		Direction: ledger.Desc,
		Limit:     limit,
		Offset:    f.Offset,
	})
}
