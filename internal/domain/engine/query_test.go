package engine

import (
	"context"
	"testing"
	"time"

	"stockcore/internal/core/id"
	"stockcore/internal/core/ref"
	"stockcore/internal/core/types"
	"stockcore/internal/domain/ledger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurrentStockAsOf(t *testing.T) {
	ctx := context.Background()
	eng, store, _, _ := newTestEngine(FIFO)

	product := id.New()
	warehouse := id.New()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, q := range []types.Quantity{qty(5), qty(3), qty(2).Neg()} {
		m := ledger.NewMutation(product, warehouse, nil, nil, q)
		m.CreatedAt = base.Add(time.Duration(i) * time.Hour)
		_, err := store.Append(ctx, m)
		require.NoError(t, err)
	}

	cutoff := base.Add(90 * time.Minute)
	atCutoff, err := eng.CurrentStock(ctx, product, StockFilter{AsOf: &cutoff})
	require.NoError(t, err)
	assert.Equal(t, qty(8), atCutoff)

	now, err := eng.CurrentStock(ctx, product, StockFilter{})
	require.NoError(t, err)
	assert.Equal(t, qty(6), now)
}

func TestCurrentStockByReference(t *testing.T) {
	ctx := context.Background()
	eng, _, _, _ := newTestEngine(FIFO)

	product := id.New()
	warehouse := id.New()
	order := &ref.Ref{Kind: ref.KindDocument, ID: id.New()}

	require.NoError(t, eng.Apply(ctx, &OperationRequest{
		Kind: OpIncrease, ProductID: product, Quantity: qty(5), WarehouseTo: warehouse,
	}))
	require.NoError(t, eng.Apply(ctx, &OperationRequest{
		Kind: OpIncrease, ProductID: product, Quantity: qty(2), WarehouseTo: warehouse, Reference: order,
	}))

	scoped, err := eng.CurrentStock(ctx, product, StockFilter{Reference: order})
	require.NoError(t, err)
	assert.Equal(t, qty(2), scoped)
}

func TestInStock(t *testing.T) {
	ctx := context.Background()
	eng, _, _, _ := newTestEngine(FIFO)

	product := id.New()
	warehouse := id.New()

	require.NoError(t, eng.Apply(ctx, &OperationRequest{
		Kind: OpIncrease, ProductID: product, Quantity: qty(5), WarehouseTo: warehouse,
	}))

	ok, err := eng.InStock(ctx, product, qty(5), StockFilter{})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = eng.InStock(ctx, product, qty(6), StockFilter{})
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = eng.InStock(ctx, id.New(), qty(1), StockFilter{})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestValuation(t *testing.T) {
	ctx := context.Background()
	eng, _, _, _ := newTestEngine(FIFO)

	warehouse := id.New()
	supplier := id.New()
	p1 := id.New()
	p2 := id.New()

	require.NoError(t, eng.Apply(ctx, purchaseReq(p1, warehouse, supplier, qty(10), "5.00")))
	require.NoError(t, eng.Apply(ctx, purchaseReq(p1, warehouse, supplier, qty(5), "7.00")))
	require.NoError(t, eng.Apply(ctx, purchaseReq(p2, warehouse, supplier, qty(2), "10.00")))

	// 10*5.00 + 5*7.00
	v1, err := eng.ProductValue(ctx, p1, warehouse)
	require.NoError(t, err)
	assert.True(t, v1.Equal(types.MustMoney("85.00")), "got %s", v1)

	// Consuming oldest stock lowers the basis by 4*5.00.
	require.NoError(t, eng.Apply(ctx, &OperationRequest{
		Kind: OpDecrease, ProductID: p1, Quantity: qty(4), WarehouseTo: warehouse,
	}))
	v1, err = eng.ProductValue(ctx, p1, warehouse)
	require.NoError(t, err)
	assert.True(t, v1.Equal(types.MustMoney("65.00")), "got %s", v1)

	total, err := eng.WarehouseValue(ctx, warehouse)
	require.NoError(t, err)
	assert.True(t, total.Equal(types.MustMoney("85.00")), "got %s", total)
}

func TestStockListings(t *testing.T) {
	ctx := context.Background()
	eng, _, _, _ := newTestEngine(FIFO)

	warehouse := id.New()
	inStock := id.New()
	soldOut := id.New()

	require.NoError(t, eng.Apply(ctx, &OperationRequest{
		Kind: OpIncrease, ProductID: inStock, Quantity: qty(5), WarehouseTo: warehouse,
	}))
	require.NoError(t, eng.Apply(ctx, &OperationRequest{
		Kind: OpIncrease, ProductID: soldOut, Quantity: qty(2), WarehouseTo: warehouse,
	}))
	require.NoError(t, eng.Apply(ctx, &OperationRequest{
		Kind: OpDecrease, ProductID: soldOut, Quantity: qty(2), WarehouseTo: warehouse,
	}))

	available, err := eng.ProductsInStock(ctx, warehouse)
	require.NoError(t, err)
	require.Len(t, available, 1)
	assert.Equal(t, inStock, available[0].ProductID)
	assert.Equal(t, qty(5), available[0].Total)

	depleted, err := eng.ProductsOutOfStock(ctx, warehouse)
	require.NoError(t, err)
	require.Len(t, depleted, 1)
	assert.Equal(t, soldOut, depleted[0].ProductID)
	assert.Equal(t, qty(0), depleted[0].Total)
}

func TestHistory(t *testing.T) {
	ctx := context.Background()
	eng, _, _, _ := newTestEngine(FIFO)

	product := id.New()
	warehouse := id.New()
	supplier := id.New()

	require.NoError(t, eng.Apply(ctx, purchaseReq(product, warehouse, supplier, qty(10), "5.00")))
	require.NoError(t, eng.Apply(ctx, &OperationRequest{
		Kind: OpDecrease, ProductID: product, Quantity: qty(4), WarehouseTo: warehouse,
	}))

	// Newest first.
	entries, err := eng.History(ctx, product, HistoryFilter{})
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, ledger.KindSubtract, entries[0].Kind)
	assert.Equal(t, ledger.KindAdd, entries[1].Kind)

	// Kind filter.
	credits, err := eng.History(ctx, product, HistoryFilter{Kinds: []ledger.Kind{ledger.KindAdd}})
	require.NoError(t, err)
	require.Len(t, credits, 1)
	assert.Equal(t, qty(10), credits[0].Quantity)

	// Limit applies after ordering.
	limited, err := eng.History(ctx, product, HistoryFilter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, ledger.KindSubtract, limited[0].Kind)
}
