package engine

import (
	"context"
	"testing"
	"time"

	"stockcore/internal/core/apperror"
	"stockcore/internal/core/id"
	"stockcore/internal/core/ref"
	"stockcore/internal/core/types"
	"stockcore/internal/domain/ledger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func qty(v int64) types.Quantity { return types.NewQuantityFromInt(v) }

func purchaseReq(product, warehouse, supplier id.ID, q types.Quantity, cost string) *OperationRequest {
	c := types.MustMoney(cost)
	return &OperationRequest{
		Kind:        OpPurchase,
		ProductID:   product,
		Quantity:    q,
		WarehouseTo: warehouse,
		SupplierID:  &supplier,
		UnitCost:    &c,
	}
}

func TestFIFOAllocation(t *testing.T) {
	ctx := context.Background()
	eng, store, _, _ := newTestEngine(FIFO)

	product := id.New()
	warehouse := id.New()
	supplier := id.New()

	require.NoError(t, eng.Apply(ctx, purchaseReq(product, warehouse, supplier, qty(10), "5.00")))
	require.NoError(t, eng.Apply(ctx, purchaseReq(product, warehouse, supplier, qty(5), "7.00")))

	require.NoError(t, eng.Apply(ctx, &OperationRequest{
		Kind:        OpDecrease,
		ProductID:   product,
		Quantity:    qty(12),
		WarehouseTo: warehouse,
	}))

	// Oldest lot fully consumed, 2 taken from the second: 3 left at 7.00.
	lots, err := eng.ReconstructLots(ctx, product, warehouse)
	require.NoError(t, err)
	require.Len(t, lots, 1)
	assert.Equal(t, qty(3), lots[0].Remaining)
	assert.True(t, lots[0].UnitCost.Equal(types.MustMoney("7.00")))

	current, err := eng.CurrentStock(ctx, product, StockFilter{Warehouse: &warehouse})
	require.NoError(t, err)
	assert.Equal(t, qty(3), current)

	// The decrease split into one debit per consumed lot, each tagged
	// with the lot it drew from.
	debits, err := store.Query(ctx, ledger.Filter{ProductID: product, Sign: ledger.SignNegative})
	require.NoError(t, err)
	require.Len(t, debits, 2)
	assert.Equal(t, qty(10).Neg(), debits[0].Quantity)
	assert.Equal(t, qty(2).Neg(), debits[1].Quantity)
	for _, d := range debits {
		assert.NotNil(t, d.LotID)
		assert.Equal(t, ledger.KindSubtract, d.Kind)
	}
	assert.NotEqual(t, *debits[0].LotID, *debits[1].LotID)
}

func TestLIFOAllocation(t *testing.T) {
	ctx := context.Background()
	eng, _, _, _ := newTestEngine(LIFO)

	product := id.New()
	warehouse := id.New()
	supplier := id.New()

	require.NoError(t, eng.Apply(ctx, purchaseReq(product, warehouse, supplier, qty(10), "5.00")))
	require.NoError(t, eng.Apply(ctx, purchaseReq(product, warehouse, supplier, qty(5), "7.00")))

	require.NoError(t, eng.Apply(ctx, &OperationRequest{
		Kind:        OpDecrease,
		ProductID:   product,
		Quantity:    qty(12),
		WarehouseTo: warehouse,
	}))

	// Newest-first: the 7.00 lot goes entirely, 7 units from the 5.00 lot.
	lots, err := eng.ReconstructLots(ctx, product, warehouse)
	require.NoError(t, err)
	require.Len(t, lots, 1)
	assert.Equal(t, qty(3), lots[0].Remaining)
	assert.True(t, lots[0].UnitCost.Equal(types.MustMoney("5.00")))
}

// A ledger that already contains debits must reconstruct to the same
// total as the aggregate query, and further LIFO decreases must draw
// from the surviving lots, not from lots already spent.
func TestLIFOReconstructionAfterDecrease(t *testing.T) {
	ctx := context.Background()
	eng, _, _, _ := newTestEngine(LIFO)

	product := id.New()
	warehouse := id.New()
	supplier := id.New()

	require.NoError(t, eng.Apply(ctx, purchaseReq(product, warehouse, supplier, qty(10), "5.00")))
	require.NoError(t, eng.Apply(ctx, purchaseReq(product, warehouse, supplier, qty(5), "7.00")))
	require.NoError(t, eng.Apply(ctx, &OperationRequest{
		Kind: OpDecrease, ProductID: product, Quantity: qty(12), WarehouseTo: warehouse,
	}))
	require.NoError(t, eng.Apply(ctx, purchaseReq(product, warehouse, supplier, qty(4), "9.00")))

	// Newest first: the fresh 9.00 lot, then what is left of the 5.00 lot.
	lots, err := eng.ReconstructLots(ctx, product, warehouse)
	require.NoError(t, err)
	require.Len(t, lots, 2)
	assert.Equal(t, qty(4), lots[0].Remaining)
	assert.True(t, lots[0].UnitCost.Equal(types.MustMoney("9.00")))
	assert.Equal(t, qty(3), lots[1].Remaining)
	assert.True(t, lots[1].UnitCost.Equal(types.MustMoney("5.00")))

	current, err := eng.CurrentStock(ctx, product, StockFilter{Warehouse: &warehouse})
	require.NoError(t, err)
	assert.Equal(t, current, lotTotal(lots))

	// Consumes all 4 of the 9.00 lot and 1 unit of the 5.00 lot.
	require.NoError(t, eng.Apply(ctx, &OperationRequest{
		Kind: OpDecrease, ProductID: product, Quantity: qty(5), WarehouseTo: warehouse,
	}))

	lots, err = eng.ReconstructLots(ctx, product, warehouse)
	require.NoError(t, err)
	require.Len(t, lots, 1)
	assert.Equal(t, qty(2), lots[0].Remaining)
	assert.True(t, lots[0].UnitCost.Equal(types.MustMoney("5.00")))

	current, err = eng.CurrentStock(ctx, product, StockFilter{Warehouse: &warehouse})
	require.NoError(t, err)
	assert.Equal(t, qty(2), current)
	assert.Equal(t, current, lotTotal(lots))
}

// Debits drawn from a non-costed increase carry no cost record tag;
// reconstruction still has to net them against the right lot.
func TestLIFOReconstructionWithUntaggedLots(t *testing.T) {
	ctx := context.Background()
	eng, _, _, _ := newTestEngine(LIFO)

	product := id.New()
	warehouse := id.New()
	supplier := id.New()

	require.NoError(t, eng.Apply(ctx, &OperationRequest{
		Kind: OpIncrease, ProductID: product, Quantity: qty(5), WarehouseTo: warehouse,
	}))
	require.NoError(t, eng.Apply(ctx, purchaseReq(product, warehouse, supplier, qty(3), "2.00")))

	// Takes the whole 3-unit purchase lot, then 3 from the increase.
	require.NoError(t, eng.Apply(ctx, &OperationRequest{
		Kind: OpDecrease, ProductID: product, Quantity: qty(6), WarehouseTo: warehouse,
	}))

	lots, err := eng.ReconstructLots(ctx, product, warehouse)
	require.NoError(t, err)
	require.Len(t, lots, 1)
	assert.Nil(t, lots[0].LotID)
	assert.Equal(t, qty(2), lots[0].Remaining)

	current, err := eng.CurrentStock(ctx, product, StockFilter{Warehouse: &warehouse})
	require.NoError(t, err)
	assert.Equal(t, current, lotTotal(lots))
}

func TestDecreaseInsufficientStock(t *testing.T) {
	ctx := context.Background()
	eng, store, _, _ := newTestEngine(FIFO)

	product := id.New()
	warehouse := id.New()
	supplier := id.New()

	require.NoError(t, eng.Apply(ctx, purchaseReq(product, warehouse, supplier, qty(10), "5.00")))
	require.NoError(t, eng.Apply(ctx, purchaseReq(product, warehouse, supplier, qty(5), "7.00")))
	before := store.count()

	err := eng.Apply(ctx, &OperationRequest{
		Kind:        OpDecrease,
		ProductID:   product,
		Quantity:    qty(16),
		WarehouseTo: warehouse,
	})
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))

	// Nothing written, stock untouched.
	assert.Equal(t, before, store.count())
	current, err := eng.CurrentStock(ctx, product, StockFilter{Warehouse: &warehouse})
	require.NoError(t, err)
	assert.Equal(t, qty(15), current)
}

func TestTransfer(t *testing.T) {
	ctx := context.Background()
	eng, store, _, _ := newTestEngine(FIFO)

	product := id.New()
	w1 := id.New()
	w2 := id.New()
	supplier := id.New()

	require.NoError(t, eng.Apply(ctx, purchaseReq(product, w1, supplier, qty(3), "2.50")))
	before := store.count()

	// More than the source holds: rejected whole, nothing written.
	err := eng.Apply(ctx, &OperationRequest{
		Kind:          OpTransfer,
		ProductID:     product,
		Quantity:      qty(4),
		WarehouseFrom: &w1,
		WarehouseTo:   w2,
	})
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))
	assert.Equal(t, before, store.count())

	require.NoError(t, eng.Apply(ctx, &OperationRequest{
		Kind:          OpTransfer,
		ProductID:     product,
		Quantity:      qty(3),
		WarehouseFrom: &w1,
		WarehouseTo:   w2,
	}))

	atSource, err := eng.CurrentStock(ctx, product, StockFilter{Warehouse: &w1})
	require.NoError(t, err)
	assert.Equal(t, qty(0), atSource)

	atDest, err := eng.CurrentStock(ctx, product, StockFilter{Warehouse: &w2})
	require.NoError(t, err)
	assert.Equal(t, qty(3), atDest)

	// Conservation: the total across all warehouses is unchanged.
	total, err := eng.CurrentStock(ctx, product, StockFilter{})
	require.NoError(t, err)
	assert.Equal(t, qty(3), total)

	// The destination lot keeps the source lot's cost record.
	lots, err := eng.ReconstructLots(ctx, product, w2)
	require.NoError(t, err)
	require.Len(t, lots, 1)
	require.NotNil(t, lots[0].LotID)
	assert.True(t, lots[0].UnitCost.Equal(types.MustMoney("2.50")))
}

func TestTransferSplitsAcrossLots(t *testing.T) {
	ctx := context.Background()
	eng, store, _, _ := newTestEngine(FIFO)

	product := id.New()
	w1 := id.New()
	w2 := id.New()
	supplier := id.New()

	require.NoError(t, eng.Apply(ctx, purchaseReq(product, w1, supplier, qty(2), "1.00")))
	require.NoError(t, eng.Apply(ctx, purchaseReq(product, w1, supplier, qty(2), "2.00")))

	require.NoError(t, eng.Apply(ctx, &OperationRequest{
		Kind:          OpTransfer,
		ProductID:     product,
		Quantity:      qty(3),
		WarehouseFrom: &w1,
		WarehouseTo:   w2,
	}))

	// Two consumed slices, each a credit/debit pair sharing one lot.
	entries, err := store.Query(ctx, ledger.Filter{ProductID: product, Kinds: []ledger.Kind{ledger.KindTransfer}})
	require.NoError(t, err)
	require.Len(t, entries, 4)

	byLot := make(map[id.ID]types.Quantity)
	for _, m := range entries {
		require.NotNil(t, m.LotID)
		byLot[*m.LotID] += m.Quantity
	}
	// Each pair nets to zero per lot.
	require.Len(t, byLot, 2)
	for _, net := range byLot {
		assert.Equal(t, qty(0), net)
	}

	// Destination lots keep source ordering and pricing.
	lots, err := eng.ReconstructLots(ctx, product, w2)
	require.NoError(t, err)
	require.Len(t, lots, 2)
	assert.Equal(t, qty(2), lots[0].Remaining)
	assert.True(t, lots[0].UnitCost.Equal(types.MustMoney("1.00")))
	assert.Equal(t, qty(1), lots[1].Remaining)
	assert.True(t, lots[1].UnitCost.Equal(types.MustMoney("2.00")))

	// What the source has left is the untouched tail of the second lot.
	srcLots, err := eng.ReconstructLots(ctx, product, w1)
	require.NoError(t, err)
	require.Len(t, srcLots, 1)
	assert.Equal(t, qty(1), srcLots[0].Remaining)
	assert.True(t, srcLots[0].UnitCost.Equal(types.MustMoney("2.00")))
}

func TestBalanceMatchesLotTotal(t *testing.T) {
	ctx := context.Background()
	eng, _, _, _ := newTestEngine(FIFO)

	product := id.New()
	warehouse := id.New()
	supplier := id.New()

	require.NoError(t, eng.Apply(ctx, purchaseReq(product, warehouse, supplier, qty(7), "3.00")))
	require.NoError(t, eng.Apply(ctx, &OperationRequest{
		Kind: OpIncrease, ProductID: product, Quantity: qty(4), WarehouseTo: warehouse,
	}))
	require.NoError(t, eng.Apply(ctx, &OperationRequest{
		Kind: OpDecrease, ProductID: product, Quantity: qty(6), WarehouseTo: warehouse,
	}))
	require.NoError(t, eng.Apply(ctx, purchaseReq(product, warehouse, supplier, qty(2), "4.50")))
	require.NoError(t, eng.Apply(ctx, &OperationRequest{
		Kind: OpDecrease, ProductID: product, Quantity: qty(3), WarehouseTo: warehouse,
	}))

	lots, err := eng.ReconstructLots(ctx, product, warehouse)
	require.NoError(t, err)
	current, err := eng.CurrentStock(ctx, product, StockFilter{Warehouse: &warehouse})
	require.NoError(t, err)

	assert.Equal(t, current, lotTotal(lots))
	assert.Equal(t, qty(4), current)
}

func TestReconstructIsIdempotent(t *testing.T) {
	ctx := context.Background()
	eng, _, _, _ := newTestEngine(FIFO)

	product := id.New()
	warehouse := id.New()
	supplier := id.New()

	require.NoError(t, eng.Apply(ctx, purchaseReq(product, warehouse, supplier, qty(10), "5.00")))
	require.NoError(t, eng.Apply(ctx, &OperationRequest{
		Kind: OpDecrease, ProductID: product, Quantity: qty(4), WarehouseTo: warehouse,
	}))

	first, err := eng.ReconstructLots(ctx, product, warehouse)
	require.NoError(t, err)
	second, err := eng.ReconstructLots(ctx, product, warehouse)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestOverdrawnHistoryEmptiesWithoutError(t *testing.T) {
	ctx := context.Background()
	eng, store, _, _ := newTestEngine(FIFO)

	product := id.New()
	warehouse := id.New()

	// Hand-crafted corrupt history: debits exceed credits.
	credit := ledger.NewMutation(product, warehouse, nil, nil, qty(5))
	_, err := store.Append(ctx, credit)
	require.NoError(t, err)
	debit := ledger.NewMutation(product, warehouse, nil, nil, qty(8).Neg())
	debit.CreatedAt = credit.CreatedAt.Add(time.Second)
	_, err = store.Append(ctx, debit)
	require.NoError(t, err)

	lots, err := eng.ReconstructLots(ctx, product, warehouse)
	require.NoError(t, err)
	assert.Empty(t, lots)

	current, err := eng.CurrentStock(ctx, product, StockFilter{Warehouse: &warehouse})
	require.NoError(t, err)
	assert.Equal(t, qty(-3), current)
}

func TestApplyValidation(t *testing.T) {
	ctx := context.Background()
	product := id.New()
	warehouse := id.New()
	supplier := id.New()
	cost := types.MustMoney("1.00")
	zeroCost := types.ZeroMoney()

	tests := []struct {
		name string
		req  *OperationRequest
	}{
		{"unknown kind", &OperationRequest{Kind: "melt", ProductID: product, Quantity: qty(1), WarehouseTo: warehouse}},
		{"missing product", &OperationRequest{Kind: OpIncrease, Quantity: qty(1), WarehouseTo: warehouse}},
		{"zero quantity", &OperationRequest{Kind: OpIncrease, ProductID: product, WarehouseTo: warehouse}},
		{"negative quantity", &OperationRequest{Kind: OpIncrease, ProductID: product, Quantity: qty(1).Neg(), WarehouseTo: warehouse}},
		{"missing warehouse", &OperationRequest{Kind: OpIncrease, ProductID: product, Quantity: qty(1)}},
		{"purchase without supplier", &OperationRequest{Kind: OpPurchase, ProductID: product, Quantity: qty(1), WarehouseTo: warehouse, UnitCost: &cost}},
		{"purchase without cost", &OperationRequest{Kind: OpPurchase, ProductID: product, Quantity: qty(1), WarehouseTo: warehouse, SupplierID: &supplier}},
		{"purchase with zero cost", &OperationRequest{Kind: OpPurchase, ProductID: product, Quantity: qty(1), WarehouseTo: warehouse, SupplierID: &supplier, UnitCost: &zeroCost}},
		{"transfer without source", &OperationRequest{Kind: OpTransfer, ProductID: product, Quantity: qty(1), WarehouseTo: warehouse}},
		{"transfer to itself", &OperationRequest{Kind: OpTransfer, ProductID: product, Quantity: qty(1), WarehouseFrom: &warehouse, WarehouseTo: warehouse}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng, store, _, _ := newTestEngine(FIFO)
			err := eng.Apply(ctx, tt.req)
			require.Error(t, err)
			assert.True(t, apperror.IsValidation(err), "want validation error, got %v", err)
			assert.Zero(t, store.count())
		})
	}
}

func TestUnknownReferenceRejected(t *testing.T) {
	ctx := context.Background()

	registry := ref.NewRegistry()
	registry.Register(ref.KindDocument, ref.ResolverFunc(func(ctx context.Context, refID id.ID) (bool, error) {
		return false, nil
	}))

	eng, store, _, _ := newTestEngine(FIFO, WithReferenceRegistry(registry))

	docRef := &ref.Ref{Kind: ref.KindDocument, ID: id.New()}
	err := eng.Apply(ctx, &OperationRequest{
		Kind:        OpIncrease,
		ProductID:   id.New(),
		Quantity:    qty(1),
		WarehouseTo: id.New(),
		Reference:   docRef,
	})
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))
	assert.Zero(t, store.count())
}

func TestSetLevel(t *testing.T) {
	ctx := context.Background()
	eng, store, _, _ := newTestEngine(FIFO)

	product := id.New()
	warehouse := id.New()
	supplier := id.New()

	require.NoError(t, eng.Apply(ctx, purchaseReq(product, warehouse, supplier, qty(10), "5.00")))

	// Lowering goes through allocation, so the delta keeps lot tags.
	require.NoError(t, eng.SetLevel(ctx, product, warehouse, qty(4), nil))
	current, err := eng.CurrentStock(ctx, product, StockFilter{Warehouse: &warehouse})
	require.NoError(t, err)
	assert.Equal(t, qty(4), current)

	debits, err := store.Query(ctx, ledger.Filter{ProductID: product, Sign: ledger.SignNegative})
	require.NoError(t, err)
	require.Len(t, debits, 1)
	assert.NotNil(t, debits[0].LotID)

	// Raising emits a plain credit.
	require.NoError(t, eng.SetLevel(ctx, product, warehouse, qty(9), nil))
	current, err = eng.CurrentStock(ctx, product, StockFilter{Warehouse: &warehouse})
	require.NoError(t, err)
	assert.Equal(t, qty(9), current)

	// Already at level: no write.
	before := store.count()
	require.NoError(t, eng.SetLevel(ctx, product, warehouse, qty(9), nil))
	assert.Equal(t, before, store.count())

	err = eng.SetLevel(ctx, product, warehouse, qty(1).Neg(), nil)
	require.Error(t, err)
	assert.True(t, apperror.IsValidation(err))
}

func TestPurchaseRecomputesAverage(t *testing.T) {
	ctx := context.Background()
	eng, _, _, averages := newTestEngine(FIFO)

	product := id.New()
	warehouse := id.New()
	supplier := id.New()

	require.NoError(t, eng.Apply(ctx, purchaseReq(product, warehouse, supplier, qty(10), "5.00")))
	require.NoError(t, eng.Apply(ctx, purchaseReq(product, warehouse, supplier, qty(5), "7.00")))

	avg, ok := averages.get(product)
	require.True(t, ok)
	assert.True(t, avg.Equal(types.MustMoney("6.00")), "got %s", avg)
}

type lowStockCall struct {
	productID   id.ID
	warehouseID id.ID
	remaining   types.Quantity
}

type captureNotifier struct {
	calls []lowStockCall
}

func (n *captureNotifier) LowStock(ctx context.Context, productID, warehouseID id.ID, remaining types.Quantity) {
	n.calls = append(n.calls, lowStockCall{productID, warehouseID, remaining})
}

func TestLowStockNotification(t *testing.T) {
	ctx := context.Background()
	notifier := &captureNotifier{}
	threshold := func(ctx context.Context, productID id.ID) (types.Quantity, error) {
		return qty(5), nil
	}
	eng, _, _, _ := newTestEngine(FIFO, WithNotifier(notifier, threshold))

	product := id.New()
	warehouse := id.New()
	supplier := id.New()

	require.NoError(t, eng.Apply(ctx, purchaseReq(product, warehouse, supplier, qty(10), "5.00")))

	// Still above threshold.
	require.NoError(t, eng.Apply(ctx, &OperationRequest{
		Kind: OpDecrease, ProductID: product, Quantity: qty(4), WarehouseTo: warehouse,
	}))
	assert.Empty(t, notifier.calls)

	// Drops to 3, below the threshold of 5.
	require.NoError(t, eng.Apply(ctx, &OperationRequest{
		Kind: OpDecrease, ProductID: product, Quantity: qty(3), WarehouseTo: warehouse,
	}))
	require.Len(t, notifier.calls, 1)
	assert.Equal(t, product, notifier.calls[0].productID)
	assert.Equal(t, qty(3), notifier.calls[0].remaining)
}

func TestTransferDoesNotNotifyLowStock(t *testing.T) {
	ctx := context.Background()
	notifier := &captureNotifier{}
	threshold := func(ctx context.Context, productID id.ID) (types.Quantity, error) {
		return qty(5), nil
	}
	eng, _, _, _ := newTestEngine(FIFO, WithNotifier(notifier, threshold))

	product := id.New()
	w1 := id.New()
	w2 := id.New()
	supplier := id.New()

	// Total of 3 is already below the threshold of 5.
	require.NoError(t, eng.Apply(ctx, purchaseReq(product, w1, supplier, qty(3), "2.50")))

	// The transfer conserves the total, so no notification fires.
	require.NoError(t, eng.Apply(ctx, &OperationRequest{
		Kind:          OpTransfer,
		ProductID:     product,
		Quantity:      qty(2),
		WarehouseFrom: &w1,
		WarehouseTo:   w2,
	}))
	assert.Empty(t, notifier.calls)
}

func TestStoreFailureSurfacesWithoutPartialWrite(t *testing.T) {
	ctx := context.Background()
	eng, store, _, _ := newTestEngine(FIFO)

	product := id.New()
	warehouse := id.New()
	supplier := id.New()

	require.NoError(t, eng.Apply(ctx, purchaseReq(product, warehouse, supplier, qty(10), "5.00")))
	before := store.count()

	store.failNextAppend = true
	err := eng.Apply(ctx, &OperationRequest{
		Kind: OpDecrease, ProductID: product, Quantity: qty(4), WarehouseTo: warehouse,
	})
	require.Error(t, err)
	assert.Equal(t, before, store.count())

	current, err := eng.CurrentStock(ctx, product, StockFilter{Warehouse: &warehouse})
	require.NoError(t, err)
	assert.Equal(t, qty(10), current)
}

// A store failure while sizing a shortfall must surface as the store
// error, not masquerade as InsufficientStock with available=0.
func TestShortfallLookupFailureSurfacesStoreError(t *testing.T) {
	ctx := context.Background()
	eng, store, _, _ := newTestEngine(FIFO)

	store.failNextSum = true
	err := eng.insufficient(ctx, id.New(), id.New(), qty(1))
	require.Error(t, err)
	assert.False(t, apperror.IsInsufficientStock(err))
	assert.ErrorIs(t, err, errMemStore)
}
