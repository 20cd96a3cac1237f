package costing

import (
	"context"
	"testing"

	"stockcore/internal/core/id"
	"stockcore/internal/core/types"
	"stockcore/internal/domain/ledger"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubStore struct {
	created    []*CostRecord
	bySupplier map[id.ID][]CostRecord
	average    types.Money
}

func (s *stubStore) Create(ctx context.Context, rec *CostRecord) error {
	s.created = append(s.created, rec)
	return nil
}

func (s *stubStore) GetByID(ctx context.Context, recID id.ID) (CostRecord, error) {
	for _, rec := range s.created {
		if rec.ID == recID {
			return *rec, nil
		}
	}
	return CostRecord{}, nil
}

func (s *stubStore) GetByIDs(ctx context.Context, ids []id.ID) (map[id.ID]CostRecord, error) {
	out := make(map[id.ID]CostRecord)
	for _, recID := range ids {
		rec, _ := s.GetByID(ctx, recID)
		if rec.ID == recID {
			out[recID] = rec
		}
	}
	return out, nil
}

func (s *stubStore) ListByProduct(ctx context.Context, productID id.ID) ([]CostRecord, error) {
	var out []CostRecord
	for _, rec := range s.created {
		if rec.ProductID == productID {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (s *stubStore) ListBySupplier(ctx context.Context, supplierID id.ID) ([]CostRecord, error) {
	return s.bySupplier[supplierID], nil
}

func (s *stubStore) AverageCost(ctx context.Context, productID id.ID) (types.Money, error) {
	return s.average, nil
}

type stubLedger struct {
	ledger.Store
	lastFilter ledger.Filter
	result     []ledger.Mutation
}

func (s *stubLedger) Query(ctx context.Context, f ledger.Filter) ([]ledger.Mutation, error) {
	s.lastFilter = f
	return s.result, nil
}

type stubAverages struct {
	productID id.ID
	avg       types.Money
	calls     int
}

func (s *stubAverages) SetAverageCost(ctx context.Context, productID id.ID, avg types.Money) error {
	s.productID = productID
	s.avg = avg
	s.calls++
	return nil
}

func TestRecord(t *testing.T) {
	ctx := context.Background()
	store := &stubStore{}
	svc := NewService(store, &stubLedger{}, nil)

	product := id.New()
	supplier := id.New()

	rec, err := svc.Record(ctx, product, supplier, types.MustMoney("5.00"))
	require.NoError(t, err)
	require.Len(t, store.created, 1)
	assert.False(t, id.IsNil(rec.ID))
	assert.Equal(t, product, rec.ProductID)
	assert.Equal(t, supplier, rec.SupplierID)
	assert.True(t, rec.UnitCost.Equal(types.MustMoney("5.00")))
}

func TestRecomputeAverage(t *testing.T) {
	ctx := context.Background()
	store := &stubStore{average: types.MustMoney("6.00")}
	averages := &stubAverages{}
	svc := NewService(store, &stubLedger{}, averages)

	product := id.New()
	avg, err := svc.RecomputeAverage(ctx, product)
	require.NoError(t, err)
	assert.True(t, avg.Equal(types.MustMoney("6.00")))
	assert.Equal(t, 1, averages.calls)
	assert.Equal(t, product, averages.productID)
	assert.True(t, averages.avg.Equal(types.MustMoney("6.00")))
}

func TestRecomputeAverageWithoutWriter(t *testing.T) {
	ctx := context.Background()
	store := &stubStore{average: decimal.NewFromInt(3)}
	svc := NewService(store, &stubLedger{}, nil)

	avg, err := svc.RecomputeAverage(ctx, id.New())
	require.NoError(t, err)
	assert.True(t, avg.Equal(decimal.NewFromInt(3)))
}

func TestSupplierHistory(t *testing.T) {
	ctx := context.Background()
	product := id.New()
	other := id.New()
	supplier := id.New()

	mine := CostRecord{ID: id.New(), ProductID: product, SupplierID: supplier}
	theirs := CostRecord{ID: id.New(), ProductID: other, SupplierID: supplier}

	store := &stubStore{bySupplier: map[id.ID][]CostRecord{
		supplier: {mine, theirs},
	}}
	led := &stubLedger{result: []ledger.Mutation{{ProductID: product}}}
	svc := NewService(store, led, nil)

	out, err := svc.SupplierHistory(ctx, product, supplier)
	require.NoError(t, err)
	require.Len(t, out, 1)

	// Only lots belonging to the requested product are queried.
	assert.Equal(t, product, led.lastFilter.ProductID)
	assert.Equal(t, []id.ID{mine.ID}, led.lastFilter.LotIDs)
	assert.Equal(t, ledger.Asc, led.lastFilter.Direction)
}

func TestSupplierHistoryNoRecords(t *testing.T) {
	ctx := context.Background()
	store := &stubStore{bySupplier: map[id.ID][]CostRecord{}}
	led := &stubLedger{}
	svc := NewService(store, led, nil)

	out, err := svc.SupplierHistory(ctx, id.New(), id.New())
	require.NoError(t, err)
	assert.Empty(t, out)
	// The ledger is never consulted without matching lots.
	assert.Empty(t, led.lastFilter.LotIDs)
}
