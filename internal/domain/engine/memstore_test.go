package engine

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"sync"

	"stockcore/internal/core/id"
	"stockcore/internal/core/types"
	"stockcore/internal/domain/costing"
	"stockcore/internal/domain/ledger"

	"github.com/shopspring/decimal"
)

// memLedger is an in-memory ledger.Store for engine tests.
type memLedger struct {
	mu        sync.Mutex
	mutations []ledger.Mutation

	// failNextAppend forces the next write to fail, for atomicity tests.
	failNextAppend bool

	// failNextSum forces the next aggregate read to fail.
	failNextSum bool
}

var errMemStore = errors.New("simulated store failure")

func newMemLedger() *memLedger {
	return &memLedger{}
}

func (s *memLedger) Append(ctx context.Context, m *ledger.Mutation) (id.ID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failNextAppend {
		s.failNextAppend = false
		return id.Nil(), errMemStore
	}

	s.mutations = append(s.mutations, *m)
	return m.ID, nil
}

func (s *memLedger) AppendAll(ctx context.Context, ms []*ledger.Mutation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.failNextAppend {
		s.failNextAppend = false
		return errMemStore
	}

	// All-or-nothing under one lock acquisition.
	for _, m := range ms {
		s.mutations = append(s.mutations, *m)
	}
	return nil
}

func (s *memLedger) Query(ctx context.Context, f ledger.Filter) ([]ledger.Mutation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []ledger.Mutation
	for _, m := range s.mutations {
		if matches(m, f) {
			out = append(out, m)
		}
	}

	desc := f.Direction == ledger.Desc
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			if desc {
				return a.CreatedAt.After(b.CreatedAt)
			}
			return a.CreatedAt.Before(b.CreatedAt)
		}
		cmp := bytes.Compare(a.ID[:], b.ID[:])
		if desc {
			return cmp > 0
		}
		return cmp < 0
	})

	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return nil, nil
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *memLedger) Sum(ctx context.Context, f ledger.Filter) (types.Quantity, error) {
	s.mu.Lock()
	if s.failNextSum {
		s.failNextSum = false
		s.mu.Unlock()
		return 0, errMemStore
	}
	s.mu.Unlock()

	ms, err := s.Query(ctx, f)
	if err != nil {
		return 0, err
	}
	var total types.Quantity
	for _, m := range ms {
		total += m.Quantity
	}
	return total, nil
}

func (s *memLedger) BalancesByWarehouse(ctx context.Context, warehouseID id.ID) ([]ledger.ProductBalance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	totals := make(map[id.ID]types.Quantity)
	var order []id.ID
	for _, m := range s.mutations {
		if m.WarehouseTo != warehouseID {
			continue
		}
		if _, ok := totals[m.ProductID]; !ok {
			order = append(order, m.ProductID)
		}
		totals[m.ProductID] += m.Quantity
	}

	out := make([]ledger.ProductBalance, 0, len(order))
	for _, pid := range order {
		out = append(out, ledger.ProductBalance{ProductID: pid, Total: totals[pid]})
	}
	return out, nil
}

func (s *memLedger) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.mutations)
}

func matches(m ledger.Mutation, f ledger.Filter) bool {
	if m.ProductID != f.ProductID {
		return false
	}
	if f.Warehouse != nil && m.WarehouseTo != *f.Warehouse {
		return false
	}
	if f.Reference != nil {
		if m.Reference == nil || *m.Reference != *f.Reference {
			return false
		}
	}
	if len(f.LotIDs) > 0 {
		if m.LotID == nil {
			return false
		}
		found := false
		for _, lid := range f.LotIDs {
			if *m.LotID == lid {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	switch f.Sign {
	case ledger.SignPositive:
		if !m.Quantity.IsPositive() {
			return false
		}
	case ledger.SignNegative:
		if !m.Quantity.IsNegative() {
			return false
		}
	}
	if len(f.Kinds) > 0 {
		found := false
		for _, k := range f.Kinds {
			if m.Kind == k {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.Until != nil && m.CreatedAt.After(*f.Until) {
		return false
	}
	if f.Since != nil && m.CreatedAt.Before(*f.Since) {
		return false
	}
	return true
}

// memCosts is an in-memory costing.Store for engine tests.
type memCosts struct {
	mu      sync.Mutex
	records map[id.ID]costing.CostRecord
	order   []id.ID
}

func newMemCosts() *memCosts {
	return &memCosts{records: make(map[id.ID]costing.CostRecord)}
}

func (s *memCosts) Create(ctx context.Context, rec *costing.CostRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.ID] = *rec
	s.order = append(s.order, rec.ID)
	return nil
}

func (s *memCosts) GetByID(ctx context.Context, recID id.ID) (costing.CostRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[recID]
	if !ok {
		return costing.CostRecord{}, errors.New("cost record not found")
	}
	return rec, nil
}

func (s *memCosts) GetByIDs(ctx context.Context, ids []id.ID) (map[id.ID]costing.CostRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[id.ID]costing.CostRecord, len(ids))
	for _, recID := range ids {
		if rec, ok := s.records[recID]; ok {
			out[recID] = rec
		}
	}
	return out, nil
}

func (s *memCosts) ListByProduct(ctx context.Context, productID id.ID) ([]costing.CostRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []costing.CostRecord
	for _, recID := range s.order {
		if s.records[recID].ProductID == productID {
			out = append(out, s.records[recID])
		}
	}
	return out, nil
}

func (s *memCosts) ListBySupplier(ctx context.Context, supplierID id.ID) ([]costing.CostRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []costing.CostRecord
	for _, recID := range s.order {
		if s.records[recID].SupplierID == supplierID {
			out = append(out, s.records[recID])
		}
	}
	return out, nil
}

func (s *memCosts) AverageCost(ctx context.Context, productID id.ID) (types.Money, error) {
	recs, err := s.ListByProduct(ctx, productID)
	if err != nil {
		return types.ZeroMoney(), err
	}
	if len(recs) == 0 {
		return types.ZeroMoney(), nil
	}

	sum := types.ZeroMoney()
	for _, r := range recs {
		sum = sum.Add(r.UnitCost)
	}
	return sum.Div(decimal.NewFromInt(int64(len(recs)))), nil
}

// memAverages captures SetAverageCost calls.
type memAverages struct {
	mu     sync.Mutex
	latest map[id.ID]types.Money
}

func newMemAverages() *memAverages {
	return &memAverages{latest: make(map[id.ID]types.Money)}
}

func (s *memAverages) SetAverageCost(ctx context.Context, productID id.ID, avg types.Money) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest[productID] = avg
	return nil
}

func (s *memAverages) get(productID id.ID) (types.Money, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	avg, ok := s.latest[productID]
	return avg, ok
}

// newTestEngine wires an engine over fresh in-memory stores.
func newTestEngine(method Method, opts ...Option) (*Engine, *memLedger, *memCosts, *memAverages) {
	store := newMemLedger()
	costs := newMemCosts()
	averages := newMemAverages()
	costSvc := costing.NewService(costs, store, averages)

	eng, err := New(Config{Method: method}, store, costs, costSvc, opts...)
	if err != nil {
		panic(err)
	}
	return eng, store, costs, averages
}
