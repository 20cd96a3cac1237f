package costing

import (
	"context"
	"fmt"

	"stockcore/internal/core/id"
	"stockcore/internal/core/types"
	"stockcore/internal/domain/ledger"
	"stockcore/pkg/logger"
)

// AverageWriter persists a product's derived average purchase cost.
// Implemented by the product repository.
type AverageWriter interface {
	SetAverageCost(ctx context.Context, productID id.ID, avg types.Money) error
}

// Service provides cost record operations and derived cost reporting.
type Service struct {
	store    Store
	ledger   ledger.Store
	averages AverageWriter
}

// NewService creates a costing service. averages may be nil when no
// consumer needs the stored average (tests).
func NewService(store Store, ledgerStore ledger.Store, averages AverageWriter) *Service {
	return &Service{
		store:    store,
		ledger:   ledgerStore,
		averages: averages,
	}
}

// Record creates the cost record for one purchase.
func (s *Service) Record(ctx context.Context, productID, supplierID id.ID, unitCost types.Money) (*CostRecord, error) {
	rec := NewCostRecord(productID, supplierID, unitCost)
	if err := s.store.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("create cost record: %w", err)
	}
	return rec, nil
}

// RecomputeAverage refreshes the product's mean purchase cost after a
// purchase. The stored value is derived and for reporting only; it is
// never an input to lot allocation.
func (s *Service) RecomputeAverage(ctx context.Context, productID id.ID) (types.Money, error) {
	avg, err := s.store.AverageCost(ctx, productID)
	if err != nil {
		return types.ZeroMoney(), fmt.Errorf("average cost: %w", err)
	}

	if s.averages != nil {
		if err := s.averages.SetAverageCost(ctx, productID, avg); err != nil {
			return types.ZeroMoney(), fmt.Errorf("store average cost: %w", err)
		}
	}

	logger.Debug(ctx, "recomputed average purchase cost",
		"product_id", productID,
		"average", avg.String(),
	)

	return avg, nil
}

// SupplierHistory returns the mutations drawn from a supplier's cost
// records for one product, oldest first.
func (s *Service) SupplierHistory(ctx context.Context, productID, supplierID id.ID) ([]ledger.Mutation, error) {
	recs, err := s.store.ListBySupplier(ctx, supplierID)
	if err != nil {
		return nil, fmt.Errorf("list supplier cost records: %w", err)
	}

	lotIDs := make([]id.ID, 0, len(recs))
	for _, r := range recs {
		if r.ProductID == productID {
			lotIDs = append(lotIDs, r.ID)
		}
	}
	if len(lotIDs) == 0 {
		return nil, nil
	}

	return s.ledger.Query(ctx, ledger.Filter{
		ProductID: productID,
		LotIDs:    lotIDs,
		Direction: ledger.Asc,
	})
}
