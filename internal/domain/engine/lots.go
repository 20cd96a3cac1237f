package engine

import (
	"context"
	"fmt"

	"stockcore/internal/core/id"
	"stockcore/internal/core/types"
	"stockcore/internal/domain/ledger"
)

// Lot is a reconstructed, not-fully-consumed quantity tied to one
// originating cost record. Lots are transient: they are rebuilt from the
// ledger on every allocation and never persisted.
type Lot struct {
	// LotID references the cost record the lot was purchased under.
	// Nil for lots created by non-costed increases.
	LotID *id.ID `json:"lotId,omitempty"`

	// Remaining is the unconsumed quantity. Always > 0 in a reconstructed
	// result; fully consumed lots are dropped.
	Remaining types.Quantity `json:"remaining"`

	// UnitCost is the purchase price per unit, zero for non-costed lots.
	UnitCost types.Money `json:"unitCost"`
}

// ReconstructLots replays the full mutation history for one
// (product, warehouse) pair and returns the currently open lots.
//
// Replay is always chronological, so every debit nets against lots that
// were actually open when it was written; the configured method only
// decides the order of the survivors: oldest purchase first under FIFO,
// newest first under LIFO. The allocator consumes the result front to
// back either way.
//
// An over-drawn history (debits exceeding accumulated credits) empties the
// working list without error; stock sufficiency is the allocator's
// responsibility, not the reconstructor's.
func (e *Engine) ReconstructLots(ctx context.Context, productID, warehouseID id.ID) ([]Lot, error) {
	mutations, err := e.store.Query(ctx, ledger.Filter{
		ProductID: productID,
		Warehouse: &warehouseID,
		Direction: ledger.Asc,
	})
	if err != nil {
		return nil, fmt.Errorf("query mutations: %w", err)
	}

	lots := replay(mutations, e.cfg.Method)
	if len(lots) == 0 {
		return nil, nil
	}

	if err := e.priceLots(ctx, lots); err != nil {
		return nil, err
	}

	return lots, nil
}

// replay walks mutations oldest-first: credits push lots in chronological
// order, debits are absorbed by consume. Survivors come back in the
// method's consumption order.
func replay(mutations []ledger.Mutation, method Method) []Lot {
	var open []Lot

	for _, m := range mutations {
		switch {
		case m.Quantity.IsPositive():
			open = append(open, Lot{
				LotID:     m.LotID,
				Remaining: m.Quantity,
			})
		case m.Quantity.IsZero():
		default:
			open = consume(open, m.LotID, m.Quantity.Abs(), method)
		}
	}

	if method == LIFO {
		for i, j := 0, len(open)-1; i < j; i, j = i+1, j-1 {
			open[i], open[j] = open[j], open[i]
		}
	}
	return open
}

// consume absorbs one debit into the working list. A tagged debit nets
// against the open lots carrying the same cost record first — the ledger
// says exactly which lot it drew from, so replay order cannot misattribute
// it. What remains, and any untagged debit, falls back to consumption in
// method order (oldest lot under FIFO, newest under LIFO), matching how
// the allocator picked lots when the debit was written.
func consume(open []Lot, lotID *id.ID, amount types.Quantity, method Method) []Lot {
	if lotID != nil {
		for i := 0; i < len(open) && amount.IsPositive(); {
			if open[i].LotID == nil || *open[i].LotID != *lotID {
				i++
				continue
			}
			take := open[i].Remaining.Min(amount)
			open[i].Remaining -= take
			amount -= take
			if open[i].Remaining.IsZero() {
				open = append(open[:i], open[i+1:]...)
			} else {
				i++
			}
		}
	}

	for amount.IsPositive() && len(open) > 0 {
		i := 0
		if method == LIFO {
			i = len(open) - 1
		}
		take := open[i].Remaining.Min(amount)
		open[i].Remaining -= take
		amount -= take
		if open[i].Remaining.IsZero() {
			open = append(open[:i], open[i+1:]...)
		}
	}
	return open
}

// priceLots fills the unit cost of each surviving lot from its cost record.
func (e *Engine) priceLots(ctx context.Context, lots []Lot) error {
	ids := make([]id.ID, 0, len(lots))
	seen := make(map[id.ID]bool, len(lots))
	for _, l := range lots {
		if l.LotID != nil && !seen[*l.LotID] {
			seen[*l.LotID] = true
			ids = append(ids, *l.LotID)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	records, err := e.costs.GetByIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("lookup cost records: %w", err)
	}

	for i := range lots {
		if lots[i].LotID == nil {
			continue
		}
		if rec, ok := records[*lots[i].LotID]; ok {
			lots[i].UnitCost = rec.UnitCost
		}
	}

	return nil
}

// lotTotal sums the remaining quantity over reconstructed lots. Must match
// the aggregate stock query for the same (product, warehouse) pair.
func lotTotal(lots []Lot) types.Quantity {
	var total types.Quantity
	for _, l := range lots {
		total += l.Remaining
	}
	return total
}
