package ledger

import (
	"context"
	"time"

	"stockcore/internal/core/id"
	"stockcore/internal/core/ref"
	"stockcore/internal/core/types"
)

// Direction orders query results by creation time.
type Direction string

const (
	// Asc is oldest-first (FIFO replay order).
	Asc Direction = "asc"
	// Desc is newest-first (LIFO replay order).
	Desc Direction = "desc"
)

// Sign restricts a query to credits or debits.
type Sign int

const (
	SignAny Sign = iota
	SignPositive
	SignNegative
)

// Filter describes a ledger query. ProductID is always required; the rest
// narrow the result set.
type Filter struct {
	ProductID id.ID

	// Warehouse filters on the affected warehouse (warehouse_to).
	Warehouse *id.ID

	// Reference filters on the originating business document.
	Reference *ref.Ref

	// LotIDs filters on the cost lots entries draw from.
	LotIDs []id.ID

	Sign  Sign
	Kinds []Kind

	// Until keeps entries with created_at <= Until (point-in-time queries).
	Until *time.Time
	// Since keeps entries with created_at >= Since.
	Since *time.Time

	// Direction orders by (created_at, id). Ids are time-ordered UUIDv7,
	// so ties on created_at resolve deterministically within one store.
	Direction Direction

	Limit  int
	Offset int
}

// ProductBalance is a summed quantity for one product at one warehouse.
type ProductBalance struct {
	ProductID id.ID          `db:"product_id" json:"productId"`
	Total     types.Quantity `db:"total" json:"total"`
}

// Store is the append-only ledger storage boundary.
//
// Append and AppendAll are the only write paths; nothing ever updates or
// deletes a mutation. AppendAll is atomic: either every entry of one
// logical operation becomes visible or none does. This is what keeps a
// transfer's debit and credit legs from being split by a failure.
type Store interface {
	// Append writes a single mutation and returns its id.
	Append(ctx context.Context, m *Mutation) (id.ID, error)

	// AppendAll writes all mutations atomically.
	AppendAll(ctx context.Context, ms []*Mutation) error

	// Query returns mutations matching the filter, ordered per
	// Filter.Direction (default Asc).
	Query(ctx context.Context, f Filter) ([]Mutation, error)

	// Sum returns the signed quantity total over matching mutations.
	// Zero when nothing matches.
	Sum(ctx context.Context, f Filter) (types.Quantity, error)

	// BalancesByWarehouse returns the summed quantity per product at one
	// warehouse, including zero and negative balances.
	BalancesByWarehouse(ctx context.Context, warehouseID id.ID) ([]ProductBalance, error)
}
