// Package ledger defines the immutable stock mutation ledger.
//
// Every stock change is recorded as a signed, append-only ledger entry.
// Current stock, cost basis and lot traceability are all derived by
// replaying these entries; no running counter is ever authoritative.
package ledger

import (
	"time"

	"stockcore/internal/core/id"
	"stockcore/internal/core/ref"
	"stockcore/internal/core/types"
)

// Kind classifies a mutation.
type Kind string

const (
	// KindAdd is a plain credit (purchase or increase).
	KindAdd Kind = "add"
	// KindSubtract is a plain debit (decrease).
	KindSubtract Kind = "subtract"
	// KindTransfer marks both legs of a warehouse-to-warehouse move.
	KindTransfer Kind = "transfer"
)

// Mutation is a single ledger entry. Immutable once written: corrections
// are recorded as new mutations, never as updates or deletes.
type Mutation struct {
	ID id.ID `db:"id" json:"id"`

	// ProductID is the stockable item this entry belongs to.
	ProductID id.ID `db:"product_id" json:"productId"`

	// WarehouseFrom is set on transfer legs only and names the other end
	// of the move; the entry itself always affects WarehouseTo.
	WarehouseFrom *id.ID `db:"warehouse_from_id" json:"warehouseFromId,omitempty"`

	// WarehouseTo is the warehouse whose balance this entry affects.
	WarehouseTo id.ID `db:"warehouse_to_id" json:"warehouseToId"`

	// LotID references the purchase cost record this entry draws from or
	// creates. Nil for non-costed increases.
	LotID *id.ID `db:"lot_id" json:"lotId,omitempty"`

	// Quantity is signed: positive = credit, negative = debit.
	Quantity types.Quantity `db:"quantity" json:"quantity"`

	Kind Kind `db:"kind" json:"kind"`

	// Reference points to the originating business document, if any.
	Reference *ref.Ref `db:"reference" json:"reference,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`

	Description string `db:"description" json:"description,omitempty"`
}

// NewMutation creates a ledger entry with a generated time-ordered id.
// Kind is derived the same way for every emitter: a transfer leg when a
// source warehouse is present, otherwise add/subtract by sign.
func NewMutation(productID, warehouseTo id.ID, warehouseFrom, lotID *id.ID, qty types.Quantity) *Mutation {
	return &Mutation{
		ID:            id.New(),
		ProductID:     productID,
		WarehouseFrom: warehouseFrom,
		WarehouseTo:   warehouseTo,
		LotID:         lotID,
		Quantity:      qty,
		Kind:          deriveKind(qty, warehouseFrom),
		CreatedAt:     time.Now().UTC(),
	}
}

// WithReference attaches the originating document reference.
func (m *Mutation) WithReference(r *ref.Ref) *Mutation {
	m.Reference = r
	return m
}

// WithDescription attaches free-text context.
func (m *Mutation) WithDescription(desc string) *Mutation {
	m.Description = desc
	return m
}

// IsCredit reports whether the entry adds stock.
func (m *Mutation) IsCredit() bool { return m.Quantity.IsPositive() }

// IsDebit reports whether the entry consumes stock.
func (m *Mutation) IsDebit() bool { return m.Quantity.IsNegative() }

func deriveKind(qty types.Quantity, warehouseFrom *id.ID) Kind {
	if warehouseFrom != nil {
		return KindTransfer
	}
	if qty.IsPositive() {
		return KindAdd
	}
	return KindSubtract
}
