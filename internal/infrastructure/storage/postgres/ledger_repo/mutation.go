// Package ledger_repo provides the PostgreSQL implementation of the
// stock mutation ledger.
package ledger_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"stockcore/internal/core/id"
	"stockcore/internal/core/ref"
	"stockcore/internal/core/types"
	"stockcore/internal/domain/ledger"
	"stockcore/internal/infrastructure/storage/postgres"
)

const mutationsTable = "stock_mutations"

var mutationColumns = []string{
	"id", "product_id", "warehouse_from_id", "warehouse_to_id",
	"lot_id", "quantity", "kind", "reference", "created_at", "description",
}

// Compile-time check.
var _ ledger.Store = (*MutationRepo)(nil)

// MutationRepo implements ledger.Store on PostgreSQL. Append-only: no
// update or delete statement exists in this file on purpose.
type MutationRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewMutationRepo creates a new mutation ledger repository.
func NewMutationRepo(txm *postgres.TxManager) *MutationRepo {
	return &MutationRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// mutationRow is the db-facing shape. Reference is value-typed so the
// text column scans through ref.Ref's sql.Scanner; a NULL scans to the
// zero Ref.
type mutationRow struct {
	ID              id.ID          `db:"id"`
	ProductID       id.ID          `db:"product_id"`
	WarehouseFromID *id.ID         `db:"warehouse_from_id"`
	WarehouseToID   id.ID          `db:"warehouse_to_id"`
	LotID           *id.ID         `db:"lot_id"`
	Quantity        types.Quantity `db:"quantity"`
	Kind            string         `db:"kind"`
	Reference       ref.Ref        `db:"reference"`
	CreatedAt       time.Time      `db:"created_at"`
	Description     *string        `db:"description"`
}

func toRow(m *ledger.Mutation) mutationRow {
	row := mutationRow{
		ID:              m.ID,
		ProductID:       m.ProductID,
		WarehouseFromID: m.WarehouseFrom,
		WarehouseToID:   m.WarehouseTo,
		LotID:           m.LotID,
		Quantity:        m.Quantity,
		Kind:            string(m.Kind),
		CreatedAt:       m.CreatedAt,
	}
	if m.Reference != nil {
		row.Reference = *m.Reference
	}
	if m.Description != "" {
		row.Description = &m.Description
	}
	return row
}

func (r mutationRow) toMutation() ledger.Mutation {
	m := ledger.Mutation{
		ID:            r.ID,
		ProductID:     r.ProductID,
		WarehouseFrom: r.WarehouseFromID,
		WarehouseTo:   r.WarehouseToID,
		LotID:         r.LotID,
		Quantity:      r.Quantity,
		Kind:          ledger.Kind(r.Kind),
		CreatedAt:     r.CreatedAt,
	}
	if !r.Reference.IsZero() {
		refCopy := r.Reference
		m.Reference = &refCopy
	}
	if r.Description != nil {
		m.Description = *r.Description
	}
	return m
}

func (r *MutationRepo) rowValues(row mutationRow) []any {
	return []any{
		row.ID, row.ProductID, row.WarehouseFromID, row.WarehouseToID,
		row.LotID, row.Quantity, row.Kind, row.Reference, row.CreatedAt, row.Description,
	}
}

// Append writes a single mutation.
func (r *MutationRepo) Append(ctx context.Context, m *ledger.Mutation) (id.ID, error) {
	q := r.builder.Insert(mutationsTable).
		Columns(mutationColumns...).
		Values(r.rowValues(toRow(m))...)

	sql, args, err := q.ToSql()
	if err != nil {
		return id.Nil(), fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return id.Nil(), fmt.Errorf("insert mutation: %w", err)
	}
	return m.ID, nil
}

// AppendAll writes all mutations in one transaction. Reuses an active
// transaction when the caller already opened one.
func (r *MutationRepo) AppendAll(ctx context.Context, ms []*ledger.Mutation) error {
	if len(ms) == 0 {
		return nil
	}

	return r.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		q := r.builder.Insert(mutationsTable).Columns(mutationColumns...)
		for _, m := range ms {
			q = q.Values(r.rowValues(toRow(m))...)
		}

		sql, args, err := q.ToSql()
		if err != nil {
			return fmt.Errorf("build insert: %w", err)
		}

		if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("insert mutations: %w", err)
		}
		return nil
	})
}

// applyFilter translates a ledger.Filter into WHERE conditions.
func applyFilter(q squirrel.SelectBuilder, f ledger.Filter) squirrel.SelectBuilder {
	q = q.Where(squirrel.Eq{"product_id": f.ProductID})

	if f.Warehouse != nil {
		q = q.Where(squirrel.Eq{"warehouse_to_id": *f.Warehouse})
	}
	if f.Reference != nil {
		q = q.Where(squirrel.Eq{"reference": f.Reference.String()})
	}
	if len(f.LotIDs) > 0 {
		q = q.Where(squirrel.Eq{"lot_id": f.LotIDs})
	}
	switch f.Sign {
	case ledger.SignPositive:
		q = q.Where(squirrel.Gt{"quantity": 0})
	case ledger.SignNegative:
		q = q.Where(squirrel.Lt{"quantity": 0})
	}
	if len(f.Kinds) > 0 {
		kinds := make([]string, 0, len(f.Kinds))
		for _, k := range f.Kinds {
			kinds = append(kinds, string(k))
		}
		q = q.Where(squirrel.Eq{"kind": kinds})
	}
	if f.Until != nil {
		q = q.Where(squirrel.LtOrEq{"created_at": *f.Until})
	}
	if f.Since != nil {
		q = q.Where(squirrel.GtOrEq{"created_at": *f.Since})
	}

	return q
}

// Query returns mutations matching the filter, ordered by
// (created_at, id). Ids are UUIDv7, so the tiebreak is time-ordered too.
func (r *MutationRepo) Query(ctx context.Context, f ledger.Filter) ([]ledger.Mutation, error) {
	q := applyFilter(r.builder.Select(mutationColumns...).From(mutationsTable), f)

	if f.Direction == ledger.Desc {
		q = q.OrderBy("created_at DESC", "id DESC")
	} else {
		q = q.OrderBy("created_at ASC", "id ASC")
	}
	if f.Limit > 0 {
		q = q.Limit(uint64(f.Limit))
	}
	if f.Offset > 0 {
		q = q.Offset(uint64(f.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []mutationRow
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("select mutations: %w", err)
	}

	out := make([]ledger.Mutation, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toMutation())
	}
	return out, nil
}

// Sum returns the signed total over matching mutations.
func (r *MutationRepo) Sum(ctx context.Context, f ledger.Filter) (types.Quantity, error) {
	q := applyFilter(r.builder.Select("COALESCE(SUM(quantity), 0)").From(mutationsTable), f)

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	var totalScaled int64
	err = r.txm.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&totalScaled)
	if err != nil && err != pgx.ErrNoRows {
		return 0, fmt.Errorf("sum mutations: %w", err)
	}

	return types.NewQuantityFromInt64Scaled(totalScaled), nil
}

// BalancesByWarehouse returns summed quantity per product at one
// warehouse, zero and negative balances included.
func (r *MutationRepo) BalancesByWarehouse(ctx context.Context, warehouseID id.ID) ([]ledger.ProductBalance, error) {
	q := r.builder.Select("product_id", "SUM(quantity) AS total").
		From(mutationsTable).
		Where(squirrel.Eq{"warehouse_to_id": warehouseID}).
		GroupBy("product_id").
		OrderBy("product_id")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var balances []ledger.ProductBalance
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &balances, sql, args...); err != nil {
		return nil, fmt.Errorf("select balances: %w", err)
	}

	return balances, nil
}
