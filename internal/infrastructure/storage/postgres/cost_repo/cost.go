// Package cost_repo provides the PostgreSQL implementation of the
// purchase cost record store.
package cost_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"stockcore/internal/core/apperror"
	"stockcore/internal/core/id"
	"stockcore/internal/core/types"
	"stockcore/internal/domain/costing"
	"stockcore/internal/infrastructure/storage/postgres"
)

const costsTable = "stock_purchase_costs"

var costColumns = []string{"id", "product_id", "supplier_id", "unit_cost", "created_at"}

// Compile-time check.
var _ costing.Store = (*CostRepo)(nil)

// CostRepo implements costing.Store on PostgreSQL. Create-only; cost
// records are immutable once written.
type CostRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewCostRepo creates a new cost record repository.
func NewCostRepo(txm *postgres.TxManager) *CostRepo {
	return &CostRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create persists a new cost record.
func (r *CostRepo) Create(ctx context.Context, rec *costing.CostRecord) error {
	q := r.builder.Insert(costsTable).
		Columns(costColumns...).
		Values(rec.ID, rec.ProductID, rec.SupplierID, rec.UnitCost, rec.CreatedAt)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.txm.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert cost record: %w", err)
	}
	return nil
}

// GetByID retrieves one cost record.
func (r *CostRepo) GetByID(ctx context.Context, recID id.ID) (costing.CostRecord, error) {
	q := r.builder.Select(costColumns...).
		From(costsTable).
		Where(squirrel.Eq{"id": recID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return costing.CostRecord{}, fmt.Errorf("build query: %w", err)
	}

	var rec costing.CostRecord
	if err := pgxscan.Get(ctx, r.txm.GetQuerier(ctx), &rec, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return costing.CostRecord{}, apperror.NewNotFound("cost record", recID.String())
		}
		return costing.CostRecord{}, fmt.Errorf("get cost record: %w", err)
	}
	return rec, nil
}

// GetByIDs retrieves several cost records keyed by id. Missing ids are
// absent from the result.
func (r *CostRepo) GetByIDs(ctx context.Context, ids []id.ID) (map[id.ID]costing.CostRecord, error) {
	if len(ids) == 0 {
		return map[id.ID]costing.CostRecord{}, nil
	}

	q := r.builder.Select(costColumns...).
		From(costsTable).
		Where(squirrel.Eq{"id": ids})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var recs []costing.CostRecord
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &recs, sql, args...); err != nil {
		return nil, fmt.Errorf("select cost records: %w", err)
	}

	out := make(map[id.ID]costing.CostRecord, len(recs))
	for _, rec := range recs {
		out[rec.ID] = rec
	}
	return out, nil
}

// ListByProduct returns all cost records for a product, oldest first.
func (r *CostRepo) ListByProduct(ctx context.Context, productID id.ID) ([]costing.CostRecord, error) {
	return r.list(ctx, squirrel.Eq{"product_id": productID})
}

// ListBySupplier returns all cost records created from a supplier.
func (r *CostRepo) ListBySupplier(ctx context.Context, supplierID id.ID) ([]costing.CostRecord, error) {
	return r.list(ctx, squirrel.Eq{"supplier_id": supplierID})
}

func (r *CostRepo) list(ctx context.Context, where squirrel.Eq) ([]costing.CostRecord, error) {
	q := r.builder.Select(costColumns...).
		From(costsTable).
		Where(where).
		OrderBy("created_at ASC", "id ASC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var recs []costing.CostRecord
	if err := pgxscan.Select(ctx, r.txm.GetQuerier(ctx), &recs, sql, args...); err != nil {
		return nil, fmt.Errorf("select cost records: %w", err)
	}
	return recs, nil
}

// AverageCost returns the mean unit cost across a product's cost
// records. Zero when the product has none.
func (r *CostRepo) AverageCost(ctx context.Context, productID id.ID) (types.Money, error) {
	q := r.builder.Select("COALESCE(AVG(unit_cost), 0)").
		From(costsTable).
		Where(squirrel.Eq{"product_id": productID})

	sql, args, err := q.ToSql()
	if err != nil {
		return types.ZeroMoney(), fmt.Errorf("build query: %w", err)
	}

	var avg types.Money
	err = r.txm.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&avg)
	if err != nil && err != pgx.ErrNoRows {
		return types.ZeroMoney(), fmt.Errorf("average cost: %w", err)
	}
	return avg, nil
}
