package catalog_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"stockcore/internal/core/apperror"
	"stockcore/internal/core/id"
	"stockcore/internal/core/types"
	"stockcore/internal/domain/catalogs/product"
	"stockcore/internal/infrastructure/storage/postgres"
)

const productTable = "products"

var _ product.Repository = (*ProductRepo)(nil)

// ProductRepo implements product.Repository.
type ProductRepo struct {
	*BaseRepo[*product.Product]
}

// NewProductRepo creates a new product repository.
func NewProductRepo(txm *postgres.TxManager) *ProductRepo {
	return &ProductRepo{
		BaseRepo: NewBaseRepo(
			txm,
			productTable,
			postgres.ExtractDBColumns[product.Product](),
			func() *product.Product { return &product.Product{} },
		),
	}
}

// SetAverageCost stores the derived average purchase cost. The value
// is recomputed from cost records, so it bypasses optimistic locking
// deliberately: a concurrent catalog edit must not invalidate it.
func (r *ProductRepo) SetAverageCost(ctx context.Context, productID id.ID, avg types.Money) error {
	q := r.Builder().
		Update(productTable).
		Set("average_purchase_cost", avg).
		Where(squirrel.Eq{"id": productID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	result, err := r.Querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("set average cost: %w", err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewNotFound(productTable, productID.String())
	}

	return nil
}

// LowStockThreshold returns the product's configured threshold, zero
// when unset.
func (r *ProductRepo) LowStockThreshold(ctx context.Context, productID id.ID) (types.Quantity, error) {
	q := r.Builder().
		Select("low_stock_threshold").
		From(productTable).
		Where(squirrel.Eq{"id": productID})

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	var raw int64
	err = r.Querier(ctx).QueryRow(ctx, sql, args...).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, apperror.NewNotFound(productTable, productID.String())
	}
	if err != nil {
		return 0, fmt.Errorf("get low stock threshold: %w", err)
	}

	return types.NewQuantityFromInt64Scaled(raw), nil
}
