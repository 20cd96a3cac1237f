// Package engine implements the stock mutation ledger engine: operation
// validation and dispatch, lot reconstruction, FIFO/LIFO lot allocation
// and point-in-time stock queries.
package engine

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"stockcore/internal/core/apperror"
	"stockcore/internal/core/id"
	"stockcore/internal/core/keylock"
	"stockcore/internal/core/ref"
	"stockcore/internal/core/types"
	"stockcore/internal/domain/costing"
	"stockcore/internal/domain/ledger"
	"stockcore/pkg/logger"
)

var tracer = otel.Tracer("stockcore/engine")

// Engine executes stock operations against the mutation ledger.
// It is synchronous per call; mutating operations serialize per
// (product, warehouse) pair so the sufficiency check, the lot
// reconstruction and the append observe a frozen ledger slice.
type Engine struct {
	cfg     Config
	store   ledger.Store
	costs   costing.Store
	costing *costing.Service

	refs      *ref.Registry
	notify    Notifier
	threshold ThresholdFunc

	locks *keylock.KeyLock
}

// Option configures optional engine collaborators.
type Option func(*Engine)

// WithNotifier installs a low-stock notifier with its threshold source.
func WithNotifier(n Notifier, t ThresholdFunc) Option {
	return func(e *Engine) {
		e.notify = n
		e.threshold = t
	}
}

// WithReferenceRegistry enables referential checks on operation
// references before any write.
func WithReferenceRegistry(rg *ref.Registry) Option {
	return func(e *Engine) {
		e.refs = rg
	}
}

// New creates an engine. The config is read-only for the engine's
// lifetime; instantiate a second engine for a different method.
func New(cfg Config, store ledger.Store, costs costing.Store, costSvc *costing.Service, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(context.Background()); err != nil {
		return nil, err
	}

	e := &Engine{
		cfg:     cfg,
		store:   store,
		costs:   costs,
		costing: costSvc,
		notify:  NopNotifier{},
		locks:   keylock.New(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Method returns the configured inventory ordering mode.
func (e *Engine) Method() Method { return e.cfg.Method }

// Apply validates an operation request and routes it to the matching
// engine operation. This is the single entry point for all stock changes.
func (e *Engine) Apply(ctx context.Context, req *OperationRequest) error {
	ctx, span := tracer.Start(ctx, "stock.apply",
		trace.WithAttributes(
			attribute.String("stock.operation", string(req.Kind)),
			attribute.String("stock.product_id", req.ProductID.String()),
		))
	defer span.End()

	if err := req.Validate(ctx); err != nil {
		return err
	}

	if req.Reference != nil && e.refs != nil {
		if err := e.refs.Resolve(ctx, *req.Reference); err != nil {
			return err
		}
	}

	switch req.Kind {
	case OpPurchase:
		return e.purchase(ctx, req)
	case OpIncrease:
		return e.increase(ctx, req)
	case OpDecrease:
		return e.decrease(ctx, req)
	case OpTransfer:
		return e.transfer(ctx, req)
	}

	// Validate already rejected unknown kinds.
	return apperror.NewValidation("unknown operation kind")
}

// purchase creates the cost record first, then a credit mutation
// referencing it, and finally refreshes the product's average cost.
func (e *Engine) purchase(ctx context.Context, req *OperationRequest) error {
	key := lockKey(req.ProductID, req.WarehouseTo)
	e.locks.Lock(key)
	defer e.locks.Unlock(key)

	rec, err := e.costing.Record(ctx, req.ProductID, *req.SupplierID, *req.UnitCost)
	if err != nil {
		return err
	}

	m := ledger.NewMutation(req.ProductID, req.WarehouseTo, nil, &rec.ID, req.Quantity).
		WithReference(req.Reference).
		WithDescription(req.Description)

	if _, err := e.store.Append(ctx, m); err != nil {
		return fmt.Errorf("append purchase mutation: %w", err)
	}

	// Derived, reporting-only value; never an allocation input.
	if _, err := e.costing.RecomputeAverage(ctx, req.ProductID); err != nil {
		return err
	}

	logger.Info(ctx, "stock purchased",
		"product_id", req.ProductID,
		"warehouse_id", req.WarehouseTo,
		"quantity", req.Quantity,
		"cost_record_id", rec.ID,
	)
	return nil
}

// increase records a plain, non-costed credit.
func (e *Engine) increase(ctx context.Context, req *OperationRequest) error {
	key := lockKey(req.ProductID, req.WarehouseTo)
	e.locks.Lock(key)
	defer e.locks.Unlock(key)

	m := ledger.NewMutation(req.ProductID, req.WarehouseTo, nil, nil, req.Quantity).
		WithReference(req.Reference).
		WithDescription(req.Description)

	if _, err := e.store.Append(ctx, m); err != nil {
		return fmt.Errorf("append increase mutation: %w", err)
	}

	logger.Info(ctx, "stock increased",
		"product_id", req.ProductID,
		"warehouse_id", req.WarehouseTo,
		"quantity", req.Quantity,
	)
	return nil
}

// decrease allocates lots at the target warehouse and emits one debit per
// consumed slice, all in a single atomic append.
func (e *Engine) decrease(ctx context.Context, req *OperationRequest) error {
	key := lockKey(req.ProductID, req.WarehouseTo)
	e.locks.Lock(key)
	defer e.locks.Unlock(key)

	if err := e.guardStock(ctx, req.ProductID, req.WarehouseTo, req.Quantity); err != nil {
		return err
	}

	lots, err := e.ReconstructLots(ctx, req.ProductID, req.WarehouseTo)
	if err != nil {
		return err
	}

	remaining := req.Quantity
	mutations := make([]*ledger.Mutation, 0, len(lots))
	for _, lot := range lots {
		if !remaining.IsPositive() {
			break
		}
		take := lot.Remaining.Min(remaining)
		m := ledger.NewMutation(req.ProductID, req.WarehouseTo, nil, lot.LotID, take.Neg()).
			WithReference(req.Reference).
			WithDescription(req.Description)
		mutations = append(mutations, m)
		remaining -= take
	}

	// The aggregate guard passed but the walk came up short: concurrent
	// modification or ledger corruption. Surface it, write nothing.
	if remaining.IsPositive() {
		return e.insufficient(ctx, req.ProductID, req.WarehouseTo, req.Quantity)
	}

	if err := e.store.AppendAll(ctx, mutations); err != nil {
		return fmt.Errorf("append decrease mutations: %w", err)
	}

	logger.Info(ctx, "stock decreased",
		"product_id", req.ProductID,
		"warehouse_id", req.WarehouseTo,
		"quantity", req.Quantity,
		"lots_consumed", len(mutations),
	)

	e.checkLowStock(ctx, req.ProductID, req.WarehouseTo)
	return nil
}

// transfer walks lots at the source warehouse; each consumed slice emits
// a credit to the destination and the matching debit against the source,
// both carrying the slice's cost record. The pair is one logical step:
// AppendAll writes both legs or neither.
func (e *Engine) transfer(ctx context.Context, req *OperationRequest) error {
	from := *req.WarehouseFrom
	to := req.WarehouseTo

	keys := []string{lockKey(req.ProductID, from), lockKey(req.ProductID, to)}
	// Lock in sorted order so two opposite transfers cannot deadlock.
	if keys[0] > keys[1] {
		keys[0], keys[1] = keys[1], keys[0]
	}
	e.locks.Lock(keys[0])
	defer e.locks.Unlock(keys[0])
	e.locks.Lock(keys[1])
	defer e.locks.Unlock(keys[1])

	if err := e.guardStock(ctx, req.ProductID, from, req.Quantity); err != nil {
		return err
	}

	lots, err := e.ReconstructLots(ctx, req.ProductID, from)
	if err != nil {
		return err
	}

	remaining := req.Quantity
	mutations := make([]*ledger.Mutation, 0, 2*len(lots))
	for _, lot := range lots {
		if !remaining.IsPositive() {
			break
		}
		take := lot.Remaining.Min(remaining)

		credit := ledger.NewMutation(req.ProductID, to, &from, lot.LotID, take).
			WithReference(req.Reference).
			WithDescription(req.Description)
		debit := ledger.NewMutation(req.ProductID, from, &to, lot.LotID, take.Neg()).
			WithReference(req.Reference).
			WithDescription(req.Description)

		mutations = append(mutations, credit, debit)
		remaining -= take
	}

	if remaining.IsPositive() {
		return e.insufficient(ctx, req.ProductID, from, req.Quantity)
	}

	if err := e.store.AppendAll(ctx, mutations); err != nil {
		return fmt.Errorf("append transfer mutations: %w", err)
	}

	logger.Info(ctx, "stock transferred",
		"product_id", req.ProductID,
		"warehouse_from_id", from,
		"warehouse_to_id", to,
		"quantity", req.Quantity,
		"lots_consumed", len(mutations)/2,
	)

	// A transfer conserves the product total, so the low-stock threshold
	// cannot be newly crossed; no notification here.
	return nil
}

// SetLevel brings the (product, warehouse) balance to newLevel by
// emitting the delta as a regular increase or decrease. Decreasing this
// way keeps lot cost traceability: the delta goes through allocation
// like any other debit.
func (e *Engine) SetLevel(ctx context.Context, productID, warehouseID id.ID, newLevel types.Quantity, docRef *ref.Ref) error {
	if newLevel.IsNegative() {
		return apperror.NewValidation("stock level cannot be negative").
			WithDetail("field", "newLevel").
			WithDetail("value", newLevel.String())
	}

	current, err := e.CurrentStock(ctx, productID, StockFilter{Warehouse: &warehouseID})
	if err != nil {
		return err
	}

	delta := newLevel - current
	if delta.IsZero() {
		return nil
	}

	req := &OperationRequest{
		ProductID:   productID,
		WarehouseTo: warehouseID,
		Reference:   docRef,
		Description: "stock level adjustment",
	}
	if delta.IsPositive() {
		req.Kind = OpIncrease
		req.Quantity = delta
	} else {
		req.Kind = OpDecrease
		req.Quantity = delta.Abs()
	}

	return e.Apply(ctx, req)
}

// guardStock is the upfront aggregate sufficiency check. It is a guard,
// not a substitute for the per-lot walk: aggregate sufficiency does not
// guarantee any single lot covers the request.
func (e *Engine) guardStock(ctx context.Context, productID, warehouseID id.ID, required types.Quantity) error {
	available, err := e.CurrentStock(ctx, productID, StockFilter{Warehouse: &warehouseID})
	if err != nil {
		return err
	}
	if available < required {
		return apperror.NewInsufficientStock(productID.String(), required.Float64(), available.Float64())
	}
	return nil
}

func (e *Engine) insufficient(ctx context.Context, productID, warehouseID id.ID, required types.Quantity) error {
	available, err := e.CurrentStock(ctx, productID, StockFilter{Warehouse: &warehouseID})
	if err != nil {
		return fmt.Errorf("stock lookup during allocation: %w", err)
	}
	return apperror.NewInsufficientStock(productID.String(), required.Float64(), available.Float64())
}

// checkLowStock compares the product's total stock against its threshold
// and fires the notifier when below. Failures here never fail the
// operation that triggered the check.
func (e *Engine) checkLowStock(ctx context.Context, productID, warehouseID id.ID) {
	if e.threshold == nil {
		return
	}

	threshold, err := e.threshold(ctx, productID)
	if err != nil {
		logger.Warn(ctx, "low stock threshold lookup failed", "product_id", productID, "error", err)
		return
	}

	total, err := e.CurrentStock(ctx, productID, StockFilter{})
	if err != nil {
		logger.Warn(ctx, "low stock check failed", "product_id", productID, "error", err)
		return
	}

	if total < threshold {
		e.notify.LowStock(ctx, productID, warehouseID, total)
	}
}

func lockKey(productID, warehouseID id.ID) string {
	var b strings.Builder
	b.WriteString(productID.String())
	b.WriteByte('|')
	b.WriteString(warehouseID.String())
	return b.String()
}
