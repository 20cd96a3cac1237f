package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"stockcore/internal/core/apperror"
	"stockcore/internal/core/ref"
	"stockcore/internal/core/types"
	"stockcore/internal/domain/engine"
	"stockcore/internal/domain/ledger"
	"stockcore/internal/infrastructure/http/v1/dto"
	"stockcore/internal/infrastructure/storage/postgres"
)

// StockHandler handles stock operations and queries.
type StockHandler struct {
	*BaseHandler
	engine *engine.Engine
	audit  *postgres.AuditService
}

// NewStockHandler creates a new stock handler. Audit may be nil; stock
// operations then go unaudited but the ledger itself is still the
// authoritative history.
func NewStockHandler(base *BaseHandler, eng *engine.Engine, audit *postgres.AuditService) *StockHandler {
	return &StockHandler{
		BaseHandler: base,
		engine:      eng,
		audit:       audit,
	}
}

// Apply handles POST /stock/operations
func (h *StockHandler) Apply(c *gin.Context) {
	var req dto.StockOperationRequest
	if !h.BindJSON(c, &req) {
		return
	}

	op, err := req.ToOperation()
	if err != nil {
		h.Error(c, err)
		return
	}

	ctx := c.Request.Context()
	if err := h.engine.Apply(ctx, op); err != nil {
		h.Error(c, err)
		return
	}

	if h.audit != nil {
		_ = h.audit.LogChange(ctx, "stock", op.ProductID, auditAction(op.Kind), map[string]any{
			"kind":        string(op.Kind),
			"quantity":    op.Quantity.Float64(),
			"warehouseTo": op.WarehouseTo.String(),
		})
	}

	h.Success(c, "operation applied")
}

// SetLevel handles POST /stock/level
func (h *StockHandler) SetLevel(c *gin.Context) {
	var req dto.SetLevelRequest
	if !h.BindJSON(c, &req) {
		return
	}

	productID, err := parseIDField(req.ProductID, "productId")
	if err != nil {
		h.Error(c, err)
		return
	}
	warehouseID, err := parseIDField(req.WarehouseID, "warehouseId")
	if err != nil {
		h.Error(c, err)
		return
	}

	var docRef *ref.Ref
	if req.Reference != nil && *req.Reference != "" {
		parsed, err := ref.Parse(*req.Reference)
		if err != nil {
			h.Error(c, err)
			return
		}
		docRef = &parsed
	}

	ctx := c.Request.Context()
	newLevel := types.NewQuantityFromFloat64(req.NewLevel)
	if err := h.engine.SetLevel(ctx, productID, warehouseID, newLevel, docRef); err != nil {
		h.Error(c, err)
		return
	}

	if h.audit != nil {
		_ = h.audit.LogChange(ctx, "stock", productID, postgres.AuditActionSetLevel, map[string]any{
			"warehouseId": warehouseID.String(),
			"newLevel":    newLevel.Float64(),
		})
	}

	h.Success(c, "stock level set")
}

// CurrentStock handles GET /stock/products/:productId
func (h *StockHandler) CurrentStock(c *gin.Context) {
	productID, ok := h.ParseID(c, "productId")
	if !ok {
		return
	}

	filter, ok := h.parseStockFilter(c)
	if !ok {
		return
	}

	qty, err := h.engine.CurrentStock(c.Request.Context(), productID, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.StockLevelResponse{
		ProductID: productID.String(),
		Quantity:  qty.Float64(),
	})
}

// Lots handles GET /stock/products/:productId/lots
func (h *StockHandler) Lots(c *gin.Context) {
	productID, ok := h.ParseID(c, "productId")
	if !ok {
		return
	}

	warehouseID, ok := h.ParseIDQuery(c, "warehouseId")
	if !ok {
		return
	}
	if warehouseID == nil {
		h.Error(c, apperror.NewValidation("warehouseId is required"))
		return
	}

	lots, err := h.engine.ReconstructLots(c.Request.Context(), productID, *warehouseID)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]dto.LotResponse, len(lots))
	for i, l := range lots {
		items[i] = dto.FromLot(l)
	}

	h.OK(c, dto.LotListResponse{Items: items})
}

// History handles GET /stock/products/:productId/history
func (h *StockHandler) History(c *gin.Context) {
	productID, ok := h.ParseID(c, "productId")
	if !ok {
		return
	}

	warehouseID, ok := h.ParseIDQuery(c, "warehouseId")
	if !ok {
		return
	}

	filter := engine.HistoryFilter{
		Warehouse: warehouseID,
		Limit:     h.ParseIntQuery(c, "limit", 50),
		Offset:    h.ParseIntQuery(c, "offset", 0),
	}

	if kind := c.Query("kind"); kind != "" {
		filter.Kinds = []ledger.Kind{ledger.Kind(kind)}
	}
	var ok2 bool
	if filter.FromDate, ok2 = h.parseTimeQuery(c, "fromDate"); !ok2 {
		return
	}
	if filter.ToDate, ok2 = h.parseTimeQuery(c, "toDate"); !ok2 {
		return
	}

	mutations, err := h.engine.History(c.Request.Context(), productID, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]dto.MutationResponse, len(mutations))
	for i, m := range mutations {
		items[i] = dto.FromMutation(m)
	}

	h.OK(c, dto.MutationListResponse{Items: items})
}

// ProductValue handles GET /stock/products/:productId/value
func (h *StockHandler) ProductValue(c *gin.Context) {
	productID, ok := h.ParseID(c, "productId")
	if !ok {
		return
	}

	warehouseID, ok := h.ParseIDQuery(c, "warehouseId")
	if !ok {
		return
	}
	if warehouseID == nil {
		h.Error(c, apperror.NewValidation("warehouseId is required"))
		return
	}

	value, err := h.engine.ProductValue(c.Request.Context(), productID, *warehouseID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ValuationResponse{Value: value.String()})
}

// WarehouseValue handles GET /stock/warehouses/:warehouseId/value
func (h *StockHandler) WarehouseValue(c *gin.Context) {
	warehouseID, ok := h.ParseID(c, "warehouseId")
	if !ok {
		return
	}

	value, err := h.engine.WarehouseValue(c.Request.Context(), warehouseID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ValuationResponse{Value: value.String()})
}

// WarehouseProducts handles GET /stock/warehouses/:warehouseId/products
// The inStock query flag selects products with positive balance (default)
// or products at zero and below.
func (h *StockHandler) WarehouseProducts(c *gin.Context) {
	warehouseID, ok := h.ParseID(c, "warehouseId")
	if !ok {
		return
	}

	var (
		balances []ledger.ProductBalance
		err      error
	)
	if c.Query("inStock") == "false" {
		balances, err = h.engine.ProductsOutOfStock(c.Request.Context(), warehouseID)
	} else {
		balances, err = h.engine.ProductsInStock(c.Request.Context(), warehouseID)
	}
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]dto.BalanceResponse, len(balances))
	for i, b := range balances {
		items[i] = dto.FromBalance(b)
	}

	h.OK(c, dto.BalanceListResponse{Items: items})
}

// parseStockFilter reads the shared warehouseId/asOf/reference query
// parameters.
func (h *StockHandler) parseStockFilter(c *gin.Context) (engine.StockFilter, bool) {
	var filter engine.StockFilter

	warehouseID, ok := h.ParseIDQuery(c, "warehouseId")
	if !ok {
		return filter, false
	}
	filter.Warehouse = warehouseID

	if filter.AsOf, ok = h.parseTimeQuery(c, "asOf"); !ok {
		return filter, false
	}

	if refStr := c.Query("reference"); refStr != "" {
		parsed, err := ref.Parse(refStr)
		if err != nil {
			h.Error(c, err)
			return filter, false
		}
		filter.Reference = &parsed
	}

	return filter, true
}

func (h *StockHandler) parseTimeQuery(c *gin.Context, key string) (*time.Time, bool) {
	val := c.Query(key)
	if val == "" {
		return nil, true
	}
	parsed, err := time.Parse(time.RFC3339, val)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid "+key+" format, expected RFC3339"))
		return nil, false
	}
	return &parsed, true
}

func auditAction(kind engine.OperationKind) postgres.AuditAction {
	switch kind {
	case engine.OpPurchase:
		return postgres.AuditActionPurchase
	case engine.OpDecrease:
		return postgres.AuditActionDecrease
	case engine.OpTransfer:
		return postgres.AuditActionTransfer
	default:
		return postgres.AuditAction(string(kind))
	}
}
