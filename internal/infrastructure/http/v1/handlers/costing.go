package handlers

import (
	"github.com/gin-gonic/gin"

	"stockcore/internal/core/apperror"
	"stockcore/internal/domain/costing"
	"stockcore/internal/infrastructure/http/v1/dto"
)

// CostingHandler handles purchase cost queries.
type CostingHandler struct {
	*BaseHandler
	service *costing.Service
	store   costing.Store
}

// NewCostingHandler creates a new costing handler.
func NewCostingHandler(base *BaseHandler, service *costing.Service, store costing.Store) *CostingHandler {
	return &CostingHandler{
		BaseHandler: base,
		service:     service,
		store:       store,
	}
}

// ProductCosts handles GET /costing/products/:productId/records
func (h *CostingHandler) ProductCosts(c *gin.Context) {
	productID, ok := h.ParseID(c, "productId")
	if !ok {
		return
	}

	records, err := h.store.ListByProduct(c.Request.Context(), productID)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := make([]dto.CostRecordResponse, len(records))
	for i, r := range records {
		items[i] = dto.FromCostRecord(r)
	}

	h.OK(c, gin.H{"items": items})
}

// AverageCost handles GET /costing/products/:productId/average
func (h *CostingHandler) AverageCost(c *gin.Context) {
	productID, ok := h.ParseID(c, "productId")
	if !ok {
		return
	}

	avg, err := h.store.AverageCost(c.Request.Context(), productID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ValuationResponse{Value: avg.String()})
}

// RecomputeAverage handles POST /costing/products/:productId/average
func (h *CostingHandler) RecomputeAverage(c *gin.Context) {
	productID, ok := h.ParseID(c, "productId")
	if !ok {
		return
	}

	avg, err := h.service.RecomputeAverage(c.Request.Context(), productID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ValuationResponse{Value: avg.String()})
}

// SupplierHistory handles GET /costing/suppliers/:supplierId/history
// Lists the ledger entries that consumed or created lots purchased from
// the supplier, scoped to one product.
func (h *CostingHandler) SupplierHistory(c *gin.Context) {
	supplierID, ok := h.ParseID(c, "supplierId")
	if !ok {
		return
	}

	productID, ok := h.ParseIDQuery(c, "productId")
	if !ok {
		return
	}
	if productID == nil {
		h.Error(c, apperror.NewValidation("productId is required"))
		return
	}

	mutations, err := h.service.SupplierHistory(c.Request.Context(), *productID, supplierID)
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
