package dto

import (
	"stockcore/internal/core/types"
	"stockcore/internal/domain/catalogs/product"
)

// --- Request DTOs ---

// CreateProductRequest is the request body for creating a product.
type CreateProductRequest struct {
	Code              string   `json:"code"`
	Name              string   `json:"name" binding:"required"`
	SKU               *string  `json:"sku"`
	SalePrice         float64  `json:"salePrice" binding:"omitempty,min=0"`
	LowStockThreshold float64  `json:"lowStockThreshold" binding:"omitempty,min=0"`
	IsActive          *bool    `json:"isActive"`
	Description       *string  `json:"description"`
}

// ToEntity converts DTO to domain entity.
func (r *CreateProductRequest) ToEntity() *product.Product {
	p := product.NewProduct(r.Code, r.Name)
	p.SKU = r.SKU
	p.SalePrice = types.NewMoney(r.SalePrice)
	p.LowStockThreshold = types.NewQuantityFromFloat64(r.LowStockThreshold)
	if r.IsActive != nil {
		p.IsActive = *r.IsActive
	}
	p.Description = r.Description
	return p
}

// UpdateProductRequest is the request body for updating a product.
type UpdateProductRequest struct {
	Code              string  `json:"code"`
	Name              string  `json:"name" binding:"required"`
	SKU               *string `json:"sku,omitempty"`
	SalePrice         float64 `json:"salePrice" binding:"omitempty,min=0"`
	LowStockThreshold float64 `json:"lowStockThreshold" binding:"omitempty,min=0"`
	IsActive          bool    `json:"isActive"`
	Description       *string `json:"description,omitempty"`
	Version           int     `json:"version" binding:"required,min=1"`
}

// ApplyTo applies update DTO to existing entity. The derived average
// purchase cost is never writable through the API.
func (r *UpdateProductRequest) ApplyTo(p *product.Product) {
	p.Code = r.Code
	p.Name = r.Name
	p.SKU = r.SKU
	p.SalePrice = types.NewMoney(r.SalePrice)
	p.LowStockThreshold = types.NewQuantityFromFloat64(r.LowStockThreshold)
	p.IsActive = r.IsActive
	p.Description = r.Description
	p.Version = r.Version
}

// --- Response DTOs ---

// ProductResponse is the response body for a product.
type ProductResponse struct {
	ID                  string  `json:"id"`
	Code                string  `json:"code"`
	Name                string  `json:"name"`
	SKU                 *string `json:"sku,omitempty"`
	SalePrice           string  `json:"salePrice"`
	AveragePurchaseCost string  `json:"averagePurchaseCost"`
	LowStockThreshold   float64 `json:"lowStockThreshold"`
	IsActive            bool    `json:"isActive"`
	Description         *string `json:"description,omitempty"`
	DeletionMark        bool    `json:"deletionMark"`
	Version             int     `json:"version"`
}

// FromProduct creates response DTO from domain entity.
func FromProduct(p *product.Product) *ProductResponse {
	return &ProductResponse{
		ID:                  p.ID.String(),
		Code:                p.Code,
		Name:                p.Name,
		SKU:                 p.SKU,
		SalePrice:           p.SalePrice.String(),
		AveragePurchaseCost: p.AveragePurchaseCost.String(),
		LowStockThreshold:   p.LowStockThreshold.Float64(),
		IsActive:            p.IsActive,
		Description:         p.Description,
		DeletionMark:        p.DeletionMark,
		Version:             p.Version,
	}
}

// FromProducts converts a slice of products.
func FromProducts(items []*product.Product) []*ProductResponse {
	out := make([]*ProductResponse, len(items))
	for i, p := range items {
		out[i] = FromProduct(p)
	}
	return out
}
