package dto

import (
	"time"

	"stockcore/internal/domain/catalogs/supplier"
	"stockcore/internal/domain/costing"
)

// --- Request DTOs ---

// CreateSupplierRequest is the request body for creating a supplier.
type CreateSupplierRequest struct {
	Code        string  `json:"code"`
	Name        string  `json:"name" binding:"required"`
	Email       *string `json:"email" binding:"omitempty,email"`
	Phone       *string `json:"phone"`
	Address     *string `json:"address"`
	IsActive    *bool   `json:"isActive"`
	Description *string `json:"description"`
}

// ToEntity converts DTO to domain entity.
func (r *CreateSupplierRequest) ToEntity() *supplier.Supplier {
	s := supplier.NewSupplier(r.Code, r.Name)
	s.Email = r.Email
	s.Phone = r.Phone
	s.Address = r.Address
	if r.IsActive != nil {
		s.IsActive = *r.IsActive
	}
	s.Description = r.Description
	return s
}

// UpdateSupplierRequest is the request body for updating a supplier.
type UpdateSupplierRequest struct {
	Code        string  `json:"code"`
	Name        string  `json:"name" binding:"required"`
	Email       *string `json:"email,omitempty" binding:"omitempty,email"`
	Phone       *string `json:"phone,omitempty"`
	Address     *string `json:"address,omitempty"`
	IsActive    bool    `json:"isActive"`
	Description *string `json:"description,omitempty"`
	Version     int     `json:"version" binding:"required,min=1"`
}

// ApplyTo applies update DTO to existing entity.
func (r *UpdateSupplierRequest) ApplyTo(s *supplier.Supplier) {
	s.Code = r.Code
	s.Name = r.Name
	s.Email = r.Email
	s.Phone = r.Phone
	s.Address = r.Address
	s.IsActive = r.IsActive
	s.Description = r.Description
	s.Version = r.Version
}

// --- Response DTOs ---

// SupplierResponse is the response body for a supplier.
type SupplierResponse struct {
	ID           string  `json:"id"`
	Code         string  `json:"code"`
	Name         string  `json:"name"`
	Email        *string `json:"email,omitempty"`
	Phone        *string `json:"phone,omitempty"`
	Address      *string `json:"address,omitempty"`
	IsActive     bool    `json:"isActive"`
	Description  *string `json:"description,omitempty"`
	DeletionMark bool    `json:"deletionMark"`
	Version      int     `json:"version"`
}

// FromSupplier creates response DTO from domain entity.
func FromSupplier(s *supplier.Supplier) *SupplierResponse {
	return &SupplierResponse{
		ID:           s.ID.String(),
		Code:         s.Code,
		Name:         s.Name,
		Email:        s.Email,
		Phone:        s.Phone,
		Address:      s.Address,
		IsActive:     s.IsActive,
		Description:  s.Description,
		DeletionMark: s.DeletionMark,
		Version:      s.Version,
	}
}

// FromSuppliers converts a slice of suppliers.
func FromSuppliers(items []*supplier.Supplier) []*SupplierResponse {
	out := make([]*SupplierResponse, len(items))
	for i, s := range items {
		out[i] = FromSupplier(s)
	}
	return out
}

// --- Cost record DTOs ---

// CostRecordResponse represents one purchase cost record.
type CostRecordResponse struct {
	ID         string    `json:"id"`
	ProductID  string    `json:"productId"`
	SupplierID string    `json:"supplierId"`
	UnitCost   string    `json:"unitCost"`
	CreatedAt  time.Time `json:"createdAt"`
}

// FromCostRecord converts a cost record to a response DTO.
func FromCostRecord(r costing.CostRecord) CostRecordResponse {
	return CostRecordResponse{
		ID:         r.ID.String(),
		ProductID:  r.ProductID.String(),
		SupplierID: r.SupplierID.String(),
		UnitCost:   r.UnitCost.String(),
		CreatedAt:  r.CreatedAt,
	}
}
