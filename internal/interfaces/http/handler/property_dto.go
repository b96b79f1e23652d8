package handler

import (
	"time"

	"github.com/armonia/backend/internal/domain/property"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =====================
// Property Request DTOs
// =====================

// RegisterPropertyRequest represents the request body for registering a unit
type RegisterPropertyRequest struct {
	UnitNumber   string          `json:"unit_number" binding:"required,min=1,max=50"`
	PropertyType string          `json:"property_type" binding:"required,oneof=APARTMENT HOUSE PARKING COMMERCIAL STORAGE"`
	Area         decimal.Decimal `json:"area" binding:"required"`
	OwnerName    string          `json:"owner_name" binding:"required,min=1,max=200"`
	OwnerEmail   string          `json:"owner_email" binding:"omitempty,email,max=200"`
	Coefficient  decimal.Decimal `json:"coefficient"`
}

// UpdatePropertyRequest represents the request body for updating a unit
type UpdatePropertyRequest struct {
	OwnerName   *string          `json:"owner_name" binding:"omitempty,min=1,max=200"`
	OwnerEmail  *string          `json:"owner_email" binding:"omitempty,email,max=200"`
	OwnerUserID *string          `json:"owner_user_id" binding:"omitempty,uuid"`
	Area        *decimal.Decimal `json:"area" binding:"omitempty"`
	Coefficient *decimal.Decimal `json:"coefficient" binding:"omitempty"`
}

// PropertyListQuery represents query parameters for listing units
type PropertyListQuery struct {
	Status      string `form:"status" binding:"omitempty,oneof=ACTIVE INACTIVE"`
	Type        string `form:"type" binding:"omitempty,oneof=APARTMENT HOUSE PARKING COMMERCIAL STORAGE"`
	OwnerUserID string `form:"owner_user_id" binding:"omitempty,uuid"`
	Search      string `form:"search" binding:"omitempty,max=100"`
	Page        int    `form:"page" binding:"omitempty,min=1"`
	PageSize    int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// =====================
// Property Response DTOs
// =====================

// PropertyResponse represents a unit in API responses
type PropertyResponse struct {
	ID           uuid.UUID       `json:"id"`
	TenantID     uuid.UUID       `json:"tenant_id"`
	UnitNumber   string          `json:"unit_number"`
	PropertyType string          `json:"property_type"`
	Area         decimal.Decimal `json:"area"`
	OwnerName    string          `json:"owner_name"`
	OwnerEmail   string          `json:"owner_email,omitempty"`
	OwnerUserID  *uuid.UUID      `json:"owner_user_id,omitempty"`
	Status       string          `json:"status"`
	Coefficient  decimal.Decimal `json:"coefficient"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// PropertyListResponse represents a paginated list of units
type PropertyListResponse struct {
	Properties []PropertyResponse `json:"properties"`
	Total      int64              `json:"total"`
	Page       int                `json:"page"`
	PageSize   int                `json:"page_size"`
}

func toPropertyResponse(p *property.Property) *PropertyResponse {
	return &PropertyResponse{
		ID:           p.ID,
		TenantID:     p.TenantID,
		UnitNumber:   p.UnitNumber,
		PropertyType: string(p.PropertyType),
		Area:         p.Area,
		OwnerName:    p.OwnerName,
		OwnerEmail:   p.OwnerEmail,
		OwnerUserID:  p.OwnerUserID,
		Status:       p.Status.String(),
		Coefficient:  p.Coefficient,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}
