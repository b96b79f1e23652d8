package handler

import (
	"time"

	"github.com/armonia/backend/internal/domain/billing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =====================
// Fee Request DTOs
// =====================

// CreateFeeRequest represents the request body for creating a fee definition
type CreateFeeRequest struct {
	Name       string          `json:"name" binding:"required,min=1,max=100"`
	FeeType    string          `json:"fee_type" binding:"required,oneof=FIXED PER_AREA"`
	BaseAmount decimal.Decimal `json:"base_amount" binding:"required"`
	Currency   string          `json:"currency" binding:"omitempty,len=3"`
}

// UpdateFeeRequest represents the request body for updating a fee definition
type UpdateFeeRequest struct {
	Name       string          `json:"name" binding:"required,min=1,max=100"`
	BaseAmount decimal.Decimal `json:"base_amount" binding:"required"`
	Currency   string          `json:"currency" binding:"omitempty,len=3"`
}

// FeeListQuery represents query parameters for listing fee definitions
type FeeListQuery struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// =====================
// Billing Request DTOs
// =====================

// GenerateBillsRequest represents the request body for a billing run
type GenerateBillsRequest struct {
	Period string `json:"period" binding:"required"`
}

// InvoiceListQuery represents query parameters for listing invoices
type InvoiceListQuery struct {
	PropertyID string `form:"property_id" binding:"omitempty,uuid"`
	Period     string `form:"period" binding:"omitempty"`
	Status     string `form:"status" binding:"omitempty,oneof=PENDING PARTIAL PAID OVERDUE CANCELLED"`
	Page       int    `form:"page" binding:"omitempty,min=1"`
	PageSize   int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// ApplyLateFeesRequest represents the request body for applying late fees
type ApplyLateFeesRequest struct {
	AsOf *time.Time `json:"as_of"`
}

// =====================
// Billing Response DTOs
// =====================

// FeeResponse represents a fee definition in API responses
type FeeResponse struct {
	ID         uuid.UUID       `json:"id"`
	TenantID   uuid.UUID       `json:"tenant_id"`
	Name       string          `json:"name"`
	FeeType    string          `json:"fee_type"`
	BaseAmount decimal.Decimal `json:"base_amount"`
	Currency   string          `json:"currency"`
	Active     bool            `json:"active"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// FeeListResponse represents a paginated list of fee definitions
type FeeListResponse struct {
	Fees     []FeeResponse `json:"fees"`
	Total    int64         `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"page_size"`
}

// BillItemResponse represents an invoice line item in API responses
type BillItemResponse struct {
	ID              uuid.UUID       `json:"id"`
	FeeDefinitionID uuid.UUID       `json:"fee_definition_id"`
	Name            string          `json:"name"`
	Amount          decimal.Decimal `json:"amount"`
}

// InvoiceResponse represents an invoice in API responses
type InvoiceResponse struct {
	ID            uuid.UUID          `json:"id"`
	TenantID      uuid.UUID          `json:"tenant_id"`
	PropertyID    uuid.UUID          `json:"property_id"`
	BillingPeriod string             `json:"billing_period"`
	Status        string             `json:"status"`
	Currency      string             `json:"currency"`
	TotalAmount   decimal.Decimal    `json:"total_amount"`
	PaidAmount    decimal.Decimal    `json:"paid_amount"`
	LateFeeAmount decimal.Decimal    `json:"late_fee_amount"`
	DueDate       time.Time          `json:"due_date"`
	PaidAt        *time.Time         `json:"paid_at,omitempty"`
	Items         []BillItemResponse `json:"items,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// InvoiceListResponse represents a paginated list of invoices
type InvoiceListResponse struct {
	Invoices []InvoiceResponse `json:"invoices"`
	Total    int64             `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
}

func toFeeResponse(fee *billing.FeeDefinition) *FeeResponse {
	return &FeeResponse{
		ID:         fee.ID,
		TenantID:   fee.TenantID,
		Name:       fee.Name,
		FeeType:    string(fee.FeeType),
		BaseAmount: fee.BaseAmount,
		Currency:   string(fee.Currency),
		Active:     fee.Active,
		CreatedAt:  fee.CreatedAt,
		UpdatedAt:  fee.UpdatedAt,
	}
}

func toInvoiceResponse(invoice *billing.Invoice) *InvoiceResponse {
	items := make([]BillItemResponse, len(invoice.Items))
	for i, item := range invoice.Items {
		items[i] = BillItemResponse{
			ID:              item.ID,
			FeeDefinitionID: item.FeeDefinitionID,
			Name:            item.Name,
			Amount:          item.Amount,
		}
	}

	return &InvoiceResponse{
		ID:            invoice.ID,
		TenantID:      invoice.TenantID,
		PropertyID:    invoice.PropertyID,
		BillingPeriod: invoice.BillingPeriod,
		Status:        string(invoice.Status),
		Currency:      string(invoice.Currency),
		TotalAmount:   invoice.TotalAmount,
		PaidAmount:    invoice.PaidAmount,
		LateFeeAmount: invoice.LateFeeAmount,
		DueDate:       invoice.DueDate,
		PaidAt:        invoice.PaidAt,
		Items:         items,
		CreatedAt:     invoice.CreatedAt,
		UpdatedAt:     invoice.UpdatedAt,
	}
}
