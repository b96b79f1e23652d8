package handler

import (
	"time"

	"github.com/armonia/backend/internal/domain/finance"
	"github.com/shopspring/decimal"
)

// RecordExpenseRequest represents the request to record an expense
//
//	@Description	Expense registration request
type RecordExpenseRequest struct {
	Category    string          `json:"category" binding:"required,oneof=MAINTENANCE UTILITIES SECURITY CLEANING INSURANCE ADMINISTRATION OTHER" example:"MAINTENANCE"`
	Amount      decimal.Decimal `json:"amount" binding:"required" example:"480000.00"`
	Currency    string          `json:"currency" binding:"omitempty,len=3" example:"COP"`
	Description string          `json:"description" binding:"required,max=500" example:"Elevator maintenance, tower B"`
	Vendor      string          `json:"vendor" binding:"omitempty,max=200" example:"Ascensores Andinos SAS"`
	IncurredAt  *time.Time      `json:"incurred_at" binding:"omitempty"`
}

// UpdateExpenseRequest represents the request to edit an expense
//
//	@Description	Expense update request
type UpdateExpenseRequest struct {
	Category    string          `json:"category" binding:"required,oneof=MAINTENANCE UTILITIES SECURITY CLEANING INSURANCE ADMINISTRATION OTHER"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Currency    string          `json:"currency" binding:"omitempty,len=3"`
	Description string          `json:"description" binding:"required,max=500"`
	Vendor      string          `json:"vendor" binding:"omitempty,max=200"`
}

// ExpenseListQuery represents query parameters for listing expenses
type ExpenseListQuery struct {
	Category string `form:"category" binding:"omitempty,oneof=MAINTENANCE UTILITIES SECURITY CLEANING INSURANCE ADMINISTRATION OTHER"`
	From     string `form:"from" binding:"omitempty"`
	To       string `form:"to" binding:"omitempty"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// ExpenseResponse represents an expense record in responses
//
//	@Description	Expense record information
type ExpenseResponse struct {
	ID          string    `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Category    string    `json:"category" example:"MAINTENANCE"`
	Amount      string    `json:"amount" example:"480000.00"`
	Currency    string    `json:"currency" example:"COP"`
	Description string    `json:"description"`
	Vendor      string    `json:"vendor,omitempty"`
	IncurredAt  time.Time `json:"incurred_at"`
	HasReceipt  bool      `json:"has_receipt"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ExpenseListResponse represents a paginated list of expenses
type ExpenseListResponse struct {
	Expenses []ExpenseResponse `json:"expenses"`
	Total    int64             `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
}

func toExpenseResponse(e *finance.ExpenseRecord) ExpenseResponse {
	return ExpenseResponse{
		ID:          e.ID.String(),
		Category:    e.Category.String(),
		Amount:      e.Amount.StringFixed(2),
		Currency:    string(e.Currency),
		Description: e.Description,
		Vendor:      e.Vendor,
		IncurredAt:  e.IncurredAt,
		HasReceipt:  e.ReceiptKey != "",
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}
