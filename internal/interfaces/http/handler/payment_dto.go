package handler

import (
	"time"

	"github.com/armonia/backend/internal/domain/payment"
	"github.com/shopspring/decimal"
)

// ProcessPaymentRequest represents the request to register a payment
//
//	@Description	Payment registration request
type ProcessPaymentRequest struct {
	InvoiceID        string          `json:"invoice_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	Amount           decimal.Decimal `json:"amount" binding:"required" example:"150000.00"`
	Currency         string          `json:"currency" binding:"omitempty,len=3" example:"COP"`
	Method           string          `json:"method" binding:"required,oneof=CASH TRANSFER CARD PSE GATEWAY" example:"TRANSFER"`
	GatewayReference string          `json:"gateway_reference" binding:"omitempty,max=100" example:"payu-7281911"`
	Notes            string          `json:"notes" binding:"omitempty,max=500" example:"Paid at the front desk"`
}

// UpdatePaymentRequest represents the request to edit a payment. A status
// drives the transaction state machine; method and notes edit the details
// of a payment that has not settled.
//
//	@Description	Payment update request
type UpdatePaymentRequest struct {
	Status           string `json:"status" binding:"omitempty,oneof=PROCESSING COMPLETED FAILED CANCELLED REFUNDED" example:"COMPLETED"`
	GatewayReference string `json:"gateway_reference" binding:"omitempty,max=100" example:"payu-7281911"`
	ErrorMessage     string `json:"error_message" binding:"omitempty,max=500"`
	Method           string `json:"method" binding:"omitempty,oneof=CASH TRANSFER CARD PSE GATEWAY" example:"CASH"`
	Notes            string `json:"notes" binding:"omitempty,max=500" example:"Corrected payment method"`
}

// StartCheckoutRequest represents the request to start a gateway checkout
//
//	@Description	Gateway checkout request
type StartCheckoutRequest struct {
	InvoiceID   string `json:"invoice_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	GatewayType string `json:"gateway_type" binding:"required,oneof=PAYU WOMPI" example:"WOMPI"`
	PayerEmail  string `json:"payer_email" binding:"omitempty,email" example:"residente@example.com"`
}

// InitiateReceiptUploadRequest represents the request for a receipt upload URL
//
//	@Description	Receipt upload initiation request
type InitiateReceiptUploadRequest struct {
	FileName    string `json:"file_name" binding:"required,max=255" example:"comprobante.pdf"`
	ContentType string `json:"content_type" binding:"required,max=100" example:"application/pdf"`
}

// ConfirmReceiptRequest represents the request to confirm an uploaded receipt
//
//	@Description	Receipt confirmation request
type ConfirmReceiptRequest struct {
	StorageKey string `json:"storage_key" binding:"required,max=500"`
}

// PaymentListQuery represents query parameters for listing payments
type PaymentListQuery struct {
	InvoiceID  string `form:"invoice_id" binding:"omitempty,uuid"`
	PropertyID string `form:"property_id" binding:"omitempty,uuid"`
	Status     string `form:"status" binding:"omitempty,oneof=PENDING PROCESSING COMPLETED FAILED CANCELLED REFUNDED"`
	Method     string `form:"method" binding:"omitempty,oneof=CASH TRANSFER CARD PSE GATEWAY"`
	From       string `form:"from" binding:"omitempty" time_format:"2006-01-02"`
	To         string `form:"to" binding:"omitempty" time_format:"2006-01-02"`
	Page       int    `form:"page" binding:"omitempty,min=1"`
	PageSize   int    `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// PaymentResponse represents a payment transaction in responses
//
//	@Description	Payment transaction information
type PaymentResponse struct {
	ID               string     `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	InvoiceID        string     `json:"invoice_id"`
	PropertyID       string     `json:"property_id"`
	Amount           string     `json:"amount" example:"150000.00"`
	Currency         string     `json:"currency" example:"COP"`
	Method           string     `json:"method" example:"TRANSFER"`
	Status           string     `json:"status" example:"COMPLETED"`
	GatewayName      string     `json:"gateway_name,omitempty" example:"WOMPI"`
	GatewayReference string     `json:"gateway_reference,omitempty"`
	FailureReason    string     `json:"failure_reason,omitempty"`
	Notes            string     `json:"notes,omitempty"`
	RefundOfID       *string    `json:"refund_of_id,omitempty"`
	ProcessedAt      *time.Time `json:"processed_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// PaymentListResponse represents a paginated list of payments
type PaymentListResponse struct {
	Payments []PaymentResponse `json:"payments"`
	Total    int64             `json:"total"`
	Page     int               `json:"page"`
	PageSize int               `json:"page_size"`
}

// ProcessPaymentResponse reports the outcome of a payment registration
//
//	@Description	Payment registration result
type ProcessPaymentResponse struct {
	Payment          PaymentResponse `json:"payment"`
	InvoiceStatus    string          `json:"invoice_status" example:"PAID"`
	InvoiceSettled   bool            `json:"invoice_settled" example:"true"`
	AlreadyProcessed bool            `json:"already_processed" example:"false"`
}

// CheckoutResponse carries the gateway redirect data
//
//	@Description	Gateway checkout redirect information
type CheckoutResponse struct {
	TransactionID string    `json:"transaction_id"`
	CheckoutURL   string    `json:"checkout_url"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// ReceiptUploadResponse carries the presigned upload target
//
//	@Description	Presigned receipt upload information
type ReceiptUploadResponse struct {
	StorageKey string    `json:"storage_key"`
	UploadURL  string    `json:"upload_url"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// ReceiptURLResponse carries the presigned download URL for a receipt
//
//	@Description	Presigned receipt download information
type ReceiptURLResponse struct {
	DownloadURL string    `json:"download_url"`
	ExpiresAt   time.Time `json:"expires_at"`
}

func toPaymentResponse(tx *payment.Transaction) PaymentResponse {
	resp := PaymentResponse{
		ID:               tx.ID.String(),
		InvoiceID:        tx.InvoiceID.String(),
		PropertyID:       tx.PropertyID.String(),
		Amount:           tx.Amount.StringFixed(2),
		Currency:         string(tx.Currency),
		Method:           string(tx.Method),
		Status:           tx.Status.String(),
		GatewayName:      tx.GatewayName,
		GatewayReference: tx.GatewayReference,
		FailureReason:    tx.FailureReason,
		Notes:            tx.Notes,
		ProcessedAt:      tx.ProcessedAt,
		CreatedAt:        tx.CreatedAt,
		UpdatedAt:        tx.UpdatedAt,
	}
	if tx.RefundOfID != nil {
		id := tx.RefundOfID.String()
		resp.RefundOfID = &id
	}
	return resp
}
