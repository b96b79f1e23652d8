package payment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Payment Gateway Errors
// ---------------------------------------------------------------------------

var (
	ErrGatewayInvalidTenantID  = errors.New("gateway: invalid tenant ID")
	ErrGatewayInvalidInvoice   = errors.New("gateway: invalid invoice reference")
	ErrGatewayInvalidAmount    = errors.New("gateway: invalid payment amount")
	ErrGatewayInvalidReference = errors.New("gateway: invalid payment reference")
	ErrGatewayInvalidNotifyURL = errors.New("gateway: invalid notify URL")

	ErrGatewayNotConfigured   = errors.New("gateway: not configured")
	ErrGatewayNotEnabled      = errors.New("gateway: not enabled")
	ErrGatewayUnavailable     = errors.New("gateway: temporarily unavailable")
	ErrGatewayRequestFailed   = errors.New("gateway: request failed")
	ErrGatewayInvalidResponse = errors.New("gateway: invalid response")
	ErrGatewayInvalidCallback = errors.New("gateway: invalid callback signature")
)

// ---------------------------------------------------------------------------
// GatewayType represents the external payment processor
type GatewayType string

const (
	// GatewayTypePayU represents the PayU Latam gateway
	GatewayTypePayU GatewayType = "PAYU"
	// GatewayTypeWompi represents the Wompi gateway
	GatewayTypeWompi GatewayType = "WOMPI"
)

// IsValid returns true if the gateway type is valid
func (t GatewayType) IsValid() bool {
	switch t {
	case GatewayTypePayU, GatewayTypeWompi:
		return true
	default:
		return false
	}
}

// String returns the string representation of GatewayType
func (t GatewayType) String() string {
	return string(t)
}

// GatewayStatus represents the status of a payment as reported by the gateway
type GatewayStatus string

const (
	GatewayStatusPending  GatewayStatus = "PENDING"
	GatewayStatusApproved GatewayStatus = "APPROVED"
	GatewayStatusDeclined GatewayStatus = "DECLINED"
	GatewayStatusError    GatewayStatus = "ERROR"
	GatewayStatusExpired  GatewayStatus = "EXPIRED"
)

// IsValid returns true if the status is valid
func (s GatewayStatus) IsValid() bool {
	switch s {
	case GatewayStatusPending, GatewayStatusApproved, GatewayStatusDeclined,
		GatewayStatusError, GatewayStatusExpired:
		return true
	default:
		return false
	}
}

// IsFinal returns true if the gateway will not report further changes
func (s GatewayStatus) IsFinal() bool {
	return s != GatewayStatusPending
}

// IsSuccess returns true if the payment was collected
func (s GatewayStatus) IsSuccess() bool {
	return s == GatewayStatusApproved
}

// ---------------------------------------------------------------------------
// Gateway Request/Response DTOs
// ---------------------------------------------------------------------------

// CheckoutRequest asks the gateway to open a hosted checkout for an invoice
type CheckoutRequest struct {
	// TenantID is the complex collecting the payment
	TenantID uuid.UUID
	// InvoiceID is our internal invoice ID
	InvoiceID uuid.UUID
	// Reference is our unique payment reference handed to the gateway
	Reference string
	// Amount is the amount to collect
	Amount decimal.Decimal
	// Currency is the ISO currency code (default COP)
	Currency string
	// Description is shown to the payer on the checkout page
	Description string
	// PayerEmail is the resident's email
	PayerEmail string
	// NotifyURL is the callback URL for payment notifications
	NotifyURL string
	// ReturnURL is where the payer lands after checkout
	ReturnURL string
	// ExpiresAt is when the checkout session should expire
	ExpiresAt time.Time
}

// Validate validates the checkout request
func (r *CheckoutRequest) Validate() error {
	if r.TenantID == uuid.Nil {
		return ErrGatewayInvalidTenantID
	}
	if r.InvoiceID == uuid.Nil {
		return ErrGatewayInvalidInvoice
	}
	if r.Reference == "" {
		return ErrGatewayInvalidReference
	}
	if r.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrGatewayInvalidAmount
	}
	if r.NotifyURL == "" {
		return ErrGatewayInvalidNotifyURL
	}
	return nil
}

// CheckoutResponse is the gateway's answer to a checkout request
type CheckoutResponse struct {
	// GatewayReference is the transaction ID assigned by the gateway
	GatewayReference string
	// GatewayType identifies which gateway handles this checkout
	GatewayType GatewayType
	// Status is the initial gateway status
	Status GatewayStatus
	// CheckoutURL is where the payer completes the payment
	CheckoutURL string
	// ExpiresAt is when the session expires
	ExpiresAt time.Time
	// RawResponse is the original gateway response (JSON)
	RawResponse string
}

// StatusRequest queries the gateway for the state of a transaction
type StatusRequest struct {
	TenantID         uuid.UUID
	GatewayReference string
	Reference        string
}

// Validate validates the status request
func (r *StatusRequest) Validate() error {
	if r.TenantID == uuid.Nil {
		return ErrGatewayInvalidTenantID
	}
	if r.GatewayReference == "" && r.Reference == "" {
		return ErrGatewayInvalidReference
	}
	return nil
}

// StatusResponse reports the gateway-side state of a transaction
type StatusResponse struct {
	GatewayReference string
	GatewayType      GatewayType
	Reference        string
	Status           GatewayStatus
	Amount           decimal.Decimal
	Currency         string
	PayerAccount     string
	ProcessedAt      *time.Time
	RawResponse      string
}

// ---------------------------------------------------------------------------
// Gateway Callback Types
// ---------------------------------------------------------------------------

// Notification is a payment event pushed by the gateway to our callback URL
type Notification struct {
	// GatewayType identifies which gateway sent this notification
	GatewayType GatewayType
	// GatewayReference is the transaction ID in the gateway
	GatewayReference string
	// Reference is our payment reference echoed back
	Reference string
	// Status is the reported payment status
	Status GatewayStatus
	// Amount is the collected amount
	Amount decimal.Decimal
	// Currency is the ISO currency code
	Currency string
	// PayerAccount is the payer's account identifier (masked)
	PayerAccount string
	// ProcessedAt is when the gateway settled the payment
	ProcessedAt *time.Time
	// FailureReason carries the decline reason, if any
	FailureReason string
	// RawPayload is the original notification body
	RawPayload string
}

// ---------------------------------------------------------------------------
// Gateway Port Interface
// ---------------------------------------------------------------------------

// Gateway is the port interface for external payment processors. It lives in
// the domain layer; concrete adapters (PayU, Wompi) sit in infrastructure.
type Gateway interface {
	// GatewayType returns the type of this gateway
	GatewayType() GatewayType

	// CreateCheckout opens a hosted checkout session for an invoice
	CreateCheckout(ctx context.Context, req *CheckoutRequest) (*CheckoutResponse, error)

	// QueryStatus queries the current state of a gateway transaction
	QueryStatus(ctx context.Context, req *StatusRequest) (*StatusResponse, error)

	// VerifyNotification verifies the signature of a pushed notification and
	// parses it. Returns an error when the signature does not match.
	VerifyNotification(ctx context.Context, payload []byte, signature string) (*Notification, error)

	// AcknowledgeResponse builds the body the gateway expects back after a
	// notification has been processed
	AcknowledgeResponse(success bool) []byte
}

// GatewayRegistry resolves the configured gateway adapters by type
type GatewayRegistry interface {
	// GetGateway returns the adapter for the given type
	GetGateway(gatewayType GatewayType) (Gateway, error)

	// ListGateways returns all registered adapters
	ListGateways() []Gateway

	// IsEnabled returns true if the gateway type is configured and enabled
	IsEnabled(gatewayType GatewayType) bool
}
