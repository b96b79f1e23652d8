package billing

import (
	"github.com/armonia/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Event types for the billing context
const (
	EventTypeFeeDefinitionCreated = "billing.fee_definition.created"
	EventTypeInvoiceGenerated     = "billing.invoice.generated"
	EventTypeInvoicePaymentApplied = "billing.invoice.payment_applied"
	EventTypeInvoiceOverdue       = "billing.invoice.overdue"
	EventTypeInvoiceCancelled     = "billing.invoice.cancelled"
)

// FeeDefinitionCreatedEvent is raised when a fee definition is created
type FeeDefinitionCreatedEvent struct {
	shared.BaseDomainEvent
	Name    string  `json:"name"`
	FeeType FeeType `json:"fee_type"`
}

// NewFeeDefinitionCreatedEvent creates a FeeDefinitionCreatedEvent
func NewFeeDefinitionCreatedEvent(fd *FeeDefinition) *FeeDefinitionCreatedEvent {
	return &FeeDefinitionCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeFeeDefinitionCreated, "FeeDefinition", fd.ID, fd.TenantID),
		Name:            fd.Name,
		FeeType:         fd.FeeType,
	}
}

// InvoiceGeneratedEvent is raised when an invoice is generated for a period
type InvoiceGeneratedEvent struct {
	shared.BaseDomainEvent
	PropertyID    string          `json:"property_id"`
	BillingPeriod string          `json:"billing_period"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
}

// NewInvoiceGeneratedEvent creates an InvoiceGeneratedEvent
func NewInvoiceGeneratedEvent(inv *Invoice) *InvoiceGeneratedEvent {
	return &InvoiceGeneratedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceGenerated, "Invoice", inv.ID, inv.TenantID),
		PropertyID:      inv.PropertyID.String(),
		BillingPeriod:   inv.BillingPeriod,
		TotalAmount:     inv.TotalAmount,
	}
}

// InvoicePaymentAppliedEvent is raised when a payment is applied to an invoice
type InvoicePaymentAppliedEvent struct {
	shared.BaseDomainEvent
	Amount  decimal.Decimal `json:"amount"`
	Settled bool            `json:"settled"`
}

// NewInvoicePaymentAppliedEvent creates an InvoicePaymentAppliedEvent
func NewInvoicePaymentAppliedEvent(inv *Invoice, amount decimal.Decimal, settled bool) *InvoicePaymentAppliedEvent {
	return &InvoicePaymentAppliedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoicePaymentApplied, "Invoice", inv.ID, inv.TenantID),
		Amount:          amount,
		Settled:         settled,
	}
}

// InvoiceOverdueEvent is raised when an invoice is marked overdue
type InvoiceOverdueEvent struct {
	shared.BaseDomainEvent
	LateFeeAmount decimal.Decimal `json:"late_fee_amount"`
}

// NewInvoiceOverdueEvent creates an InvoiceOverdueEvent
func NewInvoiceOverdueEvent(inv *Invoice) *InvoiceOverdueEvent {
	return &InvoiceOverdueEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceOverdue, "Invoice", inv.ID, inv.TenantID),
		LateFeeAmount:   inv.LateFeeAmount,
	}
}

// InvoiceCancelledEvent is raised when an invoice is voided
type InvoiceCancelledEvent struct {
	shared.BaseDomainEvent
}

// NewInvoiceCancelledEvent creates an InvoiceCancelledEvent
func NewInvoiceCancelledEvent(inv *Invoice) *InvoiceCancelledEvent {
	return &InvoiceCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceCancelled, "Invoice", inv.ID, inv.TenantID),
	}
}
