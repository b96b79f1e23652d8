package event

import (
	"github.com/armonia/backend/internal/domain/billing"
	"github.com/armonia/backend/internal/domain/payment"
)

// RegisterAllEvents registers all domain event types with the serializer
// This is required for the OutboxProcessor to deserialize events from the outbox table
func RegisterAllEvents(serializer *EventSerializer) {
	// Billing context events
	serializer.Register(billing.EventTypeFeeDefinitionCreated, &billing.FeeDefinitionCreatedEvent{})
	serializer.Register(billing.EventTypeInvoiceGenerated, &billing.InvoiceGeneratedEvent{})
	serializer.Register(billing.EventTypeInvoicePaymentApplied, &billing.InvoicePaymentAppliedEvent{})
	serializer.Register(billing.EventTypeInvoiceOverdue, &billing.InvoiceOverdueEvent{})
	serializer.Register(billing.EventTypeInvoiceCancelled, &billing.InvoiceCancelledEvent{})

	// Payment context events
	serializer.Register(payment.EventTypeTransactionCreated, &payment.TransactionCreatedEvent{})
	serializer.Register(payment.EventTypeTransactionCompleted, &payment.TransactionCompletedEvent{})
	serializer.Register(payment.EventTypeTransactionFailed, &payment.TransactionFailedEvent{})
	serializer.Register(payment.EventTypeTransactionCancelled, &payment.TransactionCancelledEvent{})
	serializer.Register(payment.EventTypeTransactionRefunded, &payment.TransactionRefundedEvent{})
}
