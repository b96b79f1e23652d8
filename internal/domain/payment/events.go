package payment

import (
	"github.com/armonia/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

const (
	EventTypeTransactionCreated   = "payment.transaction.created"
	EventTypeTransactionCompleted = "payment.transaction.completed"
	EventTypeTransactionFailed    = "payment.transaction.failed"
	EventTypeTransactionCancelled = "payment.transaction.cancelled"
	EventTypeTransactionRefunded  = "payment.transaction.refunded"
)

// TransactionCreatedEvent is raised when a payment attempt is registered
type TransactionCreatedEvent struct {
	shared.BaseDomainEvent
	InvoiceID string          `json:"invoice_id"`
	Amount    decimal.Decimal `json:"amount"`
	Method    string          `json:"method"`
}

func NewTransactionCreatedEvent(tx *Transaction) *TransactionCreatedEvent {
	return &TransactionCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTransactionCreated, "Transaction", tx.ID, tx.TenantID),
		InvoiceID:       tx.InvoiceID.String(),
		Amount:          tx.Amount,
		Method:          string(tx.Method),
	}
}

// TransactionCompletedEvent is raised when money is collected (or reversed,
// for refund transactions carrying a negative amount)
type TransactionCompletedEvent struct {
	shared.BaseDomainEvent
	InvoiceID string          `json:"invoice_id"`
	Amount    decimal.Decimal `json:"amount"`
	IsRefund  bool            `json:"is_refund"`
}

func NewTransactionCompletedEvent(tx *Transaction) *TransactionCompletedEvent {
	return &TransactionCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTransactionCompleted, "Transaction", tx.ID, tx.TenantID),
		InvoiceID:       tx.InvoiceID.String(),
		Amount:          tx.Amount,
		IsRefund:        tx.IsRefund(),
	}
}

// TransactionFailedEvent is raised when the gateway declines or errors
type TransactionFailedEvent struct {
	shared.BaseDomainEvent
	InvoiceID string `json:"invoice_id"`
	Reason    string `json:"reason"`
}

func NewTransactionFailedEvent(tx *Transaction, reason string) *TransactionFailedEvent {
	return &TransactionFailedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTransactionFailed, "Transaction", tx.ID, tx.TenantID),
		InvoiceID:       tx.InvoiceID.String(),
		Reason:          reason,
	}
}

// TransactionCancelledEvent is raised when a pending attempt is aborted
type TransactionCancelledEvent struct {
	shared.BaseDomainEvent
	InvoiceID string `json:"invoice_id"`
}

func NewTransactionCancelledEvent(tx *Transaction) *TransactionCancelledEvent {
	return &TransactionCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTransactionCancelled, "Transaction", tx.ID, tx.TenantID),
		InvoiceID:       tx.InvoiceID.String(),
	}
}

// TransactionRefundedEvent is raised on the original transaction when its
// compensating refund is recorded
type TransactionRefundedEvent struct {
	shared.BaseDomainEvent
	InvoiceID string          `json:"invoice_id"`
	Amount    decimal.Decimal `json:"amount"`
}

func NewTransactionRefundedEvent(tx *Transaction) *TransactionRefundedEvent {
	return &TransactionRefundedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeTransactionRefunded, "Transaction", tx.ID, tx.TenantID),
		InvoiceID:       tx.InvoiceID.String(),
		Amount:          tx.Amount,
	}
}
