package payment

import (
	"fmt"
	"time"

	"github.com/armonia/backend/internal/domain/shared"
	"github.com/armonia/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionStatus represents the lifecycle state of a payment transaction
type TransactionStatus string

const (
	TransactionStatusPending    TransactionStatus = "PENDING"    // Registered, not yet sent to gateway
	TransactionStatusProcessing TransactionStatus = "PROCESSING" // Handed to the gateway, awaiting result
	TransactionStatusCompleted  TransactionStatus = "COMPLETED"  // Money collected
	TransactionStatusFailed     TransactionStatus = "FAILED"     // Gateway declined or errored
	TransactionStatusCancelled  TransactionStatus = "CANCELLED"  // Aborted before completion
	TransactionStatusRefunded   TransactionStatus = "REFUNDED"   // Completed, then reversed
)

// IsValid checks if the status is a valid TransactionStatus
func (s TransactionStatus) IsValid() bool {
	switch s {
	case TransactionStatusPending, TransactionStatusProcessing, TransactionStatusCompleted,
		TransactionStatusFailed, TransactionStatusCancelled, TransactionStatusRefunded:
		return true
	}
	return false
}

// String returns the string representation of TransactionStatus
func (s TransactionStatus) String() string {
	return string(s)
}

// IsTerminal returns true if the transaction can no longer change state,
// except COMPLETED which may still be refunded
func (s TransactionStatus) IsTerminal() bool {
	return s == TransactionStatusFailed || s == TransactionStatusCancelled || s == TransactionStatusRefunded
}

// CanCancel returns true if the transaction can still be aborted.
// A completed transaction can only be refunded, never cancelled.
func (s TransactionStatus) CanCancel() bool {
	return s == TransactionStatusPending || s == TransactionStatusProcessing
}

// canTransitionTo encodes the allowed state machine moves
func (s TransactionStatus) canTransitionTo(target TransactionStatus) bool {
	switch s {
	case TransactionStatusPending:
		return target == TransactionStatusProcessing || target == TransactionStatusCancelled
	case TransactionStatusProcessing:
		return target == TransactionStatusCompleted || target == TransactionStatusFailed ||
			target == TransactionStatusCancelled
	case TransactionStatusCompleted:
		return target == TransactionStatusRefunded
	}
	return false
}

// PaymentMethod identifies how the resident paid
type PaymentMethod string

const (
	PaymentMethodCash     PaymentMethod = "CASH"
	PaymentMethodTransfer PaymentMethod = "TRANSFER"
	PaymentMethodCard     PaymentMethod = "CARD"
	PaymentMethodPSE      PaymentMethod = "PSE"
	PaymentMethodGateway  PaymentMethod = "GATEWAY"
)

// IsValid checks if the method is a known PaymentMethod
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodTransfer, PaymentMethodCard,
		PaymentMethodPSE, PaymentMethodGateway:
		return true
	}
	return false
}

// Transaction represents one payment attempt against an invoice.
// Refunds are compensating transactions with a negative amount that
// reference the original through RefundOfID.
type Transaction struct {
	shared.TenantAggregateRoot
	InvoiceID        uuid.UUID            `json:"invoice_id"`
	PropertyID       uuid.UUID            `json:"property_id"`
	Amount           decimal.Decimal      `json:"amount"`
	Currency         valueobject.Currency `json:"currency"`
	Method           PaymentMethod        `json:"method"`
	Status           TransactionStatus    `json:"status"`
	GatewayName      string               `json:"gateway_name,omitempty"`
	GatewayReference string               `json:"gateway_reference,omitempty"`
	FailureReason    string               `json:"failure_reason,omitempty"`
	Notes            string               `json:"notes,omitempty"`
	ReceiptKey       string               `json:"-"`
	RefundOfID       *uuid.UUID           `json:"refund_of_id,omitempty"`
	ProcessedAt      *time.Time           `json:"processed_at,omitempty"`
}

// NewTransaction registers a payment attempt in PENDING
func NewTransaction(
	tenantID uuid.UUID,
	invoiceID uuid.UUID,
	propertyID uuid.UUID,
	amount valueobject.Money,
	method PaymentMethod,
) (*Transaction, error) {
	if invoiceID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INVOICE", "Invoice ID cannot be empty")
	}
	if propertyID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PROPERTY", "Property ID cannot be empty")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if !method.IsValid() {
		return nil, shared.NewDomainError("INVALID_METHOD",
			fmt.Sprintf("Unknown payment method: %s", method))
	}

	tx := &Transaction{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		InvoiceID:           invoiceID,
		PropertyID:          propertyID,
		Amount:              amount.Amount(),
		Currency:            amount.Currency(),
		Method:              method,
		Status:              TransactionStatusPending,
	}

	tx.AddDomainEvent(NewTransactionCreatedEvent(tx))

	return tx, nil
}

// transition moves the transaction to a new status if the machine allows it
func (tx *Transaction) transition(target TransactionStatus) error {
	if !tx.Status.canTransitionTo(target) {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot move transaction from %s to %s", tx.Status, target))
	}
	tx.Status = target
	tx.UpdatedAt = time.Now()
	tx.IncrementVersion()
	return nil
}

// StartProcessing hands the transaction to a gateway
func (tx *Transaction) StartProcessing(gatewayName, gatewayReference string) error {
	if err := tx.transition(TransactionStatusProcessing); err != nil {
		return err
	}
	tx.GatewayName = gatewayName
	tx.GatewayReference = gatewayReference
	return nil
}

// Complete records a successful collection
func (tx *Transaction) Complete(processedAt time.Time) error {
	if err := tx.transition(TransactionStatusCompleted); err != nil {
		return err
	}
	tx.ProcessedAt = &processedAt
	tx.AddDomainEvent(NewTransactionCompletedEvent(tx))
	return nil
}

// Fail records a declined or errored attempt
func (tx *Transaction) Fail(reason string) error {
	if err := tx.transition(TransactionStatusFailed); err != nil {
		return err
	}
	now := time.Now()
	tx.ProcessedAt = &now
	tx.FailureReason = reason
	tx.AddDomainEvent(NewTransactionFailedEvent(tx, reason))
	return nil
}

// Cancel aborts a transaction that has not completed yet
func (tx *Transaction) Cancel() error {
	if tx.Status == TransactionStatusCompleted {
		return shared.NewDomainError("INVALID_STATE",
			"Completed transactions cannot be cancelled, only refunded")
	}
	if err := tx.transition(TransactionStatusCancelled); err != nil {
		return err
	}
	now := time.Now()
	tx.ProcessedAt = &now
	tx.AddDomainEvent(NewTransactionCancelledEvent(tx))
	return nil
}

// MarkRefunded flags a completed transaction as reversed. ProcessedAt is
// kept so the original stays in the collection period it settled in.
func (tx *Transaction) MarkRefunded() error {
	if err := tx.transition(TransactionStatusRefunded); err != nil {
		return err
	}
	tx.AddDomainEvent(NewTransactionRefundedEvent(tx))
	return nil
}

// NewRefundTransaction builds the compensating transaction for a completed
// payment. It carries the negated amount and is completed immediately.
func NewRefundTransaction(original *Transaction, processedAt time.Time) (*Transaction, error) {
	if original.Status != TransactionStatusCompleted {
		return nil, shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Only completed transactions can be refunded, got %s", original.Status))
	}

	originalID := original.ID
	refund := &Transaction{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(original.TenantID),
		InvoiceID:           original.InvoiceID,
		PropertyID:          original.PropertyID,
		Amount:              original.Amount.Neg(),
		Currency:            original.Currency,
		Method:              original.Method,
		Status:              TransactionStatusCompleted,
		GatewayName:         original.GatewayName,
		RefundOfID:          &originalID,
		ProcessedAt:         &processedAt,
	}

	refund.AddDomainEvent(NewTransactionCompletedEvent(refund))

	return refund, nil
}

// AttachReceipt links a stored payment proof document to the transaction
func (tx *Transaction) AttachReceipt(objectKey string) error {
	if objectKey == "" {
		return shared.NewDomainError("INVALID_RECEIPT", "Receipt object key cannot be empty")
	}
	if tx.Status == TransactionStatusCancelled || tx.Status == TransactionStatusFailed {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot attach a receipt to a %s transaction", tx.Status))
	}
	tx.ReceiptKey = objectKey
	tx.UpdatedAt = time.Now()
	tx.IncrementVersion()
	return nil
}

// GetAmountMoney returns the amount as Money
func (tx *Transaction) GetAmountMoney() valueobject.Money {
	m, _ := valueobject.NewMoney(tx.Amount, tx.Currency)
	return m
}

// IsRefund returns true for compensating transactions
func (tx *Transaction) IsRefund() bool {
	return tx.RefundOfID != nil
}

// CanUpdate returns true if mutable fields may still be edited
func (tx *Transaction) CanUpdate() bool {
	return tx.Status == TransactionStatusPending || tx.Status == TransactionStatusProcessing
}

// UpdateDetails edits the mutable fields of a non-final transaction
func (tx *Transaction) UpdateDetails(method PaymentMethod, notes string) error {
	if !tx.CanUpdate() {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot update transaction in %s status", tx.Status))
	}
	if !method.IsValid() {
		return shared.NewDomainError("INVALID_METHOD",
			fmt.Sprintf("Unknown payment method: %s", method))
	}
	tx.Method = method
	tx.Notes = notes
	tx.UpdatedAt = time.Now()
	tx.IncrementVersion()
	return nil
}
