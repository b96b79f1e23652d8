package models

import (
	"time"

	"github.com/armonia/backend/internal/domain/payment"
	"github.com/armonia/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionModel is the persistence model for the payment Transaction aggregate.
// GatewayReference carries a partial unique index per tenant (see migrations)
// so a duplicate gateway callback can never insert a second transaction.
type TransactionModel struct {
	TenantAggregateModel
	InvoiceID        uuid.UUID                 `gorm:"type:uuid;not null;index"`
	PropertyID       uuid.UUID                 `gorm:"type:uuid;not null;index"`
	Amount           decimal.Decimal           `gorm:"type:decimal(18,2);not null"`
	Currency         string                    `gorm:"type:varchar(10);not null;default:'COP'"`
	Method           payment.PaymentMethod     `gorm:"type:varchar(20);not null"`
	Status           payment.TransactionStatus `gorm:"type:varchar(20);not null;index"`
	GatewayName      string                    `gorm:"type:varchar(50)"`
	GatewayReference string                    `gorm:"type:varchar(100);index"`
	FailureReason    string                    `gorm:"type:varchar(500)"`
	Notes            string                    `gorm:"type:varchar(500)"`
	ReceiptKey       string                    `gorm:"type:varchar(500)"`
	RefundOfID       *uuid.UUID                `gorm:"type:uuid"`
	ProcessedAt      *time.Time                `gorm:"index"`
}

// TableName returns the table name for GORM
func (TransactionModel) TableName() string {
	return "payment_transactions"
}

// ToDomain converts the persistence model to a domain Transaction.
func (m *TransactionModel) ToDomain() *payment.Transaction {
	tx := &payment.Transaction{
		InvoiceID:        m.InvoiceID,
		PropertyID:       m.PropertyID,
		Amount:           m.Amount,
		Currency:         valueobject.Currency(m.Currency),
		Method:           m.Method,
		Status:           m.Status,
		GatewayName:      m.GatewayName,
		GatewayReference: m.GatewayReference,
		FailureReason:    m.FailureReason,
		Notes:            m.Notes,
		ReceiptKey:       m.ReceiptKey,
		RefundOfID:       m.RefundOfID,
		ProcessedAt:      m.ProcessedAt,
	}
	m.PopulateTenantAggregateRoot(&tx.TenantAggregateRoot)
	return tx
}

// FromDomain populates the persistence model from a domain Transaction.
func (m *TransactionModel) FromDomain(tx *payment.Transaction) {
	m.FromDomainTenantAggregateRoot(tx.TenantAggregateRoot)
	m.InvoiceID = tx.InvoiceID
	m.PropertyID = tx.PropertyID
	m.Amount = tx.Amount
	m.Currency = string(tx.Currency)
	m.Method = tx.Method
	m.Status = tx.Status
	m.GatewayName = tx.GatewayName
	m.GatewayReference = tx.GatewayReference
	m.FailureReason = tx.FailureReason
	m.Notes = tx.Notes
	m.ReceiptKey = tx.ReceiptKey
	m.RefundOfID = tx.RefundOfID
	m.ProcessedAt = tx.ProcessedAt
}

// TransactionModelFromDomain creates a new persistence model from a domain Transaction.
func TransactionModelFromDomain(tx *payment.Transaction) *TransactionModel {
	m := &TransactionModel{}
	m.FromDomain(tx)
	return m
}
