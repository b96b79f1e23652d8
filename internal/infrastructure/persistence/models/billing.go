package models

import (
	"time"

	"github.com/armonia/backend/internal/domain/billing"
	"github.com/armonia/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FeeDefinitionModel is the persistence model for the FeeDefinition aggregate.
type FeeDefinitionModel struct {
	TenantAggregateModel
	Name       string          `gorm:"type:varchar(100);not null"`
	FeeType    billing.FeeType `gorm:"type:varchar(20);not null"`
	BaseAmount decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Currency   string          `gorm:"type:varchar(10);not null;default:'COP'"`
	Active     bool            `gorm:"not null;default:true;index"`
}

// TableName returns the table name for GORM
func (FeeDefinitionModel) TableName() string {
	return "fee_definitions"
}

// ToDomain converts the persistence model to a domain FeeDefinition.
func (m *FeeDefinitionModel) ToDomain() *billing.FeeDefinition {
	fee := &billing.FeeDefinition{
		Name:       m.Name,
		FeeType:    m.FeeType,
		BaseAmount: m.BaseAmount,
		Currency:   valueobject.Currency(m.Currency),
		Active:     m.Active,
	}
	m.PopulateTenantAggregateRoot(&fee.TenantAggregateRoot)
	return fee
}

// FromDomain populates the persistence model from a domain FeeDefinition.
func (m *FeeDefinitionModel) FromDomain(fee *billing.FeeDefinition) {
	m.FromDomainTenantAggregateRoot(fee.TenantAggregateRoot)
	m.Name = fee.Name
	m.FeeType = fee.FeeType
	m.BaseAmount = fee.BaseAmount
	m.Currency = string(fee.Currency)
	m.Active = fee.Active
}

// FeeDefinitionModelFromDomain creates a new persistence model from a domain FeeDefinition.
func FeeDefinitionModelFromDomain(fee *billing.FeeDefinition) *FeeDefinitionModel {
	m := &FeeDefinitionModel{}
	m.FromDomain(fee)
	return m
}

// InvoiceModel is the persistence model for the Invoice aggregate.
// A unique index on (tenant_id, property_id, billing_period) backs the
// one-invoice-per-property-per-period guarantee.
type InvoiceModel struct {
	TenantAggregateModel
	PropertyID    uuid.UUID             `gorm:"type:uuid;not null;index"`
	BillingPeriod string                `gorm:"type:varchar(7);not null;index"`
	Status        billing.InvoiceStatus `gorm:"type:varchar(20);not null;index"`
	Currency      string                `gorm:"type:varchar(10);not null;default:'COP'"`
	TotalAmount   decimal.Decimal       `gorm:"type:decimal(18,2);not null"`
	PaidAmount    decimal.Decimal       `gorm:"type:decimal(18,2);not null;default:0"`
	LateFeeAmount decimal.Decimal       `gorm:"type:decimal(18,2);not null;default:0"`
	DueDate       time.Time             `gorm:"not null;index"`
	PaidAt        *time.Time
	Items         []BillItemModel `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the persistence model to a domain Invoice.
func (m *InvoiceModel) ToDomain() *billing.Invoice {
	inv := &billing.Invoice{
		PropertyID:    m.PropertyID,
		BillingPeriod: m.BillingPeriod,
		Status:        m.Status,
		Currency:      valueobject.Currency(m.Currency),
		TotalAmount:   m.TotalAmount,
		PaidAmount:    m.PaidAmount,
		LateFeeAmount: m.LateFeeAmount,
		DueDate:       m.DueDate,
		PaidAt:        m.PaidAt,
		Items:         make([]billing.BillItem, 0, len(m.Items)),
	}
	m.PopulateTenantAggregateRoot(&inv.TenantAggregateRoot)
	for _, item := range m.Items {
		inv.Items = append(inv.Items, item.ToDomain())
	}
	return inv
}

// FromDomain populates the persistence model from a domain Invoice.
func (m *InvoiceModel) FromDomain(inv *billing.Invoice) {
	m.FromDomainTenantAggregateRoot(inv.TenantAggregateRoot)
	m.PropertyID = inv.PropertyID
	m.BillingPeriod = inv.BillingPeriod
	m.Status = inv.Status
	m.Currency = string(inv.Currency)
	m.TotalAmount = inv.TotalAmount
	m.PaidAmount = inv.PaidAmount
	m.LateFeeAmount = inv.LateFeeAmount
	m.DueDate = inv.DueDate
	m.PaidAt = inv.PaidAt
	m.Items = make([]BillItemModel, 0, len(inv.Items))
	for _, item := range inv.Items {
		itemModel := BillItemModel{}
		itemModel.FromDomain(item)
		m.Items = append(m.Items, itemModel)
	}
}

// InvoiceModelFromDomain creates a new persistence model from a domain Invoice.
func InvoiceModelFromDomain(inv *billing.Invoice) *InvoiceModel {
	m := &InvoiceModel{}
	m.FromDomain(inv)
	return m
}

// BillItemModel is the persistence model for invoice line items.
type BillItemModel struct {
	ID              uuid.UUID       `gorm:"type:uuid;primary_key"`
	InvoiceID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	FeeDefinitionID uuid.UUID       `gorm:"type:uuid;not null"`
	Name            string          `gorm:"type:varchar(100);not null"`
	Amount          decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	CreatedAt       time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (BillItemModel) TableName() string {
	return "bill_items"
}

// ToDomain converts the persistence model to a domain BillItem.
func (m *BillItemModel) ToDomain() billing.BillItem {
	return billing.BillItem{
		ID:              m.ID,
		InvoiceID:       m.InvoiceID,
		FeeDefinitionID: m.FeeDefinitionID,
		Name:            m.Name,
		Amount:          m.Amount,
		CreatedAt:       m.CreatedAt,
	}
}

// FromDomain populates the persistence model from a domain BillItem.
func (m *BillItemModel) FromDomain(item billing.BillItem) {
	m.ID = item.ID
	m.InvoiceID = item.InvoiceID
	m.FeeDefinitionID = item.FeeDefinitionID
	m.Name = item.Name
	m.Amount = item.Amount
	m.CreatedAt = item.CreatedAt
}
