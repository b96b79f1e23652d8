package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/armonia/backend/internal/domain/finance"
	"github.com/armonia/backend/internal/domain/report"
	"github.com/armonia/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ExpenseRecordModel is the persistence model for the ExpenseRecord aggregate.
type ExpenseRecordModel struct {
	TenantAggregateModel
	Category    finance.ExpenseCategory `gorm:"type:varchar(30);not null;index"`
	Amount      decimal.Decimal         `gorm:"type:decimal(18,2);not null"`
	Currency    string                  `gorm:"type:varchar(10);not null;default:'COP'"`
	Description string                  `gorm:"type:varchar(500);not null"`
	Vendor      string                  `gorm:"type:varchar(200)"`
	IncurredAt  time.Time               `gorm:"not null;index"`
	ReceiptKey  string                  `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (ExpenseRecordModel) TableName() string {
	return "expense_records"
}

// ToDomain converts the persistence model to a domain ExpenseRecord.
func (m *ExpenseRecordModel) ToDomain() *finance.ExpenseRecord {
	exp := &finance.ExpenseRecord{
		Category:    m.Category,
		Amount:      m.Amount,
		Currency:    valueobject.Currency(m.Currency),
		Description: m.Description,
		Vendor:      m.Vendor,
		IncurredAt:  m.IncurredAt,
		ReceiptKey:  m.ReceiptKey,
	}
	m.PopulateTenantAggregateRoot(&exp.TenantAggregateRoot)
	return exp
}

// FromDomain populates the persistence model from a domain ExpenseRecord.
func (m *ExpenseRecordModel) FromDomain(exp *finance.ExpenseRecord) {
	m.FromDomainTenantAggregateRoot(exp.TenantAggregateRoot)
	m.Category = exp.Category
	m.Amount = exp.Amount
	m.Currency = string(exp.Currency)
	m.Description = exp.Description
	m.Vendor = exp.Vendor
	m.IncurredAt = exp.IncurredAt
	m.ReceiptKey = exp.ReceiptKey
}

// ExpenseRecordModelFromDomain creates a new persistence model from a domain ExpenseRecord.
func ExpenseRecordModelFromDomain(exp *finance.ExpenseRecord) *ExpenseRecordModel {
	m := &ExpenseRecordModel{}
	m.FromDomain(exp)
	return m
}

// CategoryAmounts stores a per-category amount breakdown as JSONB.
type CategoryAmounts map[string]decimal.Decimal

// Value implements driver.Valuer interface for GORM to store as JSONB
func (c CategoryAmounts) Value() (driver.Value, error) {
	if c == nil {
		return "{}", nil
	}
	return json.Marshal(c)
}

// Scan implements sql.Scanner interface for GORM to read from JSONB
func (c *CategoryAmounts) Scan(value interface{}) error {
	if value == nil {
		*c = CategoryAmounts{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan CategoryAmounts: unsupported type")
	}

	if len(bytes) == 0 {
		*c = CategoryAmounts{}
		return nil
	}
	return json.Unmarshal(bytes, c)
}

// FinanceSummaryModel is the persistence model for monthly finance snapshots.
// One snapshot per tenant and period; regeneration overwrites in place.
type FinanceSummaryModel struct {
	TenantID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Period              string          `gorm:"type:varchar(7);primaryKey"`
	TotalBilled         decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	TotalCollected      decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Outstanding         decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	CollectionRate      decimal.Decimal `gorm:"type:decimal(6,4);not null"`
	TotalExpenses       decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	ExpensesByCategory  CategoryAmounts `gorm:"type:jsonb;default:'{}'"`
	NetBalance          decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	ExpensesUnavailable bool            `gorm:"not null;default:false"`
	GeneratedAt         time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (FinanceSummaryModel) TableName() string {
	return "finance_summaries"
}

// ToDomain converts the persistence model to a domain FinanceSummary.
func (m *FinanceSummaryModel) ToDomain() *report.FinanceSummary {
	return &report.FinanceSummary{
		TenantID:            m.TenantID,
		Period:              m.Period,
		TotalBilled:         m.TotalBilled,
		TotalCollected:      m.TotalCollected,
		Outstanding:         m.Outstanding,
		CollectionRate:      m.CollectionRate,
		TotalExpenses:       m.TotalExpenses,
		ExpensesByCategory:  map[string]decimal.Decimal(m.ExpensesByCategory),
		NetBalance:          m.NetBalance,
		ExpensesUnavailable: m.ExpensesUnavailable,
		GeneratedAt:         m.GeneratedAt,
	}
}

// FromDomain populates the persistence model from a domain FinanceSummary.
func (m *FinanceSummaryModel) FromDomain(s *report.FinanceSummary) {
	m.TenantID = s.TenantID
	m.Period = s.Period
	m.TotalBilled = s.TotalBilled
	m.TotalCollected = s.TotalCollected
	m.Outstanding = s.Outstanding
	m.CollectionRate = s.CollectionRate
	m.TotalExpenses = s.TotalExpenses
	m.ExpensesByCategory = CategoryAmounts(s.ExpensesByCategory)
	m.NetBalance = s.NetBalance
	m.ExpensesUnavailable = s.ExpensesUnavailable
	m.GeneratedAt = s.GeneratedAt
}

// FinanceSummaryModelFromDomain creates a new persistence model from a domain FinanceSummary.
func FinanceSummaryModelFromDomain(s *report.FinanceSummary) *FinanceSummaryModel {
	m := &FinanceSummaryModel{}
	m.FromDomain(s)
	return m
}
