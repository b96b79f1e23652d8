package finance

import (
	"context"
	"fmt"
	"time"

	"github.com/armonia/backend/internal/domain/shared"
	"github.com/armonia/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ExpenseCategory classifies where the money went
type ExpenseCategory string

const (
	ExpenseCategoryMaintenance ExpenseCategory = "MAINTENANCE"
	ExpenseCategoryUtilities   ExpenseCategory = "UTILITIES"
	ExpenseCategorySecurity    ExpenseCategory = "SECURITY"
	ExpenseCategoryCleaning    ExpenseCategory = "CLEANING"
	ExpenseCategoryInsurance   ExpenseCategory = "INSURANCE"
	ExpenseCategoryAdmin       ExpenseCategory = "ADMINISTRATION"
	ExpenseCategoryOther       ExpenseCategory = "OTHER"
)

// IsValid checks if the category is a known ExpenseCategory
func (c ExpenseCategory) IsValid() bool {
	switch c {
	case ExpenseCategoryMaintenance, ExpenseCategoryUtilities, ExpenseCategorySecurity,
		ExpenseCategoryCleaning, ExpenseCategoryInsurance, ExpenseCategoryAdmin,
		ExpenseCategoryOther:
		return true
	}
	return false
}

// String returns the string representation of ExpenseCategory
func (c ExpenseCategory) String() string {
	return string(c)
}

// ExpenseRecord is an outgoing payment made by the complex administration
type ExpenseRecord struct {
	shared.TenantAggregateRoot
	Category    ExpenseCategory      `json:"category"`
	Amount      decimal.Decimal      `json:"amount"`
	Currency    valueobject.Currency `json:"currency"`
	Description string               `json:"description"`
	Vendor      string               `json:"vendor,omitempty"`
	IncurredAt  time.Time            `json:"incurred_at"`
	ReceiptKey  string               `json:"receipt_key,omitempty"` // object storage key of the scanned receipt
}

// NewExpenseRecord registers an outgoing payment
func NewExpenseRecord(
	tenantID uuid.UUID,
	category ExpenseCategory,
	amount valueobject.Money,
	description string,
	vendor string,
	incurredAt time.Time,
) (*ExpenseRecord, error) {
	if !category.IsValid() {
		return nil, shared.NewDomainError("INVALID_CATEGORY",
			fmt.Sprintf("Unknown expense category: %s", category))
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Expense amount must be positive")
	}
	if description == "" {
		return nil, shared.NewDomainError("INVALID_DESCRIPTION", "Expense description cannot be empty")
	}
	if incurredAt.IsZero() {
		return nil, shared.NewDomainError("INVALID_DATE", "Expense date is required")
	}

	e := &ExpenseRecord{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Category:            category,
		Amount:              amount.Amount(),
		Currency:            amount.Currency(),
		Description:         description,
		Vendor:              vendor,
		IncurredAt:          incurredAt,
	}

	e.AddDomainEvent(NewExpenseRecordedEvent(e))

	return e, nil
}

// Update edits the record's descriptive fields
func (e *ExpenseRecord) Update(category ExpenseCategory, amount valueobject.Money, description, vendor string) error {
	if !category.IsValid() {
		return shared.NewDomainError("INVALID_CATEGORY",
			fmt.Sprintf("Unknown expense category: %s", category))
	}
	if !amount.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Expense amount must be positive")
	}
	if description == "" {
		return shared.NewDomainError("INVALID_DESCRIPTION", "Expense description cannot be empty")
	}

	e.Category = category
	e.Amount = amount.Amount()
	e.Currency = amount.Currency()
	e.Description = description
	e.Vendor = vendor
	e.UpdatedAt = time.Now()
	e.IncrementVersion()

	return nil
}

// AttachReceipt links a stored receipt document to the expense
func (e *ExpenseRecord) AttachReceipt(objectKey string) error {
	if objectKey == "" {
		return shared.NewDomainError("INVALID_RECEIPT", "Receipt object key cannot be empty")
	}
	e.ReceiptKey = objectKey
	e.UpdatedAt = time.Now()
	e.IncrementVersion()
	return nil
}

// GetAmountMoney returns the amount as Money
func (e *ExpenseRecord) GetAmountMoney() valueobject.Money {
	m, _ := valueobject.NewMoney(e.Amount, e.Currency)
	return m
}

// ExpenseFilter narrows expense listings
type ExpenseFilter struct {
	Category *ExpenseCategory
	From     *time.Time
	To       *time.Time
	Page     int
	PageSize int
}

// ExpenseRepository persists expense records
type ExpenseRepository interface {
	// Save persists a new expense
	Save(ctx context.Context, e *ExpenseRecord) error

	// SaveWithLock persists changes with an optimistic version check
	SaveWithLock(ctx context.Context, e *ExpenseRecord) error

	// FindByIDForTenant loads an expense scoped to a tenant.
	// Returns nil when missing or owned by another tenant.
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*ExpenseRecord, error)

	// Delete removes an expense record
	Delete(ctx context.Context, tenantID, id uuid.UUID) error

	// List returns expenses matching the filter with a total count
	List(ctx context.Context, tenantID uuid.UUID, filter ExpenseFilter) ([]*ExpenseRecord, int64, error)

	// SumBetween totals expense amounts in a window, grouped by category
	SumBetween(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (map[ExpenseCategory]decimal.Decimal, error)
}
