package billing

import (
	"fmt"
	"time"

	"github.com/armonia/backend/internal/domain/shared"
	"github.com/armonia/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceStatus represents the lifecycle state of an invoice
type InvoiceStatus string

const (
	InvoiceStatusPending   InvoiceStatus = "PENDING"   // Issued, nothing collected
	InvoiceStatusPartial   InvoiceStatus = "PARTIAL"   // Partially collected
	InvoiceStatusPaid      InvoiceStatus = "PAID"      // Fully collected
	InvoiceStatusOverdue   InvoiceStatus = "OVERDUE"   // Past due date, not fully collected
	InvoiceStatusCancelled InvoiceStatus = "CANCELLED" // Voided before collection
)

// IsValid checks if the status is a valid InvoiceStatus
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusPending, InvoiceStatusPartial, InvoiceStatusPaid,
		InvoiceStatusOverdue, InvoiceStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of InvoiceStatus
func (s InvoiceStatus) String() string {
	return string(s)
}

// IsTerminal returns true if no further collection can happen
func (s InvoiceStatus) IsTerminal() bool {
	return s == InvoiceStatusPaid || s == InvoiceStatusCancelled
}

// CanReceivePayment returns true if payments can still be applied
func (s InvoiceStatus) CanReceivePayment() bool {
	return s == InvoiceStatusPending || s == InvoiceStatusPartial || s == InvoiceStatusOverdue
}

// CanCancel returns true if the invoice can be cancelled in this status.
// Invoices with money already applied cannot be voided.
func (s InvoiceStatus) CanCancel() bool {
	return s == InvoiceStatusPending || s == InvoiceStatusOverdue
}

// BillItem is a line item copied from a fee definition at generation time
type BillItem struct {
	ID              uuid.UUID       `json:"id"`
	InvoiceID       uuid.UUID       `json:"invoice_id"`
	FeeDefinitionID uuid.UUID       `json:"fee_definition_id"`
	Name            string          `json:"name"`
	Amount          decimal.Decimal `json:"amount"`
	CreatedAt       time.Time       `json:"created_at"`
}

// NewBillItem creates a line item from a computed fee amount
func NewBillItem(feeDefinitionID uuid.UUID, name string, amount valueobject.Money) (*BillItem, error) {
	if feeDefinitionID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_FEE", "Fee definition ID cannot be empty")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_ITEM_NAME", "Item name cannot be empty")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Item amount must be positive")
	}
	return &BillItem{
		ID:              uuid.New(),
		FeeDefinitionID: feeDefinitionID,
		Name:            name,
		Amount:          amount.Amount(),
		CreatedAt:       time.Now(),
	}, nil
}

// Invoice represents the monthly bill of one property for one period.
// TotalAmount is always the sum of its items; accrued late fees are recorded
// separately so the invariant survives overdue processing.
type Invoice struct {
	shared.TenantAggregateRoot
	PropertyID    uuid.UUID            `json:"property_id"`
	BillingPeriod string               `json:"billing_period"` // canonical "YYYY-MM"
	Status        InvoiceStatus        `json:"status"`
	Currency      valueobject.Currency `json:"currency"`
	TotalAmount   decimal.Decimal      `json:"total_amount"`
	PaidAmount    decimal.Decimal      `json:"paid_amount"`
	LateFeeAmount decimal.Decimal      `json:"late_fee_amount"`
	DueDate       time.Time            `json:"due_date"`
	PaidAt        *time.Time           `json:"paid_at"`
	Items         []BillItem           `json:"items"`
}

// NewInvoice creates an invoice for a property and period from prepared items
func NewInvoice(
	tenantID uuid.UUID,
	propertyID uuid.UUID,
	period Period,
	items []BillItem,
) (*Invoice, error) {
	if propertyID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PROPERTY", "Property ID cannot be empty")
	}
	if period.IsZero() {
		return nil, shared.NewDomainError("INVALID_PERIOD", "Billing period is required")
	}
	if len(items) == 0 {
		return nil, shared.NewDomainError("INVALID_ITEMS", "Invoice requires at least one item")
	}

	total := decimal.Zero
	for _, item := range items {
		if item.Amount.LessThanOrEqual(decimal.Zero) {
			return nil, shared.NewDomainError("INVALID_AMOUNT",
				fmt.Sprintf("Item %q amount must be positive", item.Name))
		}
		total = total.Add(item.Amount)
	}

	inv := &Invoice{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		PropertyID:          propertyID,
		BillingPeriod:       period.String(),
		Status:              InvoiceStatusPending,
		Currency:            valueobject.DefaultCurrency,
		TotalAmount:         total,
		PaidAmount:          decimal.Zero,
		LateFeeAmount:       decimal.Zero,
		DueDate:             period.DueDate(),
		Items:               items,
	}
	for i := range inv.Items {
		inv.Items[i].InvoiceID = inv.ID
	}

	inv.AddDomainEvent(NewInvoiceGeneratedEvent(inv))

	return inv, nil
}

// ApplyPayment records a collected amount against the invoice.
// The invoice becomes PAID once paid amount covers the total (late fee
// included), PARTIAL otherwise. Returns whether this payment settled it.
func (inv *Invoice) ApplyPayment(amount valueobject.Money, paidAt time.Time) (bool, error) {
	if !inv.Status.CanReceivePayment() {
		return false, shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot apply payment to invoice in %s status", inv.Status))
	}
	if !amount.IsPositive() {
		return false, shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if amount.Currency() != inv.Currency {
		return false, shared.NewDomainError("INVALID_CURRENCY",
			fmt.Sprintf("Payment currency %s does not match invoice currency %s", amount.Currency(), inv.Currency))
	}

	inv.PaidAmount = inv.PaidAmount.Add(amount.Amount())

	settled := inv.PaidAmount.GreaterThanOrEqual(inv.AmountDue())
	if settled {
		inv.Status = InvoiceStatusPaid
		inv.PaidAt = &paidAt
	} else {
		inv.Status = InvoiceStatusPartial
	}

	inv.UpdatedAt = time.Now()
	inv.IncrementVersion()

	inv.AddDomainEvent(NewInvoicePaymentAppliedEvent(inv, amount.Amount(), settled))

	return settled, nil
}

// ReversePayment backs out a refunded amount. A settled invoice reopens
// as PARTIAL (or PENDING when nothing remains collected).
func (inv *Invoice) ReversePayment(amount valueobject.Money) error {
	if !amount.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Refund amount must be positive")
	}
	if inv.Status == InvoiceStatusCancelled {
		return shared.NewDomainError("INVALID_STATE", "Cannot refund a cancelled invoice")
	}
	if amount.Amount().GreaterThan(inv.PaidAmount) {
		return shared.NewDomainError("INVALID_AMOUNT", "Refund exceeds collected amount")
	}

	inv.PaidAmount = inv.PaidAmount.Sub(amount.Amount())
	inv.PaidAt = nil
	if inv.PaidAmount.IsZero() {
		inv.Status = InvoiceStatusPending
	} else {
		inv.Status = InvoiceStatusPartial
	}

	inv.UpdatedAt = time.Now()
	inv.IncrementVersion()

	return nil
}

// MarkOverdue flags the invoice past its due date and records the accrued
// late fee. No-op amounts and already settled invoices are rejected.
func (inv *Invoice) MarkOverdue(lateFee decimal.Decimal, asOf time.Time) error {
	if !inv.Status.CanReceivePayment() {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot mark invoice overdue in %s status", inv.Status))
	}
	if asOf.Before(inv.DueDate) {
		return shared.NewDomainError("INVALID_STATE", "Invoice is not past its due date")
	}
	if lateFee.IsNegative() {
		return shared.NewDomainError("INVALID_AMOUNT", "Late fee cannot be negative")
	}

	inv.Status = InvoiceStatusOverdue
	inv.LateFeeAmount = lateFee
	inv.UpdatedAt = time.Now()
	inv.IncrementVersion()

	inv.AddDomainEvent(NewInvoiceOverdueEvent(inv))

	return nil
}

// Cancel voids the invoice. Invoices with collected money cannot be voided.
func (inv *Invoice) Cancel() error {
	if !inv.Status.CanCancel() {
		return shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot cancel invoice in %s status", inv.Status))
	}

	inv.Status = InvoiceStatusCancelled
	inv.UpdatedAt = time.Now()
	inv.IncrementVersion()

	inv.AddDomainEvent(NewInvoiceCancelledEvent(inv))

	return nil
}

// AmountDue returns total plus accrued late fee
func (inv *Invoice) AmountDue() decimal.Decimal {
	return inv.TotalAmount.Add(inv.LateFeeAmount)
}

// RemainingAmount returns what is still owed
func (inv *Invoice) RemainingAmount() decimal.Decimal {
	remaining := inv.AmountDue().Sub(inv.PaidAmount)
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}

// DaysLate returns the whole days past the due date at the given time,
// zero when not yet due
func (inv *Invoice) DaysLate(asOf time.Time) int {
	if !asOf.After(inv.DueDate) {
		return 0
	}
	return int(asOf.Sub(inv.DueDate).Hours() / 24)
}

// GetRemainingAmountMoney returns the unpaid balance as Money
func (inv *Invoice) GetRemainingAmountMoney() valueobject.Money {
	m, _ := valueobject.NewMoney(inv.RemainingAmount(), inv.Currency)
	return m
}

// GetTotalAmountMoney returns the total as Money
func (inv *Invoice) GetTotalAmountMoney() valueobject.Money {
	m, _ := valueobject.NewMoney(inv.TotalAmount, inv.Currency)
	return m
}

// IsPaid returns true if the invoice is fully collected
func (inv *Invoice) IsPaid() bool {
	return inv.Status == InvoiceStatusPaid
}
