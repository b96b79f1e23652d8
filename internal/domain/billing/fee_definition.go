package billing

import (
	"fmt"
	"time"

	"github.com/armonia/backend/internal/domain/shared"
	"github.com/armonia/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FeeType determines how a fee amount is derived for a property
type FeeType string

const (
	FeeTypeFixed   FeeType = "FIXED"    // Flat amount per property
	FeeTypePerArea FeeType = "PER_AREA" // Base amount multiplied by property area
)

// IsValid checks if the fee type is a valid FeeType
func (t FeeType) IsValid() bool {
	switch t {
	case FeeTypeFixed, FeeTypePerArea:
		return true
	}
	return false
}

// String returns the string representation of FeeType
func (t FeeType) String() string {
	return string(t)
}

// FeeDefinition represents a recurring charge configured for a complex
// Invoices copy its name and computed amount at generation time, so later
// edits never change already issued bills
type FeeDefinition struct {
	shared.TenantAggregateRoot
	Name       string               `json:"name"`
	FeeType    FeeType              `json:"fee_type"`
	BaseAmount decimal.Decimal      `json:"base_amount"`
	Currency   valueobject.Currency `json:"currency"`
	Active     bool                 `json:"active"`
}

// NewFeeDefinition creates a new fee definition
func NewFeeDefinition(
	tenantID uuid.UUID,
	name string,
	feeType FeeType,
	baseAmount valueobject.Money,
) (*FeeDefinition, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_FEE_NAME", "Fee name cannot be empty")
	}
	if len(name) > 100 {
		return nil, shared.NewDomainError("INVALID_FEE_NAME", "Fee name cannot exceed 100 characters")
	}
	if !feeType.IsValid() {
		return nil, shared.NewDomainError("INVALID_FEE_TYPE", fmt.Sprintf("Fee type %q is not valid", feeType))
	}
	if !baseAmount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Base amount must be positive")
	}

	fd := &FeeDefinition{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Name:                name,
		FeeType:             feeType,
		BaseAmount:          baseAmount.Amount(),
		Currency:            baseAmount.Currency(),
		Active:              true,
	}

	fd.AddDomainEvent(NewFeeDefinitionCreatedEvent(fd))

	return fd, nil
}

// AmountFor computes the charge for a property with the given area.
// FIXED fees ignore the area; PER_AREA fees multiply the base amount by it.
// The result is rounded half-up to 2 decimal places.
func (fd *FeeDefinition) AmountFor(area decimal.Decimal) (valueobject.Money, error) {
	base, err := valueobject.NewMoney(fd.BaseAmount, fd.Currency)
	if err != nil {
		return valueobject.Money{}, err
	}
	if fd.FeeType == FeeTypeFixed {
		return base.Round(2), nil
	}
	if area.LessThanOrEqual(decimal.Zero) {
		return valueobject.Money{}, shared.NewDomainError("INVALID_AREA",
			fmt.Sprintf("Per-area fee %q requires a positive property area", fd.Name))
	}
	return base.Multiply(area).Round(2), nil
}

// Update changes the name and base amount
func (fd *FeeDefinition) Update(name string, baseAmount valueobject.Money) error {
	if name == "" {
		return shared.NewDomainError("INVALID_FEE_NAME", "Fee name cannot be empty")
	}
	if !baseAmount.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Base amount must be positive")
	}

	fd.Name = name
	fd.BaseAmount = baseAmount.Amount()
	fd.Currency = baseAmount.Currency()
	fd.UpdatedAt = time.Now()
	fd.IncrementVersion()

	return nil
}

// Activate enables the fee for future billing runs
func (fd *FeeDefinition) Activate() {
	if fd.Active {
		return
	}
	fd.Active = true
	fd.UpdatedAt = time.Now()
	fd.IncrementVersion()
}

// Deactivate excludes the fee from future billing runs
func (fd *FeeDefinition) Deactivate() {
	if !fd.Active {
		return
	}
	fd.Active = false
	fd.UpdatedAt = time.Now()
	fd.IncrementVersion()
}

// IsPerArea returns true for area-based fees
func (fd *FeeDefinition) IsPerArea() bool {
	return fd.FeeType == FeeTypePerArea
}

// GetBaseAmountMoney returns the base amount as Money
func (fd *FeeDefinition) GetBaseAmountMoney() valueobject.Money {
	m, _ := valueobject.NewMoney(fd.BaseAmount, fd.Currency)
	return m
}
