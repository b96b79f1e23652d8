package billing

import (
	"github.com/armonia/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// daysPerMonth is the convention used to derive a daily rate from the
// configured monthly rate
var daysPerMonth = decimal.NewFromInt(30)

// CalculateLateFee computes the late fee owed on an overdue amount.
// The monthly rate is prorated to a daily rate over 30 days and applied per
// day late, rounded half-up to 2 decimal places. A non-positive days-late
// yields zero; a negative amount is rejected.
func CalculateLateFee(amount decimal.Decimal, daysLate int, monthlyRate decimal.Decimal) (decimal.Decimal, error) {
	if amount.IsNegative() {
		return decimal.Zero, shared.NewDomainError("INVALID_AMOUNT", "Overdue amount cannot be negative")
	}
	if monthlyRate.IsNegative() {
		return decimal.Zero, shared.NewDomainError("INVALID_RATE", "Monthly rate cannot be negative")
	}
	if daysLate <= 0 {
		return decimal.Zero, nil
	}

	dailyRate := monthlyRate.Div(daysPerMonth)
	fee := amount.Mul(dailyRate).Mul(decimal.NewFromInt(int64(daysLate)))
	return fee.Round(2), nil
}
