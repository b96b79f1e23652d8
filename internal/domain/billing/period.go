package billing

import (
	"fmt"
	"time"

	"github.com/armonia/backend/internal/domain/shared"
)

// periodLayout is the canonical "YYYY-MM" representation of a billing period
const periodLayout = "2006-01"

// Period represents a calendar month being billed, e.g. "2025-03"
type Period struct {
	year  int
	month time.Month
}

// ParsePeriod parses a "YYYY-MM" string into a Period
func ParsePeriod(value string) (Period, error) {
	t, err := time.Parse(periodLayout, value)
	if err != nil {
		return Period{}, shared.NewDomainError("VALIDATION_ERROR",
			fmt.Sprintf("billing period must be in YYYY-MM format, got %q", value))
	}
	return Period{year: t.Year(), month: t.Month()}, nil
}

// NewPeriod creates a Period from a point in time
func NewPeriod(t time.Time) Period {
	return Period{year: t.Year(), month: t.Month()}
}

// Start returns the first instant of the period (UTC)
func (p Period) Start() time.Time {
	return time.Date(p.year, p.month, 1, 0, 0, 0, 0, time.UTC)
}

// End returns the exclusive end of the period: the first instant of the next month
func (p Period) End() time.Time {
	return p.Start().AddDate(0, 1, 0)
}

// DueDate returns the payment due date for invoices of this period:
// the 15th of the billed month
func (p Period) DueDate() time.Time {
	return time.Date(p.year, p.month, 15, 0, 0, 0, 0, time.UTC)
}

// Next returns the following period
func (p Period) Next() Period {
	t := p.Start().AddDate(0, 1, 0)
	return Period{year: t.Year(), month: t.Month()}
}

// Contains reports whether t falls inside the period
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start()) && t.Before(p.End())
}

// String returns the canonical "YYYY-MM" form
func (p Period) String() string {
	return p.Start().Format(periodLayout)
}

// IsZero reports whether the period is the zero value
func (p Period) IsZero() bool {
	return p.year == 0
}
