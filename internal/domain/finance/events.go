package finance

import (
	"github.com/armonia/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

const (
	EventTypeExpenseRecorded = "finance.expense.recorded"
)

// ExpenseRecordedEvent is raised when an outgoing payment is registered
type ExpenseRecordedEvent struct {
	shared.BaseDomainEvent
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
}

func NewExpenseRecordedEvent(e *ExpenseRecord) *ExpenseRecordedEvent {
	return &ExpenseRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeExpenseRecorded, "ExpenseRecord", e.ID, e.TenantID),
		Category:        string(e.Category),
		Amount:          e.Amount,
	}
}
