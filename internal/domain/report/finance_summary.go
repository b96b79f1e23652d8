package report

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FinanceSummary is the financial snapshot of a complex for one period.
// It is a read model assembled from billing, payment, and expense data.
type FinanceSummary struct {
	TenantID       uuid.UUID       `json:"tenant_id"`
	Period         string          `json:"period"` // canonical "YYYY-MM"
	TotalBilled    decimal.Decimal `json:"total_billed"`
	TotalCollected decimal.Decimal `json:"total_collected"`
	Outstanding    decimal.Decimal `json:"outstanding"`
	// CollectionRate is collected/billed in [0,1], zero when nothing was billed
	CollectionRate decimal.Decimal `json:"collection_rate"`
	TotalExpenses  decimal.Decimal `json:"total_expenses"`
	// ExpensesByCategory breaks TotalExpenses down by category name
	ExpensesByCategory map[string]decimal.Decimal `json:"expenses_by_category,omitempty"`
	NetBalance         decimal.Decimal            `json:"net_balance"`
	// ExpensesUnavailable is set when the expense source failed and the
	// expense figures above are zeroed rather than real
	ExpensesUnavailable bool      `json:"expenses_unavailable,omitempty"`
	GeneratedAt         time.Time `json:"generated_at"`
}

// InvoiceAging buckets outstanding invoices by how overdue they are
type InvoiceAging struct {
	Current      decimal.Decimal `json:"current"`       // not yet due
	Days1To30    decimal.Decimal `json:"days_1_to_30"`  // up to 30 days late
	Days31To60   decimal.Decimal `json:"days_31_to_60"` // 31-60 days late
	Days61To90   decimal.Decimal `json:"days_61_to_90"` // 61-90 days late
	Over90Days   decimal.Decimal `json:"over_90_days"`  // more than 90 days late
	TotalOverdue decimal.Decimal `json:"total_overdue"`
	InvoiceCount int             `json:"invoice_count"`
}

// SummaryRepository reads persisted report snapshots
type SummaryRepository interface {
	// SaveSnapshot stores a generated summary for later retrieval
	SaveSnapshot(ctx context.Context, summary *FinanceSummary) error

	// FindSnapshot loads the latest stored summary for a tenant and period.
	// Returns nil when no snapshot exists.
	FindSnapshot(ctx context.Context, tenantID uuid.UUID, period string) (*FinanceSummary, error)
}
