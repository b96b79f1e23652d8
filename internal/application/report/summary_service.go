package report

import (
	"context"
	"fmt"
	"time"

	"github.com/armonia/backend/internal/domain/billing"
	"github.com/armonia/backend/internal/domain/finance"
	"github.com/armonia/backend/internal/domain/identity"
	"github.com/armonia/backend/internal/domain/payment"
	"github.com/armonia/backend/internal/domain/report"
	"github.com/armonia/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SummaryService assembles financial summaries from the billing, payment,
// and expense sources
type SummaryService struct {
	invoiceRepo billing.InvoiceRepository
	txRepo      payment.TransactionRepository
	expenseRepo finance.ExpenseRepository
	tenantRepo  identity.TenantRepository
	summaryRepo report.SummaryRepository
	logger      *zap.Logger
}

// SummaryServiceConfig holds dependencies for the summary service
type SummaryServiceConfig struct {
	InvoiceRepo billing.InvoiceRepository
	TxRepo      payment.TransactionRepository
	ExpenseRepo finance.ExpenseRepository
	TenantRepo  identity.TenantRepository
	SummaryRepo report.SummaryRepository
	Logger      *zap.Logger
}

// NewSummaryService creates a new SummaryService
func NewSummaryService(config SummaryServiceConfig) *SummaryService {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SummaryService{
		invoiceRepo: config.InvoiceRepo,
		txRepo:      config.TxRepo,
		expenseRepo: config.ExpenseRepo,
		tenantRepo:  config.TenantRepo,
		summaryRepo: config.SummaryRepo,
		logger:      logger,
	}
}

// GenerateSummary builds the financial snapshot for one period. A failure
// of the expense source degrades the summary instead of failing it: expense
// figures come back zeroed with ExpensesUnavailable set.
func (s *SummaryService) GenerateSummary(ctx context.Context, tenantID uuid.UUID, rawPeriod string) (*report.FinanceSummary, error) {
	period, err := billing.ParsePeriod(rawPeriod)
	if err != nil {
		return nil, err
	}

	if err := s.requireReports(ctx, tenantID); err != nil {
		return nil, err
	}

	totalBilled, err := s.invoiceRepo.SumBilledForPeriod(ctx, tenantID, period.String())
	if err != nil {
		return nil, fmt.Errorf("failed to sum billed amounts: %w", err)
	}

	outstanding, err := s.invoiceRepo.SumOutstandingForPeriod(ctx, tenantID, period.String())
	if err != nil {
		return nil, fmt.Errorf("failed to sum outstanding amounts: %w", err)
	}

	totalCollected, err := s.txRepo.SumCollectedBetween(ctx, tenantID, period.Start(), period.End())
	if err != nil {
		return nil, fmt.Errorf("failed to sum collected amounts: %w", err)
	}

	summary := &report.FinanceSummary{
		TenantID:       tenantID,
		Period:         period.String(),
		TotalBilled:    totalBilled,
		TotalCollected: totalCollected,
		Outstanding:    outstanding,
		CollectionRate: collectionRate(totalBilled, totalCollected),
		GeneratedAt:    time.Now(),
	}

	byCategory, err := s.expenseRepo.SumBetween(ctx, tenantID, period.Start(), period.End())
	if err != nil {
		s.logger.Warn("Expense source unavailable, degrading summary",
			zap.String("tenant_id", tenantID.String()),
			zap.String("period", period.String()),
			zap.Error(err))
		summary.ExpensesUnavailable = true
		summary.TotalExpenses = decimal.Zero
		summary.NetBalance = totalCollected
	} else {
		total := decimal.Zero
		categories := make(map[string]decimal.Decimal, len(byCategory))
		for category, amount := range byCategory {
			total = total.Add(amount)
			categories[string(category)] = amount
		}
		summary.TotalExpenses = total
		summary.ExpensesByCategory = categories
		summary.NetBalance = totalCollected.Sub(total)
	}

	if s.summaryRepo != nil {
		if err := s.summaryRepo.SaveSnapshot(ctx, summary); err != nil {
			s.logger.Warn("Failed to persist summary snapshot", zap.Error(err))
		}
	}

	return summary, nil
}

// GetInvoiceAging buckets open invoices by how overdue they are
func (s *SummaryService) GetInvoiceAging(ctx context.Context, tenantID uuid.UUID, asOf time.Time) (*report.InvoiceAging, error) {
	if err := s.requireReports(ctx, tenantID); err != nil {
		return nil, err
	}

	invoices, err := s.invoiceRepo.FindOpen(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load open invoices: %w", err)
	}

	aging := &report.InvoiceAging{
		Current:      decimal.Zero,
		Days1To30:    decimal.Zero,
		Days31To60:   decimal.Zero,
		Days61To90:   decimal.Zero,
		Over90Days:   decimal.Zero,
		TotalOverdue: decimal.Zero,
	}

	for i := range invoices {
		inv := &invoices[i]
		remaining := inv.RemainingAmount()
		days := inv.DaysLate(asOf)
		aging.InvoiceCount++

		switch {
		case days == 0:
			aging.Current = aging.Current.Add(remaining)
		case days <= 30:
			aging.Days1To30 = aging.Days1To30.Add(remaining)
		case days <= 60:
			aging.Days31To60 = aging.Days31To60.Add(remaining)
		case days <= 90:
			aging.Days61To90 = aging.Days61To90.Add(remaining)
		default:
			aging.Over90Days = aging.Over90Days.Add(remaining)
		}
		if days > 0 {
			aging.TotalOverdue = aging.TotalOverdue.Add(remaining)
		}
	}

	return aging, nil
}

func (s *SummaryService) requireReports(ctx context.Context, tenantID uuid.UUID) error {
	tenant, err := s.tenantRepo.FindByID(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("failed to load tenant: %w", err)
	}
	if tenant == nil {
		return shared.ErrNotFound
	}
	if !identity.PlanHasFeature(tenant.Plan, identity.FeatureFinancialReports) {
		return shared.NewDomainError("FEATURE_NOT_LICENSED",
			fmt.Sprintf("Plan %s does not include %s", tenant.Plan, identity.FeatureFinancialReports))
	}
	return nil
}

// collectionRate returns collected/billed clamped to [0,1], zero when
// nothing was billed
func collectionRate(billed, collected decimal.Decimal) decimal.Decimal {
	if billed.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}
	rate := collected.DivRound(billed, 4)
	if rate.LessThan(decimal.Zero) {
		return decimal.Zero
	}
	if rate.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.NewFromInt(1)
	}
	return rate
}
