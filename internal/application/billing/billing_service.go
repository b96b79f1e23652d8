package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/armonia/backend/internal/domain/activity"
	"github.com/armonia/backend/internal/domain/billing"
	"github.com/armonia/backend/internal/domain/identity"
	"github.com/armonia/backend/internal/domain/property"
	"github.com/armonia/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// BillingService orchestrates fee definitions and monthly bill generation
type BillingService struct {
	feeRepo        billing.FeeDefinitionRepository
	invoiceRepo    billing.InvoiceRepository
	propertyRepo   property.Repository
	tenantRepo     identity.TenantRepository
	activityRepo   activity.Repository
	eventPublisher shared.EventPublisher
	lateFeeRate    decimal.Decimal // monthly late fee rate, e.g. 0.03
	logger         *zap.Logger
}

// BillingServiceConfig holds dependencies for the billing service
type BillingServiceConfig struct {
	FeeRepo        billing.FeeDefinitionRepository
	InvoiceRepo    billing.InvoiceRepository
	PropertyRepo   property.Repository
	TenantRepo     identity.TenantRepository
	ActivityRepo   activity.Repository
	EventPublisher shared.EventPublisher
	LateFeeRate    decimal.Decimal
	Logger         *zap.Logger
}

// NewBillingService creates a new BillingService
func NewBillingService(config BillingServiceConfig) *BillingService {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	rate := config.LateFeeRate
	if rate.IsZero() {
		rate = decimal.NewFromFloat(0.03)
	}
	return &BillingService{
		feeRepo:        config.FeeRepo,
		invoiceRepo:    config.InvoiceRepo,
		propertyRepo:   config.PropertyRepo,
		tenantRepo:     config.TenantRepo,
		activityRepo:   config.ActivityRepo,
		eventPublisher: config.EventPublisher,
		lateFeeRate:    rate,
		logger:         logger,
	}
}

// GenerateBillsResult summarizes one billing run
type GenerateBillsResult struct {
	Period    string `json:"period"`
	Generated int    `json:"generated"`
	Skipped   int    `json:"skipped"`
	Failed    int    `json:"failed"`
}

// GenerateBills creates one invoice per billable property for the given
// period. Properties that already have an invoice for the period are
// skipped, so the operation can be retried safely.
func (s *BillingService) GenerateBills(ctx context.Context, tenantID, actorID uuid.UUID, rawPeriod string) (*GenerateBillsResult, error) {
	period, err := billing.ParsePeriod(rawPeriod)
	if err != nil {
		return nil, err
	}

	if err := s.requireFeature(ctx, tenantID, identity.FeatureBillingEngine); err != nil {
		return nil, err
	}

	fees, err := s.feeRepo.FindActiveByTenant(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load fee definitions: %w", err)
	}
	if len(fees) == 0 {
		s.logger.Info("No active fee definitions, nothing to bill",
			zap.String("tenant_id", tenantID.String()),
			zap.String("period", period.String()))
		return &GenerateBillsResult{Period: period.String()}, nil
	}

	properties, err := s.propertyRepo.FindActiveByTenant(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load properties: %w", err)
	}

	result := &GenerateBillsResult{Period: period.String()}

	for _, prop := range properties {
		existing, err := s.invoiceRepo.FindByPropertyAndPeriod(ctx, tenantID, prop.ID, period.String())
		if err != nil {
			s.logger.Error("Failed to check existing invoice",
				zap.String("property_id", prop.ID.String()),
				zap.Error(err))
			result.Failed++
			continue
		}
		if existing != nil {
			result.Skipped++
			continue
		}

		invoice, err := s.buildInvoice(tenantID, prop, period, fees)
		if err != nil {
			s.logger.Error("Failed to build invoice",
				zap.String("property_id", prop.ID.String()),
				zap.String("unit_number", prop.UnitNumber),
				zap.Error(err))
			result.Failed++
			continue
		}

		if err := s.invoiceRepo.Save(ctx, invoice); err != nil {
			// A concurrent run may have inserted the same (property, period)
			// pair; the unique index turns that into an already-exists error.
			var domainErr *shared.DomainError
			if errors.As(err, &domainErr) && domainErr.Code == shared.ErrAlreadyExists.Code {
				result.Skipped++
				continue
			}
			s.logger.Error("Failed to save invoice",
				zap.String("property_id", prop.ID.String()),
				zap.Error(err))
			result.Failed++
			continue
		}

		s.publishEvents(ctx, invoice.GetDomainEvents())
		invoice.ClearDomainEvents()
		result.Generated++
	}

	s.logger.Info("Billing run completed",
		zap.String("tenant_id", tenantID.String()),
		zap.String("period", period.String()),
		zap.Int("generated", result.Generated),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed))

	s.recordActivity(ctx, tenantID, actorID, activity.ActionBillingRun, "Invoice", uuid.Nil,
		fmt.Sprintf("Billing run for %s: %d generated, %d skipped, %d failed",
			period.String(), result.Generated, result.Skipped, result.Failed))

	return result, nil
}

// buildInvoice assembles the line items for one property from the active fees
func (s *BillingService) buildInvoice(tenantID uuid.UUID, prop *property.Property, period billing.Period, fees []billing.FeeDefinition) (*billing.Invoice, error) {
	items := make([]billing.BillItem, 0, len(fees))
	for _, fee := range fees {
		amount, err := fee.AmountFor(prop.Area)
		if err != nil {
			return nil, err
		}
		item, err := billing.NewBillItem(fee.ID, fee.Name, amount)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return billing.NewInvoice(tenantID, prop.ID, period, items)
}

// GetInvoice loads an invoice scoped to the tenant
func (s *BillingService) GetInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) (*billing.Invoice, error) {
	invoice, err := s.invoiceRepo.FindByIDForTenant(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, shared.ErrNotFound
	}
	return invoice, nil
}

// Actor identifies who is performing a billing operation and whether results
// must be limited to properties they own
type Actor struct {
	ID        uuid.UUID
	OwnerOnly bool
}

// GetInvoiceForActor loads an invoice; owner-scoped actors only see
// invoices for properties registered to them
func (s *BillingService) GetInvoiceForActor(ctx context.Context, tenantID uuid.UUID, actor Actor, invoiceID uuid.UUID) (*billing.Invoice, error) {
	invoice, err := s.GetInvoice(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, err
	}
	if actor.OwnerOnly {
		prop, err := s.propertyRepo.FindByIDForTenant(ctx, tenantID, invoice.PropertyID)
		if err != nil {
			return nil, err
		}
		if prop == nil || prop.OwnerUserID == nil || *prop.OwnerUserID != actor.ID {
			// Present a foreign invoice as absent rather than forbidden
			return nil, shared.ErrNotFound
		}
	}
	return invoice, nil
}

// ListInvoices returns invoices matching the filter
func (s *BillingService) ListInvoices(ctx context.Context, tenantID uuid.UUID, filter billing.InvoiceFilter) ([]billing.Invoice, int64, error) {
	return s.invoiceRepo.List(ctx, tenantID, filter)
}

// CancelInvoice voids an invoice that has not collected any money
func (s *BillingService) CancelInvoice(ctx context.Context, tenantID, actorID, invoiceID uuid.UUID) error {
	invoice, err := s.GetInvoice(ctx, tenantID, invoiceID)
	if err != nil {
		return err
	}

	if err := invoice.Cancel(); err != nil {
		return err
	}

	if err := s.invoiceRepo.SaveWithLock(ctx, invoice); err != nil {
		return err
	}

	s.publishEvents(ctx, invoice.GetDomainEvents())
	invoice.ClearDomainEvents()

	s.recordActivity(ctx, tenantID, actorID, activity.ActionInvoiceCancelled, "Invoice", invoice.ID,
		fmt.Sprintf("Invoice for period %s cancelled", invoice.BillingPeriod))

	return nil
}

// LateFeePreview is the computed late fee for an invoice at a point in time
type LateFeePreview struct {
	InvoiceID   uuid.UUID       `json:"invoice_id"`
	DaysLate    int             `json:"days_late"`
	MonthlyRate decimal.Decimal `json:"monthly_rate"`
	LateFee     decimal.Decimal `json:"late_fee"`
	AmountDue   decimal.Decimal `json:"amount_due"`
}

// PreviewLateFee computes the late fee an invoice would accrue as of now,
// without persisting anything
func (s *BillingService) PreviewLateFee(ctx context.Context, tenantID, invoiceID uuid.UUID, asOf time.Time) (*LateFeePreview, error) {
	if err := s.requireFeature(ctx, tenantID, identity.FeatureLateFees); err != nil {
		return nil, err
	}

	invoice, err := s.GetInvoice(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, err
	}

	daysLate := invoice.DaysLate(asOf)
	fee, err := billing.CalculateLateFee(invoice.RemainingAmount(), daysLate, s.lateFeeRate)
	if err != nil {
		return nil, err
	}

	return &LateFeePreview{
		InvoiceID:   invoice.ID,
		DaysLate:    daysLate,
		MonthlyRate: s.lateFeeRate,
		LateFee:     fee,
		AmountDue:   invoice.RemainingAmount().Add(fee),
	}, nil
}

// ApplyLateFees marks every invoice past its due date as overdue and
// records the accrued late fee. Used by the daily scheduler.
func (s *BillingService) ApplyLateFees(ctx context.Context, tenantID uuid.UUID, asOf time.Time) (int, error) {
	if err := s.requireFeature(ctx, tenantID, identity.FeatureLateFees); err != nil {
		return 0, err
	}

	invoices, err := s.invoiceRepo.FindDueBefore(ctx, tenantID, asOf)
	if err != nil {
		return 0, fmt.Errorf("failed to load overdue invoices: %w", err)
	}

	updated := 0
	for i := range invoices {
		invoice := &invoices[i]
		fee, err := billing.CalculateLateFee(invoice.RemainingAmount(), invoice.DaysLate(asOf), s.lateFeeRate)
		if err != nil {
			s.logger.Error("Late fee calculation failed",
				zap.String("invoice_id", invoice.ID.String()),
				zap.Error(err))
			continue
		}

		if err := invoice.MarkOverdue(fee, asOf); err != nil {
			s.logger.Warn("Skipping invoice for overdue marking",
				zap.String("invoice_id", invoice.ID.String()),
				zap.Error(err))
			continue
		}

		if err := s.invoiceRepo.SaveWithLock(ctx, invoice); err != nil {
			s.logger.Error("Failed to save overdue invoice",
				zap.String("invoice_id", invoice.ID.String()),
				zap.Error(err))
			continue
		}

		s.publishEvents(ctx, invoice.GetDomainEvents())
		invoice.ClearDomainEvents()
		updated++
	}

	if updated > 0 {
		s.logger.Info("Late fees applied",
			zap.String("tenant_id", tenantID.String()),
			zap.Int("invoices", updated))
	}

	return updated, nil
}

// requireFeature checks that the tenant's plan licenses the given feature
func (s *BillingService) requireFeature(ctx context.Context, tenantID uuid.UUID, feature identity.FeatureKey) error {
	tenant, err := s.tenantRepo.FindByID(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("failed to load tenant: %w", err)
	}
	if tenant == nil {
		return shared.ErrNotFound
	}
	if !identity.PlanHasFeature(tenant.Plan, feature) {
		return shared.NewDomainError("FEATURE_NOT_LICENSED",
			fmt.Sprintf("Plan %s does not include %s", tenant.Plan, feature))
	}
	return nil
}

func (s *BillingService) publishEvents(ctx context.Context, events []shared.DomainEvent) {
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish domain events", zap.Error(err))
	}
}

func (s *BillingService) recordActivity(ctx context.Context, tenantID, actorID uuid.UUID, action activity.Action, entityType string, entityID uuid.UUID, detail string) {
	if s.activityRepo == nil {
		return
	}
	entry, err := activity.NewEntry(tenantID, actorID, action, entityType, entityID, detail)
	if err != nil {
		return
	}
	if err := s.activityRepo.Append(ctx, entry); err != nil {
		s.logger.Warn("Failed to append activity entry", zap.Error(err))
	}
}
