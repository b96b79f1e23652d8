package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/armonia/backend/internal/domain/report"
	"github.com/armonia/backend/internal/domain/shared"
)

// LateFeeAssessor marks overdue invoices and accrues late fees for a tenant
type LateFeeAssessor interface {
	ApplyLateFees(ctx context.Context, tenantID uuid.UUID, asOf time.Time) (int, error)
}

// TrialExpirer suspends tenants whose trial period has run out
type TrialExpirer interface {
	SuspendExpiredTrials(ctx context.Context) (int, error)
}

// SnapshotGenerator computes and persists a tenant's finance summary
type SnapshotGenerator interface {
	GenerateSummary(ctx context.Context, tenantID uuid.UUID, period string) (*report.FinanceSummary, error)
}

// ErrMissingTenant is returned when a per-tenant job carries no tenant
var ErrMissingTenant = errors.New("job requires a tenant")

// MaintenanceExecutor dispatches scheduled jobs to the application services
type MaintenanceExecutor struct {
	lateFees  LateFeeAssessor
	trials    TrialExpirer
	snapshots SnapshotGenerator
	logger    *zap.Logger
}

// NewMaintenanceExecutor creates a new maintenance executor
func NewMaintenanceExecutor(
	lateFees LateFeeAssessor,
	trials TrialExpirer,
	snapshots SnapshotGenerator,
	logger *zap.Logger,
) *MaintenanceExecutor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MaintenanceExecutor{
		lateFees:  lateFees,
		trials:    trials,
		snapshots: snapshots,
		logger:    logger,
	}
}

// Execute runs one job
func (e *MaintenanceExecutor) Execute(ctx context.Context, job *Job) error {
	switch job.Type {
	case JobTypeLateFeeAssessment:
		return e.assessLateFees(ctx, job)
	case JobTypeTrialExpiryCheck:
		return e.expireTrials(ctx, job)
	case JobTypeFinanceSnapshot:
		return e.generateSnapshot(ctx, job)
	default:
		return fmt.Errorf("%w: %s", ErrInvalidJobType, job.Type)
	}
}

func (e *MaintenanceExecutor) assessLateFees(ctx context.Context, job *Job) error {
	if job.TenantID == nil {
		return ErrMissingTenant
	}

	asOf := job.AsOf
	if asOf.IsZero() {
		asOf = time.Now()
	}

	updated, err := e.lateFees.ApplyLateFees(ctx, *job.TenantID, asOf)
	if err != nil {
		if isFeatureNotLicensed(err) {
			e.logger.Debug("Late fees not licensed for tenant, skipping",
				zap.String("tenant_id", job.TenantID.String()))
			return nil
		}
		return fmt.Errorf("late fee assessment failed: %w", err)
	}

	e.logger.Info("Late fee assessment completed",
		zap.String("tenant_id", job.TenantID.String()),
		zap.Int("invoices_updated", updated),
	)
	return nil
}

func (e *MaintenanceExecutor) expireTrials(ctx context.Context, job *Job) error {
	suspended, err := e.trials.SuspendExpiredTrials(ctx)
	if err != nil {
		return fmt.Errorf("trial expiry sweep failed: %w", err)
	}

	e.logger.Info("Trial expiry sweep completed", zap.Int("suspended", suspended))
	return nil
}

func (e *MaintenanceExecutor) generateSnapshot(ctx context.Context, job *Job) error {
	if job.TenantID == nil {
		return ErrMissingTenant
	}

	period := job.Period
	if period == "" {
		period = time.Now().AddDate(0, -1, 0).Format("2006-01")
	}

	summary, err := e.snapshots.GenerateSummary(ctx, *job.TenantID, period)
	if err != nil {
		if isFeatureNotLicensed(err) {
			e.logger.Debug("Reports not licensed for tenant, skipping snapshot",
				zap.String("tenant_id", job.TenantID.String()))
			return nil
		}
		return fmt.Errorf("finance snapshot failed: %w", err)
	}

	e.logger.Info("Finance snapshot persisted",
		zap.String("tenant_id", job.TenantID.String()),
		zap.String("period", summary.Period),
	)
	return nil
}

// isFeatureNotLicensed reports whether the error is a plan licensing rejection
func isFeatureNotLicensed(err error) bool {
	var domainErr *shared.DomainError
	return errors.As(err, &domainErr) && domainErr.Code == "FEATURE_NOT_LICENSED"
}

// Ensure MaintenanceExecutor implements the JobExecutor interface
var _ JobExecutor = (*MaintenanceExecutor)(nil)
