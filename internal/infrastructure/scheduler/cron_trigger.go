package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// TenantProvider lists the tenants that per-tenant jobs fan out over
type TenantProvider interface {
	GetAllActiveTenantIDs(ctx context.Context) ([]uuid.UUID, error)
}

// CronConfig holds the cron expressions for the recurring jobs
type CronConfig struct {
	// LateFeeSpec runs overdue marking and late fee assessment
	LateFeeSpec string
	// TrialCheckSpec runs the trial expiry sweep
	TrialCheckSpec string
	// SnapshotSpec persists last month's finance summary per tenant
	SnapshotSpec string
}

// DefaultCronConfig returns the default cron schedule
func DefaultCronConfig() CronConfig {
	return CronConfig{
		LateFeeSpec:    "0 2 * * *",
		TrialCheckSpec: "0 3 * * *",
		SnapshotSpec:   "0 4 1 * *",
	}
}

// CronTrigger drives the scheduler from cron expressions. Per-tenant jobs
// are fanned out over all active tenants on every tick.
type CronTrigger struct {
	config         CronConfig
	scheduler      *Scheduler
	tenantProvider TenantProvider
	logger         *zap.Logger

	cron      *cron.Cron
	mu        sync.Mutex
	isRunning bool
}

// NewCronTrigger creates a new cron trigger
func NewCronTrigger(
	config CronConfig,
	scheduler *Scheduler,
	tenantProvider TenantProvider,
	logger *zap.Logger,
) *CronTrigger {
	return &CronTrigger{
		config:         config,
		scheduler:      scheduler,
		tenantProvider: tenantProvider,
		logger:         logger,
	}
}

// Start registers the cron entries and starts the ticker
func (t *CronTrigger) Start(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.isRunning {
		return nil
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))

	if t.config.LateFeeSpec != "" {
		if _, err := c.AddFunc(t.config.LateFeeSpec, func() {
			t.fanOut(ctx, JobTypeLateFeeAssessment)
		}); err != nil {
			return fmt.Errorf("%w: late fee cron %q: %v", ErrInvalidConfig, t.config.LateFeeSpec, err)
		}
	}

	if t.config.TrialCheckSpec != "" {
		if _, err := c.AddFunc(t.config.TrialCheckSpec, func() {
			// Trial expiry is platform-wide, one job covers all tenants
			if err := t.scheduler.ScheduleJob(nil, JobTypeTrialExpiryCheck); err != nil {
				t.logger.Error("Failed to queue trial expiry job", zap.Error(err))
			}
		}); err != nil {
			return fmt.Errorf("%w: trial check cron %q: %v", ErrInvalidConfig, t.config.TrialCheckSpec, err)
		}
	}

	if t.config.SnapshotSpec != "" {
		if _, err := c.AddFunc(t.config.SnapshotSpec, func() {
			t.snapshotPreviousMonth(ctx)
		}); err != nil {
			return fmt.Errorf("%w: snapshot cron %q: %v", ErrInvalidConfig, t.config.SnapshotSpec, err)
		}
	}

	c.Start()
	t.cron = c
	t.isRunning = true

	t.logger.Info("Cron trigger started",
		zap.String("late_fee_spec", t.config.LateFeeSpec),
		zap.String("trial_check_spec", t.config.TrialCheckSpec),
		zap.String("snapshot_spec", t.config.SnapshotSpec),
	)

	return nil
}

// Stop stops the ticker and waits for in-flight entries
func (t *CronTrigger) Stop(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.isRunning {
		return nil
	}
	t.isRunning = false

	stopCtx := t.cron.Stop()
	select {
	case <-stopCtx.Done():
		t.logger.Info("Cron trigger stopped")
		return nil
	case <-ctx.Done():
		t.logger.Warn("Cron trigger stop timed out")
		return ctx.Err()
	}
}

// fanOut queues one job of the given type per active tenant
func (t *CronTrigger) fanOut(ctx context.Context, jobType JobType) {
	tenantIDs, err := t.tenantProvider.GetAllActiveTenantIDs(ctx)
	if err != nil {
		t.logger.Error("Failed to list tenants for scheduled jobs",
			zap.String("job_type", string(jobType)),
			zap.Error(err),
		)
		return
	}

	for _, tenantID := range tenantIDs {
		id := tenantID
		if err := t.scheduler.ScheduleJob(&id, jobType); err != nil {
			t.logger.Error("Failed to queue scheduled job",
				zap.String("job_type", string(jobType)),
				zap.String("tenant_id", id.String()),
				zap.Error(err),
			)
		}
	}

	t.logger.Info("Scheduled jobs queued",
		zap.String("job_type", string(jobType)),
		zap.Int("tenants", len(tenantIDs)),
	)
}

// snapshotPreviousMonth queues a finance snapshot for last month per tenant
func (t *CronTrigger) snapshotPreviousMonth(ctx context.Context) {
	tenantIDs, err := t.tenantProvider.GetAllActiveTenantIDs(ctx)
	if err != nil {
		t.logger.Error("Failed to list tenants for snapshot jobs", zap.Error(err))
		return
	}

	period := time.Now().AddDate(0, -1, 0).Format("2006-01")
	for _, tenantID := range tenantIDs {
		if err := t.scheduler.ScheduleSnapshot(tenantID, period); err != nil {
			t.logger.Error("Failed to queue snapshot job",
				zap.String("tenant_id", tenantID.String()),
				zap.String("period", period),
				zap.Error(err),
			)
		}
	}

	t.logger.Info("Snapshot jobs queued",
		zap.String("period", period),
		zap.Int("tenants", len(tenantIDs)),
	)
}
