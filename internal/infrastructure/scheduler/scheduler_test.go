package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/armonia/backend/internal/domain/report"
	"github.com/armonia/backend/internal/domain/shared"
)

// recordingExecutor records executed jobs and returns configured errors
type recordingExecutor struct {
	mu       sync.Mutex
	executed []*Job
	err      error
	calls    int32
}

func (e *recordingExecutor) Execute(ctx context.Context, job *Job) error {
	atomic.AddInt32(&e.calls, 1)
	e.mu.Lock()
	e.executed = append(e.executed, job)
	e.mu.Unlock()
	return e.err
}

func (e *recordingExecutor) executedCount() int {
	return int(atomic.LoadInt32(&e.calls))
}

func TestJob_Lifecycle(t *testing.T) {
	tenantID := uuid.New()
	job := NewJob(&tenantID, JobTypeLateFeeAssessment, 3)

	assert.Equal(t, JobStatusPending, job.Status)
	assert.Equal(t, 3, job.MaxRetries)
	require.NotNil(t, job.TenantID)
	assert.Equal(t, tenantID, *job.TenantID)

	job.Start()
	assert.Equal(t, JobStatusRunning, job.Status)
	assert.NotNil(t, job.StartedAt)

	job.Complete()
	assert.Equal(t, JobStatusSuccess, job.Status)
	assert.NotNil(t, job.CompletedAt)
	assert.False(t, job.ShouldRetry())
}

func TestJob_RetryFlow(t *testing.T) {
	job := NewJob(nil, JobTypeTrialExpiryCheck, 2)

	job.Start()
	job.Fail("boom")
	assert.Equal(t, JobStatusFailed, job.Status)
	assert.Equal(t, "boom", job.Error)
	assert.True(t, job.ShouldRetry())

	job.ScheduleRetry(time.Minute)
	assert.Equal(t, JobStatusPending, job.Status)
	assert.Equal(t, 1, job.RetryCount)
	assert.NotNil(t, job.NextRetryAt)

	job.Fail("boom again")
	assert.True(t, job.ShouldRetry())
	job.ScheduleRetry(time.Minute)

	job.Fail("third failure")
	assert.False(t, job.ShouldRetry())
}

func TestScheduler_ExecutesSubmittedJobs(t *testing.T) {
	executor := &recordingExecutor{}
	config := DefaultSchedulerConfig()
	config.MaxConcurrentJobs = 2
	s := NewScheduler(config, executor, zap.NewNop())

	require.NoError(t, s.Start(context.Background()))

	tenantID := uuid.New()
	require.NoError(t, s.ScheduleJob(&tenantID, JobTypeLateFeeAssessment))
	require.NoError(t, s.ScheduleSnapshot(tenantID, "2026-02"))

	assert.Eventually(t, func() bool {
		return executor.executedCount() == 2
	}, 2*time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))

	executor.mu.Lock()
	defer executor.mu.Unlock()
	types := map[JobType]bool{}
	for _, job := range executor.executed {
		types[job.Type] = true
		if job.Type == JobTypeFinanceSnapshot {
			assert.Equal(t, "2026-02", job.Period)
		}
	}
	assert.True(t, types[JobTypeLateFeeAssessment])
	assert.True(t, types[JobTypeFinanceSnapshot])
}

func TestScheduler_SubmitWhenStopped(t *testing.T) {
	s := NewScheduler(DefaultSchedulerConfig(), &recordingExecutor{}, zap.NewNop())
	err := s.ScheduleJob(nil, JobTypeTrialExpiryCheck)
	assert.ErrorIs(t, err, ErrSchedulerNotRunning)
}

func TestScheduler_RetriesFailedJobs(t *testing.T) {
	executor := &recordingExecutor{err: errors.New("transient failure")}
	config := DefaultSchedulerConfig()
	config.MaxConcurrentJobs = 1
	config.RetryAttempts = 1
	config.RetryDelay = 0
	s := NewScheduler(config, executor, zap.NewNop())

	require.NoError(t, s.Start(context.Background()))

	tenantID := uuid.New()
	require.NoError(t, s.ScheduleJob(&tenantID, JobTypeLateFeeAssessment))

	// Initial attempt plus one retry
	assert.Eventually(t, func() bool {
		return executor.executedCount() >= 2
	}, 2*time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
}

// ---------------------------------------------------------------------------
// MaintenanceExecutor
// ---------------------------------------------------------------------------

type stubLateFeeAssessor struct {
	updated  int
	err      error
	tenantID uuid.UUID
}

func (s *stubLateFeeAssessor) ApplyLateFees(ctx context.Context, tenantID uuid.UUID, asOf time.Time) (int, error) {
	s.tenantID = tenantID
	return s.updated, s.err
}

type stubTrialExpirer struct {
	suspended int
	err       error
	called    bool
}

func (s *stubTrialExpirer) SuspendExpiredTrials(ctx context.Context) (int, error) {
	s.called = true
	return s.suspended, s.err
}

type stubSnapshotGenerator struct {
	period string
	err    error
}

func (s *stubSnapshotGenerator) GenerateSummary(ctx context.Context, tenantID uuid.UUID, period string) (*report.FinanceSummary, error) {
	s.period = period
	if s.err != nil {
		return nil, s.err
	}
	return &report.FinanceSummary{
		TenantID:       tenantID,
		Period:         period,
		TotalBilled:    decimal.NewFromInt(1000000),
		TotalCollected: decimal.NewFromInt(800000),
		GeneratedAt:    time.Now(),
	}, nil
}

func newTestExecutor(lateFees *stubLateFeeAssessor, trials *stubTrialExpirer, snapshots *stubSnapshotGenerator) *MaintenanceExecutor {
	return NewMaintenanceExecutor(lateFees, trials, snapshots, zap.NewNop())
}

func TestMaintenanceExecutor_Execute(t *testing.T) {
	ctx := context.Background()

	t.Run("late fee assessment", func(t *testing.T) {
		lateFees := &stubLateFeeAssessor{updated: 4}
		executor := newTestExecutor(lateFees, &stubTrialExpirer{}, &stubSnapshotGenerator{})

		tenantID := uuid.New()
		job := NewJob(&tenantID, JobTypeLateFeeAssessment, 0)
		require.NoError(t, executor.Execute(ctx, job))
		assert.Equal(t, tenantID, lateFees.tenantID)
	})

	t.Run("late fee job without tenant", func(t *testing.T) {
		executor := newTestExecutor(&stubLateFeeAssessor{}, &stubTrialExpirer{}, &stubSnapshotGenerator{})

		job := NewJob(nil, JobTypeLateFeeAssessment, 0)
		err := executor.Execute(ctx, job)
		assert.ErrorIs(t, err, ErrMissingTenant)
	})

	t.Run("unlicensed late fees are skipped", func(t *testing.T) {
		lateFees := &stubLateFeeAssessor{err: shared.NewDomainError("FEATURE_NOT_LICENSED", "Plan BASIC does not include late_fees")}
		executor := newTestExecutor(lateFees, &stubTrialExpirer{}, &stubSnapshotGenerator{})

		tenantID := uuid.New()
		job := NewJob(&tenantID, JobTypeLateFeeAssessment, 0)
		assert.NoError(t, executor.Execute(ctx, job))
	})

	t.Run("trial expiry sweep", func(t *testing.T) {
		trials := &stubTrialExpirer{suspended: 2}
		executor := newTestExecutor(&stubLateFeeAssessor{}, trials, &stubSnapshotGenerator{})

		job := NewJob(nil, JobTypeTrialExpiryCheck, 0)
		require.NoError(t, executor.Execute(ctx, job))
		assert.True(t, trials.called)
	})

	t.Run("finance snapshot uses job period", func(t *testing.T) {
		snapshots := &stubSnapshotGenerator{}
		executor := newTestExecutor(&stubLateFeeAssessor{}, &stubTrialExpirer{}, snapshots)

		tenantID := uuid.New()
		job := NewJob(&tenantID, JobTypeFinanceSnapshot, 0)
		job.Period = "2026-02"
		require.NoError(t, executor.Execute(ctx, job))
		assert.Equal(t, "2026-02", snapshots.period)
	})

	t.Run("finance snapshot defaults to previous month", func(t *testing.T) {
		snapshots := &stubSnapshotGenerator{}
		executor := newTestExecutor(&stubLateFeeAssessor{}, &stubTrialExpirer{}, snapshots)

		tenantID := uuid.New()
		job := NewJob(&tenantID, JobTypeFinanceSnapshot, 0)
		require.NoError(t, executor.Execute(ctx, job))
		assert.Equal(t, time.Now().AddDate(0, -1, 0).Format("2006-01"), snapshots.period)
	})

	t.Run("propagates service errors", func(t *testing.T) {
		snapshots := &stubSnapshotGenerator{err: errors.New("db down")}
		executor := newTestExecutor(&stubLateFeeAssessor{}, &stubTrialExpirer{}, snapshots)

		tenantID := uuid.New()
		job := NewJob(&tenantID, JobTypeFinanceSnapshot, 0)
		assert.Error(t, executor.Execute(ctx, job))
	})

	t.Run("unknown job type", func(t *testing.T) {
		executor := newTestExecutor(&stubLateFeeAssessor{}, &stubTrialExpirer{}, &stubSnapshotGenerator{})

		job := NewJob(nil, JobType("UNKNOWN"), 0)
		err := executor.Execute(ctx, job)
		assert.ErrorIs(t, err, ErrInvalidJobType)
	})
}
