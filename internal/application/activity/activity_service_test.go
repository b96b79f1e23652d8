package activity

import (
	"context"
	"errors"
	"testing"

	"github.com/armonia/backend/internal/domain/activity"
	"github.com/armonia/backend/internal/domain/identity"
	"github.com/armonia/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockActivityRepository struct {
	mock.Mock
}

func (m *mockActivityRepository) Append(ctx context.Context, entry *activity.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *mockActivityRepository) List(ctx context.Context, tenantID uuid.UUID, filter activity.Filter) ([]*activity.Entry, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*activity.Entry), args.Get(1).(int64), args.Error(2)
}

type mockTenantRepository struct {
	mock.Mock
}

func (m *mockTenantRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.Tenant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Tenant), args.Error(1)
}

func (m *mockTenantRepository) FindByCode(ctx context.Context, code string) (*identity.Tenant, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.Tenant), args.Error(1)
}

func (m *mockTenantRepository) FindAll(ctx context.Context, filter shared.Filter) ([]identity.Tenant, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]identity.Tenant), args.Error(1)
}

func (m *mockTenantRepository) FindByStatus(ctx context.Context, status identity.TenantStatus, filter shared.Filter) ([]identity.Tenant, error) {
	args := m.Called(ctx, status, filter)
	return args.Get(0).([]identity.Tenant), args.Error(1)
}

func (m *mockTenantRepository) FindTrialExpiring(ctx context.Context, withinDays int) ([]identity.Tenant, error) {
	args := m.Called(ctx, withinDays)
	return args.Get(0).([]identity.Tenant), args.Error(1)
}

func (m *mockTenantRepository) Save(ctx context.Context, tenant *identity.Tenant) error {
	args := m.Called(ctx, tenant)
	return args.Error(0)
}

func (m *mockTenantRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockTenantRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockTenantRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

func createTestTenant(t *testing.T, plan identity.TenantPlan) *identity.Tenant {
	t.Helper()
	tenant, err := identity.NewTenant("TORRES001", "Conjunto Torres del Parque")
	require.NoError(t, err)
	require.NoError(t, tenant.SetPlan(plan))
	return tenant
}

func TestListEntries(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		activityRepo := new(mockActivityRepository)
		tenantRepo := new(mockTenantRepository)
		svc := NewActivityService(ActivityServiceConfig{
			ActivityRepo: activityRepo,
			TenantRepo:   tenantRepo,
		})

		tenant := createTestTenant(t, identity.TenantPlanStandard)
		entry, err := activity.NewEntry(tenant.ID, uuid.New(), activity.ActionBillingRun,
			"billing", uuid.New(), "Bills generated for 2026-03")
		require.NoError(t, err)

		filter := activity.Filter{Page: 1, PageSize: 20}
		tenantRepo.On("FindByID", mock.Anything, tenant.ID).Return(tenant, nil)
		activityRepo.On("List", mock.Anything, tenant.ID, filter).
			Return([]*activity.Entry{entry}, int64(1), nil)

		entries, total, err := svc.ListEntries(context.Background(), tenant.ID, filter)

		require.NoError(t, err)
		assert.Len(t, entries, 1)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, activity.ActionBillingRun, entries[0].Action)
	})

	t.Run("feature gated by plan", func(t *testing.T) {
		activityRepo := new(mockActivityRepository)
		tenantRepo := new(mockTenantRepository)
		svc := NewActivityService(ActivityServiceConfig{
			ActivityRepo: activityRepo,
			TenantRepo:   tenantRepo,
		})

		// Basic plan does not include the activity log
		tenant := createTestTenant(t, identity.TenantPlanBasic)
		tenantRepo.On("FindByID", mock.Anything, tenant.ID).Return(tenant, nil)

		_, _, err := svc.ListEntries(context.Background(), tenant.ID, activity.Filter{})

		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, "FEATURE_NOT_LICENSED", domainErr.Code)
		activityRepo.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestRecordEntry(t *testing.T) {
	activityRepo := new(mockActivityRepository)
	tenantRepo := new(mockTenantRepository)
	svc := NewActivityService(ActivityServiceConfig{
		ActivityRepo: activityRepo,
		TenantRepo:   tenantRepo,
	})

	tenantID := uuid.New()
	actorID := uuid.New()
	entityID := uuid.New()

	activityRepo.On("Append", mock.Anything, mock.MatchedBy(func(entry *activity.Entry) bool {
		return entry.TenantID == tenantID && entry.Action == activity.ActionUserLogin
	})).Return(nil)

	err := svc.RecordEntry(context.Background(), tenantID, actorID,
		activity.ActionUserLogin, "user", entityID, "User logged in")

	require.NoError(t, err)
	activityRepo.AssertExpectations(t)
}
