package activity

import (
	"context"
	"fmt"

	"github.com/armonia/backend/internal/domain/activity"
	"github.com/armonia/backend/internal/domain/identity"
	"github.com/armonia/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ActivityServiceConfig holds dependencies for the activity service
type ActivityServiceConfig struct {
	ActivityRepo activity.Repository
	TenantRepo   identity.TenantRepository
	Logger       *zap.Logger
}

// ActivityService exposes the audit trail of administrative actions
type ActivityService struct {
	activityRepo activity.Repository
	tenantRepo   identity.TenantRepository
	logger       *zap.Logger
}

// NewActivityService creates a new ActivityService
func NewActivityService(config ActivityServiceConfig) *ActivityService {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActivityService{
		activityRepo: config.ActivityRepo,
		tenantRepo:   config.TenantRepo,
		logger:       logger,
	}
}

// ListEntries returns audit entries for a tenant, newest first
func (s *ActivityService) ListEntries(ctx context.Context, tenantID uuid.UUID, filter activity.Filter) ([]*activity.Entry, int64, error) {
	if err := s.requireFeature(ctx, tenantID, identity.FeatureActivityLog); err != nil {
		return nil, 0, err
	}
	return s.activityRepo.List(ctx, tenantID, filter)
}

// RecordEntry appends an entry on behalf of another component. Used by
// the HTTP layer for actions that have no dedicated service method.
func (s *ActivityService) RecordEntry(ctx context.Context, tenantID, actorID uuid.UUID, action activity.Action, entityType string, entityID uuid.UUID, detail string) error {
	entry, err := activity.NewEntry(tenantID, actorID, action, entityType, entityID, detail)
	if err != nil {
		return err
	}
	if err := s.activityRepo.Append(ctx, entry); err != nil {
		return fmt.Errorf("failed to append activity entry: %w", err)
	}
	return nil
}

func (s *ActivityService) requireFeature(ctx context.Context, tenantID uuid.UUID, feature identity.FeatureKey) error {
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
