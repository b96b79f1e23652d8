package property

import (
	"context"
	"errors"
	"fmt"

	"github.com/armonia/backend/internal/domain/activity"
	"github.com/armonia/backend/internal/domain/identity"
	"github.com/armonia/backend/internal/domain/property"
	"github.com/armonia/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PropertyServiceConfig holds dependencies for the property service
type PropertyServiceConfig struct {
	PropertyRepo   property.Repository
	TenantRepo     identity.TenantRepository
	ActivityRepo   activity.Repository
	EventPublisher shared.EventPublisher
	Logger         *zap.Logger
}

// PropertyService manages the billable units of a residential complex
type PropertyService struct {
	propertyRepo   property.Repository
	tenantRepo     identity.TenantRepository
	activityRepo   activity.Repository
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewPropertyService creates a new PropertyService
func NewPropertyService(config PropertyServiceConfig) *PropertyService {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PropertyService{
		propertyRepo:   config.PropertyRepo,
		tenantRepo:     config.TenantRepo,
		activityRepo:   config.ActivityRepo,
		eventPublisher: config.EventPublisher,
		logger:         logger,
	}
}

// RegisterPropertyCommand contains input for registering a unit
type RegisterPropertyCommand struct {
	UnitNumber   string
	PropertyType string
	Area         decimal.Decimal
	OwnerName    string
	OwnerEmail   string
	Coefficient  decimal.Decimal
}

// RegisterProperty adds a unit to the complex, subject to the plan's
// property limit
func (s *PropertyService) RegisterProperty(ctx context.Context, tenantID, actorID uuid.UUID, cmd RegisterPropertyCommand) (*property.Property, error) {
	tenant, err := s.tenantRepo.FindByID(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tenant: %w", err)
	}
	if tenant == nil {
		return nil, shared.ErrNotFound
	}

	count, err := s.propertyRepo.Count(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to count properties: %w", err)
	}
	if !tenant.CanAddProperty(int(count)) {
		return nil, shared.NewDomainError("PROPERTY_LIMIT_REACHED",
			fmt.Sprintf("Plan %s allows at most %d properties", tenant.Plan, tenant.Config.MaxProperties))
	}

	existing, err := s.propertyRepo.FindByUnitNumber(ctx, tenantID, cmd.UnitNumber)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, fmt.Errorf("failed to check unit number: %w", err)
	}
	if existing != nil {
		return nil, shared.NewDomainError("UNIT_NUMBER_EXISTS",
			fmt.Sprintf("Unit %s is already registered", cmd.UnitNumber))
	}

	prop, err := property.NewProperty(
		tenantID,
		cmd.UnitNumber,
		property.PropertyType(cmd.PropertyType),
		cmd.Area,
		cmd.OwnerName,
		cmd.OwnerEmail,
	)
	if err != nil {
		return nil, err
	}
	if cmd.Coefficient.IsPositive() {
		prop.Coefficient = cmd.Coefficient
	}

	if err := s.propertyRepo.Save(ctx, prop); err != nil {
		return nil, fmt.Errorf("failed to save property: %w", err)
	}

	s.publishEvents(ctx, prop.GetDomainEvents())
	prop.ClearDomainEvents()

	s.recordActivity(ctx, tenantID, actorID, activity.ActionPropertyRegistered, "property", prop.ID,
		fmt.Sprintf("Unit %s registered", prop.UnitNumber))

	s.logger.Info("Property registered",
		zap.String("tenant_id", tenantID.String()),
		zap.String("property_id", prop.ID.String()),
		zap.String("unit_number", prop.UnitNumber))

	return prop, nil
}

// UpdatePropertyCommand contains input for editing a unit.
// Nil pointers leave the corresponding field unchanged.
type UpdatePropertyCommand struct {
	PropertyID  uuid.UUID
	OwnerName   *string
	OwnerEmail  *string
	OwnerUserID *uuid.UUID
	Area        *decimal.Decimal
	Coefficient *decimal.Decimal
}

// UpdateProperty edits a unit's owner and area data
func (s *PropertyService) UpdateProperty(ctx context.Context, tenantID uuid.UUID, cmd UpdatePropertyCommand) (*property.Property, error) {
	prop, err := s.getProperty(ctx, tenantID, cmd.PropertyID)
	if err != nil {
		return nil, err
	}

	if cmd.OwnerName != nil || cmd.OwnerEmail != nil || cmd.OwnerUserID != nil {
		name := prop.OwnerName
		if cmd.OwnerName != nil {
			name = *cmd.OwnerName
		}
		email := prop.OwnerEmail
		if cmd.OwnerEmail != nil {
			email = *cmd.OwnerEmail
		}
		userID := prop.OwnerUserID
		if cmd.OwnerUserID != nil {
			userID = cmd.OwnerUserID
		}
		if err := prop.UpdateOwner(name, email, userID); err != nil {
			return nil, err
		}
	}

	if cmd.Area != nil {
		if err := prop.UpdateArea(*cmd.Area); err != nil {
			return nil, err
		}
	}

	if cmd.Coefficient != nil {
		if cmd.Coefficient.IsNegative() {
			return nil, shared.NewDomainError("INVALID_COEFFICIENT", "Coefficient cannot be negative")
		}
		prop.Coefficient = *cmd.Coefficient
		prop.IncrementVersion()
	}

	if err := s.propertyRepo.SaveWithLock(ctx, prop); err != nil {
		return nil, err
	}

	return prop, nil
}

// ActivateProperty puts a unit back into billing runs
func (s *PropertyService) ActivateProperty(ctx context.Context, tenantID, propertyID uuid.UUID) error {
	prop, err := s.getProperty(ctx, tenantID, propertyID)
	if err != nil {
		return err
	}
	prop.Activate()
	return s.propertyRepo.SaveWithLock(ctx, prop)
}

// DeactivateProperty removes a unit from billing runs. Existing
// invoices are unaffected.
func (s *PropertyService) DeactivateProperty(ctx context.Context, tenantID, propertyID uuid.UUID) error {
	prop, err := s.getProperty(ctx, tenantID, propertyID)
	if err != nil {
		return err
	}
	prop.Deactivate()
	return s.propertyRepo.SaveWithLock(ctx, prop)
}

// GetProperty loads one unit
func (s *PropertyService) GetProperty(ctx context.Context, tenantID, propertyID uuid.UUID) (*property.Property, error) {
	return s.getProperty(ctx, tenantID, propertyID)
}

// GetByUnitNumber loads a unit by its number
func (s *PropertyService) GetByUnitNumber(ctx context.Context, tenantID uuid.UUID, unitNumber string) (*property.Property, error) {
	prop, err := s.propertyRepo.FindByUnitNumber(ctx, tenantID, unitNumber)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load property: %w", err)
	}
	if prop == nil {
		return nil, shared.ErrNotFound
	}
	return prop, nil
}

// ListProperties returns units matching the filter
func (s *PropertyService) ListProperties(ctx context.Context, tenantID uuid.UUID, filter property.PropertyFilter) ([]*property.Property, int64, error) {
	return s.propertyRepo.List(ctx, tenantID, filter)
}

// Count returns the number of registered units
func (s *PropertyService) Count(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	return s.propertyRepo.Count(ctx, tenantID)
}

func (s *PropertyService) getProperty(ctx context.Context, tenantID, propertyID uuid.UUID) (*property.Property, error) {
	prop, err := s.propertyRepo.FindByIDForTenant(ctx, tenantID, propertyID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load property: %w", err)
	}
	if prop == nil {
		return nil, shared.ErrNotFound
	}
	return prop, nil
}

func (s *PropertyService) publishEvents(ctx context.Context, events []shared.DomainEvent) {
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish domain events", zap.Error(err))
	}
}

func (s *PropertyService) recordActivity(ctx context.Context, tenantID, actorID uuid.UUID, action activity.Action, entityType string, entityID uuid.UUID, detail string) {
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
