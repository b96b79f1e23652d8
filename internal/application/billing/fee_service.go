package billing

import (
	"context"
	"fmt"

	"github.com/armonia/backend/internal/domain/activity"
	"github.com/armonia/backend/internal/domain/billing"
	"github.com/armonia/backend/internal/domain/shared"
	"github.com/armonia/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// FeeService manages the fee definitions billed to properties
type FeeService struct {
	feeRepo      billing.FeeDefinitionRepository
	activityRepo activity.Repository
	logger       *zap.Logger
}

// NewFeeService creates a new FeeService
func NewFeeService(feeRepo billing.FeeDefinitionRepository, activityRepo activity.Repository, logger *zap.Logger) *FeeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeeService{
		feeRepo:      feeRepo,
		activityRepo: activityRepo,
		logger:       logger,
	}
}

// CreateFeeCommand carries the input for creating a fee definition
type CreateFeeCommand struct {
	Name       string
	FeeType    string
	BaseAmount decimal.Decimal
	Currency   string
}

// CreateFee registers a new fee definition for the tenant
func (s *FeeService) CreateFee(ctx context.Context, tenantID, actorID uuid.UUID, cmd CreateFeeCommand) (*billing.FeeDefinition, error) {
	currency := valueobject.Currency(cmd.Currency)
	if cmd.Currency == "" {
		currency = valueobject.DefaultCurrency
	}
	amount, err := valueobject.NewMoney(cmd.BaseAmount, currency)
	if err != nil {
		return nil, err
	}

	fee, err := billing.NewFeeDefinition(tenantID, cmd.Name, billing.FeeType(cmd.FeeType), amount)
	if err != nil {
		return nil, err
	}

	if err := s.feeRepo.Save(ctx, fee); err != nil {
		return nil, err
	}

	s.logger.Info("Fee definition created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("fee_id", fee.ID.String()),
		zap.String("name", fee.Name),
		zap.String("fee_type", fee.FeeType.String()))

	s.recordActivity(ctx, tenantID, actorID, activity.ActionFeeCreated, fee.ID,
		fmt.Sprintf("Fee %q created (%s)", fee.Name, fee.FeeType))

	return fee, nil
}

// UpdateFeeCommand carries the input for updating a fee definition
type UpdateFeeCommand struct {
	Name       string
	BaseAmount decimal.Decimal
	Currency   string
}

// UpdateFee changes the name or base amount of an existing fee
func (s *FeeService) UpdateFee(ctx context.Context, tenantID, actorID, feeID uuid.UUID, cmd UpdateFeeCommand) (*billing.FeeDefinition, error) {
	fee, err := s.getFee(ctx, tenantID, feeID)
	if err != nil {
		return nil, err
	}

	currency := valueobject.Currency(cmd.Currency)
	if cmd.Currency == "" {
		currency = fee.Currency
	}
	amount, err := valueobject.NewMoney(cmd.BaseAmount, currency)
	if err != nil {
		return nil, err
	}

	if err := fee.Update(cmd.Name, amount); err != nil {
		return nil, err
	}

	if err := s.feeRepo.SaveWithLock(ctx, fee); err != nil {
		return nil, err
	}

	s.recordActivity(ctx, tenantID, actorID, activity.ActionFeeUpdated, fee.ID,
		fmt.Sprintf("Fee %q updated", fee.Name))

	return fee, nil
}

// ActivateFee re-enables a fee for future billing runs
func (s *FeeService) ActivateFee(ctx context.Context, tenantID, feeID uuid.UUID) error {
	fee, err := s.getFee(ctx, tenantID, feeID)
	if err != nil {
		return err
	}
	fee.Activate()
	return s.feeRepo.SaveWithLock(ctx, fee)
}

// DeactivateFee excludes a fee from future billing runs without deleting it
func (s *FeeService) DeactivateFee(ctx context.Context, tenantID, feeID uuid.UUID) error {
	fee, err := s.getFee(ctx, tenantID, feeID)
	if err != nil {
		return err
	}
	fee.Deactivate()
	return s.feeRepo.SaveWithLock(ctx, fee)
}

// GetFee loads a single fee definition scoped to the tenant
func (s *FeeService) GetFee(ctx context.Context, tenantID, feeID uuid.UUID) (*billing.FeeDefinition, error) {
	return s.getFee(ctx, tenantID, feeID)
}

// ListFees returns the tenant's fee definitions
func (s *FeeService) ListFees(ctx context.Context, tenantID uuid.UUID, page, pageSize int) ([]billing.FeeDefinition, int64, error) {
	return s.feeRepo.List(ctx, tenantID, page, pageSize)
}

func (s *FeeService) getFee(ctx context.Context, tenantID, feeID uuid.UUID) (*billing.FeeDefinition, error) {
	fee, err := s.feeRepo.FindByIDForTenant(ctx, tenantID, feeID)
	if err != nil {
		return nil, err
	}
	if fee == nil {
		return nil, shared.ErrNotFound
	}
	return fee, nil
}

func (s *FeeService) recordActivity(ctx context.Context, tenantID, actorID uuid.UUID, action activity.Action, entityID uuid.UUID, detail string) {
	if s.activityRepo == nil {
		return
	}
	entry, err := activity.NewEntry(tenantID, actorID, action, "FeeDefinition", entityID, detail)
	if err != nil {
		return
	}
	if err := s.activityRepo.Append(ctx, entry); err != nil {
		s.logger.Warn("Failed to append activity entry", zap.Error(err))
	}
}
