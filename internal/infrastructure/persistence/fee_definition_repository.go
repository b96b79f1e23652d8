package persistence

import (
	"context"
	"errors"

	"github.com/armonia/backend/internal/domain/billing"
	"github.com/armonia/backend/internal/domain/shared"
	"github.com/armonia/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormFeeDefinitionRepository implements FeeDefinitionRepository using GORM
type GormFeeDefinitionRepository struct {
	db *gorm.DB
}

// NewGormFeeDefinitionRepository creates a new GormFeeDefinitionRepository
func NewGormFeeDefinitionRepository(db *gorm.DB) *GormFeeDefinitionRepository {
	return &GormFeeDefinitionRepository{db: db}
}

// Save persists a new fee definition
func (r *GormFeeDefinitionRepository) Save(ctx context.Context, fee *billing.FeeDefinition) error {
	model := models.FeeDefinitionModelFromDomain(fee)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveWithLock saves the fee definition with optimistic locking
func (r *GormFeeDefinitionRepository) SaveWithLock(ctx context.Context, fee *billing.FeeDefinition) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.FeeDefinitionModel
		if err := tx.Select("version").Where("id = ?", fee.GetID()).First(&current).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				model := models.FeeDefinitionModelFromDomain(fee)
				return tx.Create(model).Error
			}
			return err
		}

		// The domain model already incremented its version
		expectedVersion := fee.GetVersion() - 1
		if current.Version != expectedVersion {
			return shared.ErrConcurrencyConflict
		}

		model := models.FeeDefinitionModelFromDomain(fee)
		result := tx.Model(model).
			Where("id = ? AND version = ?", fee.GetID(), expectedVersion).
			Save(model)

		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}
		return nil
	})
}

// FindByIDForTenant finds a fee definition by ID scoped to a tenant
func (r *GormFeeDefinitionRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*billing.FeeDefinition, error) {
	var model models.FeeDefinitionModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindActiveByTenant returns every active fee definition of a tenant
func (r *GormFeeDefinitionRepository) FindActiveByTenant(ctx context.Context, tenantID uuid.UUID) ([]billing.FeeDefinition, error) {
	var feeModels []models.FeeDefinitionModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND active = true", tenantID).
		Order("name ASC").
		Find(&feeModels).Error; err != nil {
		return nil, err
	}

	fees := make([]billing.FeeDefinition, len(feeModels))
	for i := range feeModels {
		fees[i] = *feeModels[i].ToDomain()
	}
	return fees, nil
}

// List returns fee definitions for a tenant with pagination
func (r *GormFeeDefinitionRepository) List(ctx context.Context, tenantID uuid.UUID, page, pageSize int) ([]billing.FeeDefinition, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.FeeDefinitionModel{}).
		Where("tenant_id = ?", tenantID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("name ASC")

	if pageSize > 0 {
		query = query.Limit(pageSize)
		offset := (page - 1) * pageSize
		if offset > 0 {
			query = query.Offset(offset)
		}
	}

	var feeModels []models.FeeDefinitionModel
	if err := query.Find(&feeModels).Error; err != nil {
		return nil, 0, err
	}

	fees := make([]billing.FeeDefinition, len(feeModels))
	for i := range feeModels {
		fees[i] = *feeModels[i].ToDomain()
	}
	return fees, total, nil
}

// Ensure GormFeeDefinitionRepository implements FeeDefinitionRepository
var _ billing.FeeDefinitionRepository = (*GormFeeDefinitionRepository)(nil)
