package persistence

import (
	"context"
	"errors"

	"github.com/armonia/backend/internal/domain/property"
	"github.com/armonia/backend/internal/domain/shared"
	"github.com/armonia/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormPropertyRepository implements property.Repository using GORM
type GormPropertyRepository struct {
	db *gorm.DB
}

// NewGormPropertyRepository creates a new GormPropertyRepository
func NewGormPropertyRepository(db *gorm.DB) *GormPropertyRepository {
	return &GormPropertyRepository{db: db}
}

// Save persists a new property
func (r *GormPropertyRepository) Save(ctx context.Context, p *property.Property) error {
	model := models.PropertyModelFromDomain(p)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveWithLock saves the property with optimistic locking
func (r *GormPropertyRepository) SaveWithLock(ctx context.Context, p *property.Property) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.PropertyModel
		if err := tx.Select("version").Where("id = ?", p.GetID()).First(&current).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				model := models.PropertyModelFromDomain(p)
				return tx.Create(model).Error
			}
			return err
		}

		// The domain model already incremented its version
		expectedVersion := p.GetVersion() - 1
		if current.Version != expectedVersion {
			return shared.ErrConcurrencyConflict
		}

		model := models.PropertyModelFromDomain(p)
		result := tx.Model(model).
			Where("id = ? AND version = ?", p.GetID(), expectedVersion).
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

// FindByIDForTenant loads a property scoped to a tenant
func (r *GormPropertyRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*property.Property, error) {
	var model models.PropertyModel
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

// FindByUnitNumber loads a property by its unit number within a tenant
func (r *GormPropertyRepository) FindByUnitNumber(ctx context.Context, tenantID uuid.UUID, unitNumber string) (*property.Property, error) {
	var model models.PropertyModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND unit_number = ?", tenantID, unitNumber).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindActiveByTenant returns every billable property of a tenant
func (r *GormPropertyRepository) FindActiveByTenant(ctx context.Context, tenantID uuid.UUID) ([]*property.Property, error) {
	var propertyModels []models.PropertyModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND status = ?", tenantID, property.PropertyStatusActive).
		Order("unit_number ASC").
		Find(&propertyModels).Error; err != nil {
		return nil, err
	}

	properties := make([]*property.Property, len(propertyModels))
	for i := range propertyModels {
		properties[i] = propertyModels[i].ToDomain()
	}
	return properties, nil
}

// List returns properties matching the filter with a total count
func (r *GormPropertyRepository) List(ctx context.Context, tenantID uuid.UUID, filter property.PropertyFilter) ([]*property.Property, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.PropertyModel{}).
		Where("tenant_id = ?", tenantID)

	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Type != nil {
		query = query.Where("property_type = ?", *filter.Type)
	}
	if filter.OwnerUserID != nil {
		query = query.Where("owner_user_id = ?", *filter.OwnerUserID)
	}
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("unit_number ILIKE ? OR owner_name ILIKE ?", searchPattern, searchPattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("unit_number ASC")

	// Apply pagination
	if filter.PageSize > 0 {
		query = query.Limit(filter.PageSize)
		offset := (filter.Page - 1) * filter.PageSize
		if offset > 0 {
			query = query.Offset(offset)
		}
	}

	var propertyModels []models.PropertyModel
	if err := query.Find(&propertyModels).Error; err != nil {
		return nil, 0, err
	}

	properties := make([]*property.Property, len(propertyModels))
	for i := range propertyModels {
		properties[i] = propertyModels[i].ToDomain()
	}
	return properties, total, nil
}

// Count returns the number of registered properties in a tenant
func (r *GormPropertyRepository) Count(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.PropertyModel{}).
		Where("tenant_id = ?", tenantID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Ensure GormPropertyRepository implements property.Repository
var _ property.Repository = (*GormPropertyRepository)(nil)
