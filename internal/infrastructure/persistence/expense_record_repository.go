package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/armonia/backend/internal/domain/finance"
	"github.com/armonia/backend/internal/domain/shared"
	"github.com/armonia/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormExpenseRepository implements ExpenseRepository using GORM
type GormExpenseRepository struct {
	db *gorm.DB
}

// NewGormExpenseRepository creates a new GormExpenseRepository
func NewGormExpenseRepository(db *gorm.DB) *GormExpenseRepository {
	return &GormExpenseRepository{db: db}
}

// Save persists a new expense record
func (r *GormExpenseRepository) Save(ctx context.Context, e *finance.ExpenseRecord) error {
	model := models.ExpenseRecordModelFromDomain(e)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveWithLock saves the expense record with optimistic locking
func (r *GormExpenseRepository) SaveWithLock(ctx context.Context, e *finance.ExpenseRecord) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.ExpenseRecordModel
		if err := tx.Select("version").Where("id = ?", e.GetID()).First(&current).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				model := models.ExpenseRecordModelFromDomain(e)
				return tx.Create(model).Error
			}
			return err
		}

		// The domain model already incremented its version
		expectedVersion := e.GetVersion() - 1
		if current.Version != expectedVersion {
			return shared.ErrConcurrencyConflict
		}

		model := models.ExpenseRecordModelFromDomain(e)
		result := tx.Model(model).
			Where("id = ? AND version = ?", e.GetID(), expectedVersion).
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

// FindByIDForTenant loads an expense scoped to a tenant
func (r *GormExpenseRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*finance.ExpenseRecord, error) {
	var model models.ExpenseRecordModel
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

// Delete removes an expense record
func (r *GormExpenseRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.ExpenseRecordModel{}, "tenant_id = ? AND id = ?", tenantID, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// List returns expenses matching the filter with a total count
func (r *GormExpenseRepository) List(ctx context.Context, tenantID uuid.UUID, filter finance.ExpenseFilter) ([]*finance.ExpenseRecord, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ExpenseRecordModel{}).
		Where("tenant_id = ?", tenantID)

	if filter.Category != nil {
		query = query.Where("category = ?", *filter.Category)
	}
	if filter.From != nil {
		query = query.Where("incurred_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("incurred_at <= ?", *filter.To)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("incurred_at DESC")

	// Apply pagination
	if filter.PageSize > 0 {
		query = query.Limit(filter.PageSize)
		offset := (filter.Page - 1) * filter.PageSize
		if offset > 0 {
			query = query.Offset(offset)
		}
	}

	var expenseModels []models.ExpenseRecordModel
	if err := query.Find(&expenseModels).Error; err != nil {
		return nil, 0, err
	}

	expenses := make([]*finance.ExpenseRecord, len(expenseModels))
	for i := range expenseModels {
		expenses[i] = expenseModels[i].ToDomain()
	}
	return expenses, total, nil
}

// SumBetween totals expense amounts in a window, grouped by category
func (r *GormExpenseRepository) SumBetween(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (map[finance.ExpenseCategory]decimal.Decimal, error) {
	var rows []struct {
		Category finance.ExpenseCategory
		Total    decimal.Decimal
	}
	if err := r.db.WithContext(ctx).Model(&models.ExpenseRecordModel{}).
		Select("category, COALESCE(SUM(amount), 0) as total").
		Where("tenant_id = ? AND incurred_at >= ? AND incurred_at <= ?", tenantID, from, to).
		Group("category").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	sums := make(map[finance.ExpenseCategory]decimal.Decimal, len(rows))
	for _, row := range rows {
		sums[row.Category] = row.Total
	}
	return sums, nil
}

// Ensure GormExpenseRepository implements ExpenseRepository
var _ finance.ExpenseRepository = (*GormExpenseRepository)(nil)
