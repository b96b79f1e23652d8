package persistence

import (
	"context"

	"github.com/armonia/backend/internal/domain/activity"
	"github.com/armonia/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormActivityRepository implements activity.Repository using GORM.
// Entries are append-only; nothing here updates or deletes rows.
type GormActivityRepository struct {
	db *gorm.DB
}

// NewGormActivityRepository creates a new GormActivityRepository
func NewGormActivityRepository(db *gorm.DB) *GormActivityRepository {
	return &GormActivityRepository{db: db}
}

// Append stores an entry
func (r *GormActivityRepository) Append(ctx context.Context, entry *activity.Entry) error {
	model := models.ActivityEntryModelFromDomain(entry)
	return r.db.WithContext(ctx).Create(model).Error
}

// List returns entries matching the filter, newest first, with a total count
func (r *GormActivityRepository) List(ctx context.Context, tenantID uuid.UUID, filter activity.Filter) ([]*activity.Entry, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ActivityEntryModel{}).
		Where("tenant_id = ?", tenantID)

	if filter.ActorID != nil {
		query = query.Where("actor_id = ?", *filter.ActorID)
	}
	if filter.Action != nil {
		query = query.Where("action = ?", *filter.Action)
	}
	if filter.EntityType != "" {
		query = query.Where("entity_type = ?", filter.EntityType)
	}
	if filter.From != nil {
		query = query.Where("occurred_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("occurred_at <= ?", *filter.To)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("occurred_at DESC")

	// Apply pagination
	if filter.PageSize > 0 {
		query = query.Limit(filter.PageSize)
		offset := (filter.Page - 1) * filter.PageSize
		if offset > 0 {
			query = query.Offset(offset)
		}
	}

	var entryModels []models.ActivityEntryModel
	if err := query.Find(&entryModels).Error; err != nil {
		return nil, 0, err
	}

	entries := make([]*activity.Entry, len(entryModels))
	for i := range entryModels {
		entries[i] = entryModels[i].ToDomain()
	}
	return entries, total, nil
}

// Ensure GormActivityRepository implements activity.Repository
var _ activity.Repository = (*GormActivityRepository)(nil)
