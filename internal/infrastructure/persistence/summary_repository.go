package persistence

import (
	"context"
	"errors"

	"github.com/armonia/backend/internal/domain/report"
	"github.com/armonia/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSummaryRepository implements report.SummaryRepository using GORM
type GormSummaryRepository struct {
	db *gorm.DB
}

// NewGormSummaryRepository creates a new GormSummaryRepository
func NewGormSummaryRepository(db *gorm.DB) *GormSummaryRepository {
	return &GormSummaryRepository{db: db}
}

// SaveSnapshot stores a generated summary, replacing any existing
// snapshot for the same tenant and period
func (r *GormSummaryRepository) SaveSnapshot(ctx context.Context, summary *report.FinanceSummary) error {
	model := models.FinanceSummaryModelFromDomain(summary)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "period"}},
			UpdateAll: true,
		}).
		Create(model).Error
}

// FindSnapshot loads the stored summary for a tenant and period.
// Returns nil when no snapshot exists.
func (r *GormSummaryRepository) FindSnapshot(ctx context.Context, tenantID uuid.UUID, period string) (*report.FinanceSummary, error) {
	var model models.FinanceSummaryModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND period = ?", tenantID, period).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// Ensure GormSummaryRepository implements report.SummaryRepository
var _ report.SummaryRepository = (*GormSummaryRepository)(nil)
