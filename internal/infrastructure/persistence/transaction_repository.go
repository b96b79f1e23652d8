package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/armonia/backend/internal/domain/payment"
	"github.com/armonia/backend/internal/domain/shared"
	"github.com/armonia/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormTransactionRepository implements TransactionRepository using GORM
type GormTransactionRepository struct {
	db          *gorm.DB
	outboxSaver shared.OutboxEventSaver // optional, for transactional outbox pattern
}

// NewGormTransactionRepository creates a new GormTransactionRepository
func NewGormTransactionRepository(db *gorm.DB) *GormTransactionRepository {
	return &GormTransactionRepository{db: db}
}

// SetOutboxEventSaver sets the outbox event saver for transactional event publishing
func (r *GormTransactionRepository) SetOutboxEventSaver(saver shared.OutboxEventSaver) {
	r.outboxSaver = saver
}

// Save persists a new transaction
func (r *GormTransactionRepository) Save(ctx context.Context, transaction *payment.Transaction) error {
	model := models.TransactionModelFromDomain(transaction)
	events := transaction.GetDomainEvents()
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(model).Error; err != nil {
			return err
		}
		if r.outboxSaver != nil && len(events) > 0 {
			if err := r.outboxSaver.SaveEvents(ctx, tx, events...); err != nil {
				return fmt.Errorf("failed to save events to outbox: %w", err)
			}
		}
		return nil
	})
}

// SaveWithLock saves the transaction with optimistic locking
func (r *GormTransactionRepository) SaveWithLock(ctx context.Context, transaction *payment.Transaction) error {
	events := transaction.GetDomainEvents()
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.TransactionModel
		if err := tx.Select("version").Where("id = ?", transaction.GetID()).First(&current).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return shared.ErrNotFound
			}
			return err
		}

		// The domain model already incremented its version
		expectedVersion := transaction.GetVersion() - 1
		if current.Version != expectedVersion {
			return shared.ErrConcurrencyConflict
		}

		model := models.TransactionModelFromDomain(transaction)
		result := tx.Model(model).
			Where("id = ? AND version = ?", transaction.GetID(), expectedVersion).
			Save(model)

		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrencyConflict
		}
		if r.outboxSaver != nil && len(events) > 0 {
			if err := r.outboxSaver.SaveEvents(ctx, tx, events...); err != nil {
				return fmt.Errorf("failed to save events to outbox: %w", err)
			}
		}
		return nil
	})
}

// FindByIDForTenant loads a transaction scoped to a tenant
func (r *GormTransactionRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*payment.Transaction, error) {
	var model models.TransactionModel
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

// FindByGatewayReference loads a transaction by its gateway reference within a tenant
func (r *GormTransactionRepository) FindByGatewayReference(ctx context.Context, tenantID uuid.UUID, reference string) (*payment.Transaction, error) {
	if reference == "" {
		return nil, nil
	}
	var model models.TransactionModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND gateway_reference = ?", tenantID, reference).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// List returns transactions matching the filter with a total count
func (r *GormTransactionRepository) List(ctx context.Context, tenantID uuid.UUID, filter payment.TransactionFilter) ([]*payment.Transaction, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.TransactionModel{}).
		Where("payment_transactions.tenant_id = ?", tenantID)

	if filter.InvoiceID != nil {
		query = query.Where("payment_transactions.invoice_id = ?", *filter.InvoiceID)
	}
	if filter.PropertyID != nil {
		query = query.Where("payment_transactions.property_id = ?", *filter.PropertyID)
	}
	if filter.OwnerID != nil {
		query = query.Joins("JOIN properties ON properties.id = payment_transactions.property_id").
			Where("properties.owner_user_id = ?", *filter.OwnerID)
	}
	if filter.Status != nil {
		query = query.Where("payment_transactions.status = ?", *filter.Status)
	}
	if filter.Method != nil {
		query = query.Where("payment_transactions.method = ?", *filter.Method)
	}
	if filter.From != nil {
		query = query.Where("payment_transactions.created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("payment_transactions.created_at <= ?", *filter.To)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("payment_transactions.created_at DESC")

	// Apply pagination
	if filter.PageSize > 0 {
		query = query.Limit(filter.PageSize)
		offset := (filter.Page - 1) * filter.PageSize
		if offset > 0 {
			query = query.Offset(offset)
		}
	}

	var txModels []models.TransactionModel
	if err := query.Find(&txModels).Error; err != nil {
		return nil, 0, err
	}

	transactions := make([]*payment.Transaction, len(txModels))
	for i := range txModels {
		transactions[i] = txModels[i].ToDomain()
	}
	return transactions, total, nil
}

// SumCollectedBetween totals settled transaction amounts in a window.
// A refund flips the original row to REFUNDED and records a compensating
// negative COMPLETED row, so both statuses must be summed for the pair to
// net out to zero. The upper bound is exclusive so a payment on a period
// boundary is counted in exactly one period.
func (r *GormTransactionRepository) SumCollectedBetween(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (decimal.Decimal, error) {
	var result struct {
		Total decimal.Decimal
	}
	if err := r.db.WithContext(ctx).Model(&models.TransactionModel{}).
		Select("COALESCE(SUM(amount), 0) as total").
		Where("tenant_id = ? AND status IN ? AND processed_at >= ? AND processed_at < ?",
			tenantID,
			[]payment.TransactionStatus{payment.TransactionStatusCompleted, payment.TransactionStatusRefunded},
			from, to).
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

// Ensure GormTransactionRepository implements TransactionRepository
var _ payment.TransactionRepository = (*GormTransactionRepository)(nil)
