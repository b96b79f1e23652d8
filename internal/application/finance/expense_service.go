package finance

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/armonia/backend/internal/domain/activity"
	"github.com/armonia/backend/internal/domain/finance"
	"github.com/armonia/backend/internal/domain/identity"
	"github.com/armonia/backend/internal/domain/shared"
	"github.com/armonia/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// AllowedReceiptContentTypes is the whitelist for receipt uploads.
// SVG is excluded because it can carry scripts.
var AllowedReceiptContentTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/webp":      true,
	"application/pdf": true,
}

// ObjectStorageService is implemented by the infrastructure layer (S3 etc.)
type ObjectStorageService interface {
	// GenerateUploadURL generates a presigned URL for uploading a file
	GenerateUploadURL(ctx context.Context, storageKey, contentType string, expiresIn time.Duration) (string, time.Time, error)

	// GenerateDownloadURL generates a presigned URL for downloading a file
	GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error)

	// DeleteObject deletes an object from storage
	DeleteObject(ctx context.Context, storageKey string) error

	// ObjectExists checks if an object exists in storage
	ObjectExists(ctx context.Context, storageKey string) (bool, error)
}

// ExpenseServiceConfig holds dependencies for the expense service
type ExpenseServiceConfig struct {
	ExpenseRepo       finance.ExpenseRepository
	TenantRepo        identity.TenantRepository
	ActivityRepo      activity.Repository
	Storage           ObjectStorageService
	EventPublisher    shared.EventPublisher
	UploadURLExpiry   time.Duration
	DownloadURLExpiry time.Duration
	Logger            *zap.Logger
}

// ExpenseService manages the complex's outgoing payments
type ExpenseService struct {
	expenseRepo       finance.ExpenseRepository
	tenantRepo        identity.TenantRepository
	activityRepo      activity.Repository
	storage           ObjectStorageService
	eventPublisher    shared.EventPublisher
	uploadURLExpiry   time.Duration
	downloadURLExpiry time.Duration
	logger            *zap.Logger
}

// NewExpenseService creates a new ExpenseService
func NewExpenseService(config ExpenseServiceConfig) *ExpenseService {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	uploadExpiry := config.UploadURLExpiry
	if uploadExpiry <= 0 {
		uploadExpiry = 15 * time.Minute
	}
	downloadExpiry := config.DownloadURLExpiry
	if downloadExpiry <= 0 {
		downloadExpiry = 1 * time.Hour
	}
	return &ExpenseService{
		expenseRepo:       config.ExpenseRepo,
		tenantRepo:        config.TenantRepo,
		activityRepo:      config.ActivityRepo,
		storage:           config.Storage,
		eventPublisher:    config.EventPublisher,
		uploadURLExpiry:   uploadExpiry,
		downloadURLExpiry: downloadExpiry,
		logger:            logger,
	}
}

// RecordExpenseCommand contains input for recording an expense
type RecordExpenseCommand struct {
	Category    string
	Amount      decimal.Decimal
	Currency    string
	Description string
	Vendor      string
	IncurredAt  time.Time
}

// RecordExpense registers an outgoing payment made by the administration
func (s *ExpenseService) RecordExpense(ctx context.Context, tenantID, actorID uuid.UUID, cmd RecordExpenseCommand) (*finance.ExpenseRecord, error) {
	if err := s.requireFeature(ctx, tenantID, identity.FeatureExpenseTracking); err != nil {
		return nil, err
	}

	currency := valueobject.Currency(cmd.Currency)
	if cmd.Currency == "" {
		currency = valueobject.DefaultCurrency
	}
	amount, err := valueobject.NewMoney(cmd.Amount, currency)
	if err != nil {
		return nil, err
	}

	incurredAt := cmd.IncurredAt
	if incurredAt.IsZero() {
		incurredAt = time.Now()
	}

	expense, err := finance.NewExpenseRecord(
		tenantID,
		finance.ExpenseCategory(cmd.Category),
		amount,
		cmd.Description,
		cmd.Vendor,
		incurredAt,
	)
	if err != nil {
		return nil, err
	}

	if err := s.expenseRepo.Save(ctx, expense); err != nil {
		return nil, fmt.Errorf("failed to save expense: %w", err)
	}

	s.publishEvents(ctx, expense.GetDomainEvents())
	expense.ClearDomainEvents()

	s.recordActivity(ctx, tenantID, actorID, activity.ActionExpenseRecorded, "expense", expense.ID,
		fmt.Sprintf("Expense %s %s recorded for %s", expense.Amount.StringFixed(2), expense.Currency, expense.Category))

	s.logger.Info("Expense recorded",
		zap.String("tenant_id", tenantID.String()),
		zap.String("expense_id", expense.ID.String()),
		zap.String("category", expense.Category.String()))

	return expense, nil
}

// UpdateExpenseCommand contains input for editing an expense
type UpdateExpenseCommand struct {
	ExpenseID   uuid.UUID
	Category    string
	Amount      decimal.Decimal
	Currency    string
	Description string
	Vendor      string
}

// UpdateExpense edits an expense's descriptive fields
func (s *ExpenseService) UpdateExpense(ctx context.Context, tenantID, actorID uuid.UUID, cmd UpdateExpenseCommand) (*finance.ExpenseRecord, error) {
	if err := s.requireFeature(ctx, tenantID, identity.FeatureExpenseTracking); err != nil {
		return nil, err
	}

	expense, err := s.getExpense(ctx, tenantID, cmd.ExpenseID)
	if err != nil {
		return nil, err
	}

	currency := valueobject.Currency(cmd.Currency)
	if cmd.Currency == "" {
		currency = expense.Currency
	}
	amount, err := valueobject.NewMoney(cmd.Amount, currency)
	if err != nil {
		return nil, err
	}

	if err := expense.Update(finance.ExpenseCategory(cmd.Category), amount, cmd.Description, cmd.Vendor); err != nil {
		return nil, err
	}

	if err := s.expenseRepo.SaveWithLock(ctx, expense); err != nil {
		return nil, err
	}

	return expense, nil
}

// DeleteExpense removes an expense and its stored receipt, if any
func (s *ExpenseService) DeleteExpense(ctx context.Context, tenantID, actorID uuid.UUID, expenseID uuid.UUID) error {
	if err := s.requireFeature(ctx, tenantID, identity.FeatureExpenseTracking); err != nil {
		return err
	}

	expense, err := s.getExpense(ctx, tenantID, expenseID)
	if err != nil {
		return err
	}

	if err := s.expenseRepo.Delete(ctx, tenantID, expenseID); err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}

	// Orphaned receipts cost storage; removal failures are not fatal
	if expense.ReceiptKey != "" && s.storage != nil {
		if err := s.storage.DeleteObject(ctx, expense.ReceiptKey); err != nil {
			s.logger.Warn("Failed to delete receipt object",
				zap.String("storage_key", expense.ReceiptKey),
				zap.Error(err))
		}
	}

	s.logger.Info("Expense deleted",
		zap.String("tenant_id", tenantID.String()),
		zap.String("expense_id", expenseID.String()))

	return nil
}

// GetExpense loads one expense
func (s *ExpenseService) GetExpense(ctx context.Context, tenantID, expenseID uuid.UUID) (*finance.ExpenseRecord, error) {
	return s.getExpense(ctx, tenantID, expenseID)
}

// ListExpenses returns expenses matching the filter
func (s *ExpenseService) ListExpenses(ctx context.Context, tenantID uuid.UUID, filter finance.ExpenseFilter) ([]*finance.ExpenseRecord, int64, error) {
	return s.expenseRepo.List(ctx, tenantID, filter)
}

// ReceiptUploadResult carries the presigned upload target
type ReceiptUploadResult struct {
	StorageKey string    `json:"storage_key"`
	UploadURL  string    `json:"upload_url"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// InitiateReceiptUpload returns a presigned URL the client PUTs the
// receipt document to. The upload is confirmed with ConfirmReceipt.
func (s *ExpenseService) InitiateReceiptUpload(ctx context.Context, tenantID uuid.UUID, expenseID uuid.UUID, fileName, contentType string) (*ReceiptUploadResult, error) {
	if err := s.requireFeature(ctx, tenantID, identity.FeatureReceiptAttachments); err != nil {
		return nil, err
	}
	if s.storage == nil {
		return nil, shared.NewDomainError("STORAGE_UNAVAILABLE", "Object storage is not configured")
	}

	if !AllowedReceiptContentTypes[strings.ToLower(contentType)] {
		return nil, shared.NewDomainError("INVALID_CONTENT_TYPE",
			fmt.Sprintf("Content type %s is not allowed for receipts", contentType))
	}

	expense, err := s.getExpense(ctx, tenantID, expenseID)
	if err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(fileName))
	storageKey := fmt.Sprintf("receipts/%s/%s/%s%s", tenantID, expense.ID, uuid.New(), ext)

	uploadURL, expiresAt, err := s.storage.GenerateUploadURL(ctx, storageKey, contentType, s.uploadURLExpiry)
	if err != nil {
		return nil, fmt.Errorf("failed to generate upload URL: %w", err)
	}

	return &ReceiptUploadResult{
		StorageKey: storageKey,
		UploadURL:  uploadURL,
		ExpiresAt:  expiresAt,
	}, nil
}

// ConfirmReceipt links an uploaded receipt object to the expense
func (s *ExpenseService) ConfirmReceipt(ctx context.Context, tenantID, actorID uuid.UUID, expenseID uuid.UUID, storageKey string) (*finance.ExpenseRecord, error) {
	if err := s.requireFeature(ctx, tenantID, identity.FeatureReceiptAttachments); err != nil {
		return nil, err
	}
	if s.storage == nil {
		return nil, shared.NewDomainError("STORAGE_UNAVAILABLE", "Object storage is not configured")
	}

	expense, err := s.getExpense(ctx, tenantID, expenseID)
	if err != nil {
		return nil, err
	}

	// The key must belong to this tenant's receipt prefix
	if !strings.HasPrefix(storageKey, fmt.Sprintf("receipts/%s/", tenantID)) {
		return nil, shared.NewDomainError("INVALID_RECEIPT", "Storage key does not belong to this tenant")
	}

	exists, err := s.storage.ObjectExists(ctx, storageKey)
	if err != nil {
		return nil, fmt.Errorf("failed to check receipt object: %w", err)
	}
	if !exists {
		return nil, shared.NewDomainError("RECEIPT_NOT_UPLOADED", "Receipt object was not found in storage")
	}

	previousKey := expense.ReceiptKey

	if err := expense.AttachReceipt(storageKey); err != nil {
		return nil, err
	}

	if err := s.expenseRepo.SaveWithLock(ctx, expense); err != nil {
		return nil, err
	}

	// Replace semantics: drop the superseded object
	if previousKey != "" && previousKey != storageKey {
		if err := s.storage.DeleteObject(ctx, previousKey); err != nil {
			s.logger.Warn("Failed to delete replaced receipt",
				zap.String("storage_key", previousKey),
				zap.Error(err))
		}
	}

	return expense, nil
}

// GetReceiptURL returns a presigned download URL for the expense's receipt
func (s *ExpenseService) GetReceiptURL(ctx context.Context, tenantID, expenseID uuid.UUID) (string, time.Time, error) {
	if err := s.requireFeature(ctx, tenantID, identity.FeatureReceiptAttachments); err != nil {
		return "", time.Time{}, err
	}
	if s.storage == nil {
		return "", time.Time{}, shared.NewDomainError("STORAGE_UNAVAILABLE", "Object storage is not configured")
	}

	expense, err := s.getExpense(ctx, tenantID, expenseID)
	if err != nil {
		return "", time.Time{}, err
	}
	if expense.ReceiptKey == "" {
		return "", time.Time{}, shared.NewDomainError("NOT_FOUND", "Expense has no receipt attached")
	}

	return s.storage.GenerateDownloadURL(ctx, expense.ReceiptKey, s.downloadURLExpiry)
}

func (s *ExpenseService) getExpense(ctx context.Context, tenantID, expenseID uuid.UUID) (*finance.ExpenseRecord, error) {
	expense, err := s.expenseRepo.FindByIDForTenant(ctx, tenantID, expenseID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load expense: %w", err)
	}
	if expense == nil {
		return nil, shared.ErrNotFound
	}
	return expense, nil
}

func (s *ExpenseService) requireFeature(ctx context.Context, tenantID uuid.UUID, feature identity.FeatureKey) error {
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

func (s *ExpenseService) publishEvents(ctx context.Context, events []shared.DomainEvent) {
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish domain events", zap.Error(err))
	}
}

func (s *ExpenseService) recordActivity(ctx context.Context, tenantID, actorID uuid.UUID, action activity.Action, entityType string, entityID uuid.UUID, detail string) {
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
