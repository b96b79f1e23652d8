package payment

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/armonia/backend/internal/domain/identity"
	"github.com/armonia/backend/internal/domain/payment"
	"github.com/armonia/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AllowedReceiptContentTypes is the whitelist for payment proof uploads.
// SVG is excluded because it can carry scripts.
var AllowedReceiptContentTypes = map[string]bool{
	"image/jpeg":      true,
	"image/png":       true,
	"image/webp":      true,
	"application/pdf": true,
}

// ObjectStorageService is implemented by the infrastructure layer (S3 etc.)
type ObjectStorageService interface {
	GenerateUploadURL(ctx context.Context, storageKey, contentType string, expiresIn time.Duration) (string, time.Time, error)
	GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error)
	DeleteObject(ctx context.Context, storageKey string) error
	ObjectExists(ctx context.Context, storageKey string) (bool, error)
}

// ReceiptServiceConfig holds dependencies for the receipt service
type ReceiptServiceConfig struct {
	TransactionRepo   payment.TransactionRepository
	TenantRepo        identity.TenantRepository
	Storage           ObjectStorageService
	UploadURLExpiry   time.Duration
	DownloadURLExpiry time.Duration
	Logger            *zap.Logger
}

// ReceiptService manages payment proof documents attached to transactions
type ReceiptService struct {
	txRepo            payment.TransactionRepository
	tenantRepo        identity.TenantRepository
	storage           ObjectStorageService
	uploadURLExpiry   time.Duration
	downloadURLExpiry time.Duration
	logger            *zap.Logger
}

// NewReceiptService creates a new ReceiptService
func NewReceiptService(config ReceiptServiceConfig) *ReceiptService {
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
	return &ReceiptService{
		txRepo:            config.TransactionRepo,
		tenantRepo:        config.TenantRepo,
		storage:           config.Storage,
		uploadURLExpiry:   uploadExpiry,
		downloadURLExpiry: downloadExpiry,
		logger:            logger,
	}
}

// ReceiptUploadResult carries the presigned upload target
type ReceiptUploadResult struct {
	StorageKey string    `json:"storage_key"`
	UploadURL  string    `json:"upload_url"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// InitiateReceiptUpload returns a presigned URL the client PUTs the payment
// proof to. The upload is confirmed with ConfirmReceipt.
func (s *ReceiptService) InitiateReceiptUpload(ctx context.Context, tenantID, paymentID uuid.UUID, fileName, contentType string) (*ReceiptUploadResult, error) {
	if err := s.requireFeature(ctx, tenantID); err != nil {
		return nil, err
	}
	if s.storage == nil {
		return nil, shared.NewDomainError("STORAGE_UNAVAILABLE", "Object storage is not configured")
	}

	if !AllowedReceiptContentTypes[strings.ToLower(contentType)] {
		return nil, shared.NewDomainError("INVALID_CONTENT_TYPE",
			fmt.Sprintf("Content type %s is not allowed for receipts", contentType))
	}

	tx, err := s.getTransaction(ctx, tenantID, paymentID)
	if err != nil {
		return nil, err
	}

	ext := strings.ToLower(filepath.Ext(fileName))
	storageKey := fmt.Sprintf("payment-receipts/%s/%s/%s%s", tenantID, tx.ID, uuid.New(), ext)

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

// ConfirmReceipt links an uploaded payment proof object to the transaction
func (s *ReceiptService) ConfirmReceipt(ctx context.Context, tenantID, paymentID uuid.UUID, storageKey string) (*payment.Transaction, error) {
	if err := s.requireFeature(ctx, tenantID); err != nil {
		return nil, err
	}
	if s.storage == nil {
		return nil, shared.NewDomainError("STORAGE_UNAVAILABLE", "Object storage is not configured")
	}

	tx, err := s.getTransaction(ctx, tenantID, paymentID)
	if err != nil {
		return nil, err
	}

	// The key must belong to this tenant's receipt prefix
	if !strings.HasPrefix(storageKey, fmt.Sprintf("payment-receipts/%s/", tenantID)) {
		return nil, shared.NewDomainError("INVALID_RECEIPT", "Storage key does not belong to this tenant")
	}

	exists, err := s.storage.ObjectExists(ctx, storageKey)
	if err != nil {
		return nil, fmt.Errorf("failed to check receipt object: %w", err)
	}
	if !exists {
		return nil, shared.NewDomainError("RECEIPT_NOT_UPLOADED", "Receipt object was not found in storage")
	}

	previousKey := tx.ReceiptKey

	if err := tx.AttachReceipt(storageKey); err != nil {
		return nil, err
	}

	if err := s.txRepo.SaveWithLock(ctx, tx); err != nil {
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

	return tx, nil
}

// GetReceiptURL returns a presigned download URL for the transaction's receipt
func (s *ReceiptService) GetReceiptURL(ctx context.Context, tenantID, paymentID uuid.UUID) (string, time.Time, error) {
	if err := s.requireFeature(ctx, tenantID); err != nil {
		return "", time.Time{}, err
	}
	if s.storage == nil {
		return "", time.Time{}, shared.NewDomainError("STORAGE_UNAVAILABLE", "Object storage is not configured")
	}

	tx, err := s.getTransaction(ctx, tenantID, paymentID)
	if err != nil {
		return "", time.Time{}, err
	}
	if tx.ReceiptKey == "" {
		return "", time.Time{}, shared.NewDomainError("NOT_FOUND", "Payment has no receipt attached")
	}

	return s.storage.GenerateDownloadURL(ctx, tx.ReceiptKey, s.downloadURLExpiry)
}

func (s *ReceiptService) getTransaction(ctx context.Context, tenantID, paymentID uuid.UUID) (*payment.Transaction, error) {
	tx, err := s.txRepo.FindByIDForTenant(ctx, tenantID, paymentID)
	if err != nil {
		return nil, err
	}
	if tx == nil {
		return nil, shared.ErrNotFound
	}
	return tx, nil
}

func (s *ReceiptService) requireFeature(ctx context.Context, tenantID uuid.UUID) error {
	tenant, err := s.tenantRepo.FindByID(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("failed to load tenant: %w", err)
	}
	if tenant == nil {
		return shared.ErrNotFound
	}
	if !identity.PlanHasFeature(tenant.Plan, identity.FeatureReceiptAttachments) {
		return shared.NewDomainError("FEATURE_NOT_LICENSED",
			fmt.Sprintf("Plan %s does not include %s", tenant.Plan, identity.FeatureReceiptAttachments))
	}
	return nil
}
