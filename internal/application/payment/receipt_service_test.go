package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/armonia/backend/internal/domain/identity"
	"github.com/armonia/backend/internal/domain/payment"
	"github.com/armonia/backend/internal/domain/shared"
	"github.com/armonia/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockObjectStorage struct {
	mock.Mock
}

func (m *mockObjectStorage) GenerateUploadURL(ctx context.Context, storageKey, contentType string, expiresIn time.Duration) (string, time.Time, error) {
	args := m.Called(ctx, storageKey, contentType, expiresIn)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *mockObjectStorage) GenerateDownloadURL(ctx context.Context, storageKey string, expiresIn time.Duration) (string, time.Time, error) {
	args := m.Called(ctx, storageKey, expiresIn)
	return args.String(0), args.Get(1).(time.Time), args.Error(2)
}

func (m *mockObjectStorage) DeleteObject(ctx context.Context, storageKey string) error {
	args := m.Called(ctx, storageKey)
	return args.Error(0)
}

func (m *mockObjectStorage) ObjectExists(ctx context.Context, storageKey string) (bool, error) {
	args := m.Called(ctx, storageKey)
	return args.Bool(0), args.Error(1)
}

func newTestReceiptService(txRepo *mockTransactionRepository, tenantRepo *mockTenantRepository, storage *mockObjectStorage) *ReceiptService {
	return NewReceiptService(ReceiptServiceConfig{
		TransactionRepo: txRepo,
		TenantRepo:      tenantRepo,
		Storage:         storage,
	})
}

func TestInitiateReceiptUpload(t *testing.T) {
	t.Run("returns a presigned upload target under the tenant prefix", func(t *testing.T) {
		txRepo := new(mockTransactionRepository)
		tenantRepo := new(mockTenantRepository)
		storage := new(mockObjectStorage)

		tenant := createTenantWithPlan(t, identity.TenantPlanStandard)
		tenantID := tenant.ID
		tx := createCompletedTransaction(t, tenantID, uuid.New(), uuid.New(), "350000")

		expiresAt := time.Now().Add(15 * time.Minute)
		tenantRepo.On("FindByID", mock.Anything, tenantID).Return(tenant, nil)
		txRepo.On("FindByIDForTenant", mock.Anything, tenantID, tx.ID).Return(tx, nil)
		storage.On("GenerateUploadURL", mock.Anything, mock.Anything, "application/pdf", 15*time.Minute).
			Return("https://bucket.s3.amazonaws.com/presigned-put", expiresAt, nil)

		service := newTestReceiptService(txRepo, tenantRepo, storage)

		result, err := service.InitiateReceiptUpload(context.Background(), tenantID, tx.ID,
			"comprobante.pdf", "application/pdf")

		require.NoError(t, err)
		assert.Equal(t, "https://bucket.s3.amazonaws.com/presigned-put", result.UploadURL)
		assert.Equal(t, expiresAt, result.ExpiresAt)
		assert.True(t, strings.HasPrefix(result.StorageKey,
			fmt.Sprintf("payment-receipts/%s/%s/", tenantID, tx.ID)))
		assert.True(t, strings.HasSuffix(result.StorageKey, ".pdf"))
	})

	t.Run("rejects a disallowed content type", func(t *testing.T) {
		tenantRepo := new(mockTenantRepository)
		storage := new(mockObjectStorage)

		tenant := createTenantWithPlan(t, identity.TenantPlanStandard)
		tenantRepo.On("FindByID", mock.Anything, tenant.ID).Return(tenant, nil)

		service := newTestReceiptService(new(mockTransactionRepository), tenantRepo, storage)

		_, err := service.InitiateReceiptUpload(context.Background(), tenant.ID, uuid.New(),
			"receipt.svg", "image/svg+xml")

		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, "INVALID_CONTENT_TYPE", domainErr.Code)
		storage.AssertNotCalled(t, "GenerateUploadURL", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("requires the receipt attachments feature", func(t *testing.T) {
		tenantRepo := new(mockTenantRepository)

		tenant := createTenantWithPlan(t, identity.TenantPlanBasic)
		tenantRepo.On("FindByID", mock.Anything, tenant.ID).Return(tenant, nil)

		service := newTestReceiptService(new(mockTransactionRepository), tenantRepo, new(mockObjectStorage))

		_, err := service.InitiateReceiptUpload(context.Background(), tenant.ID, uuid.New(),
			"comprobante.pdf", "application/pdf")

		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, "FEATURE_NOT_LICENSED", domainErr.Code)
	})
}

func TestConfirmReceipt(t *testing.T) {
	t.Run("links the uploaded object to the transaction", func(t *testing.T) {
		txRepo := new(mockTransactionRepository)
		tenantRepo := new(mockTenantRepository)
		storage := new(mockObjectStorage)

		tenant := createTenantWithPlan(t, identity.TenantPlanStandard)
		tenantID := tenant.ID
		tx := createCompletedTransaction(t, tenantID, uuid.New(), uuid.New(), "350000")
		storageKey := fmt.Sprintf("payment-receipts/%s/%s/%s.pdf", tenantID, tx.ID, uuid.New())

		tenantRepo.On("FindByID", mock.Anything, tenantID).Return(tenant, nil)
		txRepo.On("FindByIDForTenant", mock.Anything, tenantID, tx.ID).Return(tx, nil)
		storage.On("ObjectExists", mock.Anything, storageKey).Return(true, nil)
		txRepo.On("SaveWithLock", mock.Anything, tx).Return(nil)

		service := newTestReceiptService(txRepo, tenantRepo, storage)

		updated, err := service.ConfirmReceipt(context.Background(), tenantID, tx.ID, storageKey)

		require.NoError(t, err)
		assert.Equal(t, storageKey, updated.ReceiptKey)
		storage.AssertNotCalled(t, "DeleteObject", mock.Anything, mock.Anything)
	})

	t.Run("rejects a cancelled transaction", func(t *testing.T) {
		txRepo := new(mockTransactionRepository)
		tenantRepo := new(mockTenantRepository)
		storage := new(mockObjectStorage)

		tenant := createTenantWithPlan(t, identity.TenantPlanStandard)
		tenantID := tenant.ID
		tx, err := payment.NewTransaction(tenantID, uuid.New(), uuid.New(),
			valueobject.NewMoneyCOP(decimal.RequireFromString("350000")), payment.PaymentMethodCash)
		require.NoError(t, err)
		require.NoError(t, tx.Cancel())
		storageKey := fmt.Sprintf("payment-receipts/%s/%s/%s.pdf", tenantID, tx.ID, uuid.New())

		tenantRepo.On("FindByID", mock.Anything, tenantID).Return(tenant, nil)
		txRepo.On("FindByIDForTenant", mock.Anything, tenantID, tx.ID).Return(tx, nil)
		storage.On("ObjectExists", mock.Anything, storageKey).Return(true, nil)

		service := newTestReceiptService(txRepo, tenantRepo, storage)

		_, err = service.ConfirmReceipt(context.Background(), tenantID, tx.ID, storageKey)

		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, "INVALID_STATE", domainErr.Code)
		txRepo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})

	t.Run("rejects a key outside the tenant prefix", func(t *testing.T) {
		txRepo := new(mockTransactionRepository)
		tenantRepo := new(mockTenantRepository)
		storage := new(mockObjectStorage)

		tenant := createTenantWithPlan(t, identity.TenantPlanStandard)
		tenantID := tenant.ID
		tx := createCompletedTransaction(t, tenantID, uuid.New(), uuid.New(), "350000")
		foreignKey := fmt.Sprintf("payment-receipts/%s/%s/%s.pdf", uuid.New(), tx.ID, uuid.New())

		tenantRepo.On("FindByID", mock.Anything, tenantID).Return(tenant, nil)
		txRepo.On("FindByIDForTenant", mock.Anything, tenantID, tx.ID).Return(tx, nil)

		service := newTestReceiptService(txRepo, tenantRepo, storage)

		_, err := service.ConfirmReceipt(context.Background(), tenantID, tx.ID, foreignKey)

		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, "INVALID_RECEIPT", domainErr.Code)
		storage.AssertNotCalled(t, "ObjectExists", mock.Anything, mock.Anything)
	})
}

func TestGetReceiptURL(t *testing.T) {
	t.Run("returns a presigned download URL", func(t *testing.T) {
		txRepo := new(mockTransactionRepository)
		tenantRepo := new(mockTenantRepository)
		storage := new(mockObjectStorage)

		tenant := createTenantWithPlan(t, identity.TenantPlanStandard)
		tenantID := tenant.ID
		tx := createCompletedTransaction(t, tenantID, uuid.New(), uuid.New(), "350000")
		storageKey := fmt.Sprintf("payment-receipts/%s/%s/%s.pdf", tenantID, tx.ID, uuid.New())
		require.NoError(t, tx.AttachReceipt(storageKey))

		expiresAt := time.Now().Add(time.Hour)
		tenantRepo.On("FindByID", mock.Anything, tenantID).Return(tenant, nil)
		txRepo.On("FindByIDForTenant", mock.Anything, tenantID, tx.ID).Return(tx, nil)
		storage.On("GenerateDownloadURL", mock.Anything, storageKey, time.Hour).
			Return("https://bucket.s3.amazonaws.com/presigned-get", expiresAt, nil)

		service := newTestReceiptService(txRepo, tenantRepo, storage)

		url, gotExpiry, err := service.GetReceiptURL(context.Background(), tenantID, tx.ID)

		require.NoError(t, err)
		assert.Equal(t, "https://bucket.s3.amazonaws.com/presigned-get", url)
		assert.Equal(t, expiresAt, gotExpiry)
	})

	t.Run("reports not found when no receipt is attached", func(t *testing.T) {
		txRepo := new(mockTransactionRepository)
		tenantRepo := new(mockTenantRepository)
		storage := new(mockObjectStorage)

		tenant := createTenantWithPlan(t, identity.TenantPlanStandard)
		tenantID := tenant.ID
		tx := createCompletedTransaction(t, tenantID, uuid.New(), uuid.New(), "350000")

		tenantRepo.On("FindByID", mock.Anything, tenantID).Return(tenant, nil)
		txRepo.On("FindByIDForTenant", mock.Anything, tenantID, tx.ID).Return(tx, nil)

		service := newTestReceiptService(txRepo, tenantRepo, storage)

		_, _, err := service.GetReceiptURL(context.Background(), tenantID, tx.ID)

		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, "NOT_FOUND", domainErr.Code)
		storage.AssertNotCalled(t, "GenerateDownloadURL", mock.Anything, mock.Anything, mock.Anything)
	})
}
