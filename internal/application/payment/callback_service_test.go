package payment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/armonia/backend/internal/domain/billing"
	"github.com/armonia/backend/internal/domain/payment"
	"github.com/armonia/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockGateway struct {
	mock.Mock
	gatewayType payment.GatewayType
}

func (m *mockGateway) GatewayType() payment.GatewayType {
	return m.gatewayType
}

func (m *mockGateway) CreateCheckout(ctx context.Context, req *payment.CheckoutRequest) (*payment.CheckoutResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.CheckoutResponse), args.Error(1)
}

func (m *mockGateway) QueryStatus(ctx context.Context, req *payment.StatusRequest) (*payment.StatusResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.StatusResponse), args.Error(1)
}

func (m *mockGateway) VerifyNotification(ctx context.Context, payload []byte, signature string) (*payment.Notification, error) {
	args := m.Called(ctx, payload, signature)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Notification), args.Error(1)
}

func (m *mockGateway) AcknowledgeResponse(success bool) []byte {
	if success {
		return []byte("OK")
	}
	return []byte("FAIL")
}

type mockIdempotencyStore struct {
	mock.Mock
}

func (m *mockIdempotencyStore) MarkProcessed(ctx context.Context, eventID string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, eventID, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *mockIdempotencyStore) IsProcessed(ctx context.Context, eventID string) (bool, error) {
	args := m.Called(ctx, eventID)
	return args.Bool(0), args.Error(1)
}

func (m *mockIdempotencyStore) Unmark(ctx context.Context, eventID string) error {
	args := m.Called(ctx, eventID)
	return args.Error(0)
}

func (m *mockIdempotencyStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

func createProcessingTransaction(t *testing.T, tenantID, invoiceID, propertyID uuid.UUID, amount string, ref string) *payment.Transaction {
	t.Helper()
	tx, err := payment.NewTransaction(tenantID, invoiceID, propertyID,
		valueobject.NewMoneyCOP(decimal.RequireFromString(amount)), payment.PaymentMethodGateway)
	require.NoError(t, err)
	require.NoError(t, tx.StartProcessing("WOMPI", ref))
	tx.ClearDomainEvents()
	return tx
}

func newTestCallbackService(gw payment.Gateway, txRepo *mockTransactionRepository, invoiceRepo *mockInvoiceRepository, store *mockIdempotencyStore) *CallbackService {
	return NewCallbackService(CallbackServiceConfig{
		Gateways:        []payment.Gateway{gw},
		TransactionRepo: txRepo,
		InvoiceRepo:     invoiceRepo,
		Idempotency:     store,
	})
}

func TestProcessCallback_Approved(t *testing.T) {
	t.Run("completes the transaction and applies the payment", func(t *testing.T) {
		gw := &mockGateway{gatewayType: payment.GatewayTypeWompi}
		txRepo := new(mockTransactionRepository)
		invoiceRepo := new(mockInvoiceRepository)
		store := new(mockIdempotencyStore)

		tenantID := uuid.New()
		invoice := createTestInvoice(t, tenantID, "350000")
		tx := createProcessingTransaction(t, tenantID, invoice.ID, invoice.PropertyID, "350000", "wompi-9001")

		notification := &payment.Notification{
			GatewayType:      payment.GatewayTypeWompi,
			GatewayReference: "wompi-9001",
			Reference:        tx.ID.String(),
			Status:           payment.GatewayStatusApproved,
		}

		gw.On("VerifyNotification", mock.Anything, mock.Anything, "sig").Return(notification, nil)
		store.On("MarkProcessed", mock.Anything, "payment:callback:WOMPI:wompi-9001", mock.Anything).Return(true, nil)
		txRepo.On("FindByGatewayReference", mock.Anything, tenantID, "wompi-9001").Return(tx, nil)
		invoiceRepo.On("FindByIDForTenant", mock.Anything, tenantID, invoice.ID).Return(invoice, nil)
		txRepo.On("SaveWithLock", mock.Anything, tx).Return(nil)
		invoiceRepo.On("SaveWithLock", mock.Anything, invoice).Return(nil)

		service := newTestCallbackService(gw, txRepo, invoiceRepo, store)

		result, err := service.ProcessCallback(context.Background(), tenantID, payment.GatewayTypeWompi, []byte("{}"), "sig")

		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.False(t, result.AlreadyProcessed)
		assert.Equal(t, []byte("OK"), result.GatewayResponse)
		assert.Equal(t, payment.TransactionStatusCompleted, tx.Status)
		assert.Equal(t, billing.InvoiceStatusPaid, invoice.Status)
		store.AssertNotCalled(t, "Unmark", mock.Anything, mock.Anything)
	})
}

func TestProcessCallback_Duplicate(t *testing.T) {
	t.Run("acknowledges a repeated delivery without reprocessing", func(t *testing.T) {
		gw := &mockGateway{gatewayType: payment.GatewayTypeWompi}
		txRepo := new(mockTransactionRepository)
		store := new(mockIdempotencyStore)

		notification := &payment.Notification{
			GatewayType:      payment.GatewayTypeWompi,
			GatewayReference: "wompi-9001",
			Status:           payment.GatewayStatusApproved,
		}

		gw.On("VerifyNotification", mock.Anything, mock.Anything, "sig").Return(notification, nil)
		store.On("MarkProcessed", mock.Anything, "payment:callback:WOMPI:wompi-9001", mock.Anything).Return(false, nil)

		service := newTestCallbackService(gw, txRepo, new(mockInvoiceRepository), store)

		result, err := service.ProcessCallback(context.Background(), uuid.New(), payment.GatewayTypeWompi, []byte("{}"), "sig")

		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.True(t, result.AlreadyProcessed)
		txRepo.AssertNotCalled(t, "FindByGatewayReference", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestProcessCallback_Declined(t *testing.T) {
	t.Run("fails the transaction with the gateway's reason", func(t *testing.T) {
		gw := &mockGateway{gatewayType: payment.GatewayTypePayU}
		txRepo := new(mockTransactionRepository)
		store := new(mockIdempotencyStore)

		tenantID := uuid.New()
		tx := createProcessingTransaction(t, tenantID, uuid.New(), uuid.New(), "350000", "payu-1")

		notification := &payment.Notification{
			GatewayType:      payment.GatewayTypePayU,
			GatewayReference: "payu-1",
			Status:           payment.GatewayStatusDeclined,
			FailureReason:    "insufficient funds",
		}

		gw.On("VerifyNotification", mock.Anything, mock.Anything, "sig").Return(notification, nil)
		store.On("MarkProcessed", mock.Anything, mock.Anything, mock.Anything).Return(true, nil)
		txRepo.On("FindByGatewayReference", mock.Anything, tenantID, "payu-1").Return(tx, nil)
		txRepo.On("SaveWithLock", mock.Anything, tx).Return(nil)

		service := newTestCallbackService(gw, txRepo, new(mockInvoiceRepository), store)

		result, err := service.ProcessCallback(context.Background(), tenantID, payment.GatewayTypePayU, []byte("{}"), "sig")

		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.Equal(t, payment.TransactionStatusFailed, tx.Status)
		assert.Equal(t, "insufficient funds", tx.FailureReason)
	})
}

func TestProcessCallback_Failures(t *testing.T) {
	t.Run("rejects an unknown gateway", func(t *testing.T) {
		gw := &mockGateway{gatewayType: payment.GatewayTypeWompi}
		service := newTestCallbackService(gw, new(mockTransactionRepository),
			new(mockInvoiceRepository), new(mockIdempotencyStore))

		_, err := service.ProcessCallback(context.Background(), uuid.New(), payment.GatewayTypePayU, []byte("{}"), "sig")

		assert.ErrorIs(t, err, payment.ErrGatewayNotConfigured)
	})

	t.Run("rejects an invalid signature", func(t *testing.T) {
		gw := &mockGateway{gatewayType: payment.GatewayTypeWompi}
		store := new(mockIdempotencyStore)

		gw.On("VerifyNotification", mock.Anything, mock.Anything, "bad").Return(nil, payment.ErrGatewayInvalidCallback)

		service := newTestCallbackService(gw, new(mockTransactionRepository),
			new(mockInvoiceRepository), store)

		result, err := service.ProcessCallback(context.Background(), uuid.New(), payment.GatewayTypeWompi, []byte("{}"), "bad")

		require.Error(t, err)
		assert.False(t, result.Success)
		assert.Equal(t, []byte("FAIL"), result.GatewayResponse)
		store.AssertNotCalled(t, "MarkProcessed", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("releases the idempotency key when processing fails", func(t *testing.T) {
		gw := &mockGateway{gatewayType: payment.GatewayTypeWompi}
		txRepo := new(mockTransactionRepository)
		store := new(mockIdempotencyStore)

		tenantID := uuid.New()
		notification := &payment.Notification{
			GatewayType:      payment.GatewayTypeWompi,
			GatewayReference: "wompi-9001",
			Status:           payment.GatewayStatusApproved,
		}

		gw.On("VerifyNotification", mock.Anything, mock.Anything, "sig").Return(notification, nil)
		store.On("MarkProcessed", mock.Anything, "payment:callback:WOMPI:wompi-9001", mock.Anything).Return(true, nil)
		txRepo.On("FindByGatewayReference", mock.Anything, tenantID, "wompi-9001").Return(nil, errors.New("connection reset"))
		store.On("Unmark", mock.Anything, "payment:callback:WOMPI:wompi-9001").Return(nil)

		service := newTestCallbackService(gw, txRepo, new(mockInvoiceRepository), store)

		result, err := service.ProcessCallback(context.Background(), tenantID, payment.GatewayTypeWompi, []byte("{}"), "sig")

		require.Error(t, err)
		assert.False(t, result.Success)
		store.AssertExpectations(t)
	})

	t.Run("ignores a non-final status", func(t *testing.T) {
		gw := &mockGateway{gatewayType: payment.GatewayTypeWompi}
		txRepo := new(mockTransactionRepository)
		store := new(mockIdempotencyStore)

		notification := &payment.Notification{
			GatewayType:      payment.GatewayTypeWompi,
			GatewayReference: "wompi-9001",
			Status:           payment.GatewayStatusPending,
		}

		gw.On("VerifyNotification", mock.Anything, mock.Anything, "sig").Return(notification, nil)
		store.On("MarkProcessed", mock.Anything, mock.Anything, mock.Anything).Return(true, nil)

		service := newTestCallbackService(gw, txRepo, new(mockInvoiceRepository), store)

		result, err := service.ProcessCallback(context.Background(), uuid.New(), payment.GatewayTypeWompi, []byte("{}"), "sig")

		require.NoError(t, err)
		assert.True(t, result.Success)
		txRepo.AssertNotCalled(t, "FindByGatewayReference", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("does nothing when the transaction already settled", func(t *testing.T) {
		gw := &mockGateway{gatewayType: payment.GatewayTypeWompi}
		txRepo := new(mockTransactionRepository)
		store := new(mockIdempotencyStore)

		tenantID := uuid.New()
		tx := createCompletedTransaction(t, tenantID, uuid.New(), uuid.New(), "350000")

		notification := &payment.Notification{
			GatewayType:      payment.GatewayTypeWompi,
			GatewayReference: "wompi-ref-1",
			Status:           payment.GatewayStatusApproved,
		}

		gw.On("VerifyNotification", mock.Anything, mock.Anything, "sig").Return(notification, nil)
		store.On("MarkProcessed", mock.Anything, mock.Anything, mock.Anything).Return(true, nil)
		txRepo.On("FindByGatewayReference", mock.Anything, tenantID, "wompi-ref-1").Return(tx, nil)

		service := newTestCallbackService(gw, txRepo, new(mockInvoiceRepository), store)

		result, err := service.ProcessCallback(context.Background(), tenantID, payment.GatewayTypeWompi, []byte("{}"), "sig")

		require.NoError(t, err)
		assert.True(t, result.Success)
		txRepo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})
}
