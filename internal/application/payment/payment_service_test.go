package payment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/armonia/backend/internal/domain/billing"
	"github.com/armonia/backend/internal/domain/payment"
	"github.com/armonia/backend/internal/domain/property"
	"github.com/armonia/backend/internal/domain/shared"
	"github.com/armonia/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// Mock implementations

type mockTransactionRepository struct {
	mock.Mock
}

func (m *mockTransactionRepository) Save(ctx context.Context, tx *payment.Transaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *mockTransactionRepository) SaveWithLock(ctx context.Context, tx *payment.Transaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *mockTransactionRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*payment.Transaction, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Transaction), args.Error(1)
}

func (m *mockTransactionRepository) FindByGatewayReference(ctx context.Context, tenantID uuid.UUID, reference string) (*payment.Transaction, error) {
	args := m.Called(ctx, tenantID, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Transaction), args.Error(1)
}

func (m *mockTransactionRepository) List(ctx context.Context, tenantID uuid.UUID, filter payment.TransactionFilter) ([]*payment.Transaction, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*payment.Transaction), args.Get(1).(int64), args.Error(2)
}

func (m *mockTransactionRepository) SumCollectedBetween(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (decimal.Decimal, error) {
	args := m.Called(ctx, tenantID, from, to)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

type mockInvoiceRepository struct {
	mock.Mock
}

func (m *mockInvoiceRepository) Save(ctx context.Context, invoice *billing.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *mockInvoiceRepository) SaveWithLock(ctx context.Context, invoice *billing.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *mockInvoiceRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*billing.Invoice, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Invoice), args.Error(1)
}

func (m *mockInvoiceRepository) FindByPropertyAndPeriod(ctx context.Context, tenantID, propertyID uuid.UUID, period string) (*billing.Invoice, error) {
	args := m.Called(ctx, tenantID, propertyID, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Invoice), args.Error(1)
}

func (m *mockInvoiceRepository) List(ctx context.Context, tenantID uuid.UUID, filter billing.InvoiceFilter) ([]billing.Invoice, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]billing.Invoice), args.Get(1).(int64), args.Error(2)
}

func (m *mockInvoiceRepository) FindDueBefore(ctx context.Context, tenantID uuid.UUID, cutoff time.Time) ([]billing.Invoice, error) {
	args := m.Called(ctx, tenantID, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.Invoice), args.Error(1)
}

func (m *mockInvoiceRepository) FindOpen(ctx context.Context, tenantID uuid.UUID) ([]billing.Invoice, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]billing.Invoice), args.Error(1)
}

func (m *mockInvoiceRepository) SumBilledForPeriod(ctx context.Context, tenantID uuid.UUID, period string) (decimal.Decimal, error) {
	args := m.Called(ctx, tenantID, period)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *mockInvoiceRepository) SumOutstandingForPeriod(ctx context.Context, tenantID uuid.UUID, period string) (decimal.Decimal, error) {
	args := m.Called(ctx, tenantID, period)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

// Test fixtures

func createTestInvoice(t *testing.T, tenantID uuid.UUID, amount string) *billing.Invoice {
	t.Helper()
	period, err := billing.ParsePeriod("2025-03")
	require.NoError(t, err)
	item, err := billing.NewBillItem(uuid.New(), "Cuota de administracion",
		valueobject.NewMoneyCOP(decimal.RequireFromString(amount)))
	require.NoError(t, err)
	invoice, err := billing.NewInvoice(tenantID, uuid.New(), period, []billing.BillItem{*item})
	require.NoError(t, err)
	invoice.ClearDomainEvents()
	return invoice
}

func createCompletedTransaction(t *testing.T, tenantID, invoiceID, propertyID uuid.UUID, amount string) *payment.Transaction {
	t.Helper()
	tx, err := payment.NewTransaction(tenantID, invoiceID, propertyID,
		valueobject.NewMoneyCOP(decimal.RequireFromString(amount)), payment.PaymentMethodTransfer)
	require.NoError(t, err)
	require.NoError(t, tx.StartProcessing("WOMPI", "wompi-ref-1"))
	require.NoError(t, tx.Complete(time.Now()))
	tx.ClearDomainEvents()
	return tx
}

func newTestPaymentService(txRepo *mockTransactionRepository, invoiceRepo *mockInvoiceRepository) *PaymentService {
	return NewPaymentService(PaymentServiceConfig{
		TransactionRepo: txRepo,
		InvoiceRepo:     invoiceRepo,
	})
}

func TestProcessPayment(t *testing.T) {
	t.Run("settles the invoice when the payment covers the remaining amount", func(t *testing.T) {
		txRepo := new(mockTransactionRepository)
		invoiceRepo := new(mockInvoiceRepository)

		tenantID := uuid.New()
		invoice := createTestInvoice(t, tenantID, "350000")

		invoiceRepo.On("FindByIDForTenant", mock.Anything, tenantID, invoice.ID).Return(invoice, nil)
		txRepo.On("Save", mock.Anything, mock.Anything).Return(nil)
		invoiceRepo.On("SaveWithLock", mock.Anything, invoice).Return(nil)

		service := newTestPaymentService(txRepo, invoiceRepo)

		result, err := service.ProcessPayment(context.Background(), tenantID, uuid.New(), ProcessPaymentCommand{
			InvoiceID: invoice.ID,
			Amount:    decimal.RequireFromString("350000"),
			Method:    "TRANSFER",
		})

		require.NoError(t, err)
		assert.True(t, result.InvoiceSettled)
		assert.Equal(t, billing.InvoiceStatusPaid, result.InvoiceStatus)
		assert.Equal(t, payment.TransactionStatusCompleted, result.Transaction.Status)
		require.NotNil(t, invoice.PaidAt)
		txRepo.AssertExpectations(t)
		invoiceRepo.AssertExpectations(t)
	})

	t.Run("records a partial payment without settling", func(t *testing.T) {
		txRepo := new(mockTransactionRepository)
		invoiceRepo := new(mockInvoiceRepository)

		tenantID := uuid.New()
		invoice := createTestInvoice(t, tenantID, "350000")

		invoiceRepo.On("FindByIDForTenant", mock.Anything, tenantID, invoice.ID).Return(invoice, nil)
		txRepo.On("Save", mock.Anything, mock.Anything).Return(nil)
		invoiceRepo.On("SaveWithLock", mock.Anything, invoice).Return(nil)

		service := newTestPaymentService(txRepo, invoiceRepo)

		result, err := service.ProcessPayment(context.Background(), tenantID, uuid.New(), ProcessPaymentCommand{
			InvoiceID: invoice.ID,
			Amount:    decimal.RequireFromString("150000"),
			Method:    "CASH",
		})

		require.NoError(t, err)
		assert.False(t, result.InvoiceSettled)
		assert.Equal(t, billing.InvoiceStatusPartial, result.InvoiceStatus)
		assert.True(t, invoice.RemainingAmount().Equal(decimal.RequireFromString("200000")))
	})

	t.Run("returns not found for a missing or foreign invoice", func(t *testing.T) {
		txRepo := new(mockTransactionRepository)
		invoiceRepo := new(mockInvoiceRepository)

		tenantID := uuid.New()
		invoiceID := uuid.New()
		invoiceRepo.On("FindByIDForTenant", mock.Anything, tenantID, invoiceID).Return(nil, nil)

		service := newTestPaymentService(txRepo, invoiceRepo)

		_, err := service.ProcessPayment(context.Background(), tenantID, uuid.New(), ProcessPaymentCommand{
			InvoiceID: invoiceID,
			Amount:    decimal.RequireFromString("1000"),
			Method:    "CASH",
		})

		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("rejects payments against a paid invoice", func(t *testing.T) {
		txRepo := new(mockTransactionRepository)
		invoiceRepo := new(mockInvoiceRepository)

		tenantID := uuid.New()
		invoice := createTestInvoice(t, tenantID, "350000")
		_, err := invoice.ApplyPayment(valueobject.NewMoneyCOP(decimal.RequireFromString("350000")), time.Now())
		require.NoError(t, err)

		invoiceRepo.On("FindByIDForTenant", mock.Anything, tenantID, invoice.ID).Return(invoice, nil)

		service := newTestPaymentService(txRepo, invoiceRepo)

		_, err = service.ProcessPayment(context.Background(), tenantID, uuid.New(), ProcessPaymentCommand{
			InvoiceID: invoice.ID,
			Amount:    decimal.RequireFromString("1000"),
			Method:    "CASH",
		})

		require.Error(t, err)
		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, "BUSINESS_RULE_VIOLATION", domainErr.Code)
	})

	t.Run("returns the original transaction for a repeated gateway reference", func(t *testing.T) {
		txRepo := new(mockTransactionRepository)
		invoiceRepo := new(mockInvoiceRepository)

		tenantID := uuid.New()
		invoice := createTestInvoice(t, tenantID, "350000")
		original := createCompletedTransaction(t, tenantID, invoice.ID, invoice.PropertyID, "350000")

		invoiceRepo.On("FindByIDForTenant", mock.Anything, tenantID, invoice.ID).Return(invoice, nil)
		txRepo.On("FindByGatewayReference", mock.Anything, tenantID, "wompi-ref-1").Return(original, nil)

		service := newTestPaymentService(txRepo, invoiceRepo)

		result, err := service.ProcessPayment(context.Background(), tenantID, uuid.New(), ProcessPaymentCommand{
			InvoiceID:        invoice.ID,
			Amount:           decimal.RequireFromString("350000"),
			Method:           "GATEWAY",
			GatewayReference: "wompi-ref-1",
		})

		require.NoError(t, err)
		assert.True(t, result.AlreadyProcessed)
		assert.Equal(t, original.ID, result.Transaction.ID)
		txRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})
}

func TestCancelPayment(t *testing.T) {
	t.Run("cancels a transaction still in processing", func(t *testing.T) {
		txRepo := new(mockTransactionRepository)
		tenantID := uuid.New()

		tx, err := payment.NewTransaction(tenantID, uuid.New(), uuid.New(),
			valueobject.NewMoneyCOP(decimal.RequireFromString("100000")), payment.PaymentMethodCash)
		require.NoError(t, err)

		txRepo.On("FindByIDForTenant", mock.Anything, tenantID, tx.ID).Return(tx, nil)
		txRepo.On("SaveWithLock", mock.Anything, tx).Return(nil)

		service := newTestPaymentService(txRepo, new(mockInvoiceRepository))

		require.NoError(t, service.CancelPayment(context.Background(), tenantID, Actor{ID: uuid.New()}, tx.ID))
		assert.Equal(t, payment.TransactionStatusCancelled, tx.Status)
	})

	t.Run("refuses to cancel a completed transaction", func(t *testing.T) {
		txRepo := new(mockTransactionRepository)
		tenantID := uuid.New()
		tx := createCompletedTransaction(t, tenantID, uuid.New(), uuid.New(), "100000")

		txRepo.On("FindByIDForTenant", mock.Anything, tenantID, tx.ID).Return(tx, nil)

		service := newTestPaymentService(txRepo, new(mockInvoiceRepository))

		err := service.CancelPayment(context.Background(), tenantID, Actor{ID: uuid.New()}, tx.ID)

		require.Error(t, err)
		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, "INVALID_STATE", domainErr.Code)
		assert.Equal(t, payment.TransactionStatusCompleted, tx.Status)
		txRepo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})
}

func TestRefundPayment(t *testing.T) {
	t.Run("reverses a completed payment with a compensating transaction", func(t *testing.T) {
		txRepo := new(mockTransactionRepository)
		invoiceRepo := new(mockInvoiceRepository)

		tenantID := uuid.New()
		invoice := createTestInvoice(t, tenantID, "350000")
		settled, err := invoice.ApplyPayment(valueobject.NewMoneyCOP(decimal.RequireFromString("350000")), time.Now())
		require.NoError(t, err)
		require.True(t, settled)

		tx := createCompletedTransaction(t, tenantID, invoice.ID, invoice.PropertyID, "350000")

		txRepo.On("FindByIDForTenant", mock.Anything, tenantID, tx.ID).Return(tx, nil)
		invoiceRepo.On("FindByIDForTenant", mock.Anything, tenantID, invoice.ID).Return(invoice, nil)
		txRepo.On("Save", mock.Anything, mock.Anything).Return(nil)
		txRepo.On("SaveWithLock", mock.Anything, tx).Return(nil)
		invoiceRepo.On("SaveWithLock", mock.Anything, invoice).Return(nil)

		service := newTestPaymentService(txRepo, invoiceRepo)

		refund, err := service.RefundPayment(context.Background(), tenantID, uuid.New(), tx.ID)

		require.NoError(t, err)
		assert.True(t, refund.IsRefund())
		assert.Equal(t, tx.ID, *refund.RefundOfID)
		assert.True(t, refund.Amount.Equal(decimal.RequireFromString("-350000")))
		assert.Equal(t, payment.TransactionStatusRefunded, tx.Status)
		assert.Equal(t, billing.InvoiceStatusPending, invoice.Status)
		assert.Nil(t, invoice.PaidAt)
	})

	t.Run("rejects refunds of pending transactions", func(t *testing.T) {
		txRepo := new(mockTransactionRepository)
		tenantID := uuid.New()

		tx, err := payment.NewTransaction(tenantID, uuid.New(), uuid.New(),
			valueobject.NewMoneyCOP(decimal.RequireFromString("100000")), payment.PaymentMethodCash)
		require.NoError(t, err)

		txRepo.On("FindByIDForTenant", mock.Anything, tenantID, tx.ID).Return(tx, nil)

		service := newTestPaymentService(txRepo, new(mockInvoiceRepository))

		_, err = service.RefundPayment(context.Background(), tenantID, uuid.New(), tx.ID)

		require.Error(t, err)
		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, "INVALID_STATE", domainErr.Code)
	})
}

func TestUpdatePayment(t *testing.T) {
	t.Run("edits a pending transaction", func(t *testing.T) {
		txRepo := new(mockTransactionRepository)
		tenantID := uuid.New()

		tx, err := payment.NewTransaction(tenantID, uuid.New(), uuid.New(),
			valueobject.NewMoneyCOP(decimal.RequireFromString("100000")), payment.PaymentMethodCash)
		require.NoError(t, err)

		txRepo.On("FindByIDForTenant", mock.Anything, tenantID, tx.ID).Return(tx, nil)
		txRepo.On("SaveWithLock", mock.Anything, tx).Return(nil)

		service := newTestPaymentService(txRepo, new(mockInvoiceRepository))

		updated, err := service.UpdatePayment(context.Background(), tenantID, tx.ID, UpdatePaymentCommand{
			Method: "TRANSFER",
			Notes:  "consignacion bancolombia",
		})

		require.NoError(t, err)
		assert.Equal(t, payment.PaymentMethodTransfer, updated.Method)
		assert.Equal(t, "consignacion bancolombia", updated.Notes)
	})
}

func TestUpdatePaymentStatus(t *testing.T) {
	t.Run("confirming a transaction settles the invoice", func(t *testing.T) {
		txRepo := new(mockTransactionRepository)
		invoiceRepo := new(mockInvoiceRepository)

		tenantID := uuid.New()
		invoice := createTestInvoice(t, tenantID, "350000")

		tx, err := payment.NewTransaction(tenantID, invoice.ID, invoice.PropertyID,
			valueobject.NewMoneyCOP(decimal.RequireFromString("350000")), payment.PaymentMethodGateway)
		require.NoError(t, err)
		require.NoError(t, tx.StartProcessing("PAYU", "payu-555"))

		txRepo.On("FindByIDForTenant", mock.Anything, tenantID, tx.ID).Return(tx, nil)
		invoiceRepo.On("FindByIDForTenant", mock.Anything, tenantID, invoice.ID).Return(invoice, nil)
		txRepo.On("SaveWithLock", mock.Anything, tx).Return(nil)
		invoiceRepo.On("SaveWithLock", mock.Anything, invoice).Return(nil)

		service := newTestPaymentService(txRepo, invoiceRepo)

		updated, err := service.UpdatePaymentStatus(context.Background(), tenantID, uuid.New(), tx.ID, UpdatePaymentStatusCommand{
			Status: "COMPLETED",
		})

		require.NoError(t, err)
		assert.Equal(t, payment.TransactionStatusCompleted, updated.Status)
		assert.Equal(t, billing.InvoiceStatusPaid, invoice.Status)
		require.NotNil(t, invoice.PaidAt)
	})

	t.Run("confirming a pending transaction passes through processing", func(t *testing.T) {
		txRepo := new(mockTransactionRepository)
		invoiceRepo := new(mockInvoiceRepository)

		tenantID := uuid.New()
		invoice := createTestInvoice(t, tenantID, "100000")

		tx, err := payment.NewTransaction(tenantID, invoice.ID, invoice.PropertyID,
			valueobject.NewMoneyCOP(decimal.RequireFromString("100000")), payment.PaymentMethodTransfer)
		require.NoError(t, err)

		txRepo.On("FindByIDForTenant", mock.Anything, tenantID, tx.ID).Return(tx, nil)
		invoiceRepo.On("FindByIDForTenant", mock.Anything, tenantID, invoice.ID).Return(invoice, nil)
		txRepo.On("SaveWithLock", mock.Anything, tx).Return(nil)
		invoiceRepo.On("SaveWithLock", mock.Anything, invoice).Return(nil)

		updated, err := newTestPaymentService(txRepo, invoiceRepo).
			UpdatePaymentStatus(context.Background(), tenantID, uuid.New(), tx.ID, UpdatePaymentStatusCommand{
				Status:           "COMPLETED",
				GatewayReference: "manual-2026-01",
			})

		require.NoError(t, err)
		assert.Equal(t, payment.TransactionStatusCompleted, updated.Status)
		assert.Equal(t, "manual-2026-01", updated.GatewayReference)
	})

	t.Run("rejects moving a completed transaction anywhere but refunded", func(t *testing.T) {
		txRepo := new(mockTransactionRepository)
		tenantID := uuid.New()
		tx := createCompletedTransaction(t, tenantID, uuid.New(), uuid.New(), "100000")

		txRepo.On("FindByIDForTenant", mock.Anything, tenantID, tx.ID).Return(tx, nil)

		_, err := newTestPaymentService(txRepo, new(mockInvoiceRepository)).
			UpdatePaymentStatus(context.Background(), tenantID, uuid.New(), tx.ID, UpdatePaymentStatusCommand{
				Status: "CANCELLED",
			})

		require.Error(t, err)
		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, "BUSINESS_RULE_VIOLATION", domainErr.Code)
		assert.Equal(t, payment.TransactionStatusCompleted, tx.Status)
		txRepo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})

	t.Run("a repeated callback with the same reference and status is a no-op", func(t *testing.T) {
		txRepo := new(mockTransactionRepository)
		tenantID := uuid.New()
		tx := createCompletedTransaction(t, tenantID, uuid.New(), uuid.New(), "100000")

		txRepo.On("FindByIDForTenant", mock.Anything, tenantID, tx.ID).Return(tx, nil)

		updated, err := newTestPaymentService(txRepo, new(mockInvoiceRepository)).
			UpdatePaymentStatus(context.Background(), tenantID, uuid.New(), tx.ID, UpdatePaymentStatusCommand{
				Status:           "COMPLETED",
				GatewayReference: "wompi-ref-1",
			})

		require.NoError(t, err)
		assert.Equal(t, tx.ID, updated.ID)
		txRepo.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
	})

	t.Run("marks a transaction as failed with the gateway error message", func(t *testing.T) {
		txRepo := new(mockTransactionRepository)
		tenantID := uuid.New()

		tx, err := payment.NewTransaction(tenantID, uuid.New(), uuid.New(),
			valueobject.NewMoneyCOP(decimal.RequireFromString("100000")), payment.PaymentMethodGateway)
		require.NoError(t, err)
		require.NoError(t, tx.StartProcessing("WOMPI", "wompi-9"))

		txRepo.On("FindByIDForTenant", mock.Anything, tenantID, tx.ID).Return(tx, nil)
		txRepo.On("SaveWithLock", mock.Anything, tx).Return(nil)

		updated, err := newTestPaymentService(txRepo, new(mockInvoiceRepository)).
			UpdatePaymentStatus(context.Background(), tenantID, uuid.New(), tx.ID, UpdatePaymentStatusCommand{
				Status:       "FAILED",
				ErrorMessage: "insufficient funds",
			})

		require.NoError(t, err)
		assert.Equal(t, payment.TransactionStatusFailed, updated.Status)
		assert.Equal(t, "insufficient funds", updated.FailureReason)
	})

	t.Run("rejects an unknown status", func(t *testing.T) {
		txRepo := new(mockTransactionRepository)
		tenantID := uuid.New()

		_, err := newTestPaymentService(txRepo, new(mockInvoiceRepository)).
			UpdatePaymentStatus(context.Background(), tenantID, uuid.New(), uuid.New(), UpdatePaymentStatusCommand{
				Status: "SETTLED",
			})

		require.Error(t, err)
		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, "INVALID_STATUS", domainErr.Code)
		txRepo.AssertNotCalled(t, "FindByIDForTenant", mock.Anything, mock.Anything, mock.Anything)
	})
}

type mockPropertyRepository struct {
	mock.Mock
}

func (m *mockPropertyRepository) Save(ctx context.Context, p *property.Property) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *mockPropertyRepository) SaveWithLock(ctx context.Context, p *property.Property) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *mockPropertyRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*property.Property, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*property.Property), args.Error(1)
}

func (m *mockPropertyRepository) FindByUnitNumber(ctx context.Context, tenantID uuid.UUID, unitNumber string) (*property.Property, error) {
	args := m.Called(ctx, tenantID, unitNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*property.Property), args.Error(1)
}

func (m *mockPropertyRepository) FindActiveByTenant(ctx context.Context, tenantID uuid.UUID) ([]*property.Property, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*property.Property), args.Error(1)
}

func (m *mockPropertyRepository) List(ctx context.Context, tenantID uuid.UUID, filter property.PropertyFilter) ([]*property.Property, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*property.Property), args.Get(1).(int64), args.Error(2)
}

func (m *mockPropertyRepository) Count(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).(int64), args.Error(1)
}

func createOwnedProperty(t *testing.T, tenantID, ownerID uuid.UUID) *property.Property {
	t.Helper()
	prop, err := property.NewProperty(tenantID, "T1-101", property.PropertyTypeApartment,
		decimal.RequireFromString("80"), "Laura Gomez", "laura@example.com")
	require.NoError(t, err)
	require.NoError(t, prop.UpdateOwner("Laura Gomez", "laura@example.com", &ownerID))
	prop.ClearDomainEvents()
	return prop
}

func TestResidentScoping(t *testing.T) {
	t.Run("a resident sees payments on their own property", func(t *testing.T) {
		txRepo := new(mockTransactionRepository)
		propertyRepo := new(mockPropertyRepository)

		tenantID := uuid.New()
		residentID := uuid.New()
		prop := createOwnedProperty(t, tenantID, residentID)

		tx, err := payment.NewTransaction(tenantID, uuid.New(), prop.ID,
			valueobject.NewMoneyCOP(decimal.RequireFromString("100000")), payment.PaymentMethodCash)
		require.NoError(t, err)

		txRepo.On("FindByIDForTenant", mock.Anything, tenantID, tx.ID).Return(tx, nil)
		propertyRepo.On("FindByIDForTenant", mock.Anything, tenantID, prop.ID).Return(prop, nil)

		service := NewPaymentService(PaymentServiceConfig{
			TransactionRepo: txRepo,
			PropertyRepo:    propertyRepo,
		})

		got, err := service.GetPaymentForActor(context.Background(), tenantID,
			Actor{ID: residentID, OwnerOnly: true}, tx.ID)

		require.NoError(t, err)
		assert.Equal(t, tx.ID, got.ID)
	})

	t.Run("a payment on someone else's property is not found", func(t *testing.T) {
		txRepo := new(mockTransactionRepository)
		propertyRepo := new(mockPropertyRepository)

		tenantID := uuid.New()
		prop := createOwnedProperty(t, tenantID, uuid.New())

		tx, err := payment.NewTransaction(tenantID, uuid.New(), prop.ID,
			valueobject.NewMoneyCOP(decimal.RequireFromString("100000")), payment.PaymentMethodCash)
		require.NoError(t, err)

		txRepo.On("FindByIDForTenant", mock.Anything, tenantID, tx.ID).Return(tx, nil)
		propertyRepo.On("FindByIDForTenant", mock.Anything, tenantID, prop.ID).Return(prop, nil)

		service := NewPaymentService(PaymentServiceConfig{
			TransactionRepo: txRepo,
			PropertyRepo:    propertyRepo,
		})

		_, err = service.GetPaymentForActor(context.Background(), tenantID,
			Actor{ID: uuid.New(), OwnerOnly: true}, tx.ID)

		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("a resident can cancel their own pending payment", func(t *testing.T) {
		txRepo := new(mockTransactionRepository)
		propertyRepo := new(mockPropertyRepository)

		tenantID := uuid.New()
		residentID := uuid.New()
		prop := createOwnedProperty(t, tenantID, residentID)

		tx, err := payment.NewTransaction(tenantID, uuid.New(), prop.ID,
			valueobject.NewMoneyCOP(decimal.RequireFromString("100000")), payment.PaymentMethodCash)
		require.NoError(t, err)

		txRepo.On("FindByIDForTenant", mock.Anything, tenantID, tx.ID).Return(tx, nil)
		propertyRepo.On("FindByIDForTenant", mock.Anything, tenantID, prop.ID).Return(prop, nil)
		txRepo.On("SaveWithLock", mock.Anything, tx).Return(nil)

		service := NewPaymentService(PaymentServiceConfig{
			TransactionRepo: txRepo,
			PropertyRepo:    propertyRepo,
		})

		err = service.CancelPayment(context.Background(), tenantID,
			Actor{ID: residentID, OwnerOnly: true}, tx.ID)

		require.NoError(t, err)
		assert.Equal(t, payment.TransactionStatusCancelled, tx.Status)
	})
}
