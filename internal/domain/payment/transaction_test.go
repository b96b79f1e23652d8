package payment

import (
	"errors"
	"testing"
	"time"

	"github.com/armonia/backend/internal/domain/shared"
	"github.com/armonia/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestTransaction(t *testing.T) *Transaction {
	t.Helper()
	tx, err := NewTransaction(
		uuid.New(),
		uuid.New(),
		uuid.New(),
		valueobject.NewMoneyCOP(decimal.NewFromInt(250000)),
		PaymentMethodTransfer,
	)
	require.NoError(t, err)
	return tx
}

func TestNewTransaction(t *testing.T) {
	tx := createTestTransaction(t)

	assert.Equal(t, TransactionStatusPending, tx.Status)
	assert.True(t, tx.Amount.Equal(decimal.NewFromInt(250000)))
	assert.Equal(t, valueobject.COP, tx.Currency)
	assert.False(t, tx.IsRefund())
	assert.Len(t, tx.GetDomainEvents(), 1)
}

func TestNewTransaction_Validation(t *testing.T) {
	tests := []struct {
		name       string
		invoiceID  uuid.UUID
		propertyID uuid.UUID
		amount     decimal.Decimal
		method     PaymentMethod
		wantCode   string
	}{
		{"missing invoice", uuid.Nil, uuid.New(), decimal.NewFromInt(100), PaymentMethodCash, "INVALID_INVOICE"},
		{"missing property", uuid.New(), uuid.Nil, decimal.NewFromInt(100), PaymentMethodCash, "INVALID_PROPERTY"},
		{"zero amount", uuid.New(), uuid.New(), decimal.Zero, PaymentMethodCash, "INVALID_AMOUNT"},
		{"negative amount", uuid.New(), uuid.New(), decimal.NewFromInt(-100), PaymentMethodCash, "INVALID_AMOUNT"},
		{"unknown method", uuid.New(), uuid.New(), decimal.NewFromInt(100), PaymentMethod("BARTER"), "INVALID_METHOD"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTransaction(uuid.New(), tt.invoiceID, tt.propertyID,
				valueobject.NewMoneyCOP(tt.amount), tt.method)
			require.Error(t, err)
			var domainErr *shared.DomainError
			require.True(t, errors.As(err, &domainErr))
			assert.Equal(t, tt.wantCode, domainErr.Code)
		})
	}
}

func TestTransaction_Lifecycle_Success(t *testing.T) {
	tx := createTestTransaction(t)
	processedAt := time.Now()

	require.NoError(t, tx.StartProcessing("WOMPI", "wompi-12345"))
	assert.Equal(t, TransactionStatusProcessing, tx.Status)
	assert.Equal(t, "wompi-12345", tx.GatewayReference)

	require.NoError(t, tx.Complete(processedAt))
	assert.Equal(t, TransactionStatusCompleted, tx.Status)
	require.NotNil(t, tx.ProcessedAt)
	assert.Equal(t, processedAt, *tx.ProcessedAt)
}

func TestTransaction_Lifecycle_Failure(t *testing.T) {
	tx := createTestTransaction(t)

	require.NoError(t, tx.StartProcessing("PAYU", "payu-9"))
	require.NoError(t, tx.Fail("insufficient funds"))

	assert.Equal(t, TransactionStatusFailed, tx.Status)
	assert.Equal(t, "insufficient funds", tx.FailureReason)
	assert.NotNil(t, tx.ProcessedAt)

	// Failed is terminal
	assert.Error(t, tx.Complete(time.Now()))
	assert.Error(t, tx.Cancel())
}

func TestTransaction_Cancel(t *testing.T) {
	t.Run("pending", func(t *testing.T) {
		tx := createTestTransaction(t)
		require.NoError(t, tx.Cancel())
		assert.Equal(t, TransactionStatusCancelled, tx.Status)
		assert.NotNil(t, tx.ProcessedAt)
	})

	t.Run("processing", func(t *testing.T) {
		tx := createTestTransaction(t)
		require.NoError(t, tx.StartProcessing("PAYU", "payu-1"))
		require.NoError(t, tx.Cancel())
		assert.Equal(t, TransactionStatusCancelled, tx.Status)
	})

	t.Run("completed cannot be cancelled", func(t *testing.T) {
		tx := createTestTransaction(t)
		require.NoError(t, tx.StartProcessing("PAYU", "payu-2"))
		require.NoError(t, tx.Complete(time.Now()))

		err := tx.Cancel()
		require.Error(t, err)
		var domainErr *shared.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.Equal(t, "INVALID_STATE", domainErr.Code)
		assert.Equal(t, TransactionStatusCompleted, tx.Status)
	})
}

func TestTransaction_InvalidTransitions(t *testing.T) {
	t.Run("complete from pending", func(t *testing.T) {
		tx := createTestTransaction(t)
		assert.Error(t, tx.Complete(time.Now()))
	})

	t.Run("fail from pending", func(t *testing.T) {
		tx := createTestTransaction(t)
		assert.Error(t, tx.Fail("declined"))
	})

	t.Run("refund from pending", func(t *testing.T) {
		tx := createTestTransaction(t)
		assert.Error(t, tx.MarkRefunded())
	})

	t.Run("start processing twice", func(t *testing.T) {
		tx := createTestTransaction(t)
		require.NoError(t, tx.StartProcessing("PAYU", "payu-3"))
		assert.Error(t, tx.StartProcessing("PAYU", "payu-3"))
	})
}

func TestTransaction_Refund(t *testing.T) {
	original := createTestTransaction(t)
	require.NoError(t, original.StartProcessing("WOMPI", "wompi-7"))
	require.NoError(t, original.Complete(time.Now()))

	refundedAt := time.Now()
	refund, err := NewRefundTransaction(original, refundedAt)
	require.NoError(t, err)

	assert.Equal(t, TransactionStatusCompleted, refund.Status)
	assert.True(t, refund.Amount.Equal(decimal.NewFromInt(-250000)))
	assert.True(t, refund.IsRefund())
	require.NotNil(t, refund.RefundOfID)
	assert.Equal(t, original.ID, *refund.RefundOfID)
	assert.Equal(t, original.InvoiceID, refund.InvoiceID)
	assert.Equal(t, original.TenantID, refund.TenantID)

	settledAt := *original.ProcessedAt
	require.NoError(t, original.MarkRefunded())
	assert.Equal(t, TransactionStatusRefunded, original.Status)
	// The original keeps its settlement time so period sums still net out
	require.NotNil(t, original.ProcessedAt)
	assert.Equal(t, settledAt, *original.ProcessedAt)

	// Refunded is terminal
	assert.Error(t, original.MarkRefunded())
}

func TestNewRefundTransaction_RequiresCompleted(t *testing.T) {
	tx := createTestTransaction(t)

	_, err := NewRefundTransaction(tx, time.Now())
	require.Error(t, err)
	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "INVALID_STATE", domainErr.Code)
}

func TestTransaction_UpdateDetails(t *testing.T) {
	tx := createTestTransaction(t)
	versionBefore := tx.Version

	require.NoError(t, tx.UpdateDetails(PaymentMethodCash, "paid at the office"))
	assert.Equal(t, PaymentMethodCash, tx.Method)
	assert.Equal(t, "paid at the office", tx.Notes)
	assert.Equal(t, versionBefore+1, tx.Version)

	require.NoError(t, tx.StartProcessing("PAYU", "payu-5"))
	require.NoError(t, tx.Complete(time.Now()))
	assert.Error(t, tx.UpdateDetails(PaymentMethodCard, "too late"))
}

func TestGatewayStatus(t *testing.T) {
	assert.True(t, GatewayStatusApproved.IsSuccess())
	assert.True(t, GatewayStatusApproved.IsFinal())
	assert.False(t, GatewayStatusPending.IsFinal())
	assert.False(t, GatewayStatusDeclined.IsSuccess())
	assert.True(t, GatewayStatusDeclined.IsFinal())
}
