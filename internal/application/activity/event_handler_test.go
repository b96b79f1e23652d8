package activity

import (
	"context"
	"errors"
	"testing"

	"github.com/armonia/backend/internal/domain/activity"
	"github.com/armonia/backend/internal/domain/billing"
	"github.com/armonia/backend/internal/domain/payment"
	"github.com/armonia/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAuditEventHandler_EventTypes(t *testing.T) {
	handler := NewAuditEventHandler(new(mockActivityRepository), nil)

	types := handler.EventTypes()

	assert.Contains(t, types, billing.EventTypeFeeDefinitionCreated)
	assert.Contains(t, types, billing.EventTypeInvoiceCancelled)
	assert.Contains(t, types, payment.EventTypeTransactionCompleted)
	assert.NotContains(t, types, billing.EventTypeInvoiceGenerated)
}

func TestAuditEventHandler_Handle(t *testing.T) {
	tenantID := uuid.New()
	invoiceID := uuid.New()

	t.Run("payment completed event appends entry", func(t *testing.T) {
		repo := new(mockActivityRepository)
		handler := NewAuditEventHandler(repo, nil)

		txID := uuid.New()
		event := &payment.TransactionCompletedEvent{
			BaseDomainEvent: shared.NewBaseDomainEvent(payment.EventTypeTransactionCompleted, "Transaction", txID, tenantID),
			InvoiceID:       invoiceID.String(),
			Amount:          decimal.NewFromInt(350000),
		}

		repo.On("Append", mock.Anything, mock.MatchedBy(func(entry *activity.Entry) bool {
			return entry.TenantID == tenantID &&
				entry.Action == activity.ActionPaymentCompleted &&
				entry.EntityType == "Transaction" &&
				entry.EntityID == txID
		})).Return(nil)

		err := handler.Handle(context.Background(), event)

		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("fee definition created event appends entry", func(t *testing.T) {
		repo := new(mockActivityRepository)
		handler := NewAuditEventHandler(repo, nil)

		event := &billing.FeeDefinitionCreatedEvent{
			BaseDomainEvent: shared.NewBaseDomainEvent(billing.EventTypeFeeDefinitionCreated, "FeeDefinition", uuid.New(), tenantID),
			Name:            "Administración",
			FeeType:         billing.FeeTypeFixed,
		}

		repo.On("Append", mock.Anything, mock.MatchedBy(func(entry *activity.Entry) bool {
			return entry.Action == activity.ActionFeeCreated &&
				entry.Detail != ""
		})).Return(nil)

		err := handler.Handle(context.Background(), event)

		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("invoice cancelled event appends entry", func(t *testing.T) {
		repo := new(mockActivityRepository)
		handler := NewAuditEventHandler(repo, nil)

		event := &billing.InvoiceCancelledEvent{
			BaseDomainEvent: shared.NewBaseDomainEvent(billing.EventTypeInvoiceCancelled, "Invoice", invoiceID, tenantID),
		}

		repo.On("Append", mock.Anything, mock.MatchedBy(func(entry *activity.Entry) bool {
			return entry.Action == activity.ActionInvoiceCancelled &&
				entry.EntityID == invoiceID
		})).Return(nil)

		err := handler.Handle(context.Background(), event)

		require.NoError(t, err)
		repo.AssertExpectations(t)
	})

	t.Run("unexpected event type returns error", func(t *testing.T) {
		repo := new(mockActivityRepository)
		handler := NewAuditEventHandler(repo, nil)

		event := &billing.InvoiceGeneratedEvent{
			BaseDomainEvent: shared.NewBaseDomainEvent(billing.EventTypeInvoiceGenerated, "Invoice", invoiceID, tenantID),
		}

		err := handler.Handle(context.Background(), event)

		require.Error(t, err)
		repo.AssertNotCalled(t, "Append")
	})

	t.Run("repository failure propagates", func(t *testing.T) {
		repo := new(mockActivityRepository)
		handler := NewAuditEventHandler(repo, nil)

		event := &payment.TransactionRefundedEvent{
			BaseDomainEvent: shared.NewBaseDomainEvent(payment.EventTypeTransactionRefunded, "Transaction", uuid.New(), tenantID),
			InvoiceID:       invoiceID.String(),
			Amount:          decimal.NewFromInt(120000),
		}

		repo.On("Append", mock.Anything, mock.Anything).Return(errors.New("database unavailable"))

		err := handler.Handle(context.Background(), event)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to append audit entry")
	})
}
