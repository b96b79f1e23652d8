package activity

import (
	"context"
	"fmt"

	"github.com/armonia/backend/internal/domain/activity"
	"github.com/armonia/backend/internal/domain/billing"
	"github.com/armonia/backend/internal/domain/payment"
	"github.com/armonia/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AuditEventHandler appends audit entries for billing and payment
// lifecycle events. It runs as a bus subscriber so services do not
// have to write audit records inline.
type AuditEventHandler struct {
	activityRepo activity.Repository
	logger       *zap.Logger
}

// NewAuditEventHandler creates a new handler for auditable domain events
func NewAuditEventHandler(activityRepo activity.Repository, logger *zap.Logger) *AuditEventHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditEventHandler{
		activityRepo: activityRepo,
		logger:       logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *AuditEventHandler) EventTypes() []string {
	return []string{
		billing.EventTypeFeeDefinitionCreated,
		billing.EventTypeInvoiceCancelled,
		payment.EventTypeTransactionCreated,
		payment.EventTypeTransactionCompleted,
		payment.EventTypeTransactionCancelled,
		payment.EventTypeTransactionRefunded,
	}
}

// Handle translates a domain event into an append-only audit entry
func (h *AuditEventHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	var (
		action activity.Action
		detail string
	)

	switch e := event.(type) {
	case *billing.FeeDefinitionCreatedEvent:
		action = activity.ActionFeeCreated
		detail = fmt.Sprintf("Fee definition %q (%s) created", e.Name, e.FeeType)
	case *billing.InvoiceCancelledEvent:
		action = activity.ActionInvoiceCancelled
		detail = "Invoice voided"
	case *payment.TransactionCreatedEvent:
		action = activity.ActionPaymentRegistered
		detail = fmt.Sprintf("Payment of %s registered via %s for invoice %s", e.Amount.String(), e.Method, e.InvoiceID)
	case *payment.TransactionCompletedEvent:
		action = activity.ActionPaymentCompleted
		detail = fmt.Sprintf("Payment of %s completed for invoice %s", e.Amount.String(), e.InvoiceID)
	case *payment.TransactionCancelledEvent:
		action = activity.ActionPaymentCancelled
		detail = fmt.Sprintf("Payment attempt cancelled for invoice %s", e.InvoiceID)
	case *payment.TransactionRefundedEvent:
		action = activity.ActionPaymentRefunded
		detail = fmt.Sprintf("Payment of %s refunded for invoice %s", e.Amount.String(), e.InvoiceID)
	default:
		h.logger.Error("unexpected event type for audit handler",
			zap.String("event_type", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: %s", event.EventType())
	}

	entry, err := activity.NewEntry(event.TenantID(), uuid.Nil, action, event.AggregateType(), event.AggregateID(), detail)
	if err != nil {
		h.logger.Error("failed to build audit entry",
			zap.String("event_type", event.EventType()),
			zap.Error(err),
		)
		return fmt.Errorf("failed to build audit entry: %w", err)
	}

	if err := h.activityRepo.Append(ctx, entry); err != nil {
		h.logger.Error("failed to append audit entry",
			zap.String("event_type", event.EventType()),
			zap.String("entity_id", event.AggregateID().String()),
			zap.Error(err),
		)
		return fmt.Errorf("failed to append audit entry: %w", err)
	}

	h.logger.Debug("audit entry appended",
		zap.String("action", string(action)),
		zap.String("entity_id", event.AggregateID().String()),
	)
	return nil
}

// Ensure AuditEventHandler implements shared.EventHandler
var _ shared.EventHandler = (*AuditEventHandler)(nil)
