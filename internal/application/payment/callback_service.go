package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/armonia/backend/internal/domain/activity"
	"github.com/armonia/backend/internal/domain/billing"
	"github.com/armonia/backend/internal/domain/payment"
	"github.com/armonia/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CallbackService processes asynchronous payment notifications from
// external gateways (PayU, Wompi)
type CallbackService struct {
	gateways       map[payment.GatewayType]payment.Gateway
	txRepo         payment.TransactionRepository
	invoiceRepo    billing.InvoiceRepository
	activityRepo   activity.Repository
	idempotency    shared.IdempotencyStore
	idempotencyTTL time.Duration
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// CallbackServiceConfig holds dependencies for the callback service
type CallbackServiceConfig struct {
	Gateways        []payment.Gateway
	TransactionRepo payment.TransactionRepository
	InvoiceRepo     billing.InvoiceRepository
	ActivityRepo    activity.Repository
	Idempotency     shared.IdempotencyStore
	IdempotencyTTL  time.Duration
	EventPublisher  shared.EventPublisher
	Logger          *zap.Logger
}

// NewCallbackService creates a new CallbackService
func NewCallbackService(config CallbackServiceConfig) *CallbackService {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	ttl := config.IdempotencyTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	gateways := make(map[payment.GatewayType]payment.Gateway, len(config.Gateways))
	for _, gw := range config.Gateways {
		gateways[gw.GatewayType()] = gw
	}
	return &CallbackService{
		gateways:       gateways,
		txRepo:         config.TransactionRepo,
		invoiceRepo:    config.InvoiceRepo,
		activityRepo:   config.ActivityRepo,
		idempotency:    config.Idempotency,
		idempotencyTTL: ttl,
		eventPublisher: config.EventPublisher,
		logger:         logger,
	}
}

// CallbackResult reports how a gateway notification was handled
type CallbackResult struct {
	Success          bool   `json:"success"`
	AlreadyProcessed bool   `json:"already_processed"`
	GatewayResponse  []byte `json:"-"`
}

// ProcessCallback verifies and applies one gateway notification. Repeated
// deliveries of the same notification are acknowledged without touching
// the transaction twice.
func (s *CallbackService) ProcessCallback(ctx context.Context, tenantID uuid.UUID, gatewayType payment.GatewayType, payload []byte, signature string) (*CallbackResult, error) {
	gateway, ok := s.gateways[gatewayType]
	if !ok {
		return nil, payment.ErrGatewayNotConfigured
	}

	notification, err := gateway.VerifyNotification(ctx, payload, signature)
	if err != nil {
		s.logger.Warn("Gateway notification verification failed",
			zap.String("gateway", gatewayType.String()),
			zap.Error(err))
		return &CallbackResult{
			Success:         false,
			GatewayResponse: gateway.AcknowledgeResponse(false),
		}, err
	}

	s.logger.Info("Gateway notification received",
		zap.String("gateway", gatewayType.String()),
		zap.String("gateway_reference", notification.GatewayReference),
		zap.String("status", string(notification.Status)))

	idempotencyKey := fmt.Sprintf("payment:callback:%s:%s", gatewayType, notification.GatewayReference)

	fresh, err := s.idempotency.MarkProcessed(ctx, idempotencyKey, s.idempotencyTTL)
	if err != nil {
		return nil, fmt.Errorf("idempotency check failed: %w", err)
	}
	if !fresh {
		s.logger.Info("Duplicate gateway notification ignored",
			zap.String("gateway_reference", notification.GatewayReference))
		return &CallbackResult{
			Success:          true,
			AlreadyProcessed: true,
			GatewayResponse:  gateway.AcknowledgeResponse(true),
		}, nil
	}

	if err := s.handleNotification(ctx, tenantID, notification); err != nil {
		// Release the key so the gateway's retry can be processed
		if unmarkErr := s.idempotency.Unmark(ctx, idempotencyKey); unmarkErr != nil {
			s.logger.Error("Failed to release idempotency key",
				zap.String("key", idempotencyKey),
				zap.Error(unmarkErr))
		}
		return &CallbackResult{
			Success:         false,
			GatewayResponse: gateway.AcknowledgeResponse(false),
		}, err
	}

	return &CallbackResult{
		Success:         true,
		GatewayResponse: gateway.AcknowledgeResponse(true),
	}, nil
}

// handleNotification applies the final gateway status to the transaction
func (s *CallbackService) handleNotification(ctx context.Context, tenantID uuid.UUID, n *payment.Notification) error {
	if !n.Status.IsFinal() {
		s.logger.Info("Ignoring non-final gateway status",
			zap.String("gateway_reference", n.GatewayReference),
			zap.String("status", string(n.Status)))
		return nil
	}

	tx, err := s.txRepo.FindByGatewayReference(ctx, tenantID, n.GatewayReference)
	if err != nil {
		return err
	}
	if tx == nil {
		return shared.NewDomainError("NOT_FOUND",
			fmt.Sprintf("No transaction carries gateway reference %s", n.GatewayReference))
	}

	if tx.Status.IsTerminal() || tx.Status == payment.TransactionStatusCompleted {
		s.logger.Info("Transaction already settled, nothing to do",
			zap.String("transaction_id", tx.ID.String()),
			zap.String("status", tx.Status.String()))
		return nil
	}

	if n.Status.IsSuccess() {
		return s.completeTransaction(ctx, tx, n)
	}
	return s.failTransaction(ctx, tx, n)
}

func (s *CallbackService) completeTransaction(ctx context.Context, tx *payment.Transaction, n *payment.Notification) error {
	processedAt := time.Now()
	if n.ProcessedAt != nil {
		processedAt = *n.ProcessedAt
	}

	if err := tx.Complete(processedAt); err != nil {
		return err
	}

	invoice, err := s.invoiceRepo.FindByIDForTenant(ctx, tx.TenantID, tx.InvoiceID)
	if err != nil {
		return err
	}
	if invoice == nil {
		return shared.ErrNotFound
	}

	settled, err := invoice.ApplyPayment(tx.GetAmountMoney(), processedAt)
	if err != nil {
		return err
	}

	if err := s.txRepo.SaveWithLock(ctx, tx); err != nil {
		return err
	}
	if err := s.invoiceRepo.SaveWithLock(ctx, invoice); err != nil {
		return err
	}

	s.publishEvents(ctx, tx.GetDomainEvents())
	tx.ClearDomainEvents()
	s.publishEvents(ctx, invoice.GetDomainEvents())
	invoice.ClearDomainEvents()

	s.logger.Info("Gateway payment confirmed",
		zap.String("transaction_id", tx.ID.String()),
		zap.String("invoice_id", invoice.ID.String()),
		zap.Bool("settled", settled))

	s.recordActivity(ctx, tx.TenantID, tx.ID,
		fmt.Sprintf("Gateway %s confirmed payment %s", tx.GatewayName, n.GatewayReference))

	return nil
}

func (s *CallbackService) failTransaction(ctx context.Context, tx *payment.Transaction, n *payment.Notification) error {
	reason := n.FailureReason
	if reason == "" {
		reason = fmt.Sprintf("gateway returned %s", n.Status)
	}

	if err := tx.Fail(reason); err != nil {
		return err
	}

	if err := s.txRepo.SaveWithLock(ctx, tx); err != nil {
		return err
	}

	s.publishEvents(ctx, tx.GetDomainEvents())
	tx.ClearDomainEvents()

	s.logger.Info("Gateway payment declined",
		zap.String("transaction_id", tx.ID.String()),
		zap.String("reason", reason))

	return nil
}

func (s *CallbackService) publishEvents(ctx context.Context, events []shared.DomainEvent) {
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish domain events", zap.Error(err))
	}
}

func (s *CallbackService) recordActivity(ctx context.Context, tenantID, entityID uuid.UUID, detail string) {
	if s.activityRepo == nil {
		return
	}
	entry, err := activity.NewEntry(tenantID, uuid.Nil, activity.ActionGatewayNotified, "Transaction", entityID, detail)
	if err != nil {
		return
	}
	if err := s.activityRepo.Append(ctx, entry); err != nil {
		s.logger.Warn("Failed to append activity entry", zap.Error(err))
	}
}
