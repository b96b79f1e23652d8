package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/armonia/backend/internal/domain/activity"
	"github.com/armonia/backend/internal/domain/billing"
	"github.com/armonia/backend/internal/domain/payment"
	"github.com/armonia/backend/internal/domain/property"
	"github.com/armonia/backend/internal/domain/shared"
	"github.com/armonia/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PaymentService registers and manages payments against invoices
type PaymentService struct {
	txRepo         payment.TransactionRepository
	invoiceRepo    billing.InvoiceRepository
	propertyRepo   property.Repository
	activityRepo   activity.Repository
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// PaymentServiceConfig holds dependencies for the payment service
type PaymentServiceConfig struct {
	TransactionRepo payment.TransactionRepository
	InvoiceRepo     billing.InvoiceRepository
	PropertyRepo    property.Repository
	ActivityRepo    activity.Repository
	EventPublisher  shared.EventPublisher
	Logger          *zap.Logger
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(config PaymentServiceConfig) *PaymentService {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentService{
		txRepo:         config.TransactionRepo,
		invoiceRepo:    config.InvoiceRepo,
		propertyRepo:   config.PropertyRepo,
		activityRepo:   config.ActivityRepo,
		eventPublisher: config.EventPublisher,
		logger:         logger,
	}
}

// ProcessPaymentCommand carries the input for registering a payment
type ProcessPaymentCommand struct {
	InvoiceID        uuid.UUID
	Amount           decimal.Decimal
	Currency         string
	Method           string
	GatewayReference string
	Notes            string
}

// ProcessPaymentResult reports the outcome of a payment registration
type ProcessPaymentResult struct {
	Transaction      *payment.Transaction  `json:"transaction"`
	InvoiceStatus    billing.InvoiceStatus `json:"invoice_status"`
	InvoiceSettled   bool                  `json:"invoice_settled"`
	AlreadyProcessed bool                  `json:"already_processed"`
}

// ProcessPayment registers a payment against an invoice and applies it.
// A repeated gateway reference returns the original transaction instead
// of collecting twice.
func (s *PaymentService) ProcessPayment(ctx context.Context, tenantID, actorID uuid.UUID, cmd ProcessPaymentCommand) (*ProcessPaymentResult, error) {
	invoice, err := s.invoiceRepo.FindByIDForTenant(ctx, tenantID, cmd.InvoiceID)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, shared.ErrNotFound
	}
	if invoice.IsPaid() {
		return nil, shared.NewDomainError("BUSINESS_RULE_VIOLATION", "Invoice is already paid")
	}

	if cmd.GatewayReference != "" {
		existing, err := s.txRepo.FindByGatewayReference(ctx, tenantID, cmd.GatewayReference)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			s.logger.Info("Duplicate gateway reference, returning original transaction",
				zap.String("tenant_id", tenantID.String()),
				zap.String("gateway_reference", cmd.GatewayReference),
				zap.String("transaction_id", existing.ID.String()))
			return &ProcessPaymentResult{
				Transaction:      existing,
				InvoiceStatus:    invoice.Status,
				InvoiceSettled:   invoice.IsPaid(),
				AlreadyProcessed: true,
			}, nil
		}
	}

	currency := valueobject.Currency(cmd.Currency)
	if cmd.Currency == "" {
		currency = invoice.Currency
	}
	amount, err := valueobject.NewMoney(cmd.Amount, currency)
	if err != nil {
		return nil, err
	}

	tx, err := payment.NewTransaction(tenantID, invoice.ID, invoice.PropertyID, amount, payment.PaymentMethod(cmd.Method))
	if err != nil {
		return nil, err
	}
	if cmd.Notes != "" {
		tx.Notes = cmd.Notes
	}

	now := time.Now()
	if err := tx.StartProcessing("", cmd.GatewayReference); err != nil {
		return nil, err
	}
	if err := tx.Complete(now); err != nil {
		return nil, err
	}

	settled, err := invoice.ApplyPayment(amount, now)
	if err != nil {
		return nil, err
	}

	if err := s.txRepo.Save(ctx, tx); err != nil {
		return nil, err
	}
	if err := s.invoiceRepo.SaveWithLock(ctx, invoice); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, tx.GetDomainEvents())
	tx.ClearDomainEvents()
	s.publishEvents(ctx, invoice.GetDomainEvents())
	invoice.ClearDomainEvents()

	s.logger.Info("Payment processed",
		zap.String("tenant_id", tenantID.String()),
		zap.String("transaction_id", tx.ID.String()),
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("amount", amount.Amount().String()),
		zap.Bool("settled", settled))

	s.recordActivity(ctx, tenantID, actorID, activity.ActionPaymentCompleted, tx.ID,
		fmt.Sprintf("Payment of %s %s applied to invoice %s", amount.Amount(), amount.Currency(), invoice.ID))

	return &ProcessPaymentResult{
		Transaction:    tx,
		InvoiceStatus:  invoice.Status,
		InvoiceSettled: settled,
	}, nil
}

// Actor identifies who invokes a payment operation. OwnerOnly restricts
// the actor to transactions on properties they own, the resident view.
type Actor struct {
	ID        uuid.UUID
	OwnerOnly bool
}

// GetPayment loads a transaction scoped to the tenant
func (s *PaymentService) GetPayment(ctx context.Context, tenantID, paymentID uuid.UUID) (*payment.Transaction, error) {
	tx, err := s.txRepo.FindByIDForTenant(ctx, tenantID, paymentID)
	if err != nil {
		return nil, err
	}
	if tx == nil {
		return nil, shared.ErrNotFound
	}
	return tx, nil
}

// GetPaymentForActor loads a transaction the actor is allowed to see.
// A transaction on a property the resident does not own comes back as
// not found, never as someone else's data.
func (s *PaymentService) GetPaymentForActor(ctx context.Context, tenantID uuid.UUID, actor Actor, paymentID uuid.UUID) (*payment.Transaction, error) {
	tx, err := s.GetPayment(ctx, tenantID, paymentID)
	if err != nil {
		return nil, err
	}
	if !actor.OwnerOnly {
		return tx, nil
	}
	if s.propertyRepo == nil {
		return nil, shared.ErrNotFound
	}
	prop, err := s.propertyRepo.FindByIDForTenant(ctx, tenantID, tx.PropertyID)
	if err != nil {
		return nil, err
	}
	if prop == nil || prop.OwnerUserID == nil || *prop.OwnerUserID != actor.ID {
		return nil, shared.ErrNotFound
	}
	return tx, nil
}

// ListPayments returns transactions matching the filter
func (s *PaymentService) ListPayments(ctx context.Context, tenantID uuid.UUID, filter payment.TransactionFilter) ([]*payment.Transaction, int64, error) {
	return s.txRepo.List(ctx, tenantID, filter)
}

// UpdatePaymentCommand carries editable payment fields
type UpdatePaymentCommand struct {
	Method string
	Notes  string
}

// UpdatePayment changes details of a transaction that has not settled
func (s *PaymentService) UpdatePayment(ctx context.Context, tenantID, paymentID uuid.UUID, cmd UpdatePaymentCommand) (*payment.Transaction, error) {
	tx, err := s.GetPayment(ctx, tenantID, paymentID)
	if err != nil {
		return nil, err
	}

	if err := tx.UpdateDetails(payment.PaymentMethod(cmd.Method), cmd.Notes); err != nil {
		return nil, err
	}

	if err := s.txRepo.SaveWithLock(ctx, tx); err != nil {
		return nil, err
	}
	return tx, nil
}

// UpdatePaymentStatusCommand carries an administrative status transition,
// typically mirroring a gateway result entered by hand
type UpdatePaymentStatusCommand struct {
	Status           string
	GatewayReference string
	ErrorMessage     string
}

// UpdatePaymentStatus moves a transaction through its state machine on
// behalf of an administrator or a gateway reconciliation. A completed
// transaction only accepts REFUNDED; repeating a transition with the same
// gateway reference returns the transaction unchanged.
func (s *PaymentService) UpdatePaymentStatus(ctx context.Context, tenantID, actorID, paymentID uuid.UUID, cmd UpdatePaymentStatusCommand) (*payment.Transaction, error) {
	target := payment.TransactionStatus(cmd.Status)
	if !target.IsValid() {
		return nil, shared.NewDomainError("INVALID_STATUS",
			fmt.Sprintf("Unknown transaction status: %s", cmd.Status))
	}

	tx, err := s.GetPayment(ctx, tenantID, paymentID)
	if err != nil {
		return nil, err
	}

	// Duplicate gateway callback carrying the same reference and status
	if cmd.GatewayReference != "" && tx.GatewayReference == cmd.GatewayReference && tx.Status == target {
		s.logger.Info("Duplicate status update ignored",
			zap.String("transaction_id", tx.ID.String()),
			zap.String("gateway_reference", cmd.GatewayReference),
			zap.String("status", target.String()))
		return tx, nil
	}

	if tx.Status == payment.TransactionStatusCompleted && target != payment.TransactionStatusRefunded {
		return nil, shared.NewDomainError("BUSINESS_RULE_VIOLATION",
			"Completed transactions can only be refunded")
	}

	switch target {
	case payment.TransactionStatusProcessing:
		if err := tx.StartProcessing(tx.GatewayName, cmd.GatewayReference); err != nil {
			return nil, err
		}

	case payment.TransactionStatusCompleted:
		now := time.Now()
		if tx.Status == payment.TransactionStatusPending {
			if err := tx.StartProcessing(tx.GatewayName, cmd.GatewayReference); err != nil {
				return nil, err
			}
		}
		if err := tx.Complete(now); err != nil {
			return nil, err
		}
		invoice, err := s.invoiceRepo.FindByIDForTenant(ctx, tenantID, tx.InvoiceID)
		if err != nil {
			return nil, err
		}
		if invoice == nil {
			return nil, shared.ErrNotFound
		}
		settled, err := invoice.ApplyPayment(tx.GetAmountMoney(), now)
		if err != nil {
			return nil, err
		}
		if err := s.txRepo.SaveWithLock(ctx, tx); err != nil {
			return nil, err
		}
		if err := s.invoiceRepo.SaveWithLock(ctx, invoice); err != nil {
			return nil, err
		}
		s.publishEvents(ctx, tx.GetDomainEvents())
		tx.ClearDomainEvents()
		s.publishEvents(ctx, invoice.GetDomainEvents())
		invoice.ClearDomainEvents()
		s.recordActivity(ctx, tenantID, actorID, activity.ActionPaymentCompleted, tx.ID,
			fmt.Sprintf("Payment confirmed administratively, invoice settled: %t", settled))
		return tx, nil

	case payment.TransactionStatusFailed:
		if err := tx.Fail(cmd.ErrorMessage); err != nil {
			return nil, err
		}

	case payment.TransactionStatusCancelled:
		if err := tx.Cancel(); err != nil {
			return nil, err
		}

	case payment.TransactionStatusRefunded:
		if _, err := s.RefundPayment(ctx, tenantID, actorID, paymentID); err != nil {
			return nil, err
		}
		return s.GetPayment(ctx, tenantID, paymentID)

	default:
		return nil, shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Cannot move transaction back to %s", target))
	}

	if err := s.txRepo.SaveWithLock(ctx, tx); err != nil {
		return nil, err
	}
	s.publishEvents(ctx, tx.GetDomainEvents())
	tx.ClearDomainEvents()

	return tx, nil
}

// CancelPayment cancels a transaction that has not completed. Residents
// may only cancel payments on their own properties.
func (s *PaymentService) CancelPayment(ctx context.Context, tenantID uuid.UUID, actor Actor, paymentID uuid.UUID) error {
	tx, err := s.GetPaymentForActor(ctx, tenantID, actor, paymentID)
	if err != nil {
		return err
	}

	if err := tx.Cancel(); err != nil {
		return err
	}

	if err := s.txRepo.SaveWithLock(ctx, tx); err != nil {
		return err
	}

	s.publishEvents(ctx, tx.GetDomainEvents())
	tx.ClearDomainEvents()

	s.recordActivity(ctx, tenantID, actor.ID, activity.ActionPaymentCancelled, tx.ID,
		"Payment cancelled before completion")

	return nil
}

// RefundPayment reverses a completed payment. The rollback is recorded as
// a compensating transaction with a negated amount, and the money is put
// back on the invoice.
func (s *PaymentService) RefundPayment(ctx context.Context, tenantID, actorID, paymentID uuid.UUID) (*payment.Transaction, error) {
	tx, err := s.GetPayment(ctx, tenantID, paymentID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	refund, err := payment.NewRefundTransaction(tx, now)
	if err != nil {
		return nil, err
	}
	if err := tx.MarkRefunded(); err != nil {
		return nil, err
	}

	invoice, err := s.invoiceRepo.FindByIDForTenant(ctx, tenantID, tx.InvoiceID)
	if err != nil {
		return nil, err
	}
	if invoice == nil {
		return nil, shared.ErrNotFound
	}
	if err := invoice.ReversePayment(tx.GetAmountMoney()); err != nil {
		return nil, err
	}

	if err := s.txRepo.Save(ctx, refund); err != nil {
		return nil, err
	}
	if err := s.txRepo.SaveWithLock(ctx, tx); err != nil {
		return nil, err
	}
	if err := s.invoiceRepo.SaveWithLock(ctx, invoice); err != nil {
		return nil, err
	}

	s.publishEvents(ctx, tx.GetDomainEvents())
	tx.ClearDomainEvents()
	s.publishEvents(ctx, refund.GetDomainEvents())
	refund.ClearDomainEvents()

	s.logger.Info("Payment refunded",
		zap.String("tenant_id", tenantID.String()),
		zap.String("transaction_id", tx.ID.String()),
		zap.String("refund_id", refund.ID.String()))

	s.recordActivity(ctx, tenantID, actorID, activity.ActionPaymentRefunded, tx.ID,
		fmt.Sprintf("Payment refunded via compensating transaction %s", refund.ID))

	return refund, nil
}

func (s *PaymentService) publishEvents(ctx context.Context, events []shared.DomainEvent) {
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish domain events", zap.Error(err))
	}
}

func (s *PaymentService) recordActivity(ctx context.Context, tenantID, actorID uuid.UUID, action activity.Action, entityID uuid.UUID, detail string) {
	if s.activityRepo == nil {
		return
	}
	entry, err := activity.NewEntry(tenantID, actorID, action, "Transaction", entityID, detail)
	if err != nil {
		return
	}
	if err := s.activityRepo.Append(ctx, entry); err != nil {
		s.logger.Warn("Failed to append activity entry", zap.Error(err))
	}
}
