package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/armonia/backend/internal/domain/billing"
	"github.com/armonia/backend/internal/domain/identity"
	"github.com/armonia/backend/internal/domain/payment"
	"github.com/armonia/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CheckoutService starts online gateway checkouts for open invoices
type CheckoutService struct {
	gateways    map[payment.GatewayType]payment.Gateway
	txRepo      payment.TransactionRepository
	invoiceRepo billing.InvoiceRepository
	tenantRepo  identity.TenantRepository
	notifyURL   string
	returnURL   string
	logger      *zap.Logger
}

// CheckoutServiceConfig holds dependencies for the checkout service
type CheckoutServiceConfig struct {
	Gateways        []payment.Gateway
	TransactionRepo payment.TransactionRepository
	InvoiceRepo     billing.InvoiceRepository
	TenantRepo      identity.TenantRepository
	NotifyURL       string
	ReturnURL       string
	Logger          *zap.Logger
}

// NewCheckoutService creates a new CheckoutService
func NewCheckoutService(config CheckoutServiceConfig) *CheckoutService {
	logger := config.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	gateways := make(map[payment.GatewayType]payment.Gateway, len(config.Gateways))
	for _, gw := range config.Gateways {
		gateways[gw.GatewayType()] = gw
	}
	return &CheckoutService{
		gateways:    gateways,
		txRepo:      config.TransactionRepo,
		invoiceRepo: config.InvoiceRepo,
		tenantRepo:  config.TenantRepo,
		notifyURL:   config.NotifyURL,
		returnURL:   config.ReturnURL,
		logger:      logger,
	}
}

// CheckoutCommand carries the input for starting a checkout
type CheckoutCommand struct {
	InvoiceID   uuid.UUID
	GatewayType string
	PayerEmail  string
}

// CheckoutResult carries the redirect data for the payer
type CheckoutResult struct {
	TransactionID uuid.UUID `json:"transaction_id"`
	CheckoutURL   string    `json:"checkout_url"`
	ExpiresAt     time.Time `json:"expires_at"`
}

// StartCheckout creates a pending transaction for the invoice's remaining
// amount and hands it to the gateway
func (s *CheckoutService) StartCheckout(ctx context.Context, tenantID uuid.UUID, cmd CheckoutCommand) (*CheckoutResult, error) {
	if err := s.requireGatewayFeature(ctx, tenantID); err != nil {
		return nil, err
	}

	gatewayType := payment.GatewayType(cmd.GatewayType)
	gateway, ok := s.gateways[gatewayType]
	if !ok {
		return nil, payment.ErrGatewayNotConfigured
	}

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

	remaining := invoice.GetRemainingAmountMoney()

	tx, err := payment.NewTransaction(tenantID, invoice.ID, invoice.PropertyID, remaining, payment.PaymentMethodGateway)
	if err != nil {
		return nil, err
	}

	checkout, err := gateway.CreateCheckout(ctx, &payment.CheckoutRequest{
		TenantID:    tenantID,
		InvoiceID:   invoice.ID,
		Reference:   tx.ID.String(),
		Amount:      remaining.Amount(),
		Currency:    string(remaining.Currency()),
		Description: fmt.Sprintf("Invoice %s period %s", invoice.ID, invoice.BillingPeriod),
		PayerEmail:  cmd.PayerEmail,
		NotifyURL:   s.notifyURL,
		ReturnURL:   s.returnURL,
	})
	if err != nil {
		return nil, err
	}

	if err := tx.StartProcessing(gatewayType.String(), checkout.GatewayReference); err != nil {
		return nil, err
	}

	if err := s.txRepo.Save(ctx, tx); err != nil {
		return nil, err
	}

	s.logger.Info("Gateway checkout started",
		zap.String("tenant_id", tenantID.String()),
		zap.String("transaction_id", tx.ID.String()),
		zap.String("gateway", gatewayType.String()),
		zap.String("gateway_reference", checkout.GatewayReference))

	return &CheckoutResult{
		TransactionID: tx.ID,
		CheckoutURL:   checkout.CheckoutURL,
		ExpiresAt:     checkout.ExpiresAt,
	}, nil
}

func (s *CheckoutService) requireGatewayFeature(ctx context.Context, tenantID uuid.UUID) error {
	tenant, err := s.tenantRepo.FindByID(ctx, tenantID)
	if err != nil {
		return fmt.Errorf("failed to load tenant: %w", err)
	}
	if tenant == nil {
		return shared.ErrNotFound
	}
	if !identity.PlanHasFeature(tenant.Plan, identity.FeaturePaymentGateway) {
		return shared.NewDomainError("FEATURE_NOT_LICENSED",
			fmt.Sprintf("Plan %s does not include %s", tenant.Plan, identity.FeaturePaymentGateway))
	}
	return nil
}
