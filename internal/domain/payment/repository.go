package payment

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionFilter narrows transaction listings. OwnerID restricts the
// result to transactions on properties registered to that user, used to
// scope resident queries.
type TransactionFilter struct {
	InvoiceID  *uuid.UUID
	PropertyID *uuid.UUID
	OwnerID    *uuid.UUID
	Status     *TransactionStatus
	Method     *PaymentMethod
	From       *time.Time
	To         *time.Time
	Page       int
	PageSize   int
}

// TransactionRepository persists payment transactions
type TransactionRepository interface {
	// Save persists a new transaction
	Save(ctx context.Context, tx *Transaction) error

	// SaveWithLock persists changes with an optimistic version check
	SaveWithLock(ctx context.Context, tx *Transaction) error

	// FindByIDForTenant loads a transaction scoped to a tenant.
	// Returns nil when missing or owned by another tenant.
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Transaction, error)

	// FindByGatewayReference loads a transaction by its gateway reference
	// within a tenant. Returns nil when no transaction carries it.
	FindByGatewayReference(ctx context.Context, tenantID uuid.UUID, reference string) (*Transaction, error)

	// List returns transactions matching the filter with a total count
	List(ctx context.Context, tenantID uuid.UUID, filter TransactionFilter) ([]*Transaction, int64, error)

	// SumCollectedBetween totals settled transaction amounts in the
	// half-open window [from, to). Refunded originals and their negative
	// compensating rows are both included so a reversed payment nets to
	// zero.
	SumCollectedBetween(ctx context.Context, tenantID uuid.UUID, from, to time.Time) (decimal.Decimal, error)
}
