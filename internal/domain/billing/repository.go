package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceFilter narrows invoice list queries
type InvoiceFilter struct {
	PropertyID *uuid.UUID
	Period     string
	Status     InvoiceStatus
	OwnerID    *uuid.UUID
	Page       int
	PageSize   int
}

// InvoiceRepository defines persistence for invoices
type InvoiceRepository interface {
	// Save persists the invoice and its items atomically
	Save(ctx context.Context, invoice *Invoice) error

	// SaveWithLock persists changes with optimistic version checking
	SaveWithLock(ctx context.Context, invoice *Invoice) error

	// FindByIDForTenant finds an invoice by ID scoped to a tenant.
	// Returns nil when missing or belonging to another tenant.
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Invoice, error)

	// FindByPropertyAndPeriod finds the invoice of a property for a period
	FindByPropertyAndPeriod(ctx context.Context, tenantID, propertyID uuid.UUID, period string) (*Invoice, error)

	// List returns invoices matching the filter, tenant scoped
	List(ctx context.Context, tenantID uuid.UUID, filter InvoiceFilter) ([]Invoice, int64, error)

	// FindDueBefore returns open invoices (PENDING/PARTIAL) past the given date
	FindDueBefore(ctx context.Context, tenantID uuid.UUID, cutoff time.Time) ([]Invoice, error)

	// FindOpen returns every uncollected invoice (PENDING/PARTIAL/OVERDUE)
	FindOpen(ctx context.Context, tenantID uuid.UUID) ([]Invoice, error)

	// SumBilledForPeriod sums totals of non-cancelled invoices in a period
	SumBilledForPeriod(ctx context.Context, tenantID uuid.UUID, period string) (decimal.Decimal, error)

	// SumOutstandingForPeriod sums remaining amounts of open invoices in a period
	SumOutstandingForPeriod(ctx context.Context, tenantID uuid.UUID, period string) (decimal.Decimal, error)
}

// FeeDefinitionRepository defines persistence for fee definitions
type FeeDefinitionRepository interface {
	Save(ctx context.Context, fee *FeeDefinition) error
	SaveWithLock(ctx context.Context, fee *FeeDefinition) error
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*FeeDefinition, error)
	FindActiveByTenant(ctx context.Context, tenantID uuid.UUID) ([]FeeDefinition, error)
	List(ctx context.Context, tenantID uuid.UUID, page, pageSize int) ([]FeeDefinition, int64, error)
}
