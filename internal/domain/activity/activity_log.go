package activity

import (
	"context"
	"time"

	"github.com/armonia/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Action identifies what happened
type Action string

const (
	ActionBillingRun         Action = "BILLING_RUN"
	ActionInvoiceCancelled   Action = "INVOICE_CANCELLED"
	ActionPaymentRegistered  Action = "PAYMENT_REGISTERED"
	ActionPaymentCompleted   Action = "PAYMENT_COMPLETED"
	ActionPaymentCancelled   Action = "PAYMENT_CANCELLED"
	ActionPaymentRefunded    Action = "PAYMENT_REFUNDED"
	ActionGatewayNotified    Action = "GATEWAY_NOTIFIED"
	ActionFeeCreated         Action = "FEE_CREATED"
	ActionFeeUpdated         Action = "FEE_UPDATED"
	ActionExpenseRecorded    Action = "EXPENSE_RECORDED"
	ActionPropertyRegistered Action = "PROPERTY_REGISTERED"
	ActionUserLogin          Action = "USER_LOGIN"
)

// Entry is an append-only audit record. Entries are never updated or deleted.
type Entry struct {
	ID         uuid.UUID         `json:"id"`
	TenantID   uuid.UUID         `json:"tenant_id"`
	ActorID    uuid.UUID         `json:"actor_id"`
	Action     Action            `json:"action"`
	EntityType string            `json:"entity_type"`
	EntityID   uuid.UUID         `json:"entity_id"`
	Detail     string            `json:"detail"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}

// NewEntry builds an audit record
func NewEntry(tenantID, actorID uuid.UUID, action Action, entityType string, entityID uuid.UUID, detail string) (*Entry, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if action == "" {
		return nil, shared.NewDomainError("INVALID_ACTION", "Action cannot be empty")
	}
	return &Entry{
		ID:         uuid.New(),
		TenantID:   tenantID,
		ActorID:    actorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Detail:     detail,
		OccurredAt: time.Now(),
	}, nil
}

// WithMetadata attaches key-value context to the entry
func (e *Entry) WithMetadata(meta map[string]string) *Entry {
	e.Metadata = meta
	return e
}

// Filter narrows activity listings
type Filter struct {
	ActorID    *uuid.UUID
	Action     *Action
	EntityType string
	From       *time.Time
	To         *time.Time
	Page       int
	PageSize   int
}

// Repository persists activity entries
type Repository interface {
	// Append stores an entry. Failures here must never fail the
	// business operation that produced the entry.
	Append(ctx context.Context, entry *Entry) error

	// List returns entries matching the filter, newest first, with a total count
	List(ctx context.Context, tenantID uuid.UUID, filter Filter) ([]*Entry, int64, error)
}
