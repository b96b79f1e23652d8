package integration

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/armonia/backend/internal/domain/billing"
	"github.com/armonia/backend/internal/domain/shared"
	"github.com/armonia/backend/internal/infrastructure/event"
)

// TestOutboxWriteThrough verifies that domain events raised by an aggregate
// land in the outbox table within the same transaction as the aggregate save.
func TestOutboxWriteThrough(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	tdb := NewTestDB(t)
	f := newBillingFixture(tdb)
	ctx := context.Background()

	serializer := event.NewEventSerializer()
	event.RegisterAllEvents(serializer)
	f.invoiceRepo.SetOutboxEventSaver(event.NewOutboxPublisher(serializer))
	outboxRepo := event.NewGormOutboxRepository(tdb.DB)

	tenant := f.seedTenant(t, "outbx1")
	f.seedProperty(t, tenant.ID, "B-301", 55)
	f.seedFee(t, tenant.ID, "Administración", 180000)

	result, err := f.billing.GenerateBills(ctx, tenant.ID, tenant.ID, "2026-06")
	require.NoError(t, err)
	require.Equal(t, 1, result.Generated)

	pending, err := outboxRepo.FindPending(ctx, 10)
	require.NoError(t, err)
	require.NotEmpty(t, pending)

	var generated *shared.OutboxEntry
	for _, entry := range pending {
		if entry.EventType == billing.EventTypeInvoiceGenerated {
			generated = entry
		}
	}
	require.NotNil(t, generated, "expected an invoice generated event in the outbox")
	assert.Equal(t, tenant.ID, generated.TenantID)
	assert.Equal(t, shared.OutboxStatusPending, generated.Status)

	// The entry round-trips through the serializer
	domainEvent, err := serializer.Deserialize(generated.EventType, generated.Payload)
	require.NoError(t, err)
	assert.Equal(t, billing.EventTypeInvoiceGenerated, domainEvent.EventType())
}
