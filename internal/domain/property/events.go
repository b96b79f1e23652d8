package property

import "github.com/armonia/backend/internal/domain/shared"

const (
	EventTypePropertyRegistered = "property.registered"
)

// PropertyRegisteredEvent is raised when a unit is added to a complex
type PropertyRegisteredEvent struct {
	shared.BaseDomainEvent
	UnitNumber string `json:"unit_number"`
}

func NewPropertyRegisteredEvent(p *Property) *PropertyRegisteredEvent {
	return &PropertyRegisteredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePropertyRegistered, "Property", p.ID, p.TenantID),
		UnitNumber:      p.UnitNumber,
	}
}
