package property

import (
	"context"
	"fmt"
	"time"

	"github.com/armonia/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PropertyStatus represents whether a unit participates in billing
type PropertyStatus string

const (
	PropertyStatusActive   PropertyStatus = "ACTIVE"
	PropertyStatusInactive PropertyStatus = "INACTIVE"
)

// IsValid checks if the status is a valid PropertyStatus
func (s PropertyStatus) IsValid() bool {
	return s == PropertyStatusActive || s == PropertyStatusInactive
}

// String returns the string representation of PropertyStatus
func (s PropertyStatus) String() string {
	return string(s)
}

// PropertyType classifies the unit
type PropertyType string

const (
	PropertyTypeApartment  PropertyType = "APARTMENT"
	PropertyTypeHouse      PropertyType = "HOUSE"
	PropertyTypeParking    PropertyType = "PARKING"
	PropertyTypeCommercial PropertyType = "COMMERCIAL"
	PropertyTypeStorage    PropertyType = "STORAGE"
)

// IsValid checks if the type is a known PropertyType
func (t PropertyType) IsValid() bool {
	switch t {
	case PropertyTypeApartment, PropertyTypeHouse, PropertyTypeParking,
		PropertyTypeCommercial, PropertyTypeStorage:
		return true
	}
	return false
}

// Property represents a billable unit inside a residential complex.
// Area is in square meters and drives per-area fee amounts.
type Property struct {
	shared.TenantAggregateRoot
	UnitNumber   string          `json:"unit_number"`
	PropertyType PropertyType    `json:"property_type"`
	Area         decimal.Decimal `json:"area"`
	OwnerName    string          `json:"owner_name"`
	OwnerEmail   string          `json:"owner_email"`
	OwnerUserID  *uuid.UUID      `json:"owner_user_id,omitempty"`
	Status       PropertyStatus  `json:"status"`
	Coefficient  decimal.Decimal `json:"coefficient"` // ownership share, informational
}

// NewProperty registers a unit in a complex
func NewProperty(
	tenantID uuid.UUID,
	unitNumber string,
	propertyType PropertyType,
	area decimal.Decimal,
	ownerName string,
	ownerEmail string,
) (*Property, error) {
	if unitNumber == "" {
		return nil, shared.NewDomainError("INVALID_UNIT_NUMBER", "Unit number cannot be empty")
	}
	if len(unitNumber) > 50 {
		return nil, shared.NewDomainError("INVALID_UNIT_NUMBER", "Unit number cannot exceed 50 characters")
	}
	if !propertyType.IsValid() {
		return nil, shared.NewDomainError("INVALID_PROPERTY_TYPE",
			fmt.Sprintf("Unknown property type: %s", propertyType))
	}
	if area.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AREA", "Area must be positive")
	}
	if ownerName == "" {
		return nil, shared.NewDomainError("INVALID_OWNER", "Owner name cannot be empty")
	}

	p := &Property{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		UnitNumber:          unitNumber,
		PropertyType:        propertyType,
		Area:                area,
		OwnerName:           ownerName,
		OwnerEmail:          ownerEmail,
		Status:              PropertyStatusActive,
		Coefficient:         decimal.Zero,
	}

	p.AddDomainEvent(NewPropertyRegisteredEvent(p))

	return p, nil
}

// UpdateOwner changes the owner on record
func (p *Property) UpdateOwner(name, email string, userID *uuid.UUID) error {
	if name == "" {
		return shared.NewDomainError("INVALID_OWNER", "Owner name cannot be empty")
	}
	p.OwnerName = name
	p.OwnerEmail = email
	p.OwnerUserID = userID
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
	return nil
}

// UpdateArea corrects the registered area
func (p *Property) UpdateArea(area decimal.Decimal) error {
	if area.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_AREA", "Area must be positive")
	}
	p.Area = area
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
	return nil
}

// Activate puts the unit back into billing
func (p *Property) Activate() {
	if p.Status == PropertyStatusActive {
		return
	}
	p.Status = PropertyStatusActive
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
}

// Deactivate removes the unit from billing runs
func (p *Property) Deactivate() {
	if p.Status == PropertyStatusInactive {
		return
	}
	p.Status = PropertyStatusInactive
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
}

// IsBillable returns true if the unit should receive invoices
func (p *Property) IsBillable() bool {
	return p.Status == PropertyStatusActive
}

// PropertyFilter narrows property listings
type PropertyFilter struct {
	Status      *PropertyStatus
	Type        *PropertyType
	OwnerUserID *uuid.UUID
	Search      string
	Page        int
	PageSize    int
}

// Repository persists properties
type Repository interface {
	// Save persists a new property
	Save(ctx context.Context, p *Property) error

	// SaveWithLock persists changes with an optimistic version check
	SaveWithLock(ctx context.Context, p *Property) error

	// FindByIDForTenant loads a property scoped to a tenant.
	// Returns nil when missing or owned by another tenant.
	FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*Property, error)

	// FindByUnitNumber loads a property by its unit number within a tenant
	FindByUnitNumber(ctx context.Context, tenantID uuid.UUID, unitNumber string) (*Property, error)

	// FindActiveByTenant returns every billable property of a tenant
	FindActiveByTenant(ctx context.Context, tenantID uuid.UUID) ([]*Property, error)

	// List returns properties matching the filter with a total count
	List(ctx context.Context, tenantID uuid.UUID, filter PropertyFilter) ([]*Property, int64, error)

	// Count returns the number of registered properties in a tenant
	Count(ctx context.Context, tenantID uuid.UUID) (int64, error)
}
