package models

import (
	"github.com/armonia/backend/internal/domain/property"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PropertyModel is the persistence model for the Property aggregate.
// Unit numbers are unique within a tenant.
type PropertyModel struct {
	TenantAggregateModel
	UnitNumber   string                  `gorm:"type:varchar(50);not null;index"`
	PropertyType property.PropertyType   `gorm:"type:varchar(20);not null"`
	Area         decimal.Decimal         `gorm:"type:decimal(12,2);not null"`
	OwnerName    string                  `gorm:"type:varchar(100);not null"`
	OwnerEmail   string                  `gorm:"type:varchar(255);not null"`
	OwnerUserID  *uuid.UUID              `gorm:"type:uuid;index"`
	Status       property.PropertyStatus `gorm:"type:varchar(20);not null;default:'ACTIVE';index"`
	Coefficient  decimal.Decimal         `gorm:"type:decimal(10,6);not null;default:0"`
}

// TableName returns the table name for GORM
func (PropertyModel) TableName() string {
	return "properties"
}

// ToDomain converts the persistence model to a domain Property.
func (m *PropertyModel) ToDomain() *property.Property {
	p := &property.Property{
		UnitNumber:   m.UnitNumber,
		PropertyType: m.PropertyType,
		Area:         m.Area,
		OwnerName:    m.OwnerName,
		OwnerEmail:   m.OwnerEmail,
		OwnerUserID:  m.OwnerUserID,
		Status:       m.Status,
		Coefficient:  m.Coefficient,
	}
	m.PopulateTenantAggregateRoot(&p.TenantAggregateRoot)
	return p
}

// FromDomain populates the persistence model from a domain Property.
func (m *PropertyModel) FromDomain(p *property.Property) {
	m.FromDomainTenantAggregateRoot(p.TenantAggregateRoot)
	m.UnitNumber = p.UnitNumber
	m.PropertyType = p.PropertyType
	m.Area = p.Area
	m.OwnerName = p.OwnerName
	m.OwnerEmail = p.OwnerEmail
	m.OwnerUserID = p.OwnerUserID
	m.Status = p.Status
	m.Coefficient = p.Coefficient
}

// PropertyModelFromDomain creates a new persistence model from a domain Property.
func PropertyModelFromDomain(p *property.Property) *PropertyModel {
	m := &PropertyModel{}
	m.FromDomain(p)
	return m
}
