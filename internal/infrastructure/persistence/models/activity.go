package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/armonia/backend/internal/domain/activity"
	"github.com/google/uuid"
)

// EntryMetadata stores the free-form key/value detail of an audit entry as JSONB.
type EntryMetadata map[string]string

// Value implements driver.Valuer interface for GORM to store as JSONB
func (e EntryMetadata) Value() (driver.Value, error) {
	if e == nil {
		return "{}", nil
	}
	return json.Marshal(e)
}

// Scan implements sql.Scanner interface for GORM to read from JSONB
func (e *EntryMetadata) Scan(value interface{}) error {
	if value == nil {
		*e = EntryMetadata{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan EntryMetadata: unsupported type")
	}

	if len(bytes) == 0 {
		*e = EntryMetadata{}
		return nil
	}
	return json.Unmarshal(bytes, e)
}

// ActivityEntryModel is the persistence model for audit log entries.
// Entries are append-only; there is no update or delete path.
type ActivityEntryModel struct {
	ID         uuid.UUID       `gorm:"type:uuid;primary_key"`
	TenantID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	ActorID    uuid.UUID       `gorm:"type:uuid;index"`
	Action     activity.Action `gorm:"type:varchar(50);not null;index"`
	EntityType string          `gorm:"type:varchar(50);index"`
	EntityID   uuid.UUID       `gorm:"type:uuid"`
	Detail     string          `gorm:"type:varchar(500)"`
	Metadata   EntryMetadata   `gorm:"type:jsonb;default:'{}'"`
	OccurredAt time.Time       `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (ActivityEntryModel) TableName() string {
	return "activity_entries"
}

// ToDomain converts the persistence model to a domain Entry.
func (m *ActivityEntryModel) ToDomain() *activity.Entry {
	return &activity.Entry{
		ID:         m.ID,
		TenantID:   m.TenantID,
		ActorID:    m.ActorID,
		Action:     m.Action,
		EntityType: m.EntityType,
		EntityID:   m.EntityID,
		Detail:     m.Detail,
		Metadata:   map[string]string(m.Metadata),
		OccurredAt: m.OccurredAt,
	}
}

// ActivityEntryModelFromDomain creates a new persistence model from a domain Entry.
func ActivityEntryModelFromDomain(entry *activity.Entry) *ActivityEntryModel {
	return &ActivityEntryModel{
		ID:         entry.ID,
		TenantID:   entry.TenantID,
		ActorID:    entry.ActorID,
		Action:     entry.Action,
		EntityType: entry.EntityType,
		EntityID:   entry.EntityID,
		Detail:     entry.Detail,
		Metadata:   EntryMetadata(entry.Metadata),
		OccurredAt: entry.OccurredAt,
	}
}
