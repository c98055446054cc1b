package models

import (
	"encoding/json"
	"time"
)

// SyncOperation is the operation recorded in a sync intent.
type SyncOperation string

const (
	SyncOpCreate SyncOperation = "create"
	SyncOpUpdate SyncOperation = "update"
	SyncOpDelete SyncOperation = "delete"
)

// SyncIntent is a durable, append-only audit record of a pending or
// attempted synchronization operation. It is bookkeeping only: the
// is_synced flags on the entity rows stay authoritative for what still
// needs to be pushed.
type SyncIntent struct {
	ID         uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	OwnerID    string          `gorm:"type:uuid;not null;index;uniqueIndex:idx_sync_intents_target" json:"owner_id"`
	EntityType Kind            `gorm:"not null;uniqueIndex:idx_sync_intents_target" json:"entity_type"`
	EntityID   string          `gorm:"type:uuid;not null;uniqueIndex:idx_sync_intents_target" json:"entity_id"`
	Operation  SyncOperation   `gorm:"not null;uniqueIndex:idx_sync_intents_target" json:"operation"`
	Payload    json.RawMessage `gorm:"type:text" json:"payload"`
	CreatedAt  time.Time       `json:"created_at"`
	RetryCount int             `gorm:"not null;default:0" json:"retry_count"`
}

// TableName returns the table name for SyncIntent.
func (SyncIntent) TableName() string { return "sync_intents" }
