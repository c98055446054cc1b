package models

import (
	"time"
)

// SyncEnvelope contains the common columns carried by every synchronized
// table. The (owner_id, id) tuple is the primary key: ids are unique only
// within an owner's namespace, and every query against a synchronized
// table must carry the owner predicate.
//
// Timestamp columns are managed by the store layer, not by GORM: a sync
// acknowledgment write must not look like a domain mutation, so automatic
// updated_at tracking is disabled.
type SyncEnvelope struct {
	ID           string     `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID      string     `gorm:"type:uuid;primaryKey" json:"owner_id"`
	CreatedAt    time.Time  `gorm:"autoCreateTime:false" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"autoUpdateTime:false" json:"updated_at"`
	IsSynced     bool       `gorm:"not null;default:false;index" json:"is_synced"`
	IsDeleted    bool       `gorm:"not null;default:false;index" json:"is_deleted"`
	LastSyncedAt *time.Time `json:"last_synced_at,omitempty"`
}

// Meta returns the envelope itself. Promoted through embedding, it gives
// generic code access to the sync columns of any entity.
func (e *SyncEnvelope) Meta() *SyncEnvelope { return e }

// Record is implemented by a pointer to any synchronized entity.
type Record interface {
	Meta() *SyncEnvelope
	EntityKind() Kind
	TableName() string
}

// Syncable constrains a pointer-to-entity type for the generic store and
// repository layers.
type Syncable[T any] interface {
	*T
	Record
}
