package models

import "time"

// SyncCheckpoint stores the per-owner pull watermark: the completion time
// of the last fully successful sync round. The next pull requests only
// remote rows changed after this point.
type SyncCheckpoint struct {
	OwnerID      string    `gorm:"type:uuid;primaryKey" json:"owner_id"`
	LastSyncedAt time.Time `gorm:"not null" json:"last_synced_at"`
}

// TableName returns the table name for SyncCheckpoint.
func (SyncCheckpoint) TableName() string { return "sync_checkpoints" }
