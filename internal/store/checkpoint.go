package store

import (
	"time"

	"gorm.io/gorm/clause"

	"github.com/domain80/centabit-core/internal/database"
	apperrors "github.com/domain80/centabit-core/internal/errors"
	"github.com/domain80/centabit-core/internal/models"
)

// CheckpointStore persists the per-owner pull watermark.
type CheckpointStore struct {
	m       *database.Manager
	ownerID string
}

// NewCheckpointStore creates a checkpoint store bound to the given owner.
func NewCheckpointStore(m *database.Manager, ownerID string) *CheckpointStore {
	return &CheckpointStore{m: m, ownerID: ownerID}
}

// Get returns the owner's watermark, or nil before the first successful
// sync round-trip.
func (s *CheckpointStore) Get() (*time.Time, error) {
	var cp models.SyncCheckpoint
	err := s.m.DB().
		Where("owner_id = ?", s.ownerID).
		First(&cp).Error
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, apperrors.Wrap(apperrors.ErrStoreIO, err)
	}
	at := cp.LastSyncedAt
	return &at, nil
}

// Set advances the watermark to the given completion time.
func (s *CheckpointStore) Set(at time.Time) error {
	cp := &models.SyncCheckpoint{OwnerID: s.ownerID, LastSyncedAt: at}
	err := s.m.DB().Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "owner_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_synced_at"}),
	}).Create(cp).Error
	if err != nil {
		return apperrors.Wrap(apperrors.ErrStoreIO, err)
	}
	return nil
}
