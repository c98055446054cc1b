package store

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/domain80/centabit-core/internal/database"
	apperrors "github.com/domain80/centabit-core/internal/errors"
	"github.com/domain80/centabit-core/internal/models"
)

// IntentStore records sync intents: a durable audit trail of push
// attempts, kept independent of the is_synced flags on the entity rows.
type IntentStore struct {
	m       *database.Manager
	ownerID string
}

// NewIntentStore creates an intent store bound to the given owner.
func NewIntentStore(m *database.Manager, ownerID string) *IntentStore {
	return &IntentStore{m: m, ownerID: ownerID}
}

// Record appends an intent for the given entity operation. Re-recording
// the same (entity, operation) bumps the retry count instead of adding a
// second row, so the trail reflects how often a record had to be pushed.
func (s *IntentStore) Record(kind models.Kind, entityID string, op models.SyncOperation, payload json.RawMessage) error {
	intent := &models.SyncIntent{
		OwnerID:    s.ownerID,
		EntityType: kind,
		EntityID:   entityID,
		Operation:  op,
		Payload:    payload,
		CreatedAt:  time.Now().UTC(),
	}
	err := s.m.DB().Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "owner_id"}, {Name: "entity_type"}, {Name: "entity_id"}, {Name: "operation"},
		},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"payload":     payload,
			"retry_count": gorm.Expr("retry_count + 1"),
		}),
	}).Create(intent).Error
	if err != nil {
		return apperrors.Wrap(apperrors.ErrStoreIO, err)
	}
	return nil
}

// List returns the owner's intents in append order.
func (s *IntentStore) List() ([]models.SyncIntent, error) {
	var intents []models.SyncIntent
	err := s.m.DB().
		Where("owner_id = ?", s.ownerID).
		Order("id").
		Find(&intents).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStoreIO, err)
	}
	return intents, nil
}
