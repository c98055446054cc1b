// Package store implements owner-scoped local data access over the
// durable store. Every operation carries the bound owner's predicate:
// the store is multi-tenant in a single physical database and an
// unscoped query is a correctness bug, not a style issue.
package store

import (
	"context"
	"time"

	"gorm.io/gorm/clause"

	"github.com/domain80/centabit-core/internal/database"
	apperrors "github.com/domain80/centabit-core/internal/errors"
	"github.com/domain80/centabit-core/internal/logger"
	"github.com/domain80/centabit-core/internal/models"
	"github.com/domain80/centabit-core/internal/uuid"
)

// Store is an owner-scoped accessor for one synchronized entity kind.
// Writes stamp the envelope columns; reads and live queries always
// filter by the bound owner.
type Store[T any, P models.Syncable[T]] struct {
	m       *database.Manager
	ownerID string
	table   string
	kind    models.Kind
}

// New creates a store bound to the given owner.
func New[T any, P models.Syncable[T]](m *database.Manager, ownerID string) *Store[T, P] {
	var zero T
	rec := P(&zero)
	return &Store[T, P]{
		m:       m,
		ownerID: ownerID,
		table:   rec.TableName(),
		kind:    rec.EntityKind(),
	}
}

// OwnerID returns the owner this store is bound to.
func (s *Store[T, P]) OwnerID() string { return s.ownerID }

// Kind returns the entity kind this store serves.
func (s *Store[T, P]) Kind() models.Kind { return s.kind }

// Create writes a new row. The owner always comes from the bound
// identifier, never from caller input, so callers cannot forge
// ownership. A missing id is generated.
func (s *Store[T, P]) Create(rec P) error {
	meta := rec.Meta()
	if meta.ID == "" {
		meta.ID = uuid.New()
	}
	now := time.Now().UTC()
	meta.OwnerID = s.ownerID
	meta.CreatedAt = now
	meta.UpdatedAt = now
	meta.IsSynced = false
	meta.IsDeleted = false
	meta.LastSyncedAt = nil

	if err := s.m.DB().Create(rec).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrStoreIO, err)
	}
	s.m.Notify(s.table)
	return nil
}

// Update overwrites an existing row in full. The record's owner must
// match the bound owner; the check runs before any I/O so a cross-tenant
// write never reaches the database.
func (s *Store[T, P]) Update(rec P) error {
	meta := rec.Meta()
	if meta.OwnerID != s.ownerID {
		return apperrors.ErrOwnershipViolation
	}
	meta.UpdatedAt = time.Now().UTC()
	meta.IsSynced = false

	res := s.m.DB().Model(rec).
		Select("*").
		Omit("id", "owner_id", "created_at").
		Updates(rec)
	if res.Error != nil {
		return apperrors.Wrap(apperrors.ErrStoreIO, res.Error)
	}
	if res.RowsAffected == 0 {
		return s.notFound()
	}
	s.m.Notify(s.table)
	return nil
}

// Delete soft-deletes a row: the tombstone is retained so the deletion
// can still be propagated to the remote. No physical delete is ever
// issued by the core.
func (s *Store[T, P]) Delete(id string) error {
	var zero T
	res := s.m.DB().Model(P(&zero)).
		Where("owner_id = ? AND id = ?", s.ownerID, id).
		Updates(map[string]interface{}{
			"is_deleted": true,
			"is_synced":  false,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return apperrors.Wrap(apperrors.ErrStoreIO, res.Error)
	}
	if res.RowsAffected == 0 {
		return s.notFound()
	}
	s.m.Notify(s.table)
	return nil
}

// GetByID performs a one-shot scoped read. Tombstones are returned; the
// caller checks IsDeleted when it matters.
func (s *Store[T, P]) GetByID(id string) (P, error) {
	var rec T
	err := s.m.DB().
		Where("owner_id = ? AND id = ?", s.ownerID, id).
		First(&rec).Error
	if err != nil {
		if isNotFound(err) {
			return nil, s.notFound()
		}
		return nil, apperrors.Wrap(apperrors.ErrStoreIO, err)
	}
	return P(&rec), nil
}

// ListActive returns all live rows for the bound owner in stable order.
func (s *Store[T, P]) ListActive() ([]T, error) {
	var rows []T
	err := s.m.DB().
		Where("owner_id = ? AND is_deleted = ?", s.ownerID, false).
		Order("created_at, id").
		Find(&rows).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStoreIO, err)
	}
	return rows, nil
}

// ListUnsynced returns every row, tombstones included, that has not been
// acknowledged by the remote.
func (s *Store[T, P]) ListUnsynced() ([]T, error) {
	var rows []T
	err := s.m.DB().
		Where("owner_id = ? AND is_synced = ?", s.ownerID, false).
		Order("created_at, id").
		Find(&rows).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrStoreIO, err)
	}
	return rows, nil
}

// WatchAll returns a live query over the owner's live rows. The result
// set is emitted once on subscription and re-emitted after every commit
// that could affect it. The channel closes when ctx is cancelled.
func (s *Store[T, P]) WatchAll(ctx context.Context) <-chan []T {
	out := make(chan []T, 1)
	sig, cancel := s.m.Subscribe(s.table)

	go func() {
		defer close(out)
		defer cancel()

		if rows, err := s.ListActive(); err == nil {
			select {
			case out <- rows:
			case <-ctx.Done():
				return
			}
		} else {
			logger.Get().Errorw("live query initial evaluation failed", "table", s.table, "error", err)
		}

		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-sig:
				if !ok {
					return
				}
				rows, err := s.ListActive()
				if err != nil {
					logger.Get().Errorw("live query re-evaluation failed", "table", s.table, "error", err)
					continue
				}
				select {
				case out <- rows:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

// MarkSynced records a confirmed remote acknowledgment. It deliberately
// does not bump updated_at: a sync acknowledgment must not look like a
// domain mutation. Idempotent.
func (s *Store[T, P]) MarkSynced(id string, at time.Time) error {
	var zero T
	res := s.m.DB().Model(P(&zero)).
		Where("owner_id = ? AND id = ?", s.ownerID, id).
		Updates(map[string]interface{}{
			"is_synced":      true,
			"last_synced_at": at,
		})
	if res.Error != nil {
		return apperrors.Wrap(apperrors.ErrStoreIO, res.Error)
	}
	if res.RowsAffected == 0 {
		return s.notFound()
	}
	s.m.Notify(s.table)
	return nil
}

// ApplyRemote upserts a reconciled record in full and flags it synced.
// Used when a pulled remote row or a resolved conflict winner replaces
// local state; the write is scoped to the bound owner regardless of the
// payload's owner field.
func (s *Store[T, P]) ApplyRemote(rec P, at time.Time) error {
	meta := rec.Meta()
	meta.OwnerID = s.ownerID
	meta.IsSynced = true
	meta.LastSyncedAt = &at

	err := s.m.DB().Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}, {Name: "owner_id"}},
		UpdateAll: true,
	}).Create(rec).Error
	if err != nil {
		return apperrors.Wrap(apperrors.ErrStoreIO, err)
	}
	s.m.Notify(s.table)
	return nil
}

// ApplyRemoteDelete applies a deletion reported by the remote. The local
// tombstone is flagged synced so it is not pushed back.
func (s *Store[T, P]) ApplyRemoteDelete(id string, at time.Time) error {
	var zero T
	res := s.m.DB().Model(P(&zero)).
		Where("owner_id = ? AND id = ?", s.ownerID, id).
		Updates(map[string]interface{}{
			"is_deleted":     true,
			"is_synced":      true,
			"last_synced_at": at,
		})
	if res.Error != nil {
		return apperrors.Wrap(apperrors.ErrStoreIO, res.Error)
	}
	if res.RowsAffected == 0 {
		return s.notFound()
	}
	s.m.Notify(s.table)
	return nil
}

func (s *Store[T, P]) notFound() error {
	switch s.kind {
	case models.KindTransaction:
		return apperrors.ErrTransactionNotFound
	case models.KindCategory:
		return apperrors.ErrCategoryNotFound
	case models.KindBudget:
		return apperrors.ErrBudgetNotFound
	case models.KindAllocation:
		return apperrors.ErrAllocationNotFound
	}
	return apperrors.ErrNotFound
}
