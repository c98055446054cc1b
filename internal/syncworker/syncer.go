package syncworker

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/domain80/centabit-core/internal/conflict"
	"github.com/domain80/centabit-core/internal/database"
	apperrors "github.com/domain80/centabit-core/internal/errors"
	"github.com/domain80/centabit-core/internal/models"
	"github.com/domain80/centabit-core/internal/store"
)

// pendingRecord is one unsynced row prepared for pushing.
type pendingRecord struct {
	id        string
	createdAt time.Time
	updatedAt time.Time
	deleted   bool
	payload   json.RawMessage
}

// operation partitions a pending record by what the remote should do
// with it. A row whose created_at still equals updated_at has never been
// mutated since creation; a tombstone is a delete; everything else is an
// update.
func (p pendingRecord) operation() models.SyncOperation {
	switch {
	case p.deleted:
		return models.SyncOpDelete
	case p.createdAt.Equal(p.updatedAt):
		return models.SyncOpCreate
	default:
		return models.SyncOpUpdate
	}
}

// kindSyncer is the per-entity surface the sync round works against. One
// generic implementation serves all four kinds.
type kindSyncer interface {
	kind() models.Kind
	pending() ([]pendingRecord, error)
	markSynced(id string, at time.Time) error
	resolvePushConflict(localID string, remotePayload json.RawMessage, at time.Time) error
	applyPulled(payload json.RawMessage, at time.Time) error
	applyPulledDeletion(id string, at time.Time) error
}

type typedSyncer[T any, P models.Syncable[T]] struct {
	st *store.Store[T, P]
}

func newTypedSyncer[T any, P models.Syncable[T]](m *database.Manager, ownerID string) *typedSyncer[T, P] {
	return &typedSyncer[T, P]{st: store.New[T, P](m, ownerID)}
}

func (k *typedSyncer[T, P]) kind() models.Kind { return k.st.Kind() }

func (k *typedSyncer[T, P]) pending() ([]pendingRecord, error) {
	rows, err := k.st.ListUnsynced()
	if err != nil {
		return nil, err
	}
	out := make([]pendingRecord, 0, len(rows))
	for i := range rows {
		rec := P(&rows[i])
		payload, err := json.Marshal(rec)
		if err != nil {
			return nil, fmt.Errorf("marshaling %s record: %w", k.kind(), err)
		}
		meta := rec.Meta()
		out = append(out, pendingRecord{
			id:        meta.ID,
			createdAt: meta.CreatedAt,
			updatedAt: meta.UpdatedAt,
			deleted:   meta.IsDeleted,
			payload:   payload,
		})
	}
	return out, nil
}

func (k *typedSyncer[T, P]) markSynced(id string, at time.Time) error {
	return k.st.MarkSynced(id, at)
}

// resolvePushConflict reconciles a record the remote refused. The winner
// replaces local state in full; a local winner stays unsynced so the
// next round pushes it again.
func (k *typedSyncer[T, P]) resolvePushConflict(localID string, remotePayload json.RawMessage, at time.Time) error {
	var remote T
	if err := json.Unmarshal(remotePayload, &remote); err != nil {
		return apperrors.Wrap(apperrors.ErrSyncRemote, fmt.Errorf("decoding conflicting %s record: %w", k.kind(), err))
	}
	remoteRec := P(&remote)

	local, err := k.st.GetByID(localID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return k.st.ApplyRemote(remoteRec, at)
		}
		return err
	}

	winner := conflict.Resolve[T, P](local, remoteRec)
	if winner == local {
		return nil
	}
	return k.st.ApplyRemote(winner, at)
}

// applyPulled applies one pulled remote record: insert when unknown,
// overwrite when the local copy is synced, resolve when the local copy
// has pending edits.
func (k *typedSyncer[T, P]) applyPulled(payload json.RawMessage, at time.Time) error {
	var remote T
	if err := json.Unmarshal(payload, &remote); err != nil {
		return apperrors.Wrap(apperrors.ErrSyncRemote, fmt.Errorf("decoding pulled %s record: %w", k.kind(), err))
	}
	remoteRec := P(&remote)

	local, err := k.st.GetByID(remoteRec.Meta().ID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return k.st.ApplyRemote(remoteRec, at)
		}
		return err
	}
	if local.Meta().IsSynced {
		return k.st.ApplyRemote(remoteRec, at)
	}

	winner := conflict.Resolve[T, P](local, remoteRec)
	if winner == local {
		return nil
	}
	return k.st.ApplyRemote(winner, at)
}

// applyPulledDeletion applies a remote tombstone. Pulled deletions carry
// no timestamp, so a local record with pending edits is kept; it will be
// pushed next round and reconciled there.
func (k *typedSyncer[T, P]) applyPulledDeletion(id string, at time.Time) error {
	local, err := k.st.GetByID(id)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil
		}
		return err
	}
	if !local.Meta().IsSynced {
		return nil
	}
	return k.st.ApplyRemoteDelete(id, at)
}
