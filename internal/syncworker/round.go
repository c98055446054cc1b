package syncworker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/domain80/centabit-core/internal/logger"
	"github.com/domain80/centabit-core/internal/models"
	"github.com/domain80/centabit-core/internal/syncclient"
)

// kindPending pairs a syncer with its gathered unsynced rows.
type kindPending struct {
	syncer  kindSyncer
	records []pendingRecord
}

type conflictKey struct {
	kind models.Kind
	id   string
}

// conflictIndex keys the remote's conflict verdicts by entity so the
// push phase can look up each pushed record's outcome.
func conflictIndex(conflicts []syncclient.Conflict) map[conflictKey]json.RawMessage {
	if len(conflicts) == 0 {
		return nil
	}
	out := make(map[conflictKey]json.RawMessage, len(conflicts))
	for _, c := range conflicts {
		out[conflictKey{kind: c.EntityType, id: c.EntityID}] = c.RemoteVersion
	}
	return out
}

// sync performs one full push/pull round and returns the outcome status.
func (w *Worker) sync(ctx context.Context) Status {
	now := time.Now().UTC()

	pending, total, err := w.gather()
	if err != nil {
		return Failed{Reason: err.Error()}
	}

	// An empty push is skipped, not sent; the round goes straight to the
	// pull phase.
	if total > 0 {
		w.recordIntents(pending)

		if st := w.pushCreates(ctx, pending, now); st != nil {
			return st
		}
		if st := w.pushIndividual(ctx, pending, now); st != nil {
			return st
		}
	}

	if st := w.pull(ctx, now); st != nil {
		return st
	}

	completed := time.Now().UTC()
	if err := w.checkpoints.Set(completed); err != nil {
		return Failed{Reason: err.Error()}
	}
	return Synced{CompletedAt: completed}
}

func (w *Worker) gather() ([]kindPending, int, error) {
	pending := make([]kindPending, 0, len(w.syncers))
	total := 0
	for _, ks := range w.syncers {
		records, err := ks.pending()
		if err != nil {
			return nil, 0, err
		}
		total += len(records)
		pending = append(pending, kindPending{syncer: ks, records: records})
	}
	return pending, total, nil
}

// recordIntents appends one audit row per pending record. Intent
// failures are logged but never fail the round: the audit trail is
// bookkeeping, the is_synced flags stay authoritative.
func (w *Worker) recordIntents(pending []kindPending) {
	for _, kp := range pending {
		for _, rec := range kp.records {
			if err := w.intents.Record(kp.syncer.kind(), rec.id, rec.operation(), rec.payload); err != nil {
				logger.Get().Warnw("recording sync intent failed", "kind", kp.syncer.kind(), "id", rec.id, "error", err)
			}
		}
	}
}

// pushCreates batches every never-mutated record across all kinds into a
// single push request. Returns a non-nil failure status on error.
func (w *Worker) pushCreates(ctx context.Context, pending []kindPending, now time.Time) Status {
	req := syncclient.PushRequest{
		OwnerID: w.ownerID,
		Changes: make(map[models.Kind]syncclient.ChangeSet),
	}
	pushed := make(map[models.Kind][]pendingRecord)

	for _, kp := range pending {
		var created []json.RawMessage
		for _, rec := range kp.records {
			if rec.operation() != models.SyncOpCreate {
				continue
			}
			created = append(created, rec.payload)
			pushed[kp.syncer.kind()] = append(pushed[kp.syncer.kind()], rec)
		}
		if len(created) > 0 {
			req.Changes[kp.syncer.kind()] = syncclient.ChangeSet{Created: created}
		}
	}
	if len(req.Changes) == 0 {
		return nil
	}

	resp, err := w.remote.Push(ctx, req)
	if err != nil {
		return w.failure(err)
	}

	conflicted := conflictIndex(resp.Conflicts)
	for _, kp := range pending {
		kind := kp.syncer.kind()
		for _, rec := range pushed[kind] {
			if remote, ok := conflicted[conflictKey{kind, rec.id}]; ok {
				if err := kp.syncer.resolvePushConflict(rec.id, remote, now); err != nil {
					return Failed{Reason: err.Error()}
				}
				continue
			}
			if err := kp.syncer.markSynced(rec.id, now); err != nil {
				return Failed{Reason: err.Error()}
			}
		}
	}
	return nil
}

// pushIndividual sends updates and deletes one record per request, so
// every record gets its own conflict verdict.
func (w *Worker) pushIndividual(ctx context.Context, pending []kindPending, now time.Time) Status {
	for _, kp := range pending {
		kind := kp.syncer.kind()
		for _, rec := range kp.records {
			var change syncclient.ChangeSet
			switch rec.operation() {
			case models.SyncOpUpdate:
				change.Updated = []json.RawMessage{rec.payload}
			case models.SyncOpDelete:
				change.Deleted = []syncclient.DeletedRecord{{ID: rec.id, DeletedAt: rec.updatedAt}}
			default:
				continue
			}

			resp, err := w.remote.Push(ctx, syncclient.PushRequest{
				OwnerID: w.ownerID,
				Changes: map[models.Kind]syncclient.ChangeSet{kind: change},
			})
			if err != nil {
				return w.failure(err)
			}

			conflicted := conflictIndex(resp.Conflicts)
			if remote, ok := conflicted[conflictKey{kind, rec.id}]; ok {
				if err := kp.syncer.resolvePushConflict(rec.id, remote, now); err != nil {
					return Failed{Reason: err.Error()}
				}
				continue
			}
			if err := kp.syncer.markSynced(rec.id, now); err != nil {
				return Failed{Reason: err.Error()}
			}
		}
	}
	return nil
}

// pull fetches remote changes since the watermark and folds them into
// local state.
func (w *Worker) pull(ctx context.Context, now time.Time) Status {
	since, err := w.checkpoints.Get()
	if err != nil {
		return Failed{Reason: err.Error()}
	}

	resp, err := w.remote.Pull(ctx, w.ownerID, since)
	if err != nil {
		return w.failure(err)
	}

	for kind, payloads := range resp.Changes {
		ks := w.syncerFor(kind)
		if ks == nil {
			logger.Get().Warnw("pull returned unknown entity kind", "kind", kind)
			continue
		}
		for _, payload := range payloads {
			if err := ks.applyPulled(payload, now); err != nil {
				return Failed{Reason: err.Error()}
			}
		}
	}
	for kind, ids := range resp.Deletions {
		ks := w.syncerFor(kind)
		if ks == nil {
			logger.Get().Warnw("pull returned unknown entity kind", "kind", kind)
			continue
		}
		for _, id := range ids {
			if err := ks.applyPulledDeletion(id, now); err != nil {
				return Failed{Reason: err.Error()}
			}
		}
	}
	return nil
}

func (w *Worker) syncerFor(kind models.Kind) kindSyncer {
	for _, ks := range w.syncers {
		if ks.kind() == kind {
			return ks
		}
	}
	return nil
}

// failure maps a push/pull error onto the worker state machine:
// connectivity failures report Offline and retry on the next tick,
// everything else reports Failed and waits for a manual re-trigger.
func (w *Worker) failure(err error) Status {
	if syncclient.IsConnectivity(err) {
		return Offline{}
	}
	return Failed{Reason: err.Error()}
}
