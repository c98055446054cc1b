// Package syncworker runs the background synchronization worker. The
// worker lives on its own goroutine and shares no state with the main
// context: the main context fires commands over a bounded channel and
// learns outcomes over the status channel, never by blocking on the
// worker.
package syncworker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/domain80/centabit-core/internal/database"
	"github.com/domain80/centabit-core/internal/logger"
	"github.com/domain80/centabit-core/internal/models"
	"github.com/domain80/centabit-core/internal/store"
	"github.com/domain80/centabit-core/internal/syncclient"
)

type command int

const cmdSync command = iota

const (
	commandBuffer = 8
	statusBuffer  = 16
)

// Worker reconciles locally unsynced rows with the remote authority on a
// timer and on demand. Started once per process; a crashed worker is
// respawned on the next trigger.
type Worker struct {
	remote   syncclient.Remote
	ownerID  string
	interval time.Duration

	syncers     []kindSyncer
	intents     *store.IntentStore
	checkpoints *store.CheckpointStore

	mu     sync.Mutex
	status chan Status
	cmds   chan command
	done   chan struct{}
	cancel context.CancelFunc
}

// New creates a worker for the given owner. The worker builds its own
// store accessors over the manager connection; it holds no repositories.
func New(m *database.Manager, remote syncclient.Remote, ownerID string, interval time.Duration) *Worker {
	return &Worker{
		remote:   remote,
		ownerID:  ownerID,
		interval: interval,
		syncers: []kindSyncer{
			newTypedSyncer[models.Transaction](m, ownerID),
			newTypedSyncer[models.Category](m, ownerID),
			newTypedSyncer[models.Budget](m, ownerID),
			newTypedSyncer[models.Allocation](m, ownerID),
		},
		intents:     store.NewIntentStore(m, ownerID),
		checkpoints: store.NewCheckpointStore(m, ownerID),
	}
}

// Start spawns the worker goroutine and blocks until the startup
// handshake completes: the worker owns its command channel and hands the
// reply address back over the status path before any command can be
// sent.
func (w *Worker) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.startLocked()
}

func (w *Worker) startLocked() error {
	if w.done != nil {
		select {
		case <-w.done:
			// Previous worker exited; fall through and respawn.
		default:
			return nil
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	w.cancel = cancel
	w.status = make(chan Status, statusBuffer)
	w.done = make(chan struct{})

	ready := make(chan chan command, 1)
	go w.run(ctx, w.status, w.done, ready)

	select {
	case cmds := <-ready:
		w.cmds = cmds
	case <-w.done:
		return fmt.Errorf("sync worker exited before completing its handshake")
	}
	return nil
}

// TriggerSync requests a sync round. Non-blocking: a trigger arriving
// while the command buffer is full is collapsed into the pending round.
// A dead worker is respawned first.
func (w *Worker) TriggerSync() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.done == nil {
		if err := w.startLocked(); err != nil {
			logger.Get().Errorw("sync worker respawn failed", "error", err)
			return
		}
	} else {
		select {
		case <-w.done:
			if err := w.startLocked(); err != nil {
				logger.Get().Errorw("sync worker respawn failed", "error", err)
				return
			}
		default:
		}
	}

	select {
	case w.cmds <- cmdSync:
	default:
	}
}

// Status returns the worker→main status channel. The channel closes when
// the worker exits; consumers treat closure as a Failed outcome.
func (w *Worker) Status() <-chan Status {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.status
}

// Stop tears the worker down. A round in flight runs to completion or
// failure; no partial-round rollback is attempted, the idempotent
// row-level flag updates make the next round safely resumable.
func (w *Worker) Stop() {
	w.mu.Lock()
	cancel := w.cancel
	done := w.done
	w.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (w *Worker) run(ctx context.Context, status chan Status, done chan struct{}, ready chan chan command) {
	defer close(done)
	defer close(status)

	cmds := make(chan command, commandBuffer)
	ready <- cmds

	emit(status, Idle{})

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.round(ctx, status, cmds)
		case <-cmds:
			w.round(ctx, status, cmds)
		}
	}
}

func (w *Worker) round(ctx context.Context, status chan Status, cmds chan command) {
	// Collapse triggers that piled up while this round was pending; one
	// round serves them all.
	for drained := false; !drained; {
		select {
		case <-cmds:
		default:
			drained = true
		}
	}

	emit(status, Syncing{})
	outcome := w.sync(ctx)
	switch s := outcome.(type) {
	case Synced:
		logger.Get().Infow("sync round completed", "owner", w.ownerID, "completed_at", s.CompletedAt)
	case Offline:
		logger.Get().Infow("sync round deferred, remote unreachable", "owner", w.ownerID)
	case Failed:
		logger.Get().Errorw("sync round failed", "owner", w.ownerID, "reason", s.Reason)
	}
	emit(status, outcome)
	emit(status, Idle{})
}

// emit delivers with latest-value semantics so a slow status consumer
// never blocks the worker.
func emit(ch chan Status, s Status) {
	for {
		select {
		case ch <- s:
			return
		default:
			select {
			case <-ch:
			default:
			}
		}
	}
}
