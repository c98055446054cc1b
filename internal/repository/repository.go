// Package repository makes each entity's collection observable and
// synchronously readable. A repository subscribes exactly once to its
// store's live query, keeps an immutable cached snapshot, and multicasts
// every re-evaluation to all subscribers.
package repository

import (
	"context"
	"sync"

	apperrors "github.com/domain80/centabit-core/internal/errors"
	"github.com/domain80/centabit-core/internal/models"
	"github.com/domain80/centabit-core/internal/store"
)

// Repository caches one entity's live collection. Mutations delegate to
// the store and never touch the cache directly: the cache changes only
// through the live-query round trip, so it can never diverge from
// storage, even transiently.
type Repository[T any, P models.Syncable[T]] struct {
	store *store.Store[T, P]

	// beforeCreate lets an entity apply product defaults before the
	// record is validated and written.
	beforeCreate func(P)

	mu       sync.RWMutex
	snapshot []T
	subs     map[int]chan []T
	nextID   int
	closed   bool

	cancel context.CancelFunc
	done   chan struct{}
}

func newRepository[T any, P models.Syncable[T]](st *store.Store[T, P], beforeCreate func(P)) *Repository[T, P] {
	ctx, cancel := context.WithCancel(context.Background())
	r := &Repository[T, P]{
		store:        st,
		beforeCreate: beforeCreate,
		subs:         make(map[int]chan []T),
		cancel:       cancel,
		done:         make(chan struct{}),
	}

	// Subscribe once, for the repository's whole lifetime.
	watch := st.WatchAll(ctx)
	go func() {
		defer close(r.done)
		for rows := range watch {
			r.publish(rows)
		}
	}()
	return r
}

// Snapshot returns the last cached collection. Synchronous, zero I/O,
// never blocks. The returned slice is replaced wholesale on every
// emission and must not be mutated by the caller.
func (r *Repository[T, P]) Snapshot() []T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshot
}

// Stream subscribes to the repository's multicast stream. The subscriber
// immediately receives the current snapshot, then every subsequent
// emission. Slow subscribers get latest-value delivery: a pending
// emission is displaced by a newer one rather than blocking the fan-out.
// The cancel function releases the subscription.
func (r *Repository[T, P]) Stream() (<-chan []T, func()) {
	r.mu.Lock()

	ch := make(chan []T, 1)
	if r.closed {
		r.mu.Unlock()
		close(ch)
		return ch, func() {}
	}

	id := r.nextID
	r.nextID++
	r.subs[id] = ch

	// Replay the last-known snapshot so a fresh subscriber paints
	// consistent data without waiting for the next commit.
	offer(ch, r.snapshot)
	r.mu.Unlock()

	cancel := func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if sub, ok := r.subs[id]; ok {
			delete(r.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Create validates the model and writes it through the store. The cache
// is not updated optimistically; it follows from the commit.
func (r *Repository[T, P]) Create(rec P) error {
	if r.beforeCreate != nil {
		r.beforeCreate(rec)
	}
	if err := models.Validate(rec); err != nil {
		return apperrors.Wrap(apperrors.ErrInvalidInput, err)
	}
	return r.store.Create(rec)
}

// Update validates the model and writes it through the store.
func (r *Repository[T, P]) Update(rec P) error {
	if err := models.Validate(rec); err != nil {
		return apperrors.Wrap(apperrors.ErrInvalidInput, err)
	}
	return r.store.Update(rec)
}

// Delete soft-deletes the record through the store.
func (r *Repository[T, P]) Delete(id string) error {
	return r.store.Delete(id)
}

// GetByID performs a one-shot scoped read through the store. Tombstones
// are returned.
func (r *Repository[T, P]) GetByID(id string) (P, error) {
	return r.store.GetByID(id)
}

// Close cancels the live-query subscription and closes the multicast
// stream. Reads after Close are a programming error.
func (r *Repository[T, P]) Close() {
	r.cancel()
	<-r.done

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.closed = true
	for id, ch := range r.subs {
		delete(r.subs, id)
		close(ch)
	}
}

func (r *Repository[T, P]) publish(rows []T) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshot = rows
	// offer never blocks, so fanning out under the lock is safe and
	// keeps emissions ordered with subscription changes.
	for _, ch := range r.subs {
		offer(ch, rows)
	}
}

// offer delivers rows with latest-value semantics: if the subscriber has
// not consumed the previous emission, it is displaced.
func offer[T any](ch chan []T, rows []T) {
	for {
		select {
		case ch <- rows:
			return
		default:
			select {
			case <-ch:
			default:
			}
		}
	}
}
