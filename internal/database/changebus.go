package database

import "sync"

// changeBus fans out per-table commit notifications to live-query
// watchers. Subscriber channels have capacity one and sends never block:
// a notification arriving while one is already pending is dropped, which
// coalesces bursts. The watcher re-queries current state on wakeup, so a
// dropped signal never loses data.
type changeBus struct {
	mu     sync.Mutex
	subs   map[string]map[int]chan struct{}
	nextID int
	closed bool
}

func newChangeBus() *changeBus {
	return &changeBus{subs: make(map[string]map[int]chan struct{})}
}

func (b *changeBus) subscribe(table string) (<-chan struct{}, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan struct{}, 1)
	if b.closed {
		close(ch)
		return ch, func() {}
	}

	id := b.nextID
	b.nextID++
	if b.subs[table] == nil {
		b.subs[table] = make(map[int]chan struct{})
	}
	b.subs[table][id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if set, ok := b.subs[table]; ok {
			if _, ok := set[id]; ok {
				delete(set, id)
				close(ch)
			}
		}
	}
	return ch, cancel
}

func (b *changeBus) notify(table string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	for _, ch := range b.subs[table] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}

func (b *changeBus) close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, set := range b.subs {
		for id, ch := range set {
			delete(set, id)
			close(ch)
		}
	}
}
