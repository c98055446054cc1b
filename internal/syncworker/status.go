package syncworker

import "time"

// Status is the closed set of states the worker reports over its status
// channel. The marker method keeps the set closed to this package, so a
// type switch over all five variants is exhaustive.
type Status interface{ syncStatus() }

// Idle means no sync round is running.
type Idle struct{}

// Syncing means a round is in progress. Triggers received now are
// collapsed into the running round, never stacked.
type Syncing struct{}

// Synced reports a fully completed round. CompletedAt becomes the pull
// watermark for the next round.
type Synced struct {
	CompletedAt time.Time
}

// Failed reports a structural or remote failure. Not retried
// automatically; the caller may re-trigger.
type Failed struct {
	Reason string
}

// Offline reports a connectivity failure. The worker retries silently on
// the next timer tick.
type Offline struct{}

func (Idle) syncStatus()    {}
func (Syncing) syncStatus() {}
func (Synced) syncStatus()  {}
func (Failed) syncStatus()  {}
func (Offline) syncStatus() {}
