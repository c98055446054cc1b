// Package syncclient defines the wire contract with the remote sync
// authority and an HTTP client implementing it.
package syncclient

import (
	"context"
	"encoding/json"
	"time"

	"github.com/domain80/centabit-core/internal/models"
)

// ChangeSet groups one entity kind's pending changes in a push request.
type ChangeSet struct {
	Created []json.RawMessage `json:"created"`
	Updated []json.RawMessage `json:"updated"`
	Deleted []DeletedRecord   `json:"deleted"`
}

// Empty reports whether the change set carries no records.
func (c ChangeSet) Empty() bool {
	return len(c.Created) == 0 && len(c.Updated) == 0 && len(c.Deleted) == 0
}

// DeletedRecord identifies a tombstone being propagated to the remote.
type DeletedRecord struct {
	ID        string    `json:"id"`
	DeletedAt time.Time `json:"deleted_at"`
}

// PushRequest submits local changes for one owner.
type PushRequest struct {
	OwnerID string                    `json:"owner_id"`
	Changes map[models.Kind]ChangeSet `json:"changes"`
}

// Conflict reports a record the remote refused because its stored copy
// disagrees with the pushed one.
type Conflict struct {
	EntityType    models.Kind     `json:"entity_type"`
	EntityID      string          `json:"entity_id"`
	RemoteVersion json.RawMessage `json:"remote_version"`
	Message       string          `json:"message"`
}

// PushResponse is the remote's verdict on a push.
type PushResponse struct {
	Success   bool       `json:"success"`
	Conflicts []Conflict `json:"conflicts,omitempty"`
}

// PullResponse carries every remote change since the requested watermark.
type PullResponse struct {
	Changes   map[models.Kind][]json.RawMessage `json:"changes"`
	Deletions map[models.Kind][]string          `json:"deletions"`
}

// Remote is the sync authority as seen by the worker. Implementations
// classify transport failures as connectivity errors and everything the
// remote answered with as remote errors (see internal/errors).
type Remote interface {
	Push(ctx context.Context, req PushRequest) (*PushResponse, error)
	Pull(ctx context.Context, ownerID string, since *time.Time) (*PullResponse, error)
}
