// Package conflict resolves disagreements between a pending local record
// and its remote counterpart.
package conflict

import "github.com/domain80/centabit-core/internal/models"

// Resolve picks the winning record under last-write-wins: the strictly
// later updated_at wins in full, never a field-level merge. On an exact
// timestamp tie the remote record wins, so every device converges on the
// same state without a tie-break round trip.
//
// When the local record loses, its edits are discarded wholesale. That
// is a deliberate trade-off: true concurrent edits to the same record
// can lose user data, in exchange for guaranteed convergence.
func Resolve[T any, P models.Syncable[T]](local, remote P) P {
	if local.Meta().UpdatedAt.After(remote.Meta().UpdatedAt) {
		return local
	}
	return remote
}
