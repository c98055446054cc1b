package testutil

import (
	"errors"
	"testing"

	apperrors "github.com/domain80/centabit-core/internal/errors"
	"github.com/domain80/centabit-core/internal/models"
)

// AssertNoError fails the test immediately when err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertAppError checks that err carries the given application error
// code somewhere in its chain.
func AssertAppError(t *testing.T, err error, code string) {
	t.Helper()

	if err == nil {
		t.Fatalf("expected error code %q, got nil", code)
	}
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected an application error, got %T: %v", err, err)
	}
	if appErr.Code != code {
		t.Errorf("error code: want %q, got %q (%s)", code, appErr.Code, appErr.Message)
	}
}

// AssertPendingSync checks the envelope flags of a record that has been
// written locally but not yet acknowledged by the remote.
func AssertPendingSync(t *testing.T, rec models.Record) {
	t.Helper()

	meta := rec.Meta()
	if meta.IsSynced {
		t.Errorf("%s %s: expected is_synced=false", rec.EntityKind(), meta.ID)
	}
	if meta.LastSyncedAt != nil {
		t.Errorf("%s %s: expected last_synced_at to be unset, got %v", rec.EntityKind(), meta.ID, meta.LastSyncedAt)
	}
}
