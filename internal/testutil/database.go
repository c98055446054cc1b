// Package testutil provides test helpers for setting up in-memory
// databases, creating fixtures, and making assertions.
package testutil

import (
	"testing"
	"time"

	"github.com/domain80/centabit-core/internal/config"
	"github.com/domain80/centabit-core/internal/database"
)

// SetupTestDB creates an in-memory SQLite durable store with the full
// schema migrated.
func SetupTestDB(t *testing.T) *database.Manager {
	t.Helper()

	cfg := &config.Config{
		Env:      "test",
		DBDriver: "sqlite",
		DBPath:   "file::memory:?cache=shared",
	}
	m, err := database.Open(cfg)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	return m
}

// TeardownTestDB closes the manager and the underlying connection.
func TeardownTestDB(t *testing.T, m *database.Manager) {
	t.Helper()

	if err := m.Close(); err != nil {
		t.Errorf("failed to close test database: %v", err)
	}
}

// Receive reads one value from ch, failing the test after a timeout or
// if the channel closed.
func Receive[T any](t *testing.T, ch <-chan T) T {
	t.Helper()

	select {
	case v, ok := <-ch:
		if !ok {
			t.Fatal("channel closed while waiting for a value")
		}
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a value")
	}
	panic("unreachable")
}

// Eventually polls cond until it returns true, failing the test after a
// timeout. Used where a change propagates through the live-query path
// asynchronously.
func Eventually(t *testing.T, cond func() bool, msg string) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition never held: %s", msg)
}
