package syncworker_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/domain80/centabit-core/internal/database"
	"github.com/domain80/centabit-core/internal/models"
	"github.com/domain80/centabit-core/internal/store"
	"github.com/domain80/centabit-core/internal/syncclient"
	"github.com/domain80/centabit-core/internal/syncserver"
	"github.com/domain80/centabit-core/internal/syncworker"
	"github.com/domain80/centabit-core/internal/testutil"
	"github.com/domain80/centabit-core/internal/uuid"
)

// testInterval is long enough that timer ticks never interfere; rounds
// in these tests run on manual triggers only.
const testInterval = time.Hour

func setupWorker(t *testing.T) (*database.Manager, *syncserver.Server, *syncworker.Worker, string) {
	t.Helper()

	m := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, m) })

	remote := syncserver.New()
	srv := httptest.NewServer(remote.Handler())
	t.Cleanup(srv.Close)

	ownerID := uuid.New()
	w := syncworker.New(m, syncclient.NewHTTPClient(srv.URL, srv.Client()), ownerID, testInterval)
	if err := w.Start(); err != nil {
		t.Fatalf("failed to start worker: %v", err)
	}
	t.Cleanup(w.Stop)
	return m, remote, w, ownerID
}

// waitFor consumes the status channel until a status matching the
// predicate arrives.
func waitFor(t *testing.T, ch <-chan syncworker.Status, what string, match func(syncworker.Status) bool) syncworker.Status {
	t.Helper()

	deadline := time.After(5 * time.Second)
	for {
		select {
		case s, ok := <-ch:
			if !ok {
				t.Fatalf("status channel closed while waiting for %s", what)
			}
			if match(s) {
				return s
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s", what)
		}
	}
}

func isSynced(s syncworker.Status) bool {
	_, ok := s.(syncworker.Synced)
	return ok
}

func TestWorkerStart(t *testing.T) {
	_, _, w, _ := setupWorker(t)

	t.Run("reports_idle_after_handshake", func(t *testing.T) {
		waitFor(t, w.Status(), "the initial idle status", func(s syncworker.Status) bool {
			_, ok := s.(syncworker.Idle)
			return ok
		})
	})

	t.Run("start_is_idempotent", func(t *testing.T) {
		if err := w.Start(); err != nil {
			t.Fatalf("second Start failed: %v", err)
		}
	})

	t.Run("stop_closes_status", func(t *testing.T) {
		status := w.Status()
		w.Stop()
		testutil.Eventually(t, func() bool {
			select {
			case _, ok := <-status:
				return !ok
			default:
				return false
			}
		}, "status channel should close on Stop")
	})
}

func TestWorkerRound(t *testing.T) {
	m, remote, w, ownerID := setupWorker(t)

	txStore := store.NewTransactionStore(m, ownerID)
	tx := testutil.CreateTestTransaction(t, txStore, "45.99")

	// A record another device already pushed, waiting to be pulled.
	catStore := store.NewCategoryStore(m, ownerID)
	pulled := models.Category{
		SyncEnvelope: models.SyncEnvelope{
			ID:        uuid.New(),
			OwnerID:   ownerID,
			CreatedAt: time.Now().UTC().Add(-time.Hour),
			UpdatedAt: time.Now().UTC().Add(-time.Hour),
		},
		Name: "From Another Device",
	}
	payload, err := json.Marshal(&pulled)
	testutil.AssertNoError(t, err)
	testutil.AssertNoError(t, remote.Seed(ownerID, models.KindCategory, payload))

	w.TriggerSync()
	waitFor(t, w.Status(), "a completed round", isSynced)

	t.Run("pushes_local_changes", func(t *testing.T) {
		got, err := txStore.GetByID(tx.ID)
		testutil.AssertNoError(t, err)
		if !got.IsSynced {
			t.Error("expected the pushed record to be acknowledged")
		}
		if got.LastSyncedAt == nil {
			t.Error("expected last_synced_at to be set")
		}
		if !got.UpdatedAt.Equal(tx.UpdatedAt) {
			t.Error("acknowledgment must not bump updated_at")
		}
	})

	t.Run("pulls_remote_changes", func(t *testing.T) {
		got, err := catStore.GetByID(pulled.ID)
		testutil.AssertNoError(t, err)
		if got.Name != "From Another Device" {
			t.Errorf("expected the pulled record, got %q", got.Name)
		}
		if !got.IsSynced {
			t.Error("expected the pulled record to be flagged synced")
		}
	})

	t.Run("advances_watermark", func(t *testing.T) {
		at, err := store.NewCheckpointStore(m, ownerID).Get()
		testutil.AssertNoError(t, err)
		if at == nil {
			t.Fatal("expected a watermark after a completed round")
		}
	})

	t.Run("records_intent", func(t *testing.T) {
		intents, err := store.NewIntentStore(m, ownerID).List()
		testutil.AssertNoError(t, err)
		if len(intents) != 1 {
			t.Fatalf("expected 1 intent, got %d", len(intents))
		}
		if intents[0].EntityID != tx.ID || intents[0].Operation != models.SyncOpCreate {
			t.Error("intent does not describe the pushed create")
		}
	})
}

func TestWorkerTriggerCollapse(t *testing.T) {
	m, remote, w, ownerID := setupWorker(t)

	txStore := store.NewTransactionStore(m, ownerID)
	testutil.CreateTestTransaction(t, txStore, "10.00")
	testutil.CreateTestTransaction(t, txStore, "20.00")

	status := w.Status()
	w.TriggerSync()
	w.TriggerSync()
	w.TriggerSync()

	waitFor(t, status, "a completed round", isSynced)
	// Give any collapsed follow-up round time to run; it has nothing
	// left to push, so the push count must not move.
	testutil.Eventually(t, func() bool {
		rows, err := txStore.ListUnsynced()
		return err == nil && len(rows) == 0
	}, "all records should be acknowledged")

	if calls := remote.PushCalls(); calls != 1 {
		t.Errorf("expected the burst to collapse into 1 push, got %d", calls)
	}
}

func TestWorkerDeletePropagation(t *testing.T) {
	m, remote, w, ownerID := setupWorker(t)

	budgetStore := store.NewBudgetStore(m, ownerID)
	budget := testutil.CreateTestBudget(t, budgetStore)

	status := w.Status()
	w.TriggerSync()
	waitFor(t, status, "the first round", isSynced)

	testutil.AssertNoError(t, budgetStore.Delete(budget.ID))
	w.TriggerSync()
	waitFor(t, status, "the second round", isSynced)

	got, err := budgetStore.GetByID(budget.ID)
	testutil.AssertNoError(t, err)
	if !got.IsDeleted || !got.IsSynced {
		t.Error("expected an acknowledged tombstone")
	}

	// The remote reports the deletion to other devices.
	resp := pullDirect(t, remote, ownerID)
	found := false
	for _, id := range resp.Deletions[models.KindBudget] {
		if id == budget.ID {
			found = true
		}
	}
	if !found {
		t.Error("expected the remote to report the deletion")
	}
}

func pullDirect(t *testing.T, remote *syncserver.Server, ownerID string) syncclient.PullResponse {
	t.Helper()

	srv := httptest.NewServer(remote.Handler())
	defer srv.Close()
	client := syncclient.NewHTTPClient(srv.URL, srv.Client())
	resp, err := client.Pull(context.Background(), ownerID, nil)
	if err != nil {
		t.Fatalf("pull failed: %v", err)
	}
	return *resp
}

func TestWorkerPushConflict(t *testing.T) {
	m, remote, w, ownerID := setupWorker(t)

	catStore := store.NewCategoryStore(m, ownerID)
	cat := testutil.CreateTestCategory(t, catStore)
	testutil.AssertNoError(t, catStore.MarkSynced(cat.ID, time.Now().UTC()))

	cat.Name = "Local Edit"
	testutil.AssertNoError(t, catStore.Update(cat))

	// Another device already pushed a newer version of the same record.
	newer := models.Category{
		SyncEnvelope: models.SyncEnvelope{
			ID:        cat.ID,
			OwnerID:   ownerID,
			CreatedAt: cat.CreatedAt,
			UpdatedAt: time.Now().UTC().Add(time.Hour),
		},
		Name: "Remote Edit",
	}
	payload, err := json.Marshal(&newer)
	testutil.AssertNoError(t, err)
	testutil.AssertNoError(t, remote.Seed(ownerID, models.KindCategory, payload))

	status := w.Status()
	w.TriggerSync()
	waitFor(t, status, "a completed round", isSynced)

	got, err := catStore.GetByID(cat.ID)
	testutil.AssertNoError(t, err)
	if got.Name != "Remote Edit" {
		t.Errorf("expected the newer remote version to win, got %q", got.Name)
	}
	if !got.IsSynced {
		t.Error("expected the reconciled record to be flagged synced")
	}
}

func TestWorkerFailureClassification(t *testing.T) {
	t.Run("unreachable_remote_reports_offline", func(t *testing.T) {
		m := testutil.SetupTestDB(t)
		t.Cleanup(func() { testutil.TeardownTestDB(t, m) })

		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		ownerID := uuid.New()
		txStore := store.NewTransactionStore(m, ownerID)
		tx := testutil.CreateTestTransaction(t, txStore, "5.00")

		w := syncworker.New(m, syncclient.NewHTTPClient(url, nil), ownerID, testInterval)
		if err := w.Start(); err != nil {
			t.Fatalf("failed to start worker: %v", err)
		}
		t.Cleanup(w.Stop)

		status := w.Status()
		w.TriggerSync()
		waitFor(t, status, "the offline status", func(s syncworker.Status) bool {
			_, ok := s.(syncworker.Offline)
			return ok
		})

		got, err := txStore.GetByID(tx.ID)
		testutil.AssertNoError(t, err)
		if got.IsSynced {
			t.Error("an unreachable remote must leave records pending")
		}
	})

	t.Run("remote_error_reports_failed", func(t *testing.T) {
		m := testutil.SetupTestDB(t)
		t.Cleanup(func() { testutil.TeardownTestDB(t, m) })

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		t.Cleanup(srv.Close)

		ownerID := uuid.New()
		w := syncworker.New(m, syncclient.NewHTTPClient(srv.URL, srv.Client()), ownerID, testInterval)
		if err := w.Start(); err != nil {
			t.Fatalf("failed to start worker: %v", err)
		}
		t.Cleanup(w.Stop)

		status := w.Status()
		w.TriggerSync()
		outcome := waitFor(t, status, "the failed status", func(s syncworker.Status) bool {
			_, ok := s.(syncworker.Failed)
			return ok
		})
		if outcome.(syncworker.Failed).Reason == "" {
			t.Error("expected a failure reason")
		}
	})
}

func TestWorkerRespawn(t *testing.T) {
	_, _, w, _ := setupWorker(t)

	w.Stop()

	// A trigger on a dead worker respawns it and queues the round.
	w.TriggerSync()
	waitFor(t, w.Status(), "a completed round after respawn", isSynced)
}
