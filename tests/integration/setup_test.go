package integration

import (
	"fmt"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/domain80/centabit-core/internal/config"
	"github.com/domain80/centabit-core/internal/database"
	"github.com/domain80/centabit-core/internal/logger"
	"github.com/domain80/centabit-core/internal/syncclient"
	"github.com/domain80/centabit-core/internal/syncserver"
	"github.com/domain80/centabit-core/internal/syncworker"
)

// device holds one simulated device's full stack: its own durable store
// and its own sync worker, talking to a shared remote authority.
type device struct {
	DB     *database.Manager
	Worker *syncworker.Worker
}

// dbCounter ensures each device gets a unique in-memory database.
var dbCounter atomic.Int64

func init() {
	logger.Init("test")
}

// newDevice creates an isolated device for the given owner, wired to the
// given remote. The worker runs on manual triggers only.
func newDevice(t *testing.T, srv *httptest.Server, ownerID string) *device {
	t.Helper()

	n := dbCounter.Add(1)
	cfg := &config.Config{
		Env:      "test",
		DBDriver: "sqlite",
		DBPath:   fmt.Sprintf("file:devicedb%d?mode=memory&cache=shared", n),
	}
	m, err := database.Open(cfg)
	if err != nil {
		t.Fatalf("failed to open device database: %v", err)
	}
	t.Cleanup(func() { _ = m.Close() })

	w := syncworker.New(m, syncclient.NewHTTPClient(srv.URL, srv.Client()), ownerID, time.Hour)
	if err := w.Start(); err != nil {
		t.Fatalf("failed to start sync worker: %v", err)
	}
	t.Cleanup(w.Stop)

	return &device{DB: m, Worker: w}
}

// newRemote starts a shared in-memory sync authority.
func newRemote(t *testing.T) (*syncserver.Server, *httptest.Server) {
	t.Helper()

	remote := syncserver.New()
	srv := httptest.NewServer(remote.Handler())
	t.Cleanup(srv.Close)
	return remote, srv
}

// syncAndWait triggers one round and blocks until it completes.
func (d *device) syncAndWait(t *testing.T) {
	t.Helper()

	status := d.Worker.Status()
	d.Worker.TriggerSync()

	deadline := time.After(5 * time.Second)
	for {
		select {
		case s, ok := <-status:
			if !ok {
				t.Fatal("status channel closed mid-round")
			}
			switch v := s.(type) {
			case syncworker.Synced:
				return
			case syncworker.Failed:
				t.Fatalf("sync round failed: %s", v.Reason)
			case syncworker.Offline:
				t.Fatal("sync round reported offline against a live remote")
			}
		case <-deadline:
			t.Fatal("timed out waiting for the sync round")
		}
	}
}
