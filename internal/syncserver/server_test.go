package syncserver

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/domain80/centabit-core/internal/models"
	"github.com/domain80/centabit-core/internal/syncclient"
)

func doPush(t *testing.T, s *Server, req syncclient.PushRequest) (*httptest.ResponseRecorder, syncclient.PushResponse) {
	t.Helper()

	body, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshaling push request: %v", err)
	}
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/sync/push", bytes.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	s.Handler().ServeHTTP(w, r)

	var resp syncclient.PushResponse
	if w.Code == http.StatusOK {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decoding push response: %v", err)
		}
	}
	return w, resp
}

func doPull(t *testing.T, s *Server, ownerID string) syncclient.PullResponse {
	t.Helper()

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/sync/pull?owner_id="+ownerID, nil)
	s.Handler().ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("pull returned status %d", w.Code)
	}
	var resp syncclient.PullResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding pull response: %v", err)
	}
	return resp
}

func TestServerPush(t *testing.T) {
	t.Run("stores_creates", func(t *testing.T) {
		s := New()
		w, resp := doPush(t, s, syncclient.PushRequest{
			OwnerID: "u1",
			Changes: map[models.Kind]syncclient.ChangeSet{
				models.KindBudget: {Created: []json.RawMessage{
					json.RawMessage(`{"id":"b1","name":"Monthly","updated_at":"2026-03-01T00:00:00Z"}`),
				}},
			},
		})
		if w.Code != http.StatusOK || !resp.Success {
			t.Fatalf("expected a successful push, got status %d", w.Code)
		}

		pulled := doPull(t, s, "u1")
		if len(pulled.Changes[models.KindBudget]) != 1 {
			t.Errorf("expected the created record on pull, got %d", len(pulled.Changes[models.KindBudget]))
		}
	})

	t.Run("newer_stored_copy_conflicts", func(t *testing.T) {
		s := New()
		if err := s.Seed("u1", models.KindCategory, json.RawMessage(`{"id":"c1","name":"Stored","updated_at":"2026-03-02T00:00:00Z"}`)); err != nil {
			t.Fatalf("seed failed: %v", err)
		}

		_, resp := doPush(t, s, syncclient.PushRequest{
			OwnerID: "u1",
			Changes: map[models.Kind]syncclient.ChangeSet{
				models.KindCategory: {Updated: []json.RawMessage{
					json.RawMessage(`{"id":"c1","name":"Stale","updated_at":"2026-03-01T00:00:00Z"}`),
				}},
			},
		})
		if resp.Success {
			t.Error("expected the push to report a conflict")
		}
		if len(resp.Conflicts) != 1 {
			t.Fatalf("expected 1 conflict, got %d", len(resp.Conflicts))
		}
		c := resp.Conflicts[0]
		if c.EntityType != models.KindCategory || c.EntityID != "c1" {
			t.Errorf("conflict identifies the wrong record: %s/%s", c.EntityType, c.EntityID)
		}
		var remote struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal(c.RemoteVersion, &remote); err != nil || remote.Name != "Stored" {
			t.Error("expected the stored copy as the conflict's remote version")
		}
	})

	t.Run("older_stored_copy_is_overwritten", func(t *testing.T) {
		s := New()
		if err := s.Seed("u1", models.KindCategory, json.RawMessage(`{"id":"c1","name":"Stored","updated_at":"2026-03-01T00:00:00Z"}`)); err != nil {
			t.Fatalf("seed failed: %v", err)
		}

		_, resp := doPush(t, s, syncclient.PushRequest{
			OwnerID: "u1",
			Changes: map[models.Kind]syncclient.ChangeSet{
				models.KindCategory: {Updated: []json.RawMessage{
					json.RawMessage(`{"id":"c1","name":"Fresh","updated_at":"2026-03-02T00:00:00Z"}`),
				}},
			},
		})
		if !resp.Success {
			t.Fatal("expected a newer update to be accepted")
		}
	})

	t.Run("deletes_become_tombstones", func(t *testing.T) {
		s := New()
		if err := s.Seed("u1", models.KindBudget, json.RawMessage(`{"id":"b1","name":"Monthly","updated_at":"2026-03-01T00:00:00Z"}`)); err != nil {
			t.Fatalf("seed failed: %v", err)
		}

		_, resp := doPush(t, s, syncclient.PushRequest{
			OwnerID: "u1",
			Changes: map[models.Kind]syncclient.ChangeSet{
				models.KindBudget: {Deleted: []syncclient.DeletedRecord{
					{ID: "b1", DeletedAt: mustTime(t, "2026-03-03T00:00:00Z")},
				}},
			},
		})
		if !resp.Success {
			t.Fatal("expected the delete to be accepted")
		}

		pulled := doPull(t, s, "u1")
		if len(pulled.Changes[models.KindBudget]) != 0 {
			t.Error("a deleted record must not be pulled as a change")
		}
		if len(pulled.Deletions[models.KindBudget]) != 1 {
			t.Errorf("expected 1 deletion, got %d", len(pulled.Deletions[models.KindBudget]))
		}
	})

	t.Run("rejects_missing_owner", func(t *testing.T) {
		s := New()
		w, _ := doPush(t, s, syncclient.PushRequest{})
		if w.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", w.Code)
		}
	})
}

func TestServerPullValidation(t *testing.T) {
	s := New()

	t.Run("missing_owner", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/sync/pull", nil)
		s.Handler().ServeHTTP(w, r)
		if w.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", w.Code)
		}
	})

	t.Run("malformed_since", func(t *testing.T) {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/sync/pull?owner_id=u1&since=yesterday", nil)
		s.Handler().ServeHTTP(w, r)
		if w.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", w.Code)
		}
	})
}

func mustTime(t *testing.T, s string) time.Time {
	t.Helper()
	out, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatalf("parsing time %q: %v", s, err)
	}
	return out
}
