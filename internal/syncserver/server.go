// Package syncserver provides an in-memory reference implementation of
// the sync authority contract. It backs the worker and client tests and
// documents the expected remote behaviour until a production backend
// exists.
package syncserver

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/domain80/centabit-core/internal/models"
	"github.com/domain80/centabit-core/internal/syncclient"
)

// recordEnvelope is the slice of a record payload the server needs to
// inspect; the rest of the payload is stored opaquely.
type recordEnvelope struct {
	ID        string    `json:"id"`
	UpdatedAt time.Time `json:"updated_at"`
}

type storedRecord struct {
	payload   json.RawMessage
	updatedAt time.Time
	deleted   bool
	deletedAt time.Time
}

// Server holds per-owner, per-kind record state and serves the push/pull
// endpoints.
type Server struct {
	mu        sync.Mutex
	data      map[string]map[models.Kind]map[string]*storedRecord
	pushCalls int

	engine *gin.Engine
}

// New creates an empty reference sync authority.
func New() *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{data: make(map[string]map[models.Kind]map[string]*storedRecord)}

	engine := gin.New()
	engine.POST("/sync/push", s.handlePush)
	engine.GET("/sync/pull", s.handlePull)
	s.engine = engine
	return s
}

// Handler returns the HTTP handler serving the sync contract.
func (s *Server) Handler() http.Handler { return s.engine }

// PushCalls returns how many push requests the server has received.
func (s *Server) PushCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pushCalls
}

// Seed stores a record payload directly, bypassing the push endpoint.
// The payload must carry the envelope fields.
func (s *Server) Seed(ownerID string, kind models.Kind, payload json.RawMessage) error {
	var env recordEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bucket(ownerID, kind)[env.ID] = &storedRecord{payload: payload, updatedAt: env.UpdatedAt}
	return nil
}

func (s *Server) handlePush(c *gin.Context) {
	var req syncclient.PushRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed push request"})
		return
	}
	if req.OwnerID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "owner_id is required"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.pushCalls++

	var conflicts []syncclient.Conflict
	for kind, changes := range req.Changes {
		bucket := s.bucket(req.OwnerID, kind)

		for _, payload := range changes.Created {
			var env recordEnvelope
			if err := json.Unmarshal(payload, &env); err != nil || env.ID == "" {
				c.JSON(http.StatusBadRequest, gin.H{"error": "malformed created record"})
				return
			}
			bucket[env.ID] = &storedRecord{payload: payload, updatedAt: env.UpdatedAt}
		}

		for _, payload := range changes.Updated {
			var env recordEnvelope
			if err := json.Unmarshal(payload, &env); err != nil || env.ID == "" {
				c.JSON(http.StatusBadRequest, gin.H{"error": "malformed updated record"})
				return
			}
			if existing, ok := bucket[env.ID]; ok && existing.updatedAt.After(env.UpdatedAt) {
				conflicts = append(conflicts, syncclient.Conflict{
					EntityType:    kind,
					EntityID:      env.ID,
					RemoteVersion: existing.payload,
					Message:       "stored copy is newer than the pushed record",
				})
				continue
			}
			bucket[env.ID] = &storedRecord{payload: payload, updatedAt: env.UpdatedAt}
		}

		for _, del := range changes.Deleted {
			rec, ok := bucket[del.ID]
			if !ok {
				rec = &storedRecord{}
				bucket[del.ID] = rec
			}
			rec.deleted = true
			rec.deletedAt = del.DeletedAt
		}
	}

	c.JSON(http.StatusOK, syncclient.PushResponse{
		Success:   len(conflicts) == 0,
		Conflicts: conflicts,
	})
}

func (s *Server) handlePull(c *gin.Context) {
	ownerID := c.Query("owner_id")
	if ownerID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "owner_id is required"})
		return
	}

	var since time.Time
	if raw := c.Query("since"); raw != "" {
		parsed, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "malformed since timestamp"})
			return
		}
		since = parsed
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	resp := syncclient.PullResponse{
		Changes:   make(map[models.Kind][]json.RawMessage),
		Deletions: make(map[models.Kind][]string),
	}
	for kind, bucket := range s.data[ownerID] {
		for id, rec := range bucket {
			if rec.deleted {
				if rec.deletedAt.After(since) {
					resp.Deletions[kind] = append(resp.Deletions[kind], id)
				}
				continue
			}
			if rec.updatedAt.After(since) {
				resp.Changes[kind] = append(resp.Changes[kind], rec.payload)
			}
		}
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) bucket(ownerID string, kind models.Kind) map[string]*storedRecord {
	byKind, ok := s.data[ownerID]
	if !ok {
		byKind = make(map[models.Kind]map[string]*storedRecord)
		s.data[ownerID] = byKind
	}
	byID, ok := byKind[kind]
	if !ok {
		byID = make(map[string]*storedRecord)
		byKind[kind] = byID
	}
	return byID
}
