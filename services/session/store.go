// Package session owns the process-wide mapping from session identifier to
// conversation state, and serializes turns per session.
package session

import (
	"context"
	"errors"
	"sync"

	"meetingagent/models"
)

// ErrNotFound reports a session id with no stored state.
var ErrNotFound = errors.New("session not found")

// Store is the session persistence contract. Implementations guard their own
// structure against concurrent access from different sessions; turn ordering
// within one session is the Service's job.
type Store interface {
	Get(ctx context.Context, id string) (*models.Session, error)
	Put(ctx context.Context, id string, sess *models.Session) error
}

// MemoryStore is the default in-process store. Sessions are created on first
// message and never evicted; they live until process exit.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*models.Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*models.Session)}
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return sess, nil
}

func (s *MemoryStore) Put(ctx context.Context, id string, sess *models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = sess
	return nil
}

// Len reports how many sessions are held.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
