package memory

import (
	"context"
	"sync"
	"time"

	"learnhub-service/internal/domain"
)

// SessionStore keeps the per-session resume slot in process memory.
// It implements app.ResumeStore.
type SessionStore struct {
	ttl   time.Duration
	clock func() time.Time

	mu    sync.Mutex
	slots map[string]slot
}

type slot struct {
	pending   domain.PendingResource
	expiresAt time.Time
}

// NewSessionStore returns a store whose slots expire after ttl; ttl <= 0 keeps them forever.
func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		ttl:   ttl,
		clock: time.Now,
		slots: make(map[string]slot),
	}
}

func (s *SessionStore) Remember(_ context.Context, sessionID string, p domain.PendingResource) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry := slot{pending: p}
	if s.ttl > 0 {
		entry.expiresAt = s.clock().Add(s.ttl)
	}
	s.slots[sessionID] = entry
	return nil
}

func (s *SessionStore) Take(_ context.Context, sessionID string) (domain.PendingResource, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.liveLocked(sessionID)
	delete(s.slots, sessionID)
	return p, ok, nil
}

func (s *SessionStore) Peek(_ context.Context, sessionID string) (domain.PendingResource, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.liveLocked(sessionID)
	return p, ok, nil
}

func (s *SessionStore) liveLocked(sessionID string) (domain.PendingResource, bool) {
	entry, ok := s.slots[sessionID]
	if !ok {
		return domain.PendingResource{}, false
	}
	if !entry.expiresAt.IsZero() && !entry.expiresAt.After(s.clock()) {
		delete(s.slots, sessionID)
		return domain.PendingResource{}, false
	}
	return entry.pending, true
}
