package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"learnhub-service/internal/domain"
)

// SessionStore keeps the per-session resume slot in Redis so any instance can
// resume a user after upgrading. It implements app.ResumeStore.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

func (s *SessionStore) Remember(ctx context.Context, sessionID string, p domain.PendingResource) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key(sessionID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("remember pending resource: %w", err)
	}
	return nil
}

// Take reads and deletes the slot in one round trip.
func (s *SessionStore) Take(ctx context.Context, sessionID string) (domain.PendingResource, bool, error) {
	return s.decode(s.client.GetDel(ctx, s.key(sessionID)).Bytes())
}

func (s *SessionStore) Peek(ctx context.Context, sessionID string) (domain.PendingResource, bool, error) {
	return s.decode(s.client.Get(ctx, s.key(sessionID)).Bytes())
}

func (s *SessionStore) decode(raw []byte, err error) (domain.PendingResource, bool, error) {
	if errors.Is(err, redis.Nil) {
		return domain.PendingResource{}, false, nil
	}
	if err != nil {
		return domain.PendingResource{}, false, fmt.Errorf("read pending resource: %w", err)
	}
	var p domain.PendingResource
	if err := json.Unmarshal(raw, &p); err != nil {
		return domain.PendingResource{}, false, fmt.Errorf("decode pending resource: %w", err)
	}
	return p, true, nil
}

func (s *SessionStore) key(sessionID string) string {
	return "learnhub:session:" + sessionID + ":pending"
}
