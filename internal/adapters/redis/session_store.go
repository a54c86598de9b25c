// Package redis provides Redis-backed session adapters.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	domainauth "github.com/bengkelink/bengkelink-web/internal/domain/auth"
	"github.com/bengkelink/bengkelink-web/internal/ports"
)

// DefaultSessionTTL bounds how long a scope's tokens are kept without activity.
// It outlives access tokens so expired ones can still be refreshed.
const DefaultSessionTTL = 7 * 24 * time.Hour

// SessionStoreOptions configures SessionStore.
type SessionStoreOptions struct {
	Prefix string
	TTL    time.Duration
}

// SessionStore keeps each client scope's identity tokens in Redis.
type SessionStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

var _ ports.SessionTokenStore = (*SessionStore)(nil)

// NewSessionStore creates a Redis session store.
func NewSessionStore(client redis.UniversalClient, opts SessionStoreOptions) *SessionStore {
	prefix := opts.Prefix
	if prefix == "" {
		prefix = "bengkelink:session:"
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionStore{client: client, prefix: prefix, ttl: ttl}
}

// Save writes the scope's session and resets its TTL.
func (s *SessionStore) Save(ctx context.Context, scopeID string, sess domainauth.Session) error {
	if scopeID == "" {
		return errors.New("scope ID cannot be empty")
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := s.client.Set(ctx, s.prefix+scopeID, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Get returns the scope's session or ports.ErrSessionNotFound.
func (s *SessionStore) Get(ctx context.Context, scopeID string) (domainauth.Session, error) {
	if scopeID == "" {
		return domainauth.Session{}, ports.ErrSessionNotFound
	}
	data, err := s.client.Get(ctx, s.prefix+scopeID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domainauth.Session{}, ports.ErrSessionNotFound
		}
		return domainauth.Session{}, fmt.Errorf("redis get: %w", err)
	}

	var sess domainauth.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return domainauth.Session{}, fmt.Errorf("unmarshal session: %w", err)
	}
	return sess, nil
}

// Delete removes the scope's session. Deleting a missing session is not an error.
func (s *SessionStore) Delete(ctx context.Context, scopeID string) error {
	if scopeID == "" {
		return nil
	}
	if err := s.client.Del(ctx, s.prefix+scopeID).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
