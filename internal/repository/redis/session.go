package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/utafrali/readrate/internal/repository"
	apperrors "github.com/utafrali/readrate/pkg/errors"
)

const (
	sessionPrefix     = "session:"
	userSessionPrefix = "user_sessions:"
)

// SessionStore implements repository.SessionStore using Redis. Each session is
// a string key holding the user id; a per-user set indexes the tokens so all
// of a user's sessions can be ended at once.
type SessionStore struct {
	client redis.UniversalClient
}

// NewSessionStore creates a Redis-backed session store.
func NewSessionStore(client redis.UniversalClient) *SessionStore {
	return &SessionStore{client: client}
}

// Create stores a new session for userID.
func (s *SessionStore) Create(ctx context.Context, userID string, ttl time.Duration) (string, error) {
	token := repository.NewSessionToken()
	userKey := userSessionPrefix + userID

	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, sessionPrefix+token, userID, ttl)
		p.SAdd(ctx, userKey, token)
		p.Expire(ctx, userKey, ttl)
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("redis create session: %w", err)
	}
	return token, nil
}

// Resolve returns the user id bound to token.
func (s *SessionStore) Resolve(ctx context.Context, token string) (string, error) {
	userID, err := s.client.Get(ctx, sessionPrefix+token).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", apperrors.NotFound("session", "token")
		}
		return "", fmt.Errorf("redis get session: %w", err)
	}
	return userID, nil
}

// Delete ends the session for token.
func (s *SessionStore) Delete(ctx context.Context, token string) error {
	key := sessionPrefix + token

	userID, err := s.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("redis get session: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, key)
		p.SRem(ctx, userSessionPrefix+userID, token)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis delete session: %w", err)
	}
	return nil
}

// DeleteAllForUser ends every session of userID.
func (s *SessionStore) DeleteAllForUser(ctx context.Context, userID string) error {
	userKey := userSessionPrefix + userID

	tokens, err := s.client.SMembers(ctx, userKey).Result()
	if err != nil {
		return fmt.Errorf("redis list sessions: %w", err)
	}

	keys := make([]string, 0, len(tokens)+1)
	for _, t := range tokens {
		keys = append(keys, sessionPrefix+t)
	}
	keys = append(keys, userKey)

	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis delete sessions: %w", err)
	}
	return nil
}
