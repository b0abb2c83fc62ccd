package memory

import (
	"context"
	"sync"
	"time"

	"github.com/utafrali/readrate/internal/repository"
	apperrors "github.com/utafrali/readrate/pkg/errors"
)

type session struct {
	userID  string
	expires time.Time
}

// SessionStore implements repository.SessionStore in memory. Expired sessions
// are dropped when they are next looked up.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]session
	now      func() time.Time
}

// NewSessionStore creates an empty in-memory session store.
func NewSessionStore(now func() time.Time) *SessionStore {
	if now == nil {
		now = time.Now
	}
	return &SessionStore{sessions: make(map[string]session), now: now}
}

func (s *SessionStore) Create(_ context.Context, userID string, ttl time.Duration) (string, error) {
	token := repository.NewSessionToken()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[token] = session{userID: userID, expires: s.now().Add(ttl)}
	return token, nil
}

func (s *SessionStore) Resolve(_ context.Context, token string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[token]
	if ok && !s.now().Before(sess.expires) {
		delete(s.sessions, token)
		ok = false
	}
	if !ok {
		return "", apperrors.NotFound("session", "token")
	}
	return sess.userID, nil
}

func (s *SessionStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}

func (s *SessionStore) DeleteAllForUser(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for tok, sess := range s.sessions {
		if sess.userID == userID {
			delete(s.sessions, tok)
		}
	}
	return nil
}
