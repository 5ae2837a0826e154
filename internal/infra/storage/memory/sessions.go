package memory

import (
	"context"
	"sync"
	"time"

	"villarent/internal/domain/auth"
)

// SessionStore keeps sessions until they expire; Get drops expired ones.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[auth.Token]auth.Session
	now      func() time.Time
}

// NewSessionStore judges expiry with now, which should be the clock the auth
// service issues sessions with. Nil means time.Now.
func NewSessionStore(now func() time.Time) *SessionStore {
	if now == nil {
		now = time.Now
	}
	return &SessionStore{sessions: make(map[auth.Token]auth.Session), now: now}
}

func (s *SessionStore) Save(ctx context.Context, session *auth.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.Token] = *session
	return nil
}

func (s *SessionStore) Get(ctx context.Context, token auth.Token) (*auth.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[token]
	if !ok {
		return nil, auth.ErrSessionNotFound
	}
	if session.Expired(s.now()) {
		delete(s.sessions, token)
		return nil, auth.ErrSessionNotFound
	}
	return &session, nil
}

func (s *SessionStore) Delete(ctx context.Context, token auth.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}

var _ auth.SessionStore = (*SessionStore)(nil)
