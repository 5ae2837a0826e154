// Package redis keeps login sessions in Redis with a TTL per key.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"villarent/internal/app/apperr"
	"villarent/internal/domain/auth"
)

const keyPrefix = "villarent:session:"

type SessionStore struct {
	client *goredis.Client
	now    func() time.Time
}

func NewClient(addr, password string, db int) *goredis.Client {
	return goredis.NewClient(&goredis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// NewSessionStore computes key TTLs against now. Nil means time.Now.
func NewSessionStore(client *goredis.Client, now func() time.Time) *SessionStore {
	if now == nil {
		now = time.Now
	}
	return &SessionStore{client: client, now: now}
}

func (s *SessionStore) Save(ctx context.Context, session *auth.Session) error {
	ttl := session.TTL(s.now())
	if ttl <= 0 {
		return auth.ErrTTLInvalid
	}
	payload, err := json.Marshal(session)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, keyPrefix+string(session.Token), payload, ttl).Err(); err != nil {
		return apperr.Unavailable(err)
	}
	return nil
}

func (s *SessionStore) Get(ctx context.Context, token auth.Token) (*auth.Session, error) {
	raw, err := s.client.Get(ctx, keyPrefix+string(token)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, auth.ErrSessionNotFound
		}
		return nil, apperr.Unavailable(err)
	}
	var session auth.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, err
	}
	if session.Expired(s.now()) {
		return nil, auth.ErrSessionNotFound
	}
	return &session, nil
}

func (s *SessionStore) Delete(ctx context.Context, token auth.Token) error {
	if err := s.client.Del(ctx, keyPrefix+string(token)).Err(); err != nil {
		return apperr.Unavailable(err)
	}
	return nil
}

// Ping is used by the readiness probe.
func (s *SessionStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

var _ auth.SessionStore = (*SessionStore)(nil)
