package memory

import (
	"context"
	"sync"
	"time"

	"villarent/internal/app/middleware"
)

// IdempotencyStore remembers command outcomes for TTL.
type IdempotencyStore struct {
	mu      sync.Mutex
	records map[string]middleware.IdempotencyRecord
	ttl     time.Duration
	now     func() time.Time
}

func NewIdempotencyStore(ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &IdempotencyStore{records: make(map[string]middleware.IdempotencyRecord), ttl: ttl, now: time.Now}
}

func (s *IdempotencyStore) Get(ctx context.Context, key string) (middleware.IdempotencyRecord, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[key]
	if !ok {
		return middleware.IdempotencyRecord{}, false, nil
	}
	if s.now().Sub(rec.OccurredAt) > s.ttl {
		delete(s.records, key)
		return middleware.IdempotencyRecord{}, false, nil
	}
	return rec, true, nil
}

func (s *IdempotencyStore) Reserve(ctx context.Context, key string, lease time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if rec, ok := s.records[key]; ok {
		expired := now.Sub(rec.OccurredAt) > s.ttl
		staleClaim := rec.Pending && now.Sub(rec.OccurredAt) > lease
		if !expired && !staleClaim {
			return false, nil
		}
	}
	s.records[key] = middleware.IdempotencyRecord{Key: key, Pending: true, OccurredAt: now}
	return true, nil
}

func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.records[key]; ok && rec.Pending {
		delete(s.records, key)
	}
	return nil
}

func (s *IdempotencyStore) Save(ctx context.Context, rec middleware.IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec.OccurredAt.IsZero() {
		rec.OccurredAt = s.now()
	}
	rec.Pending = false
	s.records[rec.Key] = rec
	return nil
}

var _ middleware.IdempotencyStore = (*IdempotencyStore)(nil)
