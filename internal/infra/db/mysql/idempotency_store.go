package mysql

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"villarent/internal/app/middleware"
)

type IdempotencyStore struct {
	db  *gorm.DB
	ttl time.Duration
}

func NewIdempotencyStore(db *gorm.DB, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &IdempotencyStore{db: db, ttl: ttl}
}

func (s *IdempotencyStore) Get(ctx context.Context, key string) (middleware.IdempotencyRecord, bool, error) {
	var m idempotencyModel
	err := s.db.WithContext(ctx).
		Where("`key` = ? AND created_at > ?", key, time.Now().UTC().Add(-s.ttl)).
		First(&m).Error
	if err != nil {
		if notFound(err) {
			return middleware.IdempotencyRecord{}, false, nil
		}
		return middleware.IdempotencyRecord{}, false, storeErr(err)
	}
	return middleware.IdempotencyRecord{
		Key:        m.Key,
		Payload:    m.Payload,
		Error:      m.Error,
		ErrorKind:  m.ErrorKind,
		Pending:    m.Pending,
		OccurredAt: m.OccurredAt.UTC(),
	}, true, nil
}

// Reserve inserts a pending row; the primary key lets only one request win.
// An abandoned claim or an expired record is taken over in place.
func (s *IdempotencyStore) Reserve(ctx context.Context, key string, lease time.Duration) (bool, error) {
	now := time.Now().UTC()
	m := idempotencyModel{Key: key, Pending: true, OccurredAt: now, CreatedAt: now}
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&m)
	if res.Error != nil {
		return false, storeErr(res.Error)
	}
	if res.RowsAffected == 1 {
		return true, nil
	}
	res = s.db.WithContext(ctx).Model(&idempotencyModel{}).
		Where("`key` = ? AND ((pending = ? AND created_at < ?) OR created_at <= ?)", key, true, now.Add(-lease), now.Add(-s.ttl)).
		Updates(map[string]any{
			"pending": true, "payload": nil, "error": "", "error_kind": "",
			"occurred_at": now, "created_at": now,
		})
	if res.Error != nil {
		return false, storeErr(res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	err := s.db.WithContext(ctx).Where("`key` = ? AND pending = ?", key, true).Delete(&idempotencyModel{}).Error
	return storeErr(err)
}

func (s *IdempotencyStore) Save(ctx context.Context, rec middleware.IdempotencyRecord) error {
	m := idempotencyModel{
		Key:        rec.Key,
		Payload:    rec.Payload,
		Error:      rec.Error,
		ErrorKind:  rec.ErrorKind,
		OccurredAt: rec.OccurredAt,
		CreatedAt:  time.Now().UTC(),
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&m).Error
	return storeErr(err)
}

// Purge deletes records older than the TTL.
func (s *IdempotencyStore) Purge(ctx context.Context) (int64, error) {
	res := s.db.WithContext(ctx).Where("created_at <= ?", time.Now().UTC().Add(-s.ttl)).Delete(&idempotencyModel{})
	return res.RowsAffected, storeErr(res.Error)
}
