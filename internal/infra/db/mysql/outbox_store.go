package mysql

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	appoutbox "villarent/internal/app/outbox"
	infraoutbox "villarent/internal/infra/outbox"
)

const (
	outboxNew     = "NEW"
	outboxClaimed = "CLAIMED"
	outboxSent    = "SENT"
	outboxFailed  = "FAILED"

	claimLease = time.Minute
)

// OutboxStore writes records in the caller's transaction and serves them to
// the relay with SKIP LOCKED claims.
type OutboxStore struct {
	db     *gorm.DB
	signal *infraoutbox.Signal
}

func NewOutboxStore(db *gorm.DB, signal *infraoutbox.Signal) *OutboxStore {
	return &OutboxStore{db: db, signal: signal}
}

func (s *OutboxStore) Add(ctx context.Context, rec appoutbox.EventRecord) error {
	now := time.Now().UTC()
	headers := make(map[string]any, len(rec.Headers))
	for k, v := range rec.Headers {
		headers[k] = v
	}
	m := outboxModel{
		ID:          rec.ID,
		Name:        rec.Name,
		Aggregate:   rec.Aggregate,
		Payload:     rec.Payload,
		Headers:     headers,
		OccurredAt:  rec.OccurredAt,
		State:       outboxNew,
		NextAttempt: now,
		CreatedAt:   now,
	}
	return storeErr(conn(ctx, s.db).Create(&m).Error)
}

func (s *OutboxStore) Flush(context.Context) error {
	s.signal.Notify()
	return nil
}

func (s *OutboxStore) Claim(ctx context.Context, workerID string) (*infraoutbox.Message, error) {
	var claimed *outboxModel
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		var m outboxModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("(state IN ? AND next_attempt <= ?) OR (state = ? AND claimed_at <= ?)",
				[]string{outboxNew, outboxFailed}, now, outboxClaimed, now.Add(-claimLease)).
			Order("next_attempt").
			First(&m).Error
		if err != nil {
			return err
		}
		m.State = outboxClaimed
		m.ClaimedBy = workerID
		m.ClaimedAt = &now
		if err := tx.Model(&outboxModel{}).Where("id = ?", m.ID).
			Updates(map[string]any{"state": m.State, "claimed_by": workerID, "claimed_at": now}).Error; err != nil {
			return err
		}
		claimed = &m
		return nil
	})
	if err != nil {
		if notFound(err) {
			return nil, nil
		}
		return nil, storeErr(err)
	}
	headers := make(map[string]string, len(claimed.Headers))
	for k, v := range claimed.Headers {
		if str, ok := v.(string); ok {
			headers[k] = str
		}
	}
	return &infraoutbox.Message{
		ID:         claimed.ID,
		Name:       claimed.Name,
		Payload:    claimed.Payload,
		OccurredAt: claimed.OccurredAt.UTC(),
		Aggregate:  claimed.Aggregate,
		Headers:    headers,
		Attempts:   claimed.Attempts,
	}, nil
}

func (s *OutboxStore) MarkSent(ctx context.Context, id string) error {
	now := time.Now().UTC()
	err := s.db.WithContext(ctx).Model(&outboxModel{}).Where("id = ?", id).
		Updates(map[string]any{"state": outboxSent, "sent_at": now}).Error
	return storeErr(err)
}

func (s *OutboxStore) MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error {
	err := s.db.WithContext(ctx).Model(&outboxModel{}).Where("id = ?", id).
		Updates(map[string]any{
			"state":        outboxFailed,
			"next_attempt": next,
			"last_error":   errMsg,
			"attempts":     gorm.Expr("attempts + 1"),
		}).Error
	return storeErr(err)
}

var _ appoutbox.Outbox = (*OutboxStore)(nil)
var _ infraoutbox.Source = (*OutboxStore)(nil)
