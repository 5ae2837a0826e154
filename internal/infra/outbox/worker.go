package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"villarent/internal/domain/shared/events"
)

// Message is one claimed outbox record.
type Message struct {
	ID         string
	Name       string
	Payload    []byte
	OccurredAt time.Time
	Aggregate  string
	Headers    map[string]string
	Attempts   int
}

// Source is implemented by every datastore that keeps an outbox.
type Source interface {
	// Claim returns the next due record or nil when there is none.
	Claim(ctx context.Context, workerID string) (*Message, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error
}

type Producer interface {
	Publish(ctx context.Context, topic string, key string, payload []byte, headers map[string]string) error
}

// Worker relays committed outbox records to the producer as CloudEvents.
type Worker struct {
	Source      Source
	Producer    Producer
	Signal      *Signal
	Interval    time.Duration
	TopicPrefix string
	EventSource string
	ID          string
	Backoff     []time.Duration
	Logger      *slog.Logger
}

var ErrWorkerNotConfigured = errors.New("outbox: worker missing dependencies")

const maxBatch = 100

func (w *Worker) Run(ctx context.Context) error {
	if w.Source == nil || w.Producer == nil {
		return ErrWorkerNotConfigured
	}
	ticker := time.NewTicker(w.interval())
	defer ticker.Stop()
	workerID := w.workerID()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		case <-w.Signal.C():
		}
		w.drain(ctx, workerID)
	}
}

// drain relays due records until none is left. Store errors are logged and
// retried on the next wake-up.
func (w *Worker) drain(ctx context.Context, workerID string) {
	for i := 0; i < maxBatch; i++ {
		more, err := w.processOnce(ctx, workerID)
		if err != nil {
			if ctx.Err() == nil && w.Logger != nil {
				w.Logger.Error("outbox relay failed", "error", err)
			}
			return
		}
		if !more {
			return
		}
	}
}

func (w *Worker) processOnce(ctx context.Context, workerID string) (bool, error) {
	msg, err := w.Source.Claim(ctx, workerID)
	if err != nil || msg == nil {
		return false, err
	}
	topic := w.topicFor(msg.Name)
	payload, headers, err := w.formatPayload(msg)
	if err != nil {
		return true, w.Source.MarkFailed(ctx, msg.ID, w.nextRetry(msg.Attempts), err.Error())
	}
	if err := w.Producer.Publish(ctx, topic, msg.Aggregate, payload, headers); err != nil {
		if w.Logger != nil {
			w.Logger.Warn("outbox publish failed", "event_id", msg.ID, "topic", topic, "attempts", msg.Attempts+1, "error", err)
		}
		return true, w.Source.MarkFailed(ctx, msg.ID, w.nextRetry(msg.Attempts), err.Error())
	}
	return true, w.Source.MarkSent(ctx, msg.ID)
}

func (w *Worker) formatPayload(msg *Message) ([]byte, map[string]string, error) {
	data := map[string]any{}
	if err := json.Unmarshal(msg.Payload, &data); err != nil {
		return nil, nil, err
	}
	evt := map[string]any{
		"specversion":     "1.0",
		"id":              msg.ID,
		"type":            msg.Name + ".v1",
		"source":          w.source(),
		"subject":         msg.Aggregate,
		"time":            msg.OccurredAt,
		"datacontenttype": "application/json",
		"data":            data,
	}
	if trace, ok := msg.Headers["traceparent"]; ok {
		evt["traceparent"] = trace
	}
	payload, err := json.Marshal(evt)
	if err != nil {
		return nil, nil, err
	}
	headers := map[string]string{}
	for k, v := range msg.Headers {
		headers[k] = v
	}
	headers["content-type"] = "application/cloudevents+json"
	headers["ce_type"] = msg.Name + ".v1"
	return payload, headers, nil
}

// topicFor maps booking.confirmed to booking.events.v1.
func (w *Worker) topicFor(name string) string {
	return w.TopicPrefix + events.Category(name) + ".events.v1"
}

func (w *Worker) workerID() string {
	if w.ID != "" {
		return w.ID
	}
	return uuid.NewString()
}

func (w *Worker) interval() time.Duration {
	if w.Interval <= 0 {
		return 500 * time.Millisecond
	}
	return w.Interval
}

func (w *Worker) nextRetry(attempts int) time.Time {
	if attempts < len(w.Backoff) {
		return time.Now().Add(w.Backoff[attempts])
	}
	if len(w.Backoff) > 0 {
		return time.Now().Add(w.Backoff[len(w.Backoff)-1])
	}
	return time.Now().Add(5 * time.Second)
}

func (w *Worker) source() string {
	if w.EventSource != "" {
		return w.EventSource
	}
	return "app://villarent"
}
