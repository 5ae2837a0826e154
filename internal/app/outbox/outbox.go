package outbox

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"villarent/internal/domain/shared/events"
)

type EventRecord struct {
	ID         string
	Name       string
	Payload    []byte
	OccurredAt time.Time
	Aggregate  string
	Headers    map[string]string
}

// Outbox persists records in the same unit of work as the state change that
// produced them. Flush only wakes the relay; delivery happens asynchronously.
type Outbox interface {
	Add(ctx context.Context, record EventRecord) error
	Flush(ctx context.Context) error
}

type EventEncoder interface {
	Encode(ev events.DomainEvent) (EventRecord, error)
}

type JSONEventEncoder struct {
	IDGenerator func() string
}

func (e JSONEventEncoder) Encode(ev events.DomainEvent) (EventRecord, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return EventRecord{}, err
	}
	idGen := e.IDGenerator
	if idGen == nil {
		idGen = uuid.NewString
	}
	return EventRecord{
		ID:         idGen(),
		Name:       ev.EventName(),
		Payload:    payload,
		OccurredAt: ev.OccurredAt().UTC(),
		Aggregate:  ev.AggregateID(),
		Headers:    map[string]string{"content-type": "application/json"},
	}, nil
}

// Recorder is satisfied by aggregates embedding events.EventRecorder.
type Recorder interface {
	DrainEvents() []events.DomainEvent
}

func RecordDomainEvents(ctx context.Context, box Outbox, encoder EventEncoder, evs []events.DomainEvent) error {
	if box == nil || len(evs) == 0 {
		return nil
	}
	if encoder == nil {
		encoder = JSONEventEncoder{}
	}
	for _, ev := range evs {
		rec, err := encoder.Encode(ev)
		if err != nil {
			return err
		}
		if err := box.Add(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

// Drain moves the pending events of every aggregate into the outbox.
func Drain(ctx context.Context, box Outbox, aggregates ...Recorder) error {
	for _, agg := range aggregates {
		if agg == nil {
			continue
		}
		if err := RecordDomainEvents(ctx, box, nil, agg.DrainEvents()); err != nil {
			return err
		}
	}
	return nil
}
