// Package events holds what villa, calendar and booking aggregates share to
// publish facts through the outbox.
package events

import (
	"strings"
	"time"
)

// DomainEvent names are dotted, "<aggregate>.<fact>", e.g. booking.confirmed.
type DomainEvent interface {
	EventName() string
	AggregateID() string
	OccurredAt() time.Time
}

// Category returns the aggregate part of an event name.
func Category(name string) string {
	if head, _, ok := strings.Cut(name, "."); ok && head != "" {
		return head
	}
	return name
}

// EventRecorder is embedded by aggregates. Events stay pending until the unit
// of work that changed the aggregate drains them into the outbox.
type EventRecorder struct {
	pending []DomainEvent
}

func (r *EventRecorder) Record(event DomainEvent) {
	if event != nil {
		r.pending = append(r.pending, event)
	}
}

func (r *EventRecorder) PendingEvents() []DomainEvent {
	return append([]DomainEvent(nil), r.pending...)
}

// DrainEvents returns the pending events in recording order and forgets them.
func (r *EventRecorder) DrainEvents() []DomainEvent {
	out := r.pending
	r.pending = nil
	return out
}

func (r *EventRecorder) ClearEvents() {
	r.pending = nil
}
