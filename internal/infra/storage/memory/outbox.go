package memory

import (
	"context"
	"sync"
	"time"

	"villarent/internal/app/outbox"
	"villarent/internal/app/uow"
	infraoutbox "villarent/internal/infra/outbox"
)

type outboxEntry struct {
	record    outbox.EventRecord
	claimedBy string
	attempts  int
	next      time.Time
	lastError string
}

// Outbox buffers records of an active memory unit until it commits and
// serves them to the relay worker afterwards.
type Outbox struct {
	store   *Store
	mu      sync.Mutex
	entries []*outboxEntry
	signal  *infraoutbox.Signal
}

func newOutbox(store *Store) *Outbox {
	return &Outbox{store: store}
}

// WithSignal sets the relay wake-up used by Flush.
func (o *Outbox) WithSignal(signal *infraoutbox.Signal) *Outbox {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.signal = signal
	return o
}

func (o *Outbox) Add(ctx context.Context, record outbox.EventRecord) error {
	if unit, ok := uow.FromContext(ctx); ok {
		if mu, ok := unit.(*Unit); ok && mu.store == o.store {
			return mu.addRecord(record)
		}
	}
	o.append(record)
	return nil
}

func (o *Outbox) append(records ...outbox.EventRecord) {
	o.mu.Lock()
	defer o.mu.Unlock()
	now := time.Now()
	for _, rec := range records {
		o.entries = append(o.entries, &outboxEntry{record: rec, next: now})
	}
}

func (o *Outbox) Flush(ctx context.Context) error {
	o.mu.Lock()
	signal := o.signal
	o.mu.Unlock()
	signal.Notify()
	return nil
}

// Pending returns the records not yet relayed, oldest first.
func (o *Outbox) Pending() []outbox.EventRecord {
	o.mu.Lock()
	defer o.mu.Unlock()
	var out []outbox.EventRecord
	for _, e := range o.entries {
		out = append(out, e.record)
	}
	return out
}

func (o *Outbox) Claim(ctx context.Context, workerID string) (*infraoutbox.Message, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	now := time.Now()
	for _, e := range o.entries {
		if e.claimedBy != "" || e.next.After(now) {
			continue
		}
		e.claimedBy = workerID
		return &infraoutbox.Message{
			ID:         e.record.ID,
			Name:       e.record.Name,
			Payload:    e.record.Payload,
			OccurredAt: e.record.OccurredAt,
			Aggregate:  e.record.Aggregate,
			Headers:    e.record.Headers,
			Attempts:   e.attempts,
		}, nil
	}
	return nil, nil
}

// MarkSent drops the record; delivered events are not kept in memory.
func (o *Outbox) MarkSent(ctx context.Context, id string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	kept := o.entries[:0]
	for _, e := range o.entries {
		if e.record.ID != id {
			kept = append(kept, e)
		}
	}
	o.entries = kept
	return nil
}

func (o *Outbox) MarkFailed(ctx context.Context, id string, next time.Time, errMsg string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, e := range o.entries {
		if e.record.ID == id {
			e.claimedBy = ""
			e.attempts++
			e.next = next
			e.lastError = errMsg
		}
	}
	return nil
}

var _ outbox.Outbox = (*Outbox)(nil)
var _ infraoutbox.Source = (*Outbox)(nil)
