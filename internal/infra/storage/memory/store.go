// Package memory is the in-process datastore used by tests and the demo
// backend. A unit of work stages its writes and applies them at commit under
// the store lock, after checking calendar versions and unique keys, so two
// units racing for the same villa cannot both commit.
package memory

import (
	"context"
	"errors"
	"sync"

	"villarent/internal/app/outbox"
	"villarent/internal/app/uow"
	domainavailability "villarent/internal/domain/availability"
	domainbooking "villarent/internal/domain/booking"
	domainpricing "villarent/internal/domain/pricing"
	domainvillas "villarent/internal/domain/villas"
)

var ErrUnitClosed = errors.New("memory: unit of work already finished")

type calendarRecord struct {
	blocks  []domainavailability.Block
	version int64
}

type state struct {
	villas    map[domainvillas.VillaID]*domainvillas.Villa
	images    map[domainvillas.ImageID]*domainvillas.Image
	rules     map[domainpricing.RuleID]*domainpricing.Rule
	blackouts map[domainavailability.BlackoutID]*domainavailability.Blackout
	calendars map[domainvillas.VillaID]calendarRecord
	bookings  map[domainbooking.BookingID]*domainbooking.Booking
}

// Store holds every aggregate of the memory backend.
type Store struct {
	mu   sync.RWMutex
	data state
	box  *Outbox
}

func NewStore() *Store {
	s := &Store{data: state{
		villas:    make(map[domainvillas.VillaID]*domainvillas.Villa),
		images:    make(map[domainvillas.ImageID]*domainvillas.Image),
		rules:     make(map[domainpricing.RuleID]*domainpricing.Rule),
		blackouts: make(map[domainavailability.BlackoutID]*domainavailability.Blackout),
		calendars: make(map[domainvillas.VillaID]calendarRecord),
		bookings:  make(map[domainbooking.BookingID]*domainbooking.Booking),
	}}
	s.box = newOutbox(s)
	return s
}

// Outbox returns the store's outbox; records added inside a unit are kept
// only when the unit commits.
func (s *Store) Outbox() *Outbox { return s.box }

// Begin starts a unit of work. Read-only units reject writes at commit.
func (s *Store) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	return &Unit{store: s, readOnly: opts.ReadOnly}, nil
}

// op is one staged write: check runs against the committed state, apply
// mutates it. All checks of a unit pass before any apply runs.
type op struct {
	check func(*state) error
	apply func(*state)
}

// Unit is a uow.UnitOfWork over a Store.
type Unit struct {
	store    *Store
	readOnly bool

	mu      sync.Mutex
	ops     []op
	records []outbox.EventRecord
	done    bool
}

var ErrReadOnly = errors.New("memory: write in read-only unit of work")

func (u *Unit) Villas() domainvillas.Repository { return villaRepo{u} }
func (u *Unit) Images() domainvillas.ImageRepository { return imageRepo{u} }
func (u *Unit) PricingRules() domainpricing.RuleRepository { return ruleRepo{u} }
func (u *Unit) Blackouts() domainavailability.BlackoutRepository { return blackoutRepo{u} }
func (u *Unit) Calendars() domainavailability.CalendarRepository { return calendarRepo{u} }
func (u *Unit) Bookings() domainbooking.Repository { return bookingRepo{u} }

func (u *Unit) stage(o op) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.done {
		return ErrUnitClosed
	}
	if u.readOnly {
		return ErrReadOnly
	}
	u.ops = append(u.ops, o)
	return nil
}

func (u *Unit) addRecord(rec outbox.EventRecord) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.done {
		return ErrUnitClosed
	}
	u.records = append(u.records, rec)
	return nil
}

func (u *Unit) Commit(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	u.mu.Lock()
	if u.done {
		u.mu.Unlock()
		return ErrUnitClosed
	}
	u.done = true
	ops, records := u.ops, u.records
	u.ops, u.records = nil, nil
	u.mu.Unlock()

	s := u.store
	s.mu.Lock()
	for _, o := range ops {
		if o.check == nil {
			continue
		}
		if err := o.check(&s.data); err != nil {
			s.mu.Unlock()
			return err
		}
	}
	for _, o := range ops {
		o.apply(&s.data)
	}
	s.mu.Unlock()

	if len(records) > 0 {
		s.box.append(records...)
	}
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.done = true
	u.ops, u.records = nil, nil
	return nil
}

func (s *Store) read(fn func(*state)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(&s.data)
}

var _ uow.UoWFactory = (*Store)(nil)
var _ uow.UnitOfWork = (*Unit)(nil)
