package booking_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"villarent/internal/app/apperr"
	bookingapp "villarent/internal/app/handlers/booking"
	"villarent/internal/app/policies"
	quotesvc "villarent/internal/app/services/quote"
	"villarent/internal/app/uow"
	domainbooking "villarent/internal/domain/booking"
	"villarent/internal/domain/shared/daterange"
	domainvillas "villarent/internal/domain/villas"
	"villarent/internal/infra/storage/memory"
)

var now = time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)

// entropy serves one byte value per reference, repeated over the token.
type entropy struct {
	mu     sync.Mutex
	values []byte
}

func (e *entropy) Read(p []byte) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	v := e.values[0]
	if len(e.values) > 1 {
		e.values = e.values[1:]
	}
	for i := range p {
		p[i] = v
	}
	return len(p), nil
}

type notifier struct {
	guestErr, adminErr error
}

func (n notifier) SendGuestConfirmation(context.Context, policies.BookingSummary) error {
	return n.guestErr
}

func (n notifier) SendAdminAlert(context.Context, policies.BookingSummary) error {
	return n.adminErr
}

func day(t *testing.T, raw string) time.Time {
	t.Helper()
	d, err := daterange.ParseDay(raw)
	if err != nil {
		t.Fatalf("day %q: %v", raw, err)
	}
	return d
}

func newStore(t *testing.T) *memory.Store {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	unit, _ := store.Begin(ctx, uow.TxOptions{})
	v, err := domainvillas.New("villa-1", domainvillas.Details{
		Slug: "villa-uluwatu", Name: "Villa Uluwatu", Location: "Uluwatu, Bali",
		MaxGuests: 4, BasePrice: 1_000_000, Active: true,
	}, now)
	if err != nil {
		t.Fatalf("villa: %v", err)
	}
	if err := unit.Villas().Save(ctx, v); err != nil {
		t.Fatalf("save villa: %v", err)
	}
	if err := unit.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}
	return store
}

func newHandler(store *memory.Store, refs *entropy, n policies.BookingNotifier) *bookingapp.CreateBookingHandler {
	return &bookingapp.CreateBookingHandler{
		UoWFactory:     store,
		Calculator:     quotesvc.Calculator{Timeout: time.Second},
		Outbox:         store.Outbox(),
		Notifier:       n,
		References:     domainbooking.ReferenceGenerator{Entropy: refs},
		PriceTolerance: 1,
		NotifyTimeout:  time.Second,
		Timeout:        time.Second,
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
		Now:            func() time.Time { return now },
	}
}

func command(t *testing.T, in, out string, guests int, total int64) bookingapp.CreateBookingCommand {
	t.Helper()
	return bookingapp.CreateBookingCommand{
		VillaID: "villa-1", GuestName: "Wayan", GuestEmail: "wayan@example.com", GuestPhone: "+62 811",
		CheckIn: day(t, in), CheckOut: day(t, out), Guests: guests, TotalPrice: total,
	}
}

type snapshot struct {
	bookings int
	blocks   int
}

func inspect(t *testing.T, store *memory.Store) snapshot {
	t.Helper()
	ctx := context.Background()
	unit, _ := store.Begin(ctx, uow.TxOptions{ReadOnly: true})
	defer unit.Rollback(ctx)
	_, total, err := unit.Bookings().List(ctx, domainbooking.ListFilter{Limit: 100})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	cal, err := unit.Calendars().Calendar(ctx, "villa-1")
	if err != nil {
		t.Fatalf("calendar: %v", err)
	}
	return snapshot{bookings: total, blocks: len(cal.Blocks)}
}

func TestCreateBookingRejectsWithoutWriting(t *testing.T) {
	cases := []struct {
		name string
		cmd  func(t *testing.T) bookingapp.CreateBookingCommand
		kind apperr.Kind
	}{
		{
			name: "stale total beyond tolerance",
			cmd:  func(t *testing.T) bookingapp.CreateBookingCommand { return command(t, "2025-06-01", "2025-06-04", 2, 2_999_998) },
			kind: apperr.KindPriceMismatch,
		},
		{
			name: "five guests on a villa for four",
			cmd:  func(t *testing.T) bookingapp.CreateBookingCommand { return command(t, "2025-06-01", "2025-06-04", 5, 3_000_000) },
			kind: apperr.KindCapacityExceeded,
		},
		{
			name: "inverted dates",
			cmd:  func(t *testing.T) bookingapp.CreateBookingCommand { return command(t, "2025-06-04", "2025-06-01", 2, 3_000_000) },
			kind: apperr.KindInvalidDateRange,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newStore(t)
			h := newHandler(store, &entropy{values: []byte{7}}, notifier{})
			_, err := h.Handle(context.Background(), tc.cmd(t))
			if got := apperr.KindOf(err); got != tc.kind {
				t.Fatalf("kind = %s (%v), want %s", got, err, tc.kind)
			}
			if got := inspect(t, store); got != (snapshot{}) {
				t.Fatalf("rejected booking left state behind: %+v", got)
			}
		})
	}
}

func TestCreateBookingWithinTolerance(t *testing.T) {
	store := newStore(t)
	h := newHandler(store, &entropy{values: []byte{7}}, notifier{})
	res, err := h.Handle(context.Background(), command(t, "2025-06-01", "2025-06-04", 2, 2_999_999))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if res.Status != string(domainbooking.StatusConfirmed) || res.Total.Amount != 2_999_999 {
		t.Fatalf("result = %+v", res)
	}
	if !domainbooking.ValidReference(res.Reference) {
		t.Fatalf("reference %q", res.Reference)
	}
	if got := inspect(t, store); got != (snapshot{bookings: 1, blocks: 1}) {
		t.Fatalf("state = %+v", got)
	}
	if len(store.Outbox().Pending()) == 0 {
		t.Fatal("booking events not recorded")
	}
}

func TestCreateBookingRetriesReferenceCollisions(t *testing.T) {
	store := newStore(t)
	h := newHandler(store, &entropy{values: []byte{0}}, notifier{})
	first, err := h.Handle(context.Background(), command(t, "2025-06-01", "2025-06-04", 2, 3_000_000))
	if err != nil {
		t.Fatalf("first: %v", err)
	}

	h.References = domainbooking.ReferenceGenerator{Entropy: &entropy{values: []byte{0, 0, 9}}}
	second, err := h.Handle(context.Background(), command(t, "2025-06-10", "2025-06-12", 2, 2_000_000))
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if second.Reference == first.Reference {
		t.Fatalf("reference reused: %s", second.Reference)
	}
	if got := inspect(t, store); got != (snapshot{bookings: 2, blocks: 2}) {
		t.Fatalf("state = %+v", got)
	}
}

func TestCreateBookingGivesUpAfterMaxAttempts(t *testing.T) {
	store := newStore(t)
	h := newHandler(store, &entropy{values: []byte{0}}, notifier{})
	h.MaxAttempts = 3
	if _, err := h.Handle(context.Background(), command(t, "2025-06-01", "2025-06-04", 2, 3_000_000)); err != nil {
		t.Fatalf("first: %v", err)
	}
	_, err := h.Handle(context.Background(), command(t, "2025-06-10", "2025-06-12", 2, 2_000_000))
	if !errors.Is(err, bookingapp.ErrReferenceExhausted) || apperr.KindOf(err) != apperr.KindServiceUnavailable {
		t.Fatalf("err = %v", err)
	}
	if got := inspect(t, store); got != (snapshot{bookings: 1, blocks: 1}) {
		t.Fatalf("state = %+v", got)
	}
}

func TestCreateBookingReportsNotificationsSeparately(t *testing.T) {
	cases := []struct {
		name        string
		n           policies.BookingNotifier
		guest, admn bool
	}{
		{name: "both sent", n: notifier{}, guest: true, admn: true},
		{name: "admin alert failed", n: notifier{adminErr: errors.New("smtp down")}, guest: true},
		{name: "nothing configured", n: nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := newStore(t)
			h := newHandler(store, &entropy{values: []byte{5}}, tc.n)
			res, err := h.Handle(context.Background(), command(t, "2025-06-01", "2025-06-04", 2, 3_000_000))
			if err != nil {
				t.Fatalf("notification failure must not fail the booking: %v", err)
			}
			if res.Notifications.Guest != tc.guest || res.Notifications.Admin != tc.admn {
				t.Fatalf("notifications = %+v", res.Notifications)
			}
		})
	}
}

func TestCreateBookingOverlapAndAdjacency(t *testing.T) {
	store := newStore(t)
	h := newHandler(store, &entropy{values: []byte{1, 2, 3}}, notifier{})
	ctx := context.Background()
	if _, err := h.Handle(ctx, command(t, "2025-06-01", "2025-06-03", 2, 2_000_000)); err != nil {
		t.Fatalf("first: %v", err)
	}
	_, err := h.Handle(ctx, command(t, "2025-06-02", "2025-06-05", 2, 3_000_000))
	if apperr.KindOf(err) != apperr.KindConflict {
		t.Fatalf("overlap: %v", err)
	}
	if _, err := h.Handle(ctx, command(t, "2025-06-03", "2025-06-05", 2, 2_000_000)); err != nil {
		t.Fatalf("adjacent stay: %v", err)
	}
}

func TestConcurrentBookingsOfSameDates(t *testing.T) {
	store := newStore(t)
	h := newHandler(store, &entropy{values: []byte{1, 2, 3, 4, 5, 6}}, nil)
	cmd := command(t, "2025-07-01", "2025-07-04", 2, 3_000_000)
	var wg sync.WaitGroup
	errs := make([]error, 6)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = h.Handle(context.Background(), cmd)
		}(i)
	}
	wg.Wait()
	won := 0
	for _, err := range errs {
		switch {
		case err == nil:
			won++
		case apperr.KindOf(err) != apperr.KindConflict:
			t.Errorf("loser err = %v", err)
		}
	}
	if won != 1 {
		t.Fatalf("winners = %d", won)
	}
	if got := inspect(t, store); got != (snapshot{bookings: 1, blocks: 1}) {
		t.Fatalf("state = %+v", got)
	}
}

func TestCreateBookingPrunesElapsedBlocks(t *testing.T) {
	store := newStore(t)
	h := newHandler(store, &entropy{values: []byte{1, 2}}, nil)
	ctx := context.Background()
	if _, err := h.Handle(ctx, command(t, "2025-06-01", "2025-06-04", 2, 3_000_000)); err != nil {
		t.Fatalf("june: %v", err)
	}
	later := time.Date(2025, 6, 20, 8, 0, 0, 0, time.UTC)
	h.Now = func() time.Time { return later }
	if _, err := h.Handle(ctx, command(t, "2025-07-01", "2025-07-03", 2, 2_000_000)); err != nil {
		t.Fatalf("july: %v", err)
	}
	if got := inspect(t, store); got != (snapshot{bookings: 2, blocks: 1}) {
		t.Fatalf("state = %+v", got)
	}
}
