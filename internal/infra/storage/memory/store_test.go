package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"villarent/internal/app/uow"
	domainavailability "villarent/internal/domain/availability"
	domainbooking "villarent/internal/domain/booking"
	"villarent/internal/domain/shared/daterange"
	"villarent/internal/domain/shared/money"
)

func stayRange(t *testing.T, in, out string) daterange.DateRange {
	t.Helper()
	a, _ := daterange.ParseDay(in)
	b, _ := daterange.ParseDay(out)
	dr, err := daterange.NewDays(a, b)
	if err != nil {
		t.Fatalf("range: %v", err)
	}
	return dr
}

func begin(t *testing.T, s *Store) uow.UnitOfWork {
	t.Helper()
	unit, err := s.Begin(context.Background(), uow.TxOptions{})
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	return unit
}

func confirmed(t *testing.T, id, ref string, dr daterange.DateRange) *domainbooking.Booking {
	t.Helper()
	b, err := domainbooking.NewConfirmed(domainbooking.CreateParams{
		ID: domainbooking.BookingID(id), Reference: ref, VillaID: "villa-1",
		Guest: domainbooking.Guest{Name: "Tamu", Email: "tamu@example.com", Phone: "0812"},
		Range: dr, Guests: 2, Total: money.IDR(1_000_000), Now: time.Now(),
	})
	if err != nil {
		t.Fatalf("booking: %v", err)
	}
	return b
}

func TestCalendarSaveDetectsConcurrentWriters(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	a, b := begin(t, s), begin(t, s)

	calA, _ := a.Calendars().Calendar(ctx, "villa-1")
	calB, _ := b.Calendars().Calendar(ctx, "villa-1")
	if err := calA.Reserve(stayRange(t, "2025-06-01", "2025-06-03"), "VIL-A", time.Now()); err != nil {
		t.Fatalf("reserve a: %v", err)
	}
	if err := calB.Reserve(stayRange(t, "2025-06-02", "2025-06-04"), "VIL-B", time.Now()); err != nil {
		t.Fatalf("reserve b: %v", err)
	}
	if err := a.Calendars().Save(ctx, calA); err != nil {
		t.Fatalf("stage a: %v", err)
	}
	if err := b.Calendars().Save(ctx, calB); err != nil {
		t.Fatalf("stage b: %v", err)
	}
	if err := a.Commit(ctx); err != nil {
		t.Fatalf("commit a: %v", err)
	}
	if err := b.Commit(ctx); !errors.Is(err, domainavailability.ErrConcurrentUpdate) {
		t.Fatalf("commit b: %v", err)
	}

	reader := begin(t, s)
	cal, _ := reader.Calendars().Calendar(ctx, "villa-1")
	if len(cal.Blocks) != 1 || cal.Blocks[0].Reference != "VIL-A" || cal.Version != 1 {
		t.Fatalf("calendar = %+v", cal)
	}
}

func TestFailedCheckAppliesNothing(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	seed := begin(t, s)
	if err := seed.Bookings().Insert(ctx, confirmed(t, "b1", "VIL-1", stayRange(t, "2025-06-01", "2025-06-03"))); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := seed.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}

	unit := begin(t, s)
	cal, _ := unit.Calendars().Calendar(ctx, "villa-1")
	_ = cal.Reserve(stayRange(t, "2025-07-01", "2025-07-03"), "VIL-1", time.Now())
	_ = unit.Calendars().Save(ctx, cal)
	_ = unit.Bookings().Insert(ctx, confirmed(t, "b2", "VIL-1", stayRange(t, "2025-07-01", "2025-07-03")))
	if err := unit.Commit(ctx); !errors.Is(err, domainbooking.ErrDuplicateReference) {
		t.Fatalf("commit: %v", err)
	}

	reader := begin(t, s)
	cal, _ = reader.Calendars().Calendar(ctx, "villa-1")
	if len(cal.Blocks) != 0 {
		t.Fatalf("calendar written despite failed unit: %+v", cal.Blocks)
	}
	if _, err := reader.Bookings().ByID(ctx, "b2"); !errors.Is(err, domainbooking.ErrNotFound) {
		t.Fatalf("b2: %v", err)
	}
}

func TestBookingQueries(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	unit := begin(t, s)
	june := confirmed(t, "b1", "VIL-1", stayRange(t, "2025-06-01", "2025-06-04"))
	july := confirmed(t, "b2", "VIL-2", stayRange(t, "2025-07-01", "2025-07-04"))
	for _, b := range []*domainbooking.Booking{june, july} {
		if err := unit.Bookings().Insert(ctx, b); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	if err := unit.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}

	reader := begin(t, s)
	overlapping, _ := reader.Bookings().ConfirmedOverlapping(ctx, "villa-1", stayRange(t, "2025-06-03", "2025-06-10"))
	if len(overlapping) != 1 || overlapping[0].ID != "b1" {
		t.Fatalf("overlapping = %v", overlapping)
	}
	adjacent, _ := reader.Bookings().ConfirmedOverlapping(ctx, "villa-1", stayRange(t, "2025-06-04", "2025-06-06"))
	if len(adjacent) != 0 {
		t.Fatalf("checkout day must be free: %v", adjacent)
	}
	due, _ := reader.Bookings().DueForCompletion(ctx, daterange.Day(time.Date(2025, 6, 4, 12, 0, 0, 0, time.UTC)), 10)
	if len(due) != 1 || due[0].ID != "b1" {
		t.Fatalf("due = %v", due)
	}
	page, total, _ := reader.Bookings().List(ctx, domainbooking.ListFilter{Limit: 1})
	if total != 2 || len(page) != 1 {
		t.Fatalf("page = %d of %d", len(page), total)
	}
	found, err := reader.Bookings().ByReference(ctx, "VIL-2")
	if err != nil || found.ID != "b2" {
		t.Fatalf("by reference: %v %v", found, err)
	}
}

func TestStaleBookingSaveIsRejected(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	unit := begin(t, s)
	_ = unit.Bookings().Insert(ctx, confirmed(t, "b1", "VIL-1", stayRange(t, "2025-06-01", "2025-06-04")))
	_ = unit.Commit(ctx)

	a, b := begin(t, s), begin(t, s)
	first, _ := a.Bookings().ByID(ctx, "b1")
	second, _ := b.Bookings().ByID(ctx, "b1")
	_ = first.AdminCancel(time.Now())
	second.UpdateSpecialRequest("late arrival", time.Now())
	_ = a.Bookings().Save(ctx, first)
	_ = b.Bookings().Save(ctx, second)
	if err := a.Commit(ctx); err != nil {
		t.Fatalf("commit a: %v", err)
	}
	if err := b.Commit(ctx); !errors.Is(err, domainbooking.ErrConcurrentUpdate) {
		t.Fatalf("commit b: %v", err)
	}
}

func TestReadOnlyUnitRejectsWrites(t *testing.T) {
	s := NewStore()
	unit, _ := s.Begin(context.Background(), uow.TxOptions{ReadOnly: true})
	err := unit.Bookings().Insert(context.Background(), confirmed(t, "b1", "VIL-1", stayRange(t, "2025-06-01", "2025-06-04")))
	if !errors.Is(err, ErrReadOnly) {
		t.Fatalf("err = %v", err)
	}
}
