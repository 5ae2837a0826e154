package booking

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"villarent/internal/domain/shared/daterange"
	"villarent/internal/domain/shared/money"
)

func newBooking(t *testing.T, checkIn time.Time) *Booking {
	t.Helper()
	dr, err := daterange.NewDays(checkIn, checkIn.AddDate(0, 0, 3))
	if err != nil {
		t.Fatalf("range: %v", err)
	}
	b, err := NewConfirmed(CreateParams{
		ID:        "b-1",
		Reference: "VIL-20250601-ABCDEF",
		VillaID:   "villa-1",
		Guest:     Guest{Name: " Ayu ", Email: " Ayu@Example.COM ", Phone: "+62 811 000"},
		Range:     dr,
		Guests:    2,
		Total:     money.IDR(6_000_000),
		Now:       time.Date(2025, 5, 1, 8, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("new booking: %v", err)
	}
	return b
}

func TestNewConfirmedNormalizesGuest(t *testing.T) {
	b := newBooking(t, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	if b.Status != StatusConfirmed {
		t.Fatalf("status = %s", b.Status)
	}
	if b.Guest.Email != "ayu@example.com" || b.Guest.Name != "Ayu" {
		t.Fatalf("guest = %+v", b.Guest)
	}
	if events := b.PendingEvents(); len(events) != 1 || events[0].EventName() != (BookingConfirmed{}).EventName() {
		t.Fatalf("events = %v", events)
	}
}

func TestNewConfirmedValidatesGuest(t *testing.T) {
	dr, _ := daterange.NewDays(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC), time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC))
	base := CreateParams{ID: "b", Reference: "r", VillaID: "v", Range: dr, Guests: 1, Total: money.IDR(1), Now: time.Now()}
	cases := []struct {
		name  string
		guest Guest
		want  error
	}{
		{"name", Guest{Email: "a@b.co", Phone: "1"}, ErrGuestName},
		{"email", Guest{Name: "A", Email: "not-an-email", Phone: "1"}, ErrGuestEmail},
		{"phone", Guest{Name: "A", Email: "a@b.co"}, ErrGuestPhone},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := base
			p.Guest = tc.guest
			if _, err := NewConfirmed(p); !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestCancelCutoffIsDateOnly(t *testing.T) {
	checkIn := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)

	b := newBooking(t, checkIn)
	if err := b.Cancel(time.Date(2025, 6, 9, 23, 59, 0, 0, time.UTC)); err != nil {
		t.Fatalf("day before check-in should cancel: %v", err)
	}
	if err := b.Cancel(time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC)); !errors.Is(err, ErrAlreadyCancelled) {
		t.Fatalf("second cancel: %v", err)
	}

	late := newBooking(t, checkIn)
	if err := late.Cancel(time.Date(2025, 6, 10, 0, 0, 1, 0, time.UTC)); !errors.Is(err, ErrTooLateToCancel) {
		t.Fatalf("check-in day should be too late: %v", err)
	}
	if err := late.AdminCancel(time.Date(2025, 6, 11, 0, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("admin cancel ignores the cutoff: %v", err)
	}
}

func TestCompleteWaitsForCheckout(t *testing.T) {
	b := newBooking(t, time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC))
	if err := b.Complete(time.Date(2025, 6, 12, 23, 0, 0, 0, time.UTC)); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("stay not over yet: %v", err)
	}
	if err := b.Complete(time.Date(2025, 6, 13, 0, 0, 0, 0, time.UTC)); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if err := b.Cancel(time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("completed stays cannot be cancelled: %v", err)
	}
}

func TestParseStatus(t *testing.T) {
	if s, ok := ParseStatus(" Confirmed "); !ok || s != StatusConfirmed {
		t.Fatalf("got %q %v", s, ok)
	}
	if _, ok := ParseStatus("archived"); ok {
		t.Fatal("unknown status accepted")
	}
}

func TestReferenceFormat(t *testing.T) {
	gen := ReferenceGenerator{Entropy: bytes.NewReader([]byte{0, 1, 2, 31, 32, 255})}
	ref, err := gen.Next(time.Date(2025, 6, 2, 3, 0, 0, 0, time.FixedZone("WITA", 8*3600)))
	if err != nil {
		t.Fatalf("next: %v", err)
	}
	if ref != "VIL-20250601-234Z2Z" {
		t.Fatalf("ref = %s", ref)
	}
	if !ValidReference(ref) {
		t.Fatalf("generated reference rejected: %s", ref)
	}
	for i := 0; i < 50; i++ {
		ref, err := ReferenceGenerator{}.Next(time.Now())
		if err != nil || !ValidReference(ref) {
			t.Fatalf("random reference %q: %v", ref, err)
		}
	}
	if ValidReference("VIL-20250601-0OI1AB") {
		t.Fatal("ambiguous characters accepted")
	}
}
