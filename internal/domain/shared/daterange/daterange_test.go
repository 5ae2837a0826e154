package daterange

import (
	"errors"
	"testing"
	"time"
)

func mustDay(t *testing.T, raw string) time.Time {
	t.Helper()
	d, err := ParseDay(raw)
	if err != nil {
		t.Fatalf("parse %q: %v", raw, err)
	}
	return d
}

func TestNewRejectsEmptyAndInvertedRanges(t *testing.T) {
	in := mustDay(t, "2025-06-10")
	if _, err := New(in, in); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("same-day stay: got %v", err)
	}
	if _, err := New(in, in.AddDate(0, 0, -1)); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("inverted stay: got %v", err)
	}
	if _, err := New(time.Time{}, in); !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("zero check-in: got %v", err)
	}
}

func TestParseDayAcceptsDateAndTimestamp(t *testing.T) {
	a := mustDay(t, "2025-06-10")
	b := mustDay(t, "2025-06-10T18:30:00Z")
	if !a.Equal(b) {
		t.Fatalf("%v != %v", a, b)
	}
	if _, err := ParseDay("10/06/2025"); err == nil {
		t.Fatal("expected error for unsupported layout")
	}
}

func TestNewDaysDropsTimeOfDay(t *testing.T) {
	dr, err := NewDays(time.Date(2025, 6, 10, 15, 0, 0, 0, time.UTC), time.Date(2025, 6, 12, 9, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("new days: %v", err)
	}
	if dr.Nights() != 2 {
		t.Fatalf("nights = %d", dr.Nights())
	}
	if got := len(dr.Days()); got != 2 {
		t.Fatalf("days = %d", got)
	}
}

func TestOverlapIsHalfOpen(t *testing.T) {
	a, _ := NewDays(mustDay(t, "2025-06-01"), mustDay(t, "2025-06-05"))
	b, _ := NewDays(mustDay(t, "2025-06-05"), mustDay(t, "2025-06-08"))
	c, _ := NewDays(mustDay(t, "2025-06-04"), mustDay(t, "2025-06-06"))
	if a.Overlaps(b) || b.Overlaps(a) {
		t.Fatal("back-to-back stays must not overlap")
	}
	if !a.Adjacent(b) {
		t.Fatal("expected adjacency")
	}
	if !a.Overlaps(c) || !c.Overlaps(b) {
		t.Fatal("expected overlap")
	}
}

func TestTouchesDayIncludesCheckout(t *testing.T) {
	dr, _ := NewDays(mustDay(t, "2025-06-01"), mustDay(t, "2025-06-05"))
	if !dr.TouchesDay(mustDay(t, "2025-06-05")) {
		t.Fatal("checkout day should count")
	}
	if dr.ContainsDate(mustDay(t, "2025-06-05")) {
		t.Fatal("checkout day is not a night of the stay")
	}
	if dr.TouchesDay(mustDay(t, "2025-06-06")) {
		t.Fatal("day after checkout should not count")
	}
}
