package availability

import (
	"errors"
	"testing"
	"time"

	"villarent/internal/domain/shared/daterange"
	"villarent/internal/domain/villas"
)

func testVilla(t *testing.T, active bool) *villas.Villa {
	t.Helper()
	v, err := villas.New("villa-1", villas.Details{
		Slug: "villa-sunset", Name: "Villa Sunset", Location: "Canggu",
		MaxGuests: 4, BasePrice: 2_000_000, Active: active,
	}, time.Now())
	if err != nil {
		t.Fatalf("new villa: %v", err)
	}
	return v
}

func d(y int, m time.Month, day int) time.Time {
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

func TestCheckStayOrder(t *testing.T) {
	active := testVilla(t, true)
	cases := []struct {
		name   string
		villa  *villas.Villa
		in     time.Time
		out    time.Time
		guests int
		want   error
	}{
		{"missing villa", nil, d(2025, 6, 1), d(2025, 6, 3), 2, ErrVillaNotAvailable},
		{"inactive villa", testVilla(t, false), d(2025, 6, 1), d(2025, 6, 3), 2, ErrVillaNotAvailable},
		{"no guests", active, d(2025, 6, 1), d(2025, 6, 3), 0, ErrInvalidGuests},
		{"capacity before dates", active, d(2025, 6, 3), d(2025, 6, 1), 9, ErrCapacityExceeded},
		{"inverted dates", active, d(2025, 6, 3), d(2025, 6, 1), 2, ErrInvalidDateRange},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := CheckStay(tc.villa, tc.in, tc.out, tc.guests); !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestCheckStayReportsCapacity(t *testing.T) {
	_, err := CheckStay(testVilla(t, true), d(2025, 6, 1), d(2025, 6, 3), 5)
	var ue *UnavailableError
	if !errors.As(err, &ue) || ue.MaxGuests != 4 {
		t.Fatalf("expected capacity detail, got %v", err)
	}
}

func TestCheckDates(t *testing.T) {
	stay, _ := daterange.NewDays(d(2025, 6, 10), d(2025, 6, 13))
	onCheckout, _ := NewBlackout("b1", "villa-1", d(2025, 6, 13), "maintenance", time.Now())
	elsewhere, _ := NewBlackout("b2", "villa-1", d(2025, 6, 20), "", time.Now())
	before, _ := daterange.NewDays(d(2025, 6, 7), d(2025, 6, 10))
	overlapping, _ := daterange.NewDays(d(2025, 6, 12), d(2025, 6, 15))

	err := CheckDates(stay, []*Blackout{elsewhere, onCheckout}, nil)
	var ue *UnavailableError
	if !errors.Is(err, ErrBlackedOut) || !errors.As(err, &ue) || !ue.Date.Equal(d(2025, 6, 13)) {
		t.Fatalf("expected blackout on checkout day, got %v", err)
	}
	if err := CheckDates(stay, []*Blackout{elsewhere}, []daterange.DateRange{before}); err != nil {
		t.Fatalf("back-to-back stay should pass: %v", err)
	}
	if err := CheckDates(stay, nil, []daterange.DateRange{before, overlapping}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestCalendarReserveAndRelease(t *testing.T) {
	cal := NewCalendar("villa-1")
	now := time.Now()
	first, _ := daterange.NewDays(d(2025, 6, 1), d(2025, 6, 4))
	clash, _ := daterange.NewDays(d(2025, 6, 3), d(2025, 6, 5))
	next, _ := daterange.NewDays(d(2025, 6, 4), d(2025, 6, 6))

	if err := cal.Reserve(first, "VIL-A", now); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if err := cal.Reserve(clash, "VIL-B", now); !errors.Is(err, ErrOverlappingRange) {
		t.Fatalf("expected overlap, got %v", err)
	}
	if err := cal.Reserve(next, "VIL-C", now); err != nil {
		t.Fatalf("adjacent reserve: %v", err)
	}
	if got := len(cal.Between(d(2025, 6, 1), d(2025, 6, 30))); got != 2 {
		t.Fatalf("blocks = %d", got)
	}
	if err := cal.Release("VIL-A", now); err != nil {
		t.Fatalf("release: %v", err)
	}
	if err := cal.Reserve(clash, "VIL-B", now); !errors.Is(err, ErrOverlappingRange) {
		t.Fatalf("clash still overlaps VIL-C, got %v", err)
	}
	if err := cal.Release("VIL-A", now); !errors.Is(err, ErrRangeNotFound) {
		t.Fatalf("double release: %v", err)
	}
	if n := len(cal.PendingEvents()); n != 5 {
		t.Fatalf("events = %d", n)
	}
}

func TestCalendarPruneDropsElapsedStays(t *testing.T) {
	cal := NewCalendar("villa-1")
	now := time.Now()
	past, _ := daterange.NewDays(d(2025, 5, 1), d(2025, 5, 4))
	endsToday, _ := daterange.NewDays(d(2025, 5, 8), d(2025, 5, 10))
	current, _ := daterange.NewDays(d(2025, 5, 9), d(2025, 5, 12))
	_ = cal.Reserve(past, "VIL-P", now)
	_ = cal.Reserve(endsToday, "VIL-T", now)
	if err := cal.Reserve(current, "VIL-C", now); !errors.Is(err, ErrOverlappingRange) {
		t.Fatalf("setup overlap: %v", err)
	}

	if n := cal.Prune(time.Date(2025, 5, 10, 15, 0, 0, 0, time.UTC)); n != 2 {
		t.Fatalf("pruned = %d", n)
	}
	if len(cal.Blocks) != 0 {
		t.Fatalf("blocks = %+v", cal.Blocks)
	}
	if err := cal.Reserve(current, "VIL-C", now); err != nil {
		t.Fatalf("reserve after prune: %v", err)
	}
	if n := cal.Prune(time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC)); n != 0 {
		t.Fatalf("a stay still running must be kept, pruned = %d", n)
	}
}
