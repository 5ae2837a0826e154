package quote_test

import (
	"context"
	"testing"
	"time"

	"villarent/internal/app/apperr"
	quotesvc "villarent/internal/app/services/quote"
	"villarent/internal/app/uow"
	"villarent/internal/domain/availability"
	domainbooking "villarent/internal/domain/booking"
	"villarent/internal/domain/shared/daterange"
	"villarent/internal/domain/shared/money"
	domainvillas "villarent/internal/domain/villas"
	"villarent/internal/infra/storage/memory"
)

var seededAt = time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)

func day(t *testing.T, raw string) time.Time {
	t.Helper()
	d, err := daterange.ParseDay(raw)
	if err != nil {
		t.Fatalf("day %q: %v", raw, err)
	}
	return d
}

// seed creates three villas with base 1,000,000 and room for 4 guests: one
// free, one blacked out on 2025-06-02 and one booked 2025-06-01..03.
func seed(t *testing.T) *memory.Store {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	unit, err := store.Begin(ctx, uow.TxOptions{})
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	for _, slug := range []string{"free", "blackout", "booked"} {
		v, err := domainvillas.New(domainvillas.VillaID(slug), domainvillas.Details{
			Slug: "villa-" + slug, Name: "Villa " + slug, Location: "Canggu, Bali",
			MaxGuests: 4, BasePrice: 1_000_000, Active: true,
		}, seededAt)
		if err != nil {
			t.Fatalf("villa: %v", err)
		}
		if err := unit.Villas().Save(ctx, v); err != nil {
			t.Fatalf("save villa: %v", err)
		}
	}
	blackout, err := availability.NewBlackout("bo-1", "blackout", day(t, "2025-06-02"), "upacara", seededAt)
	if err != nil {
		t.Fatalf("blackout: %v", err)
	}
	if err := unit.Blackouts().Save(ctx, blackout); err != nil {
		t.Fatalf("save blackout: %v", err)
	}
	stay, _ := daterange.NewDays(day(t, "2025-06-01"), day(t, "2025-06-03"))
	existing, err := domainbooking.NewConfirmed(domainbooking.CreateParams{
		ID: "b-1", Reference: "VIL-20250501-AAAAAA", VillaID: "booked",
		Guest: domainbooking.Guest{Name: "Ketut", Email: "ketut@example.com", Phone: "0812"},
		Range: stay, Guests: 2, Total: money.IDR(2_000_000), Now: seededAt,
	})
	if err != nil {
		t.Fatalf("booking: %v", err)
	}
	if err := unit.Bookings().Insert(ctx, existing); err != nil {
		t.Fatalf("insert booking: %v", err)
	}
	if err := unit.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}
	return store
}

func quote(t *testing.T, store *memory.Store, req quotesvc.Request) (quotesvc.Result, error) {
	t.Helper()
	ctx := context.Background()
	unit, err := store.Begin(ctx, uow.TxOptions{ReadOnly: true})
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	defer unit.Rollback(ctx)
	return quotesvc.Calculator{Timeout: time.Second}.Quote(ctx, unit, req)
}

func TestQuoteScenarios(t *testing.T) {
	store := seed(t)
	cases := []struct {
		name     string
		villa    domainvillas.VillaID
		in, out  string
		guests   int
		wantKind apperr.Kind
	}{
		{name: "three nights at base rate", villa: "free", in: "2025-06-01", out: "2025-06-04", guests: 2},
		{name: "blackout inside stay", villa: "blackout", in: "2025-06-01", out: "2025-06-04", guests: 2, wantKind: apperr.KindBlackedOut},
		{name: "overlaps confirmed booking", villa: "booked", in: "2025-06-02", out: "2025-06-05", guests: 2, wantKind: apperr.KindConflict},
		{name: "starts on previous checkout", villa: "booked", in: "2025-06-03", out: "2025-06-05", guests: 2},
		{name: "five guests on a villa for four", villa: "free", in: "2025-06-01", out: "2025-06-04", guests: 5, wantKind: apperr.KindCapacityExceeded},
		{name: "checkout before checkin", villa: "free", in: "2025-06-04", out: "2025-06-01", guests: 2, wantKind: apperr.KindInvalidDateRange},
		{name: "unknown villa", villa: "nope", in: "2025-06-01", out: "2025-06-04", guests: 2, wantKind: apperr.KindNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := quote(t, store, quotesvc.Request{
				VillaID: tc.villa, CheckIn: day(t, tc.in), CheckOut: day(t, tc.out), Guests: tc.guests,
			})
			if tc.wantKind != "" {
				if got := apperr.KindOf(err); got != tc.wantKind {
					t.Fatalf("kind = %s (%v), want %s", got, err, tc.wantKind)
				}
				return
			}
			if err != nil {
				t.Fatalf("quote: %v", err)
			}
			if res.Guests != tc.guests || res.Breakdown.Nights <= 0 {
				t.Fatalf("result = %+v", res)
			}
		})
	}
}

func TestQuoteIsStable(t *testing.T) {
	store := seed(t)
	req := quotesvc.Request{VillaID: "free", CheckIn: day(t, "2025-06-01"), CheckOut: day(t, "2025-06-04"), Guests: 2}
	first, err := quote(t, store, req)
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if first.Breakdown.Nights != 3 || first.Breakdown.Total.Amount != 3_000_000 || first.Breakdown.AppliedRule != nil {
		t.Fatalf("breakdown = %+v", first.Breakdown)
	}
	for i := 0; i < 3; i++ {
		again, err := quote(t, store, req)
		if err != nil || again.Breakdown.Total != first.Breakdown.Total {
			t.Fatalf("repeat %d: %+v %v", i, again.Breakdown, err)
		}
	}
}
