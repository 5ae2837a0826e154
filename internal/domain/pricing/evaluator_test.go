package pricing

import (
	"errors"
	"testing"
	"time"

	"villarent/internal/domain/shared/daterange"
	"villarent/internal/domain/shared/money"
)

func day(t *testing.T, raw string) time.Time {
	t.Helper()
	d, err := daterange.ParseDay(raw)
	if err != nil {
		t.Fatalf("parse %q: %v", raw, err)
	}
	return d
}

func stay(t *testing.T, in, out string) daterange.DateRange {
	t.Helper()
	dr, err := daterange.NewDays(day(t, in), day(t, out))
	if err != nil {
		t.Fatalf("range: %v", err)
	}
	return dr
}

func rule(t *testing.T, id, from, to, kind string, value float64, created time.Time) *Rule {
	t.Helper()
	r, err := NewRule(RuleParams{
		ID:       RuleID(id),
		VillaID:  "villa-1",
		StartsOn: day(t, from),
		EndsOn:   day(t, to),
		Kind:     kind,
		Value:    value,
		Now:      created,
	})
	if err != nil {
		t.Fatalf("new rule: %v", err)
	}
	return r
}

func TestEvaluateWithoutRules(t *testing.T) {
	b, err := Evaluate(money.IDR(1_500_000), stay(t, "2025-06-01", "2025-06-04"), nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if b.Nights != 3 || b.Subtotal.Amount != 4_500_000 || b.Total.Amount != 4_500_000 {
		t.Fatalf("unexpected breakdown: %+v", b)
	}
	if b.Adjustment.Amount != 0 || b.AppliedRule != nil {
		t.Fatalf("expected no adjustment, got %+v", b)
	}
}

func TestEvaluatePercentageAndFlat(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		name  string
		rule  *Rule
		total int64
	}{
		{"surcharge", rule(t, "r1", "2025-06-01", "2025-06-30", "percentage", 20, now), 3_600_000},
		{"discount", rule(t, "r2", "2025-06-01", "2025-06-30", "percentage", -10, now), 2_700_000},
		{"flat per night", rule(t, "r3", "2025-06-01", "2025-06-30", "flat", 250_000, now), 3_750_000},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b, err := Evaluate(money.IDR(1_000_000), stay(t, "2025-06-10", "2025-06-13"), []*Rule{tc.rule})
			if err != nil {
				t.Fatalf("evaluate: %v", err)
			}
			if b.Total.Amount != tc.total {
				t.Fatalf("total = %d, want %d", b.Total.Amount, tc.total)
			}
			if b.Adjustment.Amount != tc.total-3_000_000 {
				t.Fatalf("adjustment = %d", b.Adjustment.Amount)
			}
			if b.AppliedRule != tc.rule {
				t.Fatalf("rule not reported")
			}
		})
	}
}

func TestEvaluateRoundsOnceOnTheTotal(t *testing.T) {
	r := rule(t, "r", "2025-06-01", "2025-06-30", "percentage", 10, time.Now())
	b, err := Evaluate(money.IDR(333_333), stay(t, "2025-06-10", "2025-06-13"), []*Rule{r})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if b.Total.Amount != 1_099_999 || b.Adjustment.Amount != 100_000 {
		t.Fatalf("unexpected breakdown: %+v", b)
	}
}

func TestEvaluateClampsNegativeTotal(t *testing.T) {
	r := rule(t, "r1", "2025-06-01", "2025-06-30", "flat", -2_000_000, time.Now())
	b, err := Evaluate(money.IDR(1_000_000), stay(t, "2025-06-10", "2025-06-12"), []*Rule{r})
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if b.Total.Amount != 0 || b.Adjustment.Amount != -2_000_000 {
		t.Fatalf("unexpected breakdown: %+v", b)
	}
}

func TestSelectPrefersNarrowestWindow(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	season := rule(t, "season", "2025-06-01", "2025-08-31", "percentage", 10, base.Add(time.Hour))
	holiday := rule(t, "holiday", "2025-06-10", "2025-06-15", "percentage", 50, base)
	got := Select([]*Rule{season, holiday}, stay(t, "2025-06-12", "2025-06-14"), 2)
	if got != holiday {
		t.Fatalf("expected holiday rule, got %v", got.ID)
	}
}

func TestSelectTieBreaksOnCreationThenID(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	older := rule(t, "a", "2025-06-01", "2025-06-10", "flat", 1, base)
	newer := rule(t, "b", "2025-06-01", "2025-06-10", "flat", 2, base.Add(time.Minute))
	dr := stay(t, "2025-06-02", "2025-06-04")
	if got := Select([]*Rule{older, newer}, dr, 2); got != newer {
		t.Fatalf("expected most recent rule, got %v", got.ID)
	}
	twin := rule(t, "c", "2025-06-01", "2025-06-10", "flat", 3, base.Add(time.Minute))
	if got := Select([]*Rule{twin, newer}, dr, 2); got != newer {
		t.Fatalf("expected lowest id on full tie, got %v", got.ID)
	}
}

func TestSelectHonoursNightLimits(t *testing.T) {
	r, err := NewRule(RuleParams{
		ID: "long", VillaID: "villa-1",
		StartsOn: day(t, "2025-06-01"), EndsOn: day(t, "2025-06-30"),
		Kind: "percentage", Value: -15, MinNights: 7,
		Now: time.Now(),
	})
	if err != nil {
		t.Fatalf("new rule: %v", err)
	}
	if Select([]*Rule{r}, stay(t, "2025-06-02", "2025-06-05"), 3) != nil {
		t.Fatal("short stay should not get the weekly discount")
	}
	if Select([]*Rule{r}, stay(t, "2025-06-02", "2025-06-10"), 8) != r {
		t.Fatal("long stay should get the weekly discount")
	}
}

func TestRuleWindowIsInclusiveOfCheckout(t *testing.T) {
	r := rule(t, "r", "2025-06-05", "2025-06-05", "flat", 10, time.Now())
	if !r.Intersects(stay(t, "2025-06-03", "2025-06-05")) {
		t.Fatal("a window on the checkout day should intersect")
	}
	if r.Intersects(stay(t, "2025-06-01", "2025-06-04")) {
		t.Fatal("a window after checkout should not intersect")
	}
}

func TestNewRuleValidation(t *testing.T) {
	now := time.Now()
	cases := []struct {
		name string
		p    RuleParams
		want error
	}{
		{"inverted window", RuleParams{ID: "r", VillaID: "v", StartsOn: day(t, "2025-06-10"), EndsOn: day(t, "2025-06-01"), Kind: "flat", Now: now}, ErrRuleWindow},
		{"unknown kind", RuleParams{ID: "r", VillaID: "v", StartsOn: day(t, "2025-06-01"), EndsOn: day(t, "2025-06-10"), Kind: "weekend", Now: now}, ErrRuleKind},
		{"percentage below -100", RuleParams{ID: "r", VillaID: "v", StartsOn: day(t, "2025-06-01"), EndsOn: day(t, "2025-06-10"), Kind: "percentage", Value: -101, Now: now}, ErrRulePercentage},
		{"nights inverted", RuleParams{ID: "r", VillaID: "v", StartsOn: day(t, "2025-06-01"), EndsOn: day(t, "2025-06-10"), Kind: "flat", MinNights: 5, MaxNights: 2, Now: now}, ErrRuleNights},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewRule(tc.p); !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}
}
