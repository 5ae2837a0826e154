package pricing

import (
	"errors"

	"villarent/internal/domain/shared/daterange"
	"villarent/internal/domain/shared/money"
)

var (
	ErrInvalidNights = errors.New("pricing: nights must be positive")
	ErrCurrencyUnset = errors.New("pricing: currency must be defined")
)

// Breakdown is the priced result of one stay.
type Breakdown struct {
	Nights      int
	Nightly     money.Money
	Subtotal    money.Money
	Adjustment  money.Money
	Total       money.Money
	AppliedRule *Rule
}

// Select picks the single rule to apply. Among intersecting rules whose night
// limits accept the stay, the narrowest window wins, then the most recently
// created, then the lowest id.
func Select(rules []*Rule, dr daterange.DateRange, nights int) *Rule {
	var best *Rule
	for _, r := range rules {
		if r == nil || !r.Intersects(dr) || !r.AcceptsNights(nights) {
			continue
		}
		if best == nil || precedes(r, best) {
			best = r
		}
	}
	return best
}

func precedes(a, b *Rule) bool {
	if wa, wb := a.WindowDays(), b.WindowDays(); wa != wb {
		return wa < wb
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID < b.ID
}

// Evaluate prices a stay at nightly for the given range. The total is rounded
// once to whole units; the adjustment is total minus subtotal.
func Evaluate(nightly money.Money, dr daterange.DateRange, rules []*Rule) (Breakdown, error) {
	if nightly.Currency == "" {
		return Breakdown{}, ErrCurrencyUnset
	}
	nights := dr.Nights()
	if nights <= 0 {
		return Breakdown{}, ErrInvalidNights
	}
	subtotal := nightly.Multiply(int64(nights))
	out := Breakdown{
		Nights:     nights,
		Nightly:    nightly,
		Subtotal:   subtotal,
		Adjustment: money.Money{Currency: nightly.Currency},
		Total:      subtotal,
	}
	rule := Select(rules, dr, nights)
	if rule == nil {
		return out, nil
	}

	exact := float64(subtotal.Amount)
	switch rule.Kind {
	case KindPercentage:
		exact += float64(subtotal.Amount) * rule.Value / 100
	case KindFlat:
		exact += rule.Value * float64(nights)
	default:
		return Breakdown{}, ErrRuleKind
	}
	total := money.FromFloat(exact, nightly.Currency)
	if total.IsNegative() {
		total.Amount = 0
	}
	out.Total = total
	out.Adjustment, _ = total.Sub(subtotal)
	out.AppliedRule = rule
	return out, nil
}
