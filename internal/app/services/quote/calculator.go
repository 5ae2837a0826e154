package quote

import (
	"context"
	"time"

	"villarent/internal/app/uow"
	domainpricing "villarent/internal/domain/pricing"
)

// Result is a priced, checked stay.
type Result struct {
	Checked
	Guests    int
	Breakdown domainpricing.Breakdown
}

type Calculator struct {
	Checker Checker
	Timeout time.Duration
}

// Quote checks the stay and prices it. Nothing is written.
func (c Calculator) Quote(ctx context.Context, unit uow.UnitOfWork, req Request) (Result, error) {
	checked, err := c.Checker.Check(ctx, unit, req)
	if err != nil {
		return Result{}, err
	}
	rules, err := uow.Bounded(ctx, c.Timeout, func(ctx context.Context) ([]*domainpricing.Rule, error) {
		return unit.PricingRules().Intersecting(ctx, checked.Villa.ID, checked.Range.CheckIn, checked.Range.CheckOut)
	})
	if err != nil {
		return Result{}, err
	}
	breakdown, err := domainpricing.Evaluate(checked.Villa.BasePrice, checked.Range, rules)
	if err != nil {
		return Result{}, err
	}
	return Result{Checked: checked, Guests: req.Guests, Breakdown: breakdown}, nil
}
