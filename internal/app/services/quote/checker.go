// Package quote answers whether a stay is legal and what it costs. Both
// services read through the unit of work bound to the context, so the same
// code serves advisory quotes and the re-check inside a booking transaction.
package quote

import (
	"context"
	"time"

	"villarent/internal/app/uow"
	"villarent/internal/domain/availability"
	"villarent/internal/domain/shared/daterange"
	domainvillas "villarent/internal/domain/villas"
)

// Request identifies one prospective stay.
type Request struct {
	VillaID  domainvillas.VillaID
	CheckIn  time.Time
	CheckOut time.Time
	Guests   int
}

// Checked is the snapshot a successful check leaves behind.
type Checked struct {
	Villa *domainvillas.Villa
	Range daterange.DateRange
}

type Checker struct {
	Timeout time.Duration
}

// Check runs the availability rules in fail-fast order: villa state, guests,
// dates, blackout days, then confirmed bookings.
func (c Checker) Check(ctx context.Context, unit uow.UnitOfWork, req Request) (Checked, error) {
	villa, err := uow.Bounded(ctx, c.Timeout, func(ctx context.Context) (*domainvillas.Villa, error) {
		return unit.Villas().ByID(ctx, req.VillaID)
	})
	if err != nil {
		return Checked{}, err
	}
	dr, err := availability.CheckStay(villa, req.CheckIn, req.CheckOut, req.Guests)
	if err != nil {
		return Checked{}, err
	}

	blackouts, err := uow.Bounded(ctx, c.Timeout, func(ctx context.Context) ([]*availability.Blackout, error) {
		return unit.Blackouts().Between(ctx, villa.ID, dr.CheckIn, dr.CheckOut)
	})
	if err != nil {
		return Checked{}, err
	}
	if err := availability.CheckDates(dr, blackouts, nil); err != nil {
		return Checked{}, err
	}

	confirmed, err := uow.Bounded(ctx, c.Timeout, func(ctx context.Context) ([]daterange.DateRange, error) {
		items, err := unit.Bookings().ConfirmedOverlapping(ctx, villa.ID, dr)
		if err != nil {
			return nil, err
		}
		ranges := make([]daterange.DateRange, 0, len(items))
		for _, b := range items {
			ranges = append(ranges, b.Range)
		}
		return ranges, nil
	})
	if err != nil {
		return Checked{}, err
	}
	if err := availability.CheckDates(dr, nil, confirmed); err != nil {
		return Checked{}, err
	}
	return Checked{Villa: villa, Range: dr}, nil
}
