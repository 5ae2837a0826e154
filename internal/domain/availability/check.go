package availability

import (
	"errors"
	"fmt"
	"time"

	"villarent/internal/domain/shared/daterange"
	"villarent/internal/domain/villas"
)

var (
	ErrInvalidGuests     = errors.New("availability: guests count must be positive")
	ErrCapacityExceeded  = errors.New("availability: guests exceed villa capacity")
	ErrBlackedOut        = errors.New("availability: stay includes a blackout date")
	ErrConflict          = errors.New("availability: dates overlap a confirmed booking")
	ErrInvalidDateRange  = daterange.ErrInvalidRange
	ErrVillaNotAvailable = villas.ErrNotFound
)

// UnavailableError carries the detail needed to explain a rejected stay.
type UnavailableError struct {
	Cause     error
	MaxGuests int
	Date      time.Time
}

func (e *UnavailableError) Error() string {
	switch {
	case e.MaxGuests > 0:
		return fmt.Sprintf("%s (max %d)", e.Cause, e.MaxGuests)
	case !e.Date.IsZero():
		return fmt.Sprintf("%s (%s)", e.Cause, e.Date.Format(time.DateOnly))
	default:
		return e.Cause.Error()
	}
}

func (e *UnavailableError) Unwrap() error { return e.Cause }

// CheckStay runs the villa-level checks in order: existence and state,
// capacity, then the date range. It returns the normalized stay.
func CheckStay(villa *villas.Villa, checkIn, checkOut time.Time, guests int) (daterange.DateRange, error) {
	if villa == nil || !villa.IsActive() {
		return daterange.DateRange{}, ErrVillaNotAvailable
	}
	if guests < 1 {
		return daterange.DateRange{}, ErrInvalidGuests
	}
	if guests > villa.MaxGuests {
		return daterange.DateRange{}, &UnavailableError{Cause: ErrCapacityExceeded, MaxGuests: villa.MaxGuests}
	}
	dr, err := daterange.NewDays(checkIn, checkOut)
	if err != nil {
		return daterange.DateRange{}, ErrInvalidDateRange
	}
	return dr, nil
}

// CheckDates rejects a stay that touches a blackout day, checkout day
// included, or overlaps any of the confirmed stays.
func CheckDates(dr daterange.DateRange, blackouts []*Blackout, confirmed []daterange.DateRange) error {
	for _, b := range blackouts {
		if b != nil && dr.TouchesDay(b.Date) {
			return &UnavailableError{Cause: ErrBlackedOut, Date: b.Date}
		}
	}
	for _, other := range confirmed {
		if dr.Overlaps(other) {
			return ErrConflict
		}
	}
	return nil
}
