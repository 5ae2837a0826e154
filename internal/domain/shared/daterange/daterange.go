package daterange

import (
	"errors"
	"math"
	"time"
)

var (
	ErrInvalidRange = errors.New("daterange: checkout must be after checkin")
)

const day = 24 * time.Hour

// DateRange represents a half-open stay interval [checkIn, checkOut).
type DateRange struct {
	CheckIn  time.Time
	CheckOut time.Time
}

func New(checkIn, checkOut time.Time) (DateRange, error) {
	dr := DateRange{CheckIn: checkIn.UTC(), CheckOut: checkOut.UTC()}
	if err := dr.Validate(); err != nil {
		return DateRange{}, err
	}
	return dr, nil
}

// NewDays builds a range from two calendar days, dropping the time of day.
func NewDays(checkIn, checkOut time.Time) (DateRange, error) {
	return New(Day(checkIn), Day(checkOut))
}

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDay accepts YYYY-MM-DD or RFC3339 and returns the calendar day.
func ParseDay(raw string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, err
	}
	return Day(t), nil
}

func (dr DateRange) Validate() error {
	if dr.CheckOut.IsZero() || dr.CheckIn.IsZero() {
		return ErrInvalidRange
	}
	if !dr.CheckOut.After(dr.CheckIn) {
		return ErrInvalidRange
	}
	return nil
}

// Nights counts started days between check-in and check-out.
func (dr DateRange) Nights() int {
	return int(math.Ceil(dr.CheckOut.Sub(dr.CheckIn).Hours() / 24))
}

func (dr DateRange) Overlaps(other DateRange) bool {
	return dr.CheckIn.Before(other.CheckOut) && other.CheckIn.Before(dr.CheckOut)
}

func (dr DateRange) ContainsDate(t time.Time) bool {
	t = t.UTC()
	return (t.Equal(dr.CheckIn) || t.After(dr.CheckIn)) && t.Before(dr.CheckOut)
}

// TouchesDay treats both ends as inclusive, so the checkout day counts.
func (dr DateRange) TouchesDay(t time.Time) bool {
	d := Day(t)
	return !d.Before(Day(dr.CheckIn)) && !d.After(Day(dr.CheckOut))
}

// IntersectsWindow reports whether the inclusive window [from, to] meets the range ends.
func (dr DateRange) IntersectsWindow(from, to time.Time) bool {
	return !from.After(dr.CheckOut) && !to.Before(dr.CheckIn)
}

func (dr DateRange) Adjacent(other DateRange) bool {
	return dr.CheckOut.Equal(other.CheckIn) || dr.CheckIn.Equal(other.CheckOut)
}

// Days lists every calendar day in [checkIn, checkOut).
func (dr DateRange) Days() []time.Time {
	var out []time.Time
	for d := Day(dr.CheckIn); d.Before(dr.CheckOut); d = d.Add(day) {
		out = append(out, d)
	}
	return out
}
