package booking

import (
	"time"

	"villarent/internal/domain/shared/daterange"
	"villarent/internal/domain/shared/money"
	"villarent/internal/domain/villas"
)

type BookingConfirmed struct {
	BookingID  BookingID           `json:"booking_id"`
	Reference  string              `json:"reference"`
	VillaID    villas.VillaID      `json:"villa_id"`
	GuestEmail string              `json:"guest_email"`
	Range      daterange.DateRange `json:"range"`
	Guests     int                 `json:"guests"`
	Total      money.Money         `json:"total"`
	At         time.Time           `json:"at"`
}

func (e BookingConfirmed) EventName() string     { return "booking.confirmed" }
func (e BookingConfirmed) AggregateID() string   { return string(e.BookingID) }
func (e BookingConfirmed) OccurredAt() time.Time { return e.At }

type BookingCancelled struct {
	BookingID BookingID      `json:"booking_id"`
	Reference string         `json:"reference"`
	VillaID   villas.VillaID `json:"villa_id"`
	By        string         `json:"by"`
	At        time.Time      `json:"at"`
}

func (e BookingCancelled) EventName() string     { return "booking.cancelled" }
func (e BookingCancelled) AggregateID() string   { return string(e.BookingID) }
func (e BookingCancelled) OccurredAt() time.Time { return e.At }

type BookingCompleted struct {
	BookingID BookingID      `json:"booking_id"`
	VillaID   villas.VillaID `json:"villa_id"`
	At        time.Time      `json:"at"`
}

func (e BookingCompleted) EventName() string     { return "booking.completed" }
func (e BookingCompleted) AggregateID() string   { return string(e.BookingID) }
func (e BookingCompleted) OccurredAt() time.Time { return e.At }
