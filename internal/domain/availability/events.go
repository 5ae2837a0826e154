package availability

import (
	"time"

	"villarent/internal/domain/shared/daterange"
	"villarent/internal/domain/villas"
)

type CalendarBlocked struct {
	VillaID   villas.VillaID      `json:"villa_id"`
	Range     daterange.DateRange `json:"range"`
	Reference string              `json:"reference"`
	At        time.Time           `json:"at"`
}

func (e CalendarBlocked) EventName() string     { return "calendar.blocked" }
func (e CalendarBlocked) AggregateID() string   { return string(e.VillaID) }
func (e CalendarBlocked) OccurredAt() time.Time { return e.At }

type CalendarReleased struct {
	VillaID   villas.VillaID      `json:"villa_id"`
	Range     daterange.DateRange `json:"range"`
	Reference string              `json:"reference"`
	At        time.Time           `json:"at"`
}

func (e CalendarReleased) EventName() string     { return "calendar.released" }
func (e CalendarReleased) AggregateID() string   { return string(e.VillaID) }
func (e CalendarReleased) OccurredAt() time.Time { return e.At }

type OverbookingPrevented struct {
	VillaID villas.VillaID      `json:"villa_id"`
	Range   daterange.DateRange `json:"range"`
	At      time.Time           `json:"at"`
}

func (e OverbookingPrevented) EventName() string     { return "calendar.overbooking_prevented" }
func (e OverbookingPrevented) AggregateID() string   { return string(e.VillaID) }
func (e OverbookingPrevented) OccurredAt() time.Time { return e.At }
