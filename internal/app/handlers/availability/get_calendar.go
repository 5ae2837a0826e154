package availability

import (
	"context"
	"strings"
	"time"

	"villarent/internal/app/dto"
	"villarent/internal/app/handlers/support"
	"villarent/internal/app/queries"
	"villarent/internal/app/uow"
	domainavailability "villarent/internal/domain/availability"
	"villarent/internal/domain/shared/daterange"
	domainvillas "villarent/internal/domain/villas"
)

const getCalendarKey = "availability.calendar"

// DefaultWindow is the span shown when the caller gives no end date.
const DefaultWindow = 180 * 24 * time.Hour

type GetCalendarQuery struct {
	Slug string `validate:"required"`
	From time.Time
	To   time.Time
}

func (q GetCalendarQuery) Key() string { return getCalendarKey }

// GetCalendarHandler returns booked ranges and blackout days of an active
// villa inside [From, To).
type GetCalendarHandler struct {
	UoWFactory uow.UoWFactory
	Timeout    time.Duration
	Now        func() time.Time
}

func (h *GetCalendarHandler) Handle(ctx context.Context, q GetCalendarQuery) (dto.Calendar, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Calendar{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	villa, err := uow.Bounded(execCtx, h.Timeout, func(ctx context.Context) (*domainvillas.Villa, error) {
		return unit.Villas().BySlug(ctx, strings.ToLower(strings.TrimSpace(q.Slug)))
	})
	if err != nil {
		return dto.Calendar{}, err
	}
	if !villa.IsActive() {
		return dto.Calendar{}, domainvillas.ErrNotFound
	}

	from, to := h.window(q.From, q.To)
	if !to.After(from) {
		return dto.Calendar{}, daterange.ErrInvalidRange
	}
	calendar, err := uow.Bounded(execCtx, h.Timeout, func(ctx context.Context) (*domainavailability.Calendar, error) {
		return unit.Calendars().Calendar(ctx, villa.ID)
	})
	if err != nil {
		return dto.Calendar{}, err
	}
	blackouts, err := uow.Bounded(execCtx, h.Timeout, func(ctx context.Context) ([]*domainavailability.Blackout, error) {
		return unit.Blackouts().Between(ctx, villa.ID, from, to.Add(-24*time.Hour))
	})
	if err != nil {
		return dto.Calendar{}, err
	}
	return dto.MapCalendar(string(villa.ID), calendar.Between(from, to), blackouts), nil
}

func (h *GetCalendarHandler) window(from, to time.Time) (time.Time, time.Time) {
	if from.IsZero() {
		now := time.Now()
		if h.Now != nil {
			now = h.Now()
		}
		from = now
	}
	from = daterange.Day(from)
	if to.IsZero() {
		to = from.Add(DefaultWindow)
	}
	return from, daterange.Day(to)
}

var _ queries.Handler[GetCalendarQuery, dto.Calendar] = (*GetCalendarHandler)(nil)
