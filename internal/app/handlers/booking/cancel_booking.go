package booking

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"villarent/internal/app/commands"
	"villarent/internal/app/dto"
	"villarent/internal/app/handlers/support"
	"villarent/internal/app/outbox"
	"villarent/internal/app/uow"
	"villarent/internal/domain/availability"
	domainbooking "villarent/internal/domain/booking"
	domainvillas "villarent/internal/domain/villas"
)

const (
	cancelBookingKey = "bookings.cancel"
	updateBookingKey = "admin.bookings.update"
)

type CancelBookingCommand struct {
	BookingID string `validate:"required"`
}

func (c CancelBookingCommand) Key() string { return cancelBookingKey }

// CancelBookingHandler applies the guest cancellation rule and frees the
// dates on the villa calendar in the same unit of work.
type CancelBookingHandler struct {
	Outbox  outbox.Outbox
	Timeout time.Duration
	Logger  *slog.Logger
	Now     func() time.Time
}

func (h *CancelBookingHandler) Handle(ctx context.Context, cmd CancelBookingCommand) (*dto.Booking, error) {
	unit, err := support.UnitFromContext(ctx)
	if err != nil {
		return nil, err
	}
	b, err := uow.Bounded(ctx, h.Timeout, func(ctx context.Context) (*domainbooking.Booking, error) {
		return unit.Bookings().ByID(ctx, domainbooking.BookingID(cmd.BookingID))
	})
	if err != nil {
		return nil, err
	}
	now := nowFrom(h.Now)
	if err := b.Cancel(now); err != nil {
		return nil, err
	}
	if err := persistCancellation(ctx, unit, h.Outbox, h.Timeout, b, now); err != nil {
		return nil, err
	}
	if h.Logger != nil {
		h.Logger.Info("booking cancelled", "booking_id", b.ID, "reference", b.Reference, "by", "guest")
	}
	return mapWithVilla(ctx, unit, b), nil
}

// UpdateBookingCommand carries the admin edits; nil fields stay untouched.
type UpdateBookingCommand struct {
	BookingID      string  `validate:"required"`
	Status         *string `validate:"omitempty,oneof=pending confirmed cancelled completed"`
	SpecialRequest *string `validate:"omitempty,max=2000"`
}

func (c UpdateBookingCommand) Key() string { return updateBookingKey }

func (UpdateBookingCommand) AdminOnly() {}

type UpdateBookingHandler struct {
	Outbox  outbox.Outbox
	Timeout time.Duration
	Logger  *slog.Logger
	Now     func() time.Time
}

func (h *UpdateBookingHandler) Handle(ctx context.Context, cmd UpdateBookingCommand) (*dto.Booking, error) {
	unit, err := support.UnitFromContext(ctx)
	if err != nil {
		return nil, err
	}
	b, err := uow.Bounded(ctx, h.Timeout, func(ctx context.Context) (*domainbooking.Booking, error) {
		return unit.Bookings().ByID(ctx, domainbooking.BookingID(cmd.BookingID))
	})
	if err != nil {
		return nil, err
	}
	now := nowFrom(h.Now)
	if cmd.SpecialRequest != nil {
		b.UpdateSpecialRequest(*cmd.SpecialRequest, now)
	}
	target := b.Status
	if cmd.Status != nil {
		parsed, ok := domainbooking.ParseStatus(*cmd.Status)
		if !ok {
			return nil, domainbooking.ErrInvalidState
		}
		target = parsed
	}

	var calendar *availability.Calendar
	switch {
	case target == b.Status:
	case target == domainbooking.StatusCancelled:
		if err := b.AdminCancel(now); err != nil {
			return nil, err
		}
		if err := persistCancellation(ctx, unit, h.Outbox, h.Timeout, b, now); err != nil {
			return nil, err
		}
		h.log(b)
		return mapWithVilla(ctx, unit, b), nil
	case target == domainbooking.StatusConfirmed:
		// Confirming a pending booking reserves its dates, so it fails when
		// they were taken in the meantime.
		calendar, err = loadCalendar(ctx, unit, h.Timeout, b.VillaID)
		if err != nil {
			return nil, err
		}
		if err := b.Confirm(now); err != nil {
			return nil, err
		}
		if err := calendar.Reserve(b.Range, b.Reference, now); err != nil {
			return nil, err
		}
	case target == domainbooking.StatusCompleted:
		if err := b.Complete(now); err != nil {
			return nil, err
		}
	default:
		return nil, domainbooking.ErrInvalidState
	}

	if _, err := uow.Bounded(ctx, h.Timeout, func(ctx context.Context) (struct{}, error) {
		if err := unit.Bookings().Save(ctx, b); err != nil {
			return struct{}{}, err
		}
		if calendar != nil {
			return struct{}{}, unit.Calendars().Save(ctx, calendar)
		}
		return struct{}{}, nil
	}); err != nil {
		return nil, err
	}
	recorders := []outbox.Recorder{b}
	if calendar != nil {
		recorders = append(recorders, calendar)
	}
	if err := outbox.Drain(ctx, h.Outbox, recorders...); err != nil {
		return nil, err
	}
	h.log(b)
	return mapWithVilla(ctx, unit, b), nil
}

func (h *UpdateBookingHandler) log(b *domainbooking.Booking) {
	if h.Logger != nil {
		h.Logger.Info("booking updated by admin", "booking_id", b.ID, "status", b.Status)
	}
}

// persistCancellation releases the booking's calendar block, then saves the
// booking and calendar and records their events.
func persistCancellation(ctx context.Context, unit uow.UnitOfWork, box outbox.Outbox, timeout time.Duration, b *domainbooking.Booking, now time.Time) error {
	calendar, err := loadCalendar(ctx, unit, timeout, b.VillaID)
	if err != nil {
		return err
	}
	released := true
	if err := calendar.Release(b.Reference, now); err != nil {
		if !errors.Is(err, availability.ErrRangeNotFound) {
			return err
		}
		released = false
	}
	_, err = uow.Bounded(ctx, timeout, func(ctx context.Context) (struct{}, error) {
		if err := unit.Bookings().Save(ctx, b); err != nil {
			return struct{}{}, err
		}
		if released {
			return struct{}{}, unit.Calendars().Save(ctx, calendar)
		}
		return struct{}{}, nil
	})
	if err != nil {
		return err
	}
	return outbox.Drain(ctx, box, b, calendar)
}

func loadCalendar(ctx context.Context, unit uow.UnitOfWork, timeout time.Duration, villaID domainvillas.VillaID) (*availability.Calendar, error) {
	return uow.Bounded(ctx, timeout, func(ctx context.Context) (*availability.Calendar, error) {
		return unit.Calendars().Calendar(ctx, villaID)
	})
}

// mapWithVilla decorates the booking with its villa; a missing villa only
// leaves the snapshot sparse.
func mapWithVilla(ctx context.Context, unit uow.UnitOfWork, b *domainbooking.Booking) *dto.Booking {
	villa, err := unit.Villas().ByID(ctx, b.VillaID)
	if err != nil {
		villa = nil
	}
	out := dto.MapBooking(b, villa)
	return &out
}

func nowFrom(fn func() time.Time) time.Time {
	if fn != nil {
		return fn().UTC()
	}
	return time.Now().UTC()
}

var _ commands.Handler[CancelBookingCommand, *dto.Booking] = (*CancelBookingHandler)(nil)
var _ commands.Handler[UpdateBookingCommand, *dto.Booking] = (*UpdateBookingHandler)(nil)
