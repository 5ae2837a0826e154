package booking

import (
	"context"
	"log/slog"
	"time"

	"villarent/internal/app/commands"
	"villarent/internal/app/handlers/support"
	"villarent/internal/app/outbox"
	"villarent/internal/app/uow"
	domainbooking "villarent/internal/domain/booking"
	"villarent/internal/domain/shared/daterange"
)

const completeStaysKey = "bookings.complete_due"

const defaultCompletionBatch = 200

// CompleteStaysCommand moves confirmed bookings whose checkout day has
// arrived to completed. The scheduler dispatches it.
type CompleteStaysCommand struct {
	Day   time.Time
	Limit int
}

func (c CompleteStaysCommand) Key() string { return completeStaysKey }

type CompleteStaysResult struct {
	Completed int `json:"completed"`
}

type CompleteStaysHandler struct {
	Outbox  outbox.Outbox
	Timeout time.Duration
	Logger  *slog.Logger
}

func (h *CompleteStaysHandler) Handle(ctx context.Context, cmd CompleteStaysCommand) (*CompleteStaysResult, error) {
	unit, err := support.UnitFromContext(ctx)
	if err != nil {
		return nil, err
	}
	day := cmd.Day
	if day.IsZero() {
		day = time.Now()
	}
	day = daterange.Day(day)
	limit := cmd.Limit
	if limit <= 0 {
		limit = defaultCompletionBatch
	}

	due, err := uow.Bounded(ctx, h.Timeout, func(ctx context.Context) ([]*domainbooking.Booking, error) {
		return unit.Bookings().DueForCompletion(ctx, day, limit)
	})
	if err != nil {
		return nil, err
	}
	res := &CompleteStaysResult{}
	for _, b := range due {
		if err := b.Complete(day); err != nil {
			continue
		}
		if _, err := uow.Bounded(ctx, h.Timeout, func(ctx context.Context) (struct{}, error) {
			return struct{}{}, unit.Bookings().Save(ctx, b)
		}); err != nil {
			return nil, err
		}
		if err := outbox.Drain(ctx, h.Outbox, b); err != nil {
			return nil, err
		}
		res.Completed++
	}
	if h.Logger != nil && res.Completed > 0 {
		h.Logger.Info("stays completed", "count", res.Completed, "day", day.Format(time.DateOnly))
	}
	return res, nil
}

var _ commands.Handler[CompleteStaysCommand, *CompleteStaysResult] = (*CompleteStaysHandler)(nil)
