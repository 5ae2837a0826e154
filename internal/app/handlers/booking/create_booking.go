package booking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"villarent/internal/app/apperr"
	"villarent/internal/app/commands"
	"villarent/internal/app/dto"
	"villarent/internal/app/middleware"
	"villarent/internal/app/outbox"
	"villarent/internal/app/policies"
	quotesvc "villarent/internal/app/services/quote"
	"villarent/internal/app/uow"
	"villarent/internal/domain/availability"
	domainbooking "villarent/internal/domain/booking"
	"villarent/internal/domain/shared/money"
	domainvillas "villarent/internal/domain/villas"
)

const createBookingKey = "bookings.create"

const (
	defaultMaxAttempts    = 5
	defaultNotifyTimeout  = 10 * time.Second
	defaultPriceTolerance = 1
)

type CreateBookingCommand struct {
	VillaID         string    `validate:"required"`
	GuestName       string    `validate:"required,max=120"`
	GuestEmail      string    `validate:"required,email"`
	GuestPhone      string    `validate:"required,max=32"`
	GuestUserID     string
	CheckIn         time.Time `validate:"required"`
	CheckOut        time.Time `validate:"required"`
	Guests          int
	TotalPrice      int64  `validate:"gte=0"`
	SpecialRequest  string `validate:"max=2000"`
	IdempotencyKeyV string
}

func (c CreateBookingCommand) Key() string { return createBookingKey }

func (c CreateBookingCommand) IdempotencyKey() string { return c.IdempotencyKeyV }

func (c CreateBookingCommand) ResultPrototype() any { return &dto.BookingCreated{} }

// OwnsTransaction: each attempt runs in its own unit so a reference collision
// can be retried from scratch.
func (c CreateBookingCommand) OwnsTransaction() bool { return true }

// CreateBookingHandler re-checks and prices the stay, reserves the villa
// calendar and inserts the booking in one unit of work. Confirmation messages
// go out after commit and never fail the booking.
type CreateBookingHandler struct {
	UoWFactory     uow.UoWFactory
	Calculator     quotesvc.Calculator
	Outbox         outbox.Outbox
	Notifier       policies.BookingNotifier
	References     domainbooking.ReferenceGenerator
	PriceTolerance int64
	NotifyTimeout  time.Duration
	MaxAttempts    int
	Timeout        time.Duration
	Logger         *slog.Logger
	Now            func() time.Time
}

var ErrReferenceExhausted = errors.New("booking: no unique reference after retries")

type created struct {
	booking *domainbooking.Booking
	villa   *domainvillas.Villa
}

func (h *CreateBookingHandler) Handle(ctx context.Context, cmd CreateBookingCommand) (*dto.BookingCreated, error) {
	if h.UoWFactory == nil {
		return nil, uow.ErrUnitOfWorkMissing
	}
	attempts := h.MaxAttempts
	if attempts <= 0 {
		attempts = defaultMaxAttempts
	}

	var res created
	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		res, err = h.attempt(ctx, cmd)
		if !errors.Is(err, domainbooking.ErrDuplicateReference) {
			break
		}
		h.logger().Warn("booking reference collision", "villa_id", cmd.VillaID, "attempt", attempt)
	}
	if errors.Is(err, domainbooking.ErrDuplicateReference) {
		return nil, apperr.Unavailable(fmt.Errorf("%w: %d attempts", ErrReferenceExhausted, attempts))
	}
	if err != nil {
		return nil, err
	}

	b := res.booking
	h.logger().Info("booking confirmed", "booking_id", b.ID, "reference", b.Reference, "villa_id", b.VillaID)

	return &dto.BookingCreated{
		BookingID:     string(b.ID),
		Reference:     b.Reference,
		Status:        string(b.Status),
		Total:         dto.MapMoney(b.Total),
		Notifications: h.notify(ctx, res),
	}, nil
}

func (h *CreateBookingHandler) attempt(ctx context.Context, cmd CreateBookingCommand) (created, error) {
	unit, err := h.UoWFactory.Begin(ctx, uow.TxOptions{})
	if err != nil {
		return created{}, err
	}
	execCtx := uow.Bind(ctx, unit)
	committed := false
	defer func() {
		if !committed {
			_ = unit.Rollback(execCtx)
		}
	}()

	quote, err := h.Calculator.Quote(execCtx, unit, quotesvc.Request{
		VillaID:  domainvillas.VillaID(cmd.VillaID),
		CheckIn:  cmd.CheckIn,
		CheckOut: cmd.CheckOut,
		Guests:   cmd.Guests,
	})
	if err != nil {
		return created{}, err
	}
	quoted := money.IDR(cmd.TotalPrice)
	if !quote.Breakdown.Total.Within(quoted, h.tolerance()) {
		return created{}, fmt.Errorf("%w: quoted %d, current %d", domainbooking.ErrPriceMismatch, quoted.Amount, quote.Breakdown.Total.Amount)
	}

	now := h.now()
	calendar, err := uow.Bounded(execCtx, h.Timeout, func(ctx context.Context) (*availability.Calendar, error) {
		return unit.Calendars().Calendar(ctx, quote.Villa.ID)
	})
	if err != nil {
		return created{}, err
	}
	if n := calendar.Prune(now); n > 0 {
		h.logger().Debug("elapsed calendar blocks pruned", "villa_id", quote.Villa.ID, "count", n)
	}
	reference, err := h.References.Next(now)
	if err != nil {
		return created{}, err
	}
	if err := calendar.Reserve(quote.Range, reference, now); err != nil {
		h.logger().Warn("overbooking prevented", "villa_id", quote.Villa.ID, "check_in", quote.Range.CheckIn, "check_out", quote.Range.CheckOut)
		return created{}, err
	}

	b, err := domainbooking.NewConfirmed(domainbooking.CreateParams{
		ID:        domainbooking.BookingID(uuid.NewString()),
		Reference: reference,
		VillaID:   quote.Villa.ID,
		Guest: domainbooking.Guest{
			Name:   cmd.GuestName,
			Email:  cmd.GuestEmail,
			Phone:  cmd.GuestPhone,
			UserID: cmd.GuestUserID,
		},
		Range:          quote.Range,
		Guests:         cmd.Guests,
		Total:          quoted,
		SpecialRequest: cmd.SpecialRequest,
		Now:            now,
	})
	if err != nil {
		return created{}, err
	}

	if _, err := uow.Bounded(execCtx, h.Timeout, func(ctx context.Context) (struct{}, error) {
		if err := unit.Bookings().Insert(ctx, b); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, unit.Calendars().Save(ctx, calendar)
	}); err != nil {
		return created{}, err
	}
	if err := outbox.Drain(execCtx, h.Outbox, b, calendar); err != nil {
		return created{}, err
	}
	if err := unit.Commit(execCtx); err != nil {
		return created{}, err
	}
	committed = true
	return created{booking: b, villa: quote.Villa}, nil
}

// notify sends both messages in parallel under one deadline. It is detached
// from the request so a client hanging up does not drop the emails.
func (h *CreateBookingHandler) notify(ctx context.Context, res created) dto.NotificationStatus {
	var status dto.NotificationStatus
	if h.Notifier == nil {
		return status
	}
	timeout := h.NotifyTimeout
	if timeout <= 0 {
		timeout = defaultNotifyTimeout
	}
	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()

	summary := Summary(res.booking, res.villa)
	var g errgroup.Group
	g.Go(func() error {
		if err := h.Notifier.SendGuestConfirmation(notifyCtx, summary); err != nil {
			h.logger().Error("guest confirmation failed", "booking_id", res.booking.ID, "error", err)
			return nil
		}
		status.Guest = true
		return nil
	})
	g.Go(func() error {
		if err := h.Notifier.SendAdminAlert(notifyCtx, summary); err != nil {
			h.logger().Error("admin alert failed", "booking_id", res.booking.ID, "error", err)
			return nil
		}
		status.Admin = true
		return nil
	})
	_ = g.Wait()
	return status
}

// Summary flattens a booking for notification templates.
func Summary(b *domainbooking.Booking, v *domainvillas.Villa) policies.BookingSummary {
	s := policies.BookingSummary{
		Reference:      b.Reference,
		GuestName:      b.Guest.Name,
		GuestEmail:     b.Guest.Email,
		GuestPhone:     b.Guest.Phone,
		CheckIn:        b.Range.CheckIn,
		CheckOut:       b.Range.CheckOut,
		Nights:         b.Range.Nights(),
		Guests:         b.Guests,
		TotalAmount:    b.Total.Amount,
		Currency:       b.Total.Currency,
		SpecialRequest: b.SpecialRequest,
	}
	if v != nil {
		s.VillaName = v.Name
		s.VillaLocation = v.Location
	}
	return s
}

func (h *CreateBookingHandler) tolerance() int64 {
	if h.PriceTolerance < 0 {
		return defaultPriceTolerance
	}
	return h.PriceTolerance
}

func (h *CreateBookingHandler) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}

func (h *CreateBookingHandler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

var _ commands.Handler[CreateBookingCommand, *dto.BookingCreated] = (*CreateBookingHandler)(nil)
var _ middleware.IdempotentCommand = CreateBookingCommand{}
var _ middleware.SelfTransacted = CreateBookingCommand{}
