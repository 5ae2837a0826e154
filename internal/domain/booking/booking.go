package booking

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"villarent/internal/domain/shared/daterange"
	"villarent/internal/domain/shared/events"
	"villarent/internal/domain/shared/money"
	"villarent/internal/domain/villas"
)

var (
	ErrNotFound           = errors.New("booking: not found")
	ErrInvalidState       = errors.New("booking: invalid state transition")
	ErrAlreadyCancelled   = errors.New("booking: already cancelled")
	ErrTooLateToCancel    = errors.New("booking: cannot cancel a stay that has started")
	ErrDuplicateReference = errors.New("booking: reference already used")
	ErrConcurrentUpdate   = errors.New("booking: concurrent update detected")
	ErrGuestName          = errors.New("booking: guest name is required")
	ErrGuestEmail         = errors.New("booking: guest email is invalid")
	ErrGuestPhone         = errors.New("booking: guest phone is required")
	ErrInvalidGuests      = errors.New("booking: guests count must be positive")
	ErrNegativeTotal      = errors.New("booking: total must not be negative")
	ErrPriceMismatch      = errors.New("booking: quoted total differs from current price")
)

type BookingID string

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

func ParseStatus(raw string) (Status, bool) {
	s := Status(strings.ToLower(strings.TrimSpace(raw)))
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
		return s, true
	}
	return "", false
}

// Active statuses block villa deletion.
func (s Status) Active() bool {
	return s == StatusPending || s == StatusConfirmed
}

type Guest struct {
	Name   string
	Email  string
	Phone  string
	UserID string
}

type Booking struct {
	ID             BookingID
	Reference      string
	VillaID        villas.VillaID
	Guest          Guest
	Range          daterange.DateRange
	Guests         int
	Total          money.Money
	Status         Status
	SpecialRequest string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	Version        int64
	events.EventRecorder
}

type ListFilter struct {
	Status  Status
	VillaID villas.VillaID
	Limit   int
	Offset  int
}

type Repository interface {
	ByID(ctx context.Context, id BookingID) (*Booking, error)
	ByReference(ctx context.Context, reference string) (*Booking, error)
	// Insert fails with ErrDuplicateReference when the reference is taken.
	Insert(ctx context.Context, booking *Booking) error
	// Save fails with ErrConcurrentUpdate when the stored version moved.
	Save(ctx context.Context, booking *Booking) error
	ListByGuestEmail(ctx context.Context, email string) ([]*Booking, error)
	List(ctx context.Context, filter ListFilter) ([]*Booking, int, error)
	// ConfirmedOverlapping returns confirmed bookings with checkIn < to and checkOut > from.
	ConfirmedOverlapping(ctx context.Context, villaID villas.VillaID, dr daterange.DateRange) ([]*Booking, error)
	HasActive(ctx context.Context, villaID villas.VillaID) (bool, error)
	// DueForCompletion returns confirmed bookings whose checkout is on or before day.
	DueForCompletion(ctx context.Context, day time.Time, limit int) ([]*Booking, error)
}

type CreateParams struct {
	ID             BookingID
	Reference      string
	VillaID        villas.VillaID
	Guest          Guest
	Range          daterange.DateRange
	Guests         int
	Total          money.Money
	SpecialRequest string
	Now            time.Time
}

// NewConfirmed creates an instant-book reservation.
func NewConfirmed(p CreateParams) (*Booking, error) {
	guest, err := normalizeGuest(p.Guest)
	if err != nil {
		return nil, err
	}
	if p.Guests <= 0 {
		return nil, ErrInvalidGuests
	}
	if err := p.Range.Validate(); err != nil {
		return nil, err
	}
	if p.Total.IsNegative() {
		return nil, ErrNegativeTotal
	}
	if strings.TrimSpace(p.Reference) == "" || strings.TrimSpace(string(p.ID)) == "" {
		return nil, errors.New("booking: id and reference are required")
	}
	now := p.Now.UTC()
	b := &Booking{
		ID:             p.ID,
		Reference:      p.Reference,
		VillaID:        p.VillaID,
		Guest:          guest,
		Range:          p.Range,
		Guests:         p.Guests,
		Total:          p.Total,
		Status:         StatusConfirmed,
		SpecialRequest: strings.TrimSpace(p.SpecialRequest),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	b.Record(BookingConfirmed{
		BookingID:  b.ID,
		Reference:  b.Reference,
		VillaID:    b.VillaID,
		GuestEmail: b.Guest.Email,
		Range:      b.Range,
		Guests:     b.Guests,
		Total:      b.Total,
		At:         now,
	})
	return b, nil
}

// Cancel applies the guest cancellation rule: the stay must not be cancelled
// yet and check-in must be strictly after today, compared by date only.
func (b *Booking) Cancel(now time.Time) error {
	switch b.Status {
	case StatusCancelled:
		return ErrAlreadyCancelled
	case StatusCompleted:
		return ErrInvalidState
	}
	if !daterange.Day(b.Range.CheckIn).After(daterange.Day(now)) {
		return ErrTooLateToCancel
	}
	b.markCancelled("guest", now)
	return nil
}

// AdminCancel skips the check-in cutoff.
func (b *Booking) AdminCancel(now time.Time) error {
	switch b.Status {
	case StatusCancelled:
		return ErrAlreadyCancelled
	case StatusPending, StatusConfirmed:
		b.markCancelled("admin", now)
		return nil
	}
	return ErrInvalidState
}

func (b *Booking) markCancelled(by string, now time.Time) {
	b.Status = StatusCancelled
	b.UpdatedAt = now.UTC()
	b.Record(BookingCancelled{BookingID: b.ID, Reference: b.Reference, VillaID: b.VillaID, By: by, At: b.UpdatedAt})
}

func (b *Booking) Confirm(now time.Time) error {
	if b.Status != StatusPending {
		return ErrInvalidState
	}
	b.Status = StatusConfirmed
	b.UpdatedAt = now.UTC()
	b.Record(BookingConfirmed{
		BookingID:  b.ID,
		Reference:  b.Reference,
		VillaID:    b.VillaID,
		GuestEmail: b.Guest.Email,
		Range:      b.Range,
		Guests:     b.Guests,
		Total:      b.Total,
		At:         b.UpdatedAt,
	})
	return nil
}

// Complete closes a confirmed stay once its checkout day has arrived.
func (b *Booking) Complete(now time.Time) error {
	if b.Status != StatusConfirmed {
		return ErrInvalidState
	}
	if daterange.Day(b.Range.CheckOut).After(daterange.Day(now)) {
		return ErrInvalidState
	}
	b.Status = StatusCompleted
	b.UpdatedAt = now.UTC()
	b.Record(BookingCompleted{BookingID: b.ID, VillaID: b.VillaID, At: b.UpdatedAt})
	return nil
}

func (b *Booking) UpdateSpecialRequest(text string, now time.Time) {
	b.SpecialRequest = strings.TrimSpace(text)
	b.UpdatedAt = now.UTC()
}

func normalizeGuest(g Guest) (Guest, error) {
	g.Name = strings.TrimSpace(g.Name)
	g.Email = strings.ToLower(strings.TrimSpace(g.Email))
	g.Phone = strings.TrimSpace(g.Phone)
	g.UserID = strings.TrimSpace(g.UserID)
	if g.Name == "" {
		return Guest{}, ErrGuestName
	}
	if _, err := mail.ParseAddress(g.Email); err != nil || !strings.Contains(g.Email, "@") {
		return Guest{}, ErrGuestEmail
	}
	if g.Phone == "" {
		return Guest{}, ErrGuestPhone
	}
	return g, nil
}
