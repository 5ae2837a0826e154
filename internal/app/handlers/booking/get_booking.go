package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"villarent/internal/app/apperr"
	"villarent/internal/app/dto"
	"villarent/internal/app/handlers/support"
	"villarent/internal/app/queries"
	"villarent/internal/app/uow"
	domainbooking "villarent/internal/domain/booking"
	domainuser "villarent/internal/domain/user"
	domainvillas "villarent/internal/domain/villas"
)

const (
	getBookingKey     = "bookings.get"
	lookupBookingsKey = "bookings.lookup"
	listBookingsKey   = "admin.bookings.list"

	defaultListLimit = 20
	maxListLimit     = 100
)

var ErrLookupCriteria = apperr.Validation(errors.New("booking: email or reference is required"))

type GetBookingQuery struct {
	BookingID string `validate:"required"`
}

func (q GetBookingQuery) Key() string { return getBookingKey }

type GetBookingHandler struct {
	UoWFactory uow.UoWFactory
	Timeout    time.Duration
}

func (h *GetBookingHandler) Handle(ctx context.Context, q GetBookingQuery) (dto.Booking, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Booking{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	b, err := uow.Bounded(execCtx, h.Timeout, func(ctx context.Context) (*domainbooking.Booking, error) {
		return unit.Bookings().ByID(ctx, domainbooking.BookingID(q.BookingID))
	})
	if err != nil {
		return dto.Booking{}, err
	}
	return *mapWithVilla(execCtx, unit, b), nil
}

// LookupBookingsQuery finds a guest's bookings by email or by reference.
type LookupBookingsQuery struct {
	Email     string `validate:"omitempty,email"`
	Reference string
}

func (q LookupBookingsQuery) Key() string { return lookupBookingsKey }

type LookupBookingsHandler struct {
	UoWFactory uow.UoWFactory
	Timeout    time.Duration
}

func (h *LookupBookingsHandler) Handle(ctx context.Context, q LookupBookingsQuery) (dto.BookingCollection, error) {
	email := domainuser.NormalizeEmail(q.Email)
	reference := strings.ToUpper(strings.TrimSpace(q.Reference))
	if email == "" && reference == "" {
		return dto.BookingCollection{}, ErrLookupCriteria
	}
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}

	items, err := uow.Bounded(execCtx, h.Timeout, func(ctx context.Context) ([]*domainbooking.Booking, error) {
		if reference != "" {
			b, err := unit.Bookings().ByReference(ctx, reference)
			if err != nil {
				return nil, err
			}
			if email != "" && b.Guest.Email != email {
				return nil, domainbooking.ErrNotFound
			}
			return []*domainbooking.Booking{b}, nil
		}
		return unit.Bookings().ListByGuestEmail(ctx, email)
	})
	if err != nil {
		return dto.BookingCollection{}, err
	}
	return mapCollection(execCtx, unit, items, len(items)), nil
}

type ListBookingsQuery struct {
	Status  string `validate:"omitempty,oneof=pending confirmed cancelled completed"`
	VillaID string
	Page    int `validate:"gte=0"`
	Limit   int `validate:"gte=0,lte=100"`
}

func (q ListBookingsQuery) Key() string { return listBookingsKey }

func (ListBookingsQuery) AdminOnly() {}

type ListBookingsHandler struct {
	UoWFactory uow.UoWFactory
	Timeout    time.Duration
}

func (h *ListBookingsHandler) Handle(ctx context.Context, q ListBookingsQuery) (dto.BookingCollection, error) {
	unit, execCtx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.BookingCollection{}, err
	}
	if cleanup != nil {
		defer cleanup()
	}
	filter := domainbooking.ListFilter{VillaID: domainvillas.VillaID(strings.TrimSpace(q.VillaID))}
	if q.Status != "" {
		status, ok := domainbooking.ParseStatus(q.Status)
		if !ok {
			return dto.BookingCollection{}, domainbooking.ErrInvalidState
		}
		filter.Status = status
	}
	filter.Limit = q.Limit
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Limit > maxListLimit {
		filter.Limit = maxListLimit
	}
	if q.Page > 1 {
		filter.Offset = (q.Page - 1) * filter.Limit
	}

	type page struct {
		items []*domainbooking.Booking
		total int
	}
	res, err := uow.Bounded(execCtx, h.Timeout, func(ctx context.Context) (page, error) {
		items, total, err := unit.Bookings().List(ctx, filter)
		return page{items: items, total: total}, err
	})
	if err != nil {
		return dto.BookingCollection{}, err
	}
	return mapCollection(execCtx, unit, res.items, res.total), nil
}

func mapCollection(ctx context.Context, unit uow.UnitOfWork, items []*domainbooking.Booking, total int) dto.BookingCollection {
	villas := make(map[domainvillas.VillaID]*domainvillas.Villa)
	out := dto.BookingCollection{Items: make([]dto.Booking, 0, len(items)), Total: total}
	for _, b := range items {
		v, seen := villas[b.VillaID]
		if !seen {
			v, _ = unit.Villas().ByID(ctx, b.VillaID)
			villas[b.VillaID] = v
		}
		out.Items = append(out.Items, dto.MapBooking(b, v))
	}
	return out
}

var _ queries.Handler[GetBookingQuery, dto.Booking] = (*GetBookingHandler)(nil)
var _ queries.Handler[LookupBookingsQuery, dto.BookingCollection] = (*LookupBookingsHandler)(nil)
var _ queries.Handler[ListBookingsQuery, dto.BookingCollection] = (*ListBookingsHandler)(nil)
