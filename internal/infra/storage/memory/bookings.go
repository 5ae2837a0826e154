package memory

import (
	"context"
	"sort"
	"time"

	domainbooking "villarent/internal/domain/booking"
	"villarent/internal/domain/shared/daterange"
	domainvillas "villarent/internal/domain/villas"
)

type bookingRepo struct{ u *Unit }

func (r bookingRepo) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	var out *domainbooking.Booking
	r.u.store.read(func(s *state) {
		if b, ok := s.bookings[id]; ok {
			out = cloneBooking(b)
		}
	})
	if out == nil {
		return nil, domainbooking.ErrNotFound
	}
	return out, nil
}

func (r bookingRepo) ByReference(ctx context.Context, reference string) (*domainbooking.Booking, error) {
	items := r.collect(func(b *domainbooking.Booking) bool { return b.Reference == reference })
	if len(items) == 0 {
		return nil, domainbooking.ErrNotFound
	}
	return items[0], nil
}

// Insert rejects a reference that is already stored when the unit commits.
func (r bookingRepo) Insert(ctx context.Context, booking *domainbooking.Booking) error {
	stored := cloneBooking(booking)
	stored.Version = 1
	return r.u.stage(op{
		check: func(s *state) error {
			if _, ok := s.bookings[stored.ID]; ok {
				return domainbooking.ErrDuplicateReference
			}
			for _, b := range s.bookings {
				if b.Reference == stored.Reference {
					return domainbooking.ErrDuplicateReference
				}
			}
			return nil
		},
		apply: func(s *state) {
			s.bookings[stored.ID] = stored
			booking.Version = stored.Version
		},
	})
}

func (r bookingRepo) Save(ctx context.Context, booking *domainbooking.Booking) error {
	expected := booking.Version
	stored := cloneBooking(booking)
	stored.Version = expected + 1
	return r.u.stage(op{
		check: func(s *state) error {
			current, ok := s.bookings[stored.ID]
			if !ok {
				return domainbooking.ErrNotFound
			}
			if current.Version != expected {
				return domainbooking.ErrConcurrentUpdate
			}
			return nil
		},
		apply: func(s *state) {
			s.bookings[stored.ID] = stored
			booking.Version = stored.Version
		},
	})
}

func (r bookingRepo) ListByGuestEmail(ctx context.Context, email string) ([]*domainbooking.Booking, error) {
	return r.collect(func(b *domainbooking.Booking) bool { return b.Guest.Email == email }), nil
}

func (r bookingRepo) List(ctx context.Context, filter domainbooking.ListFilter) ([]*domainbooking.Booking, int, error) {
	items := r.collect(func(b *domainbooking.Booking) bool {
		if filter.Status != "" && b.Status != filter.Status {
			return false
		}
		return filter.VillaID == "" || b.VillaID == filter.VillaID
	})
	total := len(items)
	start := min(max(filter.Offset, 0), total)
	end := total
	if filter.Limit > 0 {
		end = min(start+filter.Limit, total)
	}
	return items[start:end], total, nil
}

func (r bookingRepo) ConfirmedOverlapping(ctx context.Context, villaID domainvillas.VillaID, dr daterange.DateRange) ([]*domainbooking.Booking, error) {
	return r.collect(func(b *domainbooking.Booking) bool {
		return b.VillaID == villaID && b.Status == domainbooking.StatusConfirmed && b.Range.Overlaps(dr)
	}), nil
}

func (r bookingRepo) HasActive(ctx context.Context, villaID domainvillas.VillaID) (bool, error) {
	items := r.collect(func(b *domainbooking.Booking) bool { return b.VillaID == villaID && b.Status.Active() })
	return len(items) > 0, nil
}

func (r bookingRepo) DueForCompletion(ctx context.Context, day time.Time, limit int) ([]*domainbooking.Booking, error) {
	items := r.collect(func(b *domainbooking.Booking) bool {
		return b.Status == domainbooking.StatusConfirmed && !daterange.Day(b.Range.CheckOut).After(day)
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// collect returns matching bookings newest first.
func (r bookingRepo) collect(keep func(*domainbooking.Booking) bool) []*domainbooking.Booking {
	var out []*domainbooking.Booking
	r.u.store.read(func(s *state) {
		for _, b := range s.bookings {
			if keep(b) {
				out = append(out, cloneBooking(b))
			}
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}
