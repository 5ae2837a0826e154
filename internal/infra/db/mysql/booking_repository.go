package mysql

import (
	"context"
	"time"

	"gorm.io/gorm"

	domainbooking "villarent/internal/domain/booking"
	"villarent/internal/domain/shared/daterange"
	domainvillas "villarent/internal/domain/villas"
)

type BookingRepository struct {
	db *gorm.DB
}

func (r BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	return r.first(ctx, "id = ?", string(id))
}

func (r BookingRepository) ByReference(ctx context.Context, reference string) (*domainbooking.Booking, error) {
	return r.first(ctx, "reference = ?", reference)
}

func (r BookingRepository) first(ctx context.Context, query string, arg any) (*domainbooking.Booking, error) {
	var m bookingModel
	if err := conn(ctx, r.db).Where(query, arg).First(&m).Error; err != nil {
		if notFound(err) {
			return nil, domainbooking.ErrNotFound
		}
		return nil, storeErr(err)
	}
	return m.toBooking(), nil
}

// Insert relies on the unique reference index.
func (r BookingRepository) Insert(ctx context.Context, b *domainbooking.Booking) error {
	m := toBookingModel(b)
	m.Version = 1
	if err := conn(ctx, r.db).Create(&m).Error; err != nil {
		if lostRace(err) {
			return domainbooking.ErrDuplicateReference
		}
		return storeErr(err)
	}
	b.Version = m.Version
	return nil
}

func (r BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	m := toBookingModel(b)
	m.Version = b.Version + 1
	res := conn(ctx, r.db).Model(&bookingModel{}).
		Where("id = ? AND version = ?", m.ID, b.Version).
		Select("*").Omit("created_at").
		Updates(&m)
	if res.Error != nil {
		if lostRace(res.Error) {
			return domainbooking.ErrConcurrentUpdate
		}
		return storeErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return domainbooking.ErrConcurrentUpdate
	}
	b.Version = m.Version
	return nil
}

func (r BookingRepository) ListByGuestEmail(ctx context.Context, email string) ([]*domainbooking.Booking, error) {
	return r.find(conn(ctx, r.db).Where("guest_email = ?", email))
}

func (r BookingRepository) List(ctx context.Context, filter domainbooking.ListFilter) ([]*domainbooking.Booking, int, error) {
	q := conn(ctx, r.db).Model(&bookingModel{})
	if filter.Status != "" {
		q = q.Where("status = ?", string(filter.Status))
	}
	if filter.VillaID != "" {
		q = q.Where("villa_id = ?", string(filter.VillaID))
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, storeErr(err)
	}
	q = q.Offset(max(filter.Offset, 0))
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	items, err := r.find(q)
	if err != nil {
		return nil, 0, err
	}
	return items, int(total), nil
}

func (r BookingRepository) ConfirmedOverlapping(ctx context.Context, villaID domainvillas.VillaID, dr daterange.DateRange) ([]*domainbooking.Booking, error) {
	q := conn(ctx, r.db).Where("villa_id = ? AND status = ? AND check_in < ? AND check_out > ?",
		string(villaID), string(domainbooking.StatusConfirmed), dr.CheckOut, dr.CheckIn)
	return r.find(q)
}

func (r BookingRepository) HasActive(ctx context.Context, villaID domainvillas.VillaID) (bool, error) {
	var n int64
	err := conn(ctx, r.db).Model(&bookingModel{}).
		Where("villa_id = ? AND status IN ?", string(villaID), []string{
			string(domainbooking.StatusPending), string(domainbooking.StatusConfirmed),
		}).
		Limit(1).Count(&n).Error
	if err != nil {
		return false, storeErr(err)
	}
	return n > 0, nil
}

func (r BookingRepository) DueForCompletion(ctx context.Context, day time.Time, limit int) ([]*domainbooking.Booking, error) {
	q := conn(ctx, r.db).Where("status = ? AND check_out <= ?", string(domainbooking.StatusConfirmed), daterange.Day(day))
	if limit > 0 {
		q = q.Limit(limit)
	}
	return r.find(q)
}

// find returns matches newest first.
func (r BookingRepository) find(q *gorm.DB) ([]*domainbooking.Booking, error) {
	var rows []bookingModel
	if err := q.Order("created_at DESC, id").Find(&rows).Error; err != nil {
		return nil, storeErr(err)
	}
	out := make([]*domainbooking.Booking, 0, len(rows))
	for _, m := range rows {
		out = append(out, m.toBooking())
	}
	return out, nil
}
