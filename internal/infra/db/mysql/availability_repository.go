package mysql

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domainavailability "villarent/internal/domain/availability"
	"villarent/internal/domain/shared/daterange"
	domainvillas "villarent/internal/domain/villas"
)

type BlackoutRepository struct {
	db *gorm.DB
}

func (r BlackoutRepository) ListByVilla(ctx context.Context, villaID domainvillas.VillaID) ([]*domainavailability.Blackout, error) {
	return r.find(conn(ctx, r.db).Where("villa_id = ?", string(villaID)))
}

// Between is inclusive on both days.
func (r BlackoutRepository) Between(ctx context.Context, villaID domainvillas.VillaID, from, to time.Time) ([]*domainavailability.Blackout, error) {
	q := conn(ctx, r.db).Where("villa_id = ? AND date BETWEEN ? AND ?", string(villaID), daterange.Day(from), daterange.Day(to))
	return r.find(q)
}

func (r BlackoutRepository) find(q *gorm.DB) ([]*domainavailability.Blackout, error) {
	var rows []blackoutModel
	if err := q.Order("date").Find(&rows).Error; err != nil {
		return nil, storeErr(err)
	}
	out := make([]*domainavailability.Blackout, 0, len(rows))
	for _, m := range rows {
		out = append(out, m.toBlackout())
	}
	return out, nil
}

func (r BlackoutRepository) Save(ctx context.Context, b *domainavailability.Blackout) error {
	m := blackoutModel{
		ID:        string(b.ID),
		VillaID:   string(b.VillaID),
		Date:      b.Date,
		Note:      b.Note,
		CreatedAt: b.CreatedAt,
	}
	if err := conn(ctx, r.db).Save(&m).Error; err != nil {
		if lostRace(err) {
			return domainavailability.ErrBlackoutDuplicate
		}
		return storeErr(err)
	}
	return nil
}

func (r BlackoutRepository) Delete(ctx context.Context, villaID domainvillas.VillaID, id domainavailability.BlackoutID) error {
	res := conn(ctx, r.db).Where("id = ? AND villa_id = ?", string(id), string(villaID)).Delete(&blackoutModel{})
	if res.Error != nil {
		return storeErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return domainavailability.ErrBlackoutNotFound
	}
	return nil
}

func (r BlackoutRepository) DeleteByVilla(ctx context.Context, villaID domainvillas.VillaID) error {
	return storeErr(conn(ctx, r.db).Where("villa_id = ?", string(villaID)).Delete(&blackoutModel{}).Error)
}

type CalendarRepository struct {
	db *gorm.DB
}

// Calendar locks the row inside writing units so a competing reservation
// waits until this transaction ends.
func (r CalendarRepository) Calendar(ctx context.Context, id domainvillas.VillaID) (*domainavailability.Calendar, error) {
	q := conn(ctx, r.db)
	if writing(ctx) {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var m calendarModel
	if err := q.Where("villa_id = ?", string(id)).First(&m).Error; err != nil {
		if notFound(err) {
			return domainavailability.NewCalendar(id), nil
		}
		if lostRace(err) {
			return nil, domainavailability.ErrConcurrentUpdate
		}
		return nil, storeErr(err)
	}
	return m.toCalendar(), nil
}

func (r CalendarRepository) Save(ctx context.Context, cal *domainavailability.Calendar) error {
	m := toCalendarModel(cal)
	m.Version = cal.Version + 1
	db := conn(ctx, r.db)
	if cal.Version == 0 {
		if err := db.Create(&m).Error; err != nil {
			if lostRace(err) {
				return domainavailability.ErrConcurrentUpdate
			}
			return storeErr(err)
		}
		cal.Version = m.Version
		return nil
	}
	res := db.Model(&calendarModel{}).
		Where("villa_id = ? AND version = ?", m.VillaID, cal.Version).
		Updates(map[string]any{"blocks": m.Blocks, "version": m.Version})
	if res.Error != nil {
		if lostRace(res.Error) {
			return domainavailability.ErrConcurrentUpdate
		}
		return storeErr(res.Error)
	}
	if res.RowsAffected == 0 {
		return domainavailability.ErrConcurrentUpdate
	}
	cal.Version = m.Version
	return nil
}

func (r CalendarRepository) Delete(ctx context.Context, id domainvillas.VillaID) error {
	return storeErr(conn(ctx, r.db).Where("villa_id = ?", string(id)).Delete(&calendarModel{}).Error)
}
