package mysql

import (
	"context"
	"database/sql"
	"errors"

	"gorm.io/gorm"

	"villarent/internal/app/uow"
	domainavailability "villarent/internal/domain/availability"
	domainbooking "villarent/internal/domain/booking"
	domainpricing "villarent/internal/domain/pricing"
	domainvillas "villarent/internal/domain/villas"
)

type txKey struct{}

// session is what a unit carries in the context: the transaction handle and
// whether reads should lock rows.
type session struct {
	tx      *gorm.DB
	writing bool
}

// conn returns the unit's transaction bound to ctx, or db when ctx carries none.
func conn(ctx context.Context, db *gorm.DB) *gorm.DB {
	if s, ok := ctx.Value(txKey{}).(session); ok {
		return s.tx.WithContext(ctx)
	}
	return db.WithContext(ctx)
}

func writing(ctx context.Context) bool {
	s, ok := ctx.Value(txKey{}).(session)
	return ok && s.writing
}

// Factory opens gorm transactions as units of work.
type Factory struct {
	DB *gorm.DB
}

var ErrUnitOfWorkNotConfigured = errors.New("mysql: unit of work factory missing database")

func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	txOpts := &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: opts.ReadOnly}
	tx := f.DB.WithContext(ctx).Begin(txOpts)
	if tx.Error != nil {
		return nil, storeErr(tx.Error)
	}
	return &Unit{db: f.DB, tx: tx, readOnly: opts.ReadOnly}, nil
}

type Unit struct {
	db       *gorm.DB
	tx       *gorm.DB
	readOnly bool
	done     bool
}

func (u *Unit) Villas() domainvillas.Repository                  { return VillaRepository{db: u.db} }
func (u *Unit) Images() domainvillas.ImageRepository             { return ImageRepository{db: u.db} }
func (u *Unit) PricingRules() domainpricing.RuleRepository       { return RuleRepository{db: u.db} }
func (u *Unit) Blackouts() domainavailability.BlackoutRepository { return BlackoutRepository{db: u.db} }
func (u *Unit) Calendars() domainavailability.CalendarRepository { return CalendarRepository{db: u.db} }
func (u *Unit) Bookings() domainbooking.Repository               { return BookingRepository{db: u.db} }

// InjectContext makes the transaction visible to repositories and the outbox.
func (u *Unit) InjectContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, txKey{}, session{tx: u.tx, writing: !u.readOnly})
}

func (u *Unit) Commit(ctx context.Context) error {
	if u.done {
		return nil
	}
	u.done = true
	if err := u.tx.Commit().Error; err != nil {
		if lostRace(err) {
			return domainavailability.ErrConcurrentUpdate
		}
		return storeErr(err)
	}
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	if u.done {
		return nil
	}
	u.done = true
	return u.tx.Rollback().Error
}

var _ uow.UoWFactory = Factory{}
