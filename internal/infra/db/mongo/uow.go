package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"

	"villarent/internal/app/uow"
	domainavailability "villarent/internal/domain/availability"
	domainbooking "villarent/internal/domain/booking"
	domainpricing "villarent/internal/domain/pricing"
	domainvillas "villarent/internal/domain/villas"
)

// Factory wires Mongo transactions into the generic UnitOfWork interface.
type Factory struct {
	DB *mongo.Database

	VillasRepo    *VillaRepository
	ImagesRepo    *ImageRepository
	RulesRepo     *RuleRepository
	BlackoutsRepo *BlackoutRepository
	CalendarsRepo *CalendarRepository
	BookingsRepo  *BookingRepository
}

var ErrUnitOfWorkNotConfigured = errors.New("mongo: unit of work factory missing database")

func NewFactory(db *mongo.Database) Factory {
	return Factory{
		DB:            db,
		VillasRepo:    NewVillaRepository(db),
		ImagesRepo:    NewImageRepository(db),
		RulesRepo:     NewRuleRepository(db),
		BlackoutsRepo: NewBlackoutRepository(db),
		CalendarsRepo: NewCalendarRepository(db),
		BookingsRepo:  NewBookingRepository(db),
	}
}

// Begin starts a MongoDB session. Writing units run inside a snapshot
// transaction; read-only units share the session without one.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	session, err := f.DB.Client().StartSession()
	if err != nil {
		return nil, storeErr(err)
	}
	unit := &Unit{factory: f, session: session, readOnly: opts.ReadOnly}
	if opts.ReadOnly {
		return unit, nil
	}
	txnOpts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())
	if err := session.StartTransaction(txnOpts); err != nil {
		session.EndSession(ctx)
		return nil, storeErr(err)
	}
	return unit, nil
}

type Unit struct {
	factory  Factory
	session  mongo.Session
	readOnly bool
}

func (u *Unit) Villas() domainvillas.Repository                  { return u.factory.VillasRepo }
func (u *Unit) Images() domainvillas.ImageRepository             { return u.factory.ImagesRepo }
func (u *Unit) PricingRules() domainpricing.RuleRepository       { return u.factory.RulesRepo }
func (u *Unit) Blackouts() domainavailability.BlackoutRepository { return u.factory.BlackoutsRepo }
func (u *Unit) Calendars() domainavailability.CalendarRepository { return u.factory.CalendarsRepo }
func (u *Unit) Bookings() domainbooking.Repository               { return u.factory.BookingsRepo }

func (u *Unit) Commit(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	if u.readOnly {
		return nil
	}
	if err := u.session.CommitTransaction(ctx); err != nil {
		if isWriteConflict(err) {
			return domainavailability.ErrConcurrentUpdate
		}
		return storeErr(err)
	}
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	defer u.session.EndSession(ctx)
	if u.readOnly {
		return nil
	}
	return u.session.AbortTransaction(ctx)
}

// InjectContext ensures Mongo session is available in context for downstream repos.
func (u *Unit) InjectContext(ctx context.Context) context.Context {
	return mongo.NewSessionContext(ctx, u.session)
}

var _ uow.UoWFactory = Factory{}
