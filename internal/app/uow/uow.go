package uow

import (
	"context"

	domainavailability "villarent/internal/domain/availability"
	domainbooking "villarent/internal/domain/booking"
	domainpricing "villarent/internal/domain/pricing"
	domainvillas "villarent/internal/domain/villas"
)

// UnitOfWork coordinates repositories inside a transaction boundary.
type UnitOfWork interface {
	Villas() domainvillas.Repository
	Images() domainvillas.ImageRepository
	PricingRules() domainpricing.RuleRepository
	Blackouts() domainavailability.BlackoutRepository
	Calendars() domainavailability.CalendarRepository
	Bookings() domainbooking.Repository

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UoWFactory starts unit of work instances.
type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

// TxOptions configure transaction boundaries.
type TxOptions struct {
	ReadOnly bool
}
