package bootstrap

import (
	"log/slog"
	"time"

	"villarent/internal/app/commands"
	availabilityapp "villarent/internal/app/handlers/availability"
	bookingapp "villarent/internal/app/handlers/booking"
	quoteapp "villarent/internal/app/handlers/quote"
	villaapp "villarent/internal/app/handlers/villas"
	"villarent/internal/app/middleware"
	"villarent/internal/app/policies"
	"villarent/internal/app/queries"
	authsvc "villarent/internal/app/services/auth"
	quotesvc "villarent/internal/app/services/quote"
	domainauth "villarent/internal/domain/auth"
	domainbooking "villarent/internal/domain/booking"
	ginserver "villarent/internal/infra/http/gin"
	"villarent/internal/infra/security"
)

// Services are the collaborators that live outside the datastore.
type Services struct {
	Images   policies.ImageStore
	Notifier policies.BookingNotifier
	Sessions domainauth.SessionStore
}

type Settings struct {
	DBTimeout      time.Duration
	NotifyTimeout  time.Duration
	PriceTolerance int64
	SessionTTL     time.Duration
	// BcryptCost outside bcrypt's range falls back to its default.
	BcryptCost int
	// Now is the clock every handler uses; nil means time.Now.
	Now func() time.Time
}

// Application is the wired service.
type Application struct {
	Commands commands.Bus
	Queries  queries.Bus
	Auth     *authsvc.Service
	Handlers ginserver.Handlers
}

// New registers every handler on the buses, chains the middleware and builds
// the HTTP handlers on top.
func New(b Backend, svc Services, set Settings, logger *slog.Logger) *Application {
	now := set.Now
	if now == nil {
		now = time.Now
	}
	timeout := set.DBTimeout
	checker := quotesvc.Checker{Timeout: timeout}
	calculator := quotesvc.Calculator{Checker: checker, Timeout: timeout}

	commandBus := commands.NewInMemoryBus()
	commands.RegisterHandler(commandBus, &bookingapp.CreateBookingHandler{
		UoWFactory:     b.UoW,
		Calculator:     calculator,
		Outbox:         b.Outbox,
		Notifier:       svc.Notifier,
		References:     domainbooking.ReferenceGenerator{},
		PriceTolerance: set.PriceTolerance,
		NotifyTimeout:  set.NotifyTimeout,
		Timeout:        timeout,
		Logger:         logger,
		Now:            now,
	})
	commands.RegisterHandler(commandBus, &bookingapp.CancelBookingHandler{Outbox: b.Outbox, Timeout: timeout, Logger: logger, Now: now})
	commands.RegisterHandler(commandBus, &bookingapp.UpdateBookingHandler{Outbox: b.Outbox, Timeout: timeout, Logger: logger, Now: now})
	commands.RegisterHandler(commandBus, &bookingapp.CompleteStaysHandler{Outbox: b.Outbox, Timeout: timeout, Logger: logger})
	commands.RegisterHandler(commandBus, &villaapp.CreateVillaHandler{Outbox: b.Outbox, Timeout: timeout, Logger: logger, Now: now})
	commands.RegisterHandler(commandBus, &villaapp.UpdateVillaHandler{Outbox: b.Outbox, Timeout: timeout, Logger: logger, Now: now})
	commands.RegisterHandler(commandBus, &villaapp.DeleteVillaHandler{Images: svc.Images, Outbox: b.Outbox, Timeout: timeout, Logger: logger, Now: now})
	commands.RegisterHandler(commandBus, &villaapp.UploadImageHandler{Store: svc.Images, Timeout: timeout, Logger: logger, Now: now})
	commands.RegisterHandler(commandBus, &villaapp.UpdateImageHandler{Timeout: timeout, Now: now})
	commands.RegisterHandler(commandBus, &villaapp.DeleteImageHandler{Store: svc.Images, Timeout: timeout, Logger: logger})
	commands.RegisterHandler(commandBus, &villaapp.CreatePricingRuleHandler{Timeout: timeout, Logger: logger, Now: now})
	commands.RegisterHandler(commandBus, &villaapp.DeletePricingRuleHandler{Timeout: timeout})
	commands.RegisterHandler(commandBus, &villaapp.CreateBlackoutHandler{Timeout: timeout, Logger: logger, Now: now})
	commands.RegisterHandler(commandBus, &villaapp.DeleteBlackoutHandler{Timeout: timeout})

	queryBus := queries.NewInMemoryBus()
	queries.RegisterHandler(queryBus, &villaapp.SearchCatalogHandler{UoWFactory: b.UoW, Timeout: timeout})
	queries.RegisterHandler(queryBus, &villaapp.GetVillaBySlugHandler{UoWFactory: b.UoW, Timeout: timeout})
	queries.RegisterHandler(queryBus, &villaapp.AdminListVillasHandler{UoWFactory: b.UoW, Timeout: timeout})
	queries.RegisterHandler(queryBus, &villaapp.AdminGetVillaHandler{UoWFactory: b.UoW, Timeout: timeout})
	queries.RegisterHandler(queryBus, &villaapp.ListImagesHandler{UoWFactory: b.UoW, Timeout: timeout})
	queries.RegisterHandler(queryBus, &villaapp.ListPricingRulesHandler{UoWFactory: b.UoW, Timeout: timeout})
	queries.RegisterHandler(queryBus, &villaapp.ListBlackoutsHandler{UoWFactory: b.UoW, Timeout: timeout})
	queries.RegisterHandler(queryBus, &availabilityapp.GetCalendarHandler{UoWFactory: b.UoW, Timeout: timeout, Now: now})
	queries.RegisterHandler(queryBus, &quoteapp.GetQuoteHandler{UoWFactory: b.UoW, Calculator: calculator})
	queries.RegisterHandler(queryBus, &bookingapp.GetBookingHandler{UoWFactory: b.UoW, Timeout: timeout})
	queries.RegisterHandler(queryBus, &bookingapp.LookupBookingsHandler{UoWFactory: b.UoW, Timeout: timeout})
	queries.RegisterHandler(queryBus, &bookingapp.ListBookingsHandler{UoWFactory: b.UoW, Timeout: timeout})

	validate := middleware.NewStructValidator()
	authorizer := middleware.RoleAuthorizer{}
	cmds := middleware.ChainCommands(
		commandBus,
		middleware.Logging(logger),
		middleware.Validation(validate),
		middleware.Authorization(authorizer),
		middleware.Idempotency(b.Idempotency, nil),
		middleware.OutboxFlush(b.Outbox),
		middleware.Transaction(b.UoW, nil),
	)
	qs := middleware.ChainQueries(
		queryBus,
		middleware.QueryValidation(validate),
		middleware.QueryAuthorization(authorizer),
	)

	auth := &authsvc.Service{
		Users:      b.Users,
		Sessions:   svc.Sessions,
		Passwords:  security.AdminPasswordHasher{Cost: set.BcryptCost},
		Tokens:     security.SessionTokens{},
		SessionTTL: set.SessionTTL,
		Logger:     logger,
		Now:        now,
	}

	return &Application{
		Commands: cmds,
		Queries:  qs,
		Auth:     auth,
		Handlers: ginserver.Handlers{
			Villa:          ginserver.VillaHandler{Queries: qs, Logger: logger},
			Quote:          ginserver.QuoteHandler{Queries: qs, Logger: logger},
			Booking:        ginserver.BookingHandler{Commands: cmds, Queries: qs, Logger: logger},
			AdminVilla:     ginserver.AdminVillaHandler{Commands: cmds, Queries: qs, Logger: logger},
			AdminBooking:   ginserver.AdminBookingHandler{Commands: cmds, Queries: qs, Logger: logger},
			Auth:           ginserver.AuthHandler{Service: auth, Logger: logger},
			AuthMiddleware: ginserver.AuthMiddleware{Resolver: auth, Logger: logger}.Handle,
		},
	}
}
