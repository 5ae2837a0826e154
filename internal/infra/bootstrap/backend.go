// Package bootstrap assembles the service from configuration: the storage
// backend, the command and query buses, and the HTTP handlers.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"villarent/internal/app/middleware"
	"villarent/internal/app/outbox"
	"villarent/internal/app/uow"
	domainuser "villarent/internal/domain/user"
	"villarent/internal/infra/config"
	mongodb "villarent/internal/infra/db/mongo"
	mysqldb "villarent/internal/infra/db/mysql"
	"villarent/internal/infra/obs"
	infraoutbox "villarent/internal/infra/outbox"
	"villarent/internal/infra/storage/memory"
)

// Backend is one storage engine with everything that must share it: the
// aggregates, the outbox written in the same unit, idempotency records and
// user accounts.
type Backend struct {
	Name        string
	UoW         uow.UoWFactory
	Outbox      outbox.Outbox
	Relay       infraoutbox.Source
	Idempotency middleware.IdempotencyStore
	Users       domainuser.Repository
	Checks      []obs.Check
	// Purge drops expired idempotency records where the engine has no TTL.
	Purge func(ctx context.Context) (int64, error)
	Close func(ctx context.Context) error
}

// NewMemoryBackend keeps everything in process.
func NewMemoryBackend(cfg config.Config, signal *infraoutbox.Signal) Backend {
	store := memory.NewStore()
	box := store.Outbox().WithSignal(signal)
	return Backend{
		Name:        config.BackendMemory,
		UoW:         store,
		Outbox:      box,
		Relay:       box,
		Idempotency: memory.NewIdempotencyStore(cfg.IdempotencyTTL),
		Users:       memory.NewUserRepository(),
		Close:       func(context.Context) error { return nil },
	}
}

// OpenBackend connects the engine selected by cfg.Backend.
func OpenBackend(ctx context.Context, cfg config.Config, signal *infraoutbox.Signal, logger *slog.Logger) (Backend, error) {
	switch cfg.Backend {
	case config.BackendMongo:
		return openMongo(ctx, cfg, signal)
	case config.BackendMySQL:
		return openMySQL(ctx, cfg, signal, logger)
	case config.BackendMemory, "":
		return NewMemoryBackend(cfg, signal), nil
	}
	return Backend{}, fmt.Errorf("bootstrap: unknown backend %q", cfg.Backend)
}

func openMongo(ctx context.Context, cfg config.Config, signal *infraoutbox.Signal) (Backend, error) {
	client, err := mongodb.New(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		return Backend{}, fmt.Errorf("mongo connect: %w", err)
	}
	fail := func(err error) (Backend, error) {
		_ = client.Close(context.Background())
		return Backend{}, err
	}
	if err := client.EnsureIndexes(ctx); err != nil {
		return fail(fmt.Errorf("mongo indexes: %w", err))
	}
	box, err := infraoutbox.NewStore(ctx, client.DB, signal)
	if err != nil {
		return fail(fmt.Errorf("mongo outbox: %w", err))
	}
	idem, err := mongodb.NewIdempotencyStore(ctx, client.DB, cfg.IdempotencyTTL)
	if err != nil {
		return fail(fmt.Errorf("mongo idempotency: %w", err))
	}
	return Backend{
		Name:        config.BackendMongo,
		UoW:         mongodb.NewFactory(client.DB),
		Outbox:      box,
		Relay:       box,
		Idempotency: idem,
		Users:       mongodb.NewUserRepository(client.DB),
		Checks:      []obs.Check{{Name: "mongo", Probe: client.Ping}},
		Close:       client.Close,
	}, nil
}

func openMySQL(ctx context.Context, cfg config.Config, signal *infraoutbox.Signal, logger *slog.Logger) (Backend, error) {
	client, err := mysqldb.Open(cfg.MySQLDSN, logger)
	if err != nil {
		return Backend{}, fmt.Errorf("mysql open: %w", err)
	}
	if err := client.Migrate(ctx); err != nil {
		_ = client.Close()
		return Backend{}, fmt.Errorf("mysql migrate: %w", err)
	}
	box := mysqldb.NewOutboxStore(client.DB, signal)
	idem := mysqldb.NewIdempotencyStore(client.DB, cfg.IdempotencyTTL)
	return Backend{
		Name:        config.BackendMySQL,
		UoW:         mysqldb.Factory{DB: client.DB},
		Outbox:      box,
		Relay:       box,
		Idempotency: idem,
		Users:       mysqldb.NewUserRepository(client.DB),
		Checks:      []obs.Check{{Name: "mysql", Probe: client.Ping}},
		Purge:       idem.Purge,
		Close:       func(context.Context) error { return client.Close() },
	}, nil
}
