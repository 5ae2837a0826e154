package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"villarent/internal/app/commands"
	bookingapp "villarent/internal/app/handlers/booking"
	"villarent/internal/app/policies"
	authsvc "villarent/internal/app/services/auth"
	domainauth "villarent/internal/domain/auth"
	"villarent/internal/infra/bootstrap"
	"villarent/internal/infra/broker/kafka"
	"villarent/internal/infra/config"
	ginserver "villarent/internal/infra/http/gin"
	"villarent/internal/infra/notify"
	"villarent/internal/infra/obs"
	infraoutbox "villarent/internal/infra/outbox"
	"villarent/internal/infra/schedule"
	"villarent/internal/infra/storage/memory"
	redisstore "villarent/internal/infra/storage/redis"
	"villarent/internal/infra/storage/s3"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	logger := obs.NewLogger(cfg.Env)
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("villarent stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("villarent stopped")
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	relaySignal := infraoutbox.NewSignal()
	backend, err := bootstrap.OpenBackend(ctx, cfg, relaySignal, logger)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := backend.Close(closeCtx); err != nil {
			logger.Warn("backend close failed", "error", err)
		}
	}()
	logger.Info("storage backend ready", "backend", backend.Name)

	checks := append([]obs.Check(nil), backend.Checks...)
	sessions, sessionCheck := buildSessions(cfg)
	if sessionCheck != nil {
		checks = append(checks, *sessionCheck)
	}
	images, imageCheck, err := buildImages(cfg, logger)
	if err != nil {
		return err
	}
	if imageCheck != nil {
		checks = append(checks, *imageCheck)
	}
	producer, closeProducer, err := buildProducer(cfg, logger)
	if err != nil {
		return err
	}
	defer closeProducer()

	app := bootstrap.New(backend, bootstrap.Services{
		Images:   images,
		Notifier: buildNotifier(cfg, logger),
		Sessions: sessions,
	}, bootstrap.Settings{
		DBTimeout:      cfg.DBTimeout,
		NotifyTimeout:  cfg.NotifyTimeout,
		PriceTolerance: cfg.PriceTolerance,
		SessionTTL:     cfg.SessionTTL,
		BcryptCost:     cfg.BcryptCost,
	}, logger)

	if n, err := bootstrap.LoadFixtures(ctx, backend.UoW, cfg.VillaFixtures, logger); err != nil {
		logger.Warn("villa fixtures load failed", "error", err, "path", cfg.VillaFixtures)
	} else if n > 0 {
		logger.Info("villa fixtures loaded", "count", n)
	}

	// The memory backend starts empty, so an admin can be seeded from env.
	if pw := os.Getenv("ADMIN_PASSWORD"); pw != "" && cfg.AdminEmail != "" {
		if _, err := app.Auth.EnsureAdmin(ctx, authsvc.AdminParams{
			Email:    cfg.AdminEmail,
			Name:     "Administrator",
			Password: pw,
		}); err != nil {
			logger.Warn("admin seed failed", "error", err)
		}
	}

	scheduler := schedule.NewScheduler(logger)
	if err := scheduleJobs(scheduler, cfg, backend, app.Commands); err != nil {
		return err
	}
	scheduler.Start()
	defer scheduler.Stop()

	worker := &infraoutbox.Worker{
		Source:      backend.Relay,
		Producer:    producer,
		Signal:      relaySignal,
		Interval:    cfg.OutboxPollInterval,
		TopicPrefix: cfg.KafkaTopicPrefix,
		EventSource: "villarent",
		Backoff:     cfg.RetryBackoff,
		Logger:      logger,
	}

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, obs.HealthHandlers{Checks: checks}, app.Handlers)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := worker.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		logger.Info("HTTP server starting", "addr", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func buildSessions(cfg config.Config) (domainauth.SessionStore, *obs.Check) {
	if cfg.RedisAddr == "" {
		return memory.NewSessionStore(time.Now), nil
	}
	store := redisstore.NewSessionStore(redisstore.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB), time.Now)
	return store, &obs.Check{Name: "redis", Probe: store.Ping}
}

func buildImages(cfg config.Config, logger *slog.Logger) (policies.ImageStore, *obs.Check, error) {
	if cfg.S3Endpoint == "" {
		logger.Warn("S3_ENDPOINT not set, image uploads disabled")
		return s3.NoopStore{}, nil, nil
	}
	client, err := s3.NewClient(s3.Options{
		Endpoint:      cfg.S3Endpoint,
		UseSSL:        cfg.S3UseSSL,
		AccessKey:     cfg.S3AccessKey,
		SecretKey:     cfg.S3SecretKey,
		Bucket:        cfg.S3Bucket,
		PublicBaseURL: cfg.S3PublicEndpoint,
	}, logger)
	if err != nil {
		return nil, nil, err
	}
	return client, &obs.Check{Name: "s3", Probe: client.Ping}, nil
}

func buildProducer(cfg config.Config, logger *slog.Logger) (infraoutbox.Producer, func(), error) {
	if len(cfg.KafkaBrokers) == 0 {
		logger.Warn("KAFKA_BROKERS not set, events are only logged")
		return kafka.LogProducer{Logger: logger}, func() {}, nil
	}
	producer, err := kafka.NewProducer(cfg.KafkaBrokers, nil)
	if err != nil {
		return nil, nil, err
	}
	return producer, func() {
		if err := producer.Close(); err != nil {
			logger.Warn("kafka producer close failed", "error", err)
		}
	}, nil
}

func buildNotifier(cfg config.Config, logger *slog.Logger) policies.BookingNotifier {
	if cfg.SMTPHost == "" {
		logger.Warn("SMTP_HOST not set, confirmation emails are skipped")
		return notify.LogNotifier{Logger: logger}
	}
	return notify.NewSMTPNotifier(notify.SMTPConfig{
		Host:       cfg.SMTPHost,
		Port:       cfg.SMTPPort,
		User:       cfg.SMTPUser,
		Password:   cfg.SMTPPassword,
		From:       cfg.SMTPFrom,
		AdminEmail: cfg.AdminEmail,
	}, logger)
}

func scheduleJobs(s *schedule.Scheduler, cfg config.Config, backend bootstrap.Backend, bus commands.Bus) error {
	err := s.Add(schedule.Job{
		Name:    "complete-stays",
		Spec:    cfg.CompletionCron,
		Timeout: 5 * time.Minute,
		Run: func(ctx context.Context) error {
			_, err := commands.Dispatch[bookingapp.CompleteStaysCommand, *bookingapp.CompleteStaysResult](ctx, bus, bookingapp.CompleteStaysCommand{})
			return err
		},
	})
	if err != nil {
		return err
	}
	if backend.Purge == nil {
		return nil
	}
	return s.Add(schedule.Job{
		Name:    "purge-idempotency",
		Spec:    "@every 1h",
		Timeout: time.Minute,
		Run: func(ctx context.Context) error {
			_, err := backend.Purge(ctx)
			return err
		},
	})
}
