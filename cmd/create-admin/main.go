// Command create-admin creates an admin account, or promotes and re-keys an
// existing user with the same email, on the configured backend.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	authsvc "villarent/internal/app/services/auth"
	"villarent/internal/infra/bootstrap"
	"villarent/internal/infra/config"
	"villarent/internal/infra/notify"
	"villarent/internal/infra/obs"
	infraoutbox "villarent/internal/infra/outbox"
	"villarent/internal/infra/storage/memory"
	"villarent/internal/infra/storage/s3"
)

func main() {
	email := flag.String("email", os.Getenv("ADMIN_EMAIL"), "admin email")
	name := flag.String("name", envOr("ADMIN_NAME", "Administrator"), "display name")
	phone := flag.String("phone", os.Getenv("ADMIN_PHONE"), "phone number")
	password := flag.String("password", os.Getenv("ADMIN_PASSWORD"), "password, at least 8 characters")
	flag.Parse()

	cfg, err := config.Load()
	logger := obs.NewLogger(cfg.Env)
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	if *email == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "usage: create-admin -email EMAIL -password PASSWORD [-name NAME] [-phone PHONE]")
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	backend, err := bootstrap.OpenBackend(ctx, cfg, infraoutbox.NewSignal(), logger)
	if err != nil {
		logger.Error("backend open failed", "error", err)
		os.Exit(1)
	}
	defer func() { _ = backend.Close(context.Background()) }()

	app := bootstrap.New(backend, bootstrap.Services{
		Images:   s3.NoopStore{},
		Notifier: notify.LogNotifier{Logger: logger},
		Sessions: memory.NewSessionStore(nil),
	}, bootstrap.Settings{DBTimeout: cfg.DBTimeout, SessionTTL: cfg.SessionTTL, BcryptCost: cfg.BcryptCost}, logger)

	user, err := app.Auth.EnsureAdmin(ctx, authsvc.AdminParams{
		Email:    *email,
		Name:     *name,
		Phone:    *phone,
		Password: *password,
	})
	if err != nil {
		logger.Error("create admin failed", "error", err)
		os.Exit(1)
	}
	logger.Info("admin ready", "user_id", user.ID, "email", user.Email, "backend", backend.Name)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
