// Package mysql is the relational backend built on gorm. A writing unit of
// work is one SQL transaction; the calendar row is read FOR UPDATE and saved
// with a version check, so reservations for a villa are serialised.
package mysql

import (
	"context"
	"log/slog"
	"time"

	gormmysql "gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Client struct {
	DB *gorm.DB
}

func Open(dsn string, log *slog.Logger) (*Client, error) {
	if log == nil {
		log = slog.Default()
	}
	gormLogger := logger.New(
		slog.NewLogLogger(log.Handler(), slog.LevelWarn),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		},
	)
	db, err := gorm.Open(gormmysql.Open(dsn), &gorm.Config{Logger: gormLogger, TranslateError: true})
	if err != nil {
		return nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	return &Client{DB: db}, nil
}

// Migrate creates or updates every table the backend uses.
func (c *Client) Migrate(ctx context.Context) error {
	return c.DB.WithContext(ctx).AutoMigrate(
		&villaModel{},
		&imageModel{},
		&ruleModel{},
		&blackoutModel{},
		&calendarModel{},
		&bookingModel{},
		&userModel{},
		&outboxModel{},
		&idempotencyModel{},
	)
}

func (c *Client) Ping(ctx context.Context) error {
	sqlDB, err := c.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (c *Client) Close() error {
	sqlDB, err := c.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
