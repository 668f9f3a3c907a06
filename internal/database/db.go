package database

import (
	"context"
	"fmt"
	"time"

	"musicsocial/internal/logger"
	"musicsocial/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Options tune the GORM session opened by NewConnection.
type Options struct {
	SlowQueryThreshold time.Duration
	Log                *logger.Logger
}

// NewConnection initializes a new connection pool using GORM
func NewConnection(ctx context.Context, dsn string, opts Options) (*gorm.DB, error) {
	cfg := gormConfig(opts)
	db, err := gorm.Open(postgres.Open(dsn), cfg)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}

// Migrate creates or updates every table the API uses.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(model.All()...)
}

func gormConfig(opts Options) *gorm.Config {
	log := opts.Log
	if log == nil {
		log = logger.Global()
	}
	slow := opts.SlowQueryThreshold
	if slow <= 0 {
		slow = 200 * time.Millisecond
	}
	return &gorm.Config{
		Logger: newGormLogger(log, slow),
		// Unique-key violations surface as gorm.ErrDuplicatedKey on every dialect.
		TranslateError: true,
	}
}

// Config exposes the GORM settings so other dialectors (tests) share them.
func Config(opts Options) *gorm.Config {
	return gormConfig(opts)
}
