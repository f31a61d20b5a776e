package db

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"user-service/pkg/logger"
)

// Config holds database configuration
type Config struct {
	DSN           string
	Timeout       time.Duration
	MaxIdleConns  int
	MaxOpenConns  int
	SlowThreshold time.Duration
	Debug         bool
}

// NewConnection opens the database handle owned by the caller. Close it with Close.
func NewConnection(cfg Config, log *logger.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DSN), GormConfig(cfg, log))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}

	sqlDB.SetMaxIdleConns(orDefault(cfg.MaxIdleConns, 10))
	sqlDB.SetMaxOpenConns(orDefault(cfg.MaxOpenConns, 100))
	sqlDB.SetConnMaxLifetime(time.Hour)

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// GormConfig returns the gorm settings shared by the service and its tests.
// TranslateError makes unique violations surface as gorm.ErrDuplicatedKey.
func GormConfig(cfg Config, log *logger.Logger) *gorm.Config {
	return &gorm.Config{
		Logger:         NewGormLogger(log, cfg.SlowThreshold, cfg.Debug),
		TranslateError: true,
	}
}

// Close releases the connection pool behind db
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func orDefault(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}
