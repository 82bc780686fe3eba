// Package store provides an ORM-backed data service.
package store

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Supported drivers.
const (
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// Config holds database connection settings.
type Config struct {
	// Driver selects the database: "postgres" or "mysql".
	Driver string

	// DSN is the driver-specific connection string, e.g.
	// "host=localhost user=postgres dbname=shell sslmode=disable".
	DSN string

	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration

	// LogLevel is the gorm log level.
	LogLevel logger.LogLevel

	// Logf receives gorm's log lines. If nil, gorm logs to stdout.
	Logf func(format string, args ...any)

	// AutoMigrate creates or updates tables for the models passed to Open.
	AutoMigrate bool
}

// DefaultConfig returns the default settings for driver and dsn.
func DefaultConfig(driver, dsn string) Config {
	return Config{
		Driver:          driver,
		DSN:             dsn,
		MaxIdleConns:    2,
		MaxOpenConns:    10,
		ConnMaxLifetime: time.Hour,
		LogLevel:        logger.Silent,
		AutoMigrate:     true,
	}
}

// Dialector returns the gorm dialector for driver.
func Dialector(driver, dsn string) (gorm.Dialector, error) {
	if dsn == "" {
		return nil, errors.New("DSN is required")
	}
	switch driver {
	case DriverPostgres, "":
		return postgres.Open(dsn), nil
	case DriverMySQL:
		return mysql.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}
}

// Open connects to the database, configures the pool and migrates models.
func Open(cfg Config, models ...any) (*gorm.DB, error) {
	dialector, err := Dialector(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, err
	}

	gormLogger := logger.Default.LogMode(cfg.LogLevel)
	if cfg.Logf != nil {
		gormLogger = logger.New(printfFunc(cfg.Logf), logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  cfg.LogLevel,
			IgnoreRecordNotFoundError: true,
		})
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormLogger})
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", dialector.Name(), err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql.DB: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if cfg.AutoMigrate && len(models) > 0 {
		if err := db.AutoMigrate(models...); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("auto migrate: %w", err)
		}
	}
	return db, nil
}

// printfFunc adapts a printf-style function to gorm's logger.Writer.
type printfFunc func(format string, args ...any)

func (f printfFunc) Printf(format string, args ...any) {
	f(format, args...)
}
