// Package db opens the gorm connection and applies schema migrations.
package db

import (
	"fmt"
	"regexp"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/diewo77/invoice-api/internal/config"
	"github.com/diewo77/invoice-api/internal/logger"
	"github.com/diewo77/invoice-api/internal/models"
)

// retryDelay is the pause between connection attempts while the database starts.
var retryDelay = 2 * time.Second

var (
	kvPasswordRe  = regexp.MustCompile(`(password=)(\S+)`)
	urlPasswordRe = regexp.MustCompile(`(://[^:/@\s]+:)([^@\s]+)(@)`)
)

// Open connects to the configured database, retrying while it comes up.
func Open(cfg config.DatabaseConfig, debug bool, log *zap.Logger) (*gorm.DB, error) {
	log = logger.OrNop(log)
	dsn := NormalizeDSN(cfg.DSN())
	if dsn == "" {
		return nil, fmt.Errorf("database DSN is empty")
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(dsn)
	default:
		dialector = postgres.Open(dsn)
	}

	logLevel := gormlogger.Silent
	if debug {
		logLevel = gormlogger.Info
	}
	gcfg := &gorm.Config{
		Logger:         gormlogger.Default.LogMode(logLevel),
		TranslateError: true,
	}

	attempts := cfg.ConnectRetries
	if attempts < 1 {
		attempts = 1
	}
	var (
		conn *gorm.DB
		err  error
	)
	for i := 1; i <= attempts; i++ {
		conn, err = gorm.Open(dialector, gcfg)
		if err == nil {
			err = conn.Exec("SELECT 1").Error
		}
		if err == nil {
			break
		}
		log.Warn("database connection failed", zap.Int("attempt", i), zap.Int("max", attempts), zap.Error(err))
		if i < attempts {
			time.Sleep(retryDelay)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("connect database after %d attempts: %w", attempts, err)
	}

	log.Info("database connected", zap.String("driver", cfg.Driver), zap.String("dsn", MaskDSN(dsn)))
	return conn, nil
}

// Migrate creates or updates the tables of every persisted model.
func Migrate(conn *gorm.DB) error {
	if err := conn.AutoMigrate(
		&models.Invoice{},
		&models.LineItem{},
		&models.DocumentCounter{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// MaskDSN hides the password of a key=value or URL DSN for logging.
func MaskDSN(dsn string) string {
	dsn = kvPasswordRe.ReplaceAllString(dsn, "${1}***")
	return urlPasswordRe.ReplaceAllString(dsn, "${1}***${3}")
}
