// Package config provides application configuration loaded from environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	App       AppConfig
	Numbering NumberingConfig
	Webhook   WebhookConfig
	PDF       PDFConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `env:"PORT" envDefault:"8080"`
	ReadTimeout  time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"15s"`
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"15s"`
	IdleTimeout  time.Duration `env:"SERVER_IDLE_TIMEOUT" envDefault:"60s"`
}

// DatabaseConfig holds database connection settings. When DSNOverride is
// set it wins over the individual parts.
type DatabaseConfig struct {
	Driver         string `env:"DB_DRIVER" envDefault:"postgres"`
	DSNOverride    string `env:"DATABASE_DSN"`
	Host           string `env:"DB_HOST" envDefault:"localhost"`
	Port           int    `env:"DB_PORT" envDefault:"5432"`
	User           string `env:"DB_USER" envDefault:"invoices"`
	Password       string `env:"DB_PASSWORD" envDefault:"invoices123"`
	DBName         string `env:"DB_NAME" envDefault:"invoices"`
	SSLMode        string `env:"DB_SSLMODE" envDefault:"disable"`
	ConnectRetries int    `env:"DB_CONNECT_RETRIES" envDefault:"5"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Dev              bool   `env:"DEV" envDefault:"false"`
	Migrations       bool   `env:"MIGRATIONS" envDefault:"true"`
	LogLevel         string `env:"LOG_LEVEL" envDefault:"info"`
	ListDefaultLimit int    `env:"LIST_DEFAULT_LIMIT" envDefault:"100"`
}

// NumberingConfig selects how document sequences are shared.
// "global" keeps one counter for every document; "type_year" restarts per prefix and year.
type NumberingConfig struct {
	Scope string `env:"NUMBERING_SCOPE" envDefault:"global"`
}

// WebhookConfig holds the automation webhook settings. An empty secret
// leaves the endpoint open.
type WebhookConfig struct {
	Secret string `env:"WEBHOOK_SECRET"`
}

// PDFConfig holds document rendering settings.
type PDFConfig struct {
	Lang string `env:"PDF_LANG" envDefault:"fr"`
}

// DSN returns the connection string for the configured driver.
func (d DatabaseConfig) DSN() string {
	if d.DSNOverride != "" {
		return d.DSNOverride
	}
	if d.Driver == "sqlite" {
		return d.DBName
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

// Load reads an optional .env file then the environment.
// Variables already set in the environment win over the file.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load env file: %w", err)
	}
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("DB_DRIVER must be postgres or sqlite, got %q", c.Database.Driver)
	}
	switch c.Numbering.Scope {
	case "global", "type_year":
	default:
		return fmt.Errorf("NUMBERING_SCOPE must be global or type_year, got %q", c.Numbering.Scope)
	}
	if c.App.ListDefaultLimit <= 0 {
		return fmt.Errorf("LIST_DEFAULT_LIMIT must be positive, got %d", c.App.ListDefaultLimit)
	}
	return nil
}
