package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/diewo77/invoice-api/internal/billing"
	"github.com/diewo77/invoice-api/internal/config"
	"github.com/diewo77/invoice-api/internal/db"
	"github.com/diewo77/invoice-api/internal/logger"
	"github.com/diewo77/invoice-api/internal/metrics"
	"github.com/diewo77/invoice-api/internal/pdf"
	"github.com/diewo77/invoice-api/internal/server"
	"github.com/diewo77/invoice-api/internal/services"
)

var (
	migrateOnlyFlag = flag.Bool("migrate-only", false, "Run DB migrations and exit")
	envFileFlag     = flag.String("env-file", ".env", "Optional dotenv file loaded before the environment")
)

func main() {
	flag.Parse()
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(*envFileFlag)
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.App.LogLevel, cfg.App.Dev)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	dbConn, err := db.Open(cfg.Database, cfg.App.Dev, log)
	if err != nil {
		log.Error("failed to connect to database", zap.Error(err))
		return err
	}

	if *migrateOnlyFlag {
		if err := db.Migrate(dbConn); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		log.Info("migrations completed successfully")
		return nil
	}

	if cfg.App.Migrations {
		if err := db.Migrate(dbConn); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		log.Info("migrations completed")
	}

	scope, err := billing.ParseSequenceScope(cfg.Numbering.Scope)
	if err != nil {
		return err
	}
	metrics.Init()

	invoices := services.NewInvoiceService(dbConn,
		services.WithLogger(log),
		services.WithScope(scope),
		services.WithListLimit(cfg.App.ListDefaultLimit),
	)
	if *syncCountersFlag {
		return runSyncCounters(context.Background(), invoices, log)
	}

	handler := server.New(server.Deps{
		DB:            dbConn,
		Invoices:      invoices,
		Renderer:      pdf.NewRenderer(cfg.PDF.Lang),
		WebhookSecret: cfg.Webhook.Secret,
		Logger:        log,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting",
			zap.String("port", cfg.Server.Port),
			zap.Bool("dev", cfg.App.Dev),
			zap.String("numbering_scope", string(scope)),
			zap.Bool("webhook_secret", cfg.Webhook.Secret != ""),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		log.Error("server error", zap.Error(err))
		return err
	case sig := <-quit:
		log.Info("shutdown signal received", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("error during shutdown", zap.Error(err))
	}
	if sqlDB, err := dbConn.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info("server stopped gracefully")
	return nil
}
