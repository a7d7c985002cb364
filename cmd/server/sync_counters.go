package main

// Helper: go run ./cmd/server -sync-counters
// Raises the numbering counters to the highest stored sequence, then exits.
// Run it after importing documents or when creates fail with a number conflict.

import (
	"context"
	"flag"
	"fmt"

	"go.uber.org/zap"

	"github.com/diewo77/invoice-api/internal/services"
)

var syncCountersFlag = flag.Bool("sync-counters", false, "Resync document numbering counters and exit")

func runSyncCounters(ctx context.Context, invoices *services.InvoiceService, log *zap.Logger) error {
	changed, err := invoices.SyncCounters(ctx)
	if err != nil {
		return fmt.Errorf("sync counters: %w", err)
	}
	log.Info("counter sync done", zap.Int("changed", changed))
	return nil
}
