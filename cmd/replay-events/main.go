// Command replay-events applies provider events exported to files, for
// backfilling webhooks the service missed. Already processed events are
// skipped through the webhook ledger.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/XAOSTECH/payments.xaostech.io/internal/config"
	"github.com/XAOSTECH/payments.xaostech.io/internal/infrastructure/database"
	"github.com/XAOSTECH/payments.xaostech.io/internal/usecase"
	"github.com/XAOSTECH/payments.xaostech.io/pkg/logger"
	"go.uber.org/zap"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "parse and list events without applying them")
	flag.Parse()
	if flag.NArg() == 0 {
		log.Fatalf("usage: replay-events [-dry-run] FILE...")
	}

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zapLogger, err := logger.NewZapLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	db, err := database.NewConnection(&cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := database.Close(db, zapLogger); err != nil {
			zapLogger.Error("Failed to close database connection", zap.Error(err))
		}
	}()

	if err := database.Migrate(db, zapLogger); err != nil {
		zapLogger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	repos := database.NewRepositories(db, zapLogger)
	applier := usecase.NewWebhookApplier(repos.Subscription, repos.Webhook, nil, "", nil, zapLogger.Named("webhook_applier"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var summary replaySummary
	for _, path := range flag.Args() {
		events, err := loadEvents(path)
		if err != nil {
			zapLogger.Fatal("Failed to load events", zap.Error(err))
		}
		zapLogger.Info("Replaying events",
			zap.String("path", path),
			zap.Int("events", len(events)),
			zap.Bool("dry_run", *dryRun))

		if err := replay(ctx, applier, events, *dryRun, zapLogger, &summary); err != nil {
			zapLogger.Error("Replay interrupted", zap.Error(err))
			break
		}
	}

	zapLogger.Info("Replay completed",
		zap.Int("applied", summary.Applied),
		zap.Int("duplicates", summary.Duplicates),
		zap.Int("failed", summary.Failed))
	if summary.Failed > 0 {
		os.Exit(1)
	}
}
