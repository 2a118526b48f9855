package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/XAOSTECH/payments.xaostech.io/internal/config"
	"github.com/XAOSTECH/payments.xaostech.io/internal/infrastructure/database"
	grpcServer "github.com/XAOSTECH/payments.xaostech.io/internal/infrastructure/grpc"
	httpServer "github.com/XAOSTECH/payments.xaostech.io/internal/infrastructure/http"
	"github.com/XAOSTECH/payments.xaostech.io/internal/infrastructure/metrics"
	"github.com/XAOSTECH/payments.xaostech.io/internal/usecase"
	"github.com/XAOSTECH/payments.xaostech.io/pkg/logger"
	"github.com/XAOSTECH/payments.xaostech.io/pkg/messaging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	zapLogger, err := logger.NewZapLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger = zapLogger.With(
		zap.String("service", cfg.Service.Name),
		zap.String("environment", cfg.Service.Environment),
	)

	// Initialize database connection
	db, err := database.NewConnection(&cfg.Database, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := database.Close(db, zapLogger); err != nil {
			zapLogger.Error("Failed to close database connection", zap.Error(err))
		}
	}()

	// Run database migrations
	if err := database.Migrate(db, zapLogger); err != nil {
		zapLogger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Optional entitlement change publisher
	var publisher usecase.ChangePublisher
	if cfg.Redis.Enabled {
		redisClient, err := messaging.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			zapLogger.Fatal("Failed to connect to redis", zap.Error(err))
		}
		defer redisClient.Close()
		publisher = redisClient
		zapLogger.Info("Publishing entitlement changes",
			zap.String("addr", cfg.Redis.Addr),
			zap.String("channel", cfg.Redis.Channel))
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewMetrics(registry)

	// Initialize repositories and use cases
	repos := database.NewRepositories(db, zapLogger)
	applier := usecase.NewWebhookApplier(repos.Subscription, repos.Webhook, publisher, cfg.Redis.Channel, m, zapLogger.Named("webhook_applier"))
	resolver := usecase.NewPlanResolver(repos.Subscription, repos.Family, m, zapLogger.Named("plan_resolver"))
	family := usecase.NewFamilyPlanService(repos.Subscription, repos.Family, m, zapLogger.Named("family_plan"))

	// Initialize servers
	grpcSrv := grpcServer.NewServer(cfg, zapLogger.Named("grpc"))
	httpSrv := httpServer.NewServer(cfg, zapLogger.Named("http"), httpServer.Dependencies{
		Applier:  applier,
		Resolver: resolver,
		Family:   family,
		Metrics:  m,
		Health: func(ctx context.Context) error {
			return database.Ping(ctx, db)
		},
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(grpcSrv.Start)
	g.Go(httpSrv.Start)
	g.Go(func() error {
		<-gctx.Done()
		zapLogger.Info("Shutting down servers...")
		return shutdown(cfg, zapLogger, grpcSrv, httpSrv)
	})

	if err := g.Wait(); err != nil {
		zapLogger.Error("Server stopped with error", zap.Error(err))
		return
	}
	zapLogger.Info("Servers shut down successfully")
}

func shutdown(cfg *config.Config, log *zap.Logger, grpcSrv *grpcServer.Server, httpSrv *httpServer.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	grpcSrv.SetServing(false)

	var firstErr error
	if err := httpSrv.Shutdown(ctx); err != nil {
		log.Error("Failed to shutdown HTTP server", zap.Error(err))
		firstErr = err
	}
	if err := grpcSrv.Shutdown(ctx); err != nil {
		log.Error("Failed to shutdown gRPC server", zap.Error(err))
		if firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
