package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/fulfillment-backend/pkg/config"
	"github.com/angelmondragon/fulfillment-backend/pkg/db"
	"github.com/angelmondragon/fulfillment-backend/pkg/instance"
	"github.com/angelmondragon/fulfillment-backend/pkg/logger"
	"github.com/angelmondragon/fulfillment-backend/pkg/metrics"
	"github.com/angelmondragon/fulfillment-backend/pkg/migrate"
	"github.com/angelmondragon/fulfillment-backend/pkg/outbox"
	"github.com/angelmondragon/fulfillment-backend/pkg/outbox/registry"
	"github.com/angelmondragon/fulfillment-backend/pkg/pubsub"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "outbox-publisher"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	cfg.Service.Kind = "outbox-publisher"

	logg = logger.New(logger.Options{
		ServiceName: "outbox-publisher",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		_ = dbClient.Close()
		os.Exit(1)
	}

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap pubsub", err)
		_ = dbClient.Close()
		os.Exit(1)
	}
	defer func() {
		if err := multierr.Combine(pubsubClient.Close(), dbClient.Close()); err != nil {
			logg.Error(context.Background(), "error closing clients", err)
		}
	}()

	promRegistry := prometheus.NewRegistry()
	repo := outbox.NewRepository(dbClient.DB())
	eventRegistry, err := registry.NewEventRegistry(cfg.PubSub)
	if err != nil {
		logg.Error(context.Background(), "failed to build event registry", err)
		return
	}
	service, err := NewService(ServiceParams{
		Config:     cfg,
		Logger:     logg,
		DB:         dbClient,
		PubSub:     pubsubClient,
		Repository: repo,
		Registry:   eventRegistry,
		Metrics:    metrics.NewOutboxPublisherMetrics(promRegistry),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create outbox publisher", err)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": "outbox-publisher",
		"instance":    instance.ID(),
	})
	logg.Info(ctx, "starting outbox publisher")

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return service.Run(groupCtx)
	})
	group.Go(func() error {
		router := newOpsRouter(promRegistry, map[string]healthChecker{
			"database": dbClient.Ping,
			"pubsub":   pubsubClient.Ping,
		}, repo)
		return serveOps(groupCtx, cfg.Ops.Addr, router, logg)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "outbox publisher stopped unexpectedly", err)
		return
	}

	logg.Info(ctx, "outbox publisher shutting down gracefully")
}
