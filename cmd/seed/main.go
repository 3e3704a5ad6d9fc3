package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/angelmondragon/fulfillment-backend/internal/fulfillment"
	"github.com/angelmondragon/fulfillment-backend/internal/users"
	"github.com/angelmondragon/fulfillment-backend/pkg/config"
	"github.com/angelmondragon/fulfillment-backend/pkg/db"
	"github.com/angelmondragon/fulfillment-backend/pkg/idempotency"
	"github.com/angelmondragon/fulfillment-backend/pkg/logger"
	"github.com/angelmondragon/fulfillment-backend/pkg/metrics"
	"github.com/angelmondragon/fulfillment-backend/pkg/migrate"
	"github.com/angelmondragon/fulfillment-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "seed"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}
	cfg.Service.Kind = "seed"

	logg = logger.New(logger.Options{
		ServiceName: "seed",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx := logg.WithField(context.Background(), "env", cfg.App.Env)

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer dbClient.Close()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	deps := fulfillment.Dependencies{
		DB:      dbClient,
		Metrics: metrics.NewFulfillmentMetrics(prometheus.NewRegistry()),
		Logger:  logg,
		Config:  cfg.Fulfillment,
	}
	if cfg.Redis.Enabled() {
		redisClient, err := redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer redisClient.Close()
		deps.Idempotency, err = idempotency.NewManager(redisClient, cfg.Fulfillment.IdempotencyTTL)
		if err != nil {
			logg.Error(ctx, "failed to build idempotency manager", err)
			os.Exit(1)
		}
	}

	boundary, err := fulfillment.Wire(deps)
	if err != nil {
		logg.Error(ctx, "failed to wire fulfillment", err)
		os.Exit(1)
	}
	userRepo := users.NewRepository(dbClient.DB())
	directory, err := users.NewDirectory(userRepo)
	if err != nil {
		logg.Error(ctx, "failed to build user directory", err)
		os.Exit(1)
	}

	s := &seeder{users: userRepo, directory: directory, boundary: boundary, logg: logg}
	result, err := s.run(ctx)
	if err != nil {
		logg.Error(ctx, "seed failed", err)
		os.Exit(1)
	}

	fields := map[string]any{"order_id": result.OrderID.String(), "products": len(result.Products)}
	for key, id := range result.Users {
		fields["user_"+key] = id.String()
	}
	logg.Info(logg.WithFields(ctx, fields), "seed complete")
}
