package fulfillment

import (
	"fmt"

	"github.com/angelmondragon/fulfillment-backend/internal/cancellation"
	"github.com/angelmondragon/fulfillment-backend/internal/catalog"
	"github.com/angelmondragon/fulfillment-backend/internal/delivery"
	"github.com/angelmondragon/fulfillment-backend/internal/orders"
	"github.com/angelmondragon/fulfillment-backend/internal/production"
	"github.com/angelmondragon/fulfillment-backend/internal/users"
	"github.com/angelmondragon/fulfillment-backend/pkg/config"
	"github.com/angelmondragon/fulfillment-backend/pkg/db"
	"github.com/angelmondragon/fulfillment-backend/pkg/idempotency"
	"github.com/angelmondragon/fulfillment-backend/pkg/logger"
	"github.com/angelmondragon/fulfillment-backend/pkg/metrics"
	"github.com/angelmondragon/fulfillment-backend/pkg/outbox"
)

// Dependencies are the shared resources a Boundary is assembled from.
// Idempotency and Metrics are optional.
type Dependencies struct {
	DB          *db.Client
	Idempotency *idempotency.Manager
	Metrics     *metrics.FulfillmentMetrics
	Logger      *logger.Logger
	Config      config.FulfillmentConfig
}

// Wire builds every repository and service over one database client.
func Wire(deps Dependencies) (*Boundary, error) {
	if deps.DB == nil {
		return nil, fmt.Errorf("database client required")
	}
	conn := deps.DB.DB()
	emitter := outbox.NewService(outbox.NewRepository(conn), deps.Logger)
	orderRepo := orders.NewRepository(conn)

	directory, err := users.NewDirectory(users.NewRepository(conn))
	if err != nil {
		return nil, err
	}
	catalogSvc, err := catalog.NewService(catalog.NewRepository(conn), deps.DB, emitter, deps.Logger)
	if err != nil {
		return nil, err
	}

	orderParams := orders.ServiceParams{
		Repo:              orderRepo,
		Tx:                deps.DB,
		Catalog:           catalogSvc,
		Outbox:            emitter,
		Metrics:           deps.Metrics,
		Logger:            deps.Logger,
		PlacementAttempts: deps.Config.PlacementAttempts,
	}
	if deps.Idempotency != nil {
		orderParams.Idempotency = deps.Idempotency
	}
	orderSvc, err := orders.NewService(orderParams)
	if err != nil {
		return nil, err
	}

	productionSvc, err := production.NewService(production.ServiceParams{
		Repo:    orderRepo,
		Tx:      deps.DB,
		Outbox:  emitter,
		Metrics: deps.Metrics,
		Logger:  deps.Logger,
	})
	if err != nil {
		return nil, err
	}
	deliverySvc, err := delivery.NewService(delivery.ServiceParams{
		Repo:                           orderRepo,
		Tx:                             deps.DB,
		Outbox:                         emitter,
		Metrics:                        deps.Metrics,
		Logger:                         deps.Logger,
		EnforceDeliveredWithinProduced: deps.Config.EnforceDeliveredWithinProduced,
	})
	if err != nil {
		return nil, err
	}
	cancellationSvc, err := cancellation.NewService(cancellation.ServiceParams{
		Repo:            orderRepo,
		Tx:              deps.DB,
		Outbox:          emitter,
		Metrics:         deps.Metrics,
		Logger:          deps.Logger,
		ReasonMinLength: deps.Config.CancellationReasonMinLength,
	})
	if err != nil {
		return nil, err
	}

	return New(Params{
		Directory:    directory,
		Orders:       orderSvc,
		Production:   productionSvc,
		Delivery:     deliverySvc,
		Cancellation: cancellationSvc,
		Catalog:      catalogSvc,
		Logger:       deps.Logger,
	})
}
