// Package fulfillment is the data-access boundary of the order fulfillment
// engine. Every operation resolves the calling user through the role
// directory and delegates to the owning service.
package fulfillment

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/angelmondragon/fulfillment-backend/internal/catalog"
	"github.com/angelmondragon/fulfillment-backend/internal/delivery"
	"github.com/angelmondragon/fulfillment-backend/internal/orders"
	"github.com/angelmondragon/fulfillment-backend/internal/production"
	"github.com/angelmondragon/fulfillment-backend/internal/users"
	"github.com/angelmondragon/fulfillment-backend/pkg/db/models"
	"github.com/angelmondragon/fulfillment-backend/pkg/enums"
	"github.com/angelmondragon/fulfillment-backend/pkg/logger"
	"github.com/angelmondragon/fulfillment-backend/pkg/pagination"
)

type actorResolver interface {
	ResolveActor(ctx context.Context, id uuid.UUID) (users.Actor, *models.User, error)
}

type orderService interface {
	Place(ctx context.Context, actor users.Actor, user *models.User, input orders.PlaceOrderInput) (*models.Order, error)
	Detail(ctx context.Context, actor users.Actor, orderID uuid.UUID) (*orders.OrderDetail, error)
}

type productionService interface {
	Record(ctx context.Context, actor users.Actor, input production.RecordInput) (*models.OrderItem, error)
	Queue(ctx context.Context, actor users.Actor, group *enums.ProductGroup, params pagination.Params) (pagination.Page[models.OrderItem], error)
}

type deliveryService interface {
	Claim(ctx context.Context, actor users.Actor, orderID uuid.UUID) (*models.Order, error)
	Record(ctx context.Context, actor users.Actor, input delivery.RecordInput) (*models.OrderItem, error)
	Pool(ctx context.Context, actor users.Actor, params pagination.Params) (pagination.Page[models.Order], error)
	DriverOrders(ctx context.Context, actor users.Actor, driverID uuid.UUID, params pagination.Params) (pagination.Page[models.Order], error)
}

type cancellationService interface {
	Cancel(ctx context.Context, actor users.Actor, orderID uuid.UUID, reason string) (*models.Order, error)
}

type catalogService interface {
	CreateProduct(ctx context.Context, actor users.Actor, input catalog.CreateProductInput) (*models.Product, error)
	CreatePriceList(ctx context.Context, actor users.Actor, input catalog.CreatePriceListInput) (*models.PriceList, error)
	SetPriceListItem(ctx context.Context, actor users.Actor, input catalog.SetPriceListItemInput) (*models.PriceListItem, error)
	SetDefaultPriceList(ctx context.Context, actor users.Actor, id uuid.UUID) (*models.PriceList, error)
}

type Params struct {
	Directory    actorResolver
	Orders       orderService
	Production   productionService
	Delivery     deliveryService
	Cancellation cancellationService
	Catalog      catalogService
	Logger       *logger.Logger
}

// Boundary exposes the fulfillment operations keyed by the calling user id.
type Boundary struct {
	directory    actorResolver
	orders       orderService
	production   productionService
	delivery     deliveryService
	cancellation cancellationService
	catalog      catalogService
	logg         *logger.Logger
}

func New(params Params) (*Boundary, error) {
	switch {
	case params.Directory == nil:
		return nil, errors.New("user directory required")
	case params.Orders == nil:
		return nil, errors.New("orders service required")
	case params.Production == nil:
		return nil, errors.New("production service required")
	case params.Delivery == nil:
		return nil, errors.New("delivery service required")
	case params.Cancellation == nil:
		return nil, errors.New("cancellation service required")
	case params.Catalog == nil:
		return nil, errors.New("catalog service required")
	}
	return &Boundary{
		directory:    params.Directory,
		orders:       params.Orders,
		production:   params.Production,
		delivery:     params.Delivery,
		cancellation: params.Cancellation,
		catalog:      params.Catalog,
		logg:         params.Logger,
	}, nil
}

func (b *Boundary) actor(ctx context.Context, userID uuid.UUID) (users.Actor, *models.User, context.Context, error) {
	actor, user, err := b.directory.ResolveActor(ctx, userID)
	if err != nil {
		return users.Actor{}, nil, ctx, err
	}
	if b.logg != nil {
		ctx = b.logg.WithUserID(ctx, actor.UserID.String())
		ctx = b.logg.WithActorRole(ctx, string(actor.Role))
	}
	return actor, user, ctx, nil
}

// PlaceOrder prices and stores a new order for userID.
func (b *Boundary) PlaceOrder(ctx context.Context, userID uuid.UUID, input orders.PlaceOrderInput) (*models.Order, error) {
	actor, user, ctx, err := b.actor(ctx, userID)
	if err != nil {
		return nil, err
	}
	return b.orders.Place(ctx, actor, user, input)
}

func (b *Boundary) CancelOrder(ctx context.Context, userID, orderID uuid.UUID, reason string) (*models.Order, error) {
	actor, _, ctx, err := b.actor(ctx, userID)
	if err != nil {
		return nil, err
	}
	return b.cancellation.Cancel(ctx, actor, orderID, reason)
}

// ClaimOrder assigns orderID to driverID. Concurrent claims on the same order
// yield exactly one success.
func (b *Boundary) ClaimOrder(ctx context.Context, driverID, orderID uuid.UUID) (*models.Order, error) {
	actor, _, ctx, err := b.actor(ctx, driverID)
	if err != nil {
		return nil, err
	}
	return b.delivery.Claim(ctx, actor, orderID)
}

func (b *Boundary) RecordProduction(ctx context.Context, userID uuid.UUID, input production.RecordInput) (*models.OrderItem, error) {
	actor, _, ctx, err := b.actor(ctx, userID)
	if err != nil {
		return nil, err
	}
	return b.production.Record(ctx, actor, input)
}

func (b *Boundary) RecordDelivery(ctx context.Context, userID uuid.UUID, input delivery.RecordInput) (*models.OrderItem, error) {
	actor, _, ctx, err := b.actor(ctx, userID)
	if err != nil {
		return nil, err
	}
	return b.delivery.Record(ctx, actor, input)
}

// Pool lists unclaimed orders ready for delivery.
func (b *Boundary) Pool(ctx context.Context, userID uuid.UUID, params pagination.Params) (pagination.Page[models.Order], error) {
	actor, _, ctx, err := b.actor(ctx, userID)
	if err != nil {
		return pagination.Page[models.Order]{}, err
	}
	return b.delivery.Pool(ctx, actor, params)
}

func (b *Boundary) DriverDeliveries(ctx context.Context, userID, driverID uuid.UUID, params pagination.Params) (pagination.Page[models.Order], error) {
	actor, _, ctx, err := b.actor(ctx, userID)
	if err != nil {
		return pagination.Page[models.Order]{}, err
	}
	return b.delivery.DriverOrders(ctx, actor, driverID, params)
}

// ProductionQueue lists open items for a product group. group may be nil
// for chefs, who always get their own.
func (b *Boundary) ProductionQueue(ctx context.Context, userID uuid.UUID, group *enums.ProductGroup, params pagination.Params) (pagination.Page[models.OrderItem], error) {
	actor, _, ctx, err := b.actor(ctx, userID)
	if err != nil {
		return pagination.Page[models.OrderItem]{}, err
	}
	return b.production.Queue(ctx, actor, group, params)
}

func (b *Boundary) OrderDetail(ctx context.Context, userID, orderID uuid.UUID) (*orders.OrderDetail, error) {
	actor, _, ctx, err := b.actor(ctx, userID)
	if err != nil {
		return nil, err
	}
	return b.orders.Detail(ctx, actor, orderID)
}

func (b *Boundary) CreateProduct(ctx context.Context, userID uuid.UUID, input catalog.CreateProductInput) (*models.Product, error) {
	actor, _, ctx, err := b.actor(ctx, userID)
	if err != nil {
		return nil, err
	}
	return b.catalog.CreateProduct(ctx, actor, input)
}

func (b *Boundary) CreatePriceList(ctx context.Context, userID uuid.UUID, input catalog.CreatePriceListInput) (*models.PriceList, error) {
	actor, _, ctx, err := b.actor(ctx, userID)
	if err != nil {
		return nil, err
	}
	return b.catalog.CreatePriceList(ctx, actor, input)
}

func (b *Boundary) SetPriceListItem(ctx context.Context, userID uuid.UUID, input catalog.SetPriceListItemInput) (*models.PriceListItem, error) {
	actor, _, ctx, err := b.actor(ctx, userID)
	if err != nil {
		return nil, err
	}
	return b.catalog.SetPriceListItem(ctx, actor, input)
}

func (b *Boundary) SetDefaultPriceList(ctx context.Context, userID, priceListID uuid.UUID) (*models.PriceList, error) {
	actor, _, ctx, err := b.actor(ctx, userID)
	if err != nil {
		return nil, err
	}
	return b.catalog.SetDefaultPriceList(ctx, actor, priceListID)
}
