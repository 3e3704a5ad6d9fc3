package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/fulfillment-backend/internal/catalog"
	"github.com/angelmondragon/fulfillment-backend/internal/pricing"
	"github.com/angelmondragon/fulfillment-backend/internal/users"
	"github.com/angelmondragon/fulfillment-backend/pkg/db"
	"github.com/angelmondragon/fulfillment-backend/pkg/db/models"
	dbtypes "github.com/angelmondragon/fulfillment-backend/pkg/db/types"
	"github.com/angelmondragon/fulfillment-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/fulfillment-backend/pkg/errors"
	"github.com/angelmondragon/fulfillment-backend/pkg/idempotency"
	"github.com/angelmondragon/fulfillment-backend/pkg/logger"
	"github.com/angelmondragon/fulfillment-backend/pkg/metrics"
	"github.com/angelmondragon/fulfillment-backend/pkg/outbox"
	"github.com/angelmondragon/fulfillment-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/fulfillment-backend/pkg/validators"
)

const (
	placeOrderScope = "place_order"

	orderNumberIndex  = "ux_orders_order_number"
	orderNumberColumn = "orders.order_number"

	notesMaxLen         = 2000
	attachmentRefMaxLen = 512
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type catalogReader interface {
	ResolvePriceLists(ctx context.Context, user *models.User) (catalog.PriceLists, error)
	Products(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*models.Product, error)
}

type idempotencyManager interface {
	Reserve(ctx context.Context, scope string, userID uuid.UUID, key string) (idempotency.Reservation, error)
	Complete(ctx context.Context, scope string, userID uuid.UUID, key string, orderID uuid.UUID) error
	Release(ctx context.Context, scope string, userID uuid.UUID, key string) error
}

// ServiceParams wires the order service.
type ServiceParams struct {
	Repo              Repository
	Tx                txRunner
	Catalog           catalogReader
	Outbox            outbox.Emitter
	Idempotency       idempotencyManager
	Metrics           *metrics.FulfillmentMetrics
	Logger            *logger.Logger
	PlacementAttempts int
}

// Service places orders and serves order detail reads.
type Service struct {
	repo     Repository
	tx       txRunner
	catalog  catalogReader
	outbox   outbox.Emitter
	idem     idempotencyManager
	metrics  *metrics.FulfillmentMetrics
	logg     *logger.Logger
	attempts int
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	attempts := params.PlacementAttempts
	if attempts < 1 {
		attempts = 1
	}
	return &Service{
		repo:     params.Repo,
		tx:       params.Tx,
		catalog:  params.Catalog,
		outbox:   params.Outbox,
		idem:     params.Idempotency,
		metrics:  params.Metrics,
		logg:     params.Logger,
		attempts: attempts,
	}, nil
}

// Place prices every item on both bases and persists the order with its
// snapshots in one transaction. user is the directory entry of actor.
func (s *Service) Place(ctx context.Context, actor users.Actor, user *models.User, input PlaceOrderInput) (order *models.Order, err error) {
	started := time.Now()
	defer func() {
		s.metrics.ObserveTransition("place_order", err)
		if err == nil {
			s.metrics.ObservePlacement(time.Since(started))
		}
	}()

	if err := actor.Require(enums.UserRoleClient, enums.UserRoleDistributor, enums.UserRoleAdmin); err != nil {
		return nil, err
	}
	if user == nil || user.ID != actor.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor does not match user")
	}
	if err := validators.Struct(input); err != nil {
		return nil, err
	}

	key := strings.TrimSpace(input.IdempotencyKey)
	if key != "" && s.idem != nil {
		var reservation idempotency.Reservation
		reservation, err = s.idem.Reserve(ctx, placeOrderScope, actor.UserID, key)
		if err != nil {
			return nil, err
		}
		if reservation.Replay {
			return s.load(ctx, reservation.OrderID)
		}
		defer func() {
			if err != nil || order == nil {
				if releaseErr := s.idem.Release(ctx, placeOrderScope, actor.UserID, key); releaseErr != nil {
					s.logError(ctx, "release idempotency key", releaseErr)
				}
				return
			}
			if completeErr := s.idem.Complete(ctx, placeOrderScope, actor.UserID, key, order.ID); completeErr != nil {
				s.logError(ctx, "complete idempotency key", completeErr)
			}
		}()
	}

	order, err = s.build(ctx, user, input)
	if err != nil {
		return nil, err
	}

	for attempt := 1; attempt <= s.attempts; attempt++ {
		err = s.persist(ctx, actor, order)
		if err == nil || !isOrderNumberConflict(err) {
			break
		}
		if s.logg != nil {
			s.logg.Warn(s.logg.WithField(ctx, "attempt", attempt), "order number taken, retrying placement")
		}
	}
	if err != nil {
		if isOrderNumberConflict(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeConflict, err, "could not allocate order number")
		}
		if pkgerrors.As(err) == nil {
			err = pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist order")
		}
		s.logError(ctx, "place order", err)
		return nil, err
	}

	if s.logg != nil {
		logCtx := s.logg.WithOrderID(ctx, order.ID.String())
		logCtx = s.logg.WithFields(logCtx, map[string]any{
			"order_number": order.OrderNumber,
			"item_count":   len(order.Items),
			"user_id":      actor.UserID.String(),
		})
		s.logg.Info(logCtx, "order.placed")
	}
	return order, nil
}

// build resolves catalog data and prices every requested item. All item
// problems are reported together.
func (s *Service) build(ctx context.Context, user *models.User, input PlaceOrderInput) (*models.Order, error) {
	ids := make([]uuid.UUID, 0, len(input.Items))
	for _, item := range input.Items {
		ids = append(ids, item.ProductID)
	}
	products, err := s.catalog.Products(ctx, dbtypes.UUIDArray(ids).Dedupe())
	if err != nil {
		return nil, err
	}
	lists, err := s.catalog.ResolvePriceLists(ctx, user)
	if err != nil {
		return nil, err
	}

	var errs error
	details := map[string]any{}
	items := make([]models.OrderItem, 0, len(input.Items))
	for i, line := range input.Items {
		product := products[line.ProductID]
		wholesale, wErr := pricing.ComputeItemPrice(product, line.SelectedOptionIDs, line.Quantity, lists.Wholesale)
		if wErr != nil {
			field := fmt.Sprintf("items[%d]", i)
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", field, wErr))
			details[field] = itemErrorDetail(wErr)
			continue
		}
		retail, rErr := pricing.ComputeItemPrice(product, line.SelectedOptionIDs, line.Quantity, lists.Retail)
		if rErr != nil {
			field := fmt.Sprintf("items[%d]", i)
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", field, rErr))
			details[field] = itemErrorDetail(rErr)
			continue
		}
		items = append(items, models.OrderItem{
			ProductID:           product.ID,
			Product:             product,
			Quantity:            line.Quantity,
			SelectedOptionIDs:   dbtypes.UUIDArray(line.SelectedOptionIDs).Dedupe(),
			ProductionStatus:    enums.ProductionStatusPending,
			DeliveryStatus:      enums.ItemDeliveryStatusReadyForDelivery,
			WholesaleUnitPrice:  wholesale.Unit,
			WholesaleTotalPrice: wholesale.Total,
			RetailUnitPrice:     retail.Unit,
			RetailTotalPrice:    retail.Total,
		})
	}
	if errs != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, errs, "invalid order items").WithDetails(details)
	}

	initial := pricing.InitialTotals(items)
	order := &models.Order{
		UserID:                user.ID,
		Notes:                 sanitizeOptional(input.Notes, notesMaxLen),
		AttachmentRef:         sanitizeOptional(input.AttachmentRef, attachmentRefMaxLen),
		InitialWholesaleTotal: initial.Wholesale,
		InitialRetailTotal:    initial.Retail,
		Items:                 items,
	}
	Refresh(order)
	return order, nil
}

func (s *Service) persist(ctx context.Context, actor users.Actor, order *models.Order) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		number, err := repo.NextOrderNumber(ctx)
		if err != nil {
			return err
		}
		order.OrderNumber = number
		if err := repo.CreateOrder(ctx, order); err != nil {
			return err
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderPlaced,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         actor.Ref(),
			Data: payloads.OrderPlacedEvent{
				OrderID:               order.ID,
				OrderNumber:           order.OrderNumber,
				UserID:                order.UserID,
				ItemCount:             len(order.Items),
				InitialWholesaleTotal: order.InitialWholesaleTotal,
				InitialRetailTotal:    order.InitialRetailTotal,
			},
		})
	})
}

// Detail returns the order as actor sees it. Owners, admins, chefs and the
// assigned driver may read an order.
func (s *Service) Detail(ctx context.Context, actor users.Actor, orderID uuid.UUID) (*OrderDetail, error) {
	if err := actor.Require(enums.UserRoleAdmin, enums.UserRoleClient, enums.UserRoleDistributor, enums.UserRoleChef, enums.UserRoleDriver); err != nil {
		return nil, err
	}
	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !canView(actor, order) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order not visible to actor")
	}
	return newOrderDetail(order, pricing.SelectPriceBasis(actor.Role)), nil
}

func (s *Service) load(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindOrder(ctx, id)
	if err != nil {
		return nil, MapLoadErr(err, "order")
	}
	return order, nil
}

func (s *Service) logError(ctx context.Context, msg string, err error) {
	if s.logg == nil {
		return
	}
	s.logg.Error(s.logg.WithFields(ctx, pkgerrors.Dump(err).Fields()), msg, err)
}

func canView(actor users.Actor, order *models.Order) bool {
	switch actor.Role {
	case enums.UserRoleAdmin, enums.UserRoleChef:
		return true
	case enums.UserRoleDriver:
		return order.DriverID != nil && *order.DriverID == actor.UserID
	default:
		return order.UserID == actor.UserID
	}
}

func isOrderNumberConflict(err error) bool {
	return db.IsUniqueViolation(err, orderNumberIndex) || db.IsUniqueViolation(err, orderNumberColumn)
}

func itemErrorDetail(err error) any {
	if typed := pkgerrors.As(err); typed != nil && typed.Details() != nil {
		return typed.Details()
	}
	return err.Error()
}

func sanitizeOptional(value *string, maxLen int) *string {
	if value == nil {
		return nil
	}
	cleaned := validators.SanitizeString(*value, maxLen)
	if cleaned == "" {
		return nil
	}
	return &cleaned
}

// MapLoadErr converts repository load failures into typed errors.
func MapLoadErr(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, what+" not found")
	}
	if pkgerrors.As(err) != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load "+what)
}
