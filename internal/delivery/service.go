// Package delivery implements the driver side of fulfillment: the pool,
// exclusive claims, per-item deliveries and whole-order outcomes.
package delivery

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/fulfillment-backend/internal/orders"
	"github.com/angelmondragon/fulfillment-backend/internal/users"
	"github.com/angelmondragon/fulfillment-backend/pkg/db/models"
	"github.com/angelmondragon/fulfillment-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/fulfillment-backend/pkg/errors"
	"github.com/angelmondragon/fulfillment-backend/pkg/logger"
	"github.com/angelmondragon/fulfillment-backend/pkg/metrics"
	"github.com/angelmondragon/fulfillment-backend/pkg/outbox"
	"github.com/angelmondragon/fulfillment-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/fulfillment-backend/pkg/pagination"
	"github.com/angelmondragon/fulfillment-backend/pkg/validators"
)

const notesMaxLen = 2000

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// RecordInput is one delivery request against an item. For ActionOutcome the
// item only identifies its order.
type RecordInput struct {
	ItemID  uuid.UUID             `json:"item_id" validate:"required"`
	Action  Action                `json:"action" validate:"required,oneof=outcome partial cannot_deliver"`
	Outcome enums.DeliveryOutcome `json:"outcome,omitempty" validate:"required_if=Action outcome"`
	Amount  int                   `json:"amount,omitempty"`
	Notes   *string               `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

type ServiceParams struct {
	Repo    orders.Repository
	Tx      txRunner
	Outbox  outbox.Emitter
	Metrics *metrics.FulfillmentMetrics
	Logger  *logger.Logger
	// EnforceDeliveredWithinProduced caps deliveries at the produced quantity.
	EnforceDeliveredWithinProduced bool
	Now                            func() time.Time
}

type Service struct {
	repo           orders.Repository
	tx             txRunner
	outbox         outbox.Emitter
	metrics        *metrics.FulfillmentMetrics
	logg           *logger.Logger
	withinProduced bool
	now            func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Service{
		repo:           params.Repo,
		tx:             params.Tx,
		outbox:         params.Outbox,
		metrics:        params.Metrics,
		logg:           params.Logger,
		withinProduced: params.EnforceDeliveredWithinProduced,
		now:            now,
	}, nil
}

// Claim assigns the order to the calling driver. Exactly one of any number of
// concurrent claims succeeds; the rest get CodeStateConflict.
func (s *Service) Claim(ctx context.Context, actor users.Actor, orderID uuid.UUID) (order *models.Order, err error) {
	defer func() { s.metrics.ObserveTransition("claim_order", err) }()

	if err := actor.Require(enums.UserRoleDriver); err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		var err error
		order, err = repo.FindOrderForUpdate(ctx, orderID)
		if err != nil {
			return orders.MapLoadErr(err, "order")
		}
		if order.IsClaimed() {
			s.metrics.IncClaimConflict()
			return claimConflict(order, "order already claimed")
		}
		if order.IsCanceled() || order.DeliveryStatus != enums.OrderDeliveryStatusReadyForDelivery {
			return claimConflict(order, "order is not ready for delivery")
		}

		at := s.now()
		ok, err := repo.ClaimOrder(ctx, orderID, actor.UserID, at)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim order")
		}
		if !ok {
			s.metrics.IncClaimConflict()
			return claimConflict(order, "order already claimed")
		}
		driverID := actor.UserID
		order.DriverID = &driverID
		order.ClaimedAt = &at

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderClaimed,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         actor.Ref(),
			Data: payloads.OrderClaimedEvent{
				OrderID:   order.ID,
				DriverID:  driverID,
				ClaimedAt: at,
			},
		})
	})
	if err != nil {
		return nil, s.fail(ctx, "claim order", err)
	}

	if s.logg != nil {
		logCtx := s.logg.WithOrderID(ctx, order.ID.String())
		logCtx = s.logg.WithUserID(logCtx, actor.UserID.String())
		s.logg.Info(logCtx, "order.claimed")
	}
	return order, nil
}

// SetDeliveryOutcome records a whole-order result without touching the items.
func (s *Service) SetDeliveryOutcome(ctx context.Context, actor users.Actor, orderID uuid.UUID, outcome enums.DeliveryOutcome, notes *string) (order *models.Order, err error) {
	defer func() { s.metrics.ObserveTransition(ActionOutcome.operation(), err) }()

	if err := actor.Require(enums.UserRoleDriver, enums.UserRoleAdmin); err != nil {
		return nil, err
	}
	if !outcome.IsValid() {
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "unknown delivery outcome %q", outcome).
			WithDetails(map[string]string{"outcome": "must be DELIVERED or FAILED"})
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		var err error
		order, err = repo.FindOrderForUpdate(ctx, orderID)
		if err != nil {
			return orders.MapLoadErr(err, "order")
		}
		if err := checkDeliverable(order); err != nil {
			return err
		}
		if err := checkClaimant(actor, order); err != nil {
			return err
		}
		if order.DeliveryStatus != enums.OrderDeliveryStatusReadyForDelivery &&
			order.DeliveryStatus != enums.OrderDeliveryStatusPartiallyDelivered {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order is not out for delivery").
				WithDetails(orders.StateDetails(order))
		}

		at := s.now()
		recorded := outcome
		order.DeliveryOutcome = &recorded
		order.DeliveredAt = &at
		overwriteNotes(&order.DeliveryNotes, notes)
		change := orders.Refresh(order)

		if err := repo.UpdateOrder(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order")
		}
		var recordedNotes string
		if order.DeliveryNotes != nil {
			recordedNotes = *order.DeliveryNotes
		}
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderDeliveryOutcomeRecorded,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         actor.Ref(),
			Data: payloads.OrderDeliveryOutcomeEvent{
				OrderID:     order.ID,
				DriverID:    *order.DriverID,
				Outcome:     outcome,
				DeliveredAt: at,
				Notes:       recordedNotes,
			},
		}); err != nil {
			return err
		}
		return orders.EmitStatusChange(ctx, s.outbox, tx, order, change, actor.Ref())
	})
	if err != nil {
		return nil, s.fail(ctx, "set delivery outcome", err)
	}

	if s.logg != nil {
		logCtx := s.logg.WithOrderID(ctx, order.ID.String())
		logCtx = s.logg.WithActorRole(logCtx, string(actor.Role))
		logCtx = s.logg.WithFields(logCtx, map[string]any{
			"outcome":         outcome,
			"delivery_status": order.DeliveryStatus,
		})
		s.logg.Info(logCtx, "order.delivery_outcome.recorded")
	}
	return order, nil
}

func (s *Service) DeliverPartial(ctx context.Context, actor users.Actor, itemID uuid.UUID, amount int, notes *string) (*models.OrderItem, error) {
	return s.Record(ctx, actor, RecordInput{ItemID: itemID, Action: ActionPartial, Amount: amount, Notes: notes})
}

func (s *Service) MarkItemUndeliverable(ctx context.Context, actor users.Actor, itemID uuid.UUID, notes *string) (*models.OrderItem, error) {
	return s.Record(ctx, actor, RecordInput{ItemID: itemID, Action: ActionCannotDeliver, Notes: notes})
}

// Record dispatches a delivery request. Whole-order outcomes resolve the
// item's order and return the item as it stands afterwards.
func (s *Service) Record(ctx context.Context, actor users.Actor, input RecordInput) (*models.OrderItem, error) {
	if input.Action != ActionOutcome {
		return s.recordItem(ctx, actor, input)
	}
	if err := validators.Struct(input); err != nil {
		return nil, err
	}
	ref, err := s.repo.FindOrderItem(ctx, input.ItemID)
	if err != nil {
		return nil, orders.MapLoadErr(err, "order item")
	}
	order, err := s.SetDeliveryOutcome(ctx, actor, ref.OrderID, input.Outcome, input.Notes)
	if err != nil {
		return nil, err
	}
	item := order.Item(input.ItemID)
	if item == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order item not found")
	}
	copied := *item
	return &copied, nil
}

func (s *Service) recordItem(ctx context.Context, actor users.Actor, input RecordInput) (result *models.OrderItem, err error) {
	defer func() { s.metrics.ObserveTransition(input.Action.operation(), err) }()

	if err := actor.Require(enums.UserRoleDriver, enums.UserRoleAdmin); err != nil {
		return nil, err
	}
	if err := validators.Struct(input); err != nil {
		return nil, err
	}

	var order *models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		ref, err := repo.FindOrderItem(ctx, input.ItemID)
		if err != nil {
			return orders.MapLoadErr(err, "order item")
		}
		order, err = repo.FindOrderForUpdate(ctx, ref.OrderID)
		if err != nil {
			return orders.MapLoadErr(err, "order")
		}
		if err := checkDeliverable(order); err != nil {
			return err
		}
		if err := checkClaimant(actor, order); err != nil {
			return err
		}
		item := order.Item(input.ItemID)
		if item == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order item not found")
		}

		if input.Action == ActionPartial {
			err = deliverPartial(item, input.Amount, s.withinProduced)
		} else {
			err = markUndeliverable(item)
		}
		if err != nil {
			return err
		}
		overwriteNotes(&item.DeliveryNotes, input.Notes)
		if err := orders.CheckItem(item); err != nil {
			return err
		}
		change := orders.Refresh(order)

		if err := repo.UpdateItem(ctx, item); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order item")
		}
		if err := repo.UpdateOrder(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order")
		}
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventItemDeliveryRecorded,
			AggregateType: enums.AggregateOrderItem,
			AggregateID:   item.ID,
			Actor:         actor.Ref(),
			Data: payloads.ItemDeliveryRecordedEvent{
				OrderID:           order.ID,
				ItemID:            item.ID,
				Action:            string(input.Action),
				DeliveryStatus:    item.DeliveryStatus,
				DeliveredQuantity: item.DeliveredQuantity,
				Quantity:          item.Quantity,
			},
		}); err != nil {
			return err
		}
		if err := orders.EmitStatusChange(ctx, s.outbox, tx, order, change, actor.Ref()); err != nil {
			return err
		}

		copied := *item
		result = &copied
		return nil
	})
	if err != nil {
		return nil, s.fail(ctx, "record delivery", err)
	}

	if s.logg != nil {
		logCtx := s.logg.WithOrderID(ctx, order.ID.String())
		logCtx = s.logg.WithItemID(logCtx, result.ID.String())
		logCtx = s.logg.WithActorRole(logCtx, string(actor.Role))
		logCtx = s.logg.WithFields(logCtx, map[string]any{
			"action":             input.Action,
			"delivery_status":    result.DeliveryStatus,
			"delivered_quantity": result.DeliveredQuantity,
			"order_status":       order.DeliveryStatus,
		})
		s.logg.Info(logCtx, "item.delivery.recorded")
	}
	return result, nil
}

// Pool lists unclaimed orders ready for delivery, oldest first.
func (s *Service) Pool(ctx context.Context, actor users.Actor, params pagination.Params) (pagination.Page[models.Order], error) {
	if err := actor.Require(enums.UserRoleDriver, enums.UserRoleAdmin); err != nil {
		return pagination.Page[models.Order]{}, err
	}
	page, err := s.repo.ListPool(ctx, params)
	if err != nil {
		return pagination.Page[models.Order]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list delivery pool")
	}
	return page, nil
}

// DriverOrders lists the orders claimed by driverID, newest first. Drivers
// only see their own.
func (s *Service) DriverOrders(ctx context.Context, actor users.Actor, driverID uuid.UUID, params pagination.Params) (pagination.Page[models.Order], error) {
	if err := actor.Require(enums.UserRoleDriver, enums.UserRoleAdmin); err != nil {
		return pagination.Page[models.Order]{}, err
	}
	if !actor.IsAdmin() && driverID != actor.UserID {
		return pagination.Page[models.Order]{}, pkgerrors.New(pkgerrors.CodeForbidden, "drivers only see their own deliveries")
	}
	page, err := s.repo.ListDriverOrders(ctx, driverID, params)
	if err != nil {
		return pagination.Page[models.Order]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list driver orders")
	}
	return page, nil
}

func (s *Service) fail(ctx context.Context, msg string, err error) error {
	if pkgerrors.As(err) == nil {
		err = pkgerrors.Wrap(pkgerrors.CodeDependency, err, msg)
	}
	if pkgerrors.Is(err, pkgerrors.CodeDependency) && s.logg != nil {
		s.logg.Error(s.logg.WithFields(ctx, pkgerrors.Dump(err).Fields()), msg, err)
	}
	return err
}

func claimConflict(order *models.Order, message string) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, message).WithDetails(orders.StateDetails(order))
}

func checkClaimant(actor users.Actor, order *models.Order) error {
	if actor.IsAdmin() {
		return nil
	}
	if order.DriverID == nil || *order.DriverID != actor.UserID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "order is claimed by another driver")
	}
	return nil
}

func overwriteNotes(dst **string, notes *string) {
	if notes == nil {
		return
	}
	cleaned := validators.SanitizeString(*notes, notesMaxLen)
	if cleaned == "" {
		return
	}
	*dst = &cleaned
}
