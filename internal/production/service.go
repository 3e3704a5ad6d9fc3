// Package production records kitchen progress on order items.
package production

import (
	"context"
	"fmt"

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

// RecordInput is one production transition request.
type RecordInput struct {
	ItemID uuid.UUID `json:"item_id" validate:"required"`
	Action Action    `json:"action" validate:"required,oneof=complete cancel partial"`
	Amount int       `json:"amount,omitempty"`
	Notes  *string   `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

type ServiceParams struct {
	Repo    orders.Repository
	Tx      txRunner
	Outbox  outbox.Emitter
	Metrics *metrics.FulfillmentMetrics
	Logger  *logger.Logger
}

// Service is the production tracker.
type Service struct {
	repo    orders.Repository
	tx      txRunner
	outbox  outbox.Emitter
	metrics *metrics.FulfillmentMetrics
	logg    *logger.Logger
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
	return &Service{
		repo:    params.Repo,
		tx:      params.Tx,
		outbox:  params.Outbox,
		metrics: params.Metrics,
		logg:    params.Logger,
	}, nil
}

func (s *Service) MarkCompleted(ctx context.Context, actor users.Actor, itemID uuid.UUID, notes *string) (*models.OrderItem, error) {
	return s.Record(ctx, actor, RecordInput{ItemID: itemID, Action: ActionComplete, Notes: notes})
}

func (s *Service) MarkCancelled(ctx context.Context, actor users.Actor, itemID uuid.UUID, notes *string) (*models.OrderItem, error) {
	return s.Record(ctx, actor, RecordInput{ItemID: itemID, Action: ActionCancel, Notes: notes})
}

func (s *Service) RecordPartial(ctx context.Context, actor users.Actor, itemID uuid.UUID, amount int, notes *string) (*models.OrderItem, error) {
	return s.Record(ctx, actor, RecordInput{ItemID: itemID, Action: ActionPartial, Amount: amount, Notes: notes})
}

// Record applies one transition to an item and refreshes its order in the
// same transaction.
func (s *Service) Record(ctx context.Context, actor users.Actor, input RecordInput) (result *models.OrderItem, err error) {
	defer func() {
		s.metrics.ObserveTransition("production_"+string(input.Action), err)
	}()

	if err := actor.Require(enums.UserRoleChef, enums.UserRoleAdmin); err != nil {
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
		if order.IsCanceled() || order.DeliveryOutcome != nil {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order no longer accepts production updates").
				WithDetails(orders.StateDetails(order))
		}
		item := order.Item(input.ItemID)
		if item == nil {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order item not found")
		}
		if err := checkGroup(actor, item); err != nil {
			return err
		}

		if err := apply(item, input.Action, input.Amount); err != nil {
			return err
		}
		overwriteNotes(&item.ProductionNotes, input.Notes)
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
			EventType:     enums.EventItemProductionRecorded,
			AggregateType: enums.AggregateOrderItem,
			AggregateID:   item.ID,
			Actor:         actor.Ref(),
			Data: payloads.ItemProductionRecordedEvent{
				OrderID:          order.ID,
				ItemID:           item.ID,
				Action:           string(input.Action),
				ProductionStatus: item.ProductionStatus,
				ProducedQuantity: item.ProducedQuantity,
				Quantity:         item.Quantity,
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
		if pkgerrors.As(err) == nil {
			err = pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record production")
		}
		if pkgerrors.Is(err, pkgerrors.CodeDependency) && s.logg != nil {
			s.logg.Error(s.logg.WithFields(ctx, pkgerrors.Dump(err).Fields()), "record production", err)
		}
		return nil, err
	}

	if s.logg != nil {
		logCtx := s.logg.WithOrderID(ctx, order.ID.String())
		logCtx = s.logg.WithItemID(logCtx, result.ID.String())
		logCtx = s.logg.WithActorRole(logCtx, string(actor.Role))
		logCtx = s.logg.WithFields(logCtx, map[string]any{
			"action":            input.Action,
			"production_status": result.ProductionStatus,
			"produced_quantity": result.ProducedQuantity,
		})
		s.logg.Info(logCtx, "item.production.recorded")
	}
	return result, nil
}

// Queue lists open items of a product group. Chefs always see their own
// group; admins must name one.
func (s *Service) Queue(ctx context.Context, actor users.Actor, group *enums.ProductGroup, params pagination.Params) (pagination.Page[models.OrderItem], error) {
	if err := actor.Require(enums.UserRoleChef, enums.UserRoleAdmin); err != nil {
		return pagination.Page[models.OrderItem]{}, err
	}
	target, err := queueGroup(actor, group)
	if err != nil {
		return pagination.Page[models.OrderItem]{}, err
	}
	page, err := s.repo.ListProductionQueue(ctx, target, params)
	if err != nil {
		return pagination.Page[models.OrderItem]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list production queue")
	}
	return page, nil
}

func queueGroup(actor users.Actor, group *enums.ProductGroup) (enums.ProductGroup, error) {
	if actor.Role == enums.UserRoleChef {
		if actor.ProductGroup == nil {
			return "", pkgerrors.New(pkgerrors.CodeForbidden, "chef has no product group")
		}
		if group != nil && *group != *actor.ProductGroup {
			return "", pkgerrors.New(pkgerrors.CodeForbidden, "chefs only see their own product group")
		}
		return *actor.ProductGroup, nil
	}
	if group == nil || !group.IsValid() {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "product group required").
			WithDetails(map[string]string{"product_group": "is required"})
	}
	return *group, nil
}

func checkGroup(actor users.Actor, item *models.OrderItem) error {
	if actor.Role != enums.UserRoleChef || actor.ProductGroup == nil || item.Product == nil {
		return nil
	}
	if item.Product.ProductGroup != *actor.ProductGroup {
		return pkgerrors.New(pkgerrors.CodeForbidden, "item belongs to another product group").
			WithDetails(map[string]any{"product_group": item.Product.ProductGroup})
	}
	return nil
}

// overwriteNotes replaces *dst when notes is non-blank.
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
