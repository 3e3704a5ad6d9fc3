// Package cancellation lets admins cancel orders that have not started
// delivery.
package cancellation

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

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
)

const (
	defaultReasonMinLength = 5
	reasonMaxLength        = 2000
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type ServiceParams struct {
	Repo            orders.Repository
	Tx              txRunner
	Outbox          outbox.Emitter
	Metrics         *metrics.FulfillmentMetrics
	Logger          *logger.Logger
	ReasonMinLength int
	Now             func() time.Time
}

type Service struct {
	repo      orders.Repository
	tx        txRunner
	outbox    outbox.Emitter
	metrics   *metrics.FulfillmentMetrics
	logg      *logger.Logger
	minReason int
	now       func() time.Time
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
	minReason := params.ReasonMinLength
	if minReason <= 0 {
		minReason = defaultReasonMinLength
	}
	now := params.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Service{
		repo:      params.Repo,
		tx:        params.Tx,
		outbox:    params.Outbox,
		metrics:   params.Metrics,
		logg:      params.Logger,
		minReason: minReason,
		now:       now,
	}, nil
}

// Cancel marks the order cancelled. Only unclaimed orders that are PENDING or
// READY_FOR_DELIVERY qualify; items keep their last state.
func (s *Service) Cancel(ctx context.Context, actor users.Actor, orderID uuid.UUID, reason string) (order *models.Order, err error) {
	defer func() { s.metrics.ObserveTransition("cancel_order", err) }()

	if err := actor.Require(enums.UserRoleAdmin); err != nil {
		return nil, err
	}
	reason, err = s.normalizeReason(reason)
	if err != nil {
		return nil, err
	}

	var previous enums.OrderDeliveryStatus
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		var err error
		order, err = repo.FindOrderForUpdate(ctx, orderID)
		if err != nil {
			return orders.MapLoadErr(err, "order")
		}
		if err := checkEligible(order); err != nil {
			return err
		}

		previous = order.DeliveryStatus
		at := s.now()
		canceledBy := actor.UserID
		order.CanceledAt = &at
		order.CanceledBy = &canceledBy
		order.DeliveryNotes = &reason
		change := orders.Refresh(order)

		if err := repo.UpdateOrder(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order")
		}
		if err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCanceled,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Actor:         actor.Ref(),
			Data: payloads.OrderCanceledEvent{
				OrderID:        order.ID,
				CanceledBy:     canceledBy,
				CanceledAt:     at,
				PreviousStatus: previous,
				Reason:         reason,
			},
		}); err != nil {
			return err
		}
		return orders.EmitStatusChange(ctx, s.outbox, tx, order, change, actor.Ref())
	})
	if err != nil {
		if pkgerrors.As(err) == nil {
			err = pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order")
		}
		if pkgerrors.Is(err, pkgerrors.CodeDependency) && s.logg != nil {
			s.logg.Error(s.logg.WithFields(ctx, pkgerrors.Dump(err).Fields()), "cancel order", err)
		}
		return nil, err
	}

	if s.logg != nil {
		logCtx := s.logg.WithOrderID(ctx, order.ID.String())
		logCtx = s.logg.WithUserID(logCtx, actor.UserID.String())
		logCtx = s.logg.WithField(logCtx, "previous_status", previous)
		s.logg.Info(logCtx, "order.canceled")
	}
	return order, nil
}

func (s *Service) normalizeReason(reason string) (string, error) {
	trimmed := strings.TrimSpace(reason)
	if utf8.RuneCountInString(trimmed) < s.minReason {
		return "", pkgerrors.Newf(pkgerrors.CodeValidation, "reason must be at least %d characters", s.minReason).
			WithDetails(map[string]string{"reason": fmt.Sprintf("min %d characters", s.minReason)})
	}
	if utf8.RuneCountInString(trimmed) > reasonMaxLength {
		return "", pkgerrors.Newf(pkgerrors.CodeValidation, "reason must be at most %d characters", reasonMaxLength).
			WithDetails(map[string]string{"reason": fmt.Sprintf("max %d characters", reasonMaxLength)})
	}
	return trimmed, nil
}

func checkEligible(order *models.Order) error {
	switch {
	case order.IsCanceled():
		return ineligible(order, "order is already cancelled")
	case !order.DeliveryStatus.IsCancellable():
		return ineligible(order, fmt.Sprintf("orders in %s cannot be cancelled", order.DeliveryStatus))
	case order.IsClaimed():
		return ineligible(order, "order has been claimed by a driver")
	}
	return nil
}

func ineligible(order *models.Order, message string) error {
	return pkgerrors.New(pkgerrors.CodeStateConflict, message).WithDetails(orders.StateDetails(order))
}
