package idempotency

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/fulfillment-backend/pkg/errors"
	"github.com/angelmondragon/fulfillment-backend/pkg/redis"
)

const pendingMarker = "pending"

// Manager reserves client supplied idempotency keys so a retried placement
// returns the order created by the first attempt.
// Keys follow the `ff:idempotency:<scope>:<user_id>:<key>` pattern.
type Manager struct {
	store redis.IdempotencyStore
	ttl   time.Duration
}

// Reservation is the outcome of Reserve. A zero OrderID with Replay false
// means the caller owns the key and must Complete or Release it.
type Reservation struct {
	OrderID uuid.UUID
	Replay  bool
}

func NewManager(store redis.IdempotencyStore, ttl time.Duration) (*Manager, error) {
	if store == nil {
		return nil, errors.New("idempotency store is required")
	}
	if ttl < 0 {
		return nil, errors.New("ttl must be non-negative")
	}
	return &Manager{store: store, ttl: ttl}, nil
}

// Reserve claims key for the scope and user. A key already holding an order
// id yields a replay; a key still pending yields an idempotency error.
func (m *Manager) Reserve(ctx context.Context, scope string, userID uuid.UUID, key string) (Reservation, error) {
	storeKey, err := m.storeKey(scope, userID, key)
	if err != nil {
		return Reservation{}, err
	}

	for attempt := 0; attempt < 2; attempt++ {
		set, err := m.store.SetNX(ctx, storeKey, pendingMarker, m.ttl)
		if err != nil {
			return Reservation{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve idempotency key")
		}
		if set {
			return Reservation{}, nil
		}

		value, err := m.store.Get(ctx, storeKey)
		if err != nil {
			if redis.IsNil(err) {
				continue
			}
			return Reservation{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read idempotency key")
		}
		if value == pendingMarker {
			return Reservation{}, pkgerrors.New(pkgerrors.CodeIdempotency, "request with this idempotency key is in progress")
		}
		orderID, err := uuid.Parse(value)
		if err != nil {
			return Reservation{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "corrupt idempotency record")
		}
		return Reservation{OrderID: orderID, Replay: true}, nil
	}
	return Reservation{}, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key contended")
}

// Complete records the created order id under the key.
func (m *Manager) Complete(ctx context.Context, scope string, userID uuid.UUID, key string, orderID uuid.UUID) error {
	storeKey, err := m.storeKey(scope, userID, key)
	if err != nil {
		return err
	}
	if orderID == uuid.Nil {
		return errors.New("order id is required")
	}
	return m.store.Set(ctx, storeKey, orderID.String(), m.ttl)
}

// Release drops a pending reservation so the client can retry.
func (m *Manager) Release(ctx context.Context, scope string, userID uuid.UUID, key string) error {
	storeKey, err := m.storeKey(scope, userID, key)
	if err != nil {
		return err
	}
	return m.store.Del(ctx, storeKey)
}

func (m *Manager) storeKey(scope string, userID uuid.UUID, key string) (string, error) {
	if scope == "" {
		return "", errors.New("scope is required")
	}
	if userID == uuid.Nil {
		return "", errors.New("user id is required")
	}
	trimmed := strings.TrimSpace(key)
	if trimmed == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "idempotency key is required")
	}
	return m.store.IdempotencyKey(fmt.Sprintf("%s:%s", scope, userID), trimmed), nil
}
