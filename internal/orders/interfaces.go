package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/fulfillment-backend/pkg/db/models"
	"github.com/angelmondragon/fulfillment-backend/pkg/enums"
	"github.com/angelmondragon/fulfillment-backend/pkg/pagination"
)

// Repository defines persistence operations for the order aggregate. Loaded
// orders always carry their items in placement order with products attached.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	NextOrderNumber(ctx context.Context) (int64, error)
	CreateOrder(ctx context.Context, order *models.Order) error
	FindOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
	// FindOrderForUpdate loads the order and holds its row lock until the
	// surrounding transaction ends. Every item mutation goes through it.
	FindOrderForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error)
	FindOrderItem(ctx context.Context, id uuid.UUID) (*models.OrderItem, error)
	UpdateOrder(ctx context.Context, order *models.Order) error
	UpdateItem(ctx context.Context, item *models.OrderItem) error
	// ClaimOrder assigns driverID only if the order is still unclaimed, ready
	// and not cancelled. It reports whether this call won the claim.
	ClaimOrder(ctx context.Context, orderID, driverID uuid.UUID, at time.Time) (bool, error)
	ListPool(ctx context.Context, params pagination.Params) (pagination.Page[models.Order], error)
	ListDriverOrders(ctx context.Context, driverID uuid.UUID, params pagination.Params) (pagination.Page[models.Order], error)
	ListProductionQueue(ctx context.Context, group enums.ProductGroup, params pagination.Params) (pagination.Page[models.OrderItem], error)
}
