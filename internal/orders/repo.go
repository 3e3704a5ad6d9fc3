package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/fulfillment-backend/pkg/db/models"
	"github.com/angelmondragon/fulfillment-backend/pkg/enums"
	"github.com/angelmondragon/fulfillment-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) NextOrderNumber(ctx context.Context) (int64, error) {
	var next int64
	err := r.db.WithContext(ctx).
		Raw("SELECT COALESCE(MAX(order_number), 0) + 1 FROM orders").
		Scan(&next).Error
	return next, err
}

func (r *repository) CreateOrder(ctx context.Context, order *models.Order) error {
	now := time.Now().UTC()
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	for i := range order.Items {
		item := &order.Items[i]
		if item.ID == uuid.Nil {
			item.ID = uuid.New()
		}
		item.OrderID = order.ID
		if item.CreatedAt.IsZero() {
			// keeps placement order stable when items are read back
			item.CreatedAt = order.CreatedAt.Add(time.Duration(i) * time.Microsecond)
		}
	}

	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(order).Error; err != nil {
		return err
	}
	if len(order.Items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(&order.Items).Error
}

func (r *repository) FindOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := withItems(r.db.WithContext(ctx)).
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindOrderForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := withItems(r.db.WithContext(ctx)).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindOrderItem(ctx context.Context, id uuid.UUID) (*models.OrderItem, error) {
	var item models.OrderItem
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) UpdateOrder(ctx context.Context, order *models.Order) error {
	order.UpdatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", order.ID).
		Updates(map[string]any{
			"delivery_status":       order.DeliveryStatus,
			"production_status":     order.ProductionStatus,
			"final_wholesale_total": order.FinalWholesaleTotal,
			"final_retail_total":    order.FinalRetailTotal,
			"driver_id":             order.DriverID,
			"claimed_at":            order.ClaimedAt,
			"delivery_outcome":      order.DeliveryOutcome,
			"delivered_at":          order.DeliveredAt,
			"delivery_notes":        order.DeliveryNotes,
			"canceled_at":           order.CanceledAt,
			"canceled_by":           order.CanceledBy,
			"updated_at":            order.UpdatedAt,
		}).Error
}

func (r *repository) UpdateItem(ctx context.Context, item *models.OrderItem) error {
	item.UpdatedAt = time.Now().UTC()
	return r.db.WithContext(ctx).
		Model(&models.OrderItem{}).
		Where("id = ?", item.ID).
		Updates(map[string]any{
			"production_status":  item.ProductionStatus,
			"produced_quantity":  item.ProducedQuantity,
			"production_notes":   item.ProductionNotes,
			"delivery_status":    item.DeliveryStatus,
			"delivered_quantity": item.DeliveredQuantity,
			"delivery_notes":     item.DeliveryNotes,
			"updated_at":         item.UpdatedAt,
		}).Error
}

func (r *repository) ClaimOrder(ctx context.Context, orderID, driverID uuid.UUID, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ? AND driver_id IS NULL AND delivery_status = ? AND canceled_at IS NULL",
			orderID, enums.OrderDeliveryStatusReadyForDelivery).
		Updates(map[string]any{
			"driver_id":  driverID,
			"claimed_at": at,
			"updated_at": at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ListPool returns unclaimed ready orders, oldest first.
func (r *repository) ListPool(ctx context.Context, params pagination.Params) (pagination.Page[models.Order], error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return pagination.Page[models.Order]{}, err
	}
	query := withItems(r.db.WithContext(ctx)).
		Where("delivery_status = ? AND driver_id IS NULL AND canceled_at IS NULL", enums.OrderDeliveryStatusReadyForDelivery)
	if cursor != nil {
		query = query.Where("(created_at > ?) OR (created_at = ? AND id > ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Order
	err = query.Order("created_at ASC").Order("id ASC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error
	if err != nil {
		return pagination.Page[models.Order]{}, err
	}
	return pagination.Trim(rows, params.Limit, orderCursor), nil
}

// ListDriverOrders returns the orders claimed by driverID, newest first.
func (r *repository) ListDriverOrders(ctx context.Context, driverID uuid.UUID, params pagination.Params) (pagination.Page[models.Order], error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return pagination.Page[models.Order]{}, err
	}
	query := withItems(r.db.WithContext(ctx)).Where("driver_id = ?", driverID)
	if cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Order
	err = query.Order("created_at DESC").Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error
	if err != nil {
		return pagination.Page[models.Order]{}, err
	}
	return pagination.Trim(rows, params.Limit, orderCursor), nil
}

// ListProductionQueue returns open items of group on live orders, oldest first.
func (r *repository) ListProductionQueue(ctx context.Context, group enums.ProductGroup, params pagination.Params) (pagination.Page[models.OrderItem], error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return pagination.Page[models.OrderItem]{}, err
	}
	query := r.db.WithContext(ctx).
		Model(&models.OrderItem{}).
		Select("order_items.*").
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Joins("JOIN products ON products.id = order_items.product_id").
		Where("order_items.production_status IN ?", []enums.ProductionStatus{
			enums.ProductionStatusPending,
			enums.ProductionStatusPartiallyCompleted,
		}).
		Where("orders.canceled_at IS NULL").
		Where("products.product_group = ?", group).
		Preload("Product")
	if cursor != nil {
		query = query.Where("(order_items.created_at > ?) OR (order_items.created_at = ? AND order_items.id > ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var rows []models.OrderItem
	err = query.Order("order_items.created_at ASC").Order("order_items.id ASC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error
	if err != nil {
		return pagination.Page[models.OrderItem]{}, err
	}
	return pagination.Trim(rows, params.Limit, itemCursor), nil
}

func withItems(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Items", func(tx *gorm.DB) *gorm.DB {
			return tx.Order("order_items.created_at ASC").Order("order_items.id ASC")
		}).
		Preload("Items.Product")
}

func orderCursor(order models.Order) pagination.Cursor {
	return pagination.Cursor{CreatedAt: order.CreatedAt, ID: order.ID}
}

func itemCursor(item models.OrderItem) pagination.Cursor {
	return pagination.Cursor{CreatedAt: item.CreatedAt, ID: item.ID}
}
