// Package ordertest provides an in-memory orders.Repository for service
// tests. Transactions run one at a time and roll back on error, events
// included.
package ordertest

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/fulfillment-backend/internal/orders"
	"github.com/angelmondragon/fulfillment-backend/pkg/db/models"
	"github.com/angelmondragon/fulfillment-backend/pkg/enums"
	"github.com/angelmondragon/fulfillment-backend/pkg/outbox"
	"github.com/angelmondragon/fulfillment-backend/pkg/pagination"
)

// Store holds orders, products and emitted events in memory.
type Store struct {
	txMu sync.Mutex

	mu       sync.Mutex
	orders   map[uuid.UUID]*models.Order
	items    map[uuid.UUID]uuid.UUID
	products map[uuid.UUID]*models.Product
	events   []outbox.DomainEvent
	seq      int64
}

type snapshot struct {
	orders map[uuid.UUID]*models.Order
	items  map[uuid.UUID]uuid.UUID
	events []outbox.DomainEvent
	seq    int64
}

func New() *Store {
	return &Store{
		orders:   map[uuid.UUID]*models.Order{},
		items:    map[uuid.UUID]uuid.UUID{},
		products: map[uuid.UUID]*models.Product{},
	}
}

// TxRunner runs fn serialized against the store and restores the previous
// state when fn fails.
type TxRunner struct {
	store *Store
}

func (s *Store) TxRunner() *TxRunner {
	return &TxRunner{store: s}
}

func (r *TxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	r.store.txMu.Lock()
	defer r.store.txMu.Unlock()

	snap := r.store.snapshot()
	if err := fn(nil); err != nil {
		r.store.restore(snap)
		return err
	}
	return nil
}

// Emit records event; it satisfies outbox.Emitter.
func (s *Store) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

// Events returns the committed events in emission order.
func (s *Store) Events() []outbox.DomainEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]outbox.DomainEvent(nil), s.events...)
}

// EventTypes returns the types of Events.
func (s *Store) EventTypes() []enums.OutboxEventType {
	events := s.Events()
	out := make([]enums.OutboxEventType, 0, len(events))
	for _, e := range events {
		out = append(out, e.EventType)
	}
	return out
}

// AddProduct registers a product so items referencing it get it attached.
func (s *Store) AddProduct(product *models.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[product.ID] = product
}

// Seed stores order as is, assigning ids, numbers and timestamps where
// missing, and returns a copy of what was stored.
func (s *Store) Seed(order *models.Order) *models.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := cloneOrder(order)
	s.insert(stored)
	return cloneOrder(s.orders[stored.ID])
}

// Order returns a copy of the stored order, or nil.
func (s *Store) Order(id uuid.UUID) *models.Order {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneOrder(s.orders[id])
}

func (s *Store) WithTx(tx *gorm.DB) orders.Repository {
	return s
}

func (s *Store) NextOrderNumber(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq + 1, nil
}

func (s *Store) CreateOrder(ctx context.Context, order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insert(order)
	return nil
}

func (s *Store) FindOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return cloneOrder(order), nil
}

func (s *Store) FindOrderForUpdate(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return s.FindOrder(ctx, id)
}

func (s *Store) FindOrderItem(ctx context.Context, id uuid.UUID) (*models.OrderItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	orderID, ok := s.items[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	item := *s.orders[orderID].Item(id)
	return &item, nil
}

func (s *Store) UpdateOrder(ctx context.Context, order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored, ok := s.orders[order.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	items := stored.Items
	updated := *order
	updated.Items = items
	updated.UpdatedAt = time.Now().UTC()
	s.orders[order.ID] = &updated
	return nil
}

func (s *Store) UpdateItem(ctx context.Context, item *models.OrderItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	orderID, ok := s.items[item.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored := s.orders[orderID].Item(item.ID)
	stored.ProductionStatus = item.ProductionStatus
	stored.ProducedQuantity = item.ProducedQuantity
	stored.ProductionNotes = item.ProductionNotes
	stored.DeliveryStatus = item.DeliveryStatus
	stored.DeliveredQuantity = item.DeliveredQuantity
	stored.DeliveryNotes = item.DeliveryNotes
	stored.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *Store) ClaimOrder(ctx context.Context, orderID, driverID uuid.UUID, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.orders[orderID]
	if !ok || order.DriverID != nil || order.CanceledAt != nil ||
		order.DeliveryStatus != enums.OrderDeliveryStatusReadyForDelivery {
		return false, nil
	}
	driver := driverID
	claimedAt := at
	order.DriverID = &driver
	order.ClaimedAt = &claimedAt
	return true, nil
}

func (s *Store) ListPool(ctx context.Context, params pagination.Params) (pagination.Page[models.Order], error) {
	return s.listOrders(params, true, func(o *models.Order) bool {
		return o.DeliveryStatus == enums.OrderDeliveryStatusReadyForDelivery && o.DriverID == nil && o.CanceledAt == nil
	})
}

func (s *Store) ListDriverOrders(ctx context.Context, driverID uuid.UUID, params pagination.Params) (pagination.Page[models.Order], error) {
	return s.listOrders(params, false, func(o *models.Order) bool {
		return o.DriverID != nil && *o.DriverID == driverID
	})
}

func (s *Store) ListProductionQueue(ctx context.Context, group enums.ProductGroup, params pagination.Params) (pagination.Page[models.OrderItem], error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return pagination.Page[models.OrderItem]{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var rows []models.OrderItem
	for _, order := range s.orders {
		if order.CanceledAt != nil {
			continue
		}
		for _, item := range order.Items {
			if item.ProductionStatus.IsTerminal() || item.Product == nil || item.Product.ProductGroup != group {
				continue
			}
			rows = append(rows, item)
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		return before(rows[i].CreatedAt, rows[i].ID, rows[j].CreatedAt, rows[j].ID)
	})
	if cursor != nil {
		rows = dropUntil(rows, func(it models.OrderItem) bool {
			return before(cursor.CreatedAt, cursor.ID, it.CreatedAt, it.ID)
		})
	}
	return pagination.Trim(rows, params.Limit, func(it models.OrderItem) pagination.Cursor {
		return pagination.Cursor{CreatedAt: it.CreatedAt, ID: it.ID}
	}), nil
}

func (s *Store) listOrders(params pagination.Params, ascending bool, keep func(*models.Order) bool) (pagination.Page[models.Order], error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return pagination.Page[models.Order]{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var rows []models.Order
	for _, order := range s.orders {
		if keep(order) {
			rows = append(rows, *cloneOrder(order))
		}
	}
	less := func(a, b models.Order) bool {
		if ascending {
			return before(a.CreatedAt, a.ID, b.CreatedAt, b.ID)
		}
		return before(b.CreatedAt, b.ID, a.CreatedAt, a.ID)
	}
	sort.Slice(rows, func(i, j int) bool { return less(rows[i], rows[j]) })
	if cursor != nil {
		mark := models.Order{ID: cursor.ID, CreatedAt: cursor.CreatedAt}
		rows = dropUntil(rows, func(o models.Order) bool { return less(mark, o) })
	}
	return pagination.Trim(rows, params.Limit, func(o models.Order) pagination.Cursor {
		return pagination.Cursor{CreatedAt: o.CreatedAt, ID: o.ID}
	}), nil
}

func (s *Store) insert(order *models.Order) {
	now := time.Now().UTC()
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	if order.OrderNumber == 0 {
		order.OrderNumber = s.seq + 1
	}
	if order.OrderNumber > s.seq {
		s.seq = order.OrderNumber
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
			item.CreatedAt = order.CreatedAt.Add(time.Duration(i) * time.Microsecond)
		}
		if item.Product == nil {
			item.Product = s.products[item.ProductID]
		}
		s.items[item.ID] = order.ID
	}
	s.orders[order.ID] = cloneOrder(order)
}

func (s *Store) snapshot() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := snapshot{
		orders: make(map[uuid.UUID]*models.Order, len(s.orders)),
		items:  make(map[uuid.UUID]uuid.UUID, len(s.items)),
		events: append([]outbox.DomainEvent(nil), s.events...),
		seq:    s.seq,
	}
	for id, order := range s.orders {
		snap.orders[id] = cloneOrder(order)
	}
	for id, orderID := range s.items {
		snap.items[id] = orderID
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.orders = snap.orders
	s.items = snap.items
	s.events = snap.events
	s.seq = snap.seq
}

func cloneOrder(order *models.Order) *models.Order {
	if order == nil {
		return nil
	}
	out := *order
	out.Items = append([]models.OrderItem(nil), order.Items...)
	return &out
}

func before(at time.Time, id uuid.UUID, otherAt time.Time, otherID uuid.UUID) bool {
	if !at.Equal(otherAt) {
		return at.Before(otherAt)
	}
	return id.String() < otherID.String()
}

func dropUntil[T any](rows []T, after func(T) bool) []T {
	for i, row := range rows {
		if after(row) {
			return rows[i:]
		}
	}
	return nil
}
