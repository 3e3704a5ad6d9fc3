package orders

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/fulfillment-backend/internal/testdb"
	"github.com/angelmondragon/fulfillment-backend/pkg/db/models"
	"github.com/angelmondragon/fulfillment-backend/pkg/enums"
	"github.com/angelmondragon/fulfillment-backend/pkg/pagination"
)

var orderSeq int64

func mustCreateOrder(t *testing.T, conn *gorm.DB, owner uuid.UUID, product *models.Product, createdAt time.Time, quantities ...int) *models.Order {
	t.Helper()
	orderSeq++
	order := &models.Order{
		OrderNumber: orderSeq,
		UserID:      owner,
		CreatedAt:   createdAt.UTC(),
	}
	for _, qty := range quantities {
		order.Items = append(order.Items, models.OrderItem{
			ProductID:           product.ID,
			Quantity:            qty,
			ProductionStatus:    enums.ProductionStatusPending,
			DeliveryStatus:      enums.ItemDeliveryStatusReadyForDelivery,
			WholesaleUnitPrice:  product.BasePrice,
			WholesaleTotalPrice: product.BasePrice,
			RetailUnitPrice:     product.BasePrice,
			RetailTotalPrice:    product.BasePrice,
		})
	}
	Refresh(order)
	require.NoError(t, NewRepository(conn).CreateOrder(context.Background(), order))
	return order
}

func markReady(t *testing.T, conn *gorm.DB, order *models.Order) {
	t.Helper()
	repo := NewRepository(conn)
	for i := range order.Items {
		order.Items[i].ProductionStatus = enums.ProductionStatusCompleted
		order.Items[i].ProducedQuantity = order.Items[i].Quantity
		require.NoError(t, repo.UpdateItem(context.Background(), &order.Items[i]))
	}
	Refresh(order)
	require.NoError(t, repo.UpdateOrder(context.Background(), order))
}

func TestRepositoryRoundTripsOrderWithItems(t *testing.T) {
	conn := testdb.Open(t)
	repo := NewRepository(conn)
	product := testdb.MustCreateProduct(t, conn, enums.ProductGroupBakery, "3.50")
	order := mustCreateOrder(t, conn, uuid.New(), product, time.Now(), 4, 6, 1)

	loaded, err := repo.FindOrderForUpdate(context.Background(), order.ID)
	require.NoError(t, err)
	require.Len(t, loaded.Items, 3)
	assert.Equal(t, []int{4, 6, 1}, []int{loaded.Items[0].Quantity, loaded.Items[1].Quantity, loaded.Items[2].Quantity})
	require.NotNil(t, loaded.Items[0].Product)
	assert.Equal(t, product.Name, loaded.Items[0].Product.Name)

	item := loaded.Items[1]
	item.ProductionStatus = enums.ProductionStatusPartiallyCompleted
	item.ProducedQuantity = 2
	notes := "oven two"
	item.ProductionNotes = &notes
	require.NoError(t, repo.UpdateItem(context.Background(), &item))

	reloaded, err := repo.FindOrderItem(context.Background(), item.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, reloaded.ProducedQuantity)
	assert.Equal(t, enums.ProductionStatusPartiallyCompleted, reloaded.ProductionStatus)
	require.NotNil(t, reloaded.ProductionNotes)
	assert.Equal(t, "oven two", *reloaded.ProductionNotes)

	_, err = repo.FindOrder(context.Background(), uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryRejectsProducedAboveQuantity(t *testing.T) {
	conn := testdb.Open(t)
	repo := NewRepository(conn)
	product := testdb.MustCreateProduct(t, conn, enums.ProductGroupBakery, "1")
	order := mustCreateOrder(t, conn, uuid.New(), product, time.Now(), 2)

	item := order.Items[0]
	item.ProducedQuantity = 3
	assert.Error(t, repo.UpdateItem(context.Background(), &item))
}

func TestClaimOrderIsCompareAndSet(t *testing.T) {
	conn := testdb.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	product := testdb.MustCreateProduct(t, conn, enums.ProductGroupBakery, "1")

	pending := mustCreateOrder(t, conn, uuid.New(), product, time.Now(), 1)
	ok, err := repo.ClaimOrder(ctx, pending.ID, uuid.New(), time.Now().UTC())
	require.NoError(t, err)
	assert.False(t, ok, "pending orders are not claimable")

	order := mustCreateOrder(t, conn, uuid.New(), product, time.Now(), 1)
	markReady(t, conn, order)

	first, second := uuid.New(), uuid.New()
	ok, err = repo.ClaimOrder(ctx, order.ID, first, time.Now().UTC())
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.ClaimOrder(ctx, order.ID, second, time.Now().UTC())
	require.NoError(t, err)
	assert.False(t, ok)

	loaded, err := repo.FindOrder(ctx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded.DriverID)
	assert.Equal(t, first, *loaded.DriverID)
	assert.NotNil(t, loaded.ClaimedAt)

	cancelled := mustCreateOrder(t, conn, uuid.New(), product, time.Now(), 1)
	markReady(t, conn, cancelled)
	now := time.Now().UTC()
	cancelled.CanceledAt = &now
	require.NoError(t, repo.UpdateOrder(ctx, cancelled))
	ok, err = repo.ClaimOrder(ctx, cancelled.ID, first, now)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestClaimOrderConcurrentCallersSingleWinner(t *testing.T) {
	const drivers = 12
	conn := testdb.OpenConcurrent(t, drivers)
	repo := NewRepository(conn)
	ctx := context.Background()
	product := testdb.MustCreateProduct(t, conn, enums.ProductGroupBakery, "1")
	order := mustCreateOrder(t, conn, uuid.New(), product, time.Now(), 2)
	markReady(t, conn, order)

	ids := make([]uuid.UUID, drivers)
	won := make([]bool, drivers)
	errs := make([]error, drivers)
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < drivers; i++ {
		ids[i] = uuid.New()
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			won[i], errs[i] = repo.ClaimOrder(ctx, order.ID, ids[i], time.Now().UTC())
		}(i)
	}
	close(start)
	wg.Wait()

	winners := 0
	var winner uuid.UUID
	for i := range won {
		require.NoError(t, errs[i])
		if won[i] {
			winners++
			winner = ids[i]
		}
	}
	require.Equal(t, 1, winners)

	loaded, err := repo.FindOrder(ctx, order.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded.DriverID)
	assert.Equal(t, winner, *loaded.DriverID)
}

func TestListPoolPaginatesOldestFirst(t *testing.T) {
	conn := testdb.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	product := testdb.MustCreateProduct(t, conn, enums.ProductGroupBakery, "1")
	base := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

	var ready []*models.Order
	for i := 0; i < 3; i++ {
		order := mustCreateOrder(t, conn, uuid.New(), product, base.Add(time.Duration(i)*time.Minute), 1)
		markReady(t, conn, order)
		ready = append(ready, order)
	}
	mustCreateOrder(t, conn, uuid.New(), product, base, 1)
	claimed := mustCreateOrder(t, conn, uuid.New(), product, base, 1)
	markReady(t, conn, claimed)
	_, err := repo.ClaimOrder(ctx, claimed.ID, uuid.New(), base)
	require.NoError(t, err)

	page, err := repo.ListPool(ctx, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, ready[0].ID, page.Items[0].ID)
	assert.Equal(t, ready[1].ID, page.Items[1].ID)
	require.NotEmpty(t, page.NextCursor)

	next, err := repo.ListPool(ctx, pagination.Params{Limit: 2, Cursor: page.NextCursor})
	require.NoError(t, err)
	require.Len(t, next.Items, 1)
	assert.Equal(t, ready[2].ID, next.Items[0].ID)
	assert.Empty(t, next.NextCursor)
	assert.Len(t, next.Items[0].Items, 1)
}

func TestListDriverOrdersNewestFirst(t *testing.T) {
	conn := testdb.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	product := testdb.MustCreateProduct(t, conn, enums.ProductGroupBakery, "1")
	driver := uuid.New()
	base := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

	older := mustCreateOrder(t, conn, uuid.New(), product, base, 1)
	newer := mustCreateOrder(t, conn, uuid.New(), product, base.Add(time.Hour), 1)
	other := mustCreateOrder(t, conn, uuid.New(), product, base, 1)
	for _, o := range []*models.Order{older, newer, other} {
		markReady(t, conn, o)
	}
	for _, o := range []*models.Order{older, newer} {
		ok, err := repo.ClaimOrder(ctx, o.ID, driver, base)
		require.NoError(t, err)
		require.True(t, ok)
	}

	page, err := repo.ListDriverOrders(ctx, driver, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, newer.ID, page.Items[0].ID)
	assert.Equal(t, older.ID, page.Items[1].ID)
}

func TestListProductionQueueFiltersGroupAndState(t *testing.T) {
	conn := testdb.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	sweets := testdb.MustCreateProduct(t, conn, enums.ProductGroupSweets, "1")
	bakery := testdb.MustCreateProduct(t, conn, enums.ProductGroupBakery, "1")
	base := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)

	open := mustCreateOrder(t, conn, uuid.New(), sweets, base, 2, 3)
	done := open.Items[1]
	done.ProductionStatus = enums.ProductionStatusCompleted
	done.ProducedQuantity = 3
	require.NoError(t, repo.UpdateItem(ctx, &done))

	mustCreateOrder(t, conn, uuid.New(), bakery, base, 1)

	cancelled := mustCreateOrder(t, conn, uuid.New(), sweets, base, 1)
	now := time.Now().UTC()
	cancelled.CanceledAt = &now
	require.NoError(t, repo.UpdateOrder(ctx, cancelled))

	page, err := repo.ListProductionQueue(ctx, enums.ProductGroupSweets, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, open.Items[0].ID, page.Items[0].ID)
	require.NotNil(t, page.Items[0].Product)
	assert.Equal(t, enums.ProductGroupSweets, page.Items[0].Product.ProductGroup)
}
