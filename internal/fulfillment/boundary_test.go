package fulfillment

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/fulfillment-backend/internal/catalog"
	"github.com/angelmondragon/fulfillment-backend/internal/delivery"
	"github.com/angelmondragon/fulfillment-backend/internal/orders"
	"github.com/angelmondragon/fulfillment-backend/internal/production"
	"github.com/angelmondragon/fulfillment-backend/internal/testdb"
	"github.com/angelmondragon/fulfillment-backend/pkg/config"
	"github.com/angelmondragon/fulfillment-backend/pkg/db"
	"github.com/angelmondragon/fulfillment-backend/pkg/db/models"
	"github.com/angelmondragon/fulfillment-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/fulfillment-backend/pkg/errors"
	"github.com/angelmondragon/fulfillment-backend/pkg/pagination"
)

type world struct {
	conn     *gorm.DB
	boundary *Boundary
	admin    *models.User
	client   *models.User
	chef     *models.User
	driver   *models.User
	product  *models.Product
}

func newWorld(t *testing.T) world {
	t.Helper()
	conn := testdb.Open(t)
	boundary, err := Wire(Dependencies{
		DB:     db.NewFromGorm(conn),
		Logger: testdb.Logger(),
		Config: config.FulfillmentConfig{
			EnforceDeliveredWithinProduced: true,
			CancellationReasonMinLength:    5,
			PlacementAttempts:              3,
		},
	})
	require.NoError(t, err)

	w := world{
		conn:     conn,
		boundary: boundary,
		admin:    testdb.MustCreateUser(t, conn, enums.UserRoleAdmin),
		client:   testdb.MustCreateUser(t, conn, enums.UserRoleClient),
		chef:     testdb.MustCreateUser(t, conn, enums.UserRoleChef),
		driver:   testdb.MustCreateUser(t, conn, enums.UserRoleDriver),
	}
	w.product, err = boundary.CreateProduct(context.Background(), w.admin.ID, catalog.CreateProductInput{
		Name:         "Tres leches",
		Unit:         enums.ProductUnitPiece,
		ProductGroup: enums.ProductGroupSweets,
		BasePrice:    decimal.NewFromInt(20),
		OptionGroups: []catalog.OptionGroupInput{{
			Name:       "Size",
			IsRequired: true,
			Items: []catalog.OptionItemInput{
				{Name: "Small"},
				{Name: "Large", PriceAdjustment: decimal.NewFromInt(10)},
			},
		}},
	})
	require.NoError(t, err)
	return w
}

func (w world) option(name string) uuid.UUID {
	for _, item := range w.product.OptionGroups[0].Items {
		if item.Name == name {
			return item.ID
		}
	}
	return uuid.Nil
}

func (w world) place(t *testing.T) *models.Order {
	t.Helper()
	order, err := w.boundary.PlaceOrder(context.Background(), w.client.ID, orders.PlaceOrderInput{
		Items: []orders.PlaceOrderItemInput{
			{ProductID: w.product.ID, Quantity: 3, SelectedOptionIDs: []uuid.UUID{w.option("Large")}},
			{ProductID: w.product.ID, Quantity: 2, SelectedOptionIDs: []uuid.UUID{w.option("Small")}},
		},
	})
	require.NoError(t, err)
	return order
}

func (w world) eventTypes(t *testing.T, aggregateID uuid.UUID) []enums.OutboxEventType {
	t.Helper()
	var rows []models.OutboxEvent
	require.NoError(t, w.conn.Where("aggregate_id = ?", aggregateID).Order("created_at ASC").Find(&rows).Error)
	out := make([]enums.OutboxEventType, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.EventType)
	}
	return out
}

func TestOrderLifecycle(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	order := w.place(t)
	assert.True(t, order.InitialRetailTotal.Equal(decimal.NewFromInt(130)), order.InitialRetailTotal.String())
	assert.True(t, order.InitialWholesaleTotal.Equal(decimal.NewFromInt(130)))
	require.Len(t, order.Items, 2)
	large, small := order.Items[0], order.Items[1]

	queue, err := w.boundary.ProductionQueue(ctx, w.chef.ID, nil, pagination.Params{})
	require.NoError(t, err)
	assert.Len(t, queue.Items, 2)

	_, err = w.boundary.RecordProduction(ctx, w.chef.ID, production.RecordInput{ItemID: large.ID, Action: production.ActionComplete})
	require.NoError(t, err)
	item, err := w.boundary.RecordProduction(ctx, w.chef.ID, production.RecordInput{ItemID: small.ID, Action: production.ActionPartial, Amount: 5})
	require.NoError(t, err)
	assert.Equal(t, enums.ProductionStatusCompleted, item.ProductionStatus)
	assert.Equal(t, 2, item.ProducedQuantity)

	pool, err := w.boundary.Pool(ctx, w.driver.ID, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, pool.Items, 1)
	assert.Equal(t, order.ID, pool.Items[0].ID)

	claimed, err := w.boundary.ClaimOrder(ctx, w.driver.ID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, w.driver.ID, *claimed.DriverID)

	rival := testdb.MustCreateUser(t, w.conn, enums.UserRoleDriver)
	_, err = w.boundary.ClaimOrder(ctx, rival.ID, order.ID)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.CodeOf(err))

	_, err = w.boundary.RecordDelivery(ctx, w.driver.ID, delivery.RecordInput{ItemID: large.ID, Action: delivery.ActionPartial, Amount: 1})
	require.NoError(t, err)
	_, err = w.boundary.RecordDelivery(ctx, w.driver.ID, delivery.RecordInput{ItemID: small.ID, Action: delivery.ActionCannotDeliver})
	require.NoError(t, err)

	detail, err := w.boundary.OrderDetail(ctx, w.client.ID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderDeliveryStatusPartiallyDelivered, detail.Order.DeliveryStatus)
	assert.Equal(t, enums.DisplayStatusPartiallyDelivered, detail.Display.Status)
	assert.Equal(t, enums.PriceBasisRetail, detail.PriceBasis)
	assert.True(t, detail.Initial.Equal(decimal.NewFromInt(130)), detail.Initial.String())
	assert.True(t, detail.Final.Equal(decimal.NewFromInt(30)), detail.Final.String())

	deliveries, err := w.boundary.DriverDeliveries(ctx, w.driver.ID, w.driver.ID, pagination.Params{})
	require.NoError(t, err)
	require.Len(t, deliveries.Items, 1)

	_, err = w.boundary.CancelOrder(ctx, w.admin.ID, order.ID, "customer changed mind")
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.CodeOf(err))

	assert.Equal(t, []enums.OutboxEventType{
		enums.EventOrderPlaced,
		enums.EventOrderStatusChanged,
		enums.EventOrderStatusChanged,
		enums.EventOrderClaimed,
		enums.EventOrderStatusChanged,
	}, w.eventTypes(t, order.ID))
}

func TestCancelledOrderLeavesQueues(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	order := w.place(t)

	_, err := w.boundary.CancelOrder(ctx, w.admin.ID, order.ID, "no")
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))

	canceled, err := w.boundary.CancelOrder(ctx, w.admin.ID, order.ID, "bakery closed for holiday")
	require.NoError(t, err)
	assert.Equal(t, enums.OrderDeliveryStatusCancelled, canceled.DeliveryStatus)

	queue, err := w.boundary.ProductionQueue(ctx, w.chef.ID, nil, pagination.Params{})
	require.NoError(t, err)
	assert.Empty(t, queue.Items)

	_, err = w.boundary.RecordProduction(ctx, w.chef.ID, production.RecordInput{ItemID: order.Items[0].ID, Action: production.ActionComplete})
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.CodeOf(err))

	_, err = w.boundary.ClaimOrder(ctx, w.driver.ID, order.ID)
	assert.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.CodeOf(err))

	detail, err := w.boundary.OrderDetail(ctx, w.admin.ID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.DisplayStatusCancelled, detail.Display.Status)
	assert.Equal(t, enums.PriceBasisWholesale, detail.PriceBasis)
	assert.True(t, detail.Final.IsZero())
}

func TestBoundaryResolvesActors(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()

	_, err := w.boundary.Pool(ctx, uuid.New(), pagination.Params{})
	assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.CodeOf(err))

	_, err = w.boundary.Pool(ctx, uuid.Nil, pagination.Params{})
	assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.CodeOf(err))

	require.NoError(t, w.conn.Model(&models.User{}).Where("id = ?", w.driver.ID).Update("is_active", false).Error)
	_, err = w.boundary.Pool(ctx, w.driver.ID, pagination.Params{})
	assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.CodeOf(err))

	_, err = w.boundary.ClaimOrder(ctx, w.client.ID, uuid.New())
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.CodeOf(err))

	_, err = w.boundary.CreatePriceList(ctx, w.client.ID, catalog.CreatePriceListInput{Name: "Mine", Type: enums.PriceBasisRetail})
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.CodeOf(err))
}

func TestWholesaleListAppliesToDistributors(t *testing.T) {
	w := newWorld(t)
	ctx := context.Background()
	distributor := testdb.MustCreateUser(t, w.conn, enums.UserRoleDistributor)

	list, err := w.boundary.CreatePriceList(ctx, w.admin.ID, catalog.CreatePriceListInput{Name: "Wholesale", Type: enums.PriceBasisWholesale})
	require.NoError(t, err)
	_, err = w.boundary.SetPriceListItem(ctx, w.admin.ID, catalog.SetPriceListItemInput{
		PriceListID:  list.ID,
		OptionItemID: w.option("Large"),
		Price:        decimal.NewNullDecimal(decimal.NewFromInt(4)),
	})
	require.NoError(t, err)
	_, err = w.boundary.SetDefaultPriceList(ctx, w.admin.ID, list.ID)
	require.NoError(t, err)

	order, err := w.boundary.PlaceOrder(ctx, distributor.ID, orders.PlaceOrderInput{
		Items: []orders.PlaceOrderItemInput{{ProductID: w.product.ID, Quantity: 2, SelectedOptionIDs: []uuid.UUID{w.option("Large")}}},
	})
	require.NoError(t, err)
	assert.True(t, order.InitialWholesaleTotal.Equal(decimal.NewFromInt(48)), order.InitialWholesaleTotal.String())
	assert.True(t, order.InitialRetailTotal.Equal(decimal.NewFromInt(60)), order.InitialRetailTotal.String())

	detail, err := w.boundary.OrderDetail(ctx, distributor.ID, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PriceBasisWholesale, detail.PriceBasis)
	assert.True(t, detail.Initial.Equal(decimal.NewFromInt(48)))
}
