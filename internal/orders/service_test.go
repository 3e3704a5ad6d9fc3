package orders

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/fulfillment-backend/internal/catalog"
	"github.com/angelmondragon/fulfillment-backend/internal/testdb"
	"github.com/angelmondragon/fulfillment-backend/internal/users"
	"github.com/angelmondragon/fulfillment-backend/pkg/db"
	"github.com/angelmondragon/fulfillment-backend/pkg/db/models"
	"github.com/angelmondragon/fulfillment-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/fulfillment-backend/pkg/errors"
	"github.com/angelmondragon/fulfillment-backend/pkg/idempotency"
	"github.com/angelmondragon/fulfillment-backend/pkg/metrics"
	"github.com/angelmondragon/fulfillment-backend/pkg/outbox"
)

type placementHarness struct {
	conn    *gorm.DB
	svc     *Service
	catalog *catalog.Service
	reg     *prometheus.Registry
	admin   users.Actor
	client  *models.User
	idem    *stubIdempotency
}

func newPlacementHarness(t *testing.T, wrap func(Repository) Repository) placementHarness {
	t.Helper()
	conn := testdb.Open(t)
	logg := testdb.Logger()
	client := db.NewFromGorm(conn)
	emitter := outbox.NewService(outbox.NewRepository(conn), logg)
	cat, err := catalog.NewService(catalog.NewRepository(conn), client, emitter, logg)
	require.NoError(t, err)

	repo := NewRepository(conn)
	if wrap != nil {
		repo = wrap(repo)
	}
	reg := prometheus.NewRegistry()
	idem := &stubIdempotency{completed: map[string]uuid.UUID{}}
	svc, err := NewService(ServiceParams{
		Repo:              repo,
		Tx:                client,
		Catalog:           cat,
		Outbox:            emitter,
		Idempotency:       idem,
		Metrics:           metrics.NewFulfillmentMetrics(reg),
		Logger:            logg,
		PlacementAttempts: 3,
	})
	require.NoError(t, err)

	admin := testdb.MustCreateUser(t, conn, enums.UserRoleAdmin)
	return placementHarness{
		conn:    conn,
		svc:     svc,
		catalog: cat,
		reg:     reg,
		admin:   users.Actor{UserID: admin.ID, Role: enums.UserRoleAdmin},
		client:  testdb.MustCreateUser(t, conn, enums.UserRoleClient),
		idem:    idem,
	}
}

func actorFor(user *models.User) users.Actor {
	return users.Actor{UserID: user.ID, Role: user.Role, ProductGroup: user.ProductGroup}
}

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func TestPlaceSnapshotsBothPriceBases(t *testing.T) {
	h := newPlacementHarness(t, nil)
	ctx := context.Background()
	optX := models.OptionItem{Name: "opt-x", PriceAdjustment: dec("5")}
	product := testdb.MustCreateProduct(t, h.conn, enums.ProductGroupBakery, "100",
		models.OptionGroup{Name: "Extras", AllowMultiple: true, Items: []models.OptionItem{optX}})
	optX = product.OptionGroups[0].Items[0]

	list, err := h.catalog.CreatePriceList(ctx, h.admin, catalog.CreatePriceListInput{Name: "Wholesale", Type: enums.PriceBasisWholesale})
	require.NoError(t, err)
	_, err = h.catalog.SetPriceListItem(ctx, h.admin, catalog.SetPriceListItemInput{
		PriceListID:  list.ID,
		OptionItemID: optX.ID,
		Price:        decimal.NewNullDecimal(dec("50")),
		Multiplier:   decimal.NewNullDecimal(dec("1.2")),
	})
	require.NoError(t, err)
	_, err = h.catalog.SetDefaultPriceList(ctx, h.admin, list.ID)
	require.NoError(t, err)

	order, err := h.svc.Place(ctx, actorFor(h.client), h.client, PlaceOrderInput{
		Items: []PlaceOrderItemInput{{ProductID: product.ID, Quantity: 2, SelectedOptionIDs: []uuid.UUID{optX.ID}}},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(1), order.OrderNumber)
	assert.Equal(t, enums.OrderDeliveryStatusPending, order.DeliveryStatus)
	assert.Equal(t, enums.ProductionStatusPending, order.ProductionStatus)

	stored, err := NewRepository(h.conn).FindOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, stored.Items, 1)
	item := stored.Items[0]
	assert.True(t, item.WholesaleUnitPrice.Equal(dec("180")), item.WholesaleUnitPrice.String())
	assert.True(t, item.WholesaleTotalPrice.Equal(dec("360")))
	assert.True(t, item.RetailUnitPrice.Equal(dec("105")))
	assert.True(t, item.RetailTotalPrice.Equal(dec("210")))
	assert.Equal(t, []uuid.UUID{optX.ID}, []uuid.UUID(item.SelectedOptionIDs))
	assert.True(t, stored.InitialWholesaleTotal.Equal(dec("360")))
	assert.True(t, stored.FinalRetailTotal.Equal(stored.InitialRetailTotal))

	var placed int64
	require.NoError(t, h.conn.Model(&models.OutboxEvent{}).Where("event_type = ?", enums.EventOrderPlaced).Count(&placed).Error)
	assert.Equal(t, int64(1), placed)
	assert.Equal(t, 1.0, counterValue(t, h.reg, "fulfillment_transitions_total", map[string]string{"operation": "place_order", "result": "ok"}))
}

func TestPlaceAssignsIncreasingOrderNumbers(t *testing.T) {
	h := newPlacementHarness(t, nil)
	product := testdb.MustCreateProduct(t, h.conn, enums.ProductGroupSweets, "12")
	input := PlaceOrderInput{Items: []PlaceOrderItemInput{{ProductID: product.ID, Quantity: 1}}}

	first, err := h.svc.Place(context.Background(), actorFor(h.client), h.client, input)
	require.NoError(t, err)
	second, err := h.svc.Place(context.Background(), actorFor(h.client), h.client, input)
	require.NoError(t, err)
	assert.Equal(t, first.OrderNumber+1, second.OrderNumber)
}

type staleNumberRepo struct {
	Repository
	stale *int
}

func (r staleNumberRepo) WithTx(tx *gorm.DB) Repository {
	return staleNumberRepo{Repository: r.Repository.WithTx(tx), stale: r.stale}
}

func (r staleNumberRepo) NextOrderNumber(ctx context.Context) (int64, error) {
	if *r.stale > 0 {
		*r.stale--
		return 1, nil
	}
	return r.Repository.NextOrderNumber(ctx)
}

func TestPlaceRetriesWhenOrderNumberIsTaken(t *testing.T) {
	stale := 0
	h := newPlacementHarness(t, func(repo Repository) Repository {
		return staleNumberRepo{Repository: repo, stale: &stale}
	})
	product := testdb.MustCreateProduct(t, h.conn, enums.ProductGroupSweets, "12")
	input := PlaceOrderInput{Items: []PlaceOrderItemInput{{ProductID: product.ID, Quantity: 1}}}

	_, err := h.svc.Place(context.Background(), actorFor(h.client), h.client, input)
	require.NoError(t, err)

	stale = 1
	order, err := h.svc.Place(context.Background(), actorFor(h.client), h.client, input)
	require.NoError(t, err)
	assert.Equal(t, int64(2), order.OrderNumber)
	assert.Equal(t, 0, stale)
}

func TestPlaceCollectsEveryItemError(t *testing.T) {
	h := newPlacementHarness(t, nil)
	product := testdb.MustCreateProduct(t, h.conn, enums.ProductGroupSweets, "12",
		models.OptionGroup{Name: "Size", IsRequired: true, Items: []models.OptionItem{{Name: "Small"}}})

	_, err := h.svc.Place(context.Background(), actorFor(h.client), h.client, PlaceOrderInput{
		Items: []PlaceOrderItemInput{
			{ProductID: product.ID, Quantity: 1},
			{ProductID: product.ID, Quantity: 1, SelectedOptionIDs: []uuid.UUID{uuid.New()}},
		},
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
	details, ok := pkgerrors.As(err).Details().(map[string]any)
	require.True(t, ok)
	assert.Contains(t, details, "items[0]")
	assert.Contains(t, details, "items[1]")

	var count int64
	require.NoError(t, h.conn.Model(&models.Order{}).Count(&count).Error)
	assert.Zero(t, count)
	assert.Equal(t, 1.0, counterValue(t, h.reg, "fulfillment_transitions_total", map[string]string{"operation": "place_order", "result": "validation_error"}))
}

func TestPlaceValidatesInput(t *testing.T) {
	h := newPlacementHarness(t, nil)
	_, err := h.svc.Place(context.Background(), actorFor(h.client), h.client, PlaceOrderInput{})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	_, err = h.svc.Place(context.Background(), actorFor(h.client), h.client, PlaceOrderInput{
		Items: []PlaceOrderItemInput{{ProductID: uuid.New(), Quantity: 0}},
	})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}

func TestPlaceRejectsUnknownProduct(t *testing.T) {
	h := newPlacementHarness(t, nil)
	_, err := h.svc.Place(context.Background(), actorFor(h.client), h.client, PlaceOrderInput{
		Items: []PlaceOrderItemInput{{ProductID: uuid.New(), Quantity: 1}},
	})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
}

func TestPlaceRequiresOrderingRole(t *testing.T) {
	h := newPlacementHarness(t, nil)
	chef := testdb.MustCreateUser(t, h.conn, enums.UserRoleChef)
	_, err := h.svc.Place(context.Background(), actorFor(chef), chef, PlaceOrderInput{})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeForbidden))
}

type stubIdempotency struct {
	completed map[string]uuid.UUID
	pending   map[string]bool
	released  []string
}

func (s *stubIdempotency) Reserve(_ context.Context, scope string, userID uuid.UUID, key string) (idempotency.Reservation, error) {
	id := scope + ":" + userID.String() + ":" + key
	if orderID, ok := s.completed[id]; ok {
		return idempotency.Reservation{OrderID: orderID, Replay: true}, nil
	}
	if s.pending == nil {
		s.pending = map[string]bool{}
	}
	if s.pending[id] {
		return idempotency.Reservation{}, pkgerrors.New(pkgerrors.CodeIdempotency, "in flight")
	}
	s.pending[id] = true
	return idempotency.Reservation{}, nil
}

func (s *stubIdempotency) Complete(_ context.Context, scope string, userID uuid.UUID, key string, orderID uuid.UUID) error {
	id := scope + ":" + userID.String() + ":" + key
	delete(s.pending, id)
	s.completed[id] = orderID
	return nil
}

func (s *stubIdempotency) Release(_ context.Context, scope string, userID uuid.UUID, key string) error {
	id := scope + ":" + userID.String() + ":" + key
	delete(s.pending, id)
	s.released = append(s.released, key)
	return nil
}

func TestPlaceReplaysIdempotencyKey(t *testing.T) {
	h := newPlacementHarness(t, nil)
	product := testdb.MustCreateProduct(t, h.conn, enums.ProductGroupSweets, "12")
	input := PlaceOrderInput{
		Items:          []PlaceOrderItemInput{{ProductID: product.ID, Quantity: 3}},
		IdempotencyKey: "cart-42",
	}

	first, err := h.svc.Place(context.Background(), actorFor(h.client), h.client, input)
	require.NoError(t, err)
	replay, err := h.svc.Place(context.Background(), actorFor(h.client), h.client, input)
	require.NoError(t, err)
	assert.Equal(t, first.ID, replay.ID)

	var count int64
	require.NoError(t, h.conn.Model(&models.Order{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestPlaceReleasesIdempotencyKeyOnFailure(t *testing.T) {
	h := newPlacementHarness(t, nil)
	ctx := context.Background()
	product := testdb.MustCreateProduct(t, h.conn, enums.ProductGroupSweets, "12",
		models.OptionGroup{Name: "Size", IsRequired: true, Items: []models.OptionItem{{Name: "Small"}}})

	cases := []struct {
		name string
		key  string
		item PlaceOrderItemInput
	}{
		{name: "unknown product", key: "retry-unknown", item: PlaceOrderItemInput{ProductID: uuid.New(), Quantity: 1}},
		{name: "missing required group", key: "retry-required", item: PlaceOrderItemInput{ProductID: product.ID, Quantity: 1}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var err error
			require.NotPanics(t, func() {
				_, err = h.svc.Place(ctx, actorFor(h.client), h.client, PlaceOrderInput{
					Items:          []PlaceOrderItemInput{tc.item},
					IdempotencyKey: tc.key,
				})
			})
			require.Error(t, err)
			assert.Contains(t, h.idem.released, tc.key)
			assert.Empty(t, h.idem.pending)
			assert.Empty(t, h.idem.completed)
		})
	}

	order, err := h.svc.Place(ctx, actorFor(h.client), h.client, PlaceOrderInput{
		Items: []PlaceOrderItemInput{{
			ProductID:         product.ID,
			Quantity:          1,
			SelectedOptionIDs: []uuid.UUID{product.OptionGroups[0].Items[0].ID},
		}},
		IdempotencyKey: "retry-required",
	})
	require.NoError(t, err)
	assert.Len(t, h.idem.completed, 1)

	replay, err := h.svc.Place(ctx, actorFor(h.client), h.client, PlaceOrderInput{
		Items: []PlaceOrderItemInput{{
			ProductID:         product.ID,
			Quantity:          1,
			SelectedOptionIDs: []uuid.UUID{product.OptionGroups[0].Items[0].ID},
		}},
		IdempotencyKey: "retry-required",
	})
	require.NoError(t, err)
	assert.Equal(t, order.ID, replay.ID)
}

func TestDetailPricesInViewerBasis(t *testing.T) {
	h := newPlacementHarness(t, nil)
	ctx := context.Background()
	product := testdb.MustCreateProduct(t, h.conn, enums.ProductGroupSweets, "10",
		models.OptionGroup{Name: "Box", Items: []models.OptionItem{{Name: "Gift", PriceAdjustment: dec("2")}}})
	list, err := h.catalog.CreatePriceList(ctx, h.admin, catalog.CreatePriceListInput{Name: "Wholesale", Type: enums.PriceBasisWholesale})
	require.NoError(t, err)
	_, err = h.catalog.SetPriceListItem(ctx, h.admin, catalog.SetPriceListItemInput{
		PriceListID:  list.ID,
		OptionItemID: product.OptionGroups[0].Items[0].ID,
		Price:        decimal.NewNullDecimal(dec("0")),
	})
	require.NoError(t, err)
	_, err = h.catalog.SetDefaultPriceList(ctx, h.admin, list.ID)
	require.NoError(t, err)

	order, err := h.svc.Place(ctx, actorFor(h.client), h.client, PlaceOrderInput{
		Items: []PlaceOrderItemInput{{ProductID: product.ID, Quantity: 5, SelectedOptionIDs: []uuid.UUID{product.OptionGroups[0].Items[0].ID}}},
	})
	require.NoError(t, err)

	asOwner, err := h.svc.Detail(ctx, actorFor(h.client), order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PriceBasisRetail, asOwner.PriceBasis)
	assert.True(t, asOwner.Initial.Equal(dec("60")))
	assert.Equal(t, enums.DisplayStatusPending, asOwner.Display.Status)
	require.Len(t, asOwner.Items, 1)
	assert.True(t, asOwner.Items[0].Price.Unit.Equal(dec("12")))

	asAdmin, err := h.svc.Detail(ctx, h.admin, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PriceBasisWholesale, asAdmin.PriceBasis)
	assert.True(t, asAdmin.Initial.Equal(dec("50")))

	stranger := testdb.MustCreateUser(t, h.conn, enums.UserRoleClient)
	_, err = h.svc.Detail(ctx, actorFor(stranger), order.ID)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeForbidden))

	driver := testdb.MustCreateUser(t, h.conn, enums.UserRoleDriver)
	_, err = h.svc.Detail(ctx, actorFor(driver), order.ID)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeForbidden))

	_, err = h.svc.Detail(ctx, h.admin, uuid.New())
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
}

func counterValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			if hasLabels(metric.GetLabel(), labels) {
				return metric.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func hasLabels(pairs []*dto.LabelPair, want map[string]string) bool {
	matched := 0
	for _, pair := range pairs {
		if v, ok := want[pair.GetName()]; ok && v == pair.GetValue() {
			matched++
		}
	}
	return matched == len(want)
}
