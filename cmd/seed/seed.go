package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/fulfillment-backend/internal/catalog"
	"github.com/angelmondragon/fulfillment-backend/internal/fulfillment"
	"github.com/angelmondragon/fulfillment-backend/internal/orders"
	"github.com/angelmondragon/fulfillment-backend/internal/users"
	"github.com/angelmondragon/fulfillment-backend/pkg/db/models"
	"github.com/angelmondragon/fulfillment-backend/pkg/enums"
	"github.com/angelmondragon/fulfillment-backend/pkg/logger"
)

const sampleOrderKey = "seed-sample-order"

type userFinder interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

type seedUser struct {
	key   string
	name  string
	email string
	role  enums.UserRole
	group *enums.ProductGroup
}

type seeder struct {
	users     userFinder
	directory *users.Directory
	boundary  *fulfillment.Boundary
	logg      *logger.Logger
}

type summary struct {
	Users    map[string]uuid.UUID
	Products []uuid.UUID
	OrderID  uuid.UUID
}

func groupPtr(g enums.ProductGroup) *enums.ProductGroup { return &g }

var seedUsers = []seedUser{
	{key: "admin", name: "Admin", email: "admin@fulfillment.local", role: enums.UserRoleAdmin},
	{key: "client", name: "Cafe Central", email: "client@fulfillment.local", role: enums.UserRoleClient},
	{key: "distributor", name: "Distribuidora Norte", email: "distributor@fulfillment.local", role: enums.UserRoleDistributor},
	{key: "chef_bakery", name: "Bakery chef", email: "bakery@fulfillment.local", role: enums.UserRoleChef, group: groupPtr(enums.ProductGroupBakery)},
	{key: "chef_sweets", name: "Sweets chef", email: "sweets@fulfillment.local", role: enums.UserRoleChef, group: groupPtr(enums.ProductGroupSweets)},
	{key: "driver", name: "Driver", email: "driver@fulfillment.local", role: enums.UserRoleDriver},
}

func (s *seeder) run(ctx context.Context) (*summary, error) {
	out := &summary{Users: map[string]uuid.UUID{}}
	for _, u := range seedUsers {
		user, err := s.ensureUser(ctx, u)
		if err != nil {
			return nil, fmt.Errorf("seed user %s: %w", u.key, err)
		}
		out.Users[u.key] = user.ID
	}
	admin := out.Users["admin"]

	bread, err := s.boundary.CreateProduct(ctx, admin, catalog.CreateProductInput{
		Name:         "Bolillo",
		Unit:         enums.ProductUnitPiece,
		ProductGroup: enums.ProductGroupBakery,
		BasePrice:    decimal.RequireFromString("4.50"),
		OptionGroups: []catalog.OptionGroupInput{{
			Name:          "Toppings",
			AllowMultiple: true,
			Items: []catalog.OptionItemInput{
				{Name: "Sesame", PriceAdjustment: decimal.RequireFromString("0.50")},
				{Name: "Cheese", PriceAdjustment: decimal.NewFromInt(1)},
			},
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("seed bread: %w", err)
	}
	cake, err := s.boundary.CreateProduct(ctx, admin, catalog.CreateProductInput{
		Name:         "Pastel tres leches",
		Unit:         enums.ProductUnitPiece,
		ProductGroup: enums.ProductGroupSweets,
		BasePrice:    decimal.NewFromInt(320),
		OptionGroups: []catalog.OptionGroupInput{{
			Name:       "Size",
			IsRequired: true,
			Items: []catalog.OptionItemInput{
				{Name: "Medium"},
				{Name: "Large", Multiplier: decimal.NewNullDecimal(decimal.RequireFromString("1.5"))},
			},
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("seed cake: %w", err)
	}
	out.Products = []uuid.UUID{bread.ID, cake.ID}

	wholesale, err := s.boundary.CreatePriceList(ctx, admin, catalog.CreatePriceListInput{Name: "Wholesale", Type: enums.PriceBasisWholesale})
	if err != nil {
		return nil, fmt.Errorf("seed wholesale list: %w", err)
	}
	if _, err := s.boundary.SetPriceListItem(ctx, admin, catalog.SetPriceListItemInput{
		PriceListID:  wholesale.ID,
		OptionItemID: cake.OptionGroups[0].Items[1].ID,
		Multiplier:   decimal.NewNullDecimal(decimal.RequireFromString("1.3")),
	}); err != nil {
		return nil, fmt.Errorf("seed wholesale entry: %w", err)
	}
	if _, err := s.boundary.SetDefaultPriceList(ctx, admin, wholesale.ID); err != nil {
		return nil, fmt.Errorf("default wholesale list: %w", err)
	}

	order, err := s.boundary.PlaceOrder(ctx, out.Users["client"], orders.PlaceOrderInput{
		Items: []orders.PlaceOrderItemInput{
			{ProductID: bread.ID, Quantity: 24, SelectedOptionIDs: []uuid.UUID{bread.OptionGroups[0].Items[0].ID}},
			{ProductID: cake.ID, Quantity: 1, SelectedOptionIDs: []uuid.UUID{cake.OptionGroups[0].Items[1].ID}},
		},
		IdempotencyKey: sampleOrderKey,
	})
	if err != nil {
		return nil, fmt.Errorf("seed sample order: %w", err)
	}
	out.OrderID = order.ID
	return out, nil
}

func (s *seeder) ensureUser(ctx context.Context, u seedUser) (*models.User, error) {
	existing, err := s.users.FindByEmail(ctx, u.email)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	user, err := s.directory.Register(ctx, users.CreateUserDTO{
		Name:         u.name,
		Email:        u.email,
		Role:         u.role,
		ProductGroup: u.group,
	})
	if err != nil {
		return nil, err
	}
	if s.logg != nil {
		ctx = s.logg.WithFields(ctx, map[string]any{"user_id": user.ID.String(), "role": u.role})
		s.logg.Info(ctx, "seeded user")
	}
	return user, nil
}
