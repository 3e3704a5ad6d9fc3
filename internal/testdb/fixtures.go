package testdb

import (
	"fmt"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/fulfillment-backend/pkg/db/models"
	"github.com/angelmondragon/fulfillment-backend/pkg/enums"
	"github.com/angelmondragon/fulfillment-backend/pkg/logger"
)

// Logger discards output.
func Logger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

// MustCreateUser inserts an active user with role.
func MustCreateUser(t testing.TB, conn *gorm.DB, role enums.UserRole) *models.User {
	t.Helper()
	user := &models.User{
		ID:       uuid.New(),
		Name:     fmt.Sprintf("%s user", role),
		Email:    fmt.Sprintf("ff_test_%s@example.com", uuid.NewString()),
		Role:     role,
		IsActive: true,
	}
	if role == enums.UserRoleChef {
		group := enums.ProductGroupSweets
		user.ProductGroup = &group
	}
	if err := conn.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

// MustCreateProduct inserts a product with the given base price and option
// groups. Ids are assigned when missing and zero multipliers become 1.
func MustCreateProduct(t testing.TB, conn *gorm.DB, group enums.ProductGroup, basePrice string, groups ...models.OptionGroup) *models.Product {
	t.Helper()
	product := &models.Product{
		ID:           uuid.New(),
		Name:         "Test product " + uuid.NewString()[:8],
		Unit:         enums.ProductUnitPiece,
		ProductGroup: group,
		BasePrice:    decimal.RequireFromString(basePrice),
		OptionGroups: groups,
	}
	for gi := range product.OptionGroups {
		g := &product.OptionGroups[gi]
		if g.ID == uuid.Nil {
			g.ID = uuid.New()
		}
		g.ProductID = product.ID
		g.Position = gi
		for ii := range g.Items {
			it := &g.Items[ii]
			if it.ID == uuid.Nil {
				it.ID = uuid.New()
			}
			if it.Multiplier.IsZero() {
				it.Multiplier = decimal.NewFromInt(1)
			}
			it.OptionGroupID = g.ID
			it.Position = ii
		}
	}
	if err := conn.Create(product).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	return product
}
