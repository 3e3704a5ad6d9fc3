package users

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/fulfillment-backend/internal/testdb"
	"github.com/angelmondragon/fulfillment-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/fulfillment-backend/pkg/errors"
)

func newDirectory(t *testing.T) (*Directory, *Repository) {
	t.Helper()
	repo := NewRepository(testdb.Open(t))
	dir, err := NewDirectory(repo)
	require.NoError(t, err)
	return dir, repo
}

func TestDirectoryResolveActor(t *testing.T) {
	ctx := context.Background()
	dir, _ := newDirectory(t)

	group := enums.ProductGroupBakery
	chef, err := dir.Register(ctx, CreateUserDTO{
		Name:         "Chef Ana",
		Email:        "  Ana@Example.com ",
		Role:         enums.UserRoleChef,
		ProductGroup: &group,
	})
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", chef.Email)

	actor, user, err := dir.ResolveActor(ctx, chef.ID)
	require.NoError(t, err)
	assert.Equal(t, chef.ID, user.ID)
	assert.Equal(t, enums.UserRoleChef, actor.Role)
	require.NotNil(t, actor.ProductGroup)
	assert.Equal(t, enums.ProductGroupBakery, *actor.ProductGroup)
}

func TestDirectoryResolveUnknownIsUnauthorized(t *testing.T) {
	dir, _ := newDirectory(t)

	_, _, err := dir.ResolveActor(context.Background(), uuid.New())
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeUnauthorized))

	_, _, err = dir.ResolveActor(context.Background(), uuid.Nil)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeUnauthorized))
}

func TestDirectoryResolveInactiveIsUnauthorized(t *testing.T) {
	ctx := context.Background()
	dir, repo := newDirectory(t)

	driver, err := dir.Register(ctx, CreateUserDTO{Name: "Dan", Email: "dan@example.com", Role: enums.UserRoleDriver})
	require.NoError(t, err)
	require.NoError(t, repo.SetActive(ctx, driver.ID, false))

	_, _, err = dir.ResolveActor(ctx, driver.ID)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeUnauthorized))
}

func TestDirectoryRegisterValidation(t *testing.T) {
	ctx := context.Background()
	dir, _ := newDirectory(t)

	_, err := dir.Register(ctx, CreateUserDTO{Name: "x", Email: "not-an-email", Role: enums.UserRoleClient})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	_, err = dir.Register(ctx, CreateUserDTO{Name: "Chef", Email: "chef@example.com", Role: enums.UserRoleChef})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	_, err = dir.Register(ctx, CreateUserDTO{Name: "Who", Email: "who@example.com", Role: "ROBOT"})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}

func TestDirectoryRegisterNormalizesBeforeValidating(t *testing.T) {
	ctx := context.Background()
	dir, _ := newDirectory(t)

	client, err := dir.Register(ctx, CreateUserDTO{Name: "  Bea  ", Email: "\tBEA@Example.COM  ", Role: enums.UserRoleClient})
	require.NoError(t, err)
	assert.Equal(t, "Bea", client.Name)
	assert.Equal(t, "bea@example.com", client.Email)

	_, err = dir.Register(ctx, CreateUserDTO{Name: "   ", Email: "blank@example.com", Role: enums.UserRoleClient})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))

	_, err = dir.Register(ctx, CreateUserDTO{Name: "Cal", Email: "   ", Role: enums.UserRoleClient})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}

func TestLookupMissingIsNotFound(t *testing.T) {
	dir, _ := newDirectory(t)
	_, err := dir.Lookup(context.Background(), uuid.New())
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
}
