package users

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/fulfillment-backend/pkg/db/models"
	"github.com/angelmondragon/fulfillment-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/fulfillment-backend/pkg/errors"
	"github.com/angelmondragon/fulfillment-backend/pkg/validators"
)

type lookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	Create(ctx context.Context, dto CreateUserDTO) (*models.User, error)
}

// Directory resolves user ids into actors for the fulfillment boundary.
type Directory struct {
	repo lookup
}

func NewDirectory(repo lookup) (*Directory, error) {
	if repo == nil {
		return nil, errors.New("users repository required")
	}
	return &Directory{repo: repo}, nil
}

// Lookup returns the directory entry for id.
func (d *Directory) Lookup(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id required")
	}
	user, err := d.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}
	return user, nil
}

// ResolveActor maps a user id to an Actor. Unknown or inactive users are
// unauthorized.
func (d *Directory) ResolveActor(ctx context.Context, id uuid.UUID) (Actor, *models.User, error) {
	if id == uuid.Nil {
		return Actor{}, nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor identity missing")
	}
	user, err := d.Lookup(ctx, id)
	if err != nil {
		if pkgerrors.Is(err, pkgerrors.CodeNotFound) {
			return Actor{}, nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor not recognized")
		}
		return Actor{}, nil, err
	}
	if !user.IsActive {
		return Actor{}, nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor is inactive")
	}
	return Actor{UserID: user.ID, Role: user.Role, ProductGroup: user.ProductGroup}, user, nil
}

// Register validates and stores a new directory entry.
func (d *Directory) Register(ctx context.Context, dto CreateUserDTO) (*models.User, error) {
	dto = dto.Normalize()
	if err := validators.Struct(dto); err != nil {
		return nil, err
	}
	if !dto.Role.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid role").
			WithDetails(map[string]string{"role": "is invalid"})
	}
	if dto.Role == enums.UserRoleChef && (dto.ProductGroup == nil || !dto.ProductGroup.IsValid()) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "chef requires a product group").
			WithDetails(map[string]string{"product_group": "is required"})
	}
	user, err := d.repo.Create(ctx, dto)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create user")
	}
	return user, nil
}
