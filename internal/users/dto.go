package users

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/fulfillment-backend/pkg/db/models"
	"github.com/angelmondragon/fulfillment-backend/pkg/enums"
)

// UserDTO is the read shape of a directory entry.
type UserDTO struct {
	ID            uuid.UUID           `json:"id"`
	Name          string              `json:"name"`
	Email         string              `json:"email"`
	Role          enums.UserRole      `json:"role"`
	DistributorID *uuid.UUID          `json:"distributor_id,omitempty"`
	ProductGroup  *enums.ProductGroup `json:"product_group,omitempty"`
	IsActive      bool                `json:"is_active"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// CreateUserDTO holds the data required to add a directory entry.
type CreateUserDTO struct {
	Name          string              `json:"name" validate:"required,notblank,max=120"`
	Email         string              `json:"email" validate:"required,email"`
	Role          enums.UserRole      `json:"role" validate:"required"`
	DistributorID *uuid.UUID          `json:"distributor_id"`
	ProductGroup  *enums.ProductGroup `json:"product_group"`
	IsActive      *bool               `json:"is_active"`
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}
	return &UserDTO{
		ID:            u.ID,
		Name:          u.Name,
		Email:         u.Email,
		Role:          u.Role,
		DistributorID: u.DistributorID,
		ProductGroup:  u.ProductGroup,
		IsActive:      u.IsActive,
		CreatedAt:     u.CreatedAt,
		UpdatedAt:     u.UpdatedAt,
	}
}

// Normalize trims the name and lowercases the email.
func (d CreateUserDTO) Normalize() CreateUserDTO {
	d.Name = strings.TrimSpace(d.Name)
	d.Email = strings.ToLower(strings.TrimSpace(d.Email))
	return d
}

func (d CreateUserDTO) ToModel() *models.User {
	d = d.Normalize()
	active := true
	if d.IsActive != nil {
		active = *d.IsActive
	}
	return &models.User{
		ID:            uuid.New(),
		Name:          d.Name,
		Email:         d.Email,
		Role:          d.Role,
		DistributorID: d.DistributorID,
		ProductGroup:  d.ProductGroup,
		IsActive:      active,
	}
}
