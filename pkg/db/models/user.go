package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/fulfillment-backend/pkg/enums"
)

// User is an entry of the role directory.
type User struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name          string              `gorm:"column:name;not null"`
	Email         string              `gorm:"column:email;type:text;not null;uniqueIndex"`
	Role          enums.UserRole      `gorm:"column:role;type:text;not null"`
	DistributorID *uuid.UUID          `gorm:"column:distributor_id;type:uuid"`
	ProductGroup  *enums.ProductGroup `gorm:"column:product_group;type:text"`
	IsActive      bool                `gorm:"column:is_active;not null"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// DistributorRef returns the distributor whose wholesale list applies to the
// user. Distributors price against their own list.
func (u *User) DistributorRef() *uuid.UUID {
	if u == nil {
		return nil
	}
	if u.Role == enums.UserRoleDistributor {
		id := u.ID
		return &id
	}
	return u.DistributorID
}
