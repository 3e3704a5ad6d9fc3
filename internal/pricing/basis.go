package pricing

import (
	"github.com/angelmondragon/fulfillment-backend/pkg/enums"
)

// SelectPriceBasis returns the basis a viewer in role sees prices in.
func SelectPriceBasis(role enums.UserRole) enums.PriceBasis {
	switch role {
	case enums.UserRoleAdmin, enums.UserRoleDistributor:
		return enums.PriceBasisWholesale
	default:
		return enums.PriceBasisRetail
	}
}
