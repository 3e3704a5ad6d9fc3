package users

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/fulfillment-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/fulfillment-backend/pkg/errors"
	"github.com/angelmondragon/fulfillment-backend/pkg/outbox"
)

// Actor is the resolved identity a core operation runs under.
type Actor struct {
	UserID       uuid.UUID
	Role         enums.UserRole
	ProductGroup *enums.ProductGroup
}

// Require fails unless the actor is identified and holds one of roles.
func (a Actor) Require(roles ...enums.UserRole) error {
	if a.UserID == uuid.Nil || !a.Role.IsValid() {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "actor identity missing")
	}
	for _, role := range roles {
		if a.Role == role {
			return nil
		}
	}
	return pkgerrors.New(pkgerrors.CodeForbidden, "role not permitted").
		WithDetails(map[string]any{"role": a.Role})
}

func (a Actor) IsAdmin() bool {
	return a.Role == enums.UserRoleAdmin
}

// Ref returns the outbox actor reference for events emitted on behalf of a.
func (a Actor) Ref() *outbox.ActorRef {
	if a.UserID == uuid.Nil {
		return nil
	}
	return &outbox.ActorRef{UserID: a.UserID, Role: a.Role}
}
