package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenClaims is the bearer token issued by the identity service.
// Staff tokens may manage any vendor; other users only the vendors they own.
type AccessTokenClaims struct {
	UserID uuid.UUID `json:"user_id"`
	Staff  bool      `json:"staff,omitempty"`
	jwt.RegisteredClaims
}

// Actor is the authenticated caller as seen by the services.
type Actor struct {
	UserID uuid.UUID
	Staff  bool
}

// Actor projects the claims onto the caller identity.
func (c *AccessTokenClaims) Actor() Actor {
	if c == nil {
		return Actor{}
	}
	return Actor{UserID: c.UserID, Staff: c.Staff}
}

// CanManage reports whether the actor may manage a resource owned by ownerID.
func (a Actor) CanManage(ownerID uuid.UUID) bool {
	if a.Staff {
		return true
	}
	return a.UserID != uuid.Nil && a.UserID == ownerID
}
