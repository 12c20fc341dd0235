package sso

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AuthClaims is the read surface of a validated access token.
type AuthClaims interface {
	Subject() string
	UserID() string
	Roles() []UserRole
	Kind() ActorKind
	HasRole(role UserRole) bool
	IsAtLeast(minRole UserRole) bool
	Expires() time.Time
	IssuedAt() time.Time
}

// JWTClaims is the concrete claims set minted into access tokens.
type JWTClaims struct {
	jwt.RegisteredClaims
	UID       string     `json:"uid,omitempty"`
	UserRoles []UserRole `json:"roles,omitempty"`
	ActorKind ActorKind  `json:"kind,omitempty"`
	Email     string     `json:"email,omitempty"`
}

var _ AuthClaims = (*JWTClaims)(nil)

// Subject returns the subject claim
func (c *JWTClaims) Subject() string {
	return c.RegisteredClaims.Subject
}

// UserID returns the user ID, falling back to the subject
func (c *JWTClaims) UserID() string {
	if c.UID != "" {
		return c.UID
	}
	return c.Subject()
}

// Roles returns the roles minted into the token
func (c *JWTClaims) Roles() []UserRole {
	return c.UserRoles
}

// Kind returns the actor discriminator, defaulting to a user token
func (c *JWTClaims) Kind() ActorKind {
	if c.ActorKind == "" {
		return ActorKindUser
	}
	return c.ActorKind
}

// HasRole checks if the token carries a specific role
func (c *JWTClaims) HasRole(role UserRole) bool {
	for _, r := range c.UserRoles {
		if r == role {
			return true
		}
	}
	return false
}

// IsAtLeast checks if the token's highest role meets the minimum level
func (c *JWTClaims) IsAtLeast(minRole UserRole) bool {
	return RoleIsAtLeast(HighestRole(c.UserRoles), minRole)
}

// Expires returns the expiration time, zero when absent
func (c *JWTClaims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt == nil {
		return time.Time{}
	}
	return c.RegisteredClaims.ExpiresAt.Time
}

// IssuedAt returns the issuance time, zero when absent
func (c *JWTClaims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt == nil {
		return time.Time{}
	}
	return c.RegisteredClaims.IssuedAt.Time
}
