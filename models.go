package sso

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// AuthMethod identifies how a credential was issued.
type AuthMethod string

const (
	MethodGoogleSSO AuthMethod = "google_sso"
	MethodPassword  AuthMethod = "password"
)

// User is the local user model
type User struct {
	bun.BaseModel  `bun:"table:users,alias:usr"`
	ID             uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Roles          []UserRole `bun:"roles,type:jsonb" json:"roles,omitempty"`
	FirstName      string     `bun:"first_name" json:"first_name,omitempty"`
	LastName       string     `bun:"last_name" json:"last_name,omitempty"`
	Email          string     `bun:"email,notnull,unique" json:"email,omitempty"`
	Language       string     `bun:"language" json:"language,omitempty"`
	EmailValidated bool       `bun:"is_email_verified" json:"is_email_verified,omitempty"`
	LoggedInAt     *time.Time `bun:"loggedin_at" json:"loggedin_at,omitempty"`
	CreatedAt      *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt      *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt      *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// Role returns the user's highest ranked role.
func (u *User) Role() UserRole {
	if u == nil {
		return RoleGuest
	}
	return HighestRole(u.Roles)
}

// RefreshToken is a long lived credential a user exchanges for access tokens.
// Rows are soft-deactivated, never deleted: at most one row is active per
// user at a time, issuing a new token deactivates all prior ones.
type RefreshToken struct {
	bun.BaseModel `bun:"table:refresh_tokens,alias:rft"`
	ID            uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID        uuid.UUID  `bun:"user_id,notnull,type:uuid" json:"user_id,omitempty"`
	Token         string     `bun:"token,notnull,unique" json:"-"`
	Method        AuthMethod `bun:"method,notnull" json:"method,omitempty"`
	ExpiresOn     time.Time  `bun:"expires_on,notnull" json:"expires_on,omitempty"`
	LastUsedAt    *time.Time `bun:"last_used_at" json:"last_used_at,omitempty"`
	Active        bool       `bun:"active,notnull" json:"active,omitempty"`
	CreatedAt     *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt     *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// Expired reports whether the token is past its expiry at the given instant.
func (t *RefreshToken) Expired(now time.Time) bool {
	if t == nil {
		return true
	}
	return now.After(t.ExpiresOn)
}

// ProviderAccount links a local user to an SSO provider identity. The raw
// provider payload is persisted for traceability, always with access tokens
// stripped first.
type ProviderAccount struct {
	bun.BaseModel  `bun:"table:provider_accounts,alias:pac"`
	ID             uuid.UUID      `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	UserID         uuid.UUID      `bun:"user_id,notnull,type:uuid" json:"user_id,omitempty"`
	Provider       string         `bun:"provider,notnull" json:"provider,omitempty"`
	ProviderUserID string         `bun:"provider_user_id,notnull" json:"provider_user_id,omitempty"`
	Email          string         `bun:"email" json:"email,omitempty"`
	Raw            map[string]any `bun:"raw,type:jsonb" json:"raw,omitempty"`
	CreatedAt      time.Time      `bun:"created_at,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt      time.Time      `bun:"updated_at,default:current_timestamp" json:"updated_at,omitempty"`
}

// StripAccessToken returns a copy of the payload without its access_token
// field. Access tokens are never retained at rest. Stripping an already
// stripped payload yields the same payload.
func StripAccessToken(raw map[string]any) map[string]any {
	if raw == nil {
		return nil
	}
	out := make(map[string]any, len(raw))
	for k, v := range raw {
		if k == "access_token" {
			continue
		}
		out[k] = v
	}
	return out
}
