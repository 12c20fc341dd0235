package sso

import (
	"context"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/google/uuid"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// TokenSet is the transient value returned by the identity provider for a
// refresh exchange. The id token is opaque here; TokenCodec decodes it.
type TokenSet struct {
	AccessToken  string
	RefreshToken string
	IDToken      string
	ExpiresAt    time.Time
}

// IdentityPayload is the decoded content of a provider id token.
type IdentityPayload struct {
	Subject       string
	Email         string
	EmailVerified bool
	ExpiresAt     time.Time
	Raw           map[string]any
}

// ProviderUser is the profile asserted by the SSO provider during login.
type ProviderUser struct {
	Subject       string         `json:"sub"`
	Email         string         `json:"email"`
	EmailVerified bool           `json:"email_verified"`
	Name          string         `json:"name,omitempty"`
	Raw           map[string]any `json:"-"`
}

// Validate checks the minimum fields a login flow needs.
func (p ProviderUser) Validate() error {
	return validation.ValidateStruct(&p,
		validation.Field(&p.Subject, validation.Required),
		validation.Field(&p.Email, validation.Required, is.Email),
	)
}

// IdentityProviderClient abstracts the external SSO backend. Transport
// failures surface as generic provider errors; a recognized invalid token
// failure from Revoke surfaces as ErrInvalidRefreshToken.
type IdentityProviderClient interface {
	Refresh(ctx context.Context, refreshToken string) (*TokenSet, error)
	Revoke(ctx context.Context, token string) error
}

// RefreshTokens persists refresh tokens. Tokens are soft-deactivated, never
// deleted: issuing a new token deactivates all prior active ones for a user.
type RefreshTokens interface {
	Create(ctx context.Context, userID uuid.UUID, token string, method AuthMethod, expiresOn time.Time) (uuid.UUID, error)
	DeactivateAll(ctx context.Context, userID uuid.UUID) error
	UpdateLastUsed(ctx context.Context, token string) error
	FindByToken(ctx context.Context, token string) (*RefreshToken, error)
}

// Users is the user lookup/creation surface the auth flows need.
type Users interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	Create(ctx context.Context, user *User) (*User, error)
	GetOrCreate(ctx context.Context, user *User) (*User, bool, error)
	MarkEmailVerified(ctx context.Context, id uuid.UUID) error
}

// ProviderAccounts persists the provider-linkage record. Implementations must
// never retain access tokens at rest; see StripAccessToken.
type ProviderAccounts interface {
	Upsert(ctx context.Context, account *ProviderAccount) error
}

// EmailGateway delivers verification emails. Content and transport are out of
// scope for this module.
type EmailGateway interface {
	SendVerificationEmail(ctx context.Context, userID uuid.UUID, email string) error
}

// EmailGatewayFunc adapts a function to the EmailGateway interface.
type EmailGatewayFunc func(ctx context.Context, userID uuid.UUID, email string) error

// SendVerificationEmail implements EmailGateway.
func (f EmailGatewayFunc) SendVerificationEmail(ctx context.Context, userID uuid.UUID, email string) error {
	if f == nil {
		return nil
	}
	return f(ctx, userID, email)
}

// DefaultLogger returns the stdout fallback logger.
func DefaultLogger() Logger { return defLogger{} }

// NoopLogger returns a logger that discards everything.
func NoopLogger() Logger { return noopLogger{} }

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] SSO "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] SSO "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] SSO "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] SSO "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
