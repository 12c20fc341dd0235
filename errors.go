package sso

import (
	"github.com/goliatone/go-errors"
)

const (
	TextCodeRefreshExpired    = "sso_refresh_token_expired"
	TextCodeRefreshInvalid    = "sso_refresh_token_invalid"
	TextCodeRefreshUnexpected = "sso_refresh_unexpected_failure"
	TextCodeUserNotFound      = "sso_user_not_found"
	TextCodeGoogleAuthFailed  = "sso_google_auth_failed"
	TextCodeLogoutFailed      = "sso_logout_failed"
)

// ErrExpiredRefreshToken is returned when a stored refresh token is past its
// expiry. It triggers full re-authentication, not single-token invalidation.
var ErrExpiredRefreshToken = errors.New("refresh token expired", errors.CategoryAuth).
	WithTextCode(TextCodeRefreshExpired).
	WithCode(errors.CodeUnauthorized)

// ErrInvalidRefreshToken is returned when the provider rejects a token as
// invalid or unknown.
var ErrInvalidRefreshToken = errors.New("invalid refresh token", errors.CategoryAuth).
	WithTextCode(TextCodeRefreshInvalid).
	WithCode(errors.CodeUnauthorized)

// ErrUserNotFound is returned when no local user matches the provider email.
var ErrUserNotFound = errors.New("user not found", errors.CategoryNotFound).
	WithTextCode(TextCodeUserNotFound).
	WithCode(errors.CodeNotFound)

// ErrUnexpectedRefreshFailure is the generic fallback for refresh exchanges.
var ErrUnexpectedRefreshFailure = errors.New("unexpected refresh failure", errors.CategoryInternal).
	WithTextCode(TextCodeRefreshUnexpected).
	WithCode(errors.CodeInternal)

// ErrGoogleAuthFailed is the single error surfaced by login/registration
// flows; internal detail never crosses the service boundary.
var ErrGoogleAuthFailed = errors.New("Google auth failed", errors.CategoryAuth).
	WithTextCode(TextCodeGoogleAuthFailed).
	WithCode(errors.CodeUnauthorized)

// ErrLogoutFailed is the generic fallback for revoke failures.
var ErrLogoutFailed = errors.New("unexpected error when logging out", errors.CategoryInternal).
	WithTextCode(TextCodeLogoutFailed).
	WithCode(errors.CodeInternal)

// ErrTokenExpired is returned when an access or id token is past its expiry.
var ErrTokenExpired = errors.New("token expired", errors.CategoryAuth).
	WithTextCode("sso_token_expired").
	WithCode(errors.CodeUnauthorized)

// ErrTokenMalformed is returned for tokens that fail parsing or signature
// verification.
var ErrTokenMalformed = errors.New("token malformed", errors.CategoryAuth).
	WithTextCode("sso_token_malformed").
	WithCode(errors.CodeUnauthorized)

// normalizeToKind implements the allow-list re-throw policy used at every
// public operation boundary: recognized kinds propagate verbatim, anything
// else is folded into the operation's fallback kind with the original error
// preserved as source.
func normalizeToKind(err error, fallback *errors.Error, allowed ...*errors.Error) error {
	if err == nil {
		return nil
	}

	for _, kind := range allowed {
		if kind != nil && errors.Is(err, kind) {
			return err
		}
	}

	clone := fallback.Clone()
	if clone == nil {
		clone = fallback
	}
	clone.Source = err
	return clone
}

// IsKind reports whether err matches the given taxonomy error.
func IsKind(err error, kind *errors.Error) bool {
	if err == nil || kind == nil {
		return false
	}
	return errors.Is(err, kind)
}
