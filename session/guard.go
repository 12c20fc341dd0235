package session

import (
	"strings"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
	"github.com/goliatone/go-sso"
)

// ClaimsContextKey is the router locals key holding validated claims.
const ClaimsContextKey = "claims"

// GuardConfig wires the route guard.
type GuardConfig struct {
	Codec *sso.TokenCodec
	// ContextKey overrides the locals key for claims.
	ContextKey string
	// Optional lets unauthenticated requests proceed without claims.
	Optional bool
	// ErrorHandler handles validation failures; defaults to returning the
	// rich error for the router's error chain.
	ErrorHandler func(c router.Context, err error) error
	Logger       sso.Logger
}

// Guard protects routes with the first-party access token: it looks in the
// Authorization header, the authToken cookie, and the authToken header, in
// that order, validates via TokenCodec and stores the claims in router
// locals and the request context.
func Guard(cfg GuardConfig) router.MiddlewareFunc {
	if cfg.ContextKey == "" {
		cfg.ContextKey = ClaimsContextKey
	}
	if cfg.Logger == nil {
		cfg.Logger = sso.DefaultLogger()
	}
	if cfg.ErrorHandler == nil {
		cfg.ErrorHandler = func(c router.Context, err error) error {
			return err
		}
	}

	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			token := tokenFromRequest(ctx)
			if token == "" {
				if cfg.Optional {
					return ctx.Next()
				}
				return cfg.ErrorHandler(ctx, errors.New("missing access token", errors.CategoryAuth).
					WithCode(errors.CodeUnauthorized))
			}

			claims, err := cfg.Codec.Validate(token)
			if err != nil {
				if cfg.Optional {
					cfg.Logger.Info("optional auth failed, proceeding", "error", err)
					return ctx.Next()
				}
				return cfg.ErrorHandler(ctx, err)
			}

			ctx.Locals(cfg.ContextKey, claims)
			ctx.SetContext(sso.WithClaimsContext(ctx.Context(), claims))

			return ctx.Next()
		}
	}
}

func tokenFromRequest(ctx router.Context) string {
	if header := ctx.GetString("Authorization", ""); header != "" {
		if token := BearerToken(header); token != "" {
			return token
		}
	}
	if cookie := ctx.Cookies(CookieAuthToken); cookie != "" {
		return cookie
	}
	return ctx.GetString(CookieAuthToken, "")
}

// BearerToken extracts the token from a Bearer authorization header value.
func BearerToken(header string) string {
	const scheme = "Bearer"
	if len(header) <= len(scheme) {
		return ""
	}
	if !strings.EqualFold(header[:len(scheme)], scheme) {
		return ""
	}
	return strings.TrimSpace(header[len(scheme):])
}
