package session

import (
	"net/http"
	"net/url"
	"time"

	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/goliatone/go-sso"
)

// ActorContextKey is the router locals key holding the resolved actor.
const ActorContextKey = "actor"

const defaultCookieTTL = 24 * time.Hour

// Config wires the session middleware.
type Config struct {
	Resolver *Resolver
	Gateway  Gateway
	Logger   sso.Logger
	// ErrorHandler handles gateway failures that left the request without an
	// actor. The default logs and continues unauthenticated.
	ErrorHandler func(c router.Context, err error) error
}

// Middleware resolves the effective actor for each request: cache hits skip
// the gateway, misses fetch the logged-in actor, and the computed cookie
// mutations (with mirrored logged-user/authToken headers) are applied to the
// response. A language redirect short-circuits the chain.
func Middleware(cfg Config) router.MiddlewareFunc {
	if cfg.Resolver == nil {
		cfg.Resolver = NewResolver()
	}
	if cfg.Logger == nil {
		cfg.Logger = sso.DefaultLogger()
	}

	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			rawCookies := ctx.GetString("Cookie", "")
			req := Request{
				Cookies: ParseCookieHeader(rawCookies),
				Path:    requestPath(ctx),
			}

			res := cfg.Resolver.Resolve(req)

			if res.Decision == DecisionNeedsFetch {
				var fetched *FetchedActor
				var err error
				if cfg.Gateway != nil {
					fetched, err = cfg.Gateway.FetchLoggedInUser(ctx.Context(), rawCookies)
				}
				res = cfg.Resolver.ApplyFetch(req, res, fetched, err)
				if err != nil {
					cfg.Logger.Warn("session fetch failed",
						"path", req.Path,
						"error", err,
					)
					if cfg.ErrorHandler != nil {
						applyMutations(ctx, res.Mutations)
						return cfg.ErrorHandler(ctx, err)
					}
				}
			}

			applyMutations(ctx, res.Mutations)

			if res.RedirectPath != "" {
				cfg.Logger.Debug("language redirect",
					"from", req.Path,
					"to", res.RedirectPath,
				)
				return ctx.Redirect(res.RedirectPath, http.StatusTemporaryRedirect)
			}

			if res.Actor != nil {
				ctx.Locals(ActorContextKey, res.Actor)
				ctx.SetContext(sso.WithActorContext(ctx.Context(), res.Actor))
				cfg.Logger.Debug("actor resolved", "kind", res.Actor.Kind(), "detail", print.MaybePrettyJSON(res.Actor))
			}

			return ctx.Next()
		}
	}
}

// ActorFromRouter reads the resolved actor from router locals.
func ActorFromRouter(ctx router.Context) (*sso.Actor, bool) {
	raw := ctx.Locals(ActorContextKey)
	if raw == nil {
		return nil, false
	}
	actor, ok := raw.(*sso.Actor)
	return actor, ok
}

func applyMutations(ctx router.Context, mutations []CookieMutation) {
	for _, m := range mutations {
		if m.Clear {
			ctx.Cookie(&router.Cookie{
				Name:     m.Name,
				Value:    "",
				Path:     "/",
				Expires:  time.Now().Add(-time.Hour * (24 * 365)),
				HTTPOnly: m.HTTPOnly,
				Secure:   true,
				SameSite: "Lax",
			})
			if m.MirrorHeader {
				ctx.SetHeader(m.Name, "")
			}
			continue
		}

		maxAge := m.MaxAge
		if maxAge == 0 {
			maxAge = defaultCookieTTL
		}
		ctx.Cookie(&router.Cookie{
			Name:     m.Name,
			Value:    m.Value,
			Path:     "/",
			Expires:  time.Now().Add(maxAge),
			HTTPOnly: m.HTTPOnly,
			Secure:   true,
			SameSite: "Lax",
		})
		if m.MirrorHeader {
			ctx.SetHeader(m.Name, m.Value)
		}
	}
}

func requestPath(ctx router.Context) string {
	original := ctx.OriginalURL()
	if original == "" {
		return "/"
	}
	if u, err := url.Parse(original); err == nil && u.Path != "" {
		return u.Path
	}
	return original
}
