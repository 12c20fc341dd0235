package session

import (
	"strings"
	"time"

	"github.com/goliatone/go-sso"
)

// Decision is the outcome of inspecting inbound cookies.
type Decision string

const (
	// DecisionResolved means the actor is already resolved for this request
	// cycle; no gateway call is made.
	DecisionResolved Decision = "resolved"
	// DecisionNeedsFetch means the logged-in actor must be fetched from the
	// identity frontend gateway.
	DecisionNeedsFetch Decision = "needs-fetch"
	// DecisionNoActor means the request carries no session at all.
	DecisionNoActor Decision = "no-actor"
)

// Request is the inbound state the resolver works on.
type Request struct {
	Cookies map[string]string
	Path    string
}

// Resolution holds the decision plus the outbound cookie/header mutations
// and an optional language redirect.
type Resolution struct {
	Decision     Decision
	Actor        *sso.Actor
	Session      *SessionCookie
	Mutations    []CookieMutation
	RedirectPath string
}

// Resolver decides whether a session is already resolved or must be
// re-fetched, and computes the outbound mutations. It holds no per-request
// state and is safe for concurrent use.
type Resolver struct {
	markerTTL time.Duration
	logger    sso.Logger
}

// ResolverOption configures the resolver.
type ResolverOption func(*Resolver)

// WithMarkerTTL overrides the marker cookie lifetime.
func WithMarkerTTL(ttl time.Duration) ResolverOption {
	return func(r *Resolver) {
		if ttl > 0 {
			r.markerTTL = ttl
		}
	}
}

// WithLogger sets the resolver logger.
func WithLogger(logger sso.Logger) ResolverOption {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewResolver creates a resolver with the default 60s marker TTL.
func NewResolver(opts ...ResolverOption) *Resolver {
	r := &Resolver{
		markerTTL: DefaultMarkerTTL,
		logger:    sso.NoopLogger(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Resolve inspects the inbound cookies. A single user session whose
// companion user-<sessionID> marker matches its value is a cache hit and
// resolves without any provider call. A request with no session cookies at
// all resolves to no actor, clearing stale identity cookies idempotently.
// Everything else needs a gateway fetch; see ApplyFetch.
func (r *Resolver) Resolve(req Request) Resolution {
	users, patients := splitSessionCookies(req.Cookies)

	if len(users) == 1 {
		s := users[0]
		if s.Value != "" && req.Cookies[userMarkerPrefix+s.ID] == s.Value {
			res := Resolution{Decision: DecisionResolved, Session: &s}
			if encoded := req.Cookies[CookieLoggedUser]; encoded != "" {
				actor, err := sso.DecodeActor(encoded)
				if err != nil {
					r.logger.Debug("ignoring undecodable logged-user cookie", "error", err)
				} else {
					res.Actor = actor
				}
			}
			return res
		}
	}

	if len(users) == 0 && len(patients) == 0 {
		return Resolution{Decision: DecisionNoActor, Mutations: r.clearMutations(req)}
	}

	res := Resolution{Decision: DecisionNeedsFetch}
	if len(users) == 1 {
		s := users[0]
		res.Session = &s
	}
	return res
}

// ApplyFetch folds a gateway fetch result into the resolution. On success
// with an actor it computes the identity cookie mutations, the 60s user
// marker, and the language redirect decision; on failure or a nil actor it
// clears the identity cookies.
func (r *Resolver) ApplyFetch(req Request, res Resolution, fetched *FetchedActor, fetchErr error) Resolution {
	if fetchErr != nil {
		r.logger.Warn("identity fetch failed", "error", fetchErr)
	}

	if fetchErr != nil || fetched == nil || fetched.Actor == nil {
		res.Decision = DecisionNoActor
		res.Actor = nil
		res.Mutations = append(res.Mutations, r.clearMutations(req)...)
		return res
	}

	actor := fetched.Actor
	encoded, err := sso.EncodeActor(actor)
	if err != nil {
		r.logger.Error("failed to encode actor for cookie", "error", err)
		res.Decision = DecisionNoActor
		res.Actor = nil
		res.Mutations = append(res.Mutations, r.clearMutations(req)...)
		return res
	}

	mutations := []CookieMutation{
		{Name: CookieLoggedUser, Value: encoded, MirrorHeader: true},
		{Name: CookieAuthToken, Value: fetched.Token, MirrorHeader: true},
	}
	if actor.IsUser() && res.Session != nil {
		mutations = append(mutations, CookieMutation{
			Name:     userMarkerPrefix + res.Session.ID,
			Value:    res.Session.Value,
			MaxAge:   r.markerTTL,
			HTTPOnly: true,
		})
	}

	res.Decision = DecisionResolved
	res.Actor = actor
	res.Mutations = mutations

	// language redirect applies only to users on a new session
	if actor.IsUser() {
		if _, hadActor := req.Cookies[CookieLoggedUser]; !hadActor {
			res.RedirectPath = redirectForLanguage(req.Path, actor.PreferredLanguage())
		}
	}

	return res
}

// clearMutations clears the identity cookies. Clearing absent cookies is a
// no-op so repeated clears stay idempotent.
func (r *Resolver) clearMutations(req Request) []CookieMutation {
	var mutations []CookieMutation
	if _, ok := req.Cookies[CookieLoggedUser]; ok {
		mutations = append(mutations, CookieMutation{Name: CookieLoggedUser, Clear: true, MirrorHeader: true})
	}
	if _, ok := req.Cookies[CookieAuthToken]; ok {
		mutations = append(mutations, CookieMutation{Name: CookieAuthToken, Clear: true, MirrorHeader: true})
	}
	return mutations
}

// NormalizeLanguage maps stored language preferences to URL prefixes: the
// bokmål code nb maps to the no prefix, everything else passes through.
func NormalizeLanguage(lang string) string {
	if lang == "nb" {
		return "no"
	}
	return lang
}

// redirectForLanguage returns the path rewritten with the preferred language
// prefix, empty when no redirect applies.
func redirectForLanguage(path, preferred string) string {
	if preferred == "" || path == "" {
		return ""
	}

	want := NormalizeLanguage(preferred)

	trimmed := strings.TrimPrefix(path, "/")
	segments := strings.SplitN(trimmed, "/", 2)
	if len(segments) == 0 || segments[0] == "" {
		return ""
	}

	current := segments[0]
	if !isLanguagePrefix(current) || current == want {
		return ""
	}

	rest := ""
	if len(segments) == 2 && segments[1] != "" {
		rest = "/" + segments[1]
	}
	return "/" + want + rest
}

func isLanguagePrefix(segment string) bool {
	switch segment {
	case "no", "nb", "nn", "en", "se":
		return true
	default:
		return false
	}
}
