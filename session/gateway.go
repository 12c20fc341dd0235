package session

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-sso"
)

// FetchedActor is the identity frontend's answer for a cookie set: the
// resolved actor plus the access token the frontend should carry.
type FetchedActor struct {
	Actor *sso.Actor `json:"actor"`
	Token string     `json:"token,omitempty"`
}

// Gateway fetches the logged-in actor for a raw cookie header. A nil result
// with a nil error means no actor is logged in.
type Gateway interface {
	FetchLoggedInUser(ctx context.Context, cookieHeader string) (*FetchedActor, error)
}

// GatewayFunc adapts a function to the Gateway interface.
type GatewayFunc func(ctx context.Context, cookieHeader string) (*FetchedActor, error)

// FetchLoggedInUser implements Gateway.
func (f GatewayFunc) FetchLoggedInUser(ctx context.Context, cookieHeader string) (*FetchedActor, error) {
	if f == nil {
		return nil, nil
	}
	return f(ctx, cookieHeader)
}

// HTTPGateway talks to the identity frontend endpoint over HTTP, forwarding
// the inbound cookie header.
type HTTPGateway struct {
	endpoint   string
	httpClient *http.Client
}

// NewHTTPGateway creates a gateway for the given endpoint. A nil client gets
// a 10 second timeout.
func NewHTTPGateway(endpoint string, client *http.Client) *HTTPGateway {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &HTTPGateway{
		endpoint:   endpoint,
		httpClient: client,
	}
}

// FetchLoggedInUser implements Gateway.
func (g *HTTPGateway) FetchLoggedInUser(ctx context.Context, cookieHeader string) (*FetchedActor, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.endpoint, nil)
	if err != nil {
		return nil, err
	}
	if cookieHeader != "" {
		req.Header.Set("Cookie", cookieHeader)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryOperation, "identity fetch failed")
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusNoContent, http.StatusNotFound, http.StatusUnauthorized:
		return nil, nil
	case http.StatusOK:
		// fallthrough to decode
	default:
		return nil, errors.New("identity fetch returned unexpected status", errors.CategoryOperation).
			WithMetadata(map[string]any{"status": resp.StatusCode})
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryOperation, "failed to read identity response")
	}

	fetched := &FetchedActor{}
	if err := json.Unmarshal(body, fetched); err != nil {
		return nil, errors.Wrap(err, errors.CategoryOperation, "failed to decode identity response")
	}

	if fetched.Actor == nil {
		return nil, nil
	}
	if err := fetched.Actor.Validate(); err != nil {
		return nil, err
	}

	return fetched, nil
}
