package google

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-sso"
)

const (
	defaultTokenURL  = "https://oauth2.googleapis.com/token"
	defaultRevokeURL = "https://oauth2.googleapis.com/revoke"
)

// Config holds Google OAuth configuration.
type Config struct {
	ClientID     string
	ClientSecret string

	TokenURL  string
	RevokeURL string

	HTTPClient *http.Client
}

// Client implements sso.IdentityProviderClient against Google's OAuth
// endpoints.
type Client struct {
	config     Config
	httpClient *http.Client
}

var _ sso.IdentityProviderClient = (*Client)(nil)

// New creates a new Google client.
func New(cfg Config) *Client {
	if cfg.TokenURL == "" {
		cfg.TokenURL = defaultTokenURL
	}
	if cfg.RevokeURL == "" {
		cfg.RevokeURL = defaultRevokeURL
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	return &Client{
		config:     cfg,
		httpClient: client,
	}
}

// Refresh implements sso.IdentityProviderClient.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*sso.TokenSet, error) {
	data := url.Values{
		"client_id":     {c.config.ClientID},
		"client_secret": {c.config.ClientSecret},
		"refresh_token": {refreshToken},
		"grant_type":    {"refresh_token"},
	}

	body, status, err := c.postForm(ctx, c.config.TokenURL, data)
	if err != nil {
		return nil, err
	}

	var tokenResp googleTokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return nil, providerError("refresh", status, "invalid_response", "failed to decode refresh response", err)
	}

	if status != http.StatusOK || tokenResp.Error != "" {
		if isInvalidTokenCode(tokenResp.Error) {
			return nil, sso.ErrInvalidRefreshToken.Clone().
				WithMetadata(map[string]any{"code": tokenResp.Error, "description": tokenResp.ErrorDesc})
		}
		return nil, providerError("refresh", status, tokenResp.Error, tokenResp.ErrorDesc, nil)
	}
	if tokenResp.AccessToken == "" {
		return nil, providerError("refresh", status, "missing_access_token", "missing access token", nil)
	}

	expiresAt := time.Time{}
	if tokenResp.ExpiresIn > 0 {
		expiresAt = time.Now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second)
	}

	return &sso.TokenSet{
		AccessToken:  tokenResp.AccessToken,
		RefreshToken: tokenResp.RefreshToken,
		IDToken:      tokenResp.IDToken,
		ExpiresAt:    expiresAt,
	}, nil
}

// Revoke implements sso.IdentityProviderClient. Google answers 200 on
// success and 400 with an OAuth error body when the token is unknown.
func (c *Client) Revoke(ctx context.Context, token string) error {
	data := url.Values{
		"token": {token},
	}

	body, status, err := c.postForm(ctx, c.config.RevokeURL, data)
	if err != nil {
		return err
	}

	if status == http.StatusOK {
		return nil
	}

	var errResp googleTokenResponse
	if err := json.Unmarshal(body, &errResp); err == nil && isInvalidTokenCode(errResp.Error) {
		return sso.ErrInvalidRefreshToken.Clone().
			WithMetadata(map[string]any{"code": errResp.Error, "description": errResp.ErrorDesc})
	}

	return providerError("revoke", status, errResp.Error, errResp.ErrorDesc, nil)
}

func (c *Client) postForm(ctx context.Context, endpoint string, data url.Values) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, errors.Wrap(err, errors.CategoryOperation, "google request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, errors.Wrap(err, errors.CategoryOperation, "failed to read google response")
	}

	return body, resp.StatusCode, nil
}

type googleTokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	IDToken      string `json:"id_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	Scope        string `json:"scope"`
	Error        string `json:"error"`
	ErrorDesc    string `json:"error_description"`
}

func isInvalidTokenCode(code string) bool {
	switch code {
	case "invalid_grant", "invalid_token":
		return true
	default:
		return false
	}
}

func providerError(operation string, status int, code, description string, source error) error {
	meta := map[string]any{
		"provider":  "google",
		"operation": operation,
	}
	if status != 0 {
		meta["status"] = status
	}
	if code != "" {
		meta["code"] = code
	}
	if description != "" {
		meta["description"] = description
	}

	err := errors.New("google "+operation+" failed", errors.CategoryOperation).
		WithMetadata(meta)
	if source != nil {
		err.Source = source
	}
	return err
}
