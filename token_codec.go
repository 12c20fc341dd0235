package sso

import (
	"fmt"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
)

// TokenCodec mints and validates first-party access tokens (HS256) and
// decodes provider issued id tokens. No network I/O happens here unless a
// JWKS source is configured for id token verification.
type TokenCodec struct {
	signingKey      []byte
	tokenExpiration int
	issuer          string
	audience        jwt.ClaimStrings
	idTokenKeyfunc  jwt.Keyfunc
	logger          Logger
}

// NewTokenCodec creates a new TokenCodec. tokenExpiration is in hours.
func NewTokenCodec(signingKey []byte, tokenExpiration int, issuer string, audience jwt.ClaimStrings, logger Logger) *TokenCodec {
	if logger == nil {
		logger = defLogger{}
	}
	return &TokenCodec{
		signingKey:      signingKey,
		tokenExpiration: tokenExpiration,
		issuer:          issuer,
		audience:        audience,
		logger:          logger,
	}
}

// WithIDTokenJWKS configures signature verification of provider id tokens
// against a JWK Set URL. Without it, id tokens are decoded unverified, which
// is acceptable only for tokens received directly over the provider's TLS
// token endpoint.
func (tc *TokenCodec) WithIDTokenJWKS(jwksURL string) (*TokenCodec, error) {
	jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{
		RefreshInterval: time.Hour,
		RefreshErrorHandler: func(err error) {
			tc.logger.Error("JWKS refresh failed", "error", err)
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryOperation, "failed to load JWK Set")
	}
	tc.idTokenKeyfunc = jwks.Keyfunc
	return tc, nil
}

// WithIDTokenKeyfunc sets a custom keyfunc for id token verification.
func (tc *TokenCodec) WithIDTokenKeyfunc(fn jwt.Keyfunc) *TokenCodec {
	tc.idTokenKeyfunc = fn
	return tc
}

// Generate mints an access token bound to the user's current roles with the
// configured fixed expiration.
func (tc *TokenCodec) Generate(user *User) (string, error) {
	if user == nil {
		return "", errors.New("user must not be nil", errors.CategoryBadInput)
	}

	now := time.Now()
	claims := &JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tc.issuer,
			Subject:   user.ID.String(),
			Audience:  tc.audience,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(tc.tokenExpiration) * time.Hour)),
		},
		UID:       user.ID.String(),
		UserRoles: user.Roles,
		ActorKind: ActorKindUser,
		Email:     user.Email,
	}

	return tc.SignClaims(claims)
}

// SignClaims signs arbitrary claims using the configured signing key.
func (tc *TokenCodec) SignClaims(claims *JWTClaims) (string, error) {
	if claims == nil {
		return "", errors.New("claims must not be nil", errors.CategoryInternal)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedString, err := token.SignedString(tc.signingKey)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign JWT")
	}

	return signedString, nil
}

// Validate parses and validates an access token, returning structured claims.
func (tc *TokenCodec) Validate(tokenString string) (AuthClaims, error) {
	parserOptions := make([]jwt.ParserOption, 0, 2)
	if tc.issuer != "" {
		parserOptions = append(parserOptions, jwt.WithIssuer(tc.issuer))
	}
	if len(tc.audience) > 0 {
		parserOptions = append(parserOptions, jwt.WithAudience(tc.audience...))
	}

	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			tc.logger.Error("TokenCodec validate encountered unexpected signing method", "alg", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return tc.signingKey, nil
	}, parserOptions...)

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, errors.Wrap(err, ErrTokenMalformed.Category, ErrTokenMalformed.Message).WithTextCode(ErrTokenMalformed.TextCode)
	}

	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid {
		return claims, nil
	}

	tc.logger.Error("TokenCodec validate could not decode or validate claims")
	return nil, ErrTokenMalformed
}

// DecodeIdentity decodes a provider id token into its identity payload.
// Signature verification runs only when a JWKS source is configured.
func (tc *TokenCodec) DecodeIdentity(idToken string) (*IdentityPayload, error) {
	if idToken == "" {
		return nil, errors.New("empty id token", errors.CategoryBadInput)
	}

	claims := jwt.MapClaims{}
	var err error

	if tc.idTokenKeyfunc != nil {
		_, err = jwt.ParseWithClaims(idToken, claims, tc.idTokenKeyfunc)
	} else {
		_, _, err = jwt.NewParser().ParseUnverified(idToken, claims)
	}

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, errors.Wrap(err, ErrTokenMalformed.Category, "failed to decode id token").WithTextCode(ErrTokenMalformed.TextCode)
	}

	payload := &IdentityPayload{Raw: map[string]any(claims)}

	if sub, ok := claims["sub"].(string); ok {
		payload.Subject = sub
	}
	if email, ok := claims["email"].(string); ok {
		payload.Email = email
	}
	switch verified := claims["email_verified"].(type) {
	case bool:
		payload.EmailVerified = verified
	case string:
		// Google has historically sent this claim as a string
		payload.EmailVerified = verified == "true"
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		payload.ExpiresAt = exp.Time
	}

	if payload.Email == "" {
		return nil, errors.New("id token has no email claim", errors.CategoryBadInput).
			WithTextCode(ErrTokenMalformed.TextCode)
	}

	return payload, nil
}
