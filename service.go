package sso

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
)

const googleProviderName = "google"

// AuthActorService orchestrates login, registration, refresh token exchange,
// and revocation against the identity provider and the local stores. Every
// login/registration attempt writes exactly one audit event before the call
// returns.
type AuthActorService struct {
	users           Users
	refreshTokens   RefreshTokens
	accounts        ProviderAccounts
	provider        IdentityProviderClient
	codec           *TokenCodec
	audit           AuditSink
	email           EmailGateway
	refreshTokenTTL time.Duration
	callTimeout     time.Duration
	defaultRoles    []UserRole
	defaultLanguage string
	logger          Logger
	now             func() time.Time
}

// ServiceOption configures the service.
type ServiceOption func(*AuthActorService)

// NewAuthActorService wires the auth flows with their collaborators.
func NewAuthActorService(
	users Users,
	refreshTokens RefreshTokens,
	provider IdentityProviderClient,
	codec *TokenCodec,
	opts ...ServiceOption,
) *AuthActorService {
	s := &AuthActorService{
		users:           users,
		refreshTokens:   refreshTokens,
		provider:        provider,
		codec:           codec,
		audit:           noopAuditSink{},
		refreshTokenTTL: 30 * 24 * time.Hour,
		callTimeout:     10 * time.Second,
		defaultRoles:    []UserRole{RoleStaff},
		defaultLanguage: "nb",
		logger:          defLogger{},
		now:             time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	return s
}

// WithAuditSink sets the audit sink for authentication events.
func WithAuditSink(sink AuditSink) ServiceOption {
	return func(s *AuthActorService) {
		s.audit = normalizeAuditSink(sink)
	}
}

// WithProviderAccounts sets the provider-linkage store.
func WithProviderAccounts(accounts ProviderAccounts) ServiceOption {
	return func(s *AuthActorService) {
		s.accounts = accounts
	}
}

// WithEmailGateway sets the gateway used for verification email dispatch.
func WithEmailGateway(gw EmailGateway) ServiceOption {
	return func(s *AuthActorService) {
		s.email = gw
	}
}

// WithLogger sets the service logger.
func WithLogger(logger Logger) ServiceOption {
	return func(s *AuthActorService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithRefreshTokenTTL sets the lifetime of newly persisted refresh tokens.
func WithRefreshTokenTTL(ttl time.Duration) ServiceOption {
	return func(s *AuthActorService) {
		if ttl > 0 {
			s.refreshTokenTTL = ttl
		}
	}
}

// WithCallTimeout bounds every identity provider call.
func WithCallTimeout(timeout time.Duration) ServiceOption {
	return func(s *AuthActorService) {
		if timeout > 0 {
			s.callTimeout = timeout
		}
	}
}

// WithDefaultRoles sets the roles granted to users created on registration.
func WithDefaultRoles(roles ...UserRole) ServiceOption {
	return func(s *AuthActorService) {
		if len(roles) > 0 {
			s.defaultRoles = roles
		}
	}
}

// WithDefaultLanguage sets the language for users created on registration.
func WithDefaultLanguage(lang string) ServiceOption {
	return func(s *AuthActorService) {
		if lang != "" {
			s.defaultLanguage = lang
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *AuthActorService) {
		if now != nil {
			s.now = now
		}
	}
}

// Login completes a Google SSO login: resolve the local user by provider
// email, rotate refresh tokens when a new one was supplied, upsert the
// provider linkage, promote local verification when the provider asserts it,
// and mint an access token. Any failure is audited once and surfaced as
// ErrGoogleAuthFailed; internal detail never reaches the caller.
func (s *AuthActorService) Login(ctx context.Context, providerUser ProviderUser, refreshToken string, meta RequestMeta) (string, error) {
	var user *User
	var tokenID *uuid.UUID

	access, err := func() (string, error) {
		if err := providerUser.Validate(); err != nil {
			return "", err
		}

		var err error
		// not-found is fatal for login: registration is a separate flow
		if user, err = s.users.FindByEmail(ctx, normalizeEmail(providerUser.Email)); err != nil {
			return "", err
		}

		if refreshToken != "" {
			if err := s.refreshTokens.DeactivateAll(ctx, user.ID); err != nil {
				return "", err
			}
			id, err := s.refreshTokens.Create(ctx, user.ID, refreshToken, MethodGoogleSSO, s.now().Add(s.refreshTokenTTL))
			if err != nil {
				return "", err
			}
			tokenID = &id
		}

		if err := s.upsertLinkage(ctx, user, providerUser); err != nil {
			return "", err
		}

		if !user.EmailValidated {
			if providerUser.EmailVerified {
				// provider-verified promotes local status; never the reverse
				if err := s.users.MarkEmailVerified(ctx, user.ID); err != nil {
					return "", err
				}
				user.EmailValidated = true
			} else {
				s.dispatchVerificationEmail(ctx, user)
			}
		}

		access, err := s.codec.Generate(user)
		if err != nil {
			return "", err
		}

		s.recordEvent(ctx, AuthEventLogin, AuthEventSuccess, user, meta, "", tokenID)
		return access, nil
	}()

	if err != nil {
		s.logger.Error("Google login failed", "error", err)
		s.recordEvent(ctx, AuthEventLogin, AuthEventFailure, user, meta, failureReasonUnexpected, tokenID)
		return "", normalizeToKind(err, ErrGoogleAuthFailed)
	}

	return access, nil
}

// Register creates the local user for a provider profile. User ids are
// derived deterministically from the email so repeated registrations
// converge on the same record.
func (s *AuthActorService) Register(ctx context.Context, providerUser ProviderUser, meta RequestMeta) (*User, error) {
	var user *User

	err := func() error {
		if err := providerUser.Validate(); err != nil {
			return err
		}

		candidate := &User{
			Email:          normalizeEmail(providerUser.Email),
			Roles:          s.defaultRoles,
			Language:       s.defaultLanguage,
			EmailValidated: providerUser.EmailVerified,
		}
		if id, err := hashid.NewUUID(candidate.Email); err == nil {
			candidate.ID = id
		}

		var created bool
		var err error
		if user, created, err = s.users.GetOrCreate(ctx, candidate); err != nil {
			return err
		}

		if err := s.upsertLinkage(ctx, user, providerUser); err != nil {
			return err
		}

		if created && !user.EmailValidated {
			s.dispatchVerificationEmail(ctx, user)
		}

		s.recordEvent(ctx, AuthEventRegistration, AuthEventSuccess, user, meta, "", nil)
		return nil
	}()

	if err != nil {
		s.logger.Error("Google registration failed", "error", err)
		s.recordEvent(ctx, AuthEventRegistration, AuthEventFailure, user, meta, failureReasonUnexpected, nil)
		return nil, normalizeToKind(err, ErrGoogleAuthFailed)
	}

	return user, nil
}

// RefreshResult is the outcome of a refresh exchange. NewRefreshToken is
// empty when the provider did not rotate; callers keep using the stored one.
type RefreshResult struct {
	AccessToken     string
	NewRefreshToken string
	User            *User
}

// Refresh exchanges a stored refresh token for a fresh access token. An
// expired stored token deactivates the user's whole token family and fails
// with ErrExpiredRefreshToken regardless of provider reachability; that is a
// trigger for full re-authentication. ErrExpiredRefreshToken, ErrUserNotFound
// and ErrInvalidRefreshToken propagate verbatim, everything else is
// normalized to ErrUnexpectedRefreshFailure.
func (s *AuthActorService) Refresh(ctx context.Context, stored *RefreshToken, userID uuid.UUID) (*RefreshResult, error) {
	if stored == nil {
		return nil, ErrInvalidRefreshToken
	}

	if stored.Expired(s.now()) {
		if err := s.refreshTokens.DeactivateAll(ctx, userID); err != nil {
			s.logger.Error("failed to deactivate refresh tokens", "user_id", userID, "error", err)
		}
		return nil, ErrExpiredRefreshToken
	}

	result, err := s.refresh(ctx, stored, userID)
	if err != nil {
		s.logger.Error("refresh exchange failed", "user_id", userID, "error", err)
		return nil, normalizeToKind(err, ErrUnexpectedRefreshFailure,
			ErrExpiredRefreshToken, ErrUserNotFound, ErrInvalidRefreshToken)
	}

	return result, nil
}

func (s *AuthActorService) refresh(ctx context.Context, stored *RefreshToken, userID uuid.UUID) (*RefreshResult, error) {
	// call-then-deactivate: a failed provider call must leave the previous
	// token active
	tctx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	set, err := s.provider.Refresh(tctx, stored.Token)
	if err != nil {
		return nil, err
	}
	if set == nil || set.AccessToken == "" {
		return nil, errors.New("provider returned no access token", errors.CategoryOperation)
	}

	if err := s.refreshTokens.UpdateLastUsed(ctx, stored.Token); err != nil {
		return nil, err
	}

	result := &RefreshResult{}
	if set.RefreshToken != "" && set.RefreshToken != stored.Token {
		// Rotation. Concurrent rotations for the same user are not
		// serialized; the last writer's token wins.
		if err := s.refreshTokens.DeactivateAll(ctx, userID); err != nil {
			return nil, err
		}
		if _, err := s.refreshTokens.Create(ctx, userID, set.RefreshToken, stored.Method, s.now().Add(s.refreshTokenTTL)); err != nil {
			return nil, err
		}
		result.NewRefreshToken = set.RefreshToken
	}

	payload, err := s.codec.DecodeIdentity(set.IDToken)
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByEmail(ctx, normalizeEmail(payload.Email))
	if err != nil {
		return nil, err
	}

	access, err := s.codec.Generate(user)
	if err != nil {
		return nil, err
	}

	result.AccessToken = access
	result.User = user
	return result, nil
}

// Revoke invalidates a token at the provider. A recognized invalid-token
// rejection propagates as ErrInvalidRefreshToken, anything else is
// normalized to ErrLogoutFailed.
func (s *AuthActorService) Revoke(ctx context.Context, token string) error {
	if token == "" {
		return ErrInvalidRefreshToken
	}

	tctx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	if err := s.provider.Revoke(tctx, token); err != nil {
		s.logger.Error("token revoke failed", "error", err)
		return normalizeToKind(err, ErrLogoutFailed, ErrInvalidRefreshToken)
	}

	return nil
}

func (s *AuthActorService) upsertLinkage(ctx context.Context, user *User, providerUser ProviderUser) error {
	if s.accounts == nil {
		return nil
	}
	return s.accounts.Upsert(ctx, &ProviderAccount{
		UserID:         user.ID,
		Provider:       googleProviderName,
		ProviderUserID: providerUser.Subject,
		Email:          user.Email,
		Raw:            StripAccessToken(providerUser.Raw),
	})
}

// dispatchVerificationEmail is best effort: delivery problems must not fail
// an otherwise valid login.
func (s *AuthActorService) dispatchVerificationEmail(ctx context.Context, user *User) {
	if s.email == nil {
		return
	}
	if err := s.email.SendVerificationEmail(ctx, user.ID, user.Email); err != nil {
		s.logger.Warn("verification email dispatch failed", "user_id", user.ID, "error", err)
	}
}

func (s *AuthActorService) recordEvent(
	ctx context.Context,
	eventType AuthEventType,
	status AuthEventStatus,
	user *User,
	meta RequestMeta,
	reason string,
	tokenID *uuid.UUID,
) {
	var userID *uuid.UUID
	if user != nil {
		id := user.ID
		userID = &id
	}

	event := AuthEvent{
		UserID:         userID,
		EventType:      eventType,
		Method:         MethodGoogleSSO,
		Status:         status,
		Meta:           meta,
		ErrorMessage:   reason,
		RefreshTokenID: tokenID,
		OccurredAt:     s.now(),
	}

	if err := s.audit.Record(ctx, event); err != nil {
		s.logger.Error("failed to record auth event", "type", eventType, "status", status, "error", err)
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
