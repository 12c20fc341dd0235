package sso

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockUsers struct {
	mock.Mock
}

func (m *MockUsers) FindByEmail(ctx context.Context, email string) (*User, error) {
	args := m.Called(ctx, email)
	if u := args.Get(0); u != nil {
		return u.(*User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUsers) Create(ctx context.Context, user *User) (*User, error) {
	args := m.Called(ctx, user)
	if u := args.Get(0); u != nil {
		return u.(*User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUsers) GetOrCreate(ctx context.Context, user *User) (*User, bool, error) {
	args := m.Called(ctx, user)
	if u := args.Get(0); u != nil {
		return u.(*User), args.Bool(1), args.Error(2)
	}
	return nil, args.Bool(1), args.Error(2)
}

func (m *MockUsers) MarkEmailVerified(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockRefreshTokens struct {
	mock.Mock
}

func (m *MockRefreshTokens) Create(ctx context.Context, userID uuid.UUID, token string, method AuthMethod, expiresOn time.Time) (uuid.UUID, error) {
	args := m.Called(ctx, userID, token, method, expiresOn)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockRefreshTokens) DeactivateAll(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockRefreshTokens) UpdateLastUsed(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockRefreshTokens) FindByToken(ctx context.Context, token string) (*RefreshToken, error) {
	args := m.Called(ctx, token)
	if t := args.Get(0); t != nil {
		return t.(*RefreshToken), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockProviderAccounts struct {
	mock.Mock
}

func (m *MockProviderAccounts) Upsert(ctx context.Context, account *ProviderAccount) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) Refresh(ctx context.Context, refreshToken string) (*TokenSet, error) {
	args := m.Called(ctx, refreshToken)
	if s := args.Get(0); s != nil {
		return s.(*TokenSet), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockIdentityProvider) Revoke(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

// recordingAuditSink collects events in memory for assertions.
type recordingAuditSink struct {
	mu     sync.Mutex
	events []AuthEvent
}

func (s *recordingAuditSink) Record(_ context.Context, event AuthEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *recordingAuditSink) Events() []AuthEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]AuthEvent, len(s.events))
	copy(out, s.events)
	return out
}

// countingEmailGateway counts dispatches so tests can assert on them.
type countingEmailGateway struct {
	mu    sync.Mutex
	calls int
	last  string
	err   error
}

func (g *countingEmailGateway) SendVerificationEmail(_ context.Context, _ uuid.UUID, email string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	g.last = email
	return g.err
}

func (g *countingEmailGateway) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

func testCodec() *TokenCodec {
	return NewTokenCodec([]byte("test-signing-key"), 1, "sso-test", nil, NoopLogger())
}

func testUser(email string, verified bool) *User {
	return &User{
		ID:             uuid.New(),
		Email:          email,
		Roles:          []UserRole{RoleStaff},
		Language:       "nb",
		EmailValidated: verified,
	}
}
