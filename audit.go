package sso

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// AuthEventType enumerates the audited authentication attempts.
type AuthEventType string

const (
	AuthEventLogin        AuthEventType = "auth.login"
	AuthEventRegistration AuthEventType = "auth.registration"
)

// AuthEventStatus is the attempt outcome.
type AuthEventStatus string

const (
	AuthEventSuccess AuthEventStatus = "success"
	AuthEventFailure AuthEventStatus = "failure"
)

// reason code written for failures that were normalized at the boundary
const failureReasonUnexpected = "unexpected_error"

// RequestMeta carries request metadata into audit records.
type RequestMeta struct {
	IP        string `json:"ip,omitempty"`
	UserAgent string `json:"user_agent,omitempty"`
	Origin    string `json:"origin,omitempty"`
}

// AuthEvent is an immutable record of one authentication attempt. Exactly one
// is written per login/registration attempt, success or failure, before the
// operation returns.
type AuthEvent struct {
	UserID         *uuid.UUID
	EventType      AuthEventType
	Method         AuthMethod
	Status         AuthEventStatus
	Meta           RequestMeta
	ErrorMessage   string
	RefreshTokenID *uuid.UUID
	OccurredAt     time.Time
}

// AuditSink consumes authentication events for auditing purposes.
type AuditSink interface {
	Record(ctx context.Context, event AuthEvent) error
}

// AuditSinkFunc adapts a function to the AuditSink interface.
type AuditSinkFunc func(ctx context.Context, event AuthEvent) error

// Record implements AuditSink.
func (f AuditSinkFunc) Record(ctx context.Context, event AuthEvent) error {
	if f == nil {
		return nil
	}
	return f(ctx, event)
}

type noopAuditSink struct{}

func (noopAuditSink) Record(context.Context, AuthEvent) error {
	return nil
}

func normalizeAuditSink(s AuditSink) AuditSink {
	if s == nil {
		return noopAuditSink{}
	}
	return s
}
