package repository

import (
	"context"
	"time"

	"github.com/goliatone/go-sso"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// AuthEventModel is the bun model for the append-only auth event log.
type AuthEventModel struct {
	bun.BaseModel `bun:"table:authentication_events,alias:aev"`

	ID             uuid.UUID  `bun:"id,pk,nullzero,type:uuid"`
	UserID         *uuid.UUID `bun:"user_id,type:uuid"`
	EventType      string     `bun:"event_type,notnull"`
	Method         string     `bun:"method,notnull"`
	Status         string     `bun:"status,notnull"`
	IP             string     `bun:"ip"`
	UserAgent      string     `bun:"user_agent"`
	Origin         string     `bun:"origin"`
	ErrorMessage   string     `bun:"error_message"`
	RefreshTokenID *uuid.UUID `bun:"refresh_token_id,type:uuid"`
	OccurredAt     time.Time  `bun:"occurred_at,notnull"`
	CreatedAt      time.Time  `bun:"created_at,default:current_timestamp"`
}

// AuditLog is the bun backed implementation of sso.AuditSink. Rows are
// inserted once and never updated or deleted.
type AuditLog struct {
	db *bun.DB
}

var _ sso.AuditSink = (*AuditLog)(nil)

// NewAuditLog creates the audit log.
func NewAuditLog(db *bun.DB) *AuditLog {
	return &AuditLog{db: db}
}

// Record implements sso.AuditSink.
func (l *AuditLog) Record(ctx context.Context, event sso.AuthEvent) error {
	occurredAt := event.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}

	record := &AuthEventModel{
		ID:             uuid.New(),
		UserID:         event.UserID,
		EventType:      string(event.EventType),
		Method:         string(event.Method),
		Status:         string(event.Status),
		IP:             event.Meta.IP,
		UserAgent:      event.Meta.UserAgent,
		Origin:         event.Meta.Origin,
		ErrorMessage:   event.ErrorMessage,
		RefreshTokenID: event.RefreshTokenID,
		OccurredAt:     occurredAt,
	}

	_, err := l.db.NewInsert().Model(record).Exec(ctx)
	return err
}

// ListForUser returns a user's events, newest first. Read path for admin
// tooling; the sink itself stays append-only.
func (l *AuditLog) ListForUser(ctx context.Context, userID uuid.UUID, limit int) ([]AuthEventModel, error) {
	if limit <= 0 {
		limit = 50
	}
	var records []AuthEventModel
	err := l.db.NewSelect().
		Model(&records).
		Where("?TableAlias.user_id = ?", userID).
		OrderExpr("?TableAlias.occurred_at DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return records, nil
}
