package repository

import (
	"context"
	"testing"
	"time"

	"github.com/goliatone/go-sso"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditLog(t *testing.T) {
	ctx := context.Background()

	t.Run("record and list newest first", func(t *testing.T) {
		log := NewAuditLog(setupTestDB(t))
		userID := uuid.New()
		tokenID := uuid.New()

		base := time.Now().Add(-time.Hour).Truncate(time.Second)
		events := []sso.AuthEvent{
			{
				UserID:     &userID,
				EventType:  sso.AuthEventRegistration,
				Method:     sso.MethodGoogleSSO,
				Status:     sso.AuthEventSuccess,
				OccurredAt: base,
			},
			{
				UserID:         &userID,
				EventType:      sso.AuthEventLogin,
				Method:         sso.MethodGoogleSSO,
				Status:         sso.AuthEventSuccess,
				Meta:           sso.RequestMeta{IP: "10.0.0.1", UserAgent: "agent"},
				RefreshTokenID: &tokenID,
				OccurredAt:     base.Add(time.Minute),
			},
			{
				UserID:       &userID,
				EventType:    sso.AuthEventLogin,
				Method:       sso.MethodGoogleSSO,
				Status:       sso.AuthEventFailure,
				ErrorMessage: "unexpected_error",
				OccurredAt:   base.Add(2 * time.Minute),
			},
		}

		for _, event := range events {
			require.NoError(t, log.Record(ctx, event))
		}

		records, err := log.ListForUser(ctx, userID, 0)
		require.NoError(t, err)
		require.Len(t, records, 3)

		assert.Equal(t, string(sso.AuthEventFailure), records[0].Status)
		assert.Equal(t, "unexpected_error", records[0].ErrorMessage)
		assert.Equal(t, string(sso.AuthEventLogin), records[1].EventType)
		require.NotNil(t, records[1].RefreshTokenID)
		assert.Equal(t, tokenID, *records[1].RefreshTokenID)
		assert.Equal(t, "10.0.0.1", records[1].IP)
		assert.Equal(t, string(sso.AuthEventRegistration), records[2].EventType)
	})

	t.Run("anonymous failures record without a user", func(t *testing.T) {
		log := NewAuditLog(setupTestDB(t))

		err := log.Record(ctx, sso.AuthEvent{
			EventType:    sso.AuthEventLogin,
			Method:       sso.MethodGoogleSSO,
			Status:       sso.AuthEventFailure,
			ErrorMessage: "unexpected_error",
		})
		require.NoError(t, err)
	})

	t.Run("limit caps the result", func(t *testing.T) {
		log := NewAuditLog(setupTestDB(t))
		userID := uuid.New()

		for i := 0; i < 5; i++ {
			require.NoError(t, log.Record(ctx, sso.AuthEvent{
				UserID:     &userID,
				EventType:  sso.AuthEventLogin,
				Method:     sso.MethodGoogleSSO,
				Status:     sso.AuthEventSuccess,
				OccurredAt: time.Now().Add(time.Duration(i) * time.Second),
			}))
		}

		records, err := log.ListForUser(ctx, userID, 2)
		require.NoError(t, err)
		assert.Len(t, records, 2)
	})
}
