package repository

import (
	"context"
	"testing"

	"github.com/goliatone/go-sso"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProviderAccountsRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("upsert strips access tokens at rest", func(t *testing.T) {
		repo := NewProviderAccountsRepository(setupTestDB(t))
		userID := uuid.New()

		err := repo.Upsert(ctx, &sso.ProviderAccount{
			UserID:         userID,
			Provider:       "google",
			ProviderUserID: "google-123",
			Email:          "person@example.com",
			Raw: map[string]any{
				"access_token": "must-not-persist",
				"picture":      "https://example.com/p.png",
			},
		})
		require.NoError(t, err)

		found, err := repo.FindByProviderID(ctx, "google", "google-123")
		require.NoError(t, err)
		assert.NotContains(t, found.Raw, "access_token")
		assert.Equal(t, "https://example.com/p.png", found.Raw["picture"])
	})

	t.Run("upsert updates the existing linkage", func(t *testing.T) {
		repo := NewProviderAccountsRepository(setupTestDB(t))
		userID := uuid.New()

		err := repo.Upsert(ctx, &sso.ProviderAccount{
			UserID:         userID,
			Provider:       "google",
			ProviderUserID: "google-123",
			Email:          "old@example.com",
		})
		require.NoError(t, err)

		err = repo.Upsert(ctx, &sso.ProviderAccount{
			UserID:         userID,
			Provider:       "google",
			ProviderUserID: "google-123",
			Email:          "new@example.com",
		})
		require.NoError(t, err)

		accounts, err := repo.FindByUserID(ctx, userID)
		require.NoError(t, err)
		require.Len(t, accounts, 1)
		assert.Equal(t, "new@example.com", accounts[0].Email)
	})

	t.Run("different providers stay separate rows", func(t *testing.T) {
		repo := NewProviderAccountsRepository(setupTestDB(t))
		userID := uuid.New()

		require.NoError(t, repo.Upsert(ctx, &sso.ProviderAccount{
			UserID: userID, Provider: "google", ProviderUserID: "id-1",
		}))
		require.NoError(t, repo.Upsert(ctx, &sso.ProviderAccount{
			UserID: userID, Provider: "github", ProviderUserID: "id-1",
		}))

		accounts, err := repo.FindByUserID(ctx, userID)
		require.NoError(t, err)
		assert.Len(t, accounts, 2)
	})

	t.Run("find by user without linkages", func(t *testing.T) {
		repo := NewProviderAccountsRepository(setupTestDB(t))

		accounts, err := repo.FindByUserID(ctx, uuid.New())
		require.NoError(t, err)
		assert.Empty(t, accounts)
	})
}
