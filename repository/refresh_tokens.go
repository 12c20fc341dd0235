package repository

import (
	"context"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-sso"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RefreshTokensRepository is the bun backed implementation of
// sso.RefreshTokens. Tokens are soft-deactivated, never deleted.
type RefreshTokensRepository struct {
	db *bun.DB
}

var _ sso.RefreshTokens = (*RefreshTokensRepository)(nil)

// NewRefreshTokensRepository creates the refresh token store.
func NewRefreshTokensRepository(db *bun.DB) *RefreshTokensRepository {
	return &RefreshTokensRepository{db: db}
}

// Create implements sso.RefreshTokens, returning the assigned row id.
func (r *RefreshTokensRepository) Create(ctx context.Context, userID uuid.UUID, token string, method sso.AuthMethod, expiresOn time.Time) (uuid.UUID, error) {
	record := &sso.RefreshToken{
		ID:        uuid.New(),
		UserID:    userID,
		Token:     token,
		Method:    method,
		ExpiresOn: expiresOn,
		Active:    true,
	}

	if _, err := r.db.NewInsert().Model(record).Exec(ctx); err != nil {
		return uuid.Nil, err
	}

	return record.ID, nil
}

// DeactivateAll implements sso.RefreshTokens: flips every active token for
// the user off in one statement. Deactivating a user with no active tokens
// is a no-op.
func (r *RefreshTokensRepository) DeactivateAll(ctx context.Context, userID uuid.UUID) error {
	_, err := r.db.NewUpdate().
		Model((*sso.RefreshToken)(nil)).
		Set("active = ?", false).
		Set("updated_at = ?", time.Now()).
		Where("?TableAlias.user_id = ?", userID).
		Where("?TableAlias.active = ?", true).
		Exec(ctx)
	return err
}

// UpdateLastUsed implements sso.RefreshTokens.
func (r *RefreshTokensRepository) UpdateLastUsed(ctx context.Context, token string) error {
	now := time.Now()
	_, err := r.db.NewUpdate().
		Model((*sso.RefreshToken)(nil)).
		Set("last_used_at = ?", now).
		Set("updated_at = ?", now).
		Where("?TableAlias.token = ?", token).
		Exec(ctx)
	return err
}

// FindByToken implements sso.RefreshTokens: looks up the active row for a
// token string. Unknown or deactivated tokens map to
// sso.ErrInvalidRefreshToken.
func (r *RefreshTokensRepository) FindByToken(ctx context.Context, token string) (*sso.RefreshToken, error) {
	record := &sso.RefreshToken{}
	err := r.db.NewSelect().
		Model(record).
		Where("?TableAlias.token = ?", token).
		Where("?TableAlias.active = ?", true).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, sso.ErrInvalidRefreshToken
		}
		return nil, err
	}

	return record, nil
}

// CountActive returns the number of active tokens for a user.
func (r *RefreshTokensRepository) CountActive(ctx context.Context, userID uuid.UUID) (int, error) {
	return r.db.NewSelect().
		Model((*sso.RefreshToken)(nil)).
		Where("?TableAlias.user_id = ?", userID).
		Where("?TableAlias.active = ?", true).
		Count(ctx)
}
