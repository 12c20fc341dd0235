package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/goliatone/go-sso"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ProviderAccountsRepository is the bun backed implementation of
// sso.ProviderAccounts.
type ProviderAccountsRepository struct {
	db *bun.DB
}

var _ sso.ProviderAccounts = (*ProviderAccountsRepository)(nil)

// NewProviderAccountsRepository creates a new repository.
func NewProviderAccountsRepository(db *bun.DB) *ProviderAccountsRepository {
	return &ProviderAccountsRepository{db: db}
}

// Upsert implements sso.ProviderAccounts. The raw payload is stripped of
// access tokens before it ever reaches the database, regardless of what the
// caller handed in.
func (r *ProviderAccountsRepository) Upsert(ctx context.Context, account *sso.ProviderAccount) error {
	record := *account
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	record.Raw = sso.StripAccessToken(record.Raw)
	record.UpdatedAt = time.Now()

	_, err := r.db.NewInsert().
		Model(&record).
		On("CONFLICT (provider, provider_user_id) DO UPDATE").
		Set("user_id = EXCLUDED.user_id").
		Set("email = EXCLUDED.email").
		Set("raw = EXCLUDED.raw").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)

	return err
}

// FindByProviderID looks up a linkage by provider identity.
func (r *ProviderAccountsRepository) FindByProviderID(ctx context.Context, provider, providerUserID string) (*sso.ProviderAccount, error) {
	record := &sso.ProviderAccount{}
	err := r.db.NewSelect().
		Model(record).
		Where("provider = ? AND provider_user_id = ?", provider, providerUserID).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return record, nil
}

// FindByUserID returns all linkages for a user.
func (r *ProviderAccountsRepository) FindByUserID(ctx context.Context, userID uuid.UUID) ([]*sso.ProviderAccount, error) {
	var records []sso.ProviderAccount
	err := r.db.NewSelect().
		Model(&records).
		Where("user_id = ?", userID).
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return []*sso.ProviderAccount{}, nil
		}
		return nil, err
	}

	out := make([]*sso.ProviderAccount, len(records))
	for i := range records {
		out[i] = &records[i]
	}
	return out, nil
}
