package repository

import (
	"context"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-sso"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// UsersRepository is the bun backed implementation of sso.Users.
type UsersRepository struct {
	repository.Repository[*sso.User]
	db *bun.DB
}

var _ sso.Users = (*UsersRepository)(nil)

// NewUsersRepository creates the users repository.
func NewUsersRepository(db *bun.DB) *UsersRepository {
	repo := repository.NewRepository[*sso.User](db, repository.ModelHandlers[*sso.User]{
		NewRecord: func() *sso.User { return &sso.User{} },
		GetID: func(u *sso.User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *sso.User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &UsersRepository{
		Repository: repo,
		db:         db,
	}
}

// FindByEmail implements sso.Users. Not-found maps to sso.ErrUserNotFound.
func (r *UsersRepository) FindByEmail(ctx context.Context, email string) (*sso.User, error) {
	record := &sso.User{}
	err := r.db.NewSelect().
		Model(record).
		Where("?TableAlias.email = ?", email).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, sso.ErrUserNotFound.Clone().
				WithMetadata(map[string]any{"email": email})
		}
		return nil, err
	}

	return record, nil
}

// Create implements sso.Users.
func (r *UsersRepository) Create(ctx context.Context, user *sso.User) (*sso.User, error) {
	prepareUserDefaults(user)
	return r.Repository.Create(ctx, user)
}

// GetOrCreate implements sso.Users: looks up by email first, creates when
// missing, and reports whether a new row was inserted.
func (r *UsersRepository) GetOrCreate(ctx context.Context, user *sso.User) (*sso.User, bool, error) {
	existing, err := r.FindByEmail(ctx, user.Email)
	if err == nil {
		return existing, false, nil
	}
	if !sso.IsKind(err, sso.ErrUserNotFound) {
		return nil, false, err
	}

	created, err := r.Create(ctx, user)
	if err != nil {
		return nil, false, err
	}
	return created, true, nil
}

// MarkEmailVerified implements sso.Users. Verification never regresses
// through this path; it only flips the flag on.
func (r *UsersRepository) MarkEmailVerified(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.NewUpdate().
		Model((*sso.User)(nil)).
		Set("is_email_verified = ?", true).
		Set("updated_at = ?", time.Now()).
		Where("?TableAlias.id = ?", id).
		Where("?TableAlias.deleted_at IS NULL").
		Exec(ctx)
	if err != nil {
		return err
	}

	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sso.ErrUserNotFound.Clone().
			WithMetadata(map[string]any{"id": id.String()})
	}

	return nil
}

// TrackSuccessfulLogin stamps the login timestamp.
func (r *UsersRepository) TrackSuccessfulLogin(ctx context.Context, user *sso.User) error {
	loggedInAt := time.Now()
	_, err := r.db.NewUpdate().
		Model((*sso.User)(nil)).
		Set("loggedin_at = ?", loggedInAt).
		Where("?TableAlias.id = ?", user.ID).
		Where("?TableAlias.deleted_at IS NULL").
		Exec(ctx)
	return err
}

func prepareUserDefaults(user *sso.User) {
	if user == nil {
		return
	}
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if len(user.Roles) == 0 {
		user.Roles = []sso.UserRole{sso.RoleGuest}
	}
}
