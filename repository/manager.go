package repository

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/uptrace/bun"
)

// Manager exposes all repositories plus transaction support.
type Manager interface {
	Validate() error
	MustValidate()
	RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error
	Users() *UsersRepository
	RefreshTokens() *RefreshTokensRepository
	ProviderAccounts() *ProviderAccountsRepository
	AuditLog() *AuditLog
}

type mngr struct {
	db               *bun.DB
	users            *UsersRepository
	refreshTokens    *RefreshTokensRepository
	providerAccounts *ProviderAccountsRepository
	auditLog         *AuditLog
}

// NewManager wires every repository over one bun handle.
func NewManager(db *bun.DB) Manager {
	return &mngr{
		db:               db,
		users:            NewUsersRepository(db),
		refreshTokens:    NewRefreshTokensRepository(db),
		providerAccounts: NewProviderAccountsRepository(db),
		auditLog:         NewAuditLog(db),
	}
}

func (m mngr) Validate() error {
	if m.db == nil {
		return errors.New("repository manager needs a database handle")
	}
	if m.users == nil {
		return errors.New("repository users should be initialized")
	}
	if m.refreshTokens == nil {
		return errors.New("repository refreshTokens should be initialized")
	}
	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

func (m mngr) Users() *UsersRepository {
	return m.users
}

func (m mngr) RefreshTokens() *RefreshTokensRepository {
	return m.refreshTokens
}

func (m mngr) ProviderAccounts() *ProviderAccountsRepository {
	return m.providerAccounts
}

func (m mngr) AuditLog() *AuditLog {
	return m.auditLog
}
