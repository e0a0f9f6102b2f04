package accounts

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// RepositoryManager exposes all repositories and the transaction scope
type RepositoryManager interface {
	repository.Validator
	repository.TransactionManager
	Users() Users
	ActivityLogs() ActivityLogs
	TokenBlacklist() TokenBlacklist
}

type mngr struct {
	db           *bun.DB
	users        Users
	activityLogs ActivityLogs
	blacklist    TokenBlacklist
}

// NewRepositoryManager wires the bun repositories around db
func NewRepositoryManager(db *bun.DB, opts ...UsersOption) RepositoryManager {
	return &mngr{
		db:           db,
		users:        NewUsersRepository(db, opts...),
		activityLogs: NewActivityLogsRepository(db),
		blacklist:    NewTokenBlacklistRepository(db),
	}
}

func (m mngr) Validate() error {
	if m.db == nil {
		return errors.New("repository manager needs a database")
	}

	if m.users == nil {
		return errors.New("repository users should be initialized")
	}

	if m.activityLogs == nil {
		return errors.New("repository activityLogs should be initialized")
	}

	if m.blacklist == nil {
		return errors.New("repository tokenBlacklist should be initialized")
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

func (m mngr) Users() Users {
	return m.users
}

func (m mngr) ActivityLogs() ActivityLogs {
	return m.activityLogs
}

func (m mngr) TokenBlacklist() TokenBlacklist {
	return m.blacklist
}
