package accounts

import (
	"context"
	"strings"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// TokenBlacklist persists revoked token ids
type TokenBlacklist interface {
	// Blacklist inserts the entry; a jti that is already present fails with ErrInvalidToken
	Blacklist(ctx context.Context, entry *BlacklistedToken) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

type tokenBlacklist struct {
	repository.Repository[*BlacklistedToken]
	db bun.IDB
}

var _ TokenBlacklist = (*tokenBlacklist)(nil)

// NewTokenBlacklistRepository returns a bun backed TokenBlacklist
func NewTokenBlacklistRepository(db *bun.DB) TokenBlacklist {
	repo := repository.NewRepository[*BlacklistedToken](db, repository.ModelHandlers[*BlacklistedToken]{
		NewRecord: func() *BlacklistedToken { return &BlacklistedToken{} },
		GetID: func(record *BlacklistedToken) uuid.UUID {
			if record == nil {
				return uuid.Nil
			}
			return record.ID
		},
		SetID: func(record *BlacklistedToken, id uuid.UUID) {
			if record != nil {
				record.ID = id
			}
		},
		GetIdentifier: func() string {
			return "jti"
		},
	})

	return &tokenBlacklist{
		Repository: repo,
		db:         db,
	}
}

func (r *tokenBlacklist) Blacklist(ctx context.Context, entry *BlacklistedToken) error {
	if entry == nil || strings.TrimSpace(entry.JTI) == "" {
		return ErrInvalidToken
	}

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}

	if entry.BlacklistedAt.IsZero() {
		entry.BlacklistedAt = time.Now().UTC()
	}

	if _, err := r.Repository.CreateTx(ctx, r.db, entry); err != nil {
		if isUniqueViolation(err) {
			return ErrInvalidToken
		}
		return err
	}

	return nil
}

func (r *tokenBlacklist) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	return r.db.NewSelect().
		Model((*BlacklistedToken)(nil)).
		Where("?TableAlias.jti = ?", jti).
		Exists(ctx)
}

func (r *tokenBlacklist) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.NewDelete().
		Model((*BlacklistedToken)(nil)).
		Where("expires_at < ?", now).
		Exec(ctx)
	if err != nil {
		return 0, err
	}

	return res.RowsAffected()
}
