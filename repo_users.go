package accounts

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun"
)

// SetUserPasswordSQL replaces the stored hash of a single user
var SetUserPasswordSQL = `UPDATE "users" AS "usr"
SET
	"password_hash" = ?,
	"updated_at" = ?
WHERE
	("usr"."id" = ?)
RETURNING *;`

// UserStats holds directory counters
type UserStats struct {
	Total    int `json:"total_users"`
	Active   int `json:"active_users"`
	Admin    int `json:"admin_users"`
	Inactive int `json:"inactive_users"`
}

// Users is the credential store
type Users interface {
	GetByID(ctx context.Context, id string) (*User, error)
	GetByIdentifier(ctx context.Context, identifier string) (*User, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *User) (*User, error)
	UpdateColumnsTx(ctx context.Context, tx bun.IDB, record *User, columns ...string) error
	TrackLoginTx(ctx context.Context, tx bun.IDB, record *User, ip string) error
	SetPasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error
	List(ctx context.Context) ([]*User, error)
	Stats(ctx context.Context) (UserStats, error)
}

type users struct {
	repository.Repository[*User]
	db       *bun.DB
	useHashs bool
	now      func() time.Time
}

var _ Users = (*users)(nil)

// UsersOption configures the users repository
type UsersOption func(*users)

// WithHashidUserIDs derives new user ids from the email address
func WithHashidUserIDs(enabled bool) UsersOption {
	return func(u *users) {
		u.useHashs = enabled
	}
}

// WithUsersClock overrides time.Now for timestamps
func WithUsersClock(now func() time.Time) UsersOption {
	return func(u *users) {
		if now != nil {
			u.now = now
		}
	}
}

// NewUsersRepository returns the bun backed credential store
func NewUsersRepository(db *bun.DB, opts ...UsersOption) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	repoUsers := &users{
		Repository: repo,
		db:         db,
		now:        time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(repoUsers)
		}
	}

	return repoUsers
}

func (a *users) GetByID(ctx context.Context, id string) (*User, error) {
	uid, err := ParseUserID(id)
	if err != nil {
		return nil, err
	}

	record, err := a.Repository.GetByID(ctx, uid.String())
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrIdentityNotFound
		}
		return nil, err
	}

	return record, nil
}

func (a *users) GetByIdentifier(ctx context.Context, identifier string) (*User, error) {
	return a.getByIdentifier(ctx, a.db, identifier)
}

// getByIdentifier matches email or username ignoring case.
// An email match wins over a username match.
func (a *users) getByIdentifier(ctx context.Context, tx bun.IDB, identifier string) (*User, error) {
	value := normalizeIdentifier(identifier)
	if value == "" {
		return nil, ErrIdentityNotFound
	}

	record := &User{}
	err := tx.NewSelect().
		Model(record).
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where("lower(?TableAlias.email) = ?", value).
				WhereOr("lower(?TableAlias.username) = ?", value)
		}).
		OrderExpr("CASE WHEN lower(usr.email) = ? THEN 0 ELSE 1 END", value).
		Order("created_at ASC").
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					"identifier": identifier,
				})
		}
		return nil, err
	}

	return record, nil
}

func (a *users) exists(ctx context.Context, tx bun.IDB, email, username string) (bool, error) {
	return tx.NewSelect().
		Model((*User)(nil)).
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where("lower(?TableAlias.email) = ?", normalizeIdentifier(email)).
				WhereOr("lower(?TableAlias.username) = ?", normalizeIdentifier(username))
		}).
		Exists(ctx)
}

func (a *users) CreateTx(ctx context.Context, tx bun.IDB, record *User) (*User, error) {
	if record == nil {
		return nil, NewValidationError("user is required", nil)
	}

	taken, err := a.exists(ctx, tx, record.Email, record.Username)
	if err != nil {
		return nil, err
	}

	if taken {
		return nil, ErrDuplicateIdentifier
	}

	a.prepareUserDefaults(record)

	created, err := a.Repository.CreateTx(ctx, tx, record)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateIdentifier
		}
		return nil, err
	}

	return created, nil
}

// UpdateColumnsTx persists the named columns and always bumps updated_at
func (a *users) UpdateColumnsTx(ctx context.Context, tx bun.IDB, record *User, columns ...string) error {
	if record == nil || record.ID == uuid.Nil {
		return ErrIdentityNotFound
	}

	record.UpdatedAt = a.now().UTC()
	columns = append(columns, "updated_at")

	res, err := tx.NewUpdate().
		Model(record).
		Column(columns...).
		WherePK().
		Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateIdentifier
		}
		return err
	}

	return requireAffected(res)
}

// TrackLoginTx records the time and origin of a successful login
func (a *users) TrackLoginTx(ctx context.Context, tx bun.IDB, record *User, ip string) error {
	if record == nil || record.ID == uuid.Nil {
		return ErrIdentityNotFound
	}

	loggedInAt := a.now().UTC()
	record.LastLogin = &loggedInAt
	record.LastLoginIP = optionalString(ip)

	res, err := tx.NewUpdate().
		Model(record).
		Column("last_login", "last_login_ip").
		WherePK().
		Exec(ctx)
	if err != nil {
		return err
	}

	return requireAffected(res)
}

func (a *users) SetPasswordTx(ctx context.Context, tx bun.IDB, id uuid.UUID, passwordHash string) error {
	if passwordHash == "" {
		return ErrNoEmptyString
	}

	res, err := a.Repository.RawTx(ctx, tx, SetUserPasswordSQL, passwordHash, a.now().UTC(), id.String())
	if err != nil {
		return err
	}

	if len(res) == 0 {
		return repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"id": id.String(),
			})
	}

	return nil
}

func (a *users) List(ctx context.Context) ([]*User, error) {
	records := make([]*User, 0)
	err := a.db.NewSelect().
		Model(&records).
		Order("created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (a *users) Stats(ctx context.Context) (UserStats, error) {
	var stats UserStats
	err := a.db.NewSelect().
		Model((*User)(nil)).
		ColumnExpr("COUNT(*)").
		ColumnExpr("COALESCE(SUM(CASE WHEN ?TableAlias.is_active THEN 1 ELSE 0 END), 0)").
		ColumnExpr("COALESCE(SUM(CASE WHEN ?TableAlias.role = ? THEN 1 ELSE 0 END), 0)", RoleAdmin).
		Scan(ctx, &stats.Total, &stats.Active, &stats.Admin)
	if err != nil {
		return UserStats{}, err
	}

	stats.Inactive = stats.Total - stats.Active
	return stats, nil
}

func (a *users) prepareUserDefaults(record *User) {
	if record.Role == "" {
		record.Role = RoleUser
	}

	if record.ID == uuid.Nil && a.useHashs {
		if id, err := newHashUserID(record.Email); err == nil {
			record.ID = id
		}
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}

	now := a.now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now
}

func normalizeIdentifier(identifier string) string {
	return strings.ToLower(strings.TrimSpace(identifier))
}

func requireAffected(res interface{ RowsAffected() (int64, error) }) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrIdentityNotFound
	}
	return nil
}

// isUniqueViolation detects unique index failures from SQLite and PostgreSQL
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}

	for e := err; e != nil; e = errors.Unwrap(e) {
		msg := e.Error()
		if strings.Contains(msg, "UNIQUE constraint failed") ||
			strings.Contains(msg, "duplicate key value violates unique constraint") {
			return true
		}
	}
	return false
}

// IsIdentityNotFound reports missing users from either lookup path
func IsIdentityNotFound(err error) bool {
	if err == nil {
		return false
	}
	return TextCode(err) == TextCodeIdentityNotFound || repository.IsRecordNotFound(err)
}
