package accounts_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	accounts "github.com/GugaValenca/user-management-system"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"golang.org/x/crypto/bcrypt"
)

const (
	testSigningKey = "0123456789abcdef0123456789abcdef"
	strongPassword = "Str0ng!Passw0rd"
	testClientIP   = "203.0.113.7"
)

type fixture struct {
	ctx    context.Context
	db     *bun.DB
	repo   accounts.RepositoryManager
	hasher accounts.BcryptHasher
	tokens *accounts.TokenService
	svc    *accounts.Service
	dir    *accounts.Directory
}

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()

	ctx := context.Background()
	client, err := accounts.NewPersistence(ctx, accounts.PersistenceConfig{
		DSN: fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
	})
	require.NoError(t, err)
	require.NoError(t, client.Migrate(ctx))

	db := client.DB()

	t.Cleanup(func() {
		_ = db.Close()
	})

	return db
}

func newFixture(t *testing.T, opts ...accounts.ServiceOption) *fixture {
	t.Helper()

	db := newTestDB(t)
	repo := accounts.NewRepositoryManager(db)
	hasher := accounts.NewBcryptHasher(bcrypt.DefaultCost)
	provider := accounts.NewUserProvider(repo.Users(), hasher)

	tokens, err := accounts.NewTokenService([]byte(testSigningKey), repo.TokenBlacklist(),
		accounts.WithIssuer("accounts"),
		accounts.WithAudience("accounts:api"),
		accounts.WithIdentityResolver(provider),
	)
	require.NoError(t, err)

	svcOpts := append([]accounts.ServiceOption{accounts.WithPasswordHasher(hasher)}, opts...)
	svc, err := accounts.NewService(repo, tokens, svcOpts...)
	require.NoError(t, err)

	return &fixture{
		ctx: accounts.WithClientInfo(context.Background(), accounts.ClientInfo{
			IP:        testClientIP,
			UserAgent: "accounts-test",
		}),
		db:     db,
		repo:   repo,
		hasher: hasher,
		tokens: tokens,
		svc:    svc,
		dir:    accounts.NewDirectory(repo.Users(), nil, nil),
	}
}

func registerMessage(email, username string) accounts.RegisterUserMessage {
	return accounts.RegisterUserMessage{
		Email:           email,
		Username:        username,
		FirstName:       "Alice",
		LastName:        "Liddell",
		Password:        strongPassword,
		PasswordConfirm: strongPassword,
	}
}

func (f *fixture) register(t *testing.T, email, username string) (accounts.AuthResult, *accounts.User) {
	t.Helper()

	res, err := f.svc.Register(f.ctx, registerMessage(email, username))
	require.NoError(t, err)

	return res, f.load(t, res.User.ID)
}

func (f *fixture) load(t *testing.T, id string) *accounts.User {
	t.Helper()

	user, err := f.repo.Users().GetByID(f.ctx, id)
	require.NoError(t, err)
	return user
}

func (f *fixture) setColumns(t *testing.T, user *accounts.User, columns ...string) {
	t.Helper()
	require.NoError(t, f.repo.Users().UpdateColumnsTx(f.ctx, f.db, user, columns...))
}

func (f *fixture) deactivate(t *testing.T, user *accounts.User) {
	t.Helper()
	user.IsActive = false
	f.setColumns(t, user, "is_active")
}

func (f *fixture) promote(t *testing.T, user *accounts.User) {
	t.Helper()
	user.Role = accounts.RoleAdmin
	f.setColumns(t, user, "role")
}

func (f *fixture) activityKinds(t *testing.T, user *accounts.User) []accounts.ActivityKind {
	t.Helper()

	logs, err := f.svc.ActivityLogs(f.ctx, user, 0)
	require.NoError(t, err)

	out := make([]accounts.ActivityKind, 0, len(logs))
	for _, l := range logs {
		out = append(out, l.ActivityType)
	}
	return out
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func strPtr(s string) *string {
	return &s
}
