package accounts_test

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	accounts "github.com/GugaValenca/user-management-system"
	goerrors "github.com/goliatone/go-errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
)

func TestDirectoryRequiresAdmin(t *testing.T) {
	f := newFixture(t)
	_, carol := f.register(t, "carol@example.com", "carol")
	_, dave := f.register(t, "dave@example.com", "dave")

	_, err := f.dir.List(f.ctx, carol.Identity())
	assert.True(t, goerrors.Is(err, accounts.ErrPermissionDenied))

	_, err = f.dir.Stats(f.ctx, carol.Identity())
	assert.True(t, goerrors.Is(err, accounts.ErrPermissionDenied))

	_, err = f.dir.List(f.ctx, nil)
	assert.True(t, goerrors.Is(err, accounts.ErrPermissionDenied))

	moderator := f.load(t, dave.ID.String())
	moderator.Role = accounts.RoleModerator
	f.setColumns(t, moderator, "role")
	_, err = f.dir.Stats(f.ctx, moderator.Identity())
	assert.True(t, goerrors.Is(err, accounts.ErrPermissionDenied))

	f.promote(t, carol)
	f.deactivate(t, dave)

	list, err := f.dir.List(f.ctx, carol.Identity())
	require.NoError(t, err)
	assert.Len(t, list, 2)

	stats, err := f.dir.Stats(f.ctx, carol.Identity())
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Active)
	assert.Equal(t, 1, stats.Inactive)
	assert.Equal(t, 1, stats.Admin)
	assert.Equal(t, stats.Total, stats.Active+stats.Inactive)

	f.deactivate(t, carol)
	_, err = f.dir.Stats(f.ctx, carol.Identity())
	assert.True(t, goerrors.Is(err, accounts.ErrPermissionDenied))
}

func newMockDB(t *testing.T) (*bun.DB, sqlmock.Sqlmock) {
	t.Helper()

	sqldb, sqlMock, err := sqlmock.New()
	require.NoError(t, err)

	db := bun.NewDB(sqldb, pgdialect.New())
	t.Cleanup(func() {
		_ = db.Close()
	})
	return db, sqlMock
}

func TestDirectoryStorageFault(t *testing.T) {
	db, sqlMock := newMockDB(t)
	sqlMock.ExpectQuery("SELECT").WillReturnError(errors.New("connection reset by peer"))

	registry := prometheus.NewRegistry()
	metrics, err := accounts.NewMetrics(registry)
	require.NoError(t, err)

	logger := new(MockLogger)
	logger.On("Error", "Directory list users", mock.Anything).Return()
	dir := accounts.NewDirectory(accounts.NewUsersRepository(db), logger, metrics)

	admin := (&accounts.User{Role: accounts.RoleAdmin, IsActive: true}).Identity()

	_, err = dir.List(context.Background(), admin)
	require.Error(t, err)
	assert.True(t, accounts.IsServiceUnavailable(err))
	logger.AssertExpectations(t)

	assert.Equal(t, float64(1), testutil.ToFloat64(
		metrics.Counter().WithLabelValues("directory_list", accounts.OutcomeFailure, accounts.TextCodeServiceUnavailable),
	))
	require.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestLoginStorageFault(t *testing.T) {
	db, sqlMock := newMockDB(t)
	sqlMock.ExpectQuery("SELECT").WillReturnError(errors.New("connection reset by peer"))

	repo := accounts.NewRepositoryManager(db)
	tokens, err := accounts.NewTokenService([]byte(testSigningKey), newMemoryBlacklist())
	require.NoError(t, err)

	svc, err := accounts.NewService(repo, tokens)
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), accounts.LoginMessage{
		Identifier: "carol",
		Password:   strongPassword,
	})
	require.Error(t, err)
	assert.True(t, accounts.IsServiceUnavailable(err))
	assert.False(t, goerrors.Is(err, accounts.ErrInvalidCredentials))
}
