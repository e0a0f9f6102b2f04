package accounts_test

import (
	"context"
	"testing"

	accounts "github.com/GugaValenca/user-management-system"
	goerrors "github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestUserProviderVerifyCredentials(t *testing.T) {
	ctx := context.Background()

	t.Run("valid credentials", func(t *testing.T) {
		store := new(MockUserFinder)
		hasher := new(MockHasher)

		user := &accounts.User{ID: uuid.New(), PasswordHash: "hash", IsActive: true}
		store.On("GetByIdentifier", ctx, "carol").Return(user, nil)
		hasher.On("ComparePasswordAndHash", "secret", "hash").Return(nil)

		provider := accounts.NewUserProvider(store, hasher)
		got, err := provider.VerifyCredentials(ctx, "carol", "secret")
		require.NoError(t, err)
		assert.Same(t, user, got)

		store.AssertExpectations(t)
		hasher.AssertExpectations(t)
	})

	t.Run("unknown identifier burns a comparison", func(t *testing.T) {
		store := new(MockUserFinder)
		hasher := new(MockHasher)

		store.On("GetByIdentifier", ctx, "ghost").Return(nil, accounts.ErrIdentityNotFound)
		hasher.On("HashPassword", mock.Anything).Return("dummy", nil).Once()
		hasher.On("ComparePasswordAndHash", "secret", "dummy").Return(accounts.ErrMismatchedHashAndPassword)

		provider := accounts.NewUserProvider(store, hasher)

		_, err := provider.VerifyCredentials(ctx, "ghost", "secret")
		assert.True(t, goerrors.Is(err, accounts.ErrInvalidCredentials))

		_, err = provider.VerifyCredentials(ctx, "ghost", "secret")
		assert.True(t, goerrors.Is(err, accounts.ErrInvalidCredentials))

		hasher.AssertNumberOfCalls(t, "HashPassword", 1)
		hasher.AssertNumberOfCalls(t, "ComparePasswordAndHash", 2)
	})

	t.Run("wrong password", func(t *testing.T) {
		store := new(MockUserFinder)
		hasher := new(MockHasher)

		user := &accounts.User{ID: uuid.New(), PasswordHash: "hash", IsActive: true}
		store.On("GetByIdentifier", ctx, "carol").Return(user, nil)
		hasher.On("ComparePasswordAndHash", "wrong", "hash").Return(accounts.ErrMismatchedHashAndPassword)

		provider := accounts.NewUserProvider(store, hasher)
		_, err := provider.VerifyCredentials(ctx, "carol", "wrong")
		assert.True(t, goerrors.Is(err, accounts.ErrInvalidCredentials))
	})

	t.Run("inactive account after password check", func(t *testing.T) {
		store := new(MockUserFinder)
		hasher := new(MockHasher)

		user := &accounts.User{ID: uuid.New(), PasswordHash: "hash", IsActive: false}
		store.On("GetByIdentifier", ctx, "carol").Return(user, nil)
		hasher.On("ComparePasswordAndHash", "secret", "hash").Return(nil)
		hasher.On("ComparePasswordAndHash", "wrong", "hash").Return(accounts.ErrMismatchedHashAndPassword)

		provider := accounts.NewUserProvider(store, hasher)

		_, err := provider.VerifyCredentials(ctx, "carol", "secret")
		assert.True(t, goerrors.Is(err, accounts.ErrAccountDisabled))

		_, err = provider.VerifyCredentials(ctx, "carol", "wrong")
		assert.True(t, goerrors.Is(err, accounts.ErrInvalidCredentials))
	})

	t.Run("store failure", func(t *testing.T) {
		store := new(MockUserFinder)
		hasher := new(MockHasher)
		logger := new(MockLogger)

		store.On("GetByIdentifier", ctx, "carol").Return(nil, assert.AnError)
		logger.On("Error", "VerifyCredentials find user", mock.Anything).Return()

		provider := accounts.NewUserProvider(store, hasher).WithLogger(logger)
		_, err := provider.VerifyCredentials(ctx, "carol", "secret")
		assert.True(t, accounts.IsServiceUnavailable(err))

		hasher.AssertNotCalled(t, "ComparePasswordAndHash", mock.Anything, mock.Anything)
		logger.AssertExpectations(t)
	})
}

func TestUserProviderResolveIdentity(t *testing.T) {
	ctx := context.Background()
	user := &accounts.User{
		ID:       uuid.New(),
		Email:    "carol@example.com",
		Username: "carol",
		Role:     accounts.RoleAdmin,
		IsActive: true,
	}

	store := new(MockUserFinder)
	store.On("GetByID", ctx, user.ID.String()).Return(user, nil)
	store.On("GetByID", ctx, "missing").Return(nil, accounts.ErrIdentityNotFound)
	store.On("GetByID", ctx, "broken").Return(nil, assert.AnError)

	provider := accounts.NewUserProvider(store, new(MockHasher))

	identity, err := provider.ResolveIdentity(ctx, user.ID.String())
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), identity.ID())
	assert.Equal(t, accounts.RoleAdmin, identity.Role())
	assert.Equal(t, "carol@example.com", identity.Email())

	_, err = provider.ResolveIdentity(ctx, "missing")
	assert.True(t, goerrors.Is(err, accounts.ErrIdentityNotFound))

	_, err = provider.ResolveIdentity(ctx, "broken")
	assert.True(t, accounts.IsServiceUnavailable(err))
}
