package accounts

import (
	"context"
	"sync"

	goerrors "github.com/goliatone/go-errors"
)

// UserFinder is the read side of the credential store
type UserFinder interface {
	GetByID(ctx context.Context, id string) (*User, error)
	GetByIdentifier(ctx context.Context, identifier string) (*User, error)
}

// UserProvider verifies credentials and resolves identities
type UserProvider struct {
	store  UserFinder
	hasher PasswordHasher
	logger Logger

	dummyOnce sync.Once
	dummyHash string
}

var _ IdentityResolver = (*UserProvider)(nil)

// NewUserProvider will create a new UserProvider
func NewUserProvider(store UserFinder, hasher PasswordHasher) *UserProvider {
	if hasher == nil {
		hasher = NewBcryptHasher(0)
	}
	return &UserProvider{
		store:  store,
		hasher: hasher,
		logger: defLogger{},
	}
}

// WithLogger sets the logger
func (u *UserProvider) WithLogger(l Logger) *UserProvider {
	u.logger = normalizeLogger(l)
	return u
}

// VerifyCredentials finds the user and checks the password.
// Unknown identifiers and wrong passwords both yield ErrInvalidCredentials.
// Inactive accounts are reported only after the password verifies.
func (u *UserProvider) VerifyCredentials(ctx context.Context, identifier, password string) (*User, error) {
	user, err := u.store.GetByIdentifier(ctx, identifier)
	if err != nil {
		if IsIdentityNotFound(err) {
			u.burnCompare(password)
			return nil, ErrInvalidCredentials
		}
		u.logger.Error("VerifyCredentials find user", "error", err)
		return nil, serviceUnavailable(err, "failed to retrieve user during verification")
	}

	if err := u.hasher.ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		if !goerrors.Is(err, ErrMismatchedHashAndPassword) {
			u.logger.Warn("VerifyCredentials compare hash", "user_id", user.ID.String(), "error", err)
		}
		return nil, ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, ErrAccountDisabled
	}

	return user, nil
}

// ResolveIdentity loads the current identity by id
func (u *UserProvider) ResolveIdentity(ctx context.Context, id string) (Identity, error) {
	user, err := u.store.GetByID(ctx, id)
	if err != nil {
		if IsIdentityNotFound(err) {
			return nil, ErrIdentityNotFound
		}
		return nil, serviceUnavailable(err, "failed to resolve identity")
	}
	return user.Identity(), nil
}

// burnCompare spends one hash comparison so unknown identifiers cost
// about as much as a wrong password
func (u *UserProvider) burnCompare(password string) {
	u.dummyOnce.Do(func() {
		h, err := u.hasher.HashPassword("not-a-real-password")
		if err != nil {
			u.logger.Warn("VerifyCredentials dummy hash", "error", err)
			return
		}
		u.dummyHash = h
	})

	if u.dummyHash != "" {
		_ = u.hasher.ComparePasswordAndHash(password, u.dummyHash)
	}
}
