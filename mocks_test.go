package accounts_test

import (
	"context"
	"sync"
	"time"

	accounts "github.com/GugaValenca/user-management-system"
	"github.com/stretchr/testify/mock"
)

// MockLogger implements accounts.Logger for testing
type MockLogger struct {
	mock.Mock
}

func (m *MockLogger) Debug(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Info(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Warn(format string, args ...any) {
	m.Called(format, args)
}

func (m *MockLogger) Error(format string, args ...any) {
	m.Called(format, args)
}

// MockUserFinder implements accounts.UserFinder
type MockUserFinder struct {
	mock.Mock
}

func (m *MockUserFinder) GetByID(ctx context.Context, id string) (*accounts.User, error) {
	args := m.Called(ctx, id)
	if u := args.Get(0); u != nil {
		return u.(*accounts.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserFinder) GetByIdentifier(ctx context.Context, identifier string) (*accounts.User, error) {
	args := m.Called(ctx, identifier)
	if u := args.Get(0); u != nil {
		return u.(*accounts.User), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockHasher implements accounts.PasswordHasher
type MockHasher struct {
	mock.Mock
}

func (m *MockHasher) HashPassword(password string) (string, error) {
	args := m.Called(password)
	return args.String(0), args.Error(1)
}

func (m *MockHasher) ComparePasswordAndHash(password, hash string) error {
	args := m.Called(password, hash)
	return args.Error(0)
}

// memoryBlacklist is an in-process accounts.TokenBlacklist
type memoryBlacklist struct {
	mu      sync.Mutex
	entries map[string]accounts.BlacklistedToken
	err     error
}

func newMemoryBlacklist() *memoryBlacklist {
	return &memoryBlacklist{entries: map[string]accounts.BlacklistedToken{}}
}

func (b *memoryBlacklist) Blacklist(ctx context.Context, entry *accounts.BlacklistedToken) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.err != nil {
		return b.err
	}
	if _, ok := b.entries[entry.JTI]; ok {
		return accounts.ErrInvalidToken
	}
	b.entries[entry.JTI] = *entry
	return nil
}

func (b *memoryBlacklist) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.err != nil {
		return false, b.err
	}
	_, ok := b.entries[jti]
	return ok, nil
}

func (b *memoryBlacklist) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	var n int64
	for jti, e := range b.entries {
		if e.ExpiresAt.Before(now) {
			delete(b.entries, jti)
			n++
		}
	}
	return n, nil
}

func (b *memoryBlacklist) len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}
