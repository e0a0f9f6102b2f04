package accounts

import (
	"context"
	"fmt"
	"strings"
)

// Logger is the logging surface used across the package.
// Messages are followed by key/value pairs.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Identity holds the attributes of an identity
type Identity interface {
	ID() string
	Username() string
	Email() string
	Role() string
}

// PasswordHasher hashes and verifies passwords
type PasswordHasher interface {
	HashPassword(password string) (string, error)
	ComparePasswordAndHash(password, hash string) error
}

// TokenIssuer mints, rotates, revokes and validates session tokens
type TokenIssuer interface {
	Issue(ctx context.Context, identity Identity) (TokenPair, error)
	Rotate(ctx context.Context, refreshToken string) (TokenPair, error)
	Revoke(ctx context.Context, refreshToken string, ownerID string) error
	Validate(tokenString string) (AuthClaims, error)
}

// IdentityResolver loads the current identity for a user id
type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, id string) (Identity, error)
}

// IdentityResolverFunc adapts a function to the IdentityResolver interface.
type IdentityResolverFunc func(ctx context.Context, id string) (Identity, error)

// ResolveIdentity implements IdentityResolver.
func (f IdentityResolverFunc) ResolveIdentity(ctx context.Context, id string) (Identity, error) {
	return f(ctx, id)
}

type defLogger struct{}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Print("[DBG] ACCOUNTS " + render(format, args...))
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Print("[INF] ACCOUNTS " + render(format, args...))
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Print("[WRN] ACCOUNTS " + render(format, args...))
}

func (d defLogger) Error(format string, args ...any) {
	fmt.Print("[ERR] ACCOUNTS " + render(format, args...))
}

func render(msg string, args ...any) string {
	var b strings.Builder
	b.WriteString(msg)
	for i := 0; i < len(args); i += 2 {
		if i+1 < len(args) {
			fmt.Fprintf(&b, " %v=%v", args[i], args[i+1])
		} else {
			fmt.Fprintf(&b, " %v", args[i])
		}
	}
	return newline(b.String())
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}

func normalizeLogger(l Logger) Logger {
	if l == nil {
		return defLogger{}
	}
	return l
}
