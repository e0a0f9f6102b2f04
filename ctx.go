package accounts

import (
	"context"
	"strings"

	"github.com/goliatone/go-router"
)

var userCtxKey = &contextKey{"user"}
var clientCtxKey = &contextKey{"client"}

type contextKey struct {
	name string
}

// ClientInfo describes where a request came from
type ClientInfo struct {
	IP        string
	UserAgent string
}

// WithContext sets the User in the given context
func WithContext(r context.Context, user *User) context.Context {
	return context.WithValue(r, userCtxKey, user)
}

// FromContext finds the user from the context.
func FromContext(ctx context.Context) (*User, bool) {
	raw, ok := ctx.Value(userCtxKey).(*User)
	return raw, ok && raw != nil
}

// WithClientInfo sets the request origin in the given context
func WithClientInfo(r context.Context, client ClientInfo) context.Context {
	return context.WithValue(r, clientCtxKey, client)
}

// ClientFromContext returns the request origin, zero value when absent
func ClientFromContext(ctx context.Context) ClientInfo {
	raw, _ := ctx.Value(clientCtxKey).(ClientInfo)
	return raw
}

// ClientFromRouter builds ClientInfo from the router context.
// The first X-Forwarded-For entry wins over the peer address.
func ClientFromRouter(ctx router.Context) ClientInfo {
	ip := firstForwardedFor(ctx.Header("X-Forwarded-For"))
	if ip == "" {
		ip = ctx.IP()
	}
	return ClientInfo{
		IP:        ip,
		UserAgent: ctx.Header("User-Agent"),
	}
}

func firstForwardedFor(header string) string {
	first, _, _ := strings.Cut(header, ",")
	return strings.TrimSpace(first)
}
