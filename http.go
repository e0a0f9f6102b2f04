package accounts

import (
	"context"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// CallerLocalsKey is the router locals key holding the authenticated *User
const CallerLocalsKey = "user"

// AuthScheme is the Authorization header scheme
const AuthScheme = "Bearer"

// CallerResolver turns an access token into the authenticated user
type CallerResolver interface {
	ResolveCaller(ctx context.Context, accessToken string) (*User, error)
}

// ErrorResponse is the JSON body of every failed request
type ErrorResponse struct {
	Error  string         `json:"error"`
	Code   string         `json:"code,omitempty"`
	Fields map[string]any `json:"fields,omitempty"`
}

// BearerAuth rejects requests without a valid access token and stores the
// caller under CallerLocalsKey.
func BearerAuth(resolver CallerResolver, errorHandler func(router.Context, error) error) router.MiddlewareFunc {
	if errorHandler == nil {
		errorHandler = func(ctx router.Context, err error) error {
			return RenderError(ctx, err, nil)
		}
	}

	return func(next router.HandlerFunc) router.HandlerFunc {
		return func(ctx router.Context) error {
			token, err := ExtractBearerToken(ctx.Header("Authorization"))
			if err != nil {
				return errorHandler(ctx, err)
			}

			user, err := resolver.ResolveCaller(ctx.Context(), token)
			if err != nil {
				return errorHandler(ctx, err)
			}

			ctx.Locals(CallerLocalsKey, user)

			return next(ctx)
		}
	}
}

// ExtractBearerToken returns the token of a "Bearer <token>" header
func ExtractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if len(header) <= len(AuthScheme)+1 || !strings.EqualFold(header[:len(AuthScheme)], AuthScheme) || header[len(AuthScheme)] != ' ' {
		return "", ErrInvalidToken
	}

	token := strings.TrimSpace(header[len(AuthScheme)+1:])
	if token == "" {
		return "", ErrInvalidToken
	}
	return token, nil
}

// CallerFromRouter returns the user stored by BearerAuth
func CallerFromRouter(ctx router.Context) (*User, bool) {
	raw := ctx.Locals(CallerLocalsKey)
	if raw == nil {
		return nil, false
	}
	user, ok := raw.(*User)
	return user, ok && user != nil
}

// RequestContext builds the std context for a request: the router's
// context plus the client origin and, when present, the caller.
func RequestContext(ctx router.Context) context.Context {
	c := WithClientInfo(ctx.Context(), ClientFromRouter(ctx))
	if user, ok := CallerFromRouter(ctx); ok {
		c = WithContext(c, user)
	}
	return c
}

// RenderError writes err as JSON using its go-errors code and text code.
// Internal failures never expose their cause.
func RenderError(ctx router.Context, err error, logger Logger) error {
	logger = normalizeLogger(logger)

	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		richErr = goerrors.Wrap(err, goerrors.CategoryInternal, "An unexpected server error occurred").
			WithCode(goerrors.CodeInternal)
	}

	status := richErr.Code
	if status == 0 {
		status = http.StatusInternalServerError
	}

	body := ErrorResponse{
		Error: richErr.Message,
		Code:  richErr.TextCode,
	}

	if richErr.Category == goerrors.CategoryValidation && len(richErr.Metadata) > 0 {
		body.Fields = richErr.Metadata
	}

	if status >= http.StatusInternalServerError {
		logger.Error("request failed",
			"error", err,
			"category", richErr.Category,
			"details", print.MaybePrettyJSON(richErr.Metadata),
		)
		body.Fields = nil
		if status == http.StatusServiceUnavailable {
			body.Error = "service unavailable"
		} else {
			body.Error = "internal server error"
		}
	} else {
		logger.Debug("request rejected", "code", richErr.TextCode, "status", status)
	}

	return ctx.JSON(status, body)
}
