package accounts

import (
	"errors"
	"net/http"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	goerrors "github.com/goliatone/go-errors"
)

// Text codes attached to every error this package returns
const (
	TextCodeValidation          = "VALIDATION_ERROR"
	TextCodeDuplicateIdentifier = "DUPLICATE_IDENTIFIER"
	TextCodeInvalidCreds        = "INVALID_CREDENTIALS"
	TextCodeIncorrectPassword   = "INCORRECT_PASSWORD"
	TextCodeAccountDisabled     = "ACCOUNT_DISABLED"
	TextCodeInvalidToken        = "INVALID_TOKEN"
	TextCodeTokenExpired        = "TOKEN_EXPIRED"
	TextCodePermissionDenied    = "PERMISSION_DENIED"
	TextCodeServiceUnavailable  = "SERVICE_UNAVAILABLE"
	TextCodeIdentityNotFound    = "IDENTITY_NOT_FOUND"
	TextCodeEmptyPassword       = "EMPTY_PASSWORD"
)

// ErrDuplicateIdentifier is returned when the email or username is taken
var ErrDuplicateIdentifier = goerrors.New("a user with that email or username already exists", goerrors.CategoryConflict).
	WithTextCode(TextCodeDuplicateIdentifier).
	WithCode(goerrors.CodeConflict)

// ErrInvalidCredentials is returned for unknown identifiers and wrong passwords alike
var ErrInvalidCredentials = goerrors.New("invalid credentials", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds).
	WithCode(goerrors.CodeUnauthorized)

// ErrIncorrectPassword is returned when the current password does not verify
var ErrIncorrectPassword = goerrors.New("current password is incorrect", goerrors.CategoryValidation).
	WithTextCode(TextCodeIncorrectPassword).
	WithCode(goerrors.CodeBadRequest)

// ErrAccountDisabled is returned for inactive accounts
var ErrAccountDisabled = goerrors.New("user account is disabled", goerrors.CategoryAuth).
	WithTextCode(TextCodeAccountDisabled).
	WithCode(goerrors.CodeForbidden)

// ErrInvalidToken is returned for malformed, revoked or rotated tokens
var ErrInvalidToken = goerrors.New("invalid token", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidToken).
	WithCode(goerrors.CodeUnauthorized)

// ErrExpiredToken is returned for tokens past their expiration
var ErrExpiredToken = goerrors.New("token is expired", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(goerrors.CodeUnauthorized)

// ErrPermissionDenied is returned when the caller lacks the required role
var ErrPermissionDenied = goerrors.New("permission denied", goerrors.CategoryAuthz).
	WithTextCode(TextCodePermissionDenied).
	WithCode(goerrors.CodeForbidden)

// ErrServiceUnavailable is the shape of wrapped storage faults
var ErrServiceUnavailable = goerrors.New("service unavailable", goerrors.CategoryInternal).
	WithTextCode(TextCodeServiceUnavailable).
	WithCode(http.StatusServiceUnavailable)

// ErrIdentityNotFound is the error we return for non found identities
var ErrIdentityNotFound = goerrors.New("identity not found", goerrors.CategoryNotFound).
	WithTextCode(TextCodeIdentityNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrNoEmptyString is returned when hashing an empty password
var ErrNoEmptyString = goerrors.New("password must not be empty", goerrors.CategoryValidation).
	WithTextCode(TextCodeEmptyPassword).
	WithCode(goerrors.CodeBadRequest)

// ErrMismatchedHashAndPassword is returned by the hasher on mismatch
var ErrMismatchedHashAndPassword = goerrors.New("password does not match hash", goerrors.CategoryAuth).
	WithTextCode(TextCodeInvalidCreds).
	WithCode(goerrors.CodeUnauthorized)

// NewValidationError builds a field level validation error.
// fields maps a field name to its messages.
func NewValidationError(message string, fields map[string][]string) *goerrors.Error {
	meta := make(map[string]any, len(fields))
	for k, v := range fields {
		meta[k] = v
	}
	return goerrors.New(message, goerrors.CategoryValidation).
		WithTextCode(TextCodeValidation).
		WithCode(goerrors.CodeBadRequest).
		WithMetadata(meta)
}

// validationFromOzzo converts ozzo validation errors into a field level error
func validationFromOzzo(message string, err error) error {
	if err == nil {
		return nil
	}

	var errs validation.Errors
	if !errors.As(err, &errs) {
		return NewValidationError(message, map[string][]string{
			"non_field_errors": {err.Error()},
		})
	}

	return NewValidationError(message, FormatValidationErrorToMap(errs))
}

// FormatValidationErrorToMap flattens ozzo errors into field -> messages
func FormatValidationErrorToMap(errs validation.Errors) map[string][]string {
	out := make(map[string][]string, len(errs))
	for field, fe := range errs {
		if fe == nil {
			continue
		}
		var nested validation.Errors
		if errors.As(fe, &nested) {
			for k, v := range FormatValidationErrorToMap(nested) {
				out[field+"."+k] = append(out[field+"."+k], v...)
			}
			continue
		}
		out[field] = append(out[field], fe.Error())
	}
	return out
}

// serviceUnavailable wraps a storage fault without exposing its details
func serviceUnavailable(err error, message string) error {
	if err == nil {
		return nil
	}

	if isAccountError(err) {
		return err
	}

	return goerrors.Wrap(err, goerrors.CategoryInternal, message).
		WithTextCode(TextCodeServiceUnavailable).
		WithCode(http.StatusServiceUnavailable)
}

var accountTextCodes = map[string]struct{}{
	TextCodeValidation:          {},
	TextCodeDuplicateIdentifier: {},
	TextCodeInvalidCreds:        {},
	TextCodeIncorrectPassword:   {},
	TextCodeAccountDisabled:     {},
	TextCodeInvalidToken:        {},
	TextCodeTokenExpired:        {},
	TextCodePermissionDenied:    {},
	TextCodeServiceUnavailable:  {},
	TextCodeIdentityNotFound:    {},
	TextCodeEmptyPassword:       {},
}

// isAccountError reports errors already classified by this package
func isAccountError(err error) bool {
	_, ok := accountTextCodes[TextCode(err)]
	return ok
}

// TextCode returns the text code of a structured error or an empty string
func TextCode(err error) string {
	var richErr *goerrors.Error
	if errors.As(err, &richErr) {
		return richErr.TextCode
	}
	return ""
}

// IsValidationError reports field level validation failures
func IsValidationError(err error) bool {
	return TextCode(err) == TextCodeValidation
}

// IsServiceUnavailable reports wrapped storage faults
func IsServiceUnavailable(err error) bool {
	return TextCode(err) == TextCodeServiceUnavailable
}

// IsTokenExpiredError will check for expired tokens
func IsTokenExpiredError(err error) bool {
	if err == nil {
		return false
	}
	if TextCode(err) == TextCodeTokenExpired {
		return true
	}
	return strings.Contains(err.Error(), "token is expired")
}
