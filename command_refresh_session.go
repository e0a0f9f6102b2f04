package accounts

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation"
)

// RefreshMessage carries the refresh token to rotate
type RefreshMessage struct {
	RefreshToken string `json:"refresh"`
}

func (e RefreshMessage) Type() string { return "session.refresh" }

// Validate requires the refresh token
func (e RefreshMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.RefreshToken, validation.Required),
	)
}

// RefreshSession rotates a refresh token into a new pair.
// The presented token cannot be used again.
func (s *Service) RefreshSession(ctx context.Context, msg RefreshMessage) (tokens TokenPair, err error) {
	defer func() { s.observe("refresh", err) }()

	if err := msg.Validate(); err != nil {
		return TokenPair{}, validationFromOzzo("refresh token is required", err)
	}

	tokens, err = s.tokens.Rotate(ctx, msg.RefreshToken)
	if err != nil {
		return TokenPair{}, s.storageError("refresh", err)
	}

	return tokens, nil
}
