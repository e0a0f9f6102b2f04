package accounts

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/uptrace/bun"
)

// LogoutMessage names the refresh token to revoke
type LogoutMessage struct {
	RefreshToken string `json:"refresh_token"`
}

func (e LogoutMessage) Type() string { return "user.logout" }

// Validate requires the refresh token
func (e LogoutMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.RefreshToken, validation.Required.Error("refresh_token is required")),
	)
}

// Logout revokes the caller's refresh token. The logout activity is
// written after the revocation and its failure is only logged.
func (s *Service) Logout(ctx context.Context, caller *User, msg LogoutMessage) (err error) {
	defer func() { s.observe("logout", err) }()

	if caller == nil {
		return ErrInvalidToken
	}

	if err := msg.Validate(); err != nil {
		return validationFromOzzo("refresh_token is required", err)
	}

	if err := s.tokens.Revoke(ctx, msg.RefreshToken, caller.ID.String()); err != nil {
		return s.storageError("logout", err)
	}

	client := ClientFromContext(ctx)
	aerr := s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return s.activity.Record(ctx, tx, newActivityEntry(caller, ActivityLogout, client))
	})
	if aerr != nil {
		s.logger.Warn("logout activity not recorded", "user_id", caller.ID.String(), "error", aerr)
	}

	return nil
}
