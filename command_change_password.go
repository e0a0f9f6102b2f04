package accounts

import (
	"context"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/uptrace/bun"
)

// ChangePasswordMessage is the password change input
type ChangePasswordMessage struct {
	OldPassword        string `json:"old_password"`
	NewPassword        string `json:"new_password"`
	NewPasswordConfirm string `json:"new_password_confirm"`
}

func (e ChangePasswordMessage) Type() string { return "user.password.change" }

// Validate checks presence, the confirmation and that the password changes
func (e ChangePasswordMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.OldPassword, validation.Required),
		validation.Field(
			&e.NewPassword,
			validation.Required,
			validation.By(ValidateStringDiffers(e.OldPassword)),
		),
		validation.Field(
			&e.NewPasswordConfirm,
			validation.Required,
			validation.By(ValidateStringEquals(e.NewPassword)),
		),
	)
}

// ChangePassword replaces the caller's hash after verifying the current
// password. Hash and activity are written in one transaction.
func (s *Service) ChangePassword(ctx context.Context, caller *User, msg ChangePasswordMessage) (err error) {
	defer func() { s.observe("change_password", err) }()

	if caller == nil {
		return ErrInvalidToken
	}

	if err := msg.Validate(); err != nil {
		return validationFromOzzo("invalid password change", err)
	}

	if err := s.hasher.ComparePasswordAndHash(msg.OldPassword, caller.PasswordHash); err != nil {
		return ErrIncorrectPassword
	}

	attrs := PasswordAttributes{
		Username:  caller.Username,
		Email:     caller.Email,
		FirstName: caller.FirstName,
		LastName:  caller.LastName,
	}
	if err := s.policy.Check("new_password", msg.NewPassword, attrs); err != nil {
		return err
	}

	hash, err := s.hasher.HashPassword(msg.NewPassword)
	if err != nil {
		if isAccountError(err) {
			return err
		}
		return serviceUnavailable(err, "failed to hash password")
	}

	client := ClientFromContext(ctx)
	err = s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := s.repo.Users().SetPasswordTx(ctx, tx, caller.ID, hash); err != nil {
			return err
		}
		return s.activity.Record(ctx, tx, newActivityEntry(caller, ActivityPasswordChange, client))
	})
	if err != nil {
		return s.storageError("change_password", err)
	}

	caller.PasswordHash = hash
	s.logger.Info("password changed", "user_id", caller.ID.String())

	return nil
}
