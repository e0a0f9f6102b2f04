package accounts

import (
	"context"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/uptrace/bun"
)

// UpdateProfileMessage holds the editable profile fields.
// Nil fields are left unchanged. Email and role are not editable here.
type UpdateProfileMessage struct {
	FirstName      *string `json:"first_name,omitempty"`
	LastName       *string `json:"last_name,omitempty"`
	Phone          *string `json:"phone_number,omitempty"`
	Bio            *string `json:"bio,omitempty"`
	DateOfBirth    *string `json:"date_of_birth,omitempty"`
	ProfilePicture *string `json:"profile_picture,omitempty"`
}

func (e UpdateProfileMessage) Type() string { return "user.profile.update" }

// Validate checks lengths of the provided fields
func (e UpdateProfileMessage) Validate() error {
	return validation.Errors{
		"first_name":      validateOptional(e.FirstName, validation.Length(0, 30)),
		"last_name":       validateOptional(e.LastName, validation.Length(0, 30)),
		"bio":             validateOptional(e.Bio, validation.Length(0, 500)),
		"profile_picture": validateOptional(e.ProfilePicture, validation.Length(0, 255)),
	}.Filter()
}

func validateOptional(value *string, rules ...validation.Rule) error {
	if value == nil {
		return nil
	}
	return validation.Validate(*value, rules...)
}

// UpdateProfile persists the changed fields and records profile_update
// in the same transaction.
func (s *Service) UpdateProfile(ctx context.Context, caller *User, msg UpdateProfileMessage) (snapshot IdentitySnapshot, err error) {
	defer func() { s.observe("update_profile", err) }()

	if caller == nil {
		return IdentitySnapshot{}, ErrInvalidToken
	}

	if err := msg.Validate(); err != nil {
		return IdentitySnapshot{}, validationFromOzzo("invalid profile", err)
	}

	updated := *caller
	columns := make([]string, 0, 6)
	fields := map[string][]string{}

	if msg.FirstName != nil {
		updated.FirstName = strings.TrimSpace(*msg.FirstName)
		columns = append(columns, "first_name")
	}

	if msg.LastName != nil {
		updated.LastName = strings.TrimSpace(*msg.LastName)
		columns = append(columns, "last_name")
	}

	if msg.Bio != nil {
		updated.Bio = *msg.Bio
		columns = append(columns, "bio")
	}

	if msg.ProfilePicture != nil {
		updated.ProfilePicture = strings.TrimSpace(*msg.ProfilePicture)
		columns = append(columns, "profile_picture")
	}

	if msg.Phone != nil {
		phone, perr := NormalizePhone(*msg.Phone, s.phoneRegion)
		if perr != nil {
			fields["phone_number"] = []string{perr.Error()}
		} else {
			updated.Phone = phone
			columns = append(columns, "phone_number")
		}
	}

	if msg.DateOfBirth != nil {
		dob, derr := ParseDateOfBirth(*msg.DateOfBirth, s.now())
		if derr != nil {
			fields["date_of_birth"] = []string{derr.Error()}
		} else {
			updated.DateOfBirth = dob
			columns = append(columns, "date_of_birth")
		}
	}

	if len(fields) > 0 {
		return IdentitySnapshot{}, NewValidationError("invalid profile", fields)
	}

	client := ClientFromContext(ctx)
	err = s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := s.repo.Users().UpdateColumnsTx(ctx, tx, &updated, columns...); err != nil {
			return err
		}
		return s.activity.Record(ctx, tx, newActivityEntry(&updated, ActivityProfileUpdate, client))
	})
	if err != nil {
		return IdentitySnapshot{}, s.storageError("update_profile", err)
	}

	*caller = updated

	return NewIdentitySnapshot(caller), nil
}
