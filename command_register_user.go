package accounts

import (
	"context"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"github.com/uptrace/bun"
)

var usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

// RegisterUserMessage is the registration input
type RegisterUserMessage struct {
	Email           string `json:"email"`
	Username        string `json:"username"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

func (e RegisterUserMessage) Type() string { return "user.register" }

// Validate checks field shapes and the confirmation
func (e RegisterUserMessage) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Email, validation.Required, validation.Length(3, 254), is.Email),
		validation.Field(&e.Username, validation.Required, validation.Length(1, 150), validation.Match(usernamePattern)),
		validation.Field(&e.FirstName, validation.Length(0, 30)),
		validation.Field(&e.LastName, validation.Length(0, 30)),
		validation.Field(&e.Password, validation.Required),
		validation.Field(
			&e.PasswordConfirm,
			validation.Required,
			validation.By(ValidateStringEquals(e.Password)),
		),
	)
}

func (e RegisterUserMessage) normalized() RegisterUserMessage {
	e.Email = strings.TrimSpace(e.Email)
	e.Username = strings.TrimSpace(e.Username)
	e.FirstName = strings.TrimSpace(e.FirstName)
	e.LastName = strings.TrimSpace(e.LastName)
	return e
}

// Register creates an account, records the register activity in the same
// transaction, then issues a token pair.
func (s *Service) Register(ctx context.Context, msg RegisterUserMessage) (res AuthResult, err error) {
	defer func() { s.observe("register", err) }()

	msg = msg.normalized()

	if err := msg.Validate(); err != nil {
		return AuthResult{}, validationFromOzzo("invalid registration", err)
	}

	attrs := PasswordAttributes{
		Username:  msg.Username,
		Email:     msg.Email,
		FirstName: msg.FirstName,
		LastName:  msg.LastName,
	}
	if err := s.policy.Check("password", msg.Password, attrs); err != nil {
		return AuthResult{}, err
	}

	hash, err := s.hasher.HashPassword(msg.Password)
	if err != nil {
		if isAccountError(err) {
			return AuthResult{}, err
		}
		return AuthResult{}, serviceUnavailable(err, "failed to hash password")
	}

	user := &User{
		Email:        msg.Email,
		Username:     msg.Username,
		FirstName:    msg.FirstName,
		LastName:     msg.LastName,
		PasswordHash: hash,
		Role:         RoleUser,
		IsActive:     true,
	}
	client := ClientFromContext(ctx)

	err = s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		created, err := s.repo.Users().CreateTx(ctx, tx, user)
		if err != nil {
			return err
		}
		if created != nil {
			user = created
		}

		return s.activity.Record(ctx, tx, newActivityEntry(user, ActivityRegister, client))
	})
	if err != nil {
		return AuthResult{}, s.storageError("register", err)
	}

	s.logger.Info("user registered", "user_id", user.ID.String())

	tokens, err := s.tokens.Issue(ctx, user.Identity())
	if err != nil {
		s.logger.Error("register issue tokens", "user_id", user.ID.String(), "error", err)
		return AuthResult{}, s.storageError("register", err)
	}

	return AuthResult{
		User:   NewIdentitySnapshot(user),
		Tokens: tokens,
	}, nil
}
