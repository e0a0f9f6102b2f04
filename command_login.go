package accounts

import (
	"context"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/uptrace/bun"
)

// LoginMessage carries credentials. Identifier is an email or a username.
type LoginMessage struct {
	Identifier string `json:"identifier"`
	Email      string `json:"email,omitempty"`
	Password   string `json:"password"`
}

func (e LoginMessage) Type() string { return "user.login" }

// GetIdentifier returns the identifier, falling back to email
func (e LoginMessage) GetIdentifier() string {
	if id := strings.TrimSpace(e.Identifier); id != "" {
		return id
	}
	return strings.TrimSpace(e.Email)
}

// GetPassword returns the password
func (e LoginMessage) GetPassword() string {
	return e.Password
}

// Validate requires both parts of the credentials
func (e LoginMessage) Validate() error {
	identifier := e.GetIdentifier()
	return validation.Errors{
		"identifier": validation.Validate(identifier, validation.Required),
		"password":   validation.Validate(e.Password, validation.Required),
	}.Filter()
}

// Login verifies credentials, records the login and issues a token pair.
// Unknown identifiers and wrong passwords fail identically.
func (s *Service) Login(ctx context.Context, msg LoginMessage) (res AuthResult, err error) {
	defer func() { s.observe("login", err) }()

	if err := msg.Validate(); err != nil {
		return AuthResult{}, validationFromOzzo("must include identifier and password", err)
	}

	user, err := s.provider.VerifyCredentials(ctx, msg.GetIdentifier(), msg.GetPassword())
	if err != nil {
		return AuthResult{}, err
	}

	client := ClientFromContext(ctx)

	err = s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := s.repo.Users().TrackLoginTx(ctx, tx, user, client.IP); err != nil {
			return err
		}
		return s.activity.Record(ctx, tx, newActivityEntry(user, ActivityLogin, client))
	})
	if err != nil {
		return AuthResult{}, s.storageError("login", err)
	}

	tokens, err := s.tokens.Issue(ctx, user.Identity())
	if err != nil {
		s.logger.Error("login issue tokens", "user_id", user.ID.String(), "error", err)
		return AuthResult{}, s.storageError("login", err)
	}

	s.logger.Debug("user logged in", "user_id", user.ID.String())

	return AuthResult{
		User:   NewIdentitySnapshot(user),
		Tokens: tokens,
	}, nil
}
