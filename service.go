package accounts

import (
	"context"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// DefaultPhoneRegion is used to parse phone numbers without a country prefix
const DefaultPhoneRegion = "US"

// AuthResult is returned by operations that start a session
type AuthResult struct {
	User   IdentitySnapshot `json:"user"`
	Tokens TokenPair        `json:"tokens"`
}

// Service implements the account operations
type Service struct {
	repo        RepositoryManager
	tokens      TokenIssuer
	hasher      PasswordHasher
	policy      *PasswordPolicy
	activity    ActivityRecorder
	provider    *UserProvider
	metrics     *Metrics
	logger      Logger
	phoneRegion string
	now         func() time.Time
}

// ServiceOption configures the Service
type ServiceOption func(*Service)

// WithPasswordHasher overrides the bcrypt hasher
func WithPasswordHasher(h PasswordHasher) ServiceOption {
	return func(s *Service) {
		if h != nil {
			s.hasher = h
		}
	}
}

// WithPasswordPolicy overrides the default strength rules
func WithPasswordPolicy(p *PasswordPolicy) ServiceOption {
	return func(s *Service) {
		if p != nil {
			s.policy = p
		}
	}
}

// WithActivityRecorder overrides the audit store
func WithActivityRecorder(r ActivityRecorder) ServiceOption {
	return func(s *Service) {
		if r != nil {
			s.activity = r
		}
	}
}

// WithMetrics enables operation counters
func WithMetrics(m *Metrics) ServiceOption {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithLogger sets the logger
func WithLogger(l Logger) ServiceOption {
	return func(s *Service) {
		s.logger = l
	}
}

// WithPhoneRegion sets the default region for phone parsing
func WithPhoneRegion(region string) ServiceOption {
	return func(s *Service) {
		if region != "" {
			s.phoneRegion = region
		}
	}
}

// WithServiceClock overrides time.Now
func WithServiceClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// NewService builds the account service
func NewService(repo RepositoryManager, tokens TokenIssuer, opts ...ServiceOption) (*Service, error) {
	if repo == nil {
		return nil, goerrors.New("repository manager is required", goerrors.CategoryBadInput)
	}

	if err := repo.Validate(); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "invalid repository manager")
	}

	if tokens == nil {
		return nil, goerrors.New("token issuer is required", goerrors.CategoryBadInput)
	}

	s := &Service{
		repo:        repo,
		tokens:      tokens,
		phoneRegion: DefaultPhoneRegion,
		now:         time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	s.logger = normalizeLogger(s.logger)

	if s.hasher == nil {
		s.hasher = NewBcryptHasher(0)
	}

	if s.policy == nil {
		s.policy = NewPasswordPolicy()
	}

	if s.activity == nil {
		s.activity = repo.ActivityLogs()
	}

	s.provider = NewUserProvider(repo.Users(), s.hasher).WithLogger(s.logger)

	return s, nil
}

// Provider exposes the credential verifier, also usable as IdentityResolver
func (s *Service) Provider() *UserProvider {
	return s.provider
}

// ResolveCaller validates an access token and loads its active owner
func (s *Service) ResolveCaller(ctx context.Context, accessToken string) (*User, error) {
	claims, err := s.tokens.Validate(accessToken)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.Users().GetByID(ctx, claims.UserID())
	if err != nil {
		if IsIdentityNotFound(err) {
			return nil, ErrInvalidToken
		}
		s.logger.Error("ResolveCaller load user", "error", err)
		return nil, serviceUnavailable(err, "failed to load caller")
	}

	if !user.IsActive {
		return nil, ErrAccountDisabled
	}

	return user, nil
}

// Profile returns the caller's snapshot
func (s *Service) Profile(ctx context.Context, caller *User) (IdentitySnapshot, error) {
	if caller == nil {
		return IdentitySnapshot{}, ErrInvalidToken
	}
	return NewIdentitySnapshot(caller), nil
}

// ActivityLogs lists the caller's own activity, most recent first
func (s *Service) ActivityLogs(ctx context.Context, caller *User, limit int) ([]ActivitySnapshot, error) {
	if caller == nil {
		return nil, ErrInvalidToken
	}

	records, err := s.repo.ActivityLogs().ListForUser(ctx, caller.ID, limit)
	if err != nil {
		s.logger.Error("ActivityLogs list", "user_id", caller.ID.String(), "error", err)
		return nil, serviceUnavailable(err, "failed to list activity logs")
	}

	out := make([]ActivitySnapshot, 0, len(records))
	for _, r := range records {
		out = append(out, NewActivitySnapshot(r, caller.Email))
	}
	return out, nil
}

// storageError keeps structured errors and wraps everything else
func (s *Service) storageError(op string, err error) error {
	if err == nil {
		return nil
	}

	if isAccountError(err) {
		return err
	}

	s.logger.Error(op+" storage failure", "error", err)
	return serviceUnavailable(err, op+" failed")
}

func (s *Service) observe(op string, err error) {
	s.metrics.Observe(op, err)
}
