package accounts

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	goerrors "github.com/goliatone/go-errors"
)

// MinSigningKeyLength is the shortest accepted HS256 key
const MinSigningKeyLength = 32

// Config holds the service options, loaded from ACCOUNTS_* variables
type Config struct {
	DatabaseDSN       string        `env:"DATABASE_DSN" envDefault:"file:accounts.db?cache=shared"`
	DatabasePing      time.Duration `env:"DATABASE_PING_TIMEOUT" envDefault:"5s"`
	SigningKey        string        `env:"SIGNING_KEY"`
	Issuer            string        `env:"ISSUER" envDefault:"accounts"`
	Audience          []string      `env:"AUDIENCE" envSeparator:"," envDefault:"accounts:api"`
	AccessTokenTTL    time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"60m"`
	RefreshTokenTTL   time.Duration `env:"REFRESH_TOKEN_TTL" envDefault:"168h"`
	PasswordHashCost  int           `env:"PASSWORD_HASH_COST" envDefault:"14"`
	PasswordMinLength int           `env:"PASSWORD_MIN_LENGTH" envDefault:"8"`
	PhoneRegion       string        `env:"PHONE_REGION" envDefault:"US"`
	HashidUserIDs     bool          `env:"HASHID_USER_IDS" envDefault:"false"`
	ListenAddr        string        `env:"LISTEN_ADDR" envDefault:":8080"`
	MetricsAddr       string        `env:"METRICS_ADDR" envDefault:":9090"`
	Debug             bool          `env:"DEBUG" envDefault:"false"`
}

// LoadConfig parses the process environment
func LoadConfig() (Config, error) {
	return parseConfig(env.Options{Prefix: "ACCOUNTS_"})
}

// LoadConfigFromMap parses values from a map instead of the environment
func LoadConfigFromMap(values map[string]string) (Config, error) {
	return parseConfig(env.Options{Prefix: "ACCOUNTS_", Environment: values})
}

func parseConfig(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, goerrors.Wrap(err, goerrors.CategoryBadInput, "parse env")
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// Validate checks the settings the service cannot start without
func (c Config) Validate() error {
	problems := map[string][]string{}

	if len(c.SigningKey) < MinSigningKeyLength {
		problems["signing_key"] = append(problems["signing_key"],
			fmt.Sprintf("must be at least %d bytes", MinSigningKeyLength))
	}

	if c.AccessTokenTTL <= 0 {
		problems["access_token_ttl"] = append(problems["access_token_ttl"], "must be positive")
	}

	if c.AccessTokenTTL >= c.RefreshTokenTTL {
		problems["refresh_token_ttl"] = append(problems["refresh_token_ttl"], "must be longer than access_token_ttl")
	}

	if strings.TrimSpace(c.DatabaseDSN) == "" {
		problems["database_dsn"] = append(problems["database_dsn"], "is required")
	}

	if len(problems) > 0 {
		return NewValidationError("invalid configuration", problems)
	}

	return nil
}

// GetSigningKey returns the HS256 key
func (c Config) GetSigningKey() string { return c.SigningKey }

// GetIssuer returns the token issuer
func (c Config) GetIssuer() string { return c.Issuer }

// GetAudience returns the token audience
func (c Config) GetAudience() []string { return c.Audience }

// GetAccessTokenTTL returns the access token lifetime
func (c Config) GetAccessTokenTTL() time.Duration { return c.AccessTokenTTL }

// GetRefreshTokenTTL returns the refresh token lifetime
func (c Config) GetRefreshTokenTTL() time.Duration { return c.RefreshTokenTTL }

// Persistence returns the database section
func (c Config) Persistence() PersistenceConfig {
	return PersistenceConfig{
		DSN:         c.DatabaseDSN,
		Debug:       c.Debug,
		PingTimeout: c.DatabasePing,
	}
}

// TokenOptions maps the config onto TokenService options
func (c Config) TokenOptions() []TokenOption {
	return []TokenOption{
		WithAccessTTL(c.AccessTokenTTL),
		WithRefreshTTL(c.RefreshTokenTTL),
		WithIssuer(c.Issuer),
		WithAudience(c.Audience...),
	}
}

// Masked returns a copy safe to print
func (c Config) Masked() Config {
	if c.SigningKey != "" {
		c.SigningKey = "********"
	}
	return c
}
