package accounts_test

import (
	"testing"
	"time"

	accounts "github.com/GugaValenca/user-management-system"
	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigFromMapDefaults(t *testing.T) {
	cfg, err := accounts.LoadConfigFromMap(map[string]string{
		"ACCOUNTS_SIGNING_KEY": testSigningKey,
	})
	require.NoError(t, err)

	assert.Equal(t, "accounts", cfg.Issuer)
	assert.Equal(t, []string{"accounts:api"}, cfg.Audience)
	assert.Equal(t, 60*time.Minute, cfg.AccessTokenTTL)
	assert.Equal(t, 7*24*time.Hour, cfg.RefreshTokenTTL)
	assert.Equal(t, accounts.DefaultPasswordHashCost, cfg.PasswordHashCost)
	assert.Equal(t, accounts.DefaultPasswordMinLength, cfg.PasswordMinLength)
	assert.Equal(t, "US", cfg.PhoneRegion)
	assert.False(t, cfg.HashidUserIDs)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Len(t, cfg.TokenOptions(), 4)
}

func TestLoadConfigFromMapOverrides(t *testing.T) {
	cfg, err := accounts.LoadConfigFromMap(map[string]string{
		"ACCOUNTS_SIGNING_KEY":       testSigningKey,
		"ACCOUNTS_AUDIENCE":          "web,mobile",
		"ACCOUNTS_ACCESS_TOKEN_TTL":  "15m",
		"ACCOUNTS_REFRESH_TOKEN_TTL": "24h",
		"ACCOUNTS_DATABASE_DSN":      "postgres://accounts@localhost/accounts",
		"ACCOUNTS_HASHID_USER_IDS":   "true",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"web", "mobile"}, cfg.Audience)
	assert.Equal(t, 15*time.Minute, cfg.GetAccessTokenTTL())
	assert.Equal(t, 24*time.Hour, cfg.GetRefreshTokenTTL())
	assert.True(t, cfg.HashidUserIDs)
	assert.True(t, accounts.IsPostgresDSN(cfg.DatabaseDSN))
}

func TestLoadConfigFromMapRejectsInvalid(t *testing.T) {
	tests := []struct {
		name   string
		values map[string]string
		field  string
	}{
		{
			name:   "missing signing key",
			values: map[string]string{},
			field:  "signing_key",
		},
		{
			name:   "short signing key",
			values: map[string]string{"ACCOUNTS_SIGNING_KEY": "short"},
			field:  "signing_key",
		},
		{
			name: "access outlives refresh",
			values: map[string]string{
				"ACCOUNTS_SIGNING_KEY":       testSigningKey,
				"ACCOUNTS_ACCESS_TOKEN_TTL":  "2h",
				"ACCOUNTS_REFRESH_TOKEN_TTL": "1h",
			},
			field: "refresh_token_ttl",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := accounts.LoadConfigFromMap(tt.values)
			require.Error(t, err)
			assert.True(t, accounts.IsValidationError(err))

			var richErr *goerrors.Error
			require.True(t, goerrors.As(err, &richErr))
			assert.Contains(t, richErr.Metadata, tt.field)
		})
	}

	_, err := accounts.LoadConfigFromMap(map[string]string{
		"ACCOUNTS_SIGNING_KEY":      testSigningKey,
		"ACCOUNTS_ACCESS_TOKEN_TTL": "soon",
	})
	assert.Error(t, err)
}

func TestConfigMasked(t *testing.T) {
	cfg, err := accounts.LoadConfigFromMap(map[string]string{
		"ACCOUNTS_SIGNING_KEY": testSigningKey,
	})
	require.NoError(t, err)

	masked := cfg.Masked()
	assert.Equal(t, "********", masked.SigningKey)
	assert.Equal(t, testSigningKey, cfg.GetSigningKey())
	assert.NotContains(t, print.MaybePrettyJSON(masked), testSigningKey)
}
