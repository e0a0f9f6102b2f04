package accounts_test

import (
	"strings"
	"testing"

	accounts "github.com/GugaValenca/user-management-system"
	goerrors "github.com/goliatone/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func policyMessages(t *testing.T, err error, field string) []string {
	t.Helper()

	var richErr *goerrors.Error
	require.True(t, goerrors.As(err, &richErr))

	messages, ok := richErr.Metadata[field].([]string)
	require.True(t, ok, "expected messages for %s", field)
	return messages
}

func TestPasswordPolicyCheck(t *testing.T) {
	policy := accounts.NewPasswordPolicy()
	attrs := accounts.PasswordAttributes{
		Username:  "alice",
		Email:     "alice@example.com",
		FirstName: "Alice",
		LastName:  "Liddell",
	}

	tests := []struct {
		name     string
		password string
		contains string
	}{
		{"too short", "Ab1!", "too short"},
		{"common", "password", "too common"},
		{"numeric", "9081726354", "entirely numeric"},
		{"like username", "Alice1", "too similar to the username"},
		{"like last name", "Liddell1", "too similar to the last name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := policy.Check("password", tt.password, attrs)
			require.Error(t, err)
			assert.True(t, accounts.IsValidationError(err))

			messages := policyMessages(t, err, "password")
			assert.Condition(t, func() bool {
				for _, m := range messages {
					if strings.Contains(m, tt.contains) {
						return true
					}
				}
				return false
			}, "messages %v should mention %q", messages, tt.contains)
		})
	}

	assert.NoError(t, policy.Check("password", strongPassword, attrs))
}

func TestPasswordPolicyReportsEveryViolation(t *testing.T) {
	policy := accounts.NewPasswordPolicy()

	err := policy.Check("new_password", "4821", accounts.PasswordAttributes{})
	messages := policyMessages(t, err, "new_password")
	assert.Len(t, messages, 2)
}

func TestPasswordPolicyOptions(t *testing.T) {
	policy := accounts.NewPasswordPolicy(
		accounts.WithPasswordMinLength(12),
		accounts.WithCommonPasswords("Correct-Horse-Battery"),
		accounts.WithPasswordMaxSimilarity(0.9),
	)
	assert.Equal(t, 12, policy.MinLength())

	assert.Error(t, policy.Check("password", "Sh0rt!pass", accounts.PasswordAttributes{}))
	assert.Error(t, policy.Check("password", "correct-horse-battery", accounts.PasswordAttributes{}))
	assert.NoError(t, policy.Check("password", "password-but-longer", accounts.PasswordAttributes{}))
}

func TestCommonPasswordsEmbedded(t *testing.T) {
	common := accounts.CommonPasswords()
	assert.Contains(t, common, "password")
	assert.Contains(t, common, "qwerty")
}
