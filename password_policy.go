package accounts

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
	validation "github.com/go-ozzo/ozzo-validation"
)

const (
	// DefaultPasswordMinLength is the minimum accepted password length
	DefaultPasswordMinLength = 8
	// DefaultPasswordMaxSimilarity is the similarity ratio at which a
	// password is considered too close to a user attribute
	DefaultPasswordMaxSimilarity = 0.7
)

var attributeSplitter = regexp.MustCompile(`\W+`)

// PasswordAttributes are the user attributes a password must not resemble
type PasswordAttributes struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
}

// PasswordPolicy holds the strength rules applied to new passwords
type PasswordPolicy struct {
	minLength     int
	maxSimilarity float64
	common        map[string]struct{}
}

// PasswordPolicyOption configures a PasswordPolicy
type PasswordPolicyOption func(*PasswordPolicy)

// WithPasswordMinLength overrides the minimum length
func WithPasswordMinLength(n int) PasswordPolicyOption {
	return func(p *PasswordPolicy) {
		if n > 0 {
			p.minLength = n
		}
	}
}

// WithPasswordMaxSimilarity overrides the attribute similarity threshold
func WithPasswordMaxSimilarity(ratio float64) PasswordPolicyOption {
	return func(p *PasswordPolicy) {
		if ratio > 0 && ratio <= 1 {
			p.maxSimilarity = ratio
		}
	}
}

// WithCommonPasswords replaces the embedded common password list
func WithCommonPasswords(passwords ...string) PasswordPolicyOption {
	return func(p *PasswordPolicy) {
		p.common = make(map[string]struct{}, len(passwords))
		for _, pwd := range passwords {
			p.common[strings.ToLower(strings.TrimSpace(pwd))] = struct{}{}
		}
	}
}

// NewPasswordPolicy returns the default policy
func NewPasswordPolicy(opts ...PasswordPolicyOption) *PasswordPolicy {
	p := &PasswordPolicy{
		minLength:     DefaultPasswordMinLength,
		maxSimilarity: DefaultPasswordMaxSimilarity,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	if p.common == nil {
		p.common = CommonPasswords()
	}
	return p
}

// MinLength is the configured minimum length
func (p *PasswordPolicy) MinLength() int {
	return p.minLength
}

// Rules returns the ozzo rules enforcing the policy for the given attributes
func (p *PasswordPolicy) Rules(attrs PasswordAttributes) []validation.Rule {
	return []validation.Rule{
		validation.By(p.minimumLength),
		validation.By(p.attributeSimilarity(attrs)),
		validation.By(p.notCommon),
		validation.By(notNumeric),
	}
}

// Check runs every rule and reports all violations under field
func (p *PasswordPolicy) Check(field, password string, attrs PasswordAttributes) error {
	var messages []string
	for _, rule := range p.Rules(attrs) {
		if err := validation.Validate(password, rule); err != nil {
			messages = append(messages, err.Error())
		}
	}

	if len(messages) == 0 {
		return nil
	}

	return NewValidationError("password does not meet the strength requirements", map[string][]string{
		field: messages,
	})
}

func (p *PasswordPolicy) minimumLength(value any) error {
	s, _ := value.(string)
	if len([]rune(s)) < p.minLength {
		return fmt.Errorf("This password is too short. It must contain at least %d characters.", p.minLength)
	}
	return nil
}

func (p *PasswordPolicy) attributeSimilarity(attrs PasswordAttributes) validation.RuleFunc {
	candidates := []struct {
		name  string
		value string
	}{
		{"username", attrs.Username},
		{"first name", attrs.FirstName},
		{"last name", attrs.LastName},
		{"email address", attrs.Email},
	}

	return func(value any) error {
		s, _ := value.(string)
		password := strings.ToLower(s)
		if password == "" {
			return nil
		}

		for _, c := range candidates {
			attr := strings.ToLower(strings.TrimSpace(c.value))
			if attr == "" {
				continue
			}

			parts := append(attributeSplitter.Split(attr, -1), attr)
			for _, part := range parts {
				if part == "" {
					continue
				}
				if similarity(password, part) >= p.maxSimilarity {
					return fmt.Errorf("The password is too similar to the %s.", c.name)
				}
			}
		}
		return nil
	}
}

func (p *PasswordPolicy) notCommon(value any) error {
	s, _ := value.(string)
	if _, ok := p.common[strings.ToLower(strings.TrimSpace(s))]; ok {
		return errors.New("This password is too common.")
	}
	return nil
}

func notNumeric(value any) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return nil
		}
	}
	return errors.New("This password is entirely numeric.")
}

// similarity is the normalised Levenshtein similarity of a and b in [0, 1]
func similarity(a, b string) float64 {
	longest := len([]rune(a))
	if l := len([]rune(b)); l > longest {
		longest = l
	}
	if longest == 0 {
		return 1
	}
	d := levenshtein.ComputeDistance(a, b)
	return 1 - float64(d)/float64(longest)
}
