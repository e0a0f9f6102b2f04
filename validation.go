package accounts

import (
	"errors"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/nyaruka/phonenumbers"
)

// MaxPhoneLength is the longest stored phone number including the plus sign
const MaxPhoneLength = 15

// ValidateStringEquals requires the value to equal str
func ValidateStringEquals(str string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != str {
			return errors.New("values must match")
		}
		return nil
	}
}

// ValidateStringDiffers requires the value to differ from str
func ValidateStringDiffers(str string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if s != "" && s == str {
			return errors.New("must differ from the current value")
		}
		return nil
	}
}

// NormalizePhone parses a phone number and returns its E.164 form.
// An empty input returns an empty string.
func NormalizePhone(raw, region string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}

	num, err := phonenumbers.Parse(raw, region)
	if err != nil {
		return "", errors.New("invalid phone number")
	}

	if !phonenumbers.IsValidNumber(num) {
		return "", errors.New("invalid phone number")
	}

	formatted := phonenumbers.Format(num, phonenumbers.E164)
	if len(formatted) > MaxPhoneLength {
		return "", errors.New("phone number is too long")
	}

	return formatted, nil
}

// ParseDateOfBirth parses a YYYY-MM-DD date that is not in the future.
// An empty input returns nil.
func ParseDateOfBirth(raw string, now time.Time) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	t, err := time.Parse(DateLayout, raw)
	if err != nil {
		return nil, errors.New("date must use the YYYY-MM-DD format")
	}

	if t.After(now) {
		return nil, errors.New("date of birth cannot be in the future")
	}

	return &t, nil
}
