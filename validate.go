package osiapp

import (
	"strings"
	"unicode"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
)

// ValidateCredentialsPresence enforces step one of registration and login:
// both email and password must be present.
func ValidateCredentialsPresence(email, password string) error {
	if err := validation.Validate(email, validation.Required); err != nil {
		return ErrMissingField
	}
	if err := validation.Validate(password, validation.Required); err != nil {
		return ErrMissingField
	}
	return nil
}

// ValidateEmailFormat checks email syntax
func ValidateEmailFormat(email string) error {
	if err := validation.Validate(email, validation.Required, is.Email); err != nil {
		return ErrInvalidEmail
	}
	return nil
}

// ValidatePasswordStrength enforces the registration password policy:
// at least 8 characters with one uppercase letter, one lowercase letter,
// one digit and one special character.
func ValidatePasswordStrength(password string) error {
	if err := validation.Validate(password, validation.Required, validation.By(passwordStrength)); err != nil {
		return ErrWeakPassword
	}
	return nil
}

func passwordStrength(value any) error {
	password, _ := value.(string)
	if len(password) < 8 {
		return ErrWeakPassword
	}

	var upper, lower, digit, special bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		default:
			special = true
		}
	}

	if !upper || !lower || !digit || !special {
		return ErrWeakPassword
	}
	return nil
}

func usernameFromEmail(email string) string {
	if strings.Contains(email, "@") {
		return strings.Split(email, "@")[0]
	}
	return email
}
