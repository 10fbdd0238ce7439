// AngelaMos | 2026
// validator.go

package user

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

const (
	tagEmailFormat    = "user_email"
	tagPasswordFormat = "user_password"

	minPasswordLength = 8
)

var emailPattern = regexp.MustCompile(
	`^[_A-Za-z0-9-\+]+(\.[_A-Za-z0-9-]+)*@[A-Za-z0-9-]+(\.[A-Za-z0-9]+)*(\.[A-Za-z]{2,3})$`,
)

// Validator checks name, email and password rules in order and reports the
// first failure.
type Validator struct {
	v *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	//nolint:errcheck // tag names are static and non-empty
	_ = v.RegisterValidation(tagEmailFormat, func(fl validator.FieldLevel) bool {
		return IsValidEmail(fl.Field().String())
	})
	//nolint:errcheck // tag names are static and non-empty
	_ = v.RegisterValidation(tagPasswordFormat, func(fl validator.FieldLevel) bool {
		return IsStrongPassword(fl.Field().String())
	})

	return &Validator{v: v}
}

// Validate expects u.Password to hold the plaintext candidate.
func (val *Validator) Validate(u *User) error {
	if err := val.ValidateProfile(u); err != nil {
		return err
	}

	if err := val.v.Var(u.Password, tagPasswordFormat); err != nil {
		return InvalidFormat("password")
	}

	return nil
}

// ValidateProfile applies every rule except the password format, for records
// whose password is already hashed.
func (val *Validator) ValidateProfile(u *User) error {
	if u == nil {
		return ErrMissingData
	}

	if isBlank(u.Name) {
		return RequiredField("name")
	}

	if isBlank(u.Email) {
		return RequiredField("email")
	}
	if err := val.v.Var(u.Email, tagEmailFormat); err != nil {
		return InvalidFormat("email")
	}

	if isBlank(u.Password) {
		return RequiredField("password")
	}

	return nil
}

func IsValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// IsStrongPassword requires at least 8 characters with one digit, one
// lowercase and one uppercase ASCII letter. Line terminators are rejected
// anywhere in the input.
func IsStrongPassword(password string) bool {
	if utf8.RuneCountInString(password) < minPasswordLength {
		return false
	}

	var hasDigit, hasLower, hasUpper bool
	for _, r := range password {
		switch {
		case isLineTerminator(r):
			return false
		case r >= '0' && r <= '9':
			hasDigit = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		}
	}

	return hasDigit && hasLower && hasUpper
}

func isLineTerminator(r rune) bool {
	switch r {
	case '\n', '\r', '\u0085', '\u2028', '\u2029':
		return true
	}
	return false
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
