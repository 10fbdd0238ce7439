// AngelaMos | 2026
// errors.go

package user

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	KindMissingData       ErrorKind = "MISSING_DATA"
	KindRequiredField     ErrorKind = "REQUIRED_FIELD"
	KindInvalidFormat     ErrorKind = "INVALID_FORMAT"
	KindDuplicateEmail    ErrorKind = "DUPLICATE_EMAIL"
	KindNotFound          ErrorKind = "NOT_FOUND"
	KindEmailImmutable    ErrorKind = "EMAIL_IMMUTABLE"
	KindUnexpectedFailure ErrorKind = "UNEXPECTED_FAILURE"
)

// Error is a caller-visible lifecycle failure. errors.Is matches on Kind, so
// ErrRequiredField matches RequiredField("name") and RequiredField("email").
type Error struct {
	Kind  ErrorKind
	Field string
	Err   error
}

var (
	ErrMissingData       = &Error{Kind: KindMissingData}
	ErrRequiredField     = &Error{Kind: KindRequiredField}
	ErrInvalidFormat     = &Error{Kind: KindInvalidFormat}
	ErrDuplicateEmail    = &Error{Kind: KindDuplicateEmail}
	ErrNotFound          = &Error{Kind: KindNotFound}
	ErrEmailImmutable    = &Error{Kind: KindEmailImmutable}
	ErrUnexpectedFailure = &Error{Kind: KindUnexpectedFailure}
)

func RequiredField(field string) *Error {
	return &Error{Kind: KindRequiredField, Field: field}
}

func InvalidFormat(field string) *Error {
	return &Error{Kind: KindInvalidFormat, Field: field}
}

func Unexpected(err error) *Error {
	return &Error{Kind: KindUnexpectedFailure, Err: err}
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindMissingData:
		return "error getting user data"
	case KindRequiredField:
		return fmt.Sprintf("%s: required", e.Field)
	case KindInvalidFormat:
		return fmt.Sprintf("%s format: invalid", e.Field)
	case KindDuplicateEmail:
		return "email already registered"
	case KindNotFound:
		return "user not found"
	case KindEmailImmutable:
		return "cannot update email"
	case KindUnexpectedFailure:
		if e.Err != nil {
			return fmt.Sprintf("unexpected failure: %v", e.Err)
		}
		return "unexpected failure"
	default:
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && (t.Field == "" || t.Field == e.Field)
}

// asError wraps anything that is not already a lifecycle error as an
// UnexpectedFailure.
func asError(err error) error {
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return Unexpected(err)
}
