// AngelaMos | 2026
// authenticator.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/carterperez-dev/templates/user-api/internal/user"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type UserFinder interface {
	LookupByEmail(ctx context.Context, email string) (*user.User, bool, error)
}

type PasswordVerifier interface {
	VerifyTimingSafe(password string, encodedHash *string) bool
}

// PasswordAuthenticator checks an email and plaintext password against the
// stored hash. Every failure wraps ErrInvalidCredentials so callers cannot
// tell an unknown email from a wrong password.
type PasswordAuthenticator struct {
	users    UserFinder
	verifier PasswordVerifier
}

func NewPasswordAuthenticator(
	users UserFinder,
	verifier PasswordVerifier,
) *PasswordAuthenticator {
	return &PasswordAuthenticator{
		users:    users,
		verifier: verifier,
	}
}

func (a *PasswordAuthenticator) Authenticate(
	ctx context.Context,
	email, password string,
) error {
	if strings.TrimSpace(email) == "" || password == "" {
		a.verifier.VerifyTimingSafe(password, nil)
		return fmt.Errorf("blank credentials: %w", ErrInvalidCredentials)
	}

	u, found, err := a.users.LookupByEmail(ctx, email)
	if err != nil {
		a.verifier.VerifyTimingSafe(password, nil)
		return fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
	}

	if !found {
		a.verifier.VerifyTimingSafe(password, nil)
		return fmt.Errorf("unknown email: %w", ErrInvalidCredentials)
	}

	if !a.verifier.VerifyTimingSafe(password, &u.Password) {
		return fmt.Errorf("password mismatch: %w", ErrInvalidCredentials)
	}

	return nil
}
