// AngelaMos | 2026
// service.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/carterperez-dev/templates/user-api/internal/core"
	"github.com/carterperez-dev/templates/user-api/internal/middleware"
	"github.com/carterperez-dev/templates/user-api/internal/user"
)

type UserService interface {
	UserFinder
	GetByEmail(ctx context.Context, email string) (*user.User, error)
	RecordLogin(ctx context.Context, id, token string) error
	Principal(ctx context.Context, email string) (*user.Principal, error)
}

type Service struct {
	authenticator *PasswordAuthenticator
	issuer        Issuer
	users         UserService
	revocations   RevocationStore
	logger        *slog.Logger
}

func NewService(
	authenticator *PasswordAuthenticator,
	issuer Issuer,
	users UserService,
	revocations RevocationStore,
	logger *slog.Logger,
) *Service {
	return &Service{
		authenticator: authenticator,
		issuer:        issuer,
		users:         users,
		revocations:   revocations,
		logger:        logger,
	}
}

// Login authenticates the pair, issues a token for the email and records the
// login on the account. Authentication failures are all reported as
// ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	if err := s.authenticator.Authenticate(ctx, email, password); err != nil {
		s.logger.Debug("login rejected", "error", err)
		return "", ErrInvalidCredentials
	}

	token, err := s.issuer.Issue(email)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			s.logger.Error("authenticated account disappeared before login was recorded",
				"email", email,
			)
			return "", fmt.Errorf("login: account vanished after authentication: %w", err)
		}
		return "", fmt.Errorf("login: %w", err)
	}

	if err := s.users.RecordLogin(ctx, u.ID, token); err != nil {
		return "", fmt.Errorf("record login: %w", err)
	}

	return token, nil
}

// Logout revokes the presented access token for the rest of its lifetime.
func (s *Service) Logout(
	ctx context.Context,
	claims *middleware.AccessTokenClaims,
) error {
	if claims == nil || claims.TokenID == "" {
		return fmt.Errorf("logout: %w", core.ErrTokenInvalid)
	}

	if err := s.revocations.Revoke(ctx, claims.TokenID, claims.ExpiresAt); err != nil {
		return fmt.Errorf("logout: %w", err)
	}

	return nil
}

// VerifyAccessToken checks the signature with the issuer, then the revocation
// list. An unreachable revocation store is logged and does not reject.
func (s *Service) VerifyAccessToken(
	ctx context.Context,
	token string,
) (*middleware.AccessTokenClaims, error) {
	claims, err := s.issuer.VerifyAccessToken(ctx, token)
	if err != nil {
		return nil, err
	}

	if claims.TokenID == "" {
		return claims, nil
	}

	revoked, err := s.revocations.IsRevoked(ctx, claims.TokenID)
	if err != nil {
		s.logger.Warn("revocation check failed, accepting token",
			"error", err,
			"jti", claims.TokenID,
		)
		return claims, nil
	}

	if revoked {
		return nil, fmt.Errorf("verify token: %w", core.ErrTokenRevoked)
	}

	return claims, nil
}

func (s *Service) LoadPrincipal(
	ctx context.Context,
	subject string,
) (*middleware.Principal, error) {
	p, err := s.users.Principal(ctx, subject)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil, fmt.Errorf("load principal: %w", core.ErrNotFound)
		}
		return nil, fmt.Errorf("load principal: %w", err)
	}

	return &middleware.Principal{
		UserID: p.UserID,
		Email:  p.Email,
		Roles:  p.Roles,
	}, nil
}

func (s *Service) CurrentUser(ctx context.Context, email string) (*user.UserResponse, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	resp := user.ToUserResponse(u)
	return &resp, nil
}
