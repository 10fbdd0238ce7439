// AngelaMos | 2026
// hmac.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/carterperez-dev/templates/user-api/internal/config"
	"github.com/carterperez-dev/templates/user-api/internal/core"
	"github.com/carterperez-dev/templates/user-api/internal/middleware"
)

// HMACIssuer signs HS256 tokens with a shared secret. It has no public
// key to publish, so it serves no JWKS.
type HMACIssuer struct {
	secret []byte
	config config.JWTConfig
}

type hmacClaims struct {
	Type string `json:"type"`
	jwt.RegisteredClaims
}

func NewHMACIssuer(cfg config.JWTConfig) (*HMACIssuer, error) {
	if cfg.Secret == "" {
		return nil, errors.New("hmac issuer: empty secret")
	}

	return &HMACIssuer{
		secret: []byte(cfg.Secret),
		config: cfg,
	}, nil
}

func (m *HMACIssuer) Issue(subject string) (string, error) {
	now := time.Now()

	claims := hmacClaims{
		Type: accessTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Issuer:    m.config.Issuer,
			Audience:  jwt.ClaimStrings{m.config.Audience},
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.config.AccessTokenExpire)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
		SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

func (m *HMACIssuer) VerifyAccessToken(
	ctx context.Context,
	tokenString string,
) (*middleware.AccessTokenClaims, error) {
	claims := &hmacClaims{}

	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(*jwt.Token) (any, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.config.Issuer),
		jwt.WithAudience(m.config.Audience),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("verify token: %w", core.ErrTokenExpired)
		}
		return nil, fmt.Errorf("verify token: %w", core.ErrTokenInvalid)
	}

	if claims.Type != accessTokenType {
		return nil, fmt.Errorf(
			"verify token: invalid token type: %w",
			core.ErrTokenInvalid,
		)
	}

	if claims.Subject == "" {
		return nil, fmt.Errorf(
			"verify token: missing subject: %w",
			core.ErrTokenInvalid,
		)
	}

	return &middleware.AccessTokenClaims{
		Subject:   claims.Subject,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (m *HMACIssuer) Algorithm() string {
	return config.AlgorithmHS256
}
