// AngelaMos | 2026
// issuer.go

package auth

import (
	"fmt"

	"github.com/carterperez-dev/templates/user-api/internal/config"
	"github.com/carterperez-dev/templates/user-api/internal/middleware"
)

// Issuer mints access tokens for an account email and verifies them.
type Issuer interface {
	middleware.TokenVerifier
	Issue(subject string) (string, error)
	Algorithm() string
}

func NewIssuer(cfg config.JWTConfig) (Issuer, error) {
	switch cfg.Algorithm {
	case config.AlgorithmES256:
		m, err := NewJWTManager(cfg)
		if err != nil {
			return nil, err
		}
		return m, nil
	case config.AlgorithmHS256:
		m, err := NewHMACIssuer(cfg)
		if err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unsupported token algorithm %q", cfg.Algorithm)
	}
}
