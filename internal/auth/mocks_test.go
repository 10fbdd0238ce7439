// AngelaMos | 2026
// mocks_test.go

package auth

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/templates/user-api/internal/config"
	"github.com/carterperez-dev/templates/user-api/internal/core"
	"github.com/carterperez-dev/templates/user-api/internal/middleware"
	"github.com/carterperez-dev/templates/user-api/internal/user"
)

type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) LookupByEmail(
	ctx context.Context,
	email string,
) (*user.User, bool, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*user.User), args.Bool(1), args.Error(2)
}

func (m *MockUserService) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *MockUserService) RecordLogin(ctx context.Context, id, token string) error {
	args := m.Called(ctx, id, token)
	return args.Error(0)
}

func (m *MockUserService) Principal(ctx context.Context, email string) (*user.Principal, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.Principal), args.Error(1)
}

type memoryAttempts struct {
	mu    sync.Mutex
	max   int
	spent map[string]int
}

func newMemoryAttempts(limit int) *memoryAttempts {
	return &memoryAttempts{max: limit, spent: make(map[string]int)}
}

func (m *memoryAttempts) Allow(_ context.Context, key string) middleware.Decision {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.spent[key]++
	if m.spent[key] > m.max {
		return middleware.Decision{RetryAfter: time.Minute}
	}
	return middleware.Decision{Allowed: true, Remaining: m.max - m.spent[key]}
}

func (m *memoryAttempts) Reset(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.spent, key)
	return nil
}

type memoryRevocations struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	err     error
}

func newMemoryRevocations() *memoryRevocations {
	return &memoryRevocations{revoked: make(map[string]time.Time)}
}

func (m *memoryRevocations) Revoke(_ context.Context, jti string, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return m.err
	}
	m.revoked[jti] = expiresAt
	return nil
}

func (m *memoryRevocations) IsRevoked(_ context.Context, jti string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return false, m.err
	}
	_, ok := m.revoked[jti]
	return ok, nil
}

var errStoreDown = errors.New("store down")

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		Algorithm:         config.AlgorithmHS256,
		Secret:            "0123456789abcdef0123456789abcdef",
		AccessTokenExpire: time.Hour,
		Issuer:            "user-api",
		Audience:          "user-api-clients",
	}
}

func testHasher(t *testing.T) *core.PasswordHasher {
	t.Helper()

	h, err := core.NewPasswordHasher(config.PasswordConfig{
		Algorithm:  config.HashBcrypt,
		BcryptCost: 4,
	})
	require.NoError(t, err)
	return h
}

func storedUser(t *testing.T, hasher *core.PasswordHasher, email, password string) *user.User {
	t.Helper()

	hash, err := hasher.Hash(password)
	require.NoError(t, err)

	return &user.User{
		ID:       "5d6f7f36-4c55-4d43-9a2b-6b7ad2a3f5a1",
		Name:     "Ana",
		Email:    email,
		Password: hash,
		IsActive: true,
	}
}
