// AngelaMos | 2026
// service_test.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/templates/user-api/internal/core"
	"github.com/carterperez-dev/templates/user-api/internal/middleware"
	"github.com/carterperez-dev/templates/user-api/internal/user"
)

type serviceEnv struct {
	svc         *Service
	users       *MockUserService
	issuer      *HMACIssuer
	revocations *memoryRevocations
	ana         *user.User
}

func newServiceEnv(t *testing.T) *serviceEnv {
	t.Helper()

	hasher := testHasher(t)
	issuer, err := NewHMACIssuer(testJWTConfig())
	require.NoError(t, err)

	users := new(MockUserService)
	revocations := newMemoryRevocations()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	svc := NewService(
		NewPasswordAuthenticator(users, hasher),
		issuer,
		users,
		revocations,
		logger,
	)

	return &serviceEnv{
		svc:         svc,
		users:       users,
		issuer:      issuer,
		revocations: revocations,
		ana:         storedUser(t, hasher, "ana@mail.cl", "Hunter22pass"),
	}
}

func TestLogin(t *testing.T) {
	env := newServiceEnv(t)
	ctx := context.Background()

	env.users.On("LookupByEmail", mock.Anything, "ana@mail.cl").Return(env.ana, true, nil)
	env.users.On("GetByEmail", mock.Anything, "ana@mail.cl").Return(env.ana, nil)
	env.users.On("RecordLogin", mock.Anything, env.ana.ID, mock.AnythingOfType("string")).Return(nil)

	token, err := env.svc.Login(ctx, "ana@mail.cl", "Hunter22pass")
	require.NoError(t, err)

	claims, err := env.issuer.VerifyAccessToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "ana@mail.cl", claims.Subject)

	env.users.AssertCalled(t, "RecordLogin", mock.Anything, env.ana.ID, token)
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	env := newServiceEnv(t)
	ctx := context.Background()

	env.users.On("LookupByEmail", mock.Anything, "ana@mail.cl").Return(env.ana, true, nil)
	env.users.On("LookupByEmail", mock.Anything, "ghost@mail.cl").Return(nil, false, nil)

	_, wrongPassword := env.svc.Login(ctx, "ana@mail.cl", "Hunter22wrong")
	_, unknownEmail := env.svc.Login(ctx, "ghost@mail.cl", "Hunter22pass")

	require.Error(t, wrongPassword)
	require.Error(t, unknownEmail)
	assert.Equal(t, ErrInvalidCredentials, wrongPassword)
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())

	env.users.AssertNotCalled(t, "RecordLogin", mock.Anything, mock.Anything, mock.Anything)
}

func TestLoginAccountVanished(t *testing.T) {
	env := newServiceEnv(t)

	env.users.On("LookupByEmail", mock.Anything, "ana@mail.cl").Return(env.ana, true, nil)
	env.users.On("GetByEmail", mock.Anything, "ana@mail.cl").
		Return(nil, fmt.Errorf("get user by email: %w", user.ErrNotFound))

	_, err := env.svc.Login(context.Background(), "ana@mail.cl", "Hunter22pass")

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
	assert.ErrorIs(t, err, user.ErrNotFound)
}

func TestLoginRecordFailure(t *testing.T) {
	env := newServiceEnv(t)

	env.users.On("LookupByEmail", mock.Anything, "ana@mail.cl").Return(env.ana, true, nil)
	env.users.On("GetByEmail", mock.Anything, "ana@mail.cl").Return(env.ana, nil)
	env.users.On("RecordLogin", mock.Anything, env.ana.ID, mock.Anything).Return(errStoreDown)

	_, err := env.svc.Login(context.Background(), "ana@mail.cl", "Hunter22pass")
	assert.ErrorIs(t, err, errStoreDown)
}

func TestLogoutRevokesToken(t *testing.T) {
	env := newServiceEnv(t)
	ctx := context.Background()

	token, err := env.issuer.Issue("ana@mail.cl")
	require.NoError(t, err)

	claims, err := env.svc.VerifyAccessToken(ctx, token)
	require.NoError(t, err)

	require.NoError(t, env.svc.Logout(ctx, claims))

	_, err = env.svc.VerifyAccessToken(ctx, token)
	assert.ErrorIs(t, err, core.ErrTokenRevoked)

	err = env.svc.Logout(ctx, &middleware.AccessTokenClaims{ExpiresAt: time.Now()})
	assert.ErrorIs(t, err, core.ErrTokenInvalid)
}

func TestVerifyAccessTokenToleratesRevocationOutage(t *testing.T) {
	env := newServiceEnv(t)
	env.revocations.err = errStoreDown

	token, err := env.issuer.Issue("ana@mail.cl")
	require.NoError(t, err)

	claims, err := env.svc.VerifyAccessToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, "ana@mail.cl", claims.Subject)
}

func TestLoadPrincipal(t *testing.T) {
	env := newServiceEnv(t)
	ctx := context.Background()

	env.users.On("Principal", mock.Anything, "ana@mail.cl").Return(&user.Principal{
		UserID:   env.ana.ID,
		Email:    "ana@mail.cl",
		Roles:    []string{"admin"},
		IsActive: true,
	}, nil)
	env.users.On("Principal", mock.Anything, "ghost@mail.cl").
		Return(nil, fmt.Errorf("get user by email: %w", user.ErrNotFound))

	p, err := env.svc.LoadPrincipal(ctx, "ana@mail.cl")
	require.NoError(t, err)
	assert.Equal(t, env.ana.ID, p.UserID)
	assert.Equal(t, []string{"admin"}, p.Roles)

	_, err = env.svc.LoadPrincipal(ctx, "ghost@mail.cl")
	assert.True(t, errors.Is(err, core.ErrNotFound))
}
