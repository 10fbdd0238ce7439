// AngelaMos | 2026
// auth_test.go

package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/templates/user-api/internal/core"
)

type stubVerifier struct {
	claims *AccessTokenClaims
	err    error
}

func (s stubVerifier) VerifyAccessToken(
	_ context.Context,
	_ string,
) (*AccessTokenClaims, error) {
	return s.claims, s.err
}

type stubLoader map[string]*Principal

func (s stubLoader) LoadPrincipal(
	_ context.Context,
	subject string,
) (*Principal, error) {
	p, ok := s[subject]
	if !ok {
		return nil, fmt.Errorf("load principal: %w", core.ErrNotFound)
	}
	return p, nil
}

func TestExtractToken(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   string
	}{
		{name: "bearer", header: "Bearer abc.def", want: "abc.def"},
		{name: "lowercase scheme", header: "bearer abc", want: "abc"},
		{name: "missing", header: "", want: ""},
		{name: "basic scheme", header: "Basic dXNlcjpwYXNz", want: ""},
		{name: "no token", header: "Bearer", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			assert.Equal(t, tt.want, ExtractToken(req))
		})
	}
}

func TestAuthenticator(t *testing.T) {
	loader := stubLoader{
		"ana@mail.cl": {UserID: "u-1", Email: "ana@mail.cl", Roles: []string{"admin"}},
	}

	var seen *Principal
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = &Principal{
			UserID: GetUserID(r.Context()),
			Email:  GetUserEmail(r.Context()),
			Roles:  GetUserRoles(r.Context()),
		}
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name     string
		header   string
		verifier stubVerifier
		status   int
		code     string
	}{
		{
			name:   "missing token",
			status: http.StatusUnauthorized,
			code:   "UNAUTHORIZED",
		},
		{
			name:     "expired token",
			header:   "Bearer t",
			verifier: stubVerifier{err: fmt.Errorf("verify: %w", core.ErrTokenExpired)},
			status:   http.StatusUnauthorized,
			code:     "TOKEN_EXPIRED",
		},
		{
			name:     "invalid token",
			header:   "Bearer t",
			verifier: stubVerifier{err: fmt.Errorf("verify: %w", core.ErrTokenInvalid)},
			status:   http.StatusUnauthorized,
			code:     "TOKEN_INVALID",
		},
		{
			name:     "unknown subject",
			header:   "Bearer t",
			verifier: stubVerifier{claims: &AccessTokenClaims{Subject: "ghost@mail.cl"}},
			status:   http.StatusUnauthorized,
			code:     "UNAUTHORIZED",
		},
		{
			name:     "valid",
			header:   "Bearer t",
			verifier: stubVerifier{claims: &AccessTokenClaims{Subject: "ana@mail.cl"}},
			status:   http.StatusNoContent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			h := Authenticator(tt.verifier, loader)(next)

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.code != "" {
				assert.Contains(t, rec.Body.String(), `"code":"`+tt.code+`"`)
				assert.Nil(t, seen)
				return
			}

			require.NotNil(t, seen)
			assert.Equal(t, "u-1", seen.UserID)
			assert.Equal(t, "ana@mail.cl", seen.Email)
			assert.Equal(t, []string{"admin"}, seen.Roles)
		})
	}
}

func TestRequireRole(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := RequireAdmin(ok)

	serve := func(ctx context.Context) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	anonymous := context.Background()
	assert.Equal(t, http.StatusUnauthorized, serve(anonymous))

	member := context.WithValue(anonymous, UserIDKey, "u-1")
	member = context.WithValue(member, UserRolesKey, []string{"user"})
	assert.Equal(t, http.StatusForbidden, serve(member))

	admin := context.WithValue(member, UserRolesKey, []string{"user", "admin"})
	assert.Equal(t, http.StatusOK, serve(admin))
}
