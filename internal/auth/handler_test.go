// AngelaMos | 2026
// handler_test.go

package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/templates/user-api/internal/middleware"
	"github.com/carterperez-dev/templates/user-api/internal/user"
)

func newTestRouter(env *serviceEnv) http.Handler {
	return newThrottledRouter(env, newMemoryAttempts(100))
}

func newThrottledRouter(env *serviceEnv, attempts AttemptLimiter) http.Handler {
	r := chi.NewRouter()
	NewHandler(env.svc, attempts).RegisterRoutes(
		r,
		middleware.Authenticator(env.svc, env.svc),
	)
	return r
}

func send(h http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandlerLogin(t *testing.T) {
	env := newServiceEnv(t)
	env.users.On("LookupByEmail", mock.Anything, "ana@mail.cl").Return(env.ana, true, nil)
	env.users.On("LookupByEmail", mock.Anything, "ghost@mail.cl").Return(nil, false, nil)
	env.users.On("GetByEmail", mock.Anything, "ana@mail.cl").Return(env.ana, nil)
	env.users.On("RecordLogin", mock.Anything, env.ana.ID, mock.Anything).Return(nil)

	h := newTestRouter(env)

	rec := send(h, http.MethodPost, "/login", `{"email":"ana@mail.cl","password":"Hunter22pass"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data TokenResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Data.Token)

	wrong := send(h, http.MethodPost, "/login", `{"email":"ana@mail.cl","password":"nope"}`, "")
	unknown := send(h, http.MethodPost, "/login", `{"email":"ghost@mail.cl","password":"Hunter22pass"}`, "")
	blank := send(h, http.MethodPost, "/login", `{}`, "")

	for _, rec := range []*httptest.ResponseRecorder{wrong, unknown, blank} {
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), `"code":"INVALID_CREDENTIALS"`)
	}
	assert.Equal(t, wrong.Body.String(), unknown.Body.String())

	malformed := send(h, http.MethodPost, "/login", `{"email":`, "")
	assert.Equal(t, http.StatusBadRequest, malformed.Code)
}

func TestHandlerMeAndLogout(t *testing.T) {
	env := newServiceEnv(t)
	env.users.On("Principal", mock.Anything, "ana@mail.cl").Return(&user.Principal{
		UserID: env.ana.ID,
		Email:  "ana@mail.cl",
		Roles:  []string{},
	}, nil)
	env.users.On("GetByEmail", mock.Anything, "ana@mail.cl").Return(env.ana, nil)

	h := newTestRouter(env)

	token, err := env.issuer.Issue("ana@mail.cl")
	require.NoError(t, err)

	rec := send(h, http.MethodGet, "/me", "", token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"email":"ana@mail.cl"`)
	assert.NotContains(t, rec.Body.String(), env.ana.Password)

	rec = send(h, http.MethodGet, "/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = send(h, http.MethodPost, "/logout", "", token)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = send(h, http.MethodGet, "/me", "", token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"TOKEN_REVOKED"`)
}

func TestHandlerLoginThrottlesConsecutiveFailures(t *testing.T) {
	env := newServiceEnv(t)
	env.users.On("LookupByEmail", mock.Anything, "ana@mail.cl").Return(env.ana, true, nil)
	env.users.On("GetByEmail", mock.Anything, "ana@mail.cl").Return(env.ana, nil)
	env.users.On("RecordLogin", mock.Anything, env.ana.ID, mock.Anything).Return(nil)

	h := newThrottledRouter(env, newMemoryAttempts(2))

	login := func(password, realIP string) *httptest.ResponseRecorder {
		body := `{"email":"ana@mail.cl","password":"` + password + `"}`
		req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(body))
		req.Header.Set("X-Real-IP", realIP)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusUnauthorized, login("wrong", "10.0.0.1").Code)
	assert.Equal(t, http.StatusOK, login("Hunter22pass", "10.0.0.1").Code)

	assert.Equal(t, http.StatusUnauthorized, login("wrong", "10.0.0.1").Code)
	assert.Equal(t, http.StatusUnauthorized, login("wrong", "10.0.0.1").Code)

	rec := login("Hunter22pass", "10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), `"code":"RATE_LIMITED"`)

	assert.Equal(t, http.StatusOK, login("Hunter22pass", "10.0.0.2").Code)
}

func TestLoginAttemptKey(t *testing.T) {
	assert.Equal(t, "ana@mail.cl:10.0.0.1", loginAttemptKey(" Ana@Mail.cl ", "10.0.0.1"))
}
