// AngelaMos | 2026
// server_test.go

package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carterperez-dev/templates/user-api/internal/config"
	"github.com/carterperez-dev/templates/user-api/internal/health"
)

func newTestServer() (*Server, *health.Handler) {
	hh := health.NewHandler()
	srv := New(Config{
		ServerConfig: config.ServerConfig{
			Host:            "127.0.0.1",
			Port:            0,
			ReadTimeout:     time.Second,
			WriteTimeout:    time.Second,
			ShutdownTimeout: time.Second,
		},
		App:           config.AppConfig{Name: "User API", Version: "1.2.3"},
		HealthHandler: hh,
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	srv.RegisterRoutes()
	return srv, hh
}

func get(srv *Server, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestWelcome(t *testing.T) {
	srv, _ := newTestServer()

	rec := get(srv, "/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Welcome to User API")
	assert.Contains(t, rec.Body.String(), `"version":"1.2.3"`)
}

func TestUnknownRoute(t *testing.T) {
	srv, _ := newTestServer()

	rec := get(srv, "/nowhere")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"NOT_FOUND"`)
}

func TestShutdownMarksHealthUnavailable(t *testing.T) {
	srv, _ := newTestServer()

	assert.Equal(t, http.StatusOK, get(srv, "/livez").Code)

	require.NoError(t, srv.Shutdown(context.Background(), 0))

	assert.Equal(t, http.StatusServiceUnavailable, get(srv, "/livez").Code)
}
