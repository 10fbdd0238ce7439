// AngelaMos | 2026
// handler.go

package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/templates/user-api/internal/core"
	"github.com/carterperez-dev/templates/user-api/internal/middleware"
	"github.com/carterperez-dev/templates/user-api/internal/user"
)

// AttemptLimiter is spent once per login attempt and reset when the attempt
// succeeds, so only consecutive failures add up.
type AttemptLimiter interface {
	Allow(ctx context.Context, key string) middleware.Decision
	Reset(ctx context.Context, key string) error
}

type Handler struct {
	service   *Service
	attempts  AttemptLimiter
	validator *validator.Validate
}

func NewHandler(service *Service, attempts AttemptLimiter) *Handler {
	return &Handler{
		service:   service,
		attempts:  attempts,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Post("/login", h.Login)

	r.Group(func(r chi.Router) {
		r.Use(authenticator)
		r.Post("/logout", h.Logout)
		r.Get("/me", h.GetMe)
	})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	attemptKey := loginAttemptKey(req.Email, middleware.ClientIP(r))
	if d := h.attempts.Allow(r.Context(), attemptKey); !d.Allowed {
		middleware.RejectRateLimited(w, d)
		return
	}

	token, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			core.JSONError(w, core.NewAppError(
				err,
				"invalid email or password",
				http.StatusUnauthorized,
				"INVALID_CREDENTIALS",
			))
			return
		}
		core.InternalServerError(w, err)
		return
	}

	if err := h.attempts.Reset(r.Context(), attemptKey); err != nil {
		slog.Warn("clear login attempts failed", "error", err)
	}

	core.OK(w, TokenResponse{Token: token})
}

func loginAttemptKey(email, clientIP string) string {
	return strings.ToLower(strings.TrimSpace(email)) + ":" + clientIP
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Logout(r.Context(), middleware.GetClaims(r.Context())); err != nil {
		if errors.Is(err, core.ErrTokenInvalid) {
			core.JSONError(w, core.TokenInvalidError())
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.NoContent(w)
}

func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	email := middleware.GetUserEmail(r.Context())
	if email == "" {
		core.JSONError(w, core.UnauthorizedError("authentication required"))
		return
	}

	resp, err := h.service.CurrentUser(r.Context(), email)
	if err != nil {
		var uerr *user.Error
		if errors.As(err, &uerr) {
			core.JSONError(w, user.ToAppError(uerr))
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, resp)
}
