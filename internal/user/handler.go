// AngelaMos | 2026
// handler.go

package user

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/templates/user-api/internal/core"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Route("/users", func(r chi.Router) {
		r.Post("/", h.Register)

		r.Group(func(r chi.Router) {
			r.Use(authenticator)

			r.Get("/", h.List)
			r.Get("/{userID}", h.Get)
			r.Put("/{userID}", h.Update)
			r.Put("/{userID}/activate", h.Activate)
			r.Put("/{userID}/deactivate", h.Deactivate)
		})
	})
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req *CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	var candidate *User
	if req != nil {
		if err := h.validator.Struct(req); err != nil {
			core.BadRequest(w, core.FormatValidationError(err))
			return
		}
		candidate = req.ToUser()
	}

	saved, err := h.service.Register(r.Context(), candidate)
	if err != nil {
		writeError(w, err)
		return
	}

	core.Created(w, saved)
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListAll(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, users)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	u, err := h.service.GetByID(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, ToUserResponse(u))
}

// Update rejects bodies whose id disagrees with the path.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	var req UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	if req.ID != "" && req.ID != userID {
		core.JSONError(w, core.ConflictError("cannot update id", "ID_MISMATCH"))
		return
	}

	resp, err := h.service.Update(r.Context(), userID, req)
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, resp)
}

func (h *Handler) Activate(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.Activate(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, resp)
}

func (h *Handler) Deactivate(w http.ResponseWriter, r *http.Request) {
	resp, err := h.service.Deactivate(r.Context(), chi.URLParam(r, "userID"))
	if err != nil {
		writeError(w, err)
		return
	}

	core.OK(w, resp)
}

func writeError(w http.ResponseWriter, err error) {
	var uerr *Error
	if !errors.As(err, &uerr) {
		core.InternalServerError(w, err)
		return
	}

	core.JSONError(w, ToAppError(uerr))
}

// ToAppError assigns each lifecycle error kind its HTTP class.
func ToAppError(e *Error) *core.AppError {
	code := string(e.Kind)

	switch e.Kind {
	case KindRequiredField:
		return core.NewAppError(e, e.Error(), http.StatusUnprocessableEntity, code)
	case KindDuplicateEmail, KindEmailImmutable:
		return core.NewAppError(e, e.Error(), http.StatusConflict, code)
	case KindNotFound:
		return core.NewAppError(e, e.Error(), http.StatusNotFound, code)
	case KindUnexpectedFailure:
		return core.NewAppError(e, "request could not be processed", http.StatusBadRequest, code)
	default:
		return core.NewAppError(e, e.Error(), http.StatusBadRequest, code)
	}
}
