package handler

import (
	"errors"
	"net/http"

	"github.com/cvforge/cvforge-api/internal/middleware"
	"github.com/cvforge/cvforge-api/internal/model"
	"github.com/cvforge/cvforge-api/internal/service"
)

// AuthHandler handles HTTP requests for authentication.
type AuthHandler struct {
	service  *service.AuthService
	failures middleware.AuthFailureRecorder
}

// NewAuthHandler creates a new AuthHandler. failures may be nil.
func NewAuthHandler(svc *service.AuthService, failures middleware.AuthFailureRecorder) *AuthHandler {
	return &AuthHandler{service: svc, failures: failures}
}

// HandleRegister handles POST /api/auth/register requests.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	resp, err := h.service.Register(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleLogin handles POST /api/auth/login requests.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	resp, err := h.service.Login(r.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) && h.failures != nil {
			h.failures.RecordAuthFailure()
		}
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

// HandleMe handles GET /api/auth/me requests.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, r, service.ErrUnauthenticated)
		return
	}

	writeJSON(w, http.StatusOK, user.Public())
}
