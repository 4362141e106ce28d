// Package handler exposes the login endpoint.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"vendora/internal/identity"
	"vendora/pkg/platform/httputil"
)

// Handler serves the auth routes.
type Handler struct {
	svc    *identity.LoginService
	logger *slog.Logger
}

// NewHandler builds the auth handler.
func NewHandler(svc *identity.LoginService, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Register mounts the auth routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/auth/login", h.login)
}

type loginPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var payload loginPayload
	if err := httputil.DecodeJSON(r, &payload); err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}
	session, err := h.svc.Login(r.Context(), payload.Email, payload.Password)
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"session": session})
}
