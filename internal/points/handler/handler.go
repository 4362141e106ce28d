// Package handler exposes the points ledger over HTTP. Awards only happen
// through the fan-out; these routes are read-only.
package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"vendora/internal/points"
	"vendora/pkg/domain"
	dErrors "vendora/pkg/domain-errors"
	"vendora/pkg/platform/httputil"
	"vendora/pkg/platform/sentinel"
)

// Handler serves the points routes.
type Handler struct {
	svc    *points.Service
	logger *slog.Logger
}

// NewHandler builds the points handler.
func NewHandler(svc *points.Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Register mounts the points routes.
func (h *Handler) Register(r chi.Router) {
	r.Route("/points/{userID}", func(r chi.Router) {
		r.Get("/balance", h.balance)
		r.Get("/history", h.history)
	})
}

func (h *Handler) balance(w http.ResponseWriter, r *http.Request) {
	userID, err := domain.ParseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}
	total, err := h.svc.Balance(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, h.logger, mapReadError(err))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"userId":  userID,
		"balance": total,
	})
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	userID, err := domain.ParseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := h.svc.History(r.Context(), userID, limit)
	if err != nil {
		httputil.WriteError(w, h.logger, mapReadError(err))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"userId":  userID,
		"entries": entries,
	})
}

func mapReadError(err error) error {
	var coded *dErrors.Error
	if errors.As(err, &coded) {
		return err
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeNotFound, "user has no ledger")
	}
	return dErrors.Wrap(err, dErrors.CodePersistence, "persistence failure")
}
