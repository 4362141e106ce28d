// Package handler exposes pre-order operations over HTTP.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"vendora/internal/order"
	"vendora/internal/order/service"
	"vendora/pkg/domain"
	dErrors "vendora/pkg/domain-errors"
	"vendora/pkg/platform/httputil"
	"vendora/pkg/platform/orchestrator"
	"vendora/pkg/platform/sentinel"
)

// Handler serves the order routes.
type Handler struct {
	svc    *service.Service
	logger *slog.Logger
}

// NewHandler builds the order handler.
func NewHandler(svc *service.Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Register mounts the order routes.
func (h *Handler) Register(r chi.Router) {
	r.Route("/orders", func(r chi.Router) {
		r.Post("/", h.place)
		r.Get("/{orderID}", h.get)
		r.Post("/{orderID}/amend", h.amendMenuItem)
		r.Post("/{orderID}/split", h.splitBill)
		r.Post("/{orderID}/settle", h.settle)
		r.Post("/{orderID}/cancel", h.cancel)
	})
}

type response struct {
	Order             order.Order                 `json:"order"`
	Points            []orchestrator.PointsRecord `json:"points,omitempty"`
	GamificationError string                      `json:"gamificationError,omitempty"`
	Warnings          []string                    `json:"warnings,omitempty"`
}

func writeOutcome(w http.ResponseWriter, status int, out service.Outcome) {
	httputil.WriteJSON(w, status, response{
		Order:             out.Order,
		Points:            out.Report.Points,
		GamificationError: out.Report.GamificationError,
		Warnings:          out.Report.Warnings,
	})
}

type placePayload struct {
	VenueID      string           `json:"venueId"`
	CustomerID   string           `json:"customerId"`
	Participants []string         `json:"participants"`
	Items        []order.LineItem `json:"items"`
}

func (h *Handler) place(w http.ResponseWriter, r *http.Request) {
	var payload placePayload
	if err := httputil.DecodeJSON(r, &payload); err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}
	venueID, err := domain.ParseVenueID(payload.VenueID)
	if err != nil {
		httputil.WriteError(w, h.logger, dErrors.New(dErrors.CodeValidation, "venueId must be a valid UUID"))
		return
	}
	customerID, err := domain.ParseUserID(payload.CustomerID)
	if err != nil {
		httputil.WriteError(w, h.logger, dErrors.New(dErrors.CodeValidation, "customerId must be a valid UUID"))
		return
	}
	participants := make([]domain.UserID, 0, len(payload.Participants))
	for _, raw := range payload.Participants {
		participant, err := domain.ParseUserID(raw)
		if err != nil {
			httputil.WriteError(w, h.logger, dErrors.New(dErrors.CodeValidation, "participants must be valid UUIDs"))
			return
		}
		participants = append(participants, participant)
	}
	out, err := h.svc.Place(r.Context(), order.PlaceRequest{
		VenueID:      venueID,
		CustomerID:   customerID,
		Participants: participants,
		Items:        payload.Items,
	})
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}
	writeOutcome(w, http.StatusCreated, out)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	orderID, err := domain.ParseOrderID(chi.URLParam(r, "orderID"))
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}
	o, err := h.svc.Get(r.Context(), orderID)
	if err != nil {
		httputil.WriteError(w, h.logger, mapReadError(err))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, response{Order: o})
}

type amendPayload struct {
	MenuItemID string `json:"menuItemId"`
	Name       string `json:"name"`
	Quantity   int    `json:"quantity"`
	PriceCents int64  `json:"priceCents"`
}

func (h *Handler) amendMenuItem(w http.ResponseWriter, r *http.Request) {
	orderID, err := domain.ParseOrderID(chi.URLParam(r, "orderID"))
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}
	var payload amendPayload
	if err := httputil.DecodeJSON(r, &payload); err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}
	out, err := h.svc.AmendMenuItem(r.Context(), order.AmendRequest{
		OrderID:    orderID,
		MenuItemID: payload.MenuItemID,
		Name:       payload.Name,
		Quantity:   payload.Quantity,
		PriceCents: domain.Cents(payload.PriceCents),
	})
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}
	writeOutcome(w, http.StatusOK, out)
}

func (h *Handler) splitBill(w http.ResponseWriter, r *http.Request) {
	orderID, err := domain.ParseOrderID(chi.URLParam(r, "orderID"))
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}
	out, err := h.svc.SplitBill(r.Context(), orderID)
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, struct {
		Split    order.BillSplit `json:"split"`
		Warnings []string        `json:"warnings,omitempty"`
	}{
		Split:    out.Split,
		Warnings: out.Report.Warnings,
	})
}

func (h *Handler) settle(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.Settle)
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.Cancel)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, orderID domain.OrderID) (service.Outcome, error)) {
	orderID, err := domain.ParseOrderID(chi.URLParam(r, "orderID"))
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}
	out, err := op(r.Context(), orderID)
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}
	writeOutcome(w, http.StatusOK, out)
}

func mapReadError(err error) error {
	var coded *dErrors.Error
	if errors.As(err, &coded) {
		return err
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeNotFound, "order not found")
	}
	return dErrors.Wrap(err, dErrors.CodePersistence, "persistence failure")
}
