// Package handler exposes booking operations over HTTP.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"vendora/internal/booking"
	"vendora/internal/booking/service"
	id "vendora/pkg/domain"
	dErrors "vendora/pkg/domain-errors"
	"vendora/pkg/platform/httputil"
	"vendora/pkg/platform/orchestrator"
	"vendora/pkg/platform/sentinel"
)

// Handler serves the booking routes.
type Handler struct {
	svc    *service.Service
	logger *slog.Logger
}

// NewHandler builds the booking handler.
func NewHandler(svc *service.Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Register mounts the booking routes.
func (h *Handler) Register(r chi.Router) {
	r.Route("/bookings", func(r chi.Router) {
		r.Post("/", h.create)
		r.Get("/{bookingID}", h.get)
		r.Post("/{bookingID}/confirm", h.confirm)
		r.Post("/{bookingID}/check-in", h.checkIn)
		r.Post("/{bookingID}/complete", h.complete)
		r.Post("/{bookingID}/cancel", h.cancel)
		r.Post("/{bookingID}/no-show", h.markNoShow)
	})
	r.Route("/venues/{venueID}", func(r chi.Router) {
		r.Get("/bookings", h.listByVenue)
		r.Post("/waitlist", h.joinWaitlist)
		r.Post("/waitlist/promote", h.promoteWaitlist)
	})
}

// response is the data section for booking writes. The fan-out report's
// soft failures ride along without changing the success status.
type response struct {
	Booking           booking.Booking             `json:"booking"`
	Points            []orchestrator.PointsRecord `json:"points,omitempty"`
	GamificationError string                      `json:"gamificationError,omitempty"`
	Warnings          []string                    `json:"warnings,omitempty"`
}

func writeOutcome(w http.ResponseWriter, status int, out service.Outcome) {
	httputil.WriteJSON(w, status, response{
		Booking:           out.Booking,
		Points:            out.Report.Points,
		GamificationError: out.Report.GamificationError,
		Warnings:          out.Report.Warnings,
	})
}

type createPayload struct {
	VenueID    string `json:"venueId"`
	CustomerID string `json:"customerId"`
	PartySize  int    `json:"partySize"`
	StartsAt   string `json:"startsAt"`
}

func (p createPayload) toRequest() (booking.CreateRequest, error) {
	venueID, err := id.ParseVenueID(p.VenueID)
	if err != nil {
		return booking.CreateRequest{}, dErrors.New(dErrors.CodeValidation, "venueId must be a valid UUID")
	}
	customerID, err := id.ParseUserID(p.CustomerID)
	if err != nil {
		return booking.CreateRequest{}, dErrors.New(dErrors.CodeValidation, "customerId must be a valid UUID")
	}
	startsAt, err := time.Parse(time.RFC3339, p.StartsAt)
	if err != nil {
		return booking.CreateRequest{}, dErrors.New(dErrors.CodeValidation, "startsAt must be an RFC 3339 timestamp")
	}
	return booking.CreateRequest{
		VenueID:    venueID,
		CustomerID: customerID,
		PartySize:  p.PartySize,
		StartsAt:   startsAt,
	}, nil
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var payload createPayload
	if err := httputil.DecodeJSON(r, &payload); err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}
	req, err := payload.toRequest()
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}
	out, err := h.svc.Create(r.Context(), req)
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}
	writeOutcome(w, http.StatusCreated, out)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	bookingID, err := id.ParseBookingID(chi.URLParam(r, "bookingID"))
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}
	b, err := h.svc.Get(r.Context(), bookingID)
	if err != nil {
		httputil.WriteError(w, h.logger, mapReadError(err))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, response{Booking: b})
}

func (h *Handler) listByVenue(w http.ResponseWriter, r *http.Request) {
	venueID, err := id.ParseVenueID(chi.URLParam(r, "venueID"))
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}
	bookings, err := h.svc.ListByVenue(r.Context(), venueID, 50)
	if err != nil {
		httputil.WriteError(w, h.logger, mapReadError(err))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"bookings": bookings})
}

func (h *Handler) confirm(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.Confirm)
}

func (h *Handler) checkIn(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.CheckIn)
}

func (h *Handler) complete(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.Complete)
}

func (h *Handler) cancel(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.Cancel)
}

func (h *Handler) markNoShow(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.svc.MarkNoShow)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, bookingID id.BookingID) (service.Outcome, error)) {
	bookingID, err := id.ParseBookingID(chi.URLParam(r, "bookingID"))
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}
	out, err := op(r.Context(), bookingID)
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}
	writeOutcome(w, http.StatusOK, out)
}

func (h *Handler) joinWaitlist(w http.ResponseWriter, r *http.Request) {
	venueID, err := id.ParseVenueID(chi.URLParam(r, "venueID"))
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}
	var payload createPayload
	if err := httputil.DecodeJSON(r, &payload); err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}
	payload.VenueID = venueID.String()
	req, err := payload.toRequest()
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}
	out, err := h.svc.JoinWaitlist(r.Context(), req)
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}
	writeOutcome(w, http.StatusCreated, out)
}

func (h *Handler) promoteWaitlist(w http.ResponseWriter, r *http.Request) {
	venueID, err := id.ParseVenueID(chi.URLParam(r, "venueID"))
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}
	out, err := h.svc.PromoteWaitlist(r.Context(), venueID)
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}
	writeOutcome(w, http.StatusOK, out)
}

// mapReadError translates store sentinels for read paths, which do not go
// through the orchestrator's error mapping.
func mapReadError(err error) error {
	var coded *dErrors.Error
	if errors.As(err, &coded) {
		return err
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeNotFound, "booking not found")
	}
	return dErrors.Wrap(err, dErrors.CodePersistence, "persistence failure")
}
