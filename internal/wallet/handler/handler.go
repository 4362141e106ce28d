// Package handler exposes wallet operations over HTTP.
package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"vendora/internal/wallet"
	"vendora/internal/wallet/service"
	"vendora/pkg/domain"
	dErrors "vendora/pkg/domain-errors"
	"vendora/pkg/platform/httputil"
	"vendora/pkg/platform/orchestrator"
	"vendora/pkg/platform/sentinel"
)

// Handler serves the wallet routes.
type Handler struct {
	svc    *service.Service
	logger *slog.Logger
}

// NewHandler builds the wallet handler.
func NewHandler(svc *service.Service, logger *slog.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Register mounts the wallet routes.
func (h *Handler) Register(r chi.Router) {
	r.Route("/wallets", func(r chi.Router) {
		r.Get("/{walletID}", h.get)
		r.Post("/{walletID}/payout", h.requestPayout)
		r.Post("/{walletID}/credit", h.credit)
		r.Post("/tips", h.distributeTips)
	})
}

type amountPayload struct {
	AmountCents int64 `json:"amountCents"`
}

type tipsPayload struct {
	AmountCents int64    `json:"amountCents"`
	WalletIDs   []string `json:"walletIds"`
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	walletID, err := domain.ParseWalletID(chi.URLParam(r, "walletID"))
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}
	wlt, err := h.svc.Get(r.Context(), walletID)
	if err != nil {
		httputil.WriteError(w, h.logger, mapReadError(err))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"wallet": wlt})
}

func (h *Handler) requestPayout(w http.ResponseWriter, r *http.Request) {
	walletID, err := domain.ParseWalletID(chi.URLParam(r, "walletID"))
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}
	var payload amountPayload
	if err := httputil.DecodeJSON(r, &payload); err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}
	out, err := h.svc.RequestPayout(r.Context(), wallet.PayoutRequest{
		WalletID: walletID,
		Amount:   domain.Cents(payload.AmountCents),
	})
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, struct {
		Payout            wallet.Payout               `json:"payout"`
		Points            []orchestrator.PointsRecord `json:"points,omitempty"`
		GamificationError string                      `json:"gamificationError,omitempty"`
		Warnings          []string                    `json:"warnings,omitempty"`
	}{
		Payout:            out.Payout,
		Points:            out.Report.Points,
		GamificationError: out.Report.GamificationError,
		Warnings:          out.Report.Warnings,
	})
}

func (h *Handler) credit(w http.ResponseWriter, r *http.Request) {
	walletID, err := domain.ParseWalletID(chi.URLParam(r, "walletID"))
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}
	var payload amountPayload
	if err := httputil.DecodeJSON(r, &payload); err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}
	out, err := h.svc.Credit(r.Context(), wallet.CreditRequest{
		WalletID: walletID,
		Amount:   domain.Cents(payload.AmountCents),
	})
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"wallet": out.Wallet})
}

func (h *Handler) distributeTips(w http.ResponseWriter, r *http.Request) {
	var payload tipsPayload
	if err := httputil.DecodeJSON(r, &payload); err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}
	walletIDs := make([]domain.WalletID, 0, len(payload.WalletIDs))
	for _, raw := range payload.WalletIDs {
		walletID, err := domain.ParseWalletID(raw)
		if err != nil {
			httputil.WriteError(w, h.logger, dErrors.New(dErrors.CodeValidation, "walletIds must be valid UUIDs"))
			return
		}
		walletIDs = append(walletIDs, walletID)
	}
	out, err := h.svc.DistributeTips(r.Context(), wallet.TipRequest{
		Amount:    domain.Cents(payload.AmountCents),
		WalletIDs: walletIDs,
	})
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, struct {
		Distribution      wallet.TipDistribution      `json:"distribution"`
		Points            []orchestrator.PointsRecord `json:"points,omitempty"`
		GamificationError string                      `json:"gamificationError,omitempty"`
		Warnings          []string                    `json:"warnings,omitempty"`
	}{
		Distribution:      out.Distribution,
		Points:            out.Report.Points,
		GamificationError: out.Report.GamificationError,
		Warnings:          out.Report.Warnings,
	})
}

func mapReadError(err error) error {
	var coded *dErrors.Error
	if errors.As(err, &coded) {
		return err
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.Wrap(err, dErrors.CodeNotFound, "wallet not found")
	}
	return dErrors.Wrap(err, dErrors.CodePersistence, "persistence failure")
}
