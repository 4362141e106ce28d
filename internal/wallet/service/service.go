// Package service implements wallet domain operations: payouts, tip
// distribution, and credits. Each write runs through the orchestrator so
// balance mutations commit before audit, notification, and point effects
// fan out.
package service

import (
	"context"
	"strconv"

	"vendora/internal/wallet"
	"vendora/pkg/domain"
	"vendora/pkg/platform/audit"
	"vendora/pkg/platform/orchestrator"
	"vendora/pkg/requestcontext"
)

// Service exposes the wallet operations.
type Service struct {
	store wallet.Store
	orch  *orchestrator.Orchestrator
}

// NewService builds the wallet service.
func NewService(store wallet.Store, orch *orchestrator.Orchestrator) *Service {
	return &Service{store: store, orch: orch}
}

// PayoutOutcome is a committed payout plus the fan-out report.
type PayoutOutcome struct {
	Payout wallet.Payout
	Report orchestrator.Report
}

// TipOutcome is a committed tip distribution plus the fan-out report.
type TipOutcome struct {
	Distribution wallet.TipDistribution
	Report       orchestrator.Report
}

// WalletOutcome is a committed wallet snapshot plus the fan-out report.
type WalletOutcome struct {
	Wallet wallet.Wallet
	Report orchestrator.Report
}

// RequestPayout debits the wallet by the requested amount. When the balance
// cannot cover the amount the operation fails with InsufficientFunds and
// the balance is untouched.
func (s *Service) RequestPayout(ctx context.Context, req wallet.PayoutRequest) (PayoutOutcome, error) {
	if err := req.Validate(); err != nil {
		return PayoutOutcome{}, err
	}
	out, err := s.orch.Run(ctx, orchestrator.OperationFunc{
		OpName: "wallet.request_payout",
		Fn: func(ctx context.Context) (*orchestrator.Result, error) {
			w, err := s.store.Debit(ctx, req.WalletID, req.Amount)
			if err != nil {
				return nil, err
			}
			payout := wallet.Payout{
				Wallet:      w,
				Amount:      req.Amount,
				ProcessedAt: requestcontext.Now(ctx),
			}
			return &orchestrator.Result{
				Entity: payout,
				Effects: []orchestrator.Descriptor{
					orchestrator.AuditEffect(orchestrator.AuditRecord{
						Action:  string(audit.ActionPayoutProcessed),
						ActorID: requestcontext.ActorID(ctx),
						Role:    requestcontext.Role(ctx),
						Subject: w.ID.String(),
						Details: map[string]string{
							"amount":  req.Amount.String(),
							"balance": w.Balance.String(),
						},
					}),
					orchestrator.NotifyEffect(orchestrator.Notification{
						UserID:     w.OwnerID,
						Type:       "wallet",
						MessageKey: "wallet.payout_processed",
						MessageParams: map[string]string{
							"amount": req.Amount.String(),
						},
						Module: "wallet",
					}),
				},
			}, nil
		},
	})
	if err != nil {
		return PayoutOutcome{}, err
	}
	return PayoutOutcome{Payout: out.Entity.(wallet.Payout), Report: out.Report}, nil
}

// DistributeTips splits a tip pool evenly across the given staff wallets.
// Remainder cents go to the first shares so the split always sums back to
// the pool. All credits commit in one unit of work.
func (s *Service) DistributeTips(ctx context.Context, req wallet.TipRequest) (TipOutcome, error) {
	if err := req.Validate(); err != nil {
		return TipOutcome{}, err
	}
	out, err := s.orch.Run(ctx, orchestrator.OperationFunc{
		OpName: "wallet.distribute_tips",
		Fn: func(ctx context.Context) (*orchestrator.Result, error) {
			// Resolve every wallet before the first credit. The memory
			// unit of work cannot undo partial writes, so no balance may
			// change until the whole distribution is known to succeed.
			for _, walletID := range req.WalletIDs {
				if _, err := s.store.Get(ctx, walletID); err != nil {
					return nil, err
				}
			}
			shares := req.Amount.SplitEven(len(req.WalletIDs))
			dist := wallet.TipDistribution{
				Total:   req.Amount,
				Shares:  make([]wallet.TipShare, 0, len(shares)),
				SplitAt: requestcontext.Now(ctx),
			}
			effects := []orchestrator.Descriptor{
				orchestrator.AuditEffect(orchestrator.AuditRecord{
					Action:  string(audit.ActionTipsDistributed),
					ActorID: requestcontext.ActorID(ctx),
					Role:    requestcontext.Role(ctx),
					Details: map[string]string{
						"amount": req.Amount.String(),
						"shares": strconv.Itoa(len(req.WalletIDs)),
					},
				}),
			}
			for i, walletID := range req.WalletIDs {
				w, err := s.store.Credit(ctx, walletID, shares[i])
				if err != nil {
					return nil, err
				}
				dist.Shares = append(dist.Shares, wallet.TipShare{Wallet: w, Amount: shares[i]})
				effects = append(effects, orchestrator.NotifyEffect(orchestrator.Notification{
					UserID:     w.OwnerID,
					Type:       "wallet",
					MessageKey: "wallet.tip_received",
					MessageParams: map[string]string{
						"amount": shares[i].String(),
					},
					Module: "wallet",
				}))
			}
			effects = append(effects, orchestrator.PointsEffect(orchestrator.PointsAward{
				UserID: requestcontext.ActorID(ctx),
				Action: "tip_given",
			}))
			return &orchestrator.Result{Entity: dist, Effects: effects}, nil
		},
	})
	if err != nil {
		return TipOutcome{}, err
	}
	return TipOutcome{Distribution: out.Entity.(wallet.TipDistribution), Report: out.Report}, nil
}

// Credit adds funds to a wallet.
func (s *Service) Credit(ctx context.Context, req wallet.CreditRequest) (WalletOutcome, error) {
	if err := req.Validate(); err != nil {
		return WalletOutcome{}, err
	}
	out, err := s.orch.Run(ctx, orchestrator.OperationFunc{
		OpName: "wallet.credit",
		Fn: func(ctx context.Context) (*orchestrator.Result, error) {
			w, err := s.store.Credit(ctx, req.WalletID, req.Amount)
			if err != nil {
				return nil, err
			}
			return &orchestrator.Result{
				Entity: w,
				Effects: []orchestrator.Descriptor{
					orchestrator.AuditEffect(orchestrator.AuditRecord{
						Action:  string(audit.ActionWalletCredited),
						ActorID: requestcontext.ActorID(ctx),
						Role:    requestcontext.Role(ctx),
						Subject: w.ID.String(),
						Details: map[string]string{
							"amount": req.Amount.String(),
						},
					}),
					orchestrator.NotifyEffect(orchestrator.Notification{
						UserID:     w.OwnerID,
						Type:       "wallet",
						MessageKey: "wallet.credited",
						MessageParams: map[string]string{
							"amount": req.Amount.String(),
						},
						Module: "wallet",
					}),
				},
			}, nil
		},
	})
	if err != nil {
		return WalletOutcome{}, err
	}
	return WalletOutcome{Wallet: out.Entity.(wallet.Wallet), Report: out.Report}, nil
}

// Get returns one wallet. Reads bypass the orchestrator.
func (s *Service) Get(ctx context.Context, walletID domain.WalletID) (wallet.Wallet, error) {
	return s.store.Get(ctx, walletID)
}
