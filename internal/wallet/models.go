// Package wallet manages merchant and staff wallets with integer-cent
// balances.
package wallet

import (
	"time"

	"vendora/pkg/domain"
	dErrors "vendora/pkg/domain-errors"
)

// Wallet is one balance-holding account.
type Wallet struct {
	ID        domain.WalletID `json:"id"`
	OwnerID   domain.UserID   `json:"ownerId"`
	Balance   domain.Cents    `json:"balance"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// PayoutRequest asks to move funds out of a wallet.
type PayoutRequest struct {
	WalletID domain.WalletID
	Amount   domain.Cents
}

// Validate checks the request before any store access.
func (r PayoutRequest) Validate() error {
	if r.WalletID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "walletId is required")
	}
	if r.Amount <= 0 {
		return dErrors.New(dErrors.CodeValidation, "amount must be positive")
	}
	return nil
}

// TipRequest distributes a tip pool across staff wallets.
type TipRequest struct {
	Amount    domain.Cents
	WalletIDs []domain.WalletID
}

// Validate checks the request before any store access.
func (r TipRequest) Validate() error {
	if r.Amount <= 0 {
		return dErrors.New(dErrors.CodeValidation, "amount must be positive")
	}
	if len(r.WalletIDs) == 0 {
		return dErrors.New(dErrors.CodeValidation, "at least one wallet is required")
	}
	seen := make(map[domain.WalletID]struct{}, len(r.WalletIDs))
	for _, walletID := range r.WalletIDs {
		if walletID.IsNil() {
			return dErrors.New(dErrors.CodeValidation, "wallet ids must be valid UUIDs")
		}
		if _, dup := seen[walletID]; dup {
			return dErrors.New(dErrors.CodeValidation, "wallet ids must be unique")
		}
		seen[walletID] = struct{}{}
	}
	return nil
}

// CreditRequest adds funds to a wallet.
type CreditRequest struct {
	WalletID domain.WalletID
	Amount   domain.Cents
}

// Validate checks the request before any store access.
func (r CreditRequest) Validate() error {
	if r.WalletID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "walletId is required")
	}
	if r.Amount <= 0 {
		return dErrors.New(dErrors.CodeValidation, "amount must be positive")
	}
	return nil
}

// Payout is the settled result of a payout request.
type Payout struct {
	Wallet      Wallet       `json:"wallet"`
	Amount      domain.Cents `json:"amount"`
	ProcessedAt time.Time    `json:"processedAt"`
}

// TipDistribution is the settled result of a tip split.
type TipDistribution struct {
	Total   domain.Cents `json:"total"`
	Shares  []TipShare   `json:"shares"`
	SplitAt time.Time    `json:"splitAt"`
}

// TipShare is one wallet's cut of a tip pool.
type TipShare struct {
	Wallet Wallet       `json:"wallet"`
	Amount domain.Cents `json:"amount"`
}
