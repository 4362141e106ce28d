package wallet

import (
	"context"

	"vendora/pkg/domain"
)

// Store persists wallets. Implementations return sentinel errors
// (sentinel.ErrNotFound, sentinel.ErrInsufficientFunds) which the
// orchestrator maps to coded domain errors.
type Store interface {
	// Create persists a new wallet.
	Create(ctx context.Context, w Wallet) error
	// Get returns one wallet.
	Get(ctx context.Context, walletID domain.WalletID) (Wallet, error)
	// Debit atomically subtracts amount from the balance. It returns
	// sentinel.ErrInsufficientFunds, leaving the balance untouched, when
	// the balance cannot cover the amount.
	Debit(ctx context.Context, walletID domain.WalletID, amount domain.Cents) (Wallet, error)
	// Credit atomically adds amount to the balance.
	Credit(ctx context.Context, walletID domain.WalletID, amount domain.Cents) (Wallet, error)
}
