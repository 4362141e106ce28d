// Package memory provides an in-memory wallet store for tests and local
// development.
package memory

import (
	"context"
	"sync"
	"time"

	"vendora/internal/wallet"
	"vendora/pkg/domain"
	"vendora/pkg/platform/sentinel"
)

// Store keeps wallets in a map guarded by one mutex. Balance checks and
// mutations happen under the lock, matching the postgres store's guarded
// UPDATE semantics.
type Store struct {
	mu      sync.RWMutex
	wallets map[domain.WalletID]wallet.Wallet
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{wallets: make(map[domain.WalletID]wallet.Wallet)}
}

// Create implements wallet.Store.
func (s *Store) Create(ctx context.Context, w wallet.Wallet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.wallets[w.ID]; exists {
		return sentinel.ErrConflict
	}
	s.wallets[w.ID] = w
	return nil
}

// Get implements wallet.Store.
func (s *Store) Get(ctx context.Context, walletID domain.WalletID) (wallet.Wallet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.wallets[walletID]
	if !ok {
		return wallet.Wallet{}, sentinel.ErrNotFound
	}
	return w, nil
}

// Debit implements wallet.Store.
func (s *Store) Debit(ctx context.Context, walletID domain.WalletID, amount domain.Cents) (wallet.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.wallets[walletID]
	if !ok {
		return wallet.Wallet{}, sentinel.ErrNotFound
	}
	if w.Balance < amount {
		return wallet.Wallet{}, sentinel.ErrInsufficientFunds
	}
	w.Balance -= amount
	w.UpdatedAt = time.Now()
	s.wallets[walletID] = w
	return w, nil
}

// Credit implements wallet.Store.
func (s *Store) Credit(ctx context.Context, walletID domain.WalletID, amount domain.Cents) (wallet.Wallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.wallets[walletID]
	if !ok {
		return wallet.Wallet{}, sentinel.ErrNotFound
	}
	w.Balance += amount
	w.UpdatedAt = time.Now()
	s.wallets[walletID] = w
	return w, nil
}
