// Package postgres persists wallets. The balance guard lives in the UPDATE
// statement's WHERE clause so a debit can never take a balance negative,
// even under concurrent writers.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"vendora/internal/wallet"
	"vendora/pkg/domain"
	"vendora/pkg/platform/sentinel"
	txcontext "vendora/pkg/platform/tx"
)

// Store is the postgres wallet store.
type Store struct {
	db *sql.DB
}

// NewStore creates the store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) execer(ctx context.Context) execer {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// Create implements wallet.Store.
func (s *Store) Create(ctx context.Context, w wallet.Wallet) error {
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO wallets (id, owner_id, balance_cents, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`, uuid.UUID(w.ID), uuid.UUID(w.OwnerID), int64(w.Balance), w.CreatedAt, w.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert wallet: %w", err)
	}
	return nil
}

// Get implements wallet.Store.
func (s *Store) Get(ctx context.Context, walletID domain.WalletID) (wallet.Wallet, error) {
	row := s.execer(ctx).QueryRowContext(ctx, `
		SELECT id, owner_id, balance_cents, created_at, updated_at
		FROM wallets
		WHERE id = $1
	`, uuid.UUID(walletID))
	return scanWallet(row)
}

// Debit implements wallet.Store.
func (s *Store) Debit(ctx context.Context, walletID domain.WalletID, amount domain.Cents) (wallet.Wallet, error) {
	row := s.execer(ctx).QueryRowContext(ctx, `
		UPDATE wallets
		SET balance_cents = balance_cents - $1, updated_at = $2
		WHERE id = $3 AND balance_cents >= $1
		RETURNING id, owner_id, balance_cents, created_at, updated_at
	`, int64(amount), time.Now(), uuid.UUID(walletID))

	w, err := scanWallet(row)
	if errors.Is(err, sentinel.ErrNotFound) {
		// Distinguish a missing wallet from an uncovered balance.
		if _, getErr := s.Get(ctx, walletID); getErr == nil {
			return wallet.Wallet{}, sentinel.ErrInsufficientFunds
		}
		return wallet.Wallet{}, sentinel.ErrNotFound
	}
	return w, err
}

// Credit implements wallet.Store.
func (s *Store) Credit(ctx context.Context, walletID domain.WalletID, amount domain.Cents) (wallet.Wallet, error) {
	row := s.execer(ctx).QueryRowContext(ctx, `
		UPDATE wallets
		SET balance_cents = balance_cents + $1, updated_at = $2
		WHERE id = $3
		RETURNING id, owner_id, balance_cents, created_at, updated_at
	`, int64(amount), time.Now(), uuid.UUID(walletID))
	return scanWallet(row)
}

func scanWallet(row *sql.Row) (wallet.Wallet, error) {
	var (
		w       wallet.Wallet
		rowID   uuid.UUID
		owner   uuid.UUID
		balance int64
	)
	if err := row.Scan(&rowID, &owner, &balance, &w.CreatedAt, &w.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return wallet.Wallet{}, sentinel.ErrNotFound
		}
		return wallet.Wallet{}, fmt.Errorf("scan wallet: %w", err)
	}
	w.ID = domain.WalletID(rowID)
	w.OwnerID = domain.UserID(owner)
	w.Balance = domain.Cents(balance)
	return w, nil
}
