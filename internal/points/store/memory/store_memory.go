// Package memory provides an in-memory points ledger for tests and local
// development.
package memory

import (
	"context"
	"sync"

	"vendora/internal/points"
	id "vendora/pkg/domain"
)

// Store keeps ledger entries per user, newest last.
type Store struct {
	mu      sync.RWMutex
	entries map[id.UserID][]points.Entry
	totals  map[id.UserID]int
}

// NewStore creates an empty ledger.
func NewStore() *Store {
	return &Store{
		entries: make(map[id.UserID][]points.Entry),
		totals:  make(map[id.UserID]int),
	}
}

// Append implements points.Store.
func (s *Store) Append(ctx context.Context, entry points.Entry) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[entry.UserID] = append(s.entries[entry.UserID], entry)
	s.totals[entry.UserID] += entry.Points
	return s.totals[entry.UserID], nil
}

// TotalFor implements points.Store.
func (s *Store) TotalFor(ctx context.Context, userID id.UserID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.totals[userID], nil
}

// ListByUser implements points.Store.
func (s *Store) ListByUser(ctx context.Context, userID id.UserID, limit int) ([]points.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	all := s.entries[userID]
	if len(all) == 0 {
		return nil, nil
	}
	out := make([]points.Entry, 0, min(limit, len(all)))
	for i := len(all) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, all[i])
	}
	return out, nil
}
