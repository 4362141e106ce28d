// Package memory provides an in-memory order store for tests and local
// development.
package memory

import (
	"context"
	"sync"
	"time"

	"vendora/internal/order"
	"vendora/pkg/domain"
	"vendora/pkg/platform/sentinel"
)

// Store keeps orders in a map guarded by one mutex.
type Store struct {
	mu     sync.RWMutex
	orders map[domain.OrderID]order.Order
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{orders: make(map[domain.OrderID]order.Order)}
}

// Create implements order.Store.
func (s *Store) Create(ctx context.Context, o order.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.orders[o.ID]; exists {
		return sentinel.ErrConflict
	}
	s.orders[o.ID] = o
	return nil
}

// Get implements order.Store.
func (s *Store) Get(ctx context.Context, orderID domain.OrderID) (order.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.orders[orderID]
	if !ok {
		return order.Order{}, sentinel.ErrNotFound
	}
	return o, nil
}

// SetStatus implements order.Store.
func (s *Store) SetStatus(ctx context.Context, orderID domain.OrderID, allowed []order.Status, to order.Status) (order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok {
		return order.Order{}, sentinel.ErrNotFound
	}
	if !statusAllowed(o.Status, allowed) {
		return order.Order{}, sentinel.ErrInvalidState
	}
	o.Status = to
	o.UpdatedAt = time.Now()
	s.orders[orderID] = o
	return o, nil
}

// ReplaceItems implements order.Store.
func (s *Store) ReplaceItems(ctx context.Context, orderID domain.OrderID, allowed []order.Status, items []order.LineItem) (order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[orderID]
	if !ok {
		return order.Order{}, sentinel.ErrNotFound
	}
	if !statusAllowed(o.Status, allowed) {
		return order.Order{}, sentinel.ErrInvalidState
	}
	o.Items = items
	o.Status = order.StatusAmended
	o.UpdatedAt = time.Now()
	s.orders[orderID] = o
	return o, nil
}

func statusAllowed(current order.Status, allowed []order.Status) bool {
	for _, status := range allowed {
		if current == status {
			return true
		}
	}
	return false
}
