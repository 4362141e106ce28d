package order

import (
	"context"

	"vendora/pkg/domain"
)

// Store persists pre-orders. Implementations return sentinel errors
// (sentinel.ErrNotFound, sentinel.ErrInvalidState) which the orchestrator
// maps to coded domain errors.
type Store interface {
	// Create persists a new order.
	Create(ctx context.Context, o Order) error
	// Get returns one order.
	Get(ctx context.Context, orderID domain.OrderID) (Order, error)
	// SetStatus moves an order to a new status only when its current status
	// is one of allowed; otherwise it returns sentinel.ErrInvalidState.
	SetStatus(ctx context.Context, orderID domain.OrderID, allowed []Status, to Status) (Order, error)
	// ReplaceItems swaps the line items and moves the order to StatusAmended,
	// guarded by the same conditional-status semantics as SetStatus.
	ReplaceItems(ctx context.Context, orderID domain.OrderID, allowed []Status, items []LineItem) (Order, error)
}
