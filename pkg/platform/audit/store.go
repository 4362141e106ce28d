package audit

import (
	"context"

	id "vendora/pkg/domain"
)

// Store persists audit events. The postgres implementation writes through a
// transactional outbox; the memory implementation appends to a slice for
// tests and local development.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByActor(ctx context.Context, actorID id.UserID) ([]Event, error)
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}
