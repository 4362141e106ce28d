// Package points keeps the gamification ledger. Awards are applied after
// the domain write commits; a failed award is reported to the caller as a
// soft error and never blocks or reverses the operation.
package points

import (
	"context"
	"time"

	"github.com/google/uuid"

	id "vendora/pkg/domain"
)

// Entry is one immutable ledger row.
type Entry struct {
	ID        uuid.UUID         `json:"-"`
	UserID    id.UserID         `json:"userId"`
	Action    string            `json:"action"`
	Points    int               `json:"points"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	AwardedAt time.Time         `json:"awardedAt"`
}

// Store persists ledger entries and running totals.
type Store interface {
	// Append records one award and returns the user's new total.
	Append(ctx context.Context, entry Entry) (total int, err error)
	// TotalFor returns the current balance for a user.
	TotalFor(ctx context.Context, userID id.UserID) (int, error)
	// ListByUser returns a user's most recent entries, newest first.
	ListByUser(ctx context.Context, userID id.UserID, limit int) ([]Entry, error)
}
