// Package memory provides an in-memory booking store for tests and local
// development. Conditional transitions are evaluated under the store lock,
// which gives the same one-winner guarantee as the postgres store's guarded
// UPDATE.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"vendora/internal/booking"
	id "vendora/pkg/domain"
	"vendora/pkg/platform/sentinel"
)

// Store keeps bookings in a map guarded by one mutex.
type Store struct {
	mu       sync.RWMutex
	bookings map[id.BookingID]booking.Booking
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{bookings: make(map[id.BookingID]booking.Booking)}
}

// Create implements booking.Store.
func (s *Store) Create(ctx context.Context, b booking.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.bookings[b.ID]; exists {
		return sentinel.ErrConflict
	}
	s.bookings[b.ID] = b
	return nil
}

// Get implements booking.Store.
func (s *Store) Get(ctx context.Context, bookingID id.BookingID) (booking.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bookings[bookingID]
	if !ok {
		return booking.Booking{}, sentinel.ErrNotFound
	}
	return b, nil
}

// SetStatus implements booking.Store.
func (s *Store) SetStatus(ctx context.Context, bookingID id.BookingID, allowed []booking.Status, to booking.Status) (booking.Booking, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bookings[bookingID]
	if !ok {
		return booking.Booking{}, sentinel.ErrNotFound
	}
	permitted := false
	for _, status := range allowed {
		if b.Status == status {
			permitted = true
			break
		}
	}
	if !permitted {
		return booking.Booking{}, sentinel.ErrInvalidState
	}
	b.Status = to
	b.UpdatedAt = time.Now()
	s.bookings[bookingID] = b
	return b, nil
}

// NextWaitlisted implements booking.Store.
func (s *Store) NextWaitlisted(ctx context.Context, venueID id.VenueID) (booking.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var (
		oldest booking.Booking
		found  bool
	)
	for _, b := range s.bookings {
		if b.VenueID != venueID || b.Status != booking.StatusWaitlisted {
			continue
		}
		if !found || b.CreatedAt.Before(oldest.CreatedAt) {
			oldest = b
			found = true
		}
	}
	if !found {
		return booking.Booking{}, sentinel.ErrNotFound
	}
	return oldest, nil
}

// ListByVenue implements booking.Store.
func (s *Store) ListByVenue(ctx context.Context, venueID id.VenueID, limit int) ([]booking.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []booking.Booking
	for _, b := range s.bookings {
		if b.VenueID == venueID {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
