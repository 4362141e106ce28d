package booking

import (
	"context"

	id "vendora/pkg/domain"
)

// Store persists bookings. Implementations return sentinel errors
// (sentinel.ErrNotFound, sentinel.ErrInvalidState) which the orchestrator
// maps to coded domain errors.
type Store interface {
	// Create persists a new booking.
	Create(ctx context.Context, b Booking) error
	// Get returns one booking.
	Get(ctx context.Context, bookingID id.BookingID) (Booking, error)
	// SetStatus moves a booking to a new status only when its current
	// status is one of allowed; otherwise it returns
	// sentinel.ErrInvalidState. The condition is evaluated atomically so
	// concurrent transitions resolve to exactly one winner.
	SetStatus(ctx context.Context, bookingID id.BookingID, allowed []Status, to Status) (Booking, error)
	// NextWaitlisted returns the oldest waitlisted booking for a venue, or
	// sentinel.ErrNotFound when the waitlist is empty.
	NextWaitlisted(ctx context.Context, venueID id.VenueID) (Booking, error)
	// ListByVenue returns a venue's bookings, newest first.
	ListByVenue(ctx context.Context, venueID id.VenueID, limit int) ([]Booking, error)
}
