// Package booking manages dine-in bookings and the per-venue waitlist.
package booking

import (
	"time"

	id "vendora/pkg/domain"
	dErrors "vendora/pkg/domain-errors"
)

// Status is the booking lifecycle state.
type Status string

const (
	StatusWaitlisted Status = "waitlisted"
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusCheckedIn  Status = "checked_in"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
	StatusNoShow     Status = "no_show"
)

// transitions lists the legal next states per current state. Terminal states
// have no entry.
var transitions = map[Status][]Status{
	StatusWaitlisted: {StatusPending, StatusCancelled},
	StatusPending:    {StatusConfirmed, StatusCheckedIn, StatusCancelled, StatusNoShow},
	StatusConfirmed:  {StatusCheckedIn, StatusCancelled},
	StatusCheckedIn:  {StatusCompleted},
}

// CanTransition reports whether from may move to to.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Booking is one dine-in booking.
type Booking struct {
	ID         id.BookingID `json:"id"`
	VenueID    id.VenueID   `json:"venueId"`
	CustomerID id.UserID    `json:"customerId"`
	PartySize  int          `json:"partySize"`
	StartsAt   time.Time    `json:"startsAt"`
	Status     Status       `json:"status"`
	CreatedAt  time.Time    `json:"createdAt"`
	UpdatedAt  time.Time    `json:"updatedAt"`
}

// CreateRequest is the validated input for creating a booking or joining
// the waitlist.
type CreateRequest struct {
	VenueID    id.VenueID
	CustomerID id.UserID
	PartySize  int
	StartsAt   time.Time
}

// Validate checks the request before any store access.
func (r CreateRequest) Validate() error {
	if r.VenueID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "venueId is required")
	}
	if r.CustomerID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "customerId is required")
	}
	if r.PartySize < 1 {
		return dErrors.New(dErrors.CodeValidation, "partySize must be at least 1")
	}
	if r.PartySize > 50 {
		return dErrors.New(dErrors.CodeValidation, "partySize must be at most 50")
	}
	if r.StartsAt.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "startsAt is required")
	}
	return nil
}
