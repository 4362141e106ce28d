// Package service implements booking domain operations. Each write runs
// through the orchestrator: the state transition commits inside a unit of
// work, then audit, notification, broadcast, and point effects fan out.
package service

import (
	"context"

	"vendora/internal/booking"
	"vendora/internal/broadcast"
	id "vendora/pkg/domain"
	dErrors "vendora/pkg/domain-errors"
	"vendora/pkg/platform/audit"
	"vendora/pkg/platform/orchestrator"
	"vendora/pkg/requestcontext"
)

// Service exposes the booking operations.
type Service struct {
	store booking.Store
	orch  *orchestrator.Orchestrator
}

// NewService builds the booking service.
func NewService(store booking.Store, orch *orchestrator.Orchestrator) *Service {
	return &Service{store: store, orch: orch}
}

// Outcome is a committed booking snapshot plus the fan-out report.
type Outcome struct {
	Booking booking.Booking
	Report  orchestrator.Report
}

func (s *Service) run(ctx context.Context, name string, fn func(ctx context.Context) (*orchestrator.Result, error)) (Outcome, error) {
	out, err := s.orch.Run(ctx, orchestrator.OperationFunc{OpName: name, Fn: fn})
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Booking: out.Entity.(booking.Booking), Report: out.Report}, nil
}

// Create makes a new pending booking.
func (s *Service) Create(ctx context.Context, req booking.CreateRequest) (Outcome, error) {
	if err := req.Validate(); err != nil {
		return Outcome{}, err
	}
	return s.run(ctx, "booking.create", func(ctx context.Context) (*orchestrator.Result, error) {
		now := requestcontext.Now(ctx)
		b := booking.Booking{
			ID:         id.NewBookingID(),
			VenueID:    req.VenueID,
			CustomerID: req.CustomerID,
			PartySize:  req.PartySize,
			StartsAt:   req.StartsAt,
			Status:     booking.StatusPending,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := s.store.Create(ctx, b); err != nil {
			return nil, err
		}
		return &orchestrator.Result{
			Entity: b,
			Effects: []orchestrator.Descriptor{
				auditEffect(ctx, audit.ActionBookingCreated, b),
				notifyEffect(b.CustomerID, "booking.created", b),
				broadcastEffect(b, "booking_created"),
			},
		}, nil
	})
}

// Confirm moves a pending booking to confirmed.
func (s *Service) Confirm(ctx context.Context, bookingID id.BookingID) (Outcome, error) {
	return s.run(ctx, "booking.confirm", func(ctx context.Context) (*orchestrator.Result, error) {
		b, err := s.store.SetStatus(ctx, bookingID, []booking.Status{booking.StatusPending}, booking.StatusConfirmed)
		if err != nil {
			return nil, err
		}
		return &orchestrator.Result{
			Entity: b,
			Effects: []orchestrator.Descriptor{
				auditEffect(ctx, audit.ActionBookingConfirmed, b),
				notifyEffect(b.CustomerID, "booking.confirmed", b),
				orchestrator.PointsEffect(orchestrator.PointsAward{
					UserID: b.CustomerID,
					Action: "booking_confirmed",
				}),
			},
		}, nil
	})
}

// CheckIn moves a pending or confirmed booking to checked_in. Checking in a
// booking that is already checked in is a no-op success that returns the
// committed snapshot without re-emitting side effects.
func (s *Service) CheckIn(ctx context.Context, bookingID id.BookingID) (Outcome, error) {
	return s.run(ctx, "booking.check_in", func(ctx context.Context) (*orchestrator.Result, error) {
		current, err := s.store.Get(ctx, bookingID)
		if err != nil {
			return nil, err
		}
		if current.Status == booking.StatusCheckedIn {
			return &orchestrator.Result{Entity: current}, nil
		}

		b, err := s.store.SetStatus(ctx, bookingID,
			[]booking.Status{booking.StatusPending, booking.StatusConfirmed}, booking.StatusCheckedIn)
		if err != nil {
			return nil, err
		}
		return &orchestrator.Result{
			Entity: b,
			Effects: []orchestrator.Descriptor{
				auditEffect(ctx, audit.ActionBookingCheckedIn, b),
				notifyEffect(b.CustomerID, "booking.checked_in", b),
				broadcastEffect(b, "booking_checked_in"),
				orchestrator.PointsEffect(orchestrator.PointsAward{
					UserID: requestcontext.ActorID(ctx),
					Action: "booking_checked_in",
				}),
			},
		}, nil
	})
}

// Complete moves a checked-in booking to completed.
func (s *Service) Complete(ctx context.Context, bookingID id.BookingID) (Outcome, error) {
	return s.run(ctx, "booking.complete", func(ctx context.Context) (*orchestrator.Result, error) {
		b, err := s.store.SetStatus(ctx, bookingID, []booking.Status{booking.StatusCheckedIn}, booking.StatusCompleted)
		if err != nil {
			return nil, err
		}
		return &orchestrator.Result{
			Entity: b,
			Effects: []orchestrator.Descriptor{
				auditEffect(ctx, audit.ActionBookingCompleted, b),
				notifyEffect(b.CustomerID, "booking.completed", b),
				orchestrator.PointsEffect(orchestrator.PointsAward{
					UserID: b.CustomerID,
					Action: "booking_completed",
				}),
			},
		}, nil
	})
}

// Cancel cancels a booking that has not been checked in yet.
func (s *Service) Cancel(ctx context.Context, bookingID id.BookingID) (Outcome, error) {
	return s.run(ctx, "booking.cancel", func(ctx context.Context) (*orchestrator.Result, error) {
		b, err := s.store.SetStatus(ctx, bookingID,
			[]booking.Status{booking.StatusWaitlisted, booking.StatusPending, booking.StatusConfirmed}, booking.StatusCancelled)
		if err != nil {
			return nil, err
		}
		return &orchestrator.Result{
			Entity: b,
			Effects: []orchestrator.Descriptor{
				auditEffect(ctx, audit.ActionBookingCancelled, b),
				notifyEffect(b.CustomerID, "booking.cancelled", b),
				broadcastEffect(b, "booking_cancelled"),
			},
		}, nil
	})
}

// MarkNoShow records that a pending booking never arrived.
func (s *Service) MarkNoShow(ctx context.Context, bookingID id.BookingID) (Outcome, error) {
	return s.run(ctx, "booking.no_show", func(ctx context.Context) (*orchestrator.Result, error) {
		b, err := s.store.SetStatus(ctx, bookingID, []booking.Status{booking.StatusPending}, booking.StatusNoShow)
		if err != nil {
			return nil, err
		}
		return &orchestrator.Result{
			Entity: b,
			Effects: []orchestrator.Descriptor{
				auditEffect(ctx, audit.ActionBookingNoShow, b),
				notifyEffect(b.CustomerID, "booking.no_show", b),
			},
		}, nil
	})
}

// JoinWaitlist creates a waitlisted booking for a full venue.
func (s *Service) JoinWaitlist(ctx context.Context, req booking.CreateRequest) (Outcome, error) {
	if err := req.Validate(); err != nil {
		return Outcome{}, err
	}
	return s.run(ctx, "booking.join_waitlist", func(ctx context.Context) (*orchestrator.Result, error) {
		now := requestcontext.Now(ctx)
		b := booking.Booking{
			ID:         id.NewBookingID(),
			VenueID:    req.VenueID,
			CustomerID: req.CustomerID,
			PartySize:  req.PartySize,
			StartsAt:   req.StartsAt,
			Status:     booking.StatusWaitlisted,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := s.store.Create(ctx, b); err != nil {
			return nil, err
		}
		return &orchestrator.Result{
			Entity: b,
			Effects: []orchestrator.Descriptor{
				auditEffect(ctx, audit.ActionWaitlistJoined, b),
				notifyEffect(b.CustomerID, "waitlist.joined", b),
				orchestrator.PointsEffect(orchestrator.PointsAward{
					UserID: b.CustomerID,
					Action: "waitlist_joined",
				}),
			},
		}, nil
	})
}

// PromoteWaitlist moves the oldest waitlisted booking for a venue to
// pending. Called when capacity frees up, typically after a cancellation
// or no-show.
func (s *Service) PromoteWaitlist(ctx context.Context, venueID id.VenueID) (Outcome, error) {
	if venueID.IsNil() {
		return Outcome{}, dErrors.New(dErrors.CodeValidation, "venueId is required")
	}
	return s.run(ctx, "booking.promote_waitlist", func(ctx context.Context) (*orchestrator.Result, error) {
		next, err := s.store.NextWaitlisted(ctx, venueID)
		if err != nil {
			return nil, err
		}
		b, err := s.store.SetStatus(ctx, next.ID, []booking.Status{booking.StatusWaitlisted}, booking.StatusPending)
		if err != nil {
			return nil, err
		}
		return &orchestrator.Result{
			Entity: b,
			Effects: []orchestrator.Descriptor{
				auditEffect(ctx, audit.ActionWaitlistPromoted, b),
				notifyEffect(b.CustomerID, "waitlist.promoted", b),
				broadcastEffect(b, "waitlist_promoted"),
			},
		}, nil
	})
}

// Get returns one booking. Reads bypass the orchestrator.
func (s *Service) Get(ctx context.Context, bookingID id.BookingID) (booking.Booking, error) {
	return s.store.Get(ctx, bookingID)
}

// ListByVenue returns a venue's bookings, newest first.
func (s *Service) ListByVenue(ctx context.Context, venueID id.VenueID, limit int) ([]booking.Booking, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.store.ListByVenue(ctx, venueID, limit)
}

func auditEffect(ctx context.Context, action audit.Action, b booking.Booking) orchestrator.Descriptor {
	return orchestrator.AuditEffect(orchestrator.AuditRecord{
		Action:  string(action),
		ActorID: requestcontext.ActorID(ctx),
		Role:    requestcontext.Role(ctx),
		Subject: b.ID.String(),
		Details: map[string]string{
			"venue_id": b.VenueID.String(),
			"status":   string(b.Status),
		},
	})
}

func notifyEffect(userID id.UserID, messageKey string, b booking.Booking) orchestrator.Descriptor {
	return orchestrator.NotifyEffect(orchestrator.Notification{
		UserID:     userID,
		Type:       "booking",
		MessageKey: messageKey,
		MessageParams: map[string]string{
			"booking_id": b.ID.String(),
		},
		Module: "booking",
	})
}

func broadcastEffect(b booking.Booking, event string) orchestrator.Descriptor {
	return orchestrator.BroadcastEffect(orchestrator.BroadcastEvent{
		Channel: broadcast.VenueChannel(b.VenueID.String()),
		Event:   event,
		Payload: b,
	})
}
