// Package postgres persists bookings. All statements run through the
// transaction in context when one is present, so writes issued inside a
// unit of work join its transaction.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"vendora/internal/booking"
	id "vendora/pkg/domain"
	"vendora/pkg/platform/sentinel"
	txcontext "vendora/pkg/platform/tx"
)

// Store is the postgres booking store.
type Store struct {
	db *sql.DB
}

// NewStore creates the store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) execer(ctx context.Context) execer {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// Create implements booking.Store.
func (s *Store) Create(ctx context.Context, b booking.Booking) error {
	_, err := s.execer(ctx).ExecContext(ctx, `
		INSERT INTO bookings (id, venue_id, customer_id, party_size, starts_at, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, uuid.UUID(b.ID), uuid.UUID(b.VenueID), uuid.UUID(b.CustomerID),
		b.PartySize, b.StartsAt, string(b.Status), b.CreatedAt, b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	return nil
}

// Get implements booking.Store.
func (s *Store) Get(ctx context.Context, bookingID id.BookingID) (booking.Booking, error) {
	row := s.execer(ctx).QueryRowContext(ctx, `
		SELECT id, venue_id, customer_id, party_size, starts_at, status, created_at, updated_at
		FROM bookings
		WHERE id = $1
	`, uuid.UUID(bookingID))
	return scanRow(row)
}

// SetStatus implements booking.Store. The status guard lives in the WHERE
// clause, so under concurrent transitions postgres serializes the row
// writes and exactly one caller observes an affected row.
func (s *Store) SetStatus(ctx context.Context, bookingID id.BookingID, allowed []booking.Status, to booking.Status) (booking.Booking, error) {
	statuses := make([]string, len(allowed))
	for i, st := range allowed {
		statuses[i] = string(st)
	}

	row := s.execer(ctx).QueryRowContext(ctx, `
		UPDATE bookings
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status = ANY($4)
		RETURNING id, venue_id, customer_id, party_size, starts_at, status, created_at, updated_at
	`, string(to), time.Now(), uuid.UUID(bookingID), pq.Array(statuses))

	b, err := scanRow(row)
	if errors.Is(err, sentinel.ErrNotFound) {
		// Distinguish a missing booking from one in the wrong state.
		if _, getErr := s.Get(ctx, bookingID); getErr == nil {
			return booking.Booking{}, sentinel.ErrInvalidState
		}
		return booking.Booking{}, sentinel.ErrNotFound
	}
	return b, err
}

// NextWaitlisted implements booking.Store. FOR UPDATE SKIP LOCKED keeps two
// concurrent promotions from picking the same booking.
func (s *Store) NextWaitlisted(ctx context.Context, venueID id.VenueID) (booking.Booking, error) {
	row := s.execer(ctx).QueryRowContext(ctx, `
		SELECT id, venue_id, customer_id, party_size, starts_at, status, created_at, updated_at
		FROM bookings
		WHERE venue_id = $1 AND status = $2
		ORDER BY created_at
		LIMIT 1
		FOR UPDATE SKIP LOCKED
	`, uuid.UUID(venueID), string(booking.StatusWaitlisted))
	return scanRow(row)
}

// ListByVenue implements booking.Store.
func (s *Store) ListByVenue(ctx context.Context, venueID id.VenueID, limit int) ([]booking.Booking, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, `
		SELECT id, venue_id, customer_id, party_size, starts_at, status, created_at, updated_at
		FROM bookings
		WHERE venue_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, uuid.UUID(venueID), limit)
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	defer rows.Close()

	var out []booking.Booking
	for rows.Next() {
		b, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRow(sc scanner) (booking.Booking, error) {
	var (
		b       booking.Booking
		rowID   uuid.UUID
		venue   uuid.UUID
		cust    uuid.UUID
		rawStat string
	)
	if err := sc.Scan(&rowID, &venue, &cust, &b.PartySize, &b.StartsAt, &rawStat, &b.CreatedAt, &b.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return booking.Booking{}, sentinel.ErrNotFound
		}
		return booking.Booking{}, fmt.Errorf("scan booking: %w", err)
	}
	b.ID = id.BookingID(rowID)
	b.VenueID = id.VenueID(venue)
	b.CustomerID = id.UserID(cust)
	b.Status = booking.Status(rawStat)
	return b, nil
}
