// Package postgres persists pre-orders. Participants live in a uuid[]
// column and line items in jsonb; status transitions are guarded in the
// UPDATE's WHERE clause.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"vendora/internal/order"
	"vendora/pkg/domain"
	"vendora/pkg/platform/sentinel"
	txcontext "vendora/pkg/platform/tx"
)

// Store is the postgres order store.
type Store struct {
	db *sql.DB
}

// NewStore creates the store.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) execer(ctx context.Context) execer {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const orderColumns = "id, venue_id, customer_id, participants, items, status, created_at, updated_at"

// Create implements order.Store.
func (s *Store) Create(ctx context.Context, o order.Order) error {
	items, err := json.Marshal(o.Items)
	if err != nil {
		return fmt.Errorf("marshal line items: %w", err)
	}
	_, err = s.execer(ctx).ExecContext(ctx, `
		INSERT INTO orders (`+orderColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, uuid.UUID(o.ID), uuid.UUID(o.VenueID), uuid.UUID(o.CustomerID),
		pq.Array(participantUUIDs(o.Participants)), items, string(o.Status), o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

// Get implements order.Store.
func (s *Store) Get(ctx context.Context, orderID domain.OrderID) (order.Order, error) {
	row := s.execer(ctx).QueryRowContext(ctx,
		`SELECT `+orderColumns+` FROM orders WHERE id = $1`, uuid.UUID(orderID))
	return scanOrder(row)
}

// SetStatus implements order.Store.
func (s *Store) SetStatus(ctx context.Context, orderID domain.OrderID, allowed []order.Status, to order.Status) (order.Order, error) {
	row := s.execer(ctx).QueryRowContext(ctx, `
		UPDATE orders
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status = ANY($4)
		RETURNING `+orderColumns+`
	`, string(to), time.Now(), uuid.UUID(orderID), pq.Array(statusStrings(allowed)))
	return s.resolveConditional(ctx, orderID, row)
}

// ReplaceItems implements order.Store.
func (s *Store) ReplaceItems(ctx context.Context, orderID domain.OrderID, allowed []order.Status, items []order.LineItem) (order.Order, error) {
	encoded, err := json.Marshal(items)
	if err != nil {
		return order.Order{}, fmt.Errorf("marshal line items: %w", err)
	}
	row := s.execer(ctx).QueryRowContext(ctx, `
		UPDATE orders
		SET items = $1, status = $2, updated_at = $3
		WHERE id = $4 AND status = ANY($5)
		RETURNING `+orderColumns+`
	`, encoded, string(order.StatusAmended), time.Now(), uuid.UUID(orderID), pq.Array(statusStrings(allowed)))
	return s.resolveConditional(ctx, orderID, row)
}

// resolveConditional turns a no-row result into ErrInvalidState when the
// order exists but was in a disallowed status.
func (s *Store) resolveConditional(ctx context.Context, orderID domain.OrderID, row *sql.Row) (order.Order, error) {
	o, err := scanOrder(row)
	if errors.Is(err, sentinel.ErrNotFound) {
		if _, getErr := s.Get(ctx, orderID); getErr == nil {
			return order.Order{}, sentinel.ErrInvalidState
		}
		return order.Order{}, sentinel.ErrNotFound
	}
	return o, err
}

func scanOrder(row *sql.Row) (order.Order, error) {
	var (
		o            order.Order
		rowID        uuid.UUID
		venue        uuid.UUID
		customer     uuid.UUID
		participants []uuid.UUID
		rawItems     []byte
		rawStatus    string
	)
	err := row.Scan(&rowID, &venue, &customer, pq.Array(&participants), &rawItems, &rawStatus, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return order.Order{}, sentinel.ErrNotFound
		}
		return order.Order{}, fmt.Errorf("scan order: %w", err)
	}
	if len(rawItems) > 0 {
		if err := json.Unmarshal(rawItems, &o.Items); err != nil {
			return order.Order{}, fmt.Errorf("unmarshal line items: %w", err)
		}
	}
	o.ID = domain.OrderID(rowID)
	o.VenueID = domain.VenueID(venue)
	o.CustomerID = domain.UserID(customer)
	o.Participants = make([]domain.UserID, len(participants))
	for i, p := range participants {
		o.Participants[i] = domain.UserID(p)
	}
	o.Status = order.Status(rawStatus)
	return o, nil
}

func participantUUIDs(participants []domain.UserID) []uuid.UUID {
	out := make([]uuid.UUID, len(participants))
	for i, p := range participants {
		out[i] = uuid.UUID(p)
	}
	return out
}

func statusStrings(statuses []order.Status) []string {
	out := make([]string, len(statuses))
	for i, status := range statuses {
		out[i] = string(status)
	}
	return out
}
