// Package postgres implements audit.Store using the transactional outbox
// pattern. Events are written to the outbox table and published to Kafka by
// the outbox relay; Kafka is the source of truth for audit events. The
// consumer materializes them into audit_events for querying.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	id "vendora/pkg/domain"
	"vendora/pkg/platform/audit"
	txcontext "vendora/pkg/platform/tx"
)

// Store writes audit events to the outbox and reads materialized events.
type Store struct {
	db *sql.DB
}

// New creates a PostgreSQL audit store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// execer joins an in-flight transaction when one is carried in the context.
// The normative policy is commit-before-fan-out, so audit writes usually run
// outside the unit of work; callers that deliberately need the audit write
// in the same transaction get it for free through tx-in-context.
func (s *Store) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

// Payload is the JSON structure published to Kafka. Field names match
// audit.Event for deserialization by the consumer.
type Payload struct {
	ID        string            `json:"ID"`
	Category  string            `json:"Category"`
	Timestamp string            `json:"Timestamp"`
	ActorID   string            `json:"ActorID,omitempty"`
	Role      string            `json:"Role,omitempty"`
	Action    string            `json:"Action"`
	Subject   string            `json:"Subject,omitempty"`
	Details   map[string]string `json:"Details,omitempty"`
	IPAddress string            `json:"IPAddress,omitempty"`
	Device    string            `json:"Device,omitempty"`
	RequestID string            `json:"RequestID,omitempty"`
}

// Append writes an audit event to the outbox table for Kafka publishing.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	eventID := uuid.New()

	// Category is always derived from the action; the actionCategories map
	// is the source of truth.
	category := audit.Action(event.Action).Category()

	payload := Payload{
		ID:        eventID.String(),
		Category:  string(category),
		Timestamp: event.Timestamp.Format(time.RFC3339Nano),
		Role:      event.Role,
		Action:    event.Action,
		Subject:   event.Subject,
		Details:   event.Details,
		IPAddress: event.IPAddress,
		Device:    event.Device,
		RequestID: event.RequestID,
	}
	if !event.ActorID.IsNil() {
		payload.ActorID = event.ActorID.String()
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	aggregateType := "audit"
	aggregateID := eventID.String()
	if !event.ActorID.IsNil() {
		aggregateType = "actor"
		aggregateID = event.ActorID.String()
	}

	query := `
		INSERT INTO outbox (id, aggregate_type, aggregate_id, event_type, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err = s.execer(ctx).ExecContext(ctx, query,
		eventID,
		aggregateType,
		aggregateID,
		event.Action,
		payloadBytes,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}
	return nil
}

// AppendWithID inserts an audit event into the audit_events table with a
// specific ID. Used by the Kafka consumer to materialize events for
// querying. Idempotent: duplicate inserts are ignored via ON CONFLICT.
func (s *Store) AppendWithID(ctx context.Context, eventID uuid.UUID, event audit.Event) error {
	detailsBytes, err := json.Marshal(event.Details)
	if err != nil {
		return fmt.Errorf("marshal audit details: %w", err)
	}

	query := `
		INSERT INTO audit_events (
			id, category, timestamp, actor_id, role, action,
			subject, details, ip_address, device, request_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO NOTHING
	`

	var actorID *uuid.UUID
	if !event.ActorID.IsNil() {
		aid := uuid.UUID(event.ActorID)
		actorID = &aid
	}

	_, err = s.db.ExecContext(ctx, query,
		eventID,
		string(audit.Action(event.Action).Category()),
		event.Timestamp,
		actorID,
		event.Role,
		event.Action,
		event.Subject,
		detailsBytes,
		event.IPAddress,
		event.Device,
		event.RequestID,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

// ListByActor returns materialized events for a specific actor.
func (s *Store) ListByActor(ctx context.Context, actorID id.UserID) ([]audit.Event, error) {
	query := `
		SELECT timestamp, actor_id, role, action, subject, details,
		       ip_address, device, request_id
		FROM audit_events
		WHERE actor_id = $1
		ORDER BY timestamp DESC
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(actorID))
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

// ListRecent returns the N most recent materialized events.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]audit.Event, error) {
	query := `
		SELECT timestamp, actor_id, role, action, subject, details,
		       ip_address, device, request_id
		FROM audit_events
		ORDER BY timestamp DESC
		LIMIT $1
	`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	defer rows.Close()

	return scanEvents(rows)
}

func scanEvents(rows *sql.Rows) ([]audit.Event, error) {
	var events []audit.Event
	for rows.Next() {
		var (
			event        audit.Event
			actorID      sql.Null[uuid.UUID]
			detailsBytes []byte
		)
		err := rows.Scan(
			&event.Timestamp,
			&actorID,
			&event.Role,
			&event.Action,
			&event.Subject,
			&detailsBytes,
			&event.IPAddress,
			&event.Device,
			&event.RequestID,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		if actorID.Valid {
			event.ActorID = id.UserID(actorID.V)
		}
		if len(detailsBytes) > 0 {
			if err := json.Unmarshal(detailsBytes, &event.Details); err != nil {
				return nil, fmt.Errorf("unmarshal audit details: %w", err)
			}
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}
