// Package relay moves audit events from the transactional outbox to Kafka.
package relay

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Producer is the slice of the Kafka producer the relay needs.
type Producer interface {
	Produce(ctx context.Context, topic string, key, value []byte) error
}

// Recorder counts published entries and failures.
// internal/platform/metrics implements it; nil disables recording.
type Recorder interface {
	OutboxRelayed(outcome string)
}

type nopRecorder struct{}

func (nopRecorder) OutboxRelayed(string) {}

// Relay polls the outbox table and publishes unpublished entries in
// creation order. Rows are claimed with FOR UPDATE SKIP LOCKED so multiple
// relay instances never double-publish within one claim window; the
// consumer side is idempotent regardless.
type Relay struct {
	db       *sql.DB
	producer Producer
	topic    string
	logger   *slog.Logger
	metrics  Recorder
	interval time.Duration
	batch    int
}

// New builds a relay. A zero interval defaults to one second; metrics may
// be nil.
func New(db *sql.DB, producer Producer, topic string, logger *slog.Logger, metrics Recorder, interval time.Duration) *Relay {
	if interval <= 0 {
		interval = time.Second
	}
	if metrics == nil {
		metrics = nopRecorder{}
	}
	return &Relay{
		db:       db,
		producer: producer,
		topic:    topic,
		logger:   logger,
		metrics:  metrics,
		interval: interval,
		batch:    100,
	}
}

// Run polls until the context is cancelled.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := r.drainOnce(ctx); err != nil {
				r.metrics.OutboxRelayed("error")
				r.logger.ErrorContext(ctx, "outbox drain failed", "error", err)
			}
		}
	}
}

func (r *Relay) drainOnce(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin outbox tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	rows, err := tx.QueryContext(ctx, `
		SELECT id, payload
		FROM outbox
		WHERE published_at IS NULL
		ORDER BY created_at
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`, r.batch)
	if err != nil {
		return fmt.Errorf("claim outbox rows: %w", err)
	}

	type entry struct {
		id      uuid.UUID
		payload []byte
	}
	var entries []entry
	for rows.Next() {
		var e entry
		if err := rows.Scan(&e.id, &e.payload); err != nil {
			rows.Close()
			return fmt.Errorf("scan outbox row: %w", err)
		}
		entries = append(entries, e)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate outbox rows: %w", err)
	}
	if len(entries) == 0 {
		return nil
	}

	for _, e := range entries {
		if err := r.producer.Produce(ctx, r.topic, []byte(e.id.String()), e.payload); err != nil {
			// Leave the row unpublished; it will be retried next tick.
			return fmt.Errorf("publish outbox entry %s: %w", e.id, err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE outbox SET published_at = $1 WHERE id = $2`,
			time.Now(), e.id,
		); err != nil {
			return fmt.Errorf("mark outbox entry published: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit outbox batch: %w", err)
	}
	for range entries {
		r.metrics.OutboxRelayed("ok")
	}
	r.logger.DebugContext(ctx, "outbox batch published", "count", len(entries))
	return nil
}
