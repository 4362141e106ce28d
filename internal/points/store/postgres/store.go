// Package postgres persists the points ledger.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"vendora/internal/points"
	id "vendora/pkg/domain"
	txcontext "vendora/pkg/platform/tx"
)

// Store writes ledger rows through the transaction in context when one is
// present, so awards issued outside the unit of work still persist.
type Store struct {
	db *sql.DB
}

// NewStore creates the postgres-backed ledger.
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

// Append implements points.Store. The insert and the total read run as one
// statement so concurrent awards never report a stale total.
func (s *Store) Append(ctx context.Context, entry points.Entry) (int, error) {
	meta, err := json.Marshal(entry.Metadata)
	if err != nil {
		return 0, fmt.Errorf("marshal metadata: %w", err)
	}

	var total int
	err = s.execer(ctx).QueryRowContext(ctx, `
		WITH inserted AS (
			INSERT INTO points_ledger (id, user_id, action, points, metadata, awarded_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING user_id, points
		)
		SELECT COALESCE(SUM(points), 0) + (SELECT points FROM inserted)
		FROM points_ledger
		WHERE user_id = $2
	`, uuid.New(), uuid.UUID(entry.UserID), entry.Action, entry.Points, meta, entry.AwardedAt).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("insert points entry: %w", err)
	}
	return total, nil
}

// TotalFor implements points.Store.
func (s *Store) TotalFor(ctx context.Context, userID id.UserID) (int, error) {
	var total int
	err := s.execer(ctx).QueryRowContext(ctx,
		`SELECT COALESCE(SUM(points), 0) FROM points_ledger WHERE user_id = $1`,
		uuid.UUID(userID),
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("sum points: %w", err)
	}
	return total, nil
}

// ListByUser implements points.Store.
func (s *Store) ListByUser(ctx context.Context, userID id.UserID, limit int) ([]points.Entry, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, `
		SELECT id, user_id, action, points, metadata, awarded_at
		FROM points_ledger
		WHERE user_id = $1
		ORDER BY awarded_at DESC
		LIMIT $2
	`, uuid.UUID(userID), limit)
	if err != nil {
		return nil, fmt.Errorf("list points entries: %w", err)
	}
	defer rows.Close()

	var out []points.Entry
	for rows.Next() {
		var (
			entry   points.Entry
			rowID   uuid.UUID
			user    uuid.UUID
			rawMeta []byte
		)
		if err := rows.Scan(&rowID, &user, &entry.Action, &entry.Points, &rawMeta, &entry.AwardedAt); err != nil {
			return nil, fmt.Errorf("scan points entry: %w", err)
		}
		entry.ID = rowID
		entry.UserID = id.UserID(user)
		if len(rawMeta) > 0 {
			if err := json.Unmarshal(rawMeta, &entry.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshal metadata: %w", err)
			}
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}
