package consumer

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	kafkaconsumer "vendora/internal/platform/kafka/consumer"
	id "vendora/pkg/domain"
	"vendora/pkg/platform/audit"
	auditpg "vendora/pkg/platform/audit/store/postgres"
)

// MaterializeHandler consumes audit events from Kafka and writes them into
// the audit_events table for querying. Inserts are idempotent, so
// redelivery after a crash is harmless.
type MaterializeHandler struct {
	store  *auditpg.Store
	logger *slog.Logger
}

// NewMaterializeHandler creates the audit materialization handler.
func NewMaterializeHandler(store *auditpg.Store, logger *slog.Logger) *MaterializeHandler {
	return &MaterializeHandler{store: store, logger: logger}
}

// Handle processes one audit event record.
func (h *MaterializeHandler) Handle(ctx context.Context, msg *kafkaconsumer.Message) error {
	eventID, err := uuid.Parse(string(msg.Key))
	if err != nil {
		// Malformed messages must not block the partition; log and commit.
		h.logger.Error("failed to parse audit event ID, skipping",
			"key", string(msg.Key),
			"error", err,
		)
		return nil
	}

	var payload auditpg.Payload
	if err := json.Unmarshal(msg.Value, &payload); err != nil {
		h.logger.Error("failed to unmarshal audit payload, skipping",
			"event_id", eventID,
			"error", err,
		)
		return nil
	}

	event := audit.Event{
		Role:      payload.Role,
		Action:    payload.Action,
		Subject:   payload.Subject,
		Details:   payload.Details,
		IPAddress: payload.IPAddress,
		Device:    payload.Device,
		RequestID: payload.RequestID,
	}
	if payload.Timestamp != "" {
		if ts, err := time.Parse(time.RFC3339Nano, payload.Timestamp); err == nil {
			event.Timestamp = ts
		}
	}
	if payload.ActorID != "" {
		if actorID, err := id.ParseUserID(payload.ActorID); err == nil {
			event.ActorID = actorID
		}
	}

	if err := h.store.AppendWithID(ctx, eventID, event); err != nil {
		// Returning the error leaves the record uncommitted for redelivery.
		return err
	}
	return nil
}
