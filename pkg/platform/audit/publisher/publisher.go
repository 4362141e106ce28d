// Package publisher provides the fail-closed audit sink for the side-effect
// fan-out.
//
// Writes are synchronous: the caller blocks until the event is persisted.
// If persistence fails an error is returned and the calling request MUST
// fail, even when the domain write already committed. Compliance logging is
// the one side effect that is never best-effort.
package publisher

import (
	"context"
	"fmt"
	"log/slog"

	"vendora/pkg/platform/audit"
	"vendora/pkg/platform/orchestrator"
	"vendora/pkg/requestcontext"
)

// Publisher converts fan-out audit records into audit events and persists
// them through the store. It implements orchestrator.AuditSink.
type Publisher struct {
	store  audit.Store
	logger *slog.Logger
}

// New creates a fail-closed audit publisher. The store should be
// outbox-backed in production for guaranteed delivery.
func New(store audit.Store, logger *slog.Logger) *Publisher {
	return &Publisher{store: store, logger: logger}
}

// LogAction synchronously writes an audit event. Returns an error if
// persistence fails - the caller must fail its request.
func (p *Publisher) LogAction(ctx context.Context, rec orchestrator.AuditRecord) error {
	if rec.Action == "" {
		return fmt.Errorf("audit record requires an action")
	}

	event := audit.Event{
		Timestamp: rec.Timestamp,
		ActorID:   rec.ActorID,
		Role:      rec.Role,
		Action:    rec.Action,
		Subject:   rec.Subject,
		Details:   rec.Details,
		IPAddress: rec.IPAddress,
		RequestID: rec.RequestID,
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = requestcontext.Now(ctx)
	}
	if event.IPAddress == "" {
		event.IPAddress = requestcontext.ClientIP(ctx)
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if device := requestcontext.Device(ctx); device.Platform != "" {
		event.Device = device.Platform + "/" + device.Browser
	}

	if err := p.store.Append(ctx, event); err != nil {
		p.logger.ErrorContext(ctx, "audit append failed",
			"action", event.Action,
			"request_id", event.RequestID,
			"error", err,
		)
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}
