package orchestrator

import (
	"context"
	"fmt"
	"log/slog"

	dErrors "vendora/pkg/domain-errors"
)

// AuditSink records compliance-relevant actions. Failure is fatal to the
// calling request even after the domain write committed.
type AuditSink interface {
	LogAction(ctx context.Context, rec AuditRecord) error
}

// Notifier delivers user notifications. Failures are logged and swallowed.
type Notifier interface {
	SendNotification(ctx context.Context, n Notification) error
}

// Broadcaster emits realtime events. Fire-and-forget; failures are logged
// and swallowed.
type Broadcaster interface {
	Emit(ctx context.Context, channel, event string, payload any) error
}

// PointsAwarder records gamification point awards. Failures are captured
// and surfaced to the caller as a non-fatal warning.
type PointsAwarder interface {
	AwardPoints(ctx context.Context, award PointsAward) (*PointsRecord, error)
}

// Collaborators bundles the four fan-out targets. Audit is required; the
// others may be nil, in which case their descriptors are skipped with a
// warning.
type Collaborators struct {
	Audit       AuditSink
	Notifier    Notifier
	Broadcaster Broadcaster
	Points      PointsAwarder
}

// Report summarizes the fan-out of one orchestrated call. It travels back
// to the transport layer so best-effort failures surface as response
// metadata, never as a request failure.
type Report struct {
	// GamificationError is set when a point award failed. The committed
	// domain write stands; callers render this as a soft warning.
	GamificationError string
	// Warnings lists non-fatal notify/broadcast failures and skipped
	// descriptors.
	Warnings []string
	// Points holds the ledger entries for successful awards.
	Points []PointsRecord
	// Incomplete is set when cancellation abandoned outstanding fan-out
	// work after commit. Abandoned effects are never retried.
	Incomplete bool
}

// Fanout applies side-effect descriptors against their collaborators in the
// fixed order audit, notify, broadcast, points. Each descriptor is handled
// independently: a failure in one never blocks the others or the committed
// write. Only audit failure escalates.
type Fanout struct {
	collab  Collaborators
	logger  *slog.Logger
	metrics Recorder
}

// NewFanout builds a fan-out runner. metrics may be nil.
func NewFanout(collab Collaborators, logger *slog.Logger, metrics Recorder) *Fanout {
	if metrics == nil {
		metrics = nopRecorder{}
	}
	return &Fanout{collab: collab, logger: logger, metrics: metrics}
}

// Apply executes the descriptors. The returned error is non-nil only when
// an audit write failed (fail-closed compliance logging). All other
// failures are folded into the Report.
func (f *Fanout) Apply(ctx context.Context, descriptors []Descriptor) (Report, error) {
	var report Report

	for _, desc := range descriptors {
		if !knownKind(desc.Kind) {
			f.logger.WarnContext(ctx, "unknown side-effect kind", "kind", string(desc.Kind))
			report.Warnings = append(report.Warnings, "unknown side-effect kind: "+string(desc.Kind))
		}
	}

	for _, kind := range applyOrder {
		for _, desc := range descriptors {
			if desc.Kind != kind {
				continue
			}
			if err := ctx.Err(); err != nil {
				f.logger.WarnContext(ctx, "fan-out incomplete",
					"abandoned_kind", string(desc.Kind),
					"error", err,
				)
				report.Incomplete = true
				report.Warnings = append(report.Warnings, "fan-out incomplete: "+err.Error())
				return report, nil
			}
			if err := f.applyOne(ctx, desc, &report); err != nil {
				return report, err
			}
		}
	}
	return report, nil
}

func (f *Fanout) applyOne(ctx context.Context, desc Descriptor, report *Report) error {
	switch desc.Kind {
	case KindAudit:
		if f.collab.Audit == nil {
			return dErrors.New(dErrors.CodeAuditFailure, "no audit sink configured")
		}
		if err := f.collab.Audit.LogAction(ctx, *desc.Audit); err != nil {
			f.metrics.SideEffectApplied(string(KindAudit), "error")
			return dErrors.Wrap(err, dErrors.CodeAuditFailure, "audit log write failed")
		}
		f.metrics.SideEffectApplied(string(KindAudit), "ok")

	case KindNotify:
		if f.collab.Notifier == nil {
			report.Warnings = append(report.Warnings, "notification skipped: no notifier configured")
			return nil
		}
		if err := f.collab.Notifier.SendNotification(ctx, *desc.Notify); err != nil {
			f.logger.WarnContext(ctx, "notification dispatch failed",
				"user_id", desc.Notify.UserID.String(),
				"message_key", desc.Notify.MessageKey,
				"error", err,
			)
			f.metrics.SideEffectApplied(string(KindNotify), "error")
			report.Warnings = append(report.Warnings, "notification failed: "+desc.Notify.MessageKey)
			return nil
		}
		f.metrics.SideEffectApplied(string(KindNotify), "ok")

	case KindBroadcast:
		if f.collab.Broadcaster == nil {
			report.Warnings = append(report.Warnings, "broadcast skipped: no broadcaster configured")
			return nil
		}
		if err := f.collab.Broadcaster.Emit(ctx, desc.Broadcast.Channel, desc.Broadcast.Event, desc.Broadcast.Payload); err != nil {
			f.logger.WarnContext(ctx, "broadcast emit failed",
				"channel", desc.Broadcast.Channel,
				"event", desc.Broadcast.Event,
				"error", err,
			)
			f.metrics.SideEffectApplied(string(KindBroadcast), "error")
			report.Warnings = append(report.Warnings, "broadcast failed: "+desc.Broadcast.Event)
			return nil
		}
		f.metrics.SideEffectApplied(string(KindBroadcast), "ok")

	case KindPoints:
		if f.collab.Points == nil {
			report.Warnings = append(report.Warnings, "points skipped: no points service configured")
			return nil
		}
		record, err := f.collab.Points.AwardPoints(ctx, *desc.Points)
		if err != nil {
			f.logger.WarnContext(ctx, "point award failed",
				"user_id", desc.Points.UserID.String(),
				"action", desc.Points.Action,
				"error", err,
			)
			f.metrics.SideEffectApplied(string(KindPoints), "error")
			report.GamificationError = fmt.Sprintf("failed to award points for %s: %v", desc.Points.Action, err)
			return nil
		}
		f.metrics.SideEffectApplied(string(KindPoints), "ok")
		report.Points = append(report.Points, *record)
	}
	return nil
}

func knownKind(k Kind) bool {
	for _, kind := range applyOrder {
		if kind == k {
			return true
		}
	}
	return false
}
