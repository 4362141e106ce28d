// Package orchestrator implements the transactional side-effect pattern
// every write endpoint follows: one domain operation runs inside one unit
// of work; on commit, declarative side effects fan out to the audit,
// notification, broadcast, and points collaborators in a fixed order with
// per-kind failure policy.
//
// The normative ordering is commit-before-fan-out: the database mutation
// commits first and side effects are best-effort afterward. Once committed,
// a write never appears failed to the caller because of fan-out trouble,
// with the single exception of audit writes, which stay fail-closed.
package orchestrator

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	otelcodes "go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	dErrors "vendora/pkg/domain-errors"
	"vendora/pkg/platform/sentinel"
	"vendora/pkg/requestcontext"
)

// State tracks one orchestrated call through its lifecycle. There is no
// transition from StateCommitted or StateFanningOut back to StateRolledBack:
// once committed, the write stands regardless of fan-out outcome.
type State string

const (
	StateIdle       State = "idle"
	StateInProgress State = "in_progress"
	StateCommitted  State = "committed"
	StateFanningOut State = "fanning_out"
	StateDone       State = "done"
	StateRolledBack State = "rolled_back"
	StateFailed     State = "failed"
)

// Recorder receives orchestration metrics. internal/platform/metrics
// implements it; tests pass nil.
type Recorder interface {
	OperationFinished(operation, outcome string, elapsed time.Duration)
	SideEffectApplied(kind, outcome string)
}

type nopRecorder struct{}

func (nopRecorder) OperationFinished(string, string, time.Duration) {}
func (nopRecorder) SideEffectApplied(string, string)                {}

// Outcome is what one orchestrated call resolves to: the entity snapshot
// from the domain operation plus the fan-out report.
type Outcome struct {
	Entity any
	Report Report
	State  State
}

// Orchestrator binds a unit of work and a fan-out into the run-one-operation
// contract. It is safe for concurrent use; each Run call owns its own unit
// of work and state.
type Orchestrator struct {
	uow     UnitOfWork
	fanout  *Fanout
	logger  *slog.Logger
	metrics Recorder
	tracer  trace.Tracer
}

// New builds an orchestrator. metrics may be nil.
func New(uow UnitOfWork, fanout *Fanout, logger *slog.Logger, metrics Recorder) *Orchestrator {
	if metrics == nil {
		metrics = nopRecorder{}
	}
	return &Orchestrator{
		uow:     uow,
		fanout:  fanout,
		logger:  logger,
		metrics: metrics,
		tracer:  otel.Tracer("vendora/orchestrator"),
	}
}

// Run executes one domain operation inside a unit of work and, on commit,
// applies its side effects. On any operation error the unit of work rolls
// back and no side effect is attempted.
func (o *Orchestrator) Run(ctx context.Context, op Operation) (*Outcome, error) {
	start := time.Now()
	ctx, span := o.tracer.Start(ctx, "orchestrate."+op.Name(),
		trace.WithAttributes(attribute.String("operation", op.Name())),
	)
	defer span.End()

	state := StateInProgress
	var result *Result

	err := o.uow.RunInTx(ctx, func(txCtx context.Context) error {
		res, opErr := op.Execute(txCtx)
		if opErr != nil {
			return opErr
		}
		result = res
		return nil
	})
	if err != nil {
		state = StateFailed
		mapped := mapOperationError(err)
		span.SetStatus(otelcodes.Error, dErrors.MessageOf(mapped))
		o.metrics.OperationFinished(op.Name(), "error", time.Since(start))
		o.logger.WarnContext(ctx, "operation rolled back",
			"operation", op.Name(),
			"request_id", requestcontext.RequestID(ctx),
			"error", mapped,
		)
		return &Outcome{State: state}, mapped
	}

	state = StateCommitted
	span.AddEvent("committed")

	state = StateFanningOut
	report, auditErr := o.fanout.Apply(ctx, result.Effects)
	if auditErr != nil {
		// The domain write committed and stands. Audit failure is still
		// escalated to the caller as a request failure (fail-closed
		// compliance logging).
		span.SetStatus(otelcodes.Error, "audit failure after commit")
		o.metrics.OperationFinished(op.Name(), "audit_failure", time.Since(start))
		o.logger.ErrorContext(ctx, "audit write failed after commit",
			"operation", op.Name(),
			"request_id", requestcontext.RequestID(ctx),
			"error", auditErr,
		)
		return &Outcome{Entity: result.Entity, Report: report, State: StateFailed}, auditErr
	}

	state = StateDone
	span.SetStatus(otelcodes.Ok, "")
	o.metrics.OperationFinished(op.Name(), "ok", time.Since(start))
	if report.Incomplete {
		o.logger.WarnContext(ctx, "fan-out incomplete",
			"operation", op.Name(),
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	return &Outcome{Entity: result.Entity, Report: report, State: state}, nil
}

// mapOperationError translates store sentinels into coded domain errors.
// Coded errors pass through untouched; anything else is a persistence
// failure.
func mapOperationError(err error) error {
	var coded *dErrors.Error
	if errors.As(err, &coded) {
		return err
	}
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.Wrap(err, dErrors.CodeNotFound, "entity not found")
	case errors.Is(err, sentinel.ErrInvalidState):
		return dErrors.Wrap(err, dErrors.CodeInvalidState, "entity not in a state that permits this change")
	case errors.Is(err, sentinel.ErrInsufficientFunds):
		return dErrors.Wrap(err, dErrors.CodeInsufficientFunds, "balance cannot cover the requested amount")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, "write conflicted with a concurrent change")
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return dErrors.Wrap(err, dErrors.CodeTimeout, "operation cancelled")
	default:
		return dErrors.Wrap(err, dErrors.CodePersistence, "persistence failure")
	}
}
