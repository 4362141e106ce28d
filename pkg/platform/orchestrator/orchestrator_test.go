package orchestrator

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "vendora/pkg/domain"
	dErrors "vendora/pkg/domain-errors"
	"vendora/pkg/platform/sentinel"
)

// seqRecorder captures the observed order of transaction and collaborator
// calls so tests can assert commit-before-fan-out and descriptor ordering.
type seqRecorder struct {
	mu     sync.Mutex
	events []string
}

func (r *seqRecorder) add(event string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *seqRecorder) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

type recordingUoW struct {
	rec *seqRecorder
}

func (u *recordingUoW) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	u.rec.add("begin")
	if err := fn(ctx); err != nil {
		u.rec.add("rollback")
		return err
	}
	u.rec.add("commit")
	return nil
}

type fakeAudit struct {
	rec *seqRecorder
	err error
}

func (a *fakeAudit) LogAction(ctx context.Context, rec AuditRecord) error {
	a.rec.add("audit:" + rec.Action)
	return a.err
}

type fakeNotifier struct {
	rec *seqRecorder
	err error
}

func (n *fakeNotifier) SendNotification(ctx context.Context, notif Notification) error {
	n.rec.add("notify:" + notif.MessageKey)
	return n.err
}

type fakeBroadcaster struct {
	rec *seqRecorder
	err error
}

func (b *fakeBroadcaster) Emit(ctx context.Context, channel, event string, payload any) error {
	b.rec.add("broadcast:" + event)
	return b.err
}

type fakePoints struct {
	rec *seqRecorder
	err error
}

func (p *fakePoints) AwardPoints(ctx context.Context, award PointsAward) (*PointsRecord, error) {
	p.rec.add("points:" + award.Action)
	if p.err != nil {
		return nil, p.err
	}
	return &PointsRecord{UserID: award.UserID, Action: award.Action, Points: award.Points, Total: award.Points}, nil
}

type harness struct {
	rec         *seqRecorder
	audit       *fakeAudit
	notifier    *fakeNotifier
	broadcaster *fakeBroadcaster
	points      *fakePoints
	orch        *Orchestrator
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	rec := &seqRecorder{}
	h := &harness{
		rec:         rec,
		audit:       &fakeAudit{rec: rec},
		notifier:    &fakeNotifier{rec: rec},
		broadcaster: &fakeBroadcaster{rec: rec},
		points:      &fakePoints{rec: rec},
	}
	logger := slog.New(slog.DiscardHandler)
	fanout := NewFanout(Collaborators{
		Audit:       h.audit,
		Notifier:    h.notifier,
		Broadcaster: h.broadcaster,
		Points:      h.points,
	}, logger, nil)
	h.orch = New(&recordingUoW{rec: rec}, fanout, logger, nil)
	return h
}

func fullEffectOp(actor id.UserID) Operation {
	return OperationFunc{
		OpName: "booking.check_in",
		Fn: func(ctx context.Context) (*Result, error) {
			return &Result{
				Entity: "checked_in",
				Effects: []Descriptor{
					// Deliberately out of order; the fan-out must reorder.
					PointsEffect(PointsAward{UserID: actor, Action: "booking_checked_in", Points: 10}),
					BroadcastEffect(BroadcastEvent{Channel: "venue:1", Event: "booking.checked_in"}),
					NotifyEffect(Notification{UserID: actor, MessageKey: "booking_checked_in"}),
					AuditEffect(AuditRecord{Action: "booking_checked_in", ActorID: actor}),
				},
			}, nil
		},
	}
}

func TestRun_CommitsOnceBeforeAnySideEffect(t *testing.T) {
	h := newHarness(t)
	actor := id.NewUserID()

	outcome, err := h.orch.Run(context.Background(), fullEffectOp(actor))
	require.NoError(t, err)
	assert.Equal(t, StateDone, outcome.State)

	events := h.rec.all()
	require.Equal(t, []string{
		"begin",
		"commit",
		"audit:booking_checked_in",
		"notify:booking_checked_in",
		"broadcast:booking.checked_in",
		"points:booking_checked_in",
	}, events)
}

func TestRun_OperationFailureRollsBackWithoutSideEffects(t *testing.T) {
	tests := []struct {
		name     string
		opErr    error
		wantCode dErrors.Code
	}{
		{"not found", sentinel.ErrNotFound, dErrors.CodeNotFound},
		{"invalid state", sentinel.ErrInvalidState, dErrors.CodeInvalidState},
		{"insufficient funds", sentinel.ErrInsufficientFunds, dErrors.CodeInsufficientFunds},
		{"coded error passes through", dErrors.New(dErrors.CodeValidation, "bad"), dErrors.CodeValidation},
		{"unknown error becomes persistence", errors.New("disk on fire"), dErrors.CodePersistence},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			op := OperationFunc{
				OpName: "booking.check_in",
				Fn: func(ctx context.Context) (*Result, error) {
					return nil, tt.opErr
				},
			}

			outcome, err := h.orch.Run(context.Background(), op)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, tt.wantCode), "got %v", err)
			assert.Equal(t, StateFailed, outcome.State)
			assert.Equal(t, []string{"begin", "rollback"}, h.rec.all())
		})
	}
}

func TestRun_PointsFailureIsSoftAndDoesNotBlockOthers(t *testing.T) {
	h := newHarness(t)
	h.points.err = errors.New("points service down")
	actor := id.NewUserID()

	outcome, err := h.orch.Run(context.Background(), fullEffectOp(actor))
	require.NoError(t, err)
	assert.Equal(t, StateDone, outcome.State)
	assert.Equal(t, "checked_in", outcome.Entity)
	assert.Contains(t, outcome.Report.GamificationError, "booking_checked_in")

	events := h.rec.all()
	assert.Contains(t, events, "notify:booking_checked_in")
	assert.Contains(t, events, "broadcast:booking.checked_in")
	assert.Contains(t, events, "commit")
	assert.NotContains(t, events, "rollback")
}

func TestRun_NotifyAndBroadcastFailuresAreWarnings(t *testing.T) {
	h := newHarness(t)
	h.notifier.err = errors.New("smtp timeout")
	h.broadcaster.err = errors.New("redis gone")
	actor := id.NewUserID()

	outcome, err := h.orch.Run(context.Background(), fullEffectOp(actor))
	require.NoError(t, err)
	assert.Equal(t, StateDone, outcome.State)
	assert.Len(t, outcome.Report.Warnings, 2)
	assert.Empty(t, outcome.Report.GamificationError)
	// Points still ran after the earlier failures.
	assert.Contains(t, h.rec.all(), "points:booking_checked_in")
}

func TestRun_AuditFailureEscalatesAfterCommit(t *testing.T) {
	h := newHarness(t)
	h.audit.err = errors.New("outbox table missing")
	actor := id.NewUserID()

	outcome, err := h.orch.Run(context.Background(), fullEffectOp(actor))
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeAuditFailure))
	// The domain write committed and the snapshot is still available.
	assert.Equal(t, "checked_in", outcome.Entity)

	events := h.rec.all()
	assert.Contains(t, events, "commit")
	assert.NotContains(t, events, "rollback")
	// Nothing after the failed audit descriptor ran.
	assert.NotContains(t, events, "notify:booking_checked_in")
}

func TestRun_UnrecognizedEffectKindSurfacesAsWarning(t *testing.T) {
	h := newHarness(t)
	actor := id.NewUserID()
	op := OperationFunc{
		OpName: "booking.check_in",
		Fn: func(ctx context.Context) (*Result, error) {
			return &Result{
				Entity: "checked_in",
				Effects: []Descriptor{
					AuditEffect(AuditRecord{Action: "booking_checked_in", ActorID: actor}),
					{Kind: Kind("email")},
				},
			}, nil
		},
	}

	outcome, err := h.orch.Run(context.Background(), op)
	require.NoError(t, err)
	assert.Contains(t, outcome.Report.Warnings, "unknown side-effect kind: email")
	// The recognized descriptor still ran.
	assert.Contains(t, h.rec.all(), "audit:booking_checked_in")
}

func TestRun_CancellationAfterCommitAbandonsFanOut(t *testing.T) {
	h := newHarness(t)
	actor := id.NewUserID()

	ctx, cancel := context.WithCancel(context.Background())
	op := OperationFunc{
		OpName: "booking.check_in",
		Fn: func(opCtx context.Context) (*Result, error) {
			// Simulate the client disconnecting while the write is in
			// flight; the commit has not happened yet, but by the time the
			// fan-out starts the context is gone.
			cancel()
			return &Result{
				Entity:  "checked_in",
				Effects: fullEffectOp(actor).(OperationFunc).mustResult().Effects,
			}, nil
		},
	}

	outcome, err := h.orch.Run(ctx, op)
	require.NoError(t, err)
	assert.True(t, outcome.Report.Incomplete)
	assert.Equal(t, "checked_in", outcome.Entity)
	assert.Contains(t, h.rec.all(), "commit")
}

// mustResult lets tests reuse the canonical effect set of an OperationFunc.
func (o OperationFunc) mustResult() *Result {
	res, err := o.Fn(context.Background())
	if err != nil {
		panic(err)
	}
	return res
}

func TestMemoryUnitOfWork_RejectsCancelledContext(t *testing.T) {
	uow := NewMemoryUnitOfWork()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := uow.RunInTx(ctx, func(ctx context.Context) error { return nil })
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeTimeout))
}

func TestMemoryUnitOfWork_RunsCallback(t *testing.T) {
	uow := NewMemoryUnitOfWork()
	ran := false
	err := uow.RunInTx(context.Background(), func(ctx context.Context) error {
		ran = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)
}
