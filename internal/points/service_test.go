package points_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vendora/internal/points"
	"vendora/internal/points/store/memory"
	id "vendora/pkg/domain"
	"vendora/pkg/platform/orchestrator"
)

func newService() *points.Service {
	return points.NewService(memory.NewStore(), slog.New(slog.DiscardHandler))
}

func TestAwardPoints_UsesDefaultValueForKnownAction(t *testing.T) {
	svc := newService()
	user := id.NewUserID()

	record, err := svc.AwardPoints(context.Background(), orchestrator.PointsAward{
		UserID: user,
		Action: "booking_completed",
	})

	require.NoError(t, err)
	assert.Equal(t, 50, record.Points)
	assert.Equal(t, 50, record.Total)
}

func TestAwardPoints_ExplicitValueOverridesDefault(t *testing.T) {
	svc := newService()
	user := id.NewUserID()

	record, err := svc.AwardPoints(context.Background(), orchestrator.PointsAward{
		UserID: user,
		Action: "booking_completed",
		Points: 5,
	})

	require.NoError(t, err)
	assert.Equal(t, 5, record.Points)
}

func TestAwardPoints_AccumulatesTotalAcrossAwards(t *testing.T) {
	svc := newService()
	user := id.NewUserID()
	ctx := context.Background()

	_, err := svc.AwardPoints(ctx, orchestrator.PointsAward{UserID: user, Action: "order_placed"})
	require.NoError(t, err)
	record, err := svc.AwardPoints(ctx, orchestrator.PointsAward{UserID: user, Action: "order_settled"})
	require.NoError(t, err)

	assert.Equal(t, 50, record.Total)

	total, err := svc.Balance(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, 50, total)
}

func TestAwardPoints_RejectsUnknownActionWithoutValue(t *testing.T) {
	svc := newService()

	_, err := svc.AwardPoints(context.Background(), orchestrator.PointsAward{
		UserID: id.NewUserID(),
		Action: "mystery_action",
	})

	assert.Error(t, err)
}

func TestAwardPoints_RejectsMissingUser(t *testing.T) {
	svc := newService()

	_, err := svc.AwardPoints(context.Background(), orchestrator.PointsAward{
		Action: "order_placed",
	})

	assert.Error(t, err)
}

func TestHistory_NewestFirst(t *testing.T) {
	svc := newService()
	user := id.NewUserID()
	ctx := context.Background()

	_, err := svc.AwardPoints(ctx, orchestrator.PointsAward{UserID: user, Action: "waitlist_joined"})
	require.NoError(t, err)
	_, err = svc.AwardPoints(ctx, orchestrator.PointsAward{UserID: user, Action: "booking_confirmed"})
	require.NoError(t, err)

	history, err := svc.History(ctx, user, 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "booking_confirmed", history[0].Action)
	assert.Equal(t, "waitlist_joined", history[1].Action)
}
