package service_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vendora/internal/broadcast"
	"vendora/internal/notification"
	"vendora/internal/order"
	"vendora/internal/order/service"
	ordermemory "vendora/internal/order/store/memory"
	"vendora/internal/points"
	pointsmemory "vendora/internal/points/store/memory"
	"vendora/pkg/domain"
	dErrors "vendora/pkg/domain-errors"
	"vendora/pkg/platform/audit"
	"vendora/pkg/platform/audit/publisher"
	auditmemory "vendora/pkg/platform/audit/store/memory"
	"vendora/pkg/platform/orchestrator"
	"vendora/pkg/requestcontext"
)

type fixture struct {
	svc         *service.Service
	auditStore  *auditmemory.Store
	notifier    *notification.MemoryNotifier
	broadcaster *broadcast.MemoryBroadcaster
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	auditStore := auditmemory.New()
	notifier := notification.NewMemoryNotifier()
	broadcaster := broadcast.NewMemoryBroadcaster()

	fanout := orchestrator.NewFanout(orchestrator.Collaborators{
		Audit:       publisher.New(auditStore, logger),
		Notifier:    notifier,
		Broadcaster: broadcaster,
		Points:      points.NewService(pointsmemory.NewStore(), logger),
	}, logger, nil)
	orch := orchestrator.New(orchestrator.NewMemoryUnitOfWork(), fanout, logger, nil)

	return fixture{
		svc:         service.NewService(ordermemory.NewStore(), orch),
		auditStore:  auditStore,
		notifier:    notifier,
		broadcaster: broadcaster,
	}
}

func actorContext() context.Context {
	ctx := requestcontext.WithActorID(context.Background(), domain.NewUserID())
	return requestcontext.WithRole(ctx, "customer")
}

func placeRequest(participants ...domain.UserID) order.PlaceRequest {
	return order.PlaceRequest{
		VenueID:      domain.NewVenueID(),
		CustomerID:   domain.NewUserID(),
		Participants: participants,
		Items: []order.LineItem{
			{MenuItemID: "espresso", Name: "Espresso", Quantity: 2, PriceCents: 3_50},
			{MenuItemID: "croissant", Name: "Croissant", Quantity: 1, PriceCents: 4_25},
		},
	}
}

func TestPlace_CreatesPlacedOrderWithCustomerAsParticipant(t *testing.T) {
	f := newFixture(t)
	ctx := actorContext()

	out, err := f.svc.Place(ctx, placeRequest())

	require.NoError(t, err)
	assert.Equal(t, order.StatusPlaced, out.Order.Status)
	require.Len(t, out.Order.Participants, 1)
	assert.Equal(t, out.Order.CustomerID, out.Order.Participants[0])
	assert.Equal(t, domain.Cents(11_25), out.Order.Total())

	events, _ := f.auditStore.ListRecent(ctx, 10)
	require.Len(t, events, 1)
	assert.Equal(t, audit.ActionOrderPlaced, events[0].Action)
	require.Len(t, out.Report.Points, 1)
	assert.Equal(t, 20, out.Report.Points[0].Points)
}

func TestAmendMenuItem_NotifiesEveryParticipant(t *testing.T) {
	f := newFixture(t)
	ctx := actorContext()
	friend := domain.NewUserID()

	placed, err := f.svc.Place(ctx, placeRequest(friend))
	require.NoError(t, err)
	sentBefore := len(f.notifier.Sent())

	out, err := f.svc.AmendMenuItem(ctx, order.AmendRequest{
		OrderID:    placed.Order.ID,
		MenuItemID: "espresso",
		Quantity:   3,
	})

	require.NoError(t, err)
	assert.Equal(t, order.StatusAmended, out.Order.Status)
	assert.Equal(t, 3, out.Order.Items[0].Quantity)
	// Customer plus one friend.
	assert.Len(t, f.notifier.Sent(), sentBefore+2)
}

func TestAmendMenuItem_QuantityZeroRemovesItem(t *testing.T) {
	f := newFixture(t)
	ctx := actorContext()

	placed, err := f.svc.Place(ctx, placeRequest())
	require.NoError(t, err)

	out, err := f.svc.AmendMenuItem(ctx, order.AmendRequest{
		OrderID:    placed.Order.ID,
		MenuItemID: "croissant",
		Quantity:   0,
	})

	require.NoError(t, err)
	require.Len(t, out.Order.Items, 1)
	assert.Equal(t, "espresso", out.Order.Items[0].MenuItemID)
}

func TestAmendMenuItem_SettledOrderIsInvalidState(t *testing.T) {
	f := newFixture(t)
	ctx := actorContext()

	placed, err := f.svc.Place(ctx, placeRequest())
	require.NoError(t, err)
	_, err = f.svc.Settle(ctx, placed.Order.ID)
	require.NoError(t, err)

	_, err = f.svc.AmendMenuItem(ctx, order.AmendRequest{
		OrderID:    placed.Order.ID,
		MenuItemID: "espresso",
		Quantity:   1,
	})

	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
}

func TestSplitBill_DeterministicRemainderDistribution(t *testing.T) {
	f := newFixture(t)
	ctx := actorContext()
	friendA := domain.NewUserID()
	friendB := domain.NewUserID()

	req := placeRequest(friendA, friendB)
	req.Items = []order.LineItem{{MenuItemID: "tasting", Name: "Tasting menu", Quantity: 1, PriceCents: 1_00}}
	placed, err := f.svc.Place(ctx, req)
	require.NoError(t, err)

	first, err := f.svc.SplitBill(ctx, placed.Order.ID)
	require.NoError(t, err)
	second, err := f.svc.SplitBill(ctx, placed.Order.ID)
	require.NoError(t, err)

	require.Len(t, first.Split.Shares, 3)
	assert.Equal(t, domain.Cents(34), first.Split.Shares[0].Amount)
	assert.Equal(t, domain.Cents(33), first.Split.Shares[1].Amount)
	assert.Equal(t, domain.Cents(33), first.Split.Shares[2].Amount)

	// Splitting again yields the identical division.
	assert.Equal(t, first.Split.Shares, second.Split.Shares)

	var sum domain.Cents
	for _, share := range first.Split.Shares {
		sum += share.Amount
	}
	assert.Equal(t, first.Split.Total, sum)
}

func TestSplitBill_SettledOrderIsInvalidState(t *testing.T) {
	f := newFixture(t)
	ctx := actorContext()

	placed, err := f.svc.Place(ctx, placeRequest())
	require.NoError(t, err)
	_, err = f.svc.Settle(ctx, placed.Order.ID)
	require.NoError(t, err)

	_, err = f.svc.SplitBill(ctx, placed.Order.ID)

	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
}

func TestSettle_AwardsPointsToCustomer(t *testing.T) {
	f := newFixture(t)
	ctx := actorContext()

	placed, err := f.svc.Place(ctx, placeRequest())
	require.NoError(t, err)

	out, err := f.svc.Settle(ctx, placed.Order.ID)

	require.NoError(t, err)
	assert.Equal(t, order.StatusSettled, out.Order.Status)
	require.Len(t, out.Report.Points, 1)
	assert.Equal(t, placed.Order.CustomerID, out.Report.Points[0].UserID)
	assert.Equal(t, 30, out.Report.Points[0].Points)
}

func TestCancel_AfterSettleIsInvalidState(t *testing.T) {
	f := newFixture(t)
	ctx := actorContext()

	placed, err := f.svc.Place(ctx, placeRequest())
	require.NoError(t, err)
	_, err = f.svc.Settle(ctx, placed.Order.ID)
	require.NoError(t, err)

	_, err = f.svc.Cancel(ctx, placed.Order.ID)

	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidState))
}

func TestCancel_UnknownOrderIsNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Cancel(actorContext(), domain.NewOrderID())

	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}
