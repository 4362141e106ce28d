//go:build integration

package storage

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vendora/internal/booking"
	bookingpg "vendora/internal/booking/store/postgres"
	"vendora/internal/platform/postgres"
	"vendora/internal/points"
	pointspg "vendora/internal/points/store/postgres"
	"vendora/internal/wallet"
	walletpg "vendora/internal/wallet/store/postgres"
	id "vendora/pkg/domain"
	"vendora/pkg/platform/sentinel"
	"vendora/pkg/testutil/containers"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	pc := containers.NewPostgresContainer(t)
	require.NoError(t, postgres.Migrate(context.Background(), pc.DB))
	return pc.DB
}

func TestBookingStore_ConditionalTransitionHasOneWinner(t *testing.T) {
	db := setupDB(t)
	store := bookingpg.NewStore(db)
	ctx := context.Background()

	b := booking.Booking{
		ID:         id.NewBookingID(),
		VenueID:    id.NewVenueID(),
		CustomerID: id.NewUserID(),
		PartySize:  2,
		StartsAt:   time.Now().Add(time.Hour),
		Status:     booking.StatusPending,
		CreatedAt:  time.Now(),
		UpdatedAt:  time.Now(),
	}
	require.NoError(t, store.Create(ctx, b))

	confirmed, err := store.SetStatus(ctx, b.ID, []booking.Status{booking.StatusPending}, booking.StatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, booking.StatusConfirmed, confirmed.Status)

	// Same guard again: the row is no longer pending.
	_, err = store.SetStatus(ctx, b.ID, []booking.Status{booking.StatusPending}, booking.StatusConfirmed)
	assert.ErrorIs(t, err, sentinel.ErrInvalidState)

	_, err = store.SetStatus(ctx, id.NewBookingID(), []booking.Status{booking.StatusPending}, booking.StatusConfirmed)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestWalletStore_DebitNeverOverdraws(t *testing.T) {
	db := setupDB(t)
	store := walletpg.NewStore(db)
	ctx := context.Background()

	w := wallet.Wallet{
		ID:        id.NewWalletID(),
		OwnerID:   id.NewUserID(),
		Balance:   10_00,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	require.NoError(t, store.Create(ctx, w))

	debited, err := store.Debit(ctx, w.ID, 4_00)
	require.NoError(t, err)
	assert.Equal(t, id.Cents(6_00), debited.Balance)

	_, err = store.Debit(ctx, w.ID, 7_00)
	assert.ErrorIs(t, err, sentinel.ErrInsufficientFunds)

	current, err := store.Get(ctx, w.ID)
	require.NoError(t, err)
	assert.Equal(t, id.Cents(6_00), current.Balance)
}

func TestPointsStore_AppendReturnsRunningTotal(t *testing.T) {
	db := setupDB(t)
	store := pointspg.NewStore(db)
	ctx := context.Background()
	user := id.NewUserID()

	total, err := store.Append(ctx, pointsEntry(user, "order_placed", 20, time.Now().Add(-time.Minute)))
	require.NoError(t, err)
	assert.Equal(t, 20, total)

	total, err = store.Append(ctx, pointsEntry(user, "order_settled", 30, time.Now()))
	require.NoError(t, err)
	assert.Equal(t, 50, total)

	entries, err := store.ListByUser(ctx, user, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "order_settled", entries[0].Action)
}

func pointsEntry(user id.UserID, action string, pts int, at time.Time) points.Entry {
	return points.Entry{UserID: user, Action: action, Points: pts, AwardedAt: at}
}
