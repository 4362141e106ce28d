package handler_test

import (
	"context"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vendora/internal/points"
	"vendora/internal/points/handler"
	pointsmemory "vendora/internal/points/store/memory"
	id "vendora/pkg/domain"
	"vendora/pkg/testutil"
)

func newRouter(t *testing.T) (chi.Router, *pointsmemory.Store) {
	t.Helper()
	store := pointsmemory.NewStore()
	r := chi.NewRouter()
	handler.NewHandler(points.NewService(store, slog.New(slog.DiscardHandler)), slog.New(slog.DiscardHandler)).Register(r)
	return r, store
}

func seedEntry(t *testing.T, store *pointsmemory.Store, userID id.UserID, action string, pts int) {
	t.Helper()
	_, err := store.Append(context.Background(), points.Entry{
		UserID:    userID,
		Action:    action,
		Points:    pts,
		AwardedAt: time.Now(),
	})
	require.NoError(t, err)
}

type balanceResponse struct {
	UserID  id.UserID `json:"userId"`
	Balance int       `json:"balance"`
}

type historyResponse struct {
	UserID  id.UserID      `json:"userId"`
	Entries []points.Entry `json:"entries"`
}

func TestBalance_SumsTheLedger(t *testing.T) {
	r, store := newRouter(t)
	userID := id.NewUserID()
	seedEntry(t, store, userID, "order_placed", 20)
	seedEntry(t, store, userID, "booking_completed", 50)

	req := testutil.NewRequest(t, http.MethodGet, "/points/"+userID.String()+"/balance")
	rr := testutil.DoRequest(r, req)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	got := testutil.UnmarshalData[balanceResponse](t, rr)
	assert.Equal(t, userID, got.UserID)
	assert.Equal(t, 70, got.Balance)
}

func TestBalance_UnknownUserIsZero(t *testing.T) {
	r, _ := newRouter(t)

	req := testutil.NewRequest(t, http.MethodGet, "/points/"+id.NewUserID().String()+"/balance")
	rr := testutil.DoRequest(r, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 0, testutil.UnmarshalData[balanceResponse](t, rr).Balance)
}

func TestBalance_RejectsMalformedUserID(t *testing.T) {
	r, _ := newRouter(t)

	req := testutil.NewRequest(t, http.MethodGet, "/points/not-a-uuid/balance")
	rr := testutil.DoRequest(r, req)

	testutil.AssertStatus(t, rr, http.StatusBadRequest)
}

func TestHistory_ReturnsNewestFirstAndHonorsLimit(t *testing.T) {
	r, store := newRouter(t)
	userID := id.NewUserID()
	seedEntry(t, store, userID, "order_placed", 20)
	seedEntry(t, store, userID, "order_settled", 30)
	seedEntry(t, store, userID, "tip_given", 15)

	req := testutil.NewRequest(t, http.MethodGet, "/points/"+userID.String()+"/history?limit=2")
	rr := testutil.DoRequest(r, req)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	got := testutil.UnmarshalData[historyResponse](t, rr)
	require.Len(t, got.Entries, 2)
	assert.Equal(t, "tip_given", got.Entries[0].Action)
	assert.Equal(t, "order_settled", got.Entries[1].Action)
}
