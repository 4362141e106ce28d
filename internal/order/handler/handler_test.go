package handler_test

import (
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vendora/internal/broadcast"
	"vendora/internal/notification"
	"vendora/internal/order"
	"vendora/internal/order/handler"
	"vendora/internal/order/service"
	ordermemory "vendora/internal/order/store/memory"
	"vendora/internal/points"
	pointsmemory "vendora/internal/points/store/memory"
	id "vendora/pkg/domain"
	"vendora/pkg/platform/audit/publisher"
	auditmemory "vendora/pkg/platform/audit/store/memory"
	"vendora/pkg/platform/orchestrator"
	"vendora/pkg/testutil"
)

func newRouter() chi.Router {
	logger := slog.New(slog.DiscardHandler)
	fanout := orchestrator.NewFanout(orchestrator.Collaborators{
		Audit:       publisher.New(auditmemory.New(), logger),
		Notifier:    notification.NewMemoryNotifier(),
		Broadcaster: broadcast.NewMemoryBroadcaster(),
		Points:      points.NewService(pointsmemory.NewStore(), logger),
	}, logger, nil)
	orch := orchestrator.New(orchestrator.NewMemoryUnitOfWork(), fanout, logger, nil)
	svc := service.NewService(ordermemory.NewStore(), orch)

	r := chi.NewRouter()
	handler.NewHandler(svc, logger).Register(r)
	return r
}

type orderResponse struct {
	Order             order.Order                 `json:"order"`
	Points            []orchestrator.PointsRecord `json:"points"`
	GamificationError string                      `json:"gamificationError"`
}

type splitResponse struct {
	Split order.BillSplit `json:"split"`
}

func placeOrder(t *testing.T, r chi.Router, participants []string) orderResponse {
	t.Helper()
	req := testutil.NewJSONRequest(t, http.MethodPost, "/orders", map[string]any{
		"venueId":      id.NewVenueID().String(),
		"customerId":   id.NewUserID().String(),
		"participants": participants,
		"items": []map[string]any{
			{"menuItemId": "espresso", "name": "Espresso", "quantity": 2, "priceCents": 350},
			{"menuItemId": "cake", "name": "Cheesecake", "quantity": 1, "priceCents": 425},
		},
	})
	rr := testutil.DoRequest(r, req)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	return *testutil.UnmarshalData[orderResponse](t, rr)
}

func TestPlace_ReturnsOrderAndPoints(t *testing.T) {
	r := newRouter()

	placed := placeOrder(t, r, nil)

	assert.Equal(t, order.StatusPlaced, placed.Order.Status)
	assert.Len(t, placed.Order.Items, 2)
	require.Len(t, placed.Points, 1)
	assert.Equal(t, 20, placed.Points[0].Points)
}

func TestPlace_RejectsInvalidCustomerID(t *testing.T) {
	r := newRouter()

	req := testutil.NewJSONRequest(t, http.MethodPost, "/orders", map[string]any{
		"venueId":    id.NewVenueID().String(),
		"customerId": "not-a-uuid",
	})
	rr := testutil.DoRequest(r, req)

	testutil.AssertStatus(t, rr, http.StatusBadRequest)
	testutil.AssertErrorMessage(t, rr, "customerId must be a valid UUID")
}

func TestAmend_QuantityZeroRemovesItem(t *testing.T) {
	r := newRouter()
	placed := placeOrder(t, r, nil)

	req := testutil.NewJSONRequest(t, http.MethodPost, "/orders/"+placed.Order.ID.String()+"/amend",
		map[string]any{"menuItemId": "cake", "quantity": 0})
	rr := testutil.DoRequest(r, req)

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	amended := testutil.UnmarshalData[orderResponse](t, rr)
	assert.Equal(t, order.StatusAmended, amended.Order.Status)
	require.Len(t, amended.Order.Items, 1)
	assert.Equal(t, "espresso", amended.Order.Items[0].MenuItemID)
}

func TestSplit_SharesSumToTotal(t *testing.T) {
	r := newRouter()
	friend := id.NewUserID().String()
	other := id.NewUserID().String()
	placed := placeOrder(t, r, []string{friend, other})

	rr := testutil.DoRequest(r, testutil.NewRequest(t, http.MethodPost, "/orders/"+placed.Order.ID.String()+"/split"))

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	split := testutil.UnmarshalData[splitResponse](t, rr)
	require.Len(t, split.Split.Shares, 3)
	var sum int64
	for _, share := range split.Split.Shares {
		sum += int64(share.Amount)
	}
	assert.Equal(t, int64(split.Split.Total), sum)
}

func TestSettle_ThenAmendReturns409(t *testing.T) {
	r := newRouter()
	placed := placeOrder(t, r, nil)

	rr := testutil.DoRequest(r, testutil.NewRequest(t, http.MethodPost, "/orders/"+placed.Order.ID.String()+"/settle"))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	req := testutil.NewJSONRequest(t, http.MethodPost, "/orders/"+placed.Order.ID.String()+"/amend",
		map[string]any{"menuItemId": "espresso", "quantity": 3})
	rr = testutil.DoRequest(r, req)

	testutil.AssertStatus(t, rr, http.StatusConflict)
}

func TestGet_UnknownOrderReturns404(t *testing.T) {
	r := newRouter()

	rr := testutil.DoRequest(r, testutil.NewRequest(t, http.MethodGet, "/orders/"+id.NewOrderID().String()))

	testutil.AssertStatus(t, rr, http.StatusNotFound)
}
