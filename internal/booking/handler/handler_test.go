package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vendora/internal/booking/handler"
	"vendora/internal/booking/service"
	bookingmemory "vendora/internal/booking/store/memory"
	"vendora/internal/broadcast"
	"vendora/internal/notification"
	id "vendora/pkg/domain"
	"vendora/pkg/platform/audit/publisher"
	auditmemory "vendora/pkg/platform/audit/store/memory"
	"vendora/pkg/platform/orchestrator"
)

type failingPoints struct{}

func (failingPoints) AwardPoints(ctx context.Context, award orchestrator.PointsAward) (*orchestrator.PointsRecord, error) {
	return nil, errors.New("points service unavailable")
}

func newRouter(pointsAwarder orchestrator.PointsAwarder) chi.Router {
	logger := slog.New(slog.DiscardHandler)
	fanout := orchestrator.NewFanout(orchestrator.Collaborators{
		Audit:       publisher.New(auditmemory.New(), logger),
		Notifier:    notification.NewMemoryNotifier(),
		Broadcaster: broadcast.NewMemoryBroadcaster(),
		Points:      pointsAwarder,
	}, logger, nil)
	orch := orchestrator.New(orchestrator.NewMemoryUnitOfWork(), fanout, logger, nil)
	svc := service.NewService(bookingmemory.NewStore(), orch)

	r := chi.NewRouter()
	handler.NewHandler(svc, logger).Register(r)
	return r
}

func createBooking(t *testing.T, r chi.Router) string {
	t.Helper()
	body := fmt.Sprintf(`{"venueId":%q,"customerId":%q,"partySize":2,"startsAt":%q}`,
		id.NewVenueID().String(), id.NewUserID().String(), time.Now().Add(time.Hour).Format(time.RFC3339))
	req := httptest.NewRequest(http.MethodPost, "/bookings", strings.NewReader(body))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var env struct {
		Data struct {
			Booking struct {
				ID string `json:"id"`
			} `json:"booking"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env.Data.Booking.ID
}

func TestCheckIn_FailingPointsStillReturns200WithGamificationError(t *testing.T) {
	r := newRouter(failingPoints{})
	bookingID := createBooking(t, r)

	req := httptest.NewRequest(http.MethodPost, "/bookings/"+bookingID+"/check-in", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var env struct {
		Status string `json:"status"`
		Data   struct {
			Booking struct {
				Status string `json:"status"`
			} `json:"booking"`
			GamificationError string `json:"gamificationError"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, "success", env.Status)
	assert.Equal(t, "checked_in", env.Data.Booking.Status)
	assert.NotEmpty(t, env.Data.GamificationError)
}

func TestCheckIn_UnknownBookingReturns404(t *testing.T) {
	r := newRouter(failingPoints{})

	req := httptest.NewRequest(http.MethodPost, "/bookings/"+id.NewBookingID().String()+"/check-in", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreate_MalformedBodyReturns400(t *testing.T) {
	r := newRouter(failingPoints{})

	req := httptest.NewRequest(http.MethodPost, "/bookings", strings.NewReader(`{"partySize":`))
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCompleteBeforeCheckInReturns409(t *testing.T) {
	r := newRouter(failingPoints{})
	bookingID := createBooking(t, r)

	req := httptest.NewRequest(http.MethodPost, "/bookings/"+bookingID+"/complete", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}
