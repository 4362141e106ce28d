package httptransport_test

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bookinghandler "vendora/internal/booking/handler"
	bookingservice "vendora/internal/booking/service"
	bookingmemory "vendora/internal/booking/store/memory"
	"vendora/internal/broadcast"
	"vendora/internal/identity"
	identityhandler "vendora/internal/identity/handler"
	"vendora/internal/notification"
	orderhandler "vendora/internal/order/handler"
	orderservice "vendora/internal/order/service"
	ordermemory "vendora/internal/order/store/memory"
	"vendora/internal/platform/metrics"
	"vendora/internal/platform/middleware"
	"vendora/internal/points"
	pointshandler "vendora/internal/points/handler"
	pointsmemory "vendora/internal/points/store/memory"
	httptransport "vendora/internal/transport/http"
	"vendora/internal/wallet"
	wallethandler "vendora/internal/wallet/handler"
	walletservice "vendora/internal/wallet/service"
	walletmemory "vendora/internal/wallet/store/memory"
	id "vendora/pkg/domain"
	"vendora/pkg/platform/audit/publisher"
	auditmemory "vendora/pkg/platform/audit/store/memory"
	"vendora/pkg/platform/orchestrator"
	"vendora/pkg/testutil"
)

// Prometheus collectors register globally, so the package shares one set.
var testMetrics = metrics.New()

// stubValidator resolves bearer tokens from a fixed table.
type stubValidator struct {
	claims map[string]middleware.JWTClaims
}

func (v stubValidator) ValidateToken(token string) (*middleware.JWTClaims, error) {
	c, ok := v.claims[token]
	if !ok {
		return nil, errors.New("unknown token")
	}
	return &c, nil
}

type routerFixture struct {
	handler http.Handler
	wallets *walletmemory.Store
}

func newRouterFixture(t *testing.T) routerFixture {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)
	auditSink := publisher.New(auditmemory.New(), logger)
	pointsSvc := points.NewService(pointsmemory.NewStore(), logger)

	fanout := orchestrator.NewFanout(orchestrator.Collaborators{
		Audit:       auditSink,
		Notifier:    notification.NewMemoryNotifier(),
		Broadcaster: broadcast.NewMemoryBroadcaster(),
		Points:      pointsSvc,
	}, logger, nil)
	orch := orchestrator.New(orchestrator.NewMemoryUnitOfWork(), fanout, logger, nil)

	wallets := walletmemory.NewStore()
	tokens := identity.NewTokenService("test-signing-key", "vendora", time.Hour)
	loginSvc := identity.NewLoginService(identity.NewMemoryCredentialStore(), tokens, auditSink, logger)

	validator := stubValidator{claims: map[string]middleware.JWTClaims{
		"customer-token": {ActorID: id.NewUserID().String(), Role: "customer"},
		"merchant-token": {ActorID: id.NewUserID().String(), Role: "merchant"},
	}}

	handler := httptransport.NewRouter(httptransport.Handlers{
		Auth:    identityhandler.NewHandler(loginSvc, logger),
		Booking: bookinghandler.NewHandler(bookingservice.NewService(bookingmemory.NewStore(), orch), logger),
		Wallet:  wallethandler.NewHandler(walletservice.NewService(wallets, orch), logger),
		Order:   orderhandler.NewHandler(orderservice.NewService(ordermemory.NewStore(), orch), logger),
		Points:  pointshandler.NewHandler(pointsSvc, logger),
	}, validator, testMetrics, logger)

	return routerFixture{handler: handler, wallets: wallets}
}

func (f routerFixture) seedWallet(t *testing.T) wallet.Wallet {
	t.Helper()
	w := wallet.Wallet{
		ID:        id.NewWalletID(),
		OwnerID:   id.NewUserID(),
		Balance:   10_00,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	require.NoError(t, f.wallets.Create(context.Background(), w))
	return w
}

func (f routerFixture) get(t *testing.T, path, token string) int {
	t.Helper()
	req := testutil.NewRequest(t, http.MethodGet, path)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return testutil.DoRequest(f.handler, req).Code
}

func TestRouter_HealthzIsPublic(t *testing.T) {
	f := newRouterFixture(t)

	req := testutil.NewRequest(t, http.MethodGet, "/healthz")
	rr := testutil.DoRequest(f.handler, req)

	require.Equal(t, http.StatusOK, rr.Code)
	env := testutil.UnmarshalEnvelope(t, rr)
	assert.Equal(t, "success", env.Status)
	assert.Equal(t, "ok", env.Message)
}

func TestRouter_ModuleRoutesRequireAToken(t *testing.T) {
	f := newRouterFixture(t)
	w := f.seedWallet(t)

	assert.Equal(t, http.StatusUnauthorized, f.get(t, "/wallets/"+w.ID.String(), ""))
	assert.Equal(t, http.StatusUnauthorized, f.get(t, "/points/"+id.NewUserID().String()+"/balance", ""))
}

func TestRouter_WalletRoutesAreGatedByRole(t *testing.T) {
	f := newRouterFixture(t)
	w := f.seedWallet(t)

	assert.Equal(t, http.StatusForbidden, f.get(t, "/wallets/"+w.ID.String(), "customer-token"))
	assert.Equal(t, http.StatusOK, f.get(t, "/wallets/"+w.ID.String(), "merchant-token"))
}

func TestRouter_PointsRoutesAreOpenToAnyAuthenticatedRole(t *testing.T) {
	f := newRouterFixture(t)

	assert.Equal(t, http.StatusOK, f.get(t, "/points/"+id.NewUserID().String()+"/balance", "customer-token"))
	assert.Equal(t, http.StatusOK, f.get(t, "/points/"+id.NewUserID().String()+"/history", "merchant-token"))
}
