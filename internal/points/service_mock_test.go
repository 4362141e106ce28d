package points_test

//go:generate mockgen -source=points.go -destination=mocks/mocks.go -package=mocks Store

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"vendora/internal/points"
	"vendora/internal/points/mocks"
	id "vendora/pkg/domain"
	"vendora/pkg/platform/orchestrator"
	"vendora/pkg/requestcontext"
)

type PointsServiceSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	mockStore *mocks.MockStore
	service   *points.Service
}

func TestPointsServiceSuite(t *testing.T) {
	suite.Run(t, new(PointsServiceSuite))
}

func (s *PointsServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.mockStore = mocks.NewMockStore(s.ctrl)
	s.service = points.NewService(s.mockStore, slog.New(slog.DiscardHandler))
}

func (s *PointsServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *PointsServiceSuite) TestAwardPointsAppendsLedgerEntry() {
	userID := id.NewUserID()
	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	ctx := requestcontext.WithTime(context.Background(), now)

	s.mockStore.EXPECT().
		Append(gomock.Any(), points.Entry{
			UserID:    userID,
			Action:    "order_settled",
			Points:    30,
			AwardedAt: now,
		}).
		Return(130, nil)

	record, err := s.service.AwardPoints(ctx, orchestrator.PointsAward{
		UserID: userID,
		Action: "order_settled",
	})

	s.Require().NoError(err)
	s.Equal(30, record.Points)
	s.Equal(130, record.Total)
	s.Equal(now, record.AwardedAt)
}

func (s *PointsServiceSuite) TestAwardPointsPropagatesStoreFailure() {
	s.mockStore.EXPECT().
		Append(gomock.Any(), gomock.Any()).
		Return(0, errors.New("ledger unavailable"))

	record, err := s.service.AwardPoints(context.Background(), orchestrator.PointsAward{
		UserID: id.NewUserID(),
		Action: "tip_given",
	})

	s.Require().Error(err)
	s.Nil(record)
	s.Contains(err.Error(), "ledger unavailable")
}

func (s *PointsServiceSuite) TestAwardPointsSkipsStoreForUnknownAction() {
	// No Append expectation: the store must not be touched.
	record, err := s.service.AwardPoints(context.Background(), orchestrator.PointsAward{
		UserID: id.NewUserID(),
		Action: "mystery_action",
	})

	s.Require().Error(err)
	s.Nil(record)
}

func (s *PointsServiceSuite) TestHistoryClampsLimit() {
	userID := id.NewUserID()

	s.mockStore.EXPECT().
		ListByUser(gomock.Any(), userID, 50).
		Return(nil, nil)

	_, err := s.service.History(context.Background(), userID, 0)

	s.Require().NoError(err)
}
