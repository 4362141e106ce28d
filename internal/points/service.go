package points

import (
	"context"
	"fmt"
	"log/slog"

	id "vendora/pkg/domain"
	"vendora/pkg/platform/orchestrator"
	"vendora/pkg/requestcontext"
)

// defaultAwards maps actions to their standing point values. An award that
// carries an explicit point count overrides the table.
var defaultAwards = map[string]int{
	"booking_completed":  50,
	"booking_checked_in": 25,
	"booking_confirmed":  10,
	"order_placed":       20,
	"order_settled":      30,
	"tip_given":          15,
	"waitlist_joined":    5,
}

// Service awards points and reads balances.
type Service struct {
	store  Store
	logger *slog.Logger
}

// NewService builds the points service.
func NewService(store Store, logger *slog.Logger) *Service {
	return &Service{store: store, logger: logger}
}

// AwardPoints implements orchestrator.PointsAwarder.
func (s *Service) AwardPoints(ctx context.Context, award orchestrator.PointsAward) (*orchestrator.PointsRecord, error) {
	if award.UserID.IsNil() {
		return nil, fmt.Errorf("points award requires a user")
	}
	pts := award.Points
	if pts == 0 {
		pts = defaultAwards[award.Action]
	}
	if pts <= 0 {
		return nil, fmt.Errorf("no point value for action %q", award.Action)
	}

	now := requestcontext.Now(ctx)
	total, err := s.store.Append(ctx, Entry{
		UserID:    award.UserID,
		Action:    award.Action,
		Points:    pts,
		Metadata:  award.Metadata,
		AwardedAt: now,
	})
	if err != nil {
		return nil, fmt.Errorf("append points entry: %w", err)
	}
	return &orchestrator.PointsRecord{
		UserID:    award.UserID,
		Action:    award.Action,
		Points:    pts,
		Total:     total,
		AwardedAt: now,
	}, nil
}

// Balance returns the current total for a user.
func (s *Service) Balance(ctx context.Context, userID id.UserID) (int, error) {
	return s.store.TotalFor(ctx, userID)
}

// History returns a user's recent ledger entries.
func (s *Service) History(ctx context.Context, userID id.UserID, limit int) ([]Entry, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.store.ListByUser(ctx, userID, limit)
}
