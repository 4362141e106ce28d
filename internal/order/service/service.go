// Package service implements pre-order domain operations. Each write runs
// through the orchestrator so the order mutation commits before audit,
// notification, and broadcast effects fan out.
package service

import (
	"context"
	"strconv"

	"vendora/internal/broadcast"
	"vendora/internal/order"
	"vendora/pkg/domain"
	dErrors "vendora/pkg/domain-errors"
	"vendora/pkg/platform/audit"
	"vendora/pkg/platform/orchestrator"
	"vendora/pkg/requestcontext"
)

// Service exposes the pre-order operations.
type Service struct {
	store order.Store
	orch  *orchestrator.Orchestrator
}

// NewService builds the order service.
func NewService(store order.Store, orch *orchestrator.Orchestrator) *Service {
	return &Service{store: store, orch: orch}
}

// Outcome is a committed order snapshot plus the fan-out report.
type Outcome struct {
	Order  order.Order
	Report orchestrator.Report
}

// SplitOutcome is a computed bill split plus the fan-out report.
type SplitOutcome struct {
	Split  order.BillSplit
	Report orchestrator.Report
}

func (s *Service) run(ctx context.Context, name string, fn func(ctx context.Context) (*orchestrator.Result, error)) (Outcome, error) {
	out, err := s.orch.Run(ctx, orchestrator.OperationFunc{OpName: name, Fn: fn})
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Order: out.Entity.(order.Order), Report: out.Report}, nil
}

// Place creates a new placed pre-order. The customer is always included in
// the participant list.
func (s *Service) Place(ctx context.Context, req order.PlaceRequest) (Outcome, error) {
	if err := req.Validate(); err != nil {
		return Outcome{}, err
	}
	return s.run(ctx, "order.place", func(ctx context.Context) (*orchestrator.Result, error) {
		now := requestcontext.Now(ctx)
		o := order.Order{
			ID:           domain.NewOrderID(),
			VenueID:      req.VenueID,
			CustomerID:   req.CustomerID,
			Participants: withCustomer(req.CustomerID, req.Participants),
			Items:        req.Items,
			Status:       order.StatusPlaced,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := s.store.Create(ctx, o); err != nil {
			return nil, err
		}
		return &orchestrator.Result{
			Entity: o,
			Effects: []orchestrator.Descriptor{
				auditEffect(ctx, audit.ActionOrderPlaced, o),
				notifyEffect(o.CustomerID, "order.placed", o),
				broadcastEffect(o, "order_placed"),
				orchestrator.PointsEffect(orchestrator.PointsAward{
					UserID: o.CustomerID,
					Action: "order_placed",
				}),
			},
		}, nil
	})
}

// AmendMenuItem changes one line item while the order is placed or already
// amended. Quantity zero removes the item; an unknown menuItemId adds it.
// Every participant is notified of the change.
func (s *Service) AmendMenuItem(ctx context.Context, req order.AmendRequest) (Outcome, error) {
	if err := req.Validate(); err != nil {
		return Outcome{}, err
	}
	return s.run(ctx, "order.amend_menu_item", func(ctx context.Context) (*orchestrator.Result, error) {
		current, err := s.store.Get(ctx, req.OrderID)
		if err != nil {
			return nil, err
		}
		items, err := amendItems(current.Items, req)
		if err != nil {
			return nil, err
		}

		o, err := s.store.ReplaceItems(ctx, req.OrderID, []order.Status{order.StatusPlaced, order.StatusAmended}, items)
		if err != nil {
			return nil, err
		}

		effects := []orchestrator.Descriptor{
			auditEffect(ctx, audit.ActionMenuAmended, o),
		}
		for _, participant := range o.Participants {
			effects = append(effects, notifyEffect(participant, "order.menu_amended", o))
		}
		effects = append(effects, broadcastEffect(o, "menu_item_amended"))
		return &orchestrator.Result{Entity: o, Effects: effects}, nil
	})
}

// SplitBill divides the order total across its participants by equal
// shares. Remainder cents go one each to the earliest participants, so the
// split is deterministic for a given order. The order itself is unchanged.
func (s *Service) SplitBill(ctx context.Context, orderID domain.OrderID) (SplitOutcome, error) {
	if orderID.IsNil() {
		return SplitOutcome{}, dErrors.New(dErrors.CodeValidation, "orderId is required")
	}
	out, err := s.orch.Run(ctx, orchestrator.OperationFunc{
		OpName: "order.split_bill",
		Fn: func(ctx context.Context) (*orchestrator.Result, error) {
			o, err := s.store.Get(ctx, orderID)
			if err != nil {
				return nil, err
			}
			if o.Status != order.StatusPlaced && o.Status != order.StatusAmended {
				return nil, dErrors.New(dErrors.CodeInvalidState, "only a placed order's bill can be split")
			}

			total := o.Total()
			shares := total.SplitEven(len(o.Participants))
			split := order.BillSplit{
				OrderID: o.ID,
				Total:   total,
				Shares:  make([]order.BillShare, len(shares)),
				SplitAt: requestcontext.Now(ctx),
			}
			effects := []orchestrator.Descriptor{
				auditEffect(ctx, audit.ActionBillSplit, o),
			}
			for i, participant := range o.Participants {
				split.Shares[i] = order.BillShare{UserID: participant, Amount: shares[i]}
				effects = append(effects, orchestrator.NotifyEffect(orchestrator.Notification{
					UserID:     participant,
					Type:       "order",
					MessageKey: "order.bill_share",
					MessageParams: map[string]string{
						"order_id": o.ID.String(),
						"amount":   shares[i].String(),
					},
					Module: "order",
				}))
			}
			return &orchestrator.Result{Entity: split, Effects: effects}, nil
		},
	})
	if err != nil {
		return SplitOutcome{}, err
	}
	return SplitOutcome{Split: out.Entity.(order.BillSplit), Report: out.Report}, nil
}

// Settle closes out a placed or amended order.
func (s *Service) Settle(ctx context.Context, orderID domain.OrderID) (Outcome, error) {
	return s.run(ctx, "order.settle", func(ctx context.Context) (*orchestrator.Result, error) {
		o, err := s.store.SetStatus(ctx, orderID,
			[]order.Status{order.StatusPlaced, order.StatusAmended}, order.StatusSettled)
		if err != nil {
			return nil, err
		}
		return &orchestrator.Result{
			Entity: o,
			Effects: []orchestrator.Descriptor{
				auditEffect(ctx, audit.ActionOrderSettled, o),
				notifyEffect(o.CustomerID, "order.settled", o),
				broadcastEffect(o, "order_settled"),
				orchestrator.PointsEffect(orchestrator.PointsAward{
					UserID: o.CustomerID,
					Action: "order_settled",
				}),
			},
		}, nil
	})
}

// Cancel cancels an order that has not settled.
func (s *Service) Cancel(ctx context.Context, orderID domain.OrderID) (Outcome, error) {
	return s.run(ctx, "order.cancel", func(ctx context.Context) (*orchestrator.Result, error) {
		o, err := s.store.SetStatus(ctx, orderID,
			[]order.Status{order.StatusDraft, order.StatusPlaced, order.StatusAmended}, order.StatusCancelled)
		if err != nil {
			return nil, err
		}
		effects := []orchestrator.Descriptor{
			auditEffect(ctx, audit.ActionOrderCancelled, o),
		}
		for _, participant := range o.Participants {
			effects = append(effects, notifyEffect(participant, "order.cancelled", o))
		}
		effects = append(effects, broadcastEffect(o, "order_cancelled"))
		return &orchestrator.Result{Entity: o, Effects: effects}, nil
	})
}

// Get returns one order. Reads bypass the orchestrator.
func (s *Service) Get(ctx context.Context, orderID domain.OrderID) (order.Order, error) {
	return s.store.Get(ctx, orderID)
}

// amendItems applies one amendment to a copy of the line items.
func amendItems(items []order.LineItem, req order.AmendRequest) ([]order.LineItem, error) {
	out := make([]order.LineItem, 0, len(items)+1)
	found := false
	for _, item := range items {
		if item.MenuItemID != req.MenuItemID {
			out = append(out, item)
			continue
		}
		found = true
		if req.Quantity == 0 {
			continue // removal
		}
		item.Quantity = req.Quantity
		if req.Name != "" {
			item.Name = req.Name
		}
		if req.PriceCents > 0 {
			item.PriceCents = req.PriceCents
		}
		out = append(out, item)
	}
	if !found {
		if req.Quantity == 0 {
			return nil, dErrors.New(dErrors.CodeNotFound, "menu item not on the order")
		}
		out = append(out, order.LineItem{
			MenuItemID: req.MenuItemID,
			Name:       req.Name,
			Quantity:   req.Quantity,
			PriceCents: req.PriceCents,
		})
	}
	if len(out) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "amendment would leave the order empty")
	}
	return out, nil
}

func withCustomer(customerID domain.UserID, participants []domain.UserID) []domain.UserID {
	out := []domain.UserID{customerID}
	for _, p := range participants {
		if p != customerID {
			out = append(out, p)
		}
	}
	return out
}

func auditEffect(ctx context.Context, action audit.Action, o order.Order) orchestrator.Descriptor {
	return orchestrator.AuditEffect(orchestrator.AuditRecord{
		Action:  string(action),
		ActorID: requestcontext.ActorID(ctx),
		Role:    requestcontext.Role(ctx),
		Subject: o.ID.String(),
		Details: map[string]string{
			"venue_id": o.VenueID.String(),
			"status":   string(o.Status),
			"items":    strconv.Itoa(len(o.Items)),
		},
	})
}

func notifyEffect(userID domain.UserID, messageKey string, o order.Order) orchestrator.Descriptor {
	return orchestrator.NotifyEffect(orchestrator.Notification{
		UserID:     userID,
		Type:       "order",
		MessageKey: messageKey,
		MessageParams: map[string]string{
			"order_id": o.ID.String(),
		},
		Module: "order",
	})
}

func broadcastEffect(o order.Order, event string) orchestrator.Descriptor {
	return orchestrator.BroadcastEffect(orchestrator.BroadcastEvent{
		Channel: broadcast.OrderChannel(o.ID.String()),
		Event:   event,
		Payload: o,
	})
}
