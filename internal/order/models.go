// Package order manages pre-orders: menu line items, amendment, bill
// splitting, and settlement.
package order

import (
	"time"

	"vendora/pkg/domain"
	dErrors "vendora/pkg/domain-errors"
)

// Status is the pre-order lifecycle state.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPlaced    Status = "placed"
	StatusAmended   Status = "amended"
	StatusSettled   Status = "settled"
	StatusCancelled Status = "cancelled"
)

// transitions lists the legal next states per current state. An amended
// order may be amended again, settled, or cancelled, same as a placed one.
var transitions = map[Status][]Status{
	StatusDraft:   {StatusPlaced, StatusCancelled},
	StatusPlaced:  {StatusAmended, StatusSettled, StatusCancelled},
	StatusAmended: {StatusAmended, StatusSettled, StatusCancelled},
}

// CanTransition reports whether from may move to to.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// LineItem is one menu item on the order.
type LineItem struct {
	MenuItemID string       `json:"menuItemId"`
	Name       string       `json:"name"`
	Quantity   int          `json:"quantity"`
	PriceCents domain.Cents `json:"priceCents"`
}

// Order is one pre-order.
type Order struct {
	ID           domain.OrderID  `json:"id"`
	VenueID      domain.VenueID  `json:"venueId"`
	CustomerID   domain.UserID   `json:"customerId"`
	Participants []domain.UserID `json:"participants"`
	Items        []LineItem      `json:"items"`
	Status       Status          `json:"status"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// Total sums the line items.
func (o Order) Total() domain.Cents {
	var total domain.Cents
	for _, item := range o.Items {
		total += item.PriceCents * domain.Cents(item.Quantity)
	}
	return total
}

// PlaceRequest is the validated input for placing a pre-order.
type PlaceRequest struct {
	VenueID      domain.VenueID
	CustomerID   domain.UserID
	Participants []domain.UserID
	Items        []LineItem
}

// Validate checks the request before any store access. The customer is
// always a participant; the request may name additional ones.
func (r PlaceRequest) Validate() error {
	if r.VenueID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "venueId is required")
	}
	if r.CustomerID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "customerId is required")
	}
	if len(r.Items) == 0 {
		return dErrors.New(dErrors.CodeValidation, "at least one line item is required")
	}
	for _, item := range r.Items {
		if err := item.validate(); err != nil {
			return err
		}
	}
	for _, participant := range r.Participants {
		if participant.IsNil() {
			return dErrors.New(dErrors.CodeValidation, "participants must be valid UUIDs")
		}
	}
	return nil
}

func (i LineItem) validate() error {
	if i.MenuItemID == "" {
		return dErrors.New(dErrors.CodeValidation, "menuItemId is required")
	}
	if i.Quantity < 1 {
		return dErrors.New(dErrors.CodeValidation, "quantity must be at least 1")
	}
	if i.PriceCents < 0 {
		return dErrors.New(dErrors.CodeValidation, "priceCents must not be negative")
	}
	return nil
}

// AmendRequest changes one line item on a placed order. Quantity zero
// removes the item; a new menuItemId adds one.
type AmendRequest struct {
	OrderID    domain.OrderID
	MenuItemID string
	Name       string
	Quantity   int
	PriceCents domain.Cents
}

// Validate checks the request before any store access.
func (r AmendRequest) Validate() error {
	if r.OrderID.IsNil() {
		return dErrors.New(dErrors.CodeValidation, "orderId is required")
	}
	if r.MenuItemID == "" {
		return dErrors.New(dErrors.CodeValidation, "menuItemId is required")
	}
	if r.Quantity < 0 {
		return dErrors.New(dErrors.CodeValidation, "quantity must not be negative")
	}
	if r.PriceCents < 0 {
		return dErrors.New(dErrors.CodeValidation, "priceCents must not be negative")
	}
	return nil
}

// BillShare is one participant's cut of the bill.
type BillShare struct {
	UserID domain.UserID `json:"userId"`
	Amount domain.Cents  `json:"amount"`
}

// BillSplit is the deterministic division of an order's total across its
// participants. Remainder cents go one each to the earliest participants,
// so the same order always splits the same way.
type BillSplit struct {
	OrderID domain.OrderID `json:"orderId"`
	Total   domain.Cents   `json:"total"`
	Shares  []BillShare    `json:"shares"`
	SplitAt time.Time      `json:"splitAt"`
}
