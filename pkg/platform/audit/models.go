package audit

import (
	"time"

	id "vendora/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose. This
// enables different retention policies and consumer routing.
type EventCategory string

const (
	// CategoryCompliance covers events with legal/financial significance.
	// These require tamper-proof storage and long retention.
	// Examples: payouts, tip distribution, bill splits, cancellations.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers events relevant to security monitoring.
	// Examples: failed logins, role violations.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers events useful for debugging and
	// operational visibility. These can be sampled with shorter retention.
	// Examples: check-ins, waitlist promotions, menu amendments.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp time.Time
	ActorID   id.UserID
	Role      string
	Action    string
	Subject   string
	Details   map[string]string
	IPAddress string
	Device    string
	RequestID string
}

// Action names every auditable write in the marketplace.
type Action string

const (
	// Booking events
	ActionBookingCreated    Action = "booking_created"
	ActionBookingConfirmed  Action = "booking_confirmed"
	ActionBookingCheckedIn  Action = "booking_checked_in"
	ActionBookingCompleted  Action = "booking_completed"
	ActionBookingCancelled  Action = "booking_cancelled"
	ActionBookingNoShow     Action = "booking_no_show"
	ActionWaitlistJoined    Action = "waitlist_joined"
	ActionWaitlistPromoted  Action = "waitlist_promoted"

	// Wallet events
	ActionPayoutProcessed Action = "payout_processed"
	ActionTipsDistributed Action = "tips_distributed"
	ActionWalletCredited  Action = "wallet_credited"

	// Order events
	ActionOrderPlaced    Action = "order_placed"
	ActionMenuAmended    Action = "menu_item_amended"
	ActionBillSplit      Action = "bill_split"
	ActionOrderSettled   Action = "order_settled"
	ActionOrderCancelled Action = "order_cancelled"

	// Identity events
	ActionStaffLogin       Action = "staff_login"
	ActionStaffLoginFailed Action = "staff_login_failed"
)

// actionCategories maps each audit action to its category.
var actionCategories = map[Action]EventCategory{
	// Compliance - money moved or a customer commitment changed
	ActionPayoutProcessed:  CategoryCompliance,
	ActionTipsDistributed:  CategoryCompliance,
	ActionWalletCredited:   CategoryCompliance,
	ActionBillSplit:        CategoryCompliance,
	ActionOrderSettled:     CategoryCompliance,
	ActionBookingCancelled: CategoryCompliance,
	ActionOrderCancelled:   CategoryCompliance,

	// Security
	ActionStaffLoginFailed: CategorySecurity,

	// Operations - routine activity
	ActionBookingCreated:   CategoryOperations,
	ActionBookingConfirmed: CategoryOperations,
	ActionBookingCheckedIn: CategoryOperations,
	ActionBookingCompleted: CategoryOperations,
	ActionBookingNoShow:    CategoryOperations,
	ActionWaitlistJoined:   CategoryOperations,
	ActionWaitlistPromoted: CategoryOperations,
	ActionOrderPlaced:      CategoryOperations,
	ActionMenuAmended:      CategoryOperations,
	ActionStaffLogin:       CategoryOperations,
}

// Category returns the EventCategory for this action. Unknown actions
// default to CategoryOperations.
func (a Action) Category() EventCategory {
	if cat, ok := actionCategories[a]; ok {
		return cat
	}
	return CategoryOperations
}
