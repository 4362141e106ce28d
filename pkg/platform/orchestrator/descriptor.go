package orchestrator

import (
	"time"

	id "vendora/pkg/domain"
)

// Kind identifies which collaborator a side effect targets.
type Kind string

const (
	KindAudit     Kind = "audit"
	KindNotify    Kind = "notify"
	KindBroadcast Kind = "broadcast"
	KindPoints    Kind = "points"
)

// applyOrder is the fixed fan-out order. Audit first because compliance
// logging must not be skipped silently; points last because awards are
// best-effort.
var applyOrder = []Kind{KindAudit, KindNotify, KindBroadcast, KindPoints}

// Descriptor is a declarative record of one side effect to perform. Domain
// operations produce descriptors as part of their result; they never call
// collaborators directly. Exactly one payload field is set, matching Kind.
type Descriptor struct {
	Kind      Kind
	Audit     *AuditRecord
	Notify    *Notification
	Broadcast *BroadcastEvent
	Points    *PointsAward
}

// AuditRecord captures a compliance-relevant action.
type AuditRecord struct {
	Action    string
	ActorID   id.UserID
	Role      string
	Subject   string
	Details   map[string]string
	IPAddress string
	RequestID string
	Timestamp time.Time
}

// Notification describes a message to deliver to one user.
type Notification struct {
	UserID        id.UserID
	Type          string
	MessageKey    string
	MessageParams map[string]string
	Role          string
	Module        string
	LanguageCode  string
}

// BroadcastEvent describes a realtime event on a channel.
type BroadcastEvent struct {
	Channel string
	Event   string
	Payload any
}

// PointsAward describes a gamification point award.
type PointsAward struct {
	UserID   id.UserID
	Action   string
	Points   int
	Metadata map[string]string
}

// PointsRecord is the ledger entry returned by the points collaborator.
// It is rendered into response envelopes, hence the JSON tags.
type PointsRecord struct {
	UserID    id.UserID `json:"userId"`
	Action    string    `json:"action"`
	Points    int       `json:"points"`
	Total     int       `json:"total"`
	AwardedAt time.Time `json:"awardedAt"`
}

// AuditEffect wraps an AuditRecord into a Descriptor.
func AuditEffect(rec AuditRecord) Descriptor {
	return Descriptor{Kind: KindAudit, Audit: &rec}
}

// NotifyEffect wraps a Notification into a Descriptor.
func NotifyEffect(n Notification) Descriptor {
	return Descriptor{Kind: KindNotify, Notify: &n}
}

// BroadcastEffect wraps a BroadcastEvent into a Descriptor.
func BroadcastEffect(ev BroadcastEvent) Descriptor {
	return Descriptor{Kind: KindBroadcast, Broadcast: &ev}
}

// PointsEffect wraps a PointsAward into a Descriptor.
func PointsEffect(a PointsAward) Descriptor {
	return Descriptor{Kind: KindPoints, Points: &a}
}
