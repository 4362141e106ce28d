// Package broadcast emits realtime events over Redis pub/sub. Socket
// gateway instances subscribe to venue and order channels and forward
// events to connected clients. Emission is fire-and-forget.
package broadcast

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	platformredis "vendora/internal/platform/redis"
)

// envelope is the published wire format.
type envelope struct {
	Event   string    `json:"event"`
	Payload any       `json:"payload,omitempty"`
	At      time.Time `json:"at"`
}

// RedisBroadcaster publishes events to Redis channels.
type RedisBroadcaster struct {
	client *platformredis.Client
	logger *slog.Logger
}

// NewRedisBroadcaster creates the production broadcaster.
func NewRedisBroadcaster(client *platformredis.Client, logger *slog.Logger) *RedisBroadcaster {
	return &RedisBroadcaster{client: client, logger: logger}
}

// Emit implements orchestrator.Broadcaster.
func (b *RedisBroadcaster) Emit(ctx context.Context, channel, event string, payload any) error {
	body, err := json.Marshal(envelope{Event: event, Payload: payload, At: time.Now()})
	if err != nil {
		return fmt.Errorf("marshal broadcast envelope: %w", err)
	}
	if err := b.client.Publish(ctx, channel, body).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", channel, err)
	}
	return nil
}

// Emitted is one recorded event, kept by the memory broadcaster.
type Emitted struct {
	Channel string
	Event   string
	Payload any
}

// MemoryBroadcaster records events for tests and redis-less local
// development.
type MemoryBroadcaster struct {
	mu     sync.Mutex
	events []Emitted
}

// NewMemoryBroadcaster creates an empty in-memory broadcaster.
func NewMemoryBroadcaster() *MemoryBroadcaster {
	return &MemoryBroadcaster{}
}

// Emit implements orchestrator.Broadcaster.
func (b *MemoryBroadcaster) Emit(ctx context.Context, channel, event string, payload any) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, Emitted{Channel: channel, Event: event, Payload: payload})
	return nil
}

// Events returns a copy of everything emitted so far.
func (b *MemoryBroadcaster) Events() []Emitted {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Emitted(nil), b.events...)
}

// VenueChannel names the realtime channel for one venue.
func VenueChannel(venueID string) string { return "venue:" + venueID }

// OrderChannel names the realtime channel for one pre-order.
func OrderChannel(orderID string) string { return "order:" + orderID }
