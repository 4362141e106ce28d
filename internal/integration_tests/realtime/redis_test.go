//go:build integration

package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vendora/internal/broadcast"
	platformredis "vendora/internal/platform/redis"
	"vendora/pkg/testutil/containers"
)

func TestRedisBroadcaster_DeliversEnvelopeToSubscriber(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	ctx := context.Background()

	channel := broadcast.VenueChannel("venue-42")
	sub := rc.Client.Subscribe(ctx, channel)
	t.Cleanup(func() { _ = sub.Close() })

	// Wait for the subscription before publishing.
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	broadcaster := broadcast.NewRedisBroadcaster(&platformredis.Client{Client: rc.Client}, slog.New(slog.DiscardHandler))
	require.NoError(t, broadcaster.Emit(ctx, channel, "booking_confirmed", map[string]string{"bookingId": "b-1"}))

	select {
	case msg := <-sub.Channel():
		var envelope struct {
			Event   string            `json:"event"`
			Payload map[string]string `json:"payload"`
			At      time.Time         `json:"at"`
		}
		require.NoError(t, json.Unmarshal([]byte(msg.Payload), &envelope))
		assert.Equal(t, "booking_confirmed", envelope.Event)
		assert.Equal(t, "b-1", envelope.Payload["bookingId"])
		assert.False(t, envelope.At.IsZero())
	case <-time.After(5 * time.Second):
		t.Fatal("no broadcast received within 5s")
	}
}
