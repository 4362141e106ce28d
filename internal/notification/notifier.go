// Package notification delivers user-facing messages through Kafka. The
// fan-out treats delivery as best-effort: a failed dispatch is logged and
// surfaced as a warning, never as a request failure.
package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"vendora/pkg/platform/orchestrator"
	"vendora/pkg/requestcontext"
)

// Producer is the slice of the Kafka producer the notifier needs.
type Producer interface {
	Produce(ctx context.Context, topic string, key, value []byte) error
}

// KafkaNotifier publishes notification payloads to the notification topic,
// keyed by recipient so one user's notifications stay ordered.
type KafkaNotifier struct {
	producer Producer
	topic    string
	logger   *slog.Logger
}

// NewKafkaNotifier creates the production notifier.
func NewKafkaNotifier(producer Producer, topic string, logger *slog.Logger) *KafkaNotifier {
	return &KafkaNotifier{producer: producer, topic: topic, logger: logger}
}

// payload is the wire format consumed by the delivery workers downstream.
type payload struct {
	UserID        string            `json:"user_id"`
	Type          string            `json:"type"`
	MessageKey    string            `json:"message_key"`
	MessageParams map[string]string `json:"message_params,omitempty"`
	Role          string            `json:"role,omitempty"`
	Module        string            `json:"module,omitempty"`
	LanguageCode  string            `json:"language_code"`
}

// SendNotification implements orchestrator.Notifier.
func (n *KafkaNotifier) SendNotification(ctx context.Context, notif orchestrator.Notification) error {
	if notif.UserID.IsNil() {
		return fmt.Errorf("notification requires a recipient")
	}
	lang := notif.LanguageCode
	if lang == "" {
		lang = requestcontext.Locale(ctx)
	}
	body, err := json.Marshal(payload{
		UserID:        notif.UserID.String(),
		Type:          notif.Type,
		MessageKey:    notif.MessageKey,
		MessageParams: notif.MessageParams,
		Role:          notif.Role,
		Module:        notif.Module,
		LanguageCode:  lang,
	})
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	if err := n.producer.Produce(ctx, n.topic, []byte(notif.UserID.String()), body); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}

// MemoryNotifier records notifications for tests and broker-less local
// development.
type MemoryNotifier struct {
	mu   sync.Mutex
	sent []orchestrator.Notification
}

// NewMemoryNotifier creates an empty in-memory notifier.
func NewMemoryNotifier() *MemoryNotifier {
	return &MemoryNotifier{}
}

// SendNotification implements orchestrator.Notifier.
func (n *MemoryNotifier) SendNotification(ctx context.Context, notif orchestrator.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, notif)
	return nil
}

// Sent returns a copy of everything delivered so far.
func (n *MemoryNotifier) Sent() []orchestrator.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]orchestrator.Notification(nil), n.sent...)
}
