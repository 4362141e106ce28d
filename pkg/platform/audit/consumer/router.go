package consumer

import (
	"context"
	"log/slog"

	kafkaconsumer "vendora/internal/platform/kafka/consumer"
)

// Router dispatches messages to topic-specific handlers. Use this when
// consuming from multiple topics with one group consumer.
type Router struct {
	handlers map[string]kafkaconsumer.Handler
	fallback kafkaconsumer.Handler
	logger   *slog.Logger
}

// NewRouter creates a topic router with an optional fallback handler.
func NewRouter(logger *slog.Logger, fallback kafkaconsumer.Handler) *Router {
	return &Router{
		handlers: make(map[string]kafkaconsumer.Handler),
		fallback: fallback,
		logger:   logger,
	}
}

// Register adds a handler for a specific topic.
func (r *Router) Register(topic string, handler kafkaconsumer.Handler) {
	r.handlers[topic] = handler
}

// Handle routes the message to the appropriate topic handler.
func (r *Router) Handle(ctx context.Context, msg *kafkaconsumer.Message) error {
	handler, ok := r.handlers[msg.Topic]
	if !ok {
		if r.fallback != nil {
			return r.fallback.Handle(ctx, msg)
		}
		r.logger.Warn("no handler for topic, skipping message",
			"topic", msg.Topic,
			"key", string(msg.Key),
		)
		return nil // commit to avoid redelivery
	}
	return handler.Handle(ctx, msg)
}
