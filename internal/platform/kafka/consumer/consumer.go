package consumer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"
)

// Message is the transport-agnostic record handed to topic handlers.
type Message struct {
	Topic string
	Key   []byte
	Value []byte
}

// Handler processes one message. Returning an error leaves the record
// unmarked so it is redelivered; returning nil commits it.
type Handler interface {
	Handle(ctx context.Context, msg *Message) error
}

// Consumer runs a Kafka group consumer and dispatches records to a handler.
type Consumer struct {
	client  *kgo.Client
	handler Handler
	logger  *slog.Logger
}

// New joins the consumer group on the given topics.
func New(brokers []string, group string, topics []string, handler Handler, logger *slog.Logger) (*Consumer, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ConsumerGroup(group),
		kgo.ConsumeTopics(topics...),
		kgo.AutoCommitMarks(),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka consumer: %w", err)
	}
	return &Consumer{client: client, handler: handler, logger: logger}, nil
}

// Run polls until the context is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	defer c.client.Close()
	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			c.logger.Error("kafka fetch error",
				"topic", topic,
				"partition", partition,
				"error", err,
			)
		})
		fetches.EachRecord(func(record *kgo.Record) {
			msg := &Message{Topic: record.Topic, Key: record.Key, Value: record.Value}
			if err := c.handler.Handle(ctx, msg); err != nil {
				c.logger.Error("message handling failed, will redeliver",
					"topic", record.Topic,
					"key", string(record.Key),
					"error", err,
				)
				return
			}
			c.client.MarkCommitRecords(record)
		})
	}
}
