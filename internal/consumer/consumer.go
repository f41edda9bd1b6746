// Package consumer provides Kafka consumer functionality for the event topics.
package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/segmentio/kafka-go"

	"notification-service/internal/events"
	kafkautil "notification-service/pkg/kafka"
)

// Consumer wraps a consumer-group Kafka reader subscribed to every event
// topic and decodes the JSON event envelope.
type Consumer struct {
	reader *kafka.Reader
	topics []string
}

// NewConsumer creates a Kafka consumer for the given brokers, topics, and
// group ID. The consumer is configured for at-least-once delivery semantics.
func NewConsumer(brokers string, topics []string, groupID string) (*Consumer, error) {
	if err := kafkautil.ValidateConsumerParams(brokers, topics, groupID); err != nil {
		return nil, err
	}

	brokerList := kafkautil.ParseBrokers(brokers)

	slog.Info("Initializing Kafka consumer",
		"brokers", brokerList,
		"topics", topics,
		"group_id", groupID,
	)

	// StartOffset only applies when no committed offset exists for the
	// consumer group. FirstOffset ensures we read all messages when
	// starting fresh.
	reader := kafka.NewReader(kafkautil.NewGroupReaderConfig(brokerList, topics, groupID))

	slog.Info("Kafka consumer configured",
		"min_bytes", 1,
		"max_bytes", 10e6,
		"max_wait", kafkautil.MaxPollWait,
		"commit_interval", kafkautil.CommitInterval,
	)

	return &Consumer{
		reader: reader,
		topics: topics,
	}, nil
}

// ReadMessage reads the next message and decodes it as an Event. The raw
// message is returned alongside the event so callers can commit it; on a
// decode failure the message is still returned so the offset can advance
// past the malformed payload.
func (c *Consumer) ReadMessage(ctx context.Context) (*events.Event, *kafka.Message, error) {
	msg, err := c.reader.ReadMessage(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read message from Kafka: %w", err)
	}

	var event events.Event
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return nil, &msg, fmt.Errorf("failed to unmarshal event from topic %s: %w", msg.Topic, err)
	}

	return &event, &msg, nil
}

// CommitMessage commits the offset for the given message.
// This should be called after the message has been handled.
func (c *Consumer) CommitMessage(ctx context.Context, msg *kafka.Message) error {
	return c.reader.CommitMessages(ctx, *msg)
}

// Close gracefully closes the Kafka reader and releases resources.
func (c *Consumer) Close() error {
	slog.Info("Closing Kafka consumer", "topics", c.topics)
	if err := c.reader.Close(); err != nil {
		slog.Error("Error closing Kafka consumer", "error", err)
		return err
	}
	slog.Info("Kafka consumer closed successfully")
	return nil
}
