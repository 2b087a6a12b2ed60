// Package kafka provides a Kafka-backed eventstream publisher.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/pensieveco/pensieve/pkg/eventstream"
	"github.com/pensieveco/pensieve/pkg/logger"
)

const (
	// DefaultTopic is the Kafka topic memory events are written to.
	DefaultTopic = "pensieve.memory.events"
)

// Config holds configuration for the Kafka publisher.
type Config struct {
	// Brokers is the list of Kafka broker addresses.
	Brokers []string

	// Topic overrides DefaultTopic when set.
	Topic string

	// Logger is optional; defaults to a nop logger.
	Logger *slog.Logger
}

// Publisher implements eventstream.Publisher on a Kafka topic. Events are
// keyed by memory ID so per-memory ordering is preserved within a partition.
type Publisher struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewPublisher creates a Kafka publisher for memory events.
func NewPublisher(c Config) (*Publisher, error) {
	if len(c.Brokers) == 0 {
		return nil, fmt.Errorf("at least one broker is required")
	}

	topic := c.Topic
	if topic == "" {
		topic = DefaultTopic
	}

	log := c.Logger
	if log == nil {
		log = logger.Nop()
	}

	writer := &kafkago.Writer{
		Addr:         kafkago.TCP(c.Brokers...),
		Topic:        topic,
		Balancer:     &kafkago.LeastBytes{},
		BatchTimeout: 50 * time.Millisecond,
		RequiredAcks: kafkago.RequireOne,
	}

	return &Publisher{
		writer: writer,
		logger: log.With("component", "eventstream.kafka"),
	}, nil
}

// Publish writes the event to the configured topic.
func (p *Publisher) Publish(ctx context.Context, event *eventstream.MemoryEvent) error {
	if event == nil {
		return eventstream.ErrNilEvent
	}

	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling event %s: %w", event.EventID, err)
	}

	msg := kafkago.Message{
		Key:   []byte(event.MemoryID),
		Value: value,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("writing event %s: %w", event.EventID, err)
	}

	p.logger.Debug("published memory event",
		"event_type", event.EventType,
		"memory_id", event.MemoryID,
	)

	return nil
}

// Close flushes and closes the underlying writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}
