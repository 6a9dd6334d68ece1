// Package kafka publishes signal lifecycle events to a Kafka topic.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/newthinker/sentinel/internal/core"
)

// Config configures the Kafka publisher.
type Config struct {
	Enabled      bool          `mapstructure:"enabled" json:"enabled"`
	Brokers      []string      `mapstructure:"brokers" json:"brokers" validate:"required_if=Enabled true"`
	Topic        string        `mapstructure:"topic" json:"topic" default:"sentinel.signals"`
	Compression  string        `mapstructure:"compression" json:"compression" default:"gzip" validate:"omitempty,oneof=none gzip snappy lz4 zstd"`
	MaxAttempts  int           `mapstructure:"max_attempts" json:"max_attempts" default:"3"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" json:"write_timeout" default:"10s"`
}

// messageWriter is the subset of *kafka.Writer the publisher uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher writes each event as one JSON message keyed by symbol, so all
// events of an asset land on the same partition in order.
type Publisher struct {
	writer messageWriter
	topic  string
}

// New creates a publisher writing to cfg.Topic.
func New(cfg Config) (*Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka: brokers are required")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("kafka: topic is required")
	}
	attempts := cfg.MaxAttempts
	if attempts <= 0 {
		attempts = 3
	}
	timeout := cfg.WriteTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Compression:  parseCompression(cfg.Compression),
		MaxAttempts:  attempts,
		WriteTimeout: timeout,
		BatchTimeout: 10 * time.Millisecond,
	}
	return newPublisher(w, cfg.Topic), nil
}

func newPublisher(w messageWriter, topic string) *Publisher {
	return &Publisher{writer: w, topic: topic}
}

func (p *Publisher) Name() string { return "kafka" }

// Send publishes one event.
func (p *Publisher) Send(ctx context.Context, event core.Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("kafka: marshal event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.Signal.Symbol),
		Value: value,
		Time:  event.Time,
		Headers: []kafka.Header{
			{Key: "kind", Value: []byte(event.Kind)},
			{Key: "event_id", Value: []byte(event.ID)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return core.WrapError(core.ErrPublishFailed, fmt.Errorf("kafka topic %s: %w", p.topic, err))
	}
	return nil
}

// Close flushes pending messages and releases connections.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

func parseCompression(s string) kafka.Compression {
	switch s {
	case "none":
		return 0
	case "snappy":
		return kafka.Snappy
	case "lz4":
		return kafka.Lz4
	case "zstd":
		return kafka.Zstd
	default:
		return kafka.Gzip
	}
}
