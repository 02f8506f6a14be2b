// Package events publishes settlement outcomes for downstream consumers
// (accounting, emails). Publication is best-effort.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	model "timed-auction/internal/models"

	"github.com/segmentio/kafka-go"
)

// DefaultSettlementTopic is used when no topic is configured
const DefaultSettlementTopic = "auction.settlements"

// Publisher announces settlements
type Publisher interface {
	PublishSettlement(ctx context.Context, s model.Settlement) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes one JSON message per settlement keyed by good id, so
// every event for a good lands on the same partition
type KafkaPublisher struct {
	writer messageWriter
}

// NewWriter creates a kafka writer for the settlement topic
func NewWriter(brokers []string, topic string) *kafka.Writer {
	if topic == "" {
		topic = DefaultSettlementTopic
	}
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
		WriteTimeout:           10 * time.Second,
	}
}

// NewKafkaPublisher wraps a writer such as the one returned by NewWriter
func NewKafkaPublisher(w messageWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: w}
}

// PublishSettlement sends s to the topic
func (p *KafkaPublisher) PublishSettlement(ctx context.Context, s model.Settlement) error {
	b, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("events: marshal settlement for good %s: %w", s.GoodID, err)
	}
	msg := kafka.Message{
		Key:   []byte(s.GoodID),
		Value: b,
		Time:  s.SettledAt,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("events: publish settlement for good %s: %w", s.GoodID, err)
	}
	return nil
}

// Close flushes and closes the writer
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NopPublisher drops every settlement
type NopPublisher struct{}

// PublishSettlement does nothing
func (NopPublisher) PublishSettlement(context.Context, model.Settlement) error { return nil }

// Close does nothing
func (NopPublisher) Close() error { return nil }
