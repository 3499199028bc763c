package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/example/plant-shop/internal/events"
	"github.com/segmentio/kafka-go"
)

// Producer writes plant shop events to one topic. Messages are keyed by
// aggregate ID so a user's cart changes, or a plant's lifecycle, stay in
// order within their partition.
type Producer struct {
	writer *kafka.Writer
}

var _ events.Publisher = (*Producer)(nil)

func NewProducer(brokers []string, topic string) *Producer {
	return &Producer{writer: &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           10 * time.Millisecond,
		WriteTimeout:           5 * time.Second,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}}
}

// Publish blocks until the broker acknowledges the write
func (p *Producer) Publish(ctx context.Context, event events.Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return err
	}
	msg := kafka.Message{
		Key:   []byte(event.AggregateID),
		Value: value,
		Time:  event.Timestamp,
		Headers: []kafka.Header{
			{Key: "aggregate_type", Value: []byte(event.AggregateType)},
			{Key: "event_type", Value: []byte(event.EventType)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s: %w", event.EventType, err)
	}
	return nil
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
