package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Adithya-Monish-Kumar-K/corpus-qa/pkg/config"
)

// Event is one message to publish. Key picks the partition and Value is
// JSON-encoded.
type Event struct {
	Key   string
	Value any
}

// Producer writes JSON events to the analytics topic. Writes are synchronous;
// the analytics collector does its own batching.
type Producer struct {
	writer *kafka.Writer
	logger *slog.Logger
}

func NewProducer(cfg config.AnalyticsConfig) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(cfg.Brokers...),
			Topic:                  cfg.Topic,
			Balancer:               &kafka.Hash{},
			BatchSize:              max(cfg.BatchSize, 1),
			BatchTimeout:           10 * time.Millisecond,
			MaxAttempts:            3,
			RequiredAcks:           kafka.RequireOne,
			Compression:            kafka.Snappy,
			AllowAutoTopicCreation: true,
		},
		logger: slog.Default().With("component", "kafka-producer", "topic", cfg.Topic),
	}
}

// PublishBatch encodes events and writes them in one call. Nothing is written
// if any event fails to encode.
func (p *Producer) PublishBatch(ctx context.Context, events []Event) error {
	msgs, err := encode(events)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("writing %d messages: %w", len(msgs), err)
	}
	p.logger.Debug("published", "count", len(msgs))
	return nil
}

func encode(events []Event) ([]kafka.Message, error) {
	msgs := make([]kafka.Message, len(events))
	for i, e := range events {
		value, err := json.Marshal(e.Value)
		if err != nil {
			return nil, fmt.Errorf("encoding event %q: %w", e.Key, err)
		}
		msgs[i] = kafka.Message{Key: []byte(e.Key), Value: value}
	}
	return msgs, nil
}

// Close flushes pending writes and logs the writer's lifetime totals.
func (p *Producer) Close() error {
	err := p.writer.Close()
	st := p.writer.Stats()
	p.logger.Info("producer closed", "messages", st.Messages, "errors", st.Errors)
	return err
}
