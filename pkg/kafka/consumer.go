// Package kafka publishes query events and reads them back for aggregation,
// both on segmentio/kafka-go.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Adithya-Monish-Kumar-K/corpus-qa/pkg/config"
)

// commitEvery is how many handled messages are committed together.
const commitEvery = 100

// MessageHandler processes one message. An error is logged and the message
// is still committed, so a poison message is not redelivered forever.
type MessageHandler func(ctx context.Context, key, value []byte) error

type Consumer struct {
	reader  *kafka.Reader
	handler MessageHandler
	logger  *slog.Logger

	handled atomic.Int64
	failed  atomic.Int64
}

// NewConsumer joins cfg.ConsumerGroup on cfg.Topic. With fromStart a group
// seen for the first time starts at the oldest retained message instead of
// the newest.
func NewConsumer(cfg config.AnalyticsConfig, fromStart bool, handler MessageHandler) *Consumer {
	rc := kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		Topic:       cfg.Topic,
		GroupID:     cfg.ConsumerGroup,
		MaxBytes:    10 << 20,
		MaxWait:     500 * time.Millisecond,
		StartOffset: kafka.LastOffset,
	}
	if fromStart {
		rc.StartOffset = kafka.FirstOffset
	}
	return &Consumer{
		reader:  kafka.NewReader(rc),
		handler: handler,
		logger:  slog.Default().With("component", "kafka-consumer", "topic", cfg.Topic, "group", cfg.ConsumerGroup),
	}
}

// Run feeds messages to the handler until ctx ends, commits what was handled
// and closes the reader. Ending ctx is a clean stop.
func (c *Consumer) Run(ctx context.Context) (err error) {
	pending := make([]kafka.Message, 0, commitEvery)
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		c.commit(flushCtx, pending)
		err = errors.Join(err, c.reader.Close())
		c.logger.Info("consumer stopped", "handled", c.Handled(), "failed", c.Failed())
	}()

	for {
		msg, fetchErr := c.reader.FetchMessage(ctx)
		switch {
		case fetchErr == nil:
		case ctx.Err() != nil, errors.Is(fetchErr, kafka.ErrGroupClosed):
			return nil
		default:
			return fmt.Errorf("fetching message: %w", fetchErr)
		}

		if herr := c.handler(ctx, msg.Key, msg.Value); herr != nil {
			c.failed.Add(1)
			c.logger.Warn("message handler failed",
				"partition", msg.Partition,
				"offset", msg.Offset,
				"error", herr,
			)
		}
		c.handled.Add(1)
		pending = append(pending, msg)
		if len(pending) >= commitEvery {
			c.commit(ctx, pending)
			pending = pending[:0]
		}
	}
}

func (c *Consumer) commit(ctx context.Context, msgs []kafka.Message) {
	if len(msgs) == 0 {
		return
	}
	if err := c.reader.CommitMessages(ctx, msgs...); err != nil {
		last := msgs[len(msgs)-1]
		c.logger.Error("commit failed", "count", len(msgs), "last_offset", last.Offset, "error", err)
	}
}

// Handled counts messages passed to the handler, failures included.
func (c *Consumer) Handled() int64 { return c.handled.Load() }

func (c *Consumer) Failed() int64 { return c.failed.Load() }

// DecodeJSON unmarshals a message value into T.
func DecodeJSON[T any](value []byte) (T, error) {
	var v T
	if err := json.Unmarshal(value, &v); err != nil {
		return v, fmt.Errorf("decoding kafka message: %w", err)
	}
	return v, nil
}
