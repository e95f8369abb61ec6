// Package consumer runs a franz-go consumer group and hands records to a Handler.
package consumer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"carematch/internal/platform/config"
)

// Message is the transport-neutral view of a consumed record.
type Message struct {
	Topic     string
	Partition int32
	Offset    int64
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Timestamp time.Time
}

// Handler processes one message. A returned error stops the partition's progress
// so the record is redelivered; malformed messages should return nil.
type Handler interface {
	Handle(ctx context.Context, msg *Message) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, msg *Message) error

func (f HandlerFunc) Handle(ctx context.Context, msg *Message) error { return f(ctx, msg) }

// Consumer reads topics as part of a consumer group and commits after handling.
type Consumer struct {
	client  *kgo.Client
	handler Handler
	logger  *slog.Logger
	backoff time.Duration
}

// New joins the configured consumer group for the given topics.
func New(cfg config.KafkaConfig, handler Handler, logger *slog.Logger, topics ...string) (*Consumer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka brokers are required")
	}
	if handler == nil {
		return nil, errors.New("handler is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ClientID(cfg.ClientID),
		kgo.ConsumerGroup(cfg.ConsumerGroup),
		kgo.ConsumeTopics(topics...),
		kgo.DisableAutoCommit(),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka consumer: %w", err)
	}
	return &Consumer{client: client, handler: handler, logger: logger, backoff: time.Second}, nil
}

// Run polls until ctx is cancelled. Each record is retried in place until the
// handler succeeds, and offsets are committed only for handled records.
func (c *Consumer) Run(ctx context.Context) error {
	defer c.client.Close()
	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() || ctx.Err() != nil {
			return nil
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			c.logger.ErrorContext(ctx, "kafka fetch error",
				"topic", topic,
				"partition", partition,
				"error", err,
			)
		})

		var handled []*kgo.Record
		fetches.EachRecord(func(record *kgo.Record) {
			if ctx.Err() != nil {
				return
			}
			if c.handle(ctx, record) {
				handled = append(handled, record)
			}
		})

		if len(handled) > 0 {
			if err := c.client.CommitRecords(ctx, handled...); err != nil && ctx.Err() == nil {
				c.logger.ErrorContext(ctx, "failed to commit kafka offsets", "error", err)
			}
		}
	}
}

// handle retries one record until it is handled or ctx is cancelled.
func (c *Consumer) handle(ctx context.Context, record *kgo.Record) bool {
	msg := toMessage(record)
	for {
		err := c.handler.Handle(ctx, msg)
		if err == nil {
			return true
		}
		c.logger.ErrorContext(ctx, "failed to handle kafka message",
			"topic", record.Topic,
			"partition", record.Partition,
			"offset", record.Offset,
			"error", err,
		)
		select {
		case <-ctx.Done():
			return false
		case <-time.After(c.backoff):
		}
	}
}

func toMessage(record *kgo.Record) *Message {
	msg := &Message{
		Topic:     record.Topic,
		Partition: record.Partition,
		Offset:    record.Offset,
		Key:       record.Key,
		Value:     record.Value,
		Timestamp: record.Timestamp,
	}
	if len(record.Headers) > 0 {
		msg.Headers = make(map[string]string, len(record.Headers))
		for _, h := range record.Headers {
			msg.Headers[h.Key] = string(h.Value)
		}
	}
	return msg
}
