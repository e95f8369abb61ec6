// Package notify forwards committed verification transitions to the
// notification collaborator.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"carematch/internal/platform/kafka"
	"carematch/internal/verification/models"
)

const publishTimeout = 5 * time.Second

// Publisher is the slice of the Kafka producer the notifier needs.
type Publisher interface {
	Publish(ctx context.Context, topic string, key, value []byte, headers ...kafka.Header) error
}

// KafkaNotifier publishes one record per transition, keyed by provider so a
// provider's transitions stay ordered within a partition.
type KafkaNotifier struct {
	publisher Publisher
	topic     string
}

func NewKafkaNotifier(publisher Publisher, topic string) (*KafkaNotifier, error) {
	if publisher == nil {
		return nil, errors.New("publisher is required")
	}
	if topic == "" {
		return nil, errors.New("transitions topic is required")
	}
	return &KafkaNotifier{publisher: publisher, topic: topic}, nil
}

func (n *KafkaNotifier) Publish(ctx context.Context, events []models.TransitionEvent) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	var errs []error
	for _, ev := range events {
		payload, err := json.Marshal(ev)
		if err != nil {
			errs = append(errs, fmt.Errorf("encode transition: %w", err))
			continue
		}
		err = n.publisher.Publish(ctx, n.topic, []byte(ev.ProviderID.String()), payload,
			kafka.Header{Key: "stage", Value: []byte(ev.Stage)},
			kafka.Header{Key: "to", Value: []byte(ev.To)},
		)
		if err != nil {
			errs = append(errs, fmt.Errorf("publish %s transition: %w", ev.Stage, err))
		}
	}
	return errors.Join(errs...)
}

// LogNotifier writes transitions to the log. Used when no broker is configured.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Publish(ctx context.Context, events []models.TransitionEvent) error {
	for _, ev := range events {
		n.logger.InfoContext(ctx, "notification",
			"provider_id", ev.ProviderID.String(),
			"stage", ev.Stage,
			"from", ev.From,
			"to", ev.To,
			"reason", ev.Reason,
		)
	}
	return nil
}
