package dispatch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"carematch/internal/platform/kafka"
	"carematch/internal/platform/kafka/consumer"
	"carematch/internal/verification/models"
	"carematch/pkg/platform/sentinel"
)

const publishTimeout = 5 * time.Second

// Publisher is the producing side of the job topic.
type Publisher interface {
	Publish(ctx context.Context, topic string, key, value []byte, headers ...kafka.Header) error
}

// KafkaDispatcher publishes jobs to a topic keyed by provider, so one provider's
// jobs stay ordered on a single partition.
type KafkaDispatcher struct {
	publisher Publisher
	topic     string
}

func NewKafkaDispatcher(publisher Publisher, topic string) (*KafkaDispatcher, error) {
	if publisher == nil {
		return nil, errors.New("publisher is required")
	}
	if topic == "" {
		return nil, errors.New("jobs topic is required")
	}
	return &KafkaDispatcher{publisher: publisher, topic: topic}, nil
}

// Dispatch waits for the broker acknowledgement so an accepted submission always has a queued job.
func (d *KafkaDispatcher) Dispatch(ctx context.Context, job models.ExtractionJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode extraction job: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = d.publisher.Publish(ctx, d.topic, []byte(job.ProviderID.String()), payload,
		kafka.Header{Key: "phase", Value: []byte(job.Phase)},
		kafka.Header{Key: "submission_id", Value: []byte(job.SubmissionID.String())},
	)
	if err != nil {
		return fmt.Errorf("%w: %w", sentinel.ErrUnavailable, err)
	}
	return nil
}

// JobHandler feeds consumed job records to a Worker.
type JobHandler struct {
	worker *Worker
	logger *slog.Logger
}

func NewJobHandler(worker *Worker, logger *slog.Logger) *JobHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &JobHandler{worker: worker, logger: logger}
}

// Handle decodes and runs one job. Malformed records are logged and committed.
func (h *JobHandler) Handle(ctx context.Context, msg *consumer.Message) error {
	var job models.ExtractionJob
	if err := json.Unmarshal(msg.Value, &job); err != nil {
		h.logger.ErrorContext(ctx, "failed to decode extraction job",
			"topic", msg.Topic,
			"offset", msg.Offset,
			"error", err,
		)
		return nil
	}
	if job.ProviderID.IsNil() || job.SubmissionID.IsNil() {
		h.logger.ErrorContext(ctx, "extraction job missing identifiers",
			"topic", msg.Topic,
			"offset", msg.Offset,
		)
		return nil
	}
	return h.worker.Handle(ctx, job)
}
