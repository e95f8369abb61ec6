// Package dispatch moves extraction jobs from the submission write to the
// workers that call the extraction collaborator and write verdicts back.
//
// Dispatchers are called inside the record write, so they must never block on
// the workers: a full queue is reported as unavailable and the submission is
// not saved.
package dispatch

import (
	"context"
	"fmt"

	"carematch/internal/verification/models"
	"carematch/pkg/platform/sentinel"
)

// ErrQueueFull is returned when the in-process queue cannot take another job.
var ErrQueueFull = fmt.Errorf("extraction queue is full: %w", sentinel.ErrUnavailable)

// ChannelDispatcher queues jobs on a buffered channel drained by Worker.Run.
type ChannelDispatcher struct {
	jobs chan models.ExtractionJob
}

func NewChannelDispatcher(size int) *ChannelDispatcher {
	if size <= 0 {
		size = 1
	}
	return &ChannelDispatcher{jobs: make(chan models.ExtractionJob, size)}
}

// Dispatch enqueues the job without waiting for room.
func (d *ChannelDispatcher) Dispatch(ctx context.Context, job models.ExtractionJob) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	select {
	case d.jobs <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

// Jobs is the receive side for workers.
func (d *ChannelDispatcher) Jobs() <-chan models.ExtractionJob {
	return d.jobs
}
