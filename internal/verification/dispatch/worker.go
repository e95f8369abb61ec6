package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"carematch/internal/verification/metrics"
	"carematch/internal/verification/models"
	"carematch/internal/verification/ports"
	dErrors "carematch/pkg/domain-errors"
)

const (
	defaultMaxAttempts    = 3
	defaultBaseBackoff    = 2 * time.Second
	defaultAttemptTimeout = 90 * time.Second
	maxBackoff            = 30 * time.Second
)

// errAttemptTimedOut marks an extraction whose last attempt ran out of time.
var errAttemptTimedOut = errors.New("extraction attempt timed out")

// VerdictWriter is the part of the verification service the worker writes through.
type VerdictWriter interface {
	MarkProcessing(ctx context.Context, job models.ExtractionJob) error
	ApplyVerdict(ctx context.Context, job models.ExtractionJob, result *models.ExtractionResult) (*models.Record, error)
	ApplyExtractionFailure(ctx context.Context, job models.ExtractionJob, cause error) (*models.Record, error)
}

// Worker runs extraction jobs: it marks the stage processing, calls the
// collaborator with a per-attempt deadline and retries, then writes the verdict
// back under the record's guard.
type Worker struct {
	extractor      ports.Extractor
	verdicts       VerdictWriter
	logger         *slog.Logger
	metrics        *metrics.Metrics
	tracer         trace.Tracer
	concurrency    int
	maxAttempts    int
	baseBackoff    time.Duration
	attemptTimeout time.Duration
}

type Option func(*Worker)

func WithLogger(logger *slog.Logger) Option {
	return func(w *Worker) {
		w.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(w *Worker) {
		w.metrics = m
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(w *Worker) {
		w.tracer = t
	}
}

// WithConcurrency sets how many jobs Run handles at once.
func WithConcurrency(n int) Option {
	return func(w *Worker) {
		if n > 0 {
			w.concurrency = n
		}
	}
}

// WithRetry sets the attempt budget and the base of the exponential backoff.
func WithRetry(maxAttempts int, baseBackoff time.Duration) Option {
	return func(w *Worker) {
		if maxAttempts > 0 {
			w.maxAttempts = maxAttempts
		}
		if baseBackoff > 0 {
			w.baseBackoff = baseBackoff
		}
	}
}

// WithAttemptTimeout bounds each call to the extraction collaborator.
func WithAttemptTimeout(d time.Duration) Option {
	return func(w *Worker) {
		if d > 0 {
			w.attemptTimeout = d
		}
	}
}

func NewWorker(extractor ports.Extractor, verdicts VerdictWriter, opts ...Option) (*Worker, error) {
	if extractor == nil {
		return nil, errors.New("extractor is required")
	}
	if verdicts == nil {
		return nil, errors.New("verdict writer is required")
	}
	w := &Worker{
		extractor:      extractor,
		verdicts:       verdicts,
		logger:         slog.Default(),
		tracer:         otel.Tracer("carematch/verification/dispatch"),
		concurrency:    1,
		maxAttempts:    defaultMaxAttempts,
		baseBackoff:    defaultBaseBackoff,
		attemptTimeout: defaultAttemptTimeout,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Run drains jobs with the configured concurrency until ctx is cancelled or the
// channel is closed. Jobs that fail to write back are logged and dropped; the
// stage stays in flight and the provider may resubmit.
func (w *Worker) Run(ctx context.Context, jobs <-chan models.ExtractionJob) error {
	g, ctx := errgroup.WithContext(ctx)
	for range w.concurrency {
		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return nil
				case job, ok := <-jobs:
					if !ok {
						return nil
					}
					if err := w.Handle(ctx, job); err != nil && ctx.Err() == nil {
						w.logger.ErrorContext(ctx, "extraction job dropped",
							"provider_id", job.ProviderID.String(),
							"submission_id", job.SubmissionID.String(),
							"phase", string(job.Phase),
							"error", err,
						)
					}
				}
			}
		})
	}
	return g.Wait()
}

// Handle processes one job. It returns an error only when the outcome could not
// be written and the job should be redelivered. Superseded jobs are dropped.
func (w *Worker) Handle(ctx context.Context, job models.ExtractionJob) (err error) {
	ctx, span := w.tracer.Start(ctx, "verification.extraction_job", trace.WithAttributes(
		attribute.String("verification.phase", string(job.Phase)),
		attribute.String("verification.submission_id", job.SubmissionID.String()),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "extraction job failed")
		}
		span.End()
	}()

	if err := w.verdicts.MarkProcessing(ctx, job); err != nil {
		if errors.Is(err, models.ErrSuperseded) {
			span.AddEvent("superseded before processing")
			return nil
		}
		return err
	}

	result, err := w.extract(ctx, job)
	switch {
	case err == nil:
		_, err = w.verdicts.ApplyVerdict(ctx, job, result)
	case errors.Is(err, errAttemptTimedOut):
		w.logger.WarnContext(ctx, "extraction timed out, stage left processing",
			"provider_id", job.ProviderID.String(),
			"phase", string(job.Phase),
		)
		return nil
	case ctx.Err() != nil:
		return ctx.Err()
	default:
		_, err = w.verdicts.ApplyExtractionFailure(ctx, job, err)
	}
	if errors.Is(err, models.ErrSuperseded) {
		span.AddEvent("superseded before write-back")
		return nil
	}
	return err
}

// extract calls the collaborator with retries. Coded errors that are not
// retryable end the loop immediately.
func (w *Worker) extract(ctx context.Context, job models.ExtractionJob) (*models.ExtractionResult, error) {
	var lastErr error
	for attempt := 1; attempt <= w.maxAttempts; attempt++ {
		if attempt > 1 {
			w.metrics.IncRetry(string(job.Phase))
			if err := sleep(ctx, w.backoff(attempt)); err != nil {
				return nil, err
			}
		}

		result, err := w.attempt(ctx, job)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		w.logger.WarnContext(ctx, "extraction attempt failed",
			"provider_id", job.ProviderID.String(),
			"phase", string(job.Phase),
			"attempt", attempt,
			"error", err,
		)
		if !retryable(err) {
			return nil, err
		}
	}
	if isTimeout(lastErr) {
		return nil, errAttemptTimedOut
	}
	return nil, lastErr
}

func (w *Worker) attempt(ctx context.Context, job models.ExtractionJob) (*models.ExtractionResult, error) {
	ctx, cancel := context.WithTimeout(ctx, w.attemptTimeout)
	defer cancel()

	start := time.Now()
	result, err := w.extractor.ExtractAndJudge(ctx, job)
	switch {
	case err == nil && result == nil:
		err = dErrors.New(dErrors.CodeUnavailable, "extraction returned no verdict")
		w.metrics.ObserveExtraction(string(job.Phase), "error", start)
	case err == nil:
		w.metrics.ObserveExtraction(string(job.Phase), "ok", start)
	case isTimeout(err):
		w.metrics.ObserveExtraction(string(job.Phase), "timeout", start)
	default:
		w.metrics.ObserveExtraction(string(job.Phase), "error", start)
	}
	return result, err
}

func (w *Worker) backoff(attempt int) time.Duration {
	d := w.baseBackoff << (attempt - 2)
	if d <= 0 || d > maxBackoff {
		return maxBackoff
	}
	return d
}

func retryable(err error) bool {
	if _, ok := dErrors.As(err); ok {
		return dErrors.IsRetryable(err)
	}
	return true
}

func isTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || dErrors.HasCode(err, dErrors.CodeTimeout)
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
