// Package ops provides a best-effort, sampled audit tracker for routine
// pipeline activity. Tracking never fails the calling operation.
package ops

import (
	"context"
	"log/slog"
	"time"

	audit "carematch/pkg/platform/audit"
	"carematch/pkg/platform/circuit"
)

// Tracker records operational events. When the store keeps failing the
// breaker opens and events are dropped until the cooldown elapses.
type Tracker struct {
	store   audit.Store
	sampler *Sampler
	breaker *circuit.Breaker
	metrics *Metrics
	logger  *slog.Logger
	clock   func() time.Time
}

type Option func(*Tracker)

func WithLogger(logger *slog.Logger) Option {
	return func(t *Tracker) {
		t.logger = logger
	}
}

func WithMetrics(m *Metrics) Option {
	return func(t *Tracker) {
		t.metrics = m
	}
}

func WithSampler(s *Sampler) Option {
	return func(t *Tracker) {
		t.sampler = s
	}
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(t *Tracker) {
		t.breaker = b
	}
}

func New(store audit.Store, opts ...Option) *Tracker {
	t := &Tracker{
		store:   store,
		sampler: NewSampler(1, nil),
		breaker: circuit.New("audit_ops", circuit.WithFailureThreshold(5), circuit.WithCooldown(time.Minute)),
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Track records event if sampled and the store is healthy.
func (t *Tracker) Track(ctx context.Context, event audit.OpsEvent) {
	if t == nil || event.Action == "" {
		return
	}
	if !t.sampler.ShouldSample(event.Action) {
		t.metrics.record(event.Action, outcomeSkipped)
		return
	}
	if !t.breaker.Allow() {
		t.metrics.record(event.Action, outcomeShed)
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = t.clock()
	}

	if err := t.store.Append(ctx, event.ToEvent()); err != nil {
		t.metrics.record(event.Action, outcomeStoreFail)
		if _, change := t.breaker.RecordFailure(); change.Opened {
			t.metrics.breakerOpen(true)
			if t.logger != nil {
				t.logger.WarnContext(ctx, "ops audit circuit opened", "error", err)
			}
		}
		return
	}
	if _, change := t.breaker.RecordSuccess(); change.Closed {
		t.metrics.breakerOpen(false)
	}
	t.metrics.record(event.Action, outcomeStored)
}
