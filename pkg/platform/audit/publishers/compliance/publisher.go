// Package compliance writes attributable admin and account decisions to the
// audit trail. Emit is synchronous and fails closed: when it returns an error
// the caller must abort. Stores that join the transaction on the context make
// the audit row commit or roll back with the decision.
package compliance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	audit "carematch/pkg/platform/audit"
)

// ErrIncomplete is returned for events that cannot be attributed.
var ErrIncomplete = errors.New("incomplete compliance event")

type Publisher struct {
	store   audit.Store
	logger  *slog.Logger
	metrics *Metrics
	clock   func() time.Time
}

type Option func(*Publisher)

func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) { p.logger = logger }
}

func WithMetrics(m *Metrics) Option {
	return func(p *Publisher) { p.metrics = m }
}

func WithClock(clock func() time.Time) Option {
	return func(p *Publisher) { p.clock = clock }
}

func New(store audit.Store, opts ...Option) *Publisher {
	p := &Publisher{store: store, clock: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// check rejects events missing the affected user or the acting admin, and
// actions that belong to the sampled operations trail.
func check(event audit.ComplianceEvent) error {
	switch {
	case event.UserID.IsNil():
		return fmt.Errorf("%w: no affected user", ErrIncomplete)
	case event.ActorID == "":
		return fmt.Errorf("%w: no actor for %q", ErrIncomplete, event.Action)
	case audit.AuditEvent(event.Action).Category() != audit.CategoryCompliance:
		return fmt.Errorf("%w: %q is not a compliance action", ErrIncomplete, event.Action)
	}
	return nil
}

// Emit persists event before returning.
func (p *Publisher) Emit(ctx context.Context, event audit.ComplianceEvent) error {
	if err := check(event); err != nil {
		p.metrics.rejected(event.Action)
		return err
	}
	started := p.clock()
	if event.Timestamp.IsZero() {
		event.Timestamp = started
	}

	err := p.store.Append(ctx, event.ToEvent())
	p.metrics.persisted(event.Action, err, p.clock().Sub(started))
	if err != nil {
		if p.logger != nil {
			p.logger.ErrorContext(ctx, "compliance audit write failed, aborting action",
				"action", event.Action,
				"user_id", event.UserID.String(),
				"actor_id", event.ActorID,
				"request_id", event.RequestID,
				"error", err,
			)
		}
		return fmt.Errorf("append compliance event %s: %w", event.Action, err)
	}
	return nil
}
