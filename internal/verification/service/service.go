// Package service orchestrates the onboarding verification pipeline.
//
// Every state change is a guarded write through the Store: the record is
// locked, the transition guard is checked against the current status, the
// mutation is applied and the aggregate recomputed before anything is
// persisted. Side effects that must succeed with the write (job dispatch,
// compliance audit) run as write hooks inside the lock. Side effects that
// must never roll a transition back (notifications, ops tracking) run after
// commit.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"carematch/internal/verification/metrics"
	"carematch/internal/verification/models"
	"carematch/internal/verification/ports"
	"carematch/internal/verification/store"
	id "carematch/pkg/domain"
	dErrors "carematch/pkg/domain-errors"
	"carematch/pkg/platform/audit"
	"carematch/pkg/platform/sentinel"
	"carematch/pkg/requestcontext"
)

// DefaultInspectionTimeout bounds local inspection of an emailed clearance document.
const DefaultInspectionTimeout = 12 * time.Second

// Store is the verification record persistence the service depends on.
type Store interface {
	FindByProvider(ctx context.Context, providerID id.UserID) (*models.Record, error)
	Execute(ctx context.Context, providerID id.UserID, validate store.ValidateFunc, mutate store.MutateFunc, hooks ...models.WriteHook) (*models.Record, error)
	ExecuteOrCreate(ctx context.Context, providerID id.UserID, now time.Time, validate store.ValidateFunc, mutate store.MutateFunc, hooks ...models.WriteHook) (*models.Record, error)
	List(ctx context.Context, filter models.ListFilter) ([]*models.Record, int, error)
	ListExpiredCredentials(ctx context.Context, day time.Time, limit int) ([]id.UserID, error)
}

// Service runs the identity, credential, contact and cross-check stages.
type Service struct {
	store             Store
	dispatcher        ports.Dispatcher
	inspector         ports.DocumentInspector
	gazetteer         ports.Gazetteer
	notifier          ports.Notifier
	auditor           ports.AuditPort
	ops               ports.OpsTracker
	metrics           *metrics.Metrics
	logger            *slog.Logger
	inspectionTimeout time.Duration
	newSubmissionID   func() id.SubmissionID
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithInspector(inspector ports.DocumentInspector) Option {
	return func(s *Service) {
		s.inspector = inspector
	}
}

func WithGazetteer(gazetteer ports.Gazetteer) Option {
	return func(s *Service) {
		s.gazetteer = gazetteer
	}
}

func WithNotifier(notifier ports.Notifier) Option {
	return func(s *Service) {
		s.notifier = notifier
	}
}

// WithAuditPublisher sets the fail-closed publisher for admin decisions.
func WithAuditPublisher(publisher ports.AuditPort) Option {
	return func(s *Service) {
		s.auditor = publisher
	}
}

func WithOpsTracker(tracker ports.OpsTracker) Option {
	return func(s *Service) {
		s.ops = tracker
	}
}

func WithInspectionTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.inspectionTimeout = d
		}
	}
}

// WithSubmissionIDs replaces the submission id generator. Tests use it for stable ids.
func WithSubmissionIDs(gen func() id.SubmissionID) Option {
	return func(s *Service) {
		if gen != nil {
			s.newSubmissionID = gen
		}
	}
}

// New constructs a Service. The store and dispatcher are required.
func New(st Store, dispatcher ports.Dispatcher, opts ...Option) (*Service, error) {
	if st == nil {
		return nil, errors.New("verification store is required")
	}
	if dispatcher == nil {
		return nil, errors.New("extraction dispatcher is required")
	}
	s := &Service{
		store:             st,
		dispatcher:        dispatcher,
		logger:            slog.Default(),
		inspectionTimeout: DefaultInspectionTimeout,
		newSubmissionID:   id.NewSubmissionID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// writeSpec describes one guarded write.
type writeSpec struct {
	providerID id.UserID
	create     bool
	now        time.Time
	validate   store.ValidateFunc
	mutate     store.MutateFunc
	hooks      []models.WriteHook
	// notFound is returned when the record is missing and create is false.
	notFound error
}

// write runs a guarded write, publishes the committed transitions and, when the
// write left both document stages satisfied, runs the cross-check.
func (s *Service) write(ctx context.Context, op writeSpec) (*models.Record, error) {
	var before *models.Record
	validate := func(rec *models.Record) error {
		before = rec.Clone()
		if op.validate == nil {
			return nil
		}
		return op.validate(rec)
	}

	var (
		after *models.Record
		err   error
	)
	if op.create {
		after, err = s.store.ExecuteOrCreate(ctx, op.providerID, op.now, validate, op.mutate, op.hooks...)
	} else {
		after, err = s.store.Execute(ctx, op.providerID, validate, op.mutate, op.hooks...)
	}
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) && op.notFound != nil {
			return nil, op.notFound
		}
		return nil, translateStoreError(err, "failed to update verification record")
	}

	s.publish(ctx, before, after, op.now)

	if after.NeedsCrossCheck() {
		checked, err := s.RunCrossCheck(ctx, op.providerID)
		switch {
		case err == nil:
			return checked, nil
		case errors.Is(err, models.ErrSuperseded):
			// Another writer completed the pair first and ran it.
		default:
			s.logger.ErrorContext(ctx, "cross-check failed after stage completion",
				"provider_id", op.providerID.String(),
				"error", err,
			)
		}
	}
	return after, nil
}

// publish forwards committed transitions. Failures never roll back the write.
func (s *Service) publish(ctx context.Context, before, after *models.Record, now time.Time) {
	events := models.Transitions(before, after, now)
	if len(events) == 0 {
		return
	}
	for _, ev := range events {
		s.metrics.IncTransition(ev.Stage, ev.To)
		s.logger.InfoContext(ctx, "verification transition",
			"request_id", requestcontext.RequestID(ctx),
			"provider_id", ev.ProviderID.String(),
			"stage", ev.Stage,
			"from", ev.From,
			"to", ev.To,
		)
	}
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Publish(ctx, events); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish verification transitions",
			"provider_id", after.ProviderID.String(),
			"events", len(events),
			"error", err,
		)
	}
}

// track records routine activity in the ops trail. Best effort.
func (s *Service) track(ctx context.Context, providerID id.UserID, subject string, action audit.AuditEvent, decision string) {
	if s.ops == nil {
		return
	}
	s.ops.Track(ctx, audit.OpsEvent{
		Timestamp: requestcontext.Now(ctx),
		UserID:    providerID,
		Subject:   subject,
		Action:    string(action),
		Decision:  decision,
		RequestID: requestcontext.RequestID(ctx),
	})
}

// auditHook emits a compliance event inside the write. An audit failure aborts the action.
func (s *Service) auditHook(action audit.AuditEvent, subject, reason string, decision func(*models.Record) string) models.WriteHook {
	return func(ctx context.Context, rec *models.Record) error {
		if s.auditor == nil {
			return nil
		}
		event := audit.ComplianceEvent{
			Timestamp: requestcontext.Now(ctx),
			UserID:    rec.ProviderID,
			Subject:   subject,
			Action:    string(action),
			Decision:  decision(rec),
			Reason:    reason,
			RequestID: requestcontext.RequestID(ctx),
			ActorID:   actorID(ctx),
		}
		if err := s.auditor.Emit(ctx, event); err != nil {
			return dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to record audit event")
		}
		return nil
	}
}

// dispatchHook queues the extraction job for the stage just submitted.
// A dispatch failure fails the submission and leaves the record unchanged.
func (s *Service) dispatchHook(phase models.Phase, now time.Time) models.WriteHook {
	return func(ctx context.Context, rec *models.Record) error {
		job := rec.IdentityJob(now)
		if phase == models.PhaseCredential {
			job = rec.CredentialJob(now)
		}
		if err := s.dispatcher.Dispatch(ctx, job); err != nil {
			s.metrics.IncDispatchFailure(string(phase))
			s.logger.ErrorContext(ctx, "failed to dispatch extraction job",
				"request_id", requestcontext.RequestID(ctx),
				"provider_id", rec.ProviderID.String(),
				"phase", string(phase),
				"error", err,
			)
			return dErrors.Wrap(err, dErrors.CodeUnavailable, "verification is temporarily unavailable, please try again")
		}
		return nil
	}
}

func actorID(ctx context.Context) string {
	actor := requestcontext.UserID(ctx)
	if actor.IsNil() {
		return ""
	}
	return actor.String()
}

// translateStoreError keeps coded errors (guards, hooks) and maps infrastructure facts.
func translateStoreError(err error, message string) error {
	if _, ok := dErrors.As(err); ok {
		return err
	}
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "verification record not found")
	case errors.Is(err, context.DeadlineExceeded):
		return dErrors.Wrap(err, dErrors.CodeTimeout, "verification store timed out")
	case errors.Is(err, sentinel.ErrUnavailable):
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "verification store unavailable")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, message)
}

func validationError(message string) error {
	return dErrors.New(dErrors.CodeValidation, message)
}
