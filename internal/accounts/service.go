// Package accounts manages carematch user accounts from the admin console:
// creating accounts, changing roles, and deleting users along with their
// verification record. Every change is written to the compliance audit trail.
package accounts

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	id "carematch/pkg/domain"
	dErrors "carematch/pkg/domain-errors"
	emailaddr "carematch/pkg/email"
	"carematch/pkg/platform/audit"
	"carematch/pkg/platform/sentinel"
	"carematch/pkg/requestcontext"
)

// Store persists users. RunInTx scopes a unit of work; stores that share the
// context join it.
type Store interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
	Create(ctx context.Context, user *User) error
	FindByID(ctx context.Context, userID id.UserID) (*User, error)
	UpdateRole(ctx context.Context, user *User) error
	Delete(ctx context.Context, userID id.UserID) error
}

// RecordPurger removes a provider's verification record.
type RecordPurger interface {
	Delete(ctx context.Context, providerID id.UserID) error
}

// AuditPublisher is the fail-closed compliance publisher.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.ComplianceEvent) error
}

// AuditReader reads back the persisted audit trail.
type AuditReader interface {
	ListByUser(ctx context.Context, userID id.UserID) ([]audit.Event, error)
	ListRecent(ctx context.Context, limit int) ([]audit.Event, error)
}

type Service struct {
	users   Store
	records RecordPurger
	auditor AuditPublisher
	trail   AuditReader
	logger  *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithAuditTrail enables the audit trail reads for the admin console.
func WithAuditTrail(trail AuditReader) Option {
	return func(s *Service) {
		s.trail = trail
	}
}

func New(users Store, records RecordPurger, auditor AuditPublisher, opts ...Option) (*Service, error) {
	if users == nil {
		return nil, errors.New("user store is required")
	}
	if records == nil {
		return nil, errors.New("verification record store is required")
	}
	if auditor == nil {
		return nil, errors.New("audit publisher is required")
	}
	s := &Service{users: users, records: records, auditor: auditor, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// CreateUser registers an account with the given role.
func (s *Service) CreateUser(ctx context.Context, email string, role id.Role) (*User, error) {
	email, err := emailaddr.Normalize(email)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeValidation, err.Error())
	}
	now := requestcontext.Now(ctx)
	user := &User{
		ID:        id.UserID(uuid.New()),
		Email:     email,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "an account with this email already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create user")
	}
	return user, nil
}

func (s *Service) GetUser(ctx context.Context, userID id.UserID) (*User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, translateUserError(err, "failed to lookup user")
	}
	return user, nil
}

// ChangeRole moves a user to a new role. Admins cannot change their own role.
func (s *Service) ChangeRole(ctx context.Context, userID id.UserID, role id.Role) (*User, error) {
	if userID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "user ID required")
	}
	actor := requestcontext.UserID(ctx)
	if actor == userID {
		return nil, dErrors.New(dErrors.CodeConflict, "admins cannot change their own role")
	}

	var updated *User
	err := s.users.RunInTx(ctx, func(ctx context.Context) error {
		user, err := s.users.FindByID(ctx, userID)
		if err != nil {
			return translateUserError(err, "failed to lookup user")
		}
		if user.Role == role {
			return dErrors.New(dErrors.CodeConflict, "user already has role "+string(role))
		}
		previous := user.Role
		user.Role = role
		user.UpdatedAt = requestcontext.Now(ctx)
		if err := s.users.UpdateRole(ctx, user); err != nil {
			return translateUserError(err, "failed to update user role")
		}
		if err := s.emit(ctx, userID, audit.EventUserRoleChanged, string(role), "from "+string(previous)); err != nil {
			return err
		}
		updated = user
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "user role changed",
		"request_id", requestcontext.RequestID(ctx),
		"user_id", userID.String(),
		"actor_id", actor.String(),
		"role", string(role),
	)
	return updated, nil
}

// DeleteUser removes the account and its verification record in one unit of work.
func (s *Service) DeleteUser(ctx context.Context, userID id.UserID) error {
	if userID.IsNil() {
		return dErrors.New(dErrors.CodeBadRequest, "user ID required")
	}
	actor := requestcontext.UserID(ctx)
	if actor == userID {
		return dErrors.New(dErrors.CodeConflict, "admins cannot delete their own account")
	}

	err := s.users.RunInTx(ctx, func(ctx context.Context) error {
		user, err := s.users.FindByID(ctx, userID)
		if err != nil {
			return translateUserError(err, "failed to lookup user")
		}
		if err := s.records.Delete(ctx, userID); err != nil && !errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete verification record")
		}
		if err := s.users.Delete(ctx, userID); err != nil {
			return translateUserError(err, "failed to delete user")
		}
		return s.emit(ctx, userID, audit.EventUserDeleted, "deleted", "role "+string(user.Role))
	})
	if err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "user deleted",
		"request_id", requestcontext.RequestID(ctx),
		"user_id", userID.String(),
		"actor_id", actor.String(),
	)
	return nil
}

const (
	defaultTrailLimit = 50
	maxTrailLimit     = 500
)

// AuditTrail returns the events recorded against a user, newest first.
func (s *Service) AuditTrail(ctx context.Context, userID id.UserID) ([]audit.Event, error) {
	if s.trail == nil {
		return nil, dErrors.New(dErrors.CodeUnavailable, "audit trail is not configured")
	}
	events, err := s.trail.ListByUser(ctx, userID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read audit trail")
	}
	return events, nil
}

// RecentAudit returns the newest events across all users. limit is clamped to [1, 500].
func (s *Service) RecentAudit(ctx context.Context, limit int) ([]audit.Event, error) {
	if s.trail == nil {
		return nil, dErrors.New(dErrors.CodeUnavailable, "audit trail is not configured")
	}
	switch {
	case limit <= 0:
		limit = defaultTrailLimit
	case limit > maxTrailLimit:
		limit = maxTrailLimit
	}
	events, err := s.trail.ListRecent(ctx, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read audit trail")
	}
	return events, nil
}

func (s *Service) emit(ctx context.Context, userID id.UserID, action audit.AuditEvent, decision, reason string) error {
	var actor string
	if userID := requestcontext.UserID(ctx); !userID.IsNil() {
		actor = userID.String()
	}
	err := s.auditor.Emit(ctx, audit.ComplianceEvent{
		Timestamp: requestcontext.Now(ctx),
		UserID:    userID,
		Subject:   "account",
		Action:    string(action),
		Decision:  decision,
		Reason:    reason,
		RequestID: requestcontext.RequestID(ctx),
		ActorID:   actor,
	})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to record audit event")
	}
	return nil
}

func translateUserError(err error, message string) error {
	if _, ok := dErrors.As(err); ok {
		return err
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "user not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, message)
}
