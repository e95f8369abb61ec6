package accounts

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"carematch/internal/verification/ports/mocks"
	"carematch/internal/verification/store"
	id "carematch/pkg/domain"
	dErrors "carematch/pkg/domain-errors"
	"carematch/pkg/platform/audit"
	"carematch/pkg/platform/audit/publishers/compliance"
	auditmemory "carematch/pkg/platform/audit/store/memory"
	"carematch/pkg/platform/sentinel"
	"carematch/pkg/requestcontext"
)

type AccountsSuite struct {
	suite.Suite
	users      *InMemoryStore
	records    *store.InMemory
	auditStore *auditmemory.InMemoryStore
	service    *Service
	admin      id.UserID
	ctx        context.Context
}

func TestAccountsSuite(t *testing.T) {
	suite.Run(t, new(AccountsSuite))
}

func (s *AccountsSuite) SetupTest() {
	s.users = NewInMemoryStore()
	s.records = store.NewInMemory()
	s.auditStore = auditmemory.NewInMemoryStore()
	s.admin = id.UserID(uuid.New())
	s.ctx = requestcontext.WithTime(context.Background(), time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	s.ctx = requestcontext.WithUserID(s.ctx, s.admin)

	svc, err := New(s.users, s.records, compliance.New(s.auditStore),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	s.Require().NoError(err)
	s.service = svc
}

func (s *AccountsSuite) createProvider() *User {
	user, err := s.service.CreateUser(s.ctx, "provider-"+uuid.NewString()+"@example.com", id.RoleProvider)
	s.Require().NoError(err)
	_, err = s.records.ExecuteOrCreate(s.ctx, user.ID, requestcontext.Now(s.ctx), nil, nil)
	s.Require().NoError(err)
	return user
}

func (s *AccountsSuite) TestNew() {
	_, err := New(nil, s.records, compliance.New(s.auditStore))
	s.Error(err)
	_, err = New(s.users, nil, compliance.New(s.auditStore))
	s.Error(err)
	_, err = New(s.users, s.records, nil)
	s.Error(err)
}

// =============================================================================
// CreateUser
// =============================================================================

func (s *AccountsSuite) TestCreateUser() {
	s.Run("normalises email", func() {
		user, err := s.service.CreateUser(s.ctx, "  Jane@Example.com ", id.RoleFamily)
		s.Require().NoError(err)
		s.Equal("jane@example.com", user.Email)
		s.Equal(id.RoleFamily, user.Role)
	})

	s.Run("duplicate email is a conflict", func() {
		_, err := s.service.CreateUser(s.ctx, "dup@example.com", id.RoleProvider)
		s.Require().NoError(err)
		_, err = s.service.CreateUser(s.ctx, "DUP@example.com", id.RoleProvider)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict), "got %v", err)
	})

	s.Run("invalid email is a validation error", func() {
		_, err := s.service.CreateUser(s.ctx, "not-an-email", id.RoleProvider)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

// =============================================================================
// ChangeRole
// =============================================================================

func (s *AccountsSuite) TestChangeRole() {
	s.Run("changes role and audits the actor", func() {
		user := s.createProvider()

		updated, err := s.service.ChangeRole(s.ctx, user.ID, id.RoleAdmin)
		s.Require().NoError(err)
		s.Equal(id.RoleAdmin, updated.Role)

		events, err := s.auditStore.ListByUser(s.ctx, user.ID)
		s.Require().NoError(err)
		s.Require().Len(events, 1)
		s.Equal(string(audit.EventUserRoleChanged), events[0].Action)
		s.Equal(s.admin.String(), events[0].ActorID)
		s.Equal("from provider", events[0].Reason)
	})

	s.Run("same role is a conflict", func() {
		user := s.createProvider()
		_, err := s.service.ChangeRole(s.ctx, user.ID, id.RoleProvider)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("own role cannot be changed", func() {
		_, err := s.service.ChangeRole(s.ctx, s.admin, id.RoleProvider)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("unknown user is not found", func() {
		_, err := s.service.ChangeRole(s.ctx, id.UserID(uuid.New()), id.RoleAdmin)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

// =============================================================================
// DeleteUser
// =============================================================================

func (s *AccountsSuite) TestDeleteUser() {
	s.Run("removes the account and its verification record", func() {
		user := s.createProvider()

		s.Require().NoError(s.service.DeleteUser(s.ctx, user.ID))

		_, err := s.users.FindByID(s.ctx, user.ID)
		s.ErrorIs(err, sentinel.ErrNotFound)
		_, err = s.records.FindByProvider(s.ctx, user.ID)
		s.ErrorIs(err, sentinel.ErrNotFound)

		events, err := s.auditStore.ListByUser(s.ctx, user.ID)
		s.Require().NoError(err)
		s.Require().Len(events, 1)
		s.Equal(string(audit.EventUserDeleted), events[0].Action)
	})

	s.Run("account without a record is deleted", func() {
		user, err := s.service.CreateUser(s.ctx, "family@example.com", id.RoleFamily)
		s.Require().NoError(err)
		s.Require().NoError(s.service.DeleteUser(s.ctx, user.ID))
	})

	s.Run("unknown user is not found", func() {
		err := s.service.DeleteUser(s.ctx, id.UserID(uuid.New()))
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("nil id is a bad request", func() {
		err := s.service.DeleteUser(s.ctx, id.UserID{})
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("audit failure fails the delete", func() {
		ctrl := gomock.NewController(s.T())
		auditor := mocks.NewMockAuditPort(ctrl)
		auditor.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(errors.New("audit store down"))
		svc, err := New(s.users, s.records, auditor)
		s.Require().NoError(err)
		user := s.createProvider()

		err = svc.DeleteUser(s.ctx, user.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeUnavailable), "got %v", err)
	})
}

func (s *AccountsSuite) TestAuditTrail() {
	s.Run("unavailable without a reader", func() {
		_, err := s.service.AuditTrail(s.ctx, s.admin)
		s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))
	})

	s.Run("reads back compliance events", func() {
		svc, err := New(s.users, s.records, compliance.New(s.auditStore), WithAuditTrail(s.auditStore))
		s.Require().NoError(err)
		user := s.createProvider()
		s.Require().NoError(svc.DeleteUser(s.ctx, user.ID))

		events, err := svc.AuditTrail(s.ctx, user.ID)
		s.Require().NoError(err)
		s.Require().Len(events, 1)
		s.Equal(string(audit.EventUserDeleted), events[0].Action)

		recent, err := svc.RecentAudit(s.ctx, 0)
		s.Require().NoError(err)
		s.NotEmpty(recent)
	})
}
