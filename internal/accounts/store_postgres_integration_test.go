//go:build integration

package accounts

import (
	"context"
	"errors"
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
	auditpostgres "carematch/pkg/platform/audit/store/postgres"
	"carematch/pkg/platform/sentinel"
	"carematch/pkg/requestcontext"
	"carematch/pkg/testutil/containers"
)

type PostgresAccountsSuite struct {
	suite.Suite
	pg      *containers.PostgresContainer
	users   *PostgresStore
	records *store.PostgresStore
	audit   *auditpostgres.Store
	service *Service
	ctx     context.Context
}

func TestPostgresAccountsSuite(t *testing.T) {
	suite.Run(t, new(PostgresAccountsSuite))
}

func (s *PostgresAccountsSuite) SetupSuite() {
	s.pg = containers.GetManager().GetPostgres(s.T())
	s.users = NewPostgresStore(s.pg.DB)
	s.records = store.NewPostgres(s.pg.DB)
	s.audit = auditpostgres.New(s.pg.DB)

	svc, err := New(s.users, s.records, compliance.New(s.audit))
	s.Require().NoError(err)
	s.service = svc

	s.ctx = requestcontext.WithTime(context.Background(), time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	s.ctx = requestcontext.WithUserID(s.ctx, id.UserID(uuid.New()))
}

func (s *PostgresAccountsSuite) SetupTest() {
	s.Require().NoError(s.pg.TruncateTables(s.ctx, "users", "verification_records", "audit_events"))
}

func (s *PostgresAccountsSuite) provider() *User {
	user, err := s.service.CreateUser(s.ctx, "provider-"+uuid.NewString()+"@example.com", id.RoleProvider)
	s.Require().NoError(err)
	_, err = s.records.ExecuteOrCreate(s.ctx, user.ID, requestcontext.Now(s.ctx), nil, nil)
	s.Require().NoError(err)
	return user
}

func (s *PostgresAccountsSuite) TestCreateAndFind() {
	user, err := s.service.CreateUser(s.ctx, "Admin@Example.com", id.RoleAdmin)
	s.Require().NoError(err)

	found, err := s.users.FindByID(s.ctx, user.ID)
	s.Require().NoError(err)
	s.Equal("admin@example.com", found.Email)
	s.Equal(id.RoleAdmin, found.Role)

	_, err = s.service.CreateUser(s.ctx, "admin@example.com", id.RoleFamily)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict), "got %v", err)
}

func (s *PostgresAccountsSuite) TestChangeRolePersists() {
	user := s.provider()

	_, err := s.service.ChangeRole(s.ctx, user.ID, id.RoleFamily)
	s.Require().NoError(err)

	found, err := s.users.FindByID(s.ctx, user.ID)
	s.Require().NoError(err)
	s.Equal(id.RoleFamily, found.Role)
}

func (s *PostgresAccountsSuite) TestDeleteUser() {
	s.Run("removes user and record and commits the audit row", func() {
		user := s.provider()

		s.Require().NoError(s.service.DeleteUser(s.ctx, user.ID))

		_, err := s.users.FindByID(s.ctx, user.ID)
		s.ErrorIs(err, sentinel.ErrNotFound)
		_, err = s.records.FindByProvider(s.ctx, user.ID)
		s.ErrorIs(err, sentinel.ErrNotFound)

		events, err := s.audit.ListByUser(s.ctx, user.ID)
		s.Require().NoError(err)
		s.Require().Len(events, 1)
		s.Equal(string(audit.EventUserDeleted), events[0].Action)
	})

	s.Run("audit failure rolls back both deletes", func() {
		ctrl := gomock.NewController(s.T())
		auditor := mocks.NewMockAuditPort(ctrl)
		auditor.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(errors.New("audit store down"))
		svc, err := New(s.users, s.records, auditor)
		s.Require().NoError(err)
		user := s.provider()

		err = svc.DeleteUser(s.ctx, user.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeUnavailable), "got %v", err)

		_, err = s.users.FindByID(s.ctx, user.ID)
		s.NoError(err)
		_, err = s.records.FindByProvider(s.ctx, user.ID)
		s.NoError(err)
	})
}
