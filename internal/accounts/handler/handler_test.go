package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"carematch/internal/accounts"
	"carematch/internal/verification/store"
	id "carematch/pkg/domain"
	"carematch/pkg/platform/audit/publishers/compliance"
	auditmemory "carematch/pkg/platform/audit/store/memory"
	"carematch/pkg/testutil"
)

type AccountsHandlerSuite struct {
	suite.Suite
	router     http.Handler
	service    *accounts.Service
	auditStore *auditmemory.InMemoryStore
	admin      id.UserID
}

func TestAccountsHandlerSuite(t *testing.T) {
	suite.Run(t, new(AccountsHandlerSuite))
}

func (s *AccountsHandlerSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.auditStore = auditmemory.NewInMemoryStore()
	svc, err := accounts.New(accounts.NewInMemoryStore(), store.NewInMemory(), compliance.New(s.auditStore),
		accounts.WithLogger(logger), accounts.WithAuditTrail(s.auditStore))
	s.Require().NoError(err)
	s.service = svc
	s.admin = id.UserID(uuid.New())

	r := chi.NewRouter()
	New(svc, logger).Register(r)
	s.router = r
}

func (s *AccountsHandlerSuite) do(req *http.Request) *httptest.ResponseRecorder {
	return testutil.DoRequest(s.router, testutil.As(req, s.admin, id.RoleAdmin, time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)))
}

func (s *AccountsHandlerSuite) create(email, role string) *accounts.User {
	rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodPost, "/admin/users", CreateUserRequest{Email: email, Role: role}))
	s.Require().Equal(http.StatusCreated, rr.Code)
	return testutil.UnmarshalResponse[accounts.User](s.T(), rr)
}

func (s *AccountsHandlerSuite) TestCreate() {
	s.Run("creates the account", func() {
		user := s.create("Carer@Example.com", "provider")
		s.Equal("carer@example.com", user.Email)
		s.Equal(id.RoleProvider, user.Role)
		s.False(user.ID.IsNil())
	})

	s.Run("duplicate email conflicts", func() {
		s.create("dupe@example.com", "family")
		rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodPost, "/admin/users", CreateUserRequest{Email: "dupe@example.com", Role: "family"}))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusConflict, "conflict")
	})

	s.Run("unknown role is rejected", func() {
		rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodPost, "/admin/users", CreateUserRequest{Email: "x@example.com", Role: "wizard"}))
		testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
	})

	s.Run("missing email is rejected", func() {
		rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodPost, "/admin/users", CreateUserRequest{Role: "family"}))
		testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
	})
}

func (s *AccountsHandlerSuite) TestGet() {
	user := s.create("get@example.com", "family")

	rr := s.do(testutil.NewRequest(s.T(), http.MethodGet, "/admin/users/"+user.ID.String()))
	testutil.AssertStatusOK(s.T(), rr)
	testutil.AssertJSONContains(s.T(), rr, "email", "get@example.com")

	rr = s.do(testutil.NewRequest(s.T(), http.MethodGet, "/admin/users/"+uuid.NewString()))
	testutil.AssertStatus(s.T(), rr, http.StatusNotFound)

	rr = s.do(testutil.NewRequest(s.T(), http.MethodGet, "/admin/users/nope"))
	testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
}

func (s *AccountsHandlerSuite) TestChangeRole() {
	user := s.create("role@example.com", "family")

	rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodPut, "/admin/users/"+user.ID.String()+"/role", ChangeRoleRequest{Role: "provider"}))
	testutil.AssertStatusOK(s.T(), rr)
	testutil.AssertJSONContains(s.T(), rr, "role", "provider")

	rr = s.do(testutil.NewJSONRequest(s.T(), http.MethodPut, "/admin/users/"+user.ID.String()+"/role", ChangeRoleRequest{Role: "provider"}))
	testutil.AssertStatus(s.T(), rr, http.StatusConflict)

	events, err := s.auditStore.ListByUser(context.Background(), user.ID)
	s.Require().NoError(err)
	s.Len(events, 1)
}

func (s *AccountsHandlerSuite) TestDelete() {
	user := s.create("gone@example.com", "provider")

	rr := s.do(testutil.NewRequest(s.T(), http.MethodDelete, "/admin/users/"+user.ID.String()))
	testutil.AssertStatus(s.T(), rr, http.StatusNoContent)

	rr = s.do(testutil.NewRequest(s.T(), http.MethodGet, "/admin/users/"+user.ID.String()))
	testutil.AssertStatus(s.T(), rr, http.StatusNotFound)

	rr = s.do(testutil.NewRequest(s.T(), http.MethodDelete, "/admin/users/"+s.admin.String()))
	testutil.AssertStatus(s.T(), rr, http.StatusConflict)
}

func (s *AccountsHandlerSuite) TestAuditTrail() {
	user := s.create("trail@example.com", "family")
	rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodPut, "/admin/users/"+user.ID.String()+"/role", ChangeRoleRequest{Role: "provider"}))
	testutil.AssertStatusOK(s.T(), rr)

	s.Run("per user", func() {
		rr := s.do(testutil.NewRequest(s.T(), http.MethodGet, "/admin/users/"+user.ID.String()+"/audit"))
		testutil.AssertStatusOK(s.T(), rr)
		body := testutil.UnmarshalResponse[auditListResponse](s.T(), rr)
		s.Require().Len(body.Events, 1)
		s.Equal("user_role_changed", body.Events[0].Action)
		s.Equal("provider", body.Events[0].Decision)
		s.Equal(s.admin.String(), body.Events[0].ActorID)
	})

	s.Run("recent with limit", func() {
		rr := s.do(testutil.NewRequest(s.T(), http.MethodGet, "/admin/audit?limit=1"))
		testutil.AssertStatusOK(s.T(), rr)
		body := testutil.UnmarshalResponse[auditListResponse](s.T(), rr)
		s.Len(body.Events, 1)
	})

	s.Run("bad limit", func() {
		rr := s.do(testutil.NewRequest(s.T(), http.MethodGet, "/admin/audit?limit=-3"))
		testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
	})
}

func (s *AccountsHandlerSuite) TestAuditTrailNotConfigured() {
	svc, err := accounts.New(accounts.NewInMemoryStore(), store.NewInMemory(), compliance.New(s.auditStore))
	s.Require().NoError(err)
	r := chi.NewRouter()
	New(svc, nil).Register(r)

	req := testutil.As(testutil.NewRequest(s.T(), http.MethodGet, "/admin/audit"), s.admin, id.RoleAdmin, time.Now())
	rr := testutil.DoRequest(r, req)
	testutil.AssertStatus(s.T(), rr, http.StatusServiceUnavailable)
}
