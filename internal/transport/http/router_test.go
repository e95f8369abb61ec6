package httptransport

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"carematch/internal/accounts"
	accountshandler "carematch/internal/accounts/handler"
	jwttoken "carematch/internal/jwt_token"
	"carematch/internal/verification/dispatch"
	verificationhandler "carematch/internal/verification/handler"
	"carematch/internal/verification/service"
	"carematch/internal/verification/store"
	id "carematch/pkg/domain"
	"carematch/pkg/platform/audit/publishers/compliance"
	auditmemory "carematch/pkg/platform/audit/store/memory"
	"carematch/pkg/platform/middleware/request"
	"carematch/pkg/testutil"
)

type RouterSuite struct {
	suite.Suite
	jwt    *jwttoken.Service
	router http.Handler
	ready  error
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.jwt = jwttoken.New("test-signing-key", "carematch-test")
	s.ready = nil

	records := store.NewInMemory()
	verification, err := service.New(records, dispatch.NewChannelDispatcher(8), service.WithLogger(logger))
	s.Require().NoError(err)
	users, err := accounts.New(accounts.NewInMemoryStore(), records, compliance.New(auditmemory.NewInMemoryStore()))
	s.Require().NoError(err)

	s.router = NewRouter(Deps{
		Verification:   verificationhandler.New(verification, logger),
		Accounts:       accountshandler.New(users, logger),
		Authenticator:  s.jwt,
		Logger:         logger,
		AllowedOrigins: []string{"http://localhost:3000"},
		HealthChecks: map[string]HealthCheck{
			"postgres": func(context.Context) error { return s.ready },
		},
	})
}

func (s *RouterSuite) token(role id.Role) string {
	tok, err := s.jwt.Mint(id.UserID(uuid.New()), role, time.Hour)
	s.Require().NoError(err)
	return tok
}

func (s *RouterSuite) get(path, token string) *http.Response {
	req := testutil.NewRequest(s.T(), http.MethodGet, path)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return testutil.DoRequest(s.router, req).Result()
}

func (s *RouterSuite) TestHealth() {
	resp := s.get("/health", "")
	s.Equal(http.StatusOK, resp.StatusCode)
	s.NotEmpty(resp.Header.Get(request.HeaderRequestID))
}

func (s *RouterSuite) TestReadiness() {
	s.Equal(http.StatusOK, s.get("/ready", "").StatusCode)

	s.ready = errors.New("connection refused")
	s.Equal(http.StatusServiceUnavailable, s.get("/ready", "").StatusCode)
}

func (s *RouterSuite) TestMetricsEndpoint() {
	s.Equal(http.StatusOK, s.get("/metrics", "").StatusCode)
}

func (s *RouterSuite) TestAuthentication() {
	s.Run("missing token", func() {
		s.Equal(http.StatusUnauthorized, s.get("/v1/verification/status", "").StatusCode)
	})

	s.Run("token from another issuer", func() {
		other := jwttoken.New("test-signing-key", "someone-else")
		tok, err := other.Mint(id.UserID(uuid.New()), id.RoleProvider, time.Hour)
		s.Require().NoError(err)
		s.Equal(http.StatusUnauthorized, s.get("/v1/verification/status", tok).StatusCode)
	})
}

func (s *RouterSuite) TestRoleGating() {
	s.Run("provider reaches provider routes", func() {
		s.Equal(http.StatusOK, s.get("/v1/verification/status", s.token(id.RoleProvider)).StatusCode)
	})

	s.Run("family accounts have no verification routes", func() {
		s.Equal(http.StatusForbidden, s.get("/v1/verification/status", s.token(id.RoleFamily)).StatusCode)
	})

	s.Run("provider cannot reach admin routes", func() {
		s.Equal(http.StatusForbidden, s.get("/v1/admin/verifications", s.token(id.RoleProvider)).StatusCode)
	})

	s.Run("admin reaches the queue and accounts", func() {
		s.Equal(http.StatusOK, s.get("/v1/admin/verifications", s.token(id.RoleAdmin)).StatusCode)
		s.Equal(http.StatusNotFound, s.get("/v1/admin/users/"+uuid.NewString(), s.token(id.RoleAdmin)).StatusCode)
	})
}
