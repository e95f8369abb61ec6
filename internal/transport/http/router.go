// Package httptransport assembles the chi router: shared middleware, health
// and metrics endpoints, and the role-gated API groups.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	accountshandler "carematch/internal/accounts/handler"
	"carematch/internal/platform/metrics"
	verificationhandler "carematch/internal/verification/handler"
	id "carematch/pkg/domain"
	"carematch/pkg/platform/httputil"
	"carematch/pkg/platform/middleware/auth"
	"carematch/pkg/platform/middleware/request"
	"carematch/pkg/platform/middleware/requesttime"
)

const healthTimeout = 2 * time.Second

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

// Deps is everything the router needs. Metrics and health checks are optional.
type Deps struct {
	Verification   *verificationhandler.Handler
	Accounts       *accountshandler.Handler
	Authenticator  auth.Authenticator
	Metrics        *metrics.Metrics
	Logger         *slog.Logger
	AllowedOrigins []string
	HealthChecks   map[string]HealthCheck
}

func NewRouter(d Deps) http.Handler {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(request.RequestID)
	r.Use(requesttime.Middleware)
	r.Use(request.AccessLog(logger, d.Metrics))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", request.HeaderRequestID},
		ExposedHeaders:   []string{request.HeaderRequestID},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/ready", readiness(d.HealthChecks, logger))
	r.Handle("/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Use(auth.RequireAuth(d.Authenticator, logger))

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(logger, id.RoleProvider))
			d.Verification.RegisterProvider(r)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(logger, id.RoleAdmin))
			d.Verification.RegisterAdmin(r)
			if d.Accounts != nil {
				d.Accounts.Register(r)
			}
		})
	})
	return r
}

// readiness runs every check with a shared deadline and reports each result.
func readiness(checks map[string]HealthCheck, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		status := http.StatusOK
		results := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				logger.WarnContext(ctx, "readiness check failed", "dependency", name, "error", err)
				results[name] = "unavailable"
				status = http.StatusServiceUnavailable
				continue
			}
			results[name] = "ok"
		}
		httputil.WriteJSON(w, status, map[string]any{"checks": results})
	}
}
