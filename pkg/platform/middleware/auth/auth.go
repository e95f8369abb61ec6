// Package auth authenticates bearer tokens and gates routes by role.
package auth

import (
	"context"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	id "carematch/pkg/domain"
	dErrors "carematch/pkg/domain-errors"
	"carematch/pkg/platform/httputil"
	"carematch/pkg/requestcontext"
)

// Principal is the caller resolved from a verified token.
type Principal struct {
	UserID  id.UserID
	Role    id.Role
	TokenID string
}

// Authenticator verifies a bearer token. Implementations must reject tokens
// whose subject or role do not parse.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (Principal, error)
}

var errNoBearer = dErrors.New(dErrors.CodeUnauthorized, "missing bearer token")

func bearer(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// RequireAuth puts the caller's user id and role on the request context.
func RequireAuth(authn Authenticator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token, ok := bearer(r)
			if !ok {
				logger.WarnContext(ctx, "request without bearer token",
					"request_id", requestcontext.RequestID(ctx),
					"path", r.URL.Path,
				)
				httputil.WriteError(w, errNoBearer)
				return
			}
			principal, err := authn.Authenticate(ctx, token)
			if err != nil {
				logger.WarnContext(ctx, "bearer token rejected",
					"request_id", requestcontext.RequestID(ctx),
					"path", r.URL.Path,
					"error", err,
				)
				if _, coded := dErrors.As(err); !coded {
					err = dErrors.New(dErrors.CodeUnauthorized, "invalid token")
				}
				httputil.WriteError(w, err)
				return
			}
			ctx = requestcontext.WithUserID(ctx, principal.UserID)
			ctx = requestcontext.WithRole(ctx, principal.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole admits only the listed roles. It reads the role RequireAuth stored.
func RequireRole(logger *slog.Logger, roles ...id.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if role := requestcontext.Role(ctx); !slices.Contains(roles, role) {
				logger.WarnContext(ctx, "role not permitted on route",
					"request_id", requestcontext.RequestID(ctx),
					"user_id", requestcontext.UserID(ctx).String(),
					"role", string(role),
					"path", r.URL.Path,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "this resource requires a different role"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
