// Package handler exposes account administration over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"carematch/internal/accounts"
	id "carematch/pkg/domain"
	dErrors "carematch/pkg/domain-errors"
	"carematch/pkg/platform/audit"
	"carematch/pkg/platform/httputil"
	"carematch/pkg/requestcontext"
)

const maxEmailLength = 254

// Service defines the account operations the handler calls.
type Service interface {
	CreateUser(ctx context.Context, email string, role id.Role) (*accounts.User, error)
	GetUser(ctx context.Context, userID id.UserID) (*accounts.User, error)
	ChangeRole(ctx context.Context, userID id.UserID, role id.Role) (*accounts.User, error)
	DeleteUser(ctx context.Context, userID id.UserID) error
	AuditTrail(ctx context.Context, userID id.UserID) ([]audit.Event, error)
	RecentAudit(ctx context.Context, limit int) ([]audit.Event, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{service: service, logger: logger}
}

// Register mounts the account routes. Callers gate them behind the admin role.
func (h *Handler) Register(r chi.Router) {
	r.Route("/admin/users", func(r chi.Router) {
		r.Post("/", h.HandleCreate)
		r.Get("/{userID}", h.HandleGet)
		r.Put("/{userID}/role", h.HandleChangeRole)
		r.Delete("/{userID}", h.HandleDelete)
		r.Get("/{userID}/audit", h.HandleUserAudit)
	})
	r.Get("/admin/audit", h.HandleRecentAudit)
}

// CreateUserRequest is the body of POST /admin/users.
type CreateUserRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`

	parsedRole id.Role
}

func (r *CreateUserRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Email = strings.TrimSpace(r.Email)
	if r.Email == "" {
		return dErrors.New(dErrors.CodeValidation, "email is required")
	}
	if len(r.Email) > maxEmailLength {
		return dErrors.New(dErrors.CodeValidation, "email is too long")
	}
	role, err := id.ParseRole(strings.TrimSpace(r.Role))
	if err != nil {
		return err
	}
	r.parsedRole = role
	return nil
}

// ChangeRoleRequest is the body of PUT /admin/users/{userID}/role.
type ChangeRoleRequest struct {
	Role string `json:"role"`

	parsedRole id.Role
}

func (r *ChangeRoleRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	role, err := id.ParseRole(strings.TrimSpace(r.Role))
	if err != nil {
		return err
	}
	r.parsedRole = role
	return nil
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[CreateUserRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	user, err := h.service.CreateUser(ctx, req.Email, req.parsedRole)
	if err != nil {
		h.fail(ctx, w, "user creation failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, user)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := parseUserID(w, r)
	if !ok {
		return
	}
	user, err := h.service.GetUser(ctx, userID)
	if err != nil {
		h.fail(ctx, w, "user lookup failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}

func (h *Handler) HandleChangeRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := parseUserID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[ChangeRoleRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	user, err := h.service.ChangeRole(ctx, userID, req.parsedRole)
	if err != nil {
		h.fail(ctx, w, "role change failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, user)
}

// HandleDelete removes the account and any verification record it owns.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := parseUserID(w, r)
	if !ok {
		return
	}
	if err := h.service.DeleteUser(ctx, userID); err != nil {
		h.fail(ctx, w, "user deletion failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AuditEventResponse is one audit trail entry.
type AuditEventResponse struct {
	Category  string    `json:"category"`
	Timestamp time.Time `json:"timestamp"`
	UserID    string    `json:"user_id,omitempty"`
	Subject   string    `json:"subject,omitempty"`
	Action    string    `json:"action"`
	Decision  string    `json:"decision,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	RequestID string    `json:"request_id,omitempty"`
	ActorID   string    `json:"actor_id,omitempty"`
}

type auditListResponse struct {
	Events []AuditEventResponse `json:"events"`
}

func toAuditResponse(events []audit.Event) auditListResponse {
	out := auditListResponse{Events: make([]AuditEventResponse, 0, len(events))}
	for _, e := range events {
		entry := AuditEventResponse{
			Category:  string(e.Category),
			Timestamp: e.Timestamp,
			Subject:   e.Subject,
			Action:    e.Action,
			Decision:  e.Decision,
			Reason:    e.Reason,
			RequestID: e.RequestID,
			ActorID:   e.ActorID,
		}
		if !e.UserID.IsNil() {
			entry.UserID = e.UserID.String()
		}
		out.Events = append(out.Events, entry)
	}
	return out
}

func (h *Handler) HandleUserAudit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID, ok := parseUserID(w, r)
	if !ok {
		return
	}
	events, err := h.service.AuditTrail(ctx, userID)
	if err != nil {
		h.fail(ctx, w, "audit trail lookup failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toAuditResponse(events))
}

// HandleRecentAudit serves GET /admin/audit?limit=N.
func (h *Handler) HandleRecentAudit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var limit int
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "limit must be a non-negative integer"))
			return
		}
		limit = n
	}
	events, err := h.service.RecentAudit(ctx, limit)
	if err != nil {
		h.fail(ctx, w, "recent audit lookup failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toAuditResponse(events))
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	level := slog.LevelError
	if de, ok := dErrors.As(err); ok && dErrors.HTTPStatus(de.Code) < http.StatusInternalServerError {
		level = slog.LevelWarn
	}
	h.logger.Log(ctx, level, msg,
		"request_id", requestcontext.RequestID(ctx),
		"actor_id", requestcontext.UserID(ctx).String(),
		"error", err,
	)
	httputil.WriteError(w, err)
}

func parseUserID(w http.ResponseWriter, r *http.Request) (id.UserID, bool) {
	userID, err := id.ParseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid user ID"))
		return id.UserID{}, false
	}
	return userID, true
}
