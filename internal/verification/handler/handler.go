// Package handler exposes the verification pipeline over HTTP: provider
// submission and polling routes, and the admin console routes.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"carematch/internal/verification/models"
	id "carematch/pkg/domain"
	dErrors "carematch/pkg/domain-errors"
	"carematch/pkg/platform/httputil"
	platformstrings "carematch/pkg/platform/strings"
	"carematch/pkg/requestcontext"
)

// Service defines the verification operations the handler calls.
type Service interface {
	SubmitIdentity(ctx context.Context, providerID id.UserID, sub models.IdentitySubmission) (*models.Record, error)
	RequestIdentityManualReview(ctx context.Context, providerID id.UserID) (*models.Record, error)
	SubmitCredential(ctx context.Context, providerID id.UserID, sub models.CredentialSubmission) (*models.Record, error)
	SubmitContact(ctx context.Context, providerID id.UserID, sub models.ContactSubmission) (*models.Record, error)
	Status(ctx context.Context, providerID id.UserID) (*models.StatusSnapshot, error)

	ApproveIdentity(ctx context.Context, providerID id.UserID) (*models.Record, error)
	RejectIdentity(ctx context.Context, providerID id.UserID, reason string) (*models.Record, error)
	ConfirmCredential(ctx context.Context, providerID id.UserID) (*models.Record, error)
	RejectCredential(ctx context.Context, providerID id.UserID, reason string) (*models.Record, error)
	BarCredential(ctx context.Context, providerID id.UserID, reason string) (*models.Record, error)
	RecordRegistryOutcome(ctx context.Context, providerID id.UserID, status models.CredentialStatus, note string) (*models.Record, error)
	ResolveCrossCheck(ctx context.Context, providerID id.UserID, note string) (*models.Record, error)
	ResetVerification(ctx context.Context, providerID id.UserID, reason string) (*models.Record, error)
	GetRecord(ctx context.Context, providerID id.UserID) (*models.Record, error)
	ListQueue(ctx context.Context, filter models.ListFilter) ([]*models.Record, int, error)
}

// Handler wires verification endpoints to the service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterProvider mounts the provider routes. The caller applies auth.
func (h *Handler) RegisterProvider(r chi.Router) {
	r.Post("/verification/identity", h.HandleSubmitIdentity)
	r.Post("/verification/identity/manual-review", h.HandleRequestManualReview)
	r.Post("/verification/credential", h.HandleSubmitCredential)
	r.Put("/verification/contact", h.HandleSubmitContact)
	r.Get("/verification/status", h.HandleStatus)
}

// RegisterAdmin mounts the admin console routes. The caller applies auth and the admin gate.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/admin/verifications", h.HandleListQueue)
	r.Route("/admin/verifications/{providerID}", func(r chi.Router) {
		r.Get("/", h.HandleGetRecord)
		r.Post("/identity/approve", h.HandleApproveIdentity)
		r.Post("/identity/reject", h.HandleRejectIdentity)
		r.Post("/credential/confirm", h.HandleConfirmCredential)
		r.Post("/credential/reject", h.HandleRejectCredential)
		r.Post("/credential/bar", h.HandleBarCredential)
		r.Post("/credential/registry-outcome", h.HandleRegistryOutcome)
		r.Post("/cross-check/resolve", h.HandleResolveCrossCheck)
		r.Post("/reset", h.HandleReset)
	})
}

// =============================================================================
// Provider routes
// =============================================================================

// HandleSubmitIdentity handles POST /verification/identity. The verdict arrives
// asynchronously, so the response is 202 with the record in processing.
func (h *Handler) HandleSubmitIdentity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	providerID, ok := h.requireUser(ctx, w)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[IdentityRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	rec, err := h.service.SubmitIdentity(ctx, providerID, req.ToSubmission())
	if err != nil {
		h.fail(ctx, w, "identity submission failed", providerID, err)
		return
	}
	httputil.WriteJSON(w, http.StatusAccepted, toRecordResponse(rec))
}

func (h *Handler) HandleRequestManualReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	providerID, ok := h.requireUser(ctx, w)
	if !ok {
		return
	}
	rec, err := h.service.RequestIdentityManualReview(ctx, providerID)
	if err != nil {
		h.fail(ctx, w, "manual review request failed", providerID, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toRecordResponse(rec))
}

// HandleSubmitCredential handles POST /verification/credential. Wallet
// submissions are asynchronous (202); the other methods decide inline (200).
func (h *Handler) HandleSubmitCredential(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	providerID, ok := h.requireUser(ctx, w)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[CredentialRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	sub := req.ToSubmission()
	rec, err := h.service.SubmitCredential(ctx, providerID, sub)
	if err != nil {
		h.fail(ctx, w, "credential submission failed", providerID, err)
		return
	}
	status := http.StatusOK
	if rec.Credential.Status.IsInFlight() {
		status = http.StatusAccepted
	}
	httputil.WriteJSON(w, status, toRecordResponse(rec))
}

func (h *Handler) HandleSubmitContact(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	providerID, ok := h.requireUser(ctx, w)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[ContactRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	rec, err := h.service.SubmitContact(ctx, providerID, req.ToSubmission())
	if err != nil {
		h.fail(ctx, w, "contact submission failed", providerID, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toRecordResponse(rec))
}

// HandleStatus handles GET /verification/status for the polling client.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	providerID, ok := h.requireUser(ctx, w)
	if !ok {
		return
	}
	snapshot, err := h.service.Status(ctx, providerID)
	if err != nil {
		h.fail(ctx, w, "status lookup failed", providerID, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toStatusResponse(snapshot))
}

// =============================================================================
// Admin routes
// =============================================================================

func (h *Handler) HandleListQueue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	filter, err := parseListFilter(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	records, total, err := h.service.ListQueue(ctx, filter)
	if err != nil {
		h.fail(ctx, w, "queue listing failed", id.UserID{}, err)
		return
	}
	filter.Normalize()
	resp := QueueResponse{
		Records: make([]RecordResponse, 0, len(records)),
		Total:   total,
		Limit:   filter.Limit,
		Offset:  filter.Offset,
	}
	for _, rec := range records {
		resp.Records = append(resp.Records, toRecordResponse(rec))
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *Handler) HandleGetRecord(w http.ResponseWriter, r *http.Request) {
	h.admin(w, r, "record lookup failed", h.service.GetRecord)
}

func (h *Handler) HandleApproveIdentity(w http.ResponseWriter, r *http.Request) {
	h.admin(w, r, "identity approval failed", h.service.ApproveIdentity)
}

func (h *Handler) HandleRejectIdentity(w http.ResponseWriter, r *http.Request) {
	h.adminWithReason(w, r, "identity rejection failed", h.service.RejectIdentity)
}

func (h *Handler) HandleConfirmCredential(w http.ResponseWriter, r *http.Request) {
	h.admin(w, r, "credential confirmation failed", h.service.ConfirmCredential)
}

func (h *Handler) HandleRejectCredential(w http.ResponseWriter, r *http.Request) {
	h.adminWithReason(w, r, "credential rejection failed", h.service.RejectCredential)
}

func (h *Handler) HandleBarCredential(w http.ResponseWriter, r *http.Request) {
	h.adminWithReason(w, r, "credential bar failed", h.service.BarCredential)
}

func (h *Handler) HandleRegistryOutcome(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	providerID, ok := parseProviderID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[RegistryOutcomeRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	rec, err := h.service.RecordRegistryOutcome(ctx, providerID, req.parsedStatus, req.Note)
	if err != nil {
		h.fail(ctx, w, "registry outcome failed", providerID, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toRecordResponse(rec))
}

func (h *Handler) HandleResolveCrossCheck(w http.ResponseWriter, r *http.Request) {
	h.adminWithNote(w, r, "cross-check resolution failed", h.service.ResolveCrossCheck)
}

func (h *Handler) HandleReset(w http.ResponseWriter, r *http.Request) {
	h.adminWithNote(w, r, "verification reset failed", h.service.ResetVerification)
}

func (h *Handler) admin(w http.ResponseWriter, r *http.Request, failure string, call func(context.Context, id.UserID) (*models.Record, error)) {
	ctx := r.Context()
	providerID, ok := parseProviderID(w, r)
	if !ok {
		return
	}
	rec, err := call(ctx, providerID)
	if err != nil {
		h.fail(ctx, w, failure, providerID, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toRecordResponse(rec))
}

func (h *Handler) adminWithReason(w http.ResponseWriter, r *http.Request, failure string, call func(context.Context, id.UserID, string) (*models.Record, error)) {
	ctx := r.Context()
	providerID, ok := parseProviderID(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeAndPrepare[ReasonRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	rec, err := call(ctx, providerID, req.Reason)
	if err != nil {
		h.fail(ctx, w, failure, providerID, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toRecordResponse(rec))
}

// adminWithNote accepts an empty body as an empty note.
func (h *Handler) adminWithNote(w http.ResponseWriter, r *http.Request, failure string, call func(context.Context, id.UserID, string) (*models.Record, error)) {
	ctx := r.Context()
	providerID, ok := parseProviderID(w, r)
	if !ok {
		return
	}
	note := ""
	if r.ContentLength != 0 {
		req, ok := httputil.DecodeAndPrepare[NoteRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
		if !ok {
			return
		}
		note = req.Note
	}
	rec, err := call(ctx, providerID, note)
	if err != nil {
		h.fail(ctx, w, failure, providerID, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toRecordResponse(rec))
}

// =============================================================================
// Helpers
// =============================================================================

func (h *Handler) requireUser(ctx context.Context, w http.ResponseWriter) (id.UserID, bool) {
	userID := requestcontext.UserID(ctx)
	if userID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return id.UserID{}, false
	}
	return userID, true
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, providerID id.UserID, err error) {
	attrs := []any{
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	}
	if !providerID.IsNil() {
		attrs = append(attrs, "provider_id", providerID.String())
	}
	if de, ok := dErrors.As(err); ok && dErrors.HTTPStatus(de.Code) < http.StatusInternalServerError {
		h.logger.WarnContext(ctx, msg, attrs...)
	} else {
		h.logger.ErrorContext(ctx, msg, attrs...)
	}
	httputil.WriteError(w, err)
}

func parseProviderID(w http.ResponseWriter, r *http.Request) (id.UserID, bool) {
	providerID, err := id.ParseUserID(chi.URLParam(r, "providerID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid provider ID"))
		return id.UserID{}, false
	}
	return providerID, true
}

// parseListFilter reads comma-separated status filters and paging from the query string.
func parseListFilter(r *http.Request) (models.ListFilter, error) {
	q := r.URL.Query()
	var filter models.ListFilter
	for _, raw := range platformstrings.SplitList(q.Get("identity_status")) {
		st, err := models.ParseIdentityStatus(raw)
		if err != nil {
			return filter, dErrors.New(dErrors.CodeValidation, err.Error())
		}
		filter.IdentityStatuses = append(filter.IdentityStatuses, st)
	}
	for _, raw := range platformstrings.SplitList(q.Get("credential_status")) {
		st, err := models.ParseCredentialStatus(raw)
		if err != nil {
			return filter, dErrors.New(dErrors.CodeValidation, err.Error())
		}
		filter.CredentialStatuses = append(filter.CredentialStatuses, st)
	}
	for _, raw := range platformstrings.SplitList(q.Get("verification_state")) {
		agg, ok := parseAggregate(raw)
		if !ok {
			return filter, dErrors.New(dErrors.CodeValidation, "invalid verification_state "+strconv.Quote(raw))
		}
		filter.Aggregates = append(filter.Aggregates, agg)
	}
	var err error
	if filter.Limit, err = intParam(q.Get("limit")); err != nil {
		return filter, dErrors.New(dErrors.CodeValidation, "limit must be a number")
	}
	if filter.Offset, err = intParam(q.Get("offset")); err != nil {
		return filter, dErrors.New(dErrors.CodeValidation, "offset must be a number")
	}
	return filter, nil
}

func intParam(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}

func parseAggregate(name string) (models.AggregateStatus, bool) {
	if n, err := strconv.Atoi(name); err == nil {
		agg := models.AggregateStatus(n)
		return agg, agg.IsValid()
	}
	for agg := models.AggregateNotStarted; agg <= models.AggregateFullyVerified; agg++ {
		if agg.String() == name {
			return agg, true
		}
	}
	return 0, false
}
