package audit

import (
	"context"
	"time"

	id "carematch/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose.
// This enables different retention policies and routing.
type EventCategory string

const (
	// CategoryCompliance covers admin decisions and account changes that must
	// be attributable to an actor. Fail-closed: the action fails if the write fails.
	CategoryCompliance EventCategory = "compliance"

	// CategoryOperations covers routine pipeline activity (submissions, verdicts).
	// Best effort and sampled.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category  EventCategory
	Timestamp time.Time
	// UserID is the provider or account the action was taken on.
	UserID   id.UserID
	Subject  string
	Action   string
	Decision string
	Reason   string
	// RequestID is the correlation ID from the HTTP request context.
	RequestID string
	// ActorID tracks who performed the action when different from UserID.
	ActorID string
}

type AuditEvent string

const (
	// Provider pipeline events
	EventIdentitySubmitted     AuditEvent = "identity_submitted"
	EventManualReviewRequested AuditEvent = "identity_manual_review_requested"
	EventCredentialSubmitted   AuditEvent = "credential_submitted"
	EventContactSaved          AuditEvent = "contact_saved"
	EventVerdictApplied        AuditEvent = "verdict_applied"
	EventCrossCheckCompleted   AuditEvent = "cross_check_completed"
	EventCredentialExpired     AuditEvent = "credential_expired"

	// Admin override events
	EventIdentityApproved         AuditEvent = "identity_approved"
	EventIdentityRejected         AuditEvent = "identity_rejected"
	EventCredentialConfirmed      AuditEvent = "credential_confirmed"
	EventCredentialRejected       AuditEvent = "credential_rejected"
	EventCredentialBarred         AuditEvent = "credential_barred"
	EventCredentialRegistryResult AuditEvent = "credential_registry_outcome"
	EventCrossCheckResolved       AuditEvent = "cross_check_resolved"
	EventVerificationReset        AuditEvent = "verification_reset"

	// Account events
	EventUserRoleChanged AuditEvent = "user_role_changed"
	EventUserDeleted     AuditEvent = "user_deleted"
)

// eventCategories maps each audit event to its category.
var eventCategories = map[AuditEvent]EventCategory{
	EventIdentityApproved:         CategoryCompliance,
	EventIdentityRejected:         CategoryCompliance,
	EventCredentialConfirmed:      CategoryCompliance,
	EventCredentialRejected:       CategoryCompliance,
	EventCredentialBarred:         CategoryCompliance,
	EventCredentialRegistryResult: CategoryCompliance,
	EventCrossCheckResolved:       CategoryCompliance,
	EventVerificationReset:        CategoryCompliance,
	EventUserRoleChanged:          CategoryCompliance,
	EventUserDeleted:              CategoryCompliance,

	EventIdentitySubmitted:     CategoryOperations,
	EventManualReviewRequested: CategoryOperations,
	EventCredentialSubmitted:   CategoryOperations,
	EventContactSaved:          CategoryOperations,
	EventVerdictApplied:        CategoryOperations,
	EventCrossCheckCompleted:   CategoryOperations,
	EventCredentialExpired:     CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store persists audit events.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByUser(ctx context.Context, userID id.UserID) ([]Event, error)
	ListRecent(ctx context.Context, limit int) ([]Event, error)
}

// ComplianceEvent captures an attributable admin or account action.
// Use with the compliance publisher for fail-closed semantics.
type ComplianceEvent struct {
	Timestamp time.Time // set automatically if zero
	UserID    id.UserID // the provider or account affected (required)
	Subject   string    // stage or resource acted on
	Action    string    // e.g. "identity_rejected"
	Decision  string    // resulting status
	Reason    string    // admin-supplied reason or note
	RequestID string
	ActorID   string // admin who performed the action (required)
}

// Category returns CategoryCompliance (always).
func (e ComplianceEvent) Category() EventCategory { return CategoryCompliance }

// ToEvent converts to the stored Event shape.
func (e ComplianceEvent) ToEvent() Event {
	return Event{
		Category:  CategoryCompliance,
		Timestamp: e.Timestamp,
		UserID:    e.UserID,
		Subject:   e.Subject,
		Action:    e.Action,
		Decision:  e.Decision,
		Reason:    e.Reason,
		RequestID: e.RequestID,
		ActorID:   e.ActorID,
	}
}

// OpsEvent captures routine pipeline activity with minimal overhead.
// Use with the ops tracker for non-blocking, sampled emission.
type OpsEvent struct {
	Timestamp time.Time
	UserID    id.UserID
	Subject   string
	Action    string
	Decision  string
	RequestID string
}

// Category returns CategoryOperations (always).
func (e OpsEvent) Category() EventCategory { return CategoryOperations }

func (e OpsEvent) ToEvent() Event {
	return Event{
		Category:  CategoryOperations,
		Timestamp: e.Timestamp,
		UserID:    e.UserID,
		Subject:   e.Subject,
		Action:    e.Action,
		Decision:  e.Decision,
		RequestID: e.RequestID,
	}
}
