package models

import (
	"fmt"
	"strings"
)

// IdentityStatus is the lifecycle state of the photo-identity stage.
type IdentityStatus string

const (
	IdentityNotStarted IdentityStatus = "not_started"
	IdentityPending    IdentityStatus = "pending"
	IdentityProcessing IdentityStatus = "processing"
	IdentityVerified   IdentityStatus = "verified"
	IdentityReview     IdentityStatus = "review"
	IdentityRejected   IdentityStatus = "rejected"
	IdentityFailed     IdentityStatus = "failed"
)

var identityStatuses = map[IdentityStatus]struct{}{
	IdentityNotStarted: {}, IdentityPending: {}, IdentityProcessing: {}, IdentityVerified: {},
	IdentityReview: {}, IdentityRejected: {}, IdentityFailed: {},
}

func ParseIdentityStatus(s string) (IdentityStatus, error) {
	status := IdentityStatus(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := identityStatuses[status]; !ok {
		return "", fmt.Errorf("invalid identity status %q", s)
	}
	return status, nil
}

func (s IdentityStatus) IsValid() bool {
	_, ok := identityStatuses[s]
	return ok
}

// IsInFlight reports whether an extraction verdict is outstanding.
func (s IdentityStatus) IsInFlight() bool {
	return s == IdentityPending || s == IdentityProcessing
}

func (s IdentityStatus) IsFailure() bool {
	return s == IdentityRejected || s == IdentityFailed
}

// CanResubmit reports whether a provider may submit a new identity document.
func (s IdentityStatus) CanResubmit() bool {
	switch s {
	case IdentityNotStarted, IdentityPending, IdentityProcessing, IdentityFailed, IdentityRejected:
		return true
	default:
		return false
	}
}

func (s IdentityStatus) String() string { return string(s) }

// CredentialMethod is how the provider supplied their clearance.
type CredentialMethod string

const (
	MethodDocumentEmail CredentialMethod = "document_email"
	MethodMobileWallet  CredentialMethod = "mobile_wallet"
	MethodManualEntry   CredentialMethod = "manual_entry"
)

func ParseCredentialMethod(s string) (CredentialMethod, error) {
	m := CredentialMethod(strings.ToLower(strings.TrimSpace(s)))
	switch m {
	case MethodDocumentEmail, MethodMobileWallet, MethodManualEntry:
		return m, nil
	}
	return "", fmt.Errorf("invalid credential method %q", s)
}

// CredentialStatus is the lifecycle state of the background-check credential stage.
type CredentialStatus string

const (
	CredentialNotStarted         CredentialStatus = "not_started"
	CredentialPending            CredentialStatus = "pending"
	CredentialProcessing         CredentialStatus = "processing"
	CredentialDocVerified        CredentialStatus = "doc_verified"
	CredentialVerified           CredentialStatus = "verified"
	CredentialReview             CredentialStatus = "review"
	CredentialRejected           CredentialStatus = "rejected"
	CredentialFailed             CredentialStatus = "failed"
	CredentialExpired            CredentialStatus = "expired"
	CredentialBarred             CredentialStatus = "barred"
	CredentialOCGNotFound        CredentialStatus = "ocg_not_found"
	CredentialClosed             CredentialStatus = "closed"
	CredentialApplicationPending CredentialStatus = "application_pending"
)

var credentialStatuses = map[CredentialStatus]struct{}{
	CredentialNotStarted: {}, CredentialPending: {}, CredentialProcessing: {}, CredentialDocVerified: {},
	CredentialVerified: {}, CredentialReview: {}, CredentialRejected: {}, CredentialFailed: {},
	CredentialExpired: {}, CredentialBarred: {}, CredentialOCGNotFound: {}, CredentialClosed: {},
	CredentialApplicationPending: {},
}

func ParseCredentialStatus(s string) (CredentialStatus, error) {
	status := CredentialStatus(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := credentialStatuses[status]; !ok {
		return "", fmt.Errorf("invalid credential status %q", s)
	}
	return status, nil
}

func (s CredentialStatus) IsValid() bool {
	_, ok := credentialStatuses[s]
	return ok
}

func (s CredentialStatus) IsInFlight() bool {
	return s == CredentialPending || s == CredentialProcessing
}

// IsSatisfied reports whether the credential counts as verified for cross-check and aggregate purposes.
func (s CredentialStatus) IsSatisfied() bool {
	return s == CredentialDocVerified || s == CredentialVerified
}

// CanResubmit reports whether a provider may submit a new credential.
// Barred is handled separately because it is a forbidden state, not a conflict.
func (s CredentialStatus) CanResubmit() bool {
	switch s {
	case CredentialNotStarted, CredentialPending, CredentialProcessing, CredentialRejected,
		CredentialFailed, CredentialExpired, CredentialOCGNotFound, CredentialClosed,
		CredentialApplicationPending:
		return true
	default:
		return false
	}
}

// IsRegistryOutcome reports whether the status is one an admin records from the issuing registry.
func (s CredentialStatus) IsRegistryOutcome() bool {
	return s == CredentialOCGNotFound || s == CredentialClosed || s == CredentialApplicationPending
}

// CredentialCategory groups credential statuses for rendering.
type CredentialCategory string

const (
	CategoryNone             CredentialCategory = "none"
	CategoryInProgress       CredentialCategory = "in_progress"
	CategoryAwaitingReview   CredentialCategory = "awaiting_review"
	CategorySuccess          CredentialCategory = "success"
	CategoryRejected         CredentialCategory = "rejected"
	CategoryHardFailure      CredentialCategory = "hard_failure"
	CategoryPendingElsewhere CredentialCategory = "pending_elsewhere"
	CategoryBarred           CredentialCategory = "barred"
)

// Category keeps the registry outcomes distinct from ordinary rejections.
func (s CredentialStatus) Category() CredentialCategory {
	switch s {
	case CredentialPending, CredentialProcessing:
		return CategoryInProgress
	case CredentialReview:
		return CategoryAwaitingReview
	case CredentialDocVerified, CredentialVerified:
		return CategorySuccess
	case CredentialRejected, CredentialFailed, CredentialExpired:
		return CategoryRejected
	case CredentialOCGNotFound, CredentialClosed:
		return CategoryHardFailure
	case CredentialApplicationPending:
		return CategoryPendingElsewhere
	case CredentialBarred:
		return CategoryBarred
	default:
		return CategoryNone
	}
}

func (s CredentialStatus) String() string { return string(s) }

// ContactStatus is the lifecycle state of the contact-details stage.
type ContactStatus string

const (
	ContactNotStarted ContactStatus = "not_started"
	ContactSaved      ContactStatus = "saved"
)

func (s ContactStatus) String() string { return string(s) }

// CrossCheckStatus is the outcome of reconciling identity and credential data.
type CrossCheckStatus string

const (
	CrossCheckNotStarted CrossCheckStatus = "not_started"
	CrossCheckPassed     CrossCheckStatus = "passed"
	CrossCheckReview     CrossCheckStatus = "review"
)

// HasRun reports whether the cross-check has already produced an outcome.
func (s CrossCheckStatus) HasRun() bool {
	return s == CrossCheckPassed || s == CrossCheckReview
}

func (s CrossCheckStatus) String() string { return string(s) }
