package models

import (
	"time"

	id "carematch/pkg/domain"
	dErrors "carematch/pkg/domain-errors"
)

// CredentialSubmission is the validated payload of a credential submission.
type CredentialSubmission struct {
	Method       CredentialMethod
	Number       string
	Expiry       string
	DocumentRefs []string
	Attested     bool
}

// CanSubmitCredential enforces the identity lock and the resubmission table.
func (r *Record) CanSubmitCredential() error {
	if r.Identity.Status != IdentityVerified {
		return dErrors.New(dErrors.CodeStageLocked, "credential is locked until identity is verified")
	}
	if r.Credential.Status == CredentialBarred {
		return dErrors.New(dErrors.CodeForbidden, "credential is barred")
	}
	if !r.Credential.Status.CanResubmit() {
		return dErrors.New(dErrors.CodeConflict, "credential is "+r.Credential.Status.String()+" and cannot be resubmitted")
	}
	return nil
}

func (r *Record) startCredential(sub CredentialSubmission, status CredentialStatus, submissionID id.SubmissionID, now time.Time) {
	r.Credential = CredentialStage{
		Status:       status,
		SubmissionID: submissionID,
		Method:       sub.Method,
		Number:       sub.Number,
		Expiry:       sub.Expiry,
		DocumentRefs: append([]string(nil), sub.DocumentRefs...),
		Attested:     sub.Attested,
		SubmittedAt:  timePtr(now),
	}
	r.resetCrossCheck()
	r.UpdatedAt = now
}

// ApplyDocumentVerified saves a locally inspected document that passed every check.
func (r *Record) ApplyDocumentVerified(sub CredentialSubmission, fields CredentialExtraction, expiryWarning bool, submissionID id.SubmissionID, now time.Time) {
	r.startCredential(sub, CredentialDocVerified, submissionID, now)
	r.Credential.Number = fields.Number
	r.Credential.Expiry = fields.Expiry
	r.Credential.Extracted = fields
	r.Credential.DocVerified = true
	r.Credential.ExpiryWarning = expiryWarning
	r.Credential.DecidedAt = timePtr(now)
}

// ApplyWalletSubmission saves a mobile wallet credential awaiting extraction.
func (r *Record) ApplyWalletSubmission(sub CredentialSubmission, submissionID id.SubmissionID, now time.Time) {
	r.startCredential(sub, CredentialPending, submissionID, now)
}

// ApplyManualEntry saves a typed-in credential for admin review.
func (r *Record) ApplyManualEntry(sub CredentialSubmission, expiryWarning bool, submissionID id.SubmissionID, now time.Time) {
	r.startCredential(sub, CredentialReview, submissionID, now)
	r.Credential.ExpiryWarning = expiryWarning
}

// CredentialJob builds the extraction job for the current credential submission.
func (r *Record) CredentialJob(now time.Time) ExtractionJob {
	return ExtractionJob{
		ProviderID:   r.ProviderID,
		SubmissionID: r.Credential.SubmissionID,
		Phase:        PhaseCredential,
		DocumentRefs: append([]string(nil), r.Credential.DocumentRefs...),
		Expected:     r.ExpectedIdentity(),
		EnqueuedAt:   now,
	}
}

// CanStartProcessing guards the worker's pending to processing move.
func (r *Record) CanStartProcessing(phase Phase, submissionID id.SubmissionID) error {
	switch phase {
	case PhaseIdentity:
		return r.CanApplyIdentityVerdict(submissionID)
	case PhaseCredential:
		return r.CanApplyCredentialVerdict(submissionID)
	}
	return dErrors.New(dErrors.CodeBadRequest, "unknown phase")
}

// ApplyProcessing marks the job's stage as being worked on. Idempotent.
func (r *Record) ApplyProcessing(phase Phase, now time.Time) {
	switch phase {
	case PhaseIdentity:
		if r.Identity.Status == IdentityPending {
			r.Identity.Status = IdentityProcessing
			r.UpdatedAt = now
		}
	case PhaseCredential:
		if r.Credential.Status == CredentialPending {
			r.Credential.Status = CredentialProcessing
			r.UpdatedAt = now
		}
	}
}

func (r *Record) CanApplyCredentialVerdict(submissionID id.SubmissionID) error {
	if r.Credential.SubmissionID != submissionID || !r.Credential.Status.IsInFlight() {
		return ErrSuperseded
	}
	return nil
}

// CredentialStatusForVerdict maps a collaborator verdict to a credential status.
// expired reports whether the extracted expiry is already past.
func CredentialStatusForVerdict(result *ExtractionResult, expired bool) CredentialStatus {
	if result.Pass {
		if expired {
			return CredentialExpired
		}
		return CredentialVerified
	}
	switch result.Outcome {
	case OutcomeReview:
		return CredentialReview
	case OutcomeOCGNotFound:
		return CredentialOCGNotFound
	case OutcomeClosed:
		return CredentialClosed
	case OutcomeApplicationPending:
		return CredentialApplicationPending
	case OutcomeBarred:
		return CredentialBarred
	case OutcomeFailed:
		return CredentialFailed
	}
	return CredentialRejected
}

// ApplyCredentialVerdict writes the verdict outcome and extracted data.
func (r *Record) ApplyCredentialVerdict(status CredentialStatus, result *ExtractionResult, expiryWarning bool, now time.Time) {
	r.Credential.Status = status
	r.Credential.Extracted = result.Credential
	if result.Credential.Number != "" {
		r.Credential.Number = result.Credential.Number
	}
	if result.Credential.Expiry != "" {
		r.Credential.Expiry = result.Credential.Expiry
	}
	r.Credential.Reasoning = result.Reasoning
	r.Credential.Issues = append([]string(nil), result.Issues...)
	r.Credential.ExpiryWarning = expiryWarning
	r.Credential.RejectionReason = ""
	r.Credential.Guidance = nil
	r.Credential.DecidedAt = timePtr(now)
	if status == CredentialExpired && result.Pass {
		r.Credential.RejectionReason = "credential expired on " + r.Credential.Expiry
		r.Credential.Guidance = CredentialGuidance(CredentialExpired, nil)
	} else if !status.IsSatisfied() && status != CredentialReview {
		if status != CredentialApplicationPending {
			r.Credential.RejectionReason = rejectionReason(result)
		}
		r.Credential.Guidance = result.Guidance.Clone()
		if r.Credential.Guidance == nil {
			r.Credential.Guidance = CredentialGuidance(status, result.Issues)
		}
	}
	r.UpdatedAt = now
}

// ApplyCredentialFailure records a collaborator failure after retries were exhausted.
func (r *Record) ApplyCredentialFailure(reason string, now time.Time) {
	r.Credential.Status = CredentialFailed
	r.Credential.RejectionReason = reason
	r.Credential.Guidance = &Guidance{
		Title:       "We couldn't check your clearance right now",
		Explanation: reason,
		Steps:       []string{"Please submit your clearance again in a few minutes."},
	}
	r.Credential.DecidedAt = timePtr(now)
	r.UpdatedAt = now
}

// CanConfirmCredential is the admin confirmation guard.
func (r *Record) CanConfirmCredential() error {
	if r.Identity.Status != IdentityVerified {
		return dErrors.New(dErrors.CodeConflict, "identity must be verified before the credential can be confirmed")
	}
	switch r.Credential.Status {
	case CredentialReview, CredentialPending, CredentialProcessing, CredentialApplicationPending:
		return nil
	}
	return dErrors.New(dErrors.CodeConflict, "credential is "+r.Credential.Status.String()+" and cannot be confirmed")
}

// ApplyCredentialConfirmation marks the credential doc-verified by an admin. Extracted data is kept.
func (r *Record) ApplyCredentialConfirmation(actor string, now time.Time) {
	r.Credential.Status = CredentialDocVerified
	r.Credential.AdminVerified = true
	r.Credential.RejectionReason = ""
	r.Credential.Guidance = nil
	r.Credential.DecidedAt = timePtr(now)
	r.Credential.DecidedBy = actor
	r.UpdatedAt = now
}

// CanAdjudicateCredential guards admin reject, bar and registry outcomes.
func (r *Record) CanAdjudicateCredential() error {
	switch r.Credential.Status {
	case CredentialNotStarted:
		return dErrors.New(dErrors.CodeConflict, "credential has not been submitted")
	case CredentialBarred:
		return dErrors.New(dErrors.CodeConflict, "credential is already barred")
	}
	return nil
}

// ApplyCredentialOutcome sets an admin-decided outcome and invalidates any cross-check.
func (r *Record) ApplyCredentialOutcome(status CredentialStatus, actor, reason string, now time.Time) {
	r.Credential.Status = status
	r.Credential.AdminVerified = false
	r.Credential.RejectionReason = reason
	r.Credential.Guidance = CredentialGuidance(status, nil)
	r.Credential.DecidedAt = timePtr(now)
	r.Credential.DecidedBy = actor
	r.resetCrossCheck()
	r.UpdatedAt = now
}

// IsExpiredOn reports whether a satisfied credential's expiry date is before day.
func (r *Record) IsExpiredOn(day time.Time) bool {
	if !r.Credential.Status.IsSatisfied() || r.Credential.Expiry == "" {
		return false
	}
	expiry, err := time.Parse(time.DateOnly, r.Credential.Expiry)
	if err != nil {
		return false
	}
	return expiry.Before(day)
}

// ApplyExpiry moves a lapsed credential to expired.
func (r *Record) ApplyExpiry(now time.Time) {
	r.Credential.Status = CredentialExpired
	r.Credential.RejectionReason = "credential expired on " + r.Credential.Expiry
	r.Credential.Guidance = CredentialGuidance(CredentialExpired, nil)
	r.Credential.DecidedAt = timePtr(now)
	r.resetCrossCheck()
	r.UpdatedAt = now
}

// ResetCredential wipes the credential stage back to not_started.
func (r *Record) ResetCredential() {
	r.Credential = CredentialStage{Status: CredentialNotStarted}
}
