package models

import (
	"strings"
	"time"

	id "carematch/pkg/domain"
	dErrors "carematch/pkg/domain-errors"
)

// ErrSuperseded marks a verdict or job whose submission is no longer current.
var ErrSuperseded = dErrors.New(dErrors.CodeConflict, "submission superseded")

const genericRejectionReason = "We could not verify the document you submitted."

// IdentitySubmission is the validated payload of an identity submission.
type IdentitySubmission struct {
	Surname        string
	GivenNames     string
	DateOfBirth    string
	CountryOfIssue string
	DocumentRef    string
	SelfieRef      string
	Attested       bool
}

// CanSubmitIdentity checks the current identity status allows a (re)submission.
func (r *Record) CanSubmitIdentity() error {
	if !r.Identity.Status.CanResubmit() {
		return dErrors.New(dErrors.CodeConflict, "identity is "+r.Identity.Status.String()+" and cannot be resubmitted")
	}
	return nil
}

// ApplyIdentitySubmission stores the new submission and clears the previous outcome.
func (r *Record) ApplyIdentitySubmission(sub IdentitySubmission, submissionID id.SubmissionID, now time.Time) {
	r.Identity = IdentityStage{
		Status:         IdentityProcessing,
		SubmissionID:   submissionID,
		Surname:        sub.Surname,
		GivenNames:     sub.GivenNames,
		DateOfBirth:    sub.DateOfBirth,
		CountryOfIssue: sub.CountryOfIssue,
		DocumentRef:    sub.DocumentRef,
		SelfieRef:      sub.SelfieRef,
		SubmittedAt:    timePtr(now),
	}
	r.UpdatedAt = now
}

// IdentityJob builds the extraction job for the current identity submission.
func (r *Record) IdentityJob(now time.Time) ExtractionJob {
	return ExtractionJob{
		ProviderID:   r.ProviderID,
		SubmissionID: r.Identity.SubmissionID,
		Phase:        PhaseIdentity,
		DocumentRefs: []string{r.Identity.DocumentRef, r.Identity.SelfieRef},
		Expected:     r.ExpectedIdentity(),
		EnqueuedAt:   now,
	}
}

// ExpectedIdentity is the identity the provider claimed, used to judge documents.
func (r *Record) ExpectedIdentity() ExpectedIdentity {
	return ExpectedIdentity{
		Surname:        r.Identity.Surname,
		GivenNames:     r.Identity.GivenNames,
		DateOfBirth:    r.Identity.DateOfBirth,
		CountryOfIssue: r.Identity.CountryOfIssue,
	}
}

// CanApplyIdentityVerdict guards verdict write-back against stale or superseded jobs.
func (r *Record) CanApplyIdentityVerdict(submissionID id.SubmissionID) error {
	if r.Identity.SubmissionID != submissionID || !r.Identity.Status.IsInFlight() {
		return ErrSuperseded
	}
	return nil
}

// ApplyIdentityVerdict maps the collaborator verdict onto the identity stage.
func (r *Record) ApplyIdentityVerdict(result *ExtractionResult, now time.Time) {
	r.Identity.Extracted = result.Identity
	r.Identity.Reasoning = result.Reasoning
	r.Identity.Issues = append([]string(nil), result.Issues...)
	r.Identity.Guidance = result.Guidance.Clone()
	r.Identity.RejectionReason = ""
	r.Identity.DecidedAt = timePtr(now)
	r.Identity.DecidedBy = ""

	switch {
	case result.Pass:
		r.Identity.Status = IdentityVerified
		r.Identity.Guidance = nil
	case result.Outcome == OutcomeReview:
		r.Identity.Status = IdentityReview
	case result.Outcome == OutcomeFailed:
		r.Identity.Status = IdentityFailed
		r.Identity.RejectionReason = rejectionReason(result)
	default:
		r.Identity.Status = IdentityRejected
		r.Identity.RejectionReason = rejectionReason(result)
	}
	if r.Identity.Status.IsFailure() && r.Identity.Guidance == nil {
		r.Identity.Guidance = IdentityRejectionGuidance(result.Issues)
	}
	r.UpdatedAt = now
}

// ApplyIdentityFailure records a collaborator failure after retries were exhausted.
func (r *Record) ApplyIdentityFailure(reason string, now time.Time) {
	r.Identity.Status = IdentityFailed
	r.Identity.RejectionReason = reason
	r.Identity.Guidance = &Guidance{
		Title:       "We couldn't check your ID right now",
		Explanation: reason,
		Steps:       []string{"Please submit your ID again in a few minutes."},
	}
	r.Identity.DecidedAt = timePtr(now)
	r.UpdatedAt = now
}

// CanRequestManualReview allows escalation only from a failed outcome.
func (r *Record) CanRequestManualReview() error {
	if !r.Identity.Status.IsFailure() {
		return dErrors.New(dErrors.CodeConflict, "manual review is only available after a failed identity check")
	}
	return nil
}

// ApplyManualReview moves identity to review and wipes downstream stages in the same write.
func (r *Record) ApplyManualReview(now time.Time) {
	r.Identity.Status = IdentityReview
	r.Identity.RejectionReason = ""
	r.Identity.Guidance = nil
	r.ResetCredential()
	r.resetCrossCheck()
	r.UpdatedAt = now
}

// CanApproveIdentity is the admin approval guard.
func (r *Record) CanApproveIdentity() error {
	switch r.Identity.Status {
	case IdentityPending, IdentityProcessing, IdentityReview, IdentityRejected, IdentityFailed:
		return nil
	}
	return dErrors.New(dErrors.CodeConflict, "identity is "+r.Identity.Status.String()+" and cannot be approved")
}

func (r *Record) ApplyIdentityApproval(actor string, now time.Time) {
	r.Identity.Status = IdentityVerified
	r.Identity.RejectionReason = ""
	r.Identity.Guidance = nil
	r.Identity.DecidedAt = timePtr(now)
	r.Identity.DecidedBy = actor
	r.UpdatedAt = now
}

// CanRejectIdentity is the admin rejection guard.
func (r *Record) CanRejectIdentity() error {
	switch r.Identity.Status {
	case IdentityPending, IdentityProcessing, IdentityReview, IdentityFailed, IdentityVerified:
		return nil
	}
	return dErrors.New(dErrors.CodeConflict, "identity is "+r.Identity.Status.String()+" and cannot be rejected")
}

// ApplyIdentityRejection rejects the identity. Revoking a verified identity also
// resets the credential and cross-check, which were unlocked by it.
func (r *Record) ApplyIdentityRejection(actor, reason string, now time.Time) {
	wasVerified := r.Identity.Status == IdentityVerified
	r.Identity.Status = IdentityRejected
	r.Identity.RejectionReason = reason
	r.Identity.Guidance = IdentityRejectionGuidance([]string{reason})
	r.Identity.DecidedAt = timePtr(now)
	r.Identity.DecidedBy = actor
	if wasVerified {
		r.ResetCredential()
		r.resetCrossCheck()
	}
	r.UpdatedAt = now
}

// ApplyReset zeroes every stage while keeping the record identity.
func (r *Record) ApplyReset(now time.Time) {
	r.resetStages()
	r.UpdatedAt = now
}

func rejectionReason(result *ExtractionResult) string {
	if len(result.Issues) > 0 {
		return strings.Join(result.Issues, "; ")
	}
	if strings.TrimSpace(result.Reasoning) != "" {
		return result.Reasoning
	}
	return genericRejectionReason
}
