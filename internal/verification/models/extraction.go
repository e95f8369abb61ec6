package models

import (
	"slices"
	"time"

	id "carematch/pkg/domain"
)

// Phase selects which document set the extraction collaborator judges.
type Phase string

const (
	PhaseIdentity   Phase = "identity"
	PhaseCredential Phase = "credential"
)

// Verdict outcomes reported by the extraction collaborator alongside pass=false.
const (
	OutcomeReview             = "review"
	OutcomeFailed             = "failed"
	OutcomeOCGNotFound        = "ocg_not_found"
	OutcomeClosed             = "closed"
	OutcomeApplicationPending = "application_pending"
	OutcomeBarred             = "barred"
)

// ExpectedIdentity is what the provider claimed; the collaborator judges documents against it.
type ExpectedIdentity struct {
	Surname        string `json:"surname"`
	GivenNames     string `json:"given_names"`
	DateOfBirth    string `json:"date_of_birth"`
	CountryOfIssue string `json:"country_of_issue"`
}

// ExtractionJob is the unit of asynchronous work dispatched on submission.
type ExtractionJob struct {
	ProviderID   id.UserID        `json:"provider_id"`
	SubmissionID id.SubmissionID  `json:"submission_id"`
	Phase        Phase            `json:"phase"`
	DocumentRefs []string         `json:"document_refs"`
	Expected     ExpectedIdentity `json:"expected"`
	EnqueuedAt   time.Time        `json:"enqueued_at"`
}

// ExtractionResult is the collaborator's verdict for one job.
type ExtractionResult struct {
	Pass       bool                 `json:"pass"`
	Outcome    string               `json:"outcome,omitempty"`
	Identity   IdentityExtraction   `json:"identity"`
	Credential CredentialExtraction `json:"credential"`
	Reasoning  string               `json:"reasoning,omitempty"`
	Issues     []string             `json:"issues,omitempty"`
	Guidance   *Guidance            `json:"guidance,omitempty"`
}

func (r *ExtractionResult) Clone() *ExtractionResult {
	if r == nil {
		return nil
	}
	c := *r
	c.Issues = slices.Clone(r.Issues)
	c.Guidance = r.Guidance.Clone()
	return &c
}

// DocumentOutcome classifies the local inspection of an emailed clearance document.
type DocumentOutcome string

const (
	DocumentParsed       DocumentOutcome = "parsed"
	DocumentUnreadable   DocumentOutcome = "unreadable"
	DocumentAmbiguous    DocumentOutcome = "ambiguous"
	DocumentNameMismatch DocumentOutcome = "name_mismatch"
	DocumentExpired      DocumentOutcome = "expired"
)

// DocumentInspection is what the local inspector could read from the document.
type DocumentInspection struct {
	Outcome DocumentOutcome      `json:"outcome"`
	Fields  CredentialExtraction `json:"fields"`
	Detail  string               `json:"detail,omitempty"`
}
