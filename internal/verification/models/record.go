package models

import (
	"context"
	"slices"
	"time"

	id "carematch/pkg/domain"
)

// Record is the aggregate root holding every verification stage of one provider.
//
// Invariants:
//   - exactly one record per provider; admin reset zeroes stages instead of deleting
//   - Credential.Status stays not_started until Identity.Status is verified
//   - Contact can be saved once Credential.Status left not_started
//   - CrossCheck runs at most once per pair of satisfied stages
//   - VerificationStatus always equals Project(r.Statuses())
type Record struct {
	ID                 id.RecordID     `json:"id"`
	ProviderID         id.UserID       `json:"provider_id"`
	Identity           IdentityStage   `json:"identity"`
	Credential         CredentialStage `json:"credential"`
	Contact            ContactStage    `json:"contact"`
	CrossCheck         CrossCheck      `json:"cross_check"`
	VerificationStatus AggregateStatus `json:"verification_status"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

type IdentityStage struct {
	Status          IdentityStatus     `json:"status"`
	SubmissionID    id.SubmissionID    `json:"submission_id"`
	Surname         string             `json:"surname,omitempty"`
	GivenNames      string             `json:"given_names,omitempty"`
	DateOfBirth     string             `json:"date_of_birth,omitempty"`
	CountryOfIssue  string             `json:"country_of_issue,omitempty"`
	DocumentRef     string             `json:"document_ref,omitempty"`
	SelfieRef       string             `json:"selfie_ref,omitempty"`
	Extracted       IdentityExtraction `json:"extracted"`
	Reasoning       string             `json:"reasoning,omitempty"`
	Issues          []string           `json:"issues,omitempty"`
	RejectionReason string             `json:"rejection_reason,omitempty"`
	Guidance        *Guidance          `json:"guidance,omitempty"`
	SubmittedAt     *time.Time         `json:"submitted_at,omitempty"`
	DecidedAt       *time.Time         `json:"decided_at,omitempty"`
	DecidedBy       string             `json:"decided_by,omitempty"`
}

type IdentityExtraction struct {
	Surname        string `json:"surname,omitempty"`
	GivenNames     string `json:"given_names,omitempty"`
	DateOfBirth    string `json:"date_of_birth,omitempty"`
	Nationality    string `json:"nationality,omitempty"`
	DocumentNumber string `json:"document_number,omitempty"`
	Expiry         string `json:"expiry,omitempty"`
}

type CredentialStage struct {
	Status          CredentialStatus     `json:"status"`
	SubmissionID    id.SubmissionID      `json:"submission_id"`
	Method          CredentialMethod     `json:"method,omitempty"`
	Number          string               `json:"number,omitempty"`
	Expiry          string               `json:"expiry,omitempty"`
	DocumentRefs    []string             `json:"document_refs,omitempty"`
	Extracted       CredentialExtraction `json:"extracted"`
	DocVerified     bool                 `json:"doc_verified"`
	AdminVerified   bool                 `json:"admin_verified"`
	ExpiryWarning   bool                 `json:"expiry_warning"`
	Attested        bool                 `json:"attested"`
	Reasoning       string               `json:"reasoning,omitempty"`
	Issues          []string             `json:"issues,omitempty"`
	RejectionReason string               `json:"rejection_reason,omitempty"`
	Guidance        *Guidance            `json:"guidance,omitempty"`
	SubmittedAt     *time.Time           `json:"submitted_at,omitempty"`
	DecidedAt       *time.Time           `json:"decided_at,omitempty"`
	DecidedBy       string               `json:"decided_by,omitempty"`
}

type CredentialExtraction struct {
	Surname       string `json:"surname,omitempty"`
	FirstName     string `json:"first_name,omitempty"`
	OtherNames    string `json:"other_names,omitempty"`
	Number        string `json:"number,omitempty"`
	ClearanceType string `json:"clearance_type,omitempty"`
	Expiry        string `json:"expiry,omitempty"`
}

// HasNames reports whether the credential carries names that can be reconciled.
func (e CredentialExtraction) HasNames() bool {
	return e.Surname != "" || e.FirstName != ""
}

type ContactStage struct {
	Status   ContactStatus `json:"status"`
	Phone    string        `json:"phone,omitempty"`
	Street   string        `json:"street,omitempty"`
	City     string        `json:"city,omitempty"`
	Region   string        `json:"region,omitempty"`
	Postcode string        `json:"postcode,omitempty"`
	Country  string        `json:"country,omitempty"`
	SavedAt  *time.Time    `json:"saved_at,omitempty"`
}

type CrossCheck struct {
	Status     CrossCheckStatus `json:"status"`
	Reasoning  string           `json:"reasoning,omitempty"`
	CheckedAt  *time.Time       `json:"checked_at,omitempty"`
	ResolvedBy string           `json:"resolved_by,omitempty"`
}

// WriteHook runs inside a guarded write after the mutation is applied.
// A hook error aborts the write and leaves the stored record unchanged.
type WriteHook func(ctx context.Context, rec *Record) error

// NewRecord creates an empty record with every stage at not_started.
func NewRecord(recordID id.RecordID, providerID id.UserID, now time.Time) *Record {
	r := &Record{
		ID:         recordID,
		ProviderID: providerID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	r.resetStages()
	r.Refresh()
	return r
}

func (r *Record) Statuses() StageStatuses {
	return StageStatuses{
		Identity:   r.Identity.Status,
		Credential: r.Credential.Status,
		Contact:    r.Contact.Status,
		CrossCheck: r.CrossCheck.Status,
	}
}

// Refresh recomputes the aggregate status. Stores call it on every write.
func (r *Record) Refresh() {
	r.VerificationStatus = Project(r.Statuses())
}

func (r *Record) IsFullyVerified() bool {
	return r.Statuses().IsFullyVerified()
}

// ShouldPoll reports whether a stage is waiting on an asynchronous verdict.
func (r *Record) ShouldPoll() bool {
	return r.Identity.Status.IsInFlight() || r.Credential.Status.IsInFlight()
}

// Clone returns a deep copy so callers can mutate without affecting stored state.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	c := *r
	c.Identity.Issues = slices.Clone(r.Identity.Issues)
	c.Identity.Guidance = r.Identity.Guidance.Clone()
	c.Identity.SubmittedAt = cloneTime(r.Identity.SubmittedAt)
	c.Identity.DecidedAt = cloneTime(r.Identity.DecidedAt)
	c.Credential.DocumentRefs = slices.Clone(r.Credential.DocumentRefs)
	c.Credential.Issues = slices.Clone(r.Credential.Issues)
	c.Credential.Guidance = r.Credential.Guidance.Clone()
	c.Credential.SubmittedAt = cloneTime(r.Credential.SubmittedAt)
	c.Credential.DecidedAt = cloneTime(r.Credential.DecidedAt)
	c.Contact.SavedAt = cloneTime(r.Contact.SavedAt)
	c.CrossCheck.CheckedAt = cloneTime(r.CrossCheck.CheckedAt)
	return &c
}

func (r *Record) resetStages() {
	r.Identity = IdentityStage{Status: IdentityNotStarted}
	r.Credential = CredentialStage{Status: CredentialNotStarted}
	r.Contact = ContactStage{Status: ContactNotStarted}
	r.CrossCheck = CrossCheck{Status: CrossCheckNotStarted}
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func timePtr(t time.Time) *time.Time {
	return &t
}
