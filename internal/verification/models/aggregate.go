package models

// AggregateStatus is the single integer summarising a record's progress.
// It is derived from the four stage statuses and never set directly.
type AggregateStatus int

const (
	AggregateNotStarted AggregateStatus = iota
	AggregateIdentityInProgress
	AggregateIdentityReview
	AggregateIdentityFailed
	AggregateCredentialRequired
	AggregateCredentialInProgress
	AggregateCredentialReview
	AggregateCredentialFailed
	AggregateCredentialBarred
	AggregateCrossCheckPending
	AggregateCrossCheckReview
	AggregateContactRequired
	AggregateFullyVerified
)

var aggregateNames = [...]string{
	"not_started",
	"identity_in_progress",
	"identity_review",
	"identity_failed",
	"credential_required",
	"credential_in_progress",
	"credential_review",
	"credential_failed",
	"credential_barred",
	"cross_check_pending",
	"cross_check_review",
	"contact_required",
	"fully_verified",
}

func (a AggregateStatus) String() string {
	if a < 0 || int(a) >= len(aggregateNames) {
		return "unknown"
	}
	return aggregateNames[a]
}

func (a AggregateStatus) IsValid() bool {
	return a >= AggregateNotStarted && a <= AggregateFullyVerified
}

// StageStatuses is the minimal input of the aggregate projection.
type StageStatuses struct {
	Identity   IdentityStatus   `json:"identity"`
	Credential CredentialStatus `json:"credential"`
	Contact    ContactStatus    `json:"contact"`
	CrossCheck CrossCheckStatus `json:"cross_check"`
}

// Project derives the aggregate status. First matching row wins.
func Project(s StageStatuses) AggregateStatus {
	switch s.Identity {
	case IdentityNotStarted, "":
		return AggregateNotStarted
	case IdentityPending, IdentityProcessing:
		return AggregateIdentityInProgress
	case IdentityReview:
		return AggregateIdentityReview
	case IdentityRejected, IdentityFailed:
		return AggregateIdentityFailed
	}

	switch s.Credential {
	case CredentialNotStarted, "":
		return AggregateCredentialRequired
	case CredentialPending, CredentialProcessing:
		return AggregateCredentialInProgress
	case CredentialReview, CredentialApplicationPending:
		return AggregateCredentialReview
	case CredentialRejected, CredentialFailed, CredentialExpired, CredentialOCGNotFound, CredentialClosed:
		return AggregateCredentialFailed
	case CredentialBarred:
		return AggregateCredentialBarred
	}

	switch s.CrossCheck {
	case CrossCheckReview:
		return AggregateCrossCheckReview
	case CrossCheckPassed:
	default:
		return AggregateCrossCheckPending
	}

	if s.Contact != ContactSaved {
		return AggregateContactRequired
	}
	return AggregateFullyVerified
}

// IsFullyVerified is the conjunction of the four terminal stage conditions.
func (s StageStatuses) IsFullyVerified() bool {
	return s.Identity == IdentityVerified &&
		s.Credential.IsSatisfied() &&
		s.CrossCheck == CrossCheckPassed &&
		s.Contact == ContactSaved
}
