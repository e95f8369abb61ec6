package models_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"carematch/internal/verification/models"
	id "carematch/pkg/domain"
	dErrors "carematch/pkg/domain-errors"
)

type RecordSuite struct {
	suite.Suite
	now time.Time
}

func TestRecordSuite(t *testing.T) {
	suite.Run(t, new(RecordSuite))
}

func (s *RecordSuite) SetupTest() {
	s.now = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
}

func (s *RecordSuite) newRecord() *models.Record {
	return models.NewRecord(id.RecordID(uuid.New()), id.UserID(uuid.New()), s.now)
}

func (s *RecordSuite) verifiedRecord() *models.Record {
	rec := s.newRecord()
	rec.Identity.Status = models.IdentityVerified
	return rec
}

// =============================================================================
// Aggregate projection
// =============================================================================

func (s *RecordSuite) TestProjection() {
	cases := []struct {
		name   string
		in     models.StageStatuses
		expect models.AggregateStatus
	}{
		{"fresh", models.StageStatuses{Identity: models.IdentityNotStarted}, models.AggregateNotStarted},
		{"identity pending", models.StageStatuses{Identity: models.IdentityPending}, models.AggregateIdentityInProgress},
		{"identity processing", models.StageStatuses{Identity: models.IdentityProcessing}, models.AggregateIdentityInProgress},
		{"identity review", models.StageStatuses{Identity: models.IdentityReview}, models.AggregateIdentityReview},
		{"identity rejected", models.StageStatuses{Identity: models.IdentityRejected}, models.AggregateIdentityFailed},
		{"identity failed", models.StageStatuses{Identity: models.IdentityFailed}, models.AggregateIdentityFailed},
		{"credential required", models.StageStatuses{Identity: models.IdentityVerified, Credential: models.CredentialNotStarted}, models.AggregateCredentialRequired},
		{"credential processing", models.StageStatuses{Identity: models.IdentityVerified, Credential: models.CredentialProcessing}, models.AggregateCredentialInProgress},
		{"credential review", models.StageStatuses{Identity: models.IdentityVerified, Credential: models.CredentialReview}, models.AggregateCredentialReview},
		{"application pending", models.StageStatuses{Identity: models.IdentityVerified, Credential: models.CredentialApplicationPending}, models.AggregateCredentialReview},
		{"ocg not found", models.StageStatuses{Identity: models.IdentityVerified, Credential: models.CredentialOCGNotFound}, models.AggregateCredentialFailed},
		{"closed", models.StageStatuses{Identity: models.IdentityVerified, Credential: models.CredentialClosed}, models.AggregateCredentialFailed},
		{"expired", models.StageStatuses{Identity: models.IdentityVerified, Credential: models.CredentialExpired}, models.AggregateCredentialFailed},
		{"barred", models.StageStatuses{Identity: models.IdentityVerified, Credential: models.CredentialBarred}, models.AggregateCredentialBarred},
		{"cross-check pending", models.StageStatuses{Identity: models.IdentityVerified, Credential: models.CredentialDocVerified, CrossCheck: models.CrossCheckNotStarted}, models.AggregateCrossCheckPending},
		{"cross-check review", models.StageStatuses{Identity: models.IdentityVerified, Credential: models.CredentialVerified, CrossCheck: models.CrossCheckReview}, models.AggregateCrossCheckReview},
		{"contact required", models.StageStatuses{Identity: models.IdentityVerified, Credential: models.CredentialVerified, CrossCheck: models.CrossCheckPassed, Contact: models.ContactNotStarted}, models.AggregateContactRequired},
		{"fully verified", models.StageStatuses{Identity: models.IdentityVerified, Credential: models.CredentialDocVerified, CrossCheck: models.CrossCheckPassed, Contact: models.ContactSaved}, models.AggregateFullyVerified},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			got := models.Project(tc.in)
			s.Equal(tc.expect, got)
			s.Equal(got == models.AggregateFullyVerified, tc.in.IsFullyVerified())
		})
	}
}

func (s *RecordSuite) TestAggregateNames() {
	s.Equal("fully_verified", models.AggregateFullyVerified.String())
	s.Equal("unknown", models.AggregateStatus(99).String())
}

// =============================================================================
// Identity transitions
// =============================================================================

func (s *RecordSuite) TestIdentityResubmission() {
	allowed := []models.IdentityStatus{
		models.IdentityNotStarted, models.IdentityPending, models.IdentityProcessing,
		models.IdentityFailed, models.IdentityRejected,
	}
	for _, status := range allowed {
		rec := s.newRecord()
		rec.Identity.Status = status
		s.NoError(rec.CanSubmitIdentity(), status)
	}
	for _, status := range []models.IdentityStatus{models.IdentityVerified, models.IdentityReview} {
		rec := s.newRecord()
		rec.Identity.Status = status
		s.True(dErrors.HasCode(rec.CanSubmitIdentity(), dErrors.CodeConflict), status)
	}
}

func (s *RecordSuite) TestIdentityVerdictMapping() {
	submit := func() *models.Record {
		rec := s.newRecord()
		rec.ApplyIdentitySubmission(models.IdentitySubmission{Surname: "Nguyen"}, id.NewSubmissionID(), s.now)
		return rec
	}

	s.Run("pass verifies and keeps extraction", func() {
		rec := submit()
		rec.ApplyIdentityVerdict(&models.ExtractionResult{
			Pass:     true,
			Identity: models.IdentityExtraction{Surname: "NGUYEN"},
		}, s.now)
		s.Equal(models.IdentityVerified, rec.Identity.Status)
		s.Equal("NGUYEN", rec.Identity.Extracted.Surname)
	})

	s.Run("issues become the rejection reason", func() {
		rec := submit()
		rec.ApplyIdentityVerdict(&models.ExtractionResult{Issues: []string{"blurry photo", "glare"}}, s.now)
		s.Equal(models.IdentityRejected, rec.Identity.Status)
		s.Equal("blurry photo; glare", rec.Identity.RejectionReason)
		s.Require().NotNil(rec.Identity.Guidance)
	})

	s.Run("reasoning is the fallback reason", func() {
		rec := submit()
		rec.ApplyIdentityVerdict(&models.ExtractionResult{Reasoning: "document is a photocopy"}, s.now)
		s.Equal("document is a photocopy", rec.Identity.RejectionReason)
	})

	s.Run("generic reason when nothing is given", func() {
		rec := submit()
		rec.ApplyIdentityVerdict(&models.ExtractionResult{}, s.now)
		s.NotEmpty(rec.Identity.RejectionReason)
	})

	s.Run("review and failed outcomes", func() {
		rec := submit()
		rec.ApplyIdentityVerdict(&models.ExtractionResult{Outcome: models.OutcomeReview}, s.now)
		s.Equal(models.IdentityReview, rec.Identity.Status)

		rec = submit()
		rec.ApplyIdentityVerdict(&models.ExtractionResult{Outcome: models.OutcomeFailed}, s.now)
		s.Equal(models.IdentityFailed, rec.Identity.Status)
	})

	s.Run("stale submission is superseded", func() {
		rec := submit()
		s.ErrorIs(rec.CanApplyIdentityVerdict(id.NewSubmissionID()), models.ErrSuperseded)
		s.NoError(rec.CanApplyIdentityVerdict(rec.Identity.SubmissionID))
	})
}

func (s *RecordSuite) TestManualReviewCascade() {
	rec := s.verifiedRecord()
	rec.Credential.Status = models.CredentialRejected
	rec.Credential.Number = "WWC1234567A"
	rec.CrossCheck.Status = models.CrossCheckReview
	rec.Identity.Status = models.IdentityRejected
	rec.Identity.RejectionReason = "blurry"

	s.Require().NoError(rec.CanRequestManualReview())
	rec.ApplyManualReview(s.now)

	s.Equal(models.IdentityReview, rec.Identity.Status)
	s.Empty(rec.Identity.RejectionReason)
	s.Nil(rec.Identity.Guidance)
	s.Equal(models.CredentialStage{Status: models.CredentialNotStarted}, rec.Credential)
	s.Equal(models.CrossCheckNotStarted, rec.CrossCheck.Status)

	s.True(dErrors.HasCode(rec.CanRequestManualReview(), dErrors.CodeConflict))
}

func (s *RecordSuite) TestRejectVerifiedIdentityCascades() {
	rec := s.verifiedRecord()
	rec.Credential.Status = models.CredentialDocVerified
	rec.CrossCheck.Status = models.CrossCheckPassed

	s.Require().NoError(rec.CanRejectIdentity())
	rec.ApplyIdentityRejection("admin-1", "fraudulent document", s.now)

	s.Equal(models.IdentityRejected, rec.Identity.Status)
	s.Equal("fraudulent document", rec.Identity.RejectionReason)
	s.Equal(models.CredentialNotStarted, rec.Credential.Status)
	s.Equal(models.CrossCheckNotStarted, rec.CrossCheck.Status)
}

// =============================================================================
// Credential transitions
// =============================================================================

func (s *RecordSuite) TestCredentialLock() {
	for _, status := range []models.IdentityStatus{
		models.IdentityNotStarted, models.IdentityProcessing, models.IdentityReview, models.IdentityRejected,
	} {
		rec := s.newRecord()
		rec.Identity.Status = status
		s.True(dErrors.HasCode(rec.CanSubmitCredential(), dErrors.CodeStageLocked), status)
	}
}

func (s *RecordSuite) TestCredentialResubmission() {
	cases := map[models.CredentialStatus]dErrors.Code{
		models.CredentialReview:      dErrors.CodeConflict,
		models.CredentialDocVerified: dErrors.CodeConflict,
		models.CredentialVerified:    dErrors.CodeConflict,
		models.CredentialBarred:      dErrors.CodeForbidden,
	}
	for status, code := range cases {
		rec := s.verifiedRecord()
		rec.Credential.Status = status
		s.True(dErrors.HasCode(rec.CanSubmitCredential(), code), status)
	}
	for _, status := range []models.CredentialStatus{
		models.CredentialNotStarted, models.CredentialPending, models.CredentialProcessing,
		models.CredentialRejected, models.CredentialFailed, models.CredentialExpired,
		models.CredentialOCGNotFound, models.CredentialClosed, models.CredentialApplicationPending,
	} {
		rec := s.verifiedRecord()
		rec.Credential.Status = status
		s.NoError(rec.CanSubmitCredential(), status)
	}
}

func (s *RecordSuite) TestCredentialVerdictMapping() {
	cases := []struct {
		result  models.ExtractionResult
		expired bool
		expect  models.CredentialStatus
	}{
		{models.ExtractionResult{Pass: true}, false, models.CredentialVerified},
		{models.ExtractionResult{Pass: true}, true, models.CredentialExpired},
		{models.ExtractionResult{Outcome: models.OutcomeReview}, false, models.CredentialReview},
		{models.ExtractionResult{Outcome: models.OutcomeOCGNotFound}, false, models.CredentialOCGNotFound},
		{models.ExtractionResult{Outcome: models.OutcomeClosed}, false, models.CredentialClosed},
		{models.ExtractionResult{Outcome: models.OutcomeApplicationPending}, false, models.CredentialApplicationPending},
		{models.ExtractionResult{Outcome: models.OutcomeFailed}, false, models.CredentialFailed},
		{models.ExtractionResult{Outcome: "something else"}, false, models.CredentialRejected},
	}
	for _, tc := range cases {
		s.Equal(tc.expect, models.CredentialStatusForVerdict(&tc.result, tc.expired))
	}
}

func (s *RecordSuite) TestCredentialCategories() {
	s.Equal(models.CategoryHardFailure, models.CredentialOCGNotFound.Category())
	s.Equal(models.CategoryHardFailure, models.CredentialClosed.Category())
	s.Equal(models.CategoryPendingElsewhere, models.CredentialApplicationPending.Category())
	s.Equal(models.CategoryRejected, models.CredentialRejected.Category())
	s.Equal(models.CategoryBarred, models.CredentialBarred.Category())
}

func (s *RecordSuite) TestConfirmCredential() {
	for _, status := range []models.CredentialStatus{
		models.CredentialReview, models.CredentialPending, models.CredentialProcessing, models.CredentialApplicationPending,
	} {
		rec := s.verifiedRecord()
		rec.Credential.Status = status
		rec.Credential.Extracted.Number = "WWC7654321B"
		s.Require().NoError(rec.CanConfirmCredential(), status)
		rec.ApplyCredentialConfirmation("admin-1", s.now)
		s.Equal(models.CredentialDocVerified, rec.Credential.Status)
		s.True(rec.Credential.AdminVerified)
		s.Equal("WWC7654321B", rec.Credential.Extracted.Number)
	}
	for _, status := range []models.CredentialStatus{models.CredentialDocVerified, models.CredentialVerified} {
		rec := s.verifiedRecord()
		rec.Credential.Status = status
		s.True(dErrors.HasCode(rec.CanConfirmCredential(), dErrors.CodeConflict))
	}
}

func (s *RecordSuite) TestExpiryDetection() {
	rec := s.verifiedRecord()
	rec.Credential.Status = models.CredentialVerified
	rec.Credential.Expiry = "2026-03-09"
	s.True(rec.IsExpiredOn(time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)))
	rec.Credential.Expiry = "2026-03-10"
	s.False(rec.IsExpiredOn(time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)))
}

// =============================================================================
// Contact, cross-check, reset
// =============================================================================

func (s *RecordSuite) TestContactUnlock() {
	rec := s.verifiedRecord()
	s.True(dErrors.HasCode(rec.CanSubmitContact(), dErrors.CodeStageLocked))
	rec.Credential.Status = models.CredentialRejected
	s.NoError(rec.CanSubmitContact())
}

func (s *RecordSuite) TestCrossCheckGuard() {
	rec := s.verifiedRecord()
	rec.Credential.Status = models.CredentialReview
	s.False(rec.NeedsCrossCheck())

	rec.Credential.Status = models.CredentialDocVerified
	s.True(rec.NeedsCrossCheck())
	rec.ApplyCrossCheck(false, "surname mismatch", s.now)
	s.False(rec.NeedsCrossCheck())
	s.ErrorIs(rec.CanRunCrossCheck(), models.ErrSuperseded)
	s.Equal(models.IdentityVerified, rec.Identity.Status, "cross-check never rolls back stages")
	s.Equal(models.CredentialDocVerified, rec.Credential.Status)

	s.Require().NoError(rec.CanResolveCrossCheck())
	rec.ApplyCrossCheckResolution("admin-1", "name change certificate sighted", s.now)
	s.Equal(models.CrossCheckPassed, rec.CrossCheck.Status)
}

func (s *RecordSuite) TestResetKeepsIdentity() {
	rec := s.verifiedRecord()
	rec.Credential.Status = models.CredentialVerified
	rec.Contact.Status = models.ContactSaved
	recordID, providerID, created := rec.ID, rec.ProviderID, rec.CreatedAt

	later := s.now.Add(time.Hour)
	rec.ApplyReset(later)
	rec.Refresh()

	s.Equal(recordID, rec.ID)
	s.Equal(providerID, rec.ProviderID)
	s.Equal(created, rec.CreatedAt)
	s.Equal(later, rec.UpdatedAt)
	s.Equal(models.AggregateNotStarted, rec.VerificationStatus)
	s.Equal(models.IdentityStage{Status: models.IdentityNotStarted}, rec.Identity)
}

func (s *RecordSuite) TestCloneIsDeep() {
	rec := s.verifiedRecord()
	rec.Identity.Issues = []string{"a"}
	rec.Credential.DocumentRefs = []string{"s3://docs/1.pdf"}
	clone := rec.Clone()
	clone.Identity.Issues[0] = "b"
	clone.Credential.DocumentRefs[0] = "other"
	s.Equal("a", rec.Identity.Issues[0])
	s.Equal("s3://docs/1.pdf", rec.Credential.DocumentRefs[0])
}

func (s *RecordSuite) TestTransitions() {
	before := s.newRecord()
	after := before.Clone()
	after.ApplyIdentitySubmission(models.IdentitySubmission{}, id.NewSubmissionID(), s.now)
	after.Refresh()

	events := models.Transitions(before, after, s.now)
	s.Require().Len(events, 2)
	s.Equal(models.StageIdentity, events[0].Stage)
	s.Equal("not_started", events[0].From)
	s.Equal("processing", events[0].To)
	s.Equal(models.StageAggregate, events[1].Stage)
	s.Equal("identity_in_progress", events[1].To)
}
