package service

import (
	"context"
	"strings"
	"time"

	"carematch/internal/verification/models"
	"carematch/internal/verification/rules"
	id "carematch/pkg/domain"
	dErrors "carematch/pkg/domain-errors"
	"carematch/pkg/platform/audit"
	"carematch/pkg/requestcontext"
)

// SubmitIdentity saves an identity submission as processing and queues extraction
// in the same write. The record is created on the first submission.
func (s *Service) SubmitIdentity(ctx context.Context, providerID id.UserID, sub models.IdentitySubmission) (*models.Record, error) {
	if providerID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "provider ID required")
	}
	now := requestcontext.Now(ctx)
	sub, err := normalizeIdentity(sub, now)
	if err != nil {
		return nil, err
	}

	submissionID := s.newSubmissionID()
	rec, err := s.write(ctx, writeSpec{
		providerID: providerID,
		create:     true,
		now:        now,
		validate: func(rec *models.Record) error {
			return rec.CanSubmitIdentity()
		},
		mutate: func(rec *models.Record) {
			rec.ApplyIdentitySubmission(sub, submissionID, now)
		},
		hooks: []models.WriteHook{s.dispatchHook(models.PhaseIdentity, now)},
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncSubmission(models.StageIdentity, "document")
	s.track(ctx, providerID, models.StageIdentity, audit.EventIdentitySubmitted, rec.Identity.Status.String())
	return rec, nil
}

// RequestIdentityManualReview escalates a failed identity check to an admin.
// The credential and cross-check are wiped in the same write.
func (s *Service) RequestIdentityManualReview(ctx context.Context, providerID id.UserID) (*models.Record, error) {
	now := requestcontext.Now(ctx)
	rec, err := s.write(ctx, writeSpec{
		providerID: providerID,
		now:        now,
		validate: func(rec *models.Record) error {
			return rec.CanRequestManualReview()
		},
		mutate: func(rec *models.Record) {
			rec.ApplyManualReview(now)
		},
		notFound: dErrors.New(dErrors.CodeConflict, "manual review is only available after a failed identity check"),
	})
	if err != nil {
		return nil, err
	}
	s.track(ctx, providerID, models.StageIdentity, audit.EventManualReviewRequested, rec.Identity.Status.String())
	return rec, nil
}

func normalizeIdentity(sub models.IdentitySubmission, now time.Time) (models.IdentitySubmission, error) {
	sub.Surname = strings.TrimSpace(sub.Surname)
	sub.GivenNames = strings.Join(strings.Fields(sub.GivenNames), " ")
	sub.DateOfBirth = strings.TrimSpace(sub.DateOfBirth)
	sub.CountryOfIssue = strings.TrimSpace(sub.CountryOfIssue)
	sub.DocumentRef = strings.TrimSpace(sub.DocumentRef)
	sub.SelfieRef = strings.TrimSpace(sub.SelfieRef)

	switch {
	case sub.Surname == "":
		return sub, validationError("surname is required")
	case sub.GivenNames == "":
		return sub, validationError("given names are required")
	case sub.DateOfBirth == "":
		return sub, validationError("date of birth is required")
	case sub.CountryOfIssue == "":
		return sub, validationError("country of issue is required")
	case sub.DocumentRef == "":
		return sub, validationError("document image is required")
	case sub.SelfieRef == "":
		return sub, validationError("selfie is required")
	case !sub.Attested:
		return sub, validationError("you must confirm the details are your own")
	}
	if err := rules.ValidateDateOfBirth(sub.DateOfBirth, now); err != nil {
		return sub, validationError(err.Error())
	}
	return sub, nil
}
