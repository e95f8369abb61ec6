package service

import (
	"context"
	"errors"
	"time"

	"carematch/internal/verification/models"
	"carematch/internal/verification/rules"
	dErrors "carematch/pkg/domain-errors"
	"carematch/pkg/platform/audit"
	"carematch/pkg/requestcontext"
)

const extractionFailedReason = "We couldn't complete the document check."

// MarkProcessing moves the job's stage from pending to processing.
// Returns models.ErrSuperseded when the job no longer matches the record.
func (s *Service) MarkProcessing(ctx context.Context, job models.ExtractionJob) error {
	now := requestcontext.Now(ctx)
	_, err := s.write(ctx, writeSpec{
		providerID: job.ProviderID,
		now:        now,
		validate: func(rec *models.Record) error {
			return rec.CanStartProcessing(job.Phase, job.SubmissionID)
		},
		mutate: func(rec *models.Record) {
			rec.ApplyProcessing(job.Phase, now)
		},
		notFound: models.ErrSuperseded,
	})
	if errors.Is(err, models.ErrSuperseded) {
		s.metrics.IncSuperseded(string(job.Phase))
	}
	return err
}

// ApplyVerdict writes a collaborator verdict back to the job's stage. The write is
// guarded by the stage still being in flight with the job's submission id, so a
// verdict for a superseded submission is discarded with models.ErrSuperseded.
func (s *Service) ApplyVerdict(ctx context.Context, job models.ExtractionJob, result *models.ExtractionResult) (*models.Record, error) {
	if result == nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "verdict is required")
	}
	now := requestcontext.Now(ctx)
	result = result.Clone()

	op := writeSpec{providerID: job.ProviderID, now: now, notFound: models.ErrSuperseded}
	switch job.Phase {
	case models.PhaseIdentity:
		op.validate = func(rec *models.Record) error {
			return rec.CanApplyIdentityVerdict(job.SubmissionID)
		}
		op.mutate = func(rec *models.Record) {
			rec.ApplyIdentityVerdict(result, now)
		}
	case models.PhaseCredential:
		check := normalizeCredentialVerdict(result, now)
		status := models.CredentialStatusForVerdict(result, check.Expired)
		warning := check.Warning && status == models.CredentialVerified
		op.validate = func(rec *models.Record) error {
			return rec.CanApplyCredentialVerdict(job.SubmissionID)
		}
		op.mutate = func(rec *models.Record) {
			rec.ApplyCredentialVerdict(status, result, warning, now)
		}
	default:
		return nil, dErrors.New(dErrors.CodeBadRequest, "unknown extraction phase")
	}

	rec, err := s.write(ctx, op)
	if err != nil {
		if errors.Is(err, models.ErrSuperseded) {
			s.metrics.IncSuperseded(string(job.Phase))
			s.logger.InfoContext(ctx, "discarded superseded verdict",
				"provider_id", job.ProviderID.String(),
				"submission_id", job.SubmissionID.String(),
				"phase", string(job.Phase),
			)
		}
		return nil, err
	}

	status := stageStatus(rec, job.Phase)
	s.metrics.IncVerdict(string(job.Phase), status)
	s.track(ctx, job.ProviderID, string(job.Phase), audit.EventVerdictApplied, status)
	return rec, nil
}

// ApplyExtractionFailure marks the job's stage failed once retries are exhausted.
func (s *Service) ApplyExtractionFailure(ctx context.Context, job models.ExtractionJob, cause error) (*models.Record, error) {
	now := requestcontext.Now(ctx)
	op := writeSpec{providerID: job.ProviderID, now: now, notFound: models.ErrSuperseded}
	switch job.Phase {
	case models.PhaseIdentity:
		op.validate = func(rec *models.Record) error {
			return rec.CanApplyIdentityVerdict(job.SubmissionID)
		}
		op.mutate = func(rec *models.Record) {
			rec.ApplyIdentityFailure(extractionFailedReason, now)
		}
	case models.PhaseCredential:
		op.validate = func(rec *models.Record) error {
			return rec.CanApplyCredentialVerdict(job.SubmissionID)
		}
		op.mutate = func(rec *models.Record) {
			rec.ApplyCredentialFailure(extractionFailedReason, now)
		}
	default:
		return nil, dErrors.New(dErrors.CodeBadRequest, "unknown extraction phase")
	}

	rec, err := s.write(ctx, op)
	if err != nil {
		if errors.Is(err, models.ErrSuperseded) {
			s.metrics.IncSuperseded(string(job.Phase))
		}
		return nil, err
	}
	s.logger.WarnContext(ctx, "extraction failed after retries",
		"provider_id", job.ProviderID.String(),
		"phase", string(job.Phase),
		"error", cause,
	)
	s.metrics.IncVerdict(string(job.Phase), stageStatus(rec, job.Phase))
	return rec, nil
}

// normalizeCredentialVerdict canonicalises the extracted number and expiry and applies the expiry policy.
func normalizeCredentialVerdict(result *models.ExtractionResult, now time.Time) rules.ExpiryCheck {
	if number, err := rules.NormalizeCredentialNumber(result.Credential.Number); err == nil {
		result.Credential.Number = number
	}
	if result.Credential.Expiry == "" {
		return rules.ExpiryCheck{}
	}
	expiry, err := rules.ParseDate(result.Credential.Expiry)
	if err != nil {
		return rules.ExpiryCheck{}
	}
	result.Credential.Expiry = expiry.Format(time.DateOnly)
	return rules.EvaluateExpiry(expiry, now)
}

func stageStatus(rec *models.Record, phase models.Phase) string {
	if phase == models.PhaseCredential {
		return rec.Credential.Status.String()
	}
	return rec.Identity.Status.String()
}
