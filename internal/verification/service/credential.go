package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"carematch/internal/verification/models"
	"carematch/internal/verification/rules"
	id "carematch/pkg/domain"
	dErrors "carematch/pkg/domain-errors"
	"carematch/pkg/platform/audit"
	"carematch/pkg/platform/sentinel"
	platformstrings "carematch/pkg/platform/strings"
	"carematch/pkg/requestcontext"
)

var (
	errCredentialLocked = dErrors.New(dErrors.CodeStageLocked, "credential is locked until identity is verified")
	errIdentityChanged  = dErrors.New(dErrors.CodeConflict, "your ID details changed while we checked your document, please submit it again")
)

// SubmitCredential routes a credential submission to its method.
func (s *Service) SubmitCredential(ctx context.Context, providerID id.UserID, sub models.CredentialSubmission) (*models.Record, error) {
	if providerID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "provider ID required")
	}
	now := requestcontext.Now(ctx)

	var (
		rec *models.Record
		err error
	)
	switch sub.Method {
	case models.MethodDocumentEmail:
		rec, err = s.submitDocumentEmail(ctx, providerID, sub, now)
	case models.MethodMobileWallet:
		rec, err = s.submitMobileWallet(ctx, providerID, sub, now)
	case models.MethodManualEntry:
		rec, err = s.submitManualEntry(ctx, providerID, sub, now)
	default:
		return nil, validationError("method must be document_email, mobile_wallet or manual_entry")
	}
	if err != nil {
		return nil, err
	}

	s.metrics.IncSubmission(models.StageCredential, string(sub.Method))
	s.track(ctx, providerID, models.StageCredential, audit.EventCredentialSubmitted, rec.Credential.Status.String())
	return rec, nil
}

// submitDocumentEmail inspects the clearance email PDF locally and saves it as
// doc_verified when every check passes. Nothing is saved otherwise.
func (s *Service) submitDocumentEmail(ctx context.Context, providerID id.UserID, sub models.CredentialSubmission, now time.Time) (*models.Record, error) {
	sub.DocumentRefs = platformstrings.DedupeAndTrim(sub.DocumentRefs)
	if len(sub.DocumentRefs) == 0 {
		return nil, validationError("a clearance document is required")
	}
	if s.inspector == nil {
		return nil, dErrors.New(dErrors.CodeUnavailable, "document upload is not available, please enter your details manually")
	}

	current, err := s.store.FindByProvider(ctx, providerID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, errCredentialLocked
		}
		return nil, translateStoreError(err, "failed to load verification record")
	}
	if err := current.CanSubmitCredential(); err != nil {
		return nil, err
	}

	verdict, err := s.inspect(ctx, current, sub.DocumentRefs, now)
	if err != nil {
		return nil, err
	}

	judgedAgainst := current.Identity.SubmissionID
	submissionID := s.newSubmissionID()
	return s.write(ctx, writeSpec{
		providerID: providerID,
		now:        now,
		validate: func(rec *models.Record) error {
			if err := rec.CanSubmitCredential(); err != nil {
				return err
			}
			// The document was matched against this identity; a replaced one needs a fresh check.
			if rec.Identity.SubmissionID != judgedAgainst {
				return errIdentityChanged
			}
			return nil
		},
		mutate: func(rec *models.Record) {
			rec.ApplyDocumentVerified(sub, verdict.Fields, verdict.ExpiryWarning, submissionID, now)
		},
		notFound: errCredentialLocked,
	})
}

// inspect runs the local inspector under the inspection timeout and judges the result.
func (s *Service) inspect(ctx context.Context, rec *models.Record, refs []string, now time.Time) (rules.DocumentVerdict, error) {
	inspectCtx, cancel := context.WithTimeout(ctx, s.inspectionTimeout)
	defer cancel()

	start := time.Now()
	inspection, err := s.inspector.Inspect(inspectCtx, refs)
	s.metrics.ObserveInspection(start)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(inspectCtx.Err(), context.DeadlineExceeded) {
			return rules.DocumentVerdict{}, dErrors.Wrap(err, dErrors.CodeTimeout, "checking your document took too long, please try again")
		}
		if _, ok := dErrors.As(err); ok {
			return rules.DocumentVerdict{}, err
		}
		return rules.DocumentVerdict{}, dErrors.Wrap(err, dErrors.CodeUnavailable, "we couldn't check your document right now, please try again")
	}

	verdict := rules.EvaluateDocument(inspection, rec.Identity, now)
	switch verdict.Outcome {
	case models.DocumentParsed:
		return verdict, nil
	case models.DocumentAmbiguous:
		return verdict, models.NewGuidanceError(dErrors.CodeManualEntryRequired,
			"we couldn't read every detail from your document, please enter them manually",
			models.DocumentGuidance(verdict.Outcome))
	case models.DocumentNameMismatch:
		return verdict, models.NewGuidanceError(dErrors.CodeValidation,
			"the name on your clearance does not match your verified ID",
			models.DocumentGuidance(verdict.Outcome))
	case models.DocumentExpired:
		return verdict, models.NewGuidanceError(dErrors.CodeValidation,
			"your clearance has expired",
			models.DocumentGuidance(verdict.Outcome))
	default:
		return verdict, models.NewGuidanceError(dErrors.CodeValidation,
			"we couldn't read your clearance document",
			models.DocumentGuidance(models.DocumentUnreadable))
	}
}

// submitMobileWallet saves the wallet screenshot as pending and queues extraction.
func (s *Service) submitMobileWallet(ctx context.Context, providerID id.UserID, sub models.CredentialSubmission, now time.Time) (*models.Record, error) {
	sub.DocumentRefs = platformstrings.DedupeAndTrim(sub.DocumentRefs)
	if len(sub.DocumentRefs) == 0 {
		return nil, validationError("a wallet screenshot is required")
	}
	sub.Number = ""
	sub.Expiry = ""

	submissionID := s.newSubmissionID()
	return s.write(ctx, writeSpec{
		providerID: providerID,
		now:        now,
		validate: func(rec *models.Record) error {
			return rec.CanSubmitCredential()
		},
		mutate: func(rec *models.Record) {
			rec.ApplyWalletSubmission(sub, submissionID, now)
		},
		hooks:    []models.WriteHook{s.dispatchHook(models.PhaseCredential, now)},
		notFound: errCredentialLocked,
	})
}

// submitManualEntry saves a typed-in clearance for admin review.
func (s *Service) submitManualEntry(ctx context.Context, providerID id.UserID, sub models.CredentialSubmission, now time.Time) (*models.Record, error) {
	number, err := rules.NormalizeCredentialNumber(sub.Number)
	if err != nil {
		return nil, validationError(err.Error())
	}
	if strings.TrimSpace(sub.Expiry) == "" {
		return nil, validationError("expiry date is required")
	}
	expiry, err := rules.ParseDate(sub.Expiry)
	if err != nil {
		return nil, validationError("expiry date must be YYYY-MM-DD")
	}
	check := rules.EvaluateExpiry(expiry, now)
	if check.Expired {
		return nil, models.NewGuidanceError(dErrors.CodeValidation, "your clearance has expired",
			*models.CredentialGuidance(models.CredentialExpired, nil))
	}
	if !sub.Attested {
		return nil, validationError("you must confirm the clearance is your own")
	}
	sub.Number = number
	sub.Expiry = expiry.Format(time.DateOnly)
	sub.DocumentRefs = platformstrings.DedupeAndTrim(sub.DocumentRefs)

	submissionID := s.newSubmissionID()
	return s.write(ctx, writeSpec{
		providerID: providerID,
		now:        now,
		validate: func(rec *models.Record) error {
			return rec.CanSubmitCredential()
		},
		mutate: func(rec *models.Record) {
			rec.ApplyManualEntry(sub, check.Warning, submissionID, now)
		},
		notFound: errCredentialLocked,
	})
}
