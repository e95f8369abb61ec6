package service

import (
	"context"
	"strings"

	"carematch/internal/verification/models"
	id "carematch/pkg/domain"
	dErrors "carematch/pkg/domain-errors"
	"carematch/pkg/platform/audit"
	"carematch/pkg/requestcontext"
)

const maxReasonLength = 500

func identityDecision(rec *models.Record) string   { return rec.Identity.Status.String() }
func credentialDecision(rec *models.Record) string { return rec.Credential.Status.String() }
func crossCheckDecision(rec *models.Record) string { return rec.CrossCheck.Status.String() }
func aggregateDecision(rec *models.Record) string  { return rec.VerificationStatus.String() }

// ApproveIdentity lets an admin verify an identity the pipeline could not.
func (s *Service) ApproveIdentity(ctx context.Context, providerID id.UserID) (*models.Record, error) {
	now := requestcontext.Now(ctx)
	actor := actorID(ctx)
	return s.adminWrite(ctx, providerID, audit.EventIdentityApproved, models.StageIdentity, "", identityDecision,
		func(rec *models.Record) error { return rec.CanApproveIdentity() },
		func(rec *models.Record) { rec.ApplyIdentityApproval(actor, now) },
	)
}

// RejectIdentity rejects an identity with a reason shown to the provider.
func (s *Service) RejectIdentity(ctx context.Context, providerID id.UserID, reason string) (*models.Record, error) {
	reason, err := requireReason(reason)
	if err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	actor := actorID(ctx)
	return s.adminWrite(ctx, providerID, audit.EventIdentityRejected, models.StageIdentity, reason, identityDecision,
		func(rec *models.Record) error { return rec.CanRejectIdentity() },
		func(rec *models.Record) { rec.ApplyIdentityRejection(actor, reason, now) },
	)
}

// ConfirmCredential marks a credential doc-verified after an admin checked it.
func (s *Service) ConfirmCredential(ctx context.Context, providerID id.UserID) (*models.Record, error) {
	now := requestcontext.Now(ctx)
	actor := actorID(ctx)
	return s.adminWrite(ctx, providerID, audit.EventCredentialConfirmed, models.StageCredential, "", credentialDecision,
		func(rec *models.Record) error { return rec.CanConfirmCredential() },
		func(rec *models.Record) { rec.ApplyCredentialConfirmation(actor, now) },
	)
}

func (s *Service) RejectCredential(ctx context.Context, providerID id.UserID, reason string) (*models.Record, error) {
	return s.adjudicateCredential(ctx, providerID, models.CredentialRejected, audit.EventCredentialRejected, reason, true)
}

// BarCredential records that the issuing agency barred the provider. Barred credentials cannot be resubmitted.
func (s *Service) BarCredential(ctx context.Context, providerID id.UserID, reason string) (*models.Record, error) {
	return s.adjudicateCredential(ctx, providerID, models.CredentialBarred, audit.EventCredentialBarred, reason, true)
}

// RecordRegistryOutcome records an issuing-agency lookup that was neither a pass nor a bar.
func (s *Service) RecordRegistryOutcome(ctx context.Context, providerID id.UserID, status models.CredentialStatus, note string) (*models.Record, error) {
	if !status.IsRegistryOutcome() {
		return nil, validationError("status must be ocg_not_found, closed or application_pending")
	}
	return s.adjudicateCredential(ctx, providerID, status, audit.EventCredentialRegistryResult, note, false)
}

func (s *Service) adjudicateCredential(ctx context.Context, providerID id.UserID, status models.CredentialStatus, action audit.AuditEvent, reason string, reasonRequired bool) (*models.Record, error) {
	reason = strings.TrimSpace(reason)
	if reasonRequired {
		var err error
		if reason, err = requireReason(reason); err != nil {
			return nil, err
		}
	} else if len(reason) > maxReasonLength {
		return nil, validationError("note must be 500 characters or less")
	}
	now := requestcontext.Now(ctx)
	actor := actorID(ctx)
	return s.adminWrite(ctx, providerID, action, models.StageCredential, reason, credentialDecision,
		func(rec *models.Record) error { return rec.CanAdjudicateCredential() },
		func(rec *models.Record) { rec.ApplyCredentialOutcome(status, actor, reason, now) },
	)
}

// ResolveCrossCheck clears a cross-check held for review.
func (s *Service) ResolveCrossCheck(ctx context.Context, providerID id.UserID, note string) (*models.Record, error) {
	note = strings.TrimSpace(note)
	if len(note) > maxReasonLength {
		return nil, validationError("note must be 500 characters or less")
	}
	now := requestcontext.Now(ctx)
	actor := actorID(ctx)
	return s.adminWrite(ctx, providerID, audit.EventCrossCheckResolved, models.StageCrossCheck, note, crossCheckDecision,
		func(rec *models.Record) error { return rec.CanResolveCrossCheck() },
		func(rec *models.Record) { rec.ApplyCrossCheckResolution(actor, note, now) },
	)
}

// ResetVerification zeroes every stage in one write. The record itself is kept.
func (s *Service) ResetVerification(ctx context.Context, providerID id.UserID, reason string) (*models.Record, error) {
	reason = strings.TrimSpace(reason)
	now := requestcontext.Now(ctx)
	return s.adminWrite(ctx, providerID, audit.EventVerificationReset, models.StageAggregate, reason, aggregateDecision,
		nil,
		func(rec *models.Record) { rec.ApplyReset(now) },
	)
}

// GetRecord returns a provider's full record for the admin console.
func (s *Service) GetRecord(ctx context.Context, providerID id.UserID) (*models.Record, error) {
	rec, err := s.store.FindByProvider(ctx, providerID)
	if err != nil {
		return nil, translateStoreError(err, "failed to load verification record")
	}
	return rec, nil
}

// ListQueue returns records for the admin queue, most recently updated first.
func (s *Service) ListQueue(ctx context.Context, filter models.ListFilter) ([]*models.Record, int, error) {
	filter.Normalize()
	records, total, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, 0, translateStoreError(err, "failed to list verification records")
	}
	return records, total, nil
}

func (s *Service) adminWrite(ctx context.Context, providerID id.UserID, action audit.AuditEvent, subject, reason string, decision func(*models.Record) string, validate func(*models.Record) error, mutate func(*models.Record)) (*models.Record, error) {
	if providerID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "provider ID required")
	}
	rec, err := s.write(ctx, writeSpec{
		providerID: providerID,
		now:        requestcontext.Now(ctx),
		validate:   validate,
		mutate:     mutate,
		hooks:      []models.WriteHook{s.auditHook(action, subject, reason, decision)},
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "admin verification action",
		"request_id", requestcontext.RequestID(ctx),
		"provider_id", providerID.String(),
		"actor_id", actorID(ctx),
		"action", string(action),
		"decision", decision(rec),
	)
	return rec, nil
}

func requireReason(reason string) (string, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return "", validationError("reason is required")
	}
	if len(reason) > maxReasonLength {
		return "", validationError("reason must be 500 characters or less")
	}
	return reason, nil
}
