package service

import (
	"context"

	"carematch/internal/verification/models"
	"carematch/internal/verification/rules"
	id "carematch/pkg/domain"
	"carematch/pkg/platform/audit"
	"carematch/pkg/requestcontext"
)

// RunCrossCheck reconciles the verified identity with the satisfied credential.
// The guard and the outcome are written under the record lock, so concurrent
// stage completions run it once; the loser gets models.ErrSuperseded.
func (s *Service) RunCrossCheck(ctx context.Context, providerID id.UserID) (*models.Record, error) {
	now := requestcontext.Now(ctx)
	var result rules.CrossCheckResult
	rec, err := s.write(ctx, writeSpec{
		providerID: providerID,
		now:        now,
		validate: func(rec *models.Record) error {
			return rec.CanRunCrossCheck()
		},
		mutate: func(rec *models.Record) {
			result = rules.CrossCheck(rec.Identity, rec.Credential)
			rec.ApplyCrossCheck(result.Passed, result.Reasoning, now)
		},
	})
	if err != nil {
		return nil, err
	}

	outcome := rec.CrossCheck.Status.String()
	s.metrics.IncCrossCheck(outcome)
	s.track(ctx, providerID, models.StageCrossCheck, audit.EventCrossCheckCompleted, outcome)
	if !result.Passed {
		s.logger.InfoContext(ctx, "cross-check held for review",
			"provider_id", providerID.String(),
			"reasoning", result.Reasoning,
		)
	}
	return rec, nil
}
