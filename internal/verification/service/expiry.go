package service

import (
	"context"
	"errors"
	"time"

	"carematch/internal/verification/models"
	"carematch/internal/verification/rules"
	"carematch/pkg/platform/audit"
	"carematch/pkg/requestcontext"
)

const expirySweepBatch = 100

// ExpireCredentials moves satisfied credentials whose expiry date has passed to
// expired. Each record is re-checked under its lock. Returns the number expired.
func (s *Service) ExpireCredentials(ctx context.Context) (int, error) {
	now := requestcontext.Now(ctx)
	today := rules.Today(now)

	providers, err := s.store.ListExpiredCredentials(ctx, today, expirySweepBatch)
	if err != nil {
		return 0, translateStoreError(err, "failed to list expired credentials")
	}

	expired := 0
	for _, providerID := range providers {
		if err := ctx.Err(); err != nil {
			return expired, err
		}
		_, err := s.write(ctx, writeSpec{
			providerID: providerID,
			now:        now,
			validate: func(rec *models.Record) error {
				if !rec.IsExpiredOn(today) {
					return models.ErrSuperseded
				}
				return nil
			},
			mutate: func(rec *models.Record) {
				rec.ApplyExpiry(now)
			},
			notFound: models.ErrSuperseded,
		})
		if err != nil {
			if errors.Is(err, models.ErrSuperseded) {
				continue
			}
			s.logger.ErrorContext(ctx, "failed to expire credential",
				"provider_id", providerID.String(),
				"error", err,
			)
			continue
		}
		expired++
		s.track(ctx, providerID, models.StageCredential, audit.EventCredentialExpired, models.CredentialExpired.String())
	}

	s.metrics.AddExpired(expired)
	if expired > 0 {
		s.logger.InfoContext(ctx, "expired lapsed credentials", "count", expired)
	}
	return expired, nil
}

// RunExpirySweep runs ExpireCredentials every interval until ctx is cancelled.
func (s *Service) RunExpirySweep(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if _, err := s.ExpireCredentials(ctx); err != nil && ctx.Err() == nil {
			s.logger.ErrorContext(ctx, "credential expiry sweep failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}
