package service

import (
	"context"
	"errors"

	"carematch/internal/verification/models"
	id "carematch/pkg/domain"
	"carematch/pkg/platform/sentinel"
	"carematch/pkg/requestcontext"
)

// Status returns the provider's snapshot for polling. It never transitions.
// A provider without a record gets an empty not_started snapshot.
func (s *Service) Status(ctx context.Context, providerID id.UserID) (*models.StatusSnapshot, error) {
	rec, err := s.store.FindByProvider(ctx, providerID)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			return nil, translateStoreError(err, "failed to load verification status")
		}
		rec = models.NewRecord(id.RecordID{}, providerID, requestcontext.Now(ctx))
	}
	snapshot := &models.StatusSnapshot{Record: rec, Poll: rec.ShouldPoll()}
	if snapshot.Poll {
		snapshot.PollInterval = models.DefaultPollInterval
	}
	return snapshot, nil
}
