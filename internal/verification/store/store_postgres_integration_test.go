//go:build integration

package store

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"carematch/internal/verification/models"
	id "carematch/pkg/domain"
	dErrors "carematch/pkg/domain-errors"
	audit "carematch/pkg/platform/audit"
	auditpostgres "carematch/pkg/platform/audit/store/postgres"
	"carematch/pkg/platform/sentinel"
	"carematch/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *PostgresStore
	audit *auditpostgres.Store
	ctx   context.Context
	now   time.Time
}

func TestPostgresStoreSuite(t *testing.T) {
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.pg = containers.GetManager().GetPostgres(s.T())
	s.store = NewPostgres(s.pg.DB)
	s.audit = auditpostgres.New(s.pg.DB)
	s.ctx = context.Background()
	s.now = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.pg.TruncateTables(s.ctx, "verification_records", "audit_events"))
}

func (s *PostgresStoreSuite) create(providerID id.UserID, mutate MutateFunc) *models.Record {
	rec, err := s.store.ExecuteOrCreate(s.ctx, providerID, s.now, nil, mutate)
	s.Require().NoError(err)
	return rec
}

func (s *PostgresStoreSuite) TestExecuteOrCreate() {
	s.Run("inserts once and round-trips stage payloads", func() {
		providerID := id.UserID(uuid.New())
		first := s.create(providerID, func(r *models.Record) {
			r.Identity.Status = models.IdentityProcessing
			r.Identity.DocumentRef = "doc-front"
			r.Identity.Issues = []string{"glare", "cropped"}
		})
		second := s.create(providerID, nil)
		s.Equal(first.ID, second.ID)

		found, err := s.store.FindByProvider(s.ctx, providerID)
		s.Require().NoError(err)
		s.Equal(models.IdentityProcessing, found.Identity.Status)
		s.Equal("doc-front", found.Identity.DocumentRef)
		s.Equal([]string{"glare", "cropped"}, found.Identity.Issues)
		s.Equal(models.AggregateIdentityInProgress, found.VerificationStatus)
		s.True(s.now.Equal(found.CreatedAt))
	})

	s.Run("unknown provider is not found", func() {
		_, err := s.store.FindByProvider(s.ctx, id.UserID(uuid.New()))
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *PostgresStoreSuite) TestExecuteRollback() {
	s.Run("validation error keeps the stored row", func() {
		providerID := id.UserID(uuid.New())
		s.create(providerID, nil)

		_, err := s.store.Execute(s.ctx, providerID,
			func(*models.Record) error { return dErrors.New(dErrors.CodeConflict, "nope") },
			func(r *models.Record) { r.Identity.Status = models.IdentityVerified },
		)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))

		found, err := s.store.FindByProvider(s.ctx, providerID)
		s.Require().NoError(err)
		s.Equal(models.IdentityNotStarted, found.Identity.Status)
	})

	s.Run("failing hook rolls back the record and audit rows written in the same transaction", func() {
		providerID := id.UserID(uuid.New())
		s.create(providerID, nil)

		appendAudit := func(ctx context.Context, r *models.Record) error {
			return s.audit.Append(ctx, audit.Event{
				Timestamp: s.now,
				UserID:    r.ProviderID,
				Action:    string(audit.EventIdentityApproved),
				ActorID:   "admin",
			})
		}
		_, err := s.store.Execute(s.ctx, providerID, nil,
			func(r *models.Record) { r.Identity.Status = models.IdentityVerified },
			appendAudit,
			func(context.Context, *models.Record) error { return errors.New("dispatch failed") },
		)
		s.Require().Error(err)

		found, err := s.store.FindByProvider(s.ctx, providerID)
		s.Require().NoError(err)
		s.Equal(models.IdentityNotStarted, found.Identity.Status)

		events, err := s.audit.ListByUser(s.ctx, providerID)
		s.Require().NoError(err)
		s.Empty(events)
	})

	s.Run("successful hook commits with the record", func() {
		providerID := id.UserID(uuid.New())
		s.create(providerID, nil)

		_, err := s.store.Execute(s.ctx, providerID, nil,
			func(r *models.Record) { r.Identity.Status = models.IdentityVerified },
			func(ctx context.Context, r *models.Record) error {
				return s.audit.Append(ctx, audit.Event{
					Timestamp: s.now,
					UserID:    r.ProviderID,
					Action:    string(audit.EventIdentityApproved),
				})
			},
		)
		s.Require().NoError(err)

		events, err := s.audit.ListByUser(s.ctx, providerID)
		s.Require().NoError(err)
		s.Require().Len(events, 1)
		s.Equal(audit.CategoryCompliance, events[0].Category)
	})
}

func (s *PostgresStoreSuite) TestConcurrentGuardedWrites() {
	providerID := id.UserID(uuid.New())
	s.create(providerID, func(r *models.Record) { r.Identity.Status = models.IdentityProcessing })

	const writers = 10
	var wg sync.WaitGroup
	var wins atomic.Int32
	for range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.store.Execute(s.ctx, providerID,
				func(r *models.Record) error {
					if r.Identity.Status != models.IdentityProcessing {
						return models.ErrSuperseded
					}
					return nil
				},
				func(r *models.Record) { r.Identity.Status = models.IdentityVerified },
			)
			if err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	s.Equal(int32(1), wins.Load())
}

func (s *PostgresStoreSuite) TestListAndFilters() {
	verified := id.UserID(uuid.New())
	s.create(verified, func(r *models.Record) { r.Identity.Status = models.IdentityVerified; r.UpdatedAt = s.now.Add(time.Minute) })
	review := id.UserID(uuid.New())
	s.create(review, func(r *models.Record) { r.Identity.Status = models.IdentityReview; r.UpdatedAt = s.now.Add(2 * time.Minute) })
	s.create(id.UserID(uuid.New()), nil)

	records, total, err := s.store.List(s.ctx, models.ListFilter{})
	s.Require().NoError(err)
	s.Equal(3, total)
	s.Equal(review, records[0].ProviderID)

	records, total, err = s.store.List(s.ctx, models.ListFilter{IdentityStatuses: []models.IdentityStatus{models.IdentityReview, models.IdentityVerified}})
	s.Require().NoError(err)
	s.Equal(2, total)
	s.Len(records, 2)

	_, total, err = s.store.List(s.ctx, models.ListFilter{
		IdentityStatuses: []models.IdentityStatus{models.IdentityVerified},
		Aggregates:       []models.AggregateStatus{models.AggregateCredentialRequired},
	})
	s.Require().NoError(err)
	s.Equal(1, total)

	records, total, err = s.store.List(s.ctx, models.ListFilter{Limit: 1, Offset: 1})
	s.Require().NoError(err)
	s.Equal(3, total)
	s.Require().Len(records, 1)
	s.Equal(verified, records[0].ProviderID)
}

func (s *PostgresStoreSuite) TestListExpiredCredentials() {
	expired := id.UserID(uuid.New())
	s.create(expired, func(r *models.Record) {
		r.Identity.Status = models.IdentityVerified
		r.Credential.Status = models.CredentialVerified
		r.Credential.Expiry = "2026-03-01"
	})
	s.create(id.UserID(uuid.New()), func(r *models.Record) {
		r.Identity.Status = models.IdentityVerified
		r.Credential.Status = models.CredentialDocVerified
		r.Credential.Expiry = "2027-03-01"
	})
	s.create(id.UserID(uuid.New()), func(r *models.Record) {
		r.Identity.Status = models.IdentityVerified
		r.Credential.Status = models.CredentialReview
		r.Credential.Expiry = "2025-01-01"
	})

	ids, err := s.store.ListExpiredCredentials(s.ctx, s.now, 10)
	s.Require().NoError(err)
	s.Equal([]id.UserID{expired}, ids)
}

func (s *PostgresStoreSuite) TestDelete() {
	providerID := id.UserID(uuid.New())
	s.create(providerID, nil)
	s.Require().NoError(s.store.Delete(s.ctx, providerID))
	s.ErrorIs(s.store.Delete(s.ctx, providerID), sentinel.ErrNotFound)
	_, err := s.store.FindByProvider(s.ctx, providerID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}
