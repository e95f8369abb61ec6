//go:build integration

package gazetteer_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"carematch/internal/gazetteer"
	"carematch/internal/verification/ports"
	"carematch/pkg/testutil/containers"
)

type GazetteerIntegrationSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	redis    *containers.RedisContainer
	store    *gazetteer.Postgres
}

func TestGazetteerIntegrationSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(GazetteerIntegrationSuite))
}

func (s *GazetteerIntegrationSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.redis = mgr.GetRedis(s.T())
	s.store = gazetteer.NewPostgres(s.postgres.DB)
}

func (s *GazetteerIntegrationSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.TruncateTables(ctx, "localities"))
	s.Require().NoError(s.redis.FlushAll(ctx))
}

func (s *GazetteerIntegrationSuite) TestImportIsIdempotent() {
	ctx := context.Background()
	rows := []ports.Locality{
		{Name: "Carlton", Region: "Victoria", Postcode: "3053"},
		{Name: "Carlton South", Region: "VIC", Postcode: "3053"},
	}

	inserted, err := s.store.Import(ctx, rows)
	s.Require().NoError(err)
	s.Equal(int64(2), inserted)

	inserted, err = s.store.Import(ctx, rows)
	s.Require().NoError(err)
	s.Equal(int64(0), inserted)

	got, err := s.store.LocalitiesByPostcode(ctx, "3053")
	s.Require().NoError(err)
	s.Equal([]ports.Locality{
		{Name: "Carlton", Region: "VIC", Postcode: "3053"},
		{Name: "Carlton South", Region: "VIC", Postcode: "3053"},
	}, got)
}

func (s *GazetteerIntegrationSuite) TestRedisCacheServesFromCache() {
	ctx := context.Background()
	_, err := s.store.Import(ctx, []ports.Locality{{Name: "Glebe", Region: "NSW", Postcode: "2037"}})
	s.Require().NoError(err)

	cache := gazetteer.NewRedisCache(s.redis.Redis.Client, s.store, time.Minute, nil)
	first, err := cache.LocalitiesByPostcode(ctx, "2037")
	s.Require().NoError(err)
	s.Len(first, 1)

	s.Require().NoError(s.postgres.TruncateTables(ctx, "localities"))

	second, err := cache.LocalitiesByPostcode(ctx, "2037")
	s.Require().NoError(err)
	s.Equal(first, second)
}
