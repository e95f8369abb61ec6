package gazetteer

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"carematch/internal/verification/ports"
)

const cacheKeyPrefix = "gazetteer:postcode:"

var cacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "carematch_gazetteer_cache_lookups_total",
	Help: "Gazetteer cache lookups by result (hit, miss, error)",
}, []string{"result"})

// RedisCache is a read-through cache in front of another gazetteer. Redis
// failures fall through to the origin; they never fail a lookup.
type RedisCache struct {
	client redis.UniversalClient
	origin ports.Gazetteer
	ttl    time.Duration
	logger *slog.Logger
}

func NewRedisCache(client redis.UniversalClient, origin ports.Gazetteer, ttl time.Duration, logger *slog.Logger) *RedisCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisCache{client: client, origin: origin, ttl: ttl, logger: logger}
}

func (c *RedisCache) LocalitiesByPostcode(ctx context.Context, postcode string) ([]ports.Locality, error) {
	key := cacheKeyPrefix + postcode

	cached, err := c.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var localities []ports.Locality
		if jsonErr := json.Unmarshal(cached, &localities); jsonErr == nil {
			cacheLookups.WithLabelValues("hit").Inc()
			return localities, nil
		}
		cacheLookups.WithLabelValues("error").Inc()
	case errors.Is(err, redis.Nil):
		cacheLookups.WithLabelValues("miss").Inc()
	default:
		cacheLookups.WithLabelValues("error").Inc()
		c.logger.WarnContext(ctx, "gazetteer cache read failed", "postcode", postcode, "error", err)
	}

	localities, err := c.origin.LocalitiesByPostcode(ctx, postcode)
	if err != nil {
		return nil, err
	}
	if payload, err := json.Marshal(localities); err == nil {
		if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
			c.logger.WarnContext(ctx, "gazetteer cache write failed", "postcode", postcode, "error", err)
		}
	}
	return localities, nil
}
