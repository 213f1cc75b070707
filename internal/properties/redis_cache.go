package properties

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/wolfman30/realty-crm/pkg/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const redisKeyPrefix = "properties:search:"

type redisEnvelope struct {
	StoredAt time.Time     `json:"storedAt"`
	Result   *SearchResult `json:"result"`
}

// RedisCache shares search results between API replicas and the cache warmer.
// Redis errors degrade to misses.
type RedisCache struct {
	redis  *redis.Client
	ttl    time.Duration
	tracer trace.Tracer
	logger *logging.Logger
	now    func() time.Time
}

func NewRedisCache(client *redis.Client, ttl time.Duration, logger *logging.Logger) *RedisCache {
	if client == nil {
		panic("properties: redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &RedisCache{
		redis:  client,
		ttl:    ttl,
		tracer: otel.Tracer("realty.internal.properties.cache"),
		logger: logger,
		now:    time.Now,
	}
}

func (c *RedisCache) Get(ctx context.Context, key string) (*SearchResult, bool) {
	result, _, ok := c.getEntry(ctx, key)
	return result, ok
}

func (c *RedisCache) getEntry(ctx context.Context, key string) (*SearchResult, time.Time, bool) {
	ctx, span := c.tracer.Start(ctx, "properties.cache.get", trace.WithAttributes(attribute.String("cache.key", key)))
	defer span.End()

	data, err := c.redis.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, time.Time{}, false
	}
	if err != nil {
		span.RecordError(err)
		c.logger.Warn("property cache read failed", "key", key, "error", err)
		return nil, time.Time{}, false
	}
	var env redisEnvelope
	if err := json.Unmarshal(data, &env); err != nil || env.Result == nil {
		span.RecordError(err)
		c.logger.Warn("property cache entry undecodable", "key", key, "error", err)
		return nil, time.Time{}, false
	}
	if c.now().Sub(env.StoredAt) >= c.ttl {
		return nil, time.Time{}, false
	}
	return env.Result, env.StoredAt, true
}

func (c *RedisCache) Set(ctx context.Context, key string, result *SearchResult) {
	ctx, span := c.tracer.Start(ctx, "properties.cache.set", trace.WithAttributes(attribute.String("cache.key", key)))
	defer span.End()

	data, err := json.Marshal(redisEnvelope{StoredAt: c.now().UTC(), Result: result})
	if err != nil {
		span.RecordError(err)
		c.logger.Warn("property cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.redis.Set(ctx, redisKeyPrefix+key, data, c.ttl).Err(); err != nil {
		span.RecordError(err)
		c.logger.Warn("property cache write failed", "key", key, "error", err)
	}
}
