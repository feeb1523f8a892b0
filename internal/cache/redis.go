package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/lunatria/starlight/internal/config"
	"github.com/lunatria/starlight/internal/observability"
)

// redisCache implements a Redis-based cache.
type redisCache struct {
	logger    observability.Logger
	client    *redis.Client
	keyPrefix string
}

// newRedisCache creates a new Redis cache.
func newRedisCache(cfg *config.CacheConfig, logger observability.Logger) (*redisCache, error) {
	if cfg.Redis == nil || cfg.Redis.URL == "" {
		return nil, errors.New("redis URL is required")
	}

	opts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		return nil, errors.New("invalid redis URL: " + err.Error())
	}

	if cfg.Redis.PoolSize > 0 {
		opts.PoolSize = cfg.Redis.PoolSize
	}
	if cfg.Redis.ConnectTimeout > 0 {
		opts.DialTimeout = cfg.Redis.ConnectTimeout.Duration()
	}
	if cfg.Redis.ReadTimeout > 0 {
		opts.ReadTimeout = cfg.Redis.ReadTimeout.Duration()
	}
	if cfg.Redis.WriteTimeout > 0 {
		opts.WriteTimeout = cfg.Redis.WriteTimeout.Duration()
	}

	client := redis.NewClient(opts)

	if err := pingRedis(client); err != nil {
		_ = client.Close()
		return nil, errors.New("redis connection failed: " + err.Error())
	}

	keyPrefix := cfg.Redis.KeyPrefix
	if keyPrefix == "" {
		keyPrefix = "starlight:"
	}

	c := &redisCache{
		logger:    logger,
		client:    client,
		keyPrefix: keyPrefix,
	}

	logger.Info("redis cache initialized",
		observability.String("keyPrefix", keyPrefix))

	return c, nil
}

// pingRedis tests the Redis connection with a timeout.
func pingRedis(client *redis.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return client.Ping(ctx).Err()
}

// Get retrieves a value from the cache.
func (c *redisCache) Get(ctx context.Context, key string) (string, error) {
	ctx, span := otel.Tracer(cacheTracerName).Start(ctx, "cache.Get",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("cache.backend", "redis")),
	)
	defer span.End()

	start := time.Now()
	defer func() {
		GetMetrics().operationDuration.WithLabelValues("redis", "get").
			Observe(time.Since(start).Seconds())
	}()

	value, err := c.client.Get(ctx, c.keyPrefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			GetMetrics().missesTotal.WithLabelValues("redis").Inc()
			span.SetAttributes(attribute.Bool("cache.hit", false))
			return "", ErrCacheMiss
		}
		GetMetrics().errorsTotal.WithLabelValues("redis", "get").Inc()
		span.SetStatus(codes.Error, err.Error())
		return "", err
	}

	GetMetrics().hitsTotal.WithLabelValues("redis").Inc()
	span.SetAttributes(attribute.Bool("cache.hit", true))
	return value, nil
}

// Set stores a value in the cache. A TTL of 0 stores without expiry.
func (c *redisCache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	ctx, span := otel.Tracer(cacheTracerName).Start(ctx, "cache.Set",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("cache.backend", "redis")),
	)
	defer span.End()

	start := time.Now()
	defer func() {
		GetMetrics().operationDuration.WithLabelValues("redis", "set").
			Observe(time.Since(start).Seconds())
	}()

	if err := c.client.Set(ctx, c.keyPrefix+key, value, ttl).Err(); err != nil {
		GetMetrics().errorsTotal.WithLabelValues("redis", "set").Inc()
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}

// Delete removes a value from the cache.
func (c *redisCache) Delete(ctx context.Context, key string) error {
	ctx, span := otel.Tracer(cacheTracerName).Start(ctx, "cache.Delete",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("cache.backend", "redis")),
	)
	defer span.End()

	if err := c.client.Del(ctx, c.keyPrefix+key).Err(); err != nil {
		GetMetrics().errorsTotal.WithLabelValues("redis", "delete").Inc()
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}

// Close closes the Redis connection.
func (c *redisCache) Close() error {
	return c.client.Close()
}
