package cache

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/lunatria/starlight/internal/observability"
)

// cacheTracerName is the OpenTelemetry tracer name for cache operations.
const cacheTracerName = "starlight/cache"

// cleanupInterval is how often expired entries are swept.
const cleanupInterval = time.Minute

// memoryCache implements an in-memory cache with per-entry TTL.
type memoryCache struct {
	logger observability.Logger

	mu    sync.RWMutex
	items map[string]memoryEntry

	stopCh   chan struct{}
	stopOnce sync.Once
}

type memoryEntry struct {
	value     string
	expiresAt time.Time
}

func (e memoryEntry) expired() bool {
	return !e.expiresAt.IsZero() && time.Now().After(e.expiresAt)
}

// newMemoryCache creates a new in-memory cache.
func newMemoryCache(logger observability.Logger) *memoryCache {
	c := &memoryCache{
		logger: logger,
		items:  make(map[string]memoryEntry),
		stopCh: make(chan struct{}),
	}

	go c.cleanupLoop()

	logger.Info("memory cache initialized")

	return c
}

// Get retrieves a value from the cache.
func (c *memoryCache) Get(ctx context.Context, key string) (string, error) {
	_, span := otel.Tracer(cacheTracerName).Start(ctx, "cache.Get",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("cache.backend", "memory")),
	)
	defer span.End()

	start := time.Now()
	defer func() {
		GetMetrics().operationDuration.WithLabelValues("memory", "get").
			Observe(time.Since(start).Seconds())
	}()

	c.mu.RLock()
	entry, exists := c.items[key]
	c.mu.RUnlock()

	if !exists || entry.expired() {
		GetMetrics().missesTotal.WithLabelValues("memory").Inc()
		span.SetAttributes(attribute.Bool("cache.hit", false))
		return "", ErrCacheMiss
	}

	GetMetrics().hitsTotal.WithLabelValues("memory").Inc()
	span.SetAttributes(attribute.Bool("cache.hit", true))
	return entry.value, nil
}

// Set stores a value in the cache.
func (c *memoryCache) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	_, span := otel.Tracer(cacheTracerName).Start(ctx, "cache.Set",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("cache.backend", "memory")),
	)
	defer span.End()

	start := time.Now()
	defer func() {
		GetMetrics().operationDuration.WithLabelValues("memory", "set").
			Observe(time.Since(start).Seconds())
	}()

	entry := memoryEntry{value: value}
	if ttl > 0 {
		entry.expiresAt = time.Now().Add(ttl)
	}

	c.mu.Lock()
	c.items[key] = entry
	c.mu.Unlock()

	return nil
}

// Delete removes a value from the cache.
func (c *memoryCache) Delete(ctx context.Context, key string) error {
	_, span := otel.Tracer(cacheTracerName).Start(ctx, "cache.Delete",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("cache.backend", "memory")),
	)
	defer span.End()

	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()

	return nil
}

// Close stops the cleanup goroutine.
func (c *memoryCache) Close() error {
	c.stopOnce.Do(func() {
		close(c.stopCh)
	})
	return nil
}

// cleanupLoop periodically removes expired entries.
func (c *memoryCache) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.removeExpired()
		case <-c.stopCh:
			return
		}
	}
}

func (c *memoryCache) removeExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, entry := range c.items {
		if entry.expired() {
			delete(c.items, key)
		}
	}
}
