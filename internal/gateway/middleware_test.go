package gateway

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginLimiterAllowsBurstThenDenies(t *testing.T) {
	limiter := newLoginLimiter(3)

	for i := 0; i < 3; i++ {
		assert.True(t, limiter.allow("10.0.0.1"))
	}
	assert.False(t, limiter.allow("10.0.0.1"))

	// A different client has its own budget.
	assert.True(t, limiter.allow("10.0.0.2"))
}

func TestLoginLimiterEvictsIdleClients(t *testing.T) {
	limiter := newLoginLimiter(3)

	for i := 0; i < limiterPruneThreshold; i++ {
		require.True(t, limiter.allow(fmt.Sprintf("10.0.%d.%d", i/256, i%256)))
	}
	require.Len(t, limiter.clients, limiterPruneThreshold)

	// Age every entry past the idle window; the next request triggers
	// an eviction scan.
	limiter.mu.Lock()
	stale := time.Now().Add(-limiterIdleTTL - time.Minute)
	for _, entry := range limiter.clients {
		entry.lastSeen = stale
	}
	limiter.mu.Unlock()

	assert.True(t, limiter.allow("192.0.2.1"))

	limiter.mu.Lock()
	defer limiter.mu.Unlock()
	assert.Len(t, limiter.clients, 1, "idle entries must be evicted")
	_, ok := limiter.clients["192.0.2.1"]
	assert.True(t, ok)
}
