package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiter_ExhaustsPerKey(t *testing.T) {
	t.Parallel()

	rl := NewRateLimiter(2, time.Minute)

	assert.True(t, rl.Allow("1.2.3.4"))
	assert.True(t, rl.Allow("1.2.3.4"))
	assert.False(t, rl.Allow("1.2.3.4"))

	// Another client has its own bucket.
	assert.True(t, rl.Allow("5.6.7.8"))
}

func TestTokenBucket_Refills(t *testing.T) {
	t.Parallel()

	tb := NewTokenBucket(1, 1) // 1 token/second
	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow())

	// Simulate elapsed time instead of sleeping.
	tb.mu.Lock()
	tb.lastRefillTime = time.Now().Add(-2 * time.Second)
	tb.mu.Unlock()

	assert.True(t, tb.Allow())
}

func TestTokenBucket_CapsAtMax(t *testing.T) {
	t.Parallel()

	tb := NewTokenBucket(2, 100)
	tb.mu.Lock()
	tb.lastRefillTime = time.Now().Add(-time.Hour)
	tb.mu.Unlock()

	assert.True(t, tb.Allow())
	assert.True(t, tb.Allow())
	assert.False(t, tb.Allow())
}

func TestLimiter_Disabled(t *testing.T) {
	t.Parallel()

	l := NewLimiter(LimiterConfig{
		Enabled:     false,
		MaxRequests: 1,
		Window:      time.Minute,
		AuthMax:     1,
		AuthWindow:  time.Minute,
	})

	// Disabled limiter never consumes tokens; buckets stay full.
	assert.True(t, l.general.Allow("k"))
	assert.True(t, l.auth.Allow("k"))
}
