package access

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryLimiterBudget(t *testing.T) {
	ctx := context.Background()
	limiter := NewMemoryLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		ok, err := limiter.Allow(ctx, "verify:env:one@example.com")
		require.NoError(t, err)
		assert.True(t, ok, "attempt %d should be allowed", i+1)
	}

	ok, err := limiter.Allow(ctx, "verify:env:one@example.com")
	require.NoError(t, err)
	assert.False(t, ok, "attempt over the budget should be denied")

	// Another key has its own budget.
	ok, err = limiter.Allow(ctx, "verify:env:two@example.com")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryLimiterWindowExpiry(t *testing.T) {
	ctx := context.Background()
	limiter := NewMemoryLimiter(1, time.Minute)

	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return clock }

	ok, err := limiter.Allow(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = limiter.Allow(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	// A fresh window restores the budget.
	clock = clock.Add(61 * time.Second)
	ok, err = limiter.Allow(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryLimiterReset(t *testing.T) {
	ctx := context.Background()
	limiter := NewMemoryLimiter(1, time.Minute)

	ok, err := limiter.Allow(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = limiter.Allow(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, limiter.Reset(ctx, "k"))

	ok, err = limiter.Allow(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
}
