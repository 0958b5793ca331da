//go:build integration

package access_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signet/internal/envelope/access"
	"signet/pkg/testutil/containers"
)

func TestRedisLimiter(t *testing.T) {
	ctx := context.Background()
	rc := containers.GetManager().GetRedis(t)
	require.NoError(t, rc.FlushAll(ctx))

	limiter := access.NewRedisLimiter(rc.Client, 3, time.Minute)

	for i := 0; i < 3; i++ {
		ok, err := limiter.Allow(ctx, "verify:env:one@example.com")
		require.NoError(t, err)
		assert.True(t, ok, "attempt %d should be allowed", i+1)
	}

	ok, err := limiter.Allow(ctx, "verify:env:one@example.com")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = limiter.Allow(ctx, "verify:env:two@example.com")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, limiter.Reset(ctx, "verify:env:one@example.com"))
	ok, err = limiter.Allow(ctx, "verify:env:one@example.com")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLimiterWindowExpiry(t *testing.T) {
	ctx := context.Background()
	rc := containers.GetManager().GetRedis(t)
	require.NoError(t, rc.FlushAll(ctx))

	limiter := access.NewRedisLimiter(rc.Client, 1, time.Second)

	ok, err := limiter.Allow(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = limiter.Allow(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	time.Sleep(1100 * time.Millisecond)

	ok, err = limiter.Allow(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
}
