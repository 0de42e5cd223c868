package infer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter_AcquiresUpToCapacity(t *testing.T) {
	rl := newRateLimiter(5)
	defer rl.Close()

	for i := 0; i < 5; i++ {
		assert.True(t, rl.tryAcquire(), "token %d should be available", i)
	}
	assert.False(t, rl.tryAcquire(), "bucket should be empty")
}

func TestRateLimiter_WaitRespectsContext(t *testing.T) {
	rl := newRateLimiter(1)
	defer rl.Close()

	require.NoError(t, rl.wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	err := rl.wait(ctx)
	assert.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRateLimiter_DefaultsToSixtyPerMinute(t *testing.T) {
	rl := newRateLimiter(0)
	defer rl.Close()

	assert.Equal(t, 60, rl.capacity)
}
