package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSlidingWindowAllow(t *testing.T) {
	now := time.Unix(1700000000, 0)
	sw := NewSlidingWindow(2, time.Minute)
	sw.now = func() time.Time { return now }

	assert.True(t, sw.Allow())
	assert.True(t, sw.Allow())
	assert.False(t, sw.Allow())
	assert.Equal(t, 0, sw.Remaining())
	assert.Equal(t, now.Add(time.Minute), sw.ResetTime())

	now = now.Add(61 * time.Second)
	assert.Equal(t, 2, sw.Remaining())
	assert.True(t, sw.Allow())
}

func TestSlidingWindowWaitHonorsContext(t *testing.T) {
	sw := PerMinute(1)
	assert.NoError(t, sw.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, sw.Wait(ctx), context.DeadlineExceeded)
}

func TestSlidingWindowWaitReleases(t *testing.T) {
	sw := NewSlidingWindow(1, 50*time.Millisecond)
	assert.True(t, sw.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	start := time.Now()
	assert.NoError(t, sw.Wait(ctx))
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
}

func TestZeroLimitIsOne(t *testing.T) {
	sw := NewSlidingWindow(0, time.Minute)
	assert.True(t, sw.Allow())
	assert.False(t, sw.Allow())
}
