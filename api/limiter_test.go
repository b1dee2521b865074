package api

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestUploadLimiter(t *testing.T) {
	defer goleak.VerifyNone(t)

	l := NewUploadLimiter(2, 10*time.Millisecond)
	ctx := context.Background()

	require.NoError(t, l.Acquire(ctx))
	require.True(t, l.TryAcquire())
	assert.Equal(t, UploadLimiterStatus{Active: 2, Available: 0, MaxConcurrent: 2}, l.Status())

	// Full: the bounded wait expires
	assert.ErrorIs(t, l.Acquire(ctx), ErrTooManyUploads)
	assert.False(t, l.TryAcquire())

	// A cancelled caller gets its own error
	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, l.Acquire(cancelled), context.Canceled)

	// Drain waits for the releases
	done := make(chan error, 1)
	go func() { done <- l.WaitForDrain(ctx) }()
	l.Release()
	l.Release()
	require.NoError(t, <-done)
	assert.Equal(t, UploadLimiterStatus{Active: 0, Available: 2, MaxConcurrent: 2}, l.Status())
}

func TestUploadLimiter_Defaults(t *testing.T) {
	l := NewUploadLimiter(0, 0)
	assert.Equal(t, DefaultMaxConcurrentUploads, l.Status().MaxConcurrent)
	assert.Equal(t, DefaultMaxWaitTime, l.maxWait)
}
