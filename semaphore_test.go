package qsync

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAsyncSemaphoreTryAcquireWeighted(t *testing.T) {
	s := NewAsyncSemaphore(3)
	assert.True(t, s.TryAcquire(2))
	assert.False(t, s.TryAcquire(2), "only 1 permit remains")
	assert.True(t, s.TryAcquire(1))
}

func TestAsyncSemaphoreReleaseDrainsQueuedRun(t *testing.T) {
	s := NewAsyncSemaphore(2)
	require.True(t, s.TryAcquire(2))

	done := make(chan error, 2)
	go func() { done <- s.AcquireTimeout(context.Background(), 1, time.Second) }()
	go func() { done <- s.AcquireTimeout(context.Background(), 1, time.Second) }()
	time.Sleep(10 * time.Millisecond)

	require.NoError(t, s.Release(2))

	assert.NoError(t, <-done)
	assert.NoError(t, <-done)
}

func TestAsyncSemaphoreAcquireMoreThanMaxIsArgumentError(t *testing.T) {
	s := NewAsyncSemaphore(2)
	err := s.AcquireTimeout(context.Background(), 3, time.Second)
	assert.ErrorIs(t, err, ErrArgument)
}

func TestAsyncSemaphoreReleasePastMaxFaults(t *testing.T) {
	s := NewAsyncSemaphore(2)
	err := s.Release(1)
	assert.ErrorIs(t, err, ErrSynchronizationFault)
}

func TestAsyncSemaphoreAcquireTimeout(t *testing.T) {
	s := NewAsyncSemaphore(1)
	require.True(t, s.TryAcquire(1))

	err := s.AcquireTimeout(context.Background(), 1, 10*time.Millisecond)
	assert.ErrorIs(t, err, ErrTimeout)
}
