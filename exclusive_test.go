package qsync

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExclusiveLockTryAcquire(t *testing.T) {
	l := NewExclusiveLock()
	assert.True(t, l.TryAcquire())
	assert.False(t, l.TryAcquire(), "a second TryAcquire must fail while the first holds it")
	require.NoError(t, l.Release())
	assert.True(t, l.TryAcquire())
}

func TestExclusiveLockReleaseWithoutAcquireFaults(t *testing.T) {
	l := NewExclusiveLock()
	assert.ErrorIs(t, l.Release(), ErrSynchronizationFault)
}

// TestExclusiveLockFIFOHandoff checks that when N goroutines queue for the same lock,
// the order they are granted it in matches the order they enqueued in.
func TestExclusiveLockFIFOHandoff(t *testing.T) {
	l := NewExclusiveLock()
	require.NoError(t, l.Acquire(context.Background()))

	const n = 5
	order := make(chan int, n)
	var enqueued sync.WaitGroup
	enqueued.Add(n)

	for i := 0; i < n; i++ {
		i := i
		go func() {
			// Stagger enqueue order deterministically via a small per-goroutine delay
			// proportional to i, then signal just before calling Acquire; the main
			// goroutine's extra sleep after enqueued.Wait gives the last one time to
			// reach the kernel's queue.
			time.Sleep(time.Duration(i) * 5 * time.Millisecond)
			enqueued.Done()
			err := l.Acquire(context.Background())
			require.NoError(t, err)
			order <- i
			require.NoError(t, l.Release())
		}()
	}

	enqueued.Wait()
	time.Sleep(20 * time.Millisecond)
	require.NoError(t, l.Release())

	var got []int
	for i := 0; i < n; i++ {
		got = append(got, <-order)
	}
	assert.Equal(t, []int{0, 1, 2, 3, 4}, got)
}

func TestExclusiveLockAcquireTimeout(t *testing.T) {
	l := NewExclusiveLock()
	require.NoError(t, l.Acquire(context.Background()))

	err := l.AcquireTimeout(context.Background(), 10*time.Millisecond)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestExclusiveLockTryAcquireTimeoutReturnsFalseNotError(t *testing.T) {
	l := NewExclusiveLock()
	require.NoError(t, l.Acquire(context.Background()))

	ok, err := l.TryAcquireTimeout(context.Background(), 10*time.Millisecond)
	assert.False(t, ok)
	assert.NoError(t, err)
}

func TestExclusiveLockAcquireContextCancelled(t *testing.T) {
	l := NewExclusiveLock()
	require.NoError(t, l.Acquire(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- l.Acquire(ctx) }()

	time.Sleep(10 * time.Millisecond)
	cancel()

	err := <-done
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExclusiveLockDispose(t *testing.T) {
	l := NewExclusiveLock()
	require.NoError(t, l.Acquire(context.Background()))

	done := make(chan error, 1)
	go func() { done <- l.Acquire(context.Background()) }()
	time.Sleep(10 * time.Millisecond)

	l.Dispose()
	assert.ErrorIs(t, <-done, ErrDisposed)

	assert.ErrorIs(t, l.Acquire(context.Background()), ErrDisposed)
}

func TestExclusiveLockCancelSuspendedCallers(t *testing.T) {
	l := NewExclusiveLock()
	require.NoError(t, l.Acquire(context.Background()))

	done := make(chan error, 1)
	go func() { done <- l.Acquire(context.Background()) }()
	time.Sleep(10 * time.Millisecond)

	reason := assert.AnError
	l.CancelSuspendedCallers(reason)

	err := <-done
	assert.ErrorIs(t, err, reason)
}
