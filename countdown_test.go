package qsync

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountdownEventSignalToZero(t *testing.T) {
	c := NewCountdownEvent(2)
	fired, err := c.Signal(1)
	require.NoError(t, err)
	assert.False(t, fired)
	assert.Equal(t, int64(1), c.Current())

	fired, err = c.Signal(1)
	require.NoError(t, err)
	assert.True(t, fired)
	assert.Equal(t, int64(0), c.Current())
}

func TestCountdownEventSignalPastZeroFaults(t *testing.T) {
	c := NewCountdownEvent(1)
	_, err := c.Signal(1)
	require.NoError(t, err)
	_, err = c.Signal(1)
	assert.ErrorIs(t, err, ErrSynchronizationFault)
}

func TestCountdownEventWaitAlreadyZero(t *testing.T) {
	c := NewCountdownEvent(0)
	err := c.WaitTimeout(context.Background(), 10*time.Millisecond)
	assert.NoError(t, err)
}

// TestCountdownEventBroadcastReleasesAllWaiters checks that every waiter present when the
// count reaches zero is released by the same Signal call.
func TestCountdownEventBroadcastReleasesAllWaiters(t *testing.T) {
	c := NewCountdownEvent(1)
	const n = 6
	var wg sync.WaitGroup
	wg.Add(n)
	released := make(chan int, n)
	for i := 0; i < n; i++ {
		go func(id int) {
			defer wg.Done()
			require.NoError(t, c.Wait(context.Background()))
			released <- id
		}(i)
	}
	time.Sleep(20 * time.Millisecond)

	fired, err := c.Signal(1)
	require.NoError(t, err)
	assert.True(t, fired)

	wg.Wait()
	close(released)
	count := 0
	for range released {
		count++
	}
	assert.Equal(t, n, count)
}

func TestCountdownEventAddCount(t *testing.T) {
	c := NewCountdownEvent(1)
	require.NoError(t, c.AddCount(2))
	assert.Equal(t, int64(3), c.Current())

	_, err := c.Signal(3)
	require.NoError(t, err)
	assert.ErrorIs(t, c.AddCount(1), ErrInvalidState, "adding count to a fired event must fail")
}

func TestCountdownEventResetInterruptsWaiters(t *testing.T) {
	c := NewCountdownEvent(1)
	done := make(chan error, 1)
	go func() { done <- c.Wait(context.Background()) }()
	time.Sleep(10 * time.Millisecond)

	c.Reset()
	err := <-done
	var ie *InterruptedError
	assert.ErrorAs(t, err, &ie)
	assert.ErrorIs(t, err, ErrReset)
	assert.Equal(t, int64(1), c.Current())
}

func TestCountdownEventSignalAndWait(t *testing.T) {
	c := NewCountdownEvent(1)
	err := c.SignalAndWait(context.Background())
	assert.NoError(t, err)
}
