package qsync

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManualResetEventInitiallySignalled(t *testing.T) {
	e := NewManualResetEvent(true)
	assert.True(t, e.IsSet())
	assert.NoError(t, e.WaitTimeout(context.Background(), 10*time.Millisecond))
}

func TestManualResetEventSetReleasesAllWaiters(t *testing.T) {
	e := NewManualResetEvent(false)
	const n = 5
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			require.NoError(t, e.Wait(context.Background()))
		}()
	}
	time.Sleep(10 * time.Millisecond)

	e.Set()
	wg.Wait()
}

func TestManualResetEventStaysSetForLateWaiters(t *testing.T) {
	e := NewManualResetEvent(false)
	e.Set()
	assert.NoError(t, e.WaitTimeout(context.Background(), 10*time.Millisecond))
}

func TestManualResetEventReset(t *testing.T) {
	e := NewManualResetEvent(true)
	e.Reset()
	assert.False(t, e.IsSet())

	err := e.WaitTimeout(context.Background(), 10*time.Millisecond)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestManualResetEventPulseAllDoesNotStaySignalled(t *testing.T) {
	e := NewManualResetEvent(false)
	done := make(chan error, 1)
	go func() { done <- e.Wait(context.Background()) }()
	time.Sleep(10 * time.Millisecond)

	e.PulseAll()
	assert.NoError(t, <-done)
	assert.False(t, e.IsSet())

	err := e.WaitTimeout(context.Background(), 10*time.Millisecond)
	assert.ErrorIs(t, err, ErrTimeout)
}
