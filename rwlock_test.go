package qsync

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReaderWriterLockMultipleReadersConcurrent(t *testing.T) {
	rw := NewReaderWriterLock()
	r1, ok := rw.TryRead()
	require.True(t, ok)
	r2, ok := rw.TryRead()
	require.True(t, ok)

	_, ok = rw.TryWrite()
	assert.False(t, ok, "a write must not be admitted while readers are outstanding")

	require.NoError(t, r1.Release())
	_, ok = rw.TryWrite()
	assert.False(t, ok, "one remaining reader must still block a writer")

	require.NoError(t, r2.Release())
	w, ok := rw.TryWrite()
	assert.True(t, ok)
	require.NoError(t, w.Release())
}

// TestReaderWriterLockWritePreference checks that once a writer has enqueued, readers
// arriving after it must not overtake it even though concurrent reads would otherwise be
// compatible with each other.
func TestReaderWriterLockWritePreference(t *testing.T) {
	rw := NewReaderWriterLock()
	held, ok := rw.TryRead()
	require.True(t, ok)

	writerGranted := make(chan struct{})
	go func() {
		w, err := rw.Write(context.Background())
		require.NoError(t, err)
		close(writerGranted)
		time.Sleep(10 * time.Millisecond)
		require.NoError(t, w.Release())
	}()
	time.Sleep(10 * time.Millisecond)

	lateReaderGranted := make(chan struct{})
	go func() {
		r, err := rw.Read(context.Background())
		require.NoError(t, err)
		close(lateReaderGranted)
		require.NoError(t, r.Release())
	}()
	time.Sleep(10 * time.Millisecond)

	select {
	case <-lateReaderGranted:
		t.Fatal("late reader must not overtake the already-queued writer")
	default:
	}

	require.NoError(t, held.Release())

	select {
	case <-writerGranted:
	case <-time.After(time.Second):
		t.Fatal("writer was never granted after the outstanding reader released")
	}
	select {
	case <-lateReaderGranted:
	case <-time.After(time.Second):
		t.Fatal("late reader was never granted after the writer released")
	}
}

// TestReaderWriterLockOptimisticRead checks that a Stamp captured while unheld validates
// until a write acquisition completes, and never again afterward.
func TestReaderWriterLockOptimisticRead(t *testing.T) {
	rw := NewReaderWriterLock()

	s := rw.TryOptimisticRead()
	assert.True(t, rw.Validate(s))

	w, ok := rw.TryWrite()
	require.True(t, ok)
	assert.False(t, rw.Validate(s), "a stamp must not validate once a writer holds the lock")

	require.NoError(t, w.Release())
	assert.False(t, rw.Validate(s), "a stamp must not validate after any write has completed, even once released")

	fresh := rw.TryOptimisticRead()
	assert.True(t, rw.Validate(fresh))
}

func TestReaderWriterLockOptimisticReadInvalidWhileWriterHolds(t *testing.T) {
	rw := NewReaderWriterLock()
	_, ok := rw.TryWrite()
	require.True(t, ok)

	s := rw.TryOptimisticRead()
	assert.False(t, s.valid)
	assert.False(t, rw.Validate(s))
}

func TestReaderWriterLockUpgrade(t *testing.T) {
	rw := NewReaderWriterLock()
	r, ok := rw.TryRead()
	require.True(t, ok)

	w, err := r.UpgradeAsync(context.Background(), Infinite)
	require.NoError(t, err)

	_, ok = rw.TryRead()
	assert.False(t, ok, "no other caller may read while the upgraded write is held")

	require.NoError(t, w.Release())
}

func TestReaderWriterLockUpgradeBlocksBehindOtherReaders(t *testing.T) {
	rw := NewReaderWriterLock()
	r1, ok := rw.TryRead()
	require.True(t, ok)
	r2, ok := rw.TryRead()
	require.True(t, ok)

	upgraded := make(chan struct{})
	go func() {
		w, err := r1.UpgradeAsync(context.Background(), Infinite)
		require.NoError(t, err)
		close(upgraded)
		require.NoError(t, w.Release())
	}()
	time.Sleep(10 * time.Millisecond)

	select {
	case <-upgraded:
		t.Fatal("upgrade must wait for the other outstanding reader")
	default:
	}

	require.NoError(t, r2.Release())
	select {
	case <-upgraded:
	case <-time.After(time.Second):
		t.Fatal("upgrade was never granted after the other reader released")
	}
}

// TestReaderWriterLockUpgradeDrainsQueuedWriterFirst checks that a reader upgrading
// while a writer is already queued ahead of it releases its own read through a draining
// release: the queued writer must be granted before the upgrade node, not stranded
// because the upgrading reader gave up its read without draining.
func TestReaderWriterLockUpgradeDrainsQueuedWriterFirst(t *testing.T) {
	rw := NewReaderWriterLock()
	r1, ok := rw.TryRead()
	require.True(t, ok)

	writerGranted := make(chan struct{})
	go func() {
		w, err := rw.Write(context.Background())
		require.NoError(t, err)
		close(writerGranted)
		require.NoError(t, w.Release())
	}()
	time.Sleep(10 * time.Millisecond)

	upgraded := make(chan struct{})
	go func() {
		w, err := r1.UpgradeAsync(context.Background(), time.Second)
		require.NoError(t, err)
		close(upgraded)
		require.NoError(t, w.Release())
	}()

	select {
	case <-writerGranted:
	case <-time.After(time.Second):
		t.Fatal("writer queued ahead of the upgrade was never granted")
	}
	select {
	case <-upgraded:
	case <-time.After(time.Second):
		t.Fatal("upgrade was never granted after the writer released")
	}
}

func TestReaderWriterLockDowngrade(t *testing.T) {
	rw := NewReaderWriterLock()
	w, ok := rw.TryWrite()
	require.True(t, ok)

	r := w.Downgrade()
	_, ok = rw.TryRead()
	assert.True(t, ok, "a second reader must be admitted once the writer has downgraded")

	require.NoError(t, r.Release())
}

func TestReaderWriterLockTryStealWrite(t *testing.T) {
	rw := NewReaderWriterLock()
	held, ok := rw.TryWrite()
	require.True(t, ok)

	var wg sync.WaitGroup
	wg.Add(1)
	var waiterErr error
	go func() {
		defer wg.Done()
		_, waiterErr = rw.Read(context.Background())
	}()
	time.Sleep(10 * time.Millisecond)

	stealErr := make(chan error, 1)
	go func() {
		_, err := rw.TryStealWriteTimeout(context.Background(), assert.AnError, time.Second)
		stealErr <- err
	}()
	time.Sleep(10 * time.Millisecond)
	wg.Wait()
	assert.ErrorIs(t, waiterErr, assert.AnError)

	require.NoError(t, held.Release())
	assert.NoError(t, <-stealErr)
}
