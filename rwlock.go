// Copyright 2020 Nathan Taylor (nbtaylor@gmail.com)
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to
// use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies
// of the Software, and to permit persons to whom the Software is furnished to do
// so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// ReaderWriterLock, defined in this file, is this package's reader-writer primitive: it
// plays the same role dijkstracula/go-ilock's intention-lock states S (shared) and X
// (exclusive) play, generalized from a bit-packed uint64 of four fixed holder counts
// into a LockManager over three node modes (read, write, upgrade-from-read) plus an
// optimistic version stamp that ilock has no equivalent of.
package qsync

import (
	"context"
	"sync/atomic"
	"time"
)

// lockMode is the per-node context a ReaderWriterLock's LockManager consults: which of
// the lock's three admission predicates applies to this particular suspended caller.
type lockMode uint8

const (
	modeRead lockMode = iota
	modeWrite
	modeUpgrade
)

// rwState holds the lock's counts as atomics so that TryOptimisticRead and Validate can
// read them without taking the mutex; every mutation still happens with the mutex held,
// the atomics exist only to make that unsynchronized read race-free, not to allow
// lock-free mutation.
type rwState struct {
	readers atomic.Uint64
	writer  atomic.Bool
	version atomic.Uint64
}

type rwManager struct{}

func (rwManager) RequiresEmptyQueue() bool { return true }

func (rwManager) IsLockAllowed(s *rwState, mode lockMode) bool {
	writer := s.writer.Load()
	switch mode {
	case modeRead:
		return !writer
	case modeWrite:
		return !writer && s.readers.Load() == 0
	case modeUpgrade:
		// The caller's own read count was already removed from s.readers by
		// ReadLock.UpgradeAsync before this node was enqueued, so an upgrade is
		// admissible under exactly the same condition as a fresh write -- it never
		// has to subtract its own outstanding read to avoid the deadlock a literal
		// reading of "upgrade needs readers==1, write needs readers==0" would cause.
		return !writer && s.readers.Load() == 0
	default:
		return false
	}
}

func (rwManager) AcquireLock(s *rwState, mode lockMode) {
	switch mode {
	case modeRead:
		s.readers.Add(1)
	case modeWrite, modeUpgrade:
		// version is bumped last: an optimistic reader observing writer==true before
		// the bump can never validate a stamp against the new version by mistake.
		s.writer.Store(true)
		s.readers.Store(0)
		s.version.Add(1)
	}
}

// Stamp is an opaque token returned by TryOptimisticRead and later checked with
// Validate, without ever taking the lock's mutex.
type Stamp struct {
	valid   bool
	version uint64
}

// ReaderWriterLock is a FIFO-queued, write-preferring reader-writer lock: a writer at
// the head of the queue blocks readers arriving after it from overtaking, but readers
// already queued ahead of a writer are drained as a run before the writer is considered.
type ReaderWriterLock struct {
	k *kernel[rwState, lockMode]
}

// NewReaderWriterLock returns an unheld ReaderWriterLock.
func NewReaderWriterLock(opts ...Option) *ReaderWriterLock {
	o := newOptions(opts)
	return &ReaderWriterLock{k: newContextKernel[rwState, lockMode]("ReaderWriterLock", rwManager{}, drainHeadOnly, o)}
}

// ReadLock is the handle returned by a successful read acquisition.
type ReadLock struct {
	rw *ReaderWriterLock
}

// Release releases this read reference.
func (r *ReadLock) Release() error { return r.rw.releaseRead() }

// UpgradeAsync releases this read reference and waits up to timeout to be granted
// exclusive access in its place. The read is released through a draining release, so a
// writer already queued ahead is granted first, and another writer may acquire the lock
// before the upgrade does.
func (r *ReadLock) UpgradeAsync(ctx context.Context, timeout time.Duration) (*WriteLock, error) {
	return r.rw.upgrade(ctx, timeout)
}

// WriteLock is the handle returned by a successful write acquisition.
type WriteLock struct {
	rw *ReaderWriterLock
}

// Release releases this write reference.
func (w *WriteLock) Release() error { return w.rw.releaseWrite() }

// Downgrade atomically converts this write reference into a read reference, unblocking
// any readers queued behind it.
func (w *WriteLock) Downgrade() *ReadLock { return w.rw.downgrade() }

// TryRead acquires a read reference without queuing, succeeding only if no writer holds
// or is queued ahead of this call.
func (rw *ReaderWriterLock) TryRead() (*ReadLock, bool) {
	ok, _ := rw.k.tryAcquire(modeRead)
	if !ok {
		return nil, false
	}
	return &ReadLock{rw: rw}, true
}

// ReadTimeout waits up to timeout for a read reference.
func (rw *ReaderWriterLock) ReadTimeout(ctx context.Context, timeout time.Duration) (*ReadLock, error) {
	if _, err := rw.k.acquireAsync(ctx, timeout, modeRead, true, rw.k.maybeCallerInfo()); err != nil {
		return nil, err
	}
	return &ReadLock{rw: rw}, nil
}

// Read waits indefinitely for a read reference; it can only fail via ctx cancellation.
func (rw *ReaderWriterLock) Read(ctx context.Context) (*ReadLock, error) {
	return rw.ReadTimeout(ctx, Infinite)
}

// TryWrite acquires a write reference without queuing, succeeding only if the lock is
// completely free and no one else is queued ahead of this call.
func (rw *ReaderWriterLock) TryWrite() (*WriteLock, bool) {
	ok, _ := rw.k.tryAcquire(modeWrite)
	if !ok {
		return nil, false
	}
	return &WriteLock{rw: rw}, true
}

// WriteTimeout waits up to timeout for a write reference.
func (rw *ReaderWriterLock) WriteTimeout(ctx context.Context, timeout time.Duration) (*WriteLock, error) {
	if _, err := rw.k.acquireAsync(ctx, timeout, modeWrite, true, rw.k.maybeCallerInfo()); err != nil {
		return nil, err
	}
	return &WriteLock{rw: rw}, nil
}

// Write waits indefinitely for a write reference; it can only fail via ctx cancellation.
func (rw *ReaderWriterLock) Write(ctx context.Context) (*WriteLock, error) {
	return rw.WriteTimeout(ctx, Infinite)
}

// TryOptimisticRead returns a Stamp capturing the lock's current version if no writer
// currently holds it, without blocking and without taking the lock's mutex. An invalid
// Stamp (returned when a writer currently holds the lock) never validates.
func (rw *ReaderWriterLock) TryOptimisticRead() Stamp {
	if rw.k.state.writer.Load() {
		return Stamp{}
	}
	return Stamp{valid: true, version: rw.k.state.version.Load()}
}

// Validate reports whether s is still current: no write acquisition has completed, and
// none is in progress, since s was captured.
func (rw *ReaderWriterLock) Validate(s Stamp) bool {
	return s.valid && !rw.k.state.writer.Load() && rw.k.state.version.Load() == s.version
}

// TryStealWriteTimeout interrupts every currently-queued caller with an InterruptedError
// wrapping reason, then attempts to acquire the write lock itself, waiting up to timeout
// for whoever currently holds a reference to release it.
func (rw *ReaderWriterLock) TryStealWriteTimeout(ctx context.Context, reason error, timeout time.Duration) (*WriteLock, error) {
	rw.k.cancelSuspendedCallers(reason)
	if _, err := rw.k.acquireAsync(ctx, timeout, modeWrite, true, rw.k.maybeCallerInfo()); err != nil {
		return nil, err
	}
	return &WriteLock{rw: rw}, nil
}

func (rw *ReaderWriterLock) releaseRead() error {
	return rw.k.releaseHeadOnly(func(s *rwState) error {
		if s.readers.Load() == 0 {
			return ErrSynchronizationFault
		}
		s.readers.Add(^uint64(0))
		return nil
	})
}

func (rw *ReaderWriterLock) releaseWrite() error {
	return rw.k.releaseHeadOnly(func(s *rwState) error {
		if !s.writer.Load() {
			return ErrSynchronizationFault
		}
		s.writer.Store(false)
		return nil
	})
}

func (rw *ReaderWriterLock) upgrade(ctx context.Context, timeout time.Duration) (*WriteLock, error) {
	// Releasing the caller's own read through a draining release (not a bare lockState
	// mutation) matters whenever a write is already queued ahead of this upgrade: dropping
	// readers to zero makes that writer admissible, and it must be signalled before the
	// upgrade node is pushed behind it, not stranded forever because the reader that would
	// have released it gave up its read without draining.
	_ = rw.k.releaseHeadOnly(func(s *rwState) error {
		s.readers.Add(^uint64(0))
		return nil
	})
	if _, err := rw.k.acquireAsync(ctx, timeout, modeUpgrade, true, rw.k.maybeCallerInfo()); err != nil {
		// The caller still holds their original read reference; restore the count
		// the failed upgrade attempt removed from it.
		rw.k.lockState(func(s *rwState) { s.readers.Add(1) })
		return nil, err
	}
	return &WriteLock{rw: rw}, nil
}

func (rw *ReaderWriterLock) downgrade() *ReadLock {
	_ = rw.k.releaseHeadOnly(func(s *rwState) error {
		s.writer.Store(false)
		s.readers.Store(1)
		return nil
	})
	return &ReadLock{rw: rw}
}

// Dispose forcibly completes every suspended caller with ErrDisposed. Idempotent.
func (rw *ReaderWriterLock) Dispose() { rw.k.disposeSync() }

// CancelSuspendedCallers interrupts every currently-queued caller with reason.
func (rw *ReaderWriterLock) CancelSuspendedCallers(reason error) { rw.k.cancelSuspendedCallers(reason) }

// Stats reports the number of callers currently suspended on this lock.
func (rw *ReaderWriterLock) Stats() Stats { return rw.k.stats() }
