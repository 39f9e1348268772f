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

package qsync

import (
	"context"
	"time"
)

type exclusiveState struct {
	acquired bool
}

type exclusiveManager struct{}

func (exclusiveManager) IsLockAllowed(s *exclusiveState, _ NoCtx) bool { return !s.acquired }
func (exclusiveManager) AcquireLock(s *exclusiveState, _ NoCtx)       { s.acquired = true }
func (exclusiveManager) RequiresEmptyQueue() bool                    { return true }

// ExclusiveLock is a FIFO-queued mutual-exclusion lock: at most one caller holds it at
// any instant, and a caller that enqueues is guaranteed to be considered by the very next
// release's drain.
type ExclusiveLock struct {
	k *kernel[exclusiveState, NoCtx]
}

// NewExclusiveLock returns an unacquired ExclusiveLock.
func NewExclusiveLock(opts ...Option) *ExclusiveLock {
	o := newOptions(opts)
	return &ExclusiveLock{k: newKernel[exclusiveState, NoCtx]("ExclusiveLock", exclusiveManager{}, drainHeadOnly, o)}
}

// TryAcquire acquires the lock without queuing or waiting, succeeding only if it is
// currently free and nobody else is already queued ahead of this call.
func (l *ExclusiveLock) TryAcquire() bool {
	ok, _ := l.k.tryAcquire(NoCtx{})
	return ok
}

// TryAcquireTimeout waits up to timeout for the lock, returning false (not an error) on
// timeout.
func (l *ExclusiveLock) TryAcquireTimeout(ctx context.Context, timeout time.Duration) (bool, error) {
	return l.k.acquireAsync(ctx, timeout, NoCtx{}, false, l.k.maybeCallerInfo())
}

// AcquireTimeout waits up to timeout for the lock, returning ErrTimeout on timeout.
func (l *ExclusiveLock) AcquireTimeout(ctx context.Context, timeout time.Duration) error {
	_, err := l.k.acquireAsync(ctx, timeout, NoCtx{}, true, l.k.maybeCallerInfo())
	return err
}

// Acquire waits indefinitely for the lock; it can only fail via ctx cancellation.
func (l *ExclusiveLock) Acquire(ctx context.Context) error {
	_, err := l.k.acquireAsync(ctx, Infinite, NoCtx{}, true, l.k.maybeCallerInfo())
	return err
}

// Release releases the lock, handing it to the next queued caller (if any) whose own
// acquire is then what completes. Returns ErrSynchronizationFault if the lock was not
// held.
func (l *ExclusiveLock) Release() error {
	return l.k.releaseHeadOnly(func(s *exclusiveState) error {
		if !s.acquired {
			return ErrSynchronizationFault
		}
		s.acquired = false
		return nil
	})
}

// Dispose forcibly completes every suspended caller with ErrDisposed. Idempotent.
func (l *ExclusiveLock) Dispose() { l.k.disposeSync() }

// DisposeContext waits until the lock is free and the queue is empty before disposing.
func (l *ExclusiveLock) DisposeContext(ctx context.Context) error {
	return l.k.disposeGraceful(ctx, func(s *exclusiveState) bool { return !s.acquired }, 5*time.Millisecond)
}

// CancelSuspendedCallers interrupts every currently-queued caller with reason, without
// affecting whoever currently holds the lock.
func (l *ExclusiveLock) CancelSuspendedCallers(reason error) { l.k.cancelSuspendedCallers(reason) }

// Stats reports the number of callers currently suspended on this lock.
func (l *ExclusiveLock) Stats() Stats { return l.k.stats() }
