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
	"sync/atomic"
	"time"
)

type countdownState struct {
	current atomic.Int64
	initial int64
}

// countdownManager's admission predicate never depends on the caller, and its queue is
// satisfied by a single broadcast rather than a FIFO walk, so AcquireLock has nothing to
// do: reaching zero is entirely driven by Signal calling drainBroadcastWithLocked, not by
// a waiter's own admission.
type countdownManager struct{}

func (countdownManager) RequiresEmptyQueue() bool                 { return false }
func (countdownManager) IsLockAllowed(s *countdownState, _ NoCtx) bool { return s.current.Load() == 0 }
func (countdownManager) AcquireLock(*countdownState, NoCtx)           {}

// CountdownEvent lets any number of callers wait for a count, initialized at construction
// and decremented by Signal, to reach zero; every waiter present at that instant is
// released together by a single broadcast.
type CountdownEvent struct {
	k *kernel[countdownState, NoCtx]
}

// NewCountdownEvent returns a CountdownEvent starting at initial, which must be >= 0.
func NewCountdownEvent(initial int64, opts ...Option) *CountdownEvent {
	if initial < 0 {
		initial = 0
	}
	o := newOptions(opts)
	k := newKernel[countdownState, NoCtx]("CountdownEvent", countdownManager{}, drainBroadcast, o)
	k.state.current.Store(initial)
	k.state.initial = initial
	return &CountdownEvent{k: k}
}

// Current reports the count remaining.
func (c *CountdownEvent) Current() int64 { return c.k.state.current.Load() }

// Signal decrements the count by n (default 1 semantics belong to the caller), reports
// whether this call was the one to bring it to zero, and releases every waiter if so.
func (c *CountdownEvent) Signal(n int64) (bool, error) {
	if n <= 0 {
		return false, ErrArgument
	}
	c.k.mu.Lock()
	defer c.k.mu.Unlock()
	cur := c.k.state.current.Load()
	if cur < n {
		return false, ErrSynchronizationFault
	}
	remaining := cur - n
	c.k.state.current.Store(remaining)
	if remaining != 0 {
		return false, nil
	}
	c.k.drainBroadcastWithLocked(completion{kind: resultAcquired})
	return true, nil
}

// TryAddCount increments the count by n, succeeding only if the count has not already
// reached zero (a CountdownEvent that has fired cannot be reused by adding to it).
func (c *CountdownEvent) TryAddCount(n int64) bool {
	if n <= 0 {
		return false
	}
	c.k.mu.Lock()
	defer c.k.mu.Unlock()
	if c.k.state.current.Load() == 0 {
		return false
	}
	c.k.state.current.Add(n)
	return true
}

// AddCount is TryAddCount, returning ErrInvalidState instead of false.
func (c *CountdownEvent) AddCount(n int64) error {
	if !c.TryAddCount(n) {
		return ErrInvalidState
	}
	return nil
}

// Reset restores the count to its originally constructed value and interrupts every
// caller currently waiting with ErrReset.
func (c *CountdownEvent) Reset() { c.ResetTo(c.k.state.initial) }

// ResetTo restores the count to count and interrupts every caller currently waiting with
// ErrReset.
func (c *CountdownEvent) ResetTo(count int64) {
	if count < 0 {
		count = 0
	}
	c.k.mu.Lock()
	c.k.state.current.Store(count)
	c.k.drainBroadcastWithLocked(completion{kind: resultInterrupted, err: NewInterrupted(ErrReset)})
	c.k.mu.Unlock()
}

// WaitTimeout waits up to timeout for the count to reach zero.
func (c *CountdownEvent) WaitTimeout(ctx context.Context, timeout time.Duration) error {
	_, err := c.k.acquireAsync(ctx, timeout, NoCtx{}, true, c.k.maybeCallerInfo())
	return err
}

// Wait waits indefinitely for the count to reach zero; it can only fail via ctx
// cancellation.
func (c *CountdownEvent) Wait(ctx context.Context) error {
	return c.WaitTimeout(ctx, Infinite)
}

// SignalAndWaitTimeout signals once and then waits up to timeout for the count to reach
// zero. The wait is an ordinary WaitTimeout: when this call's own Signal brought the count
// to zero, the wait finds it already zero and returns at once without enqueuing; otherwise
// the caller is enqueued until a later Signal drives the count to zero.
func (c *CountdownEvent) SignalAndWaitTimeout(ctx context.Context, timeout time.Duration) error {
	if _, err := c.Signal(1); err != nil {
		return err
	}
	return c.WaitTimeout(ctx, timeout)
}

// SignalAndWait is SignalAndWaitTimeout with no timeout.
func (c *CountdownEvent) SignalAndWait(ctx context.Context) error {
	return c.SignalAndWaitTimeout(ctx, Infinite)
}

// Dispose forcibly completes every suspended caller with ErrDisposed. Idempotent.
func (c *CountdownEvent) Dispose() { c.k.disposeSync() }

// CancelSuspendedCallers interrupts every currently-queued caller with reason.
func (c *CountdownEvent) CancelSuspendedCallers(reason error) { c.k.cancelSuspendedCallers(reason) }

// Stats reports the number of callers currently waiting on this event.
func (c *CountdownEvent) Stats() Stats { return c.k.stats() }
