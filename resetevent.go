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

// ManualResetEvent, like AsyncSemaphore, supplements the distilled spec this package
// implements: it is CountdownEvent's degenerate case (a single boolean gate instead of a
// decrementing count) and shares its broadcast-release machinery, so the kernel this
// package is built around gets a second broadcast-flavor consumer rather than carrying
// drainBroadcast for CountdownEvent alone.
package qsync

import (
	"context"
	"time"
)

type resetEventState struct {
	signalled bool
}

type resetEventManager struct{}

func (resetEventManager) RequiresEmptyQueue() bool                    { return false }
func (resetEventManager) IsLockAllowed(s *resetEventState, _ NoCtx) bool { return s.signalled }
func (resetEventManager) AcquireLock(*resetEventState, NoCtx)           {}

// ManualResetEvent is a gate that, once Set, releases every waiter (present and future)
// until the next Reset.
type ManualResetEvent struct {
	k *kernel[resetEventState, NoCtx]
}

// NewManualResetEvent returns a ManualResetEvent in the given initial state.
func NewManualResetEvent(initiallySignalled bool, opts ...Option) *ManualResetEvent {
	o := newOptions(opts)
	k := newKernel[resetEventState, NoCtx]("ManualResetEvent", resetEventManager{}, drainBroadcast, o)
	k.state.signalled = initiallySignalled
	return &ManualResetEvent{k: k}
}

// IsSet reports whether the event is currently signalled.
func (e *ManualResetEvent) IsSet() bool {
	e.k.mu.Lock()
	defer e.k.mu.Unlock()
	return e.k.state.signalled
}

// Set signals the event, releasing every caller currently waiting and every caller that
// waits before the next Reset.
func (e *ManualResetEvent) Set() {
	e.k.mu.Lock()
	e.k.state.signalled = true
	e.k.drainBroadcastWithLocked(completion{kind: resultAcquired})
	e.k.mu.Unlock()
}

// Reset returns the event to the unsignalled state. Callers already released by a prior
// Set are unaffected; it only changes the outcome for waiters arriving afterward.
func (e *ManualResetEvent) Reset() {
	e.k.mu.Lock()
	e.k.state.signalled = false
	e.k.mu.Unlock()
}

// PulseAll momentarily signals the event, releasing everyone currently waiting, then
// immediately resets it -- callers arriving after PulseAll returns must wait for the next
// signal.
func (e *ManualResetEvent) PulseAll() {
	e.k.mu.Lock()
	e.k.drainBroadcastWithLocked(completion{kind: resultAcquired})
	e.k.state.signalled = false
	e.k.mu.Unlock()
}

// WaitTimeout waits up to timeout for the event to become signalled.
func (e *ManualResetEvent) WaitTimeout(ctx context.Context, timeout time.Duration) error {
	_, err := e.k.acquireAsync(ctx, timeout, NoCtx{}, true, e.k.maybeCallerInfo())
	return err
}

// Wait waits indefinitely for the event to become signalled; it can only fail via ctx
// cancellation.
func (e *ManualResetEvent) Wait(ctx context.Context) error {
	return e.WaitTimeout(ctx, Infinite)
}

// Dispose forcibly completes every suspended caller with ErrDisposed. Idempotent.
func (e *ManualResetEvent) Dispose() { e.k.disposeSync() }

// CancelSuspendedCallers interrupts every currently-queued caller with reason.
func (e *ManualResetEvent) CancelSuspendedCallers(reason error) { e.k.cancelSuspendedCallers(reason) }

// Stats reports the number of callers currently waiting on this event.
func (e *ManualResetEvent) Stats() Stats { return e.k.stats() }
