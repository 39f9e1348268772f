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
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Infinite designates "wait forever, cancellation only" to every timeout-accepting
// entry point in this package.
const Infinite time.Duration = -1

// LockManager is the pluggable per-primitive strategy the kernel consults on every
// acquisition attempt and drain step: whether state currently admits ctx, how admitting
// it mutates state, and whether a synchronous TryAcquire must see an empty queue to
// preserve strict FIFO order.
type LockManager[S any, C any] interface {
	// IsLockAllowed reports whether ctx may be admitted given the current state.
	IsLockAllowed(state *S, ctx C) bool
	// AcquireLock mutates state to reflect ctx having been admitted. Only ever called
	// immediately after IsLockAllowed returned true for the same (state, ctx).
	AcquireLock(state *S, ctx C)
	// RequiresEmptyQueue reports whether TryAcquire must fail when the queue is
	// non-empty, even if IsLockAllowed would otherwise return true. true gives strict
	// FIFO (no queue-jumping); false is for primitives like CountdownEvent whose
	// broadcast release can satisfy a newcomer regardless of who else is waiting.
	RequiresEmptyQueue() bool
}

// NodeInitializer is implemented by a LockManager that needs to derive or normalize a
// node's context at enqueue time, beyond what the caller supplied directly. Checked via
// a type assertion, since Go interfaces have no optional methods.
type NodeInitializer[C any] interface {
	InitNode(ctx *C)
}

type drainFlavor int

const (
	// drainHeadOnly walks the queue from the front, signalling (and granting) every
	// admissible node in turn, and stops at the first node that is not.
	drainHeadOnly drainFlavor = iota
	// drainBroadcast detaches the whole queue and signals every node unconditionally.
	drainBroadcast
)

// kernel is the generic queued synchronizer core shared by every primitive in this
// package. S is the primitive's own state type; C is the per-caller context consulted by
// the LockManager -- struct{} (aliased as NoCtx) for primitives whose admission depends
// only on state, or a real value (a lock mode, a requested weight) for primitives whose
// admission depends on the caller too.
type kernel[S any, C any] struct {
	mu      sync.Mutex
	state   S
	queue   waitQueue[C]
	pool    nodePool[C]
	manager LockManager[S, C]
	flavor  drainFlavor

	disposed  bool
	disposing bool

	name       string
	log        zerolog.Logger
	metrics    MetricsSink
	callerInfo bool
}

func newKernel[S any, C any](name string, manager LockManager[S, C], flavor drainFlavor, o options) *kernel[S, C] {
	return &kernel[S, C]{
		pool:       *newNodePool[C](o.concurrencyHint),
		manager:    manager,
		flavor:     flavor,
		name:       name,
		log:        o.logger,
		metrics:    o.metrics,
		callerInfo: o.callerInfo,
	}
}

func (k *kernel[S, C]) maybeCallerInfo() *CallerInfo {
	if !k.callerInfo {
		return nil
	}
	return newCallerInfo(k.name)
}

// tryAcquireLocked attempts synchronous admission. Callers must hold mu.
func (k *kernel[S, C]) tryAcquireLocked(ctx C) bool {
	queueOK := !k.manager.RequiresEmptyQueue() || k.queue.empty()
	if queueOK && k.manager.IsLockAllowed(&k.state, ctx) {
		k.manager.AcquireLock(&k.state, ctx)
		return true
	}
	return false
}

// tryAcquire is the synchronous, non-queuing entry point (acquire shape 1).
func (k *kernel[S, C]) tryAcquire(ctx C) (bool, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.disposed || k.disposing {
		return false, ErrDisposed
	}
	return k.tryAcquireLocked(ctx), nil
}

// acquireAsync is the shared implementation of acquire shapes 2-4. throwOnTimeout
// selects between the bool-returning flavor (false, nil on timeout) and the
// void-returning flavor (ErrTimeout on timeout); timeout == Infinite selects shape 4
// (cancellation only, no timer).
func (k *kernel[S, C]) acquireAsync(parent context.Context, timeout time.Duration, ctx C, throwOnTimeout bool, info *CallerInfo) (bool, error) {
	if timeout < 0 && timeout != Infinite {
		return false, ErrArgument
	}
	select {
	case <-parent.Done():
		return false, parent.Err()
	default:
	}

	k.mu.Lock()
	if k.disposed || k.disposing {
		k.mu.Unlock()
		return false, ErrDisposed
	}
	if k.tryAcquireLocked(ctx) {
		k.mu.Unlock()
		return true, nil
	}
	if timeout == 0 {
		k.mu.Unlock()
		if throwOnTimeout {
			return false, ErrTimeout
		}
		return false, nil
	}

	n := k.pool.rent()
	n.ctx = ctx
	n.throwOnTimeout = throwOnTimeout
	n.createdAt = time.Now()
	n.callerInfo = info
	if init, ok := k.manager.(NodeInitializer[C]); ok {
		init.InitNode(&n.ctx)
	}
	k.queue.pushBack(n)
	k.metrics.SuspendedCallers().Add(1, map[string]string{"primitive": k.name})
	logSuspended(&k.log, k.name, k.queue.length())
	k.mu.Unlock()

	c := k.awaitNode(parent, timeout, n)

	k.metrics.LockDuration().Record(float64(time.Since(n.createdAt).Microseconds())/1000.0, map[string]string{"primitive": k.name})

	k.mu.Lock()
	k.pool.release(n)
	k.mu.Unlock()

	switch c.kind {
	case resultAcquired:
		logSignalled(&k.log, k.name)
		return true, nil
	case resultTimeout:
		logTimedOut(&k.log, k.name)
		if throwOnTimeout {
			return false, ErrTimeout
		}
		return false, nil
	case resultCancelled:
		logCancelled(&k.log, k.name, c.err)
		return false, c.err
	case resultDisposed:
		return false, ErrDisposed
	default:
		return false, c.err
	}
}

// awaitNode blocks until n is signalled, times out, or parent is cancelled, returning
// the winning completion.
func (k *kernel[S, C]) awaitNode(parent context.Context, timeout time.Duration, n *waitNode[C]) completion {
	var timerC <-chan time.Time
	if timeout != Infinite {
		t := time.NewTimer(timeout)
		defer t.Stop()
		timerC = t.C
	}
	select {
	case c := <-n.ch:
		return c
	case <-timerC:
		return k.resolveSelfCompleted(n, completion{kind: resultTimeout})
	case <-parent.Done():
		return k.resolveSelfCompleted(n, completion{kind: resultCancelled, err: parent.Err()})
	}
}

// resolveSelfCompleted tries to claim the race for a node whose own timeout or
// cancellation fired. If a concurrent drain already signalled the node first, that
// result wins instead -- the spec's "never both" guarantee for a timeout race.
func (k *kernel[S, C]) resolveSelfCompleted(n *waitNode[C], self completion) completion {
	if n.complete(self) {
		k.mu.Lock()
		k.queue.remove(n)
		k.mu.Unlock()
		return self
	}
	return <-n.ch
}

// drainHeadOnlyLocked walks the queue from the head, signalling and granting every node
// whose predicate currently holds, stopping at the first that doesn't. A manager whose
// AcquireLock makes the very next predicate check fail (an exclusive lock, a writer) thus
// drains exactly one node; a manager whose predicate keeps holding for a run of like
// requests (a reader-writer lock's readers, a semaphore with enough remaining permits)
// drains a run. Callers must hold mu.
func (k *kernel[S, C]) drainHeadOnlyLocked() {
	for {
		n := k.queue.front()
		if n == nil {
			return
		}
		if !k.manager.IsLockAllowed(&k.state, n.ctx) {
			return
		}
		k.queue.remove(n)
		if !n.complete(completion{kind: resultAcquired}) {
			// n was already completed by its own timeout/cancellation watcher; its
			// slot was never granted, so state must not be mutated on its behalf.
			continue
		}
		k.manager.AcquireLock(&k.state, n.ctx)
	}
}

// drainBroadcastWithLocked detaches the entire queue and signals every node with result,
// regardless of individual predicates. Callers must hold mu.
func (k *kernel[S, C]) drainBroadcastWithLocked(result completion) {
	for _, n := range k.queue.detachAll() {
		n.complete(result)
	}
}

// releaseHeadOnly runs mutate under the primitive's mutex and, if it succeeds, follows
// with a head-only drain. Used by every head-only-drain primitive's Release.
func (k *kernel[S, C]) releaseHeadOnly(mutate func(*S) error) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if err := mutate(&k.state); err != nil {
		return err
	}
	k.drainHeadOnlyLocked()
	return nil
}

// lockState runs fn under the primitive's mutex without draining afterwards.
func (k *kernel[S, C]) lockState(fn func(*S)) {
	k.mu.Lock()
	fn(&k.state)
	k.mu.Unlock()
}

// disposeSync forcibly completes every queued node with ErrDisposed and marks the
// primitive permanently unusable. Idempotent.
func (k *kernel[S, C]) disposeSync() {
	k.mu.Lock()
	if k.disposed {
		k.mu.Unlock()
		return
	}
	k.disposed = true
	k.drainBroadcastWithLocked(completion{kind: resultDisposed, err: ErrDisposed})
	k.mu.Unlock()
	logDisposed(&k.log, k.name)
}

// disposeGraceful stops admitting new acquisitions immediately, then waits until isReady
// reports the primitive quiescent (and the queue empty) before disposing for real.
func (k *kernel[S, C]) disposeGraceful(ctx context.Context, isReady func(*S) bool, pollInterval time.Duration) error {
	k.mu.Lock()
	if k.disposed {
		k.mu.Unlock()
		return nil
	}
	k.disposing = true
	k.mu.Unlock()

	t := time.NewTicker(pollInterval)
	defer t.Stop()
	for {
		k.mu.Lock()
		ready := k.queue.empty() && isReady(&k.state)
		k.mu.Unlock()
		if ready {
			k.disposeSync()
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
}

// cancelSuspendedCallers terminates every queued node with an InterruptedError wrapping
// reason. A no-op on an already-empty queue.
func (k *kernel[S, C]) cancelSuspendedCallers(reason error) {
	k.mu.Lock()
	if k.queue.empty() {
		k.mu.Unlock()
		return
	}
	k.drainBroadcastWithLocked(completion{kind: resultInterrupted, err: NewInterrupted(reason)})
	k.mu.Unlock()
}

// Stats is a point-in-time observability snapshot; CallerInfo is only populated when the
// primitive was constructed with WithCallerInfo.
type Stats struct {
	Suspended  int
	CallerInfo []*CallerInfo
}

func (k *kernel[S, C]) stats() Stats {
	k.mu.Lock()
	defer k.mu.Unlock()
	s := Stats{Suspended: k.queue.length()}
	if k.callerInfo {
		for n := k.queue.front(); n != nil; n = n.next {
			if n.callerInfo != nil {
				s.CallerInfo = append(s.CallerInfo, n.callerInfo)
			}
		}
	}
	return s
}
