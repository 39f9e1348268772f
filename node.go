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
	"sync/atomic"
	"time"
)

type resultKind uint8

const (
	resultAcquired resultKind = iota
	resultTimeout
	resultCancelled
	resultDisposed
	resultInterrupted
)

// completion is the terminal value delivered through a waitNode's channel.
type completion struct {
	kind resultKind
	err  error
}

// waitNode is one suspended caller: a single-producer-single-consumer completion slot,
// intrusive doubly-linked pointers into the owning primitive's waitQueue, and whatever
// per-caller context C the primitive's LockManager needs to decide admissibility.
//
// A node is, at any instant, in exactly one of three places: resident in a waitQueue,
// owned by a caller's future pending first read, or sitting in a nodePool's free list.
// prev/next are mutated only while the owning primitive's mutex is held; ch may
// transition independently of that mutex, from whichever goroutine wins the race to
// complete it (a release's drain, or the node's own timeout/cancellation watcher).
type waitNode[C any] struct {
	prev, next *waitNode[C]
	queued     bool

	ch chan completion

	createdAt      time.Time
	throwOnTimeout bool
	callerInfo     *CallerInfo

	ctx C

	// completed is the sentinel named in the specification's data model as
	// completion_data: whichever of a drain or this node's own timeout/cancellation
	// watcher wins the CompareAndSwap is the one that actually owns delivering a result,
	// so ch never needs more than one writer and a losing caller simply reads the winner's
	// value back out of it.
	completed atomic.Bool
}

func newWaitNode[C any]() *waitNode[C] {
	return &waitNode[C]{ch: make(chan completion, 1)}
}

// reset clears a node for reuse by the pool. Must only be called on a node that is no
// longer resident in any queue and whose completion has already been observed.
func (n *waitNode[C]) reset() {
	n.prev, n.next = nil, nil
	n.queued = false
	n.createdAt = time.Time{}
	n.throwOnTimeout = false
	n.callerInfo = nil
	var zero C
	n.ctx = zero
	n.completed.Store(false)
	select {
	case <-n.ch:
	default:
	}
}

// complete attempts to deliver c as this node's terminal value. It is idempotent: only
// the first caller, across however many goroutines race to complete the same node,
// observes a true return and actually sends on ch -- the CompareAndSwap on completed is
// the sole arbiter of that race, so the send below is guaranteed to be the channel's only
// write and never blocks against its capacity-1 buffer.
func (n *waitNode[C]) complete(c completion) bool {
	if !n.completed.CompareAndSwap(false, true) {
		return false
	}
	n.ch <- c
	return true
}
