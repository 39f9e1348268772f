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

// waitQueue is an intrusive, process-internal doubly-linked FIFO of waitNodes, rooted by
// head/tail. pushBack, remove and popFront are O(1), including removal of an arbitrary
// resident node; detachAll is linear in the queue's length.
// Every method assumes the owning primitive's mutex is already held.
type waitQueue[C any] struct {
	head, tail *waitNode[C]
	len        int
}

func (q *waitQueue[C]) pushBack(n *waitNode[C]) {
	n.prev, n.next = q.tail, nil
	if q.tail != nil {
		q.tail.next = n
	} else {
		q.head = n
	}
	q.tail = n
	n.queued = true
	q.len++
}

// remove detaches n if it is currently resident, returning whether it was. A non-resident
// node (never enqueued, or already detached by a previous drain/remove) is a no-op.
func (q *waitQueue[C]) remove(n *waitNode[C]) bool {
	if !n.queued {
		return false
	}
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		q.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		q.tail = n.prev
	}
	n.prev, n.next = nil, nil
	n.queued = false
	q.len--
	return true
}

func (q *waitQueue[C]) popFront() *waitNode[C] {
	n := q.head
	if n == nil {
		return nil
	}
	q.remove(n)
	return n
}

func (q *waitQueue[C]) front() *waitNode[C] { return q.head }

func (q *waitQueue[C]) empty() bool { return q.head == nil }

func (q *waitQueue[C]) length() int { return q.len }

// detachAll empties the queue in one pass, returning its former contents in FIFO order.
func (q *waitQueue[C]) detachAll() []*waitNode[C] {
	out := make([]*waitNode[C], 0, q.len)
	for n := q.head; n != nil; {
		next := n.next
		n.prev, n.next = nil, nil
		n.queued = false
		out = append(out, n)
		n = next
	}
	q.head, q.tail, q.len = nil, nil, 0
	return out
}
