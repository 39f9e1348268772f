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

// nodePool is a per-primitive, bounded-or-unbounded free list of waitNodes, eliminating
// allocation on the acquire/release hot path. It has no locking of its own: every method
// assumes the owning primitive's mutex is already held, which is also what makes it safe
// to call from the same critical section that runs a drain.
type nodePool[C any] struct {
	free     []*waitNode[C]
	capacity int // 0 means unbounded
}

func newNodePool[C any](capacity int) *nodePool[C] {
	return &nodePool[C]{capacity: capacity}
}

// rent returns a ready-to-use node, drawn from the free list if one is available or
// freshly allocated otherwise.
func (p *nodePool[C]) rent() *waitNode[C] {
	if n := len(p.free); n > 0 {
		node := p.free[n-1]
		p.free[n-1] = nil
		p.free = p.free[:n-1]
		return node
	}
	return newWaitNode[C]()
}

// release returns a node to the free list once its caller has observed its terminal
// completion. A node is only ever released exactly once -- by the goroutine that suspended
// on it, after it has read the final result, whichever side produced that result.
func (p *nodePool[C]) release(n *waitNode[C]) {
	n.reset()
	if p.capacity > 0 && len(p.free) >= p.capacity {
		return
	}
	p.free = append(p.free, n)
}
