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

// NoCtx is the zero-information caller context used by primitives whose admission
// predicate depends only on their own state -- ExclusiveLock, CountdownEvent, and
// ManualResetEvent all instantiate kernel[S, NoCtx].
type NoCtx = struct{}

// newContextKernel instantiates the generic synchronizer core for a primitive whose
// admission predicate genuinely depends on the caller, not just on state: kernel[S, C]
// already is the context-aware queued synchronizer, parameterized by whatever per-node
// value C the LockManager needs. ReaderWriterLock (C = lockMode) and AsyncSemaphore
// (C = requested weight) are the two primitives in this package that use it; everything
// else goes through newKernel with C = NoCtx instead. Keeping one generic engine, rather
// than a plain kernel plus a parallel "context" kernel, is this package's Go rendition of
// the observation that a context-free predicate is just a context-aware one with a
// context nobody looks at.
func newContextKernel[S any, C any](name string, manager LockManager[S, C], flavor drainFlavor, o options) *kernel[S, C] {
	return newKernel[S, C](name, manager, flavor, o)
}
