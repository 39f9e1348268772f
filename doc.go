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

// Package qsync implements a small family of FIFO-queued asynchronous
// synchronization primitives -- an exclusive lock, a reader-writer lock with
// an optimistic read stamp, a countdown event, a shared/counting semaphore,
// and a manual-reset event -- all built on top of one generic queued
// synchronizer kernel.
//
// ## Overview
//
// Every primitive in this package is, underneath, the same small machine: a
// mutex-guarded piece of state, an intrusive FIFO of suspended callers, and a
// pluggable LockManager describing when the state admits a new holder and how
// admission mutates it. A caller either acquires synchronously (the state
// already admits it and nobody is ahead of it in the queue), or it is handed a
// wait-node and suspends until a release's drain signals it, its context is
// cancelled, or its timeout elapses.
//
// Two drain strategies cover every primitive here. A *head-only* drain walks
// the queue from the front, signalling (and, for lock-like primitives,
// immediately granting) every node whose admission predicate still holds,
// stopping at the first node that is not yet admissible -- this is what gives
// ExclusiveLock, ReaderWriterLock, AsyncSemaphore their FIFO-with-no-queue-
// jumping behaviour. A *broadcast* drain instead detaches the whole queue at
// once and signals every node unconditionally -- this is how CountdownEvent
// and ManualResetEvent notify every waiter the moment their condition
// changes, and how a reset or a write-steal interrupts everyone currently
// queued.
//
// Because Go channel sends never run their receiver's continuation inline,
// signalling a node from inside the primitive's mutex cannot re-enter the
// primitive or invert lock ordering -- the property that would otherwise
// require deferring every wake-up until after the mutex is released.
//
// A node that loses the race between being signalled by a drain and timing
// out or being cancelled on its own goroutine is dropped by whichever side
// arrives second; a node is returned to its primitive's pool by whichever
// goroutine observes its terminal result, exactly once.
package qsync
