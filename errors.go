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
	"errors"
	"fmt"
)

// Sentinel errors surfaced at the package boundary. Use errors.Is to test for any of
// these; InterruptedError additionally supports errors.As and errors.Unwrap.
var (
	// ErrArgument is returned for a negative timeout other than Infinite, a negative or
	// zero count where one isn't permitted, or any other malformed argument.
	ErrArgument = errors.New("qsync: invalid argument")

	// ErrTimeout is returned by a void-returning acquire when its timeout elapses before
	// the caller is signalled.
	ErrTimeout = errors.New("qsync: operation timed out")

	// ErrDisposed is returned for any operation attempted on a disposed primitive, and
	// delivered to every caller still suspended when disposal begins.
	ErrDisposed = errors.New("qsync: primitive has been disposed")

	// ErrSynchronizationFault is returned for a release without a matching acquisition,
	// a release whose weight would exceed capacity, and similar caller contract
	// violations.
	ErrSynchronizationFault = errors.New("qsync: synchronization fault")

	// ErrInvalidState is returned for operations that are well-formed but not valid in
	// the primitive's current state, e.g. adding count to an already-zero CountdownEvent.
	ErrInvalidState = errors.New("qsync: invalid state")

	// ErrReset is the reason wrapped by the InterruptedError delivered to waiters of a
	// CountdownEvent that is reset while callers are still suspended on it.
	ErrReset = errors.New("qsync: countdown event was reset")
)

// ErrCancelled is context.Canceled itself, exported so a caller can test with errors.Is
// for an acquire abandoned because its context was cancelled. An acquire whose context
// deadline passed returns context.DeadlineExceeded instead, which does not match
// ErrCancelled.
var ErrCancelled = context.Canceled

// InterruptedError reports that a suspended caller was terminated by something other
// than its own timeout or cancellation -- a countdown event reset, or a reader-writer
// lock write-steal -- along with the reason the interrupter supplied.
type InterruptedError struct {
	Reason error
}

func (e *InterruptedError) Error() string {
	if e.Reason == nil {
		return "qsync: suspended caller interrupted"
	}
	return fmt.Sprintf("qsync: suspended caller interrupted: %v", e.Reason)
}

func (e *InterruptedError) Unwrap() error { return e.Reason }

// NewInterrupted wraps reason (which may be nil) in an *InterruptedError.
func NewInterrupted(reason error) *InterruptedError {
	return &InterruptedError{Reason: reason}
}
