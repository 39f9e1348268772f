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

import "github.com/rs/zerolog"

// defaultConcurrencyHint sizes a fresh primitive's node pool when the caller doesn't
// supply one explicitly.
const defaultConcurrencyHint = 32

type options struct {
	concurrencyHint int
	logger          zerolog.Logger
	metrics         MetricsSink
	callerInfo      bool
}

// Option configures a primitive at construction time.
type Option func(*options)

// WithConcurrencyHint sizes the primitive's node pool to the expected number of
// concurrently-suspended callers. Values below 1 are treated as 1.
func WithConcurrencyHint(n int) Option {
	return func(o *options) {
		if n < 1 {
			n = 1
		}
		o.concurrencyHint = n
	}
}

// WithLogger installs a structured logger for diagnostic tracing of suspensions,
// signals, timeouts, cancellations and disposal. Omitting this option leaves the
// primitive silent (zerolog.Nop()).
func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithMetrics installs a MetricsSink backing the suspended-callers counter and the
// lock-duration histogram described by the kernel's observability contract.
func WithMetrics(m MetricsSink) Option {
	return func(o *options) {
		if m != nil {
			o.metrics = m
		}
	}
}

// WithCallerInfo enables per-suspended-caller debug tagging, consulted by Stats.
func WithCallerInfo() Option {
	return func(o *options) { o.callerInfo = true }
}

func newOptions(opts []Option) options {
	o := options{
		concurrencyHint: defaultConcurrencyHint,
		logger:          zerolog.Nop(),
		metrics:         defaultMetrics,
	}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}
