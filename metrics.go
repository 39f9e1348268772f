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

// CounterSink records a monotonically increasing count, tagged by the caller (normally
// the primitive's type name under the "primitive" tag).
type CounterSink interface {
	Add(n float64, tags map[string]string)
}

// HistogramSink records a distribution of observed values, tagged by the caller.
type HistogramSink interface {
	Record(v float64, tags map[string]string)
}

// MetricsSink is the observability collaborator consulted by every primitive in this
// package: it exposes the two named counters described by the kernel -- the number of
// callers suspended (enqueued) and the duration, in milliseconds, a caller spent
// suspended before being consumed. A nil sink is never installed; WithMetrics(nil) is
// equivalent to omitting the option and keeps the built-in no-op sink.
type MetricsSink interface {
	SuspendedCallers() CounterSink
	LockDuration() HistogramSink
}

type noopCounter struct{}

func (noopCounter) Add(float64, map[string]string) {}

type noopHistogram struct{}

func (noopHistogram) Record(float64, map[string]string) {}

type noopMetrics struct{}

func (noopMetrics) SuspendedCallers() CounterSink { return noopCounter{} }
func (noopMetrics) LockDuration() HistogramSink   { return noopHistogram{} }

// defaultMetrics is installed on every primitive that isn't given an explicit
// WithMetrics option.
var defaultMetrics MetricsSink = noopMetrics{}
