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

// Package qmetrics adapts qsync's abstract CounterSink/HistogramSink/MetricsSink
// interfaces onto github.com/prometheus/client_golang, living in its own subpackage so
// that importing qsync never drags in a prometheus dependency for callers who pass
// WithLogger and nothing else.
package qmetrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dijkstracula/go-qsync"
)

// Prometheus is a qsync.MetricsSink backed by a counter and a histogram registered
// against a single prometheus.Registerer, both labeled by "primitive".
type Prometheus struct {
	suspended *prometheus.CounterVec
	duration  *prometheus.HistogramVec
}

// NewPrometheus registers qsync's two metrics against reg and returns the adapter. reg
// may be prometheus.DefaultRegisterer.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	p := &Prometheus{
		suspended: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "qsync_suspended_callers_total",
			Help: "Total number of callers that have suspended waiting on a qsync primitive.",
		}, []string{"primitive"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "qsync_lock_duration_milliseconds",
			Help:    "Time a caller spent suspended before being admitted, timed out, or cancelled.",
			Buckets: prometheus.DefBuckets,
		}, []string{"primitive"}),
	}
	reg.MustRegister(p.suspended, p.duration)
	return p
}

// SuspendedCallers satisfies qsync.MetricsSink.
func (p *Prometheus) SuspendedCallers() qsync.CounterSink { return counterAdapter{p.suspended} }

// LockDuration satisfies qsync.MetricsSink.
func (p *Prometheus) LockDuration() qsync.HistogramSink { return histogramAdapter{p.duration} }

type counterAdapter struct {
	vec *prometheus.CounterVec
}

func (c counterAdapter) Add(n float64, tags map[string]string) {
	c.vec.With(tags).Add(n)
}

type histogramAdapter struct {
	vec *prometheus.HistogramVec
}

func (h histogramAdapter) Record(v float64, tags map[string]string) {
	h.vec.With(tags).Observe(v)
}
