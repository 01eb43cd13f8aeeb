// Copyright 2019-2022 Intel Corporation. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/intel/numatrace/pkg/frames"
	"github.com/intel/numatrace/pkg/metricsring"
)

// Prometheus Metric descriptor indices and descriptor table
const (
	streamsDesc = iota
	linesDesc
	ticksDesc
	accessesDesc
	discardedDesc
	malformedDesc
	streamSecondsDesc
	throughputDesc
	numDescriptors
)

var descriptors = [numDescriptors]*prometheus.Desc{
	streamsDesc: prometheus.NewDesc(
		"numatrace_ingest_streams_total",
		"Number of trace streams processed.",
		[]string{
			// ok or failed
			"status",
		}, nil,
	),
	linesDesc: prometheus.NewDesc(
		"numatrace_ingest_lines_total",
		"Number of trace lines read.",
		nil, nil,
	),
	ticksDesc: prometheus.NewDesc(
		"numatrace_ingest_ticks_total",
		"Number of thread tick records.",
		nil, nil,
	),
	accessesDesc: prometheus.NewDesc(
		"numatrace_ingest_accesses_total",
		"Number of page access records.",
		nil, nil,
	),
	discardedDesc: prometheus.NewDesc(
		"numatrace_ingest_discarded_total",
		"Number of page accesses discarded for an unresolved memory node.",
		nil, nil,
	),
	malformedDesc: prometheus.NewDesc(
		"numatrace_ingest_malformed_total",
		"Number of malformed trace lines skipped.",
		nil, nil,
	),
	streamSecondsDesc: prometheus.NewDesc(
		"numatrace_ingest_stream_seconds_total",
		"Total time spent processing trace streams.",
		nil, nil,
	),
	throughputDesc: prometheus.NewDesc(
		"numatrace_ingest_lines_per_second",
		"Moving average of per-stream processing throughput.",
		nil, nil,
	),
}

// DefaultThroughputSamples is the number of per-stream throughput samples kept.
const DefaultThroughputSamples = 32

// Ingest collects trace ingest statistics. It implements frames.Observer
// and prometheus.Collector.
type Ingest struct {
	sync.Mutex
	ok     int64
	failed int64
	totals frames.StreamStats
	rate   metricsring.SampleBuffer
	now    func() time.Time
}

// NewIngest creates a new ingest statistics collector.
func NewIngest() *Ingest {
	return &Ingest{
		rate: metricsring.NewMetricsRing(DefaultThroughputSamples),
		now:  time.Now,
	}
}

// StreamDone implements frames.Observer.
func (c *Ingest) StreamDone(src frames.Source, stats *frames.StreamStats, err error) {
	c.Lock()
	defer c.Unlock()

	if err != nil {
		c.failed++
		log.Debug("stream %s (thread %s) failed: %v", src.Name, src.Thread, err)
	} else {
		c.ok++
	}

	if stats == nil {
		return
	}
	c.totals.Add(stats)
	if stats.Elapsed > 0 {
		c.rate.Push(float64(stats.Lines)/stats.Elapsed.Seconds(), c.now())
	}

	log.Debug("stream %s (thread %s): %d lines, %d ticks, %d accesses in %s",
		src.Name, src.Thread, stats.Lines, stats.Ticks, stats.Accesses, stats.Elapsed)
}

// Totals returns the accumulated statistics of all streams.
func (c *Ingest) Totals() frames.StreamStats {
	c.Lock()
	defer c.Unlock()
	return c.totals
}

// Streams returns the number of succeeded and failed streams.
func (c *Ingest) Streams() (ok, failed int64) {
	c.Lock()
	defer c.Unlock()
	return c.ok, c.failed
}

// Throughput returns the per-stream throughput in lines per second. It
// is the moving average once enough streams are done, the plain mean
// of the latest samples before that.
func (c *Ingest) Throughput() float64 {
	c.Lock()
	defer c.Unlock()
	return c.throughput()
}

func (c *Ingest) throughput() float64 {
	if avg := c.rate.EWMA(); avg != 0 {
		return avg
	}
	samples := c.rate.LastN(c.rate.Len())
	if len(samples) == 0 {
		return 0
	}
	sum := 0.0
	for _, s := range samples {
		sum += s
	}
	return sum / float64(len(samples))
}

// Describe implements prometheus.Collector interface
func (c *Ingest) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range descriptors {
		ch <- d
	}
}

// Collect implements prometheus.Collector interface
func (c *Ingest) Collect(ch chan<- prometheus.Metric) {
	c.Lock()
	defer c.Unlock()

	counter := func(idx int, value float64, labels ...string) {
		ch <- prometheus.MustNewConstMetric(descriptors[idx], prometheus.CounterValue, value, labels...)
	}

	counter(streamsDesc, float64(c.ok), "ok")
	counter(streamsDesc, float64(c.failed), "failed")
	counter(linesDesc, float64(c.totals.Lines))
	counter(ticksDesc, float64(c.totals.Ticks))
	counter(accessesDesc, float64(c.totals.Accesses))
	counter(discardedDesc, float64(c.totals.Discarded))
	counter(malformedDesc, float64(c.totals.Malformed))
	counter(streamSecondsDesc, c.totals.Elapsed.Seconds())

	ch <- prometheus.MustNewConstMetric(descriptors[throughputDesc],
		prometheus.GaugeValue, c.throughput())
}

// Register registers the collector in the default registry.
func (c *Ingest) Register() error {
	return RegisterCollector("ingest", func() (prometheus.Collector, error) {
		return c, nil
	})
}
