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
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"

	"github.com/intel/numatrace/pkg/frames"
	"github.com/intel/numatrace/pkg/topology"
)

func dump(t *testing.T, g prometheus.Gatherer) string {
	var buf bytes.Buffer
	require.NoError(t, Dump(&buf, g))
	return buf.String()
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	c := NewIngest()
	init := func() (prometheus.Collector, error) { return c, nil }

	require.NoError(t, r.RegisterCollector("ingest", init))
	require.Error(t, r.RegisterCollector("ingest", init), "duplicate collector name")
	require.NoError(t, r.RegisterCollector("broken", func() (prometheus.Collector, error) {
		return nil, errors.New("no data source")
	}))

	g, err := r.NewMetricGatherer()
	require.NoError(t, err)
	out := dump(t, g)
	require.Contains(t, out, "numatrace_ingest_lines_total 0\n")
	require.Contains(t, out, `numatrace_ingest_streams_total{status="ok"} 0`)
}

func TestIngestCollect(t *testing.T) {
	c := NewIngest()
	now := time.Unix(100, 0)
	c.now = func() time.Time { return now }

	src := frames.Source{Thread: "1", Name: "trace_1.txt"}
	c.StreamDone(src, &frames.StreamStats{Thread: "1", Lines: 100, Ticks: 10, Accesses: 80,
		Discarded: 5, Malformed: 10, Elapsed: 2 * time.Second}, nil)
	c.StreamDone(src, &frames.StreamStats{Thread: "2", Lines: 300, Ticks: 20, Accesses: 270,
		Elapsed: time.Second}, nil)
	c.StreamDone(src, nil, errors.New("open failed"))

	ok, failed := c.Streams()
	require.Equal(t, int64(2), ok)
	require.Equal(t, int64(1), failed)
	require.Equal(t, int64(400), c.Totals().Lines)
	require.InDelta(t, 175.0, c.Throughput(), 0.001)

	r := NewRegistry()
	require.NoError(t, r.RegisterCollector("ingest", func() (prometheus.Collector, error) { return c, nil }))
	g, err := r.NewMetricGatherer()
	require.NoError(t, err)

	mfs, err := g.Gather()
	require.NoError(t, err)
	types := map[string]dto.MetricType{}
	for _, mf := range mfs {
		types[mf.GetName()] = mf.GetType()
	}
	require.Equal(t, dto.MetricType_COUNTER, types["numatrace_ingest_lines_total"])
	require.Equal(t, dto.MetricType_GAUGE, types["numatrace_ingest_lines_per_second"])

	out := dump(t, g)
	for _, line := range []string{
		`numatrace_ingest_streams_total{status="ok"} 2`,
		`numatrace_ingest_streams_total{status="failed"} 1`,
		"numatrace_ingest_lines_total 400",
		"numatrace_ingest_ticks_total 30",
		"numatrace_ingest_accesses_total 350",
		"numatrace_ingest_discarded_total 5",
		"numatrace_ingest_malformed_total 10",
		"numatrace_ingest_stream_seconds_total 3",
		"numatrace_ingest_lines_per_second 175",
		"# TYPE numatrace_ingest_lines_per_second gauge",
	} {
		require.Contains(t, out, line+"\n")
	}
}

func TestIngestObservesAggregator(t *testing.T) {
	topo, err := topology.Parse(strings.NewReader("0\t0\n"))
	require.NoError(t, err)

	source := func(thread, input string) frames.Source {
		return frames.Source{
			Thread: thread,
			Name:   "trace_" + thread,
			Open: func() (io.ReadCloser, error) {
				return io.NopCloser(strings.NewReader(input)), nil
			},
		}
	}

	c := NewIngest()
	a := &frames.Aggregator{Topology: topo, Workers: 2, Observer: c}
	_, stats, err := a.Run([]frames.Source{
		source("1", "0\t0\t0\np\t0\t1\t0\n"),
		source("2", "0\t0\t0\np\t-1\t1\t0\nbad\n"),
	})
	require.NoError(t, err)

	totals := c.Totals()
	require.Equal(t, stats.Lines, totals.Lines)
	require.Equal(t, int64(5), totals.Lines)
	require.Equal(t, int64(1), totals.Discarded)
	require.Equal(t, int64(1), totals.Malformed)
	ok, failed := c.Streams()
	require.Equal(t, int64(2), ok)
	require.Equal(t, int64(0), failed)
}
