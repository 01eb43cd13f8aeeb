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

package report

import (
	"io"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/intel/numatrace/pkg/frames"
	"github.com/intel/numatrace/pkg/metrics"
)

// Prometheus Metric descriptor indices and descriptor table
const (
	framePagesDesc = iota
	frameTrafficDesc
	numDescriptors
)

var descriptors = [numDescriptors]*prometheus.Desc{
	framePagesDesc: prometheus.NewDesc(
		"numatrace_frame_pages",
		"Number of distinct pages accessed on a NUMA node during a frame.",
		[]string{
			"frame",
			// memory node
			"node",
			// read or write
			"access",
		}, nil,
	),
	frameTrafficDesc: prometheus.NewDesc(
		"numatrace_frame_traffic",
		"Accesses from a requester node to a memory node during a frame.",
		[]string{
			"frame",
			"requester",
			"memory",
			"access",
		}, nil,
	),
}

// frameCollector exposes frames as Prometheus metrics.
type frameCollector struct {
	frames []*frames.Interpolated
	nodes  []string
}

// Describe implements prometheus.Collector interface
func (c *frameCollector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range descriptors {
		ch <- d
	}
}

// Collect implements prometheus.Collector interface
func (c *frameCollector) Collect(ch chan<- prometheus.Metric) {
	for _, f := range c.frames {
		idx := strconv.FormatInt(f.Index, 10)
		for _, n := range c.nodes {
			ch <- prometheus.MustNewConstMetric(descriptors[framePagesDesc],
				prometheus.GaugeValue, float64(f.ReadPages[n]), idx, n, "read")
			ch <- prometheus.MustNewConstMetric(descriptors[framePagesDesc],
				prometheus.GaugeValue, float64(f.WritePages[n]), idx, n, "write")
		}
		for _, req := range c.nodes {
			for _, mem := range c.nodes {
				pair := frames.NodePair{Requester: req, Memory: mem}
				ch <- prometheus.MustNewConstMetric(descriptors[frameTrafficDesc],
					prometheus.GaugeValue, float64(f.Reads[pair]), idx, req, mem, "read")
				ch <- prometheus.MustNewConstMetric(descriptors[frameTrafficDesc],
					prometheus.GaugeValue, float64(f.Writes[pair]), idx, req, mem, "write")
			}
		}
	}
}

// Prometheus emits movie frames in the Prometheus text exposition format.
type Prometheus struct {
	Frames frames.Cursor
	Nodes  []string
}

// Emit implements Emitter.
func (p *Prometheus) Emit(w io.Writer) error {
	reg := prometheus.NewPedanticRegistry()
	if err := reg.Register(&frameCollector{frames: frames.Collect(p.Frames), nodes: p.Nodes}); err != nil {
		return reportError("failed to register frame collector: %v", err)
	}
	return metrics.Dump(w, reg)
}
