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
package frames

import (
	"sort"

	"github.com/intel/numatrace/pkg/topology"
)

// DefaultTimeStep is the default frame width in microseconds.
const DefaultTimeStep = 1000000

// Options control aggregation.
type Options struct {
	// TimeStep is the frame width in microseconds.
	TimeStep int64
	// TrackPages enables per-page access sums.
	TrackPages bool
	// TrackSharing enables per-page reader and writer thread tracking.
	TrackSharing bool
}

// ThreadTotals are the whole-run node pair sums of a single thread.
type ThreadTotals struct {
	Reads  map[NodePair]int64
	Writes map[NodePair]int64
}

// Table is a sparse set of frames keyed by frame index.
type Table struct {
	frames  map[int64]*Frame
	nodes   map[string]struct{}
	threads map[string]*ThreadTotals
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{
		frames:  make(map[int64]*Frame),
		nodes:   make(map[string]struct{}),
		threads: make(map[string]*ThreadTotals),
	}
}

// FrameIndex returns the index of the frame containing the given time.
// Negative times round towards negative infinity.
func FrameIndex(seconds, microseconds, timeStep int64) int64 {
	return floorDiv(seconds*1000000+microseconds, timeStep)
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// frame returns the frame with the given index, creating it if necessary.
func (t *Table) frame(idx int64) *Frame {
	f, ok := t.frames[idx]
	if !ok {
		f = NewFrame()
		t.frames[idx] = f
	}
	return f
}

// thread returns the totals of the given thread, creating them if necessary.
func (t *Table) thread(id string) *ThreadTotals {
	tt, ok := t.threads[id]
	if !ok {
		tt = &ThreadTotals{
			Reads:  make(map[NodePair]int64),
			Writes: make(map[NodePair]int64),
		}
		t.threads[id] = tt
	}
	return tt
}

// Merge folds o into t with set union and integer addition. The result
// does not depend on the order of merges.
func (t *Table) Merge(o *Table) {
	if o == nil {
		return
	}
	for idx, f := range o.frames {
		t.frame(idx).merge(f)
	}
	for node := range o.nodes {
		t.nodes[node] = struct{}{}
	}
	for id, ott := range o.threads {
		tt := t.thread(id)
		for pair, n := range ott.Reads {
			tt.Reads[pair] += n
		}
		for pair, n := range ott.Writes {
			tt.Writes[pair] += n
		}
	}
}

// Frame returns the frame with the given index, or nil if it does not exist.
func (t *Table) Frame(idx int64) *Frame {
	return t.frames[idx]
}

// Len returns the number of frames.
func (t *Table) Len() int {
	return len(t.frames)
}

// Indices returns the indices of all frames in ascending order.
func (t *Table) Indices() []int64 {
	indices := make([]int64, 0, len(t.frames))
	for idx := range t.frames {
		indices = append(indices, idx)
	}
	sort.Slice(indices, func(i, j int) bool { return indices[i] < indices[j] })
	return indices
}

// MaxIndex returns the largest frame index, or -1 for an empty table.
func (t *Table) MaxIndex() int64 {
	max := int64(-1)
	first := true
	for idx := range t.frames {
		if first || idx > max {
			max = idx
			first = false
		}
	}
	return max
}

// Nodes returns the nodes seen as requester or memory nodes.
func (t *Table) Nodes() []string {
	nodes := make([]string, 0, len(t.nodes))
	for node := range t.nodes {
		nodes = append(nodes, node)
	}
	topology.SortNodes(nodes)
	return nodes
}

// NodePages returns the distinct pages read and written per memory node
// over the whole run.
func (t *Table) NodePages() (reads, writes map[string]PageSet) {
	reads = make(map[string]PageSet)
	writes = make(map[string]PageSet)
	for _, f := range t.frames {
		for node, pages := range f.ReadPages {
			if _, ok := reads[node]; !ok {
				reads[node] = make(PageSet)
			}
			reads[node].Union(pages)
		}
		for node, pages := range f.WritePages {
			if _, ok := writes[node]; !ok {
				writes[node] = make(PageSet)
			}
			writes[node].Union(pages)
		}
	}
	return reads, writes
}

// Threads returns the ids of all processed threads, sorted.
func (t *Table) Threads() []string {
	ids := make([]string, 0, len(t.threads))
	for id := range t.threads {
		ids = append(ids, id)
	}
	topology.SortNodes(ids)
	return ids
}

// ThreadTotals returns the whole-run totals of the given thread, or nil.
func (t *Table) ThreadTotals(id string) *ThreadTotals {
	return t.threads[id]
}

// AllNodes returns the union of the topology nodes and the nodes seen.
func AllNodes(topo *topology.Table, t *Table) []string {
	seen := make(map[string]struct{})
	var nodes []string
	add := func(list []string) {
		for _, n := range list {
			if _, ok := seen[n]; !ok {
				seen[n] = struct{}{}
				nodes = append(nodes, n)
			}
		}
	}
	if topo != nil {
		add(topo.Nodes())
	}
	if t != nil {
		add(t.Nodes())
	}
	topology.SortNodes(nodes)
	return nodes
}

// UnknownNodes returns the nodes seen in t that are not in the topology.
func UnknownNodes(topo *topology.Table, t *Table) []string {
	known := make(map[string]struct{})
	for _, n := range topo.Nodes() {
		known[n] = struct{}{}
	}
	var unknown []string
	for _, n := range t.Nodes() {
		if _, ok := known[n]; !ok {
			unknown = append(unknown, n)
		}
	}
	return unknown
}
