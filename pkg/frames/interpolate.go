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
	"fmt"
)

// Interpolated is a frame reduced to per-node page counts and per node
// pair sums. It is produced both for real and synthetic frames.
type Interpolated struct {
	Index      int64
	ReadPages  map[string]int64
	WritePages map[string]int64
	Reads      map[NodePair]int64
	Writes     map[NodePair]int64
}

// NewInterpolated creates an empty Interpolated frame with the given index.
func NewInterpolated(index int64) *Interpolated {
	return &Interpolated{
		Index:      index,
		ReadPages:  make(map[string]int64),
		WritePages: make(map[string]int64),
		Reads:      make(map[NodePair]int64),
		Writes:     make(map[NodePair]int64),
	}
}

// Snapshot reduces a real frame to an Interpolated one over the given
// nodes. A nil frame reads as all zeros.
func Snapshot(f *Frame, index int64, nodes []string) *Interpolated {
	if f == nil {
		f = &Frame{}
	}
	s := NewInterpolated(index)
	for _, n := range nodes {
		s.ReadPages[n] = f.ReadCount(n)
		s.WritePages[n] = f.WriteCount(n)
	}
	for _, req := range nodes {
		for _, mem := range nodes {
			pair := NodePair{Requester: req, Memory: mem}
			s.Reads[pair] = f.Reads[pair]
			s.Writes[pair] = f.Writes[pair]
		}
	}
	return s
}

// Cursor walks a sequence of frames.
type Cursor interface {
	// Next advances to the next frame, returning false at the end.
	Next() bool
	// Frame returns the current frame.
	Frame() *Interpolated
}

// Interpolator lazily produces smooth-1 synthetic frames between each
// pair of adjacent real frames. It walks the pairs (i, i+1) for every
// i in [0, MaxIndex), reading missing frames as zeros. The synthetic
// frame k of pair i has index i*smooth+k and every metric interpolated
// as (a*(smooth-k) + b*k) / smooth. The last real frame is never
// emitted on its own.
type Interpolator struct {
	table  frameSource
	nodes  []string
	smooth int64
	last   int64
	i, k   int64
	a, b   *Interpolated
	cur    *Interpolated
}

// frameSource is a sparse sequence of frames to interpolate.
type frameSource interface {
	MaxIndex() int64
	reduce(idx int64, nodes []string) *Interpolated
}

// Interpolate creates an Interpolator over the given nodes of a Table.
func Interpolate(t *Table, nodes []string, smooth int) (*Interpolator, error) {
	return newInterpolator(t, nodes, smooth)
}

// InterpolateSnapshots creates an Interpolator over reduced frames.
func InterpolateSnapshots(s *Snapshots, nodes []string, smooth int) (*Interpolator, error) {
	return newInterpolator(s, nodes, smooth)
}

func newInterpolator(t frameSource, nodes []string, smooth int) (*Interpolator, error) {
	if smooth < 1 {
		return nil, fmt.Errorf("frames: invalid smoothing factor %d", smooth)
	}
	return &Interpolator{
		table:  t,
		nodes:  nodes,
		smooth: int64(smooth),
		last:   t.MaxIndex(),
		i:      0,
		k:      -1,
	}, nil
}

// Next advances to the next synthetic frame.
func (it *Interpolator) Next() bool {
	it.k++
	if it.k == it.smooth {
		it.k = 0
		it.i++
	}
	if it.i >= it.last {
		it.cur = nil
		return false
	}

	if it.k == 0 || it.a == nil {
		if it.b != nil && it.b.Index == it.i {
			it.a = it.b
		} else {
			it.a = it.table.reduce(it.i, it.nodes)
		}
		it.b = it.table.reduce(it.i+1, it.nodes)
	}

	it.cur = it.blend()
	return true
}

// Frame returns the current synthetic frame.
func (it *Interpolator) Frame() *Interpolated {
	return it.cur
}

// Len returns the total number of synthetic frames.
func (it *Interpolator) Len() int64 {
	if it.last <= 0 {
		return 0
	}
	return it.last * it.smooth
}

func (it *Interpolator) blend() *Interpolated {
	s, k := it.smooth, it.k
	mix := func(a, b int64) int64 {
		return floorDiv(a*(s-k)+b*k, s)
	}

	f := NewInterpolated(it.i*s + k)
	for _, n := range it.nodes {
		f.ReadPages[n] = mix(it.a.ReadPages[n], it.b.ReadPages[n])
		f.WritePages[n] = mix(it.a.WritePages[n], it.b.WritePages[n])
	}
	for pair, a := range it.a.Reads {
		f.Reads[pair] = mix(a, it.b.Reads[pair])
	}
	for pair, a := range it.a.Writes {
		f.Writes[pair] = mix(a, it.b.Writes[pair])
	}
	return f
}

// rawCursor walks the real frames of a table.
type rawCursor struct {
	table   *Table
	nodes   []string
	indices []int64
	pos     int
	cur     *Interpolated
}

// Raw creates a cursor over the real frames of t in ascending index order.
func Raw(t *Table, nodes []string) Cursor {
	return &rawCursor{table: t, nodes: nodes, indices: t.Indices(), pos: -1}
}

func (c *rawCursor) Next() bool {
	c.pos++
	if c.pos >= len(c.indices) {
		c.cur = nil
		return false
	}
	idx := c.indices[c.pos]
	c.cur = Snapshot(c.table.Frame(idx), idx, c.nodes)
	return true
}

func (c *rawCursor) Frame() *Interpolated {
	return c.cur
}

// Slice returns a cursor over already reduced frames.
func Slice(frames []*Interpolated) Cursor {
	return &sliceCursor{frames: frames, pos: -1}
}

type sliceCursor struct {
	frames []*Interpolated
	pos    int
}

func (c *sliceCursor) Next() bool {
	c.pos++
	return c.pos < len(c.frames)
}

func (c *sliceCursor) Frame() *Interpolated {
	if c.pos < 0 || c.pos >= len(c.frames) {
		return nil
	}
	return c.frames[c.pos]
}

// Collect drains a cursor into a slice.
func Collect(c Cursor) []*Interpolated {
	var frames []*Interpolated
	for c.Next() {
		frames = append(frames, c.Frame())
	}
	return frames
}

// Snapshots is a sparse set of reduced frames keyed by index, for
// instance frames read back from a raw movie report.
type Snapshots struct {
	frames map[int64]*Interpolated
	max    int64
}

// NewSnapshots collects reduced frames into Snapshots.
func NewSnapshots(frames []*Interpolated) *Snapshots {
	s := &Snapshots{frames: make(map[int64]*Interpolated), max: -1}
	for _, f := range frames {
		s.frames[f.Index] = f
		if f.Index > s.max {
			s.max = f.Index
		}
	}
	return s
}

// MaxIndex returns the largest frame index, or -1 if there are no frames.
func (s *Snapshots) MaxIndex() int64 {
	return s.max
}

func (s *Snapshots) reduce(idx int64, nodes []string) *Interpolated {
	f, ok := s.frames[idx]
	r := NewInterpolated(idx)
	for _, n := range nodes {
		if ok {
			r.ReadPages[n] = f.ReadPages[n]
			r.WritePages[n] = f.WritePages[n]
		} else {
			r.ReadPages[n] = 0
			r.WritePages[n] = 0
		}
	}
	for _, req := range nodes {
		for _, mem := range nodes {
			pair := NodePair{Requester: req, Memory: mem}
			if ok {
				r.Reads[pair] = f.Reads[pair]
				r.Writes[pair] = f.Writes[pair]
			} else {
				r.Reads[pair] = 0
				r.Writes[pair] = 0
			}
		}
	}
	return r
}

func (t *Table) reduce(idx int64, nodes []string) *Interpolated {
	return Snapshot(t.Frame(idx), idx, nodes)
}
