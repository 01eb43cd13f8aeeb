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
	"time"

	logger "github.com/intel/numatrace/pkg/log"
	"github.com/intel/numatrace/pkg/topology"
	"github.com/intel/numatrace/pkg/trace"
)

// UnattributedEventError is returned for a page access preceding any tick
// of its stream, which leaves it without a frame and a requester CPU.
type UnattributedEventError struct {
	Thread string
	Line   int
	Access trace.PageAccess
}

func (e *UnattributedEventError) Error() string {
	where := ""
	if e.Line > 0 {
		where = fmt.Sprintf(" at line %d", e.Line)
	}
	return fmt.Sprintf("frames: thread %s: page access%s before any timestamp: page %s, node %s",
		e.Thread, where, e.Access.Page, e.Access.Node)
}

// StreamStats are the ingest statistics of a single stream.
type StreamStats struct {
	Thread    string
	Lines     int64
	Ticks     int64
	Accesses  int64
	Discarded int64
	Malformed int64
	Elapsed   time.Duration
}

// Add accumulates o into s.
func (s *StreamStats) Add(o *StreamStats) {
	s.Lines += o.Lines
	s.Ticks += o.Ticks
	s.Accesses += o.Accesses
	s.Discarded += o.Discarded
	s.Malformed += o.Malformed
	s.Elapsed += o.Elapsed
}

type streamState int

const (
	noTickSeen streamState = iota
	tickSeen
)

// Stream aggregates the records of a single thread into a private Table.
type Stream struct {
	thread    string
	topo      *topology.Table
	opts      Options
	table     *Table
	state     streamState
	frame     int64
	cpu       string
	requester string
	line      int
	stats     StreamStats
}

var log = logger.NewLogger("frames")

// NewStream creates a Stream for the given thread. The thread is listed
// in the resulting Table even if none of its accesses gets counted.
func NewStream(thread string, topo *topology.Table, opts Options) *Stream {
	if opts.TimeStep <= 0 {
		opts.TimeStep = DefaultTimeStep
	}
	s := &Stream{
		thread: thread,
		topo:   topo,
		opts:   opts,
		table:  NewTable(),
		stats:  StreamStats{Thread: thread},
	}
	if thread != "" {
		s.table.thread(thread)
	}
	return s
}

// SetLine sets the input line number reported with errors.
func (s *Stream) SetLine(line int) {
	s.line = line
}

// Feed aggregates a single record.
func (s *Stream) Feed(rec trace.Record) error {
	switch r := rec.(type) {
	case trace.ThreadTick:
		s.stats.Ticks++
		s.state = tickSeen
		s.frame = FrameIndex(r.Seconds, r.Microseconds, s.opts.TimeStep)
		if r.CPU != s.cpu {
			s.cpu = r.CPU
			s.requester = ""
		}
		return nil

	case trace.PageAccess:
		return s.access(r)

	case trace.ThreadStart:
		if s.thread == "" {
			s.thread = r.Thread
			s.stats.Thread = r.Thread
			s.table.thread(r.Thread)
		}
		return nil
	}

	return fmt.Errorf("frames: unexpected record type %T", rec)
}

func (s *Stream) access(a trace.PageAccess) error {
	s.stats.Accesses++

	if a.Unresolved() {
		s.stats.Discarded++
		return nil
	}
	if s.state == noTickSeen {
		return &UnattributedEventError{Thread: s.thread, Line: s.line, Access: a}
	}
	if a.Reads <= 0 && a.Writes <= 0 {
		return nil
	}

	if s.requester == "" {
		node, err := s.topo.Lookup(s.cpu)
		if err != nil {
			return fmt.Errorf("frames: thread %s, line %d: %w", s.thread, s.line, err)
		}
		s.requester = node
	}

	pair := NodePair{Requester: s.requester, Memory: a.Node}
	f := s.table.frame(s.frame)
	tt := s.table.thread(s.thread)

	s.table.nodes[pair.Requester] = struct{}{}
	s.table.nodes[pair.Memory] = struct{}{}

	if a.Writes > 0 {
		f.addWrite(a.Page, pair, a.Writes)
		tt.Writes[pair] += a.Writes
	}
	if a.Reads > 0 {
		f.addRead(a.Page, pair, a.Reads)
		tt.Reads[pair] += a.Reads
	}
	if s.opts.TrackPages {
		f.addPage(a.Page, a.Reads, a.Writes)
	}
	if s.opts.TrackSharing {
		f.addSharing(a.Page, s.thread, a.Reads > 0, a.Writes > 0)
	}

	return nil
}

// Result returns the aggregated table of the stream.
func (s *Stream) Result() *Table {
	return s.table
}

// Stats returns the ingest statistics of the stream.
func (s *Stream) Stats() *StreamStats {
	stats := s.stats
	return &stats
}

// ProcessStream aggregates all records of r into a private Table.
// Malformed lines are skipped, any other error aborts processing.
func ProcessStream(thread string, r *trace.Reader, c trace.Classifier, topo *topology.Table, opts Options) (*Table, *StreamStats, error) {
	start := time.Now()
	s := NewStream(thread, topo, opts)
	skipped := logger.RateLimit(log, logger.Rate{Limit: logger.Every(time.Second), ByFormat: true})

	for r.Next() {
		s.stats.Lines++
		s.SetLine(r.Line())

		rec, err := c.Classify(r.Fields())
		if err != nil {
			err = trace.WithLine(err, r.Line())
			if _, ok := err.(*trace.MalformedRecordError); ok {
				s.stats.Malformed++
				skipped.Warn("thread %s: skipping %v", s.thread, err)
				continue
			}
			return nil, s.Stats(), fmt.Errorf("frames: thread %s: %w", s.thread, err)
		}

		if err := s.Feed(rec); err != nil {
			return nil, s.Stats(), err
		}
	}
	if err := r.Err(); err != nil {
		return nil, s.Stats(), err
	}

	s.stats.Elapsed = time.Since(start)
	log.Debug("thread %s: %d lines, %d ticks, %d accesses (%d discarded, %d malformed), %d frames",
		s.thread, s.stats.Lines, s.stats.Ticks, s.stats.Accesses, s.stats.Discarded,
		s.stats.Malformed, s.table.Len())

	return s.table, s.Stats(), nil
}
