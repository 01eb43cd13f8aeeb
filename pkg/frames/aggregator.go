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
	"io"
	"runtime"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"

	"github.com/intel/numatrace/pkg/topology"
	"github.com/intel/numatrace/pkg/trace"
)

// Source is a single trace stream to aggregate.
type Source struct {
	// Thread is the thread id of the stream.
	Thread string
	// Name identifies the source in errors, usually the file path.
	Name string
	// Open opens the stream for reading.
	Open func() (io.ReadCloser, error)
}

// FileSource returns a Source for a trace file, deriving its thread id
// from the file name.
func FileSource(path string) Source {
	return Source{
		Thread: trace.ThreadFromFile(path),
		Name:   path,
		Open:   func() (io.ReadCloser, error) { return trace.Open(path) },
	}
}

// Observer gets notified about each completed stream.
type Observer interface {
	StreamDone(src Source, stats *StreamStats, err error)
}

// Aggregator aggregates multiple sources into a single Table. Sources
// are processed in parallel into private tables which are then merged
// by a single goroutine.
type Aggregator struct {
	Topology   *topology.Table
	Classifier trace.Classifier
	Options    Options
	// Workers is the number of parallel streams, GOMAXPROCS if unset.
	Workers int
	// Observer, if set, is notified of each completed stream.
	Observer Observer
}

type result struct {
	table *Table
	stats *StreamStats
	err   error
}

// Run aggregates all sources. If any source fails, Run returns all the
// errors encountered and no table.
func (a *Aggregator) Run(sources []Source) (*Table, *StreamStats, error) {
	workers := a.Workers
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(sources) {
		workers = len(sources)
	}

	results := make([]result, len(sources))
	work := make(chan int)
	wg := sync.WaitGroup{}

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range work {
				results[idx] = a.process(sources[idx])
			}
		}()
	}
	for idx := range sources {
		work <- idx
	}
	close(work)
	wg.Wait()

	var errs *multierror.Error
	total := &StreamStats{}
	for _, r := range results {
		if r.stats != nil {
			total.Add(r.stats)
		}
		if r.err != nil {
			errs = multierror.Append(errs, r.err)
		}
	}
	if err := errs.ErrorOrNil(); err != nil {
		return nil, total, err
	}

	table := NewTable()
	for _, r := range results {
		table.Merge(r.table)
	}

	log.Info("aggregated %d streams, %d lines into %d frames",
		len(sources), total.Lines, table.Len())

	return table, total, nil
}

func (a *Aggregator) process(src Source) result {
	r := result{}

	rc, err := src.Open()
	if err != nil {
		r.err = err
	} else {
		r.table, r.stats, r.err = ProcessStream(src.Thread, trace.NewReader(rc), a.Classifier, a.Topology, a.Options)
		if cerr := rc.Close(); cerr != nil && r.err == nil {
			r.err = errors.Wrapf(cerr, "frames: failed to close %s", src.Name)
		}
		r.err = errors.Wrapf(r.err, "%s", src.Name)
	}

	if a.Observer != nil {
		a.Observer.StreamDone(src, r.stats, r.err)
	}

	return r
}
