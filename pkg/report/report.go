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
	"bufio"
	"fmt"
	"io"

	"github.com/intel/numatrace/pkg/frames"
	logger "github.com/intel/numatrace/pkg/log"
)

// Emitter writes a report.
type Emitter interface {
	Emit(w io.Writer) error
}

var log = logger.NewLogger("report")

// Movie emits frames in the movie data layout: the frame index on a line
// of its own, then '<node> r|w <distinct pages>' for every node, then
// '<requester> <memory> r|w <sum>' for every ordered node pair.
type Movie struct {
	Frames frames.Cursor
	Nodes  []string
}

// Emit implements Emitter.
func (m *Movie) Emit(w io.Writer) error {
	bw := bufio.NewWriter(w)
	count := 0

	for m.Frames.Next() {
		f := m.Frames.Frame()
		fmt.Fprintln(bw, f.Index)
		for _, n := range m.Nodes {
			fmt.Fprintln(bw, n, "r", f.ReadPages[n])
			fmt.Fprintln(bw, n, "w", f.WritePages[n])
		}
		for _, req := range m.Nodes {
			for _, mem := range m.Nodes {
				pair := frames.NodePair{Requester: req, Memory: mem}
				fmt.Fprintln(bw, req, mem, "r", f.Reads[pair])
				fmt.Fprintln(bw, req, mem, "w", f.Writes[pair])
			}
		}
		count++
	}

	log.Debug("emitted %d movie frames for %d nodes", count, len(m.Nodes))

	return flush(bw)
}

func flush(bw *bufio.Writer) error {
	if err := bw.Flush(); err != nil {
		return reportError("failed to write report: %v", err)
	}
	return nil
}

// reportError returns a formatted report-specific error.
func reportError(format string, args ...interface{}) error {
	return fmt.Errorf("report: "+format, args...)
}
