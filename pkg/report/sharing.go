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
)

// SharingStats are the page sharing statistics of a single frame.
type SharingStats struct {
	Frame        int64
	PagesRead    int
	PagesWritten int
	PrivateRead  int
	SharedRead   int
	PrivateWrite int
	SharedWrite  int
}

// FrameSharing classifies the pages of a frame by the threads accessing
// them. A written page is private if a single thread accessed it, a page
// only read is private if a single thread read it.
func FrameSharing(idx int64, f *frames.Frame) SharingStats {
	s := SharingStats{Frame: idx}
	for _, pt := range f.Sharing {
		s.PagesRead++
		if len(pt.Writers) > 0 {
			s.PagesWritten++
			// writers are always among the readers
			if len(pt.Readers) == 1 {
				s.PrivateWrite++
			} else {
				s.SharedWrite++
			}
			continue
		}
		if len(pt.Readers) == 1 {
			s.PrivateRead++
		} else {
			s.SharedRead++
		}
	}
	return s
}

// Sharing emits per-frame page sharing statistics. It needs a table
// aggregated with sharing tracking enabled.
type Sharing struct {
	Table *frames.Table
}

// Emit implements Emitter.
func (s *Sharing) Emit(w io.Writer) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, "Time Frame\tPages Read\tPages Written\tPrivate Read Only\tShared Read Only\tPrivate Write\tShared Write")
	for _, idx := range s.Table.Indices() {
		st := FrameSharing(idx, s.Table.Frame(idx))
		fmt.Fprintf(bw, "%d\t%d\t%d\t%d\t%d\t%d\t%d\n", st.Frame, st.PagesRead, st.PagesWritten,
			st.PrivateRead, st.SharedRead, st.PrivateWrite, st.SharedWrite)
	}

	return flush(bw)
}
