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

// Interconnect emits the per-frame traffic between requester (source)
// and memory (destination) nodes as 'frame sourceNode destNode reads writes'
// rows. Pairs without any traffic are omitted.
type Interconnect struct {
	Table *frames.Table
	Nodes []string
}

// Emit implements Emitter.
func (ic *Interconnect) Emit(w io.Writer) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "frame\tsourceNode\tdestNode\treads\twrites\n")
	for _, idx := range ic.Table.Indices() {
		f := ic.Table.Frame(idx)
		for _, src := range ic.Nodes {
			for _, dst := range ic.Nodes {
				pair := frames.NodePair{Requester: src, Memory: dst}
				reads, writes := f.Reads[pair], f.Writes[pair]
				if reads == 0 && writes == 0 {
					continue
				}
				fmt.Fprintf(bw, "%d\t%s\t%s\t%d\t%d\n", idx, src, dst, reads, writes)
			}
		}
	}

	return flush(bw)
}
