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
	"strings"

	"github.com/intel/numatrace/pkg/frames"
	"github.com/intel/numatrace/pkg/topology"
)

// Summary emits whole-run totals: the per-thread node pair traffic and
// the number of distinct pages read and written per memory node.
type Summary struct {
	Table *frames.Table
	Nodes []string
}

// Emit implements Emitter.
func (s *Summary) Emit(w io.Writer) error {
	bw := bufio.NewWriter(w)
	row := func(fields ...string) {
		fmt.Fprintln(bw, strings.Join(fields, "\t"))
	}

	row("----BEGIN THREAD SUMMARY----")
	row("thread", "threadNode", "dataNode", "rw", "value")
	for _, tid := range s.Table.Threads() {
		totals := s.Table.ThreadTotals(tid)
		for _, threadNode := range s.Nodes {
			for _, dataNode := range s.Nodes {
				pair := frames.NodePair{Requester: threadNode, Memory: dataNode}
				row(tid, threadNode, dataNode, "w", fmt.Sprint(totals.Writes[pair]))
				row(tid, threadNode, dataNode, "r", fmt.Sprint(totals.Reads[pair]))
			}
		}
	}
	row("----END THREAD SUMMARY----")
	row()

	reads, writes := s.Table.NodePages()
	row("----BEGIN NODE SIZE SUMMARY----")
	row("node", "rw", "pages")
	for _, node := range sortedKeys(writes) {
		row(node, "w", fmt.Sprint(len(writes[node])))
	}
	for _, node := range sortedKeys(reads) {
		row(node, "r", fmt.Sprint(len(reads[node])))
	}
	row("----END NODE SIZE SUMMARY----")

	return flush(bw)
}

// sortedKeys returns the keys of a node-keyed map in SortNodes order.
func sortedKeys(m map[string]frames.PageSet) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	topology.SortNodes(keys)
	return keys
}
