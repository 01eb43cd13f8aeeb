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
package topology

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/intel/numatrace/pkg/log"
	"github.com/intel/numatrace/pkg/utils/cpuset"
)

// Table maps core ids to NUMA node ids. A Table is immutable once built
// and safe for concurrent lookups.
type Table struct {
	cores map[string]string
	nodes map[string]struct{}
}

// ConfigFormatError is returned for topology configuration lines that
// do not split into exactly two tab-separated fields.
type ConfigFormatError struct {
	Line int
	Text string
}

func (e *ConfigFormatError) Error() string {
	return fmt.Sprintf("topology: malformed configuration line %d: %q", e.Line, e.Text)
}

// UnknownCoreError is returned when looking up a core missing from the topology.
type UnknownCoreError struct {
	Core string
}

func (e *UnknownCoreError) Error() string {
	return fmt.Sprintf("topology: unknown core %q", e.Core)
}

var tlog = log.NewLogger("topology")

// New creates a Table from the given core to node mapping.
func New(mapping map[string]string) *Table {
	t := &Table{
		cores: make(map[string]string, len(mapping)),
		nodes: make(map[string]struct{}),
	}
	for core, node := range mapping {
		t.add(core, node)
	}
	return t
}

// Build creates a Table from configuration lines in the form
// 'node<TAB>core[,core...]'. Empty lines are ignored. If a core is
// listed more than once, the last line mentioning it wins.
func Build(lines []string) (*Table, error) {
	t := New(nil)

	for idx, line := range lines {
		line = strings.TrimRight(line, "\r\n")
		if strings.TrimSpace(line) == "" {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) != 2 {
			return nil, &ConfigFormatError{Line: idx + 1, Text: line}
		}

		node := fields[0]
		cores, err := expandCores(fields[1])
		if err != nil {
			return nil, &ConfigFormatError{Line: idx + 1, Text: line}
		}

		t.nodes[node] = struct{}{}
		for _, core := range cores {
			if prev, ok := t.cores[core]; ok && prev != node {
				tlog.Debug("core %s remapped from node %s to node %s (line %d)",
					core, prev, node, idx+1)
			}
			t.cores[core] = node
		}
	}

	tlog.Debug("built topology with %d nodes, %d cores", len(t.nodes), len(t.cores))

	return t, nil
}

// Parse reads configuration lines from r and builds a Table of them.
func Parse(r io.Reader) (*Table, error) {
	var lines []string

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "topology: failed to read configuration")
	}

	return Build(lines)
}

// expandCores splits a comma-separated core list. Numeric ranges like
// 0-3 are expanded, other entries are taken verbatim.
func expandCores(list string) ([]string, error) {
	var cores []string

	for _, entry := range strings.Split(list, ",") {
		if !cpuset.IsRange(entry) {
			cores = append(cores, entry)
			continue
		}
		expanded, err := cpuset.ParseCores(entry)
		if err != nil {
			return nil, err
		}
		cores = append(cores, expanded...)
	}

	return cores, nil
}

func (t *Table) add(core, node string) {
	t.cores[core] = node
	t.nodes[node] = struct{}{}
}

// Lookup returns the node of the given core.
func (t *Table) Lookup(core string) (string, error) {
	node, ok := t.cores[core]
	if !ok {
		return "", &UnknownCoreError{Core: core}
	}
	return node, nil
}

// Has checks if the given core is known.
func (t *Table) Has(core string) bool {
	_, ok := t.cores[core]
	return ok
}

// Nodes returns all node ids in SortNodes order.
func (t *Table) Nodes() []string {
	nodes := make([]string, 0, len(t.nodes))
	for node := range t.nodes {
		nodes = append(nodes, node)
	}
	SortNodes(nodes)
	return nodes
}

// Cores returns all core ids in SortNodes order.
func (t *Table) Cores() []string {
	cores := make([]string, 0, len(t.cores))
	for core := range t.cores {
		cores = append(cores, core)
	}
	SortNodes(cores)
	return cores
}

// CoresOf returns the cores of the given node in SortNodes order.
func (t *Table) CoresOf(node string) []string {
	var cores []string
	for core, n := range t.cores {
		if n == node {
			cores = append(cores, core)
		}
	}
	SortNodes(cores)
	return cores
}

// String returns the table in configuration file format.
func (t *Table) String() string {
	var b strings.Builder
	for _, node := range t.Nodes() {
		cores := t.CoresOf(node)
		if len(cores) == 0 {
			continue
		}
		b.WriteString(node + "\t" + strings.Join(cores, ",") + "\n")
	}
	return b.String()
}

// SortNodes sorts ids in place. Integer ids sort numerically and before
// any other ids, which sort lexically.
func SortNodes(ids []string) {
	sort.Slice(ids, func(i, j int) bool { return Less(ids[i], ids[j]) })
}

// Less compares two ids in SortNodes order.
func Less(a, b string) bool {
	ai, aerr := strconv.ParseInt(a, 10, 64)
	bi, berr := strconv.ParseInt(b, 10, 64)
	switch {
	case aerr == nil && berr == nil:
		if ai != bi {
			return ai < bi
		}
		return a < b
	case aerr == nil:
		return true
	case berr == nil:
		return false
	}
	return a < b
}
