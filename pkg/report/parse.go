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
	"strings"

	"github.com/intel/numatrace/pkg/frames"
	"github.com/intel/numatrace/pkg/topology"
	"github.com/intel/numatrace/pkg/trace"
)

// ParseMovie reads back frames from a movie report. It also returns
// the nodes of the report in SortNodes order.
func ParseMovie(r io.Reader) ([]*frames.Interpolated, []string, error) {
	var (
		result []*frames.Interpolated
		cur    *frames.Interpolated
		nodes  = map[string]struct{}{}
	)

	reader := trace.NewReader(r)
	for reader.Next() {
		line := reader.Line()
		fields := splitFields(reader.Fields())

		if len(fields) == 1 {
			idx, err := strconv.ParseInt(fields[0], 10, 64)
			if err != nil {
				return nil, nil, reportError("line %d: invalid frame index %q", line, fields[0])
			}
			cur = frames.NewInterpolated(idx)
			result = append(result, cur)
			continue
		}
		if len(fields) == 0 {
			continue
		}
		if cur == nil {
			return nil, nil, reportError("line %d: data before first frame index", line)
		}

		value, err := strconv.ParseInt(fields[len(fields)-1], 10, 64)
		if err != nil {
			return nil, nil, reportError("line %d: invalid value %q", line, fields[len(fields)-1])
		}
		access := fields[len(fields)-2]

		switch len(fields) {
		case 3:
			node := fields[0]
			nodes[node] = struct{}{}
			switch access {
			case "r":
				cur.ReadPages[node] = value
			case "w":
				cur.WritePages[node] = value
			default:
				return nil, nil, reportError("line %d: invalid access type %q", line, access)
			}
		case 4:
			pair := frames.NodePair{Requester: fields[0], Memory: fields[1]}
			nodes[pair.Requester] = struct{}{}
			nodes[pair.Memory] = struct{}{}
			switch access {
			case "r":
				cur.Reads[pair] = value
			case "w":
				cur.Writes[pair] = value
			default:
				return nil, nil, reportError("line %d: invalid access type %q", line, access)
			}
		default:
			return nil, nil, reportError("line %d: unexpected number of fields %d", line, len(fields))
		}
	}
	if err := reader.Err(); err != nil {
		return nil, nil, err
	}

	ids := make([]string, 0, len(nodes))
	for n := range nodes {
		ids = append(ids, n)
	}
	topology.SortNodes(ids)

	return result, ids, nil
}

// splitFields splits tab-separated fields further at spaces.
func splitFields(tabbed []string) []string {
	var fields []string
	for _, t := range tabbed {
		fields = append(fields, strings.Fields(t)...)
	}
	return fields
}
