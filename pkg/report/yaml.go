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
	"io"

	"sigs.k8s.io/yaml"

	"github.com/intel/numatrace/pkg/frames"
)

// YAML emits movie frames as a stream of YAML documents.
type YAML struct {
	Frames frames.Cursor
	Nodes  []string
}

// FrameDoc is the YAML document of a single frame.
type FrameDoc struct {
	Frame   int64         `json:"frame"`
	Nodes   []NodePages   `json:"nodes"`
	Traffic []PairTraffic `json:"traffic"`
}

// NodePages are the distinct pages accessed on a node.
type NodePages struct {
	Node       string `json:"node"`
	ReadPages  int64  `json:"readPages"`
	WritePages int64  `json:"writePages"`
}

// PairTraffic is the traffic from a requester node to a memory node.
type PairTraffic struct {
	Requester string `json:"requester"`
	Memory    string `json:"memory"`
	Reads     int64  `json:"reads"`
	Writes    int64  `json:"writes"`
}

// NewFrameDoc converts a frame to its YAML document.
func NewFrameDoc(f *frames.Interpolated, nodes []string) *FrameDoc {
	doc := &FrameDoc{
		Frame:   f.Index,
		Nodes:   make([]NodePages, 0, len(nodes)),
		Traffic: make([]PairTraffic, 0, len(nodes)*len(nodes)),
	}
	for _, n := range nodes {
		doc.Nodes = append(doc.Nodes, NodePages{
			Node:       n,
			ReadPages:  f.ReadPages[n],
			WritePages: f.WritePages[n],
		})
	}
	for _, req := range nodes {
		for _, mem := range nodes {
			pair := frames.NodePair{Requester: req, Memory: mem}
			doc.Traffic = append(doc.Traffic, PairTraffic{
				Requester: req,
				Memory:    mem,
				Reads:     f.Reads[pair],
				Writes:    f.Writes[pair],
			})
		}
	}
	return doc
}

// Emit implements Emitter.
func (y *YAML) Emit(w io.Writer) error {
	bw := bufio.NewWriter(w)

	for y.Frames.Next() {
		data, err := yaml.Marshal(NewFrameDoc(y.Frames.Frame(), y.Nodes))
		if err != nil {
			return reportError("failed to marshal frame: %v", err)
		}
		bw.WriteString("---\n")
		bw.Write(data)
	}

	return flush(bw)
}
