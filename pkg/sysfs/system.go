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
package sysfs

import (
	"path/filepath"
	"sort"
	"strconv"

	logger "github.com/intel/numatrace/pkg/log"
	"github.com/intel/numatrace/pkg/topology"
	"github.com/intel/numatrace/pkg/utils/cpuset"
)

const (
	// SysfsRootPath is the mount path of sysfs.
	SysfsRootPath = "/sys"
	// sysfs device/node subdirectory path
	sysfsNumaNodePath = "devices/system/node"
)

// System is the NUMA node layout of a machine as seen in sysfs.
type System struct {
	logger.Logger               // our logger instance
	path          string        // sysfs mount point
	nodes         map[int]*Node // NUMA nodes
}

// Node is a NUMA node.
type Node struct {
	path     string        // sysfs path
	id       int           // node id
	cpus     cpuset.CPUSet // cpus in this node
	distance []int         // distance/cost to other NUMA nodes
	memTotal int64         // total memory in bytes, 0 if unknown
}

// DiscoverSystem discovers the NUMA nodes under the given sysfs mount point.
func DiscoverSystem(root string) (*System, error) {
	if root == "" {
		root = SysfsRootPath
	}

	sys := &System{
		Logger: logger.NewLogger("sysfs"),
		path:   root,
		nodes:  make(map[int]*Node),
	}

	if err := sys.discoverNodes(); err != nil {
		return nil, err
	}

	return sys, nil
}

// Discover NUMA nodes present in the system.
func (sys *System) discoverNodes() error {
	dir := filepath.Join(sys.path, sysfsNumaNodePath)
	entries, _ := filepath.Glob(filepath.Join(dir, "node[0-9]*"))
	for _, entry := range entries {
		if err := sys.discoverNode(entry); err != nil {
			return err
		}
	}

	if len(sys.nodes) == 0 {
		return sysfsError(dir, "no NUMA nodes found")
	}

	return nil
}

// Discover details of the given NUMA node.
func (sys *System) discoverNode(path string) error {
	id := getEnumeratedID(path)
	if id < 0 {
		return sysfsError(path, "can't determine node id")
	}

	node := &Node{path: path, id: id}

	cpulist, err := readSysfsEntry(path, "cpulist")
	if err != nil {
		return err
	}
	if node.cpus, err = cpuset.Parse(cpulist); err != nil {
		return sysfsError(path, "invalid cpulist %q: %v", cpulist, err)
	}
	if distance, err := readSysfsEntry(path, "distance"); err == nil {
		if node.distance, err = parseIntList(distance); err != nil {
			return sysfsError(path, "invalid distance %q: %v", distance, err)
		}
	}
	if err := parseMeminfo(filepath.Join(path, "meminfo"), map[string]*int64{
		"MemTotal:": &node.memTotal,
	}); err != nil {
		sys.Warn("failed to read memory info of node #%d: %v", id, err)
	}

	sys.Debug("node #%d: cpus %s, %d bytes of memory", id, node.cpus.String(), node.memTotal)
	sys.nodes[id] = node

	return nil
}

// NodeIDs returns the ids of all nodes, sorted.
func (sys *System) NodeIDs() []int {
	ids := make([]int, 0, len(sys.nodes))
	for id := range sys.nodes {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Node returns the node with the given id.
func (sys *System) Node(id int) *Node {
	return sys.nodes[id]
}

// Topology returns a core to node topology table of the system.
func (sys *System) Topology() *topology.Table {
	mapping := make(map[string]string)
	for _, id := range sys.NodeIDs() {
		node := strconv.Itoa(id)
		for _, cpu := range cpuset.Strings(sys.nodes[id].cpus) {
			mapping[cpu] = node
		}
	}
	return topology.New(mapping)
}

// ID returns id of this node.
func (n *Node) ID() int {
	return n.id
}

// CPUSet returns the CPUSet for all cores/threads in this node.
func (n *Node) CPUSet() cpuset.CPUSet {
	return n.cpus
}

// Distance returns the distance vector for this node.
func (n *Node) Distance() []int {
	return n.distance
}

// DistanceFrom returns the distance of this and a given node.
func (n *Node) DistanceFrom(id int) int {
	if id >= 0 && id < len(n.distance) {
		return n.distance[id]
	}
	return -1
}

// MemTotal returns the total memory of this node in bytes, or 0 if unknown.
func (n *Node) MemTotal() int64 {
	return n.memTotal
}
