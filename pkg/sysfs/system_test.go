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
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// mkNode creates a fake sysfs node directory.
func mkNode(t *testing.T, root, name string, entries map[string]string) {
	dir := filepath.Join(root, sysfsNumaNodePath, name)
	require.NoError(t, os.MkdirAll(dir, 0755))
	for entry, content := range entries {
		require.NoError(t, os.WriteFile(filepath.Join(dir, entry), []byte(content), 0644))
	}
}

func TestDiscoverSystem(t *testing.T) {
	root := t.TempDir()
	mkNode(t, root, "node0", map[string]string{
		"cpulist":  "0-1,4\n",
		"distance": "10 21\n",
		"meminfo":  "Node 0 MemTotal:       16384 kB\nNode 0 MemFree:         1024 kB\n",
	})
	mkNode(t, root, "node1", map[string]string{
		"cpulist":  "2-3\n",
		"distance": "21 10\n",
	})
	// not a node
	require.NoError(t, os.MkdirAll(filepath.Join(root, sysfsNumaNodePath, "power"), 0755))

	sys, err := DiscoverSystem(root)
	require.NoError(t, err)
	require.Equal(t, []int{0, 1}, sys.NodeIDs())

	n0 := sys.Node(0)
	require.Equal(t, "0-1,4", n0.CPUSet().String())
	require.Equal(t, 21, n0.DistanceFrom(1))
	require.Equal(t, -1, n0.DistanceFrom(5))
	require.Equal(t, int64(16384*1024), n0.MemTotal())
	require.Equal(t, int64(0), sys.Node(1).MemTotal())

	topo := sys.Topology()
	require.Equal(t, []string{"0", "1"}, topo.Nodes())
	for core, node := range map[string]string{"0": "0", "1": "0", "4": "0", "2": "1", "3": "1"} {
		n, err := topo.Lookup(core)
		require.NoError(t, err)
		require.Equal(t, node, n)
	}
}

func TestDiscoverSystemErrors(t *testing.T) {
	_, err := DiscoverSystem(t.TempDir())
	require.Error(t, err, "no nodes")

	root := t.TempDir()
	mkNode(t, root, "node0", map[string]string{"distance": "10\n"})
	_, err = DiscoverSystem(root)
	require.Error(t, err, "missing cpulist")

	root = t.TempDir()
	mkNode(t, root, "node0", map[string]string{"cpulist": "zero\n"})
	_, err = DiscoverSystem(root)
	require.Error(t, err, "invalid cpulist")
}

func TestGetEnumeratedID(t *testing.T) {
	require.Equal(t, 12, getEnumeratedID("/sys/devices/system/node/node12"))
	require.Equal(t, -1, getEnumeratedID("/sys/devices/system/node/power"))
}
