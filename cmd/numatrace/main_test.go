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

package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/intel/numatrace/pkg/config"
	logger "github.com/intel/numatrace/pkg/log"
	"github.com/intel/numatrace/pkg/metrics"
)

const (
	testTopology = "0\t0\n1\t1\n"
	testTrace1   = "0\t0\t0\n" +
		"p1\t1\t2\t0\n" +
		"0\t2\t0\n" +
		"p2\t0\t0\t4\n"
	testTrace2 = "1\t0\t500\n" +
		"p1\t1\t1\t0\n" +
		"p3\t-1\t1\t1\n"
)

// setup creates a topology file and a trace directory.
func setup(t *testing.T) (string, string) {
	dir := t.TempDir()
	topo := filepath.Join(dir, "topology.cfg")
	traces := filepath.Join(dir, "traces")
	require.NoError(t, os.WriteFile(topo, []byte(testTopology), 0644))
	require.NoError(t, os.Mkdir(traces, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(traces, "trace_1.txt"), []byte(testTrace1), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(traces, "trace_2.txt"), []byte(testTrace2), 0644))
	return topo, traces
}

func runArgs(t *testing.T, args ...string) (string, string, error) {
	opts, err := parseOptions(args, io.Discard)
	require.NoError(t, err)
	var stdout, stderr bytes.Buffer
	err = run(opts, metrics.NewIngest(), &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func TestConfigFile(t *testing.T) {
	for _, tc := range []struct {
		args     []string
		expected string
	}{
		{args: []string{"-mode", "raw"}, expected: ""},
		{args: []string{"-config", "a.yaml"}, expected: "a.yaml"},
		{args: []string{"--config=b.yaml", "-mode", "raw"}, expected: "b.yaml"},
		{args: []string{"-mode", "raw", "--", "-config", "c.yaml"}, expected: ""},
	} {
		require.Equal(t, tc.expected, configFile(tc.args), "%v", tc.args)
	}
}

func TestRawMovie(t *testing.T) {
	topo, traces := setup(t)
	out, _, err := runArgs(t, "-topology", topo, "-input", traces)
	require.NoError(t, err)

	expected := "0\n" +
		"0 r 0\n0 w 0\n1 r 1\n1 w 0\n" +
		"0 0 r 0\n0 0 w 0\n0 1 r 2\n0 1 w 0\n" +
		"1 0 r 0\n1 0 w 0\n1 1 r 1\n1 1 w 0\n" +
		"2\n" +
		"0 r 0\n0 w 1\n1 r 0\n1 w 0\n" +
		"0 0 r 0\n0 0 w 4\n0 1 r 0\n0 1 w 0\n" +
		"1 0 r 0\n1 0 w 0\n1 1 r 0\n1 1 w 0\n"
	require.Equal(t, expected, out)
}

func TestMovieNodesFromTopology(t *testing.T) {
	topo, traces := setup(t)
	require.NoError(t, os.WriteFile(filepath.Join(traces, "trace_3.txt"),
		[]byte("0\t0\t0\np9\t7\t1\t0\n"), 0644))

	out, _, err := runArgs(t, "-topology", topo, "-input", traces)
	require.NoError(t, err)
	require.NotContains(t, out, "7 r")
	require.Contains(t, out, "0 1 r 2\n")

	out, _, err = runArgs(t, "-topology", topo, "-input", traces, "-mode", "interconnect")
	require.NoError(t, err)
	require.Contains(t, out, "0\t0\t7\t1\t0\n")
}

func TestMaxFrames(t *testing.T) {
	dir := t.TempDir()
	topo := filepath.Join(dir, "topology.cfg")
	require.NoError(t, os.WriteFile(topo, []byte(testTopology), 0644))
	input := filepath.Join(dir, "trace_1.txt")
	require.NoError(t, os.WriteFile(input, []byte("0\t100\t0\np\t0\t1\t0\n"), 0644))

	_, _, err := runArgs(t, "-topology", topo, "-input", input, "-mode", "smooth", "-smooth", "2",
		"-max-frames", "150")
	require.Error(t, err)
	require.Contains(t, err.Error(), "200 frames")

	out, _, err := runArgs(t, "-topology", topo, "-input", input, "-mode", "smooth", "-smooth", "2",
		"-max-frames", "0")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "0\n"))
	require.Contains(t, out, "\n199\n")
	require.NotContains(t, out, "\n200\n")
}

func TestPositionalArguments(t *testing.T) {
	topo, traces := setup(t)
	opts, err := parseOptions([]string{topo, traces, "1000000", "2"}, io.Discard)
	require.NoError(t, err)
	require.Equal(t, config.ModeSmooth, opts.Mode)
	require.Equal(t, 2, opts.Smooth)
	require.Equal(t, int64(1000000), opts.TimeStep.Microseconds())

	var stdout bytes.Buffer
	require.NoError(t, run(opts, metrics.NewIngest(), &stdout, io.Discard))
	frames := 0
	for _, line := range strings.Split(stdout.String(), "\n") {
		if len(strings.Fields(line)) == 1 {
			frames++
		}
	}
	require.Equal(t, 4, frames)
}

func TestReplayReport(t *testing.T) {
	topo, traces := setup(t)
	raw := filepath.Join(t.TempDir(), "raw.txt")

	_, _, err := runArgs(t, "-topology", topo, "-input", traces, "-output", raw)
	require.NoError(t, err)

	direct, _, err := runArgs(t, "-topology", topo, "-input", traces, "-mode", "smooth", "-smooth", "3")
	require.NoError(t, err)
	replayed, _, err := runArgs(t, "-from-report", raw, "-mode", "smooth", "-smooth", "3")
	require.NoError(t, err)
	require.Equal(t, direct, replayed)

	data, err := os.ReadFile(raw)
	require.NoError(t, err)
	copied, _, err := runArgs(t, "-from-report", raw)
	require.NoError(t, err)
	require.Equal(t, string(data), copied)
}

func TestConfigurationFile(t *testing.T) {
	topo, traces := setup(t)
	cfg := filepath.Join(t.TempDir(), "numatrace.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("topology: "+topo+"\n"+
		"inputs:\n  - "+traces+"\n"+
		"mode: summary\n"), 0644))

	out, _, err := runArgs(t, "-config", cfg)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "----BEGIN THREAD SUMMARY----\n"))

	// flags override the configuration file
	out, _, err = runArgs(t, "-config", cfg, "-mode", "interconnect")
	require.NoError(t, err)
	require.Equal(t, "frame\tsourceNode\tdestNode\treads\twrites\n"+
		"0\t0\t1\t2\t0\n"+
		"0\t1\t1\t1\t0\n"+
		"2\t0\t0\t0\t4\n", out)
}

func TestFormatsAndModes(t *testing.T) {
	topo, traces := setup(t)

	out, _, err := runArgs(t, "-topology", topo, "-input", traces, "-format", "yaml")
	require.NoError(t, err)
	require.Contains(t, out, "---\n")
	require.Contains(t, out, "frame: 2\n")

	out, _, err = runArgs(t, "-topology", topo, "-input", traces, "-format", "prometheus")
	require.NoError(t, err)
	require.Contains(t, out, `numatrace_frame_traffic{access="write",frame="2",memory="0",requester="0"} 4`)

	out, _, err = runArgs(t, "-topology", topo, "-input", traces, "-mode", "pages")
	require.NoError(t, err)
	require.Contains(t, out, "0\tp1\t3\t0\n")

	out, _, err = runArgs(t, "-topology", topo, "-input", traces, "-mode", "sharing")
	require.NoError(t, err)
	require.Contains(t, out, "0\t1\t0\t0\t1\t0\t0\n")
}

func TestStats(t *testing.T) {
	topo, traces := setup(t)
	_, stderr, err := runArgs(t, "-topology", topo, "-input", traces, "-stats")
	require.NoError(t, err)
	require.Contains(t, stderr, "numatrace_ingest_lines_total 7\n")
	require.Contains(t, stderr, "numatrace_ingest_discarded_total 1\n")
}

func TestFailureProducesNoOutput(t *testing.T) {
	topo, traces := setup(t)
	require.NoError(t, os.WriteFile(filepath.Join(traces, "trace_3.txt"),
		[]byte("7\t0\t0\np1\t0\t1\t0\n"), 0644))
	output := filepath.Join(t.TempDir(), "report.txt")

	out, _, err := runArgs(t, "-topology", topo, "-input", traces, "-output", output)
	require.Error(t, err)
	require.Contains(t, err.Error(), "trace_3.txt")
	require.Empty(t, out)
	_, err = os.Stat(output)
	require.True(t, os.IsNotExist(err))
}

func TestInvalidOptions(t *testing.T) {
	_, err := parseOptions([]string{"-mode", "movie"}, io.Discard)
	require.Error(t, err)
	_, err = parseOptions([]string{"-no-such-flag"}, io.Discard)
	require.Error(t, err)
}

func TestDebugToggleSignal(t *testing.T) {
	stop := handleSignals(metrics.NewIngest())
	defer stop()
	defer logger.ForceDebug(false)

	forced := logger.DebugForced()
	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGUSR1))
	require.Eventually(t, func() bool { return logger.DebugForced() != forced },
		time.Second, 10*time.Millisecond)

	// progress reports don't change the debug state
	require.NoError(t, syscall.Kill(os.Getpid(), syscall.SIGUSR2))
	time.Sleep(50 * time.Millisecond)
	require.NotEqual(t, forced, logger.DebugForced())
}
