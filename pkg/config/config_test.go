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
package config_test

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/intel/numatrace/pkg/config"
	logger "github.com/intel/numatrace/pkg/log"
	"github.com/intel/numatrace/pkg/testutils"
)

func TestParseDuration(t *testing.T) {
	type testCase struct {
		name     string
		value    string
		expected int64
		invalid  bool
	}

	for _, tc := range []testCase{
		{name: "plain microseconds", value: "1000", expected: 1000},
		{name: "go duration", value: "250ms", expected: 250000},
		{name: "seconds", value: "2s", expected: 2000000},
		{name: "garbage", value: "soon", invalid: true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			d, err := config.ParseDuration(tc.value)
			if tc.invalid {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.expected, d.Microseconds())
		})
	}
}

func TestDurationJSON(t *testing.T) {
	var d config.Duration

	require.NoError(t, d.UnmarshalJSON([]byte("500")))
	require.Equal(t, int64(500), d.Microseconds())

	require.NoError(t, d.UnmarshalJSON([]byte(`"1.5s"`)))
	require.Equal(t, config.Duration(1500*time.Millisecond), d)

	data, err := d.MarshalJSON()
	require.NoError(t, err)
	require.Equal(t, `"1.5s"`, string(data))

	require.Error(t, d.UnmarshalJSON([]byte("{}")))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "numatrace.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
topology: /etc/numatrace/topology.cfg
inputs:
  - /tmp/traces
timeStep: 100ms
smooth: 4
mode: smooth
logger:
  level: warning
  debug: on:frames
`), 0644))

	o, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, "/etc/numatrace/topology.cfg", o.Topology)
	require.Equal(t, []string{"/tmp/traces"}, o.Inputs)
	require.Equal(t, int64(100000), o.TimeStep.Microseconds())
	require.Equal(t, 4, o.Smooth)
	require.Equal(t, config.ModeSmooth, o.Mode)
	require.Equal(t, config.FormatText, o.Format)
	require.NotNil(t, o.Logger)
	require.Equal(t, logger.LevelWarn, o.Logger.Level)
	require.NoError(t, o.Validate())

	_, err = config.Load(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("bogus: 1\n"), 0644))
	_, err = config.Load(path)
	require.Error(t, err, "unknown fields are rejected")
}

func TestFlagsOverrideFile(t *testing.T) {
	o := config.Defaults()
	require.NoError(t, o.Parse([]byte("topology: from-file\nsmooth: 2\n")))

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	o.RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{
		"-smooth", "8",
		"-time-step", "20",
		"-input", "a", "-input", "b",
	}))

	require.Equal(t, "from-file", o.Topology)
	require.Equal(t, 8, o.Smooth)
	require.Equal(t, int64(20), o.TimeStep.Microseconds())
	require.Equal(t, []string{"a", "b"}, o.Inputs)
}

func TestApplyArgs(t *testing.T) {
	o := config.Defaults()
	require.NoError(t, o.ApplyArgs([]string{"topo.cfg", "traces", "1000", "5"}))
	require.Equal(t, "topo.cfg", o.Topology)
	require.Equal(t, []string{"traces"}, o.Inputs)
	require.Equal(t, int64(1000), o.TimeStep.Microseconds())
	require.Equal(t, 5, o.Smooth)
	require.Equal(t, config.ModeSmooth, o.Mode)
	require.NoError(t, o.Validate())

	o = config.Defaults()
	require.NoError(t, o.ApplyArgs([]string{"topo.cfg", "traces"}))
	require.Equal(t, config.ModeRaw, o.Mode)

	for _, args := range [][]string{
		{"topo.cfg"},
		{"a", "b", "c", "d", "e"},
		{"a", "b", "1ms"},
		{"a", "b", "10", "x"},
	} {
		require.Error(t, config.Defaults().ApplyArgs(args), "%v", args)
	}
}

func TestValidate(t *testing.T) {
	o := config.Defaults()
	o.TimeStep = 0
	o.Smooth = 0
	o.Mode = "movie"
	o.Format = "csv"

	// no topology, no inputs, time step, smooth, mode, format
	testutils.VerifyError(t, o.Validate(), 6, []string{"movie", "csv"})

	o = config.Defaults()
	o.FromReport = "movie.txt"
	require.NoError(t, o.Validate())
	o.Mode = config.ModeSmooth
	require.NoError(t, o.Validate())
	o.MaxFrames = -1
	testutils.VerifyError(t, o.Validate(), 1, []string{"frame limit"})
	o.MaxFrames = 0
	o.Mode = config.ModeSummary
	testutils.VerifyError(t, o.Validate(), 1, []string{"can't be used with a movie report"})
}
