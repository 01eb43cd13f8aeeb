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

package version

import (
	"bytes"
	"flag"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVersionFlag(t *testing.T) {
	Version, Build = "v0.1.0", "abcdef"
	code := -1
	exit = func(c int) { code = c }

	var out bytes.Buffer
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Var(version{out: &out}, "version", "")

	require.NoError(t, fs.Parse([]string{"-version=false"}))
	require.Equal(t, -1, code)
	require.Empty(t, out.String())

	require.NoError(t, fs.Parse([]string{"-version"}))
	require.Equal(t, 0, code)
	require.Contains(t, out.String(), "  - version: v0.1.0\n")
	require.Contains(t, out.String(), "  - build:   abcdef\n")

	require.Error(t, fs.Parse([]string{"-version=maybe"}))
}
