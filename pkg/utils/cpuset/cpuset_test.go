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

package cpuset

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseCores(t *testing.T) {
	cores, err := ParseCores("8,0-3")
	require.NoError(t, err)
	require.Equal(t, []string{"0", "1", "2", "3", "8"}, cores)

	cores, err = ParseCores("")
	require.NoError(t, err)
	require.Empty(t, cores)

	_, err = ParseCores("x-y")
	require.Error(t, err)
}

func TestIsRange(t *testing.T) {
	for entry, expected := range map[string]bool{
		"0-3":   true,
		"12-15": true,
		"3":     false,
		"a-b":   false,
		"-1":    false,
		"1-2-3": false,
		"cpu-0": false,
	} {
		require.Equal(t, expected, IsRange(entry), entry)
	}
}
