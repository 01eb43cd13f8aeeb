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
package trace

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifyPlain(t *testing.T) {
	type testCase struct {
		name      string
		fields    []string
		expected  Record
		malformed bool
		invalid   bool
	}

	for _, tc := range []testCase{
		{
			name:     "tick",
			fields:   []string{"0", "1", "500000"},
			expected: ThreadTick{CPU: "0", Seconds: 1, Microseconds: 500000},
		},
		{
			name:     "access",
			fields:   []string{"0x1000", "1", "3", "0"},
			expected: PageAccess{Page: "0x1000", Node: "1", Reads: 3, Writes: 0},
		},
		{
			name:     "unresolved access",
			fields:   []string{"0x1000", "-1", "3", "0"},
			expected: PageAccess{Page: "0x1000", Node: "-1", Reads: 3},
		},
		{
			name:     "node kept as written",
			fields:   []string{"P", "01", "1", "1"},
			expected: PageAccess{Page: "P", Node: "01", Reads: 1, Writes: 1},
		},
		{
			name:     "symbolic node",
			fields:   []string{"P", "A", "1", "0"},
			expected: PageAccess{Page: "P", Node: "A", Reads: 1},
		},
		{name: "empty line", fields: []string{""}, malformed: true},
		{name: "two fields", fields: []string{"a", "b"}, malformed: true},
		{name: "five fields", fields: []string{"a", "b", "c", "d", "e"}, malformed: true},
		{name: "bad seconds", fields: []string{"0", "x", "1"}, invalid: true},
		{name: "bad reads", fields: []string{"P", "0", "many", "1"}, invalid: true},
		{name: "empty node", fields: []string{"P", "", "1", "1"}, invalid: true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			rec, err := Classify(tc.fields)
			switch {
			case tc.malformed:
				var mre *MalformedRecordError
				require.True(t, errors.As(err, &mre), "expected malformed record, got %v", err)
			case tc.invalid:
				var pe *ParseError
				require.True(t, errors.As(err, &pe), "expected parse error, got %v", err)
			default:
				require.NoError(t, err)
				require.Equal(t, tc.expected, rec)
			}
		})
	}
}

func TestClassifyPadded(t *testing.T) {
	c := Classifier{Format: FormatPadded}

	rec, err := c.Classify([]string{"1234", "-1", "-1", "-1"})
	require.NoError(t, err)
	require.Equal(t, ThreadStart{Thread: "1234"}, rec)

	rec, err = c.Classify([]string{"3", "12", "7", "-1"})
	require.NoError(t, err)
	require.Equal(t, ThreadTick{CPU: "3", Seconds: 12, Microseconds: 7}, rec)

	rec, err = c.Classify([]string{"4096", "0", "2", "1"})
	require.NoError(t, err)
	require.Equal(t, PageAccess{Page: "4096", Node: "0", Reads: 2, Writes: 1}, rec)

	_, err = c.Classify([]string{"3", "12", "7"})
	var mre *MalformedRecordError
	require.True(t, errors.As(err, &mre))

	_, err = c.Classify([]string{"3", "12", "-1", "-1"})
	require.True(t, errors.As(err, &mre))
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("padded")
	require.NoError(t, err)
	require.Equal(t, FormatPadded, f)
	require.Equal(t, "padded", f.String())

	f, err = ParseFormat("")
	require.NoError(t, err)
	require.Equal(t, FormatPlain, f)

	_, err = ParseFormat("csv")
	require.Error(t, err)
}

func TestRecordHelpers(t *testing.T) {
	require.True(t, PageAccess{Node: "-1"}.Unresolved())
	require.False(t, PageAccess{Node: "0"}.Unresolved())
	require.False(t, PageAccess{Node: "A"}.Unresolved())
	require.False(t, PageAccess{Node: "01"}.Unresolved())
	require.True(t, PageAccess{Node: "-01"}.Unresolved())
}

func TestWithLine(t *testing.T) {
	_, err := Classify([]string{"x"})
	err = WithLine(err, 42)
	require.Contains(t, err.Error(), "line 42")
}
