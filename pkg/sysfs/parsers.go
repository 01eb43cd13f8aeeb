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
	"strconv"
	"strings"
)

// unit multipliers
const (
	k = (int64(1) << 10)
	M = (int64(1) << 20)
	G = (int64(1) << 30)
)

// unit name to multiplier mapping
var units = map[string]int64{
	"k": k, "kB": k,
	"M": M, "MB": M,
	"G": G, "GB": G,
}

// parseMeminfo picks the given keys from a per-node meminfo file. Lines
// look like 'Node 0 MemTotal:  16318412 kB'.
func parseMeminfo(path string, values map[string]*int64) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return sysfsError(path, "failed to read file: %v", err)
	}

	for _, line := range strings.Split(string(data), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 4 || fields[0] != "Node" {
			continue
		}
		ptr, ok := values[fields[2]]
		if !ok {
			continue
		}
		num, err := parseNumeric(fields[3:])
		if err != nil {
			return sysfsError(path, "invalid value for %s: %v", fields[2], err)
		}
		*ptr = num
	}

	return nil
}

// parseNumeric parses a number with an optional unit.
func parseNumeric(fields []string) (int64, error) {
	unit := int64(1)
	switch len(fields) {
	case 1:
	case 2:
		u, ok := units[fields[1]]
		if !ok {
			return 0, sysfsError("", "invalid unit '%s'", fields[1])
		}
		unit = u
	default:
		return 0, sysfsError("", "invalid numeric value '%s'", strings.Join(fields, " "))
	}

	num, err := strconv.ParseInt(fields[0], 0, 64)
	if err != nil {
		return 0, err
	}
	return num * unit, nil
}
