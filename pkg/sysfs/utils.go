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
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Get the trailing enumeration part of a name.
func getEnumeratedID(name string) int {
	id := 0
	base := 1
	for idx := len(name) - 1; idx > 0; idx-- {
		d := name[idx]

		if '0' <= d && d <= '9' {
			id += base * (int(d) - '0')
			base *= 10
		} else {
			if base > 1 {
				return id
			}
			return -1
		}
	}

	return -1
}

// Read the content of a sysfs entry with surrounding whitespace trimmed.
func readSysfsEntry(base, entry string) (string, error) {
	path := filepath.Join(base, entry)

	blob, err := os.ReadFile(path)
	if err != nil {
		return "", sysfsError(path, "failed to read sysfs entry: %v", err)
	}

	return strings.TrimSpace(string(blob)), nil
}

// parseIntList parses a whitespace-separated list of integers.
func parseIntList(str string) ([]int, error) {
	var list []int
	for _, f := range strings.Fields(str) {
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, err
		}
		list = append(list, v)
	}
	return list, nil
}

// sysfsError returns a formatted sysfs-specific error.
func sysfsError(path, format string, args ...interface{}) error {
	return fmt.Errorf("sysfs: "+path+": "+format, args...)
}
