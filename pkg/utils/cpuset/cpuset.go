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
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"k8s.io/utils/cpuset"
)

// CPUSet is an alias for k8s.io/utils/cpuset.CPUSet.
type CPUSet = cpuset.CPUSet

// Parse is an alias for cpuset.Parse.
var Parse = cpuset.Parse

// Strings returns the sorted members of the cpuset as decimal strings.
func Strings(cset CPUSet) []string {
	ids := cset.List()
	strs := make([]string, 0, len(ids))
	for _, id := range ids {
		strs = append(strs, strconv.Itoa(id))
	}
	return strs
}

// ParseCores parses a cpuset list like 0-3,8 into sorted decimal core ids.
func ParseCores(list string) ([]string, error) {
	cset, err := cpuset.Parse(list)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid cpuset %q", list)
	}
	return Strings(cset), nil
}

// IsRange checks if entry is a numeric range, for instance 8-15.
func IsRange(entry string) bool {
	split := strings.SplitN(entry, "-", 2)
	if len(split) != 2 {
		return false
	}
	for _, s := range split {
		if _, err := strconv.ParseUint(s, 10, 0); err != nil {
			return false
		}
	}
	return true
}
