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
package config

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// Duration is a time.Duration which implements JSON marshalling/unmarshalling
// and flag.Value. Plain integers are taken as microseconds.
type Duration time.Duration

// ParseDuration parses a Go duration string or an integer number of microseconds.
func ParseDuration(value string) (Duration, error) {
	value = strings.TrimSpace(value)
	if us, err := strconv.ParseInt(value, 10, 64); err == nil {
		return Duration(time.Duration(us) * time.Microsecond), nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, configError("invalid duration %q: %v", value, err)
	}
	return Duration(parsed), nil
}

// Microseconds returns the duration as an integer count of microseconds.
func (d Duration) Microseconds() int64 {
	return time.Duration(d).Microseconds()
}

// MarshalJSON is the JSON marshaller for (time.)Duration.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalJSON is the JSON unmarshaller for (time.)Duration.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var us int64
	if err := json.Unmarshal(data, &us); err == nil {
		*d = Duration(time.Duration(us) * time.Microsecond)
		return nil
	}

	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return configError("invalid Duration data %s", string(data))
	}
	parsed, err := ParseDuration(str)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Set implements flag.Value.
func (d *Duration) Set(value string) error {
	parsed, err := ParseDuration(value)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// String returns the value of Duration as a string.
func (d *Duration) String() string {
	if d == nil {
		return "0s"
	}
	return time.Duration(*d).String()
}
