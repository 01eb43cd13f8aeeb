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
package log

import (
	"fmt"
)

// Delayed is a value formatted only if a message is actually emitted.
type Delayed interface {
	String() string
}

type delay struct {
	fn func() string
}

// Delay wraps fn into a value that calls fn only when formatted. Use it
// for debug arguments that are costly to produce.
func Delay(fn func() string) Delayed {
	return &delay{fn: fn}
}

// DelayValue is like Delay but formats the result of fn with %v.
func DelayValue(fn func() interface{}) Delayed {
	return &delay{fn: func() string { return fmt.Sprintf("%v", fn()) }}
}

func (d *delay) String() string {
	return d.fn()
}
