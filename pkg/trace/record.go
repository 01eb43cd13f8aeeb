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
	"strconv"
)

// Record is a single classified trace line.
type Record interface {
	isRecord()
}

// ThreadTick is a timestamp record. Page accesses following it are
// attributed to its CPU and to the frame of its time.
type ThreadTick struct {
	CPU          string
	Seconds      int64
	Microseconds int64
}

// PageAccess is a page access record, attributed to the preceding tick.
type PageAccess struct {
	Page   string
	Node   string
	Reads  int64
	Writes int64
}

// ThreadStart is the thread header record of the padded layout.
type ThreadStart struct {
	Thread string
}

func (ThreadTick) isRecord()  {}
func (PageAccess) isRecord()  {}
func (ThreadStart) isRecord() {}

// Unresolved returns true if the memory node of the page is unknown,
// which the tracer marks with a negative node id.
func (a PageAccess) Unresolved() bool {
	id, err := strconv.ParseInt(a.Node, 10, 64)
	return err == nil && id < 0
}
