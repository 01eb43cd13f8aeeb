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
	"fmt"
	"strings"
)

// MalformedRecordError is returned for lines with an unexpected number
// of fields. Such lines can be skipped.
type MalformedRecordError struct {
	Line   int
	Fields []string
}

func (e *MalformedRecordError) Error() string {
	where := ""
	if e.Line > 0 {
		where = fmt.Sprintf(" at line %d", e.Line)
	}
	return fmt.Sprintf("trace: malformed record%s with %d fields: %q",
		where, len(e.Fields), strings.Join(e.Fields, "\t"))
}

// ParseError is returned if a numeric field fails to parse.
type ParseError struct {
	Line  int
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	where := ""
	if e.Line > 0 {
		where = fmt.Sprintf(" at line %d", e.Line)
	}
	return fmt.Sprintf("trace: invalid %s %q%s: %v", e.Field, e.Value, where, e.Err)
}

// Unwrap returns the underlying conversion error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// WithLine sets the line number of a classification error, if it is one.
func WithLine(err error, line int) error {
	switch e := err.(type) {
	case *MalformedRecordError:
		e.Line = line
	case *ParseError:
		e.Line = line
	}
	return err
}
