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
	"bufio"
	"io"
	"strings"

	"github.com/pkg/errors"
)

const (
	// maxLineLength is the longest accepted trace line.
	maxLineLength = 1024 * 1024
)

// Reader splits trace input into lines of tab-separated fields.
type Reader struct {
	scanner *bufio.Scanner
	line    int
	fields  []string
}

// NewReader creates a Reader for the given input.
func NewReader(r io.Reader) *Reader {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength)
	return &Reader{scanner: scanner}
}

// Next advances to the next line. It returns false at the end of input
// or on a read error, which Err returns.
func (r *Reader) Next() bool {
	if !r.scanner.Scan() {
		r.fields = nil
		return false
	}
	r.line++
	r.fields = strings.Split(strings.TrimRight(r.scanner.Text(), "\r"), "\t")
	return true
}

// Fields returns the fields of the current line.
func (r *Reader) Fields() []string {
	return r.fields
}

// Line returns the 1-based number of the current line.
func (r *Reader) Line() int {
	return r.line
}

// Err returns the first read error encountered, if any.
func (r *Reader) Err() error {
	if err := r.scanner.Err(); err != nil {
		return errors.Wrapf(err, "trace: read failed after line %d", r.line)
	}
	return nil
}
