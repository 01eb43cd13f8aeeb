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
	"strings"
)

// Format is the layout of trace records.
type Format int

const (
	// FormatPlain has 3-field ticks and 4-field page accesses.
	FormatPlain Format = iota
	// FormatPadded has 4 fields on every line, with unused fields set to -1:
	// 'TID -1 -1 -1' thread headers, 'CPU SEC USEC -1' ticks and page accesses.
	FormatPadded
)

// ParseFormat returns the Format of the given name.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "", "plain":
		return FormatPlain, nil
	case "padded", "pin":
		return FormatPadded, nil
	}
	return FormatPlain, &ParseError{Field: "record format", Value: name, Err: strconv.ErrSyntax}
}

// String returns the name of the format.
func (f Format) String() string {
	if f == FormatPadded {
		return "padded"
	}
	return "plain"
}

// Classifier turns split trace lines into Records.
type Classifier struct {
	Format Format
}

// Classify classifies plain layout fields.
func Classify(fields []string) (Record, error) {
	return Classifier{}.Classify(fields)
}

// Classify classifies fields according to the classifier format.
func (c Classifier) Classify(fields []string) (Record, error) {
	switch c.Format {
	case FormatPadded:
		return classifyPadded(fields)
	default:
		return classifyPlain(fields)
	}
}

func classifyPlain(fields []string) (Record, error) {
	switch len(fields) {
	case 3:
		return tick(fields)
	case 4:
		return access(fields)
	}
	return nil, &MalformedRecordError{Fields: fields}
}

func classifyPadded(fields []string) (Record, error) {
	if len(fields) != 4 {
		return nil, &MalformedRecordError{Fields: fields}
	}
	if fields[3] != "-1" {
		return access(fields)
	}
	if fields[2] != "-1" {
		return tick(fields[:3])
	}
	if fields[1] != "-1" {
		return nil, &MalformedRecordError{Fields: fields}
	}
	return ThreadStart{Thread: fields[0]}, nil
}

func tick(fields []string) (Record, error) {
	sec, err := parseInt("seconds", fields[1])
	if err != nil {
		return nil, err
	}
	usec, err := parseInt("microseconds", fields[2])
	if err != nil {
		return nil, err
	}
	return ThreadTick{CPU: fields[0], Seconds: sec, Microseconds: usec}, nil
}

func access(fields []string) (Record, error) {
	node := fields[1]
	if node == "" || strings.ContainsAny(node, " \t") {
		return nil, &ParseError{Field: "node", Value: node, Err: strconv.ErrSyntax}
	}
	reads, err := parseInt("reads", fields[2])
	if err != nil {
		return nil, err
	}
	writes, err := parseInt("writes", fields[3])
	if err != nil {
		return nil, err
	}
	return PageAccess{Page: fields[0], Node: node, Reads: reads, Writes: writes}, nil
}

func parseInt(field, value string) (int64, error) {
	v, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, &ParseError{Field: field, Value: value, Err: err}
	}
	return v, nil
}
