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
	"bytes"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

// Open opens a trace file, transparently decompressing gzip and zstd
// content. Compression is detected from the content, not the file name.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "trace: failed to open %q", path)
	}

	r, err := Decompress(f)
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "trace: failed to open %q", path)
	}

	return &readCloser{Reader: r, closers: []io.Closer{r, f}}, nil
}

// Decompress wraps r into a decompressing reader if its content starts
// with a gzip or zstd magic. Otherwise r is read as is.
func Decompress(r io.Reader) (io.ReadCloser, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(len(zstdMagic))
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, err
	}

	switch {
	case bytes.HasPrefix(magic, gzipMagic):
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, errors.Wrap(err, "invalid gzip stream")
		}
		return gz, nil
	case bytes.HasPrefix(magic, zstdMagic):
		zr, err := zstd.NewReader(br)
		if err != nil {
			return nil, errors.Wrap(err, "invalid zstd stream")
		}
		return zr.IOReadCloser(), nil
	}

	return io.NopCloser(br), nil
}

type readCloser struct {
	io.Reader
	closers []io.Closer
}

func (rc *readCloser) Close() error {
	var first error
	for _, c := range rc.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// ThreadFromFile derives a thread id from a trace file name. The id is
// the part of the base name between the first '_' and the following '.',
// for instance 'numatrace_1234.dat.gz' gives '1234'. Without a '_' the
// whole base name is used.
func ThreadFromFile(path string) string {
	name := filepath.Base(path)

	idx := strings.Index(name, "_")
	if idx < 0 {
		return name
	}
	tid := name[idx+1:]
	if dot := strings.Index(tid, "."); dot >= 0 {
		tid = tid[:dot]
	}
	return tid
}

// Files expands the given paths into a sorted list of trace files.
// Directories contribute the regular, non-hidden files directly in them.
func Files(paths ...string) ([]string, error) {
	var files []string

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, errors.Wrapf(err, "trace: invalid input")
		}
		if !info.IsDir() {
			files = append(files, path)
			continue
		}

		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, errors.Wrapf(err, "trace: failed to read directory %q", path)
		}
		for _, e := range entries {
			if !e.Type().IsRegular() || strings.HasPrefix(e.Name(), ".") {
				continue
			}
			files = append(files, filepath.Join(path, e.Name()))
		}
	}

	sort.Strings(files)

	return files, nil
}
