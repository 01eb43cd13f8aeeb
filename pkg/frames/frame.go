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
package frames

import (
	"sort"
)

// NodePair is a (requester node, memory node) pair.
type NodePair struct {
	Requester string
	Memory    string
}

// PageSet is a set of distinct page ids.
type PageSet map[string]struct{}

// Add adds a page to the set.
func (s PageSet) Add(page string) {
	s[page] = struct{}{}
}

// Has checks if the set contains page.
func (s PageSet) Has(page string) bool {
	_, ok := s[page]
	return ok
}

// Union adds all pages of o to the set.
func (s PageSet) Union(o PageSet) {
	for page := range o {
		s[page] = struct{}{}
	}
}

// Sorted returns the pages of the set in sorted order.
func (s PageSet) Sorted() []string {
	pages := make([]string, 0, len(s))
	for page := range s {
		pages = append(pages, page)
	}
	sort.Strings(pages)
	return pages
}

// PageCounts are the summed accesses of a single page.
type PageCounts struct {
	Reads  int64
	Writes int64
}

// PageThreads are the threads reading and writing a single page.
type PageThreads struct {
	Readers map[string]struct{}
	Writers map[string]struct{}
}

// Frame is the aggregated data of a single time frame.
type Frame struct {
	// ReadPages are the distinct pages read per memory node.
	ReadPages map[string]PageSet
	// WritePages are the distinct pages written per memory node.
	WritePages map[string]PageSet
	// Reads are the summed reads per node pair.
	Reads map[NodePair]int64
	// Writes are the summed writes per node pair.
	Writes map[NodePair]int64
	// Pages are the summed accesses per page, if page tracking is enabled.
	Pages map[string]*PageCounts
	// Sharing has the accessing threads per page, if sharing tracking is enabled.
	Sharing map[string]*PageThreads
}

// NewFrame creates an empty frame.
func NewFrame() *Frame {
	return &Frame{
		ReadPages:  make(map[string]PageSet),
		WritePages: make(map[string]PageSet),
		Reads:      make(map[NodePair]int64),
		Writes:     make(map[NodePair]int64),
	}
}

// ReadCount returns the number of distinct pages read from node.
func (f *Frame) ReadCount(node string) int64 {
	return int64(len(f.ReadPages[node]))
}

// WriteCount returns the number of distinct pages written to node.
func (f *Frame) WriteCount(node string) int64 {
	return int64(len(f.WritePages[node]))
}

func (f *Frame) addRead(page string, pair NodePair, reads int64) {
	pages, ok := f.ReadPages[pair.Memory]
	if !ok {
		pages = make(PageSet)
		f.ReadPages[pair.Memory] = pages
	}
	pages.Add(page)
	f.Reads[pair] += reads
}

func (f *Frame) addWrite(page string, pair NodePair, writes int64) {
	pages, ok := f.WritePages[pair.Memory]
	if !ok {
		pages = make(PageSet)
		f.WritePages[pair.Memory] = pages
	}
	pages.Add(page)
	f.Writes[pair] += writes
}

func (f *Frame) addPage(page string, reads, writes int64) {
	if f.Pages == nil {
		f.Pages = make(map[string]*PageCounts)
	}
	pc, ok := f.Pages[page]
	if !ok {
		pc = &PageCounts{}
		f.Pages[page] = pc
	}
	pc.Reads += reads
	pc.Writes += writes
}

func (f *Frame) addSharing(page, thread string, read, write bool) {
	if f.Sharing == nil {
		f.Sharing = make(map[string]*PageThreads)
	}
	pt, ok := f.Sharing[page]
	if !ok {
		pt = &PageThreads{Readers: map[string]struct{}{}, Writers: map[string]struct{}{}}
		f.Sharing[page] = pt
	}
	// a write implies the page was read by the thread too
	if read || write {
		pt.Readers[thread] = struct{}{}
	}
	if write {
		pt.Writers[thread] = struct{}{}
	}
}

// merge folds o into f.
func (f *Frame) merge(o *Frame) {
	for node, pages := range o.ReadPages {
		set, ok := f.ReadPages[node]
		if !ok {
			set = make(PageSet, len(pages))
			f.ReadPages[node] = set
		}
		set.Union(pages)
	}
	for node, pages := range o.WritePages {
		set, ok := f.WritePages[node]
		if !ok {
			set = make(PageSet, len(pages))
			f.WritePages[node] = set
		}
		set.Union(pages)
	}
	for pair, n := range o.Reads {
		f.Reads[pair] += n
	}
	for pair, n := range o.Writes {
		f.Writes[pair] += n
	}
	for page, pc := range o.Pages {
		f.addPage(page, pc.Reads, pc.Writes)
	}
	for page, pt := range o.Sharing {
		for thread := range pt.Readers {
			f.addSharing(page, thread, true, false)
		}
		for thread := range pt.Writers {
			f.addSharing(page, thread, false, true)
		}
	}
}
