// Copyright 2019 The UNICORE Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file

package scantool

import (
	"bytes"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"elfdeps/srcs/binarytool/elfcore"
)

// Fact records that the binary at FilePath declares LibraryName.
// Architecture is never a sentinel.
type Fact struct {
	FilePath     string               `json:"file_path"`
	LibraryName  string               `json:"library_name"`
	Architecture elfcore.Architecture `json:"architecture"`
}

// Stats counts what happened to the walked entries.
type Stats struct {
	Entries  int64 `json:"entries"`
	Analysed int64 `json:"analysed"`
	Skipped  int64 `json:"skipped"`
	Warnings int64 `json:"warnings"`
}

// Collector turns the entries of a walk into facts. Files that are not ELF
// are skipped; per-file failures become warnings.
type Collector struct {
	// Workers is the number of files inspected at once. Values below 2 keep
	// the whole scan on the calling goroutine.
	Workers  int
	Warnings *WarningLog
	// OnSkip, when set, is told about every entry that was not analysed.
	OnSkip func(path, reason string)

	entries  atomic.Int64
	analysed atomic.Int64
	skipped  atomic.Int64
}

func NewCollector(workers int) *Collector {
	return &Collector{Workers: workers, Warnings: new(WarningLog)}
}

// Collect walks root and returns the facts of every ELF binary found, in
// walk order whatever the number of workers.
//
// It returns an error only when root itself cannot be read.
func (c *Collector) Collect(root string, recursive bool) ([]Fact, error) {

	walker := NewWalker(root, recursive, c.Warnings)

	if c.Workers < 2 {
		facts := make([]Fact, 0)
		err := walker.Walk(func(entry Entry) error {
			facts = append(facts, c.inspect(entry)...)
			return nil
		})
		if err != nil {
			return nil, err
		}
		return facts, nil
	}

	var (
		g       errgroup.Group
		mu      sync.Mutex
		results = make(map[int][]Fact)
		index   = 0
	)
	g.SetLimit(c.Workers)

	err := walker.Walk(func(entry Entry) error {
		i := index
		index++
		g.Go(func() error {
			found := c.inspect(entry)
			mu.Lock()
			results[i] = found
			mu.Unlock()
			return nil
		})
		return nil
	})
	_ = g.Wait()
	if err != nil {
		return nil, err
	}

	facts := make([]Fact, 0)
	for i := 0; i < index; i++ {
		facts = append(facts, results[i]...)
	}
	return facts, nil
}

// Stats returns the counters accumulated by Collect.
func (c *Collector) Stats() Stats {
	return Stats{
		Entries:  c.entries.Load(),
		Analysed: c.analysed.Load(),
		Skipped:  c.skipped.Load(),
		Warnings: int64(c.Warnings.Len()),
	}
}

func (c *Collector) skip(path, reason string) {
	c.skipped.Add(1)
	if c.OnSkip != nil {
		c.OnSkip(path, reason)
	}
}

// classifyEntry settles directories before any byte is read, then
// classifies the header prefix of regular files.
func (c *Collector) classifyEntry(entry Entry) (elfcore.Architecture, []byte, *os.File, error) {

	if entry.IsDir() {
		return elfcore.Directory, nil, nil, nil
	}

	f, err := os.Open(entry.Path)
	if err != nil {
		return elfcore.Unparsable, nil, nil, err
	}

	head := make([]byte, elfcore.HeaderPrefixSize)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		f.Close()
		return elfcore.Unparsable, nil, nil, err
	}
	head = head[:n]

	return elfcore.Classify(head), head, f, nil
}

// inspect returns the facts of a single entry.
func (c *Collector) inspect(entry Entry) []Fact {

	c.entries.Add(1)

	if !entry.IsDir() && !entry.IsRegular() {
		c.skip(entry.Path, "not a regular file")
		return nil
	}

	arch, head, f, err := c.classifyEntry(entry)
	if err != nil {
		c.Warnings.Add(entry.Path, EntryUnreadable, err)
		return nil
	}

	switch arch {
	case elfcore.Directory:
		c.skip(entry.Path, "directory")
		return nil
	case elfcore.Unparsable:
		f.Close()
		c.skip(entry.Path, "not an ELF file")
		return nil
	}

	var buf bytes.Buffer
	buf.Grow(int(entry.Size))
	buf.Write(head)
	_, err = buf.ReadFrom(f)
	f.Close()
	if err != nil {
		c.Warnings.Add(entry.Path, EntryUnreadable, err)
		return nil
	}

	libs, err := elfcore.Extract(buf.Bytes(), arch)
	if err != nil {
		c.Warnings.Add(entry.Path, MalformedDynamicSection, err)
		return nil
	}
	c.analysed.Add(1)

	facts := make([]Fact, 0, len(libs))
	for _, lib := range libs {
		facts = append(facts, Fact{FilePath: entry.Path, LibraryName: lib, Architecture: arch})
	}
	return facts
}
