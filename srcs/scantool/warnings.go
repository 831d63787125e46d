// Copyright 2019 The UNICORE Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file

package scantool

import (
	"sort"
	"sync"

	"github.com/pkg/errors"

	"elfdeps/srcs/binarytool/elfcore"
)

var (
	// ErrRootUnreadable is the only error a scan returns: the root does not
	// exist or cannot be listed.
	ErrRootUnreadable = errors.New("root path is unreadable")
	// ErrEntryUnreadable marks an entry that could not be stat'ed, listed,
	// opened or read. It only ever ends up in a Warning.
	ErrEntryUnreadable = errors.New("entry is unreadable")
)

type WarningKind int

const (
	EntryUnreadable WarningKind = iota
	MalformedDynamicSection
)

func (k WarningKind) String() string {
	switch k {
	case EntryUnreadable:
		return "EntryUnreadable"
	case MalformedDynamicSection:
		return "MalformedDynamicSection"
	}
	return "Unknown"
}

func (k WarningKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Warning is a per-entry problem that did not stop the scan.
type Warning struct {
	Path    string      `json:"path"`
	Kind    WarningKind `json:"kind"`
	Message string      `json:"message"`
}

// Err returns the warning as an error matching its sentinel with errors.Is.
func (w Warning) Err() error {
	sentinel := ErrEntryUnreadable
	if w.Kind == MalformedDynamicSection {
		sentinel = elfcore.ErrMalformedDynamicSection
	}
	return errors.Wrapf(sentinel, "%s: %s", w.Path, w.Message)
}

// WarningLog is an append-only list of warnings safe for concurrent use.
type WarningLog struct {
	mu       sync.Mutex
	warnings []Warning
}

func (l *WarningLog) Add(path string, kind WarningKind, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warnings = append(l.warnings, Warning{Path: path, Kind: kind, Message: err.Error()})
}

func (l *WarningLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.warnings)
}

// Records returns a copy of the warnings sorted by path. Warnings of the
// same path keep their insertion order.
func (l *WarningLog) Records() []Warning {
	l.mu.Lock()
	records := make([]Warning, len(l.warnings))
	copy(records, l.warnings)
	l.mu.Unlock()

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Path < records[j].Path
	})
	return records
}
