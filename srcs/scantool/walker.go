// Copyright 2019 The UNICORE Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file

package scantool

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// Entry is one path produced by the Walker. Symlinks are resolved, so Mode
// describes the target.
type Entry struct {
	Path string
	Mode fs.FileMode
	Size int64
}

func (e Entry) IsDir() bool {
	return e.Mode.IsDir()
}

func (e Entry) IsRegular() bool {
	return e.Mode.IsRegular()
}

// Walker lists the entries under Root. Unreadable entries and
// subdirectories are recorded in Warnings and skipped.
//
// Symlinked directories are followed without cycle detection: a loop stops
// once the OS refuses the path, which shows up as a warning.
type Walker struct {
	Root      string
	Recursive bool
	Warnings  *WarningLog
}

func NewWalker(root string, recursive bool, warnings *WarningLog) *Walker {
	return &Walker{Root: root, Recursive: recursive, Warnings: warnings}
}

// Walk calls fn for every entry, in lexical order inside each directory.
// Without Recursive, subdirectories are passed to fn like any other entry.
// A Root that is a regular file yields itself.
//
// It returns an error wrapping ErrRootUnreadable when Root cannot be read,
// or the first error returned by fn.
func (w *Walker) Walk(fn func(Entry) error) error {

	info, err := os.Stat(w.Root)
	if err != nil {
		return errors.Wrapf(ErrRootUnreadable, "%s", err)
	}

	if !info.IsDir() {
		return fn(Entry{Path: w.Root, Mode: info.Mode(), Size: info.Size()})
	}

	entries, err := os.ReadDir(w.Root)
	if err != nil {
		return errors.Wrapf(ErrRootUnreadable, "%s", err)
	}

	return w.walkEntries(w.Root, entries, fn)
}

func (w *Walker) walkDir(dir string, fn func(Entry) error) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		w.Warnings.Add(dir, EntryUnreadable, err)
		// ReadDir returns what it could list before failing
		if len(entries) == 0 {
			return nil
		}
	}
	return w.walkEntries(dir, entries, fn)
}

func (w *Walker) walkEntries(dir string, entries []os.DirEntry, fn func(Entry) error) error {

	for _, de := range entries {
		path := filepath.Join(dir, de.Name())

		info, err := os.Stat(path)
		if err != nil {
			w.Warnings.Add(path, EntryUnreadable, err)
			continue
		}

		if info.IsDir() && w.Recursive {
			if err := w.walkDir(path, fn); err != nil {
				return err
			}
			continue
		}

		if err := fn(Entry{Path: path, Mode: info.Mode(), Size: info.Size()}); err != nil {
			return err
		}
	}

	return nil
}
