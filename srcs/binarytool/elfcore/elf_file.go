// Copyright 2019 The UNICORE Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file

package elfcore

import (
	"bytes"
	"encoding/binary"

	"github.com/pkg/errors"
)

// HeaderPrefixSize is enough bytes to classify a file of either class.
const HeaderPrefixSize = 64

// ErrMalformedDynamicSection is returned when a file classified as ELF has
// headers or a dynamic table pointing outside of itself or otherwise
// inconsistent.
var ErrMalformedDynamicSection = errors.New("malformed dynamic section")

type ELFFile struct {
	Header        *Header
	SectionsTable SectionsTable
	SegmentsTable ProgramTable
	DynamicTable  *DynamicTable
	Raw           []byte
	Endianness    binary.ByteOrder
}

// NewELFFile parses every table needed to list the imported libraries of raw.
func NewELFFile(raw []byte) (*ELFFile, error) {
	elfFile := &ELFFile{Raw: raw}
	if err := elfFile.ParseAll(); err != nil {
		return nil, err
	}
	return elfFile, nil
}

func (elfFile *ELFFile) ParseAll() error {

	if err := elfFile.ParseElfHeader(); err != nil {
		return err
	}

	if err := elfFile.ParseSectionHeaders(); err != nil {
		return err
	}

	if err := elfFile.ParseProgramHeaders(); err != nil {
		return err
	}

	return elfFile.ParseDynamic()
}

// Extract returns the shared libraries declared by the ELF image raw, in
// the order of its DT_NEEDED entries. Statically linked images yield an
// empty list. Layout is chosen from the ELF class, arch is only checked to
// be a real machine.
func Extract(raw []byte, arch Architecture) ([]string, error) {

	if arch.IsSentinel() {
		return nil, errors.Errorf("cannot extract dependencies from a %s entry", arch)
	}

	elfFile, err := NewELFFile(raw)
	if err != nil {
		return nil, errors.Wrap(ErrMalformedDynamicSection, err.Error())
	}

	libs, err := elfFile.ImportedLibraries()
	if err != nil {
		return nil, errors.Wrap(ErrMalformedDynamicSection, err.Error())
	}
	return libs, nil
}

// slice returns raw[off:off+size] or an error when it does not fit.
func (elfFile *ELFFile) slice(off, size uint64) ([]byte, error) {
	length := uint64(len(elfFile.Raw))
	if off > length {
		return nil, errors.Errorf("offset 0x%x beyond end of file (0x%x)", off, length)
	}
	end := off + size
	if end < off || end > length {
		return nil, errors.Errorf("range 0x%x+0x%x beyond end of file (0x%x)", off, size, length)
	}
	return elfFile.Raw[off:end], nil
}

// cString reads the NUL terminated string starting at offset in table.
func cString(table []byte, offset uint64) (string, error) {
	if offset >= uint64(len(table)) {
		return "", errors.Errorf("string offset 0x%x outside table of size 0x%x", offset, len(table))
	}
	rawDataStart := table[offset:]
	end := bytes.IndexByte(rawDataStart, 0)
	if end < 0 {
		return "", errors.Errorf("string at 0x%x is not null-terminated", offset)
	}
	return string(rawDataStart[:end]), nil
}
