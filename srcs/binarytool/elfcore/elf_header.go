// Copyright 2019 The UNICORE Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file

package elfcore

import (
	"bytes"
	"debug/elf"
	"encoding/binary"

	"github.com/pkg/errors"
)

const (
	identSize     = 16
	machineOffset = 18
)

// Minimal header length for each class.
var headerSizes = map[elf.Class]int{
	elf.ELFCLASS32: binary.Size(ELF32Header{}),
	elf.ELFCLASS64: binary.Size(ELF64Header{}),
}

type ELF32Header struct {
	Identification         [identSize]byte
	Type                   uint16
	Machine                uint16
	Version                uint32
	EntryPoint             uint32
	ProgramHeaderOffset    uint32
	SectionHeaderOffset    uint32
	Flags                  uint32
	HeaderSize             uint16
	ProgramHeaderEntrySize uint16
	ProgramHeaderEntries   uint16
	SectionHeaderEntrySize uint16
	SectionHeaderEntries   uint16
	SectionNamesTable      uint16
}

type ELF64Header struct {
	Identification         [identSize]byte
	Type                   uint16
	Machine                uint16
	Version                uint32
	EntryPoint             uint64
	ProgramHeaderOffset    uint64
	SectionHeaderOffset    uint64
	Flags                  uint32
	HeaderSize             uint16
	ProgramHeaderEntrySize uint16
	ProgramHeaderEntries   uint16
	SectionHeaderEntrySize uint16
	SectionHeaderEntries   uint16
	SectionNamesTable      uint16
}

// Header is the class independent view of an ELF file header.
type Header struct {
	Class                  elf.Class
	Endianness             binary.ByteOrder
	Machine                elf.Machine
	ProgramHeaderOffset    uint64
	SectionHeaderOffset    uint64
	ProgramHeaderEntrySize uint16
	ProgramHeaderEntries   uint16
	SectionHeaderEntrySize uint16
	SectionHeaderEntries   uint16
	SectionNamesTable      uint16
}

func hasMagic(raw []byte) bool {
	return len(raw) >= len(elf.ELFMAG) && string(raw[:len(elf.ELFMAG)]) == elf.ELFMAG
}

// identify reads class and byte order from e_ident and checks that raw is
// long enough to hold the whole header of that class.
func identify(raw []byte) (elf.Class, binary.ByteOrder, error) {

	if !hasMagic(raw) {
		return elf.ELFCLASSNONE, nil, errors.New("bad magic number")
	}

	if len(raw) < identSize {
		return elf.ELFCLASSNONE, nil, errors.New("truncated identification")
	}

	class := elf.Class(raw[elf.EI_CLASS])
	size, ok := headerSizes[class]
	if !ok {
		return elf.ELFCLASSNONE, nil, errors.Errorf("unknown ELF class: %d", raw[elf.EI_CLASS])
	}

	var endianness binary.ByteOrder
	switch elf.Data(raw[elf.EI_DATA]) {
	case elf.ELFDATA2LSB:
		endianness = binary.LittleEndian
	case elf.ELFDATA2MSB:
		endianness = binary.BigEndian
	default:
		return elf.ELFCLASSNONE, nil, errors.Errorf("unknown ELF data encoding: %d", raw[elf.EI_DATA])
	}

	if len(raw) < size {
		return elf.ELFCLASSNONE, nil, errors.Errorf("truncated %s header: %d bytes", class, len(raw))
	}

	return class, endianness, nil
}

// Classify returns the architecture recorded in an ELF header, or Unparsable
// when raw does not hold a complete, well-formed header. It never fails.
func Classify(raw []byte) Architecture {

	_, endianness, err := identify(raw)
	if err != nil {
		return Unparsable
	}

	// e_machine sits at the same offset for both classes
	return FromMachine(elf.Machine(endianness.Uint16(raw[machineOffset:])))
}

// ParseElfHeader decodes the file header of elfFile.Raw.
func (elfFile *ELFFile) ParseElfHeader() error {

	class, endianness, err := identify(elfFile.Raw)
	if err != nil {
		return err
	}

	data := bytes.NewReader(elfFile.Raw)
	header := &Header{Class: class, Endianness: endianness}

	switch class {
	case elf.ELFCLASS32:
		var h ELF32Header
		if err := binary.Read(data, endianness, &h); err != nil {
			return errors.Wrap(err, "failed reading elf32 header")
		}
		header.Machine = elf.Machine(h.Machine)
		header.ProgramHeaderOffset = uint64(h.ProgramHeaderOffset)
		header.SectionHeaderOffset = uint64(h.SectionHeaderOffset)
		header.ProgramHeaderEntrySize = h.ProgramHeaderEntrySize
		header.ProgramHeaderEntries = h.ProgramHeaderEntries
		header.SectionHeaderEntrySize = h.SectionHeaderEntrySize
		header.SectionHeaderEntries = h.SectionHeaderEntries
		header.SectionNamesTable = h.SectionNamesTable
	case elf.ELFCLASS64:
		var h ELF64Header
		if err := binary.Read(data, endianness, &h); err != nil {
			return errors.Wrap(err, "failed reading elf64 header")
		}
		header.Machine = elf.Machine(h.Machine)
		header.ProgramHeaderOffset = h.ProgramHeaderOffset
		header.SectionHeaderOffset = h.SectionHeaderOffset
		header.ProgramHeaderEntrySize = h.ProgramHeaderEntrySize
		header.ProgramHeaderEntries = h.ProgramHeaderEntries
		header.SectionHeaderEntrySize = h.SectionHeaderEntrySize
		header.SectionHeaderEntries = h.SectionHeaderEntries
		header.SectionNamesTable = h.SectionNamesTable
	}

	elfFile.Header = header
	elfFile.Endianness = endianness
	return nil
}
