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

type ProgramTable struct {
	NbEntries   int
	DataProgram []ProgramHeader
}

// ProgramHeader is the class independent view of a program header.
type ProgramHeader struct {
	Type           elf.ProgType
	Flags          elf.ProgFlag
	FileOffset     uint64
	VirtualAddress uint64
	FileSize       uint64
	MemorySize     uint64
}

// The 32-bit layout places Flags after MemorySize.
type ELF32ProgramHeader struct {
	Type            uint32
	FileOffset      uint32
	VirtualAddress  uint32
	PhysicalAddress uint32
	FileSize        uint32
	MemorySize      uint32
	Flags           uint32
	Align           uint32
}

type ELF64ProgramHeader struct {
	Type            uint32
	Flags           uint32
	FileOffset      uint64
	VirtualAddress  uint64
	PhysicalAddress uint64
	FileSize        uint64
	MemorySize      uint64
	Align           uint64
}

func (elfFile *ELFFile) programHeaderSize() int {
	if elfFile.Header.Class == elf.ELFCLASS32 {
		return binary.Size(ELF32ProgramHeader{})
	}
	return binary.Size(ELF64ProgramHeader{})
}

func (elfFile *ELFFile) readProgramHeader(offset uint64) (ProgramHeader, error) {

	content, err := elfFile.slice(offset, uint64(elfFile.programHeaderSize()))
	if err != nil {
		return ProgramHeader{}, err
	}
	data := bytes.NewReader(content)

	if elfFile.Header.Class == elf.ELFCLASS32 {
		var p ELF32ProgramHeader
		if err := binary.Read(data, elfFile.Endianness, &p); err != nil {
			return ProgramHeader{}, errors.Wrap(err, "failed reading elf32 program header")
		}
		return ProgramHeader{
			Type:           elf.ProgType(p.Type),
			Flags:          elf.ProgFlag(p.Flags),
			FileOffset:     uint64(p.FileOffset),
			VirtualAddress: uint64(p.VirtualAddress),
			FileSize:       uint64(p.FileSize),
			MemorySize:     uint64(p.MemorySize),
		}, nil
	}

	var p ELF64ProgramHeader
	if err := binary.Read(data, elfFile.Endianness, &p); err != nil {
		return ProgramHeader{}, errors.Wrap(err, "failed reading elf64 program header")
	}
	return ProgramHeader{
		Type:           elf.ProgType(p.Type),
		Flags:          elf.ProgFlag(p.Flags),
		FileOffset:     p.FileOffset,
		VirtualAddress: p.VirtualAddress,
		FileSize:       p.FileSize,
		MemorySize:     p.MemorySize,
	}, nil
}

// ParseProgramHeaders reads the program header table, if any.
func (elfFile *ELFFile) ParseProgramHeaders() error {

	elfFile.SegmentsTable = ProgramTable{}
	if elfFile.Header.ProgramHeaderEntries == 0 || elfFile.Header.ProgramHeaderOffset == 0 {
		return nil
	}

	entrySize := uint64(elfFile.Header.ProgramHeaderEntrySize)
	if entrySize < uint64(elfFile.programHeaderSize()) {
		return errors.Errorf("invalid program header entry size: %d", entrySize)
	}

	offset := elfFile.Header.ProgramHeaderOffset
	count := uint64(elfFile.Header.ProgramHeaderEntries)
	if _, err := elfFile.slice(offset, count*entrySize); err != nil {
		return errors.Wrapf(err, "program header table (%d entries at 0x%x)", count, offset)
	}

	programs := make([]ProgramHeader, count)
	for i := range programs {
		p, err := elfFile.readProgramHeader(offset + uint64(i)*entrySize)
		if err != nil {
			return errors.Wrapf(err, "segment %d", i)
		}
		programs[i] = p
	}

	elfFile.SegmentsTable.NbEntries = len(programs)
	elfFile.SegmentsTable.DataProgram = programs
	return nil
}

// SegmentByType returns the first segment of the given type.
func (elfFile *ELFFile) SegmentByType(t elf.ProgType) (ProgramHeader, bool) {
	for _, p := range elfFile.SegmentsTable.DataProgram {
		if p.Type == t {
			return p, true
		}
	}
	return ProgramHeader{}, false
}

// addressToOffset translates a virtual address to a file offset through the
// PT_LOAD segments.
func (elfFile *ELFFile) addressToOffset(addr uint64) (uint64, bool) {
	for _, p := range elfFile.SegmentsTable.DataProgram {
		if p.Type != elf.PT_LOAD {
			continue
		}
		if addr >= p.VirtualAddress && addr-p.VirtualAddress < p.FileSize {
			return p.FileOffset + (addr - p.VirtualAddress), true
		}
	}
	return 0, false
}
