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

const dynamicStringTable = ".dynstr"

type SectionsTable struct {
	NbEntries int
	DataSect  []*DataSections
}

type DataSections struct {
	Name          string
	SectionHeader SectionHeader
}

// SectionHeader is the class independent view of a section header.
type SectionHeader struct {
	Name           uint32
	Type           elf.SectionType
	Flags          uint64
	VirtualAddress uint64
	FileOffset     uint64
	Size           uint64
	LinkedIndex    uint32
	Info           uint32
	EntrySize      uint64
}

type ELF32SectionHeader struct {
	Name           uint32
	Type           uint32
	Flags          uint32
	VirtualAddress uint32
	FileOffset     uint32
	Size           uint32
	LinkedIndex    uint32
	Info           uint32
	Align          uint32
	EntrySize      uint32
}

type ELF64SectionHeader struct {
	Name           uint32
	Type           uint32
	Flags          uint64
	VirtualAddress uint64
	FileOffset     uint64
	Size           uint64
	LinkedIndex    uint32
	Info           uint32
	Align          uint64
	EntrySize      uint64
}

// sectionHeaderSize is the on-disk size of one section header for the class
// of elfFile.
func (elfFile *ELFFile) sectionHeaderSize() int {
	if elfFile.Header.Class == elf.ELFCLASS32 {
		return binary.Size(ELF32SectionHeader{})
	}
	return binary.Size(ELF64SectionHeader{})
}

// readSectionHeader decodes the section header found at offset.
func (elfFile *ELFFile) readSectionHeader(offset uint64) (SectionHeader, error) {

	content, err := elfFile.slice(offset, uint64(elfFile.sectionHeaderSize()))
	if err != nil {
		return SectionHeader{}, err
	}
	data := bytes.NewReader(content)

	if elfFile.Header.Class == elf.ELFCLASS32 {
		var s ELF32SectionHeader
		if err := binary.Read(data, elfFile.Endianness, &s); err != nil {
			return SectionHeader{}, errors.Wrap(err, "failed reading elf32 section header")
		}
		return SectionHeader{
			Name:           s.Name,
			Type:           elf.SectionType(s.Type),
			Flags:          uint64(s.Flags),
			VirtualAddress: uint64(s.VirtualAddress),
			FileOffset:     uint64(s.FileOffset),
			Size:           uint64(s.Size),
			LinkedIndex:    s.LinkedIndex,
			Info:           s.Info,
			EntrySize:      uint64(s.EntrySize),
		}, nil
	}

	var s ELF64SectionHeader
	if err := binary.Read(data, elfFile.Endianness, &s); err != nil {
		return SectionHeader{}, errors.Wrap(err, "failed reading elf64 section header")
	}
	return SectionHeader{
		Name:           s.Name,
		Type:           elf.SectionType(s.Type),
		Flags:          s.Flags,
		VirtualAddress: s.VirtualAddress,
		FileOffset:     s.FileOffset,
		Size:           s.Size,
		LinkedIndex:    s.LinkedIndex,
		Info:           s.Info,
		EntrySize:      s.EntrySize,
	}, nil
}

func (elfFile *ELFFile) addSection(sections []SectionHeader, namesIndex uint32) {

	elfFile.SectionsTable = SectionsTable{}
	elfFile.SectionsTable.NbEntries = len(sections)
	elfFile.SectionsTable.DataSect = make([]*DataSections,
		elfFile.SectionsTable.NbEntries)

	for i := range sections {
		elfFile.SectionsTable.DataSect[i] = &DataSections{
			SectionHeader: sections[i],
		}
	}

	// Names are only a lookup aid, a broken .shstrtab leaves them empty
	if namesIndex == uint32(elf.SHN_UNDEF) || int(namesIndex) >= len(sections) {
		return
	}
	names, err := elfFile.GetSectionContent(int(namesIndex))
	if err != nil {
		return
	}
	for _, s := range elfFile.SectionsTable.DataSect {
		if name, err := cString(names, uint64(s.SectionHeader.Name)); err == nil {
			s.Name = name
		}
	}
}

// ParseSectionHeaders reads the section header table. A file without one is
// valid and leaves the table empty.
func (elfFile *ELFFile) ParseSectionHeaders() error {

	offset := elfFile.Header.SectionHeaderOffset
	if offset == 0 {
		return nil
	}

	entrySize := uint64(elfFile.Header.SectionHeaderEntrySize)
	if entrySize < uint64(elfFile.sectionHeaderSize()) {
		return errors.Errorf("invalid section header entry size: %d", entrySize)
	}

	count := uint64(elfFile.Header.SectionHeaderEntries)
	namesIndex := uint32(elfFile.Header.SectionNamesTable)

	// Extended numbering keeps the real values in section 0
	if count == 0 || namesIndex == uint32(elf.SHN_XINDEX) {
		first, err := elfFile.readSectionHeader(offset)
		if err != nil {
			return errors.Wrapf(err, "invalid section header offset: 0x%x", offset)
		}
		if count == 0 {
			count = first.Size
		}
		if namesIndex == uint32(elf.SHN_XINDEX) {
			namesIndex = first.LinkedIndex
		}
	}

	if count > uint64(len(elfFile.Raw))/entrySize {
		return errors.Errorf("too many sections: %d", count)
	}
	if _, err := elfFile.slice(offset, count*entrySize); err != nil {
		return errors.Wrapf(err, "section header table (%d entries at 0x%x)", count, offset)
	}

	sections := make([]SectionHeader, count)
	for i := range sections {
		s, err := elfFile.readSectionHeader(offset + uint64(i)*entrySize)
		if err != nil {
			return errors.Wrapf(err, "section %d", i)
		}
		sections[i] = s
	}

	elfFile.addSection(sections, namesIndex)
	return nil
}

// GetSectionContent returns the bytes of a section. Sections that occupy no
// space in the file return an empty slice.
func (elfFile *ELFFile) GetSectionContent(sectionIndex int) ([]byte, error) {

	sectionTable := elfFile.SectionsTable.DataSect
	if sectionIndex < 0 || sectionIndex >= len(sectionTable) {
		return nil, errors.Errorf("invalid section index: %d", sectionIndex)
	}

	s := sectionTable[sectionIndex].SectionHeader
	if s.Type == elf.SHT_NOBITS {
		return []byte{}, nil
	}

	content, err := elfFile.slice(s.FileOffset, s.Size)
	if err != nil {
		return nil, errors.Wrapf(err, "bad bounds for section %d", sectionIndex)
	}
	return content, nil
}

// SectionByType returns the index of the first section of the given type.
func (elfFile *ELFFile) SectionByType(t elf.SectionType) (int, bool) {
	for i, s := range elfFile.SectionsTable.DataSect {
		if s.SectionHeader.Type == t {
			return i, true
		}
	}
	return -1, false
}

// SectionByName returns the index of the first section called name.
func (elfFile *ELFFile) SectionByName(name string) (int, bool) {
	for i, s := range elfFile.SectionsTable.DataSect {
		if s.Name == name {
			return i, true
		}
	}
	return -1, false
}

// sectionByAddress returns the index of the allocated section that starts
// at the virtual address addr.
func (elfFile *ELFFile) sectionByAddress(addr uint64) (int, bool) {
	for i, s := range elfFile.SectionsTable.DataSect {
		if s.SectionHeader.Type != elf.SHT_NULL && s.SectionHeader.Type != elf.SHT_NOBITS &&
			s.SectionHeader.VirtualAddress == addr {
			return i, true
		}
	}
	return -1, false
}
