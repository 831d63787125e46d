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

const programDynamic = "PT_DYNAMIC"

type DynamicTable struct {
	NbEntries int
	Name      string
	Entries   []DynamicEntry
	strtab    []byte
}

// DynamicEntry is the class independent view of an Elf32_Dyn/Elf64_Dyn.
type DynamicEntry struct {
	Tag   elf.DynTag
	Value uint64
}

type Elf32Dynamic struct {
	Tag   int32
	Value uint32
}

type Elf64Dynamic struct {
	Tag   int64
	Value uint64
}

// decodeDynamic splits content into dynamic entries, stopping after the
// first DT_NULL. Trailing bytes that do not fill an entry are ignored.
func (elfFile *ELFFile) decodeDynamic(content []byte) ([]DynamicEntry, error) {

	entries := make([]DynamicEntry, 0)
	data := bytes.NewReader(content)

	if elfFile.Header.Class == elf.ELFCLASS32 {
		raw := make([]Elf32Dynamic, len(content)/binary.Size(Elf32Dynamic{}))
		if err := binary.Read(data, elfFile.Endianness, raw); err != nil {
			return nil, errors.Wrap(err, "failed reading elf32 dynamic table")
		}
		for _, d := range raw {
			if d.Tag == int32(elf.DT_NULL) {
				break
			}
			entries = append(entries, DynamicEntry{Tag: elf.DynTag(d.Tag), Value: uint64(d.Value)})
		}
		return entries, nil
	}

	raw := make([]Elf64Dynamic, len(content)/binary.Size(Elf64Dynamic{}))
	if err := binary.Read(data, elfFile.Endianness, raw); err != nil {
		return nil, errors.Wrap(err, "failed reading elf64 dynamic table")
	}
	for _, d := range raw {
		if d.Tag == int64(elf.DT_NULL) {
			break
		}
		entries = append(entries, DynamicEntry{Tag: elf.DynTag(d.Tag), Value: d.Value})
	}
	return entries, nil
}

// lookup returns the value of the first entry tagged tag.
func (table *DynamicTable) lookup(tag elf.DynTag) (uint64, bool) {
	for _, d := range table.Entries {
		if d.Tag == tag {
			return d.Value, true
		}
	}
	return 0, false
}

// stringTableFromAddress locates the table pointed to by DT_STRTAB, first as
// a section starting at that address, then through the PT_LOAD segments.
func (elfFile *ELFFile) stringTableFromAddress(table *DynamicTable) ([]byte, error) {

	addr, ok := table.lookup(elf.DT_STRTAB)
	if !ok {
		return nil, nil
	}

	if index, ok := elfFile.sectionByAddress(addr); ok {
		return elfFile.GetSectionContent(index)
	}

	offset, ok := elfFile.addressToOffset(addr)
	if !ok {
		return nil, errors.Errorf("DT_STRTAB address 0x%x is not mapped by any segment", addr)
	}
	size, ok := table.lookup(elf.DT_STRSZ)
	if !ok {
		size = uint64(len(elfFile.Raw)) - offset
	}
	return elfFile.slice(offset, size)
}

// dynamicStrings resolves the string table of a dynamic section: its sh_link
// when that is a string table, else .dynstr, else the DT_STRTAB address.
func (elfFile *ELFFile) dynamicStrings(index int, table *DynamicTable) ([]byte, error) {

	link := int(elfFile.SectionsTable.DataSect[index].SectionHeader.LinkedIndex)
	if link > 0 && link < len(elfFile.SectionsTable.DataSect) &&
		elfFile.SectionsTable.DataSect[link].SectionHeader.Type == elf.SHT_STRTAB {
		return elfFile.GetSectionContent(link)
	}

	if i, ok := elfFile.SectionByName(dynamicStringTable); ok {
		return elfFile.GetSectionContent(i)
	}

	return elfFile.stringTableFromAddress(table)
}

// ParseDynamic reads the dynamic table from the SHT_DYNAMIC section. Files
// without section headers fall back to the PT_DYNAMIC segment. A file with
// neither keeps a nil DynamicTable.
func (elfFile *ELFFile) ParseDynamic() error {

	elfFile.DynamicTable = nil

	if index, ok := elfFile.SectionByType(elf.SHT_DYNAMIC); ok {
		content, err := elfFile.GetSectionContent(index)
		if err != nil {
			return errors.Wrap(err, "failed reading dynamic section")
		}
		entries, err := elfFile.decodeDynamic(content)
		if err != nil {
			return err
		}
		table := &DynamicTable{
			NbEntries: len(entries),
			Name:      elfFile.SectionsTable.DataSect[index].Name,
			Entries:   entries,
		}
		if table.strtab, err = elfFile.dynamicStrings(index, table); err != nil {
			return errors.Wrap(err, "failed reading dynamic string table")
		}
		elfFile.DynamicTable = table
		return nil
	}

	if elfFile.SectionsTable.NbEntries > 0 {
		return nil
	}

	segment, ok := elfFile.SegmentByType(elf.PT_DYNAMIC)
	if !ok {
		return nil
	}
	content, err := elfFile.slice(segment.FileOffset, segment.FileSize)
	if err != nil {
		return errors.Wrap(err, "failed reading dynamic segment")
	}
	entries, err := elfFile.decodeDynamic(content)
	if err != nil {
		return err
	}
	table := &DynamicTable{
		NbEntries: len(entries),
		Name:      programDynamic,
		Entries:   entries,
	}
	if table.strtab, err = elfFile.stringTableFromAddress(table); err != nil {
		return errors.Wrap(err, "failed reading dynamic string table")
	}
	elfFile.DynamicTable = table
	return nil
}

// ImportedLibraries returns the DT_NEEDED names in on-disk order. A file
// without a dynamic table imports nothing.
func (elfFile *ELFFile) ImportedLibraries() ([]string, error) {

	libs := make([]string, 0)
	if elfFile.DynamicTable == nil {
		return libs, nil
	}

	for i, d := range elfFile.DynamicTable.Entries {
		if d.Tag != elf.DT_NEEDED {
			continue
		}
		if elfFile.DynamicTable.strtab == nil {
			return nil, errors.Errorf("%s has DT_NEEDED entries but no string table",
				elfFile.DynamicTable.Name)
		}
		name, err := cString(elfFile.DynamicTable.strtab, d.Value)
		if err != nil {
			return nil, errors.Wrapf(err, "DT_NEEDED entry %d", i)
		}
		libs = append(libs, name)
	}
	return libs, nil
}
