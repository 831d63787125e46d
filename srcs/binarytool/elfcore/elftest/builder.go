// Copyright 2019 The UNICORE Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file

// Package elftest builds small synthetic ELF images for tests.
package elftest

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"os"
)

const baseAddress = 0x400000

// Options describes the image to build. The zero value is a 64-bit
// little-endian x86-64 image with an empty dynamic table.
type Options struct {
	Class     elf.Class
	ByteOrder binary.ByteOrder
	Machine   elf.Machine
	Needed    []string
	// Static leaves out the dynamic table and PT_DYNAMIC.
	Static bool
	// NoSectionHeaders leaves only the program headers.
	NoSectionHeaders bool
	// NoDynamicLink leaves sh_link of .dynamic at 0.
	NoDynamicLink bool
}

// Image is a built ELF file along with the offsets tests patch to corrupt it.
type Image struct {
	Bytes         []byte
	Class         elf.Class
	ByteOrder     binary.ByteOrder
	DynamicOffset uint64
}

type layout struct {
	is64      bool
	ehsize    int
	phentsize int
	shentsize int
	dynsize   int
	align     int
}

func newLayout(class elf.Class) layout {
	if class == elf.ELFCLASS32 {
		return layout{ehsize: 52, phentsize: 32, shentsize: 40, dynsize: 8, align: 4}
	}
	return layout{is64: true, ehsize: 64, phentsize: 56, shentsize: 64, dynsize: 16, align: 8}
}

func alignUp(v, a int) int {
	return (v + a - 1) / a * a
}

type section struct {
	name    string
	typ     elf.SectionType
	flags   elf.SectionFlag
	off     int
	size    int
	link    uint32
	entsize int
}

// Build lays out an ELF image described by opts.
func Build(opts Options) *Image {

	if opts.Class == elf.ELFCLASSNONE {
		opts.Class = elf.ELFCLASS64
	}
	if opts.ByteOrder == nil {
		opts.ByteOrder = binary.LittleEndian
	}
	if opts.Machine == elf.EM_NONE {
		opts.Machine = elf.EM_X86_64
	}
	l := newLayout(opts.Class)

	phnum := 1
	if !opts.Static {
		phnum++
	}
	phoff := l.ehsize
	off := phoff + phnum*l.phentsize

	sections := []section{{}}
	var dynstr []byte
	var dynstrOff, dynOff, dynSize int
	var needOffsets []int

	if opts.Static {
		sections = append(sections, section{name: ".text", typ: elf.SHT_PROGBITS,
			flags: elf.SHF_ALLOC | elf.SHF_EXECINSTR, off: off, size: 16})
		off += 16
	} else {
		dynstr = []byte{0}
		for _, name := range opts.Needed {
			needOffsets = append(needOffsets, len(dynstr))
			dynstr = append(dynstr, name...)
			dynstr = append(dynstr, 0)
		}
		dynstrOff = off
		off = alignUp(off+len(dynstr), l.align)
		dynOff = off
		dynSize = (len(opts.Needed) + 3) * l.dynsize
		off += dynSize

		link := uint32(1)
		if opts.NoDynamicLink {
			link = 0
		}
		sections = append(sections,
			section{name: ".dynstr", typ: elf.SHT_STRTAB, flags: elf.SHF_ALLOC,
				off: dynstrOff, size: len(dynstr)},
			section{name: ".dynamic", typ: elf.SHT_DYNAMIC, flags: elf.SHF_ALLOC | elf.SHF_WRITE,
				off: dynOff, size: dynSize, link: link, entsize: l.dynsize})
	}

	shstrtab := []byte{0}
	nameOffsets := make([]int, len(sections)+1)
	for i, s := range append(sections, section{name: ".shstrtab"}) {
		if s.name == "" {
			continue
		}
		nameOffsets[i] = len(shstrtab)
		shstrtab = append(shstrtab, s.name...)
		shstrtab = append(shstrtab, 0)
	}
	sections = append(sections, section{name: ".shstrtab", typ: elf.SHT_STRTAB,
		off: off, size: len(shstrtab)})
	shstrOff := off
	off = alignUp(off+len(shstrtab), l.align)

	shoff, shnum, shstrndx := 0, 0, 0
	if !opts.NoSectionHeaders {
		shoff = off
		shnum = len(sections)
		shstrndx = len(sections) - 1
		off += shnum * l.shentsize
	}
	total := off

	img := &Image{
		Bytes:         make([]byte, total),
		Class:         opts.Class,
		ByteOrder:     opts.ByteOrder,
		DynamicOffset: uint64(dynOff),
	}

	var ident [elf.EI_NIDENT]byte
	copy(ident[:], elf.ELFMAG)
	ident[elf.EI_CLASS] = byte(opts.Class)
	if opts.ByteOrder == binary.BigEndian {
		ident[elf.EI_DATA] = byte(elf.ELFDATA2MSB)
	} else {
		ident[elf.EI_DATA] = byte(elf.ELFDATA2LSB)
	}
	ident[elf.EI_VERSION] = byte(elf.EV_CURRENT)

	if l.is64 {
		img.put(0, elf.Header64{
			Ident: ident, Type: uint16(elf.ET_DYN), Machine: uint16(opts.Machine),
			Version: uint32(elf.EV_CURRENT), Entry: baseAddress,
			Phoff: uint64(phoff), Shoff: uint64(shoff),
			Ehsize: uint16(l.ehsize), Phentsize: uint16(l.phentsize), Phnum: uint16(phnum),
			Shentsize: uint16(l.shentsize), Shnum: uint16(shnum), Shstrndx: uint16(shstrndx),
		})
		img.put(phoff, elf.Prog64{Type: uint32(elf.PT_LOAD), Flags: uint32(elf.PF_R | elf.PF_X),
			Vaddr: baseAddress, Paddr: baseAddress, Filesz: uint64(total), Memsz: uint64(total), Align: 0x1000})
		if !opts.Static {
			img.put(phoff+l.phentsize, elf.Prog64{Type: uint32(elf.PT_DYNAMIC), Flags: uint32(elf.PF_R | elf.PF_W),
				Off: uint64(dynOff), Vaddr: baseAddress + uint64(dynOff), Paddr: baseAddress + uint64(dynOff),
				Filesz: uint64(dynSize), Memsz: uint64(dynSize), Align: 8})
		}
	} else {
		img.put(0, elf.Header32{
			Ident: ident, Type: uint16(elf.ET_DYN), Machine: uint16(opts.Machine),
			Version: uint32(elf.EV_CURRENT), Entry: baseAddress,
			Phoff: uint32(phoff), Shoff: uint32(shoff),
			Ehsize: uint16(l.ehsize), Phentsize: uint16(l.phentsize), Phnum: uint16(phnum),
			Shentsize: uint16(l.shentsize), Shnum: uint16(shnum), Shstrndx: uint16(shstrndx),
		})
		img.put(phoff, elf.Prog32{Type: uint32(elf.PT_LOAD), Flags: uint32(elf.PF_R | elf.PF_X),
			Vaddr: baseAddress, Paddr: baseAddress, Filesz: uint32(total), Memsz: uint32(total), Align: 0x1000})
		if !opts.Static {
			img.put(phoff+l.phentsize, elf.Prog32{Type: uint32(elf.PT_DYNAMIC), Flags: uint32(elf.PF_R | elf.PF_W),
				Off: uint32(dynOff), Vaddr: baseAddress + uint32(dynOff), Paddr: baseAddress + uint32(dynOff),
				Filesz: uint32(dynSize), Memsz: uint32(dynSize), Align: 4})
		}
	}

	if !opts.Static {
		copy(img.Bytes[dynstrOff:], dynstr)
		type dyn struct {
			tag elf.DynTag
			val uint64
		}
		entries := make([]dyn, 0, len(opts.Needed)+3)
		for _, o := range needOffsets {
			entries = append(entries, dyn{elf.DT_NEEDED, uint64(o)})
		}
		entries = append(entries,
			dyn{elf.DT_STRTAB, baseAddress + uint64(dynstrOff)},
			dyn{elf.DT_STRSZ, uint64(len(dynstr))},
			dyn{elf.DT_NULL, 0})
		for i, d := range entries {
			if l.is64 {
				img.put(dynOff+i*l.dynsize, elf.Dyn64{Tag: int64(d.tag), Val: d.val})
			} else {
				img.put(dynOff+i*l.dynsize, elf.Dyn32{Tag: int32(d.tag), Val: uint32(d.val)})
			}
		}
	}

	copy(img.Bytes[shstrOff:], shstrtab)

	if !opts.NoSectionHeaders {
		for i, s := range sections {
			if i == 0 {
				continue
			}
			addr := uint64(0)
			if s.flags&elf.SHF_ALLOC != 0 {
				addr = baseAddress + uint64(s.off)
			}
			at := shoff + i*l.shentsize
			if l.is64 {
				img.put(at, elf.Section64{Name: uint32(nameOffsets[i]), Type: uint32(s.typ),
					Flags: uint64(s.flags), Addr: addr, Off: uint64(s.off), Size: uint64(s.size),
					Link: s.link, Addralign: 1, Entsize: uint64(s.entsize)})
			} else {
				img.put(at, elf.Section32{Name: uint32(nameOffsets[i]), Type: uint32(s.typ),
					Flags: uint32(s.flags), Addr: uint32(addr), Off: uint32(s.off), Size: uint32(s.size),
					Link: s.link, Addralign: 1, Entsize: uint32(s.entsize)})
			}
		}
	}

	return img
}

func (img *Image) put(off int, v interface{}) {
	var b bytes.Buffer
	if err := binary.Write(&b, img.ByteOrder, v); err != nil {
		panic(err)
	}
	copy(img.Bytes[off:], b.Bytes())
}

// SetSectionHeaderOffset overwrites e_shoff.
func (img *Image) SetSectionHeaderOffset(shoff uint64) {
	if img.Class == elf.ELFCLASS32 {
		img.ByteOrder.PutUint32(img.Bytes[0x20:], uint32(shoff))
		return
	}
	img.ByteOrder.PutUint64(img.Bytes[0x28:], shoff)
}

// SetDynamicValue overwrites the value of the i-th dynamic entry. NEEDED
// entries come first, in the order they were given.
func (img *Image) SetDynamicValue(i int, value uint64) {
	if img.Class == elf.ELFCLASS32 {
		img.ByteOrder.PutUint32(img.Bytes[img.DynamicOffset+uint64(i)*8+4:], uint32(value))
		return
	}
	img.ByteOrder.PutUint64(img.Bytes[img.DynamicOffset+uint64(i)*16+8:], value)
}

// WriteFile stores the image at path with executable permissions.
func (img *Image) WriteFile(path string) error {
	return os.WriteFile(path, img.Bytes, 0o755)
}
