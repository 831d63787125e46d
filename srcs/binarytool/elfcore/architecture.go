// Copyright 2019 The UNICORE Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file

package elfcore

import (
	"debug/elf"
	"fmt"
	"strings"
)

// Architecture identifies the target machine of an ELF file. Non-negative
// values hold the raw e_machine code; negative values are sentinels that do
// not come from an ELF header.
type Architecture int32

// Sentinels.
const (
	// Unparsable means the bytes could not be read as a valid ELF header.
	Unparsable Architecture = -2
	// Directory means the path is a directory, decided before any byte is read.
	Directory Architecture = -1
)

// Known machines.
const (
	I386      = Architecture(elf.EM_386)
	X86_64    = Architecture(elf.EM_X86_64)
	ARM       = Architecture(elf.EM_ARM)
	AArch64   = Architecture(elf.EM_AARCH64)
	RISCV     = Architecture(elf.EM_RISCV)
	PPC       = Architecture(elf.EM_PPC)
	PPC64     = Architecture(elf.EM_PPC64)
	MIPS      = Architecture(elf.EM_MIPS)
	S390      = Architecture(elf.EM_S390)
	SPARC     = Architecture(elf.EM_SPARC)
	SPARCV9   = Architecture(elf.EM_SPARCV9)
	IA64      = Architecture(elf.EM_IA_64)
	M68K      = Architecture(elf.EM_68K)
	SH        = Architecture(elf.EM_SH)
	Alpha     = Architecture(elf.EM_ALPHA)
	LoongArch = Architecture(elf.EM_LOONGARCH)
)

var archNames = map[Architecture]string{
	I386:      "i386",
	X86_64:    "x86-64",
	ARM:       "ARM",
	AArch64:   "AArch64",
	RISCV:     "RISC-V",
	PPC:       "PowerPC",
	PPC64:     "PowerPC64",
	MIPS:      "MIPS",
	S390:      "S390",
	SPARC:     "SPARC",
	SPARCV9:   "SPARCv9",
	IA64:      "IA-64",
	M68K:      "M68K",
	SH:        "SuperH",
	Alpha:     "Alpha",
	LoongArch: "LoongArch",
}

// FromMachine maps an e_machine code to its Architecture. Codes missing from
// the known table are still valid architectures and print as Unknown(code).
func FromMachine(machine elf.Machine) Architecture {
	return Architecture(uint16(machine))
}

// IsSentinel reports whether a is Directory or Unparsable.
func (a Architecture) IsSentinel() bool {
	return a < 0
}

// Known reports whether a is one of the named machines.
func (a Architecture) Known() bool {
	_, ok := archNames[a]
	return ok
}

// Machine returns the e_machine code behind a. The boolean is false for
// sentinels.
func (a Architecture) Machine() (elf.Machine, bool) {
	if a.IsSentinel() {
		return 0, false
	}
	return elf.Machine(a), true
}

func (a Architecture) String() string {
	switch a {
	case Directory:
		return "Directory"
	case Unparsable:
		return "Unparsable"
	}
	if name, ok := archNames[a]; ok {
		return name
	}
	return fmt.Sprintf("Unknown(%d)", int32(a))
}

// MarshalText lets architectures be used as JSON values and keys.
func (a Architecture) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// ParseArchitecture resolves a display name (case-insensitive) or an
// Unknown(code) string back to an Architecture.
func ParseArchitecture(name string) (Architecture, error) {
	name = strings.TrimSpace(name)
	for arch, archName := range archNames {
		if strings.EqualFold(archName, name) {
			return arch, nil
		}
	}

	var code int32
	if _, err := fmt.Sscanf(name, "Unknown(%d)", &code); err == nil &&
		code >= 0 && code <= 0xffff {
		return Architecture(code), nil
	}

	return Unparsable, fmt.Errorf("unknown architecture name: %q", name)
}
