package elfcore_test

import (
	"debug/elf"
	"encoding/binary"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"elfdeps/srcs/binarytool/elfcore"
	"elfdeps/srcs/binarytool/elfcore/elftest"
)

func TestClassifyShortBuffers(t *testing.T) {
	full := elftest.Build(elftest.Options{Needed: []string{"libc.so.6"}}).Bytes
	for n := 0; n < 64; n++ {
		assert.Equal(t, elfcore.Unparsable, elfcore.Classify(full[:n]), "prefix of %d bytes", n)
	}
	assert.Equal(t, elfcore.X86_64, elfcore.Classify(full[:64]))
}

func TestClassifyShort32BitHeader(t *testing.T) {
	full := elftest.Build(elftest.Options{Class: elf.ELFCLASS32, Machine: elf.EM_386}).Bytes
	assert.Equal(t, elfcore.Unparsable, elfcore.Classify(full[:51]))
	assert.Equal(t, elfcore.I386, elfcore.Classify(full[:52]))
}

func TestClassifyNotElf(t *testing.T) {
	assert.Equal(t, elfcore.Unparsable, elfcore.Classify(nil))
	assert.Equal(t, elfcore.Unparsable, elfcore.Classify([]byte("#!/bin/sh\necho hello world, this is not an ELF file at all....\n")))

	raw := elftest.Build(elftest.Options{}).Bytes
	raw[elf.EI_CLASS] = 7
	assert.Equal(t, elfcore.Unparsable, elfcore.Classify(raw))

	raw = elftest.Build(elftest.Options{}).Bytes
	raw[elf.EI_DATA] = 0
	assert.Equal(t, elfcore.Unparsable, elfcore.Classify(raw))
}

func TestClassifyMachines(t *testing.T) {
	tests := []struct {
		name    string
		opts    elftest.Options
		want    elfcore.Architecture
		display string
	}{
		{"x86-64 LE", elftest.Options{Machine: elf.EM_X86_64}, elfcore.X86_64, "x86-64"},
		{"i386", elftest.Options{Class: elf.ELFCLASS32, Machine: elf.EM_386}, elfcore.I386, "i386"},
		{"aarch64", elftest.Options{Machine: elf.EM_AARCH64}, elfcore.AArch64, "AArch64"},
		{"arm BE", elftest.Options{Class: elf.ELFCLASS32, ByteOrder: binary.BigEndian, Machine: elf.EM_ARM}, elfcore.ARM, "ARM"},
		{"ppc64 BE", elftest.Options{ByteOrder: binary.BigEndian, Machine: elf.EM_PPC64}, elfcore.PPC64, "PowerPC64"},
		{"riscv", elftest.Options{Machine: elf.EM_RISCV}, elfcore.RISCV, "RISC-V"},
		{"unknown", elftest.Options{Machine: elf.Machine(0x4242)}, elfcore.Architecture(0x4242), "Unknown(16962)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			arch := elfcore.Classify(elftest.Build(tt.opts).Bytes)
			assert.Equal(t, tt.want, arch)
			assert.Equal(t, tt.display, arch.String())
			assert.False(t, arch.IsSentinel())
		})
	}
}

func TestUnknownIsNotUnparsable(t *testing.T) {
	arch := elfcore.Classify(elftest.Build(elftest.Options{Machine: elf.Machine(0x4242)}).Bytes)
	assert.NotEqual(t, elfcore.Unparsable, arch)
	assert.False(t, arch.Known())
	m, ok := arch.Machine()
	require.True(t, ok)
	assert.Equal(t, elf.Machine(0x4242), m)
}

func TestExtractNeededInOrder(t *testing.T) {
	classes := []elf.Class{elf.ELFCLASS32, elf.ELFCLASS64}
	orders := []binary.ByteOrder{binary.LittleEndian, binary.BigEndian}

	for _, class := range classes {
		for _, order := range orders {
			t.Run(class.String()+"/"+order.String(), func(t *testing.T) {
				raw := elftest.Build(elftest.Options{
					Class:     class,
					ByteOrder: order,
					Needed:    []string{"libc.so.6", "libm.so.6"},
				}).Bytes

				arch := elfcore.Classify(raw)
				libs, err := elfcore.Extract(raw, arch)
				require.NoError(t, err)
				assert.Equal(t, []string{"libc.so.6", "libm.so.6"}, libs)
			})
		}
	}
}

func TestExtractStaticBinary(t *testing.T) {
	raw := elftest.Build(elftest.Options{Static: true}).Bytes
	libs, err := elfcore.Extract(raw, elfcore.Classify(raw))
	require.NoError(t, err)
	assert.Empty(t, libs)

	raw = elftest.Build(elftest.Options{Static: true, NoSectionHeaders: true}).Bytes
	libs, err = elfcore.Extract(raw, elfcore.Classify(raw))
	require.NoError(t, err)
	assert.Empty(t, libs)
}

func TestExtractWithoutSectionHeaders(t *testing.T) {
	for _, class := range []elf.Class{elf.ELFCLASS32, elf.ELFCLASS64} {
		raw := elftest.Build(elftest.Options{
			Class:            class,
			NoSectionHeaders: true,
			Needed:           []string{"libpthread.so.0", "libc.so.6"},
		}).Bytes

		libs, err := elfcore.Extract(raw, elfcore.Classify(raw))
		require.NoError(t, err, class.String())
		assert.Equal(t, []string{"libpthread.so.0", "libc.so.6"}, libs)
	}
}

func TestExtractDynstrByName(t *testing.T) {
	raw := elftest.Build(elftest.Options{
		NoDynamicLink: true,
		Needed:        []string{"libz.so.1"},
	}).Bytes

	libs, err := elfcore.Extract(raw, elfcore.Classify(raw))
	require.NoError(t, err)
	assert.Equal(t, []string{"libz.so.1"}, libs)
}

func TestExtractMalformed(t *testing.T) {
	t.Run("section headers beyond file", func(t *testing.T) {
		img := elftest.Build(elftest.Options{Needed: []string{"libc.so.6"}})
		img.SetSectionHeaderOffset(uint64(len(img.Bytes)) + 0x1000)

		_, err := elfcore.Extract(img.Bytes, elfcore.Classify(img.Bytes))
		require.Error(t, err)
		assert.True(t, errors.Is(err, elfcore.ErrMalformedDynamicSection))
	})

	t.Run("needed name outside string table", func(t *testing.T) {
		for _, class := range []elf.Class{elf.ELFCLASS32, elf.ELFCLASS64} {
			img := elftest.Build(elftest.Options{Class: class, Needed: []string{"libc.so.6"}})
			img.SetDynamicValue(0, 0xffff)

			_, err := elfcore.Extract(img.Bytes, elfcore.Classify(img.Bytes))
			require.Error(t, err)
			assert.True(t, errors.Is(err, elfcore.ErrMalformedDynamicSection))
		}
	})

	t.Run("truncated file", func(t *testing.T) {
		raw := elftest.Build(elftest.Options{Needed: []string{"libc.so.6"}}).Bytes
		raw = raw[:len(raw)-10]

		_, err := elfcore.Extract(raw, elfcore.Classify(raw))
		require.Error(t, err)
		assert.True(t, errors.Is(err, elfcore.ErrMalformedDynamicSection))
	})
}

func TestExtractRejectsSentinels(t *testing.T) {
	raw := elftest.Build(elftest.Options{Needed: []string{"libc.so.6"}}).Bytes
	_, err := elfcore.Extract(raw, elfcore.Directory)
	assert.Error(t, err)
	_, err = elfcore.Extract(raw, elfcore.Unparsable)
	assert.Error(t, err)
}

func TestParseArchitecture(t *testing.T) {
	arch, err := elfcore.ParseArchitecture("x86-64")
	require.NoError(t, err)
	assert.Equal(t, elfcore.X86_64, arch)

	arch, err = elfcore.ParseArchitecture(" aarch64 ")
	require.NoError(t, err)
	assert.Equal(t, elfcore.AArch64, arch)

	arch, err = elfcore.ParseArchitecture("Unknown(16962)")
	require.NoError(t, err)
	assert.Equal(t, elfcore.Architecture(0x4242), arch)

	_, err = elfcore.ParseArchitecture("vax-ish")
	assert.Error(t, err)
}
