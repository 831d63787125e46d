package scantool

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"elfdeps/srcs/binarytool/elfcore"
)

func TestAggregateOrdersByCount(t *testing.T) {
	facts := []Fact{
		{FilePath: "fileA", LibraryName: "libX", Architecture: elfcore.X86_64},
		{FilePath: "fileB", LibraryName: "libX", Architecture: elfcore.X86_64},
		{FilePath: "fileC", LibraryName: "libY", Architecture: elfcore.X86_64},
	}

	report := Aggregate(facts)
	require.Len(t, report.Architectures, 1)
	libs := report.Architectures[0].Libraries
	require.Len(t, libs, 2)
	assert.Equal(t, "libX", libs[0].LibraryName)
	assert.Equal(t, 2, libs[0].Count())
	assert.Equal(t, []string{"fileA", "fileB"}, libs[0].ReferencingFiles)
	assert.Equal(t, "libY", libs[1].LibraryName)
	assert.Equal(t, 1, libs[1].Count())
}

func TestAggregateTieBreakByName(t *testing.T) {
	facts := []Fact{
		{FilePath: "f1", LibraryName: "libz.so.1", Architecture: elfcore.ARM},
		{FilePath: "f1", LibraryName: "libc.so.6", Architecture: elfcore.ARM},
		{FilePath: "f1", LibraryName: "libm.so.6", Architecture: elfcore.ARM},
	}

	libs := Aggregate(facts).Architectures[0].Libraries
	names := []string{libs[0].LibraryName, libs[1].LibraryName, libs[2].LibraryName}
	assert.Equal(t, []string{"libc.so.6", "libm.so.6", "libz.so.1"}, names)
}

func TestAggregateArchitectureOrderAndPartition(t *testing.T) {
	facts := []Fact{
		{FilePath: "x", LibraryName: "libc.so.6", Architecture: elfcore.X86_64},
		{FilePath: "r", LibraryName: "libc.so.6", Architecture: elfcore.RISCV},
		{FilePath: "u", LibraryName: "libc.so.6", Architecture: elfcore.Architecture(0x4242)},
		{FilePath: "a", LibraryName: "libc.so.6", Architecture: elfcore.AArch64},
	}

	report := Aggregate(facts)
	var archs []elfcore.Architecture
	for _, ar := range report.Architectures {
		archs = append(archs, ar.Architecture)
		require.Len(t, ar.Libraries, 1)
		assert.Equal(t, ar.Architecture, ar.Libraries[0].Architecture)
		assert.Equal(t, 1, ar.Libraries[0].Count())
	}
	assert.Equal(t, []elfcore.Architecture{
		elfcore.AArch64, elfcore.RISCV, elfcore.Architecture(0x4242), elfcore.X86_64,
	}, archs)
}

func TestAggregateDropsSentinels(t *testing.T) {
	report := Aggregate([]Fact{
		{FilePath: "d", LibraryName: "libc.so.6", Architecture: elfcore.Directory},
		{FilePath: "u", LibraryName: "libc.so.6", Architecture: elfcore.Unparsable},
	})
	assert.Empty(t, report.Architectures)
}

func TestAggregateCountsFileOncePerLibrary(t *testing.T) {
	report := Aggregate([]Fact{
		{FilePath: "f", LibraryName: "libc.so.6", Architecture: elfcore.X86_64},
		{FilePath: "f", LibraryName: "libc.so.6", Architecture: elfcore.X86_64},
	})
	assert.Equal(t, 1, report.Architectures[0].Libraries[0].Count())
}

func TestAggregateIdempotent(t *testing.T) {
	facts := []Fact{
		{FilePath: "/bin/ls", LibraryName: "libc.so.6", Architecture: elfcore.X86_64},
		{FilePath: "/bin/ls", LibraryName: "libselinux.so.1", Architecture: elfcore.X86_64},
		{FilePath: "/bin/cat", LibraryName: "libc.so.6", Architecture: elfcore.X86_64},
		{FilePath: "/opt/arm/tool", LibraryName: "libc.so.6", Architecture: elfcore.AArch64},
		{FilePath: "/opt/arm/tool", LibraryName: "libm.so.6", Architecture: elfcore.AArch64},
		{FilePath: "/opt/arm/other", LibraryName: "libm.so.6", Architecture: elfcore.AArch64},
	}

	first := Aggregate(facts)
	second := Aggregate(first.Facts())
	assert.Equal(t, first, second)
}

func TestAggregateEmpty(t *testing.T) {
	report := Aggregate(nil)
	assert.NotNil(t, report.Architectures)
	assert.Empty(t, report.Architectures)
}

func TestReportFilter(t *testing.T) {
	report := Aggregate([]Fact{
		{FilePath: "x", LibraryName: "libc.so.6", Architecture: elfcore.X86_64},
		{FilePath: "a", LibraryName: "libc.so.6", Architecture: elfcore.AArch64},
	})

	filtered := report.Filter([]elfcore.Architecture{elfcore.X86_64})
	require.Len(t, filtered.Architectures, 1)
	assert.Equal(t, elfcore.X86_64, filtered.Architectures[0].Architecture)
	assert.Len(t, report.Architectures, 2)

	assert.Len(t, report.Filter(nil).Architectures, 2)
}
