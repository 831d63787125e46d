package scantool

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func walkPaths(t *testing.T, root string, recursive bool) ([]string, *WarningLog) {
	t.Helper()
	log := new(WarningLog)
	var paths []string
	err := NewWalker(root, recursive, log).Walk(func(e Entry) error {
		rel, err := filepath.Rel(root, e.Path)
		require.NoError(t, err)
		paths = append(paths, rel)
		return nil
	})
	require.NoError(t, err)
	return paths, log
}

func makeTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub", "deeper"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a"), []byte("a"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sub", "b"), []byte("b"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "sub", "deeper", "c"), []byte("c"), 0o644))
	return root
}

func TestWalkNonRecursiveYieldsDirectories(t *testing.T) {
	root := makeTree(t)
	paths, log := walkPaths(t, root, false)
	assert.Equal(t, []string{"a", "sub"}, paths)
	assert.Equal(t, 0, log.Len())
}

func TestWalkRecursive(t *testing.T) {
	root := makeTree(t)
	paths, log := walkPaths(t, root, true)
	assert.Equal(t, []string{"a", filepath.Join("sub", "b"), filepath.Join("sub", "deeper", "c")}, paths)
	assert.Equal(t, 0, log.Len())
}

func TestWalkRootUnreadable(t *testing.T) {
	err := NewWalker(filepath.Join(t.TempDir(), "missing"), true, new(WarningLog)).
		Walk(func(Entry) error { return nil })
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRootUnreadable))
}

func TestWalkSingleFileRoot(t *testing.T) {
	root := makeTree(t)
	var got []Entry
	err := NewWalker(filepath.Join(root, "a"), false, new(WarningLog)).Walk(func(e Entry) error {
		got = append(got, e)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].IsRegular())
}

func TestWalkBrokenSymlinkIsWarning(t *testing.T) {
	root := makeTree(t)
	require.NoError(t, os.Symlink(filepath.Join(root, "nowhere"), filepath.Join(root, "0-broken")))

	paths, log := walkPaths(t, root, true)
	assert.Equal(t, []string{"a", filepath.Join("sub", "b"), filepath.Join("sub", "deeper", "c")}, paths)

	records := log.Records()
	require.Len(t, records, 1)
	assert.Equal(t, filepath.Join(root, "0-broken"), records[0].Path)
	assert.Equal(t, EntryUnreadable, records[0].Kind)
	assert.True(t, errors.Is(records[0].Err(), ErrEntryUnreadable))
}

func TestWalkUnreadableSubdirectory(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permissions are not enforced for root")
	}
	root := makeTree(t)
	locked := filepath.Join(root, "sub", "deeper")
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o755) })

	paths, log := walkPaths(t, root, true)
	assert.Equal(t, []string{"a", filepath.Join("sub", "b")}, paths)
	assert.Equal(t, 1, log.Len())
}

func TestWalkStopsOnCallbackError(t *testing.T) {
	root := makeTree(t)
	stop := errors.New("stop")
	calls := 0
	err := NewWalker(root, true, new(WarningLog)).Walk(func(Entry) error {
		calls++
		return stop
	})
	assert.Equal(t, stop, err)
	assert.Equal(t, 1, calls)
}
