package tevd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestFixChildCountsRecomputesFromParentCensus builds an archive whose
// root directory's Children list has gone stale (it claims a handle
// that was never linked and omits one that was), then checks that
// FixChildCounts rewrites it from the actual parent-handle census
// instead of trusting the stored list.
func TestFixChildCountsRecomputesFromParentCensus(t *testing.T) {
	a := NewArchive(1024, "hello")

	file := NewFile(Handle(42), RootHandle, "readme", []byte("hi"))
	a.Insert(file)

	orphan := NewFile(Handle(99), RootHandle, "orphan", []byte("lost"))
	a.Insert(orphan)

	root, _ := a.Get(RootHandle)
	// Stale: claims a handle (7) that doesn't exist and omits 42 and 99.
	root.Children = []Handle{Handle(7)}

	encoded, err := a.Save()
	require.NoError(t, err)

	dir := t.TempDir()
	tmpPath := filepath.Join(dir, "stale.tevd")
	fixedPath := filepath.Join(dir, "fixed.tevd")
	require.NoError(t, os.WriteFile(tmpPath, encoded, 0o644))

	require.NoError(t, FixChildCounts(tmpPath, fixedPath))

	fixedBytes, err := os.ReadFile(fixedPath)
	require.NoError(t, err)

	fixed, err := Load(fixedBytes)
	require.NoError(t, err)

	fixedRoot, ok := fixed.Get(RootHandle)
	require.True(t, ok)
	require.ElementsMatch(t, []Handle{Handle(42), Handle(99)}, fixedRoot.Children)
}

// TestFixChildCountsOrdersChildrenByUnsignedHandle checks that the
// repaired Children list is sorted the same way Save and Delete order
// entries (spec §9: unsigned bit-pattern comparison), not by signed
// int32 value.
func TestFixChildCountsOrdersChildrenByUnsignedHandle(t *testing.T) {
	a := NewArchive(1024, "hello")

	negative := NewFile(Handle(-2), RootHandle, "negative", []byte("n"))
	a.Insert(negative)
	positive := NewFile(Handle(5), RootHandle, "positive", []byte("p"))
	a.Insert(positive)

	root, _ := a.Get(RootHandle)
	root.Children = nil // force the repair pass to rebuild it

	encoded, err := a.Save()
	require.NoError(t, err)

	dir := t.TempDir()
	tmpPath := filepath.Join(dir, "stale.tevd")
	fixedPath := filepath.Join(dir, "fixed.tevd")
	require.NoError(t, os.WriteFile(tmpPath, encoded, 0o644))

	require.NoError(t, FixChildCounts(tmpPath, fixedPath))

	fixedBytes, err := os.ReadFile(fixedPath)
	require.NoError(t, err)

	fixed, err := Load(fixedBytes)
	require.NoError(t, err)

	fixedRoot, ok := fixed.Get(RootHandle)
	require.True(t, ok)
	// Handle(5).Raw() == 5, Handle(-2).Raw() == 0xFFFFFFFE, so the
	// positive handle sorts first under unsigned comparison.
	require.Equal(t, []Handle{Handle(5), Handle(-2)}, fixedRoot.Children)
}
