package commit

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{})        {}
func (nopLogger) Error(error, string, ...interface{}) {}

func TestApplyNoRepairCommitsTempAsCurrent(t *testing.T) {
	dir := t.TempDir()
	paths := PathsFor(filepath.Join(dir, "archive.tevd"))

	require.NoError(t, os.WriteFile(paths.Current, []byte("v1"), 0o644))
	require.NoError(t, os.WriteFile(paths.Temp, []byte("v2"), 0o644))

	require.NoError(t, Apply(paths, nil, nopLogger{}))

	got, err := os.ReadFile(paths.Current)
	require.NoError(t, err)
	require.Equal(t, "v2", string(got))

	_, err = os.Stat(paths.Temp)
	require.True(t, os.IsNotExist(err))
	_, err = os.Stat(paths.Old)
	require.True(t, os.IsNotExist(err))
}

func TestApplyFirstCommitWithNoExistingCurrent(t *testing.T) {
	dir := t.TempDir()
	paths := PathsFor(filepath.Join(dir, "archive.tevd"))
	require.NoError(t, os.WriteFile(paths.Temp, []byte("fresh"), 0o644))

	require.NoError(t, Apply(paths, nil, nopLogger{}))

	got, err := os.ReadFile(paths.Current)
	require.NoError(t, err)
	require.Equal(t, "fresh", string(got))
}

func TestApplyRunsRepairPass(t *testing.T) {
	dir := t.TempDir()
	paths := PathsFor(filepath.Join(dir, "archive.tevd"))
	require.NoError(t, os.WriteFile(paths.Current, []byte("v1"), 0o644))
	require.NoError(t, os.WriteFile(paths.Temp, []byte("unrepaired"), 0o644))

	repair := func(tmpPath, tmp2Path string) error {
		return os.WriteFile(tmp2Path, []byte("repaired"), 0o644)
	}
	require.NoError(t, Apply(paths, repair, nopLogger{}))

	got, err := os.ReadFile(paths.Current)
	require.NoError(t, err)
	require.Equal(t, "repaired", string(got))

	_, err = os.Stat(paths.Temp2)
	require.True(t, os.IsNotExist(err))
}

func TestApplyRollsBackWhenReplaceFails(t *testing.T) {
	dir := t.TempDir()
	paths := PathsFor(filepath.Join(dir, "archive.tevd"))
	require.NoError(t, os.WriteFile(paths.Current, []byte("v1"), 0o644))
	// paths.Temp is deliberately absent: replaceWithFile's os.Open fails.

	err := Apply(paths, nil, nopLogger{})
	require.Error(t, err)

	var commitErr *Error
	require.ErrorAs(t, err, &commitErr)
	require.Equal(t, "replace", commitErr.Stage)

	got, readErr := os.ReadFile(paths.Current)
	require.NoError(t, readErr)
	require.Equal(t, "v1", string(got), "current must be restored after a failed replace")
}

func TestApplyRemovesStaleBackupFromPriorCrash(t *testing.T) {
	dir := t.TempDir()
	paths := PathsFor(filepath.Join(dir, "archive.tevd"))
	require.NoError(t, os.WriteFile(paths.Current, []byte("v1"), 0o644))
	require.NoError(t, os.WriteFile(paths.Temp, []byte("v2"), 0o644))
	require.NoError(t, os.WriteFile(paths.Old, []byte("stale"), 0o644))

	require.NoError(t, Apply(paths, nil, nopLogger{}))

	got, err := os.ReadFile(paths.Current)
	require.NoError(t, err)
	require.Equal(t, "v2", string(got))
}
