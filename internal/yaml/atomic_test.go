package yaml

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lastRun struct {
	SessionID string `yaml:"session_id"`
	State     string `yaml:"state"`
	Total     int    `yaml:"total"`
}

func TestAtomicWrite_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "last_run.yaml")

	want := lastRun{SessionID: "run_1", State: "completed", Total: 3}
	require.NoError(t, AtomicWrite(path, want))

	var got lastRun
	require.NoError(t, ReadFile(path, &got))
	assert.Equal(t, want, got)
}

func TestAtomicWrite_KeepsBackup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "last_run.yaml")

	require.NoError(t, AtomicWrite(path, lastRun{SessionID: "run_1"}))
	require.NoError(t, AtomicWrite(path, lastRun{SessionID: "run_2"}))

	var bak, cur lastRun
	require.NoError(t, ReadFile(path+".bak", &bak))
	require.NoError(t, ReadFile(path, &cur))
	assert.Equal(t, "run_1", bak.SessionID)
	assert.Equal(t, "run_2", cur.SessionID)
}

func TestAtomicWriteRaw_PreservesComments(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := []byte("# keep me\nengine:\n  key_gap_ms: 2\n")

	require.NoError(t, AtomicWriteRaw(path, content))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, content, data)
}

func TestAtomicWriteRaw_InvalidYAMLLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	err := AtomicWriteRaw(path, []byte(":\n  broken: [\n"))
	require.ErrorIs(t, err, ErrInvalid)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "no target and no temp file")
}

func TestReadFile_Errors(t *testing.T) {
	dir := t.TempDir()
	err := ReadFile(filepath.Join(dir, "missing.yaml"), &lastRun{})
	assert.True(t, os.IsNotExist(err))

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("total: [oops"), 0644))
	err = ReadFile(bad, &lastRun{})
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "parse bad.yaml"))
}
