package runner

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msageha/deskflow/internal/model"
)

func openCmd(path string) model.OpenCommand {
	return model.OpenCommand{MetaData: model.MetaData{ID: "o", IsEnabled: true}, Path: path}
}

func TestOpenRunner_MissingPath(t *testing.T) {
	opener := &fakeOpener{}
	r := NewOpenRunner(opener)

	err := r.Run(context.Background(), openCmd(filepath.Join(t.TempDir(), "missing")))
	var re *ResolutionError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "path", re.Target)
	assert.Empty(t, opener.opened)
}

func TestOpenRunner_ExistingPathWithApplication(t *testing.T) {
	opener := &fakeOpener{}
	r := NewOpenRunner(opener)
	dir := t.TempDir()
	file := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))

	cmd := openCmd(file)
	cmd.Application = &model.Application{BundleIdentifier: "com.apple.TextEdit"}
	require.NoError(t, r.Run(context.Background(), cmd))

	require.Len(t, opener.opened, 1)
	assert.Equal(t, file, opener.opened[0].target)
	assert.Equal(t, "com.apple.TextEdit", opener.opened[0].app.BundleIdentifier)
}

func TestOpenRunner_URLSkipsStat(t *testing.T) {
	opener := &fakeOpener{}
	r := NewOpenRunner(opener)

	require.NoError(t, r.Run(context.Background(), openCmd("https://example.com/a?b=c")))
	assert.Equal(t, "https://example.com/a?b=c", opener.opened[0].target)
}

func TestResolveOpenTarget(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	tests := []struct {
		raw    string
		target string
		isURL  bool
	}{
		{"https://example.com", "https://example.com", true},
		{"x-apple.systempreferences:com.apple.preference.security", "x-apple.systempreferences:com.apple.preference.security", true},
		{"file:///tmp/a%20b", "/tmp/a b", false},
		{"/tmp", "/tmp", false},
		{"~/Downloads", filepath.Join(home, "Downloads"), false},
		{"~", home, false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			target, isURL, err := ResolveOpenTarget(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.target, target)
			assert.Equal(t, tt.isURL, isURL)
		})
	}

	_, _, err = ResolveOpenTarget("  ")
	assert.ErrorIs(t, err, ErrNotFound)
}
