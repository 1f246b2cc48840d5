package setup

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msageha/deskflow/internal/model"
)

func TestRun_CreatesLayout(t *testing.T) {
	l := Layout{Base: filepath.Join(t.TempDir(), "df")}
	require.NoError(t, Run(l, false))

	for _, d := range []string{l.Base, l.LogsDir(), filepath.Join(l.LogsDir(), "archive"), l.StateDir()} {
		info, err := os.Stat(d)
		require.NoError(t, err, d)
		assert.True(t, info.IsDir(), d)
	}

	data, err := os.ReadFile(l.Config())
	require.NoError(t, err)
	tmpl, err := DefaultConfig()
	require.NoError(t, err)
	assert.Equal(t, tmpl, data, "comments survive")
}

func TestRun_RefusesToOverwrite(t *testing.T) {
	l := Layout{Base: t.TempDir()}
	require.NoError(t, os.WriteFile(l.Config(), []byte("workflows: []\n"), 0600))

	err := Run(l, false)
	assert.ErrorIs(t, err, ErrExists)

	require.NoError(t, Run(l, true))
	bak, err := os.ReadFile(l.Config() + ".bak")
	require.NoError(t, err)
	assert.Equal(t, "workflows: []\n", string(bak))
}

func TestDefaultConfigIsValid(t *testing.T) {
	l := Layout{Base: t.TempDir()}
	require.NoError(t, Run(l, false))

	cfg, err := LoadConfig(l.Config())
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.Engine.SettleDelayMs)
	assert.Equal(t, "/bin/zsh", cfg.Engine.Shell)
	require.NotEmpty(t, cfg.Workflows)

	wf, ok := model.FindWorkflow(cfg.Workflows, "workspace")
	require.True(t, ok)
	assert.Equal(t, model.ExecutionSerial, wf.Execution)
	ks, err := model.ParseKeySpec("~@w")
	require.NoError(t, err)
	assert.True(t, wf.MatchesShortcut(ks))
}

func TestLoadConfig_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadConfig(filepath.Join(dir, "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	dup := filepath.Join(dir, "dup.yaml")
	require.NoError(t, os.WriteFile(dup, []byte("workflows:\n  - id: a\n    commands: []\n  - id: a\n    commands: []\n"), 0600))
	_, err = LoadConfig(dup)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate workflow id")

	blank := filepath.Join(dir, "blank.yaml")
	require.NoError(t, os.WriteFile(blank, []byte(" \n\t\n"), 0600))
	_, err = LoadConfig(blank)
	assert.ErrorIs(t, err, ErrEmptyConfig)
}

func TestDecodeConfig_AppliesDefaults(t *testing.T) {
	cfg, err := DecodeConfig([]byte("{}"))
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Engine.KeyGapMs)
	assert.Equal(t, 500, cfg.Triggers.ApplicationPollMs)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestDecodeBatch(t *testing.T) {
	cmds, err := DecodeBatch([]byte(`
- kind: open
  id: a
  path: /tmp
- kind: type
  id: b
  input: hi
  enabled: false
- kind: systemCommand
  id: c
  system: showDesktop
`))
	require.NoError(t, err)
	require.Len(t, cmds, 2, "disabled command dropped")
	assert.Equal(t, "a", cmds[0].Meta().ID)
	assert.Equal(t, model.KindSystem, cmds[1].Kind())

	_, err = DecodeBatch([]byte("- kind: open\n  id: x\n"))
	assert.Error(t, err, "open without path")

	_, err = DecodeBatch([]byte("- kind: teleport\n  id: x\n"))
	assert.Error(t, err)
}

func TestDefaultLayout(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(DirEnv, dir)
	l, err := DefaultLayout()
	require.NoError(t, err)
	assert.Equal(t, dir, l.Base)
	assert.Equal(t, filepath.Join(dir, "daemon.sock"), l.Socket())
	assert.Equal(t, filepath.Join(dir, "logs", "runs.jsonl"), l.RunLog())
	assert.Equal(t, filepath.Join(dir, "state", "last_run.yaml"), l.LastRun())

	t.Setenv(DirEnv, "")
	l, err = DefaultLayout()
	require.NoError(t, err)
	assert.Equal(t, ".deskflow", filepath.Base(l.Base))
}
