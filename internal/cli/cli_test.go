package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msageha/deskflow/internal/engine"
	"github.com/msageha/deskflow/internal/model"
	"github.com/msageha/deskflow/internal/setup"
	atomicyaml "github.com/msageha/deskflow/internal/yaml"
)

func noColor(t *testing.T) {
	t.Helper()
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })
}

// tempHome points DESKFLOW_DIR at a short /tmp directory.
func tempHome(t *testing.T) setup.Layout {
	t.Helper()
	dir, err := os.MkdirTemp("/tmp", "df-cli-")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	t.Setenv(setup.DirEnv, dir)
	return setup.Layout{Base: dir}
}

func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestParseLogLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"loud":    slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseLogLevel(in), in)
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "warn", true)

	logger.Info("hidden_event")
	logger.Warn("run_log_write_failed", "event", "run_started", "error", errors.New("disk full"))

	out := buf.String()
	assert.NotContains(t, out, "hidden_event")
	assert.Contains(t, out, "run_log_write_failed")
	assert.Contains(t, out, "disk full")
}

func sampleSummary() engine.Summary {
	created := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	finished := created.Add(1500 * time.Millisecond)
	return engine.Summary{
		ID:           "run_1",
		Mode:         model.ExecutionSerial,
		WorkflowID:   "wf-workspace",
		WorkflowName: "Workspace",
		Trigger:      "keyboard",
		State:        model.SessionFailedPartial,
		Total:        2,
		Succeeded:    1,
		Failed:       1,
		CreatedAt:    created,
		FinishedAt:   &finished,
		Commands: []engine.CommandSummary{
			{CommandID: "a", Name: "Terminal", Kind: model.KindApplication, Status: model.CommandSucceeded, DurationMs: 120},
			{CommandID: "b", Name: "Open /tmp/missing", Kind: model.KindOpen, Status: model.CommandFailed, Error: "path not found: /tmp/missing", DurationMs: 1},
		},
	}
}

func TestPrintSummary(t *testing.T) {
	noColor(t)
	var buf bytes.Buffer
	printSummary(&buf, sampleSummary())

	out := buf.String()
	assert.Contains(t, out, "Session run_1 [failed_partial]")
	assert.Contains(t, out, "Workflow: Workspace (wf-workspace)")
	assert.Contains(t, out, "(trigger: keyboard)")
	assert.Contains(t, out, "Took:     1.5s")
	assert.Contains(t, out, "1/2 succeeded, 1 failed")
	assert.Contains(t, out, "✗ open")
	assert.Contains(t, out, "path not found: /tmp/missing")
}

func TestHistoryLine(t *testing.T) {
	noColor(t)
	sum := sampleSummary()
	line := historyLine(sum)
	assert.Contains(t, line, "run_1")
	assert.Contains(t, line, "Workspace (wf-workspace)")
	assert.True(t, strings.HasSuffix(line, "1/2"))

	sum.WorkflowID, sum.WorkflowName = "", ""
	assert.Contains(t, historyLine(sum), "(batch)")
}

func TestModeFlag(t *testing.T) {
	assert.Equal(t, model.ExecutionSerial, modeFlag(true, false))
	assert.Equal(t, model.ExecutionConcurrent, modeFlag(false, true))
	assert.Equal(t, model.ExecutionMode(""), modeFlag(false, false))
}

func TestExecRequest(t *testing.T) {
	cfg, err := setup.DecodeConfig([]byte(`
workflows:
  - id: wf-desk
    name: Desk
    execution: concurrent
    commands:
      - kind: systemCommand
        id: d1
        system: showDesktop
      - kind: systemCommand
        id: d2
        system: missionControl
        enabled: false
`))
	require.NoError(t, err)

	req, err := execRequest(cfg, []string{"desk"}, nil, "")
	require.NoError(t, err)
	assert.Equal(t, "wf-desk", req.WorkflowID)
	assert.Equal(t, model.ExecutionConcurrent, req.Mode)
	assert.Len(t, req.Commands, 1)

	req, err = execRequest(cfg, []string{"wf-desk"}, nil, model.ExecutionSerial)
	require.NoError(t, err)
	assert.Equal(t, model.ExecutionSerial, req.Mode)

	req, err = execRequest(cfg, nil, []byte("- kind: open\n  id: x\n  path: /tmp\n"), "")
	require.NoError(t, err)
	assert.Equal(t, model.ExecutionSerial, req.Mode)
	assert.Empty(t, req.WorkflowID)
	assert.Len(t, req.Commands, 1)

	_, err = execRequest(cfg, []string{"nope"}, nil, "")
	assert.Error(t, err)
	_, err = execRequest(cfg, nil, nil, "")
	assert.Error(t, err)
}

func TestStatus_OfflineUsesLastRun(t *testing.T) {
	noColor(t)
	l := tempHome(t)

	out, err := execute(t, StatusCmd(), "--json")
	require.NoError(t, err)
	var report statusReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.False(t, report.Running)
	assert.Nil(t, report.Last)

	require.NoError(t, os.MkdirAll(l.StateDir(), 0700))
	require.NoError(t, atomicyaml.AtomicWrite(l.LastRun(), sampleSummary()))

	out, err = execute(t, StatusCmd())
	require.NoError(t, err)
	assert.Contains(t, out, "Daemon: not running")
	assert.Contains(t, out, "Session run_1 [failed_partial]")
}

func TestStatus_OfflineQuarantinesCorruptLastRun(t *testing.T) {
	l := tempHome(t)
	require.NoError(t, os.MkdirAll(l.StateDir(), 0700))
	require.NoError(t, os.WriteFile(l.LastRun(), []byte("state: [\n"), 0600))

	out, err := execute(t, StatusCmd(), "--json")
	require.NoError(t, err)
	var report statusReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Nil(t, report.Last)
	assert.FileExists(t, report.Quarantined)
	assert.NoFileExists(t, l.LastRun())
}

func TestPrintStatus_Running(t *testing.T) {
	noColor(t)
	cur := sampleSummary()
	cur.State = model.SessionRunning
	var buf bytes.Buffer
	printStatus(&buf, statusReport{Running: true, PID: 42, StartedAt: "2026-05-04T10:00:00Z", Workflows: 3, Current: &cur})

	out := buf.String()
	assert.Contains(t, out, "running (pid 42")
	assert.Contains(t, out, "3 workflows")
	assert.Contains(t, out, "Current:")
	assert.Contains(t, out, "No finished session yet.")
}

func TestSetupCmd(t *testing.T) {
	noColor(t)
	l := tempHome(t)

	out, err := execute(t, SetupCmd())
	require.NoError(t, err)
	assert.Contains(t, out, "Initialized "+l.Base)
	_, err = os.Stat(l.Config())
	require.NoError(t, err)

	_, err = execute(t, SetupCmd())
	require.Error(t, err)
	assert.ErrorIs(t, err, setup.ErrExists)
	assert.Contains(t, err.Error(), "--force")

	_, err = execute(t, SetupCmd(), "--force")
	require.NoError(t, err)
}

func TestRunCmd_ArgumentErrors(t *testing.T) {
	tempHome(t)

	_, err := execute(t, RunCmd())
	assert.EqualError(t, err, "workflow id or name required")

	_, err = execute(t, RunCmd(), "wf", "--file", "batch.yaml")
	assert.EqualError(t, err, "give either a workflow or --file, not both")

	_, err = execute(t, RunCmd(), "wf", "--serial", "--concurrent")
	assert.Error(t, err)
}

func TestRunCmd_DaemonNotRunning(t *testing.T) {
	tempHome(t)
	_, err := execute(t, RunCmd(), "wf-workspace")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "deskflow daemon")
}

func TestHistoryCmd_Empty(t *testing.T) {
	tempHome(t)
	out, err := execute(t, HistoryCmd())
	require.NoError(t, err)
	assert.Contains(t, out, "No sessions recorded.")

	_, err = execute(t, HistoryCmd(), "run_missing")
	assert.EqualError(t, err, "session run_missing not found")
}

func TestVersionCmd(t *testing.T) {
	out, err := execute(t, VersionCmd())
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "deskflow "+Version))
}
