// Package cli implements the deskflow cobra commands.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/lmittmann/tint"

	"github.com/msageha/deskflow/internal/engine"
	"github.com/msageha/deskflow/internal/model"
	"github.com/msageha/deskflow/internal/setup"
	"github.com/msageha/deskflow/internal/uds"
)

// Version is set at build time via ldflags.
var Version = "dev"

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// newLogger returns a tint handler logger. Error attributes are
// highlighted unless noColor is set.
func newLogger(w io.Writer, level string, noColor bool) *slog.Logger {
	handler := tint.NewHandler(w, &tint.Options{
		Level:      parseLogLevel(level),
		TimeFormat: "2006-01-02 15:04:05.000Z07:00",
		NoColor:    noColor,
		ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
			if a.Value.Kind() == slog.KindAny {
				if _, ok := a.Value.Any().(error); ok {
					return tint.Attr(9, a)
				}
			}
			return a
		},
	})
	return slog.New(handler)
}

func loadLayout() (setup.Layout, error) {
	return setup.DefaultLayout()
}

func loadConfig(l setup.Layout) (model.Config, error) {
	cfg, err := setup.LoadConfig(l.Config())
	if errors.Is(err, os.ErrNotExist) {
		return model.Config{}, fmt.Errorf("%s not found. Run 'deskflow setup' first", l.Config())
	}
	return cfg, err
}

func newClient(l setup.Layout) *uds.Client {
	return uds.NewClient(l.Socket())
}

var (
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed)
	faint  = color.New(color.Faint)
)

func stateLabel(s model.SessionState) string {
	switch s {
	case model.SessionCompleted:
		return green.Sprint(string(s))
	case model.SessionFailedPartial:
		return red.Sprint(string(s))
	case model.SessionCancelled:
		return yellow.Sprint(string(s))
	default:
		return string(s)
	}
}

func statusMark(s model.CommandStatus) string {
	switch s {
	case model.CommandSucceeded:
		return green.Sprint("✓")
	case model.CommandFailed:
		return red.Sprint("✗")
	case model.CommandAborted:
		return yellow.Sprint("!")
	default:
		return faint.Sprint("·")
	}
}

func workflowLabel(sum engine.Summary) string {
	switch {
	case sum.WorkflowName != "" && sum.WorkflowID != "":
		return fmt.Sprintf("%s (%s)", sum.WorkflowName, sum.WorkflowID)
	case sum.WorkflowID != "":
		return sum.WorkflowID
	default:
		return "(batch)"
	}
}

// printSummary writes a session and its commands.
func printSummary(w io.Writer, sum engine.Summary) {
	fmt.Fprintf(w, "Session %s [%s]\n", sum.ID, stateLabel(sum.State))
	fmt.Fprintf(w, "  Workflow: %s\n", workflowLabel(sum))
	fmt.Fprintf(w, "  Mode:     %s", sum.Mode)
	if sum.Trigger != "" {
		fmt.Fprintf(w, " (trigger: %s)", sum.Trigger)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Started:  %s\n", sum.CreatedAt.Local().Format(time.DateTime))
	if sum.FinishedAt != nil {
		fmt.Fprintf(w, "  Took:     %s\n", sum.FinishedAt.Sub(sum.CreatedAt).Round(time.Millisecond))
	}
	fmt.Fprintf(w, "  Commands: %d/%d succeeded", sum.Succeeded, sum.Total)
	if sum.Failed > 0 {
		fmt.Fprintf(w, ", %d failed", sum.Failed)
	}
	if sum.Aborted > 0 {
		fmt.Fprintf(w, ", %d aborted", sum.Aborted)
	}
	fmt.Fprintln(w)

	for _, c := range sum.Commands {
		fmt.Fprintf(w, "    %s %-12s %s %s\n", statusMark(c.Status), c.Kind, c.Name, faint.Sprintf("%dms", c.DurationMs))
		if c.Error != "" {
			fmt.Fprintf(w, "        %s\n", red.Sprint(c.Error))
		}
	}
}

// historyLine renders one row of `deskflow history`.
func historyLine(sum engine.Summary) string {
	return fmt.Sprintf("%s  %s  %-14s %-24s %d/%d",
		sum.CreatedAt.Local().Format(time.DateTime),
		sum.ID,
		stateLabel(sum.State),
		workflowLabel(sum),
		sum.Succeeded, sum.Total)
}
