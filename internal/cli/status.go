package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/msageha/deskflow/internal/engine"
	"github.com/msageha/deskflow/internal/setup"
	"github.com/msageha/deskflow/internal/uds"
	atomicyaml "github.com/msageha/deskflow/internal/yaml"
)

type statusReport struct {
	Running   bool            `json:"running"`
	PID       int             `json:"pid,omitempty"`
	StartedAt string          `json:"started_at,omitempty"`
	Workflows int             `json:"workflows,omitempty"`
	Current   *engine.Summary `json:"current,omitempty"`
	Last      *engine.Summary `json:"last,omitempty"`

	Quarantined string `json:"quarantined,omitempty"`
}

func reportFromDaemon(res uds.StatusResult) statusReport {
	return statusReport{
		Running:   true,
		PID:       res.PID,
		StartedAt: res.StartedAt,
		Workflows: res.Workflows,
		Current:   res.Current,
		Last:      res.Last,
	}
}

// offlineReport describes a stopped daemon from the last run it saved.
// A corrupt last_run.yaml is quarantined and its backup used instead.
func offlineReport(l setup.Layout) (statusReport, error) {
	var last engine.Summary
	moved, err := atomicyaml.ReadOrRecover(l.StateDir(), l.LastRun(), &last)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return statusReport{Quarantined: moved}, nil
	case err != nil:
		return statusReport{}, err
	}
	return statusReport{Last: &last, Quarantined: moved}, nil
}

func printStatus(w io.Writer, r statusReport) {
	if r.Running {
		fmt.Fprintf(w, "Daemon: %s (pid %d, since %s, %d workflows)\n",
			green.Sprint("running"), r.PID, r.StartedAt, r.Workflows)
	} else {
		fmt.Fprintf(w, "Daemon: %s\n", red.Sprint("not running"))
	}
	if r.Quarantined != "" {
		fmt.Fprintf(w, "%s last_run.yaml was corrupt, moved to %s\n", yellow.Sprint("!"), r.Quarantined)
	}
	fmt.Fprintln(w)

	if r.Current != nil {
		fmt.Fprintln(w, "Current:")
		printSummary(w, *r.Current)
		fmt.Fprintln(w)
	}
	if r.Last != nil {
		fmt.Fprintln(w, "Last:")
		printSummary(w, *r.Last)
	} else {
		fmt.Fprintln(w, "No finished session yet.")
	}
}

// StatusCmd returns the status command
func StatusCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the daemon, the running session and the last one",
		Long: `Show whether the daemon is running, the session in flight and the
last finished session. With the daemon stopped, the last session saved in
state/last_run.yaml is shown.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := loadLayout()
			if err != nil {
				return err
			}

			var report statusReport
			var res uds.StatusResult
			err = newClient(l).Call(uds.CommandStatus, nil, &res)
			switch {
			case err == nil:
				report = reportFromDaemon(res)
			case errors.Is(err, uds.ErrDaemonNotRunning):
				if report, err = offlineReport(l); err != nil {
					return err
				}
			default:
				return err
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), report)
			}
			printStatus(cmd.OutOrStdout(), report)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")

	return cmd
}
