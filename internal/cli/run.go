package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/msageha/deskflow/internal/engine"
	"github.com/msageha/deskflow/internal/model"
	"github.com/msageha/deskflow/internal/uds"
)

// modeFlag maps --serial/--concurrent to an execution mode; empty keeps
// the workflow's own.
func modeFlag(serial, concurrent bool) model.ExecutionMode {
	switch {
	case serial:
		return model.ExecutionSerial
	case concurrent:
		return model.ExecutionConcurrent
	default:
		return ""
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printSession(w io.Writer, sum engine.Summary, asJSON bool) error {
	if asJSON {
		return writeJSON(w, sum)
	}
	printSummary(w, sum)
	return nil
}

// RunCmd returns the run command
func RunCmd() *cobra.Command {
	var (
		serial, concurrent bool
		file               string
		wait, asJSON       bool
		timeout            time.Duration
	)

	cmd := &cobra.Command{
		Use:   "run [workflow]",
		Short: "Run a workflow, or a YAML command batch, in the daemon",
		Long: `Start a workflow by id or name. Any session already running is cancelled.

With --file the commands are read from a YAML list instead ("-" reads
stdin). --wait blocks until the session finished and exits non-zero
unless every command succeeded.`,
		Example: `  deskflow run wf-workspace
  deskflow run "Clean desk" --serial --wait
  deskflow run --file batch.yaml --concurrent`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			params := uds.RunParams{Mode: modeFlag(serial, concurrent), Wait: wait}
			switch {
			case file != "" && len(args) > 0:
				return errors.New("give either a workflow or --file, not both")
			case file != "":
				data, err := readBatch(cmd, file)
				if err != nil {
					return err
				}
				params.Batch = string(data)
			case len(args) == 1:
				params.WorkflowID = args[0]
			default:
				return errors.New("workflow id or name required")
			}

			l, err := loadLayout()
			if err != nil {
				return err
			}
			client := newClient(l)
			if wait {
				client.SetTimeout(timeout)
			}

			var sum engine.Summary
			if err := client.Call(uds.CommandRun, params, &sum); err != nil {
				return err
			}
			if err := printSession(cmd.OutOrStdout(), sum, asJSON); err != nil {
				return err
			}
			if wait && sum.State != model.SessionCompleted {
				return fmt.Errorf("session %s ended %s", sum.ID, sum.State)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&serial, "serial", false, "Run serially with a settle delay between commands")
	cmd.Flags().BoolVar(&concurrent, "concurrent", false, "Run without settle delays")
	cmd.MarkFlagsMutuallyExclusive("serial", "concurrent")
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML command list to run instead of a workflow")
	cmd.Flags().BoolVarP(&wait, "wait", "w", false, "Wait for the session to finish")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Minute, "How long --wait may take")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the session as JSON")

	return cmd
}

func readBatch(cmd *cobra.Command, file string) ([]byte, error) {
	if file == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read batch: %w", err)
	}
	return data, nil
}

// TriggerCmd returns the trigger command
func TriggerCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "trigger <keyspec>",
		Short: "Fire the workflow bound to a keyboard shortcut",
		Long: `Fire the enabled workflow whose keyboard trigger matches keyspec.
Modifier symbols come first: $ shift, ^ control, ~ option, @ command,
fn function. For example "~@w" is option-command-W.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := loadLayout()
			if err != nil {
				return err
			}
			var sum engine.Summary
			if err := newClient(l).Call(uds.CommandTrigger, uds.TriggerParams{Shortcut: args[0]}, &sum); err != nil {
				return err
			}
			return printSession(cmd.OutOrStdout(), sum, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the session as JSON")

	return cmd
}

// CancelCmd returns the cancel command
func CancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel",
		Short: "Cancel the running session",
		Long: `Cancel the running session. Cancellation is cooperative: a command
already inside a system call may still complete, later commands never start.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := loadLayout()
			if err != nil {
				return err
			}
			var res uds.CancelResult
			if err := newClient(l).Call(uds.CommandCancel, nil, &res); err != nil {
				return err
			}
			if !res.Cancelled {
				fmt.Fprintln(cmd.OutOrStdout(), "No session running")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Cancelled %s\n", yellow.Sprint("!"), res.SessionID)
			return nil
		},
	}
}

// RevealCmd returns the reveal command
func RevealCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reveal <workflow>",
		Short: "Show a workflow's applications, files and scripts in Finder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := loadLayout()
			if err != nil {
				return err
			}
			if err := newClient(l).Call(uds.CommandReveal, uds.RevealParams{WorkflowID: args[0]}, nil); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Revealed %s\n", green.Sprint("✓"), args[0])
			return nil
		},
	}
}

// ReloadCmd returns the reload command
func ReloadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reload",
		Short: "Make the daemon re-read config.yaml",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := loadLayout()
			if err != nil {
				return err
			}
			var res uds.ReloadResult
			if err := newClient(l).Call(uds.CommandReload, nil, &res); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Reloaded %d workflows\n", green.Sprint("✓"), res.Workflows)
			return nil
		},
	}
}

// StopCmd returns the stop command
func StopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Shut the daemon down gracefully",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := loadLayout()
			if err != nil {
				return err
			}
			if err := newClient(l).Call(uds.CommandShutdown, nil, nil); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Daemon stopping")
			return nil
		},
	}
}
