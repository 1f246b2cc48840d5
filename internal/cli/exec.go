package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/msageha/deskflow/internal/daemon"
	"github.com/msageha/deskflow/internal/engine"
	"github.com/msageha/deskflow/internal/history"
	"github.com/msageha/deskflow/internal/model"
	"github.com/msageha/deskflow/internal/platform"
	"github.com/msageha/deskflow/internal/setup"
)

// execRequest resolves the workflow or batch file `exec` was given.
func execRequest(cfg model.Config, args []string, batch []byte, mode model.ExecutionMode) (engine.RunRequest, error) {
	if batch != nil {
		cmds, err := setup.DecodeBatch(batch)
		if err != nil {
			return engine.RunRequest{}, err
		}
		if mode == "" {
			mode = model.ExecutionSerial
		}
		return engine.RunRequest{Mode: mode, Commands: cmds, Trigger: "exec"}, nil
	}
	if len(args) == 0 {
		return engine.RunRequest{}, errors.New("workflow id or name required")
	}
	wf, ok := model.FindWorkflow(cfg.Workflows, args[0])
	if !ok {
		return engine.RunRequest{}, fmt.Errorf("workflow %q not found", args[0])
	}
	if mode == "" {
		mode = wf.Execution
	}
	return engine.RunRequest{
		Mode:         mode,
		Commands:     wf.Resolve(),
		WorkflowID:   wf.ID,
		WorkflowName: wf.Name,
		Trigger:      "exec",
	}, nil
}

// ExecCmd returns the exec command
func ExecCmd() *cobra.Command {
	var (
		serial, concurrent bool
		file               string
		asJSON, verbose    bool
	)

	cmd := &cobra.Command{
		Use:   "exec [workflow]",
		Short: "Run a workflow in this process, without the daemon",
		Long: `Run a workflow (or --file batch) in this process and wait for it.
Ctrl-C cancels the session. The session is recorded in history when
history is enabled; the daemon's single-session guarantee does not cover
it.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := loadLayout()
			if err != nil {
				return err
			}
			cfg, err := loadConfig(l)
			if err != nil {
				return err
			}

			var batch []byte
			if file != "" {
				if len(args) > 0 {
					return errors.New("give either a workflow or --file, not both")
				}
				if batch, err = readBatch(cmd, file); err != nil {
					return err
				}
			}
			req, err := execRequest(cfg, args, batch, modeFlag(serial, concurrent))
			if err != nil {
				return err
			}

			level := cfg.Logging.Level
			if verbose {
				level = "debug"
			}
			logger := newLogger(cmd.ErrOrStderr(), level, false)

			eng, err := daemon.NewEngine(cfg.Engine, platform.New(cfg.Engine.Shell), nil, nil, logger)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			coord := engine.NewCoordinator(eng, engine.CoordinatorOptions{
				Base:        ctx,
				SettleDelay: time.Duration(cfg.Engine.SettleDelayMs) * time.Millisecond,
				Logger:      logger,
			})
			if cfg.History.Enabled {
				store, err := history.Open(l.History())
				if err != nil {
					return err
				}
				defer store.Close()
				coord.OnFinish(store.OnFinish(cfg.History.MaxEntries, logger))
			}

			sess := coord.Start(req)
			<-sess.Done()

			sum := sess.Summary()
			if err := printSession(cmd.OutOrStdout(), sum, asJSON); err != nil {
				return err
			}
			if sum.State != model.SessionCompleted {
				return fmt.Errorf("session %s ended %s", sum.ID, sum.State)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&serial, "serial", false, "Run serially with a settle delay between commands")
	cmd.Flags().BoolVar(&concurrent, "concurrent", false, "Run without settle delays")
	cmd.MarkFlagsMutuallyExclusive("serial", "concurrent")
	cmd.Flags().StringVarP(&file, "file", "f", "", "YAML command list to run instead of a workflow")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the session as JSON")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log every step")

	return cmd
}
