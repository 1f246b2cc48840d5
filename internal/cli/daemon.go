package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/msageha/deskflow/internal/daemon"
)

// DaemonCmd returns the daemon command
func DaemonCmd() *cobra.Command {
	var toStderr bool

	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run the deskflow daemon in the foreground",
		Long: `Run the daemon: it serves the CLI over ~/.deskflow/daemon.sock, runs
workflows one session at a time, reloads config.yaml on change and fires
application-triggered workflows. Logs go to logs/daemon.log unless
--stderr is given. SIGINT or SIGTERM stops it gracefully.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := loadLayout()
			if err != nil {
				return err
			}
			cfg, err := loadConfig(l)
			if err != nil {
				return err
			}

			var out io.Writer = os.Stderr
			noColor := false
			if !toStderr {
				if err := os.MkdirAll(l.LogsDir(), 0700); err != nil {
					return fmt.Errorf("create log dir: %w", err)
				}
				f, err := os.OpenFile(l.DaemonLog(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
				if err != nil {
					return fmt.Errorf("open daemon log: %w", err)
				}
				defer f.Close()
				out = f
				noColor = true
			}
			logger := newLogger(out, cfg.Logging.Level, noColor)

			d, err := daemon.New(l, cfg, logger)
			if err != nil {
				return fmt.Errorf("create daemon: %w", err)
			}
			d.SetVersion(Version)
			if err := d.Run(); err != nil {
				return fmt.Errorf("daemon: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&toStderr, "stderr", false, "Log to stderr with colors instead of logs/daemon.log")

	return cmd
}
