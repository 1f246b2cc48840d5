package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/msageha/deskflow/internal/cli"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "deskflow",
		Short:   "deskflow - keyboard and application triggered desktop workflows for macOS",
		Version: cli.Version,
		Long: `deskflow runs workflows: ordered lists of commands that launch or quit
applications, open files and URLs, run scripts and shortcuts, type text,
press keys and move window focus. The daemon runs one session at a time;
starting a new one cancels the previous.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(cli.SetupCmd())
	rootCmd.AddCommand(cli.DaemonCmd())
	rootCmd.AddCommand(cli.StopCmd())

	// Session commands
	rootCmd.AddCommand(cli.RunCmd())
	rootCmd.AddCommand(cli.TriggerCmd())
	rootCmd.AddCommand(cli.CancelCmd())
	rootCmd.AddCommand(cli.StatusCmd())
	rootCmd.AddCommand(cli.RevealCmd())
	rootCmd.AddCommand(cli.ReloadCmd())
	rootCmd.AddCommand(cli.ExecCmd())
	rootCmd.AddCommand(cli.HistoryCmd())
	rootCmd.AddCommand(cli.VersionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
