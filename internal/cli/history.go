package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/msageha/deskflow/internal/history"
)

// HistoryCmd returns the history command
func HistoryCmd() *cobra.Command {
	var (
		limit  int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "history [session-id]",
		Short: "List finished sessions, or show one with its commands",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := loadLayout()
			if err != nil {
				return err
			}
			store, err := history.Open(l.History())
			if err != nil {
				return err
			}
			defer store.Close()

			ctx := context.Background()
			out := cmd.OutOrStdout()

			if len(args) == 1 {
				sum, ok, err := store.Session(ctx, args[0])
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("session %s not found", args[0])
				}
				return printSession(out, sum, asJSON)
			}

			sessions, err := store.Recent(ctx, limit)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(out, sessions)
			}
			if len(sessions) == 0 {
				fmt.Fprintln(out, "No sessions recorded.")
				return nil
			}
			for _, sum := range sessions {
				fmt.Fprintln(out, historyLine(sum))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of sessions to list")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")

	return cmd
}
