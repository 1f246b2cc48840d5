package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/msageha/deskflow/internal/setup"
)

// SetupCmd returns the setup command
func SetupCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Create the deskflow directory and default config.yaml",
		Long: `Create ~/.deskflow (or $DESKFLOW_DIR) with logs/, state/ and a commented
default config.yaml. An existing config is kept unless --force is given,
in which case it is saved as config.yaml.bak.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := loadLayout()
			if err != nil {
				return err
			}
			if err := setup.Run(l, force); err != nil {
				if errors.Is(err, setup.ErrExists) {
					return fmt.Errorf("%w (use --force to overwrite)", err)
				}
				return fmt.Errorf("setup: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Initialized %s\n", green.Sprint("✓"), l.Base)
			fmt.Fprintf(cmd.OutOrStdout(), "  Edit %s, then start the daemon with: deskflow daemon\n", l.Config())
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing config.yaml")

	return cmd
}
