package admin

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewMigrateCommand(opts *RootOptions, connect Connector) *cobra.Command {
	cmd := &cobra.Command{
		Use:       "migrate <up|down>",
		Short:     "Apply all pending migrations or roll back the latest one",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"up", "down"},
		RunE: func(cmd *cobra.Command, args []string) error {
			if args[0] != "up" && args[0] != "down" {
				return fmt.Errorf("unknown direction %q, want up or down", args[0])
			}

			b, err := opts.open(cmd.Context(), connect)
			if err != nil {
				return err
			}
			defer b.Close()

			if args[0] == "up" {
				err = b.MigrateUp(cmd.Context())
			} else {
				err = b.MigrateDown(cmd.Context())
			}
			if err != nil {
				return fmt.Errorf("migrate %s: %w", args[0], err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "migrate %s: done\n", args[0])
			return nil
		},
	}
	return cmd
}
