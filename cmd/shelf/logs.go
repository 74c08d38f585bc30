package main

import (
	"github.com/spf13/cobra"

	"github.com/five82/shelf/internal/app"
)

func newLogsCommand(root *rootFlags) *cobra.Command {
	logsOpts := app.LogsOptions{}

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Print recent entries from the shelf log file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.Logs(root.options(), logsOpts, cmd.OutOrStdout())
		},
	}
	cmd.Flags().IntVarP(&logsOpts.Lines, "lines", "n", 50, "number of entries to print")
	cmd.Flags().StringVar(&logsOpts.Level, "level", "", "minimum level to print")
	cmd.Flags().StringVar(&logsOpts.Session, "session", "", "only entries from this session id")
	return cmd
}
