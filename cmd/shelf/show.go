package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/five82/shelf/internal/app"
)

func newShowCommand(root *rootFlags) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print one volume in full",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := root.options()
			opts.LogWriter = os.Stderr
			if opts.LogLevel == "" {
				opts.LogLevel = "warn"
			}
			return app.Show(cmd.Context(), opts, args[0], cmd.OutOrStdout(), asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}
