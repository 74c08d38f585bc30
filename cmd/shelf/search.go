package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/five82/shelf/internal/app"
)

func newSearchCommand(root *rootFlags) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "search [query...]",
		Short: "Run one search and print the matches",
		Long: `Run one search and print the matches.

Words are joined with spaces. A '+' is passed through unchanged, so
"jazz+history" and "jazz history" ask for the same thing. With no query the
configured default_query is used.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := root.options()
			opts.LogWriter = os.Stderr
			if opts.LogLevel == "" {
				opts.LogLevel = "warn"
			}
			return app.Search(cmd.Context(), opts, strings.Join(args, " "), cmd.OutOrStdout(), asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")
	return cmd
}
