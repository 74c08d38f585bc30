package main

import (
	"github.com/spf13/cobra"

	"github.com/five82/shelf/internal/app"
)

type rootFlags struct {
	configPath  string
	prefsPath   string
	logLevel    string
	metricsAddr string
}

func (f *rootFlags) options() app.Options {
	return app.Options{
		ConfigPath:  f.configPath,
		PrefsPath:   f.prefsPath,
		LogLevel:    f.logLevel,
		MetricsAddr: f.metricsAddr,
	}
}

func newRootCommand() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:   "shelf",
		Short: "Browse books from the terminal",
		Long: `shelf searches a Google Books compatible catalogue.

Run without a subcommand to open the interactive browser. Settings are read
from ~/.config/shelf/config.toml when present.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.Run(cmd.Context(), flags.options())
		},
	}

	pf := cmd.PersistentFlags()
	pf.StringVar(&flags.configPath, "config", "", "config file (default ~/.config/shelf/config.toml)")
	pf.StringVar(&flags.prefsPath, "prefs", "", "prefs file (default ~/.config/shelf/prefs.toml)")
	pf.StringVar(&flags.logLevel, "log-level", "", "override log_level (trace, debug, info, warn, error)")
	cmd.Flags().StringVar(&flags.metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address while browsing")

	cmd.AddCommand(
		newSearchCommand(flags),
		newShowCommand(flags),
		newLogsCommand(flags),
	)
	return cmd
}
