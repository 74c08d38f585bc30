package app

import (
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/five82/shelf/internal/config"
	"github.com/five82/shelf/internal/logtail"
)

// LogsOptions select which entries Logs prints.
type LogsOptions struct {
	Lines   int
	Level   string // minimum level; empty keeps every level
	Session string
}

// Logs prints the newest entries of the configured log file.
func Logs(opts Options, logsOpts LogsOptions, out io.Writer) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	filter := logtail.Filter{Session: strings.TrimSpace(logsOpts.Session)}
	if level := strings.TrimSpace(logsOpts.Level); level != "" {
		lvl, err := logrus.ParseLevel(level)
		if err != nil {
			return fmt.Errorf("invalid level: %w", err)
		}
		filter.MinLevel = &lvl
	}

	lines, err := logtail.Read(cfg.LogFile, logsOpts.Lines, filter)
	if err != nil {
		return err
	}
	if len(lines) == 0 {
		_, err := fmt.Fprintf(out, "no log entries in %s\n", cfg.LogFile)
		return err
	}
	_, err = io.WriteString(out, strings.Join(lines, "\n")+"\n")
	return err
}
