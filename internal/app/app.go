package app

import (
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/five82/shelf/internal/books"
	"github.com/five82/shelf/internal/config"
	"github.com/five82/shelf/internal/logger"
	"github.com/five82/shelf/internal/metrics"
	"github.com/five82/shelf/internal/state"
)

// Options configure a shelf command.
type Options struct {
	ConfigPath  string
	PrefsPath   string    // empty uses default ~/.config/shelf/prefs.toml
	LogLevel    string    // overrides log_level when set
	MetricsAddr string    // serve /metrics here during the interactive session
	LogWriter   io.Writer // one-shot commands log here instead of the log file
}

// Env holds what every command shares once configuration is loaded.
type Env struct {
	Config  config.Config
	Log     *logrus.Entry
	Client  *books.Client
	Metrics *metrics.Metrics
	Policy  state.EmptyPolicy

	closer io.Closer
}

// Setup loads configuration and builds the logger, client and metrics.
// Callers must Close the returned Env.
func Setup(opts Options) (*Env, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if level := strings.TrimSpace(opts.LogLevel); level != "" {
		cfg.LogLevel = level
	}

	policy, err := state.ParseEmptyPolicy(cfg.EmptyResults)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	base, closer, err := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		File:   cfg.LogFile,
		Writer: opts.LogWriter,
	})
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	log := logger.Session(base)

	client, err := books.NewClient(books.Options{
		BaseURL:   cfg.BaseURL,
		UserAgent: cfg.UserAgent,
		Timeout:   cfg.RequestTimeout,
	})
	if err != nil {
		_ = closer.Close()
		return nil, fmt.Errorf("init books client: %w", err)
	}

	log.WithFields(logrus.Fields{
		"base_url":      client.BaseURL(),
		"empty_results": policy.String(),
		"enrich":        cfg.EnrichDetails,
	}).Debug("configuration loaded")

	return &Env{
		Config:  cfg,
		Log:     log,
		Client:  client,
		Metrics: metrics.New(),
		Policy:  policy,
		closer:  closer,
	}, nil
}

// NewMachine builds a search session on top of the env's client, seeded
// with recent queries from a previous session.
func (e *Env) NewMachine(recent []string) *state.Machine {
	opts := state.Options{
		DefaultQuery: e.Config.DefaultQuery,
		EmptyPolicy:  e.Policy,
		Recent:       recent,
		Recorder:     e.Metrics,
		Log:          e.Log,
	}
	if e.Config.EnrichDetails {
		opts.Detailer = e.Client
	}
	return state.New(e.Client, opts)
}

// Close releases the log file.
func (e *Env) Close() error {
	if e.closer == nil {
		return nil
	}
	return e.closer.Close()
}
