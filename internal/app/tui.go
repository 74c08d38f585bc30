package app

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/five82/shelf/internal/prefs"
	"github.com/five82/shelf/internal/ui"
)

// Run boots the interactive TUI until the user quits or ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	env, err := Setup(opts)
	if err != nil {
		return err
	}
	defer env.Close()

	prefsPath := opts.PrefsPath
	if strings.TrimSpace(prefsPath) == "" {
		prefsPath = prefs.DefaultPath()
	}
	userPrefs := prefs.Load(prefsPath)

	machine := env.NewMachine(userPrefs.Recent)
	defer machine.Close()

	env.Log.WithField("default_query", env.Config.DefaultQuery).Info("session started")
	defer env.Log.Info("session ended")

	g, gctx := errgroup.WithContext(ctx)
	uiCtx, stopMetrics := context.WithCancel(gctx)

	if addr := strings.TrimSpace(opts.MetricsAddr); addr != "" {
		g.Go(func() error {
			return env.Metrics.Serve(uiCtx, addr, env.Log)
		})
	}

	g.Go(func() error {
		defer stopMetrics()
		err := ui.Run(ui.Options{
			Context:   uiCtx,
			Session:   machine,
			ThemeName: userPrefs.Theme,
			PrefsPath: prefsPath,
			Enrich:    env.Config.EnrichDetails,
			Log:       env.Log,
		})
		if err != nil {
			return fmt.Errorf("run ui: %w", err)
		}
		return nil
	})

	return g.Wait()
}
