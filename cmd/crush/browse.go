package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/contentcrush/crush/pkg/cache"
	"github.com/contentcrush/crush/pkg/config"
	"github.com/contentcrush/crush/pkg/format"
	"github.com/contentcrush/crush/pkg/loader"
	"github.com/contentcrush/crush/pkg/ui"
)

// errNoTerminal is returned when the browser is started without a TTY.
var errNoTerminal = errors.New("the browser needs a terminal; use `crush tree` for plain output")

func (a *app) newBrowseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Open the interactive file browser (default)",
		Args:  cobra.NoArgs,
		RunE:  a.runBrowse,
	}
}

func (a *app) runBrowse(cmd *cobra.Command, args []string) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) || !term.IsTerminal(int(os.Stdin.Fd())) {
		return errNoTerminal
	}

	src, closeSrc, err := a.source()
	if err != nil {
		return err
	}
	defer closeSrc()

	cfg := a.cfg
	// Cache and state live under .crush/ when the config does.
	if filepath.Base(cfg.Dir()) == config.DirName {
		if err := loader.EnsureGitignored(filepath.Dir(cfg.Dir()), config.DirName); err != nil {
			a.logger.Debug("updating .gitignore", zap.Error(err))
		}
	}

	m := ui.NewModel(browseOptions(cfg, src, cache.New(cfg.CachePath(), nil, a.logger.Named("cache")), a.logger))
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context()))

	if cfg.Watch.Enabled {
		worker, err := ui.NewBackgroundWorker(ui.WorkerConfig{
			SourcePath: cfg.SourcePath(),
			Source:     src,
			Debounce:   cfg.Watch.Debounce,
			Send:       p.Send,
			Logger:     a.logger.Named("watch"),
		})
		if err != nil {
			a.logger.Warn("live reload disabled", zap.Error(err))
		} else {
			if err := worker.Start(); err != nil {
				a.logger.Warn("starting watcher", zap.Error(err))
			}
			defer worker.Stop()
		}
	}

	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("running browser: %w", err)
	}
	return nil
}

// browseOptions maps the configuration onto the browser's options.
func browseOptions(cfg *config.Config, src ui.DataSource, files ui.FileFetcher, logger *zap.Logger) ui.Options {
	return ui.Options{
		Source:        src,
		Files:         files,
		Logger:        logger.Named("ui"),
		HighContrast:  cfg.Preferences.HighContrast,
		ReducedMotion: cfg.Preferences.ReducedMotion,
		Dates: format.DateOptions{
			Layout:   cfg.Preferences.DateFormat,
			Relative: cfg.Preferences.RelativeDates,
		},
		ToastDuration:    cfg.Notifications.ToastDuration,
		MaxToasts:        cfg.Notifications.MaxToasts,
		PersistTreeState: cfg.PersistTreeState,
		StateDir:         cfg.StatePath(),
	}
}
