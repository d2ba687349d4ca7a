// Command crush browses the files a studio keeps for its clients: client,
// project, task and file, as one tree.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/contentcrush/crush/pkg/config"
	"github.com/contentcrush/crush/pkg/loader"
	"github.com/contentcrush/crush/pkg/logging"
	"github.com/contentcrush/crush/pkg/model"
	"github.com/contentcrush/crush/pkg/store"
	"github.com/contentcrush/crush/pkg/ui"
)

// app holds the global flags and what PersistentPreRunE builds from them.
type app struct {
	configPath string
	sourcePath string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "crush",
		Short: "Browse client, project and task files as a tree",
		Long: `crush shows every file a studio keeps as one tree:

  client > project > task > file

Files attached directly to a client or project sit next to that entity's
children. Run without a subcommand to open the interactive browser.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
		RunE: a.runBrowse,
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default: nearest .crush/config.yaml)")
	root.PersistentFlags().StringVar(&a.sourcePath, "source", "", "database or snapshot to open, overriding the config")
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "log at debug level")

	root.AddCommand(
		a.newBrowseCmd(),
		a.newTreeCmd(),
		a.newStatsCmd(),
		a.newExportCmd(),
		a.newAddCmd(),
		a.newSeedCmd(),
		a.newInitCmd(),
	)
	return root
}

// setup loads the configuration and builds the file logger.
func (a *app) setup() error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}
	if a.sourcePath != "" {
		abs, err := filepath.Abs(a.sourcePath)
		if err != nil {
			return err
		}
		cfg.Source.Path = abs
		cfg.Source.Kind = config.InferSourceKind(abs)
	}
	a.cfg = cfg

	logger, err := logging.New(logging.Options{
		File:    cfg.LogPath(),
		Level:   cfg.Log.Level,
		Verbose: a.verbose,
	})
	if err != nil {
		return fmt.Errorf("initializing logger: %w", err)
	}
	a.logger = logger
	a.logger.Debug("configuration loaded",
		zap.String("dir", cfg.Dir()),
		zap.String("source", cfg.SourcePath()),
		zap.String("kind", string(cfg.Source.Kind)))
	return nil
}

func (a *app) loadConfig() (*config.Config, error) {
	if a.configPath != "" {
		return config.Load(a.configPath)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return config.LoadOrDefault(cwd)
}

// source opens the configured data source. The returned closer is never nil.
func (a *app) source() (ui.DataSource, func(), error) {
	path := a.cfg.SourcePath()
	switch a.cfg.Source.Kind {
	case config.SourceSnapshot:
		if _, err := os.Stat(path); err != nil {
			return nil, func() {}, a.missingSource(path, err)
		}
		return loader.NewSource(path), func() {}, nil
	default:
		s, err := store.Open(path, a.logger.Named("store"))
		if err != nil {
			return nil, func() {}, err
		}
		return s, func() {
			if err := s.Close(); err != nil {
				a.logger.Warn("closing store", zap.Error(err))
			}
		}, nil
	}
}

// writableStore opens the configured source as a store, refusing snapshots.
func (a *app) writableStore() (*store.Store, error) {
	if a.cfg.Source.Kind != config.SourceSQLite {
		return nil, fmt.Errorf("%s: %w", a.cfg.SourcePath(), ui.ErrReadOnly)
	}
	return store.Open(a.cfg.SourcePath(), a.logger.Named("store"))
}

// missingSource decorates a missing snapshot error with nearby candidates.
func (a *app) missingSource(path string, err error) error {
	if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	root := a.cfg.Dir()
	if filepath.Base(root) == config.DirName {
		root = filepath.Dir(root)
	}
	candidates := config.ScanSources(root, 2)
	if len(candidates) == 0 {
		return fmt.Errorf("data source %s does not exist", path)
	}
	return fmt.Errorf("data source %s does not exist; found %s (use --source)", path, candidates[0])
}

// loadDataset reads every collection from the configured source.
func (a *app) loadDataset(ctx context.Context) (*model.Dataset, error) {
	src, closeSrc, err := a.source()
	if err != nil {
		return nil, err
	}
	defer closeSrc()
	return src.LoadDataset(ctx)
}
