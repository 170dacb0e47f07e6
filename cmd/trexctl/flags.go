package main

import (
	"flag"
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"

	"trex/internal/config"
	"trex/internal/storage"
	trexapi "trex/pkg/trex"
)

// commonFlags are accepted by every subcommand that touches the store.
type commonFlags struct {
	configPath   *string
	storeKind    *string
	dbPath       *string
	artifactsDir *string
	verbose      *bool
}

func registerCommonFlags(fs *flag.FlagSet) commonFlags {
	defaults := config.Default()
	return commonFlags{
		configPath:   fs.String("config", "", "optional .ini or .yaml config file"),
		storeKind:    fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite"),
		dbPath:       fs.String("db-path", defaults.Store.DBPath, "sqlite database path"),
		artifactsDir: fs.String("artifacts-dir", defaults.Artifacts.Dir, "run artifacts directory"),
		verbose:      fs.Bool("verbose", false, "log at debug level"),
	}
}

// resolve loads the config file, if any, and lets explicitly set flags win.
func (c commonFlags) resolve(fs *flag.FlagSet) (config.Config, error) {
	cfg, err := config.Load(*c.configPath)
	if err != nil {
		return config.Config{}, err
	}
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "store":
			cfg.Store.Kind = *c.storeKind
		case "db-path":
			cfg.Store.DBPath = *c.dbPath
		case "artifacts-dir":
			cfg.Artifacts.Dir = *c.artifactsDir
		}
	})
	return cfg, cfg.Validate()
}

func (c commonFlags) client(fs *flag.FlagSet) (*trexapi.Client, config.Config, error) {
	cfg, err := c.resolve(fs)
	if err != nil {
		return nil, config.Config{}, err
	}
	client, err := trexapi.New(trexapi.Options{
		StoreKind:    cfg.Store.Kind,
		DBPath:       cfg.Store.DBPath,
		ArtifactsDir: cfg.Artifacts.Dir,
		Logger:       newLogger(os.Stderr, *c.verbose),
	})
	if err != nil {
		return nil, config.Config{}, err
	}
	return client, cfg, nil
}

// newLogger writes text logs to terminals and JSON logs everywhere else.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if f, ok := w.(*os.File); ok && (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}
