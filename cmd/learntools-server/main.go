package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/at-ishikawa/learntools/internal/bootstrap"
	"github.com/at-ishikawa/learntools/internal/completion"
	"github.com/at-ishikawa/learntools/internal/config"
	"github.com/at-ishikawa/learntools/internal/database"
	"github.com/at-ishikawa/learntools/internal/exercise"
	"github.com/at-ishikawa/learntools/internal/notebook"
	"github.com/at-ishikawa/learntools/internal/registry"
	"github.com/at-ishikawa/learntools/internal/server"
)

var (
	configFile string
	debug      bool
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "learntools-server",
		Short:         "HTTP server for the learning tools",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			setupLogger(debug)
			return loadDotEnv(".env")
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context())
		},
	}
	rootCmd.Flags().StringVar(&configFile, "config", "", "config file path")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	return rootCmd
}

func setupLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level:     level,
		AddSource: debug,
	})
	slog.SetDefault(slog.New(handler))
}

// loadDotEnv exports the variables of path so LEARNTOOLS_* overrides can live
// next to the binary. A missing file is not an error.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("godotenv.Load(%s) > %w", path, err)
	}
	return nil
}

func run(ctx context.Context) error {
	app := bootstrap.New()

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loadConfig() > %w", err)
	}

	db, err := database.Open(cfg.Database)
	if err != nil {
		return fmt.Errorf("database.Open() > %w", err)
	}
	app.AddCloser("database", db.Close)
	if err := database.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return fmt.Errorf("database.Migrate() > %w", err)
	}

	fetcher := exercise.NewHTTPFetcher(cfg.Fetch.Timeout(), cfg.Fetch.RetryAttempts, cfg.Fetch.AllowedHosts)
	app.AddCloser("fetcher", fetcher.Close)

	directory := registry.NewDirectory(cfg.Registry.TypesDirectory, cfg.Registry.RegistryFilePath())
	if err := directory.Reload(); err != nil {
		slog.Default().Warn("failed to load the tool registry", "error", err)
	}

	srv := server.New(cfg, server.Dependencies{
		Fetcher:     fetcher,
		Completions: completion.NewDBStorage(db),
		Notebooks:   notebook.NewDBStore(db),
		Directory:   directory,
	})
	app.AddShutdownHook("notebooks", srv.Close)

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           h2c.NewHandler(srv.Handler(), &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}
	app.AddShutdownHook("http", httpServer.Shutdown)

	return app.Run(ctx, func(ctx context.Context) error {
		if cfg.Registry.Watch {
			watcher, err := registry.NewWatcher(directory)
			if err != nil {
				return fmt.Errorf("registry.NewWatcher() > %w", err)
			}
			go func() {
				if err := watcher.Run(ctx); err != nil {
					slog.Default().Error("registry watcher stopped", "error", err)
				}
			}()
		}

		slog.Default().Info("starting server", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
}

func loadConfig() (*config.Config, error) {
	loader, err := config.NewConfigLoader(configFile)
	if err != nil {
		return nil, fmt.Errorf("config.NewConfigLoader() > %w", err)
	}
	return loader.Load()
}
