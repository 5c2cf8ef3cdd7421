// Package cmd provides the scout CLI: index management, context queries,
// and the retrieval-augmented chat loop.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/adalundhe/scout/core/config"
	"github.com/adalundhe/scout/core/events"
	"github.com/adalundhe/scout/core/storage"
)

var (
	configPath string
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "scout",
	Short: "Scout - workspace context retrieval for coding assistants",
	Long: `Scout indexes a workspace and retrieves ranked context snippets
(files, symbols, diagnostics, documentation) for a query, feeding them to an
LLM chat loop or printing them directly.`,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
}

// loadConfig resolves directories and loads configuration, honoring the
// --config and --log-level flags.
func loadConfig() (*config.Config, *storage.Dirs, error) {
	dirs, err := storage.ResolveDirs()
	if err != nil {
		return nil, nil, fmt.Errorf("resolve directories: %w", err)
	}

	manager := config.NewManager(dirs)
	if configPath != "" {
		err = manager.LoadFile(configPath)
	} else {
		err = manager.Load()
	}
	if err != nil {
		return nil, nil, err
	}

	cfg := manager.Get()
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	return cfg, dirs, nil
}

// newLogger builds the process logger from config and installs it as the
// slog default.
func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// newEventBus starts the lifecycle event bus with a subscriber that mirrors
// every event onto the debug log. Callers must Close the bus when done.
func newEventBus(logger *slog.Logger) *events.Bus {
	bus := events.NewBus(events.DefaultBufferSize)
	bus.Subscribe(&events.SubscriberFunc{
		SubID: "cli-log",
		Fn: func(event *events.Event) error {
			logger.Debug("lifecycle event",
				"type", event.Type.String(),
				"query", event.Query,
				"file_path", event.FilePath,
				"error", event.Error,
			)
			return nil
		},
	})
	return bus
}
