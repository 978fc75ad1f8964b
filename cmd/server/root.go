package main

import (
	"fmt"
	"log/slog"

	"github.com/phrazzld/studydeck-api/internal/config"
	"github.com/phrazzld/studydeck-api/internal/platform/logger"
	"github.com/spf13/cobra"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "studydeck-api",
		Short:         "Spaced-repetition study engine",
		Long:          "studydeck-api schedules flashcard reviews with the SM-2 algorithm and serves the study API.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().String("config", "", "Path to a config file (default ./config.yaml when present)")

	root.AddCommand(newServeCmd())
	root.AddCommand(newMigrateCmd())
	root.AddCommand(newRebuildCmd())
	root.AddCommand(newTokenCmd())

	return root
}

// loadConfig loads the configuration named by --config and sets up logging.
func loadConfig(cmd *cobra.Command) (*config.Config, *slog.Logger, error) {
	path, _ := cmd.Flags().GetString("config")

	cfg, err := config.LoadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	log.Debug("configuration loaded",
		slog.Int("port", cfg.Server.Port),
		slog.String("log_level", cfg.Server.LogLevel),
		slog.String("database_driver", cfg.Database.Driver),
		slog.Bool("redis_enabled", cfg.Redis.Addr != ""))

	return cfg, log, nil
}
