// Package main implements the tsgroups CLI, which fits transition-state
// group contributions for reaction families stored in a database directory.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/sanonone/tsgroups/internal/config"
)

var (
	configPath  string
	databaseDir string
	logLevel    string

	// cfg is loaded once flags are parsed.
	cfg config.Config

	version = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "tsgroups",
	Short: "Fit transition-state distance groups",
	Long: `tsgroups estimates transition-state distances for the groups of a
reaction family from training reactions, by additive group contributions.

Each family is a directory under the database root holding groups.yaml,
training.yaml and dictionary.yaml.`,
	Version:           version,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to the YAML configuration file")
	rootCmd.PersistentFlags().StringVar(&databaseDir, "db", "", "Database directory (overrides database_dir)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides log_level)")
}

// setup loads the configuration, applies flag overrides and installs the
// default logger.
func setup(cmd *cobra.Command, _ []string) error {
	var err error
	cfg, err = config.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if databaseDir != "" {
		cfg.DatabaseDir = databaseDir
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	level, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
	if _, err := os.Stat(cfg.DatabaseDir); err != nil {
		return fmt.Errorf("database directory: %w", err)
	}
	return nil
}
